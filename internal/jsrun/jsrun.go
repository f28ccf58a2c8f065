// Package jsrun executes the inline scripts of a composed preview document
// outside a browser. It provides a minimal DOM (element lookup by id with
// textContent and innerHTML) and a recording console.
package jsrun

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pkt.systems/codepane/internal/logx"
)

// DefaultTimeout bounds a run when the context has no deadline.
const DefaultTimeout = 5 * time.Second

// ConsoleEntry is one console call made by a script.
type ConsoleEntry struct {
	Level   string
	Message string
}

// Result is the observable outcome of running a document.
type Result struct {
	// Elements maps element ids to their text after all scripts ran.
	Elements map[string]string
	Console  []ConsoleEntry
	// Uncaught holds errors that escaped a script block.
	Uncaught []error
}

// Text returns the text of the element with id.
func (r Result) Text(id string) (string, bool) {
	text, ok := r.Elements[id]
	return text, ok
}

type element struct {
	id   string
	text string
}

// Run parses document and executes its inline scripts in order.
func Run(ctx context.Context, document string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}
	log := logx.Ctx(ctx)
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return Result{}, fmt.Errorf("parse document: %w", err)
	}
	elements := map[string]*element{}
	var order []string
	var scripts []string
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if id := attr(n, "id"); id != "" {
			if _, exists := elements[id]; !exists {
				elements[id] = &element{id: id, text: textOf(n)}
				order = append(order, id)
			}
		}
		if n.DataAtom == atom.Script && attr(n, "src") == "" && isJavaScript(attr(n, "type")) {
			scripts = append(scripts, textOf(n))
		}
	})

	result := Result{Elements: map[string]string{}}
	vm := goja.New()
	installConsole(vm, &result)
	installDocument(vm, elements)
	_ = vm.Set("window", vm.GlobalObject())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	for i, src := range scripts {
		if err := runScript(vm, src); err != nil {
			var interrupted *goja.InterruptedError
			if errors.As(err, &interrupted) {
				log.Warn("jsrun interrupted", "script", i, "err", err)
				return collect(result, elements, order), fmt.Errorf("script %d: %w", i, ctx.Err())
			}
			log.Debug("jsrun uncaught error", "script", i, "err", err)
			result.Uncaught = append(result.Uncaught, err)
		}
	}
	log.Debug("jsrun ok", "scripts", len(scripts), "console", len(result.Console), "uncaught", len(result.Uncaught))
	return collect(result, elements, order), nil
}

func runScript(vm *goja.Runtime, src string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("script panicked: %v", rec)
		}
	}()
	_, err = vm.RunString(src)
	return err
}

func collect(result Result, elements map[string]*element, order []string) Result {
	for _, id := range order {
		result.Elements[id] = elements[id].text
	}
	return result
}

func installConsole(vm *goja.Runtime, result *Result) {
	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(level, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, 0, len(call.Arguments))
			for _, arg := range call.Arguments {
				parts = append(parts, arg.String())
			}
			result.Console = append(result.Console, ConsoleEntry{Level: level, Message: strings.Join(parts, " ")})
			return goja.Undefined()
		})
	}
	_ = vm.Set("console", console)
}

func installDocument(vm *goja.Runtime, elements map[string]*element) {
	document := vm.NewObject()
	_ = document.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		el, ok := elements[call.Argument(0).String()]
		if !ok {
			return goja.Null()
		}
		return elementObject(vm, el)
	})
	_ = vm.Set("document", document)
}

func elementObject(vm *goja.Runtime, el *element) *goja.Object {
	obj := vm.NewObject()
	_ = obj.Set("id", el.id)
	getter := vm.ToValue(func(goja.FunctionCall) goja.Value {
		return vm.ToValue(el.text)
	})
	setter := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		el.text = call.Argument(0).String()
		return goja.Undefined()
	})
	for _, name := range []string{"textContent", "innerHTML", "innerText"} {
		_ = obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
	}
	_ = obj.Set("addEventListener", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	return obj
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
	})
	return b.String()
}

func isJavaScript(scriptType string) bool {
	switch strings.ToLower(strings.TrimSpace(scriptType)) {
	case "", "text/javascript", "application/javascript", "module":
		return true
	default:
		return false
	}
}
