package preview

import (
	"context"
	"fmt"
	"html"
	"strings"

	"pkt.systems/codepane/internal/logx"
	"pkt.systems/codepane/internal/markdown"
	"pkt.systems/codepane/schema"
)

// Composer turns bundles into standalone preview documents.
type Composer struct {
	md *markdown.Renderer
}

// NewComposer constructs a composer. A nil renderer uses the default
// goldmark configuration.
func NewComposer(md *markdown.Renderer) *Composer {
	if md == nil {
		md = markdown.New()
	}
	return &Composer{md: md}
}

var defaultComposer = NewComposer(nil)

// Compose renders b with the default composer.
func Compose(ctx context.Context, b schema.Bundle, mode schema.PreviewMode) schema.PreviewResult {
	return defaultComposer.Compose(ctx, b, mode)
}

// Compose renders b in mode. A mode that is not available for b falls back
// to the automatic selection. Compose never panics; failures are rendered
// inline.
func (c *Composer) Compose(ctx context.Context, b schema.Bundle, mode schema.PreviewMode) (result schema.PreviewResult) {
	modes := AvailableModes(b)
	if !ModeAvailable(b, mode) {
		mode = SelectMode(b)
	}
	log := logx.WithMode(logx.Ctx(ctx), mode)
	result = schema.PreviewResult{Mode: mode, Modes: modes}
	if mode == schema.PreviewEmpty {
		result.Empty = true
		log.Trace("preview compose empty")
		return result
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("preview compose panic", "panic", rec)
			result.Document = errorDocument("Preview failed", fmt.Sprint(rec))
		}
	}()
	switch mode {
	case schema.PreviewMarkdown:
		result.Document = c.markdownDocument(ctx, b.Markdown)
	case schema.PreviewJSON:
		result.Document = jsonDocument(ctx, b.JSON)
	default:
		result.Document = htmlDocument(ctx, b)
	}
	log.Debug("preview compose ok", "bytes", len(result.Document))
	return result
}

func (c *Composer) markdownDocument(ctx context.Context, src string) string {
	rendered, err := c.md.Render(src)
	if err != nil {
		logx.Ctx(ctx).Warn("preview markdown render failed", "err", err)
		return document([]string{markdownCSS, diagnosticCSS}, errorBlock("Markdown render failed", err.Error()), "")
	}
	return document([]string{markdownCSS}, `<article class="markdown-body">`+rendered+`</article>`, "")
}

func jsonDocument(ctx context.Context, src string) string {
	value, err := parseJSON(src)
	if err == nil {
		return document([]string{jsonCSS}, renderJSONTree(value), "")
	}
	body, repaired := renderJSONDiagnostic(src, err)
	logx.Ctx(ctx).Debug("preview json parse failed", "err", err, "repaired", repaired)
	return document([]string{jsonCSS, diagnosticCSS}, body, "")
}

func htmlDocument(ctx context.Context, b schema.Bundle) string {
	styles := []string{}
	if filled(b.CSS) {
		styles = append(styles, "/* user styles */\n"+escapeStyle(b.CSS))
	}
	script, err := htmlScript(b.JS)
	if err != nil {
		logx.Ctx(ctx).Warn("preview script embed failed", "err", err)
		return document([]string{diagnosticCSS}, errorBlock("Script could not be embedded", err.Error()), "")
	}
	return document(styles, htmlBody(b), script)
}

func errorBlock(title, detail string) string {
	return `<div class="preview-error"><strong>` + html.EscapeString(title) + `</strong><pre>` + html.EscapeString(detail) + `</pre></div>`
}

func errorDocument(title, detail string) string {
	return document([]string{diagnosticCSS}, errorBlock(title, detail), "")
}

// document assembles a standalone page: baseline styles, the mode styles,
// the body and an optional script.
func document(styles []string, body, script string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString(`<meta charset="utf-8">` + "\n")
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
	b.WriteString("<title>Preview</title>\n<style>\n")
	b.WriteString(baselineCSS)
	for _, style := range styles {
		b.WriteString("\n")
		b.WriteString(style)
	}
	b.WriteString("\n</style>\n</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n")
	if script != "" {
		b.WriteString("<script>\n")
		b.WriteString(script)
		b.WriteString("\n</script>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
