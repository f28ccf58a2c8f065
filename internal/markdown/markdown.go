package markdown

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// ErrRender reports a failed conversion, including a recovered panic.
var ErrRender = errors.New("markdown render failed")

// Renderer converts Markdown to an HTML fragment.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a renderer with GitHub-flavoured extensions (tables,
// strikethrough, autolinks, task lists) and generated heading ids.
func New() *Renderer {
	return NewWithMarkdown(goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	))
}

// NewWithMarkdown wraps a preconfigured goldmark instance.
func NewWithMarkdown(md goldmark.Markdown) *Renderer {
	if md == nil {
		md = goldmark.New()
	}
	return &Renderer{md: md}
}

// Render converts src. Panics raised during conversion are returned as errors.
func (r *Renderer) Render(src string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = ""
			err = fmt.Errorf("%w: panic: %v", ErrRender, rec)
		}
	}()
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	return buf.String(), nil
}

var defaultRenderer = New()

// Render converts src with the default renderer.
func Render(src string) (string, error) {
	return defaultRenderer.Render(src)
}
