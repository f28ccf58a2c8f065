package markdown

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
)

func TestRenderHeadingAndParagraph(t *testing.T) {
	got, err := Render("# Title\n\nHello")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(got, `<h1 id="title">Title</h1>`) {
		t.Fatalf("expected h1, got %q", got)
	}
	if !strings.Contains(got, "<p>Hello</p>") {
		t.Fatalf("expected paragraph, got %q", got)
	}
}

func TestRenderGFMExtensions(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n\n- [x] done\n"
	got, err := Render(src)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"<table>", "<del>gone</del>", `type="checkbox"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
}

func TestRenderEscapesRawHTMLByDefault(t *testing.T) {
	got, err := Render("<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Fatalf("raw html should be omitted, got %q", got)
	}
}

type panickingMarkdown struct {
	goldmark.Markdown
}

func (panickingMarkdown) Convert([]byte, io.Writer, ...parser.ParseOption) error {
	panic("boom")
}

func TestRenderRecoversPanic(t *testing.T) {
	r := NewWithMarkdown(panickingMarkdown{Markdown: goldmark.New()})
	out, err := r.Render("# anything")
	if !errors.Is(err, ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if out != "" || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("unexpected result %q %v", out, err)
	}
}
