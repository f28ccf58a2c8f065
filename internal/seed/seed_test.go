package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"pkt.systems/codepane/schema"
)

func TestLoadFSMatchesGlobsInOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"site/index.html":      {Data: []byte("<h1>hi</h1>")},
		"site/css/app.css":     {Data: []byte("h1{}")},
		"site/js/app.ts":       {Data: []byte("let a = 1")},
		"notes/readme.md":      {Data: []byte("# Notes")},
		"notes/data.json":      {Data: []byte(`{"a":1}`)},
		"notes/image.png":      {Data: []byte{0x89}},
		"site/css/vendor.scss": {Data: []byte("$x: 1;")},
	}
	tabs, err := LoadFS(context.Background(), fsys, Options{Globs: []string{"notes/*", "site/**/*", "notes/readme.md"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []struct {
		name string
		lang schema.Language
	}{
		{"notes/data.json", schema.LanguageJSON},
		{"notes/readme.md", schema.LanguageMarkdown},
		{"site/css/app.css", schema.LanguageCSS},
		{"site/index.html", schema.LanguageHTML},
		{"site/js/app.ts", schema.LanguageTypeScript},
	}
	if len(tabs) != len(want) {
		t.Fatalf("expected %d tabs, got %+v", len(want), tabs)
	}
	for i, w := range want {
		if string(tabs[i].Name) != w.name || tabs[i].Language != w.lang {
			t.Fatalf("tab %d = %s/%s, want %s/%s", i, tabs[i].Name, tabs[i].Language, w.name, w.lang)
		}
	}
	if tabs[0].Content != `{"a":1}` {
		t.Fatalf("unexpected content %q", tabs[0].Content)
	}
}

func TestLoadFSSkipsLargeFiles(t *testing.T) {
	fsys := fstest.MapFS{"big.md": {Data: make([]byte, 64)}}
	tabs, err := LoadFS(context.Background(), fsys, Options{Globs: []string{"*.md"}, MaxBytes: 16})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tabs) != 0 {
		t.Fatalf("expected large file skipped")
	}
}

func TestLoadRejectsBadPattern(t *testing.T) {
	if _, err := LoadFS(context.Background(), fstest.MapFS{}, Options{Globs: []string{"[unterminated"}}); err == nil {
		t.Fatalf("expected bad pattern error")
	}
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte("<p>x</p>"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tabs, err := Load(context.Background(), Options{BaseDir: dir, Globs: []string{"*.html"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tabs) != 1 || tabs[0].Name != "page.html" {
		t.Fatalf("unexpected tabs %+v", tabs)
	}
}
