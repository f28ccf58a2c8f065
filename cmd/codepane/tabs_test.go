package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf("config_version: 1\nstate_dir: %s\nstorage:\n  backend: %s\n", filepath.Join(dir, "state"), backend)
	return writeFile(t, dir, "config.yaml", cfg)
}

func TestTabsImportListExportClear(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfg := writeTestConfig(t, backend)
			snapshot := `[{"id":"x","name":"page","language":"html","content":"<p>hi</p>"},{"name":"notes","language":"markdown","content":"# n"}]`
			if _, err := runRoot(t, snapshot, "tabs", "import", "-", "-c", cfg); err != nil {
				t.Fatalf("import: %v", err)
			}

			out, err := runRoot(t, "", "tabs", "list", "-c", cfg)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			lines := strings.Split(strings.TrimSpace(out), "\n")
			if len(lines) != 3 {
				t.Fatalf("expected header and two rows, got %q", out)
			}
			if !strings.HasPrefix(lines[1], "*") || !strings.Contains(lines[1], "page") || !strings.Contains(lines[2], "Markdown") {
				t.Fatalf("unexpected list output %q", out)
			}

			out, err = runRoot(t, "", "tabs", "export", "-o", "-", "-c", cfg)
			if err != nil {
				t.Fatalf("export: %v", err)
			}
			var exported []map[string]any
			if err := json.Unmarshal([]byte(out), &exported); err != nil {
				t.Fatalf("decode export %q: %v", out, err)
			}
			if len(exported) != 2 || exported[0]["id"] == "x" {
				t.Fatalf("expected two tabs with fresh ids, got %v", exported)
			}

			if _, err := runRoot(t, "", "tabs", "clear", "-c", cfg); err == nil {
				t.Fatalf("expected clear without --yes to fail")
			}
			if _, err := runRoot(t, "", "tabs", "clear", "--yes", "-c", cfg); err != nil {
				t.Fatalf("clear: %v", err)
			}
			out, err = runRoot(t, "", "tabs", "export", "-o", "-", "-c", cfg)
			if err != nil {
				t.Fatalf("export after clear: %v", err)
			}
			if strings.TrimSpace(out) != "[]" {
				t.Fatalf("expected empty export, got %q", out)
			}
		})
	}
}

func TestTabsImportRejectsObject(t *testing.T) {
	cfg := writeTestConfig(t, "file")
	if _, err := runRoot(t, `{"tabs":[]}`, "tabs", "import", "-", "-c", cfg); err == nil {
		t.Fatalf("expected object import to fail")
	}
}
