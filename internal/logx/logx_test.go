package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"pkt.systems/codepane/schema"
	"pkt.systems/pslog"
)

func newTestLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestWithTabAddsField(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newTestLogger(capture))
	log := WithTab(ctx, "tab1")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["tab"] != "tab1" {
		t.Fatalf("expected tab field, got %+v", entry)
	}
}

func TestWithTabSkipsDuplicate(t *testing.T) {
	capture := &logCapture{}
	logger := newTestLogger(capture).With("tab", "tab1")
	ctx := ContextWithTabLogger(context.Background(), logger, "tab1")
	WithTab(ctx, "tab1").Info("hello")

	line := strings.TrimSpace(capture.buf.String())
	if strings.Count(line, `"tab"`) != 1 {
		t.Fatalf("expected a single tab field, got %s", line)
	}
}

func TestWithLanguageAndMode(t *testing.T) {
	capture := &logCapture{}
	log := WithMode(WithLanguage(newTestLogger(capture), schema.LanguageJSON), schema.PreviewJSON)
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["language"] != "json" || entry["mode"] != "json" {
		t.Fatalf("expected language and mode fields, got %+v", entry)
	}
}

func TestCopyContextFields(t *testing.T) {
	src := ContextWithTab(context.Background(), "tab9")
	dst := CopyContextFields(context.Background(), src)
	if got, _ := dst.Value(tabKey).(schema.TabID); got != "tab9" {
		t.Fatalf("expected tab marker copied, got %q", got)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
