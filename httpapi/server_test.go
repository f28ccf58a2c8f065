package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pkt.systems/codepane/core"
	"pkt.systems/codepane/internal/persist"
	"pkt.systems/codepane/preview"
	"pkt.systems/codepane/schema"
)

type testEnv struct {
	server *Server
	store  *core.Store
	editor *core.Editor
	pane   *preview.Pane
	hub    *Hub
	http   *httptest.Server
}

func newTestEnv(t *testing.T, cfg Config, initial ...schema.AddTabRequest) *testEnv {
	t.Helper()
	hub := NewHub(32, nil)
	pane := preview.NewPane(nil, hub, nil)
	listener := core.ListenerFunc(func(event schema.TabsEvent) {
		hub.OnTabsChanged(event)
		pane.OnTabsChanged(event)
	})
	store := core.NewStore(context.Background(), schema.StoreConfig{Initial: initial}, core.StoreDeps{
		KV:       persist.NewMemoryStore(),
		Listener: listener,
	})
	editor := core.NewEditor(store, time.Hour)
	server := NewServer(cfg, store, editor, pane, hub)
	server.SetClock(func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) })
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		editor.Cancel()
		ts.Close()
	})
	return &testEnv{server: server, store: store, editor: editor, pane: pane, hub: hub, http: ts}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.http.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.http.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	var payload map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(resp.Body).Decode(&payload)
	}
	return resp, payload
}

func TestTabsLifecycle(t *testing.T) {
	env := newTestEnv(t, Config{})

	resp, payload := env.do(t, http.MethodPost, "/api/tabs", `{"name":"page","language":"HTML","content":"<p>hi</p>"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add status %d: %v", resp.StatusCode, payload)
	}
	tab := payload["tab"].(map[string]any)
	id := tab["id"].(string)
	if tab["language"] != "html" {
		t.Fatalf("expected normalized language, got %v", tab["language"])
	}

	resp, payload = env.do(t, http.MethodGet, "/api/tabs", "")
	if resp.StatusCode != http.StatusOK || payload["active_tab"] != id {
		t.Fatalf("unexpected list: %d %v", resp.StatusCode, payload)
	}

	resp, payload = env.do(t, http.MethodPost, "/api/tabs/update", `{"tab_id":"`+id+`","name":"renamed"}`)
	if resp.StatusCode != http.StatusOK || payload["updated"] != true {
		t.Fatalf("unexpected update: %d %v", resp.StatusCode, payload)
	}

	resp, payload = env.do(t, http.MethodPost, "/api/tabs/remove", `{"tab_id":"`+id+`"}`)
	if resp.StatusCode != http.StatusOK || payload["removed"] != true || payload["active_tab"] != "" {
		t.Fatalf("unexpected remove: %d %v", resp.StatusCode, payload)
	}
	if got := len(env.store.ListTabs(context.Background()).Tabs); got != 0 {
		t.Fatalf("expected no tabs, got %d", got)
	}
}

func TestTabsRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, Config{}, schema.AddTabRequest{Name: "a"})

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown language", "/api/tabs", `{"language":"cobol"}`, http.StatusBadRequest},
		{"unknown field", "/api/tabs", `{"color":"red"}`, http.StatusBadRequest},
		{"select missing", "/api/tabs/select", `{"tab_id":"nope"}`, http.StatusNotFound},
		{"update missing", "/api/tabs/update", `{"tab_id":"nope","name":"x"}`, http.StatusNotFound},
		{"edit missing", "/api/edit", `{"tab_id":"nope","content":"x"}`, http.StatusNotFound},
		{"edit without id", "/api/edit", `{"content":"x"}`, http.StatusBadRequest},
		{"bad mode", "/api/preview/mode", `{"mode":"pdf"}`, http.StatusBadRequest},
		{"unavailable mode", "/api/preview/mode", `{"mode":"json"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, payload := env.do(t, http.MethodPost, tc.path, tc.body)
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d (%v)", tc.status, resp.StatusCode, payload)
			}
			if _, ok := payload["error"]; !ok {
				t.Fatalf("expected error payload, got %v", payload)
			}
		})
	}
	if resp, _ := env.do(t, http.MethodDelete, "/api/tabs", ""); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestEditIsBufferedUntilFlush(t *testing.T) {
	env := newTestEnv(t, Config{}, schema.AddTabRequest{Name: "notes", Language: schema.LanguageMarkdown})
	id := env.store.ListTabs(context.Background()).ActiveTab

	resp, payload := env.do(t, http.MethodPost, "/api/edit", `{"tab_id":"`+string(id)+`","content":"# Hi"}`)
	if resp.StatusCode != http.StatusAccepted || payload["pending"] != true {
		t.Fatalf("unexpected edit: %d %v", resp.StatusCode, payload)
	}
	if tab, _ := env.store.ListTabs(context.Background()).Active(); tab.Content != "" {
		t.Fatalf("edit committed before flush: %q", tab.Content)
	}
	if env.pane.Result().Mode != schema.PreviewEmpty {
		t.Fatalf("expected empty preview before flush")
	}

	_, payload = env.do(t, http.MethodPost, "/api/edit/flush", "")
	if payload["flushed"] != true {
		t.Fatalf("expected flush, got %v", payload)
	}
	if tab, _ := env.store.ListTabs(context.Background()).Active(); tab.Content != "# Hi" {
		t.Fatalf("expected flushed content, got %q", tab.Content)
	}
	result := env.pane.Result()
	if result.Mode != schema.PreviewMarkdown || !strings.Contains(result.Document, `<h1 id="hi">Hi</h1>`) {
		t.Fatalf("unexpected preview: %+v", result)
	}
}

func TestSelectFlushesPendingEdit(t *testing.T) {
	env := newTestEnv(t, Config{}, schema.AddTabRequest{Name: "a"}, schema.AddTabRequest{Name: "b"})
	state := env.store.ListTabs(context.Background())
	a, b := state.Tabs[0].ID, state.Tabs[1].ID

	env.do(t, http.MethodPost, "/api/edit", `{"tab_id":"`+string(a)+`","content":"<p>a</p>"}`)
	resp, _ := env.do(t, http.MethodPost, "/api/tabs/select", `{"tab_id":"`+string(b)+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select status %d", resp.StatusCode)
	}
	state = env.store.ListTabs(context.Background())
	if state.ActiveTab != b || state.Tabs[0].Content != "<p>a</p>" {
		t.Fatalf("unexpected state after select: %+v", state)
	}
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t, Config{}, schema.AddTabRequest{Name: "data", Language: schema.LanguageJSON, Content: `{"a":1}`})

	resp, err := env.http.Client().Get(env.http.URL + "/api/export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var exported []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&exported); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	_ = resp.Body.Close()
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="code-editor-tabs-2026-03-09.json"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if len(exported) != 1 || exported[0]["name"] != "data" {
		t.Fatalf("unexpected export %v", exported)
	}

	resp2, payload := env.do(t, http.MethodPost, "/api/import", `[{"name":"x","language":"css","content":"p{}"},{"name":"y","language":"html","content":""}]`)
	if resp2.StatusCode != http.StatusOK || payload["imported"] != float64(2) {
		t.Fatalf("unexpected import: %d %v", resp2.StatusCode, payload)
	}
	state := env.store.ListTabs(context.Background())
	if len(state.Tabs) != 2 || state.ActiveTab != state.Tabs[0].ID {
		t.Fatalf("unexpected state after import: %+v", state)
	}

	resp3, payload := env.do(t, http.MethodPost, "/api/import", `{"not":"array"}`)
	if resp3.StatusCode != http.StatusBadRequest || !strings.Contains(payload["error"].(string), "array") {
		t.Fatalf("expected not-array rejection, got %d %v", resp3.StatusCode, payload)
	}
	if got := len(env.store.ListTabs(context.Background()).Tabs); got != 2 {
		t.Fatalf("rejected import must not change state, got %d tabs", got)
	}
}

func TestImportTooLarge(t *testing.T) {
	env := newTestEnv(t, Config{MaxImportBytes: 8})
	resp, _ := env.do(t, http.MethodPost, "/api/import", `[{"name":"too long"}]`)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestPreviewDocument(t *testing.T) {
	env := newTestEnv(t, Config{})
	resp, _ := env.do(t, http.MethodGet, "/preview", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for empty preview, got %d", resp.StatusCode)
	}

	env.store.AddTab(context.Background(), schema.AddTabRequest{Language: schema.LanguageHTML, Content: "<b>bold</b>"})
	resp, err := env.http.Client().Get(env.http.URL + "/preview")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Security-Policy"); got != PreviewContentSecurityPolicy {
		t.Fatalf("unexpected csp %q", got)
	}
	var body strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		body.WriteString(scanner.Text())
		body.WriteByte('\n')
	}
	if !strings.Contains(body.String(), "<b>bold</b>") {
		t.Fatalf("expected html body in preview, got %q", body.String())
	}

	_, payload := env.do(t, http.MethodGet, "/api/preview", "")
	if payload["mode"] != "html" || payload["empty"] != false {
		t.Fatalf("unexpected preview payload %v", payload)
	}
}

func TestPreviewModeOverride(t *testing.T) {
	env := newTestEnv(t, Config{}, schema.AddTabRequest{Language: schema.LanguageJSON, Content: `[1]`})
	resp, payload := env.do(t, http.MethodPost, "/api/preview/mode", `{"mode":"json"}`)
	if resp.StatusCode != http.StatusOK || payload["mode"] != "json" {
		t.Fatalf("unexpected mode response: %d %v", resp.StatusCode, payload)
	}
}

func TestIndexAppliesPlaceholders(t *testing.T) {
	env := newTestEnv(t, Config{BasePath: "/pane"})
	resp, err := env.http.Client().Get(env.http.URL + "/pane/")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var body strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		body.WriteString(scanner.Text())
	}
	if !strings.Contains(body.String(), `<base href="/pane/" />`) {
		t.Fatalf("expected base href, got %q", body.String())
	}
	if !strings.Contains(body.String(), `data-debounce-ms="3600000"`) {
		t.Fatalf("expected debounce placeholder replaced")
	}
	if strings.Contains(body.String(), baseHrefPlaceholder) {
		t.Fatalf("placeholder left in index")
	}
	if !strings.Contains(body.String(), `id="preview-languages"`) {
		t.Fatalf("expected supported languages in the empty preview placeholder")
	}

	client := env.http.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	redirect, err := client.Get(env.http.URL + "/pane")
	if err != nil {
		t.Fatalf("redirect: %v", err)
	}
	_ = redirect.Body.Close()
	if redirect.StatusCode != http.StatusTemporaryRedirect || redirect.Header.Get("Location") != "/pane/" {
		t.Fatalf("unexpected redirect %d %q", redirect.StatusCode, redirect.Header.Get("Location"))
	}
}

func TestStreamSnapshotAndLiveEvents(t *testing.T) {
	env := newTestEnv(t, Config{}, schema.AddTabRequest{Name: "a"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, env.http.URL+"/api/stream", nil)
	resp, err := env.http.Client().Do(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	events := readEvents(resp)

	first := <-events
	if first.Type != EventSnapshot || first.Snapshot == nil || len(first.Snapshot.Tabs.Tabs) != 1 {
		t.Fatalf("unexpected first event %+v", first)
	}

	env.store.AddTab(context.Background(), schema.AddTabRequest{Name: "b", Content: "<i>b</i>"})
	var sawTabs, sawPreview bool
	for !(sawTabs && sawPreview) {
		select {
		case event := <-events:
			switch event.Type {
			case EventTabs:
				sawTabs = len(event.Tabs.Tabs) == 2
			case EventPreview:
				sawPreview = event.Preview.Mode == schema.PreviewHTML
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for live events")
		}
	}
}

func readEvents(resp *http.Response) <-chan StreamEvent {
	out := make(chan StreamEvent, 16)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var event StreamEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
				continue
			}
			out <- event
		}
	}()
	return out
}
