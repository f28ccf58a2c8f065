package integration_test

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"pkt.systems/codepane/core"
	"pkt.systems/codepane/httpapi"
	"pkt.systems/codepane/internal/persist"
	"pkt.systems/codepane/preview"
	"pkt.systems/codepane/schema"
)

type testServer struct {
	store   *core.Store
	editor  *core.Editor
	pane    *preview.Pane
	hub     *httpapi.Hub
	httpSrv *httpapi.Server
	closer  io.Closer
}

func requireLong(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// newTestServer wires the stack the way the serve command does, over a
// SQLite database at dbPath.
func newTestServer(t *testing.T, dbPath string, debounce time.Duration) *testServer {
	t.Helper()
	kv, closer, err := persist.Open(persist.BackendSQLite, filepath.Dir(dbPath), dbPath, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	hub := httpapi.NewHub(64, nil)
	pane := preview.NewPane(nil, hub, nil)
	listener := core.ListenerFunc(func(event schema.TabsEvent) {
		hub.OnTabsChanged(event)
		pane.OnTabsChanged(event)
	})
	store := core.NewStore(context.Background(), schema.StoreConfig{}, core.StoreDeps{KV: kv, Listener: listener})
	editor := core.NewEditor(store, debounce)
	ts := &testServer{
		store:   store,
		editor:  editor,
		pane:    pane,
		hub:     hub,
		httpSrv: httpapi.NewServer(httpapi.Config{}, store, editor, pane, hub),
		closer:  closer,
	}
	t.Cleanup(ts.close)
	return ts
}

func (ts *testServer) close() {
	if ts.closer == nil {
		return
	}
	ts.editor.Flush(context.Background())
	_ = ts.closer.Close()
	ts.closer = nil
}

func (ts *testServer) serve(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(ts.httpSrv.Handler())
	t.Cleanup(server.Close)
	return server
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}
