package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"pkt.systems/codepane/schema"
)

type recordingListener struct {
	mu     sync.Mutex
	events []schema.TabsEvent
	notify chan schema.TabsEvent
}

func newRecordingListener() *recordingListener {
	return &recordingListener{notify: make(chan schema.TabsEvent, 64)}
}

func (r *recordingListener) OnTabsChanged(event schema.TabsEvent) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	select {
	case r.notify <- event:
	default:
	}
}

func (r *recordingListener) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recordingListener) Last() (schema.TabsEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return schema.TabsEvent{}, false
	}
	return r.events[len(r.events)-1], true
}

func sequentialIDs() func() schema.TabID {
	var mu sync.Mutex
	n := 0
	return func() schema.TabID {
		mu.Lock()
		defer mu.Unlock()
		n++
		return schema.TabID(fmt.Sprintf("id-%d", n))
	}
}

func assertActiveInvariant(t *testing.T, state schema.TabsState) {
	t.Helper()
	seen := make(map[schema.TabID]struct{}, len(state.Tabs))
	for _, tab := range state.Tabs {
		if _, dup := seen[tab.ID]; dup {
			t.Fatalf("duplicate tab id %q", tab.ID)
		}
		seen[tab.ID] = struct{}{}
	}
	if state.ActiveTab == "" {
		return
	}
	if _, ok := seen[state.ActiveTab]; !ok {
		t.Fatalf("active tab %q not in collection", state.ActiveTab)
	}
}

type logCapture struct {
	t   *testing.T
	mu  sync.Mutex
	buf bytes.Buffer
}

func newLogCapture(t *testing.T) *logCapture {
	t.Helper()
	return &logCapture{t: t}
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *logCapture) Entries() []map[string]any {
	c.mu.Lock()
	data := append([]byte(nil), c.buf.Bytes()...)
	c.mu.Unlock()
	var entries []map[string]any
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			c.t.Fatalf("decode log entry: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func hasMessage(entries []map[string]any, msg string) bool {
	for _, entry := range entries {
		for _, key := range []string{"msg", "message"} {
			if value, ok := entry[key].(string); ok && value == msg {
				return true
			}
		}
	}
	return false
}
