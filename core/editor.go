package core

import (
	"context"
	"sync"
	"time"

	"pkt.systems/codepane/internal/logx"
	"pkt.systems/codepane/schema"
)

// ContentUpdater commits content to a tab.
type ContentUpdater interface {
	UpdateContent(ctx context.Context, tabID schema.TabID, content string) bool
}

// Editor buffers content edits and commits the latest value once no edit
// has arrived for the debounce delay. At most one edit is pending.
type Editor struct {
	target ContentUpdater
	delay  time.Duration

	mu      sync.Mutex
	gen     uint64
	pending *pendingEdit
}

type pendingEdit struct {
	ctx     context.Context
	tabID   schema.TabID
	content string
	gen     uint64
	timer   *time.Timer
}

// NewEditor constructs an editor over target. A non-positive delay uses
// schema.DefaultDebounce.
func NewEditor(target ContentUpdater, delay time.Duration) *Editor {
	if delay <= 0 {
		delay = schema.DefaultDebounce
	}
	return &Editor{target: target, delay: delay}
}

// Delay returns the debounce window.
func (e *Editor) Delay() time.Duration {
	return e.delay
}

// Edit records a new value for tabID and restarts the quiet window. An edit
// for a different tab commits the previous pending edit first.
func (e *Editor) Edit(ctx context.Context, tabID schema.TabID, content string) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)
	e.mu.Lock()
	var previous *pendingEdit
	if e.pending != nil {
		e.pending.timer.Stop()
		if e.pending.tabID != tabID {
			previous = e.pending
		}
		e.pending = nil
	}
	e.gen++
	edit := &pendingEdit{ctx: ctx, tabID: tabID, content: content, gen: e.gen}
	gen := e.gen
	edit.timer = time.AfterFunc(e.delay, func() { e.fire(gen) })
	e.pending = edit
	e.mu.Unlock()

	if previous != nil {
		logx.WithTab(previous.ctx, previous.tabID).Debug("editor flush on tab switch", "next", tabID)
		e.commit(previous)
	}
	logx.WithTab(ctx, tabID).Trace("editor edit buffered", "bytes", len(content), "delay", e.delay)
}

// Flush commits the pending edit now. It reports whether an edit was pending.
func (e *Editor) Flush(ctx context.Context) bool {
	e.mu.Lock()
	edit := e.takeLocked()
	e.mu.Unlock()
	if edit == nil {
		return false
	}
	if ctx != nil {
		edit.ctx = logx.CopyContextFields(context.WithoutCancel(ctx), edit.ctx)
	}
	e.commit(edit)
	return true
}

// Cancel drops the pending edit without committing it.
func (e *Editor) Cancel() bool {
	e.mu.Lock()
	edit := e.takeLocked()
	e.mu.Unlock()
	if edit == nil {
		return false
	}
	logx.WithTab(edit.ctx, edit.tabID).Debug("editor edit canceled")
	return true
}

// Pending returns the buffered edit, if any.
func (e *Editor) Pending() (schema.TabID, string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return "", "", false
	}
	return e.pending.tabID, e.pending.content, true
}

func (e *Editor) fire(gen uint64) {
	e.mu.Lock()
	if e.pending == nil || e.pending.gen != gen {
		e.mu.Unlock()
		return
	}
	edit := e.pending
	e.pending = nil
	e.mu.Unlock()
	e.commit(edit)
}

func (e *Editor) takeLocked() *pendingEdit {
	edit := e.pending
	if edit == nil {
		return nil
	}
	edit.timer.Stop()
	e.pending = nil
	return edit
}

func (e *Editor) commit(edit *pendingEdit) {
	log := logx.WithTab(edit.ctx, edit.tabID)
	if e.target == nil {
		log.Warn("editor commit dropped", "reason", "no target")
		return
	}
	if e.target.UpdateContent(edit.ctx, edit.tabID, edit.content) {
		log.Debug("editor commit ok", "bytes", len(edit.content))
		return
	}
	log.Debug("editor commit ignored", "reason", "tab missing or unchanged")
}
