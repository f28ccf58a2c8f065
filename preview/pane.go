package preview

import (
	"context"
	"sync"

	"pkt.systems/codepane/schema"
	"pkt.systems/pslog"
)

// Sink receives each newly composed preview.
type Sink interface {
	OnPreview(result schema.PreviewResult)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(result schema.PreviewResult)

// OnPreview implements Sink.
func (f SinkFunc) OnPreview(result schema.PreviewResult) {
	if f != nil {
		f(result)
	}
}

// Pane tracks the active bundle, recomposes when it changes and keeps a
// manual mode override until the next bundle change.
type Pane struct {
	composer *Composer
	sink     Sink
	logger   pslog.Logger

	mu       sync.Mutex
	notifyMu sync.Mutex
	seen     bool
	bundle   schema.Bundle
	override schema.PreviewMode
	result   schema.PreviewResult
}

// NewPane constructs a pane. The initial result is the empty preview.
func NewPane(composer *Composer, sink Sink, logger pslog.Logger) *Pane {
	if composer == nil {
		composer = defaultComposer
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Pane{
		composer: composer,
		sink:     sink,
		logger:   logger,
		result:   schema.PreviewResult{Mode: schema.PreviewEmpty, Modes: []schema.PreviewMode{}, Empty: true},
	}
}

// OnTabsChanged recomposes when the active bundle differs from the last one.
func (p *Pane) OnTabsChanged(event schema.TabsEvent) {
	bundle := BundleFor(event.State())
	p.mu.Lock()
	if p.seen && bundle == p.bundle {
		p.mu.Unlock()
		return
	}
	p.seen = true
	p.bundle = bundle
	if p.override != "" {
		p.logger.Debug("preview override reset", "mode", p.override)
	}
	p.override = ""
	p.recomposeLocked()
}

// SetMode overrides the automatic mode for the current bundle.
func (p *Pane) SetMode(mode schema.PreviewMode) (schema.PreviewResult, error) {
	p.mu.Lock()
	if !ModeAvailable(p.bundle, mode) {
		p.mu.Unlock()
		p.logger.Warn("preview override rejected", "mode", mode, "err", schema.ErrModeUnavailable)
		return schema.PreviewResult{}, schema.ErrModeUnavailable
	}
	if p.override == mode || (p.override == "" && SelectMode(p.bundle) == mode) {
		result := p.result
		p.override = mode
		p.mu.Unlock()
		return result, nil
	}
	p.override = mode
	p.logger.Info("preview override set", "mode", mode)
	return p.recomposeLocked(), nil
}

// Result returns the most recent composition.
func (p *Pane) Result() schema.PreviewResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Bundle returns the bundle the current result was composed from.
func (p *Pane) Bundle() schema.Bundle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bundle
}

// recomposeLocked must be called with p.mu held and releases it.
func (p *Pane) recomposeLocked() schema.PreviewResult {
	mode := p.override
	if mode == "" {
		mode = SelectMode(p.bundle)
	}
	ctx := pslog.ContextWithLogger(context.Background(), p.logger)
	result := p.composer.Compose(ctx, p.bundle, mode)
	p.result = result
	p.notifyMu.Lock()
	p.mu.Unlock()
	defer p.notifyMu.Unlock()
	if p.sink != nil {
		p.sink.OnPreview(result)
	}
	return result
}
