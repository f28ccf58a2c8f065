package core

import (
	"pkt.systems/codepane/internal/persist"
	"pkt.systems/codepane/schema"
	"pkt.systems/pslog"
)

// StoreDeps captures dependencies for the tab store.
type StoreDeps struct {
	// KV persists the snapshot. Nil keeps state in memory only.
	KV       persist.KV
	Listener Listener
	Logger   pslog.Logger
	// NewID overrides id generation in tests.
	NewID func() schema.TabID
}
