package core

import (
	"context"
	"time"

	"pkt.systems/codepane/schema"
)

// Service is the transport-agnostic API for managing the tab collection.
type Service interface {
	AddTab(ctx context.Context, req schema.AddTabRequest) schema.AddTabResponse
	RemoveTab(ctx context.Context, req schema.RemoveTabRequest) schema.RemoveTabResponse
	SelectTab(ctx context.Context, req schema.SelectTabRequest)
	UpdateTab(ctx context.Context, req schema.UpdateTabRequest) schema.UpdateTabResponse
	UpdateContent(ctx context.Context, tabID schema.TabID, content string) bool
	ClearAll(ctx context.Context)
	ListTabs(ctx context.Context) schema.TabsState
	ExportSnapshot(ctx context.Context, now time.Time) (schema.ExportArtifact, error)
	ImportSnapshot(ctx context.Context, data []byte) (schema.ImportTabsResponse, error)
}

// Listener receives the collection after every observable store change.
// Listeners run synchronously and must not mutate the store from the callback.
type Listener interface {
	OnTabsChanged(event schema.TabsEvent)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(event schema.TabsEvent)

// OnTabsChanged implements Listener.
func (f ListenerFunc) OnTabsChanged(event schema.TabsEvent) {
	if f != nil {
		f(event)
	}
}
