package codepane

import (
	"pkt.systems/codepane/core"
	"pkt.systems/codepane/preview"
	"pkt.systems/codepane/schema"
)

// tabsFanout delivers store events to every listener in order. The hub runs
// before the preview pane so subscribers see a tabs event ahead of the
// preview it produces.
type tabsFanout struct {
	listeners []core.Listener
}

func (f tabsFanout) OnTabsChanged(event schema.TabsEvent) {
	for _, listener := range f.listeners {
		if listener == nil {
			continue
		}
		listener.OnTabsChanged(event)
	}
}

type previewFanout struct {
	sinks []preview.Sink
}

func (f previewFanout) OnPreview(result schema.PreviewResult) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnPreview(result)
	}
}
