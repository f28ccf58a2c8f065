package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/codepane/schema"
	"pkt.systems/pslog"
)

// Stream event types.
const (
	EventSnapshot = "snapshot"
	EventTabs     = "tabs"
	EventPreview  = "preview"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64                `json:"seq"`
	Type      string                `json:"type"`
	Tabs      *schema.TabsState     `json:"tabs,omitempty"`
	Preview   *schema.PreviewResult `json:"preview,omitempty"`
	Snapshot  *SnapshotPayload      `json:"snapshot,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// SnapshotPayload seeds client state on connect.
type SnapshotPayload struct {
	Tabs    schema.TabsState     `json:"tabs"`
	Preview schema.PreviewResult `json:"preview"`
}

// Hub broadcasts store and preview changes to stream subscribers and keeps a
// bounded history for Last-Event-ID replay.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
	logger      pslog.Logger
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int, logger pslog.Logger) *Hub {
	if historySize <= 0 {
		historySize = 256
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
		logger:      logger,
	}
}

// OnTabsChanged publishes the tab collection.
func (h *Hub) OnTabsChanged(event schema.TabsEvent) {
	state := event.State().Clone()
	h.logger.Trace("hub tabs event", "count", len(state.Tabs), "active", state.ActiveTab)
	h.publish(StreamEvent{
		Type:      EventTabs,
		Tabs:      &state,
		Timestamp: time.Now(),
	})
}

// OnPreview publishes a composed preview.
func (h *Hub) OnPreview(result schema.PreviewResult) {
	h.logger.Trace("hub preview event", "mode", result.Mode, "bytes", len(result.Document))
	h.publish(StreamEvent{
		Type:      EventPreview,
		Preview:   &result,
		Timestamp: time.Now(),
	})
}

// Subscribe registers a subscriber. It returns the event channel, the
// unsubscribe func, the sequence at subscription time and the history up to it.
func (h *Hub) Subscribe() (<-chan StreamEvent, func(), uint64, []StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	history := append([]StreamEvent(nil), h.history...)
	seq := h.seq
	h.logger.Info("hub subscribe", "subs", len(h.subs), "history", len(history))
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			remaining := len(h.subs)
			h.mu.Unlock()
			h.logger.Info("hub unsubscribe", "subs", remaining)
		})
	}
	return ch, unsub, seq, history
}

// Replay returns retained events after the provided seq.
func (h *Hub) Replay(after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := replayFrom(h.history, after)
	h.logger.Debug("hub replay", "after", after, "count", len(events))
	return events
}

func replayFrom(history []StreamEvent, after uint64) []StreamEvent {
	events := make([]StreamEvent, 0, len(history))
	for _, event := range history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	return events
}

// Seq returns the last published sequence number.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// publish assigns the next sequence and delivers under the lock so every
// subscriber sees events in sequence order. Slow subscribers drop events.
func (h *Hub) publish(event StreamEvent) {
	h.mu.Lock()
	h.seq++
	event.Seq = h.seq
	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	dropped := 0
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()
	if dropped > 0 {
		h.logger.Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}
