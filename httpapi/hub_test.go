package httpapi

import (
	"testing"

	"pkt.systems/codepane/schema"
)

func TestHubSequencesAndReplay(t *testing.T) {
	hub := NewHub(3, nil)
	for i := 0; i < 5; i++ {
		hub.OnTabsChanged(schema.TabsEvent{})
	}
	if hub.Seq() != 5 {
		t.Fatalf("expected seq 5, got %d", hub.Seq())
	}
	replay := hub.Replay(0)
	if len(replay) != 3 || replay[0].Seq != 3 || replay[2].Seq != 5 {
		t.Fatalf("unexpected retained history %+v", replay)
	}
	if got := hub.Replay(4); len(got) != 1 || got[0].Seq != 5 {
		t.Fatalf("unexpected replay after 4: %+v", got)
	}
}

func TestHubSubscribeReceivesInOrder(t *testing.T) {
	hub := NewHub(8, nil)
	hub.OnPreview(schema.PreviewResult{Mode: schema.PreviewEmpty, Empty: true})
	ch, unsub, seq, history := hub.Subscribe()
	if seq != 1 || len(history) != 1 {
		t.Fatalf("unexpected subscribe state seq=%d history=%d", seq, len(history))
	}
	hub.OnTabsChanged(schema.TabsEvent{ActiveTab: "a"})
	hub.OnPreview(schema.PreviewResult{Mode: schema.PreviewHTML})
	first, second := <-ch, <-ch
	if first.Seq != 2 || first.Type != EventTabs || first.Tabs.ActiveTab != "a" {
		t.Fatalf("unexpected first event %+v", first)
	}
	if second.Seq != 3 || second.Type != EventPreview || second.Preview.Mode != schema.PreviewHTML {
		t.Fatalf("unexpected second event %+v", second)
	}
	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after unsubscribe")
	}
	hub.OnTabsChanged(schema.TabsEvent{})
}
