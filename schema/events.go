package schema

// TabsEvent is emitted by the tab store after every observable change.
type TabsEvent struct {
	Tabs      []Tab
	ActiveTab TabID
}

// State returns the event payload as a TabsState.
func (e TabsEvent) State() TabsState {
	return TabsState{Tabs: e.Tabs, ActiveTab: e.ActiveTab}
}
