package schema

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Tab is one independently named, languaged and edited unit of content.
type Tab struct {
	ID       TabID
	Name     TabName
	Language Language
	Content  string
	// Extra holds fields outside the known set so imported records round-trip.
	// A known field whose imported value is not a string is also kept here,
	// raw, and written back in place of the typed value.
	Extra map[string]json.RawMessage
}

var tabKnownFields = map[string]struct{}{
	"id":       {},
	"name":     {},
	"language": {},
	"content":  {},
}

// MarshalJSON writes the known fields first, then extra fields in key order.
func (t Tab) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}
	if err := write("id", t.ID); err != nil {
		return nil, err
	}
	for _, field := range []struct {
		key   string
		value any
	}{
		{"name", t.Name},
		{"language", t.Language},
		{"content", t.Content},
	} {
		value := field.value
		if raw, ok := t.Extra[field.key]; ok {
			value = raw
		}
		if err := write(field.key, value); err != nil {
			return nil, err
		}
	}
	keys := make([]string, 0, len(t.Extra))
	for key := range t.Extra {
		if _, known := tabKnownFields[key]; known {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := write(key, t.Extra[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts any value. Known fields are read when they are
// strings; other values of name, language and content are kept raw in Extra
// along with the unknown fields. A non-string id is discarded. A value that
// is not an object decodes to an empty tab.
func (t *Tab) UnmarshalJSON(data []byte) error {
	*t = Tab{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	keep := func(key string, value json.RawMessage) {
		if t.Extra == nil {
			t.Extra = make(map[string]json.RawMessage)
		}
		t.Extra[key] = append(json.RawMessage(nil), value...)
	}
	for key, value := range raw {
		if _, known := tabKnownFields[key]; !known {
			keep(key, value)
			continue
		}
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			if key != "id" {
				keep(key, value)
			}
			continue
		}
		switch key {
		case "id":
			t.ID = TabID(text)
		case "name":
			t.Name = TabName(text)
		case "language":
			t.Language = Language(text)
		case "content":
			t.Content = text
		}
	}
	return nil
}

// DropRaw removes a raw value kept for a known field so the typed value is
// written again. It reports whether one was present.
func (t *Tab) DropRaw(key string) bool {
	if _, ok := t.Extra[key]; !ok {
		return false
	}
	delete(t.Extra, key)
	return true
}

// Clone returns a deep copy of the tab.
func (t Tab) Clone() Tab {
	if t.Extra == nil {
		return t
	}
	extra := make(map[string]json.RawMessage, len(t.Extra))
	for key, value := range t.Extra {
		extra[key] = append(json.RawMessage(nil), value...)
	}
	t.Extra = extra
	return t
}

// TabsState is the ordered tab collection plus the active tab pointer.
type TabsState struct {
	Tabs      []Tab `json:"tabs"`
	ActiveTab TabID `json:"active_tab"`
}

// Active returns the active tab, if any.
func (s TabsState) Active() (Tab, bool) {
	if s.ActiveTab == "" {
		return Tab{}, false
	}
	for _, tab := range s.Tabs {
		if tab.ID == s.ActiveTab {
			return tab, true
		}
	}
	return Tab{}, false
}

// Clone returns a deep copy of the state.
func (s TabsState) Clone() TabsState {
	tabs := make([]Tab, len(s.Tabs))
	for i, tab := range s.Tabs {
		tabs[i] = tab.Clone()
	}
	return TabsState{Tabs: tabs, ActiveTab: s.ActiveTab}
}

// ExportArtifact is a downloadable snapshot of the tab collection.
type ExportArtifact struct {
	Filename string
	Data     []byte
}
