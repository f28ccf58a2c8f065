package preview

import "pkt.systems/codepane/schema"

// modePrecedence lists modes from highest to lowest priority together with
// the slots that make each one available.
var modePrecedence = []struct {
	mode  schema.PreviewMode
	slots []schema.Slot
}{
	{mode: schema.PreviewMarkdown, slots: []schema.Slot{schema.SlotMarkdown}},
	{mode: schema.PreviewJSON, slots: []schema.Slot{schema.SlotJSON}},
	{mode: schema.PreviewHTML, slots: []schema.Slot{schema.SlotHTML, schema.SlotCSS, schema.SlotJS}},
}

// AvailableModes returns the modes backed by a non-empty slot, highest
// precedence first. An empty list means the empty mode.
func AvailableModes(b schema.Bundle) []schema.PreviewMode {
	modes := make([]schema.PreviewMode, 0, len(modePrecedence))
	for _, entry := range modePrecedence {
		for _, slot := range entry.slots {
			if filled(b.Slot(slot)) {
				modes = append(modes, entry.mode)
				break
			}
		}
	}
	return modes
}

// SelectMode returns the highest precedence available mode.
func SelectMode(b schema.Bundle) schema.PreviewMode {
	if modes := AvailableModes(b); len(modes) > 0 {
		return modes[0]
	}
	return schema.PreviewEmpty
}

// ModeAvailable reports whether mode can be chosen as an override for b.
func ModeAvailable(b schema.Bundle, mode schema.PreviewMode) bool {
	for _, candidate := range AvailableModes(b) {
		if candidate == mode {
			return true
		}
	}
	return false
}
