package preview

import (
	"strings"

	"pkt.systems/codepane/schema"
)

// BundleFor projects the active tab of state into a bundle. With no active
// tab every slot is empty.
func BundleFor(state schema.TabsState) schema.Bundle {
	tab, ok := state.Active()
	if !ok {
		return schema.Bundle{}
	}
	return BundleForTab(tab)
}

// BundleForTab places the tab content in the slot its language feeds.
func BundleForTab(tab schema.Tab) schema.Bundle {
	var b schema.Bundle
	switch tab.Language.Slot() {
	case schema.SlotCSS:
		b.CSS = tab.Content
	case schema.SlotJS:
		b.JS = tab.Content
	case schema.SlotMarkdown:
		b.Markdown = tab.Content
	case schema.SlotJSON:
		b.JSON = tab.Content
	default:
		b.HTML = tab.Content
	}
	return b
}

func filled(value string) bool {
	return strings.TrimSpace(value) != ""
}
