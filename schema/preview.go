package schema

// Bundle is the per-slot projection of the active tab's content.
type Bundle struct {
	HTML     string `json:"html"`
	CSS      string `json:"css"`
	JS       string `json:"js"`
	Markdown string `json:"markdown"`
	JSON     string `json:"json"`
}

// Slot returns the content held by a slot.
func (b Bundle) Slot(slot Slot) string {
	switch slot {
	case SlotHTML:
		return b.HTML
	case SlotCSS:
		return b.CSS
	case SlotJS:
		return b.JS
	case SlotMarkdown:
		return b.Markdown
	case SlotJSON:
		return b.JSON
	default:
		return ""
	}
}

// PreviewMode is the rendering strategy applied to a bundle.
type PreviewMode string

const (
	// PreviewMarkdown renders the markdown slot.
	PreviewMarkdown PreviewMode = "markdown"
	// PreviewJSON renders the json slot as a tree.
	PreviewJSON PreviewMode = "json"
	// PreviewHTML assembles html, css and js slots.
	PreviewHTML PreviewMode = "html"
	// PreviewEmpty means there is nothing to render.
	PreviewEmpty PreviewMode = "empty"
)

// ParsePreviewMode validates a preview mode name.
func ParsePreviewMode(value string) (PreviewMode, error) {
	switch mode := PreviewMode(value); mode {
	case PreviewMarkdown, PreviewJSON, PreviewHTML, PreviewEmpty:
		return mode, nil
	default:
		return "", ErrInvalidRequest
	}
}

// PreviewResult is a composed preview. Empty results carry no document.
type PreviewResult struct {
	Mode     PreviewMode   `json:"mode"`
	Modes    []PreviewMode `json:"modes"`
	Document string        `json:"document,omitempty"`
	Empty    bool          `json:"empty"`
}
