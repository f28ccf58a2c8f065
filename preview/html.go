package preview

import (
	"encoding/json"
	"strings"

	"pkt.systems/codepane/schema"
)

// OutputElementID is the element that receives script error messages.
const OutputElementID = "demo-output"

const demoScaffold = `<div class="container">
  <h1>CSS/JS Preview</h1>
  <p>This template shows the effect of your CSS and JavaScript.</p>
  <div id="demo-area">
    <button id="demo-button">Click me</button>
    <div id="demo-output">Output will appear here</div>
  </div>
</div>`

// scriptTemplate evaluates the source with indirect eval so that syntax
// errors are caught too and top-level declarations stay global.
const scriptTemplate = `(function () {
  var source = %SOURCE%;
  try {
    (0, eval)(source);
  } catch (error) {
    console.error("JavaScript error:", error);
    var output = document.getElementById("` + OutputElementID + `");
    if (output) {
      output.textContent = "JavaScript error: " + (error && error.message ? error.message : String(error));
    }
  }
})();`

func htmlBody(b schema.Bundle) string {
	switch {
	case filled(b.HTML):
		return b.HTML
	case filled(b.CSS), filled(b.JS):
		return demoScaffold
	default:
		return ""
	}
}

func htmlScript(js string) (string, error) {
	if !filled(js) {
		return "", nil
	}
	literal, err := json.Marshal(js)
	if err != nil {
		return "", err
	}
	return strings.Replace(scriptTemplate, "%SOURCE%", string(literal), 1), nil
}

// escapeStyle keeps user styles from closing the style element.
func escapeStyle(css string) string {
	return replaceFold(css, "</style", `<\/style`)
}

// replaceFold replaces every case-insensitive occurrence of old, which must be ASCII.
func replaceFold(s, old, repl string) string {
	lower := asciiLower(s)
	if !strings.Contains(lower, old) {
		return s
	}
	var out strings.Builder
	out.Grow(len(s))
	for {
		idx := strings.Index(lower, old)
		if idx < 0 {
			out.WriteString(s)
			return out.String()
		}
		out.WriteString(s[:idx])
		out.WriteString(repl)
		s = s[idx+len(old):]
		lower = lower[idx+len(old):]
	}
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
