package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
)

// jsonObject preserves member order as written.
type jsonObject struct {
	fields []jsonField
}

type jsonField struct {
	key   string
	value any
}

// parseJSON decodes exactly one JSON value keeping object key order.
// Numbers are kept as json.Number.
func parseJSON(src string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(src))
	dec.UseNumber()
	value, err := decodeValue(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if _, err := dec.Token(); err == nil {
		return nil, fmt.Errorf("invalid character after top-level value at offset %d", dec.InputOffset())
	} else if !errors.Is(err, io.EOF) {
		return nil, err
	}
	return value, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		obj := &jsonObject{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("invalid object key %v", keyTok)
			}
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.fields = append(obj.fields, jsonField{key: key, value: value})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		list := []any{}
		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", rune(delim))
	}
}

// renderJSONTree renders a decoded value as a nested, typed tree.
func renderJSONTree(value any) string {
	var b strings.Builder
	b.WriteString(`<div class="json-viewer">`)
	writeJSONValue(&b, value)
	b.WriteString(`</div>`)
	return b.String()
}

func writeJSONValue(b *strings.Builder, value any) {
	switch v := value.(type) {
	case nil:
		b.WriteString(`<span class="json-null">null</span>`)
	case bool:
		b.WriteString(`<span class="json-boolean">` + strconv.FormatBool(v) + `</span>`)
	case json.Number:
		b.WriteString(`<span class="json-number">` + html.EscapeString(v.String()) + `</span>`)
	case string:
		b.WriteString(`<span class="json-string">"` + html.EscapeString(v) + `"</span>`)
	case *jsonObject:
		if len(v.fields) == 0 {
			b.WriteString(`<span class="json-bracket">{}</span>`)
			return
		}
		b.WriteString(`<span class="json-bracket">{</span><ul class="json-object">`)
		for _, field := range v.fields {
			b.WriteString(`<li><span class="json-key">"` + html.EscapeString(field.key) + `"</span>: `)
			writeJSONValue(b, field.value)
			b.WriteString(`</li>`)
		}
		b.WriteString(`</ul><span class="json-bracket">}</span>`)
	case []any:
		if len(v) == 0 {
			b.WriteString(`<span class="json-bracket">[]</span>`)
			return
		}
		b.WriteString(`<span class="json-bracket">[</span><ul class="json-array">`)
		for i, item := range v {
			b.WriteString(`<li><span class="json-index">` + strconv.Itoa(i) + `</span>: `)
			writeJSONValue(b, item)
			b.WriteString(`</li>`)
		}
		b.WriteString(`</ul><span class="json-bracket">]</span>`)
	default:
		b.WriteString(`<span class="json-undefined">undefined</span>`)
	}
}

// jsonChecklist lists the usual reasons a hand-written document fails to parse.
var jsonChecklist = []string{
	`Keys must be wrapped in double quotes: {"key": "value"}`,
	`String values must be wrapped in double quotes`,
	`Remove trailing commas before } or ]`,
	`Every { and [ needs a matching } and ]`,
}

func renderJSONDiagnostic(src string, parseErr error) (string, bool) {
	var b strings.Builder
	b.WriteString(`<div class="json-error"><h3>JSON parse error</h3>`)
	b.WriteString(`<pre class="json-error-message">` + html.EscapeString(parseErr.Error()) + `</pre>`)
	b.WriteString(`<h4>Common mistakes</h4><ul class="json-checklist">`)
	for _, item := range jsonChecklist {
		b.WriteString(`<li>` + html.EscapeString(item) + `</li>`)
	}
	b.WriteString(`</ul></div>`)

	repaired := RepairJSON(src)
	value, err := parseJSON(repaired)
	if err != nil {
		b.WriteString(`<h4>Raw content</h4>`)
		b.WriteString(`<pre class="json-raw">` + html.EscapeString(src) + `</pre>`)
		return b.String(), false
	}
	b.WriteString(`<h4>Auto-corrected</h4>`)
	b.WriteString(renderJSONTree(value))
	return b.String(), true
}
