package httpapi

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"path"
	"strings"
)

const baseHrefPlaceholder = "<!-- BASE_HREF -->"

// normalizeBasePath returns "/prefix" without a trailing slash, or "" when
// the UI is mounted at the root.
func normalizeBasePath(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	cleaned := path.Clean("/" + value)
	if cleaned == "/" {
		return ""
	}
	return cleaned
}

// buildBaseHref joins the public base URL and mount prefix into the value
// of the index page <base href>. Relative asset and API urls in the UI
// resolve against it.
func buildBaseHref(baseURL, basePath string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	href := base + normalizeBasePath(basePath)
	if href == "" {
		return ""
	}
	return href + "/"
}

func applyBaseHref(data []byte, baseHref string) []byte {
	tag := ""
	if baseHref != "" {
		tag = fmt.Sprintf(`<base href="%s" />`, html.EscapeString(baseHref))
	}
	return bytes.ReplaceAll(data, []byte(baseHrefPlaceholder), []byte(tag))
}

// mountAt serves handler below prefix. The bare prefix redirects to
// prefix + "/" so relative urls in the UI resolve.
func mountAt(prefix string, handler http.Handler) http.Handler {
	if prefix == "" {
		return handler
	}
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	root.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}
