package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{" / ", ""},
		{"pane", "/pane"},
		{"/pane", "/pane"},
		{"/pane/", "/pane"},
		{"//tools//pane/", "/tools/pane"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildBaseHref(t *testing.T) {
	cases := []struct {
		baseURL  string
		basePath string
		want     string
	}{
		{"", "", ""},
		{"", "/pane", "/pane/"},
		{"", "pane", "/pane/"},
		{"https://example.com", "", "https://example.com/"},
		{"https://example.com/", "pane", "https://example.com/pane/"},
		{"https://example.com/base", "/x", "https://example.com/base/x/"},
	}
	for _, tc := range cases {
		if got := buildBaseHref(tc.baseURL, tc.basePath); got != tc.want {
			t.Fatalf("buildBaseHref(%q, %q) = %q, want %q", tc.baseURL, tc.basePath, got, tc.want)
		}
	}
}

func TestApplyBaseHref(t *testing.T) {
	page := []byte("<head>" + baseHrefPlaceholder + "</head>")
	if got := string(applyBaseHref(page, "")); got != "<head></head>" {
		t.Fatalf("unexpected page without base href: %q", got)
	}
	got := string(applyBaseHref(page, `/a"b/`))
	if !strings.Contains(got, `<base href="/a&#34;b/" />`) {
		t.Fatalf("expected escaped base href, got %q", got)
	}
}

func TestMountAt(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	})
	handler := mountAt("/pane", inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pane/api/tabs", nil))
	if rec.Body.String() != "/api/tabs" {
		t.Fatalf("expected prefix stripped, got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pane", nil))
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/pane/" {
		t.Fatalf("expected redirect to /pane/, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 outside prefix, got %d", rec.Code)
	}
}
