package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func corsServer(opts ...Option) http.Handler {
	s := New(opts...)
	s.Mount("/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	return s.Mux()
}

func TestCORS_Preflight(t *testing.T) {
	h := corsServer(WithCORS([]string{"https://app.example"}, []string{"Authorization", "Content-Type"}))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight status: %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("allow-origin: %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Fatalf("allow-headers: %q", got)
	}

	// headers outside the configured list are refused
	req.Header.Set("Access-Control-Request-Headers", "X-Debug")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unlisted header, got %d", rr.Code)
	}
}

func TestCORS_OriginNotListed(t *testing.T) {
	h := corsServer(WithCORS([]string{"https://app.example"}, []string{"Authorization"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Body.String() != "pong" {
		t.Fatalf("request should still be served: %d %q", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("origin must not be reflected, got %q", got)
	}
}

func TestCORS_DisabledByDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example")
	rr := httptest.NewRecorder()
	corsServer().ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("no CORS headers expected, got %q", got)
	}
}
