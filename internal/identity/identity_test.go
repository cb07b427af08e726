package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareIssuesAndKeepsPlayerID(t *testing.T) {
	var seen string
	h := Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PlayerIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if !isValidPlayerID(seen) {
		t.Fatalf("expected generated player id, got %q", seen)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != seen {
		t.Fatalf("expected cookie with player id, got %v", cookies)
	}

	first := seen
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: PlayerCookieName, Value: first})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != first {
		t.Fatalf("expected player id to be kept, got %q want %q", seen, first)
	}
}

func TestMiddlewareReplacesForgedCookie(t *testing.T) {
	var seen string
	h := Middleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PlayerIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: PlayerCookieName, Value: "agent_../../etc"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen == "agent_../../etc" || !isValidPlayerID(seen) {
		t.Fatalf("expected forged cookie to be replaced, got %q", seen)
	}
	if c := rr.Result().Cookies()[0]; !c.Secure {
		t.Fatal("expected secure cookie outside development")
	}
}

func TestIPFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:5555"
	if got := IPFromRequest(r); got != "10.0.0.7" {
		t.Fatalf("got %q", got)
	}
}
