package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddleware_PropagatesInboundID(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("X-Request-ID", "abc12345")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "abc12345" {
		t.Errorf("context request ID = %q, want inbound header value", seen)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "abc12345" {
		t.Errorf("response header = %q, want echoed inbound ID", got)
	}
}

func TestRequestIDMiddleware_GeneratesWhenAbsent(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	if len(seen) != 8 {
		t.Errorf("generated ID = %q, want 8 hex chars", seen)
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("response header %q does not match context ID %q", got, seen)
	}
}
