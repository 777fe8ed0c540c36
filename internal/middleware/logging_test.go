package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	var called bool
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("wrapped handler not called")
	}
	if rec.Code != http.StatusAccepted {
		t.Errorf("status not propagated, got %d", rec.Code)
	}
}

func TestLoggingMiddlewareDefaultStatus(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected implicit 200, got %d", rec.Code)
	}
}

func TestRedactQuery(t *testing.T) {
	query := url.Values{}
	query.Set("code", "super-secret-authorization-code")
	query.Set("hub.verify_token", "verify-secret")
	query.Set("scope", "read_all")

	redacted := redactQuery(query)

	if strings.Contains(redacted, "super-secret-authorization-code") {
		t.Error("authorization code leaked into log output")
	}
	if strings.Contains(redacted, "verify-secret") {
		t.Error("verify token leaked into log output")
	}
	if !strings.Contains(redacted, "scope=read_all") {
		t.Errorf("harmless params should survive, got %s", redacted)
	}
	if !strings.Contains(redacted, "%5BREDACTED%5D") {
		t.Errorf("expected redaction marker, got %s", redacted)
	}
}
