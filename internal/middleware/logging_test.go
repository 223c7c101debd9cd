package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriterCapturesStatusAndBytes(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusOK) // second call must be ignored
	n, err := rw.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write = %d, %v", n, err)
	}

	if rw.statusCode != http.StatusTeapot {
		t.Errorf("statusCode = %d, want 418", rw.statusCode)
	}
	if rw.bytesWritten != 5 {
		t.Errorf("bytesWritten = %d, want 5", rw.bytesWritten)
	}
}

func TestResponseWriterDefaultsTo200(t *testing.T) {
	t.Parallel()

	rw := newResponseWriter(httptest.NewRecorder())
	if _, err := rw.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	if rw.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want 200", rw.statusCode)
	}
}

func TestSanitizeLogField(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"with\nnewline", "with newline"},
		{"with\rreturn", "with return"},
		{"null\x00byte", "nullbyte"},
		{"esc\x1bape", "escape"},
		{"tab\tok", "tab\tok"},
	}
	for _, c := range cases {
		if got := sanitizeLogField(c.in); got != c.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestShouldSkip(t *testing.T) {
	t.Parallel()

	cfg := LoggingConfig{SkipPaths: []string{"/metrics"}, LogHealthChecks: false}

	if !shouldSkip("/metrics", cfg) {
		t.Error("configured skip path not skipped")
	}
	if !shouldSkip("/healthz", cfg) {
		t.Error("health check not skipped when LogHealthChecks is false")
	}
	if shouldSkip("/api/views/timeline", cfg) {
		t.Error("api path skipped")
	}

	cfg.LogHealthChecks = true
	if shouldSkip("/healthz", cfg) {
		t.Error("health check skipped when LogHealthChecks is true")
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := getClientIP(req); got != "10.0.0.1" {
		t.Errorf("RemoteAddr ip = %s", got)
	}

	req.Header.Set("X-Real-IP", "10.0.0.2")
	if got := getClientIP(req); got != "10.0.0.2" {
		t.Errorf("X-Real-IP ip = %s", got)
	}

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	if got := getClientIP(req); got != "10.0.0.3" {
		t.Errorf("X-Forwarded-For ip = %s", got)
	}
}
