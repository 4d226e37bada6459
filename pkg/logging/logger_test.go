package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{" INFO ", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"chatty", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSlogLogger_JSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(WithOutput(&buf), WithJSON(), WithLevel(slog.LevelDebug))

	logger.With(String("socket_id", "abc")).Debug("carousel stopped", Int("selections", 2))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "carousel stopped" || entry["socket_id"] != "abc" || entry["selections"] != float64(2) {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestSlogLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(WithOutput(&buf), WithLevel(slog.LevelWarn))

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(WithOutput(&buf))

	var ctxLogger Logger
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("hi"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ai-on-sagemaker-hyperpod/", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request ID")
	}
	if ctxLogger == nil {
		t.Error("expected a request logger in the context")
	}
	out := buf.String()
	for _, want := range []string{"request completed", "status=418", "bytes=2", "path=/ai-on-sagemaker-hyperpod/"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %q, got %q", want, out)
		}
	}
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	h := RequestLogger(NopLogger{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("expected incoming ID to be kept, got %q", got)
	}
}

func TestL_FallsBackToDefault(t *testing.T) {
	if L(httptest.NewRequest(http.MethodGet, "/", nil).Context()) != DefaultLogger {
		t.Error("expected DefaultLogger without a context logger")
	}
}

func TestRequestLogger_HealthProbesAtDebug(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(NewSlogLogger(WithOutput(&buf)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if buf.Len() != 0 {
		t.Errorf("expected probe to stay below info, got %q", buf.String())
	}
}

func TestWithFormat(t *testing.T) {
	var buf bytes.Buffer
	NewSlogLogger(WithOutput(&buf), WithFormat("json")).Info("ready")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}
