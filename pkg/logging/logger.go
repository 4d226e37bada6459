// Package logging provides structured logging over log/slog with a small
// field-based interface shared by every package.
package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is one key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// ParseLevel maps a level name to a slog level. Unknown names are an error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// SlogLogger implements Logger on top of a slog.Logger.
type SlogLogger struct {
	logger *slog.Logger
}

type loggerConfig struct {
	level  slog.Level
	output io.Writer
	json   bool
}

// LoggerOption configures NewSlogLogger.
type LoggerOption func(*loggerConfig)

func WithLevel(level slog.Level) LoggerOption {
	return func(c *loggerConfig) { c.level = level }
}

func WithOutput(w io.Writer) LoggerOption {
	return func(c *loggerConfig) { c.output = w }
}

// WithJSON switches from the text handler to the JSON handler.
func WithJSON() LoggerOption {
	return func(c *loggerConfig) { c.json = true }
}

// WithFormat selects the handler by name: "json" or anything else for text.
func WithFormat(format string) LoggerOption {
	return func(c *loggerConfig) { c.json = format == "json" }
}

// NewSlogLogger creates a logger writing text to stdout at info level
// unless options say otherwise.
func NewSlogLogger(opts ...LoggerOption) *SlogLogger {
	config := &loggerConfig{
		level:  slog.LevelInfo,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(config)
	}

	handlerOpts := &slog.HandlerOptions{Level: config.level}
	var handler slog.Handler
	if config.json {
		handler = slog.NewJSONHandler(config.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(config.output, handlerOpts)
	}
	return &SlogLogger{logger: slog.New(handler)}
}

// Slog returns the underlying slog logger, for libraries that take one.
func (l *SlogLogger) Slog() *slog.Logger {
	return l.logger
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}

func (l *SlogLogger) Debug(msg string, fields ...Field) { l.logger.Debug(msg, attrs(fields)...) }
func (l *SlogLogger) Info(msg string, fields ...Field)  { l.logger.Info(msg, attrs(fields)...) }
func (l *SlogLogger) Warn(msg string, fields ...Field)  { l.logger.Warn(msg, attrs(fields)...) }
func (l *SlogLogger) Error(msg string, fields ...Field) { l.logger.Error(msg, attrs(fields)...) }

// With returns a logger that adds fields to every entry.
func (l *SlogLogger) With(fields ...Field) Logger {
	return &SlogLogger{logger: l.logger.With(attrs(fields)...)}
}

type loggerContextKey struct{}

// ContextWithLogger stores a logger in ctx.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// LoggerFromContext returns the logger stored in ctx, or nil.
func LoggerFromContext(ctx context.Context) Logger {
	logger, _ := ctx.Value(loggerContextKey{}).(Logger)
	return logger
}

// L returns the request logger from ctx, falling back to DefaultLogger.
func L(ctx context.Context) Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return DefaultLogger
}

// DefaultLogger is used when no request logger is in scope.
var DefaultLogger Logger = NewSlogLogger()

// SetDefault replaces DefaultLogger.
func SetDefault(logger Logger) {
	DefaultLogger = logger
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (l NopLogger) With(fields ...Field) Logger     { return l }

// RequestLogger tags each request with an ID, stores a request logger in
// the context and logs the outcome. Health probes log at debug level.
func RequestLogger(logger Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)

			reqLogger := logger.With(
				String("request_id", reqID),
				String("method", r.Method),
				String("path", r.URL.Path),
			)
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r.WithContext(ContextWithLogger(r.Context(), reqLogger)))

			if rw.hijacked {
				reqLogger.Info("connection upgraded", Duration("duration", time.Since(start)))
				return
			}
			log := reqLogger.Info
			if strings.HasPrefix(r.URL.Path, "/health") {
				log = reqLogger.Debug
			}
			log("request completed",
				Int("status", rw.status),
				Int("bytes", rw.size),
				Duration("duration", time.Since(start)),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status   int
	size     int
	hijacked bool
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Hijack lets WebSocket upgrades pass through the logger.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("logging: %T does not support hijacking", rw.ResponseWriter)
	}
	conn, brw, err := hj.Hijack()
	if err == nil {
		rw.hijacked = true
	}
	return conn, brw, err
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
