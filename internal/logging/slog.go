package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// redactedKeys are attribute keys whose values never reach the output.
var redactedKeys = []string{"password", "token", "secret", "authorization", "cookie"}

const redacted = "[REDACTED]"

// redact is a slog ReplaceAttr hook masking credentials and session tokens.
func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, k := range redactedKeys {
		if strings.Contains(key, k) {
			return slog.String(a.Key, redacted)
		}
	}
	return a
}

type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// NewJSONLogger writes JSON lines to w at level, tagged with the service
// name and with credential attributes redacted.
func NewJSONLogger(w io.Writer, level slog.Level) *SlogLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, ReplaceAttr: redact})
	return NewSlogLogger(slog.New(h).With("service", "tubeauth"))
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}
