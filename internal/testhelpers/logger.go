package testhelpers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/teddytown/internal/logging"
)

// NewLogger creates a debug level logger that writes to the test log.
func NewLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return NewLoggerTo(testWriter{t: t})
}

// NewLoggerTo creates a debug level logger with the given log sink such as io.Discard.
func NewLoggerTo(logSink io.Writer) *slog.Logger {
	handler := logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	return slog.New(handler)
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
