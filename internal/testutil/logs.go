package testutil

import (
	"io"
	"log/slog"
	"testing"
)

// QuietLogs discards the default slog output until the test ends.
func QuietLogs(t testing.TB) {
	t.Helper()
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
}
