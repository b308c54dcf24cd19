package contextutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := LoggerFromContext(context.Background(), fallback); got != fallback {
		t.Error("expected fallback logger when none is stored")
	}
	if got := LoggerFromContext(context.Background(), nil); got != slog.Default() {
		t.Error("expected slog.Default() when no fallback is given")
	}

	scoped := fallback.With("request_id", "abc")
	ctx := WithLogger(context.Background(), scoped)
	if got := LoggerFromContext(ctx, fallback); got != scoped {
		t.Error("expected the stored logger")
	}
}
