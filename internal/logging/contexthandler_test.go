package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/myrjola/teddytown/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(&buf, nil)))

	ctx := logging.WithAttrs(context.Background(), slog.String("game_id", "abc"))
	sibling := logging.WithAttrs(ctx, slog.String("character", "Sheriff Paws"))
	other := logging.WithAttrs(ctx, slog.String("character", "Baker Bruin"))

	logger.With(slog.String("source", "test")).InfoContext(sibling, "asked")
	require.Contains(t, buf.String(), "game_id=abc")
	require.Contains(t, buf.String(), `character="Sheriff Paws"`)
	require.Contains(t, buf.String(), "source=test")

	buf.Reset()
	logger.InfoContext(other, "asked")
	require.Contains(t, buf.String(), `character="Baker Bruin"`)
	require.NotContains(t, buf.String(), "Sheriff Paws")
}
