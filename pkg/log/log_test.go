package log

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponent(t *testing.T) {
	logger := WithComponent("poller")
	require.NotNil(t, logger)

	// Child loggers share the package handler and its level.
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestSetDebugTogglesLevel(t *testing.T) {
	t.Cleanup(func() { SetDebug(false) })

	logger := WithComponent("dispatcher")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))

	SetDebug(true)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	SetDebug(false)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
