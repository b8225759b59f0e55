package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromFlags(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, levelFromFlags(false, false, false))
	assert.Equal(t, slog.LevelInfo, levelFromFlags(false, true, false))
	assert.Equal(t, slog.LevelDebug, levelFromFlags(true, true, false))
	assert.Equal(t, slog.LevelError, levelFromFlags(false, false, true))
}
