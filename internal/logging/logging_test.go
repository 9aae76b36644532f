package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewReplacesGlobals(t *testing.T) {
	logger, restore, err := New("warn", "clinic-service", "test")
	require.NoError(t, err)
	defer restore()

	assert.Same(t, logger, zap.L())
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New("loud", "clinic-service", "test")
	assert.Error(t, err)
}
