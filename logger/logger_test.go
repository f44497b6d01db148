package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/warp/attendance/config"
)

func TestNew(t *testing.T) {
	log, err := New(config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = New(config.LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}
