package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	err := Initialize(true)
	assert.NoError(t, err)
	assert.True(t, JSONOutput)
	assert.NotNil(t, Logger)

	err = Initialize(false)
	assert.NoError(t, err)
	assert.False(t, JSONOutput)
	assert.NotNil(t, Logger)
}

func TestLevelForVerbosity(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, LevelForVerbosity(0))
	assert.Equal(t, zapcore.InfoLevel, LevelForVerbosity(1))
	assert.Equal(t, zapcore.DebugLevel, LevelForVerbosity(2))
	assert.Equal(t, zapcore.DebugLevel, LevelForVerbosity(5))
}

func TestNopLoggerBeforeInitialize(t *testing.T) {
	// Package-level helpers must be safe before Initialize is called
	Infow("should not panic", "key", "value")
	Warnf("should not panic either: %d", 1)
}
