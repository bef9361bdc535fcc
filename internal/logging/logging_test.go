package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	logger, err := New("debug", "json")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = New("WARN", "console")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.ErrorLevel))

	_, err = New("chatty", "json")
	assert.Error(t, err)
}

func TestLevelCanChange(t *testing.T) {
	logger, level, err := NewWithLevel("error", "json")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	lvl, err := ParseLevel("Info")
	require.NoError(t, err)
	level.SetLevel(lvl)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}
