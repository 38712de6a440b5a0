package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	quiet, err := New("development", false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zap.InfoLevel))
	assert.True(t, quiet.Core().Enabled(zap.WarnLevel))

	loud, err := New("development", true)
	require.NoError(t, err)
	assert.True(t, loud.Core().Enabled(zap.DebugLevel))

	prod, err := New("production", false)
	require.NoError(t, err)
	assert.True(t, prod.Core().Enabled(zap.InfoLevel))
	assert.False(t, prod.Core().Enabled(zap.DebugLevel))
}
