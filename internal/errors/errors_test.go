package errors

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderMarksAndHints(t *testing.T) {
	err := WithError(io.ErrUnexpectedEOF).
		WithMessagef("failed to read %s", "customers.csv").
		WithHint("check the output directory").
		Mark(ErrIO)

	assert.True(t, IsIO(err))
	assert.False(t, IsConfiguration(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "failed to read customers.csv")
	assert.Equal(t, []string{"check the output directory"}, Hints(err))
}

func TestNewErrorf(t *testing.T) {
	err := NewErrorf("%d violations", 3).Mark(ErrIntegrity)
	assert.True(t, IsIntegrity(err))
	assert.EqualError(t, err, "3 violations")
}
