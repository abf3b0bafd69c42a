package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineError_ErrorIncludesOpWhenSet(t *testing.T) {
	err := NewEngineError("dag.Build", "dangling edge n2 -> n9", nil)
	assert.Contains(t, err.Error(), "dag.Build")
	assert.Contains(t, err.Error(), "dangling edge")
}

func TestEngineError_UnwrapReturnsCause(t *testing.T) {
	cause := errors.New("root cause")
	err := NewEngineError("", "wrapped", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("prompt", "prompt must not be empty")
	assert.Contains(t, err.Error(), "prompt")
	assert.Contains(t, err.Error(), "must not be empty")
}
