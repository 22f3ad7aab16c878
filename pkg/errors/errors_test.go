package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(errors.New("db down"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneMatchesSentinel(t *testing.T) {
	cloned := Clone(ErrNotFound, "course not found")
	assert.Equal(t, "course not found", cloned.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.True(t, errors.Is(fmt.Errorf("lookup: %w", cloned), ErrNotFound))
	assert.False(t, errors.Is(cloned, ErrConflict))
}

func TestWithDetails(t *testing.T) {
	err := WithDetails(ErrValidation, map[string]string{"marks": "invalid"})
	assert.Equal(t, map[string]string{"marks": "invalid"}, err.Details)
	assert.Nil(t, ErrValidation.Details)
}
