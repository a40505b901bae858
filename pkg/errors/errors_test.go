package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("load cycle: %w", Clone(ErrNotFound, "cycle not found"))
	appErr := FromError(wrapped)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "cycle not found", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.EqualError(t, appErr, "internal server error: boom")
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrConflict, "email already exists")
	assert.Equal(t, "conflict", ErrConflict.Message)
	assert.Equal(t, "email already exists", clone.Message)
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("grade event: %w", Clone(ErrInvalidState, "event already graded"))
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("pq: duplicate key")
	err := Wrap(ErrConflict, cause, "email already exists")
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Equal(t, ErrConflict.Code, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ErrConflict.Err)
}
