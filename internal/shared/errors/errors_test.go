package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBackendError_FallsBackToStatusMessage(t *testing.T) {
	err := NewBackendError(502, "")

	assert.Equal(t, "Backend failed with status 502", err.Message)
	assert.Equal(t, ErrorTypeBackend, err.Type)
	assert.Equal(t, 502, err.Code)
}

func TestNewBackendError_KeepsBackendMessage(t *testing.T) {
	err := NewBackendError(http.StatusBadRequest, "plan not found")

	assert.Equal(t, "plan not found", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.Code)
}

func TestNewNotDelegatedError_NamesChain(t *testing.T) {
	err := NewNotDelegatedError(11155111)

	assert.Contains(t, err.Message, "11155111")
	assert.True(t, IsNotDelegatedError(err))
}

func TestMessage(t *testing.T) {
	wrapped := fmt.Errorf("relay create: %w", NewBackendError(400, "plan not found"))

	assert.Equal(t, "plan not found", Message(wrapped))
	assert.Equal(t, "boom", Message(stderrors.New("boom")))
	assert.Equal(t, "", Message(nil))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", NewValidationError("bad"), IsValidationError},
		{"not found", NewNotFoundError("missing"), IsNotFoundError},
		{"signing", NewSigningRejectedError("declined"), IsSigningRejectedError},
		{"chain read", NewChainReadError("rpc down"), IsChainReadError},
		{"transaction", NewTransactionFailedError("reverted"), IsTransactionFailedError},
		{"backend", NewBackendError(500, ""), IsBackendError},
		{"unsupported chain", NewUnsupportedChainError(5), IsUnsupportedChainError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.check(stderrors.New("plain")))
		})
	}
}
