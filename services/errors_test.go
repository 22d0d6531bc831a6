package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorFormatting(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NewDomainError(ErrorTypeValidation, "query cannot be empty", nil)
		assert.Equal(t, "validation: query cannot be empty", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("scan failed")
		err := NewDomainError(ErrorTypeInternal, "database error", cause)
		assert.Equal(t, "internal: database error (scan failed)", err.Error())
		assert.Equal(t, cause, errors.Unwrap(err))
	})
}

func TestDomainErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("selecting route: %w", ErrRoutingFailed)

	assert.ErrorIs(t, wrapped, ErrRoutingFailed)
	// Is matches on type, so any external error matches any other
	assert.ErrorIs(t, ErrRoutingFailed, NewDomainError(ErrorTypeExternal, "other", nil))
	assert.NotErrorIs(t, ErrRoutingFailed, ErrProfileNotFound)
	assert.NotErrorIs(t, errors.New("plain"), ErrRoutingFailed)
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", ErrProfileNotFound, IsNotFoundError},
		{"validation", ErrEmptyQuery, IsValidationError},
		{"unauthorized", ErrInvalidToken, IsUnauthorizedError},
		{"forbidden", ErrForbidden, IsForbiddenError},
		{"rate limit", ErrRateLimitExceeded, IsRateLimitError},
		{"internal", ErrCacheFailed, IsInternalError},
		{"external", ErrRoutingFailed, IsExternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)), "helper should see through wrapping")
			assert.False(t, tt.check(errors.New("plain")))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeExternal, GetErrorType(ErrRoutingFailed))
	assert.Equal(t, ErrorTypeExternal, GetErrorType(fmt.Errorf("outer: %w", ErrRoutingFailed)))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
	assert.Equal(t, ErrorType(""), GetErrorType(nil))
}

func TestWithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "invalid provider specified", nil).
		WithDetail("provider", "carrier-pigeon").
		WithDetail("allowed", []string{"openai", "anthropic"})

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "carrier-pigeon", details["provider"])

	assert.Nil(t, GetErrorDetails(errors.New("plain")))
}

func TestWrapHelpers(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	wrapped := WrapError(ErrorTypeExternal, "provider probe failed", cause)
	assert.True(t, IsExternalError(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	internal := WrapInternal("flushing decision log", cause)
	assert.True(t, IsInternalError(internal))
	assert.ErrorIs(t, internal, cause)
	assert.Contains(t, internal.Error(), "flushing decision log")
}
