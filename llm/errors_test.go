package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLLMErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewLLMError(ErrorTypeRequest, "failed to send request", cause)

	assert.Equal(t, "RequestError (failed to send request): connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewLLMError(ErrorTypeInvalidInput, "empty prompt", nil)
	assert.Equal(t, "InvalidInputError: empty prompt", bare.Error())
}

func TestTypeString(t *testing.T) {
	names := map[ErrorType]string{
		ErrorTypeUnknown:        "UnknownError",
		ErrorTypeProvider:       "ProviderError",
		ErrorTypeRequest:        "RequestError",
		ErrorTypeResponse:       "ResponseError",
		ErrorTypeAPI:            "APIError",
		ErrorTypeRateLimit:      "RateLimitError",
		ErrorTypeAuthentication: "AuthenticationError",
		ErrorTypeInvalidInput:   "InvalidInputError",
	}
	for typ, want := range names {
		assert.Equal(t, want, (&LLMError{Type: typ}).TypeString())
	}
}

func TestErrorClassification(t *testing.T) {
	auth := newStatusError(ErrorTypeAuthentication, 401, "bad key")
	wrapped := fmt.Errorf("ask: %w", auth)

	assert.True(t, IsAuthError(wrapped))
	assert.False(t, IsAuthError(errors.New("plain")))
	assert.Equal(t, 401, auth.StatusCode)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("x"), false},
		{"auth", auth, false},
		{"rate limit", newStatusError(ErrorTypeRateLimit, 429, "slow"), true},
		{"server", newStatusError(ErrorTypeAPI, 500, "oops"), true},
		{"client", newStatusError(ErrorTypeAPI, 404, "missing"), false},
		{"transport", NewLLMError(ErrorTypeRequest, "send", errors.New("reset")), true},
		{"cancelled", NewLLMError(ErrorTypeRequest, "send", context.Canceled), false},
		{"invalid input", NewLLMError(ErrorTypeInvalidInput, "empty", nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
