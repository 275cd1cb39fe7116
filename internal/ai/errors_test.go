package ai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status    int
		kind      ErrorKind
		retryable bool
	}{
		{429, KindRateLimited, true},
		{401, KindUnauthorized, false},
		{403, KindUnauthorized, false},
		{400, KindBadInput, false},
		{500, KindServerError, true},
		{503, KindServerError, true},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			pe := ClassifyStatus(tc.status, "boom", nil)
			require.Equal(t, tc.kind, pe.Kind)
			require.Equal(t, tc.retryable, pe.Retryable())
		})
	}
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(RateLimited("slow down", nil)))
	require.True(t, IsRetryable(ServerError("oops", nil)))
	require.False(t, IsRetryable(Unauthorized("bad key", nil)))
	require.False(t, IsRetryable(BadInput("too long", nil)))
	require.False(t, IsRetryable(errors.New("plain error")))
	require.False(t, IsRetryable(nil))

	// wrapped provider errors keep their classification
	wrapped := fmt.Errorf("embed batch: %w", RateLimited("slow down", nil))
	require.True(t, IsRetryable(wrapped))
}
