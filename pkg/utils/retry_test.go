package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robalyx/vigil/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTemporary = errors.New("temporary error")
	errPermanent = errors.New("permanent error")
)

// fastRetryOptions keeps test backoff delays negligible.
func fastRetryOptions() utils.RetryOptions {
	return utils.RetryOptions{
		MaxElapsedTime:  time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxRetries:      3,
	}
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		operation     func() func() (int, error)
		expectedCalls int
		expected      int
		expectedErr   error
	}{
		{
			name: "succeeds first try",
			operation: func() func() (int, error) {
				return func() (int, error) { return 42, nil }
			},
			expectedCalls: 1,
			expected:      42,
		},
		{
			name: "succeeds after retries",
			operation: func() func() (int, error) {
				attempts := 0

				return func() (int, error) {
					attempts++
					if attempts < 3 {
						return 0, errTemporary
					}

					return 7, nil
				}
			},
			expectedCalls: 3,
			expected:      7,
		},
		{
			name: "exhausts retries",
			operation: func() func() (int, error) {
				return func() (int, error) { return 0, errTemporary }
			},
			expectedCalls: 4,
			expectedErr:   errTemporary,
		},
		{
			name: "permanent error stops immediately",
			operation: func() func() (int, error) {
				return func() (int, error) { return 0, backoff.Permanent(errPermanent) }
			},
			expectedCalls: 1,
			expectedErr:   errPermanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			op := tt.operation()

			result, err := utils.WithRetry(t.Context(), func() (int, error) {
				calls++
				return op()
			}, fastRetryOptions())

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}

			assert.Equal(t, tt.expectedCalls, calls)
		})
	}
}

func TestWithRetryContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := utils.WithRetry(ctx, func() (int, error) {
		return 0, errTemporary
	}, fastRetryOptions())

	require.ErrorIs(t, err, context.Canceled)
}

func TestGetScoringRetryOptions(t *testing.T) {
	t.Parallel()

	opts := utils.GetScoringRetryOptions()

	// The budget stays short because screening runs inline with delivery
	assert.LessOrEqual(t, opts.MaxElapsedTime, 10*time.Second)
	assert.Positive(t, opts.MaxRetries)
}
