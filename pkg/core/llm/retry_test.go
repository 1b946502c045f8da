package llm

import (
	"context"
	"testing"
	"time"

	"github.com/easyops/ctxrefine-go/pkg/core/errors"
	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 110*time.Millisecond, calculateBackoff(0, 100*time.Millisecond))
	assert.Equal(t, 220*time.Millisecond, calculateBackoff(1, 100*time.Millisecond))
	assert.Equal(t, maxBackoff, calculateBackoff(20, time.Second))
}

func TestRetry(t *testing.T) {
	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		err := retry(context.Background(), 3, time.Millisecond, func() error {
			calls++
			return errors.ErrInvalidAPIKey
		})
		assert.ErrorIs(t, err, errors.ErrInvalidAPIKey)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := retry(context.Background(), 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return errors.ErrRateLimited
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := retry(ctx, 3, time.Millisecond, func() error { return nil })
		assert.ErrorIs(t, err, errors.ErrContextCanceled)
	})
}
