package retry

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestDo(t *testing.T) {
	t.Run("Immediate failure", func(t *testing.T) {
		err := Do(3, testFailingIterator)
		assert.Error(t, err)
		assert.ErrorIs(t, err, testErrIntentional)
		assert.False(t, errors.Is(err, ErrMaxRetries), "Should not be a retry error")
	})
	t.Run("Retry failure", func(t *testing.T) {
		err := Do(3, testRetryableIterator)
		assert.ErrorIs(t, err, testErrIntentional)
		assert.True(t, errors.Is(err, ErrMaxRetries), "Should be a retry error")
		assert.Contains(t, err.Error(), ErrMaxRetries.Error())
	})
	t.Run("Successful attempt", func(t *testing.T) {
		err := Do(3, testPassingIterator)
		assert.NoError(t, err)
	})
}

func TestWithSettings(t *testing.T) {
	settings := Settings{
		TimeBetweenRetries: 50 * time.Millisecond,
		BackoffFactor:      1.2,
		MaxTries:           3,
	}
	t.Run("Should not execute with cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		settings := settings.Copy()
		settings.Context = ctx
		err := WithSettings(settings, func() (bool, error) {
			t.Error("Should not have called the Iterator")
			return false, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
	t.Run("Should take more than 110ms to loop", func(t *testing.T) {
		start := time.Now()
		err := WithSettings(settings, testRetryableIterator)
		assert.Greater(t, time.Since(start), 110*time.Millisecond)
		assert.ErrorIs(t, err, ErrMaxRetries)
	})
	t.Run("Invalid max tries", func(t *testing.T) {
		settings := settings.Copy()
		settings.MaxTries = 1
		assert.ErrorIs(t, WithSettings(settings, testPassingIterator), ErrInvalidSettings)
	})
	t.Run("Unlimited tries require a context", func(t *testing.T) {
		settings := settings.Copy()
		settings.MaxTries = Unlimited
		assert.ErrorIs(t, WithSettings(settings, testPassingIterator), ErrInvalidSettings)
	})
	t.Run("Invalid time between retries", func(t *testing.T) {
		settings := settings.Copy()
		settings.TimeBetweenRetries = -1
		assert.ErrorIs(t, WithSettings(settings, testPassingIterator), ErrInvalidSettings)
	})
	t.Run("Invalid backoff factor", func(t *testing.T) {
		settings := settings.Copy()
		settings.BackoffFactor = 0.5
		assert.ErrorIs(t, WithSettings(settings, testPassingIterator), ErrInvalidSettings)
	})
}

func TestFixed(t *testing.T) {
	t.Run("Retries until success with a constant delay", func(t *testing.T) {
		var (
			calls  int
			delays []time.Duration
		)
		settings := Fixed(context.Background(), 10*time.Millisecond)
		settings.OnRetry = func(attempt int, err error, delay time.Duration) {
			assert.ErrorIs(t, err, testErrIntentional)
			assert.Equal(t, len(delays)+1, attempt)
			delays = append(delays, delay)
		}
		err := WithSettings(settings, func() (bool, error) {
			calls++
			if calls < 5 {
				return true, testErrIntentional
			}
			return false, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 5, calls)
		assert.Len(t, delays, 4)
		for _, delay := range delays {
			assert.Equal(t, 10*time.Millisecond, delay, "Delay should not grow")
		}
	})
	t.Run("Stops waiting when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(30 * time.Millisecond)
			cancel()
		}()
		start := time.Now()
		err := WithSettings(Fixed(ctx, time.Hour), testRetryableIterator)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	})
}

var testErrIntentional = errors.New("intentional error")

func testFailingIterator() (bool, error) {
	return false, testErrIntentional
}

func testRetryableIterator() (bool, error) {
	return true, testErrIntentional
}

func testPassingIterator() (bool, error) {
	return false, nil
}
