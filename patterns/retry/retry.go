package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Iteration is a function that is called for each iteration of a loop, returning whether the error can be retried, and the error.
// When no error is returned, the loop will exit early with a nil error.
// Returning true with an error will attempt to retry the iteration.
// Returning false with an error will return early with the error.
type Iteration = func() (bool, error)

// Unlimited may be used as [Settings.MaxTries] to retry until the iteration succeeds, fails permanently, or the context is done.
const Unlimited = 0

// Settings defines the backoff behavior for [WithSettings].
type Settings struct {
	Context            context.Context
	TimeBetweenRetries time.Duration // This sets the initial delay between retries.
	BackoffFactor      float64       // This value multiplies TimeBetweenRetries between loop iterations, and should be >= 1. A value of 1 gives a fixed interval.
	MaxTries           int           // This defines the maximum number of tries, and should be > 1, or [Unlimited].
	// OnRetry is called after a retryable failure, before waiting for the next attempt.
	// The attempt number starts at 1.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (s Settings) Copy() Settings {
	return Settings{
		Context:            s.Context,
		TimeBetweenRetries: s.TimeBetweenRetries,
		BackoffFactor:      s.BackoffFactor,
		MaxTries:           s.MaxTries,
		OnRetry:            s.OnRetry,
	}
}

// Fixed returns [Settings] that retry forever with a constant delay, until ctx is done.
func Fixed(ctx context.Context, delay time.Duration) Settings {
	return Settings{
		Context:            ctx,
		TimeBetweenRetries: delay,
		BackoffFactor:      1,
		MaxTries:           Unlimited,
	}
}

var (
	ErrInvalidSettings = errors.New("invalid settings")
	ErrMaxRetries      = errors.New("max tries exceeded")
)

type maxRetriesError struct {
	loopErr error
}

func (e *maxRetriesError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMaxRetries, e.loopErr)
}

func (e *maxRetriesError) Unwrap() []error {
	return []error{ErrMaxRetries, e.loopErr}
}

// Do retries the given [Iteration] for a max of maxTries times.
// There is no delay between retries for this function.
func Do(maxTries int, iteration Iteration) error {
	return WithSettings(Settings{BackoffFactor: 1, MaxTries: maxTries}, iteration)
}

func (s Settings) validate() error {
	if s.MaxTries != Unlimited && s.MaxTries <= 1 {
		return fmt.Errorf("%w: max tries should be > 1", ErrInvalidSettings)
	}
	if s.MaxTries == Unlimited && s.Context == nil {
		return fmt.Errorf("%w: unlimited tries require a context", ErrInvalidSettings)
	}
	if s.BackoffFactor < 1 {
		return fmt.Errorf("%w: backoff factor should be >= 1", ErrInvalidSettings)
	}
	if s.TimeBetweenRetries < 0 {
		return fmt.Errorf("%w: time between retries should be >= 0", ErrInvalidSettings)
	}
	return nil
}

func isDone(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// WithSettings allows passing [Settings] to the retry loop to tune the operation.
func WithSettings(settings Settings, iteration Iteration) error {
	if err := settings.validate(); err != nil {
		return err
	}
	var (
		shouldRetry bool
		iterErr     error
		delay       = settings.TimeBetweenRetries
	)
	for i := 0; settings.MaxTries == Unlimited || i < settings.MaxTries; i++ {
		if i > 0 {
			if settings.OnRetry != nil {
				settings.OnRetry(i, iterErr, delay)
			}
			if err := wait(settings.Context, delay); err != nil {
				return err
			}
			delay = time.Duration(float64(delay) * settings.BackoffFactor)
		} else if isDone(settings.Context) {
			return settings.Context.Err()
		}

		shouldRetry, iterErr = iteration()
		if iterErr != nil && shouldRetry {
			continue
		}
		return iterErr
	}
	if iterErr != nil {
		return &maxRetriesError{iterErr}
	}
	return nil
}

func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		if isDone(ctx) {
			return ctx.Err()
		}
		return nil
	}
	if ctx == nil {
		time.Sleep(delay)
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
