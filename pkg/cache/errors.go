package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNetwork marks a remote backend that could not be reached.
	ErrNetwork = errors.New("network error")

	// ErrUnknownBackend is returned by Open for a backend name it does not know.
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// retryAttempts bounds RetryWithBackoff; retryDelay is the first pause and
// doubles after each failure. Tests shorten retryDelay.
const retryAttempts = 3

var retryDelay = time.Second

// transientError marks a failure worth another attempt, such as a backend
// ping during container startup.
type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// Retryable marks err as transient. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err}
}

// IsRetryable reports whether err was marked by Retryable.
func IsRetryable(err error) bool {
	return errors.As(err, new(transientError))
}

// RetryWithBackoff calls fn until it succeeds, returns an error not marked
// Retryable, or has failed retryAttempts times. The last error is returned
// unchanged so callers can still match ErrNetwork.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := retryDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
