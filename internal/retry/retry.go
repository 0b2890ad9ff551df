// Package retry runs a call again with exponential backoff when it fails.
package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

const (
	DefaultRetries = 2
	DefaultDelay   = 300 * time.Millisecond
	DefaultFactor  = 2.0
)

// Options controls Do. Retries is the number of extra attempts after the
// first one, so a call runs at most Retries+1 times. The wait before retry n
// (zero based) is Delay * Factor^n.
type Options struct {
	Retries int
	Delay   time.Duration
	Factor  float64

	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

func Defaults() Options {
	return Options{Retries: DefaultRetries, Delay: DefaultDelay, Factor: DefaultFactor}
}

// WithRetries returns the defaults with a different retry count.
func WithRetries(n int) Options {
	o := Defaults()
	o.Retries = n
	return o
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err so that Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a permanent error, the attempts run
// out or ctx is done. attempt passed to fn starts at 1. The error returned is
// the last one fn produced, with any Permanent marker removed.
func Do[T any](ctx context.Context, opts Options, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Factor <= 0 {
		opts.Factor = DefaultFactor
	}

	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		v, err := fn(ctx, attempt+1)
		if err == nil {
			return v, nil
		}

		var p *permanentError
		if errors.As(err, &p) {
			return zero, p.err
		}
		lastErr = err

		if attempt == opts.Retries {
			break
		}

		wait := time.Duration(float64(opts.Delay) * math.Pow(opts.Factor, float64(attempt)))
		if opts.OnRetry != nil {
			opts.OnRetry(attempt+1, wait, err)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, lastErr
		}
	}
	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
