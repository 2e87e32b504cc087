package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/handiism/catalog-downloader/internal/http"
)

// Class is the retry classification of a failure.
type Class int

const (
	// ClassTransient covers every failure that is not an explicit
	// rate-limit signal.
	ClassTransient Class = iota

	// ClassRateLimited means the remote asked us to slow down.
	ClassRateLimited
)

func (c Class) String() string {
	switch c {
	case ClassRateLimited:
		return "rate_limited"
	default:
		return "transient"
	}
}

// Classify maps an error to its retry class.
func Classify(err error) Class {
	if errors.Is(err, http.ErrRateLimited) {
		return ClassRateLimited
	}
	return ClassTransient
}

// Reference backoffs.
const (
	DefaultRateLimitBackoff = 3 * time.Second
	DefaultPageBackoff      = 10 * time.Second
	DefaultAssetBackoff     = 5 * time.Second
	DefaultAssetJitter      = 2 * time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy holds the backoff for each failure class.
type Policy struct {
	// RateLimitBackoff is the wait after a ClassRateLimited failure.
	RateLimitBackoff time.Duration

	// TransientBackoff is the minimum wait after a ClassTransient failure.
	TransientBackoff time.Duration

	// TransientJitter adds a uniformly random [0, TransientJitter] on top of
	// TransientBackoff.
	TransientJitter time.Duration

	// Logger receives one WARN line per failed attempt. Nil means slog.Default().
	Logger *slog.Logger

	// Sleep replaces the real wait, e.g. to record backoffs in tests.
	Sleep SleepFunc
}

// PagePolicy returns the policy for catalog page requests: 3s after a 429,
// 10s after anything else.
func PagePolicy(logger *slog.Logger) Policy {
	return Policy{
		RateLimitBackoff: DefaultRateLimitBackoff,
		TransientBackoff: DefaultPageBackoff,
		Logger:           logger,
	}
}

// AssetPolicy returns the policy for image downloads: 3s after a 429,
// a random 5-7s after anything else.
func AssetPolicy(logger *slog.Logger) Policy {
	return Policy{
		RateLimitBackoff: DefaultRateLimitBackoff,
		TransientBackoff: DefaultAssetBackoff,
		TransientJitter:  DefaultAssetJitter,
		Logger:           logger,
	}
}

// Backoff returns the wait before the next attempt for a failure of the
// given class.
func (p Policy) Backoff(class Class) time.Duration {
	if class == ClassRateLimited {
		return p.RateLimitBackoff
	}
	d := p.TransientBackoff
	if p.TransientJitter > 0 {
		d += time.Duration(rand.Int64N(int64(p.TransientJitter) + 1))
	}
	return d
}

// Do runs op until it succeeds.
//
// Each failure is classified, logged with the unit of work that failed, and
// followed by the class backoff before op is issued again from scratch.
// Do only returns an error when ctx is cancelled.
func Do[T any](ctx context.Context, p Policy, unit string, op func(context.Context) (T, error)) (T, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = wait
	}

	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		class := Classify(err)
		backoff := p.Backoff(class)
		logger.Warn("retrying",
			"unit", unit,
			"error", err,
			"class", class.String(),
			"attempt", attempt,
			"backoff", backoff,
		)

		if err := sleep(ctx, backoff); err != nil {
			return zero, err
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
