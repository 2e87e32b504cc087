// Package retry wraps fetch operations with classification-driven,
// unbounded retry.
//
// Every failure is classified into one of two cases:
//
//   - ClassRateLimited: the remote answered 429; retried after a short backoff.
//   - ClassTransient: anything else (network, status, decode, malformed
//     payload, write errors); retried after a longer backoff, optionally
//     jittered.
//
// There is no attempt limit and no circuit breaker. An operation that never
// succeeds is retried until its context is cancelled.
//
//	policy := retry.PagePolicy(logger)
//	page, err := retry.Do(ctx, policy, "page 3", func(ctx context.Context) ([]*model.Record, error) {
//	    return fetcher.fetchPage(ctx, 3)
//	})
//	// err is non-nil only if ctx was cancelled
package retry
