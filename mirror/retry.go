package mirror

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Syfaro/paprika-go/paprika"
)

func isRetryablePGTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.SQLState() {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"55P03": // lock_not_available (incl. lock_timeout)
		return true
	default:
		return false
	}
}

// isRetryableSourceError classifies transient fetch failures: network
// errors, timeouts, and 429/5xx responses from the API.
func isRetryableSourceError(err error) bool {
	var httpErr *paprika.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backoffDelay returns the delay before retry attempt n (0-based):
// exponential from base with full jitter, capped at max.
func backoffDelay(n int, base, max time.Duration) time.Duration {
	d := base << n
	if d > max || d <= 0 {
		d = max
	}
	return time.Duration(rand.Int64N(int64(d)) + int64(d)/2)
}

// withRetry runs fn up to attempts times, backing off between tries while
// retryable reports the failure as transient. The last error is returned
// unwrapped so callers can still classify it.
func withRetry(ctx context.Context, attempts int, base, max time.Duration,
	retryable func(error) bool, fn func() error) error {

	var err error
	for n := 0; n < attempts; n++ {
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
		if n == attempts-1 {
			break
		}
		if serr := sleepWithContext(ctx, backoffDelay(n, base, max)); serr != nil {
			return err
		}
	}
	return err
}
