package syncer

import (
	"context"
	"math/rand"
	"time"

	"github.com/sendlink/sendlink/pkg/faults"
)

const maxBackoff = 30 * time.Second

// withRetry runs fn up to attempts times, backing off exponentially with
// jitter between tries. Only transient network faults are retried; every
// other error returns immediately.
func withRetry(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	var err error
	delay := base
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !faults.Is(err, faults.Network) {
			return err
		}
		if i == attempts-1 {
			break
		}
		jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
		select {
		case <-time.After(delay + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		if delay *= 2; delay > maxBackoff {
			delay = maxBackoff
		}
	}
	return err
}
