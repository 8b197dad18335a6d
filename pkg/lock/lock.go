package lock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"masterbook/pkg/timerange"
)

var (
	// ErrNotAcquired is returned when the lock stays held by someone else for
	// the whole wait budget.
	ErrNotAcquired = errors.New("lock not acquired")
)

// Release gives the lock back. It is safe to call more than once.
type Release func(ctx context.Context) error

// Locker serializes work on a key across goroutines (memory) or processes (mongo, redis).
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

type Options struct {
	// TTL bounds how long a crashed holder can keep the lock.
	TTL time.Duration
	// Wait bounds how long Acquire blocks before giving up with ErrNotAcquired.
	Wait time.Duration
	// RetryInterval is the pause between attempts for polling backends.
	RetryInterval time.Duration
}

// DomainKey names the scheduling domain of one provider on one date.
func DomainKey(masterID string, date timerange.Date) string {
	return fmt.Sprintf("schedule:%s:%s", masterID, date)
}

// TryFunc makes one non-blocking acquisition attempt. ok=false with a nil error
// means the lock is currently held elsewhere.
type TryFunc func(ctx context.Context) (release Release, ok bool, err error)

// Poll calls try until it succeeds, fails, or opts.Wait elapses.
func Poll(ctx context.Context, opts Options, try TryFunc) (Release, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Wait)
	defer cancel()

	ticker := time.NewTicker(opts.RetryInterval)
	defer ticker.Stop()

	for {
		release, ok, err := try(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrNotAcquired, err)
			}
			return nil, err
		}
		if ok {
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrNotAcquired
		case <-ticker.C:
		}
	}
}

// Once makes release idempotent.
func Once(release Release) Release {
	var done atomic.Bool
	return func(ctx context.Context) error {
		if !done.CompareAndSwap(false, true) {
			return nil
		}
		return release(ctx)
	}
}
