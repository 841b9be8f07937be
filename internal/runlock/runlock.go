// Package runlock serializes runs across the whole host.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/mutex/v2"
)

// ErrBusy means another run held the lock for the whole timeout.
var ErrBusy = errors.New("another run is in progress")

const retryDelay = 250 * time.Millisecond

// Releaser releases a held lock.
type Releaser interface {
	Release()
}

// Acquire takes the named system-wide lock, waiting up to timeout. The
// wait is abandoned when ctx is done.
func Acquire(ctx context.Context, name string, timeout time.Duration) (Releaser, error) {
	r, err := mutex.Acquire(mutex.Spec{
		Name:    name,
		Clock:   clock.WallClock,
		Delay:   retryDelay,
		Timeout: timeout,
		Cancel:  ctx.Done(),
	})
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, mutex.ErrTimeout):
		return nil, fmt.Errorf("lock %q: %w", name, ErrBusy)
	case errors.Is(err, mutex.ErrCancelled):
		return nil, fmt.Errorf("lock %q: %w", name, ctx.Err())
	default:
		return nil, fmt.Errorf("lock %q: %w", name, err)
	}
}
