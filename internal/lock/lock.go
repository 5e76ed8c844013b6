// Package lock provides named advisory locks. Callers that acquire the
// same key serialize; different keys never contend.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when a lock cannot be acquired within the timeout
var ErrTimeout = errors.New("lock acquire timed out")

// Handle represents a held lock
type Handle interface {
	// Release frees the lock. Calling it more than once is a no-op.
	Release()
}

// Locker acquires exclusive named locks
type Locker interface {
	Acquire(ctx context.Context, key string, timeout time.Duration) (Handle, error)
}
