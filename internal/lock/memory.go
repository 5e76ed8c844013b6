package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker implements Locker with an in-process mutex per key.
// Suitable for single-instance deployments; use PostgresLocker when
// multiple processes may race on the same keys.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	sem  chan struct{} // capacity 1, holding the token means holding the lock
	refs int
}

// NewMemoryLocker creates a new in-memory locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		entries: make(map[string]*memoryEntry),
	}
}

// Acquire blocks until the key's mutex is free, the timeout elapses,
// or the context is cancelled
func (l *MemoryLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (Handle, error) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &memoryEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case entry.sem <- struct{}{}:
		return &memoryHandle{locker: l, key: key, entry: entry}, nil
	case <-timer.C:
		l.drop(key, entry)
		return nil, ErrTimeout
	case <-ctx.Done():
		l.drop(key, entry)
		return nil, ctx.Err()
	}
}

// drop decrements the waiter count and removes idle entries
func (l *MemoryLocker) drop(key string, entry *memoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}

type memoryHandle struct {
	locker *MemoryLocker
	key    string
	entry  *memoryEntry
	once   sync.Once
}

func (h *memoryHandle) Release() {
	h.once.Do(func() {
		<-h.entry.sem
		h.locker.drop(h.key, h.entry)
	})
}
