package lock

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	sem  chan struct{}
	refs int
}

// MemoryLocker serializes holders inside one process. Waiters are woken as soon
// as the holder releases, without polling.
type MemoryLocker struct {
	wait    time.Duration
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		wait:    wait,
		entries: make(map[string]*memoryEntry),
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (Release, error) {
	entry := l.ref(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case entry.sem <- struct{}{}:
	case <-timer.C:
		l.unref(key)
		return nil, ErrNotAcquired
	case <-ctx.Done():
		l.unref(key)
		return nil, ErrNotAcquired
	}

	return Once(func(context.Context) error {
		<-entry.sem
		l.unref(key)
		return nil
	}), nil
}

func (l *MemoryLocker) ref(key string) *memoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		entry = &memoryEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (l *MemoryLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.entries[key]
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}

// Len reports how many keys are currently held or awaited.
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
