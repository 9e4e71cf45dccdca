package lock

import (
	"context"
	"sync"
)

// MemoryLocker is an in-process Locker.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

var _ Locker = (*MemoryLocker)(nil)

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{})}
}

func (l *MemoryLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Acquire waits for the key's slot. It returns a conflict error when ctx ends first.
func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, busyError(key)
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}
