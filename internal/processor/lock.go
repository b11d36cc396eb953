package processor

import (
	"context"
	"sync"
)

// dirLocks serializes invocations that write to the same output directory
type dirLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newDirLocks() *dirLocks {
	return &dirLocks{slots: make(map[string]chan struct{})}
}

// acquire blocks until dir is free or ctx is done. The returned function
// releases the directory.
func (l *dirLocks) acquire(ctx context.Context, dir string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[dir]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[dir] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
