package memory

import (
	"context"
	"sync"
	"time"

	"exerciselinks/application/ports"
)

// MutexLocker is a process-local ports.Locker. Each resource gets a one-slot
// semaphore. Leases are not enforced; a holder keeps the lock until Release.
type MutexLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewMutexLocker creates a new process-local locker
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{slots: make(map[string]chan struct{})}
}

// Acquire blocks until the resource is free, the timeout elapses or ctx is done
func (l *MutexLocker) Acquire(ctx context.Context, resource string, lease, timeout time.Duration) (ports.Lock, error) {
	slot := l.slot(resource)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		return &mutexLock{slot: slot}, nil
	case <-timer.C:
		return nil, ports.ErrLockNotAcquired
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *MutexLocker) slot(resource string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[resource]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[resource] = slot
	}
	return slot
}

type mutexLock struct {
	slot chan struct{}
	once sync.Once
}

// Release frees the slot. Extra calls are no-ops.
func (m *mutexLock) Release(ctx context.Context) error {
	m.once.Do(func() { <-m.slot })
	return nil
}
