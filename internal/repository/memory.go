package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryTripLocker serializes bookings per trip inside one process.
type MemoryTripLocker struct {
	mu    sync.Mutex
	locks map[int64]chan struct{}
	wait  time.Duration
}

func NewMemoryTripLocker(wait time.Duration) *MemoryTripLocker {
	return &MemoryTripLocker{
		locks: make(map[int64]chan struct{}),
		wait:  wait,
	}
}

func (l *MemoryTripLocker) slot(tripID int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[tripID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[tripID] = ch
	}
	return ch
}

func (l *MemoryTripLocker) Lock(ctx context.Context, tripID int64) (func(), error) {
	ch := l.slot(tripID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrLockTimeout
	}
}
