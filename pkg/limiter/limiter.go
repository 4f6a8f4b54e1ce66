// Package limiter provides a bounded admission gate for stage calls.
//
// Callers beyond the capacity wait in FIFO order and are admitted as slots
// free up. The gate only bounds concurrency; it never delays an admitted
// call, so any timeout the call applies starts at admission.
package limiter

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of in-flight operations
type Limiter struct {
	name     string
	capacity int64
	sem      *semaphore.Weighted

	inFlight atomic.Int64
	waiting  atomic.Int64
	peak     atomic.Int64
	admitted atomic.Int64
}

// New creates a limiter admitting at most capacity concurrent operations
func New(name string, capacity int) (*Limiter, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("limiter %s: capacity must be > 0, got %d", name, capacity)
	}
	return &Limiter{
		name:     name,
		capacity: int64(capacity),
		sem:      semaphore.NewWeighted(int64(capacity)),
	}, nil
}

// Acquire blocks until a slot is free or ctx is done
func (l *Limiter) Acquire(ctx context.Context) error {
	l.waiting.Add(1)
	err := l.sem.Acquire(ctx, 1)
	l.waiting.Add(-1)
	if err != nil {
		return err
	}

	l.admitted.Add(1)
	n := l.inFlight.Add(1)
	for {
		peak := l.peak.Load()
		if n <= peak || l.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	return nil
}

// Release frees a slot taken by Acquire
func (l *Limiter) Release() {
	l.inFlight.Add(-1)
	l.sem.Release(1)
}

// Do runs fn once admitted
func (l *Limiter) Do(ctx context.Context, fn func(ctx context.Context)) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	fn(ctx)
	return nil
}

// Name returns the stage name the limiter guards
func (l *Limiter) Name() string {
	return l.name
}

// Capacity returns the configured maximum
func (l *Limiter) Capacity() int {
	return int(l.capacity)
}

// InFlight returns the number of currently admitted operations
func (l *Limiter) InFlight() int {
	return int(l.inFlight.Load())
}

// Waiting returns the number of callers queued for admission
func (l *Limiter) Waiting() int {
	return int(l.waiting.Load())
}

// Peak returns the highest observed in-flight count
func (l *Limiter) Peak() int {
	return int(l.peak.Load())
}

// Admitted returns the total number of admissions so far
func (l *Limiter) Admitted() int64 {
	return l.admitted.Load()
}
