// Package keylock serializes work per string key without a global lock.
//
// A Locker always orders holders inside the process. When built with a Lease
// it also takes a lease that other processes honor, so writers running in
// separate CLI invocations over the same data directory exclude each other.
package keylock

import (
	"context"
	"sync"
)

// Lease is a per-key lock held outside the process.
type Lease interface {
	AcquireLease(ctx context.Context, key string) (func(), error)
}

// LeaseFunc adapts a function to Lease.
type LeaseFunc func(ctx context.Context, key string) (func(), error)

// AcquireLease calls f(ctx, key).
func (f LeaseFunc) AcquireLease(ctx context.Context, key string) (func(), error) {
	return f(ctx, key)
}

// Locker hands out one mutex per key and drops it once no holder or waiter remains.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
	lease   Lease
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New returns a Locker that only serializes within the process.
func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

// NewShared returns a Locker that also holds lease for every key it locks.
func NewShared(lease Lease) *Locker {
	l := New()
	l.lease = lease
	return l
}

// Lock blocks until key is free and returns the matching unlock func.
// The in-process mutex is taken first so only one goroutine per process
// waits on the lease.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	unlockLocal := l.lockLocal(key)
	if l.lease == nil {
		return unlockLocal, nil
	}
	release, err := l.lease.AcquireLease(ctx, key)
	if err != nil {
		unlockLocal()
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			release()
			unlockLocal()
		})
	}, nil
}

func (l *Locker) lockLocal(key string) func() {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}

// Len reports how many keys are currently held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
