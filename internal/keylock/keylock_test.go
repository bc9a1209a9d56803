package keylock

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func mustLock(t *testing.T, l *Locker, key string) func() {
	t.Helper()
	unlock, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("lock %s: %v", key, err)
	}
	return unlock
}

func TestLockSerializesSameKey(t *testing.T) {
	l := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "asset-1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50, got %d", counter)
	}
	if l.Len() != 0 {
		t.Fatalf("expected entries to be released, got %d", l.Len())
	}
}

func TestLockDistinctKeysDoNotBlock(t *testing.T) {
	l := New()
	unlockA := mustLock(t, l, "a")
	done := make(chan struct{})
	go func() {
		unlockB, err := l.Lock(context.Background(), "b")
		if err == nil {
			unlockB()
		}
		close(done)
	}()
	<-done
	unlockA()
}

func TestUnlockIsIdempotent(t *testing.T) {
	l := New()
	unlock := mustLock(t, l, "k")
	unlock()
	unlock()
	if l.Len() != 0 {
		t.Fatalf("expected no entries, got %d", l.Len())
	}
}

type recordingLease struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (r *recordingLease) AcquireLease(_ context.Context, key string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.events = append(r.events, "acquire "+key)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, "release "+key)
	}, nil
}

func TestSharedLockHoldsLease(t *testing.T) {
	lease := &recordingLease{}
	l := NewShared(lease)

	unlock := mustLock(t, l, "asset:x")
	unlock()
	unlock()

	want := []string{"acquire asset:x", "release asset:x"}
	if len(lease.events) != len(want) {
		t.Fatalf("expected %v, got %v", want, lease.events)
	}
	for i := range want {
		if lease.events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, lease.events)
		}
	}
	if l.Len() != 0 {
		t.Fatalf("expected local entry released, got %d", l.Len())
	}
}

func TestSharedLockLeaseFailureReleasesLocal(t *testing.T) {
	l := NewShared(&recordingLease{err: errors.New("index unavailable")})

	if _, err := l.Lock(context.Background(), "agent:a"); err == nil {
		t.Fatal("expected lease error")
	}
	if l.Len() != 0 {
		t.Fatalf("expected local mutex released after lease failure, got %d entries", l.Len())
	}
}

func TestLeaseFuncAdapter(t *testing.T) {
	called := ""
	l := NewShared(LeaseFunc(func(_ context.Context, key string) (func(), error) {
		called = key
		return func() {}, nil
	}))
	mustLock(t, l, "asset:y")()
	if called != "asset:y" {
		t.Fatalf("expected lease for asset:y, got %q", called)
	}
}
