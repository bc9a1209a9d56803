package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLeaseExcludesSecondHandle(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir, "")
	if err != nil {
		t.Fatalf("open first: %v", err)
	}
	t.Cleanup(func() { first.Close() })
	second, err := Open(dir, "")
	if err != nil {
		t.Fatalf("open second: %v", err)
	}
	t.Cleanup(func() { second.Close() })

	ctx := context.Background()
	release, err := first.AcquireLease(ctx, "asset:x")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	acquired := make(chan func(), 1)
	go func() {
		r, err := second.AcquireLease(ctx, "asset:x")
		if err != nil {
			t.Errorf("second acquire: %v", err)
			close(acquired)
			return
		}
		acquired <- r
	}()

	select {
	case <-acquired:
		t.Fatal("second handle acquired a held lease")
	case <-time.After(100 * time.Millisecond):
	}

	release()
	select {
	case r, ok := <-acquired:
		if !ok {
			t.Fatal("second acquire failed")
		}
		r()
	case <-time.After(5 * time.Second):
		t.Fatal("second handle never acquired the released lease")
	}
}

func TestLeaseDistinctKeys(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	a, err := st.AcquireLease(ctx, "asset:a")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer a()
	b, err := st.AcquireLease(ctx, "agent:a")
	if err != nil {
		t.Fatalf("acquire b: %v", err)
	}
	b()

	holder, err := st.LeaseHolder(ctx, "agent:a")
	if err != nil {
		t.Fatalf("holder: %v", err)
	}
	if holder != "" {
		t.Fatalf("expected released lease, held by %q", holder)
	}
}

func TestLeaseHonorsContext(t *testing.T) {
	st := testStore(t)
	release, err := st.AcquireLease(context.Background(), "asset:x")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := st.AcquireLease(ctx, "asset:x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestExpiredLeaseIsTakenOver(t *testing.T) {
	st := testStore(t)
	st.leaseTTL = 20 * time.Millisecond
	ctx := context.Background()

	stale, err := st.AcquireLease(ctx, "agent:crashed")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	staleHolder, _ := st.LeaseHolder(ctx, "agent:crashed")

	time.Sleep(40 * time.Millisecond)
	st.leaseTTL = time.Minute
	fresh, err := st.AcquireLease(ctx, "agent:crashed")
	if err != nil {
		t.Fatalf("take over: %v", err)
	}
	defer fresh()

	// The stale holder's release must not drop the new lease.
	stale()
	holder, err := st.LeaseHolder(ctx, "agent:crashed")
	if err != nil {
		t.Fatalf("holder: %v", err)
	}
	if holder == "" || holder == staleHolder {
		t.Fatalf("expected new holder, got %q (stale %q)", holder, staleHolder)
	}
}
