package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// DefaultLeaseTTL bounds how long a crashed holder can block a key.
	DefaultLeaseTTL   = time.Minute
	leasePollInterval = 5 * time.Millisecond
	leasePollMax      = 100 * time.Millisecond
	leaseReleaseLimit = 5 * time.Second
)

// AcquireLease blocks until this caller holds the write lease for key in the
// shared index, or ctx ends. Leases are visible to every process that opens
// the same index, which makes them the cross-process half of record locking.
// The returned func releases the lease; calling it more than once is harmless.
func (s *Store) AcquireLease(ctx context.Context, key string) (func(), error) {
	holder := ulid.Make().String()
	wait := leasePollInterval
	for {
		ok, err := s.tryLease(ctx, key, holder, time.Now())
		if err != nil {
			return nil, fmt.Errorf("acquire lease %s: %w", key, err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() { s.releaseLease(ctx, key, holder) })
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lease %s: %w", key, ctx.Err())
		case <-time.After(wait):
		}
		if wait < leasePollMax {
			wait *= 2
		}
	}
}

// tryLease inserts the lease row, or takes over a row whose holder let it expire.
func (s *Store) tryLease(ctx context.Context, key, holder string, now time.Time) (bool, error) {
	ttl := s.leaseTTL
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO record_leases (key, holder, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET holder = excluded.holder, expires_at = excluded.expires_at
		WHERE record_leases.expires_at <= ?
	`, key, holder, now.Add(ttl).UnixNano(), now.UnixNano())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) releaseLease(ctx context.Context, key, holder string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaseReleaseLimit)
	defer cancel()
	// A lease taken over after expiry belongs to someone else; leave it.
	_, _ = s.db.ExecContext(ctx, `DELETE FROM record_leases WHERE key = ? AND holder = ?`, key, holder)
}

// LeaseHolder reports the current holder of key, or "" when the key is free.
func (s *Store) LeaseHolder(ctx context.Context, key string) (string, error) {
	var holder string
	err := s.db.QueryRowContext(ctx, `
		SELECT holder FROM record_leases WHERE key = ? AND expires_at > ?
	`, key, time.Now().UnixNano()).Scan(&holder)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return holder, nil
}
