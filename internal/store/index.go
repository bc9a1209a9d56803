package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const entryColumns = "xid, owner, slot, created_at"

// AppendEntry adds an asset to the end of its owner's collection.
func (s *Store) AppendEntry(ctx context.Context, entry IndexEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collection_entries (xid, owner, slot, created_at)
		VALUES (?, ?, ?, ?)
	`, entry.XID, entry.Owner, entry.Slot, formatTime(entry.Created))
	if err != nil {
		return fmt.Errorf("append index entry %s: %w", entry.XID, err)
	}
	return nil
}

// MoveEntry moves an asset to another slot of the same owner. The asset lands
// at the end of the target collection.
func (s *Store) MoveEntry(ctx context.Context, xid string, slot int) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	entry, err := scanEntry(tx.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM collection_entries WHERE xid = ?`, xid))
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM collection_entries WHERE xid = ?`, xid); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO collection_entries (xid, owner, slot, created_at)
		VALUES (?, ?, ?, ?)
	`, entry.XID, entry.Owner, slot, formatTime(entry.Created)); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveEntry drops an asset from the index. Missing entries are ignored.
func (s *Store) RemoveEntry(ctx context.Context, xid string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM collection_entries WHERE xid = ?`, xid)
	return err
}

// ListEntries returns one collection in insertion order.
func (s *Store) ListEntries(ctx context.Context, owner string, slot int) ([]IndexEntry, error) {
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM collection_entries WHERE owner = ? AND slot = ? ORDER BY ord ASC`, owner, slot)
}

// ListOwnerEntries returns all of an owner's assets across slots, oldest first.
func (s *Store) ListOwnerEntries(ctx context.Context, owner string) ([]IndexEntry, error) {
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM collection_entries WHERE owner = ? ORDER BY created_at ASC, ord ASC`, owner)
}

// ListAllEntries returns the whole index in insertion order.
func (s *Store) ListAllEntries(ctx context.Context) ([]IndexEntry, error) {
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM collection_entries ORDER BY ord ASC`)
}

// ReserveSequence atomically claims n consecutive title numbers for (owner, slot)
// and returns the first. Concurrent callers never receive overlapping ranges.
func (s *Store) ReserveSequence(ctx context.Context, owner string, slot, n int) (_ int, err error) {
	if n <= 0 {
		return 0, fmt.Errorf("reserve count must be positive")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO collection_counters (owner, slot, issued) VALUES (?, ?, 0)
		ON CONFLICT(owner, slot) DO NOTHING
	`, owner, slot); err != nil {
		return 0, err
	}
	var issued int
	if err = tx.QueryRowContext(ctx, `
		UPDATE collection_counters SET issued = issued + ?
		WHERE owner = ? AND slot = ?
		RETURNING issued
	`, n, owner, slot).Scan(&issued); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return issued - n + 1, nil
}

// Counter returns how many sequence numbers (owner, slot) has issued.
func (s *Store) Counter(ctx context.Context, owner string, slot int) (int, error) {
	var issued int
	err := s.db.QueryRowContext(ctx, `SELECT issued FROM collection_counters WHERE owner = ? AND slot = ?`, owner, slot).Scan(&issued)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return issued, nil
}

// RaiseCounter lifts a counter to at least atLeast. Counters never go down.
func (s *Store) RaiseCounter(ctx context.Context, owner string, slot, atLeast int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collection_counters (owner, slot, issued) VALUES (?, ?, ?)
		ON CONFLICT(owner, slot) DO UPDATE SET issued = MAX(issued, excluded.issued)
	`, owner, slot, atLeast)
	return err
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []IndexEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(scanner interface {
	Scan(dest ...any) error
}) (IndexEntry, error) {
	var (
		entry   IndexEntry
		created string
	)
	if err := scanner.Scan(&entry.XID, &entry.Owner, &entry.Slot, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return IndexEntry{}, ErrNotFound
		}
		return IndexEntry{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return IndexEntry{}, err
	}
	entry.Created = t
	return entry, nil
}
