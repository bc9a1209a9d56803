package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"artx/internal/models"
	"artx/internal/store"
)

// DefaultOrphanGrace keeps the sweep away from uploads still in flight.
const DefaultOrphanGrace = 10 * time.Minute

// SweepResult reports one orphan sweep.
type SweepResult struct {
	Root           string   `json:"root"`
	CandidateCount int      `json:"candidate_count"`
	DeletedCount   int      `json:"deleted_count"`
	FailedCount    int      `json:"failed_count"`
	ReclaimedBytes int64    `json:"reclaimed_bytes"`
	Candidates     []string `json:"candidates,omitempty"`
	DryRun         bool     `json:"dry_run"`
}

// ReindexResult reports one index rebuild.
type ReindexResult struct {
	Scanned  int `json:"scanned"`
	Appended int `json:"appended"`
	Moved    int `json:"moved"`
	Removed  int `json:"removed"`
	Skipped  int `json:"skipped"`
}

// Reconciler repairs the inconsistencies a crash between the file write and
// the record write can leave behind.
type Reconciler struct {
	*deps
	assets store.AssetStore
	index  store.CollectionIndex
}

// Sweep finds asset folders with no metadata record older than grace and,
// unless dryRun is set, removes them.
func (r *Reconciler) Sweep(ctx context.Context, dryRun bool, grace time.Duration) (SweepResult, error) {
	result := SweepResult{Root: r.assets.AssetRoot(), DryRun: dryRun}
	if grace < 0 {
		grace = 0
	}
	cutoff := r.clock().Add(-grace)

	ids, err := r.assets.ListAssetIDs(ctx)
	if err != nil {
		return result, storeFailure(err)
	}
	for _, xid := range ids {
		info, err := r.assets.StatAsset(ctx, xid)
		if err != nil {
			r.log().Warn("sweep stat failed", "xid", xid, "error", err)
			result.FailedCount++
			continue
		}
		if info.Has(store.AssetRecordName()) || info.ModTime.After(cutoff) {
			continue
		}
		result.CandidateCount++
		result.Candidates = append(result.Candidates, xid)
		if dryRun {
			continue
		}

		unlock, err := r.lock(ctx, assetLockKey(xid))
		if err == nil {
			err = r.removeOrphan(ctx, xid)
			unlock()
		}
		if err != nil {
			r.log().Warn("sweep remove failed", "xid", xid, "error", err)
			result.FailedCount++
			continue
		}
		result.DeletedCount++
		result.ReclaimedBytes += info.SizeBytes
		r.log().Info("orphan asset folder removed", "xid", xid, "size_bytes", info.SizeBytes)
	}
	return result, nil
}

func (r *Reconciler) removeOrphan(ctx context.Context, xid string) error {
	// Re-check under the lock; the record may have landed since the scan.
	exists, err := r.assets.AssetExists(ctx, xid)
	if err != nil {
		return err
	}
	if exists {
		return errors.New("record appeared during sweep")
	}
	if err := r.assets.RemoveAsset(ctx, xid); err != nil {
		return err
	}
	return r.index.RemoveEntry(ctx, xid)
}

// Reindex rebuilds the collection index from the asset records. Title
// counters are raised to at least the number of assets in each slot.
func (r *Reconciler) Reindex(ctx context.Context) (ReindexResult, error) {
	var result ReindexResult

	ids, err := r.assets.ListAssetIDs(ctx)
	if err != nil {
		return result, storeFailure(err)
	}
	records := make([]models.Asset, 0, len(ids))
	for _, xid := range ids {
		asset, err := r.assets.GetAsset(ctx, xid)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				r.log().Warn("reindex skipped asset", "xid", xid, "error", err)
			}
			result.Skipped++
			continue
		}
		records = append(records, *asset)
	}
	result.Scanned = len(records)
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Created.Equal(records[j].Created) {
			return records[i].Created.Before(records[j].Created)
		}
		return records[i].XID < records[j].XID
	})

	existing, err := r.index.ListAllEntries(ctx)
	if err != nil {
		return result, storeFailure(err)
	}
	indexed := make(map[string]store.IndexEntry, len(existing))
	for _, entry := range existing {
		indexed[entry.XID] = entry
	}

	type slotKey struct {
		owner string
		slot  int
	}
	counts := map[slotKey]int{}
	seen := make(map[string]struct{}, len(records))
	for _, asset := range records {
		seen[asset.XID] = struct{}{}
		counts[slotKey{asset.Owner, asset.CollectionSlot}]++

		var opErr error
		entry, ok := indexed[asset.XID]
		switch {
		case !ok:
			opErr = r.index.AppendEntry(ctx, store.IndexEntry{XID: asset.XID, Owner: asset.Owner, Slot: asset.CollectionSlot, Created: asset.Created})
			result.Appended++
		case entry.Slot != asset.CollectionSlot:
			opErr = r.index.MoveEntry(ctx, asset.XID, asset.CollectionSlot)
			result.Moved++
		}
		if opErr != nil {
			return result, storeFailure(opErr)
		}
	}
	for _, entry := range existing {
		if _, ok := seen[entry.XID]; ok {
			continue
		}
		if err := r.index.RemoveEntry(ctx, entry.XID); err != nil {
			return result, storeFailure(err)
		}
		result.Removed++
	}
	for key, n := range counts {
		if key.slot == models.DeletedSlot {
			continue
		}
		if err := r.index.RaiseCounter(ctx, key.owner, key.slot, n); err != nil {
			return result, storeFailure(err)
		}
	}

	r.log().Info("reindex finished",
		"scanned", result.Scanned,
		"appended", result.Appended,
		"moved", result.Moved,
		"removed", result.Removed,
	)
	return result, nil
}
