package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"artx/internal/store"
)

func TestSweepRemovesOrphanFolders(t *testing.T) {
	// A clock ahead of the filesystem makes every folder old enough.
	later := func() time.Time { return time.Now().Add(time.Hour) }
	env := newTestEnvWithClock(t, testPolicy(), later)
	ctx := context.Background()
	kept := uploadOne(t, env, "alice", 0, 1)

	orphan, err := store.GenerateXID(time.Now(), nil)
	if err != nil {
		t.Fatalf("xid: %v", err)
	}
	if _, err := env.store.PutAssetFile(ctx, orphan, "asset.png", pngBytes(t, 2)); err != nil {
		t.Fatalf("write orphan: %v", err)
	}

	dry, err := env.repo.Reconciler.Sweep(ctx, true, DefaultOrphanGrace)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !dry.DryRun || dry.CandidateCount != 1 || dry.DeletedCount != 0 || dry.Candidates[0] != orphan {
		t.Fatalf("unexpected dry run result: %+v", dry)
	}
	if want := filepath.Join(env.dataDir, "assets"); dry.Root != want {
		t.Fatalf("expected sweep root %s, got %s", want, dry.Root)
	}
	if _, err := env.store.StatAsset(ctx, orphan); err != nil {
		t.Fatalf("expected orphan to survive dry run: %v", err)
	}

	res, err := env.repo.Reconciler.Sweep(ctx, false, DefaultOrphanGrace)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.DeletedCount != 1 || res.ReclaimedBytes <= 0 {
		t.Fatalf("unexpected sweep result: %+v", res)
	}
	ids, err := env.store.ListAssetIDs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != kept.XID {
		t.Fatalf("expected only the recorded asset to remain, got %v", ids)
	}
}

func TestSweepSkipsRecentOrphans(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()
	orphan, err := store.GenerateXID(time.Now(), nil)
	if err != nil {
		t.Fatalf("xid: %v", err)
	}
	if _, err := env.store.PutAssetFile(ctx, orphan, "asset.png", pngBytes(t, 2)); err != nil {
		t.Fatalf("write orphan: %v", err)
	}

	res, err := env.repo.Reconciler.Sweep(ctx, false, time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.CandidateCount != 0 {
		t.Fatalf("expected in-flight folder to be left alone, got %+v", res)
	}
}

func TestReindexRebuildsIndex(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()
	a := uploadOne(t, env, "alice", 0, 1)
	b := uploadOne(t, env, "alice", 0, 2)
	for _, xid := range []string{a.XID, b.XID} {
		if err := env.store.RemoveEntry(ctx, xid); err != nil {
			t.Fatalf("remove entry: %v", err)
		}
	}
	stale, err := store.GenerateXID(time.Now(), nil)
	if err != nil {
		t.Fatalf("xid: %v", err)
	}
	if err := env.store.AppendEntry(ctx, store.IndexEntry{XID: stale, Owner: "alice", Slot: 0, Created: time.Now()}); err != nil {
		t.Fatalf("append stale: %v", err)
	}

	res, err := env.repo.Reconciler.Reindex(ctx)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if res.Scanned != 2 || res.Appended != 2 || res.Removed != 1 {
		t.Fatalf("unexpected reindex result: %+v", res)
	}

	listed, err := env.repo.GetCollection(ctx, "alice", 0, "alice")
	if err != nil {
		t.Fatalf("collection: %v", err)
	}
	if len(listed) != 2 || listed[0].XID != a.XID || listed[1].XID != b.XID {
		t.Fatalf("expected rebuilt collection in upload order, got %+v", listed)
	}

	count, err := env.store.Counter(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	if count < 2 {
		t.Fatalf("expected counter raised to at least 2, got %d", count)
	}
}
