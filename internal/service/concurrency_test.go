package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"artx/internal/imaging"
	"artx/internal/models"
	"artx/internal/store"
)

// openRepoAt opens an independent store handle and repository over dataDir,
// the way a separate CLI invocation would.
func openRepoAt(t *testing.T, dataDir string, policy Policy, now func() time.Time) *Repository {
	t.Helper()
	st, err := store.Open(dataDir, "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	repo, err := New(st, Options{
		Inspector: imaging.DecodeInspector{},
		Policy:    policy,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:       now,
	})
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	return repo
}

func TestEditAndMintFromSeparateRepositoriesAreSerialized(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()

	paused := make(chan struct{})
	resume := make(chan struct{})
	var armed atomic.Bool
	var pauseOnce sync.Once
	editorClock := func() time.Time {
		if armed.Load() {
			pauseOnce.Do(func() {
				close(paused)
				<-resume
			})
		}
		return time.Now()
	}

	editor := openRepoAt(t, dataDir, testPolicy(), editorClock)
	minter := openRepoAt(t, dataDir, testPolicy(), nil)

	created, err := minter.UploadBatch(ctx, "alice", 0, []UploadFile{{Data: pngBytes(t, 7), OriginalName: "piece.png"}})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	xid := created[0].XID

	armed.Store(true)
	updateDone := make(chan error, 1)
	go func() {
		_, err := editor.UpdateAsset(ctx, xid, "alice", models.AssetPatch{Title: strPtr("renamed")})
		updateDone <- err
	}()
	<-paused

	mintDone := make(chan error, 1)
	go func() {
		_, err := minter.MintAsset(ctx, xid, "alice", 5)
		mintDone <- err
	}()

	select {
	case err := <-mintDone:
		close(resume)
		t.Fatalf("mint finished while the edit held the asset: %v", err)
	case <-time.After(150 * time.Millisecond):
	}
	close(resume)

	if err := <-updateDone; err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := <-mintDone; err != nil {
		t.Fatalf("mint: %v", err)
	}

	final, err := minter.GetAsset(ctx, xid)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !final.IsToken() || final.Mint.Editions != 5 {
		t.Fatalf("expected 5-edition token, got kind=%s mint=%+v", final.Kind, final.Mint)
	}
	if final.Title != "renamed" {
		t.Fatalf("expected edit applied before mint, got title %q", final.Title)
	}
}

func TestConcurrentEditsAndMintNeverLoseTheToken(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()
	xid := uploadOne(t, env, "alice", 0, 3).XID

	const editors = 20
	const minters = 4

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		applied   = map[string]bool{}
		mintWins  int
		failures  []string
		startGate = make(chan struct{})
	)
	for i := 0; i < editors; i++ {
		title := fmt.Sprintf("edit-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-startGate
			asset, err := env.repo.UpdateAsset(ctx, xid, "alice", models.AssetPatch{Title: strPtr(title)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && asset.IsToken():
				failures = append(failures, "edit applied to a token: "+title)
			case err == nil:
				applied[title] = true
			case IsKind(err, KindValidation) && CodeOf(err) == ErrCodeFrozen:
			default:
				failures = append(failures, fmt.Sprintf("edit %s: %v", title, err))
			}
		}()
	}
	for i := 0; i < minters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-startGate
			_, err := env.repo.MintAsset(ctx, xid, "alice", 3)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				mintWins++
			case IsKind(err, KindConflict):
			default:
				failures = append(failures, fmt.Sprintf("mint: %v", err))
			}
		}()
	}
	close(startGate)
	wg.Wait()

	for _, f := range failures {
		t.Error(f)
	}
	if mintWins != 1 {
		t.Fatalf("expected exactly one successful mint, got %d", mintWins)
	}

	final, err := env.repo.GetAsset(ctx, xid)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !final.IsToken() {
		t.Fatalf("minted asset reverted to %s", final.Kind)
	}
	if len(applied) > 0 && !applied[final.Title] {
		t.Fatalf("final title %q is not one of the applied edits", final.Title)
	}
	if len(applied) == 0 && final.Title != "sketch" {
		t.Fatalf("no edit applied but title is %q", final.Title)
	}
}

func TestConcurrentBatchesCannotOverspendCredits(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()
	policy := testPolicy()
	policy.InitialCredits = 5
	policy.CreditsPerUpload = 1

	first := openRepoAt(t, dataDir, policy, nil)
	second := openRepoAt(t, dataDir, policy, nil)
	if _, err := first.GetAgent(ctx, "alice", true); err != nil {
		t.Fatalf("create agent: %v", err)
	}

	batch := func(seed int) []UploadFile {
		files := make([]UploadFile, 4)
		for i := range files {
			files[i] = UploadFile{Data: pngBytes(t, seed+i), OriginalName: fmt.Sprintf("f%d.png", seed+i)}
		}
		return files
	}

	type outcome struct {
		created int
		err     error
	}
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	for i, repo := range []*Repository{first, second} {
		files := batch(i * 10)
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := repo.UploadBatch(ctx, "alice", 0, files)
			results <- outcome{created: len(created), err: err}
		}()
	}
	wg.Wait()
	close(results)

	total := 0
	for r := range results {
		total += r.created
		if r.err != nil && CodeOf(r.err) != ErrCodeInsufficientCredit {
			t.Fatalf("unexpected batch error: %v", r.err)
		}
	}

	agent, err := first.GetAgent(ctx, "alice", false)
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if agent.Credits < 0 {
		t.Fatalf("balance went negative: %d", agent.Credits)
	}
	if spent := policy.InitialCredits - agent.Credits; spent != int64(total) {
		t.Fatalf("charged %d credits for %d assets", spent, total)
	}
	owned, err := second.Assets.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(owned) != total {
		t.Fatalf("index lists %d assets, batches reported %d", len(owned), total)
	}
	if total < 4 || total > 5 {
		t.Fatalf("expected 4 or 5 assets from a balance of 5, got %d", total)
	}
}
