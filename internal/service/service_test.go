package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"artx/internal/imaging"
	"artx/internal/models"
	"artx/internal/store"
)

type testEnv struct {
	repo    *Repository
	store   *store.Store
	dataDir string
}

func testPolicy() Policy {
	return Policy{
		GuestName:         "GuestUser",
		InitialCredits:    10000,
		MaxUploadBytes:    1 << 20,
		MaxBatchFiles:     10,
		CreditsPerUpload:  1,
		MaxEditions:       100,
		VerifyConcurrency: 4,
	}
}

func newTestEnv(t *testing.T, policy Policy) *testEnv {
	t.Helper()
	return newTestEnvWithClock(t, policy, nil)
}

func newTestEnvWithClock(t *testing.T, policy Policy, now func() time.Time) *testEnv {
	t.Helper()
	dataDir := t.TempDir()
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
	return &testEnv{repo: repo, store: st, dataDir: dataDir}
}

// pngBytes renders a tiny image whose bytes differ per seed.
func pngBytes(t *testing.T, seed int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for x := 0; x < 3; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, color.RGBA{R: uint8(seed), G: uint8(x * 40), B: uint8(y * 90), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func uploadOne(t *testing.T, env *testEnv, owner string, slot int, seed int) models.Asset {
	t.Helper()
	created, err := env.repo.UploadBatch(context.Background(), owner, slot, []UploadFile{
		{Data: pngBytes(t, seed), OriginalName: "sketch.png"},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(created))
	}
	return created[0]
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func assertKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !IsKind(err, kind) {
		t.Fatalf("expected %s error, got %q (%v)", kind, KindOf(err), err)
	}
}
