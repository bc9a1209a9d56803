package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"artx/internal/models"
)

func agentRecordPath(env *testEnv, id string) string {
	return filepath.Join(env.dataDir, "agents", id, "profile.json")
}

func TestVerifyAgent(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()
	if _, err := env.repo.GetAgent(ctx, "alice", true); err != nil {
		t.Fatalf("create: %v", err)
	}

	if res := env.repo.VerifyAgent(ctx, "alice"); !res.Verified {
		t.Fatalf("expected fresh agent to verify, got %+v", res)
	}

	if res := env.repo.VerifyAgent(ctx, "nobody"); res.Verified || res.Error != models.VerifyRecordMissing {
		t.Fatalf("expected record missing, got %+v", res)
	}

	path := agentRecordPath(env, "alice")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "garbage", data: "{not json", want: models.VerifyCorruptRecord},
		{name: "unknown field", data: string(raw[:len(raw)-2]) + `,"avatar":"x.png"}`, want: models.VerifyRoundTripLoss},
		{name: "negative credits", data: `{"id":"alice","name":"A","collections":[{"name":"Default"}],"credits":-1}`, want: models.VerifyCorruptRecord},
		{name: "wrong id", data: `{"id":"bob","name":"A","collections":[{"name":"Default"}],"credits":1}`, want: models.VerifyCorruptRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			res := env.repo.VerifyAgent(ctx, "alice")
			if res.Verified || res.Error != tt.want {
				t.Fatalf("expected %q, got %+v", tt.want, res)
			}
		})
	}
}

func TestVerifyAssetMissingRecord(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	res := env.repo.VerifyAsset(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	if res.Verified || res.Error != models.VerifyRecordMissing {
		t.Fatalf("expected record missing, got %+v", res)
	}
}

func TestVerifyAllCollectsFailures(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	ctx := context.Background()
	good := uploadOne(t, env, "alice", 0, 1)
	bad := uploadOne(t, env, "alice", 0, 2)
	if _, err := env.repo.GetAgent(ctx, "bob", true); err != nil {
		t.Fatalf("create: %v", err)
	}

	badPath := filepath.Join(env.dataDir, filepath.FromSlash(bad.File.RelativePath))
	if err := os.WriteFile(badPath, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if err := os.WriteFile(agentRecordPath(env, "bob"), []byte("{"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	report, err := env.repo.Verifier.VerifyAll(ctx)
	if err != nil {
		t.Fatalf("verify all: %v", err)
	}
	// Two assets plus agents alice and bob.
	if report.Checked != 4 || report.Verified != 2 || report.Failed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	failed := map[string]string{}
	for _, f := range report.Failures {
		failed[f.ID] = f.Error
	}
	if failed[bad.XID] != models.VerifyHashMismatch || failed["bob"] != models.VerifyCorruptRecord {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}
	if _, ok := failed[good.XID]; ok {
		t.Fatal("expected untouched asset to verify")
	}
}
