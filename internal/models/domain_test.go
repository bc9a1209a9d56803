package models

import (
	"errors"
	"testing"
	"time"
)

func plainAsset() Asset {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return Asset{
		Kind:    AssetKindPlain,
		XID:     "01HX0000000000000000000000",
		Owner:   "agent-1",
		Title:   "Dawn",
		Created: now,
		Updated: now,
		File:    FileInfo{ContentAddress: "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"},
	}
}

func TestAssetApply(t *testing.T) {
	a := plainAsset()
	title := "  Dusk "
	slot := 2
	later := a.Updated.Add(time.Minute)

	if err := a.Apply(AssetPatch{Title: &title, CollectionSlot: &slot}, later); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.Title != "Dusk" {
		t.Fatalf("expected trimmed title, got %q", a.Title)
	}
	if a.CollectionSlot != 2 {
		t.Fatalf("expected slot 2, got %d", a.CollectionSlot)
	}
	if !a.Updated.Equal(later) {
		t.Fatalf("expected updated %v, got %v", later, a.Updated)
	}
}

func TestMintFreezesAsset(t *testing.T) {
	a := plainAsset()
	now := a.Created.Add(time.Hour)

	if err := a.MintToken(5, now); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !a.IsToken() || a.Mint == nil || a.Mint.Editions != 5 {
		t.Fatalf("expected token with 5 editions, got %#v", a)
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("validate token: %v", err)
	}

	title := "y"
	if err := a.Apply(AssetPatch{Title: &title}, now); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
	slot := 0
	if err := a.Apply(AssetPatch{CollectionSlot: &slot}, now); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen for slot change, got %v", err)
	}
	if a.Title != "Dawn" {
		t.Fatalf("title changed on frozen asset: %q", a.Title)
	}
	if err := a.MintToken(3, now); !errors.Is(err, ErrAlreadyMinted) {
		t.Fatalf("expected ErrAlreadyMinted, got %v", err)
	}
}

func TestMintRejectsBadInput(t *testing.T) {
	a := plainAsset()
	if err := a.MintToken(0, time.Now()); !errors.Is(err, ErrInvalidEditions) {
		t.Fatalf("expected ErrInvalidEditions, got %v", err)
	}
	a.CollectionSlot = DeletedSlot
	if err := a.MintToken(1, time.Now()); err == nil {
		t.Fatal("expected deleted asset mint to fail")
	}
	if a.IsToken() {
		t.Fatal("failed mint must not change kind")
	}
}

func TestAssetValidateUnion(t *testing.T) {
	a := plainAsset()
	a.Mint = &Mint{Editions: 1}
	if err := a.Validate(); err == nil {
		t.Fatal("expected plain asset with mint to be invalid")
	}

	b := plainAsset()
	b.Kind = AssetKindToken
	if err := b.Validate(); err == nil {
		t.Fatal("expected token without mint to be invalid")
	}

	c := plainAsset()
	c.Kind = "weird"
	if err := c.Validate(); err == nil {
		t.Fatal("expected unknown kind to be invalid")
	}
}

func TestAgentDefaults(t *testing.T) {
	now := time.Now().UTC()
	agent := NewAgent("pk-1", "GuestUser", 10000, now)
	if err := agent.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !agent.HasSlot(0) || agent.HasSlot(1) || agent.HasSlot(-1) {
		t.Fatalf("unexpected slots: %#v", agent.Collections)
	}

	clone := agent.Clone()
	clone.Collections[0].Name = "Renamed"
	if agent.Collections[0].Name != DefaultCollectionName {
		t.Fatal("clone shares collections with original")
	}

	agent.Credits = -1
	if err := agent.Validate(); err == nil {
		t.Fatal("expected negative credits to be invalid")
	}
}

func TestVerificationReportAdd(t *testing.T) {
	var report VerificationReport
	report.Add(VerificationResult{ID: "a", Verified: true})
	report.Add(VerificationResult{ID: "b", Error: VerifyHashMismatch})
	if report.Checked != 2 || report.Verified != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report: %#v", report)
	}
	if len(report.Failures) != 1 || report.Failures[0].ID != "b" {
		t.Fatalf("unexpected failures: %#v", report.Failures)
	}
}
