// Package service is the storage and ownership engine: uploads, edits,
// minting, collection views and integrity verification.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"artx/internal/config"
	"artx/internal/contenthash"
	"artx/internal/imaging"
	"artx/internal/keylock"
)

// Policy carries the configurable limits and prices the engine enforces.
type Policy struct {
	GuestName         string
	InitialCredits    int64
	MaxUploadBytes    int64
	MaxPixels         int64
	MaxBatchFiles     int
	AllowedFormats    []string
	CreditsPerUpload  int64
	CreditsPerMiB     int64
	CreditsPerEdition int64
	MaxEditions       int
	VerifyConcurrency int
}

// PolicyFromConfig copies engine settings out of a loaded config.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	return Policy{
		GuestName:         cfg.GuestName,
		InitialCredits:    cfg.InitialCredits,
		MaxUploadBytes:    cfg.Uploads.MaxUploadBytes,
		MaxPixels:         cfg.Uploads.MaxPixels,
		MaxBatchFiles:     cfg.Uploads.MaxBatchFiles,
		AllowedFormats:    cfg.Uploads.AllowedFormats,
		CreditsPerUpload:  cfg.Credits.PerUpload,
		CreditsPerMiB:     cfg.Credits.PerMiB,
		CreditsPerEdition: cfg.Credits.PerEdition,
		MaxEditions:       cfg.Minting.MaxEditions,
		VerifyConcurrency: cfg.Verify.Concurrency,
	}
}

func (p Policy) formatAllowed(format string) bool {
	if len(p.AllowedFormats) == 0 {
		return true
	}
	for _, allowed := range p.AllowedFormats {
		if allowed == format {
			return true
		}
	}
	return false
}

// deps is the wiring shared by every service.
type deps struct {
	hasher    *contenthash.Hasher
	inspector imaging.Inspector
	locks     *keylock.Locker
	policy    Policy
	logger    *slog.Logger
	now       func() time.Time
}

func (d *deps) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

func (d *deps) clock() time.Time {
	if d.now != nil {
		return d.now().UTC()
	}
	return time.Now().UTC()
}

// lock serializes writers of key across goroutines and processes.
func (d *deps) lock(ctx context.Context, key string) (func(), error) {
	unlock, err := d.locks.Lock(ctx, key)
	if err != nil {
		return nil, storeFailure(fmt.Errorf("lock %s: %w", key, err))
	}
	return unlock, nil
}

func assetLockKey(xid string) string {
	return "asset:" + xid
}

func agentLockKey(id string) string {
	return "agent:" + id
}
