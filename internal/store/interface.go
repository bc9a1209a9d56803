package store

import (
	"context"
	"time"

	"artx/internal/blobstore"
	"artx/internal/models"
)

// AssetStore persists asset files and their metadata records.
type AssetStore interface {
	AssetExists(ctx context.Context, xid string) (bool, error)
	PutAssetFile(ctx context.Context, xid, storedName string, data []byte) (string, error)
	ReadAssetFile(ctx context.Context, xid, storedName string) ([]byte, error)
	PutAsset(ctx context.Context, asset *models.Asset) error
	GetAsset(ctx context.Context, xid string) (*models.Asset, error)
	ListAssetIDs(ctx context.Context) ([]string, error)
	AssetRoot() string
	StatAsset(ctx context.Context, xid string) (blobstore.KeyInfo, error)
	RemoveAsset(ctx context.Context, xid string) error
}

// AgentStore persists agent profile records.
type AgentStore interface {
	PutAgent(ctx context.Context, agent *models.Agent) error
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	GetAgentRaw(ctx context.Context, id string) ([]byte, error)
	ListAgentIDs(ctx context.Context) ([]string, error)
}

// IndexEntry is one asset's position in its owner's collection index.
type IndexEntry struct {
	XID     string
	Owner   string
	Slot    int
	Created time.Time
}

// CollectionIndex orders assets per (owner, slot) and hands out title sequence numbers.
type CollectionIndex interface {
	AppendEntry(ctx context.Context, entry IndexEntry) error
	MoveEntry(ctx context.Context, xid string, slot int) error
	RemoveEntry(ctx context.Context, xid string) error
	ListEntries(ctx context.Context, owner string, slot int) ([]IndexEntry, error)
	ListOwnerEntries(ctx context.Context, owner string) ([]IndexEntry, error)
	ListAllEntries(ctx context.Context) ([]IndexEntry, error)
	ReserveSequence(ctx context.Context, owner string, slot, n int) (int, error)
	Counter(ctx context.Context, owner string, slot int) (int, error)
	RaiseCounter(ctx context.Context, owner string, slot, atLeast int) error
}

// Leaser hands out per-key write leases shared by every process using the same index.
type Leaser interface {
	AcquireLease(ctx context.Context, key string) (func(), error)
}

var (
	_ AssetStore      = (*Store)(nil)
	_ AgentStore      = (*Store)(nil)
	_ CollectionIndex = (*Store)(nil)
	_ Leaser          = (*Store)(nil)
)
