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
	"artx/internal/models"
	"artx/internal/store"
)

// Backend is everything the engine needs from storage.
type Backend interface {
	store.AssetStore
	store.AgentStore
	store.CollectionIndex
	store.Leaser
}

// Options wires a Repository. Zero values select defaults.
type Options struct {
	HashAlgorithm contenthash.Algorithm
	Inspector     imaging.Inspector
	Policy        Policy
	Logger        *slog.Logger
	Now           func() time.Time
}

// Repository exposes the engine's operation set over one backend.
type Repository struct {
	Assets      *AssetService
	Agents      *AgentService
	Collections *CollectionService
	Minting     *MintService
	Verifier    *VerifyService
	Reconciler  *Reconciler

	closer func() error
}

// New builds a Repository over backend.
func New(backend Backend, opts Options) (*Repository, error) {
	if backend == nil {
		return nil, internalError(fmt.Errorf("backend is required"))
	}
	hasher, err := contenthash.New(opts.HashAlgorithm)
	if err != nil {
		return nil, validation(err)
	}
	inspector := opts.Inspector
	if inspector == nil {
		decoder := imaging.NewDecodeInspector()
		if opts.Policy.MaxPixels > 0 {
			decoder.MaxPixels = opts.Policy.MaxPixels
		}
		inspector = decoder
	}

	d := &deps{
		hasher:    hasher,
		inspector: inspector,
		locks:     keylock.NewShared(backend),
		policy:    opts.Policy,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	agents := &AgentService{deps: d, agents: backend}
	assets := &AssetService{deps: d, assets: backend, index: backend, agents: agents}
	return &Repository{
		Assets:      assets,
		Agents:      agents,
		Collections: &CollectionService{deps: d, assets: assets, agents: agents, index: backend},
		Minting:     &MintService{deps: d, assets: assets, agents: agents, records: backend},
		Verifier:    &VerifyService{deps: d, assets: backend, agents: backend},
		Reconciler:  &Reconciler{deps: d, assets: backend, index: backend},
	}, nil
}

// Open opens the configured data directory and wires a Repository over it.
func Open(cfg *config.Config, logger *slog.Logger) (*Repository, error) {
	if cfg == nil {
		return nil, internalError(fmt.Errorf("config is required"))
	}
	alg, err := contenthash.Parse(cfg.HashAlgorithm)
	if err != nil {
		return nil, validation(err)
	}
	st, err := store.Open(cfg.DataDir, cfg.IndexPath)
	if err != nil {
		return nil, storeFailure(err)
	}
	repo, err := New(st, Options{
		HashAlgorithm: alg,
		Policy:        PolicyFromConfig(cfg),
		Logger:        logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	repo.closer = st.Close
	return repo, nil
}

// Close releases the backend when the Repository owns it.
func (r *Repository) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer()
}

// UploadBatch stores files as new assets of owner in slot.
func (r *Repository) UploadBatch(ctx context.Context, ownerID string, slot int, files []UploadFile) ([]models.Asset, error) {
	return r.Assets.UploadBatch(ctx, ownerID, slot, files)
}

// GetAsset returns one asset.
func (r *Repository) GetAsset(ctx context.Context, xid string) (models.Asset, error) {
	return r.Assets.Read(ctx, xid)
}

// UpdateAsset applies an owner edit.
func (r *Repository) UpdateAsset(ctx context.Context, xid, callerID string, patch models.AssetPatch) (models.Asset, error) {
	return r.Assets.Update(ctx, xid, callerID, patch)
}

// MintAsset turns an asset into a token.
func (r *Repository) MintAsset(ctx context.Context, xid, callerID string, editions int) (models.Asset, error) {
	return r.Minting.Mint(ctx, xid, callerID, editions)
}

// GetAgent returns an agent, creating it on first contact when asked.
func (r *Repository) GetAgent(ctx context.Context, id string, createIfAbsent bool) (models.Agent, error) {
	return r.Agents.Get(ctx, id, createIfAbsent)
}

// SaveAgent replaces a profile on behalf of its owner.
func (r *Repository) SaveAgent(ctx context.Context, agent models.Agent, callerID string) (models.Agent, error) {
	return r.Agents.Save(ctx, agent, callerID)
}

// ListAgents returns every agent.
func (r *Repository) ListAgents(ctx context.Context) ([]models.Agent, error) {
	return r.Agents.ListAll(ctx)
}

// GetCollection lists what callerID may see of (ownerID, slot).
func (r *Repository) GetCollection(ctx context.Context, ownerID string, slot int, callerID string) ([]models.Asset, error) {
	return r.Collections.GetCollection(ctx, ownerID, slot, callerID)
}

// VerifyAsset rechecks one asset.
func (r *Repository) VerifyAsset(ctx context.Context, xid string) models.VerificationResult {
	return r.Verifier.VerifyAsset(ctx, xid)
}

// VerifyAgent rechecks one agent record.
func (r *Repository) VerifyAgent(ctx context.Context, id string) models.VerificationResult {
	return r.Verifier.VerifyAgent(ctx, id)
}
