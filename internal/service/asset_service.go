package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"artx/internal/imaging"
	"artx/internal/models"
	"artx/internal/store"
)

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Data         []byte
	OriginalName string
	// Title overrides the collection's default title when set.
	Title string
}

// AssetService creates, reads and edits asset records.
type AssetService struct {
	*deps
	assets store.AssetStore
	index  store.CollectionIndex
	agents *AgentService
}

type preparedUpload struct {
	file  UploadFile
	image models.ImageInfo
	title string
	cost  int64
}

// Create stores a single file as a new asset.
func (s *AssetService) Create(ctx context.Context, owner string, slot int, data []byte, originalName, title string) (models.Asset, error) {
	created, err := s.UploadBatch(ctx, owner, slot, []UploadFile{{Data: data, OriginalName: originalName, Title: title}})
	if err != nil {
		return models.Asset{}, err
	}
	return created[0], nil
}

// UploadBatch stores files in order as new assets in one collection slot.
// Each file commits on its own: on error the assets created so far are
// returned alongside it.
func (s *AssetService) UploadBatch(ctx context.Context, owner string, slot int, files []UploadFile) ([]models.Asset, error) {
	if err := validateAgentID(owner); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, validationCode(fmt.Errorf("at least one file is required"), ErrCodeMissingRequired)
	}
	if s.policy.MaxBatchFiles > 0 && len(files) > s.policy.MaxBatchFiles {
		return nil, validationCode(fmt.Errorf("batch has %d files, limit is %d", len(files), s.policy.MaxBatchFiles), ErrCodeTooManyFiles)
	}

	agent, err := s.agents.Get(ctx, owner, true)
	if err != nil {
		return nil, err
	}
	collection, ok := agent.Collection(slot)
	if !ok {
		return nil, validationCode(fmt.Errorf("collection slot %d out of range for %s", slot, owner), ErrCodeInvalidSlot)
	}

	prepared, err := s.prepare(files)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, p := range prepared {
		total += p.cost
	}
	if total > agent.Credits {
		return nil, validationCode(fmt.Errorf("insufficient credits: balance %d, need %d", agent.Credits, total), ErrCodeInsufficientCredit)
	}

	if err := s.assignDefaultTitles(ctx, owner, slot, collection, prepared); err != nil {
		return nil, err
	}

	created := make([]models.Asset, 0, len(prepared))
	for _, p := range prepared {
		asset, err := s.createOne(ctx, owner, slot, p)
		if err != nil {
			return created, err
		}
		created = append(created, asset)
	}
	return created, nil
}

// prepare validates and inspects every file before anything is written.
func (s *AssetService) prepare(files []UploadFile) ([]preparedUpload, error) {
	out := make([]preparedUpload, 0, len(files))
	for i, f := range files {
		size := int64(len(f.Data))
		if s.policy.MaxUploadBytes > 0 && size > s.policy.MaxUploadBytes {
			return nil, validationCode(fmt.Errorf("file %d (%s) is %d bytes, limit is %d", i, f.OriginalName, size, s.policy.MaxUploadBytes), ErrCodeFileTooLarge)
		}
		info, err := s.inspector.Inspect(f.Data)
		if errors.Is(err, imaging.ErrImageTooLarge) {
			return nil, validationCode(fmt.Errorf("file %d (%s): %w", i, f.OriginalName, err), ErrCodeImageTooLarge)
		}
		if err != nil {
			return nil, validationCode(fmt.Errorf("file %d (%s): %w", i, f.OriginalName, err), ErrCodeUnsupportedFormat)
		}
		if pixels := int64(info.Width) * int64(info.Height); s.policy.MaxPixels > 0 && pixels > s.policy.MaxPixels {
			return nil, validationCode(fmt.Errorf("file %d (%s) has %d pixels, limit is %d", i, f.OriginalName, pixels, s.policy.MaxPixels), ErrCodeImageTooLarge)
		}
		info.Format = strings.ToLower(info.Format)
		if !s.policy.formatAllowed(info.Format) {
			return nil, validationCode(fmt.Errorf("file %d (%s): format %q is not allowed", i, f.OriginalName, info.Format), ErrCodeUnsupportedFormat)
		}
		p := preparedUpload{
			file:  f,
			image: info,
			cost:  uploadCost(size, s.policy.CreditsPerUpload, s.policy.CreditsPerMiB),
		}
		if strings.TrimSpace(f.Title) != "" {
			title, err := normalizeTitle(f.Title)
			if err != nil {
				return nil, err
			}
			p.title = title
		}
		out = append(out, p)
	}
	return out, nil
}

// assignDefaultTitles reserves one sequence range for the whole batch so
// concurrent batches into the same slot never share a number.
func (s *AssetService) assignDefaultTitles(ctx context.Context, owner string, slot int, collection models.Collection, prepared []preparedUpload) error {
	template := strings.TrimSpace(collection.DefaultTitle)
	pending := 0
	for _, p := range prepared {
		if p.title == "" {
			pending++
		}
	}
	if template == "" || pending == 0 {
		for i := range prepared {
			if prepared[i].title == "" {
				prepared[i].title = titleFromName(prepared[i].file.OriginalName)
			}
		}
		return nil
	}

	first, err := s.index.ReserveSequence(ctx, owner, slot, pending)
	if err != nil {
		return storeFailure(fmt.Errorf("reserve title sequence: %w", err))
	}
	seq := first
	for i := range prepared {
		if prepared[i].title != "" {
			continue
		}
		prepared[i].title = renderTitle(template, seq)
		seq++
	}
	return nil
}

func (s *AssetService) createOne(ctx context.Context, owner string, slot int, p preparedUpload) (models.Asset, error) {
	if err := s.agents.charge(ctx, owner, p.cost); err != nil {
		return models.Asset{}, err
	}
	asset, err := s.persistNew(ctx, owner, slot, p)
	if err != nil {
		s.agents.refund(ctx, owner, p.cost)
		return models.Asset{}, err
	}
	s.log().Info("asset uploaded",
		"xid", asset.XID,
		"owner", owner,
		"collection", slot,
		"address", asset.File.ContentAddress,
		"size_bytes", asset.File.SizeBytes,
	)
	return asset, nil
}

func (s *AssetService) persistNew(ctx context.Context, owner string, slot int, p preparedUpload) (models.Asset, error) {
	now := s.clock()
	xid, err := store.GenerateXID(now, func(candidate string) (bool, error) {
		return s.assets.AssetExists(ctx, candidate)
	})
	if err != nil {
		return models.Asset{}, storeFailure(err)
	}

	unlock, err := s.lock(ctx, assetLockKey(xid))
	if err != nil {
		return models.Asset{}, err
	}
	defer unlock()

	storedName := storedFileName(p.image.Format)
	// The file lands first; a crash before the record is written leaves an
	// orphan folder that the reconciler sweeps.
	relPath, err := s.assets.PutAssetFile(ctx, xid, storedName, p.file.Data)
	if err != nil {
		return models.Asset{}, storeFailure(err)
	}

	asset := models.Asset{
		Kind:           models.AssetKindPlain,
		XID:            xid,
		Owner:          owner,
		Title:          p.title,
		CollectionSlot: slot,
		Created:        now,
		Updated:        now,
		File: models.FileInfo{
			StoredName:     storedName,
			OriginalName:   sanitizeOriginalName(p.file.OriginalName),
			SizeBytes:      int64(len(p.file.Data)),
			ContentAddress: s.hasher.Address(p.file.Data),
			RelativePath:   relPath,
		},
		Image: p.image,
	}
	if err := s.assets.PutAsset(ctx, &asset); err != nil {
		return models.Asset{}, storeFailure(err)
	}
	if err := s.index.AppendEntry(ctx, store.IndexEntry{XID: xid, Owner: owner, Slot: slot, Created: now}); err != nil {
		s.log().Warn("index append failed; reindex will repair", "xid", xid, "error", err)
	}
	return asset, nil
}

// Read returns one asset record.
func (s *AssetService) Read(ctx context.Context, xid string) (models.Asset, error) {
	if err := validateXID(xid); err != nil {
		return models.Asset{}, err
	}
	return s.load(ctx, xid)
}

// Update applies an owner edit. Authorization and validation are checked
// before anything is written.
func (s *AssetService) Update(ctx context.Context, xid, callerID string, patch models.AssetPatch) (models.Asset, error) {
	if err := validateXID(xid); err != nil {
		return models.Asset{}, err
	}
	if patch.Title != nil {
		title, err := normalizeTitle(*patch.Title)
		if err != nil {
			return models.Asset{}, err
		}
		patch.Title = &title
	}

	unlock, err := s.lock(ctx, assetLockKey(xid))
	if err != nil {
		return models.Asset{}, err
	}
	defer unlock()

	asset, err := s.load(ctx, xid)
	if err != nil {
		return models.Asset{}, err
	}
	if callerID != asset.Owner {
		s.log().Debug("asset update rejected", "xid", xid, "caller", callerID)
		return models.Asset{}, unauthorized(fmt.Errorf("caller %q does not own asset %s", callerID, xid))
	}
	if asset.IsToken() && !patch.Empty() {
		s.log().Debug("asset update rejected: token frozen", "xid", xid)
		return models.Asset{}, modelFailure(models.ErrFrozen)
	}

	previousSlot := asset.CollectionSlot
	if patch.CollectionSlot != nil && *patch.CollectionSlot != models.DeletedSlot {
		agent, err := s.agents.Get(ctx, asset.Owner, false)
		if err != nil {
			return models.Asset{}, err
		}
		if !agent.HasSlot(*patch.CollectionSlot) {
			return models.Asset{}, validationCode(fmt.Errorf("collection slot %d out of range", *patch.CollectionSlot), ErrCodeInvalidSlot)
		}
	}

	if err := asset.Apply(patch, s.clock()); err != nil {
		return models.Asset{}, modelFailure(err)
	}
	if err := s.assets.PutAsset(ctx, &asset); err != nil {
		return models.Asset{}, storeFailure(err)
	}

	if asset.CollectionSlot != previousSlot {
		if err := s.index.MoveEntry(ctx, xid, asset.CollectionSlot); err != nil {
			s.log().Warn("index move failed; reindex will repair", "xid", xid, "error", err)
		}
		if asset.IsDeleted() {
			s.log().Info("asset deleted", "xid", xid, "owner", asset.Owner)
		}
	}
	return asset, nil
}

// Delete moves an asset into the reserved deleted slot.
func (s *AssetService) Delete(ctx context.Context, xid, callerID string) (models.Asset, error) {
	slot := models.DeletedSlot
	return s.Update(ctx, xid, callerID, models.AssetPatch{CollectionSlot: &slot})
}

// ListByOwner returns every asset owned by owner, deleted ones included.
// The order carries no meaning.
func (s *AssetService) ListByOwner(ctx context.Context, owner string) ([]models.Asset, error) {
	if err := validateAgentID(owner); err != nil {
		return nil, err
	}
	entries, err := s.index.ListOwnerEntries(ctx, owner)
	if err != nil {
		return nil, storeFailure(err)
	}
	return s.loadEntries(ctx, entries), nil
}

// loadEntries resolves index entries to records, skipping entries whose
// record is gone or unreadable.
func (s *AssetService) loadEntries(ctx context.Context, entries []store.IndexEntry) []models.Asset {
	out := make([]models.Asset, 0, len(entries))
	for _, entry := range entries {
		asset, err := s.load(ctx, entry.XID)
		if err != nil {
			s.log().Warn("skipping indexed asset", "xid", entry.XID, "error", err)
			continue
		}
		out = append(out, asset)
	}
	return out
}

func (s *AssetService) load(ctx context.Context, xid string) (models.Asset, error) {
	asset, err := s.assets.GetAsset(ctx, xid)
	if errors.Is(err, store.ErrNotFound) {
		return models.Asset{}, assetNotFound(xid)
	}
	if err != nil {
		return models.Asset{}, storeFailure(err)
	}
	return *asset, nil
}
