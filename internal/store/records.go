package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"artx/internal/blobstore"
	"artx/internal/models"
)

// AssetExists checks whether an asset directory holds a metadata record.
func (s *Store) AssetExists(ctx context.Context, xid string) (bool, error) {
	info, err := s.assets.Stat(ctx, xid)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Has(assetRecordName), nil
}

// PutAssetFile writes the raw uploaded bytes into the asset directory.
func (s *Store) PutAssetFile(ctx context.Context, xid, storedName string, data []byte) (string, error) {
	rel, err := s.assets.WriteFile(ctx, xid, storedName, data)
	if err != nil {
		return "", fmt.Errorf("write asset file %s: %w", xid, err)
	}
	return rel, nil
}

// ReadAssetFile returns stored bytes. Missing files wrap os.ErrNotExist.
func (s *Store) ReadAssetFile(ctx context.Context, xid, storedName string) ([]byte, error) {
	return s.assets.ReadFile(ctx, xid, storedName)
}

// PutAsset writes the asset metadata record, replacing any previous version.
func (s *Store) PutAsset(ctx context.Context, asset *models.Asset) error {
	if asset == nil {
		return fmt.Errorf("asset is required")
	}
	if err := asset.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(asset, "", "  ")
	if err != nil {
		return err
	}
	if _, err := s.assets.WriteFile(ctx, asset.XID, assetRecordName, data); err != nil {
		return fmt.Errorf("write asset record %s: %w", asset.XID, err)
	}
	return nil
}

// GetAsset reads one asset record.
func (s *Store) GetAsset(ctx context.Context, xid string) (*models.Asset, error) {
	if !blobstore.ValidKey(xid) {
		return nil, ErrNotFound
	}
	data, err := s.assets.ReadFile(ctx, xid, assetRecordName)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read asset record %s: %w", xid, err)
	}
	var asset models.Asset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("%w: asset %s: %v", ErrCorrupt, xid, err)
	}
	return &asset, nil
}

// ListAssetIDs returns every asset directory, with or without a record.
func (s *Store) ListAssetIDs(ctx context.Context) ([]string, error) {
	return s.assets.ListKeys(ctx)
}

// AssetRoot returns the absolute directory holding the asset folders.
func (s *Store) AssetRoot() string {
	return s.assets.Root()
}

// StatAsset describes the files present in an asset directory.
func (s *Store) StatAsset(ctx context.Context, xid string) (blobstore.KeyInfo, error) {
	return s.assets.Stat(ctx, xid)
}

// RemoveAsset deletes an asset directory. Only reconciliation uses this.
func (s *Store) RemoveAsset(ctx context.Context, xid string) error {
	return s.assets.RemoveKey(ctx, xid)
}

// AssetRecordName is the metadata file name inside an asset directory.
func AssetRecordName() string {
	return assetRecordName
}

// PutAgent writes an agent profile record.
func (s *Store) PutAgent(ctx context.Context, agent *models.Agent) error {
	if agent == nil {
		return fmt.Errorf("agent is required")
	}
	if err := agent.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(agent, "", "  ")
	if err != nil {
		return err
	}
	if _, err := s.agents.WriteFile(ctx, agent.ID, agentRecordName, data); err != nil {
		return fmt.Errorf("write agent record %s: %w", agent.ID, err)
	}
	return nil
}

// GetAgent reads one agent profile.
func (s *Store) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	data, err := s.GetAgentRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	var agent models.Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, fmt.Errorf("%w: agent %s: %v", ErrCorrupt, id, err)
	}
	return &agent, nil
}

// GetAgentRaw returns the stored profile bytes without decoding them.
func (s *Store) GetAgentRaw(ctx context.Context, id string) ([]byte, error) {
	if !blobstore.ValidKey(id) {
		return nil, ErrNotFound
	}
	data, err := s.agents.ReadFile(ctx, id, agentRecordName)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read agent record %s: %w", id, err)
	}
	return data, nil
}

// ListAgentIDs returns every agent directory.
func (s *Store) ListAgentIDs(ctx context.Context) ([]string, error) {
	return s.agents.ListKeys(ctx)
}
