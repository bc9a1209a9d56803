package service

import (
	"context"
	"fmt"

	"artx/internal/models"
	"artx/internal/store"
)

// MintService turns owned assets into edition-bounded tokens.
type MintService struct {
	*deps
	assets  *AssetService
	agents  *AgentService
	records store.AssetStore
}

// Mint freezes an asset into a token. Minting happens at most once per asset.
func (s *MintService) Mint(ctx context.Context, xid, callerID string, editions int) (models.Asset, error) {
	if err := validateXID(xid); err != nil {
		return models.Asset{}, err
	}

	unlock, err := s.lock(ctx, assetLockKey(xid))
	if err != nil {
		return models.Asset{}, err
	}
	defer unlock()

	asset, err := s.assets.load(ctx, xid)
	if err != nil {
		return models.Asset{}, err
	}
	if callerID != asset.Owner {
		s.log().Debug("mint rejected", "xid", xid, "caller", callerID)
		return models.Asset{}, unauthorized(fmt.Errorf("caller %q does not own asset %s", callerID, xid))
	}
	if asset.IsToken() {
		return models.Asset{}, modelFailure(models.ErrAlreadyMinted)
	}
	if editions < 1 {
		return models.Asset{}, modelFailure(models.ErrInvalidEditions)
	}
	if s.policy.MaxEditions > 0 && editions > s.policy.MaxEditions {
		return models.Asset{}, validationCode(fmt.Errorf("editions %d exceeds limit %d", editions, s.policy.MaxEditions), ErrCodeInvalidEditions)
	}
	if asset.IsDeleted() {
		return models.Asset{}, validation(fmt.Errorf("deleted asset %s cannot be minted", xid))
	}

	cost := int64(editions) * s.policy.CreditsPerEdition
	if err := s.agents.charge(ctx, asset.Owner, cost); err != nil {
		return models.Asset{}, err
	}
	if err := asset.MintToken(editions, s.clock()); err != nil {
		s.agents.refund(ctx, asset.Owner, cost)
		return models.Asset{}, modelFailure(err)
	}
	if err := s.records.PutAsset(ctx, &asset); err != nil {
		s.agents.refund(ctx, asset.Owner, cost)
		return models.Asset{}, storeFailure(err)
	}
	s.log().Info("asset minted", "xid", xid, "owner", asset.Owner, "editions", editions)
	return asset, nil
}
