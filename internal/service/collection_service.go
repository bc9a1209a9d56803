package service

import (
	"context"
	"fmt"

	"artx/internal/models"
	"artx/internal/store"
)

// CollectionService answers visibility-filtered collection queries.
type CollectionService struct {
	*deps
	assets *AssetService
	agents *AgentService
	index  store.CollectionIndex
}

// CollectionSummary describes one slot of a profile.
type CollectionSummary struct {
	Slot         int    `json:"slot"`
	Name         string `json:"name"`
	DefaultTitle string `json:"default_title,omitempty"`
	Count        int    `json:"count"`
}

// Profile is what a caller may see of an agent.
type Profile struct {
	Agent       models.Agent        `json:"agent"`
	Collections []CollectionSummary `json:"collections"`
	Tokens      []models.Asset      `json:"tokens"`
	Deleted     []models.Asset      `json:"deleted,omitempty"`
}

// GetCollection lists the assets in (owner, slot) in upload order.
// The owner sees everything; other callers see minted tokens only, and
// never the deleted slot.
func (s *CollectionService) GetCollection(ctx context.Context, owner string, slot int, callerID string) ([]models.Asset, error) {
	agent, err := s.agents.Get(ctx, owner, false)
	if err != nil {
		return nil, err
	}
	isOwner := callerID == agent.ID
	if slot == models.DeletedSlot {
		if !isOwner {
			return nil, unauthorized(fmt.Errorf("deleted assets of %s are private", owner))
		}
	} else if !agent.HasSlot(slot) {
		return nil, validationCode(fmt.Errorf("collection slot %d out of range for %s", slot, owner), ErrCodeInvalidSlot)
	}

	entries, err := s.index.ListEntries(ctx, owner, slot)
	if err != nil {
		return nil, storeFailure(err)
	}
	assets := s.assets.loadEntries(ctx, entries)
	return visibleTo(assets, isOwner, owner, slot), nil
}

// Profile summarizes an agent's collections, tokens and, for the owner,
// deleted assets.
func (s *CollectionService) Profile(ctx context.Context, owner, callerID string) (Profile, error) {
	agent, err := s.agents.Get(ctx, owner, false)
	if err != nil {
		return Profile{}, err
	}
	isOwner := callerID == agent.ID

	entries, err := s.index.ListOwnerEntries(ctx, owner)
	if err != nil {
		return Profile{}, storeFailure(err)
	}
	all := s.assets.loadEntries(ctx, entries)

	profile := Profile{
		Agent:       agent,
		Collections: make([]CollectionSummary, len(agent.Collections)),
		Tokens:      []models.Asset{},
	}
	for i, c := range agent.Collections {
		profile.Collections[i] = CollectionSummary{Slot: i, Name: c.Name, DefaultTitle: c.DefaultTitle}
	}
	for _, asset := range all {
		if asset.Owner != owner {
			continue
		}
		if asset.IsDeleted() {
			if isOwner {
				profile.Deleted = append(profile.Deleted, asset)
			}
			continue
		}
		if asset.IsToken() {
			profile.Tokens = append(profile.Tokens, asset)
		}
		if agent.HasSlot(asset.CollectionSlot) && (isOwner || asset.IsToken()) {
			profile.Collections[asset.CollectionSlot].Count++
		}
	}
	if !isOwner {
		profile.Agent.Credits = 0
	}
	return profile, nil
}

// visibleTo drops anything the caller may not see, including records whose
// owner or slot disagree with the index entry.
func visibleTo(assets []models.Asset, isOwner bool, owner string, slot int) []models.Asset {
	out := make([]models.Asset, 0, len(assets))
	for _, asset := range assets {
		if asset.Owner != owner || asset.CollectionSlot != slot {
			continue
		}
		if !isOwner && !asset.IsToken() {
			continue
		}
		out = append(out, asset)
	}
	return out
}
