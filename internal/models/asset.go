package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AssetKind separates editable assets from minted tokens.
type AssetKind string

const (
	AssetKindPlain AssetKind = "plain"
	AssetKindToken AssetKind = "token"
)

// DeletedSlot is the reserved collection slot for soft-deleted assets.
const DeletedSlot = -1

var (
	ErrFrozen          = errors.New("asset is minted; title and collection are frozen")
	ErrAlreadyMinted   = errors.New("asset is already minted")
	ErrInvalidEditions = errors.New("editions must be a positive integer")
)

// FileInfo describes the stored file. It never changes after upload.
type FileInfo struct {
	StoredName     string `json:"stored_name"`
	OriginalName   string `json:"original_name"`
	SizeBytes      int64  `json:"size_bytes"`
	ContentAddress string `json:"content_address"`
	RelativePath   string `json:"relative_path"`
}

// ImageInfo is supplied by the image inspector at upload time.
type ImageInfo struct {
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	ColorDepth int      `json:"color_depth"`
	Format     string   `json:"format"`
	Palette    []string `json:"palette,omitempty"`
}

// Mint records the one-way transition of an asset into a token.
type Mint struct {
	Editions int       `json:"editions"`
	MintedAt time.Time `json:"minted_at"`
}

// Asset is the metadata record stored next to an uploaded file.
//
// Kind is the discriminator: plain assets carry no Mint, tokens always do.
type Asset struct {
	Kind           AssetKind `json:"kind"`
	XID            string    `json:"xid"`
	Owner          string    `json:"owner"`
	Title          string    `json:"title"`
	CollectionSlot int       `json:"collection"`
	Created        time.Time `json:"created"`
	Updated        time.Time `json:"updated"`
	File           FileInfo  `json:"file"`
	Image          ImageInfo `json:"image"`
	Mint           *Mint     `json:"mint,omitempty"`
}

// AssetPatch lists the owner-editable fields. Nil means unchanged.
type AssetPatch struct {
	Title          *string `json:"title,omitempty"`
	CollectionSlot *int    `json:"collection,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p AssetPatch) Empty() bool {
	return p.Title == nil && p.CollectionSlot == nil
}

// IsToken reports whether the asset has been minted.
func (a Asset) IsToken() bool {
	return a.Kind == AssetKindToken
}

// IsDeleted reports whether the asset sits in the deleted slot.
func (a Asset) IsDeleted() bool {
	return a.CollectionSlot == DeletedSlot
}

// Validate checks the discriminated-union invariants of a record.
func (a Asset) Validate() error {
	if strings.TrimSpace(a.XID) == "" {
		return fmt.Errorf("asset xid is required")
	}
	if strings.TrimSpace(a.Owner) == "" {
		return fmt.Errorf("asset owner is required")
	}
	if strings.TrimSpace(a.File.ContentAddress) == "" {
		return fmt.Errorf("asset content address is required")
	}
	if a.CollectionSlot < DeletedSlot {
		return fmt.Errorf("invalid collection slot %d", a.CollectionSlot)
	}
	switch a.Kind {
	case AssetKindPlain:
		if a.Mint != nil {
			return fmt.Errorf("plain asset must not carry mint data")
		}
	case AssetKindToken:
		if a.Mint == nil {
			return fmt.Errorf("token asset is missing mint data")
		}
		if a.Mint.Editions < 1 {
			return ErrInvalidEditions
		}
		if a.IsDeleted() {
			return fmt.Errorf("token asset cannot be deleted")
		}
	default:
		return fmt.Errorf("invalid asset kind: %q", a.Kind)
	}
	return nil
}

// Apply mutates editable fields and refreshes Updated. Tokens reject any change.
func (a *Asset) Apply(patch AssetPatch, now time.Time) error {
	if a.IsToken() && !patch.Empty() {
		return ErrFrozen
	}
	if patch.Title != nil {
		a.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.CollectionSlot != nil {
		a.CollectionSlot = *patch.CollectionSlot
	}
	a.Updated = now
	return nil
}

// MintToken turns a plain asset into a token with the given edition count.
func (a *Asset) MintToken(editions int, now time.Time) error {
	if a.IsToken() {
		return ErrAlreadyMinted
	}
	if editions < 1 {
		return ErrInvalidEditions
	}
	if a.IsDeleted() {
		return fmt.Errorf("deleted asset cannot be minted")
	}
	a.Kind = AssetKindToken
	a.Mint = &Mint{Editions: editions, MintedAt: now}
	a.Updated = now
	return nil
}
