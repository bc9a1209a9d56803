package main

import (
	"errors"
	"io/fs"

	"artx/internal/service"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	switch service.KindOf(err) {
	case service.KindUnauthorized:
		lines = append(lines, "hint: only the owner may change this record; check --as or ARTX_AGENT.")
	case service.KindNotFound:
		lines = append(lines, "hint: check the id and that ARTX_DATA_DIR points at the right repository.")
	case service.KindConflict:
		lines = append(lines, "hint: minting is one-way; the asset is already a token.")
	case service.KindValidation:
		switch service.CodeOf(err) {
		case service.ErrCodeInsufficientCredit:
			lines = append(lines, "hint: ask an operator to run: artx agent grant <id> <amount>")
		case service.ErrCodeFrozen:
			lines = append(lines, "hint: minted assets cannot be edited, moved or deleted.")
		case service.ErrCodeImageTooLarge:
			lines = append(lines, "hint: raise the limit with: artx config set uploads.max_pixels <n>")
		case service.ErrCodeCollectionsShrunk, service.ErrCodeCollectionsMoved:
			lines = append(lines, "hint: collections can be renamed or added, never removed or reordered.")
		}
	case service.KindIO:
		lines = append(lines, "hint: storage failed; the upload may be partially applied, run: artx reconcile")
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && errors.Is(err, fs.ErrPermission) {
		lines = append(lines, "hint: check permissions on the data directory (ARTX_DATA_DIR).")
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
