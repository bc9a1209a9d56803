package service

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"artx/internal/blobstore"
	"artx/internal/store"
)

const (
	titleSequenceToken = "%N%"
	maxTitleLength     = 200
	maxNameLength      = 100
	bytesPerMiB        = 1 << 20
)

func validateXID(xid string) error {
	if !store.ValidXID(xid) {
		return validationCode(fmt.Errorf("invalid asset id: %q", xid), ErrCodeInvalidID)
	}
	return nil
}

func validateAgentID(id string) error {
	if strings.TrimSpace(id) == "" {
		return validationCode(fmt.Errorf("agent id is required"), ErrCodeMissingRequired)
	}
	if !blobstore.ValidKey(id) {
		return validationCode(fmt.Errorf("invalid agent id: %q", id), ErrCodeInvalidID)
	}
	return nil
}

func normalizeTitle(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", validationCode(fmt.Errorf("title is required"), ErrCodeMissingRequired)
	}
	if len([]rune(value)) > maxTitleLength {
		return "", validation(fmt.Errorf("title exceeds %d characters", maxTitleLength))
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return "", validation(fmt.Errorf("title must not contain control characters"))
		}
	}
	return value, nil
}

func normalizeName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", validationCode(fmt.Errorf("%s is required", field), ErrCodeMissingRequired)
	}
	if len([]rune(value)) > maxNameLength {
		return "", validation(fmt.Errorf("%s exceeds %d characters", field, maxNameLength))
	}
	return value, nil
}

// renderTitle substitutes the sequence number into a collection default title.
func renderTitle(template string, seq int) string {
	return strings.ReplaceAll(template, titleSequenceToken, strconv.Itoa(seq))
}

// titleFromName derives a fallback title from an uploaded file name.
func titleFromName(originalName string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(originalName), `\`, "/"))
	if base == "." || base == "/" {
		return "Untitled"
	}
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		return "Untitled"
	}
	if len([]rune(stem)) > maxTitleLength {
		stem = string([]rune(stem)[:maxTitleLength])
	}
	return stem
}

// sanitizeOriginalName keeps only the base name of what the uploader sent.
func sanitizeOriginalName(originalName string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(originalName), `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func storedFileName(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return "asset.bin"
	}
	return "asset." + format
}

// uploadCost prices one stored file: a flat fee plus a per-started-MiB fee.
func uploadCost(sizeBytes, perUpload, perMiB int64) int64 {
	mib := (sizeBytes + bytesPerMiB - 1) / bytesPerMiB
	return perUpload + mib*perMiB
}
