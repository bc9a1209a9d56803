package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"

	"artx/internal/service"
)

func TestFormatCLIError_KindGuidance(t *testing.T) {
	tests := []struct {
		name string
		err  error
		hint string
	}{
		{
			name: "unauthorized",
			err:  &service.Error{Kind: service.KindUnauthorized, Code: service.ErrCodeUnauthorized, Err: errors.New("not yours")},
			hint: "hint: only the owner may change this record; check --as or ARTX_AGENT.",
		},
		{
			name: "already minted",
			err:  &service.Error{Kind: service.KindConflict, Code: service.ErrCodeAlreadyMinted, Err: errors.New("minted")},
			hint: "hint: minting is one-way; the asset is already a token.",
		},
		{
			name: "insufficient credits",
			err:  &service.Error{Kind: service.KindValidation, Code: service.ErrCodeInsufficientCredit, Err: errors.New("broke")},
			hint: "hint: ask an operator to run: artx agent grant <id> <amount>",
		},
		{
			name: "wrapped io failure",
			err:  fmt.Errorf("upload: %w", &service.Error{Kind: service.KindIO, Code: service.ErrCodeStoreFailure, Err: errors.New("disk full")}),
			hint: "hint: storage failed; the upload may be partially applied, run: artx reconcile",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := formatCLIError(tt.err)
			if lines[0] != tt.err.Error() {
				t.Fatalf("expected error message first, got %v", lines)
			}
			if !containsLine(lines, tt.hint) {
				t.Fatalf("expected %q, got %v", tt.hint, lines)
			}
		})
	}
}

func TestFormatCLIError_PermissionGuidance(t *testing.T) {
	err := &fs.PathError{Op: "open", Path: "/data/assets", Err: os.ErrPermission}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: check permissions on the data directory (ARTX_DATA_DIR).") {
		t.Fatalf("expected permission guidance, got %v", lines)
	}
}

func TestFormatCLIError_PlainErrorHasNoHints(t *testing.T) {
	lines := formatCLIError(errors.New("boom"))
	if len(lines) != 1 || lines[0] != "boom" {
		t.Fatalf("expected only the message, got %v", lines)
	}
	if formatCLIError(nil) != nil {
		t.Fatal("expected nil lines for nil error")
	}
}

func containsLine(lines []string, expected string) bool {
	for _, line := range lines {
		if line == expected {
			return true
		}
	}
	return false
}
