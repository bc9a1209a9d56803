package main

import (
	"strings"
	"testing"
)

func TestRequireXIDs(t *testing.T) {
	const valid = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

	tests := []struct {
		name    string
		min     int
		max     int
		args    []string
		wantErr string
	}{
		{name: "single ok", min: 1, max: 1, args: []string{valid}},
		{name: "many ok", min: 1, max: 0, args: []string{valid, valid}},
		{name: "missing", min: 1, max: 1, args: nil, wantErr: "xid is required"},
		{name: "too many", min: 1, max: 1, args: []string{valid, valid}, wantErr: "exactly one xid"},
		{name: "malformed", min: 1, max: 0, args: []string{valid, "not-an-xid"}, wantErr: "invalid xid"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := requireXIDs(tc.min, tc.max)(nil, tc.args)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
