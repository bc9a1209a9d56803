package blobstore

import (
	"context"
	"time"
)

// KeyInfo summarizes one key directory.
type KeyInfo struct {
	Key       string
	Files     []string
	SizeBytes int64
	ModTime   time.Time
}

// Has reports whether the directory holds a file called name.
func (k KeyInfo) Has(name string) bool {
	for _, f := range k.Files {
		if f == name {
			return true
		}
	}
	return false
}

// DirStore keeps one directory per key and writes files into it atomically.
type DirStore interface {
	WriteFile(ctx context.Context, key, name string, data []byte) (string, error)
	ReadFile(ctx context.Context, key, name string) ([]byte, error)
	ListKeys(ctx context.Context) ([]string, error)
	Stat(ctx context.Context, key string) (KeyInfo, error)
	RemoveKey(ctx context.Context, key string) error
}
