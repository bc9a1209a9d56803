package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const tmpDirName = ".tmp"

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:@+=-]{0,254}$`)

// LocalDirs stores key directories under a local root.
type LocalDirs struct {
	root   string
	prefix string
}

var _ DirStore = (*LocalDirs)(nil)

// NewLocalDirs creates a store rooted at root. prefix is prepended to the
// relative paths it reports, e.g. "assets" yields "assets/<key>/<name>".
func NewLocalDirs(root, prefix string) (*LocalDirs, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local dir store root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, tmpDirName), 0o755); err != nil {
		return nil, err
	}
	return &LocalDirs{root: abs, prefix: strings.Trim(prefix, "/")}, nil
}

// Root returns the absolute store root.
func (d *LocalDirs) Root() string {
	if d == nil {
		return ""
	}
	return d.root
}

// WriteFile writes data to key/name through a temp file and rename, so readers
// never observe a partially written file. It returns the relative path.
func (d *LocalDirs) WriteFile(ctx context.Context, key, name string, data []byte) (string, error) {
	if d == nil {
		return "", fmt.Errorf("dir store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, err := d.filePath(key, name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Join(d.root, tmpDirName), "put-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		cleanup()
		return "", err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		cleanup()
		return "", err
	}
	return d.relativePath(key, name), nil
}

// ReadFile returns the content of key/name. Missing files wrap os.ErrNotExist.
func (d *LocalDirs) ReadFile(ctx context.Context, key, name string) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("dir store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.filePath(key, name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// ListKeys returns all key directories sorted by name.
func (d *LocalDirs) ListKeys(ctx context.Context) ([]string, error) {
	if d == nil {
		return nil, fmt.Errorf("dir store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		keys = append(keys, entry.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// Stat lists the files of one key directory.
func (d *LocalDirs) Stat(ctx context.Context, key string) (KeyInfo, error) {
	var zero KeyInfo
	if d == nil {
		return zero, fmt.Errorf("dir store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	dir, err := d.keyPath(key)
	if err != nil {
		return zero, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return zero, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return zero, err
	}
	out := KeyInfo{Key: key, ModTime: info.ModTime()}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return zero, err
		}
		out.Files = append(out.Files, entry.Name())
		out.SizeBytes += fi.Size()
		if fi.ModTime().After(out.ModTime) {
			out.ModTime = fi.ModTime()
		}
	}
	return out, nil
}

// RemoveKey deletes a key directory. Missing keys are ignored.
func (d *LocalDirs) RemoveKey(ctx context.Context, key string) error {
	if d == nil {
		return fmt.Errorf("dir store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := d.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ValidKey reports whether s can be used as a key or file name.
func ValidKey(s string) bool {
	return segmentPattern.MatchString(s) && !strings.Contains(s, "..")
}

func (d *LocalDirs) keyPath(key string) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(d.root, key), nil
}

func (d *LocalDirs) filePath(key, name string) (string, error) {
	dir, err := d.keyPath(key)
	if err != nil {
		return "", err
	}
	if !ValidKey(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(dir, name), nil
}

func (d *LocalDirs) relativePath(key, name string) string {
	if d.prefix == "" {
		return path.Join(key, name)
	}
	return path.Join(d.prefix, key, name)
}
