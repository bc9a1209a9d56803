package store

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"artx/internal/blobstore"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute

	assetsDirName    = "assets"
	agentsDirName    = "agents"
	DefaultIndexFile = "index.db"
	assetRecordName  = "meta.json"
	agentRecordName  = "profile.json"
)

var (
	// ErrNotFound reports a missing asset or agent record.
	ErrNotFound = errors.New("record not found")
	// ErrCorrupt reports a record that exists but cannot be decoded.
	ErrCorrupt = errors.New("corrupt record")
)

// Store keeps asset and agent records as files under a data directory and
// the collection index in SQLite.
type Store struct {
	db       *sql.DB
	assets   *blobstore.LocalDirs
	agents   *blobstore.LocalDirs
	leaseTTL time.Duration
}

// Open prepares the data directory layout and opens the index database.
// An empty indexPath places the index at <dataDir>/index.db.
func Open(dataDir, indexPath string) (*Store, error) {
	dataDir = strings.TrimSpace(dataDir)
	if dataDir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	indexPath = ResolveIndexPath(dataDir, indexPath)

	assets, err := blobstore.NewLocalDirs(filepath.Join(dataDir, assetsDirName), assetsDirName)
	if err != nil {
		return nil, fmt.Errorf("open asset dirs: %w", err)
	}
	agents, err := blobstore.NewLocalDirs(filepath.Join(dataDir, agentsDirName), agentsDirName)
	if err != nil {
		return nil, fmt.Errorf("open agent dirs: %w", err)
	}

	db, err := openIndex(indexPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, assets: assets, agents: agents, leaseTTL: DefaultLeaseTTL}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the index database for maintenance commands.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ResolveIndexPath returns indexPath, or the default index location inside dataDir.
func ResolveIndexPath(dataDir, indexPath string) string {
	if strings.TrimSpace(indexPath) == "" {
		return filepath.Join(dataDir, DefaultIndexFile)
	}
	return indexPath
}

func openIndex(path string) (*sql.DB, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	configureDB(db)
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate index: %w", err)
	}
	return db, nil
}

func configureDB(db *sql.DB) {
	// A single connection serializes counter reservations across goroutines.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
}

// sqliteDSN carries pragmas in the DSN so every pooled connection gets them.
func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("index path is required")
	}
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	u := url.URL{Scheme: "file", Path: path, RawQuery: q.Encode()}
	return u.String(), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
