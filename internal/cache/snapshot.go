package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	ioutils "github.com/handiism/catalog-downloader/internal/io"
	"github.com/handiism/catalog-downloader/internal/model"
)

// SnapshotVersion is the only snapshot layout this package reads and writes.
const SnapshotVersion = 1

// Process exit codes for snapshot failures.
const (
	exitBase            = 1
	ExitNoSnapshot      = exitBase + 1
	ExitInvalidSnapshot = exitBase + 2
)

var (
	// ErrNoSnapshot is returned by Load when the snapshot file is absent.
	ErrNoSnapshot = errors.New("snapshot not found")

	// ErrInvalidSnapshot is returned when a snapshot exists but cannot be
	// decoded into a catalog.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// FetchFunc acquires a fresh catalog from the remote.
type FetchFunc func(ctx context.Context) (model.Catalog, error)

type snapshot struct {
	Version int           `json:"version"`
	Records model.Catalog `json:"records"`
}

// ExitCode maps a snapshot error to its process exit code, or 1 for any
// other non-nil error.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNoSnapshot):
		return ExitNoSnapshot
	case errors.Is(err, ErrInvalidSnapshot):
		return ExitInvalidSnapshot
	default:
		return exitBase
	}
}

// Exists reports whether a snapshot is present at path.
func Exists(path string) bool {
	return ioutils.FileExists(path)
}

// Load reads the snapshot at path.
//
// An empty catalog is valid. A missing file wraps ErrNoSnapshot; anything
// else that prevents decoding wraps ErrInvalidSnapshot.
func Load(path string) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, path, err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrInvalidSnapshot, path, snap.Version)
	}
	if snap.Records == nil {
		return nil, fmt.Errorf("%w: %s: missing records", ErrInvalidSnapshot, path)
	}
	for i, rec := range snap.Records {
		if rec == nil {
			return nil, fmt.Errorf("%w: %s: null record at index %d", ErrInvalidSnapshot, path, i)
		}
	}

	return snap.Records, nil
}

// Save writes catalog to path atomically. The previous snapshot, if any, is
// replaced only once the new one is fully written.
func Save(path string, catalog model.Catalog) error {
	if catalog == nil {
		catalog = model.Catalog{}
	}

	data, err := json.Marshal(snapshot{Version: SnapshotVersion, Records: catalog})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := ioutils.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// LoadOrFetch returns the snapshot at path when it exists. Otherwise it calls
// fetch, persists the result to path and returns it.
//
// The boolean reports whether the catalog came from the snapshot. A present
// but unreadable snapshot is an error; fetch is not called in that case.
func LoadOrFetch(ctx context.Context, path string, fetch FetchFunc) (model.Catalog, bool, error) {
	if Exists(path) {
		catalog, err := Load(path)
		if err != nil {
			return nil, true, err
		}
		return catalog, true, nil
	}

	catalog, err := fetch(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := Save(path, catalog); err != nil {
		return nil, false, err
	}
	return catalog, false, nil
}
