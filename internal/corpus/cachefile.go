package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/oxidoc/oxidoc/internal/config"
)

func snapshotCachePath(name, version string) string {
	return filepath.Join(config.SnapshotCacheDir(), name+"_"+version+".json.zst")
}

// SaveSnapshotCache compresses and saves raw snapshot bytes to disk.
func SaveSnapshotCache(data []byte, name, version string) error {
	dir := config.SnapshotCacheDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot cache dir: %w", err)
	}

	f, err := os.Create(snapshotCachePath(name, version))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing compressed data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// LoadSnapshotCache loads and decompresses a cached snapshot from disk.
func LoadSnapshotCache(name, version string) (*Snapshot, error) {
	f, err := os.Open(snapshotCachePath(name, version))
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot JSON: %w", err)
	}
	return &snap, nil
}

// HasSnapshotCache checks whether a cached snapshot exists on disk.
func HasSnapshotCache(name, version string) bool {
	_, err := os.Stat(snapshotCachePath(name, version))
	return err == nil
}
