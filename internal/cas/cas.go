// Package cas stores flattened documentation pages as content-addressed
// zstd blobs, so identical pages shared between crate versions occupy one
// file.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/oxidoc/oxidoc/internal/config"
)

// Store is one content-addressed blob directory. Blobs are keyed by the
// SHA-256 of their uncompressed text and sharded on the first hash byte.
type Store struct {
	dir string
}

// At opens a store rooted at dir. The directory is created lazily by the
// first Put.
func At(dir string) *Store {
	return &Store{dir: dir}
}

// Default opens the store in the user's cache directory.
func Default() *Store {
	return At(config.CASDir())
}

func (s *Store) blobPath(sum string) string {
	return filepath.Join(s.dir, sum[:2], sum[2:]+".md.zst")
}

// Put stores one page of markdown and returns its content hash. A page
// already in the store is left untouched.
func (s *Store) Put(text string) (string, error) {
	raw := sha256.Sum256([]byte(text))
	sum := hex.EncodeToString(raw[:])
	dest := s.blobPath(sum)
	if _, err := os.Stat(dest); err == nil {
		return sum, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("creating blob directory: %w", err)
	}

	// stage under a temp name so a crash never leaves a truncated blob
	// behind a valid hash
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".put-*")
	if err != nil {
		return "", fmt.Errorf("staging blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("compressing blob: %w", err)
	}
	if _, err := io.WriteString(enc, text); err != nil {
		enc.Close()
		tmp.Close()
		return "", fmt.Errorf("compressing blob: %w", err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("compressing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("staging blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("storing blob %s: %w", sum, err)
	}
	return sum, nil
}

// Has reports whether a blob with the given hash is present.
func (s *Store) Has(sum string) bool {
	if len(sum) < 3 {
		return false
	}
	_, err := os.Stat(s.blobPath(sum))
	return err == nil
}

// Get returns the uncompressed text of a stored page.
func (s *Store) Get(sum string) (string, error) {
	if len(sum) < 3 {
		return "", fmt.Errorf("malformed content hash %q", sum)
	}
	f, err := os.Open(s.blobPath(sum))
	if err != nil {
		return "", fmt.Errorf("opening blob %s: %w", sum, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("decompressing blob %s: %w", sum, err)
	}
	defer dec.Close()

	text, err := io.ReadAll(dec)
	if err != nil {
		return "", fmt.Errorf("decompressing blob %s: %w", sum, err)
	}
	return string(text), nil
}
