package cas

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestPutGet_RoundTrip(t *testing.T) {
	t.Parallel()
	store := At(t.TempDir())

	page := "# struct serde::de::Deserializer\n\nA data format that can deserialize values.\n"
	sum, err := store.Put(page)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum) != 64 {
		t.Fatalf("hash %q is not a sha256 hex digest", sum)
	}
	if !store.Has(sum) {
		t.Error("Has must report a stored blob")
	}

	got, err := store.Get(sum)
	if err != nil {
		t.Fatal(err)
	}
	if got != page {
		t.Errorf("round-trip changed the page: got %q", got)
	}
}

func TestPut_SharesIdenticalPages(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := At(dir)

	page := "# fn tokio::spawn\n\nSpawns a task.\n"
	first, err := store.Put(page)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Put(page)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("identical pages got different hashes: %s vs %s", first, second)
	}
	if n := countBlobs(t, dir); n != 1 {
		t.Errorf("expected one blob on disk, found %d", n)
	}
}

func TestPut_DistinctPages(t *testing.T) {
	t.Parallel()
	store := At(t.TempDir())

	a, err := store.Put("# module serde\n")
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.Put("# module rand\n")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("distinct pages must hash differently")
	}
}

func TestGet_Missing(t *testing.T) {
	t.Parallel()
	store := At(t.TempDir())
	_, err := store.Get("0000000000000000000000000000000000000000000000000000000000000000")
	if err == nil {
		t.Fatal("expected an error for an absent blob")
	}
}

func TestGet_MalformedHash(t *testing.T) {
	t.Parallel()
	store := At(t.TempDir())
	if _, err := store.Get("xy"); err == nil {
		t.Fatal("expected an error for a hash too short to shard")
	}
	if store.Has("xy") {
		t.Error("Has must reject a hash too short to shard")
	}
}

func TestGet_CorruptBlob(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := At(dir)

	sum, err := store.Put("# trait std::fmt::Debug\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.blobPath(sum), []byte("not zstd"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(sum); err == nil {
		t.Fatal("expected an error for a corrupt blob")
	}
}

func countBlobs(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return n
}
