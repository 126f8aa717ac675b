package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheBase_XDGSet(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	got := cacheBase()
	want := filepath.Join("/custom/cache", "oxidoc")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_HomeDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	got := cacheBase()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	want := filepath.Join(home, ".cache", "oxidoc")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_TmpFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")
	got := cacheBase()
	// Should use os.TempDir() when HOME is unset
	if !strings.Contains(got, "oxidoc") {
		t.Errorf("expected oxidoc in path, got %q", got)
	}
}

func TestValidateDocRoot(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		root    DocRootConfig
		wantErr bool
	}{
		{"remote with url", DocRootConfig{Policy: "remote", URL: "https://docs.rs/serde/"}, false},
		{"remote without url", DocRootConfig{Policy: "remote"}, true},
		{"bare string shorthand", DocRootConfig{Policy: "", URL: "https://docs.rs/serde/"}, false},
		{"local", DocRootConfig{Policy: "local"}, false},
		{"unknown", DocRootConfig{Policy: "unknown"}, false},
		{"bogus policy", DocRootConfig{Policy: "mirror"}, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := validateDocRoot("serde", tc.root)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateDocRoot() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
