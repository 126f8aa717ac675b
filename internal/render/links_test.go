package render

import (
	"testing"

	"github.com/oxidoc/oxidoc/internal/clean"
	"github.com/oxidoc/oxidoc/internal/hir"
)

func strPtr(s string) *string { return &s }

func testCache() *Cache {
	c := NewCache()
	c.Paths[hir.DefID{Krate: 0, Index: 1}] = PathInfo{
		Path: []string{"mycrate", "MyStruct"},
		Type: clean.ItemTypeStruct,
	}
	c.Paths[hir.DefID{Krate: 0, Index: 2}] = PathInfo{
		Path: []string{"mycrate", "sub"},
		Type: clean.ItemTypeModule,
	}
	c.ExternalPaths[hir.DefID{Krate: 1, Index: 5}] = PathInfo{
		Path: []string{"dep", "Thing"},
		Type: clean.ItemTypeTrait,
	}
	c.ExternLocations[1] = CrateLocation{
		Name:     "dep",
		Location: LocationRemote,
		URL:      "https://docs.rs/dep/1.0/",
	}
	c.ExternalPaths[hir.DefID{Krate: 2, Index: 9}] = PathInfo{
		Path: []string{"mystery", "Hidden"},
		Type: clean.ItemTypeStruct,
	}
	c.ExternLocations[2] = CrateLocation{Name: "mystery", Location: LocationUnknown}
	return c
}

func TestCacheHref(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		did   hir.DefID
		depth int
		want  string
		ok    bool
	}{
		{"local_struct", hir.DefID{Krate: 0, Index: 1}, 0, "mycrate/struct.MyStruct.html", true},
		{"local_struct_nested_page", hir.DefID{Krate: 0, Index: 1}, 2, "../../mycrate/struct.MyStruct.html", true},
		{"local_module", hir.DefID{Krate: 0, Index: 2}, 0, "mycrate/sub/index.html", true},
		{"remote_extern", hir.DefID{Krate: 1, Index: 5}, 3, "https://docs.rs/dep/1.0/dep/trait.Thing.html", true},
		{"unknown_extern", hir.DefID{Krate: 2, Index: 9}, 0, "", false},
		{"unrecorded_def", hir.DefID{Krate: 0, Index: 99}, 0, "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cache := testCache()
			cache.Depth = tt.depth
			got, ok := cache.Href(tt.did)
			if ok != tt.ok || got != tt.want {
				t.Errorf("got %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLinks_ResolvedTarget(t *testing.T) {
	t.Parallel()
	cache := testCache()
	did := hir.DefID{Krate: 0, Index: 1}
	attrs := &clean.Attributes{Links: []clean.ItemLink{
		{Link: "`MyStruct`", LinkText: "MyStruct", Did: &did},
		{Link: "MyStruct::new", LinkText: "new", Did: &did, Fragment: strPtr("method.new")},
	}}

	got := Links(attrs, 0, cache)
	if len(got) != 2 {
		t.Fatalf("got %d links", len(got))
	}
	if got[0].Href != "mycrate/struct.MyStruct.html" {
		t.Errorf("href = %q", got[0].Href)
	}
	if got[0].OriginalText != "`MyStruct`" || got[0].NewText != "MyStruct" {
		t.Errorf("text = %q / %q", got[0].OriginalText, got[0].NewText)
	}
	if got[1].Href != "mycrate/struct.MyStruct.html#method.new" {
		t.Errorf("fragment href = %q", got[1].Href)
	}
}

func TestLinks_UnreachableTargetDropped(t *testing.T) {
	t.Parallel()
	cache := testCache()
	hidden := hir.DefID{Krate: 2, Index: 9}
	attrs := &clean.Attributes{Links: []clean.ItemLink{
		{Link: "Hidden", LinkText: "Hidden", Did: &hidden},
	}}
	if got := Links(attrs, 0, cache); len(got) != 0 {
		t.Errorf("links to crates with unknown locations must be dropped, got %v", got)
	}
}

func TestLinks_PrimitivePage(t *testing.T) {
	t.Parallel()

	t.Run("default_location", func(t *testing.T) {
		cache := testCache()
		attrs := &clean.Attributes{Links: []clean.ItemLink{
			{Link: "str", LinkText: "str", Fragment: strPtr("str")},
		}}
		got := Links(attrs, 5, cache)
		if len(got) != 1 || got[0].Href != "https://doc.rust-lang.org/std/primitive.str.html" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("nightly_channel", func(t *testing.T) {
		cache := testCache()
		cache.NightlyChannel = true
		attrs := &clean.Attributes{Links: []clean.ItemLink{
			{Link: "str", LinkText: "str", Fragment: strPtr("str")},
		}}
		got := Links(attrs, 5, cache)
		if got[0].Href != "https://doc.rust-lang.org/nightly/std/primitive.str.html" {
			t.Errorf("href = %q", got[0].Href)
		}
	})

	t.Run("local_crate", func(t *testing.T) {
		cache := testCache()
		cache.Depth = 2
		cache.ExternLocations[0] = CrateLocation{Name: "mycrate", Location: LocationLocal}
		attrs := &clean.Attributes{Links: []clean.ItemLink{
			{Link: "slice", LinkText: "slice", Fragment: strPtr("slice#method.len")},
		}}
		got := Links(attrs, 0, cache)
		if got[0].Href != "../../std/primitive.slice.html#method.len" {
			t.Errorf("href = %q", got[0].Href)
		}
	})

	t.Run("remote_crate", func(t *testing.T) {
		cache := testCache()
		attrs := &clean.Attributes{Links: []clean.ItemLink{
			{Link: "str", LinkText: "str", Fragment: strPtr("str")},
		}}
		got := Links(attrs, 1, cache)
		if got[0].Href != "https://docs.rs/dep/1.0/std/primitive.str.html" {
			t.Errorf("href = %q", got[0].Href)
		}
	})
}

func TestLinks_PanicsWithoutTargetOrFragment(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	attrs := &clean.Attributes{Links: []clean.ItemLink{
		{Link: "broken", LinkText: "broken"},
	}}
	Links(attrs, 0, testCache())
}
