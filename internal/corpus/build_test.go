package corpus

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/oxidoc/oxidoc/internal/clean"
	"github.com/oxidoc/oxidoc/internal/config"
)

func rawInner(t *testing.T, inner snapInner) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(inner)
	if err != nil {
		t.Fatalf("marshaling inner: %v", err)
	}
	return data
}

func strPtr(s string) *string { return &s }

func docAttr(text string) SnapAttr {
	return SnapAttr{Style: "outer", DocComment: strPtr(text)}
}

// miniSnapshot builds a small crate:
//
//	pub struct Point { pub x: i32, y: i32 }
//	pub enum Shape { Circle, Rect(i32, i32) }
//	pub fn area(s: &Shape) -> i32
//	fn helper()                     // private
//	pub use hidden::Widget;         // inlined
//	pub use serde::de;              // cross-crate re-export
func miniSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	return &Snapshot{
		Root:          0,
		CrateName:     "mini",
		CrateVersion:  strPtr("1.2.3"),
		FormatVersion: supportedFormatVersion,
		Index: map[string]SnapItem{
			"0": {
				ID: 0, Name: strPtr("mini"), Visibility: "public",
				Attrs: []SnapAttr{{Style: "inner", DocComment: strPtr("A tiny crate.")}},
				Inner: rawInner(t, snapInner{Kind: "mod", Items: []int{1, 4, 7, 8, 9, 11}}),
			},
			"1": {
				ID: 1, Name: strPtr("Point"), Visibility: "public",
				Attrs: []SnapAttr{
					docAttr("A point."),
					{Style: "outer", Meta: &SnapMeta{Name: "doc", Kind: "list", List: []SnapMeta{
						{Name: "alias", Kind: "name_value", Value: "coord"},
					}}},
				},
				Inner: rawInner(t, snapInner{Kind: "struct", Fields: []int{2, 3}}),
			},
			"2": {
				ID: 2, Name: strPtr("x"), Visibility: "public",
				Attrs: []SnapAttr{docAttr("Horizontal position.")},
				Inner: rawInner(t, snapInner{Kind: "struct_field", Type: &SnapType{Kind: "primitive", Name: "i32"}}),
			},
			"3": {
				ID: 3, Name: strPtr("y"), Visibility: "default",
				Inner: rawInner(t, snapInner{Kind: "struct_field", Type: &SnapType{Kind: "primitive", Name: "i32"}}),
			},
			"4": {
				ID: 4, Name: strPtr("Shape"), Visibility: "public",
				Inner: rawInner(t, snapInner{Kind: "enum", Variants: []int{5, 6}}),
			},
			"5": {
				ID: 5, Name: strPtr("Circle"), Visibility: "public",
				Inner: rawInner(t, snapInner{Kind: "variant", VariantKind: "clike"}),
			},
			"6": {
				ID: 6, Name: strPtr("Rect"), Visibility: "public",
				Inner: rawInner(t, snapInner{Kind: "variant", VariantKind: "tuple", Types: []SnapType{
					{Kind: "primitive", Name: "i32"},
					{Kind: "primitive", Name: "i32"},
				}}),
			},
			"7": {
				ID: 7, Name: strPtr("area"), Visibility: "public",
				Attrs: []SnapAttr{docAttr("Computes the area.")},
				Inner: rawInner(t, snapInner{
					Kind: "function",
					Inputs: []SnapArg{{Name: "s", Type: SnapType{
						Kind: "borrowed_ref",
						Elem: &SnapType{Kind: "resolved_path", Path: []string{"mini", "Shape"}, ID: 4},
					}}},
					Output: &SnapType{Kind: "primitive", Name: "i32"},
				}),
			},
			"8": {
				ID: 8, Name: strPtr("helper"), Visibility: "default",
				Inner: rawInner(t, snapInner{Kind: "function"}),
			},
			"9": {
				ID: 9, Name: strPtr("Widget"), Visibility: "public",
				Attrs: []SnapAttr{docAttr("Re-exported for convenience.")},
				Inner: rawInner(t, snapInner{
					Kind: "import", Inline: true,
					ImportPath: []string{"hidden", "Widget"},
					ImportID:   intPtr(10),
				}),
			},
			"10": {
				ID: 10, Name: strPtr("Widget"), Visibility: "default",
				Attrs: []SnapAttr{docAttr("A widget.")},
				Inner: rawInner(t, snapInner{Kind: "struct"}),
			},
			"11": {
				ID: 11, Name: strPtr("de"), Visibility: "public",
				Inner: rawInner(t, snapInner{
					Kind:        "import",
					ImportPath:  []string{"serde", "de"},
					ImportID:    intPtr(1),
					ImportCrate: 1,
				}),
			},
		},
		Paths: map[string]SnapSummary{
			"1": {CrateID: 0, Path: []string{"mini", "Point"}, Kind: "struct"},
			"4": {CrateID: 0, Path: []string{"mini", "Shape"}, Kind: "enum"},
			"7": {CrateID: 0, Path: []string{"mini", "area"}, Kind: "function"},
		},
		ExternalCrates: map[string]SnapExtern{
			"1": {Name: "serde", HTMLRootURL: "https://docs.rs/serde/"},
		},
		Stability: map[string]SnapStability{
			"1": {Level: "stable", Feature: "points", Since: "1.0.0"},
		},
		Deprecation: map[string]SnapDeprecate{
			"7": {Since: "1.1.0", Note: "use perimeter instead"},
		},
		MaxDefIndex: map[string]uint32{"0": 100},
	}
}

func intPtr(i int) *int { return &i }

func buildMini(t *testing.T) *Build {
	t.Helper()
	b, err := BuildCrate(miniSnapshot(t), nil, false)
	if err != nil {
		t.Fatalf("BuildCrate: %v", err)
	}
	return b
}

func findItem(t *testing.T, items []clean.Item, name string) *clean.Item {
	t.Helper()
	for i := range items {
		if items[i].Name != nil && *items[i].Name == name {
			return &items[i]
		}
	}
	t.Fatalf("item %q not found", name)
	return nil
}

func TestBuildCrate_Tree(t *testing.T) {
	b := buildMini(t)

	if b.CrateName != "mini" || b.Version != "1.2.3" {
		t.Fatalf("got crate %s@%s", b.CrateName, b.Version)
	}
	root := b.Crate.Module
	if !root.IsCrate() {
		t.Fatal("root module not marked as crate")
	}
	items := clean.InnerItems(root.Kind)

	point := findItem(t, items, "Point")
	if !point.IsStruct() {
		t.Fatalf("Point has type %v", point.ItemType())
	}
	fields := clean.InnerItems(point.Kind)
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(fields))
	}

	shape := findItem(t, items, "Shape")
	variants := clean.InnerItems(shape.Kind)
	if len(variants) != 2 {
		t.Fatalf("got %d variants, want 2", len(variants))
	}
	rect := findItem(t, variants, "Rect")
	tv, ok := rect.Kind.(*clean.VariantItem)
	if !ok {
		t.Fatalf("Rect kind is %T", rect.Kind)
	}
	if tuple, ok := tv.Variant.(clean.TupleVariant); !ok || len(tuple.Types) != 2 {
		t.Fatalf("Rect variant is %T", tv.Variant)
	}

	area := findItem(t, items, "area")
	fn, ok := area.Kind.(*clean.FunctionItem)
	if !ok {
		t.Fatalf("area kind is %T", area.Kind)
	}
	if got := len(fn.Function.Decl.Inputs.Values); got != 1 {
		t.Fatalf("area has %d inputs, want 1", got)
	}
	ref, ok := fn.Function.Decl.Inputs.Values[0].Type.(*clean.BorrowedRef)
	if !ok {
		t.Fatalf("area input type is %T", fn.Function.Decl.Inputs.Values[0].Type)
	}
	if _, ok := ref.Elem.(*clean.ResolvedPath); !ok {
		t.Fatalf("area input element is %T", ref.Elem)
	}
}

func TestBuildCrate_InlinedReexport(t *testing.T) {
	b := buildMini(t)
	items := clean.InnerItems(b.Crate.Module.Kind)

	widget := findItem(t, items, "Widget")
	if !widget.IsStruct() {
		t.Fatalf("inlined re-export has type %v, want struct", widget.ItemType())
	}
	docs, ok := widget.CollapsedDocValue()
	if !ok {
		t.Fatal("inlined re-export has no docs")
	}
	// the use site's docs come first, the target's after
	useIdx := strings.Index(docs, "Re-exported for convenience.")
	targetIdx := strings.Index(docs, "A widget.")
	if useIdx < 0 || targetIdx < 0 || useIdx > targetIdx {
		t.Fatalf("merged docs out of order: %q", docs)
	}
}

func TestBuildCrate_StabilityAndDeprecation(t *testing.T) {
	b := buildMini(t)
	items := clean.InnerItems(b.Crate.Module.Kind)

	point := findItem(t, items, "Point")
	since, ok := point.StableSince(b.Cx)
	if !ok || since != "1.0.0" {
		t.Fatalf("got StableSince %q/%v, want 1.0.0", since, ok)
	}

	area := findItem(t, items, "area")
	dep := area.Deprecation(b.Cx)
	if dep == nil || dep.Note != "use perimeter instead" {
		t.Fatalf("got deprecation %+v", dep)
	}
}

func TestStripPrivate(t *testing.T) {
	b := buildMini(t)
	StripPrivate(b.Crate)
	items := clean.InnerItems(b.Crate.Module.Kind)

	for i := range items {
		if items[i].Name != nil && *items[i].Name == "helper" {
			t.Fatal("private function survived stripping")
		}
	}

	point := findItem(t, items, "Point")
	st := point.Kind.(*clean.StructItem)
	if !st.Struct.FieldsStripped {
		t.Fatal("FieldsStripped not set after stripping a private field")
	}
	y := findItem(t, st.Struct.Fields, "y")
	if _, ok := y.Kind.(*clean.StrippedItem); !ok {
		t.Fatalf("private field kind is %T, want stripped wrapper", y.Kind)
	}
	x := findItem(t, st.Struct.Fields, "x")
	if x.IsStripped() {
		t.Fatal("public field was stripped")
	}
}

func TestDocs_Flatten(t *testing.T) {
	b := buildMini(t)
	StripPrivate(b.Crate)
	docs := b.Docs()

	byPath := make(map[string]ParsedDoc, len(docs))
	for _, d := range docs {
		byPath[d.Path] = d
	}

	crate, ok := byPath["mini"]
	if !ok {
		t.Fatal("no page for the crate root")
	}
	if crate.Kind != "mod" {
		t.Fatalf("crate root kind %q", crate.Kind)
	}
	if !strings.Contains(crate.Docs, "A tiny crate.") {
		t.Fatalf("crate docs missing inner doc: %q", crate.Docs)
	}

	point, ok := byPath["mini::Point"]
	if !ok {
		t.Fatal("no page for mini::Point")
	}
	if point.Stability != "stable 1.0.0" {
		t.Fatalf("got stability %q", point.Stability)
	}
	if len(point.Aliases) != 1 || point.Aliases[0] != "coord" {
		t.Fatalf("got aliases %v", point.Aliases)
	}
	fields, ok := point.Fragments["fields"]
	if !ok {
		t.Fatal("Point has no fields fragment")
	}
	if !strings.Contains(fields, "`x: i32`") {
		t.Fatalf("fields fragment missing public field: %q", fields)
	}
	if strings.Contains(fields, "`y: i32`") {
		t.Fatalf("fields fragment leaks stripped field: %q", fields)
	}
	if !strings.Contains(fields, "private") {
		t.Fatalf("fields fragment missing stripped-fields note: %q", fields)
	}

	area, ok := byPath["mini::area"]
	if !ok {
		t.Fatal("no page for mini::area")
	}
	if !area.Deprecated {
		t.Fatal("area not marked deprecated")
	}
	if !strings.Contains(area.Docs, "fn area(s: &mini::Shape) -> i32") {
		t.Fatalf("area docs missing signature: %q", area.Docs)
	}

	shape := byPath["mini::Shape"]
	variants, ok := shape.Fragments["variants"]
	if !ok {
		t.Fatal("Shape has no variants fragment")
	}
	if !strings.Contains(variants, "`Rect(i32, i32)`") {
		t.Fatalf("variants fragment: %q", variants)
	}
}

func TestReexports(t *testing.T) {
	b := buildMini(t)
	res := b.Reexports()
	if len(res) != 1 {
		t.Fatalf("got %d re-exports, want 1", len(res))
	}
	re := res[0]
	if re.LocalPrefix != "mini::de" || re.SourceCrate != "serde" || re.SourcePrefix != "serde::de" {
		t.Fatalf("got %+v", re)
	}
}

func TestLoadAll_PropagatesVersionConfig(t *testing.T) {
	// LoadAll goes to the network; exercise only the config plumbing types here.
	roots := map[string]config.DocRootConfig{
		"serde": {Policy: "remote", URL: "https://docs.rs/serde/"},
	}
	b, err := BuildCrate(miniSnapshot(t), roots, true)
	if err != nil {
		t.Fatalf("BuildCrate: %v", err)
	}
	if !b.Cache.NightlyChannel {
		t.Fatal("nightly channel not propagated to the cache")
	}
	loc, ok := b.Cache.ExternLocations[1]
	if !ok || loc.URL != "https://docs.rs/serde/" {
		t.Fatalf("extern location %+v", loc)
	}
}

func TestBuildCrate_RejectsNewerFormat(t *testing.T) {
	snap := miniSnapshot(t)
	snap.FormatVersion = supportedFormatVersion + 1
	if _, err := BuildCrate(snap, nil, false); err == nil {
		t.Fatal("expected an error for a newer snapshot format")
	}
}
