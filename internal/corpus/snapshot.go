// Package corpus loads compiler snapshots and runs the clean pass over
// them, producing the documentation tree and the flattened per-item docs
// the index stores.
package corpus

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/oxidoc/oxidoc/internal/hir"
)

// Snapshot is the top-level structure of a compiler snapshot: the frozen
// view of one crate's item tree, attributes, and stability tables that the
// compiler emits for documentation.
type Snapshot struct {
	Root           int                      `json:"root"`
	CrateName      string                   `json:"crate_name"`
	CrateVersion   *string                  `json:"crate_version"`
	Index          map[string]SnapItem      `json:"index"`
	Paths          map[string]SnapSummary   `json:"paths"`
	ExternalCrates map[string]SnapExtern    `json:"external_crates"`
	Stability      map[string]SnapStability `json:"stability"`
	Deprecation    map[string]SnapDeprecate `json:"deprecation"`
	LangItems      map[string]int           `json:"lang_items"`
	// MaxDefIndex records, per crate number, the first index past the real
	// definitions; anything at or above it was synthesized.
	MaxDefIndex   map[string]uint32 `json:"max_def_index"`
	FormatVersion int               `json:"format_version"`
}

// SnapExtern identifies a dependency crate.
type SnapExtern struct {
	Name        string `json:"name"`
	HTMLRootURL string `json:"html_root_url"`
}

// SnapItem is a single definition in the snapshot index.
type SnapItem struct {
	ID         int             `json:"id"`
	CrateID    int             `json:"crate_id"`
	Name       *string         `json:"name"`
	Visibility string          `json:"visibility"` // "public", "crate", "restricted", "default"
	Span       *SnapSpan       `json:"span"`
	BodySpan   *SnapSpan       `json:"body_span"`
	Attrs      []SnapAttr      `json:"attrs"`
	Links      []SnapLink      `json:"links"`
	Inner      json.RawMessage `json:"inner"`
}

// SnapLink is one resolved intra-doc link. Exactly one of ID or Fragment is
// set for definition links and primitive links respectively; both may be set
// when a definition link targets an anchor on the page.
type SnapLink struct {
	Text     string  `json:"text"`      // what the author wrote
	LinkText string  `json:"link_text"` // display form
	ID       *int    `json:"id,omitempty"`
	CrateID  int     `json:"crate_id,omitempty"`
	Fragment *string `json:"fragment,omitempty"`
}

// SnapSummary provides the path and kind for an item.
type SnapSummary struct {
	CrateID int      `json:"crate_id"`
	Path    []string `json:"path"`
	Kind    string   `json:"kind"`
}

// SnapSpan is a recorded source range.
type SnapSpan struct {
	Filename string `json:"filename"`
	Begin    [2]int `json:"begin"` // line, column
	End      [2]int `json:"end"`
}

// SnapAttr is one attribute occurrence, pre-parsed by the compiler.
type SnapAttr struct {
	Style      string    `json:"style"` // "outer" or "inner"
	DocComment *string   `json:"doc_comment"`
	Meta       *SnapMeta `json:"meta"`
	Span       *SnapSpan `json:"span"`
}

// SnapMeta is a parsed meta item tree.
type SnapMeta struct {
	Name  string     `json:"name"`
	Kind  string     `json:"kind"` // "word", "list", "name_value"
	Value string     `json:"value,omitempty"`
	List  []SnapMeta `json:"list,omitempty"`
	Lit   string     `json:"lit,omitempty"` // bare literal in list position
}

// SnapStability mirrors a compiler stability record.
type SnapStability struct {
	Level      string  `json:"level"` // "stable" or "unstable"
	Feature    string  `json:"feature"`
	Since      string  `json:"since,omitempty"`
	ConstLevel *string `json:"const_level,omitempty"`
	ConstSince string  `json:"const_since,omitempty"`
}

// SnapDeprecate mirrors a compiler deprecation record.
type SnapDeprecate struct {
	Since      string `json:"since"`
	Note       string `json:"note"`
	Suggestion string `json:"suggestion"`
}

// DecodeSnapshot parses snapshot JSON bytes.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot JSON: %w", err)
	}
	return &snap, nil
}

// DefID assembles the stable identifier of an index entry. The local crate
// is always number zero in a snapshot.
func (s *Snapshot) DefID(id int, crateID int) hir.DefID {
	return hir.DefID{Krate: hir.CrateNum(crateID), Index: hir.DefIndex(id)}
}

// Item looks up an index entry by numeric ID.
func (s *Snapshot) Item(id int) (*SnapItem, bool) {
	it, ok := s.Index[strconv.Itoa(id)]
	if !ok {
		return nil, false
	}
	return &it, true
}

// Summary looks up a path entry by numeric ID.
func (s *Snapshot) Summary(id int) (*SnapSummary, bool) {
	sum, ok := s.Paths[strconv.Itoa(id)]
	if !ok {
		return nil, false
	}
	return &sum, true
}

// ExternalCrateName looks up a dependency crate's name by crate number.
func (s *Snapshot) ExternalCrateName(crateID int) string {
	ext, ok := s.ExternalCrates[strconv.Itoa(crateID)]
	if !ok {
		return ""
	}
	return ext.Name
}

func (sp *SnapSpan) toHir() hir.Span {
	if sp == nil {
		return hir.Span{}
	}
	return hir.Span{
		File: sp.Filename,
		Lo:   hir.Loc{Line: sp.Begin[0], Col: sp.Begin[1]},
		Hi:   hir.Loc{Line: sp.End[0], Col: sp.End[1]},
	}
}

func (m *SnapMeta) toHir() *hir.MetaItem {
	if m == nil {
		return nil
	}
	out := &hir.MetaItem{Name: m.Name, Value: m.Value}
	switch m.Kind {
	case "list":
		out.Kind = hir.MetaList
		for i := range m.List {
			nested := m.List[i]
			if nested.Lit != "" {
				out.List = append(out.List, hir.NestedMetaItem{Lit: nested.Lit})
				continue
			}
			out.List = append(out.List, hir.NestedMetaItem{Meta: nested.toHir()})
		}
	case "name_value":
		out.Kind = hir.MetaNameValue
	default:
		out.Kind = hir.MetaWord
	}
	return out
}

func (a *SnapAttr) toHir(id int) hir.Attribute {
	attr := hir.Attribute{ID: id}
	if a.Style == "inner" {
		attr.Style = hir.AttrInner
	} else {
		attr.Style = hir.AttrOuter
	}
	if a.Span != nil {
		attr.Span = a.Span.toHir()
	}
	if a.DocComment != nil {
		attr.IsDocComment = true
		doc := *a.DocComment
		attr.Doc = &doc
		return attr
	}
	attr.Meta = a.Meta.toHir()
	return attr
}

// queries adapts a snapshot to the compiler query surface the clean pass
// consumes. Attribute IDs are minted per call site but stay stable within
// one snapshot because they derive from declaration order.
type queries struct {
	snap *Snapshot
	lang hir.LangItems
}

func newQueries(snap *Snapshot) *queries {
	lang := make(hir.LangItems, len(snap.LangItems))
	for name, id := range snap.LangItems {
		item, ok := langItemByName(name)
		if !ok {
			continue
		}
		lang[item] = snap.DefID(id, 0)
	}
	return &queries{snap: snap, lang: lang}
}

func (q *queries) item(def hir.DefID) (*SnapItem, bool) {
	if !def.IsLocal() {
		return nil, false
	}
	return q.snap.Item(int(def.Index))
}

func (q *queries) Attrs(def hir.DefID) []hir.Attribute {
	item, ok := q.item(def)
	if !ok {
		return nil
	}
	attrs := make([]hir.Attribute, len(item.Attrs))
	for i := range item.Attrs {
		attrs[i] = item.Attrs[i].toHir(item.ID*1000 + i)
	}
	return attrs
}

func (q *queries) Visibility(def hir.DefID) hir.Visibility {
	item, ok := q.item(def)
	if !ok {
		return hir.Visibility{Kind: hir.VisPublic}
	}
	switch item.Visibility {
	case "public":
		return hir.Visibility{Kind: hir.VisPublic}
	case "crate", "restricted":
		return hir.Visibility{Kind: hir.VisRestricted}
	default:
		return hir.Visibility{Kind: hir.VisInherited}
	}
}

func (q *queries) DefSpan(def hir.DefID) hir.Span {
	item, ok := q.item(def)
	if !ok || item.Span == nil {
		return hir.Span{}
	}
	return item.Span.toHir()
}

func (q *queries) SpanWithBody(def hir.DefID) hir.Span {
	item, ok := q.item(def)
	if !ok {
		return hir.Span{}
	}
	if item.BodySpan != nil {
		return item.BodySpan.toHir()
	}
	return item.Span.toHir()
}

func (q *queries) LookupStability(def hir.DefID) *hir.Stability {
	rec, ok := q.stabilityRecord(def)
	if !ok {
		return nil
	}
	s := &hir.Stability{Feature: rec.Feature, Since: rec.Since}
	if rec.Level == "stable" {
		s.Level = hir.LevelStable
	}
	return s
}

func (q *queries) LookupConstStability(def hir.DefID) *hir.ConstStability {
	rec, ok := q.stabilityRecord(def)
	if !ok || rec.ConstLevel == nil {
		return nil
	}
	s := &hir.ConstStability{Feature: rec.Feature, Since: rec.ConstSince}
	if *rec.ConstLevel == "stable" {
		s.Level = hir.LevelStable
	}
	return s
}

func (q *queries) LookupDeprecation(def hir.DefID) *hir.Deprecation {
	if !def.IsLocal() {
		return nil
	}
	rec, ok := q.snap.Deprecation[strconv.Itoa(int(def.Index))]
	if !ok {
		return nil
	}
	return &hir.Deprecation{Since: rec.Since, Note: rec.Note, Suggestion: rec.Suggestion}
}

func (q *queries) stabilityRecord(def hir.DefID) (*SnapStability, bool) {
	if !def.IsLocal() {
		return nil, false
	}
	rec, ok := q.snap.Stability[strconv.Itoa(int(def.Index))]
	if !ok {
		return nil, false
	}
	return &rec, true
}

func (q *queries) LangItems() hir.LangItems {
	return q.lang
}

var langItemNames = map[string]hir.LangItem{
	"isize":              hir.LangIsizeImpl,
	"i8":                 hir.LangI8Impl,
	"i16":                hir.LangI16Impl,
	"i32":                hir.LangI32Impl,
	"i64":                hir.LangI64Impl,
	"i128":               hir.LangI128Impl,
	"usize":              hir.LangUsizeImpl,
	"u8":                 hir.LangU8Impl,
	"u16":                hir.LangU16Impl,
	"u32":                hir.LangU32Impl,
	"u64":                hir.LangU64Impl,
	"u128":               hir.LangU128Impl,
	"f32":                hir.LangF32Impl,
	"f32_runtime":        hir.LangF32RuntimeImpl,
	"f64":                hir.LangF64Impl,
	"f64_runtime":        hir.LangF64RuntimeImpl,
	"char":               hir.LangCharImpl,
	"bool":               hir.LangBoolImpl,
	"str":                hir.LangStrImpl,
	"str_alloc":          hir.LangStrAllocImpl,
	"slice":              hir.LangSliceImpl,
	"slice_u8":           hir.LangSliceU8Impl,
	"slice_alloc":        hir.LangSliceAllocImpl,
	"slice_u8_alloc":     hir.LangSliceU8AllocImpl,
	"array":              hir.LangArrayImpl,
	"const_ptr":          hir.LangConstPtrImpl,
	"mut_ptr":            hir.LangMutPtrImpl,
	"const_slice_ptr":    hir.LangConstSlicePtrImpl,
	"mut_slice_ptr":      hir.LangMutSlicePtrImpl,
	"sized":              hir.LangSizedTrait,
}

func langItemByName(name string) (hir.LangItem, bool) {
	item, ok := langItemNames[name]
	return item, ok
}
