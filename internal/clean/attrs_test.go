package clean

import (
	"strings"
	"testing"

	"github.com/oxidoc/oxidoc/internal/diag"
	"github.com/oxidoc/oxidoc/internal/hir"
)

func metaWord(name string) *hir.MetaItem {
	return &hir.MetaItem{Name: name, Kind: hir.MetaWord}
}

func metaNV(name, value string) *hir.MetaItem {
	return &hir.MetaItem{Name: name, Kind: hir.MetaNameValue, Value: value}
}

func metaList(name string, items ...*hir.MetaItem) *hir.MetaItem {
	nested := make([]hir.NestedMetaItem, len(items))
	for i, it := range items {
		nested[i] = hir.NestedMetaItem{Meta: it}
	}
	return &hir.MetaItem{Name: name, Kind: hir.MetaList, List: nested}
}

func docComment(id int, text string) hir.Attribute {
	return hir.Attribute{ID: id, IsDocComment: true, Doc: &text}
}

func docCfgAttr(id int, pred *hir.MetaItem) hir.Attribute {
	return hir.Attribute{ID: id, Meta: metaList("doc", metaList("cfg", pred))}
}

func TestAttributesFromAST_DocFragments(t *testing.T) {
	t.Parallel()
	diags := diag.NewHandler()
	attrs := AttributesFromAST(diags, []hir.Attribute{
		docComment(0, "First."),
		docComment(1, "Second."),
	}, nil)

	if len(attrs.DocStrings) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(attrs.DocStrings))
	}
	if !attrs.DocStrings[0].NeedBackline {
		t.Error("consecutive same-kind fragments should set NeedBackline")
	}
	if attrs.DocStrings[1].Line != 1 {
		t.Errorf("second fragment line = %d, want 1", attrs.DocStrings[1].Line)
	}
	doc, ok := attrs.DocValue()
	if !ok || doc != "First.\nSecond." {
		t.Errorf("DocValue = %q, %v", doc, ok)
	}
}

func TestAttributesFromAST_CfgFolding(t *testing.T) {
	t.Parallel()
	diags := diag.NewHandler()
	attrs := AttributesFromAST(diags, []hir.Attribute{
		docCfgAttr(0, metaWord("unix")),
		docCfgAttr(1, metaWord("windows")),
	}, nil)

	if attrs.Cfg == nil {
		t.Fatal("expected a folded predicate")
	}
	if got := attrs.Cfg.String(); got != "all(unix, windows)" {
		t.Errorf("cfg = %q", got)
	}
	if diags.Count() != 0 {
		t.Errorf("unexpected diagnostics: %v", diags.Diagnostics())
	}
}

func TestAttributesFromAST_TautologyIsNil(t *testing.T) {
	t.Parallel()
	diags := diag.NewHandler()
	attrs := AttributesFromAST(diags, []hir.Attribute{
		docCfgAttr(0, metaWord("true")),
	}, nil)
	if attrs.Cfg != nil {
		t.Errorf("tautology should fold to nil, got %s", attrs.Cfg)
	}
}

func TestAttributesFromAST_InvalidCfgReportedAndSkipped(t *testing.T) {
	t.Parallel()
	diags := diag.NewHandler()
	attrs := AttributesFromAST(diags, []hir.Attribute{
		docCfgAttr(0, metaList("bogus", metaWord("x"))),
		docComment(1, "Still documented."),
	}, nil)

	if diags.Count() != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", diags.Count())
	}
	if attrs.Cfg != nil {
		t.Errorf("skipped predicate should leave cfg nil, got %s", attrs.Cfg)
	}
	if len(attrs.DocStrings) != 1 {
		t.Error("aggregation should continue past a malformed predicate")
	}
}

func TestAttributesFromAST_TargetFeature(t *testing.T) {
	t.Parallel()
	diags := diag.NewHandler()
	attrs := AttributesFromAST(diags, []hir.Attribute{
		{ID: 0, Meta: metaList("target_feature", metaNV("enable", "avx2"))},
	}, nil)

	if attrs.Cfg == nil {
		t.Fatal("target_feature(enable) should synthesize a cfg predicate")
	}
	if got := attrs.Cfg.String(); got != `target_feature = "avx2"` {
		t.Errorf("cfg = %q", got)
	}
}

func TestAttributesFromAST_ReexportDocsFirst(t *testing.T) {
	t.Parallel()
	diags := diag.NewHandler()
	module := hir.DefID{Krate: 0, Index: 9}
	attrs := AttributesFromAST(diags, []hir.Attribute{
		docComment(0, "Original."),
	}, &ReexportAttrs{
		Attrs:  []hir.Attribute{docComment(100, "Use-site.")},
		Module: module,
	})

	if len(attrs.DocStrings) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(attrs.DocStrings))
	}
	first := attrs.DocStrings[0]
	if first.Doc != "Use-site." {
		t.Errorf("re-export docs must come first, got %q", first.Doc)
	}
	if first.ParentModule == nil || *first.ParentModule != module {
		t.Error("re-export fragment must record its use-site module")
	}
	if attrs.DocStrings[1].ParentModule != nil {
		t.Error("original fragment must not record a parent module")
	}

	collapsed, _ := attrs.CollapsedDocValue()
	if !strings.HasPrefix(collapsed, "Use-site.") {
		t.Errorf("collapsed docs = %q", collapsed)
	}

	byModule := attrs.CollapsedDocValueByModule()
	if byModule[FragmentOrigin{Reexported: true, Module: module}] == "" {
		t.Error("re-export origin missing from grouped docs")
	}
	if byModule[FragmentOrigin{}] == "" {
		t.Error("original origin missing from grouped docs")
	}
}

func TestAttributesFromAST_IncludeFragment(t *testing.T) {
	t.Parallel()
	diags := diag.NewHandler()
	include := hir.Attribute{ID: 0, Meta: metaList("doc",
		metaList("include", metaNV("file", "extra.md"), metaNV("contents", "Included body.")))}
	attrs := AttributesFromAST(diags, []hir.Attribute{include, docComment(1, "After.")}, nil)

	if len(attrs.DocStrings) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(attrs.DocStrings))
	}
	frag := attrs.DocStrings[0]
	if frag.Kind != FragmentInclude || frag.Filename != "extra.md" || frag.Doc != "Included body." {
		t.Errorf("include fragment = %+v", frag)
	}

	// DocValue never crosses an include boundary
	doc, ok := attrs.DocValue()
	if !ok || doc != "Included body." {
		t.Errorf("DocValue = %q, %v", doc, ok)
	}
	collapsed, _ := attrs.CollapsedDocValue()
	if !strings.Contains(collapsed, "After.") {
		t.Errorf("CollapsedDocValue = %q", collapsed)
	}
}

func TestAttributesFromAST_InnerDocs(t *testing.T) {
	t.Parallel()
	diags := diag.NewHandler()

	inner := docComment(0, "Module docs.")
	inner.Style = hir.AttrInner
	attrs := AttributesFromAST(diags, []hir.Attribute{inner}, nil)
	if !attrs.InnerDocs {
		t.Error("inner-style first doc should set InnerDocs")
	}

	attrs = AttributesFromAST(diags, []hir.Attribute{docComment(0, "Item docs.")}, nil)
	if attrs.InnerDocs {
		t.Error("outer-style first doc should clear InnerDocs")
	}
}

func TestAttributes_DocAliasesAndFlags(t *testing.T) {
	t.Parallel()
	diags := diag.NewHandler()
	attrs := AttributesFromAST(diags, []hir.Attribute{
		{ID: 0, Meta: metaList("doc", metaNV("alias", "first"))},
		{ID: 1, Meta: metaList("doc", metaNV("alias", "second"), metaNV("alias", ""))},
		{ID: 2, Meta: metaList("doc", metaWord("hidden"))},
	}, nil)

	aliases := attrs.GetDocAliases()
	if len(aliases) != 2 {
		t.Errorf("aliases = %v", aliases)
	}
	if _, ok := aliases["first"]; !ok {
		t.Error("missing alias 'first'")
	}
	if !attrs.HasDocFlag("hidden") {
		t.Error("doc(hidden) flag not detected")
	}
	if attrs.HasDocFlag("inline") {
		t.Error("absent flag reported present")
	}
}

func TestAttributes_EqualAndHash(t *testing.T) {
	t.Parallel()
	diags := diag.NewHandler()
	build := func() *Attributes {
		return AttributesFromAST(diags, []hir.Attribute{
			docComment(0, "Doc."),
			docCfgAttr(1, metaWord("unix")),
		}, nil)
	}
	a, b := build(), build()
	if !a.Equal(b) {
		t.Error("identical aggregations should compare equal")
	}
	if a.Hash() != b.Hash() {
		t.Error("equal attribute sets must hash identically")
	}

	c := AttributesFromAST(diags, []hir.Attribute{docComment(0, "Other.")}, nil)
	if a.Equal(c) {
		t.Error("different docs should not compare equal")
	}
}
