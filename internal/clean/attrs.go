package clean

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/oxidoc/oxidoc/internal/cfg"
	"github.com/oxidoc/oxidoc/internal/diag"
	"github.com/oxidoc/oxidoc/internal/hir"
)

// Attributes is the aggregated attribute state of one item: its ordered doc
// fragments, the attributes documentation doesn't consume, the folded
// `doc(cfg(...))` predicate, and the intra-doc links found in the text.
type Attributes struct {
	DocStrings []DocFragment
	OtherAttrs []hir.Attribute
	// Cfg is nil when the folded predicate reduces to the tautology.
	Cfg  *cfg.Cfg
	Span *hir.Span
	// Links maps source paths to resolved defs and optional URL fragments.
	// It is populated by the link-collection pass, not by FromAST.
	Links []ItemLink
	// InnerDocs is true when the first doc-bearing attribute used inner
	// style, meaning the docs describe the item's contents.
	InnerDocs bool
}

// ItemLink is a link that has not yet been rendered. LinkText may differ
// from Link when the source used a disambiguator.
type ItemLink struct {
	Link     string
	LinkText string
	Did      *hir.DefID
	// Fragment is the URL fragment to append; for primitive links it also
	// carries the primitive's page name.
	Fragment *string
}

// ReexportAttrs is a secondary attribute list contributed by a `pub use`
// site, tagged with the module it came from.
type ReexportAttrs struct {
	Attrs  []hir.Attribute
	Module hir.DefID
}

// extractCfg returns the content of a `#[doc(cfg(content))]` attribute's
// meta item, or nil when the shape doesn't match exactly.
func extractCfg(mi *hir.MetaItem) *hir.MetaItem {
	list, ok := mi.MetaItemList()
	if !ok || len(list) != 1 {
		return nil
	}
	cfgMi, ok := list[0].MetaItem()
	if !ok || !cfgMi.HasName("cfg") {
		return nil
	}
	cfgList, ok := cfgMi.MetaItemList()
	if !ok || len(cfgList) != 1 {
		return nil
	}
	inner, ok := cfgList[0].MetaItem()
	if !ok {
		return nil
	}
	return inner
}

// extractInclude pulls the filename and contents out of the expanded form of
// `#[doc(include = "file")]`, which macro expansion rewrites to
// `#[doc(include(file = "...", contents = "..."))]`. Both parts must be
// present; a partial pair is silently skipped.
func extractInclude(mi *hir.MetaItem) (filename, contents string, ok bool) {
	list, found := mi.MetaItemList()
	if !found {
		return "", "", false
	}
	for _, meta := range list {
		if !meta.HasName("include") {
			continue
		}
		inner, found := meta.MetaItemList()
		if !found {
			return "", "", false
		}
		var haveFile, haveContents bool
		for _, it := range inner {
			if it.HasName("file") {
				if v, ok := it.ValueStr(); ok {
					filename, haveFile = v, true
				}
			} else if it.HasName("contents") {
				if v, ok := it.ValueStr(); ok {
					contents, haveContents = v, true
				}
			}
		}
		return filename, contents, haveFile && haveContents
	}
	return "", "", false
}

// listAttributes flattens the nested meta items of every attribute named
// name, in declaration order.
func listAttributes(attrs []hir.Attribute, name string) []hir.NestedMetaItem {
	var out []hir.NestedMetaItem
	for i := range attrs {
		if !attrs[i].HasName(name) {
			continue
		}
		if list, ok := attrs[i].MetaItemList(); ok {
			out = append(out, list...)
		}
	}
	return out
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}

// AttributesFromAST aggregates an item's attribute list, plus an optional
// list contributed by a re-export, into one Attributes value. Re-export
// documentation is inserted first so it renders above the original docs.
//
// Malformed `doc(cfg(...))` predicates are reported through diags and
// skipped; they never abort aggregation.
func AttributesFromAST(diags *diag.Handler, attrs []hir.Attribute, additional *ReexportAttrs) *Attributes {
	var (
		docStrings []DocFragment
		otherAttrs []hir.Attribute
		span       *hir.Span
	)
	merged := cfg.TrueCfg()
	docLine := 0

	cleanAttr := func(attr *hir.Attribute, parentModule *hir.DefID) {
		if value, ok := attr.DocStr(); ok {
			value = beautifyDocString(value)
			kind := FragmentRawDoc
			if attr.IsDocComment {
				kind = FragmentSugaredDoc
			}
			frag := DocFragment{
				Line:         docLine,
				Span:         attr.Span,
				ParentModule: parentModule,
				Doc:          value,
				Kind:         kind,
			}
			docLine += countLines(value)
			updateNeedBackline(docStrings, &frag)
			docStrings = append(docStrings, frag)
			if span == nil {
				sp := attr.Span
				span = &sp
			}
			return
		}
		if attr.HasName("doc") && attr.Meta != nil {
			if cfgMi := extractCfg(attr.Meta); cfgMi != nil {
				parsed, err := cfg.Parse(cfgMi)
				if err != nil {
					var invalid *cfg.InvalidCfgError
					if errors.As(err, &invalid) {
						diags.SpanErr(invalid.Span, invalid.Msg)
					} else {
						diags.SpanErr(attr.Span, err.Error())
					}
				} else {
					merged = cfg.And(merged, parsed)
				}
			} else if filename, contents, ok := extractInclude(attr.Meta); ok {
				frag := DocFragment{
					Line:         docLine,
					Span:         attr.Span,
					ParentModule: parentModule,
					Doc:          contents,
					Kind:         FragmentInclude,
					Filename:     filename,
				}
				docLine += countLines(contents)
				updateNeedBackline(docStrings, &frag)
				docStrings = append(docStrings, frag)
				return
			}
		}
		otherAttrs = append(otherAttrs, *attr)
	}

	if additional != nil {
		module := additional.Module
		for i := range additional.Attrs {
			cleanAttr(&additional.Attrs[i], &module)
		}
	}
	for i := range attrs {
		cleanAttr(&attrs[i], nil)
	}

	// a target_feature gate hides the item on other targets the same way an
	// explicit doc(cfg(target_feature = "feat")) would
	for _, nested := range listAttributes(attrs, "target_feature") {
		if !nested.HasName("enable") {
			continue
		}
		feat, ok := nested.ValueStr()
		if !ok {
			continue
		}
		meta := &hir.MetaItem{
			Name:  "target_feature",
			Kind:  hir.MetaNameValue,
			Value: feat,
		}
		if featCfg, err := cfg.Parse(meta); err == nil {
			merged = cfg.And(merged, featCfg)
		}
	}

	innerDocs := true
	for i := range attrs {
		if _, ok := attrs[i].DocStr(); ok {
			innerDocs = attrs[i].Style == hir.AttrInner
			break
		}
	}

	if merged.IsTrue() {
		merged = nil
	}
	return &Attributes{
		DocStrings: docStrings,
		OtherAttrs: otherAttrs,
		Cfg:        merged,
		Span:       span,
		InnerDocs:  innerDocs,
	}
}

// DocValue flattens the leading run of fragments that share the first
// fragment's kind and origin module. It never crosses an include boundary,
// so docs contributed by separate blocks stay separate.
func (a *Attributes) DocValue() (string, bool) {
	if len(a.DocStrings) == 0 {
		return "", false
	}
	ori := &a.DocStrings[0]
	var out strings.Builder
	addDocFragment(&out, ori)
	for i := 1; i < len(a.DocStrings); i++ {
		frag := &a.DocStrings[i]
		if ori.Kind == FragmentInclude || !sameFragmentKind(frag, ori) || !sameParentModule(frag, ori) {
			break
		}
		addDocFragment(&out, frag)
	}
	if out.Len() == 0 {
		return "", false
	}
	return out.String(), true
}

// CollapsedDocValue flattens every fragment into one string.
func (a *Attributes) CollapsedDocValue() (string, bool) {
	if len(a.DocStrings) == 0 {
		return "", false
	}
	return JoinFragments(a.DocStrings), true
}

// FragmentOrigin keys collapsed documentation by the module a fragment was
// pulled through. The zero value means "not re-exported".
type FragmentOrigin struct {
	Reexported bool
	Module     hir.DefID
}

func originOf(frag *DocFragment) FragmentOrigin {
	if frag.ParentModule == nil {
		return FragmentOrigin{}
	}
	return FragmentOrigin{Reexported: true, Module: *frag.ParentModule}
}

// CollapsedDocValueByModule groups the flattened documentation by origin
// module, so a re-export's added docs can be attributed separately.
func (a *Attributes) CollapsedDocValueByModule() map[FragmentOrigin]string {
	parts := make(map[FragmentOrigin]*strings.Builder)
	for i := range a.DocStrings {
		frag := &a.DocStrings[i]
		key := originOf(frag)
		b, ok := parts[key]
		if !ok {
			b = new(strings.Builder)
			parts[key] = b
		}
		addDocFragment(b, frag)
	}
	out := make(map[FragmentOrigin]string, len(parts))
	for key, b := range parts {
		out[key] = b.String()
	}
	return out
}

// HasDocFlag reports whether any `#[doc(...)]` attribute carries the given
// word flag.
func (a *Attributes) HasDocFlag(flag string) bool {
	for i := range a.OtherAttrs {
		attr := &a.OtherAttrs[i]
		if !attr.HasName("doc") {
			continue
		}
		items, ok := attr.MetaItemList()
		if !ok {
			continue
		}
		for _, item := range items {
			if mi, ok := item.MetaItem(); ok && mi.HasName(flag) {
				return true
			}
		}
	}
	return false
}

// GetDocAliases collects the `doc(alias = "...")` values into a set,
// dropping empty strings.
func (a *Attributes) GetDocAliases() map[string]struct{} {
	aliases := make(map[string]struct{})
	for _, nested := range listAttributes(a.OtherAttrs, "doc") {
		if !nested.HasName("alias") {
			continue
		}
		if v, ok := nested.ValueStr(); ok && v != "" {
			aliases[v] = struct{}{}
		}
	}
	return aliases
}

// Equal compares two attribute sets. Non-doc attributes compare by their
// stable IDs only; their meta trees are irrelevant once aggregated.
func (a *Attributes) Equal(b *Attributes) bool {
	if len(a.DocStrings) != len(b.DocStrings) || len(a.Links) != len(b.Links) || len(a.OtherAttrs) != len(b.OtherAttrs) {
		return false
	}
	for i := range a.DocStrings {
		if !docFragmentEqual(&a.DocStrings[i], &b.DocStrings[i]) {
			return false
		}
	}
	if !cfgPtrEqual(a.Cfg, b.Cfg) || !spanPtrEqual(a.Span, b.Span) {
		return false
	}
	for i := range a.Links {
		if !itemLinkEqual(&a.Links[i], &b.Links[i]) {
			return false
		}
	}
	for i := range a.OtherAttrs {
		if a.OtherAttrs[i].ID != b.OtherAttrs[i].ID {
			return false
		}
	}
	return true
}

// Hash produces a digest consistent with Equal.
func (a *Attributes) Hash() uint64 {
	h := fnv.New64a()
	for i := range a.DocStrings {
		frag := &a.DocStrings[i]
		fmt.Fprintf(h, "%d/%v/%v/%q/%d/%q/%v/%d;", frag.Line, frag.Span, frag.ParentModule != nil, frag.Doc, frag.Kind, frag.Filename, frag.NeedBackline, frag.Indent)
		if frag.ParentModule != nil {
			fmt.Fprintf(h, "%v;", *frag.ParentModule)
		}
	}
	if a.Cfg != nil {
		fmt.Fprintf(h, "cfg:%s;", a.Cfg.String())
	}
	if a.Span != nil {
		fmt.Fprintf(h, "span:%v;", *a.Span)
	}
	for i := range a.Links {
		link := &a.Links[i]
		fmt.Fprintf(h, "link:%q/%q/%v/%v;", link.Link, link.LinkText, link.Did, link.Fragment)
	}
	for i := range a.OtherAttrs {
		fmt.Fprintf(h, "attr:%d;", a.OtherAttrs[i].ID)
	}
	return h.Sum64()
}

func docFragmentEqual(a, b *DocFragment) bool {
	return a.Line == b.Line &&
		a.Span == b.Span &&
		sameParentModule(a, b) &&
		a.Doc == b.Doc &&
		sameFragmentKind(a, b) &&
		a.NeedBackline == b.NeedBackline &&
		a.Indent == b.Indent
}

func itemLinkEqual(a, b *ItemLink) bool {
	if a.Link != b.Link || a.LinkText != b.LinkText {
		return false
	}
	if (a.Did == nil) != (b.Did == nil) || (a.Fragment == nil) != (b.Fragment == nil) {
		return false
	}
	if a.Did != nil && *a.Did != *b.Did {
		return false
	}
	if a.Fragment != nil && *a.Fragment != *b.Fragment {
		return false
	}
	return true
}

func cfgPtrEqual(a, b *cfg.Cfg) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(b)
}

func spanPtrEqual(a, b *hir.Span) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
