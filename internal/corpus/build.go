package corpus

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/oxidoc/oxidoc/internal/clean"
	"github.com/oxidoc/oxidoc/internal/config"
	"github.com/oxidoc/oxidoc/internal/hir"
	"github.com/oxidoc/oxidoc/internal/render"
)

// snapDefaultness mirrors the compiler's impl-item defaultness record.
type snapDefaultness struct {
	HasValue bool `json:"has_value"`
	IsFinal  bool `json:"is_final"`
}

// snapInner is the kind-specific payload of an index entry.
type snapInner struct {
	Kind string `json:"kind"`

	Items    []int `json:"items,omitempty"`
	Fields   []int `json:"fields,omitempty"`
	Variants []int `json:"variants,omitempty"`

	CtorKind       string `json:"ctor_kind,omitempty"`
	FieldsStripped bool   `json:"fields_stripped,omitempty"`
	VariantKind    string `json:"variant_kind,omitempty"`

	Type  *SnapType  `json:"type,omitempty"`
	Types []SnapType `json:"types,omitempty"`

	Inputs      []SnapArg        `json:"inputs,omitempty"`
	Output      *SnapType        `json:"output,omitempty"`
	CVariadic   bool             `json:"c_variadic,omitempty"`
	Unsafe      bool             `json:"unsafe,omitempty"`
	Const       bool             `json:"const,omitempty"`
	Async       bool             `json:"async,omitempty"`
	Abi         string           `json:"abi,omitempty"`
	Defaultness *snapDefaultness `json:"defaultness,omitempty"`

	IsAuto bool `json:"is_auto,omitempty"`

	Trait    *SnapType `json:"trait,omitempty"`
	For      *SnapType `json:"for,omitempty"`
	Negative bool      `json:"negative,omitempty"`

	ImportPath  []string `json:"import_path,omitempty"`
	ImportID    *int     `json:"import_id,omitempty"`
	ImportCrate int      `json:"import_crate,omitempty"`
	Glob        bool     `json:"glob,omitempty"`
	Inline      bool     `json:"inline,omitempty"`
	Src         *string  `json:"src,omitempty"`

	Source    string   `json:"source,omitempty"`
	MacroKind string   `json:"macro_kind,omitempty"`
	Helpers   []string `json:"helpers,omitempty"`

	Mutable   bool    `json:"mutable,omitempty"`
	Expr      string  `json:"expr,omitempty"`
	Value     string  `json:"value,omitempty"`
	IsLiteral bool    `json:"is_literal,omitempty"`
	Default   *string `json:"default,omitempty"`

	Primitive string `json:"primitive,omitempty"`
	Keyword   string `json:"keyword,omitempty"`
}

// Build is one crate's cleaned documentation plus the state link resolution
// needs.
type Build struct {
	CrateName string
	Version   string
	Crate     *clean.Crate
	Cx        *clean.Context
	Cache     *render.Cache
	snap      *Snapshot
}

// BuildCrate runs the full clean pass over a snapshot: registers the fake-id
// thresholds, populates the link cache, and converts the item tree.
func BuildCrate(snap *Snapshot, roots map[string]config.DocRootConfig, nightly bool) (*Build, error) {
	if snap.FormatVersion > supportedFormatVersion {
		return nil, fmt.Errorf("snapshot format version %d is newer than supported %d", snap.FormatVersion, supportedFormatVersion)
	}

	cx := clean.NewContext(newQueries(snap))
	for crateStr, max := range snap.MaxDefIndex {
		n, err := strconv.Atoi(crateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing crate number %q: %w", crateStr, err)
		}
		cx.Defs.RecordMax(hir.CrateNum(n), hir.DefIndex(max))
	}

	cache := render.NewCache()
	cache.NightlyChannel = nightly
	populateExternLocations(snap, roots, cache)
	if err := populatePaths(snap, cache); err != nil {
		return nil, err
	}

	b := &Build{
		CrateName: snap.CrateName,
		Cx:        cx,
		Cache:     cache,
		snap:      snap,
	}
	if snap.CrateVersion != nil {
		b.Version = *snap.CrateVersion
	}

	root, err := b.buildItem(snap.Root)
	if err != nil {
		return nil, fmt.Errorf("cleaning crate %s: %w", snap.CrateName, err)
	}

	crate := &clean.Crate{
		Name:   snap.CrateName,
		Module: &root,
	}
	for idStr, ext := range snap.ExternalCrates {
		n, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Errorf("parsing external crate number %q: %w", idStr, err)
		}
		crate.Externs = append(crate.Externs, clean.ExternEntry{
			Num:   hir.CrateNum(n),
			Crate: clean.ExternalCrate{Name: ext.Name},
		})
	}
	collectPrimitives(&root, crate, cache)
	b.Crate = crate
	return b, nil
}

// supportedFormatVersion is the newest snapshot layout this build of the
// tool understands.
const supportedFormatVersion = 3

func populateExternLocations(snap *Snapshot, roots map[string]config.DocRootConfig, cache *render.Cache) {
	for idStr, ext := range snap.ExternalCrates {
		n, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		loc := render.CrateLocation{Name: ext.Name, Location: render.LocationUnknown}
		if ext.HTMLRootURL != "" {
			loc.Location = render.LocationRemote
			loc.URL = ext.HTMLRootURL
		}
		// a configured doc root wins over what the crate declared
		if root, ok := roots[ext.Name]; ok {
			switch root.Policy {
			case "local":
				loc.Location = render.LocationLocal
				loc.URL = ""
			case "unknown":
				loc.Location = render.LocationUnknown
				loc.URL = ""
			default:
				loc.Location = render.LocationRemote
				loc.URL = root.URL
			}
		}
		cache.ExternLocations[hir.CrateNum(n)] = loc
	}
}

func populatePaths(snap *Snapshot, cache *render.Cache) error {
	for idStr, sum := range snap.Paths {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return fmt.Errorf("parsing path entry id %q: %w", idStr, err)
		}
		did := snap.DefID(id, sum.CrateID)
		info := render.PathInfo{Path: sum.Path, Type: itemTypeFromSummary(sum.Kind)}
		if did.IsLocal() {
			cache.Paths[did] = info
		} else {
			cache.ExternalPaths[did] = info
		}
	}
	return nil
}

func itemTypeFromSummary(kind string) clean.ItemType {
	switch kind {
	case "mod":
		return clean.ItemTypeModule
	case "struct":
		return clean.ItemTypeStruct
	case "union":
		return clean.ItemTypeUnion
	case "enum":
		return clean.ItemTypeEnum
	case "variant":
		return clean.ItemTypeVariant
	case "function":
		return clean.ItemTypeFunction
	case "method":
		return clean.ItemTypeMethod
	case "tymethod":
		return clean.ItemTypeTyMethod
	case "typedef":
		return clean.ItemTypeTypedef
	case "opaque":
		return clean.ItemTypeOpaqueTy
	case "static":
		return clean.ItemTypeStatic
	case "constant":
		return clean.ItemTypeConstant
	case "trait":
		return clean.ItemTypeTrait
	case "trait_alias":
		return clean.ItemTypeTraitAlias
	case "impl":
		return clean.ItemTypeImpl
	case "struct_field":
		return clean.ItemTypeStructField
	case "macro":
		return clean.ItemTypeMacro
	case "proc_attribute":
		return clean.ItemTypeProcAttribute
	case "proc_derive":
		return clean.ItemTypeProcDerive
	case "primitive":
		return clean.ItemTypePrimitive
	case "assoc_type":
		return clean.ItemTypeAssocType
	case "assoc_const":
		return clean.ItemTypeAssocConst
	case "foreign_type":
		return clean.ItemTypeForeignType
	case "keyword":
		return clean.ItemTypeKeyword
	case "import":
		return clean.ItemTypeImport
	case "extern_crate":
		return clean.ItemTypeExternCrate
	default:
		return clean.ItemTypeModule
	}
}

// buildItem converts one index entry and, recursively, everything it owns.
func (b *Build) buildItem(id int) (clean.Item, error) {
	si, ok := b.snap.Item(id)
	if !ok {
		return clean.Item{}, fmt.Errorf("snapshot index has no entry for item %d", id)
	}
	var inner snapInner
	if err := json.Unmarshal(si.Inner, &inner); err != nil {
		return clean.Item{}, fmt.Errorf("decoding inner payload of item %d: %w", id, err)
	}

	if inner.Kind == "import" && inner.Inline && inner.ImportID != nil && inner.ImportCrate == 0 {
		return b.buildInlined(si, &inner)
	}

	kind, err := b.buildKind(si, &inner)
	if err != nil {
		return clean.Item{}, err
	}
	did := b.snap.DefID(si.ID, si.CrateID)
	item := clean.NewItemWithAttrs(b.Cx, did, si.Name, kind,
		clean.AttributesFromAST(b.Cx.Diags, b.Cx.Tcx.Attrs(did), nil))
	item.Attrs.Links = b.decodeLinks(si.Links)
	return item, nil
}

// buildInlined replaces an inlined `pub use` with its local target. The
// `use` site's docs are merged in above the target's own, tagged with the
// re-exporting module so collapse-by-origin can tell them apart.
func (b *Build) buildInlined(si *SnapItem, inner *snapInner) (clean.Item, error) {
	ti, ok := b.snap.Item(*inner.ImportID)
	if !ok {
		return clean.Item{}, fmt.Errorf("inlined re-export %d targets missing item %d", si.ID, *inner.ImportID)
	}
	var targetInner snapInner
	if err := json.Unmarshal(ti.Inner, &targetInner); err != nil {
		return clean.Item{}, fmt.Errorf("decoding inner payload of re-export target %d: %w", ti.ID, err)
	}
	kind, err := b.buildKind(ti, &targetInner)
	if err != nil {
		return clean.Item{}, err
	}

	reexportAttrs := make([]hir.Attribute, len(si.Attrs))
	for i := range si.Attrs {
		reexportAttrs[i] = si.Attrs[i].toHir(si.ID*1000 + i)
	}
	extra := &clean.ReexportAttrs{
		Attrs:  reexportAttrs,
		Module: b.snap.DefID(si.ID, si.CrateID),
	}

	did := b.snap.DefID(ti.ID, ti.CrateID)
	name := si.Name
	if name == nil {
		name = ti.Name
	}
	item := clean.NewItemWithAttrs(b.Cx, did, name, kind,
		clean.AttributesFromAST(b.Cx.Diags, b.Cx.Tcx.Attrs(did), extra))
	item.Attrs.Links = b.decodeLinks(append(append([]SnapLink(nil), si.Links...), ti.Links...))
	// visibility follows the use site; the target is usually private
	item.Visibility = b.Cx.Tcx.Visibility(b.snap.DefID(si.ID, si.CrateID))
	return item, nil
}

func (b *Build) buildKind(si *SnapItem, inner *snapInner) (clean.ItemKind, error) {
	switch inner.Kind {
	case "mod":
		items, err := b.buildItems(inner.Items)
		if err != nil {
			return nil, err
		}
		return &clean.ModuleItem{Module: clean.Module{
			Items:   items,
			IsCrate: si.ID == b.snap.Root,
		}}, nil

	case "struct":
		fields, err := b.buildItems(inner.Fields)
		if err != nil {
			return nil, err
		}
		return &clean.StructItem{Struct: clean.Struct{
			CtorKind:       decodeCtorKind(inner.CtorKind),
			Fields:         fields,
			FieldsStripped: inner.FieldsStripped,
		}}, nil

	case "union":
		fields, err := b.buildItems(inner.Fields)
		if err != nil {
			return nil, err
		}
		return &clean.UnionItem{Union: clean.Union{
			Fields:         fields,
			FieldsStripped: inner.FieldsStripped,
		}}, nil

	case "enum":
		variants, err := b.buildItems(inner.Variants)
		if err != nil {
			return nil, err
		}
		return &clean.EnumItem{Enum: clean.Enum{Variants: variants}}, nil

	case "variant":
		switch inner.VariantKind {
		case "tuple":
			types := make([]clean.Type, len(inner.Types))
			for i := range inner.Types {
				types[i] = decodeType(b.snap, &inner.Types[i])
			}
			return &clean.VariantItem{Variant: clean.TupleVariant{Types: types}}, nil
		case "struct":
			fields, err := b.buildItems(inner.Fields)
			if err != nil {
				return nil, err
			}
			return &clean.VariantItem{Variant: clean.StructVariant{Struct: clean.VariantStruct{
				CtorKind:       decodeCtorKind(inner.CtorKind),
				Fields:         fields,
				FieldsStripped: inner.FieldsStripped,
			}}}, nil
		default:
			return &clean.VariantItem{Variant: clean.CLikeVariant{}}, nil
		}

	case "struct_field":
		return &clean.StructFieldItem{Type: decodeType(b.snap, inner.Type)}, nil

	case "function":
		return &clean.FunctionItem{Function: b.decodeFunction(inner)}, nil

	case "foreign_function":
		return &clean.ForeignFunctionItem{Function: b.decodeFunction(inner)}, nil

	case "method":
		var def *hir.Defaultness
		if inner.Defaultness != nil {
			def = &hir.Defaultness{HasValue: inner.Defaultness.HasValue, IsFinal: inner.Defaultness.IsFinal}
		}
		return &clean.MethodItem{Function: b.decodeFunction(inner), Defaultness: def}, nil

	case "tymethod":
		return &clean.TyMethodItem{Function: b.decodeFunction(inner)}, nil

	case "trait":
		items, err := b.buildItems(inner.Items)
		if err != nil {
			return nil, err
		}
		unsafety := hir.Safe
		if inner.Unsafe {
			unsafety = hir.Unsafe
		}
		return &clean.TraitItem{Trait: clean.Trait{
			Unsafety: unsafety,
			Items:    items,
			Bounds:   b.decodeBounds(inner.Types),
			IsAuto:   inner.IsAuto,
		}}, nil

	case "trait_alias":
		return &clean.TraitAliasItem{TraitAlias: clean.TraitAlias{
			Bounds: b.decodeBounds(inner.Types),
		}}, nil

	case "impl":
		items, err := b.buildItems(inner.Items)
		if err != nil {
			return nil, err
		}
		unsafety := hir.Safe
		if inner.Unsafe {
			unsafety = hir.Unsafe
		}
		impl := clean.Impl{
			Unsafety:         unsafety,
			For:              decodeType(b.snap, inner.For),
			Items:            items,
			NegativePolarity: inner.Negative,
		}
		if inner.Trait != nil {
			impl.Trait = decodeType(b.snap, inner.Trait)
		}
		return &clean.ImplItem{Impl: impl}, nil

	case "typedef":
		return &clean.TypedefItem{Typedef: clean.Typedef{Type: decodeType(b.snap, inner.Type)}}, nil

	case "opaque":
		return &clean.OpaqueTyItem{OpaqueTy: clean.OpaqueTy{Bounds: b.decodeBounds(inner.Types)}}, nil

	case "static":
		return &clean.StaticItem{Static: clean.Static{
			Type:       decodeType(b.snap, inner.Type),
			Mutability: decodeMut(inner.Mutable),
			Expr:       inner.Expr,
		}}, nil

	case "foreign_static":
		return &clean.ForeignStaticItem{Static: clean.Static{
			Type:       decodeType(b.snap, inner.Type),
			Mutability: decodeMut(inner.Mutable),
		}}, nil

	case "foreign_type":
		return &clean.ForeignTypeItem{}, nil

	case "constant":
		return &clean.ConstantItem{Constant: clean.Constant{
			Type:      decodeType(b.snap, inner.Type),
			Expr:      inner.Expr,
			Value:     inner.Value,
			IsLiteral: inner.IsLiteral,
		}}, nil

	case "assoc_const":
		return &clean.AssocConstItem{
			Type:    decodeType(b.snap, inner.Type),
			Default: inner.Default,
		}, nil

	case "assoc_type":
		kind := &clean.AssocTypeItem{Bounds: b.decodeBounds(inner.Types)}
		if inner.Type != nil {
			kind.Default = decodeType(b.snap, inner.Type)
		}
		return kind, nil

	case "macro":
		return &clean.MacroItem{Macro: clean.Macro{Source: inner.Source}}, nil

	case "proc_macro":
		kind := clean.MacroBang
		switch inner.MacroKind {
		case "attr":
			kind = clean.MacroAttr
		case "derive":
			kind = clean.MacroDerive
		}
		return &clean.ProcMacroItem{ProcMacro: clean.ProcMacro{Kind: kind, Helpers: inner.Helpers}}, nil

	case "primitive":
		prim, ok := clean.PrimitiveFromSymbol(inner.Primitive)
		if !ok {
			return nil, fmt.Errorf("item %d documents unknown primitive %q", si.ID, inner.Primitive)
		}
		return &clean.PrimitiveItem{Primitive: prim}, nil

	case "keyword":
		return &clean.KeywordItem{Keyword: inner.Keyword}, nil

	case "extern_crate":
		return &clean.ExternCrateItem{Src: inner.Src}, nil

	case "import":
		return b.buildImport(si, inner)

	default:
		return nil, fmt.Errorf("item %d has unknown kind %q", si.ID, inner.Kind)
	}
}

// buildImport converts a `use` item that stays a `use` line. Inlined
// re-exports never reach here; buildItem routes them to buildInlined.
func (b *Build) buildImport(si *SnapItem, inner *snapInner) (clean.ItemKind, error) {
	segments := make([]clean.PathSegment, len(inner.ImportPath))
	for i, name := range inner.ImportPath {
		segments[i] = clean.PathSegment{Name: name}
	}
	source := clean.ImportSource{Path: clean.Path{Segments: segments}}
	if inner.ImportID != nil {
		did := b.snap.DefID(*inner.ImportID, inner.ImportCrate)
		source.Did = &did
		source.Path.Res.Did = did
	}
	name := ""
	if si.Name != nil {
		name = *si.Name
	}
	var imp clean.Import
	if inner.Glob {
		imp = clean.NewGlobImport(source, !inner.Inline)
	} else {
		imp = clean.NewSimpleImport(name, source, !inner.Inline)
	}
	return &clean.ImportItem{Import: imp}, nil
}

func (b *Build) decodeFunction(inner *snapInner) clean.Function {
	unsafety := hir.Safe
	if inner.Unsafe {
		unsafety = hir.Unsafe
	}
	return clean.Function{
		Decl: decodeFnDecl(b.snap, inner.Inputs, inner.Output, inner.CVariadic),
		Header: clean.FnHeader{
			Unsafety:  unsafety,
			Constness: inner.Const,
			Asyncness: inner.Async,
			Abi:       inner.Abi,
		},
	}
}

func (b *Build) decodeBounds(types []SnapType) []clean.GenericBound {
	if len(types) == 0 {
		return nil
	}
	bounds := make([]clean.GenericBound, 0, len(types))
	for i := range types {
		if strings.HasPrefix(types[i].Name, "'") && types[i].Kind == "generic" {
			bounds = append(bounds, clean.Outlives{Lifetime: clean.Lifetime(types[i].Name)})
			continue
		}
		bounds = append(bounds, clean.TraitBound{
			Trait: clean.PolyTrait{Trait: decodeType(b.snap, &types[i])},
		})
	}
	return bounds
}

func (b *Build) buildItems(ids []int) ([]clean.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	items := make([]clean.Item, 0, len(ids))
	for _, id := range ids {
		item, err := b.buildItem(id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (b *Build) decodeLinks(links []SnapLink) []clean.ItemLink {
	if len(links) == 0 {
		return nil
	}
	out := make([]clean.ItemLink, 0, len(links))
	for _, l := range links {
		il := clean.ItemLink{Link: l.Text, LinkText: l.LinkText}
		if il.LinkText == "" {
			il.LinkText = l.Text
		}
		if l.ID != nil {
			did := b.snap.DefID(*l.ID, l.CrateID)
			il.Did = &did
		}
		if l.Fragment != nil {
			frag := *l.Fragment
			il.Fragment = &frag
		}
		if il.Did == nil && il.Fragment == nil {
			continue
		}
		out = append(out, il)
	}
	return out
}

func decodeCtorKind(kind string) clean.CtorKind {
	switch kind {
	case "fn":
		return clean.CtorFn
	case "const":
		return clean.CtorConst
	default:
		return clean.CtorFictive
	}
}

// collectPrimitives walks the cleaned tree recording primitive documentation
// anchors on both the crate and the cache.
func collectPrimitives(item *clean.Item, crate *clean.Crate, cache *render.Cache) {
	if prim, ok := item.Kind.(*clean.PrimitiveItem); ok {
		crate.Primitives = append(crate.Primitives, clean.PrimitiveEntry{
			Did:       item.DefID,
			Primitive: prim.Primitive,
		})
		cache.PrimitiveLocations[prim.Primitive] = item.DefID
	}
	inner := clean.InnerItems(item.Kind)
	for i := range inner {
		collectPrimitives(&inner[i], crate, cache)
	}
}
