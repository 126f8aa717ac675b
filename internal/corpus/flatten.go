package corpus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oxidoc/oxidoc/internal/clean"
	"github.com/oxidoc/oxidoc/internal/hir"
	"github.com/oxidoc/oxidoc/internal/render"
)

// ParsedDoc is one documentation page, flattened to markdown and ready for
// the index.
type ParsedDoc struct {
	DefID      string
	Name       string
	Path       string // fully qualified, :: separated
	Kind       string
	Docs       string
	Aliases    []string
	Stability  string
	Deprecated bool
	Cfg        string
	// Links maps original markdown destinations to resolved URLs.
	Links map[string]string
	// Fragments are sub-documents keyed by fragment name: fields, variants,
	// methods, and trait member lists.
	Fragments map[string]string
}

// Reexport is a `pub use` of another crate's subtree, recorded so path
// lookups can chase through it.
type Reexport struct {
	LocalPrefix  string
	SourceCrate  string
	SourcePrefix string
}

// Docs flattens the cleaned crate into one ParsedDoc per documented page.
// The crate must already be stripped; stripped items produce no pages.
func (b *Build) Docs() []ParsedDoc {
	w := &walker{build: b, impls: make(map[hir.DefID][]*clean.Impl)}
	w.collectImpls(b.Crate.Module)
	w.walk(b.Crate.Module, nil)
	return w.out
}

// Reexports collects the `pub use other_crate::...` entries of the crate
// root and its modules.
func (b *Build) Reexports() []Reexport {
	var out []Reexport
	var visit func(item *clean.Item, prefix []string)
	visit = func(item *clean.Item, prefix []string) {
		mod, ok := item.Kind.(*clean.ModuleItem)
		if !ok {
			return
		}
		path := prefix
		if item.Name != nil {
			path = append(append([]string{}, prefix...), *item.Name)
		} else {
			path = []string{b.CrateName}
		}
		for i := range mod.Module.Items {
			child := &mod.Module.Items[i]
			if imp, ok := child.Kind.(*clean.ImportItem); ok {
				if re, ok := b.reexportOf(child, imp, path); ok {
					out = append(out, re)
				}
				continue
			}
			visit(child, path)
		}
	}
	visit(b.Crate.Module, nil)
	return out
}

func (b *Build) reexportOf(item *clean.Item, imp *clean.ImportItem, modPath []string) (Reexport, bool) {
	src := imp.Import.Source
	if src.Did == nil || src.Did.IsLocal() {
		return Reexport{}, false
	}
	sourceCrate := ""
	for _, ext := range b.Crate.Externs {
		if ext.Num == src.Did.Krate {
			sourceCrate = ext.Crate.Name
			break
		}
	}
	if sourceCrate == "" {
		return Reexport{}, false
	}
	local := strings.Join(modPath, "::")
	if !imp.Import.Kind.Glob && imp.Import.Kind.Name != "" {
		local = local + "::" + imp.Import.Kind.Name
	}
	return Reexport{
		LocalPrefix:  local,
		SourceCrate:  sourceCrate,
		SourcePrefix: src.Path.WholeName(),
	}, true
}

type walker struct {
	build *Build
	out   []ParsedDoc
	// impls indexes impl blocks by the definition they implement for.
	impls map[hir.DefID][]*clean.Impl
}

func (w *walker) collectImpls(item *clean.Item) {
	if impl, ok := item.Kind.(*clean.ImplItem); ok {
		if did, ok := clean.TypeDefID(impl.Impl.For); ok {
			w.impls[did] = append(w.impls[did], &impl.Impl)
		}
	}
	inner := clean.InnerItems(item.Kind)
	for i := range inner {
		w.collectImpls(&inner[i])
	}
}

// pageKinds lists the item types that get a page of their own.
var pageKinds = map[clean.ItemType]bool{
	clean.ItemTypeModule:        true,
	clean.ItemTypeStruct:        true,
	clean.ItemTypeUnion:         true,
	clean.ItemTypeEnum:          true,
	clean.ItemTypeFunction:      true,
	clean.ItemTypeTypedef:       true,
	clean.ItemTypeOpaqueTy:      true,
	clean.ItemTypeStatic:        true,
	clean.ItemTypeConstant:      true,
	clean.ItemTypeTrait:         true,
	clean.ItemTypeTraitAlias:    true,
	clean.ItemTypeMacro:         true,
	clean.ItemTypeProcAttribute: true,
	clean.ItemTypeProcDerive:    true,
	clean.ItemTypePrimitive:     true,
	clean.ItemTypeKeyword:       true,
	clean.ItemTypeForeignType:   true,
}

func (w *walker) walk(item *clean.Item, prefix []string) {
	if item.IsStripped() {
		return
	}
	var path []string
	switch {
	case item.IsCrate():
		path = []string{w.build.CrateName}
	case item.Name != nil:
		path = append(append([]string{}, prefix...), *item.Name)
	default:
		path = prefix
	}

	if pageKinds[item.ItemType()] && len(path) > 0 {
		w.out = append(w.out, w.flatten(item, path))
	}

	if item.IsMod() {
		inner := clean.InnerItems(item.Kind)
		for i := range inner {
			w.walk(&inner[i], path)
		}
	}
}

func (w *walker) flatten(item *clean.Item, path []string) ParsedDoc {
	cx := w.build.Cx
	name := ""
	if item.Name != nil {
		name = *item.Name
	}
	doc := ParsedDoc{
		DefID: fmt.Sprintf("%d:%d", item.DefID.Krate, item.DefID.Index),
		Name:  name,
		Path:  strings.Join(path, "::"),
		Kind:  item.ItemType().String(),
	}

	if s := item.Stability(cx); s != nil {
		if s.IsUnstable() {
			doc.Stability = "unstable " + s.Feature
		} else {
			doc.Stability = "stable " + s.Since
		}
	}
	doc.Deprecated = item.Deprecation(cx) != nil
	if item.Attrs.Cfg != nil {
		doc.Cfg = item.Attrs.Cfg.String()
	}

	for alias := range item.Attrs.GetDocAliases() {
		doc.Aliases = append(doc.Aliases, alias)
	}
	sort.Strings(doc.Aliases)

	w.build.Cache.Depth = len(path) - 1
	rendered := render.ItemLinks(item, w.build.Cache)
	if len(rendered) > 0 {
		doc.Links = make(map[string]string, len(rendered))
		for _, l := range rendered {
			doc.Links[l.OriginalText] = l.Href
		}
	}

	doc.Docs = w.pageMarkdown(item, &doc)
	doc.Fragments = w.fragments(item)
	return doc
}

func (w *walker) pageMarkdown(item *clean.Item, doc *ParsedDoc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", doc.Kind, doc.Path)

	if sig, ok := signatureOf(item); ok {
		fmt.Fprintf(&b, "```rust\n%s\n```\n\n", sig)
	}
	if dep := item.Deprecation(w.build.Cx); dep != nil {
		b.WriteString("**Deprecated")
		if dep.Since != "" {
			b.WriteString(" since " + dep.Since)
		}
		b.WriteString("**")
		if dep.Note != "" {
			b.WriteString(": " + dep.Note)
		}
		b.WriteString("\n\n")
	}
	if doc.Cfg != "" {
		fmt.Fprintf(&b, "*Available on %s only.*\n\n", doc.Cfg)
	}
	if docs, ok := item.CollapsedDocValue(); ok {
		b.WriteString(docs)
		if !strings.HasSuffix(docs, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// fragments builds the sub-documents of one page: fields and methods for
// types, variants for enums, member lists for traits, contents for modules.
func (w *walker) fragments(item *clean.Item) map[string]string {
	frags := make(map[string]string)
	switch k := item.Kind.(type) {
	case *clean.StructItem:
		if f := w.fieldsFragment(k.Struct.Fields, k.Struct.FieldsStripped); f != "" {
			frags["fields"] = f
		}
		w.methodFragments(item, frags)
	case *clean.UnionItem:
		if f := w.fieldsFragment(k.Union.Fields, k.Union.FieldsStripped); f != "" {
			frags["fields"] = f
		}
		w.methodFragments(item, frags)
	case *clean.EnumItem:
		if f := w.variantsFragment(k.Enum.Variants); f != "" {
			frags["variants"] = f
		}
		w.methodFragments(item, frags)
	case *clean.TraitItem:
		w.traitFragments(&k.Trait, frags)
	case *clean.PrimitiveItem:
		w.methodFragments(item, frags)
	case *clean.ModuleItem:
		if f := w.moduleFragment(k.Module.Items); f != "" {
			frags["items"] = f
		}
	}
	if len(frags) == 0 {
		return nil
	}
	return frags
}

func (w *walker) fieldsFragment(fields []clean.Item, strippedAny bool) string {
	var b strings.Builder
	for i := range fields {
		field := &fields[i]
		if field.IsStripped() || field.Name == nil {
			continue
		}
		sf, ok := field.Kind.(*clean.StructFieldItem)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "### `%s: %s`\n\n", *field.Name, typeString(sf.Type))
		if docs, ok := field.CollapsedDocValue(); ok {
			b.WriteString(docs)
			b.WriteString("\n\n")
		}
	}
	if b.Len() == 0 {
		return ""
	}
	out := b.String()
	if strippedAny {
		out += "*Some fields are private and not shown.*\n"
	}
	return out
}

func (w *walker) variantsFragment(variants []clean.Item) string {
	var b strings.Builder
	for i := range variants {
		v := &variants[i]
		if v.IsStripped() || v.Name == nil {
			continue
		}
		vk, ok := v.Kind.(*clean.VariantItem)
		if !ok {
			continue
		}
		switch variant := vk.Variant.(type) {
		case clean.TupleVariant:
			types := make([]string, len(variant.Types))
			for j, t := range variant.Types {
				types[j] = typeString(t)
			}
			fmt.Fprintf(&b, "### `%s(%s)`\n\n", *v.Name, strings.Join(types, ", "))
		case clean.StructVariant:
			fmt.Fprintf(&b, "### `%s { .. }`\n\n", *v.Name)
			for j := range variant.Struct.Fields {
				field := &variant.Struct.Fields[j]
				if field.IsStripped() || field.Name == nil {
					continue
				}
				if sf, ok := field.Kind.(*clean.StructFieldItem); ok {
					fmt.Fprintf(&b, "- `%s: %s`\n", *field.Name, typeString(sf.Type))
				}
			}
			b.WriteString("\n")
		default:
			fmt.Fprintf(&b, "### `%s`\n\n", *v.Name)
		}
		if docs, ok := v.CollapsedDocValue(); ok {
			b.WriteString(docs)
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// methodFragments emits one "methods" fragment covering the inherent impls
// of the item, and one "trait-impls" listing implemented traits.
func (w *walker) methodFragments(item *clean.Item, frags map[string]string) {
	impls := w.impls[item.DefID]
	if len(impls) == 0 {
		return
	}
	var methods, traits strings.Builder
	for _, impl := range impls {
		if impl.Trait != nil {
			fmt.Fprintf(&traits, "- `%s`\n", typeString(impl.Trait))
			continue
		}
		for i := range impl.Items {
			w.writeMember(&methods, &impl.Items[i])
		}
	}
	if methods.Len() > 0 {
		frags["methods"] = methods.String()
	}
	if traits.Len() > 0 {
		frags["trait-impls"] = traits.String()
	}
}

func (w *walker) traitFragments(trait *clean.Trait, frags map[string]string) {
	var required, provided, assoc strings.Builder
	for i := range trait.Items {
		member := &trait.Items[i]
		switch member.Kind.(type) {
		case *clean.TyMethodItem:
			w.writeMember(&required, member)
		case *clean.MethodItem:
			w.writeMember(&provided, member)
		case *clean.AssocTypeItem, *clean.AssocConstItem:
			w.writeMember(&assoc, member)
		}
	}
	if required.Len() > 0 {
		frags["required-methods"] = required.String()
	}
	if provided.Len() > 0 {
		frags["provided-methods"] = provided.String()
	}
	if assoc.Len() > 0 {
		frags["associated-items"] = assoc.String()
	}
}

func (w *walker) writeMember(b *strings.Builder, member *clean.Item) {
	if member.Name == nil || member.IsStripped() {
		return
	}
	if sig, ok := signatureOf(member); ok {
		fmt.Fprintf(b, "### `%s`\n\n", sig)
	} else {
		fmt.Fprintf(b, "### `%s`\n\n", *member.Name)
	}
	if docs, ok := member.CollapsedDocValue(); ok {
		b.WriteString(docs)
		b.WriteString("\n\n")
	}
}

func (w *walker) moduleFragment(items []clean.Item) string {
	var b strings.Builder
	for i := range items {
		item := &items[i]
		if item.IsStripped() || item.Name == nil || !pageKinds[item.ItemType()] {
			continue
		}
		line := fmt.Sprintf("- %s `%s`", item.ItemType(), *item.Name)
		if docs, ok := item.DocValue(); ok {
			if first := firstLine(docs); first != "" {
				line += ": " + first
			}
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

// signatureOf renders a compact source-like signature for items that have
// one.
func signatureOf(item *clean.Item) (string, bool) {
	name := ""
	if item.Name != nil {
		name = *item.Name
	}
	switch k := item.Kind.(type) {
	case *clean.FunctionItem:
		return fnSignature(name, &k.Function), true
	case *clean.ForeignFunctionItem:
		return fnSignature(name, &k.Function), true
	case *clean.MethodItem:
		return fnSignature(name, &k.Function), true
	case *clean.TyMethodItem:
		return fnSignature(name, &k.Function), true
	case *clean.StaticItem:
		mut := ""
		if k.Static.Mutability == hir.Mutable {
			mut = "mut "
		}
		return fmt.Sprintf("static %s%s: %s", mut, name, typeString(k.Static.Type)), true
	case *clean.ConstantItem:
		return fmt.Sprintf("const %s: %s", name, typeString(k.Constant.Type)), true
	case *clean.TypedefItem:
		return fmt.Sprintf("type %s = %s", name, typeString(k.Typedef.Type)), true
	case *clean.AssocConstItem:
		return fmt.Sprintf("const %s: %s", name, typeString(k.Type)), true
	case *clean.AssocTypeItem:
		if k.Default != nil {
			return fmt.Sprintf("type %s = %s", name, typeString(k.Default)), true
		}
		return fmt.Sprintf("type %s", name), true
	}
	return "", false
}

func fnSignature(name string, fn *clean.Function) string {
	var b strings.Builder
	if fn.Header.Constness {
		b.WriteString("const ")
	}
	if fn.Header.Asyncness {
		b.WriteString("async ")
	}
	if fn.Header.Unsafety == hir.Unsafe {
		b.WriteString("unsafe ")
	}
	if fn.Header.Abi != "" && fn.Header.Abi != "Rust" {
		fmt.Fprintf(&b, "extern %q ", fn.Header.Abi)
	}
	b.WriteString("fn ")
	b.WriteString(name)
	b.WriteByte('(')
	for i := range fn.Decl.Inputs.Values {
		arg := &fn.Decl.Inputs.Values[i]
		if i > 0 {
			b.WriteString(", ")
		}
		if self, ok := arg.ToSelf(); ok && i == 0 {
			b.WriteString(selfString(self))
			continue
		}
		if arg.Name != "" {
			b.WriteString(arg.Name)
			b.WriteString(": ")
		}
		b.WriteString(typeString(arg.Type))
	}
	if fn.Decl.CVariadic {
		if len(fn.Decl.Inputs.Values) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteByte(')')
	if ret, ok := fn.Decl.Output.(clean.Return); ok {
		b.WriteString(" -> ")
		b.WriteString(typeString(ret.Type))
	}
	return b.String()
}

func selfString(self clean.SelfTy) string {
	switch s := self.(type) {
	case clean.SelfValue:
		return "self"
	case clean.SelfBorrowed:
		var b strings.Builder
		b.WriteByte('&')
		if s.Lifetime != nil {
			b.WriteString(string(*s.Lifetime))
			b.WriteByte(' ')
		}
		if s.Mutability == hir.Mutable {
			b.WriteString("mut ")
		}
		b.WriteString("self")
		return b.String()
	case clean.SelfExplicit:
		return "self: " + typeString(s.Type)
	}
	return "self"
}

// typeString renders a type for display in markdown. It is intentionally
// approximate; the link model, not this string, carries identity.
func typeString(t clean.Type) string {
	switch ty := t.(type) {
	case nil:
		return "_"
	case *clean.ResolvedPath:
		var b strings.Builder
		b.WriteString(ty.Path.WholeName())
		if args, ok := clean.TypeGenerics(t); ok && len(args) > 0 {
			parts := make([]string, len(args))
			for i, arg := range args {
				parts[i] = typeString(arg)
			}
			fmt.Fprintf(&b, "<%s>", strings.Join(parts, ", "))
		}
		return b.String()
	case *clean.Generic:
		return ty.Name
	case *clean.Primitive:
		return ty.Type.AsSym()
	case *clean.Tuple:
		parts := make([]string, len(ty.Types))
		for i, inner := range ty.Types {
			parts[i] = typeString(inner)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *clean.Slice:
		return "[" + typeString(ty.Elem) + "]"
	case *clean.Array:
		return fmt.Sprintf("[%s; %s]", typeString(ty.Elem), ty.Len)
	case *clean.Never:
		return "!"
	case *clean.RawPointer:
		if ty.Mutability == hir.Mutable {
			return "*mut " + typeString(ty.Elem)
		}
		return "*const " + typeString(ty.Elem)
	case *clean.BorrowedRef:
		var b strings.Builder
		b.WriteByte('&')
		if ty.Lifetime != nil {
			b.WriteString(string(*ty.Lifetime))
			b.WriteByte(' ')
		}
		if ty.Mutability == hir.Mutable {
			b.WriteString("mut ")
		}
		b.WriteString(typeString(ty.Elem))
		return b.String()
	case *clean.QPath:
		return fmt.Sprintf("<%s as %s>::%s", typeString(ty.SelfType), typeString(ty.Trait), ty.Name)
	case *clean.Infer:
		return "_"
	case *clean.ImplTrait:
		parts := make([]string, 0, len(ty.Bounds))
		for _, bound := range ty.Bounds {
			if bt, ok := clean.BoundTraitType(bound); ok {
				parts = append(parts, typeString(bt))
			} else if out, ok := bound.(clean.Outlives); ok {
				parts = append(parts, string(out.Lifetime))
			}
		}
		return "impl " + strings.Join(parts, " + ")
	case *clean.BareFunction:
		return "fn" + fnArgsString(&ty.Decl.Decl)
	}
	return "_"
}

func fnArgsString(decl *clean.FnDecl) string {
	parts := make([]string, len(decl.Inputs.Values))
	for i := range decl.Inputs.Values {
		parts[i] = typeString(decl.Inputs.Values[i].Type)
	}
	out := "(" + strings.Join(parts, ", ") + ")"
	if ret, ok := decl.Output.(clean.Return); ok {
		out += " -> " + typeString(ret.Type)
	}
	return out
}
