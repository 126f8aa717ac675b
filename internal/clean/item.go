package clean

import (
	"strings"

	"github.com/oxidoc/oxidoc/internal/hir"
)

// Item is anything with a source location and a set of attributes and,
// optionally, a name. That is, anything that can be documented. It is a
// strict superset of the source language's notion of an item.
type Item struct {
	Source Span
	// Name is nil for things that have none, such as impls.
	Name       *string
	Attrs      *Attributes
	Visibility hir.Visibility
	Kind       ItemKind
	DefID      hir.DefID
}

// NewItemFromDefID builds an item, deriving its attributes, visibility, and
// span from the compiler's tables. The span query lies about functions when
// asked for external items (it covers only the signature), so local items
// take the full-body span instead.
func NewItemFromDefID(cx *Context, defID hir.DefID, name *string, kind ItemKind) Item {
	attrs := AttributesFromAST(cx.Diags, cx.Tcx.Attrs(defID), nil)
	return NewItemWithAttrs(cx, defID, name, kind, attrs)
}

// NewItemWithAttrs is NewItemFromDefID with pre-aggregated attributes, for
// callers that merged in re-export documentation.
func NewItemWithAttrs(cx *Context, defID hir.DefID, name *string, kind ItemKind, attrs *Attributes) Item {
	var source hir.Span
	if defID.IsLocal() {
		source = cx.Tcx.SpanWithBody(defID)
	} else {
		source = cx.Tcx.DefSpan(defID)
	}
	return Item{
		Source:     SpanFromHir(source),
		Name:       name,
		Attrs:      attrs,
		Visibility: cx.Tcx.Visibility(defID),
		Kind:       kind,
		DefID:      defID,
	}
}

// Stability looks up the item's stability; fake items have none.
func (i *Item) Stability(cx *Context) *hir.Stability {
	if i.IsFake(cx) {
		return nil
	}
	return cx.Tcx.LookupStability(i.DefID)
}

// ConstStability looks up the item's const-eval stability; fake items have
// none.
func (i *Item) ConstStability(cx *Context) *hir.ConstStability {
	if i.IsFake(cx) {
		return nil
	}
	return cx.Tcx.LookupConstStability(i.DefID)
}

// Deprecation looks up the item's deprecation record; fake items have none.
func (i *Item) Deprecation(cx *Context) *hir.Deprecation {
	if i.IsFake(cx) {
		return nil
	}
	return cx.Tcx.LookupDeprecation(i.DefID)
}

// DocValue returns the item's leading doc block as one string.
func (i *Item) DocValue() (string, bool) {
	return i.Attrs.DocValue()
}

// CollapsedDocValue returns all of the item's documentation as one string.
func (i *Item) CollapsedDocValue() (string, bool) {
	return i.Attrs.CollapsedDocValue()
}

// ItemType returns the rendering-level category of the item.
func (i *Item) ItemType() ItemType {
	return ItemTypeOf(i.Kind)
}

// IsCrate reports whether the item is the crate root module, stripped or
// not.
func (i *Item) IsCrate() bool {
	switch k := i.Kind.(type) {
	case *ModuleItem:
		return k.Module.IsCrate
	case *StrippedItem:
		if m, ok := k.Kind.(*ModuleItem); ok {
			return m.Module.IsCrate
		}
	}
	return false
}

func (i *Item) IsMod() bool            { return i.ItemType() == ItemTypeModule }
func (i *Item) IsTrait() bool          { return i.ItemType() == ItemTypeTrait }
func (i *Item) IsStruct() bool         { return i.ItemType() == ItemTypeStruct }
func (i *Item) IsEnum() bool           { return i.ItemType() == ItemTypeEnum }
func (i *Item) IsVariant() bool        { return i.ItemType() == ItemTypeVariant }
func (i *Item) IsAssociatedType() bool { return i.ItemType() == ItemTypeAssocType }
func (i *Item) IsAssociatedConst() bool {
	return i.ItemType() == ItemTypeAssocConst
}
func (i *Item) IsMethod() bool      { return i.ItemType() == ItemTypeMethod }
func (i *Item) IsTyMethod() bool    { return i.ItemType() == ItemTypeTyMethod }
func (i *Item) IsTypedef() bool     { return i.ItemType() == ItemTypeTypedef }
func (i *Item) IsPrimitive() bool   { return i.ItemType() == ItemTypePrimitive }
func (i *Item) IsUnion() bool       { return i.ItemType() == ItemTypeUnion }
func (i *Item) IsImport() bool      { return i.ItemType() == ItemTypeImport }
func (i *Item) IsExternCrate() bool { return i.ItemType() == ItemTypeExternCrate }
func (i *Item) IsKeyword() bool     { return i.ItemType() == ItemTypeKeyword }

// IsStripped reports whether the item was removed by a stripping pass, or is
// an import that renders inline instead of as a `use` line.
func (i *Item) IsStripped() bool {
	switch k := i.Kind.(type) {
	case *StrippedItem:
		return true
	case *ImportItem:
		return !k.Import.ShouldBeDisplayed
	}
	return false
}

// HasStrippedFields reports whether any of the item's fields were stripped;
// the second return is false for kinds that have no fields.
func (i *Item) HasStrippedFields() (bool, bool) {
	switch k := i.Kind.(type) {
	case *StructItem:
		return k.Struct.FieldsStripped, true
	case *UnionItem:
		return k.Union.FieldsStripped, true
	case *VariantItem:
		if sv, ok := k.Variant.(StructVariant); ok {
			return sv.Struct.FieldsStripped, true
		}
	}
	return false, false
}

// StabilityClass returns the CSS classes describing the item's stability,
// or false when no class applies.
func (i *Item) StabilityClass(cx *Context) (string, bool) {
	s := i.Stability(cx)
	if s == nil {
		return "", false
	}
	var classes []string
	if s.IsUnstable() {
		classes = append(classes, "unstable")
	}
	if i.Deprecation(cx) != nil {
		classes = append(classes, "deprecated")
	}
	if len(classes) == 0 {
		return "", false
	}
	return strings.Join(classes, " "), true
}

// StableSince returns the version the item was stabilized in.
func (i *Item) StableSince(cx *Context) (string, bool) {
	s := i.Stability(cx)
	if s == nil || s.Level != hir.LevelStable {
		return "", false
	}
	return s.Since, true
}

// ConstStableSince returns the version the item became usable in const
// contexts.
func (i *Item) ConstStableSince(cx *Context) (string, bool) {
	s := i.ConstStability(cx)
	if s == nil || s.Level != hir.LevelStable {
		return "", false
	}
	return s.Since, true
}

// IsNonExhaustive reports whether the item carries #[non_exhaustive].
func (i *Item) IsNonExhaustive() bool {
	for idx := range i.Attrs.OtherAttrs {
		if i.Attrs.OtherAttrs[idx].HasName("non_exhaustive") {
			return true
		}
	}
	return false
}

// IsDefault reports whether the item is a specializable method with a
// provided body.
func (i *Item) IsDefault() bool {
	if m, ok := i.Kind.(*MethodItem); ok && m.Defaultness != nil {
		return m.Defaultness.HasValue && !m.Defaultness.IsFinal
	}
	return false
}

// IsFake reports whether the item was synthesized by the documentation
// pass rather than pulled from a compilation unit.
func (i *Item) IsFake(cx *Context) bool {
	return cx.Defs.IsFake(i.DefID)
}
