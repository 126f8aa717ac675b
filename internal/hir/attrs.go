package hir

// AttrStyle distinguishes outer (`///`, `#[...]`) from inner (`//!`,
// `#![...]`) attribute syntax.
type AttrStyle int

const (
	AttrOuter AttrStyle = iota
	AttrInner
)

// MetaItemKind is the shape of a parsed meta item.
type MetaItemKind int

const (
	// MetaWord is a bare name, e.g. `unix` in `cfg(unix)`.
	MetaWord MetaItemKind = iota
	// MetaList is a parenthesized list, e.g. `doc(alias("x"))`.
	MetaList
	// MetaNameValue is `name = "value"`.
	MetaNameValue
)

// MetaItem is one parsed attribute meta item.
type MetaItem struct {
	Name  string
	Kind  MetaItemKind
	List  []NestedMetaItem // populated for MetaList
	Value string           // populated for MetaNameValue
	Span  Span
}

// HasName reports whether the meta item's name matches.
func (m *MetaItem) HasName(name string) bool {
	return m != nil && m.Name == name
}

// MetaItemList returns the nested list if the item is a list.
func (m *MetaItem) MetaItemList() ([]NestedMetaItem, bool) {
	if m == nil || m.Kind != MetaList {
		return nil, false
	}
	return m.List, true
}

// ValueStr returns the string value of a name-value meta item.
func (m *MetaItem) ValueStr() (string, bool) {
	if m == nil || m.Kind != MetaNameValue {
		return "", false
	}
	return m.Value, true
}

// NestedMetaItem is either a meta item or a bare literal inside a list.
type NestedMetaItem struct {
	Meta *MetaItem
	Lit  string
	Span Span
}

// MetaItem returns the nested meta item, if this entry is one.
func (n NestedMetaItem) MetaItem() (*MetaItem, bool) {
	if n.Meta == nil {
		return nil, false
	}
	return n.Meta, true
}

// IsWord reports whether the entry is a bare-word meta item.
func (n NestedMetaItem) IsWord() bool {
	return n.Meta != nil && n.Meta.Kind == MetaWord
}

// HasName reports whether the entry is a meta item with the given name.
func (n NestedMetaItem) HasName(name string) bool {
	return n.Meta.HasName(name)
}

// ValueStr returns the string value if the entry is a name-value meta item.
func (n NestedMetaItem) ValueStr() (string, bool) {
	return n.Meta.ValueStr()
}

// MetaItemList returns the nested list if the entry is a list meta item.
func (n NestedMetaItem) MetaItemList() ([]NestedMetaItem, bool) {
	return n.Meta.MetaItemList()
}

// Attribute is one attribute occurrence on an item, in declaration order.
// ID is the positional identity used when comparing attribute lists; two
// attributes are "the same" only if they are the same occurrence.
type Attribute struct {
	ID           int
	Style        AttrStyle
	IsDocComment bool    // `///` or `//!` sugar rather than `#[doc = ...]`
	Doc          *string // raw doc text for doc comments
	Meta         *MetaItem
	Span         Span
}

// DocStr returns the documentation text carried by the attribute: the
// comment body for sugared doc comments, or the value of a `doc = "..."`
// name-value attribute.
func (a *Attribute) DocStr() (string, bool) {
	if a.IsDocComment {
		if a.Doc == nil {
			return "", false
		}
		return *a.Doc, true
	}
	if a.Meta.HasName("doc") {
		if v, ok := a.Meta.ValueStr(); ok {
			return v, true
		}
	}
	return "", false
}

// HasName reports whether the attribute's meta item has the given name.
func (a *Attribute) HasName(name string) bool {
	return a.Meta.HasName(name)
}

// MetaItemList returns the attribute's nested meta items, if it is a list
// attribute like `#[doc(...)]`.
func (a *Attribute) MetaItemList() ([]NestedMetaItem, bool) {
	return a.Meta.MetaItemList()
}
