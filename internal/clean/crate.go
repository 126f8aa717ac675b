package clean

import "github.com/oxidoc/oxidoc/internal/hir"

// Crate is the fully cleaned documentation tree for one compilation unit.
type Crate struct {
	Name   string
	Src    string
	Module *Item
	// Externs lists the dependency crates in load order.
	Externs []ExternEntry
	// Primitives maps the definitions that document built-in types.
	Primitives []PrimitiveEntry
	// ExternalTraits accumulates traits pulled in from other crates so the
	// stripping passes can filter them alongside local items.
	ExternalTraits map[hir.DefID]TraitWithExtraInfo
	// Collapsed is set once doc fragments have been merged by the collapse
	// pass.
	Collapsed bool
}

// ExternEntry pairs a dependency crate number with its metadata.
type ExternEntry struct {
	Num   hir.CrateNum
	Crate ExternalCrate
}

// PrimitiveEntry records which definition carries a primitive's docs.
type PrimitiveEntry struct {
	Did       hir.DefID
	Primitive PrimitiveType
}

// KeywordEntry records which definition carries a keyword's docs.
type KeywordEntry struct {
	Did     hir.DefID
	Keyword string
}

// ExternalCrate is the cleaned view of a dependency crate.
type ExternalCrate struct {
	Name       string
	Src        string
	Attrs      *Attributes
	Primitives []PrimitiveEntry
	Keywords   []KeywordEntry
}
