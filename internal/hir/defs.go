// Package hir is the read-only surface of the compiler core that the clean
// pass consumes. Everything here is an owned snapshot: no handle borrows
// compiler state, and values stay valid for the life of the process.
package hir

import "fmt"

// CrateNum identifies a compilation unit. The crate being documented is
// always LocalCrate.
type CrateNum uint32

// LocalCrate is the crate currently being documented.
const LocalCrate CrateNum = 0

// DefIndex is the per-crate index of a definition.
type DefIndex uint32

// DefID is the stable identifier of a compiler definition: a crate plus an
// index within that crate.
type DefID struct {
	Krate CrateNum
	Index DefIndex
}

func (d DefID) String() string {
	return fmt.Sprintf("DefID(%d:%d)", d.Krate, d.Index)
}

// IsLocal reports whether the definition belongs to the crate being
// documented.
func (d DefID) IsLocal() bool {
	return d.Krate == LocalCrate
}

// Loc is a resolved source position.
type Loc struct {
	Line int
	Col  int
}

// Span is a source region. The zero value is the dummy span.
type Span struct {
	File string
	Lo   Loc
	Hi   Loc
}

// IsDummy reports whether the span carries no position information.
func (s Span) IsDummy() bool {
	return s == Span{}
}

// DefKind categorizes a definition the way the compiler does.
type DefKind int

const (
	DefKindMod DefKind = iota
	DefKindStruct
	DefKindUnion
	DefKindEnum
	DefKindVariant
	DefKindTrait
	DefKindTyAlias
	DefKindForeignTy
	DefKindTraitAlias
	DefKindAssocTy
	DefKindTyParam
	DefKindFn
	DefKindConst
	DefKindConstParam
	DefKindStatic
	DefKindCtor
	DefKindAssocFn
	DefKindAssocConst
	DefKindMacro
	DefKindExternCrate
	DefKindUse
	DefKindForeignMod
	DefKindAnonConst
	DefKindOpaqueTy
	DefKindField
	DefKindLifetimeParam
	DefKindGlobalAsm
	DefKindImpl
	DefKindClosure
	DefKindGenerator
)

// Mutability of a place or binding.
type Mutability int

const (
	Immutable Mutability = iota
	Mutable
)

// Unsafety of a function or trait.
type Unsafety int

const (
	Safe Unsafety = iota
	Unsafe
)

// Defaultness records whether an impl item has a value and whether that
// value may still be overridden by specialization.
type Defaultness struct {
	HasValue bool
	IsFinal  bool
}

// VisibilityKind is the resolved visibility category of a definition.
type VisibilityKind int

const (
	VisPublic VisibilityKind = iota
	VisInherited
	VisRestricted
)

// Visibility is a definition's resolved visibility. Restricted carries the
// module the visibility is restricted to.
type Visibility struct {
	Kind       VisibilityKind
	Restricted DefID
}

// IsPublic reports whether the visibility is `pub`.
func (v Visibility) IsPublic() bool {
	return v.Kind == VisPublic
}
