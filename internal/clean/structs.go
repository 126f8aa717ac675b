package clean

import "github.com/oxidoc/oxidoc/internal/hir"

// Module is a module's documented contents.
type Module struct {
	Items   []Item
	IsCrate bool
}

// Struct is a struct definition.
type Struct struct {
	CtorKind       CtorKind
	Generics       Generics
	Fields         []Item
	FieldsStripped bool
}

// Union is a union definition.
type Union struct {
	Generics       Generics
	Fields         []Item
	FieldsStripped bool
}

// VariantStruct is the struct-shaped body of an enum variant. It is a more
// limited form of Struct: variants have no generics of their own.
type VariantStruct struct {
	CtorKind       CtorKind
	Fields         []Item
	FieldsStripped bool
}

// Enum is an enum definition.
type Enum struct {
	Variants         []Item
	Generics         Generics
	VariantsStripped bool
}

// Variant is the shape of one enum variant.
type Variant interface {
	isVariant()
}

// CLikeVariant is a unit variant.
type CLikeVariant struct{}

// TupleVariant is a tuple variant with its field types.
type TupleVariant struct {
	Types []Type
}

// StructVariant is a struct-shaped variant.
type StructVariant struct {
	Struct VariantStruct
}

func (CLikeVariant) isVariant()  {}
func (TupleVariant) isVariant()  {}
func (StructVariant) isVariant() {}

// CtorKind is the constructor shape of a struct or variant.
type CtorKind int

const (
	CtorFn      CtorKind = iota // tuple struct
	CtorConst                   // unit struct
	CtorFictive                 // plain braced struct
)

// Trait is a trait definition.
type Trait struct {
	Unsafety hir.Unsafety
	Items    []Item
	Generics Generics
	Bounds   []GenericBound
	IsAuto   bool
}

// TraitAlias is a `trait A = B + C` alias.
type TraitAlias struct {
	Generics Generics
	Bounds   []GenericBound
}

// Typedef is a type alias. ItemType always holds the final de-aliased type
// when known; Type may still be an intermediate alias when it came from
// source rather than metadata.
type Typedef struct {
	Type     Type
	Generics Generics
	ItemType Type // nil when Type is already final
}

// TypedefDefID returns the identity of the aliased type's definition.
func (t Typedef) TypedefDefID() (hir.DefID, bool) {
	return TypeDefID(t.Type)
}

// OpaqueTy is an `impl Trait` in type-alias position.
type OpaqueTy struct {
	Bounds   []GenericBound
	Generics Generics
}

// BareFunctionDecl is the payload of a function-pointer type.
type BareFunctionDecl struct {
	Unsafety      hir.Unsafety
	GenericParams []GenericParamDef
	Decl          FnDecl
	Abi           string
}

// Static is a `static` item.
type Static struct {
	Type       Type
	Mutability hir.Mutability
	// Expr is the textual initializer, empty for external statics whose
	// body is not available.
	Expr string
}

// Constant is a `const` item or const generic argument.
type Constant struct {
	Type      Type
	Expr      string
	Value     string // evaluated form, when the compiler provides one
	IsLiteral bool
}

// Impl is an impl block.
type Impl struct {
	Unsafety             hir.Unsafety
	Generics             Generics
	ProvidedTraitMethods map[string]struct{}
	Trait                Type // nil for inherent impls
	For                  Type
	Items                []Item
	NegativePolarity     bool
	Synthetic            bool
	BlanketImpl          Type // nil unless this is a synthesized blanket impl
}

// Import is a `use` item.
type Import struct {
	Kind   ImportKind
	Source ImportSource
	// ShouldBeDisplayed is false for imports rendered inline at their
	// target instead of as a `use` line.
	ShouldBeDisplayed bool
}

// NewSimpleImport builds a `use path as name;` import.
func NewSimpleImport(name string, source ImportSource, shouldBeDisplayed bool) Import {
	return Import{Kind: ImportKind{Glob: false, Name: name}, Source: source, ShouldBeDisplayed: shouldBeDisplayed}
}

// NewGlobImport builds a `use path::*;` import.
func NewGlobImport(source ImportSource, shouldBeDisplayed bool) Import {
	return Import{Kind: ImportKind{Glob: true}, Source: source, ShouldBeDisplayed: shouldBeDisplayed}
}

// ImportKind is either a simple rename or a glob.
type ImportKind struct {
	Glob bool
	Name string // populated for simple imports
}

// ImportSource is what an import points at.
type ImportSource struct {
	Path Path
	Did  *hir.DefID
}

// Macro is a `macro_rules!` definition.
type Macro struct {
	Source       string
	ImportedFrom string // crate name when re-exported from elsewhere
}

// MacroKind is the invocation style of a procedural macro.
type MacroKind int

const (
	MacroBang MacroKind = iota
	MacroAttr
	MacroDerive
)

// ProcMacro is a procedural macro definition.
type ProcMacro struct {
	Kind    MacroKind
	Helpers []string
}

// TraitWithExtraInfo wraps a trait with information the documentation layer
// adds on top of the compiler's view.
type TraitWithExtraInfo struct {
	Trait       Trait
	IsSpotlight bool
}
