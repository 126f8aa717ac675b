package hir

// IntTy is a signed integer tag as the compiler's type layer knows it.
type IntTy int

const (
	IntIsize IntTy = iota
	IntI8
	IntI16
	IntI32
	IntI64
	IntI128
)

// UintTy is an unsigned integer tag.
type UintTy int

const (
	UintUsize UintTy = iota
	UintU8
	UintU16
	UintU32
	UintU64
	UintU128
)

// FloatTy is a floating-point tag.
type FloatTy int

const (
	FloatF32 FloatTy = iota
	FloatF64
)

// PrimTyKind discriminates the compiler-level primitive type tag.
type PrimTyKind int

const (
	PrimInt PrimTyKind = iota
	PrimUint
	PrimFloat
	PrimStr
	PrimBool
	PrimChar
)

// PrimTy is the compiler's own primitive type tag. It only covers the
// path-named primitives; compound primitives (slices, tuples, ...) are not
// paths and have no PrimTy.
type PrimTy struct {
	Kind  PrimTyKind
	Int   IntTy
	Uint  UintTy
	Float FloatTy
}

func PrimTyInt(t IntTy) PrimTy     { return PrimTy{Kind: PrimInt, Int: t} }
func PrimTyUint(t UintTy) PrimTy   { return PrimTy{Kind: PrimUint, Uint: t} }
func PrimTyFloat(t FloatTy) PrimTy { return PrimTy{Kind: PrimFloat, Float: t} }

var (
	PrimTyStr  = PrimTy{Kind: PrimStr}
	PrimTyBool = PrimTy{Kind: PrimBool}
	PrimTyChar = PrimTy{Kind: PrimChar}
)
