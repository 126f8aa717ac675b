package clean

import "github.com/oxidoc/oxidoc/internal/hir"

// Type is a representation of a type suitable for hyperlinking purposes.
// It is a deliberately lossy projection: mutability through boxes and most
// sugar are discarded, because link generation doesn't need them.
//
// The variant set is closed; every consumer switches exhaustively.
type Type interface {
	isType()
}

// ResolvedPath is a struct/enum/trait reference: most things that resolve
// through a path.
type ResolvedPath struct {
	Path       Path
	ParamNames []GenericBound // non-nil only for `dyn Trait + Send` style lists
	Did        hir.DefID
	// IsGeneric is true for `T::Name` associated-type style paths.
	IsGeneric bool
}

// Generic is a bare generic parameter reference, kept symbolic so consumers
// don't go looking for a definition that doesn't exist.
type Generic struct {
	Name string
}

// Primitive is a fixed source-level primitive.
type Primitive struct {
	Type PrimitiveType
}

// BareFunction is an `extern "ABI" fn` pointer type.
type BareFunction struct {
	Decl *BareFunctionDecl
}

// Tuple is `(A, B, ...)`; the empty tuple is unit.
type Tuple struct {
	Types []Type
}

// Slice is `[T]`.
type Slice struct {
	Elem Type
}

// Array is `[T; N]`; Len is the textual length expression.
type Array struct {
	Elem Type
	Len  string
}

// Never is `!`.
type Never struct{}

// RawPointer is `*const T` / `*mut T`.
type RawPointer struct {
	Mutability hir.Mutability
	Elem       Type
}

// BorrowedRef is `&'a mut T`.
type BorrowedRef struct {
	Lifetime   *Lifetime // nil when elided
	Mutability hir.Mutability
	Elem       Type
}

// QPath is an associated-type projection: `<Self as Trait>::Name`.
type QPath struct {
	Name     string
	SelfType Type
	Trait    Type
}

// Infer is the `_` placeholder.
type Infer struct{}

// ImplTrait is an existential `impl TraitA + TraitB` bound set.
type ImplTrait struct {
	Bounds []GenericBound
}

func (*ResolvedPath) isType() {}
func (*Generic) isType()      {}
func (*Primitive) isType()    {}
func (*BareFunction) isType() {}
func (*Tuple) isType()        {}
func (*Slice) isType()        {}
func (*Array) isType()        {}
func (*Never) isType()        {}
func (*RawPointer) isType()   {}
func (*BorrowedRef) isType()  {}
func (*QPath) isType()        {}
func (*Infer) isType()        {}
func (*ImplTrait) isType()    {}

// TypePrimitive returns the primitive a type renders as, unwrapping one
// level of borrow the way the original does.
func TypePrimitive(t Type) (PrimitiveType, bool) {
	switch ty := t.(type) {
	case *Primitive:
		return ty.Type, true
	case *Slice:
		return PrimitiveSlice, true
	case *Array:
		return PrimitiveArray, true
	case *Tuple:
		if len(ty.Types) == 0 {
			return PrimitiveUnit, true
		}
		return PrimitiveTuple, true
	case *RawPointer:
		return PrimitiveRawPointer, true
	case *BareFunction:
		return PrimitiveFn, true
	case *Never:
		return PrimitiveNever, true
	case *BorrowedRef:
		switch inner := ty.Elem.(type) {
		case *Primitive:
			return inner.Type, true
		case *Slice:
			return PrimitiveSlice, true
		case *Array:
			return PrimitiveArray, true
		case *Generic:
			return PrimitiveReference, true
		}
	}
	return 0, false
}

// IsGenericPath reports whether the type is a `T::Name` style path.
func IsGenericPath(t Type) bool {
	rp, ok := t.(*ResolvedPath)
	return ok && rp.IsGeneric
}

// IsSelfType reports whether the type is the bare `Self` parameter.
func IsSelfType(t Type) bool {
	g, ok := t.(*Generic)
	return ok && g.Name == kwSelfUpper
}

// IsFullGeneric reports whether the type is a bare generic parameter.
func IsFullGeneric(t Type) bool {
	_, ok := t.(*Generic)
	return ok
}

// IsPrimitiveType reports whether the type is a primitive, looking through
// references and raw pointers.
func IsPrimitiveType(t Type) bool {
	switch ty := t.(type) {
	case *Primitive:
		return true
	case *BorrowedRef:
		return IsPrimitiveType(ty.Elem)
	case *RawPointer:
		return IsPrimitiveType(ty.Elem)
	}
	return false
}

// TypeGenerics projects the type arguments out of a resolved path's last
// segment.
func TypeGenerics(t Type) ([]Type, bool) {
	rp, ok := t.(*ResolvedPath)
	if !ok || len(rp.Path.Segments) == 0 {
		return nil, false
	}
	seg := rp.Path.Segments[len(rp.Path.Segments)-1]
	ab, ok := seg.Args.(AngleBracketed)
	if !ok {
		return nil, false
	}
	var out []Type
	for _, arg := range ab.Args {
		if ta, ok := arg.(TypeArg); ok {
			out = append(out, ta.Type)
		}
	}
	return out, true
}

// TypeBindings projects the associated-type bindings out of a resolved
// path's last segment.
func TypeBindings(t Type) ([]TypeBinding, bool) {
	rp, ok := t.(*ResolvedPath)
	if !ok || len(rp.Path.Segments) == 0 {
		return nil, false
	}
	seg := rp.Path.Segments[len(rp.Path.Segments)-1]
	ab, ok := seg.Args.(AngleBracketed)
	if !ok {
		return nil, false
	}
	return ab.Bindings, true
}

// Projection decomposes an associated-type projection into its self type,
// the trait's identity, and the associated name.
func Projection(t Type) (self Type, trait hir.DefID, name string, ok bool) {
	qp, isQPath := t.(*QPath)
	if !isQPath {
		return nil, hir.DefID{}, "", false
	}
	rp, isPath := qp.Trait.(*ResolvedPath)
	if !isPath {
		return nil, hir.DefID{}, "", false
	}
	return qp.SelfType, rp.Did, qp.Name, true
}

// PrimitiveLookup locates the definition that documents a primitive. The
// render cache implements it; it is threaded explicitly instead of stored
// as a back-pointer.
type PrimitiveLookup interface {
	PrimitiveLocation(PrimitiveType) (hir.DefID, bool)
}

// TypeDefID returns the identity of the definition the type links to,
// excluding primitives (they need a cache; see TypeDefIDFull).
func TypeDefID(t Type) (hir.DefID, bool) {
	return innerDefID(t, nil)
}

// TypeDefIDFull is TypeDefID but resolves primitives through the cache.
func TypeDefIDFull(t Type, cache PrimitiveLookup) (hir.DefID, bool) {
	return innerDefID(t, cache)
}

func innerDefID(t Type, cache PrimitiveLookup) (hir.DefID, bool) {
	var prim PrimitiveType
	switch ty := t.(type) {
	case *ResolvedPath:
		return ty.Did, true
	case *Primitive:
		if cache == nil {
			return hir.DefID{}, false
		}
		return cache.PrimitiveLocation(ty.Type)
	case *BorrowedRef:
		if _, isGeneric := ty.Elem.(*Generic); isGeneric {
			prim = PrimitiveReference
		} else {
			return innerDefID(ty.Elem, cache)
		}
	case *Tuple:
		if len(ty.Types) == 0 {
			prim = PrimitiveUnit
		} else {
			prim = PrimitiveTuple
		}
	case *BareFunction:
		prim = PrimitiveFn
	case *Never:
		prim = PrimitiveNever
	case *Slice:
		prim = PrimitiveSlice
	case *Array:
		prim = PrimitiveArray
	case *RawPointer:
		prim = PrimitiveRawPointer
	case *QPath:
		return innerDefID(ty.SelfType, cache)
	default: // Generic, Infer, ImplTrait
		return hir.DefID{}, false
	}
	if cache == nil {
		return hir.DefID{}, false
	}
	return cache.PrimitiveLocation(prim)
}
