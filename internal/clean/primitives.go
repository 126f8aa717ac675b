package clean

import (
	"fmt"
	"sync"

	"github.com/oxidoc/oxidoc/internal/hir"
)

// PrimitiveType is the documentation-level primitive tag. It has to be
// wider than the compiler's own primitive tag because it also names the
// compound primitives that aren't paths: slices, arrays, tuples, unit,
// pointers, references, fn pointers, and never.
type PrimitiveType int

const (
	PrimitiveIsize PrimitiveType = iota
	PrimitiveI8
	PrimitiveI16
	PrimitiveI32
	PrimitiveI64
	PrimitiveI128
	PrimitiveUsize
	PrimitiveU8
	PrimitiveU16
	PrimitiveU32
	PrimitiveU64
	PrimitiveU128
	PrimitiveF32
	PrimitiveF64
	PrimitiveChar
	PrimitiveBool
	PrimitiveStr
	PrimitiveSlice
	PrimitiveArray
	PrimitiveTuple
	PrimitiveUnit
	PrimitiveRawPointer
	PrimitiveReference
	PrimitiveFn
	PrimitiveNever

	numPrimitives
)

// AllPrimitives lists every primitive tag, in declaration order.
func AllPrimitives() []PrimitiveType {
	all := make([]PrimitiveType, numPrimitives)
	for i := range all {
		all[i] = PrimitiveType(i)
	}
	return all
}

// PrimitiveFromIntTy converts a compiler signed-integer tag.
func PrimitiveFromIntTy(t hir.IntTy) PrimitiveType {
	switch t {
	case hir.IntIsize:
		return PrimitiveIsize
	case hir.IntI8:
		return PrimitiveI8
	case hir.IntI16:
		return PrimitiveI16
	case hir.IntI32:
		return PrimitiveI32
	case hir.IntI64:
		return PrimitiveI64
	case hir.IntI128:
		return PrimitiveI128
	}
	panic(fmt.Sprintf("clean: unknown int type tag %d", t))
}

// PrimitiveFromUintTy converts a compiler unsigned-integer tag.
func PrimitiveFromUintTy(t hir.UintTy) PrimitiveType {
	switch t {
	case hir.UintUsize:
		return PrimitiveUsize
	case hir.UintU8:
		return PrimitiveU8
	case hir.UintU16:
		return PrimitiveU16
	case hir.UintU32:
		return PrimitiveU32
	case hir.UintU64:
		return PrimitiveU64
	case hir.UintU128:
		return PrimitiveU128
	}
	panic(fmt.Sprintf("clean: unknown uint type tag %d", t))
}

// PrimitiveFromFloatTy converts a compiler float tag.
func PrimitiveFromFloatTy(t hir.FloatTy) PrimitiveType {
	switch t {
	case hir.FloatF32:
		return PrimitiveF32
	case hir.FloatF64:
		return PrimitiveF64
	}
	panic(fmt.Sprintf("clean: unknown float type tag %d", t))
}

// PrimitiveFromHir converts the compiler's path-primitive tag.
func PrimitiveFromHir(prim hir.PrimTy) PrimitiveType {
	switch prim.Kind {
	case hir.PrimInt:
		return PrimitiveFromIntTy(prim.Int)
	case hir.PrimUint:
		return PrimitiveFromUintTy(prim.Uint)
	case hir.PrimFloat:
		return PrimitiveFromFloatTy(prim.Float)
	case hir.PrimStr:
		return PrimitiveStr
	case hir.PrimBool:
		return PrimitiveBool
	case hir.PrimChar:
		return PrimitiveChar
	}
	panic(fmt.Sprintf("clean: unknown primitive tag kind %d", prim.Kind))
}

var primitiveNames = map[PrimitiveType]string{
	PrimitiveIsize:      "isize",
	PrimitiveI8:         "i8",
	PrimitiveI16:        "i16",
	PrimitiveI32:        "i32",
	PrimitiveI64:        "i64",
	PrimitiveI128:       "i128",
	PrimitiveUsize:      "usize",
	PrimitiveU8:         "u8",
	PrimitiveU16:        "u16",
	PrimitiveU32:        "u32",
	PrimitiveU64:        "u64",
	PrimitiveU128:       "u128",
	PrimitiveF32:        "f32",
	PrimitiveF64:        "f64",
	PrimitiveStr:        "str",
	PrimitiveBool:       "bool",
	PrimitiveChar:       "char",
	PrimitiveArray:      "array",
	PrimitiveSlice:      "slice",
	PrimitiveTuple:      "tuple",
	PrimitiveUnit:       "unit",
	PrimitiveRawPointer: "pointer",
	PrimitiveReference:  "reference",
	PrimitiveFn:         "fn",
	PrimitiveNever:      "never",
}

var primitivesByName = func() map[string]PrimitiveType {
	m := make(map[string]PrimitiveType, len(primitiveNames))
	for p, name := range primitiveNames {
		m[name] = p
	}
	return m
}()

// AsSym returns the primitive's symbolic name.
func (p PrimitiveType) AsSym() string {
	name, ok := primitiveNames[p]
	if !ok {
		panic(fmt.Sprintf("clean: unknown primitive type %d", p))
	}
	return name
}

// String is AsSym.
func (p PrimitiveType) String() string { return p.AsSym() }

// ToURLStr returns the name used in primitive documentation page URLs.
func (p PrimitiveType) ToURLStr() string { return p.AsSym() }

// PrimitiveFromSymbol resolves a symbolic name back to its tag.
func PrimitiveFromSymbol(s string) (PrimitiveType, bool) {
	p, ok := primitivesByName[s]
	return p, ok
}

// ImplCache is the process-wide table of inherent-impl locations per
// primitive, at most four per tag. It is computed at most once per process
// from the lang-item registry and immutable afterwards; initialization is
// exactly-once even when crates are cleaned in parallel.
type ImplCache struct {
	once  sync.Once
	table map[PrimitiveType][]hir.DefID
}

// NewImplCache returns an uninitialized cache. The first call to All or
// Impls computes the table.
func NewImplCache() *ImplCache {
	return &ImplCache{}
}

// All returns the full primitive-to-impls table, computing it on first use.
func (c *ImplCache) All(lang hir.LangItems) map[PrimitiveType][]hir.DefID {
	c.once.Do(func() {
		single := func(item hir.LangItem) []hir.DefID {
			if id, ok := lang.Get(item); ok {
				return []hir.DefID{id}
			}
			return nil
		}
		several := func(items ...hir.LangItem) []hir.DefID {
			var out []hir.DefID
			for _, item := range items {
				if id, ok := lang.Get(item); ok {
					out = append(out, id)
				}
			}
			return out
		}

		c.table = map[PrimitiveType][]hir.DefID{
			PrimitiveIsize:      single(hir.LangIsizeImpl),
			PrimitiveI8:         single(hir.LangI8Impl),
			PrimitiveI16:        single(hir.LangI16Impl),
			PrimitiveI32:        single(hir.LangI32Impl),
			PrimitiveI64:        single(hir.LangI64Impl),
			PrimitiveI128:       single(hir.LangI128Impl),
			PrimitiveUsize:      single(hir.LangUsizeImpl),
			PrimitiveU8:         single(hir.LangU8Impl),
			PrimitiveU16:        single(hir.LangU16Impl),
			PrimitiveU32:        single(hir.LangU32Impl),
			PrimitiveU64:        single(hir.LangU64Impl),
			PrimitiveU128:       single(hir.LangU128Impl),
			PrimitiveF32:        several(hir.LangF32Impl, hir.LangF32RuntimeImpl),
			PrimitiveF64:        several(hir.LangF64Impl, hir.LangF64RuntimeImpl),
			PrimitiveChar:       single(hir.LangCharImpl),
			PrimitiveBool:       single(hir.LangBoolImpl),
			PrimitiveStr:        several(hir.LangStrImpl, hir.LangStrAllocImpl),
			PrimitiveSlice:      several(hir.LangSliceImpl, hir.LangSliceU8Impl, hir.LangSliceAllocImpl, hir.LangSliceU8AllocImpl),
			PrimitiveArray:      single(hir.LangArrayImpl),
			PrimitiveTuple:      {},
			PrimitiveUnit:       {},
			PrimitiveRawPointer: several(hir.LangConstPtrImpl, hir.LangMutPtrImpl, hir.LangConstSlicePtrImpl, hir.LangMutSlicePtrImpl),
			PrimitiveReference:  {},
			PrimitiveFn:         {},
			PrimitiveNever:      {},
		}
	})
	return c.table
}

// Impls returns the impl locations for one primitive. A missing table entry
// is an upstream invariant violation and panics.
func (c *ImplCache) Impls(p PrimitiveType, lang hir.LangItems) []hir.DefID {
	impls, ok := c.All(lang)[p]
	if !ok {
		panic(fmt.Sprintf("clean: missing impl table entry for primitive %q", p))
	}
	return impls
}

// TypeKind categorizes a definition at the granularity the documentation
// cares about.
type TypeKind int

const (
	TypeKindEnum TypeKind = iota
	TypeKindFunction
	TypeKindModule
	TypeKindConst
	TypeKindStatic
	TypeKindStruct
	TypeKindUnion
	TypeKindTrait
	TypeKindTypedef
	TypeKindForeign
	TypeKindMacro
	TypeKindAttr
	TypeKindDerive
	TypeKindTraitAlias
	TypeKindPrimitive
)

// TypeKindFromDefKind converts a compiler definition kind; categories the
// documentation does not distinguish collapse into TypeKindForeign.
func TypeKindFromDefKind(kind hir.DefKind) TypeKind {
	switch kind {
	case hir.DefKindEnum:
		return TypeKindEnum
	case hir.DefKindFn:
		return TypeKindFunction
	case hir.DefKindMod:
		return TypeKindModule
	case hir.DefKindConst:
		return TypeKindConst
	case hir.DefKindStatic:
		return TypeKindStatic
	case hir.DefKindStruct:
		return TypeKindStruct
	case hir.DefKindUnion:
		return TypeKindUnion
	case hir.DefKindTrait:
		return TypeKindTrait
	case hir.DefKindTyAlias:
		return TypeKindTypedef
	case hir.DefKindTraitAlias:
		return TypeKindTraitAlias
	case hir.DefKindMacro:
		return TypeKindMacro
	default:
		return TypeKindForeign
	}
}
