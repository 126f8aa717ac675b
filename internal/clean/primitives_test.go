package clean

import (
	"testing"

	"github.com/oxidoc/oxidoc/internal/hir"
)

func TestPrimitiveSymbolRoundTrip(t *testing.T) {
	t.Parallel()
	for _, p := range AllPrimitives() {
		sym := p.AsSym()
		back, ok := PrimitiveFromSymbol(sym)
		if !ok || back != p {
			t.Errorf("round trip failed for %q: got %v, %v", sym, back, ok)
		}
	}
}

func TestPrimitiveFromHir(t *testing.T) {
	t.Parallel()
	tests := []struct {
		prim hir.PrimTy
		want PrimitiveType
	}{
		{hir.PrimTy{Kind: hir.PrimInt, Int: hir.IntI32}, PrimitiveI32},
		{hir.PrimTy{Kind: hir.PrimInt, Int: hir.IntIsize}, PrimitiveIsize},
		{hir.PrimTy{Kind: hir.PrimUint, Uint: hir.UintU64}, PrimitiveU64},
		{hir.PrimTy{Kind: hir.PrimFloat, Float: hir.FloatF32}, PrimitiveF32},
		{hir.PrimTy{Kind: hir.PrimStr}, PrimitiveStr},
		{hir.PrimTy{Kind: hir.PrimBool}, PrimitiveBool},
		{hir.PrimTy{Kind: hir.PrimChar}, PrimitiveChar},
	}
	for _, tt := range tests {
		if got := PrimitiveFromHir(tt.prim); got != tt.want {
			t.Errorf("PrimitiveFromHir(%+v) = %v, want %v", tt.prim, got, tt.want)
		}
	}
}

func TestTypePrimitive(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		ty   Type
		want PrimitiveType
		ok   bool
	}{
		{"primitive", &Primitive{Type: PrimitiveI32}, PrimitiveI32, true},
		{"slice", &Slice{Elem: &Generic{Name: "T"}}, PrimitiveSlice, true},
		{"array", &Array{Elem: &Generic{Name: "T"}, Len: "4"}, PrimitiveArray, true},
		{"unit", &Tuple{}, PrimitiveUnit, true},
		{"tuple", &Tuple{Types: []Type{&Never{}}}, PrimitiveTuple, true},
		{"never", &Never{}, PrimitiveNever, true},
		{"ref_to_slice", &BorrowedRef{Elem: &Slice{Elem: &Generic{Name: "T"}}}, PrimitiveSlice, true},
		{"ref_to_generic", &BorrowedRef{Elem: &Generic{Name: "T"}}, PrimitiveReference, true},
		{"resolved_path", &ResolvedPath{}, 0, false},
		{"ref_to_path", &BorrowedRef{Elem: &ResolvedPath{}}, 0, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := TypePrimitive(tt.ty)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("got %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDefRegistry(t *testing.T) {
	t.Parallel()
	reg := NewDefRegistry()
	reg.RecordMax(1, 100)

	if reg.IsFake(hir.DefID{Krate: 1, Index: 99}) {
		t.Error("index below the threshold must be real")
	}
	if !reg.IsFake(hir.DefID{Krate: 1, Index: 100}) {
		t.Error("index at the threshold must be fake")
	}
	if reg.IsFake(hir.DefID{Krate: 2, Index: 5}) {
		t.Error("crates with no threshold have no fake items")
	}

	// the threshold is monotone
	reg.RecordMax(1, 50)
	if reg.IsFake(hir.DefID{Krate: 1, Index: 60}) {
		t.Error("lowering the threshold must be ignored")
	}

	first := reg.NextFakeID(1)
	second := reg.NextFakeID(1)
	if first == second {
		t.Error("minted identifiers must be distinct")
	}
	if !reg.IsFake(first) || !reg.IsFake(second) {
		t.Error("minted identifiers must read as fake")
	}
}

func TestDefRegistry_MintBeforeRecordPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	// minting without a threshold would mark the whole crate fake
	NewDefRegistry().NextFakeID(7)
}

func TestImplCache(t *testing.T) {
	t.Parallel()
	lang := hir.LangItems{
		hir.LangBoolImpl:     {Krate: 2, Index: 1},
		hir.LangStrImpl:      {Krate: 2, Index: 2},
		hir.LangStrAllocImpl: {Krate: 3, Index: 3},
	}
	cache := NewImplCache()

	if got := cache.Impls(PrimitiveBool, lang); len(got) != 1 {
		t.Errorf("bool impls = %v", got)
	}
	if got := cache.Impls(PrimitiveStr, lang); len(got) != 2 {
		t.Errorf("str impls = %v", got)
	}
	// unregistered lang items simply contribute nothing
	if got := cache.Impls(PrimitiveChar, lang); len(got) != 0 {
		t.Errorf("char impls = %v", got)
	}
	// compound primitives have entries even without lang items
	if got := cache.Impls(PrimitiveTuple, lang); got == nil && len(got) != 0 {
		t.Errorf("tuple impls = %v", got)
	}
}

func TestTypeKindFromDefKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		kind hir.DefKind
		want TypeKind
	}{
		{hir.DefKindEnum, TypeKindEnum},
		{hir.DefKindFn, TypeKindFunction},
		{hir.DefKindMod, TypeKindModule},
		{hir.DefKindTyAlias, TypeKindTypedef},
		{hir.DefKindTraitAlias, TypeKindTraitAlias},
		// everything the docs don't distinguish collapses to foreign
		{hir.DefKindField, TypeKindForeign},
		{hir.DefKindImpl, TypeKindForeign},
	}
	for _, tt := range tests {
		if got := TypeKindFromDefKind(tt.kind); got != tt.want {
			t.Errorf("TypeKindFromDefKind(%v) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}
