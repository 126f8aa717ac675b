package clean

import (
	"testing"

	"github.com/oxidoc/oxidoc/internal/hir"
)

func TestArgumentToSelf(t *testing.T) {
	t.Parallel()

	t.Run("by_value", func(t *testing.T) {
		arg := Argument{Name: "self", Type: &Generic{Name: "Self"}}
		self, ok := arg.ToSelf()
		if !ok {
			t.Fatal("expected a receiver")
		}
		if _, isValue := self.(SelfValue); !isValue {
			t.Errorf("got %T", self)
		}
	})

	t.Run("borrowed", func(t *testing.T) {
		lt := Lifetime("'a")
		arg := Argument{Name: "self", Type: &BorrowedRef{
			Lifetime:   &lt,
			Mutability: hir.Mutable,
			Elem:       &Generic{Name: "Self"},
		}}
		self, ok := arg.ToSelf()
		if !ok {
			t.Fatal("expected a receiver")
		}
		borrowed, isBorrowed := self.(SelfBorrowed)
		if !isBorrowed {
			t.Fatalf("got %T", self)
		}
		if borrowed.Mutability != hir.Mutable || borrowed.Lifetime == nil || *borrowed.Lifetime != lt {
			t.Errorf("got %+v", borrowed)
		}
	})

	t.Run("explicit_receiver_type", func(t *testing.T) {
		arg := Argument{Name: "self", Type: &ResolvedPath{Did: hir.DefID{Index: 7}}}
		self, ok := arg.ToSelf()
		if !ok {
			t.Fatal("expected a receiver")
		}
		if _, isExplicit := self.(SelfExplicit); !isExplicit {
			t.Errorf("got %T", self)
		}
	})

	t.Run("ordinary_parameter", func(t *testing.T) {
		arg := Argument{Name: "other", Type: &Generic{Name: "Self"}}
		if _, ok := arg.ToSelf(); ok {
			t.Error("only an argument named self classifies")
		}
	})
}

func TestFnDeclSelfType(t *testing.T) {
	t.Parallel()
	decl := FnDecl{}
	if _, ok := decl.SelfType(); ok {
		t.Error("empty input list has no receiver")
	}

	decl = FnDecl{Inputs: Arguments{Values: []Argument{
		{Name: "self", Type: &Generic{Name: "Self"}},
		{Name: "x", Type: &Primitive{Type: PrimitiveI32}},
	}}}
	if _, ok := decl.SelfType(); !ok {
		t.Error("leading self argument not classified")
	}
}

// asyncReturn builds the desugared `impl Future<Output = ret>` shape the
// compiler produces for async functions.
func asyncReturn(ret Type) FnRetTy {
	future := &ResolvedPath{
		Path: Path{Segments: []PathSegment{{
			Name: "Future",
			Args: AngleBracketed{
				Bindings: []TypeBinding{{Name: "Output", Kind: EqualityBinding{Ty: ret}}},
			},
		}}},
	}
	return Return{Type: &ImplTrait{Bounds: []GenericBound{
		TraitBound{Trait: PolyTrait{Trait: future}},
	}}}
}

func TestSugaredAsyncReturnType(t *testing.T) {
	t.Parallel()
	decl := FnDecl{Output: asyncReturn(&Primitive{Type: PrimitiveI32})}
	ret := decl.SugaredAsyncReturnType()
	r, ok := ret.(Return)
	if !ok {
		t.Fatalf("got %T", ret)
	}
	prim, ok := r.Type.(*Primitive)
	if !ok || prim.Type != PrimitiveI32 {
		t.Errorf("got %#v", r.Type)
	}
}

func TestSugaredAsyncReturnType_PanicsOnNonAsyncShape(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		output FnRetTy
	}{
		{"default_return", DefaultReturn{}},
		{"plain_type", Return{Type: &Primitive{Type: PrimitiveI32}}},
		{"impl_trait_without_bindings", Return{Type: &ImplTrait{Bounds: []GenericBound{
			TraitBound{Trait: PolyTrait{Trait: &ResolvedPath{Path: Path{Segments: []PathSegment{{Name: "Future"}}}}}},
		}}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			defer func() {
				if recover() == nil {
					t.Fatal("expected a panic")
				}
			}()
			decl := FnDecl{Output: tt.output}
			decl.SugaredAsyncReturnType()
		})
	}
}

func TestRetDefID(t *testing.T) {
	t.Parallel()
	want := hir.DefID{Krate: 1, Index: 42}
	ret := Return{Type: &ResolvedPath{Did: want}}
	got, ok := RetDefID(ret)
	if !ok || got != want {
		t.Errorf("got %v, %v", got, ok)
	}
	if _, ok := RetDefID(DefaultReturn{}); ok {
		t.Error("default return has no definition")
	}
}

func TestItemTypeOf(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		kind ItemKind
		want ItemType
	}{
		{"struct", &StructItem{}, ItemTypeStruct},
		{"stripped_struct", &StrippedItem{Kind: &StructItem{}}, ItemTypeStruct},
		{"foreign_function", &ForeignFunctionItem{}, ItemTypeFunction},
		{"proc_attr", &ProcMacroItem{ProcMacro: ProcMacro{Kind: MacroAttr}}, ItemTypeProcAttribute},
		{"proc_derive", &ProcMacroItem{ProcMacro: ProcMacro{Kind: MacroDerive}}, ItemTypeProcDerive},
		{"proc_bang", &ProcMacroItem{ProcMacro: ProcMacro{Kind: MacroBang}}, ItemTypeMacro},
		{"assoc_type", &AssocTypeItem{}, ItemTypeAssocType},
	}
	for _, tt := range tests {
		if got := ItemTypeOf(tt.kind); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
