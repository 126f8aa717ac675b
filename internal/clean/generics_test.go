package clean

import "testing"

func TestGenericParamDefaultOrType(t *testing.T) {
	t.Parallel()

	// type params yield their default, const params yield their type;
	// both cases carry an embedded type the caller wants to visit
	t.Run("type_param_with_default", func(t *testing.T) {
		p := GenericParamDef{Name: "T", Kind: TypeParam{
			Default: &Primitive{Type: PrimitiveI32},
		}}
		ty, ok := p.DefaultOrType()
		if !ok {
			t.Fatal("expected a type")
		}
		if prim, isPrim := ty.(*Primitive); !isPrim || prim.Type != PrimitiveI32 {
			t.Errorf("got %#v", ty)
		}
	})

	t.Run("type_param_without_default", func(t *testing.T) {
		p := GenericParamDef{Name: "T", Kind: TypeParam{}}
		if _, ok := p.DefaultOrType(); ok {
			t.Error("a defaultless type param yields nothing")
		}
	})

	t.Run("const_param", func(t *testing.T) {
		p := GenericParamDef{Name: "N", Kind: ConstParam{
			Ty: &Primitive{Type: PrimitiveUsize},
		}}
		ty, ok := p.DefaultOrType()
		if !ok {
			t.Fatal("expected the const param's type")
		}
		if prim, isPrim := ty.(*Primitive); !isPrim || prim.Type != PrimitiveUsize {
			t.Errorf("got %#v", ty)
		}
	})

	t.Run("lifetime_param", func(t *testing.T) {
		p := GenericParamDef{Name: "'a", Kind: LifetimeParam{}}
		if _, ok := p.DefaultOrType(); ok {
			t.Error("lifetime params carry no type")
		}
	})
}

func TestGenericParamPredicates(t *testing.T) {
	t.Parallel()

	synthetic := GenericParamDef{Name: "impl Trait", Kind: TypeParam{Synthetic: true}}
	if !synthetic.IsSyntheticTypeParam() || !synthetic.IsType() {
		t.Error("synthetic type param misclassified")
	}

	lifetime := GenericParamDef{Name: "'a", Kind: LifetimeParam{}}
	if lifetime.IsSyntheticTypeParam() || lifetime.IsType() {
		t.Error("lifetime param misclassified")
	}
}

func TestPathNames(t *testing.T) {
	t.Parallel()
	p := Path{Segments: []PathSegment{{Name: "std"}, {Name: "vec"}, {Name: "Vec"}}}
	if p.Last() != "Vec" {
		t.Errorf("Last = %q", p.Last())
	}
	if p.WholeName() != "std::vec::Vec" {
		t.Errorf("WholeName = %q", p.WholeName())
	}
	p.Global = true
	if p.WholeName() != "::std::vec::Vec" {
		t.Errorf("global WholeName = %q", p.WholeName())
	}
}

func TestPathLast_PanicsOnEmpty(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	Path{}.Last()
}

func TestTypeBindingTy_PanicsOnConstraint(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	TypeBinding{Name: "Output", Kind: ConstraintBinding{}}.Ty()
}

func TestWherePredicateBounds(t *testing.T) {
	t.Parallel()
	bound := BoundPredicate{Ty: &Generic{Name: "T"}, Bounds: []GenericBound{Outlives{Lifetime: "'a"}}}
	if got, ok := PredicateBounds(bound); !ok || len(got) != 1 {
		t.Errorf("got %v, %v", got, ok)
	}
	if _, ok := PredicateBounds(EqPredicate{}); ok {
		t.Error("equality predicates have no bounds")
	}
}
