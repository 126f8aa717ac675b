package clean

import (
	"strings"

	"github.com/oxidoc/oxidoc/internal/hir"
)

// Lifetime is a named region parameter.
type Lifetime string

// StaticLifetime is the 'static region.
func StaticLifetime() Lifetime { return "'static" }

// ElidedLifetime is the '_ placeholder region.
func ElidedLifetime() Lifetime { return "'_" }

// TraitBoundModifier mirrors the compiler's bound modifiers (`?Sized`).
type TraitBoundModifier int

const (
	BoundModifierNone TraitBoundModifier = iota
	BoundModifierMaybe
	BoundModifierMaybeConst
)

// PolyTrait is a trait reference, possibly with higher-ranked lifetimes.
type PolyTrait struct {
	Trait         Type
	GenericParams []GenericParamDef
}

// GenericBound is one bound in a bound list: either a trait bound or a
// region bound.
type GenericBound interface {
	isGenericBound()
}

// TraitBound is a trait bound with its modifier.
type TraitBound struct {
	Trait    PolyTrait
	Modifier TraitBoundModifier
}

// Outlives is a region bound.
type Outlives struct {
	Lifetime Lifetime
}

func (TraitBound) isGenericBound() {}
func (Outlives) isGenericBound()   {}

// BoundPolyTrait returns the bound's trait reference, if it is a trait
// bound.
func BoundPolyTrait(b GenericBound) (PolyTrait, bool) {
	if tb, ok := b.(TraitBound); ok {
		return tb.Trait, true
	}
	return PolyTrait{}, false
}

// BoundTraitType returns the bound's trait type, if it is a trait bound.
func BoundTraitType(b GenericBound) (Type, bool) {
	if tb, ok := b.(TraitBound); ok {
		return tb.Trait.Trait, true
	}
	return nil, false
}

// MaybeSizedBound builds the `?Sized` bound from the lang-item registry.
func MaybeSizedBound(cx *Context, path Path) GenericBound {
	did, _ := cx.Tcx.LangItems().Get(hir.LangSizedTrait)
	return TraitBound{
		Trait: PolyTrait{
			Trait: &ResolvedPath{Path: path, Did: did},
		},
		Modifier: BoundModifierMaybe,
	}
}

// IsSizedBound reports whether the bound is an unmodified bound on the
// `Sized` lang trait.
func IsSizedBound(b GenericBound, cx *Context) bool {
	tb, ok := b.(TraitBound)
	if !ok || tb.Modifier != BoundModifierNone {
		return false
	}
	rp, ok := tb.Trait.Trait.(*ResolvedPath)
	if !ok {
		return false
	}
	sized, ok := cx.Tcx.LangItems().Get(hir.LangSizedTrait)
	return ok && rp.Did == sized
}

// WherePredicate is one predicate in a where clause.
type WherePredicate interface {
	isWherePredicate()
}

// BoundPredicate bounds a type: `T: Trait + 'a`.
type BoundPredicate struct {
	Ty     Type
	Bounds []GenericBound
}

// RegionPredicate bounds a lifetime: `'a: 'b`.
type RegionPredicate struct {
	Lifetime Lifetime
	Bounds   []GenericBound
}

// EqPredicate equates two types: `T::Output = u32`.
type EqPredicate struct {
	Lhs Type
	Rhs Type
}

func (BoundPredicate) isWherePredicate()  {}
func (RegionPredicate) isWherePredicate() {}
func (EqPredicate) isWherePredicate()     {}

// PredicateBounds returns the predicate's bound list; equality predicates
// have none.
func PredicateBounds(p WherePredicate) ([]GenericBound, bool) {
	switch pred := p.(type) {
	case BoundPredicate:
		return pred.Bounds, true
	case RegionPredicate:
		return pred.Bounds, true
	}
	return nil, false
}

// GenericParamKind is the payload of one declared generic parameter.
type GenericParamKind interface {
	isGenericParamKind()
}

// LifetimeParam declares a lifetime parameter.
type LifetimeParam struct{}

// TypeParam declares a type parameter.
type TypeParam struct {
	Did       hir.DefID
	Bounds    []GenericBound
	Default   Type // nil when the parameter has no default
	Synthetic bool // true for impl-Trait-in-argument-position desugaring
}

// ConstParam declares a const parameter with its type.
type ConstParam struct {
	Did hir.DefID
	Ty  Type
}

func (LifetimeParam) isGenericParamKind() {}
func (TypeParam) isGenericParamKind()     {}
func (ConstParam) isGenericParamKind()    {}

// GenericParamDef is one declared generic parameter.
type GenericParamDef struct {
	Name string
	Kind GenericParamKind
}

// IsSyntheticTypeParam reports whether the parameter came from impl-Trait
// desugaring rather than source.
func (g GenericParamDef) IsSyntheticTypeParam() bool {
	tp, ok := g.Kind.(TypeParam)
	return ok && tp.Synthetic
}

// IsType reports whether the parameter is a type parameter.
func (g GenericParamDef) IsType() bool {
	_, ok := g.Kind.(TypeParam)
	return ok
}

// DefaultOrType returns the default of a type parameter, or the type of a
// const parameter. The asymmetry is deliberate: both cases carry an embedded
// type the caller wants to visit.
func (g GenericParamDef) DefaultOrType() (Type, bool) {
	switch k := g.Kind.(type) {
	case TypeParam:
		if k.Default == nil {
			return nil, false
		}
		return k.Default, true
	case ConstParam:
		return k.Ty, true
	}
	return nil, false
}

// Bounds returns a type parameter's declared bounds.
func (g GenericParamDef) Bounds() ([]GenericBound, bool) {
	if tp, ok := g.Kind.(TypeParam); ok {
		return tp.Bounds, true
	}
	return nil, false
}

// Generics is the full generic signature of an item: parameters plus where
// predicates, both in declaration order.
type Generics struct {
	Params          []GenericParamDef
	WherePredicates []WherePredicate
}

// Path is a resolved path to a definition.
type Path struct {
	Global   bool
	Res      Res
	Segments []PathSegment
}

// Res is the resolution carried by a path: the kind and identity of what it
// names.
type Res struct {
	Kind hir.DefKind
	Did  hir.DefID
}

// Last returns the name of the final segment. Paths are never empty.
func (p Path) Last() string {
	if len(p.Segments) == 0 {
		panic("clean: path segments were empty")
	}
	return p.Segments[len(p.Segments)-1].Name
}

// WholeName joins all segment names.
func (p Path) WholeName() string {
	names := make([]string, len(p.Segments))
	for i, seg := range p.Segments {
		names[i] = seg.Name
	}
	joined := strings.Join(names, "::")
	if p.Global {
		return "::" + joined
	}
	return joined
}

// PathSegment is one `name<args>` component of a path.
type PathSegment struct {
	Name string
	Args GenericArgs
}

// GenericArgs is the argument list attached to a path segment.
type GenericArgs interface {
	isGenericArgs()
}

// AngleBracketed is the `<'a, T, N, Assoc = U>` argument form.
type AngleBracketed struct {
	Args     []GenericArg
	Bindings []TypeBinding
}

// Parenthesized is the `Fn(A, B) -> C` sugar form.
type Parenthesized struct {
	Inputs []Type
	Output Type // nil when no return type is written
}

func (AngleBracketed) isGenericArgs() {}
func (Parenthesized) isGenericArgs()  {}

// GenericArg is one argument inside angle brackets.
type GenericArg interface {
	isGenericArg()
}

// LifetimeArg passes a lifetime.
type LifetimeArg struct {
	Lifetime Lifetime
}

// TypeArg passes a type.
type TypeArg struct {
	Type Type
}

// ConstArg passes a const expression.
type ConstArg struct {
	Const Constant
}

func (LifetimeArg) isGenericArg() {}
func (TypeArg) isGenericArg()     {}
func (ConstArg) isGenericArg()    {}

// TypeBinding constrains an associated type in a path's arguments, either
// `Assoc = T` or `Assoc: Bound`.
type TypeBinding struct {
	Name string
	Kind TypeBindingKind
}

// TypeBindingKind is the payload of a TypeBinding.
type TypeBindingKind interface {
	isTypeBindingKind()
}

// EqualityBinding is `Assoc = Ty`.
type EqualityBinding struct {
	Ty Type
}

// ConstraintBinding is `Assoc: Bound + ...`.
type ConstraintBinding struct {
	Bounds []GenericBound
}

func (EqualityBinding) isTypeBindingKind()   {}
func (ConstraintBinding) isTypeBindingKind() {}

// Ty returns the bound type of an equality binding. Constraint bindings are
// an upstream invariant violation here: parenthesized generic args only
// produce equality bindings.
func (b TypeBinding) Ty() Type {
	eq, ok := b.Kind.(EqualityBinding)
	if !ok {
		panic("clean: expected equality type binding for parenthesized generic args")
	}
	return eq.Ty
}
