package clean

import "github.com/oxidoc/oxidoc/internal/hir"

// Function is a free function or method body with its signature.
type Function struct {
	Decl     FnDecl
	Generics Generics
	Header   FnHeader
}

// FnHeader is the qualifier set on a function signature.
type FnHeader struct {
	Unsafety  hir.Unsafety
	Constness bool
	Asyncness bool
	Abi       string
}

// FnDecl is a function signature: inputs, output, and C variadism.
type FnDecl struct {
	Inputs    Arguments
	Output    FnRetTy
	CVariadic bool
	Attrs     *Attributes
}

// SelfType classifies the receiver, when the first argument is one.
func (d *FnDecl) SelfType() (SelfTy, bool) {
	if len(d.Inputs.Values) == 0 {
		return nil, false
	}
	return d.Inputs.Values[0].ToSelf()
}

// SugaredAsyncReturnType recovers the sugared return type of an async
// function from its desugared form. `impl Future<Output = i32>` comes back
// as `i32`.
//
// Panics when the return type doesn't match the compiler's async desugaring.
func (d *FnDecl) SugaredAsyncReturnType() FnRetTy {
	ret, ok := d.Output.(Return)
	if !ok {
		panic("clean: unexpected desugaring of async function")
	}
	impl, ok := ret.Type.(*ImplTrait)
	if !ok || len(impl.Bounds) == 0 {
		panic("clean: unexpected desugaring of async function")
	}
	tb, ok := impl.Bounds[0].(TraitBound)
	if !ok {
		panic("clean: unexpected desugaring of async function")
	}
	bindings, ok := TypeBindings(tb.Trait.Trait)
	if !ok || len(bindings) == 0 {
		panic("clean: unexpected desugaring of async function")
	}
	return Return{Type: bindings[0].Ty()}
}

// Arguments is a function's parameter list.
type Arguments struct {
	Values []Argument
}

// Argument is one named parameter.
type Argument struct {
	Type Type
	Name string
}

// SelfTy classifies a function receiver.
type SelfTy interface {
	isSelfTy()
}

// SelfValue is a by-value `self`.
type SelfValue struct{}

// SelfBorrowed is `&self` / `&'a mut self`.
type SelfBorrowed struct {
	Lifetime   *Lifetime
	Mutability hir.Mutability
}

// SelfExplicit is an arbitrary receiver type, such as `self: Pin<&mut Self>`.
type SelfExplicit struct {
	Type Type
}

func (SelfValue) isSelfTy()    {}
func (SelfBorrowed) isSelfTy() {}
func (SelfExplicit) isSelfTy() {}

// ToSelf classifies the argument as a receiver. Only an argument literally
// named `self` ever classifies; everything else is an ordinary parameter.
func (a *Argument) ToSelf() (SelfTy, bool) {
	if a.Name != kwSelfLower {
		return nil, false
	}
	if IsSelfType(a.Type) {
		return SelfValue{}, true
	}
	if ref, ok := a.Type.(*BorrowedRef); ok && IsSelfType(ref.Elem) {
		return SelfBorrowed{Lifetime: ref.Lifetime, Mutability: ref.Mutability}, true
	}
	return SelfExplicit{Type: a.Type}, true
}

// FnRetTy is a function's declared return.
type FnRetTy interface {
	isFnRetTy()
}

// Return is an explicit `-> T`.
type Return struct {
	Type Type
}

// DefaultReturn is an omitted return type.
type DefaultReturn struct{}

func (Return) isFnRetTy()        {}
func (DefaultReturn) isFnRetTy() {}

// RetDefID returns the identity of the definition the return type links to.
func RetDefID(r FnRetTy) (hir.DefID, bool) {
	if ret, ok := r.(Return); ok {
		return TypeDefID(ret.Type)
	}
	return hir.DefID{}, false
}

// RetDefIDFull is RetDefID but resolves primitives through the cache.
func RetDefIDFull(r FnRetTy, cache PrimitiveLookup) (hir.DefID, bool) {
	if ret, ok := r.(Return); ok {
		return TypeDefIDFull(ret.Type, cache)
	}
	return hir.DefID{}, false
}
