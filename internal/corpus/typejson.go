package corpus

import (
	"fmt"

	"github.com/oxidoc/oxidoc/internal/clean"
	"github.com/oxidoc/oxidoc/internal/hir"
)

// SnapType is the snapshot encoding of a type, shaped for hyperlinking the
// same way the clean model is.
type SnapType struct {
	Kind string `json:"kind"`

	// resolved_path
	Path      []string   `json:"path,omitempty"`
	ID        int        `json:"id,omitempty"`
	CrateID   int        `json:"crate_id,omitempty"`
	Args      []SnapType `json:"args,omitempty"`
	IsGeneric bool       `json:"is_generic,omitempty"`

	// generic, qpath
	Name string `json:"name,omitempty"`

	// tuple, impl_trait bound traits
	Types []SnapType `json:"types,omitempty"`

	// slice, array, pointers, references
	Elem     *SnapType `json:"elem,omitempty"`
	Len      string    `json:"len,omitempty"`
	Mutable  bool      `json:"mutable,omitempty"`
	Lifetime string    `json:"lifetime,omitempty"`

	// qpath
	SelfType *SnapType `json:"self,omitempty"`
	Trait    *SnapType `json:"trait,omitempty"`

	// function pointer
	Inputs []SnapArg `json:"inputs,omitempty"`
	Output *SnapType `json:"output,omitempty"`
	Unsafe bool      `json:"unsafe,omitempty"`
	Abi    string    `json:"abi,omitempty"`
}

// SnapArg is one named function parameter in a snapshot signature.
type SnapArg struct {
	Name string   `json:"name"`
	Type SnapType `json:"type"`
}

func decodeKind(kind string) hir.DefKind {
	switch kind {
	case "mod":
		return hir.DefKindMod
	case "struct":
		return hir.DefKindStruct
	case "union":
		return hir.DefKindUnion
	case "enum":
		return hir.DefKindEnum
	case "variant":
		return hir.DefKindVariant
	case "trait":
		return hir.DefKindTrait
	case "typedef":
		return hir.DefKindTyAlias
	case "trait_alias":
		return hir.DefKindTraitAlias
	case "assoc_type":
		return hir.DefKindAssocTy
	case "function":
		return hir.DefKindFn
	case "method":
		return hir.DefKindAssocFn
	case "constant":
		return hir.DefKindConst
	case "assoc_const":
		return hir.DefKindAssocConst
	case "static":
		return hir.DefKindStatic
	case "macro":
		return hir.DefKindMacro
	case "extern_crate":
		return hir.DefKindExternCrate
	case "import":
		return hir.DefKindUse
	case "foreign_type":
		return hir.DefKindForeignTy
	case "struct_field":
		return hir.DefKindField
	case "impl":
		return hir.DefKindImpl
	case "opaque":
		return hir.DefKindOpaqueTy
	default:
		return hir.DefKindMod
	}
}

// decodeType converts a snapshot type into the clean model. Unknown kinds
// decode as the inference placeholder rather than failing the whole crate.
func decodeType(snap *Snapshot, t *SnapType) clean.Type {
	if t == nil {
		return &clean.Infer{}
	}
	switch t.Kind {
	case "resolved_path":
		return decodeResolvedPath(snap, t)
	case "generic":
		return &clean.Generic{Name: t.Name}
	case "primitive":
		prim, ok := clean.PrimitiveFromSymbol(t.Name)
		if !ok {
			return &clean.Infer{}
		}
		return &clean.Primitive{Type: prim}
	case "tuple":
		types := make([]clean.Type, len(t.Types))
		for i := range t.Types {
			types[i] = decodeType(snap, &t.Types[i])
		}
		return &clean.Tuple{Types: types}
	case "slice":
		return &clean.Slice{Elem: decodeType(snap, t.Elem)}
	case "array":
		return &clean.Array{Elem: decodeType(snap, t.Elem), Len: t.Len}
	case "never":
		return &clean.Never{}
	case "raw_pointer":
		return &clean.RawPointer{Mutability: decodeMut(t.Mutable), Elem: decodeType(snap, t.Elem)}
	case "borrowed_ref":
		var lt *clean.Lifetime
		if t.Lifetime != "" {
			l := clean.Lifetime(t.Lifetime)
			lt = &l
		}
		return &clean.BorrowedRef{Lifetime: lt, Mutability: decodeMut(t.Mutable), Elem: decodeType(snap, t.Elem)}
	case "qpath":
		return &clean.QPath{
			Name:     t.Name,
			SelfType: decodeType(snap, t.SelfType),
			Trait:    decodeType(snap, t.Trait),
		}
	case "impl_trait":
		bounds := make([]clean.GenericBound, 0, len(t.Types))
		for i := range t.Types {
			bounds = append(bounds, clean.TraitBound{
				Trait: clean.PolyTrait{Trait: decodeType(snap, &t.Types[i])},
			})
		}
		return &clean.ImplTrait{Bounds: bounds}
	case "bare_function":
		unsafety := hir.Safe
		if t.Unsafe {
			unsafety = hir.Unsafe
		}
		return &clean.BareFunction{Decl: &clean.BareFunctionDecl{
			Unsafety: unsafety,
			Decl:     decodeFnDecl(snap, t.Inputs, t.Output, false),
			Abi:      t.Abi,
		}}
	case "infer", "":
		return &clean.Infer{}
	default:
		return &clean.Infer{}
	}
}

func decodeResolvedPath(snap *Snapshot, t *SnapType) clean.Type {
	did := snap.DefID(t.ID, t.CrateID)
	kind := hir.DefKindStruct
	if sum, ok := snap.Summary(t.ID); ok && t.CrateID == 0 {
		kind = decodeKind(sum.Kind)
	}
	segments := make([]clean.PathSegment, len(t.Path))
	for i, name := range t.Path {
		segments[i] = clean.PathSegment{Name: name}
	}
	if len(segments) == 0 {
		panic(fmt.Sprintf("corpus: resolved path for item %d has no segments", t.ID))
	}
	if len(t.Args) > 0 {
		args := make([]clean.GenericArg, len(t.Args))
		for i := range t.Args {
			args[i] = clean.TypeArg{Type: decodeType(snap, &t.Args[i])}
		}
		segments[len(segments)-1].Args = clean.AngleBracketed{Args: args}
	}
	return &clean.ResolvedPath{
		Path: clean.Path{
			Res:      clean.Res{Kind: kind, Did: did},
			Segments: segments,
		},
		Did:       did,
		IsGeneric: t.IsGeneric,
	}
}

func decodeMut(mutable bool) hir.Mutability {
	if mutable {
		return hir.Mutable
	}
	return hir.Immutable
}

func decodeFnDecl(snap *Snapshot, inputs []SnapArg, output *SnapType, variadic bool) clean.FnDecl {
	args := make([]clean.Argument, len(inputs))
	for i := range inputs {
		args[i] = clean.Argument{
			Name: inputs[i].Name,
			Type: decodeType(snap, &inputs[i].Type),
		}
	}
	var ret clean.FnRetTy = clean.DefaultReturn{}
	if output != nil {
		ret = clean.Return{Type: decodeType(snap, output)}
	}
	return clean.FnDecl{
		Inputs:    clean.Arguments{Values: args},
		Output:    ret,
		CVariadic: variadic,
	}
}
