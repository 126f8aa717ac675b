package clean

import "github.com/oxidoc/oxidoc/internal/hir"

// ItemKind is the polymorphic payload of an Item: one variant per
// documentable item shape. The set is closed; every consumer switches
// exhaustively, so adding a construct means updating every switch site.
type ItemKind interface {
	isItemKind()
}

// ExternCrateItem is an `extern crate` declaration. Src is the crate's own
// name, not the name it's imported as; nil when they coincide.
type ExternCrateItem struct {
	Src *string
}

// ImportItem is a `use` item.
type ImportItem struct {
	Import Import
}

// StructItem is a struct definition.
type StructItem struct {
	Struct Struct
}

// UnionItem is a union definition.
type UnionItem struct {
	Union Union
}

// EnumItem is an enum definition.
type EnumItem struct {
	Enum Enum
}

// FunctionItem is a free function.
type FunctionItem struct {
	Function Function
}

// ModuleItem is a module and its contents.
type ModuleItem struct {
	Module Module
}

// TypedefItem is a type alias; IsAssoc marks associated-type position.
type TypedefItem struct {
	Typedef Typedef
	IsAssoc bool
}

// OpaqueTyItem is an opaque `impl Trait` type alias.
type OpaqueTyItem struct {
	OpaqueTy OpaqueTy
}

// StaticItem is a `static`.
type StaticItem struct {
	Static Static
}

// ConstantItem is a `const`.
type ConstantItem struct {
	Constant Constant
}

// TraitItem is a trait definition.
type TraitItem struct {
	Trait Trait
}

// TraitAliasItem is a trait alias.
type TraitAliasItem struct {
	TraitAlias TraitAlias
}

// ImplItem is an impl block.
type ImplItem struct {
	Impl Impl
}

// TyMethodItem is a method signature only: a required trait method.
type TyMethodItem struct {
	Function Function
}

// MethodItem is a method with a body. Defaultness is set for impl items
// that may be specialized.
type MethodItem struct {
	Function    Function
	Defaultness *hir.Defaultness
}

// StructFieldItem is one struct or variant field.
type StructFieldItem struct {
	Type Type
}

// VariantItem is one enum variant.
type VariantItem struct {
	Variant Variant
}

// ForeignFunctionItem is an `fn` from an extern block.
type ForeignFunctionItem struct {
	Function Function
}

// ForeignStaticItem is a `static` from an extern block.
type ForeignStaticItem struct {
	Static Static
}

// ForeignTypeItem is a `type` from an extern block.
type ForeignTypeItem struct{}

// MacroItem is a `macro_rules!` definition.
type MacroItem struct {
	Macro Macro
}

// ProcMacroItem is a procedural macro.
type ProcMacroItem struct {
	ProcMacro ProcMacro
}

// PrimitiveItem is the documentation anchor for a primitive type.
type PrimitiveItem struct {
	Primitive PrimitiveType
}

// AssocConstItem is an associated const; Default carries its textual
// default value, when present.
type AssocConstItem struct {
	Type    Type
	Default *string
}

// AssocTypeItem is an associated type in a trait or trait impl. Bounds may
// be non-empty when a where clause constrains it; Default is the default
// concrete type, when declared.
type AssocTypeItem struct {
	Bounds  []GenericBound
	Default Type
}

// StrippedItem wraps the payload of an item removed by a stripping pass.
type StrippedItem struct {
	Kind ItemKind
}

// KeywordItem is the documentation anchor for a language keyword.
type KeywordItem struct {
	Keyword string
}

func (*ExternCrateItem) isItemKind()     {}
func (*ImportItem) isItemKind()          {}
func (*StructItem) isItemKind()          {}
func (*UnionItem) isItemKind()           {}
func (*EnumItem) isItemKind()            {}
func (*FunctionItem) isItemKind()        {}
func (*ModuleItem) isItemKind()          {}
func (*TypedefItem) isItemKind()         {}
func (*OpaqueTyItem) isItemKind()        {}
func (*StaticItem) isItemKind()          {}
func (*ConstantItem) isItemKind()        {}
func (*TraitItem) isItemKind()           {}
func (*TraitAliasItem) isItemKind()      {}
func (*ImplItem) isItemKind()            {}
func (*TyMethodItem) isItemKind()        {}
func (*MethodItem) isItemKind()          {}
func (*StructFieldItem) isItemKind()     {}
func (*VariantItem) isItemKind()         {}
func (*ForeignFunctionItem) isItemKind() {}
func (*ForeignStaticItem) isItemKind()   {}
func (*ForeignTypeItem) isItemKind()     {}
func (*MacroItem) isItemKind()           {}
func (*ProcMacroItem) isItemKind()       {}
func (*PrimitiveItem) isItemKind()       {}
func (*AssocConstItem) isItemKind()      {}
func (*AssocTypeItem) isItemKind()       {}
func (*StrippedItem) isItemKind()        {}
func (*KeywordItem) isItemKind()         {}

// InnerItems returns the items a container kind owns: fields for structs
// and unions, variants for enums, members for traits and impls, contents
// for modules. Leaf kinds return an empty sequence.
func InnerItems(kind ItemKind) []Item {
	switch k := kind.(type) {
	case *StructItem:
		return k.Struct.Fields
	case *UnionItem:
		return k.Union.Fields
	case *VariantItem:
		if sv, ok := k.Variant.(StructVariant); ok {
			return sv.Struct.Fields
		}
		return nil
	case *EnumItem:
		return k.Enum.Variants
	case *TraitItem:
		return k.Trait.Items
	case *ImplItem:
		return k.Impl.Items
	case *ModuleItem:
		return k.Module.Items
	default:
		return nil
	}
}

// IsTypeAliasKind reports whether the kind is a type alias in either free
// or associated position.
func IsTypeAliasKind(kind ItemKind) bool {
	switch kind.(type) {
	case *TypedefItem, *AssocTypeItem:
		return true
	}
	return false
}

// ItemType is the rendering-level categorization of an item: the value a
// single tag comparison answers "is this a module / trait / ..." with.
type ItemType int

const (
	ItemTypeModule ItemType = iota
	ItemTypeExternCrate
	ItemTypeImport
	ItemTypeStruct
	ItemTypeEnum
	ItemTypeFunction
	ItemTypeTypedef
	ItemTypeStatic
	ItemTypeTrait
	ItemTypeImpl
	ItemTypeTyMethod
	ItemTypeMethod
	ItemTypeStructField
	ItemTypeVariant
	ItemTypeMacro
	ItemTypePrimitive
	ItemTypeAssocType
	ItemTypeConstant
	ItemTypeAssocConst
	ItemTypeUnion
	ItemTypeForeignType
	ItemTypeKeyword
	ItemTypeOpaqueTy
	ItemTypeProcAttribute
	ItemTypeProcDerive
	ItemTypeTraitAlias
)

var itemTypeNames = map[ItemType]string{
	ItemTypeModule:        "mod",
	ItemTypeExternCrate:   "externcrate",
	ItemTypeImport:        "import",
	ItemTypeStruct:        "struct",
	ItemTypeEnum:          "enum",
	ItemTypeFunction:      "fn",
	ItemTypeTypedef:       "type",
	ItemTypeStatic:        "static",
	ItemTypeTrait:         "trait",
	ItemTypeImpl:          "impl",
	ItemTypeTyMethod:      "tymethod",
	ItemTypeMethod:        "method",
	ItemTypeStructField:   "structfield",
	ItemTypeVariant:       "variant",
	ItemTypeMacro:         "macro",
	ItemTypePrimitive:     "primitive",
	ItemTypeAssocType:     "associatedtype",
	ItemTypeConstant:      "constant",
	ItemTypeAssocConst:    "associatedconstant",
	ItemTypeUnion:         "union",
	ItemTypeForeignType:   "foreigntype",
	ItemTypeKeyword:       "keyword",
	ItemTypeOpaqueTy:      "opaque",
	ItemTypeProcAttribute: "attr",
	ItemTypeProcDerive:    "derive",
	ItemTypeTraitAlias:    "traitalias",
}

// String returns the URL-stable name of the item type.
func (t ItemType) String() string {
	if name, ok := itemTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ItemTypeOf categorizes an item kind, looking through stripped wrappers.
func ItemTypeOf(kind ItemKind) ItemType {
	switch k := kind.(type) {
	case *StrippedItem:
		return ItemTypeOf(k.Kind)
	case *ModuleItem:
		return ItemTypeModule
	case *ExternCrateItem:
		return ItemTypeExternCrate
	case *ImportItem:
		return ItemTypeImport
	case *StructItem:
		return ItemTypeStruct
	case *UnionItem:
		return ItemTypeUnion
	case *EnumItem:
		return ItemTypeEnum
	case *FunctionItem, *ForeignFunctionItem:
		return ItemTypeFunction
	case *TypedefItem:
		return ItemTypeTypedef
	case *OpaqueTyItem:
		return ItemTypeOpaqueTy
	case *StaticItem, *ForeignStaticItem:
		return ItemTypeStatic
	case *ConstantItem:
		return ItemTypeConstant
	case *TraitItem:
		return ItemTypeTrait
	case *TraitAliasItem:
		return ItemTypeTraitAlias
	case *ImplItem:
		return ItemTypeImpl
	case *TyMethodItem:
		return ItemTypeTyMethod
	case *MethodItem:
		return ItemTypeMethod
	case *StructFieldItem:
		return ItemTypeStructField
	case *VariantItem:
		return ItemTypeVariant
	case *ForeignTypeItem:
		return ItemTypeForeignType
	case *MacroItem:
		return ItemTypeMacro
	case *ProcMacroItem:
		switch k.ProcMacro.Kind {
		case MacroAttr:
			return ItemTypeProcAttribute
		case MacroDerive:
			return ItemTypeProcDerive
		default:
			return ItemTypeMacro
		}
	case *PrimitiveItem:
		return ItemTypePrimitive
	case *AssocConstItem:
		return ItemTypeAssocConst
	case *AssocTypeItem:
		return ItemTypeAssocType
	case *KeywordItem:
		return ItemTypeKeyword
	default:
		panic("clean: item kind missing from ItemTypeOf")
	}
}
