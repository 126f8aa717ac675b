package corpus

import "github.com/oxidoc/oxidoc/internal/clean"

// StripPrivate removes non-public items from a cleaned crate, the way the
// documentation of a library crate would. Struct and union fields are
// wrapped rather than dropped so positional information survives, and the
// owner is marked as having stripped fields. Impl blocks are kept whole;
// their reachability follows the type they implement.
func StripPrivate(crate *clean.Crate) {
	if crate.Module == nil {
		return
	}
	stripItem(crate.Module)
}

func stripItem(item *clean.Item) {
	switch k := item.Kind.(type) {
	case *clean.ModuleItem:
		k.Module.Items = stripModuleItems(k.Module.Items)
	case *clean.StructItem:
		k.Struct.Fields, k.Struct.FieldsStripped = stripFields(k.Struct.Fields, k.Struct.FieldsStripped)
	case *clean.UnionItem:
		k.Union.Fields, k.Union.FieldsStripped = stripFields(k.Union.Fields, k.Union.FieldsStripped)
	case *clean.EnumItem:
		// variants are public by construction; their struct bodies may still
		// hide fields
		for i := range k.Enum.Variants {
			stripItem(&k.Enum.Variants[i])
		}
	case *clean.VariantItem:
		if sv, ok := k.Variant.(clean.StructVariant); ok {
			sv.Struct.Fields, sv.Struct.FieldsStripped = stripFields(sv.Struct.Fields, sv.Struct.FieldsStripped)
			k.Variant = sv
		}
	case *clean.TraitItem:
		for i := range k.Trait.Items {
			stripItem(&k.Trait.Items[i])
		}
	case *clean.ImplItem:
		for i := range k.Impl.Items {
			stripItem(&k.Impl.Items[i])
		}
	}
}

func stripModuleItems(items []clean.Item) []clean.Item {
	kept := items[:0]
	for i := range items {
		item := &items[i]
		switch item.Kind.(type) {
		case *clean.ImplItem:
			// kept regardless of visibility
		case *clean.ImportItem:
			if !item.Visibility.IsPublic() || item.IsStripped() {
				continue
			}
		default:
			if !item.Visibility.IsPublic() && !item.IsCrate() {
				continue
			}
		}
		stripItem(item)
		kept = append(kept, *item)
	}
	return kept
}

// stripFields replaces private fields with stripped placeholders.
func stripFields(fields []clean.Item, alreadyStripped bool) ([]clean.Item, bool) {
	stripped := alreadyStripped
	for i := range fields {
		if fields[i].Visibility.IsPublic() {
			continue
		}
		if _, ok := fields[i].Kind.(*clean.StrippedItem); ok {
			continue
		}
		fields[i].Kind = &clean.StrippedItem{Kind: fields[i].Kind}
		stripped = true
	}
	return fields, stripped
}
