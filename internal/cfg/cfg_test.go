package cfg

import (
	"errors"
	"testing"

	"github.com/oxidoc/oxidoc/internal/hir"
)

func word(name string) *hir.MetaItem {
	return &hir.MetaItem{Name: name, Kind: hir.MetaWord}
}

func nameValue(name, value string) *hir.MetaItem {
	return &hir.MetaItem{Name: name, Kind: hir.MetaNameValue, Value: value}
}

func list(name string, items ...*hir.MetaItem) *hir.MetaItem {
	nested := make([]hir.NestedMetaItem, len(items))
	for i, it := range items {
		nested[i] = hir.NestedMetaItem{Meta: it}
	}
	return &hir.MetaItem{Name: name, Kind: hir.MetaList, List: nested}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		meta *hir.MetaItem
		want string
	}{
		{"word", word("unix"), "unix"},
		{"true_word", word("true"), "true"},
		{"false_word", word("false"), "false"},
		{"name_value", nameValue("target_os", "macos"), `target_os = "macos"`},
		{"not", list("not", word("unix")), "not(unix)"},
		{"any", list("any", word("unix"), word("windows")), "any(unix, windows)"},
		{"all", list("all", word("unix"), nameValue("target_arch", "x86_64")), `all(unix, target_arch = "x86_64")`},
		{"nested", list("all", word("unix"), list("not", word("windows"))), "all(unix, not(windows))"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.meta)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		meta *hir.MetaItem
	}{
		{"nil", nil},
		{"unknown_list", list("maybe", word("unix"))},
		{"not_arity", list("not", word("a"), word("b"))},
		{"literal_operand", &hir.MetaItem{Name: "any", Kind: hir.MetaList, List: []hir.NestedMetaItem{{Lit: "42"}}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.meta)
			if err == nil {
				t.Fatal("expected an error")
			}
			var invalid *InvalidCfgError
			if !errors.As(err, &invalid) {
				t.Errorf("expected InvalidCfgError, got %T", err)
			}
		})
	}
}

func TestAnd(t *testing.T) {
	t.Parallel()

	unix := &Cfg{Kind: Word, Name: "unix"}
	windows := &Cfg{Kind: Word, Name: "windows"}

	t.Run("true_is_identity", func(t *testing.T) {
		if got := And(TrueCfg(), unix); !got.Equal(unix) {
			t.Errorf("got %s", got)
		}
		if got := And(unix, TrueCfg()); !got.Equal(unix) {
			t.Errorf("got %s", got)
		}
	})

	t.Run("false_annihilates", func(t *testing.T) {
		got := And(unix, &Cfg{Kind: False})
		if got.Kind != False {
			t.Errorf("got %s", got)
		}
	})

	t.Run("equal_operands_collapse", func(t *testing.T) {
		if got := And(unix, &Cfg{Kind: Word, Name: "unix"}); !got.Equal(unix) {
			t.Errorf("got %s", got)
		}
	})

	t.Run("distinct_operands_conjoin", func(t *testing.T) {
		got := And(unix, windows)
		if got.String() != "all(unix, windows)" {
			t.Errorf("got %s", got)
		}
	})

	t.Run("all_flattens_and_dedupes", func(t *testing.T) {
		both := And(unix, windows)
		got := And(both, &Cfg{Kind: All, Sub: []*Cfg{windows, {Kind: Word, Name: "wasm"}}})
		if got.String() != "all(unix, windows, wasm)" {
			t.Errorf("got %s", got)
		}
	})
}

func TestSortedWords(t *testing.T) {
	t.Parallel()
	c := &Cfg{Kind: All, Sub: []*Cfg{
		{Kind: Word, Name: "windows"},
		{Kind: Not, Sub: []*Cfg{{Kind: Word, Name: "unix"}}},
		{Kind: NameValue, Name: "target_os", Value: "macos"},
	}}
	got := c.SortedWords()
	if len(got) != 2 || got[0] != "unix" || got[1] != "windows" {
		t.Errorf("got %v", got)
	}
}
