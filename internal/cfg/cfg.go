// Package cfg models configuration predicates extracted from
// `#[doc(cfg(...))]` attributes: boolean expressions over build-time flags
// that gate whether documentation applies.
package cfg

import (
	"sort"
	"strings"

	"github.com/oxidoc/oxidoc/internal/hir"
)

// Kind discriminates a predicate node.
type Kind int

const (
	// False is the always-false predicate.
	False Kind = iota
	// True is the tautology.
	True
	// Word is a bare flag, e.g. `unix`.
	Word
	// NameValue is `name = "value"`, e.g. `target_feature = "avx2"`.
	NameValue
	// Not negates its single operand.
	Not
	// Any is a disjunction.
	Any
	// All is a conjunction.
	All
)

// Cfg is one node of a configuration-predicate tree. Trees are immutable
// after construction; items with identical predicates share one allocation.
type Cfg struct {
	Kind  Kind
	Name  string
	Value string
	Sub   []*Cfg
}

// TrueCfg returns the tautology predicate.
func TrueCfg() *Cfg { return &Cfg{Kind: True} }

// IsTrue reports whether the predicate is the tautology.
func (c *Cfg) IsTrue() bool { return c != nil && c.Kind == True }

// Equal reports structural equality.
func (c *Cfg) Equal(other *Cfg) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Kind != other.Kind || c.Name != other.Name || c.Value != other.Value {
		return false
	}
	if len(c.Sub) != len(other.Sub) {
		return false
	}
	for i := range c.Sub {
		if !c.Sub[i].Equal(other.Sub[i]) {
			return false
		}
	}
	return true
}

// And returns the conjunction of two predicates, simplifying around the
// tautology and always-false so that `True` stays the identity.
func And(a, b *Cfg) *Cfg {
	switch {
	case a == nil || a.Kind == True:
		return b
	case b == nil || b.Kind == True:
		return a
	case a.Kind == False || b.Kind == False:
		return &Cfg{Kind: False}
	case a.Equal(b):
		return a
	}
	var sub []*Cfg
	if a.Kind == All {
		sub = append(sub, a.Sub...)
	} else {
		sub = append(sub, a)
	}
	if b.Kind == All {
		for _, s := range b.Sub {
			if !containsCfg(sub, s) {
				sub = append(sub, s)
			}
		}
	} else if !containsCfg(sub, b) {
		sub = append(sub, b)
	}
	if len(sub) == 1 {
		return sub[0]
	}
	return &Cfg{Kind: All, Sub: sub}
}

func containsCfg(list []*Cfg, c *Cfg) bool {
	for _, e := range list {
		if e.Equal(c) {
			return true
		}
	}
	return false
}

// String renders the predicate in attribute syntax, deterministically.
func (c *Cfg) String() string {
	if c == nil {
		return "true"
	}
	switch c.Kind {
	case False:
		return "false"
	case True:
		return "true"
	case Word:
		return c.Name
	case NameValue:
		return c.Name + ` = "` + c.Value + `"`
	case Not:
		return "not(" + c.Sub[0].String() + ")"
	case Any, All:
		parts := make([]string, len(c.Sub))
		for i, s := range c.Sub {
			parts[i] = s.String()
		}
		head := "any"
		if c.Kind == All {
			head = "all"
		}
		return head + "(" + strings.Join(parts, ", ") + ")"
	}
	return "<invalid cfg>"
}

// SortedWords returns the bare flag names mentioned anywhere in the
// predicate, sorted. Used by the renderer for display grouping.
func (c *Cfg) SortedWords() []string {
	seen := map[string]bool{}
	var walk func(*Cfg)
	walk = func(n *Cfg) {
		if n == nil {
			return
		}
		if n.Kind == Word {
			seen[n.Name] = true
		}
		for _, s := range n.Sub {
			walk(s)
		}
	}
	walk(c)
	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// InvalidCfgError reports a malformed predicate, positioned at the offending
// meta item. It is diagnostic-reported and recoverable: callers skip the
// predicate and continue.
type InvalidCfgError struct {
	Msg  string
	Span hir.Span
}

func (e *InvalidCfgError) Error() string { return e.Msg }

// Parse converts a meta item into a predicate tree.
func Parse(mi *hir.MetaItem) (*Cfg, error) {
	if mi == nil {
		return nil, &InvalidCfgError{Msg: "missing cfg predicate"}
	}
	switch mi.Kind {
	case hir.MetaWord:
		switch mi.Name {
		case "true":
			return &Cfg{Kind: True}, nil
		case "false":
			return &Cfg{Kind: False}, nil
		}
		return &Cfg{Kind: Word, Name: mi.Name}, nil
	case hir.MetaNameValue:
		return &Cfg{Kind: NameValue, Name: mi.Name, Value: mi.Value}, nil
	case hir.MetaList:
		switch mi.Name {
		case "not":
			if len(mi.List) != 1 {
				return nil, &InvalidCfgError{Msg: "expected 1 cfg-pattern", Span: mi.Span}
			}
			sub, err := parseNested(mi.List[0])
			if err != nil {
				return nil, err
			}
			return &Cfg{Kind: Not, Sub: []*Cfg{sub}}, nil
		case "any", "all":
			kind := Any
			if mi.Name == "all" {
				kind = All
			}
			subs := make([]*Cfg, 0, len(mi.List))
			for _, nested := range mi.List {
				sub, err := parseNested(nested)
				if err != nil {
					return nil, err
				}
				subs = append(subs, sub)
			}
			return &Cfg{Kind: kind, Sub: subs}, nil
		default:
			return nil, &InvalidCfgError{Msg: "invalid predicate", Span: mi.Span}
		}
	}
	return nil, &InvalidCfgError{Msg: "invalid predicate", Span: mi.Span}
}

func parseNested(n hir.NestedMetaItem) (*Cfg, error) {
	meta, ok := n.MetaItem()
	if !ok {
		return nil, &InvalidCfgError{Msg: "unexpected literal", Span: n.Span}
	}
	return Parse(meta)
}
