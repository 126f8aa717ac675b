package clean

import (
	"strings"
	"testing"
)

func TestJoinFragments_IndentStripping(t *testing.T) {
	t.Parallel()
	frags := []DocFragment{{
		Doc:    " First line.\n\n Second line.",
		Kind:   FragmentSugaredDoc,
		Indent: 1,
	}}
	got := JoinFragments(frags)
	want := "First line.\n\nSecond line."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJoinFragments_BlankLinesPassThrough(t *testing.T) {
	t.Parallel()
	frags := []DocFragment{{
		Doc:    "  a\n \n  b",
		Kind:   FragmentSugaredDoc,
		Indent: 2,
	}}
	got := JoinFragments(frags)
	// the all-whitespace middle line is not trimmed to the indent
	want := "a\n \nb"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJoinFragments_PanicsOnShortLine(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a line shorter than the indent")
		}
	}()
	JoinFragments([]DocFragment{{Doc: "x", Kind: FragmentSugaredDoc, Indent: 4}})
}

func TestJoinFragments_Backline(t *testing.T) {
	t.Parallel()
	frags := []DocFragment{
		{Doc: "First block.", Kind: FragmentSugaredDoc, NeedBackline: true},
		{Doc: "Second block.", Kind: FragmentSugaredDoc},
	}
	got := JoinFragments(frags)
	want := "First block.\nSecond block."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJoinFragments_IncludeBoundaryGetsBlankLine(t *testing.T) {
	t.Parallel()
	frags := []DocFragment{
		{Doc: "included text", Kind: FragmentInclude, Filename: "extra.md"},
		{Doc: "sugared text", Kind: FragmentSugaredDoc},
	}
	got := JoinFragments(frags)
	want := "included text\nsugared text"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// two includes from different files also separate
	frags = []DocFragment{
		{Doc: "one", Kind: FragmentInclude, Filename: "a.md"},
		{Doc: "two", Kind: FragmentInclude, Filename: "b.md"},
	}
	got = JoinFragments(frags)
	if got != "one\ntwo" {
		t.Errorf("got %q", got)
	}
}

func TestUpdateNeedBackline(t *testing.T) {
	t.Parallel()

	t.Run("same_kind_continues", func(t *testing.T) {
		frags := []DocFragment{{Doc: "a", Kind: FragmentSugaredDoc}}
		updateNeedBackline(frags, &DocFragment{Doc: "b", Kind: FragmentSugaredDoc})
		if !frags[0].NeedBackline {
			t.Error("expected NeedBackline on the previous fragment")
		}
	})

	t.Run("kind_change_pads_comment_fragments", func(t *testing.T) {
		frags := []DocFragment{{Doc: "a", Kind: FragmentRawDoc}}
		updateNeedBackline(frags, &DocFragment{Doc: "b", Kind: FragmentSugaredDoc})
		if !frags[0].NeedBackline {
			t.Error("raw doc before a kind change should take a backline")
		}
	})

	t.Run("include_never_takes_backline", func(t *testing.T) {
		frags := []DocFragment{{Doc: "a", Kind: FragmentInclude, Filename: "f.md"}}
		updateNeedBackline(frags, &DocFragment{Doc: "b", Kind: FragmentSugaredDoc})
		if frags[0].NeedBackline {
			t.Error("include fragments never take a backline")
		}
	})

	t.Run("empty_list_is_a_no_op", func(t *testing.T) {
		updateNeedBackline(nil, &DocFragment{Doc: "b", Kind: FragmentSugaredDoc})
	})
}

func TestBeautifyDocString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single_line", "hello", "hello"},
		{"star_frame", "***\n * one\n * two\n***", " one\n two"},
		{"star_prefix", " * one\n * two", " one\n two"},
		{"no_shared_prefix", "one\n * two", "one\n * two"},
		{"misaligned_stars", " * one\n   * two", " * one\n   * two"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := beautifyDocString(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBeautifyDocString_BlockCommentFraming(t *testing.T) {
	t.Parallel()
	// /** ... */ bodies open with a blank line; the trim must still find the
	// shared star column.
	in := "\n * text\n "
	got := beautifyDocString(in)
	if !strings.Contains(got, "text") {
		t.Errorf("got %q", got)
	}
	if strings.Contains(got, "*") {
		t.Errorf("star prefix survived: %q", got)
	}
}
