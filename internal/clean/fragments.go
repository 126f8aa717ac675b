package clean

import (
	"fmt"
	"strings"

	"github.com/oxidoc/oxidoc/internal/hir"
)

// DocFragment is one contiguous slice of documentation text. Included files
// are kept separate from inline doc comments so that proper line numbers can
// be reported when an embedded example fails. Sugared and raw doc comments
// are kept separate because their markdown may not merge cleanly.
type DocFragment struct {
	Line int
	Span hir.Span
	// ParentModule is the module this doc comment was pulled through. It
	// distinguishes original documentation from docs added at a re-export
	// site; nil means the item was not re-exported.
	ParentModule *hir.DefID
	Doc          string
	Kind         DocFragmentKind
	// Filename is set only for FragmentInclude.
	Filename string
	// NeedBackline marks that a blank line must follow this fragment when
	// fragments are flattened into one string.
	NeedBackline bool
	// Indent is the leading-whitespace width stripped from every non-blank
	// line during flattening.
	Indent int
}

// DocFragmentKind tags where a fragment's text came from.
type DocFragmentKind int

const (
	// FragmentSugaredDoc is a `///` or `//!` style comment.
	FragmentSugaredDoc DocFragmentKind = iota
	// FragmentRawDoc is a raw `#[doc = "..."]` attribute.
	FragmentRawDoc
	// FragmentInclude is a `#[doc(include = "file")]` attribute carrying the
	// file's contents.
	FragmentInclude
)

func sameFragmentKind(a, b *DocFragment) bool {
	return a.Kind == b.Kind && a.Filename == b.Filename
}

func sameParentModule(a, b *DocFragment) bool {
	if (a.ParentModule == nil) != (b.ParentModule == nil) {
		return false
	}
	return a.ParentModule == nil || *a.ParentModule == *b.ParentModule
}

// addDocFragment appends one fragment's flattened text to out: the recorded
// indent is stripped from every non-blank line, blank lines pass through
// verbatim, and a trailing newline is added when NeedBackline is set.
func addDocFragment(out *strings.Builder, frag *DocFragment) {
	lines := strings.Split(strings.TrimSuffix(frag.Doc, "\n"), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			if len(line) < frag.Indent {
				panic(fmt.Sprintf("clean: doc line %q shorter than computed indent %d", line, frag.Indent))
			}
			out.WriteString(line[frag.Indent:])
		} else {
			out.WriteString(line)
		}
		if i < len(lines)-1 {
			out.WriteByte('\n')
		}
	}
	if frag.NeedBackline {
		out.WriteByte('\n')
	}
}

// JoinFragments flattens every fragment into one string, inserting an extra
// blank line at each boundary where an include fragment meets a fragment of
// a different kind.
func JoinFragments(frags []DocFragment) string {
	var out strings.Builder
	var prev *DocFragment
	for i := range frags {
		frag := &frags[i]
		if out.Len() > 0 && prev != nil && prev.Kind == FragmentInclude && !sameFragmentKind(prev, frag) {
			out.WriteByte('\n')
		}
		addDocFragment(&out, frag)
		prev = frag
	}
	return out.String()
}

// updateNeedBackline retroactively decides whether the previous fragment
// needs a trailing blank line now that the next fragment is known.
func updateNeedBackline(fragments []DocFragment, next *DocFragment) {
	if len(fragments) == 0 {
		return
	}
	prev := &fragments[len(fragments)-1]
	if prev.Kind == FragmentInclude || !sameFragmentKind(prev, next) || !sameParentModule(prev, next) {
		// a separator pads distinct doc blocks, but only comment-style
		// fragments take one
		prev.NeedBackline = prev.Kind == FragmentSugaredDoc || prev.Kind == FragmentRawDoc
	} else {
		prev.NeedBackline = true
	}
}

// beautifyDocString strips comment decoration from a doc comment body: a
// leading or trailing line of nothing but stars, and a shared `[ \t]*\*`
// prefix left by block comments.
func beautifyDocString(data string) string {
	if !strings.Contains(data, "\n") {
		return data
	}
	lines := strings.Split(data, "\n")
	if lo, hi, ok := verticalTrim(lines); ok {
		lines = lines[lo:hi]
	}
	if width, ok := horizontalTrim(lines); ok {
		trimmed := make([]string, len(lines))
		for i, line := range lines {
			if len(line) > width {
				trimmed[i] = line[width:]
			}
		}
		lines = trimmed
	}
	return strings.Join(lines, "\n")
}

func allStars(line string) bool {
	if line == "" {
		return false
	}
	for _, c := range line {
		if c != '*' {
			return false
		}
	}
	return true
}

func verticalTrim(lines []string) (int, int, bool) {
	lo, hi := 0, len(lines)
	if len(lines) > 0 && allStars(lines[0]) {
		lo++
	}
	if hi > lo && allStars(lines[hi-1]) {
		hi--
	}
	return lo, hi, lo != 0 || hi != len(lines)
}

// horizontalTrim finds the width of a star prefix shared by every line, or
// reports that no such prefix exists. Blank first and last lines are ignored
// so that `/**` and `*/` framing doesn't defeat the trim.
func horizontalTrim(lines []string) (int, bool) {
	if len(lines) > 2 {
		if strings.TrimSpace(lines[0]) == "" {
			lines = lines[1:]
		}
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
	}
	if len(lines) == 0 {
		return 0, false
	}
	col := -1
	for _, line := range lines {
		found := false
		for j, c := range line {
			if (col >= 0 && j > col) || (c != '*' && c != ' ' && c != '\t') {
				return 0, false
			}
			if c == '*' {
				if col < 0 {
					col = j
				} else if col != j {
					return 0, false
				}
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return col + 1, true
}
