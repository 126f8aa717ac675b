package clean

import "github.com/oxidoc/oxidoc/internal/hir"

// Span wraps a compiler span and enforces that clean entities only ever see
// the macro invocation site, never the expansion site.
type Span struct {
	sp hir.Span
}

// SpanFromHir wraps a compiler span. Snapshot spans are already resolved to
// their invocation callsite by the exporting compiler.
func SpanFromHir(sp hir.Span) Span {
	return Span{sp: sp}
}

// DummySpan returns the span carrying no position information.
func DummySpan() Span {
	return Span{}
}

// Hir returns the underlying compiler span.
func (s Span) Hir() hir.Span {
	return s.sp
}

// IsDummy reports whether the span carries no position information.
func (s Span) IsDummy() bool {
	return s.sp.IsDummy()
}

// Filename returns the file the span points into.
func (s Span) Filename() string {
	return s.sp.File
}

// Lo returns the span's starting position.
func (s Span) Lo() hir.Loc {
	return s.sp.Lo
}

// Hi returns the span's ending position.
func (s Span) Hi() hir.Loc {
	return s.sp.Hi
}
