// Package diag accumulates recoverable diagnostics raised while cleaning a
// crate. Diagnostics never abort the run; fatal invariant violations panic
// instead.
package diag

import (
	"log/slog"
	"sync"

	"github.com/oxidoc/oxidoc/internal/hir"
)

// Diagnostic is one reported problem, positioned at a source span.
type Diagnostic struct {
	Span hir.Span
	Msg  string
}

// Handler collects diagnostics. Safe for concurrent use since crates may be
// cleaned with call-graph parallelism around this core.
type Handler struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// NewHandler returns an empty handler.
func NewHandler() *Handler {
	return &Handler{}
}

// SpanErr records an error at the given span.
func (h *Handler) SpanErr(span hir.Span, msg string) {
	slog.Debug("diagnostic", "file", span.File, "line", span.Lo.Line, "msg", msg)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.diags = append(h.diags, Diagnostic{Span: span, Msg: msg})
}

// Count returns the number of recorded diagnostics.
func (h *Handler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.diags)
}

// Diagnostics returns a copy of everything recorded so far.
func (h *Handler) Diagnostics() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Diagnostic, len(h.diags))
	copy(out, h.diags)
	return out
}
