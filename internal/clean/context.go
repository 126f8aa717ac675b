package clean

import (
	"github.com/oxidoc/oxidoc/internal/diag"
	"github.com/oxidoc/oxidoc/internal/hir"
)

// Context carries everything the clean pass needs from its surroundings:
// the compiler queries, the fake-item registry, the primitive-impl cache,
// and the diagnostic handler. Caches are fields rather than globals so tests
// can construct isolated instances.
type Context struct {
	Tcx   hir.Queries
	Defs  *DefRegistry
	Impls *ImplCache
	Diags *diag.Handler
}

// NewContext wires a context around a compiler-query implementation.
func NewContext(tcx hir.Queries) *Context {
	return &Context{
		Tcx:   tcx,
		Defs:  NewDefRegistry(),
		Impls: NewImplCache(),
		Diags: diag.NewHandler(),
	}
}
