package clean

import (
	"fmt"
	"sync"

	"github.com/oxidoc/oxidoc/internal/hir"
)

// DefRegistry records, per compilation unit, the highest real definition
// index the compiler handed out. Identifiers at or past that high-water mark
// are "fake": synthesized by the documentation pass itself, with no entry in
// the compiler's stability tables.
//
// The registry is process-wide state shared by every crate being cleaned,
// but it is injectable so tests can build isolated instances.
type DefRegistry struct {
	mu     sync.RWMutex
	max    map[hir.CrateNum]hir.DefIndex
	minted map[hir.CrateNum]hir.DefIndex
}

// NewDefRegistry returns an empty registry.
func NewDefRegistry() *DefRegistry {
	return &DefRegistry{
		max:    make(map[hir.CrateNum]hir.DefIndex),
		minted: make(map[hir.CrateNum]hir.DefIndex),
	}
}

// RecordMax raises the fake-item threshold for a crate. The threshold is
// monotone: attempts to lower it are ignored.
func (r *DefRegistry) RecordMax(krate hir.CrateNum, idx hir.DefIndex) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.max[krate]; !ok || idx > cur {
		r.max[krate] = idx
	}
}

// IsFake reports whether the identifier exceeds its crate's recorded
// threshold. Crates with no recorded threshold have no fake items.
func (r *DefRegistry) IsFake(def hir.DefID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.max[def.Krate]
	return ok && idx <= def.Index
}

// NextFakeID mints a fresh fake identifier for the crate, past the recorded
// threshold and past any previously minted fake identifier. The crate's
// threshold must already be recorded; a zero threshold would make every real
// definition in the crate read as fake.
func (r *DefRegistry) NextFakeID(krate hir.CrateNum) hir.DefID {
	r.mu.Lock()
	defer r.mu.Unlock()
	base, ok := r.max[krate]
	if !ok {
		panic(fmt.Sprintf("minting a fake id for crate %d before its definition count was recorded", krate))
	}
	id := hir.DefID{Krate: krate, Index: base + r.minted[krate]}
	r.minted[krate]++
	return id
}
