package hir

// StabilityLevel is a feature's stabilization state.
type StabilityLevel int

const (
	LevelUnstable StabilityLevel = iota
	LevelStable
)

// Stability records a definition's `#[stable]`/`#[unstable]` state.
type Stability struct {
	Level   StabilityLevel
	Feature string
	Since   string // populated when Level is LevelStable
}

// IsUnstable reports whether the definition is behind a feature gate.
func (s Stability) IsUnstable() bool {
	return s.Level == LevelUnstable
}

// ConstStability records the stability of using a definition in const
// contexts, tracked independently of its runtime stability.
type ConstStability struct {
	Level   StabilityLevel
	Feature string
	Since   string
}

// Deprecation records a `#[deprecated]` attribute.
type Deprecation struct {
	Since      string
	Note       string
	Suggestion string
}

// LangItem names a definition the language itself depends on. Only the
// inherent-impl lang items consulted by the primitive registry are listed.
type LangItem int

const (
	LangIsizeImpl LangItem = iota
	LangI8Impl
	LangI16Impl
	LangI32Impl
	LangI64Impl
	LangI128Impl
	LangUsizeImpl
	LangU8Impl
	LangU16Impl
	LangU32Impl
	LangU64Impl
	LangU128Impl
	LangF32Impl
	LangF32RuntimeImpl
	LangF64Impl
	LangF64RuntimeImpl
	LangCharImpl
	LangBoolImpl
	LangStrImpl
	LangStrAllocImpl
	LangSliceImpl
	LangSliceU8Impl
	LangSliceAllocImpl
	LangSliceU8AllocImpl
	LangArrayImpl
	LangConstPtrImpl
	LangMutPtrImpl
	LangConstSlicePtrImpl
	LangMutSlicePtrImpl
	LangSizedTrait
)

// LangItems is the compiler's lang-item registry: which definition, if any,
// fills each language hook.
type LangItems map[LangItem]DefID

// Get returns the definition registered for the lang item.
func (l LangItems) Get(item LangItem) (DefID, bool) {
	id, ok := l[item]
	return id, ok
}

// Queries is everything the clean pass asks of the compiler core, keyed by
// stable identifiers. Implementations must answer from already-resident
// data; no call blocks.
type Queries interface {
	// Attrs returns the item's attribute list in declaration order.
	Attrs(def DefID) []Attribute
	// Visibility returns the item's resolved visibility.
	Visibility(def DefID) Visibility
	// DefSpan returns the definition-only span of the item.
	DefSpan(def DefID) Span
	// SpanWithBody returns the full signature-plus-body span. Only
	// meaningful for local items.
	SpanWithBody(def DefID) Span
	// LookupStability returns the stability record, or nil when untracked.
	LookupStability(def DefID) *Stability
	// LookupConstStability returns the const-stability record, or nil.
	LookupConstStability(def DefID) *ConstStability
	// LookupDeprecation returns the deprecation record, or nil.
	LookupDeprecation(def DefID) *Deprecation
	// LangItems returns the lang-item registry.
	LangItems() LangItems
}
