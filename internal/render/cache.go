// Package render holds the state the documentation renderer shares with the
// clean pass: where each definition's page lives and how external crates are
// reached.
package render

import (
	"strings"

	"github.com/oxidoc/oxidoc/internal/clean"
	"github.com/oxidoc/oxidoc/internal/hir"
)

// ExternalLocation says where an external crate's docs can be found.
type ExternalLocation int

const (
	// LocationLocal means the crate is rendered alongside this one.
	LocationLocal ExternalLocation = iota
	// LocationRemote means the crate documented its docs URL.
	LocationRemote
	// LocationUnknown means nothing is known about the crate's docs.
	LocationUnknown
)

// CrateLocation is everything recorded about one dependency crate.
type CrateLocation struct {
	Name     string
	Src      string
	Location ExternalLocation
	// URL is the remote documentation base, set only for LocationRemote.
	URL string
}

// PathInfo is a definition's fully qualified path and page category.
type PathInfo struct {
	Path []string
	Type clean.ItemType
}

// Cache must be fully populated before link resolution runs; querying a
// half-built cache is a precondition violation, not a recoverable state.
type Cache struct {
	// ExternLocations records how each dependency crate's docs are reached.
	ExternLocations map[hir.CrateNum]CrateLocation
	// Paths covers definitions rendered by this invocation; ExternalPaths
	// covers everything else the cache learned about.
	Paths         map[hir.DefID]PathInfo
	ExternalPaths map[hir.DefID]PathInfo
	// PrimitiveLocations maps each primitive to the definition that carries
	// its documentation page.
	PrimitiveLocations map[clean.PrimitiveType]hir.DefID
	// Depth is how many directories deep the page being rendered sits.
	Depth int
	// NightlyChannel selects the nightly standard-library docs for links
	// into crates with no known location.
	NightlyChannel bool
}

// NewCache returns an empty cache ready for population.
func NewCache() *Cache {
	return &Cache{
		ExternLocations:    make(map[hir.CrateNum]CrateLocation),
		Paths:              make(map[hir.DefID]PathInfo),
		ExternalPaths:      make(map[hir.DefID]PathInfo),
		PrimitiveLocations: make(map[clean.PrimitiveType]hir.DefID),
	}
}

// PrimitiveLocation reports which definition documents the primitive.
func (c *Cache) PrimitiveLocation(p clean.PrimitiveType) (hir.DefID, bool) {
	did, ok := c.PrimitiveLocations[p]
	return did, ok
}

// Href computes the page URL for a definition, or false when the definition
// has no reachable page.
func (c *Cache) Href(did hir.DefID) (string, bool) {
	var (
		info PathInfo
		url  strings.Builder
	)
	if local, ok := c.Paths[did]; ok {
		info = local
		url.WriteString(strings.Repeat("../", c.Depth))
	} else {
		external, ok := c.ExternalPaths[did]
		if !ok {
			return "", false
		}
		info = external
		switch loc := c.ExternLocations[did.Krate]; loc.Location {
		case LocationRemote:
			url.WriteString(loc.URL)
		case LocationLocal:
			url.WriteString(strings.Repeat("../", c.Depth))
		default:
			return "", false
		}
	}
	if len(info.Path) == 0 {
		return "", false
	}
	for _, component := range info.Path[:len(info.Path)-1] {
		url.WriteString(component)
		url.WriteByte('/')
	}
	last := info.Path[len(info.Path)-1]
	if info.Type == clean.ItemTypeModule {
		url.WriteString(last)
		url.WriteString("/index.html")
	} else {
		url.WriteString(info.Type.String())
		url.WriteByte('.')
		url.WriteString(last)
		url.WriteString(".html")
	}
	return url.String(), true
}
