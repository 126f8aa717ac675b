package render

import (
	"fmt"
	"strings"

	"github.com/oxidoc/oxidoc/internal/clean"
	"github.com/oxidoc/oxidoc/internal/hir"
)

// RenderedLink is an intra-doc link ready for HTML output.
type RenderedLink struct {
	// OriginalText is what the author wrote, disambiguators and backticks
	// included.
	OriginalText string
	// NewText is what the page displays.
	NewText string
	// Href is the resolved URL.
	Href string
}

// Links resolves an attribute set's collected links against the cache,
// preserving input order. Links whose target has no reachable page are
// dropped; the text still renders, just without a hyperlink.
//
// A link with a fragment but no target refers to a primitive page; its URL
// is assembled by hand from the owning crate's location policy. A link with
// neither is unreachable by construction upstream, so it panics.
func Links(attrs *clean.Attributes, krate hir.CrateNum, cache *Cache) []RenderedLink {
	var out []RenderedLink
	for i := range attrs.Links {
		link := &attrs.Links[i]
		switch {
		case link.Did != nil:
			href, ok := cache.Href(*link.Did)
			if !ok {
				continue
			}
			if link.Fragment != nil {
				href = href + "#" + *link.Fragment
			}
			out = append(out, RenderedLink{
				OriginalText: link.Link,
				NewText:      link.LinkText,
				Href:         href,
			})
		case link.Fragment != nil:
			out = append(out, RenderedLink{
				OriginalText: link.Link,
				NewText:      link.LinkText,
				Href:         primitiveHref(cache, krate, *link.Fragment),
			})
		default:
			panic("render: link carries neither a target nor a fragment")
		}
	}
	return out
}

// ItemLinks resolves the links of one item.
func ItemLinks(item *clean.Item, cache *Cache) []RenderedLink {
	return Links(item.Attrs, item.DefID.Krate, cache)
}

func primitiveHref(cache *Cache, krate hir.CrateNum, fragment string) string {
	var url string
	switch loc, ok := cache.ExternLocations[krate]; {
	case ok && loc.Location == LocationLocal:
		url = strings.Repeat("../", cache.Depth)
	case ok && loc.Location == LocationRemote:
		url = loc.URL
	default:
		// the crate name is deliberately left out so primitive links agree
		// across crates
		if cache.NightlyChannel {
			url = "https://doc.rust-lang.org/nightly"
		} else {
			url = "https://doc.rust-lang.org"
		}
	}
	sep := "/"
	if strings.HasSuffix(url, "/") {
		sep = ""
	}
	page := fragment
	anchor := ""
	if idx := strings.IndexByte(fragment, '#'); idx >= 0 {
		page, anchor = fragment[:idx], fragment[idx:]
	}
	return fmt.Sprintf("%s%sstd/primitive.%s.html%s", url, sep, page, anchor)
}
