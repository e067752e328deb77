// Package cleanse normalizes rich-text HTML through a strict allowlist.
// Cleansing is not only for user generated content: managers paste from word
// processors, and rich-text editors rarely emit the markup you want stored.
package cleanse

import "github.com/microcosm-cc/bluemonday"

// Policy returns the default allowlist policy: basic text structure plus
// anchors, nothing else. Callers needing a different allowlist can build on
// the returned policy or supply their own.
func Policy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"a", "h1", "h2", "h3", "strong", "em", "p",
		"ul", "ol", "li", "br", "sub", "sup", "hr",
	)
	p.AllowAttrs("href", "name", "target", "title", "id", "rel").OnElements("a")
	p.AllowStandardURLs()
	return p
}

var defaultPolicy = Policy()

// HTML passes ugly HTML through the default policy and returns nice HTML.
func HTML(input string) string {
	return defaultPolicy.Sanitize(input)
}
