// Package content converts raw page text into terminal display text.
//
// Inline image references of the form [alt](src), optionally prefixed with '!',
// are lifted out of the text into Link records. Each reference is replaced by a
// marker token ([[image:N]]) that the binder later turns back into an anchor.
package content

import (
	"regexp"
	"strconv"
	"strings"
)

// FallbackLabel is shown for references whose alt text is blank.
const FallbackLabel = "View image"

// MarkerPrefix starts every marker token.
const MarkerPrefix = "[[image:"

var (
	referencePattern = regexp.MustCompile(`!?\[([^\]]*)\]\(([^)]+)\)`)
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
)

// Link is one image reference extracted from a page.
type Link struct {
	Marker string `json:"marker"`
	Alt    string `json:"alt"`
	Src    string `json:"src"`
}

// Parsed is the result of Parse. Text is what the renderer consumes; Links keeps
// first-occurrence order, so Links[i].Marker is always Marker(i).
type Parsed struct {
	Text  string `json:"text"`
	Links []Link `json:"links"`
}

// Marker returns the token for the n-th reference of a parse.
func Marker(n int) string {
	return MarkerPrefix + strconv.Itoa(n) + "]]"
}

// Label returns the display label for an alt text. Runs of whitespace,
// newlines included, fold to a single space so a rewritten reference always
// stays on one output line.
func Label(alt string) string {
	if label := strings.Join(strings.Fields(alt), " "); label != "" {
		return label
	}
	return FallbackLabel
}

// Parse extracts image references from raw and rewrites each one in place as
// [label](marker). Every match is rewritten at its own position, so identical
// references each get their own marker. Text that does not match passes through
// untouched apart from blank-line normalization.
func Parse(raw string) Parsed {
	matches := referencePattern.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return Parsed{Text: NormalizeNewlines(raw), Links: []Link{}}
	}

	links := make([]Link, 0, len(matches))
	var b strings.Builder
	b.Grow(len(raw))

	last := 0
	for i, m := range matches {
		label := Label(raw[m[2]:m[3]])
		link := Link{
			Marker: Marker(i),
			Alt:    label,
			Src:    strings.TrimSpace(raw[m[4]:m[5]]),
		}
		links = append(links, link)

		b.WriteString(raw[last:m[0]])
		b.WriteString("[" + label + "](" + link.Marker + ")")
		last = m[1]
	}
	b.WriteString(raw[last:])

	return Parsed{Text: NormalizeNewlines(b.String()), Links: links}
}

// NormalizeNewlines collapses every run of three or more newlines to exactly two.
func NormalizeNewlines(s string) string {
	return blankRunPattern.ReplaceAllString(s, "\n\n")
}

// Find returns the link carrying marker.
func Find(links []Link, marker string) (Link, bool) {
	for _, l := range links {
		if l.Marker == marker {
			return l, true
		}
	}
	return Link{}, false
}
