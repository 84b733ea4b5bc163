// Package binder turns marker tokens in a rendered HTML tree back into
// interactive anchors.
//
// The terminal renderer paints parsed text verbatim, so a reference produced by
// content.Parse shows up inside a text node as "[label]([[image:N]])". Bind
// finds those spans, splits the text node around them and inserts an <a>
// element per span. Anchors carry the marker and the render context so later
// passes can skip them and events can be routed back to the link table.
package binder

import (
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/termsite/internal/content"
	"git.home.luguber.info/inful/termsite/internal/logfields"
)

const (
	// AttrMarker holds the marker token on a bound anchor.
	AttrMarker = "data-overlay-marker"
	// AttrContext holds the render context that produced the anchor.
	AttrContext = "data-overlay-command"
	// AttrSkip marks an element whose subtree is never bound, such as echoed
	// user input.
	AttrSkip = "data-no-bind"

	anchorStyle = "color: inherit; text-decoration: underline; cursor: pointer; font-weight: bold"
)

var markerPattern = regexp.MustCompile(`\[([^\]]*)\]\((\[\[image:\d+\]\])\)`)

// HoverInfo describes the tooltip for a hovered anchor.
type HoverInfo struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Alt string  `json:"alt"`
}

// Resolver looks a marker up in the link table of the render context.
type Resolver func(marker string) (content.Link, bool)

// Handlers receive the behavior of resolved anchors.
type Handlers struct {
	// Open is called with the marker of a clicked anchor.
	Open func(marker string)
	// Hover is called with tooltip info on pointer enter and with nil on pointer leave.
	Hover func(info *HoverInfo)
}

// Bind replaces every "[label]([[image:N]])" span in the text nodes under root
// with an anchor element and returns the anchors in document order.
//
// Text nodes that already sit inside a bound anchor are skipped, so binding the
// same tree again is a no-op. Subtrees of elements carrying AttrSkip are left
// alone. Text outside matched spans is kept byte for byte.
func Bind(root *html.Node, contextID string, resolve Resolver, h Handlers) []*Anchor {
	if root == nil {
		return nil
	}

	var pending []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if n.Parent != nil && strings.Contains(n.Data, content.MarkerPrefix) && !IsBound(n) {
				pending = append(pending, n)
			}
			return
		}
		if n.Type == html.ElementNode && hasAttr(n, AttrSkip) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	var anchors []*Anchor
	for _, n := range pending {
		anchors = append(anchors, splice(n, contextID, resolve, h)...)
	}
	return anchors
}

// IsBound reports whether n is, or sits inside, an anchor created by Bind.
func IsBound(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.A && hasAttr(p, AttrMarker) {
			return true
		}
	}
	return false
}

func splice(n *html.Node, contextID string, resolve Resolver, h Handlers) []*Anchor {
	text := n.Data
	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	parent := n.Parent
	anchors := make([]*Anchor, 0, len(matches))
	last := 0
	for _, m := range matches {
		if m[0] > last {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text[last:m[0]]}, n)
		}

		label := text[m[2]:m[3]]
		if label == "" {
			label = content.FallbackLabel
		}
		a := newAnchor(text[m[4]:m[5]], contextID, label)
		if link, ok := lookup(resolve, a.Marker); ok {
			wire(a, link, h)
		} else {
			slog.Debug("Marker has no link, leaving anchor inert",
				logfields.ContextID(contextID),
				logfields.Marker(a.Marker))
		}
		parent.InsertBefore(a.Node, n)
		anchors = append(anchors, a)
		last = m[1]
	}
	if last < len(text) {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text[last:]}, n)
	}
	parent.RemoveChild(n)
	return anchors
}

func newAnchor(marker, contextID, label string) *Anchor {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr: []html.Attribute{
			{Key: "href", Val: "#"},
			{Key: AttrMarker, Val: marker},
			{Key: AttrContext, Val: contextID},
			{Key: "style", Val: anchorStyle},
		},
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: label})
	return &Anchor{Node: node, Marker: marker, ContextID: contextID, Label: label}
}

func wire(a *Anchor, link content.Link, h Handlers) {
	marker := a.Marker
	a.On(EventClick, func(e *Event) {
		e.PreventDefault()
		if h.Open != nil {
			h.Open(marker)
		}
	})
	a.On(EventPointerEnter, func(e *Event) {
		if h.Hover != nil {
			h.Hover(&HoverInfo{X: e.Rect.Left, Y: e.Rect.Top, Alt: link.Alt})
		}
	})
	a.On(EventPointerLeave, func(*Event) {
		if h.Hover != nil {
			h.Hover(nil)
		}
	})
}

func lookup(resolve Resolver, marker string) (content.Link, bool) {
	if resolve == nil {
		return content.Link{}, false
	}
	return resolve(marker)
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// Attr returns the value of an attribute on n.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
