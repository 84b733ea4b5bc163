package linkcheck

import (
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// RefKind classifies a reference found by the markdown parser.
type RefKind string

const (
	RefImage      RefKind = "image"
	RefLink       RefKind = "link"
	RefAuto       RefKind = "autolink"
	RefDefinition RefKind = "definition"
)

// Ref is a destination the markdown parser recognized.
type Ref struct {
	Kind        RefKind
	Destination string
}

// Extract parses body as CommonMark and lists every link-like destination.
// Reference definitions are appended after the inline references, sorted by label.
func Extract(body []byte) []Ref {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	refs := make([]Ref, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			refs = append(refs, Ref{Kind: RefAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			refs = append(refs, Ref{Kind: RefImage, Destination: string(node.Destination)})
		case *gmast.Link:
			refs = append(refs, Ref{Kind: RefLink, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	defs := ctx.References()
	sort.Slice(defs, func(i, j int) bool {
		return string(defs[i].Label()) < string(defs[j].Label())
	})
	for _, d := range defs {
		refs = append(refs, Ref{Kind: RefDefinition, Destination: string(d.Destination())})
	}
	return refs
}
