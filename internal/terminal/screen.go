// Package terminal renders console output into an HTML node tree and offers
// the text utilities used to print pages on a real terminal.
package terminal

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/termsite/internal/binder"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
)

const (
	// ContentName is the name attribute of the output container.
	ContentName = "terminal__content"
	// ContentSelector locates the output container.
	ContentSelector = "[name='" + ContentName + "']"
	// AttrContext carries the render context ID of an output block.
	AttrContext = "data-context"

	// DefaultPrompt is shown in front of echoed input.
	DefaultPrompt = "guest@termsite:~$"
)

const screenTemplate = `<!DOCTYPE html><html><head></head><body>` +
	`<div class="terminal"><div class="terminal__content" name="` + ContentName + `"></div></div>` +
	`</body></html>`

// Block is one unit of output appended to the screen.
type Block struct {
	ContextID string
	// Prompt and Input echo the command line that produced the block. Both are
	// empty for output that was not typed, such as the welcome page.
	Prompt string
	Input  string
	Text   string
}

// Screen holds the console DOM of one session.
type Screen struct {
	doc     *html.Node
	content *html.Node
	blocks  []*html.Node
}

// NewScreen parses the console skeleton and locates its output container.
func NewScreen() (*Screen, error) {
	doc, err := html.Parse(strings.NewReader(screenTemplate))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "parse terminal skeleton").Build()
	}
	container, err := Content(doc)
	if err != nil {
		return nil, err
	}
	return &Screen{doc: doc, content: container}, nil
}

// Content finds the output container under root.
func Content(root *html.Node) (*html.Node, error) {
	sel := goquery.NewDocumentFromNode(root).Find(ContentSelector)
	if sel.Length() == 0 {
		return nil, errors.RenderError("terminal content container not found").
			WithContext("selector", ContentSelector).
			Build()
	}
	return sel.Get(0), nil
}

// Container returns the output container node.
func (s *Screen) Container() *html.Node { return s.content }

// Document returns the document root.
func (s *Screen) Document() *html.Node { return s.doc }

// Len returns the number of appended blocks.
func (s *Screen) Len() int { return len(s.blocks) }

// Append adds b to the end of the output container and returns its node.
// Every line of the text becomes a div.line holding a single text node.
func (s *Screen) Append(b Block) *html.Node {
	node := NewBlock(b)
	s.content.AppendChild(node)
	s.blocks = append(s.blocks, node)
	return node
}

// NewBlock builds the detached node for b.
func NewBlock(b Block) *html.Node {
	out := element(atom.Div, "output")
	if b.ContextID != "" {
		out.Attr = append(out.Attr, html.Attribute{Key: AttrContext, Val: b.ContextID})
	}

	if b.Prompt != "" || b.Input != "" {
		echo := element(atom.Div, "line line--input")
		echo.Attr = append(echo.Attr, html.Attribute{Key: binder.AttrSkip})
		prompt := element(atom.Span, "prompt")
		prompt.AppendChild(&html.Node{Type: html.TextNode, Data: b.Prompt})
		echo.AppendChild(prompt)
		echo.AppendChild(&html.Node{Type: html.TextNode, Data: " " + b.Input})
		out.AppendChild(echo)
	}

	if b.Text == "" {
		return out
	}
	for _, line := range strings.Split(b.Text, "\n") {
		div := element(atom.Div, "line")
		if line != "" {
			div.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		}
		out.AppendChild(div)
	}
	return out
}

// RenderNode serializes n including its own tag.
func RenderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", errors.WrapError(err, errors.CategoryRender, "render node").Build()
	}
	return buf.String(), nil
}

// Transcript serializes the children of the output container.
func (s *Screen) Transcript() (string, error) {
	var buf bytes.Buffer
	for c := s.content.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", errors.WrapError(err, errors.CategoryRender, "render transcript").Build()
		}
	}
	return buf.String(), nil
}

// Clear removes all output blocks.
func (s *Screen) Clear() {
	for c := s.content.FirstChild; c != nil; {
		next := c.NextSibling
		s.content.RemoveChild(c)
		c = next
	}
	s.blocks = nil
}

func element(a atom.Atom, class string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
}
