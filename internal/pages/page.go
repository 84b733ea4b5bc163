// Package pages loads the text pages a visitor can print in the terminal.
package pages

import (
	"path"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/frontmatter"
)

// WelcomeID is the page printed when a session starts.
const WelcomeID = "welcome"

// Extensions lists the file suffixes read as pages.
var Extensions = []string{".txt", ".md"}

// Page is one printable document.
type Page struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
	Hidden      bool   `json:"hidden,omitempty"`
	// Body is the raw page text, image references included.
	Body        string `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

type meta struct {
	Title       string `yaml:"title"`
	Command     string `yaml:"command"`
	Description string `yaml:"description"`
	Order       int    `yaml:"order"`
	Hidden      bool   `yaml:"hidden"`
}

// IsPageFile reports whether name has a page extension.
func IsPageFile(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ID derives the page ID from a file name.
func ID(name string) string {
	base := path.Base(name)
	return strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
}

// Parse builds a page from file contents. The ID doubles as the command name
// unless the header sets one.
func Parse(id string, data []byte) (*Page, error) {
	doc, err := frontmatter.Split(data)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "split page frontmatter").
			WithContext("page", id).
			Build()
	}

	var m meta
	if err := doc.Decode(&m); err != nil {
		return nil, errors.WrapError(err, errors.CategoryContent, "decode page frontmatter").
			WithContext("page", id).
			Build()
	}

	p := &Page{
		ID:          id,
		Title:       strings.TrimSpace(m.Title),
		Command:     strings.ToLower(strings.TrimSpace(m.Command)),
		Description: strings.TrimSpace(m.Description),
		Order:       m.Order,
		Hidden:      m.Hidden,
		Body:        strings.TrimRight(string(doc.Body), "\n"),
	}
	if p.Command == "" {
		p.Command = id
	}
	if p.Title == "" {
		p.Title = id
	}
	if strings.ContainsAny(p.Command, " \t") {
		return nil, errors.ValidationError("page command must be a single word").
			WithContext("page", id).
			WithContext("command", p.Command).
			Build()
	}

	p.Fingerprint = mdfp.CalculateFingerprintFromParts(strings.TrimRight(string(doc.Header), "\n"), p.Body)
	return p, nil
}
