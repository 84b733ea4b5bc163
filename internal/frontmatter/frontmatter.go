// Package frontmatter separates an optional YAML header from page text.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

const delimiter = "---\n"

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a page split into its header and body. Line endings are
// normalized to LF.
type Document struct {
	// Header is the raw YAML between the delimiters, without them.
	Header []byte
	Body   []byte
	// Had reports whether the input carried a header block, even an empty one.
	Had bool
}

// Split separates `---` delimited YAML frontmatter from the body.
//
// If the input does not start with a delimiter line, Had is false and Body is
// the whole input.
func Split(content []byte) (Document, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	open := []byte(delimiter)
	if !bytes.HasPrefix(content, open) {
		return Document{Body: content}, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return Document{Header: []byte{}, Body: rest[len(open):], Had: true}, nil
	}

	closeSeq := []byte("\n" + delimiter)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			return Document{Header: rest[:len(rest)-len("---")], Body: []byte{}, Had: true}, nil
		}
		return Document{}, ErrMissingClosingDelimiter
	}

	return Document{
		Header: rest[:idx+1],
		Body:   rest[idx+len(closeSeq):],
		Had:    true,
	}, nil
}

// Decode unmarshals the header into v. An empty header leaves v untouched.
func (d Document) Decode(v any) error {
	if len(bytes.TrimSpace(d.Header)) == 0 {
		return nil
	}
	return yaml.Unmarshal(d.Header, v)
}
