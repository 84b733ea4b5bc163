// Package linktable holds the links extracted per render context for one session.
package linktable

import (
	"slices"

	"git.home.luguber.info/inful/termsite/internal/content"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
)

// Table maps a render context ID to the links its output carries. Entries are
// only ever added. Table is not safe for concurrent use; its owner serializes access.
type Table struct {
	entries map[string][]content.Link
	order   []string
}

// New returns an empty table.
func New() *Table {
	return &Table{entries: make(map[string][]content.Link)}
}

// Append records links under contextID. A context can be recorded once.
func (t *Table) Append(contextID string, links []content.Link) error {
	if contextID == "" {
		return errors.ValidationError("render context id is required").Build()
	}
	if _, exists := t.entries[contextID]; exists {
		return errors.AlreadyExistsError("render context already recorded").
			WithContext("context_id", contextID).
			Build()
	}
	t.entries[contextID] = slices.Clone(links)
	t.order = append(t.order, contextID)
	return nil
}

// Find resolves marker within contextID.
func (t *Table) Find(contextID, marker string) (content.Link, bool) {
	return content.Find(t.entries[contextID], marker)
}

// Resolver returns a lookup function scoped to contextID.
func (t *Table) Resolver(contextID string) func(string) (content.Link, bool) {
	return func(marker string) (content.Link, bool) {
		return t.Find(contextID, marker)
	}
}

// Links returns a copy of the links recorded for contextID.
func (t *Table) Links(contextID string) ([]content.Link, bool) {
	links, ok := t.entries[contextID]
	return slices.Clone(links), ok
}

// Contexts lists the recorded context IDs in insertion order.
func (t *Table) Contexts() []string {
	return slices.Clone(t.order)
}

// Len is the number of recorded contexts.
func (t *Table) Len() int { return len(t.order) }
