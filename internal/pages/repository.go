package pages

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"

	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
)

//go:embed builtin/*.txt builtin/assets
var builtinFS embed.FS

// BuiltinPages returns the pages shipped with the binary.
func BuiltinPages() fs.FS {
	sub, _ := fs.Sub(builtinFS, "builtin")
	return sub
}

// BuiltinAssets returns the images referenced by the built-in pages.
func BuiltinAssets() fs.FS {
	sub, _ := fs.Sub(builtinFS, "builtin/assets")
	return sub
}

// Repository holds the loaded pages. It is safe for concurrent use; Reload
// swaps the whole set at once.
type Repository struct {
	source fs.FS

	mu        sync.RWMutex
	pages     map[string]*Page
	byCommand map[string]*Page
}

// Open loads pages from dir, or the built-in pages when dir is empty.
func Open(dir string) (*Repository, error) {
	if dir == "" {
		return NewRepository(BuiltinPages())
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "open pages directory").
			WithContext("path", dir).
			Build()
	}
	if !info.IsDir() {
		return nil, errors.ConfigError("pages path is not a directory").
			WithContext("path", dir).
			Build()
	}
	return NewRepository(os.DirFS(dir))
}

// NewRepository loads every page file at the top level of source.
func NewRepository(source fs.FS) (*Repository, error) {
	r := &Repository{source: source}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload reads the source again. On error the previous pages stay in place.
func (r *Repository) Reload() error {
	entries, err := fs.ReadDir(r.source, ".")
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "list pages").Build()
	}

	pages := make(map[string]*Page)
	byCommand := make(map[string]*Page)
	for _, e := range entries {
		if e.IsDir() || !IsPageFile(e.Name()) {
			continue
		}
		data, err := fs.ReadFile(r.source, e.Name())
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "read page").
				WithContext("path", e.Name()).
				Build()
		}
		p, err := Parse(ID(e.Name()), data)
		if err != nil {
			return err
		}
		if _, dup := pages[p.ID]; dup {
			return errors.ValidationError("duplicate page id").
				WithContext("page", p.ID).
				WithContext("path", e.Name()).
				Build()
		}
		if other, dup := byCommand[p.Command]; dup {
			return errors.ValidationError("two pages claim the same command").
				WithContext("command", p.Command).
				WithContext("pages", []string{other.ID, p.ID}).
				Build()
		}
		pages[p.ID] = p
		byCommand[p.Command] = p
	}

	r.mu.Lock()
	r.pages = pages
	r.byCommand = byCommand
	r.mu.Unlock()

	slog.Debug("Pages loaded", slog.Int("count", len(pages)))
	return nil
}

// Get returns the page with the given ID.
func (r *Repository) Get(id string) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pages[id]
	if !ok {
		return nil, errors.NotFoundError("page not found").WithContext("page", id).Build()
	}
	return p, nil
}

// Lookup returns the page printed by command.
func (r *Repository) Lookup(command string) (*Page, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byCommand[command]
	return p, ok
}

// Welcome returns the greeting page.
func (r *Repository) Welcome() (*Page, error) {
	return r.Get(WelcomeID)
}

// Commands returns the visible pages sorted by order, then command.
func (r *Repository) Commands() []*Page {
	var out []*Page
	for _, p := range r.All() {
		if !p.Hidden {
			out = append(out, p)
		}
	}
	return out
}

// All returns every page sorted by order, then command.
func (r *Repository) All() []*Page {
	r.mu.RLock()
	out := make([]*Page, 0, len(r.pages))
	for _, p := range r.pages {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Command < out[j].Command
	})
	return out
}

// Len returns the number of loaded pages.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages)
}
