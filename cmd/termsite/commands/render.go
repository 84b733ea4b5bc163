package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/termsite/internal/content"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/pages"
	"git.home.luguber.info/inful/termsite/internal/terminal"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Page    string `arg:"" help:"Page ID or command to print"`
	Width   int    `short:"w" help:"Wrap width in cells (0 uses terminal.wrap_width)"`
	Justify bool   `short:"j" help:"Stretch wrapped lines to the full width"`
	Pages   string `help:"Pages directory (overrides content.pages_dir)" type:"existingdir"`
}

func (r *RenderCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.Content.PagesDir
	if r.Pages != "" {
		dir = r.Pages
	}
	repo, err := pages.Open(dir)
	if err != nil {
		return err
	}

	width := r.Width
	if width == 0 {
		width = cfg.Terminal.WrapWidth
	}
	return RunRender(os.Stdout, repo, r.Page, width, r.Justify)
}

// RunRender prints a page wrapped to width. Image references are shown as
// "[label] <src>" since a real terminal has no overlay.
func RunRender(w io.Writer, repo *pages.Repository, name string, width int, justify bool) error {
	p, err := findPage(repo, name)
	if err != nil {
		return err
	}

	parsed := content.Parse(p.Body)
	text := parsed.Text
	for _, l := range parsed.Links {
		text = strings.Replace(text, "("+l.Marker+")", " <"+l.Src+">", 1)
	}

	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		chunks := terminal.Wrap(line, width)
		if len(chunks) == 0 {
			b.WriteByte('\n')
			continue
		}
		for i, chunk := range chunks {
			if justify && i < len(chunks)-1 {
				chunk = terminal.Stretch(chunk, width)
			}
			b.WriteString(strings.TrimRight(chunk, " "))
			b.WriteByte('\n')
		}
	}

	if _, err := fmt.Fprint(w, b.String()); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write page").Build()
	}
	return nil
}

func findPage(repo *pages.Repository, name string) (*pages.Page, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if p, err := repo.Get(key); err == nil {
		return p, nil
	}
	if p, ok := repo.Lookup(key); ok {
		return p, nil
	}
	return nil, errors.NotFoundError("no page with that id or command").
		WithContext("page", name).
		Build()
}
