package commands

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/termsite/internal/config"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/pages"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force   bool   `help:"Overwrite existing files"`
	Content bool   `help:"Also export the built-in pages and images to edit them"`
	Output  string `short:"o" name:"output" help:"Directory to initialize" default:"."`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	cfgPath := root.Config
	if i.Output != "." {
		cfgPath = filepath.Join(i.Output, DefaultConfigPath)
	}
	return RunInit(os.Stdout, i.Output, cfgPath, i.Force, i.Content)
}

// RunInit writes the example configuration and, with exportContent, copies the
// built-in pages into <dir>/pages and their images into <dir>/assets.
func RunInit(w io.Writer, dir, cfgPath string, force, exportContent bool) error {
	_, _ = fmt.Fprintln(w, "Initializing termsite project")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create project directory").
			WithContext("path", dir).
			Build()
	}

	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", cfgPath)
	if err := config.Init(cfgPath, force); err != nil {
		_, _ = fmt.Fprintln(w, "Initialization failed")
		return err
	}

	if exportContent {
		targets := []struct {
			src fs.FS
			dst string
		}{
			{pages.BuiltinPages(), filepath.Join(dir, "pages")},
			{pages.BuiltinAssets(), filepath.Join(dir, "assets")},
		}
		for _, t := range targets {
			n, err := exportFS(t.src, t.dst, force)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "Wrote %d files to %s\n", n, t.dst)
		}
	}

	_, _ = fmt.Fprintln(w, "initialized successfully")
	return nil
}

// exportFS copies the top-level files of src into dst. Existing files are
// kept unless force is set.
func exportFS(src fs.FS, dst string, force bool) (int, error) {
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "read embedded content").Build()
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "create content directory").
			WithContext("path", dst).
			Build()
	}

	written := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		target := filepath.Join(dst, e.Name())
		if _, err := os.Stat(target); err == nil && !force {
			continue
		}
		data, err := fs.ReadFile(src, e.Name())
		if err != nil {
			return written, errors.WrapError(err, errors.CategoryFileSystem, "read embedded file").
				WithContext("path", e.Name()).
				Build()
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return written, errors.WrapError(err, errors.CategoryFileSystem, "write content file").
				WithContext("path", target).
				Build()
		}
		written++
	}
	return written, nil
}
