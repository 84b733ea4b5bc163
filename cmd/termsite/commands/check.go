package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"

	"git.home.luguber.info/inful/termsite/internal/config"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
	"git.home.luguber.info/inful/termsite/internal/linkcheck"
	"git.home.luguber.info/inful/termsite/internal/pages"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Pages  string `help:"Pages directory (overrides content.pages_dir)" type:"existingdir"`
	Assets string `help:"Assets directory (overrides content.assets_dir)" type:"existingdir"`
	Format string `short:"f" help:"Output format (text, json)" enum:"text,json" default:"text"`
}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if c.Pages != "" {
		cfg.Content.PagesDir = c.Pages
	}
	if c.Assets != "" {
		cfg.Content.AssetsDir = c.Assets
	}

	repo, err := pages.Open(cfg.Content.PagesDir)
	if err != nil {
		return err
	}
	return RunCheck(os.Stdout, repo, checkAssets(cfg), cfg.Content.AssetsURL, c.Format)
}

func checkAssets(cfg *config.Config) fs.FS {
	switch {
	case cfg.Content.AssetsDir != "":
		return os.DirFS(cfg.Content.AssetsDir)
	case cfg.Content.PagesDir == "":
		return pages.BuiltinAssets()
	default:
		return nil
	}
}

// RunCheck reports issues in every page. Finding any issue is a content error
// so the process exits non-zero.
func RunCheck(w io.Writer, repo *pages.Repository, assets fs.FS, assetsURL, format string) error {
	checker := linkcheck.Checker{Assets: assets, AssetsURL: assetsURL}
	issues := checker.CheckAll(repo)

	if format == "json" {
		if issues == nil {
			issues = []linkcheck.Issue{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(issues); err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "encode issues").Build()
		}
	} else {
		for _, issue := range issues {
			_, _ = fmt.Fprintln(w, issue.String())
		}
		if len(issues) == 0 {
			_, _ = fmt.Fprintf(w, "%d pages checked, no issues\n", repo.Len())
		}
	}

	if len(issues) > 0 {
		return errors.ContentError("pages reference images the terminal cannot show").
			WithContext("issues", len(issues)).
			Build()
	}
	return nil
}
