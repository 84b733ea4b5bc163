// Package linkcheck reports image references in pages that will not work in
// the terminal: references the terminal parser does not recognize and local
// assets that do not exist.
package linkcheck

import (
	"fmt"
	"io/fs"
	"net/url"
	"sort"
	"strings"

	"git.home.luguber.info/inful/termsite/internal/content"
	"git.home.luguber.info/inful/termsite/internal/pages"
)

// IssueKind classifies a finding.
type IssueKind string

const (
	// IssueMissingAsset is a local reference without a matching file.
	IssueMissingAsset IssueKind = "missing_asset"
	// IssueOutsideAssets is a local reference outside the assets URL prefix.
	IssueOutsideAssets IssueKind = "outside_assets"
	// IssueUnsupported is a reference only the markdown parser sees, such as
	// reference-style images or autolinks.
	IssueUnsupported IssueKind = "unsupported_syntax"
)

// Issue is one finding.
type Issue struct {
	Page        string    `json:"page"`
	Kind        IssueKind `json:"kind"`
	Destination string    `json:"destination"`
	Marker      string    `json:"marker,omitempty"`
}

func (i Issue) String() string {
	switch i.Kind {
	case IssueMissingAsset:
		return fmt.Sprintf("%s: %s %s: asset not found", i.Page, i.Marker, i.Destination)
	case IssueOutsideAssets:
		return fmt.Sprintf("%s: %s %s: not under the assets url", i.Page, i.Marker, i.Destination)
	default:
		return fmt.Sprintf("%s: %s: not recognized by the terminal", i.Page, i.Destination)
	}
}

// Checker validates pages against an assets tree.
type Checker struct {
	Assets    fs.FS
	AssetsURL string
}

// Check inspects one page.
func (c Checker) Check(p *pages.Page) []Issue {
	parsed := content.Parse(p.Body)

	known := make(map[string]bool, len(parsed.Links))
	var issues []Issue
	for _, l := range parsed.Links {
		known[l.Src] = true
		if kind, bad := c.checkAsset(l.Src); bad {
			issues = append(issues, Issue{Page: p.ID, Kind: kind, Destination: l.Src, Marker: l.Marker})
		}
	}

	reported := make(map[string]bool)
	for _, ref := range Extract([]byte(p.Body)) {
		if known[ref.Destination] || reported[ref.Destination] {
			continue
		}
		reported[ref.Destination] = true
		issues = append(issues, Issue{Page: p.ID, Kind: IssueUnsupported, Destination: ref.Destination})
	}
	return issues
}

// CheckAll inspects every page of repo, ordered by page then destination.
func (c Checker) CheckAll(repo *pages.Repository) []Issue {
	var issues []Issue
	for _, p := range repo.All() {
		issues = append(issues, c.Check(p)...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Page != issues[j].Page {
			return issues[i].Page < issues[j].Page
		}
		return issues[i].Destination < issues[j].Destination
	})
	return issues
}

func (c Checker) checkAsset(src string) (IssueKind, bool) {
	u, err := url.Parse(src)
	if err == nil && u.Scheme != "" {
		return "", false
	}
	prefix := c.AssetsURL
	if prefix == "" {
		prefix = "/assets/"
	}
	if !strings.HasPrefix(src, prefix) {
		return IssueOutsideAssets, true
	}
	if c.Assets == nil {
		return IssueMissingAsset, true
	}

	name := strings.TrimPrefix(src, prefix)
	if u != nil && u.Path != "" {
		name = strings.TrimPrefix(u.Path, prefix)
	}
	if !fs.ValidPath(name) {
		return IssueMissingAsset, true
	}
	if info, err := fs.Stat(c.Assets, name); err != nil || info.IsDir() {
		return IssueMissingAsset, true
	}
	return "", false
}
