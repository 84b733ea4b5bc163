package linkcheck

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/termsite/internal/pages"
)

func page(t *testing.T, id, body string) *pages.Page {
	t.Helper()
	p, err := pages.Parse(id, []byte(body))
	require.NoError(t, err)
	return p
}

func TestExtract(t *testing.T) {
	refs := Extract([]byte("![a](/x.png) [b](/y) <https://example.com>\n\n![c][logo]\n\n[logo]: /logo.png\n"))

	assert.Equal(t, []Ref{
		{Kind: RefImage, Destination: "/x.png"},
		{Kind: RefLink, Destination: "/y"},
		{Kind: RefAuto, Destination: "https://example.com"},
		{Kind: RefImage, Destination: "/logo.png"},
		{Kind: RefDefinition, Destination: "/logo.png"},
	}, refs)
}

func TestCheck_Clean(t *testing.T) {
	c := Checker{Assets: fstest.MapFS{"cat.svg": {Data: []byte("<svg/>")}}, AssetsURL: "/assets/"}
	issues := c.Check(page(t, "about", "A cat: ![Cat](/assets/cat.svg) and [remote](https://example.com/a.png)"))
	assert.Empty(t, issues)
}

func TestCheck_MissingAndOutside(t *testing.T) {
	c := Checker{Assets: fstest.MapFS{"dir/x.svg": {Data: []byte("<svg/>")}}, AssetsURL: "/assets/"}
	issues := c.Check(page(t, "cv", "![gone](/assets/gone.svg) [dir](/assets/dir) ![ok](/assets/dir/x.svg) ![elsewhere](/img/a.png)"))

	require.Len(t, issues, 3)
	assert.Equal(t, Issue{Page: "cv", Kind: IssueMissingAsset, Destination: "/assets/gone.svg", Marker: "[[image:0]]"}, issues[0])
	assert.Equal(t, IssueMissingAsset, issues[1].Kind, "directories are not assets")
	assert.Equal(t, IssueOutsideAssets, issues[2].Kind)
	assert.Contains(t, issues[0].String(), "asset not found")
}

func TestCheck_UnsupportedSyntax(t *testing.T) {
	c := Checker{Assets: fstest.MapFS{"logo.png": {Data: []byte{1}}}, AssetsURL: "/assets/"}
	issues := c.Check(page(t, "welcome", "Logo: ![logo][l] again ![logo][l]\n\n[l]: /assets/logo.png\n"))

	require.Len(t, issues, 1, "a destination is reported once")
	assert.Equal(t, IssueUnsupported, issues[0].Kind)
	assert.Equal(t, "/assets/logo.png", issues[0].Destination)
	assert.Contains(t, issues[0].String(), "not recognized")
}

func TestCheckAll_Builtin(t *testing.T) {
	repo, err := pages.Open("")
	require.NoError(t, err)

	c := Checker{Assets: pages.BuiltinAssets(), AssetsURL: "/assets/"}
	assert.Empty(t, c.CheckAll(repo), "built-in pages must be self-consistent")
}
