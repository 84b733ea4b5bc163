package linktable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/termsite/internal/content"
	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
)

func TestTable_AppendAndFind(t *testing.T) {
	tbl := New()
	welcome := content.Parse("![logo](/logo.png)").Links
	about := content.Parse("![me](/me.jpg) ![desk](/desk.jpg)").Links

	require.NoError(t, tbl.Append("welcome", welcome))
	require.NoError(t, tbl.Append("about-1", about))

	l, ok := tbl.Find("about-1", "[[image:1]]")
	require.True(t, ok)
	assert.Equal(t, "/desk.jpg", l.Src)

	l, ok = tbl.Find("welcome", "[[image:0]]")
	require.True(t, ok)
	assert.Equal(t, "logo", l.Alt)

	_, ok = tbl.Find("welcome", "[[image:1]]")
	assert.False(t, ok, "markers are scoped to their context")
	_, ok = tbl.Find("missing", "[[image:0]]")
	assert.False(t, ok)

	assert.Equal(t, []string{"welcome", "about-1"}, tbl.Contexts())
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_AppendOnly(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.Append("cv-1", content.Parse("![a](a.png)").Links))

	err := tbl.Append("cv-1", nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAlreadyExists))

	links, ok := tbl.Links("cv-1")
	require.True(t, ok)
	assert.Len(t, links, 1, "existing entry must survive a rejected append")

	err = tbl.Append("", nil)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestTable_CopiesInput(t *testing.T) {
	tbl := New()
	links := []content.Link{{Marker: "[[image:0]]", Alt: "a"}}
	require.NoError(t, tbl.Append("x", links))
	links[0].Alt = "mutated"

	got, _ := tbl.Links("x")
	assert.Equal(t, "a", got[0].Alt)

	resolve := tbl.Resolver("x")
	l, ok := resolve("[[image:0]]")
	require.True(t, ok)
	assert.Equal(t, "a", l.Alt)
}
