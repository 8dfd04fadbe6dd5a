package xslt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborxml/xpath"
	"github.com/arborxml/xpath/tree/memtree"
)

func TestDefaultPriorityTable(t *testing.T) {
	cases := []struct {
		pattern  string
		priority float64
	}{
		{".[1]", 1},
		{"/", -0.5},
		{"a", 0},
		{"p:a", 0},
		{"*", -0.5},
		{"p:*", -0.25},
		{"*:local", -0.25},
		{"element()", -0.5},
		{"element(a)", 0.25},
		{"a[1]", 0.5},
		{"a/b", 0.5},
	}
	for _, c := range cases {
		pat, err := ParsePattern(c.pattern, []xpath.Namespace{{Prefix: "p", URI: "urn:p"}})
		require.NoError(t, err, c.pattern)
		require.Len(t, pat.Alternatives, 1, c.pattern)
		require.Equal(t, c.priority, pat.Alternatives[0].Priority, c.pattern)
	}
}

func TestMatchesSimpleNameTest(t *testing.T) {
	doc, err := memtree.Parse(strings.NewReader(`<root><a id="1"/><b/></root>`), "")
	require.NoError(t, err)
	root := doc.Children()[0]
	a := root.Children()[0]
	b := root.Children()[1]

	pat, err := ParsePattern("a", nil)
	require.NoError(t, err)

	ok, err := pat.Matches(a, nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = pat.Matches(b, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMatchesRootedPath(t *testing.T) {
	doc, err := memtree.Parse(strings.NewReader(`<root><a><b/></a></root>`), "")
	require.NoError(t, err)
	root := doc.Children()[0]
	a := root.Children()[0]
	b := a.Children()[0]

	pat, err := ParsePattern("/root/a", nil)
	require.NoError(t, err)

	ok, err := pat.Matches(a, nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = pat.Matches(b, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMatchesDescendantAxis(t *testing.T) {
	doc, err := memtree.Parse(strings.NewReader(`<root><x><a/></x></root>`), "")
	require.NoError(t, err)
	root := doc.Children()[0]
	a := root.Children()[0].Children()[0]

	pat, err := ParsePattern("//a", nil)
	require.NoError(t, err)

	ok, err := pat.Matches(a, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMatchesUnionOfAlternatives(t *testing.T) {
	doc, err := memtree.Parse(strings.NewReader(`<root><a/><b/><c/></root>`), "")
	require.NoError(t, err)
	children := doc.Children()[0].Children()

	pat, err := ParsePattern("a | b", nil)
	require.NoError(t, err)

	ok, err := pat.Matches(children[0], nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = pat.Matches(children[1], nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = pat.Matches(children[2], nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMatchesPredicate(t *testing.T) {
	doc, err := memtree.Parse(strings.NewReader(`<root><a n="1"/><a n="2"/></root>`), "")
	require.NoError(t, err)
	children := doc.Children()[0].Children()

	pat, err := ParsePattern(`a[@n = "2"]`, nil)
	require.NoError(t, err)

	ok, err := pat.Matches(children[0], nil)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = pat.Matches(children[1], nil)
	require.NoError(t, err)
	require.True(t, ok)
}
