package memtree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborxml/xpath/tree"
)

func TestParseBuildsElementTree(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<a id="1"><b>text</b><!--c--></a>`), "doc.xml")
	require.NoError(t, err)
	require.Equal(t, tree.KindDocument, doc.Kind())

	root := doc.Children()[0]
	require.Equal(t, tree.KindElement, root.Kind())
	name, ok := root.Name()
	require.True(t, ok)
	require.Equal(t, "a", name.LocalName)

	attrs := root.Attributes()
	require.Len(t, attrs, 1)
	attrName, ok := attrs[0].Name()
	require.True(t, ok)
	require.Equal(t, "id", attrName.LocalName)
	require.Equal(t, "1", attrs[0].StringValue())

	children := root.Children()
	require.Len(t, children, 2)
	require.Equal(t, tree.KindElement, children[0].Kind())
	require.Equal(t, "text", children[0].StringValue())
	require.Equal(t, tree.KindComment, children[1].Kind())
}

func TestParseNamespaceDeclarations(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<a xmlns:p="urn:x"><p:b/></a>`), "")
	require.NoError(t, err)
	root := doc.Children()[0]
	require.Len(t, root.Namespaces(), 1)

	child := root.Children()[0]
	name, ok := child.Name()
	require.True(t, ok)
	require.Equal(t, "urn:x", name.NamespaceURI)
}

func TestDocumentOrderOrdersAttributesBeforeChildren(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<a id="1"><b/></a>`), "")
	require.NoError(t, err)
	root := doc.Children()[0]
	attr := root.Attributes()[0]
	child := root.Children()[0]

	require.True(t, root.DocumentOrderKey().Less(attr.DocumentOrderKey()))
	require.True(t, attr.DocumentOrderKey().Less(child.DocumentOrderKey()))
}

func TestStringValueConcatenatesDescendantText(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<a>x<b>y</b>z</a>`), "")
	require.NoError(t, err)
	root := doc.Children()[0]
	require.Equal(t, "xyz", root.StringValue())
}

func TestIdentityIsStableAndDistinct(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<a><b/><c/></a>`), "")
	require.NoError(t, err)
	root := doc.Children()[0]
	b, c := root.Children()[0], root.Children()[1]
	require.Equal(t, root.Identity(), root.Identity())
	require.NotEqual(t, b.Identity(), c.Identity())
}

func TestBaseURIInheritsAndOverrides(t *testing.T) {
	doc, err := Parse(strings.NewReader(
		`<a><b xml:base="urn:other"><c/></b><d/></a>`), "doc.xml")
	require.NoError(t, err)
	root := doc.Children()[0]
	d := root.Children()[1]
	base, ok := d.BaseURI()
	require.True(t, ok)
	require.Equal(t, "doc.xml", base)

	b := root.Children()[0]
	c := b.Children()[0]
	base, ok = c.BaseURI()
	require.True(t, ok)
	require.Equal(t, "urn:other", base)
}
