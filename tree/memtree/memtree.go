// Package memtree is a minimal in-memory tree.Node/tree.Store
// implementation over encoding/xml, the way Tangerg-lynx/pkg/xml builds
// a simplified element tree from a stdlib xml.Decoder token stream: no
// pack repo ships a full XML DOM library, so this walks the same
// Decoder.Token() loop and assembles tree.Node values directly rather
// than reimplementing a parser.
package memtree

import (
	"fmt"
	"io"
	"os"
	"strings"

	xxml "encoding/xml"

	"github.com/arborxml/xpath/tree"
)

const xmlNamespaceURI = "http://www.w3.org/XML/1998/namespace"

// node is the concrete tree.Node backing every element, attribute,
// text, comment, processing-instruction and namespace value this
// package produces.
type node struct {
	kind       tree.NodeKind
	name       tree.QName
	hasName    bool
	parent     *node
	children   []*node
	attrs      []*node
	namespaces []*node
	text       string
	baseURI    string
	hasBaseURI bool
	order      tree.DocumentOrderKey
}

func (n *node) Kind() tree.NodeKind { return n.kind }

func (n *node) Parent() (tree.Node, bool) {
	if n.parent == nil {
		return nil, false
	}
	return n.parent, true
}

func (n *node) Children() []tree.Node {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]tree.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *node) Attributes() []tree.Node {
	if len(n.attrs) == 0 {
		return nil
	}
	out := make([]tree.Node, len(n.attrs))
	for i, a := range n.attrs {
		out[i] = a
	}
	return out
}

func (n *node) Namespaces() []tree.Node {
	if len(n.namespaces) == 0 {
		return nil
	}
	out := make([]tree.Node, len(n.namespaces))
	for i, ns := range n.namespaces {
		out[i] = ns
	}
	return out
}

func (n *node) Name() (tree.QName, bool) { return n.name, n.hasName }

func (n *node) StringValue() string {
	switch n.kind {
	case tree.KindElement, tree.KindDocument:
		var sb strings.Builder
		collectText(n, &sb)
		return sb.String()
	default:
		return n.text
	}
}

func collectText(n *node, sb *strings.Builder) {
	for _, c := range n.children {
		switch c.kind {
		case tree.KindText:
			sb.WriteString(c.text)
		case tree.KindElement:
			collectText(c, sb)
		}
	}
}

func (n *node) TypedValue() ([]tree.TypedAtomic, error) {
	return []tree.TypedAtomic{{TypeLocalName: "untypedAtomic", Lexical: n.StringValue()}}, nil
}

func (n *node) DocumentOrderKey() tree.DocumentOrderKey { return n.order }

func (n *node) Identity() any { return n }

func (n *node) BaseURI() (string, bool) {
	if !n.hasBaseURI && n.parent != nil {
		return n.parent.BaseURI()
	}
	return n.baseURI, n.hasBaseURI
}

// Parse reads a single XML document from r and returns its document
// node. baseURI is recorded as the document's base URI and inherited
// by every descendant that carries no xml:base of its own.
func Parse(r io.Reader, baseURI string) (tree.Node, error) {
	dec := xxml.NewDecoder(r)
	doc := &node{
		kind:       tree.KindDocument,
		baseURI:    baseURI,
		hasBaseURI: baseURI != "",
	}
	childIdx := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("memtree: %w", err)
		}
		switch t := tok.(type) {
		case xxml.StartElement:
			child, err := parseElement(dec, t, doc, []int{childIdx}, baseURI)
			if err != nil {
				return nil, err
			}
			doc.children = append(doc.children, child)
			childIdx++
		case xxml.Comment:
			doc.children = append(doc.children, &node{
				kind: tree.KindComment, text: string(t), parent: doc,
				order: tree.DocumentOrderKey{Path: []int{childIdx}},
			})
			childIdx++
		case xxml.ProcInst:
			doc.children = append(doc.children, &node{
				kind: tree.KindProcessingInstruction,
				name: tree.QName{LocalName: t.Target}, hasName: true,
				text: string(t.Inst), parent: doc,
				order: tree.DocumentOrderKey{Path: []int{childIdx}},
			})
			childIdx++
		}
	}
	if len(doc.children) == 0 {
		return nil, fmt.Errorf("memtree: document %q has no element content", baseURI)
	}
	return doc, nil
}

// ParseFile reads and parses path from the filesystem, using path
// itself as the document's base URI.
func ParseFile(path string) (tree.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("memtree: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

func parseElement(dec *xxml.Decoder, start xxml.StartElement, parent *node, path []int, inheritedBaseURI string) (*node, error) {
	el := &node{
		kind:    tree.KindElement,
		name:    tree.QName{NamespaceURI: start.Name.Space, LocalName: start.Name.Local},
		hasName: true,
		parent:  parent,
		order:   tree.DocumentOrderKey{Path: path},
	}
	el.baseURI, el.hasBaseURI = inheritedBaseURI, inheritedBaseURI != ""

	for _, a := range start.Attr {
		switch {
		case a.Name.Space == "xmlns":
			el.namespaces = append(el.namespaces, &node{
				kind: tree.KindNamespace,
				name: tree.QName{LocalName: a.Name.Local}, hasName: true,
				text: a.Value, parent: el,
				order: tree.DocumentOrderKey{Path: path, AttrRank: 1},
			})
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			el.namespaces = append(el.namespaces, &node{
				kind: tree.KindNamespace,
				text: a.Value, parent: el,
				order: tree.DocumentOrderKey{Path: path, AttrRank: 1},
			})
		default:
			if a.Name.Space == xmlNamespaceURI && a.Name.Local == "base" {
				el.baseURI, el.hasBaseURI = a.Value, true
			}
			el.attrs = append(el.attrs, &node{
				kind:    tree.KindAttribute,
				name:    tree.QName{NamespaceURI: a.Name.Space, LocalName: a.Name.Local},
				hasName: true,
				text:    a.Value, parent: el,
				order: tree.DocumentOrderKey{Path: path, AttrRank: 2},
			})
		}
	}

	childIdx := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("memtree: %w", err)
		}
		switch t := tok.(type) {
		case xxml.StartElement:
			childPath := append(append([]int{}, path...), childIdx)
			child, err := parseElement(dec, t, el, childPath, el.baseURI)
			if err != nil {
				return nil, err
			}
			el.children = append(el.children, child)
			childIdx++
		case xxml.EndElement:
			return el, nil
		case xxml.CharData:
			el.children = append(el.children, &node{
				kind: tree.KindText, text: string(t), parent: el,
				order: tree.DocumentOrderKey{Path: append(append([]int{}, path...), childIdx)},
			})
			childIdx++
		case xxml.Comment:
			el.children = append(el.children, &node{
				kind: tree.KindComment, text: string(t), parent: el,
				order: tree.DocumentOrderKey{Path: append(append([]int{}, path...), childIdx)},
			})
			childIdx++
		case xxml.ProcInst:
			el.children = append(el.children, &node{
				kind: tree.KindProcessingInstruction,
				name: tree.QName{LocalName: t.Target}, hasName: true,
				text: string(t.Inst), parent: el,
				order: tree.DocumentOrderKey{Path: append(append([]int{}, path...), childIdx)},
			})
			childIdx++
		}
	}
}
