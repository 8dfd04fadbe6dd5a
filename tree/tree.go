// Package tree defines the interface the core expects from an external
// XML tree-model implementation (§6: "deliberately out of scope" per
// §1, consumed only through this interface). The core never constructs
// or mutates a tree itself.
package tree

// NodeKind enumerates the value-type of a node (§6).
type NodeKind int

const (
	KindDocument NodeKind = iota
	KindElement
	KindAttribute
	KindText
	KindComment
	KindProcessingInstruction
	KindNamespace
)

// Node is an opaque handle into the external tree model. The core uses
// three conceptual node kinds (§6): a plain node handle, an
// attribute-in-parent (parent node + name), and a namespace-in-parent
// (parent node + prefix) -- all three are modeled uniformly through this
// single interface so the interpreter and builtins never need to know
// which concrete kind they are holding.
type Node interface {
	// Kind reports this node's value-type.
	Kind() NodeKind
	// Parent returns the parent node, or (nil, false) for a document
	// node or a detached node.
	Parent() (Node, bool)
	// Children returns the node's children in document order (elements
	// and documents only; all other kinds return nil).
	Children() []Node
	// Attributes returns an element's attributes (unordered per §3/§4.C
	// "ignoring order"); nil for non-elements.
	Attributes() []Node
	// Namespaces returns the in-scope namespace bindings visible at an
	// element (prefix -> URI pairs modeled as namespace nodes).
	Namespaces() []Node
	// Name returns the expanded name of an element, attribute or
	// processing instruction (PI target is threaded through the Name's
	// LocalName per the spec's open question in §9 -- "the node-name of
	// a PI should be its target").
	Name() (QName, bool)
	// StringValue returns the node's string-value (§4.B).
	StringValue() string
	// TypedValue returns the node's typed value as a sequence of atomic
	// values; a tree model with no schema validation returns a single
	// untypedAtomic wrapping StringValue(), which is what
	// tree/memtree does.
	TypedValue() ([]TypedAtomic, error)
	// DocumentOrderKey returns a value such that comparing two nodes'
	// keys with DocumentOrderKey.Less reproduces document order,
	// with an owning element's attributes/namespaces ordered after the
	// element itself and before its children (§6, GLOSSARY "Document
	// order").
	DocumentOrderKey() DocumentOrderKey
	// Identity returns a value comparable with == that uniquely
	// identifies this node within its tree, used by `is`, union,
	// intersect, except and deduplication.
	Identity() any
	// BaseURI returns the node's base URI per xml:base resolution, and
	// ok=false if no ancestor supplies one (§9 open question: "the
	// source returns an error but the spec is silent; preserve the
	// error").
	BaseURI() (string, bool)
}

// QName is a minimal expanded-name carrier so package tree does not
// depend on package atomic (which in turn may want to depend on tree
// for node-typed atomics); builtins and interp convert to/from
// atomic.QName at the boundary.
type QName struct {
	NamespaceURI string
	LocalName    string
	Prefix       string
}

// TypedAtomic is a tree-model-agnostic carrier for a node's typed
// value: a schema type's local name (e.g. "untypedAtomic", "integer")
// plus its canonical lexical form, converted to a concrete atomic.Value
// by the interpreter at the tree/atomic boundary.
type TypedAtomic struct {
	TypeLocalName string
	Lexical       string
}

// DocumentOrderKey is an opaque, totally-ordered position marker. Tree
// models produce these however is convenient (pre-order index, path
// vector, ...); the core only ever compares two keys from the same tree
// with Less.
type DocumentOrderKey struct {
	// Path is a sequence of sibling indices from the document root,
	// with attributes/namespaces ordered before element children at
	// the same depth by AttrRank (see Less).
	Path     []int
	AttrRank int // 0 = element/text/etc, 1 = namespace, 2 = attribute, relative to owner
}

// Less reports whether a sorts before b in document order.
func (a DocumentOrderKey) Less(b DocumentOrderKey) bool {
	n := len(a.Path)
	if len(b.Path) < n {
		n = len(b.Path)
	}
	for i := 0; i < n; i++ {
		if a.Path[i] != b.Path[i] {
			return a.Path[i] < b.Path[i]
		}
	}
	if len(a.Path) != len(b.Path) {
		return len(a.Path) < len(b.Path)
	}
	return a.AttrRank < b.AttrRank
}

// Store is the document pool / collection resolver the dynamic context
// supplies (§6 "document pool by URI"). fn:doc and fn:collection call
// through this.
type Store interface {
	Doc(uri string) (Node, error)
	Collection(uri string) ([]Node, error)
}
