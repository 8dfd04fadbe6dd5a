// Package sequence implements the XPath sequence and item model (§4.C,
// §3): Empty/One/Many/Range sequence representations, atomization,
// deep-equal, document-order set operations, and the map/array function
// items.
package sequence

import (
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/tree"
)

// ItemKind distinguishes the three item families (§3 "Item").
type ItemKind int

const (
	KindAtomicValue ItemKind = iota
	KindNode
	KindFunction
)

// Item is one element of a Sequence: an atomic value, a node, or a
// function (inline closure, static built-in, array or map, §3).
type Item interface {
	ItemKind() ItemKind
}

// AtomicItem wraps an atomic.Value as an Item.
type AtomicItem struct {
	Value atomic.Value
}

func (AtomicItem) ItemKind() ItemKind { return KindAtomicValue }

// NodeItem wraps a tree.Node as an Item.
type NodeItem struct {
	Node tree.Node
}

func (NodeItem) ItemKind() ItemKind { return KindNode }

// Function is the common interface every function item (inline closure,
// static built-in, Map, Array) implements, letting the interpreter
// dispatch calls, reflect arity and print a function's signature for
// diagnostics without depending on the concrete closure representation
// defined in package interp.
type Function interface {
	Item
	// FuncName returns the function's expanded QName, or "" for
	// anonymous inline functions.
	FuncName() string
	// Arity returns the function's fixed parameter count. Maps and
	// Arrays both accept exactly one argument (the key/index lookup).
	Arity() int
}

// Wrap converts an atomic.Value into a Sequence-ready Item.
func Wrap(v atomic.Value) Item { return AtomicItem{Value: v} }

// WrapNode converts a tree.Node into a Sequence-ready Item.
func WrapNode(n tree.Node) Item { return NodeItem{Node: n} }

// typedAtomicToValue converts a tree-model TypedAtomic into a concrete
// atomic.Value, resolving its declared schema type by local name and
// falling back to untypedAtomic for names the lattice does not know
// (§4.A "Fails only on unknown names -- returns None", mirrored here as
// a safe fallback rather than a hard error, since a tree model is free
// to report richer PSVI types the core's fixed lattice never validates).
func typedAtomicToValue(ta tree.TypedAtomic) (atomic.Value, error) {
	typ, ok := schema.ByLocalName(ta.TypeLocalName)
	if !ok {
		typ = schema.UntypedAtomic
	}
	if typ == schema.UntypedAtomic || typ.IsStringCarrier() {
		return atomic.NewString(typ, ta.Lexical), nil
	}
	return atomic.CastTo(atomic.NewString(schema.UntypedAtomic, ta.Lexical), typ)
}
