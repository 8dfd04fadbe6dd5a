package sequence

import (
	"sort"

	"github.com/arborxml/xpath/tree"
	"github.com/arborxml/xpath/xerr"
)

// asNodeItems requires every item of s to be a node, returning XPTY0004
// otherwise (union/intersect/except are defined only on node sequences,
// §4.D operators).
func asNodeItems(s Sequence) ([]NodeItem, error) {
	items := s.Items()
	out := make([]NodeItem, len(items))
	for i, it := range items {
		ni, ok := it.(NodeItem)
		if !ok {
			return nil, xerr.New(xerr.XPTY0004, nil, "operand of a node-set operator is not a node")
		}
		out[i] = ni
	}
	return out, nil
}

func sortByDocOrder(nodes []NodeItem) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Node.DocumentOrderKey().Less(nodes[j].Node.DocumentOrderKey())
	})
}

func dedupByIdentity(nodes []NodeItem) []NodeItem {
	seen := make(map[any]bool, len(nodes))
	out := make([]NodeItem, 0, len(nodes))
	for _, n := range nodes {
		id := n.Node.Identity()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, n)
	}
	return out
}

func toSequence(nodes []NodeItem) Sequence {
	items := make([]Item, len(nodes))
	for i, n := range nodes {
		items[i] = n
	}
	return NewMany(items)
}

// Union implements the `union` / `|` operator: the identity-deduped,
// document-order merge of its operands' nodes.
func Union(a, b Sequence) (Sequence, error) {
	an, err := asNodeItems(a)
	if err != nil {
		return Sequence{}, err
	}
	bn, err := asNodeItems(b)
	if err != nil {
		return Sequence{}, err
	}
	merged := append(append([]NodeItem(nil), an...), bn...)
	merged = dedupByIdentity(merged)
	sortByDocOrder(merged)
	return toSequence(merged), nil
}

// Intersect implements `intersect`: nodes present (by identity) in both
// operands, document-order, deduplicated.
func Intersect(a, b Sequence) (Sequence, error) {
	an, err := asNodeItems(a)
	if err != nil {
		return Sequence{}, err
	}
	bn, err := asNodeItems(b)
	if err != nil {
		return Sequence{}, err
	}
	inB := make(map[any]bool, len(bn))
	for _, n := range bn {
		inB[n.Node.Identity()] = true
	}
	var out []NodeItem
	for _, n := range an {
		if inB[n.Node.Identity()] {
			out = append(out, n)
		}
	}
	out = dedupByIdentity(out)
	sortByDocOrder(out)
	return toSequence(out), nil
}

// Except implements `except`: nodes of a (by identity) not present in
// b, document-order, deduplicated.
func Except(a, b Sequence) (Sequence, error) {
	an, err := asNodeItems(a)
	if err != nil {
		return Sequence{}, err
	}
	bn, err := asNodeItems(b)
	if err != nil {
		return Sequence{}, err
	}
	inB := make(map[any]bool, len(bn))
	for _, n := range bn {
		inB[n.Node.Identity()] = true
	}
	var out []NodeItem
	for _, n := range an {
		if !inB[n.Node.Identity()] {
			out = append(out, n)
		}
	}
	out = dedupByIdentity(out)
	sortByDocOrder(out)
	return toSequence(out), nil
}

// SortNodesInDocumentOrder sorts and dedups a raw node slice, used by
// path-expression step evaluation to restore document order after
// evaluating a reverse axis or a predicate (§4.D).
func SortNodesInDocumentOrder(nodes []tree.Node) []tree.Node {
	items := make([]NodeItem, len(nodes))
	for i, n := range nodes {
		items[i] = NodeItem{Node: n}
	}
	items = dedupByIdentity(items)
	sortByDocOrder(items)
	out := make([]tree.Node, len(items))
	for i, it := range items {
		out[i] = it.Node
	}
	return out
}
