package interp

import (
	"github.com/arborxml/xpath/ir"
	"github.com/arborxml/xpath/tree"
)

// PrincipalKind returns the node kind a wildcard/name test matches on
// a given axis (§4.D "principal node kind"). Exported so package xslt
// can reuse the same node-test matching rules for pattern matching
// (§9) instead of reimplementing them.
func PrincipalKind(axis ir.AxisKind) tree.NodeKind {
	switch axis {
	case ir.AxisAttribute:
		return tree.KindAttribute
	case ir.AxisNamespace:
		return tree.KindNamespace
	default:
		return tree.KindElement
	}
}

// MatchTest reports whether n satisfies test when reached via axis.
// Exported for package xslt's pattern matcher.
func MatchTest(axis ir.AxisKind, n tree.Node, test ir.NodeTest) bool {
	switch test.Kind {
	case ir.TestAny:
		return n.Kind() == PrincipalKind(axis)
	case ir.TestPrefixAny:
		if n.Kind() != PrincipalKind(axis) {
			return false
		}
		name, ok := n.Name()
		return ok && name.NamespaceURI == test.NamespaceURI
	case ir.TestLocalAny:
		if n.Kind() != PrincipalKind(axis) {
			return false
		}
		name, ok := n.Name()
		return ok && name.LocalName == test.LocalName
	case ir.TestQName:
		if n.Kind() != PrincipalKind(axis) {
			return false
		}
		name, ok := n.Name()
		return ok && name.NamespaceURI == test.NamespaceURI && name.LocalName == test.LocalName
	case ir.TestKind:
		return MatchKindTest(n, test)
	}
	return false
}

// MatchKindTest implements the KindTest family. Schema type annotations
// on element()/attribute() tests (Type.TypeName, Nillable) are accepted
// by the grammar and carried through the IR but not enforced here: an
// in-memory tree with no schema validation has no PSVI type richer than
// untypedAtomic to check them against (§9 GLOSSARY "opaque TypeName
// annotations").
func MatchKindTest(n tree.Node, test ir.NodeTest) bool {
	switch test.KindName {
	case "node":
		return true
	case "text":
		return n.Kind() == tree.KindText
	case "comment":
		return n.Kind() == tree.KindComment
	case "processing-instruction":
		if n.Kind() != tree.KindProcessingInstruction {
			return false
		}
		if test.PITarget == "" {
			return true
		}
		name, ok := n.Name()
		return ok && name.LocalName == test.PITarget
	case "document-node":
		return n.Kind() == tree.KindDocument
	case "element":
		if n.Kind() != tree.KindElement {
			return false
		}
		if test.LocalName == "" && test.NamespaceURI == "" {
			return true
		}
		name, ok := n.Name()
		if !ok {
			return false
		}
		if test.LocalName != "" && name.LocalName != test.LocalName {
			return false
		}
		if test.NamespaceURI != "" && name.NamespaceURI != test.NamespaceURI {
			return false
		}
		return true
	case "attribute":
		if n.Kind() != tree.KindAttribute {
			return false
		}
		if test.LocalName == "" {
			return true
		}
		name, ok := n.Name()
		return ok && name.LocalName == test.LocalName
	case "namespace-node":
		return n.Kind() == tree.KindNamespace
	}
	return false
}

// axisNodes returns n's axis members, unsorted and not deduplicated;
// the caller (OpStep) combines the results from every source node and
// restores document order once via sequence.SortNodesInDocumentOrder.
func axisNodes(axis ir.AxisKind, n tree.Node) []tree.Node {
	switch axis {
	case ir.AxisChild:
		return n.Children()
	case ir.AxisDescendant:
		return descendants(n)
	case ir.AxisAttribute:
		return n.Attributes()
	case ir.AxisSelf:
		return []tree.Node{n}
	case ir.AxisDescendantOrSelf:
		return append([]tree.Node{n}, descendants(n)...)
	case ir.AxisFollowingSibling:
		return siblings(n, true)
	case ir.AxisPrecedingSibling:
		return siblings(n, false)
	case ir.AxisFollowing:
		return followingOrPreceding(n, true)
	case ir.AxisPreceding:
		return followingOrPreceding(n, false)
	case ir.AxisNamespace:
		return n.Namespaces()
	case ir.AxisParent:
		if p, ok := n.Parent(); ok {
			return []tree.Node{p}
		}
		return nil
	case ir.AxisAncestor:
		return ancestors(n)
	case ir.AxisAncestorOrSelf:
		return append([]tree.Node{n}, ancestors(n)...)
	}
	return nil
}

func descendants(n tree.Node) []tree.Node {
	var out []tree.Node
	for _, c := range n.Children() {
		out = append(out, c)
		out = append(out, descendants(c)...)
	}
	return out
}

func ancestors(n tree.Node) []tree.Node {
	var out []tree.Node
	cur := n
	for {
		p, ok := cur.Parent()
		if !ok {
			break
		}
		out = append(out, p)
		cur = p
	}
	return out
}

func siblings(n tree.Node, after bool) []tree.Node {
	p, ok := n.Parent()
	if !ok {
		return nil
	}
	children := p.Children()
	idx := -1
	for i, c := range children {
		if c.Identity() == n.Identity() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	if after {
		return append([]tree.Node(nil), children[idx+1:]...)
	}
	return append([]tree.Node(nil), children[:idx]...)
}

// followingOrPreceding implements the following/preceding axes by a
// full-document scan, excluding ancestors and (for following)
// descendants of n. A reference implementation over an in-memory tree;
// left as a known cost center rather than micro-optimised.
func followingOrPreceding(n tree.Node, following bool) []tree.Node {
	root := documentRoot(n)
	all := append([]tree.Node{root}, descendants(root)...)
	key := n.DocumentOrderKey()
	anc := ancestorSet(n)
	var out []tree.Node
	for _, c := range all {
		if c.Identity() == n.Identity() || anc[c.Identity()] {
			continue
		}
		if following && isDescendantOf(c, n) {
			continue
		}
		ck := c.DocumentOrderKey()
		if following && key.Less(ck) {
			out = append(out, c)
		} else if !following && ck.Less(key) {
			out = append(out, c)
		}
	}
	return out
}

func ancestorSet(n tree.Node) map[any]bool {
	out := map[any]bool{}
	for _, a := range ancestors(n) {
		out[a.Identity()] = true
	}
	return out
}

func isDescendantOf(c, n tree.Node) bool {
	cur := c
	for {
		p, ok := cur.Parent()
		if !ok {
			return false
		}
		if p.Identity() == n.Identity() {
			return true
		}
		cur = p
	}
}

func documentRoot(n tree.Node) tree.Node {
	cur := n
	for {
		p, ok := cur.Parent()
		if !ok {
			return cur
		}
		cur = p
	}
}
