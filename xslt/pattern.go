// Package xslt implements the partial XSLT 3.0 surface named in the
// engine's scope: pattern parsing and default-priority computation
// (the restricted path form `xsl:template/@match` uses) plus matching
// a pattern against a node, and separately, attribute value template
// parsing plus the static `xsl:variable`/`xsl:param` scope used to
// evaluate them. Template instantiation, `xsl:apply-templates` and the
// rest of the transformation language are out of scope; only the
// pattern grammar, its static priority rules, and static-only
// attribute value templates live here, grounded on xee-xslt-ast's
// staticeval/parse4 modules.
package xslt

import (
	"fmt"

	"github.com/arborxml/xpath"
	"github.com/arborxml/xpath/interp"
	"github.com/arborxml/xpath/ir"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/tree"
)

// Pattern is a parsed `match` pattern: one or more `|`-separated
// alternatives, each with its own computed default priority (§9).
type Pattern struct {
	Source       string
	Alternatives []*Alternative
}

// Alternative is one `|`-separated branch of a Pattern. Steps is the
// branch's axis-step chain in leaf-to-root order (Steps[0] tests the
// candidate node itself; Steps[i+1] tests the ancestor Steps[i]
// requires), the order Matches walks. Rooted means the branch is
// anchored at the document root (e.g. `/a/b`).
type Alternative struct {
	Rooted   bool
	Steps    []*ir.Step
	Priority float64
}

// ParsePattern parses source as an XSLT match pattern: an ordinary
// XPath path expression (or a `|`-union of several), restricted in
// practice to axis steps, predicates and the `id()`/`key()` functions,
// though this parser accepts any expression the lowerer can turn into
// a step chain and simply assigns it the catch-all 0.5 priority
// otherwise (§9 "Open Question": the grammar does not enumerate every
// legal pattern production, the priority table does).
func ParsePattern(source string, namespaces []xpath.Namespace) (*Pattern, error) {
	prog, err := xpath.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("xslt: parse pattern %q: %w", source, err)
	}

	table := map[string]string{}
	for _, ns := range namespaces {
		table[ns.Prefix] = ns.URI
	}
	lw := ir.NewLowerer(func(prefix string) (string, bool) {
		uri, ok := table[prefix]
		return uri, ok
	})
	node, err := lw.Lower(prog.Expr)
	if err != nil {
		return nil, fmt.Errorf("xslt: lower pattern %q: %w", source, err)
	}
	node = ir.Fold(node)

	pat := &Pattern{Source: source}
	for _, alt := range flattenUnion(node) {
		rooted, steps, terminal := flattenSteps(alt)
		pat.Alternatives = append(pat.Alternatives, &Alternative{
			Rooted:   rooted,
			Steps:    steps,
			Priority: defaultPriority(rooted, steps, terminal),
		})
	}
	return pat, nil
}

// flattenUnion recursively splits a `|`/union tree (lowered to nested
// *ir.Set{Op: SetUnion}) into its individual pattern alternatives.
// intersect/except are not legal pattern operators (§9); a Set node
// with another Op is kept as a single opaque alternative rather than
// rejected outright, since the engine's own parser does not statically
// forbid it.
func flattenUnion(node ir.Node) []ir.Node {
	set, ok := node.(*ir.Set)
	if !ok || set.Op != ir.SetUnion {
		return []ir.Node{node}
	}
	return append(flattenUnion(set.Left), flattenUnion(set.Right)...)
}

// flattenSteps walks one alternative's left-deep Step.Source chain,
// returning it leaf-to-root (Steps[0] is the final step of the path,
// the one the candidate node itself must satisfy).
func flattenSteps(node ir.Node) (rooted bool, steps []*ir.Step, terminal ir.Node) {
	expr := node
	if p, ok := node.(*ir.Path); ok {
		rooted = p.Rooted
		expr = p.Expr
	}
	cur := expr
	for {
		step, ok := cur.(*ir.Step)
		if !ok {
			terminal = cur
			return
		}
		steps = append(steps, step)
		cur = step.Source
	}
}

// defaultPriority implements the priority table (spec.md §9/GLOSSARY):
// a predicate pattern (bare `.[expr]`, no name test at all) is 1; the
// lone root pattern `/` is -0.5; a single name-test step with no
// predicates scores by test specificity (QName 0, a `prefix:*`/`*:local`
// wildcard -0.25, the bare `*` wildcard -0.5); a kind test naming an
// element/attribute type is 0.25, an untyped kind test -0.5; anything
// else (multiple steps, a step with predicates, id()/key() and other
// non-step patterns) is 0.5.
func defaultPriority(rooted bool, steps []*ir.Step, terminal ir.Node) float64 {
	if len(steps) == 0 {
		if rooted && terminal == nil {
			return -0.5
		}
		return 0.5
	}
	if len(steps) > 1 {
		return 0.5
	}

	step := steps[0]
	if step.Axis == ir.AxisSelf && step.Test.Kind == ir.TestKind && step.Test.KindName == "node" {
		if _, isContextItem := terminal.(*ir.ContextItem); isContextItem {
			return 1
		}
	}
	if len(step.Predicates) > 0 {
		return 0.5
	}

	switch step.Test.Kind {
	case ir.TestQName:
		return 0
	case ir.TestPrefixAny, ir.TestLocalAny:
		return -0.25
	case ir.TestAny:
		return -0.5
	case ir.TestKind:
		switch step.Test.KindName {
		case "element", "attribute", "schema-element", "schema-attribute":
			if step.Test.LocalName != "" || step.Test.TypeName != "" {
				return 0.25
			}
		}
		return -0.5
	}
	return 0.5
}

// Matches reports whether n matches pattern p: n is tested against
// each Alternative in turn, matching if any one does (XSLT's `|`
// pattern union). it evaluates any predicates the pattern's steps
// carry; it may be nil if no Alternative has predicates.
func (p *Pattern) Matches(n tree.Node, it *interp.Interpreter) (bool, error) {
	for _, alt := range p.Alternatives {
		ok, err := alt.matches(n, it)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// matches walks the alternative's leaf-to-root step chain starting
// from the candidate node itself, backtracking over every node the
// governing axis admits as the next level's candidate (relevant for
// `//`, whose descendant axis admits any ancestor, not just the
// immediate parent).
func (a *Alternative) matches(n tree.Node, it *interp.Interpreter) (bool, error) {
	return matchChain(a.Steps, 0, n, a.Rooted, it)
}

func matchChain(steps []*ir.Step, idx int, n tree.Node, rooted bool, it *interp.Interpreter) (bool, error) {
	step := steps[idx]
	if !interp.MatchTest(step.Axis, n, step.Test) {
		return false, nil
	}
	for _, pred := range step.Predicates {
		ok, err := evalPredicate(pred, n, it)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	if idx+1 < len(steps) {
		for _, cand := range climbCandidates(n, step.Axis) {
			ok, err := matchChain(steps, idx+1, cand, rooted, it)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	if !rooted {
		return true, nil
	}
	for _, cand := range climbCandidates(n, step.Axis) {
		if cand.Kind() == tree.KindDocument {
			return true, nil
		}
	}
	return false, nil
}

// climbCandidates returns the nodes that could have produced n as an
// axis member of this step's Axis -- the reverse direction of
// interp/axis.go's axisNodes, since pattern matching walks the step
// chain from leaf up to root rather than root down to leaf. Only the
// axes the pattern grammar actually admits (child, attribute,
// namespace, descendant(-or-self), self) are handled; anything else
// falls back to the immediate parent, matching the common case of a
// single-step relationship.
func climbCandidates(n tree.Node, axis ir.AxisKind) []tree.Node {
	switch axis {
	case ir.AxisDescendant:
		return ancestorsOf(n)
	case ir.AxisDescendantOrSelf:
		return append(ancestorsOf(n), n)
	case ir.AxisSelf:
		return []tree.Node{n}
	default:
		if p, ok := n.Parent(); ok {
			return []tree.Node{p}
		}
		return nil
	}
}

func ancestorsOf(n tree.Node) []tree.Node {
	var out []tree.Node
	cur := n
	for {
		p, ok := cur.Parent()
		if !ok {
			return out
		}
		out = append(out, p)
		cur = p
	}
}

// evalPredicate runs a step predicate with the candidate node as the
// sole context item (position 1, size 1). A predicate's own
// position()/last() therefore always see a singleton context rather
// than the true sibling count along the governing axis -- a documented
// simplification (§9 "Open Question" in the same spirit as the
// engine's other noted approximations), adequate for the boolean
// (non-numeric-position) predicates XSLT match patterns commonly use.
func evalPredicate(pred ir.Node, n tree.Node, it *interp.Interpreter) (bool, error) {
	if it == nil {
		it = interp.New()
	}
	result, err := it.EvalNode(pred, sequence.WrapNode(n), true)
	if err != nil {
		return false, err
	}
	return result.EffectiveBooleanValue()
}
