package sequence

import (
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/tree"
)

// DeepEqual implements fn:deep-equal (§4.C "deep_equal"): sequences of
// equal length whose items pairwise deep-equal. Atomic items compare
// with atomic.DeepEqualValue (NaN equals NaN). Nodes compare
// structurally: same kind, same expanded name, attributes matched
// order-independently by name, comments and processing instructions
// excluded from element content comparison. Function items (other
// than maps and arrays) make the whole comparison fail rather than
// error; callers that need FOTY0015 surfaced should atomize-check
// before calling DeepEqual when that distinction matters.
func DeepEqual(a, b Sequence) (bool, error) {
	ai, bi := a.Items(), b.Items()
	if len(ai) != len(bi) {
		return false, nil
	}
	for i := range ai {
		eq, err := deepEqualItem(ai[i], bi[i])
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}

func deepEqualItem(a, b Item) (bool, error) {
	switch av := a.(type) {
	case AtomicItem:
		bv, ok := b.(AtomicItem)
		if !ok {
			return false, nil
		}
		return atomic.DeepEqualValue(av.Value, bv.Value), nil
	case NodeItem:
		bv, ok := b.(NodeItem)
		if !ok {
			return false, nil
		}
		return deepEqualNode(av.Node, bv.Node)
	case *Map:
		bv, ok := b.(*Map)
		if !ok {
			return false, nil
		}
		return deepEqualMap(av, bv)
	case *Array:
		bv, ok := b.(*Array)
		if !ok {
			return false, nil
		}
		return deepEqualArray(av, bv)
	}
	return false, nil
}

func deepEqualArray(a, b *Array) (bool, error) {
	if len(a.items) != len(b.items) {
		return false, nil
	}
	for i := range a.items {
		eq, err := DeepEqual(a.items[i], b.items[i])
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

func deepEqualMap(a, b *Map) (bool, error) {
	if a.Size() != b.Size() {
		return false, nil
	}
	for _, k := range a.order {
		bv, ok := b.vals[k]
		if !ok {
			return false, nil
		}
		eq, err := DeepEqual(a.vals[k], bv)
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

func deepEqualNode(a, b tree.Node) (bool, error) {
	if a.Kind() != b.Kind() {
		return false, nil
	}
	switch a.Kind() {
	case tree.KindText, tree.KindComment:
		return a.StringValue() == b.StringValue(), nil
	case tree.KindProcessingInstruction:
		an, aok := a.Name()
		bn, bok := b.Name()
		if aok != bok || (aok && an.LocalName != bn.LocalName) {
			return false, nil
		}
		return a.StringValue() == b.StringValue(), nil
	case tree.KindAttribute, tree.KindNamespace:
		an, aok := a.Name()
		bn, bok := b.Name()
		if aok != bok || (aok && an != bn) {
			return false, nil
		}
		return a.StringValue() == b.StringValue(), nil
	case tree.KindDocument, tree.KindElement:
		if a.Kind() == tree.KindElement {
			an, aok := a.Name()
			bn, bok := b.Name()
			if aok != bok || (aok && an != bn) {
				return false, nil
			}
			if !attrsEqual(a.Attributes(), b.Attributes()) {
				return false, nil
			}
		}
		return childrenDeepEqual(a.Children(), b.Children())
	}
	return false, nil
}

// attrsEqual compares an element's attributes ignoring order (§4.C
// "attributes matched order-independently by name").
func attrsEqual(a, b []tree.Node) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, av := range a {
		an, _ := av.Name()
		found := false
		for j, bv := range b {
			if used[j] {
				continue
			}
			bn, _ := bv.Name()
			if an == bn && av.StringValue() == bv.StringValue() {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// childrenDeepEqual compares child lists after filtering comments and
// PIs out per deep-equal's element-content rule, and merging adjacent
// text into single comparison units.
func childrenDeepEqual(a, b []tree.Node) (bool, error) {
	na := normalizeChildrenForCompare(a)
	nb := normalizeChildrenForCompare(b)
	i, j := 0, 0
	for i < len(na) && j < len(nb) {
		if na[i].Kind() == tree.KindText && nb[j].Kind() == tree.KindText {
			var ta, tb string
			for ; i < len(na) && na[i].Kind() == tree.KindText; i++ {
				ta += na[i].StringValue()
			}
			for ; j < len(nb) && nb[j].Kind() == tree.KindText; j++ {
				tb += nb[j].StringValue()
			}
			if ta != tb {
				return false, nil
			}
		} else if eq, err := deepEqualNode(na[i], nb[j]); err != nil || !eq {
			return eq, err
		} else {
			i, j = i+1, j+1
		}
	}
	return i == len(na) && j == len(nb), nil
}

func normalizeChildrenForCompare(children []tree.Node) []tree.Node {
	var out []tree.Node
	for _, c := range children {
		if c.Kind() == tree.KindComment || c.Kind() == tree.KindProcessingInstruction {
			continue
		}
		out = append(out, c)
	}
	return out
}
