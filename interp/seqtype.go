package interp

import (
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/ir"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/tree"
	"github.com/arborxml/xpath/xerr"
)

// occurrenceOK checks a sequence's length against a SeqType's
// occurrence indicator (0 = exactly one, '?' = zero-or-one, '*' = any,
// '+' = one-or-more).
func occurrenceOK(occ byte, n int) bool {
	switch occ {
	case 0:
		return n == 1
	case '?':
		return n <= 1
	case '*':
		return true
	case '+':
		return n >= 1
	}
	return false
}

// matchKindName implements the unqualified kind-test names a narrowed
// SeqType carries (§4.B "instance of"); unlike interp/axis.go's full
// NodeTest matcher this never sees a QName or PI-target refinement, so
// element()/attribute() tests here only check node kind, not name.
func matchKindName(n tree.Node, name string) bool {
	switch name {
	case "node":
		return true
	case "text":
		return n.Kind() == tree.KindText
	case "comment":
		return n.Kind() == tree.KindComment
	case "processing-instruction":
		return n.Kind() == tree.KindProcessingInstruction
	case "document-node":
		return n.Kind() == tree.KindDocument
	case "element":
		return n.Kind() == tree.KindElement
	case "attribute":
		return n.Kind() == tree.KindAttribute
	case "namespace-node":
		return n.Kind() == tree.KindNamespace
	}
	return false
}

func instanceOf(seq sequence.Sequence, t ir.SeqType) (bool, error) {
	n := seq.Len()
	if t.Kind == ir.SeqTypeEmptySequence {
		return n == 0, nil
	}
	if !occurrenceOK(t.Occurrence, n) {
		return false, nil
	}
	if t.Kind == ir.SeqTypeItem {
		return true, nil
	}
	for _, it := range seq.Items() {
		switch t.Kind {
		case ir.SeqTypeAtomic:
			av, ok := it.(sequence.AtomicItem)
			if !ok {
				return false, nil
			}
			target, ok := schema.ByLocalName(t.TypeName)
			if !ok {
				return false, xerr.New(xerr.XPST0051, nil, "unknown atomic type %q", t.TypeName)
			}
			if !av.Value.Type().DerivesFrom(target) {
				return false, nil
			}
		case ir.SeqTypeKindTest:
			ni, ok := it.(sequence.NodeItem)
			if !ok || !matchKindName(ni.Node, t.TypeName) {
				return false, nil
			}
		}
	}
	return true, nil
}

func treatAs(seq sequence.Sequence, t ir.SeqType) (sequence.Sequence, error) {
	ok, err := instanceOf(seq, t)
	if err != nil {
		return sequence.Sequence{}, err
	}
	if !ok {
		return sequence.Sequence{}, xerr.New(xerr.XPDY0050, nil, "dynamic type does not match the treat sequence type")
	}
	return seq, nil
}

// castAsValue atomizes seq and casts its sole value to t, which must be
// an atomic SeqType. ok is false only when optional is true and seq is
// empty -- every other failure mode returns an error.
func castAsValue(seq sequence.Sequence, t ir.SeqType, optional bool) (atomic.Value, bool, error) {
	if t.Kind != ir.SeqTypeAtomic {
		return nil, false, xerr.New(xerr.XPST0080, nil, "cast target must be an atomic type")
	}
	target, ok := schema.ByLocalName(t.TypeName)
	if !ok {
		return nil, false, xerr.New(xerr.XPST0051, nil, "unknown atomic type %q", t.TypeName)
	}
	vs, err := seq.Atomized()
	if err != nil {
		return nil, false, err
	}
	switch len(vs) {
	case 0:
		if optional {
			return nil, false, nil
		}
		return nil, false, xerr.New(xerr.XPTY0004, nil, "cast as %s requires a value, got an empty sequence", t.TypeName)
	case 1:
		out, err := atomic.CastTo(vs[0], target)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	}
	return nil, false, xerr.New(xerr.XPTY0004, nil, "cast as %s requires a single item, got %d", t.TypeName, len(vs))
}

func castAs(seq sequence.Sequence, t ir.SeqType, optional bool) (sequence.Sequence, error) {
	v, ok, err := castAsValue(seq, t, optional)
	if err != nil {
		return sequence.Sequence{}, err
	}
	if !ok {
		return sequence.Empty, nil
	}
	return sequence.NewOne(sequence.Wrap(v)), nil
}

func castableAs(seq sequence.Sequence, t ir.SeqType, optional bool) bool {
	_, _, err := castAsValue(seq, t, optional)
	return err == nil
}
