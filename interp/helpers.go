package interp

import (
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/xerr"
)

// atomizeSingle atomizes s and requires exactly one resulting value,
// the shape every arithmetic/comparison/range operand needs (§4.B).
func atomizeSingle(s sequence.Sequence) (atomic.Value, error) {
	vs, err := s.Atomized()
	if err != nil {
		return nil, err
	}
	if len(vs) != 1 {
		return nil, xerr.New(xerr.XPTY0004, nil, "expected a single atomic value, got %d", len(vs))
	}
	return vs[0], nil
}

func booleanSeq(b bool) sequence.Sequence {
	return sequence.NewOne(sequence.Wrap(atomic.NewBoolean(b)))
}

func integerSeq(n int) sequence.Sequence {
	return sequence.NewOne(sequence.Wrap(atomic.NewIntegerFromInt64(schema.Integer, int64(n))))
}
