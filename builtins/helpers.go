package builtins

import (
	"math/big"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/xerr"
)

func one(v atomic.Value) sequence.Sequence { return sequence.NewOne(sequence.Wrap(v)) }

func str(s string) sequence.Sequence { return one(atomic.NewString(schema.String, s)) }

func boolean(b bool) sequence.Sequence { return one(atomic.NewBoolean(b)) }

func integer(n int64) sequence.Sequence { return one(atomic.NewIntegerFromInt64(schema.Integer, n)) }

func bigInteger(n *big.Int) sequence.Sequence { return one(atomic.NewInteger(schema.Integer, n)) }

func double(f float64) sequence.Sequence { return one(atomic.NewDouble(f)) }

// atomizeOne atomizes s and requires exactly one resulting value.
func atomizeOne(s sequence.Sequence) (atomic.Value, error) {
	vs, err := s.Atomized()
	if err != nil {
		return nil, err
	}
	if len(vs) != 1 {
		return nil, xerr.New(xerr.XPTY0004, nil, "expected exactly one atomic value, got %d", len(vs))
	}
	return vs[0], nil
}

// atomizeOptional atomizes s and requires zero or one resulting value.
func atomizeOptional(s sequence.Sequence) (atomic.Value, bool, error) {
	vs, err := s.Atomized()
	if err != nil {
		return nil, false, err
	}
	switch len(vs) {
	case 0:
		return nil, false, nil
	case 1:
		return vs[0], true, nil
	}
	return nil, false, xerr.New(xerr.XPTY0004, nil, "expected zero or one atomic values, got %d", len(vs))
}

func stringArg(s sequence.Sequence) (string, error) {
	v, err := atomizeOne(s)
	if err != nil {
		return "", err
	}
	return v.StringValue(), nil
}

func optionalStringArg(s sequence.Sequence, deflt string) (string, error) {
	v, ok, err := atomizeOptional(s)
	if err != nil {
		return "", err
	}
	if !ok {
		return deflt, nil
	}
	return v.StringValue(), nil
}

func boolArg(s sequence.Sequence) (bool, error) {
	v, err := atomizeOne(s)
	if err != nil {
		return false, err
	}
	return atomic.EffectiveBoolean(v)
}

func intArg(s sequence.Sequence) (int, error) {
	v, err := atomizeOne(s)
	if err != nil {
		return 0, err
	}
	i, err := atomic.CastTo(v, schema.Integer)
	if err != nil {
		return 0, err
	}
	return int(i.(atomic.Integer).Val.Int64()), nil
}

// effectiveBooleanOf computes $arg's sequence-level EBV (fn:boolean,
// fn:not and the predicates not otherwise already compiled as jumps).
func effectiveBooleanOf(s sequence.Sequence) (bool, error) {
	return s.EffectiveBooleanValue()
}
