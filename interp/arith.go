package interp

import (
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/ir"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/tree"
	"github.com/arborxml/xpath/xerr"
)

// toFloat casts v to xs:double for use as a duration's numeric
// multiplier/divisor.
func toFloat(v atomic.Value) (float64, error) {
	d, err := atomic.CastTo(v, schema.Double_)
	if err != nil {
		return 0, err
	}
	return d.(atomic.Double).Val, nil
}

// addValues handles numeric + via atomic.Add, falling back to the
// dateTime/date/time plus duration combinations the XPath-functions
// arithmetic matrix defines (§4.B): dateTime, date and time each admit
// both duration kinds except that a yearMonthDuration has no effect on
// a bare time (it has no date component for a month to apply to, so
// that combination is absent below and falls through to XPTY0004).
func (it *Interpreter) addValues(a, b atomic.Value) (atomic.Value, error) {
	if v, err := atomic.Add(a, b); err == nil {
		return v, nil
	}
	switch av := a.(type) {
	case atomic.DateTime:
		switch bv := b.(type) {
		case atomic.YearMonthDuration:
			return atomic.AddYearMonthDuration(av, bv), nil
		case atomic.DayTimeDuration:
			return atomic.AddDayTimeDurationToDateTime(av, bv), nil
		}
	case atomic.Date:
		switch bv := b.(type) {
		case atomic.YearMonthDuration:
			return atomic.AddYearMonthDurationToDate(av, bv), nil
		case atomic.DayTimeDuration:
			return atomic.AddDayTimeDurationToDate(av, bv), nil
		}
	case atomic.Time:
		if bv, ok := b.(atomic.DayTimeDuration); ok {
			return atomic.AddDayTimeDurationToTime(av, bv), nil
		}
	case atomic.YearMonthDuration:
		switch bv := b.(type) {
		case atomic.DateTime:
			return atomic.AddYearMonthDuration(bv, av), nil
		case atomic.Date:
			return atomic.AddYearMonthDurationToDate(bv, av), nil
		case atomic.YearMonthDuration:
			return atomic.AddYearMonthDurations(av, bv), nil
		}
	case atomic.DayTimeDuration:
		switch bv := b.(type) {
		case atomic.DateTime:
			return atomic.AddDayTimeDurationToDateTime(bv, av), nil
		case atomic.Date:
			return atomic.AddDayTimeDurationToDate(bv, av), nil
		case atomic.Time:
			return atomic.AddDayTimeDurationToTime(bv, av), nil
		case atomic.DayTimeDuration:
			return atomic.AddDayTimeDurations(av, bv), nil
		}
	}
	return nil, xerr.New(xerr.XPTY0004, nil, "operand types %s and %s do not support +", a.Type().LocalName(), b.Type().LocalName())
}

func (it *Interpreter) subtractValues(a, b atomic.Value) (atomic.Value, error) {
	if v, err := atomic.Subtract(a, b); err == nil {
		return v, nil
	}
	switch av := a.(type) {
	case atomic.DateTime:
		switch bv := b.(type) {
		case atomic.DateTime:
			return atomic.SubtractDateTime(av, bv, it.implicitTZMinutes), nil
		case atomic.YearMonthDuration:
			return atomic.AddYearMonthDuration(av, atomic.NewYearMonthDuration(-bv.Months)), nil
		case atomic.DayTimeDuration:
			return atomic.AddDayTimeDurationToDateTime(av, atomic.NewDayTimeDuration(-bv.Millis)), nil
		}
	case atomic.Date:
		switch bv := b.(type) {
		case atomic.Date:
			return atomic.SubtractDate(av, bv, it.implicitTZMinutes), nil
		case atomic.YearMonthDuration:
			return atomic.AddYearMonthDurationToDate(av, atomic.NewYearMonthDuration(-bv.Months)), nil
		case atomic.DayTimeDuration:
			return atomic.AddDayTimeDurationToDate(av, atomic.NewDayTimeDuration(-bv.Millis)), nil
		}
	case atomic.Time:
		switch bv := b.(type) {
		case atomic.Time:
			return atomic.SubtractTime(av, bv, it.implicitTZMinutes), nil
		case atomic.DayTimeDuration:
			return atomic.AddDayTimeDurationToTime(av, atomic.NewDayTimeDuration(-bv.Millis)), nil
		}
	case atomic.YearMonthDuration:
		if bv, ok := b.(atomic.YearMonthDuration); ok {
			return atomic.AddYearMonthDurations(av, atomic.NewYearMonthDuration(-bv.Months)), nil
		}
	case atomic.DayTimeDuration:
		if bv, ok := b.(atomic.DayTimeDuration); ok {
			return atomic.AddDayTimeDurations(av, atomic.NewDayTimeDuration(-bv.Millis)), nil
		}
	}
	return nil, xerr.New(xerr.XPTY0004, nil, "operand types %s and %s do not support -", a.Type().LocalName(), b.Type().LocalName())
}

func multiplyValues(a, b atomic.Value) (atomic.Value, error) {
	if v, err := atomic.Multiply(a, b); err == nil {
		return v, nil
	}
	if dur, ok := a.(atomic.YearMonthDuration); ok {
		if f, ferr := toFloat(b); ferr == nil {
			return atomic.MultiplyYearMonthDuration(dur, f), nil
		}
	}
	if dur, ok := b.(atomic.YearMonthDuration); ok {
		if f, ferr := toFloat(a); ferr == nil {
			return atomic.MultiplyYearMonthDuration(dur, f), nil
		}
	}
	if dur, ok := a.(atomic.DayTimeDuration); ok {
		if f, ferr := toFloat(b); ferr == nil {
			return atomic.MultiplyDayTimeDuration(dur, f), nil
		}
	}
	if dur, ok := b.(atomic.DayTimeDuration); ok {
		if f, ferr := toFloat(a); ferr == nil {
			return atomic.MultiplyDayTimeDuration(dur, f), nil
		}
	}
	return nil, xerr.New(xerr.XPTY0004, nil, "operand types %s and %s do not support *", a.Type().LocalName(), b.Type().LocalName())
}

// divideValues covers numeric division, duration-by-number, and (for
// dayTimeDuration only, matching atomic/datearith.go's coverage)
// duration-by-duration; yearMonthDuration-by-duration is not supported
// by the atomic layer.
func divideValues(a, b atomic.Value) (atomic.Value, error) {
	if v, err := atomic.Divide(a, b); err == nil {
		return v, nil
	}
	if dur, ok := a.(atomic.YearMonthDuration); ok {
		if f, ferr := toFloat(b); ferr == nil && f != 0 {
			return atomic.MultiplyYearMonthDuration(dur, 1/f), nil
		}
	}
	if dur, ok := a.(atomic.DayTimeDuration); ok {
		if bdur, ok := b.(atomic.DayTimeDuration); ok {
			return atomic.DivideDayTimeDurationByDuration(dur, bdur)
		}
		if f, ferr := toFloat(b); ferr == nil {
			if f == 0 {
				return nil, xerr.New(xerr.FOAR0001, nil, "division by zero")
			}
			return atomic.MultiplyDayTimeDuration(dur, 1/f), nil
		}
	}
	return nil, xerr.New(xerr.XPTY0004, nil, "operand types %s and %s do not support div", a.Type().LocalName(), b.Type().LocalName())
}

// toNumericOperand resolves an untypedAtomic operand to xs:double (the
// implicit numeric promotion unary +/- requires) and rejects anything
// else non-numeric.
func toNumericOperand(v atomic.Value) (atomic.Value, error) {
	if v.Type() == schema.UntypedAtomic {
		return atomic.CastTo(v, schema.Double_)
	}
	if v.Type().BaseNumericType() == schema.NotNumeric {
		return nil, xerr.New(xerr.XPTY0004, nil, "%s is not numeric", v.Type().LocalName())
	}
	return v, nil
}

func unaryValue(neg bool, v atomic.Value) (atomic.Value, error) {
	nv, err := toNumericOperand(v)
	if err != nil {
		return nil, err
	}
	if !neg {
		return nv, nil
	}
	return atomic.UnaryMinus(nv)
}

func concatOperandString(s sequence.Sequence) (string, error) {
	if s.IsEmpty() {
		return "", nil
	}
	v, err := atomizeSingle(s)
	if err != nil {
		return "", err
	}
	return v.StringValue(), nil
}

// concatOp implements `||`: an empty operand is treated as a
// zero-length string rather than propagating emptiness (§4.B, unlike
// the numeric operators).
func concatOp(a, b sequence.Sequence) (sequence.Sequence, error) {
	as, err := concatOperandString(a)
	if err != nil {
		return sequence.Sequence{}, err
	}
	bs, err := concatOperandString(b)
	if err != nil {
		return sequence.Sequence{}, err
	}
	return sequence.NewOne(sequence.Wrap(atomic.NewString(schema.String, as+bs))), nil
}

// rangeOp implements `to`: either operand empty yields the empty
// sequence.
func rangeOp(a, b sequence.Sequence) (sequence.Sequence, error) {
	if a.IsEmpty() || b.IsEmpty() {
		return sequence.Empty, nil
	}
	av, err := atomizeSingle(a)
	if err != nil {
		return sequence.Sequence{}, err
	}
	bv, err := atomizeSingle(b)
	if err != nil {
		return sequence.Sequence{}, err
	}
	lo, err := atomic.CastTo(av, schema.Integer)
	if err != nil {
		return sequence.Sequence{}, err
	}
	hi, err := atomic.CastTo(bv, schema.Integer)
	if err != nil {
		return sequence.Sequence{}, err
	}
	return sequence.NewRange(lo.(atomic.Integer).Val.Int64(), hi.(atomic.Integer).Val.Int64())
}

func genToBase(op ir.CompareOp) ir.CompareOp {
	switch op {
	case ir.CmpGenEq:
		return ir.CmpEq
	case ir.CmpGenNe:
		return ir.CmpNe
	case ir.CmpGenLt:
		return ir.CmpLt
	case ir.CmpGenLe:
		return ir.CmpLe
	case ir.CmpGenGt:
		return ir.CmpGt
	case ir.CmpGenGe:
		return ir.CmpGe
	}
	return op
}

// evalValueCompare applies one of the six value-comparison operators
// (eq/ne/lt/le/gt/ge) to a pair of already-atomized values. A NaN
// operand (atomic.Compare's unnamed sentinel Ordering, neither Less,
// Equal nor Greater) compares false for every operator except ne.
func (it *Interpreter) evalValueCompare(op ir.CompareOp, a, b atomic.Value) (bool, error) {
	ord, err := atomic.Compare(a, b, it.defaultCollation, it.implicitTZMinutes)
	if err != nil {
		return false, err
	}
	isOrdered := ord == atomic.Less || ord == atomic.Equal || ord == atomic.Greater
	switch op {
	case ir.CmpEq:
		return isOrdered && ord == atomic.Equal, nil
	case ir.CmpNe:
		return !isOrdered || ord != atomic.Equal, nil
	case ir.CmpLt:
		return isOrdered && ord == atomic.Less, nil
	case ir.CmpLe:
		return isOrdered && (ord == atomic.Less || ord == atomic.Equal), nil
	case ir.CmpGt:
		return isOrdered && ord == atomic.Greater, nil
	case ir.CmpGe:
		return isOrdered && (ord == atomic.Greater || ord == atomic.Equal), nil
	}
	return false, xerr.New(xerr.XPST0003, nil, "unknown value comparison operator")
}

func nodeOf(s sequence.Sequence) (tree.Node, error) {
	item, err := s.One()
	if err != nil {
		return nil, err
	}
	ni, ok := item.(sequence.NodeItem)
	if !ok {
		return nil, xerr.New(xerr.XPTY0004, nil, "operand of a node comparison is not a node")
	}
	return ni.Node, nil
}

// compareValues implements OpCompare across all fifteen operators: the
// six value comparisons and three node comparisons propagate an empty
// operand to an empty result; the six general comparisons instead
// existentially quantify over both operands' atomized values and never
// propagate emptiness (§4.B).
func (it *Interpreter) compareValues(op ir.CompareOp, a, b sequence.Sequence) (sequence.Sequence, error) {
	switch op {
	case ir.CmpEq, ir.CmpNe, ir.CmpLt, ir.CmpLe, ir.CmpGt, ir.CmpGe:
		if a.IsEmpty() || b.IsEmpty() {
			return sequence.Empty, nil
		}
		av, err := atomizeSingle(a)
		if err != nil {
			return sequence.Sequence{}, err
		}
		bv, err := atomizeSingle(b)
		if err != nil {
			return sequence.Sequence{}, err
		}
		result, err := it.evalValueCompare(op, av, bv)
		if err != nil {
			return sequence.Sequence{}, err
		}
		return booleanSeq(result), nil

	case ir.CmpGenEq, ir.CmpGenNe, ir.CmpGenLt, ir.CmpGenLe, ir.CmpGenGt, ir.CmpGenGe:
		if a.IsEmpty() || b.IsEmpty() {
			return booleanSeq(false), nil
		}
		avs, err := a.Atomized()
		if err != nil {
			return sequence.Sequence{}, err
		}
		bvs, err := b.Atomized()
		if err != nil {
			return sequence.Sequence{}, err
		}
		base := genToBase(op)
		for _, av := range avs {
			for _, bv := range bvs {
				ok, err := it.evalValueCompare(base, av, bv)
				if err != nil {
					return sequence.Sequence{}, err
				}
				if ok {
					return booleanSeq(true), nil
				}
			}
		}
		return booleanSeq(false), nil

	case ir.CmpIs, ir.CmpNodeBefore, ir.CmpNodeAfter:
		if a.IsEmpty() || b.IsEmpty() {
			return sequence.Empty, nil
		}
		an, err := nodeOf(a)
		if err != nil {
			return sequence.Sequence{}, err
		}
		bn, err := nodeOf(b)
		if err != nil {
			return sequence.Sequence{}, err
		}
		switch op {
		case ir.CmpIs:
			return booleanSeq(an.Identity() == bn.Identity()), nil
		case ir.CmpNodeBefore:
			return booleanSeq(an.DocumentOrderKey().Less(bn.DocumentOrderKey())), nil
		case ir.CmpNodeAfter:
			return booleanSeq(bn.DocumentOrderKey().Less(an.DocumentOrderKey())), nil
		}
	}
	return sequence.Sequence{}, xerr.New(xerr.XPST0003, nil, "unknown comparison operator")
}
