package atomic

import (
	"math"
	"strings"

	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/xerr"
)

// Ordering is the result of a three-way value comparison.
type Ordering int

const (
	Less Ordering = iota - 1
	Equal
	Greater
)

// Collation is a pluggable string-comparison function identified by URI
// (GLOSSARY "Collation"); package atomic ships the codepoint collation
// used when no other collation is supplied. No further collation is
// built in; a host registers its own through interp.WithCollation.
type Collation func(a, b string) int

// CodepointCollation compares by Unicode codepoint, the XPath default
// collation (http://www.w3.org/2005/xpath-functions/collation/codepoint).
func CodepointCollation(a, b string) int { return strings.Compare(a, b) }

// Compare implements value comparison (eq/ne/lt/le/gt/ge, §4.B) between
// two atomics of comparable type, returning their Ordering. Mixed
// numeric types are promoted per the binary-cast rule; mixed non-numeric
// incomparable pairs raise XPTY0004. implicitTZMinutes supplies the
// dynamic context's implicit timezone for naive date/time comparisons.
func Compare(a, b Value, collation Collation, implicitTZMinutes int) (Ordering, error) {
	if collation == nil {
		collation = CodepointCollation
	}
	an, aNumeric := maybeNumericKind(a)
	bn, bNumeric := maybeNumericKind(b)
	if aNumeric && bNumeric {
		return compareNumeric(a, b, an, bn)
	}
	if isStringLike(a) && isStringLike(b) {
		c := collation(a.StringValue(), b.StringValue())
		return Ordering(sign(c)), nil
	}
	switch at := a.(type) {
	case Boolean:
		if bt, ok := b.(Boolean); ok {
			return Ordering(sign(boolCompare(at.Val, bt.Val))), nil
		}
	case DateTime:
		if bt, ok := b.(DateTime); ok {
			return Ordering(sign(int(at.toEpochMillis(implicitTZMinutes) - bt.toEpochMillis(implicitTZMinutes)))), nil
		}
	case YearMonthDuration:
		if bt, ok := b.(YearMonthDuration); ok {
			return Ordering(sign(int(at.Months - bt.Months))), nil
		}
	case DayTimeDuration:
		if bt, ok := b.(DayTimeDuration); ok {
			return Ordering(sign(int(at.Millis - bt.Millis))), nil
		}
	}
	return 0, xerr.New(xerr.XPTY0004, nil, "values of type %s and %s are not comparable", a.Type().LocalName(), b.Type().LocalName())
}

func boolCompare(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func isStringLike(v Value) bool {
	_, ok := v.(String)
	return ok
}

func maybeNumericKind(v Value) (schema.BaseNumeric, bool) {
	if s, ok := v.(String); ok && v.Type() == schema.UntypedAtomic {
		_ = s
		return schema.Double, true
	}
	k := v.Type().BaseNumericType()
	return k, k != schema.NotNumeric
}

func compareNumeric(a, b Value, ka, kb schema.BaseNumeric) (Ordering, error) {
	common := ka
	if kb > common {
		common = kb
	}
	pa, err := widenTo(a, ka, common)
	if err != nil {
		return 0, err
	}
	pb, err := widenTo(b, kb, common)
	if err != nil {
		return 0, err
	}
	switch common {
	case schema.IntegerNumeric:
		return Ordering(pa.(Integer).Val.Cmp(pb.(Integer).Val)), nil
	case schema.Decimal:
		return Ordering(pa.(Decimal).Val.Cmp(pb.(Decimal).Val)), nil
	case schema.Float:
		return floatOrdering(float64(pa.(Float).Val), float64(pb.(Float).Val))
	case schema.Double:
		return floatOrdering(pa.(Double).Val, pb.(Double).Val)
	}
	return 0, xerr.New(xerr.XPTY0004, nil, "non-numeric operand")
}

func floatOrdering(a, b float64) (Ordering, error) {
	if math.IsNaN(a) || math.IsNaN(b) {
		// NaN value-compares unequal to itself (§3 invariant iv); the
		// caller (eq/lt/...) maps this to "false", never to an error.
		return 2, nil
	}
	switch {
	case a < b:
		return Less, nil
	case a > b:
		return Greater, nil
	}
	return Equal, nil
}

// ValueEqual implements eq. NaN never equals anything, including itself.
func ValueEqual(a, b Value, collation Collation, implicitTZMinutes int) (bool, error) {
	ord, err := Compare(a, b, collation, implicitTZMinutes)
	if err != nil {
		return false, err
	}
	return ord == Equal, nil
}

// DeepEqualValue implements the deep-equal/map-key notion of atomic
// equality, where NaN equals NaN and +0.0 equals -0.0 (§3 invariant iv).
func DeepEqualValue(a, b Value) bool {
	af, aIsFloat := floatBits(a)
	bf, bIsFloat := floatBits(b)
	if aIsFloat && bIsFloat {
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		return af == bf
	}
	ord, err := Compare(a, b, nil, 0)
	if err != nil {
		return false
	}
	return ord == Equal
}

func floatBits(v Value) (float64, bool) {
	switch t := v.(type) {
	case Float:
		return float64(t.Val), true
	case Double:
		return t.Val, true
	}
	return 0, false
}
