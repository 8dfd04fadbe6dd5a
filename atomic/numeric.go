package atomic

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/xerr"
)

// Integer represents xs:integer and every fixed-width subtype
// (long/int/short/byte and their unsigned counterparts, §3). The value
// itself is always held as an arbitrary-precision math/big.Int -- no
// ecosystem library in the retrieved pack offers an arbitrary-precision
// integer (shopspring/decimal is fixed-point, not unbounded; see
// DESIGN.md) -- while the value's schema type (Type()) records the
// declared fixed-width tag so operations that "cannot change it" (§3
// invariant ii) preserve it.
type Integer struct {
	base
	Val *big.Int
}

// NewInteger builds an Integer of the exact subtype typ (must be
// xs:integer or one of its numeric restrictions).
func NewInteger(typ *schema.Type, v *big.Int) Integer {
	return Integer{base: base{typ: typ}, Val: v}
}

func NewIntegerFromInt64(typ *schema.Type, v int64) Integer {
	return NewInteger(typ, big.NewInt(v))
}

func (i Integer) StringValue() string { return i.Val.String() }

// fixedWidthRange reports the inclusive [min, max] value range for a
// fixed-width integer subtype, or (nil, nil, false) for the unbounded
// xs:integer itself.
func fixedWidthRange(typ *schema.Type) (min, max *big.Int, bounded bool) {
	switch typ {
	case schema.Long:
		return big.NewInt(math.MinInt64), big.NewInt(math.MaxInt64), true
	case schema.Int_:
		return big.NewInt(math.MinInt32), big.NewInt(math.MaxInt32), true
	case schema.Short:
		return big.NewInt(math.MinInt16), big.NewInt(math.MaxInt16), true
	case schema.Byte_:
		return big.NewInt(math.MinInt8), big.NewInt(math.MaxInt8), true
	case schema.UnsignedLong:
		return big.NewInt(0), new(big.Int).SetUint64(math.MaxUint64), true
	case schema.UnsignedInt:
		return big.NewInt(0), big.NewInt(math.MaxUint32), true
	case schema.UnsignedShort:
		return big.NewInt(0), big.NewInt(math.MaxUint16), true
	case schema.UnsignedByte:
		return big.NewInt(0), big.NewInt(math.MaxUint8), true
	case schema.PositiveInteger:
		return big.NewInt(1), nil, false
	case schema.NonNegativeInteger:
		return big.NewInt(0), nil, false
	case schema.NegativeInteger:
		return nil, big.NewInt(-1), false
	case schema.NonPositiveInteger:
		return nil, big.NewInt(0), false
	}
	return nil, nil, false
}

// CheckRange validates i.Val against its declared subtype's range for
// a casting context, returning FOCA0003 (value too large) on
// violation. xs:integer itself is unbounded and always passes (§8
// "via xs:integer arithmetic (arbitrary precision)"). Arithmetic call
// sites use CheckArithRange instead, since the same out-of-range
// condition is FOAR0002 there, not FOCA0003.
func (i Integer) CheckRange() error {
	return i.checkRange(rangeErr(i))
}

// CheckArithRange is CheckRange for an arithmetic result: the fixed-
// width subtype tag an operation preserves (§3 invariant ii) must
// range-check to FOAR0002 on overflow, per the named boundary in §8
// ("via xs:long (overflows to FOAR0002)"), distinct from the FOCA0003
// a cast raises on the identical numeric condition.
func (i Integer) CheckArithRange() error {
	return i.checkRange(xerr.New(xerr.FOAR0002, nil, "arithmetic result %s out of range for %s", i.Val.String(), i.Type().LocalName()))
}

func (i Integer) checkRange(onViolation error) error {
	min, max, _ := fixedWidthRange(i.Type())
	if min != nil && i.Val.Cmp(min) < 0 {
		return onViolation
	}
	if max != nil && i.Val.Cmp(max) > 0 {
		return onViolation
	}
	return nil
}

// Decimal represents xs:decimal: exact fixed-point arithmetic backed by
// shopspring/decimal (grounded on the pack's manifests for cue-lang-cue,
// brokle-ai-brokle, vippsas-sqlcode, sderkacs-exi-go, AKJUS-bsc-erigon --
// see SPEC_FULL.md §B), avoiding the rounding drift a float64
// representation would introduce for fixed-point semantics.
type Decimal struct {
	base
	Val decimal.Decimal
}

func NewDecimal(v decimal.Decimal) Decimal {
	return Decimal{base: base{typ: schema.Decimal_}, Val: v}
}

func (d Decimal) StringValue() string {
	return d.Val.String()
}

// IsIntegral reports whether d has a zero fractional part -- the
// condition under which a Decimal is canonicalized to an Integer for
// map-key purposes (§3 invariant iii).
func (d Decimal) IsIntegral() bool {
	return d.Val.Equal(d.Val.Truncate(0))
}

// ToInteger converts an integral Decimal to an Integer of type
// xs:integer. Callers must have checked IsIntegral first.
func (d Decimal) ToInteger() Integer {
	return NewInteger(schema.Integer, d.Val.Truncate(0).BigInt())
}

// Float represents xs:float (IEEE-754 single precision, stored as a
// float32 and formatted with 32-bit precision).
type Float struct {
	base
	Val float32
}

func NewFloat(v float32) Float {
	return Float{base: base{typ: schema.Float_}, Val: v}
}

func (f Float) StringValue() string { return formatIEEE(float64(f.Val), 32) }

// Double represents xs:double (IEEE-754 double precision).
type Double struct {
	base
	Val float64
}

func NewDouble(v float64) Double {
	return Double{base: base{typ: schema.Double_}, Val: v}
}

func (d Double) StringValue() string { return formatIEEE(d.Val, 64) }

// formatIEEE implements the XPath-specified canonical lexical form for
// float/double (§4.B "distinct from host-language default formatting"):
// "INF", "-INF", "NaN" for the specials, plain decimal notation for
// values in [1e-6, 1e21), scientific notation with at least one
// fractional digit in the mantissa otherwise.
func formatIEEE(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "INF"
	case math.IsInf(v, -1):
		return "-INF"
	case v == 0:
		if math.Signbit(v) {
			return "-0"
		}
		return "0"
	}

	abs := math.Abs(v)
	if abs >= 1e-6 && abs < 1e21 {
		s := strconv.FormatFloat(v, 'f', -1, bits)
		return s
	}
	s := strconv.FormatFloat(v, 'e', -1, bits)
	return xpathExponentForm(s)
}

// xpathExponentForm rewrites Go's "1.5e+10"/"1.5e-10" exponent syntax
// into XPath's "1.5E10"/"1.5E-10" (capital E, no '+', no leading zeros
// in the exponent).
func xpathExponentForm(s string) string {
	idx := -1
	for i, c := range s {
		if c == 'e' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}
	mantissa, exp := s[:idx], s[idx+1:]
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	sign := ""
	if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
		if exp[0] == '-' {
			sign = "-"
		}
		exp = exp[1:]
	}
	for len(exp) > 1 && exp[0] == '0' {
		exp = exp[1:]
	}
	return fmt.Sprintf("%sE%s%s", mantissa, sign, exp)
}
