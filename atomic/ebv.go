package atomic

import (
	"math"

	"github.com/arborxml/xpath/xerr"
)

// EffectiveBoolean implements the effective-boolean-value coercion for a
// single already-atomized item (§4.B). Sequence-level EBV (which also
// handles the empty/singleton-node cases) lives in package sequence and
// calls this for the singleton-atomic case.
func EffectiveBoolean(v Value) (bool, error) {
	switch t := v.(type) {
	case Boolean:
		return t.Val, nil
	case String:
		return t.Text != "", nil
	case Integer:
		return t.Val.Sign() != 0, nil
	case Decimal:
		return !t.Val.IsZero(), nil
	case Float:
		return t.Val != 0 && !math.IsNaN(float64(t.Val)), nil
	case Double:
		return t.Val != 0 && !math.IsNaN(t.Val), nil
	}
	return false, xerr.New(xerr.FORG0006, nil, "effective boolean value not defined for %s", v.Type().LocalName())
}
