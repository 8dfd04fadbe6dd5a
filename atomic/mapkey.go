package atomic

import (
	"fmt"
	"math"

	"github.com/arborxml/xpath/schema"
)

// MapKey is the canonicalised form of an atomic used to key XPath maps
// (§3 "MapKey"). It must reproduce the construction rules verbatim:
// strings/untypedAtomic hash as strings; float/double NaN collapses to
// one distinguished key; signed infinities collapse to two distinguished
// keys; finite floats/doubles canonicalise through decimal so that an
// integral result collapses further to the integer key space; all
// duration kinds share one key space; timezone-bearing date/times
// normalise to a UTC instant and key separately from naive values;
// gregorian/boolean/binary/QName key on themselves.
type MapKey struct {
	class string
	text  string
}

func (k MapKey) String() string { return k.class + ":" + k.text }

// NewMapKey canonicalises v per the rules above. implicitTZMinutes is
// needed to normalise naive date/time values consistently, though naive
// values key separately from zoned ones regardless of its value.
func NewMapKey(v Value, implicitTZMinutes int) MapKey {
	switch t := v.(type) {
	case String:
		return MapKey{class: "string", text: t.Text}
	case Boolean:
		return MapKey{class: "boolean", text: fmt.Sprint(t.Val)}
	case Binary:
		return MapKey{class: "binary", text: t.StringValue()}
	case QName:
		return MapKey{class: "QName", text: t.NamespaceURI + "|" + t.LocalName}
	case Integer:
		return MapKey{class: "number", text: t.Val.String()}
	case Decimal:
		if t.IsIntegral() {
			return MapKey{class: "number", text: t.Val.Truncate(0).String()}
		}
		return MapKey{class: "number", text: t.Val.String()}
	case Float:
		return floatMapKey(float64(t.Val))
	case Double:
		return floatMapKey(t.Val)
	case YearMonthDuration:
		return MapKey{class: "duration", text: fmt.Sprintf("Y%dD%d", t.Months, 0)}
	case DayTimeDuration:
		return MapKey{class: "duration", text: fmt.Sprintf("Y%dD%d", 0, t.Millis)}
	case Duration:
		return MapKey{class: "duration", text: fmt.Sprintf("Y%dD%d", t.YearMonth.Months, t.DayTime.Millis)}
	case DateTime:
		if t.TZ.Present {
			return MapKey{class: "instant", text: fmt.Sprint(t.toEpochMillis(0))}
		}
		return MapKey{class: "naive-datetime", text: t.StringValue()}
	case Date:
		if t.TZ.Present {
			return MapKey{class: "instant-date", text: fmt.Sprintf("%d", daysFromCivil(t.Year, t.Month, t.Day)*1440-int64(t.TZ.OffsetMinutes))}
		}
		return MapKey{class: "naive-date", text: t.StringValue()}
	case Time:
		if t.TZ.Present {
			return MapKey{class: "instant-time", text: fmt.Sprintf("%d", (t.Hour*3600+t.Minute*60+t.Second)-t.TZ.OffsetMinutes*60)}
		}
		return MapKey{class: "naive-time", text: t.StringValue()}
	case GYear, GYearMonth, GMonthDay, GMonth, GDay:
		return MapKey{class: "gregorian", text: v.StringValue() + "|" + v.Type().LocalName()}
	}
	return MapKey{class: "other", text: v.StringValue()}
}

// floatMapKey implements the float/double canonicalisation rules: NaN
// collapses to one key, +Inf/-Inf to two distinguished keys, and every
// other finite value canonicalises through decimal, then further to
// integer when its fractional part is zero -- unifying with the
// Integer/Decimal key space so 1, 1.0 and 1.0e0 all collide (§3
// invariant iii, §8 boundary case).
func floatMapKey(f float64) MapKey {
	switch {
	case math.IsNaN(f):
		return MapKey{class: "number", text: "NaN"}
	case math.IsInf(f, 1):
		return MapKey{class: "number", text: "+Infinity"}
	case math.IsInf(f, -1):
		return MapKey{class: "number", text: "-Infinity"}
	}
	d, err := CastTo(NewDouble(f), schema.Decimal_)
	if err != nil {
		return MapKey{class: "number", text: fmt.Sprintf("%v", f)}
	}
	dec := d.(Decimal)
	if dec.IsIntegral() {
		return MapKey{class: "number", text: dec.Val.Truncate(0).String()}
	}
	return MapKey{class: "number", text: dec.Val.String()}
}
