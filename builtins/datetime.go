package builtins

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/xerr"
)

// registerDateTime wires fn:current-dateTime/current-date/current-time,
// fn:implicit-timezone and the year/month/day/hours/minutes/seconds/
// timezone component accessors (§4.H).
func registerDateTime(r *Registry) {
	r.Register(Entry{FnNamespace, "current-dateTime", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return one(ctx.CurrentDateTime()), nil
	}})
	r.Register(Entry{FnNamespace, "current-date", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		dt := ctx.CurrentDateTime()
		return one(atomic.NewDate(dt.Year, dt.Month, dt.Day, dt.TZ)), nil
	}})
	r.Register(Entry{FnNamespace, "current-time", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		dt := ctx.CurrentDateTime()
		return one(atomic.NewTime(dt.Hour, dt.Minute, dt.Second, dt.Nanosecond, dt.TZ)), nil
	}})
	r.Register(Entry{FnNamespace, "implicit-timezone", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		mins := ctx.ImplicitTimezoneMinutes()
		return one(atomic.NewDayTimeDuration(int64(mins) * 60 * 1000)), nil
	}})

	accessor := func(name string, fn func(atomic.Value) (sequence.Sequence, error)) {
		r.Register(Entry{FnNamespace, name, 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
			v, ok, err := atomizeOptional(args[0])
			if err != nil {
				return sequence.Empty, err
			}
			if !ok {
				return sequence.Empty, nil
			}
			return fn(v)
		}})
	}

	accessor("year-from-dateTime", func(v atomic.Value) (sequence.Sequence, error) {
		dt, err := asDateTime(v)
		if err != nil {
			return sequence.Empty, err
		}
		return bigInteger(big.NewInt(dt.Year)), nil
	})
	accessor("month-from-dateTime", func(v atomic.Value) (sequence.Sequence, error) {
		dt, err := asDateTime(v)
		if err != nil {
			return sequence.Empty, err
		}
		return integer(int64(dt.Month)), nil
	})
	accessor("day-from-dateTime", func(v atomic.Value) (sequence.Sequence, error) {
		dt, err := asDateTime(v)
		if err != nil {
			return sequence.Empty, err
		}
		return integer(int64(dt.Day)), nil
	})
	accessor("hours-from-dateTime", func(v atomic.Value) (sequence.Sequence, error) {
		dt, err := asDateTime(v)
		if err != nil {
			return sequence.Empty, err
		}
		return integer(int64(dt.Hour)), nil
	})
	accessor("minutes-from-dateTime", func(v atomic.Value) (sequence.Sequence, error) {
		dt, err := asDateTime(v)
		if err != nil {
			return sequence.Empty, err
		}
		return integer(int64(dt.Minute)), nil
	})
	accessor("seconds-from-dateTime", func(v atomic.Value) (sequence.Sequence, error) {
		dt, err := asDateTime(v)
		if err != nil {
			return sequence.Empty, err
		}
		return one(atomic.NewDecimal(secondsDecimal(dt.Second, dt.Nanosecond))), nil
	})

	accessor("year-from-date", func(v atomic.Value) (sequence.Sequence, error) {
		d, ok := v.(atomic.Date)
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "expected an xs:date")
		}
		return bigInteger(big.NewInt(d.Year)), nil
	})
	accessor("month-from-date", func(v atomic.Value) (sequence.Sequence, error) {
		d, ok := v.(atomic.Date)
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "expected an xs:date")
		}
		return integer(int64(d.Month)), nil
	})
	accessor("day-from-date", func(v atomic.Value) (sequence.Sequence, error) {
		d, ok := v.(atomic.Date)
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "expected an xs:date")
		}
		return integer(int64(d.Day)), nil
	})

	accessor("hours-from-time", func(v atomic.Value) (sequence.Sequence, error) {
		t, ok := v.(atomic.Time)
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "expected an xs:time")
		}
		return integer(int64(t.Hour)), nil
	})
	accessor("minutes-from-time", func(v atomic.Value) (sequence.Sequence, error) {
		t, ok := v.(atomic.Time)
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "expected an xs:time")
		}
		return integer(int64(t.Minute)), nil
	})
	accessor("seconds-from-time", func(v atomic.Value) (sequence.Sequence, error) {
		t, ok := v.(atomic.Time)
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "expected an xs:time")
		}
		return one(atomic.NewDecimal(secondsDecimal(t.Second, t.Nanosecond))), nil
	})

	tzAccessor := func(name string, fn func(atomic.Value) (atomic.TZ, bool, error)) {
		r.Register(Entry{FnNamespace, name, 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
			v, ok, err := atomizeOptional(args[0])
			if err != nil {
				return sequence.Empty, err
			}
			if !ok {
				return sequence.Empty, nil
			}
			tz, present, err := fn(v)
			if err != nil {
				return sequence.Empty, err
			}
			if !present {
				return sequence.Empty, nil
			}
			return one(atomic.NewDayTimeDuration(int64(tz.OffsetMinutes) * 60 * 1000)), nil
		}})
	}
	tzAccessor("timezone-from-dateTime", func(v atomic.Value) (atomic.TZ, bool, error) {
		dt, err := asDateTime(v)
		if err != nil {
			return atomic.TZ{}, false, err
		}
		return dt.TZ, dt.TZ.Present, nil
	})
	tzAccessor("timezone-from-date", func(v atomic.Value) (atomic.TZ, bool, error) {
		d, ok := v.(atomic.Date)
		if !ok {
			return atomic.TZ{}, false, xerr.New(xerr.XPTY0004, nil, "expected an xs:date")
		}
		return d.TZ, d.TZ.Present, nil
	})
	tzAccessor("timezone-from-time", func(v atomic.Value) (atomic.TZ, bool, error) {
		t, ok := v.(atomic.Time)
		if !ok {
			return atomic.TZ{}, false, xerr.New(xerr.XPTY0004, nil, "expected an xs:time")
		}
		return t.TZ, t.TZ.Present, nil
	})
}

func asDateTime(v atomic.Value) (atomic.DateTime, error) {
	dt, ok := v.(atomic.DateTime)
	if !ok {
		return atomic.DateTime{}, xerr.New(xerr.XPTY0004, nil, "expected an xs:dateTime")
	}
	return dt, nil
}

// secondsDecimal builds the exact xs:decimal value of a seconds+nanosecond
// component, via shopspring/decimal rather than a float64 round-trip.
func secondsDecimal(s, ns int) decimal.Decimal {
	return decimal.New(int64(s), 0).Add(decimal.New(int64(ns), -9))
}
