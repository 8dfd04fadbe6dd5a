package builtins

import (
	"math"
	"math/big"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/xerr"
)

// registerNumeric wires fn:abs/ceiling/floor/round and the math:
// namespace's transcendental functions (§4.H). The math: functions have
// no ecosystem equivalent in the retrieved pack worth preferring over
// the standard library's own correctly-rounded implementations, so they
// are built on stdlib math by design rather than omission, as are
// fn:abs/ceiling/floor/round.
func registerNumeric(r *Registry) {
	unary := func(name string, fn func(atomic.Value) (sequence.Sequence, error)) {
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

	unary("abs", func(v atomic.Value) (sequence.Sequence, error) {
		switch n := v.(type) {
		case atomic.Integer:
			return bigInteger(new(big.Int).Abs(n.Val)), nil
		case atomic.Decimal:
			return one(atomic.NewDecimal(n.Val.Abs())), nil
		case atomic.Float:
			return one(atomic.NewFloat(float32(math.Abs(float64(n.Val))))), nil
		case atomic.Double:
			return double(math.Abs(n.Val)), nil
		}
		return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "fn:abs requires a numeric argument")
	})

	unary("ceiling", func(v atomic.Value) (sequence.Sequence, error) { return roundLike(v, math.Ceil) })
	unary("floor", func(v atomic.Value) (sequence.Sequence, error) { return roundLike(v, math.Floor) })

	r.Register(Entry{FnNamespace, "round", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return roundWithPrecision(args[0], 0)
	}})
	r.Register(Entry{FnNamespace, "round", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		prec, err := intArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		return roundWithPrecision(args[0], prec)
	}})

	r.Register(Entry{FnNamespace, "number", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		v, ok, err := atomizeOptional(args[0])
		if err != nil || !ok {
			return double(math.NaN()), nil
		}
		d, err := atomic.CastTo(v, schema.Double_)
		if err != nil {
			return double(math.NaN()), nil
		}
		return one(d), nil
	}})

	trig := func(name string, fn func(float64) float64) {
		r.Register(Entry{MathNamespace, name, 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
			v, ok, err := atomizeOptional(args[0])
			if err != nil {
				return sequence.Empty, err
			}
			if !ok {
				return sequence.Empty, nil
			}
			d, err := atomic.CastTo(v, schema.Double_)
			if err != nil {
				return sequence.Empty, err
			}
			return double(fn(d.(atomic.Double).Val)), nil
		}})
	}
	trig("sqrt", math.Sqrt)
	trig("sin", math.Sin)
	trig("cos", math.Cos)
	trig("tan", math.Tan)
	trig("exp", math.Exp)
	trig("log", math.Log)
	trig("log10", math.Log10)
	trig("atan", math.Atan)

	r.Register(Entry{MathNamespace, "pi", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return double(math.Pi), nil
	}})
	r.Register(Entry{MathNamespace, "pow", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		x, err := atomizeOne(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		xd, err := atomic.CastTo(x, schema.Double_)
		if err != nil {
			return sequence.Empty, err
		}
		y, err := atomizeOne(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		yd, err := atomic.CastTo(y, schema.Double_)
		if err != nil {
			return sequence.Empty, err
		}
		return double(math.Pow(xd.(atomic.Double).Val, yd.(atomic.Double).Val)), nil
	}})
}

func roundLike(v atomic.Value, fn func(float64) float64) (sequence.Sequence, error) {
	switch n := v.(type) {
	case atomic.Integer:
		return one(n), nil
	case atomic.Decimal:
		f, _ := n.Val.Float64()
		d, err := atomic.CastTo(atomic.NewDouble(fn(f)), schema.Decimal_)
		if err != nil {
			return sequence.Empty, err
		}
		return one(d), nil
	case atomic.Float:
		return one(atomic.NewFloat(float32(fn(float64(n.Val))))), nil
	case atomic.Double:
		return double(fn(n.Val)), nil
	}
	return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "expected a numeric argument")
}

// roundWithPrecision implements fn:round (round half away from zero for
// positive numbers, round-half-up per §4.H rather than the "round half
// to even" xs:float/xs:double banker's rounding some host runtimes use).
func roundWithPrecision(s sequence.Sequence, precision int) (sequence.Sequence, error) {
	v, ok, err := atomizeOptional(s)
	if err != nil {
		return sequence.Empty, err
	}
	if !ok {
		return sequence.Empty, nil
	}
	scale := math.Pow(10, float64(precision))
	switch n := v.(type) {
	case atomic.Integer:
		if precision >= 0 {
			return one(n), nil
		}
		f, _ := new(big.Float).SetInt(n.Val).Float64()
		r := math.Floor(f*scale+0.5) / scale
		bi, _ := big.NewFloat(r).Int(nil)
		return bigInteger(bi), nil
	case atomic.Decimal:
		f, _ := n.Val.Float64()
		r := math.Floor(f*scale+0.5) / scale
		d, err := atomic.CastTo(atomic.NewDouble(r), schema.Decimal_)
		if err != nil {
			return sequence.Empty, err
		}
		return one(d), nil
	case atomic.Float:
		r := math.Floor(float64(n.Val)*scale+0.5) / scale
		return one(atomic.NewFloat(float32(r))), nil
	case atomic.Double:
		if math.IsNaN(n.Val) || math.IsInf(n.Val, 0) {
			return one(n), nil
		}
		return double(math.Floor(n.Val*scale+0.5) / scale), nil
	}
	return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "fn:round requires a numeric argument")
}
