package builtins

import (
	"math/big"
	"sort"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/xerr"
)

// registerSequence wires the general sequence functions (§4.H): the
// aggregates (count/sum/avg/min/max), set-ish predicates (empty/exists/
// distinct-values), structural ops (reverse/subsequence/insert-before/
// remove/head/tail/index-of), fn:deep-equal, and the higher-order
// functions (for-each/filter/fold-left/fold-right/for-each-pair/sort)
// which invoke back into the interpreter through ctx.Call.
func registerSequence(r *Registry) {
	r.Register(Entry{FnNamespace, "count", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return integer(int64(args[0].Len())), nil
	}})
	r.Register(Entry{FnNamespace, "empty", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return boolean(args[0].IsEmpty()), nil
	}})
	r.Register(Entry{FnNamespace, "exists", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return boolean(!args[0].IsEmpty()), nil
	}})

	r.Register(Entry{FnNamespace, "sum", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return sumSequence(args[0], nil)
	}})
	r.Register(Entry{FnNamespace, "sum", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return sumSequence(args[0], &args[1])
	}})
	r.Register(Entry{FnNamespace, "avg", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		vs, err := args[0].Atomized()
		if err != nil {
			return sequence.Empty, err
		}
		if len(vs) == 0 {
			return sequence.Empty, nil
		}
		sum, err := addAll(vs)
		if err != nil {
			return sequence.Empty, err
		}
		count := atomic.NewIntegerFromInt64(schema.Integer, int64(len(vs)))
		avg, err := atomic.Divide(sum, count)
		if err != nil {
			return sequence.Empty, err
		}
		return one(avg), nil
	}})
	r.Register(Entry{FnNamespace, "min", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return minMax(ctx, args[0], false)
	}})
	r.Register(Entry{FnNamespace, "max", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return minMax(ctx, args[0], true)
	}})

	r.Register(Entry{FnNamespace, "reverse", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		items := args[0].Items()
		out := make([]sequence.Item, len(items))
		for i, it := range items {
			out[len(items)-1-i] = it
		}
		return sequence.NewMany(out), nil
	}})
	r.Register(Entry{FnNamespace, "head", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].IsEmpty() {
			return sequence.Empty, nil
		}
		return sequence.NewOne(args[0].Get(0)), nil
	}})
	r.Register(Entry{FnNamespace, "tail", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		items := args[0].Items()
		if len(items) <= 1 {
			return sequence.Empty, nil
		}
		return sequence.NewMany(append([]sequence.Item(nil), items[1:]...)), nil
	}})

	r.Register(Entry{FnNamespace, "subsequence", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return subsequence(args[0], args[1], nil)
	}})
	r.Register(Entry{FnNamespace, "subsequence", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return subsequence(args[0], args[1], &args[2])
	}})

	r.Register(Entry{FnNamespace, "insert-before", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		pos, err := intArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		items := args[0].Items()
		insert := args[2].Items()
		if pos < 1 {
			pos = 1
		}
		if pos > len(items)+1 {
			pos = len(items) + 1
		}
		out := make([]sequence.Item, 0, len(items)+len(insert))
		out = append(out, items[:pos-1]...)
		out = append(out, insert...)
		out = append(out, items[pos-1:]...)
		return sequence.NewMany(out), nil
	}})
	r.Register(Entry{FnNamespace, "remove", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		pos, err := intArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		items := args[0].Items()
		if pos < 1 || pos > len(items) {
			return sequence.NewMany(append([]sequence.Item(nil), items...)), nil
		}
		out := make([]sequence.Item, 0, len(items)-1)
		out = append(out, items[:pos-1]...)
		out = append(out, items[pos:]...)
		return sequence.NewMany(out), nil
	}})

	r.Register(Entry{FnNamespace, "index-of", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		needle, err := atomizeOne(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		vs, err := args[0].Atomized()
		if err != nil {
			return sequence.Empty, err
		}
		var out []sequence.Item
		for i, v := range vs {
			eq, err := atomic.ValueEqual(v, needle, ctx.DefaultCollation(), ctx.ImplicitTimezoneMinutes())
			if err != nil {
				return sequence.Empty, err
			}
			if eq {
				out = append(out, sequence.Wrap(atomic.NewIntegerFromInt64(schema.Integer, int64(i+1))))
			}
		}
		return sequence.NewMany(out), nil
	}})

	r.Register(Entry{FnNamespace, "distinct-values", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return distinctValues(args[0], ctx.DefaultCollation(), ctx.ImplicitTimezoneMinutes())
	}})

	r.Register(Entry{FnNamespace, "deep-equal", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		eq, err := sequence.DeepEqual(args[0], args[1])
		if err != nil {
			return sequence.Empty, err
		}
		return boolean(eq), nil
	}})

	r.Register(Entry{FnNamespace, "zero-or-one", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].Len() > 1 {
			return sequence.Empty, xerr.New(xerr.FORG0005, nil, "fn:zero-or-one: sequence has more than one item")
		}
		return args[0], nil
	}})
	r.Register(Entry{FnNamespace, "one-or-more", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].IsEmpty() {
			return sequence.Empty, xerr.New(xerr.FORG0005, nil, "fn:one-or-more: sequence is empty")
		}
		return args[0], nil
	}})
	r.Register(Entry{FnNamespace, "exactly-one", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].Len() != 1 {
			return sequence.Empty, xerr.New(xerr.FORG0005, nil, "fn:exactly-one: sequence is not a singleton")
		}
		return args[0], nil
	}})

	r.Register(Entry{FnNamespace, "for-each", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		fn, err := functionArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		var out sequence.Sequence
		for _, it := range args[0].Items() {
			res, err := ctx.Call(fn, []sequence.Sequence{sequence.NewOne(it)})
			if err != nil {
				return sequence.Empty, err
			}
			out = sequence.Concat(out, res)
		}
		return out, nil
	}})
	r.Register(Entry{FnNamespace, "filter", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		fn, err := functionArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		var kept []sequence.Item
		for _, it := range args[0].Items() {
			res, err := ctx.Call(fn, []sequence.Sequence{sequence.NewOne(it)})
			if err != nil {
				return sequence.Empty, err
			}
			ok, err := res.EffectiveBooleanValue()
			if err != nil {
				return sequence.Empty, err
			}
			if ok {
				kept = append(kept, it)
			}
		}
		return sequence.NewMany(kept), nil
	}})
	r.Register(Entry{FnNamespace, "fold-left", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		fn, err := functionArg(args[2])
		if err != nil {
			return sequence.Empty, err
		}
		acc := args[1]
		for _, it := range args[0].Items() {
			acc, err = ctx.Call(fn, []sequence.Sequence{acc, sequence.NewOne(it)})
			if err != nil {
				return sequence.Empty, err
			}
		}
		return acc, nil
	}})
	r.Register(Entry{FnNamespace, "fold-right", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		fn, err := functionArg(args[2])
		if err != nil {
			return sequence.Empty, err
		}
		items := args[0].Items()
		acc := args[1]
		for i := len(items) - 1; i >= 0; i-- {
			var err error
			acc, err = ctx.Call(fn, []sequence.Sequence{sequence.NewOne(items[i]), acc})
			if err != nil {
				return sequence.Empty, err
			}
		}
		return acc, nil
	}})
	r.Register(Entry{FnNamespace, "for-each-pair", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		fn, err := functionArg(args[2])
		if err != nil {
			return sequence.Empty, err
		}
		a, b := args[0].Items(), args[1].Items()
		n := len(a)
		if len(b) < n {
			n = len(b)
		}
		var out sequence.Sequence
		for i := 0; i < n; i++ {
			res, err := ctx.Call(fn, []sequence.Sequence{sequence.NewOne(a[i]), sequence.NewOne(b[i])})
			if err != nil {
				return sequence.Empty, err
			}
			out = sequence.Concat(out, res)
		}
		return out, nil
	}})

	r.Register(Entry{FnNamespace, "sort", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return sortSequence(ctx, args[0], sequence.Sequence{}, nil)
	}})
	r.Register(Entry{FnNamespace, "sort", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return sortSequence(ctx, args[0], args[1], nil)
	}})
	r.Register(Entry{FnNamespace, "sort", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		fn, err := functionArg(args[2])
		if err != nil {
			return sequence.Empty, err
		}
		return sortSequence(ctx, args[0], args[1], fn)
	}})

	r.Register(Entry{FnNamespace, "apply", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		fn, err := functionArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		arr, err := arrayArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		return ctx.Call(fn, arr.Members())
	}})
}

func addAll(vs []atomic.Value) (atomic.Value, error) {
	acc := vs[0]
	for _, v := range vs[1:] {
		var err error
		acc, err = atomic.Add(acc, v)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func sumSequence(s sequence.Sequence, zero *sequence.Sequence) (sequence.Sequence, error) {
	vs, err := s.Atomized()
	if err != nil {
		return sequence.Empty, err
	}
	if len(vs) == 0 {
		if zero != nil {
			return *zero, nil
		}
		return integer(0), nil
	}
	acc, err := addAll(vs)
	if err != nil {
		return sequence.Empty, err
	}
	return one(acc), nil
}

func minMax(ctx Context, s sequence.Sequence, max bool) (sequence.Sequence, error) {
	vs, err := s.Atomized()
	if err != nil {
		return sequence.Empty, err
	}
	if len(vs) == 0 {
		return sequence.Empty, nil
	}
	best := vs[0]
	for _, v := range vs[1:] {
		ord, err := atomic.Compare(v, best, ctx.DefaultCollation(), ctx.ImplicitTimezoneMinutes())
		if err != nil {
			return sequence.Empty, err
		}
		if (max && ord > 0) || (!max && ord < 0) {
			best = v
		}
	}
	return one(best), nil
}

func subsequence(src, startSeq sequence.Sequence, lenSeq *sequence.Sequence) (sequence.Sequence, error) {
	items := src.Items()
	n := len(items)
	startV, err := atomizeOne(startSeq)
	if err != nil {
		return sequence.Empty, err
	}
	start := roundHalfToEvenValue(startV)

	end := float64(n) + 1
	if lenSeq != nil {
		lenV, err := atomizeOne(*lenSeq)
		if err != nil {
			return sequence.Empty, err
		}
		end = start + roundHalfToEvenValue(lenV)
	}
	from := int(start)
	if start < 1 {
		from = 1
	}
	to := int(end)
	if to > n+1 {
		to = n + 1
	}
	if from >= to || from > n {
		return sequence.Empty, nil
	}
	return sequence.NewMany(append([]sequence.Item(nil), items[from-1:to-1]...)), nil
}

func roundHalfToEvenValue(v atomic.Value) float64 {
	switch n := v.(type) {
	case atomic.Integer:
		f := new(big.Float).SetInt(n.Val)
		out, _ := f.Float64()
		return out
	case atomic.Double:
		return roundHalfToEven(n.Val)
	case atomic.Decimal:
		f, _ := n.Val.Float64()
		return roundHalfToEven(f)
	case atomic.Float:
		return roundHalfToEven(float64(n.Val))
	}
	return 0
}

func distinctValues(s sequence.Sequence, collation atomic.Collation, implicitTZMinutes int) (sequence.Sequence, error) {
	vs, err := s.Atomized()
	if err != nil {
		return sequence.Empty, err
	}
	var out []sequence.Item
	for _, v := range vs {
		dup := false
		for _, seen := range out {
			eq, err := atomic.ValueEqual(v, seen.(sequence.AtomicItem).Value, collation, implicitTZMinutes)
			if err != nil {
				return sequence.Empty, err
			}
			if eq {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, sequence.Wrap(v))
		}
	}
	return sequence.NewMany(out), nil
}

func sortSequence(ctx Context, s sequence.Sequence, collationArg sequence.Sequence, keyFn sequence.Function) (sequence.Sequence, error) {
	items := append([]sequence.Item(nil), s.Items()...)
	collation := ctx.DefaultCollation()
	if !collationArg.IsEmpty() {
		uri, err := stringArg(collationArg)
		if err != nil {
			return sequence.Empty, err
		}
		if c, ok := ctx.Collation(uri); ok {
			collation = c
		}
	}
	keys := make([]atomic.Value, len(items))
	for i, it := range items {
		keySeq := sequence.NewOne(it)
		if keyFn != nil {
			var err error
			keySeq, err = ctx.Call(keyFn, []sequence.Sequence{sequence.NewOne(it)})
			if err != nil {
				return sequence.Empty, err
			}
		}
		v, err := atomizeOne(keySeq)
		if err != nil {
			return sequence.Empty, err
		}
		keys[i] = v
	}
	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		ord, err := atomic.Compare(keys[i], keys[j], collation, ctx.ImplicitTimezoneMinutes())
		if err != nil {
			sortErr = err
			return false
		}
		return ord < 0
	})
	if sortErr != nil {
		return sequence.Empty, sortErr
	}
	return sequence.NewMany(items), nil
}
