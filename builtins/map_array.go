package builtins

import (
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/xerr"
)

// registerMapArray wires the map: and array: namespaces (§4.H).
func registerMapArray(r *Registry) {
	r.Register(Entry{MapNamespace, "merge", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return mapMerge(args[0], "use-first")
	}})
	r.Register(Entry{MapNamespace, "merge", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		policy, err := mergePolicyOf(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		return mapMerge(args[0], policy)
	}})
	r.Register(Entry{MapNamespace, "size", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		m, err := mapArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return integer(int64(m.Size())), nil
	}})
	r.Register(Entry{MapNamespace, "get", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		m, err := mapArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		k, err := atomizeOne(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		v, ok := m.Get(k)
		if !ok {
			return sequence.Empty, nil
		}
		return v, nil
	}})
	r.Register(Entry{MapNamespace, "contains", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		m, err := mapArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		k, err := atomizeOne(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		return boolean(m.Contains(k)), nil
	}})
	r.Register(Entry{MapNamespace, "put", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		m, err := mapArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		k, err := atomizeOne(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		return wrapMap(m.Put(k, args[2])), nil
	}})
	r.Register(Entry{MapNamespace, "remove", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		m, err := mapArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		k, err := atomizeOne(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		return wrapMap(m.Remove(k)), nil
	}})
	r.Register(Entry{MapNamespace, "keys", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		m, err := mapArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		keys := m.Keys()
		items := make([]sequence.Item, len(keys))
		for i, k := range keys {
			items[i] = sequence.Wrap(k)
		}
		return sequence.NewMany(items), nil
	}})
	r.Register(Entry{MapNamespace, "for-each", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		m, err := mapArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		fn, err := functionArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		var out sequence.Sequence
		err = m.ForEach(func(key atomic.Value, value sequence.Sequence) error {
			res, callErr := ctx.Call(fn, []sequence.Sequence{one(key), value})
			if callErr != nil {
				return callErr
			}
			out = sequence.Concat(out, res)
			return nil
		})
		if err != nil {
			return sequence.Empty, err
		}
		return out, nil
	}})

	r.Register(Entry{ArrayNamespace, "size", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, err := arrayArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return integer(int64(a.Size())), nil
	}})
	r.Register(Entry{ArrayNamespace, "get", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, err := arrayArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		idx, err := intArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		v, ok := a.Get(idx)
		if !ok {
			return sequence.Empty, xerr.New(xerr.FOAY0001, nil, "array:get index %d out of bounds", idx)
		}
		return v, nil
	}})
	r.Register(Entry{ArrayNamespace, "put", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, err := arrayArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		idx, err := intArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		out, ok := a.Put(idx, args[2])
		if !ok {
			return sequence.Empty, xerr.New(xerr.FOAY0001, nil, "array:put index %d out of bounds", idx)
		}
		return wrapArray(out), nil
	}})
	r.Register(Entry{ArrayNamespace, "append", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, err := arrayArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return wrapArray(a.Append(args[1])), nil
	}})
	r.Register(Entry{ArrayNamespace, "subarray", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, err := arrayArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		start, err := intArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		length, err := intArg(args[2])
		if err != nil {
			return sequence.Empty, err
		}
		out, ok := a.Subarray(start, length)
		if !ok {
			return sequence.Empty, xerr.New(xerr.FOAY0001, nil, "array:subarray range out of bounds")
		}
		return wrapArray(out), nil
	}})
	r.Register(Entry{ArrayNamespace, "remove", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, err := arrayArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		idx, err := intArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		out, ok := a.Remove(idx)
		if !ok {
			return sequence.Empty, xerr.New(xerr.FOAY0001, nil, "array:remove index %d out of bounds", idx)
		}
		return wrapArray(out), nil
	}})
	r.Register(Entry{ArrayNamespace, "reverse", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, err := arrayArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return wrapArray(a.Reverse()), nil
	}})
	r.Register(Entry{ArrayNamespace, "flatten", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, err := arrayArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return a.Flatten(), nil
	}})
	r.Register(Entry{ArrayNamespace, "for-each", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, err := arrayArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		fn, err := functionArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		members := a.Members()
		out := make([]sequence.Sequence, len(members))
		for i, m := range members {
			res, err := ctx.Call(fn, []sequence.Sequence{m})
			if err != nil {
				return sequence.Empty, err
			}
			out[i] = res
		}
		return wrapArray(sequence.NewArray(out)), nil
	}})
	r.Register(Entry{ArrayNamespace, "join", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		arrs := args[0].Items()
		var members []sequence.Sequence
		for _, it := range arrs {
			a, ok := it.(*sequence.Array)
			if !ok {
				return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "array:join requires a sequence of arrays")
			}
			members = append(members, a.Members()...)
		}
		return wrapArray(sequence.NewArray(members)), nil
	}})
}

func mapArg(s sequence.Sequence) (*sequence.Map, error) {
	it, err := s.One()
	if err != nil {
		return nil, err
	}
	m, ok := it.(*sequence.Map)
	if !ok {
		return nil, xerr.New(xerr.XPTY0004, nil, "expected a map, got something else")
	}
	return m, nil
}

func arrayArg(s sequence.Sequence) (*sequence.Array, error) {
	it, err := s.One()
	if err != nil {
		return nil, err
	}
	a, ok := it.(*sequence.Array)
	if !ok {
		return nil, xerr.New(xerr.XPTY0004, nil, "expected an array, got something else")
	}
	return a, nil
}

func functionArg(s sequence.Sequence) (sequence.Function, error) {
	it, err := s.One()
	if err != nil {
		return nil, err
	}
	fn, ok := it.(sequence.Function)
	if !ok {
		return nil, xerr.New(xerr.XPTY0004, nil, "expected a function item, got something else")
	}
	return fn, nil
}

func mergePolicyOf(optionsArg sequence.Sequence) (string, error) {
	if optionsArg.IsEmpty() {
		return "use-first", nil
	}
	m, err := mapArg(optionsArg)
	if err != nil {
		return "", err
	}
	v, ok := m.Get(atomic.NewString(schema.String, "duplicates"))
	if !ok {
		return "use-first", nil
	}
	s, err := atomizeOne(v)
	if err != nil {
		return "", err
	}
	return s.StringValue(), nil
}

// mapMerge implements map:merge's duplicate-key policies (§4.H): reject
// errors on any collision, use-first/use-last pick by merge order,
// use-any behaves like use-last (either is a conforming choice),
// combine concatenates the colliding values into one sequence.
func mapMerge(maps sequence.Sequence, policy string) (sequence.Sequence, error) {
	items := maps.Items()
	ms := make([]*sequence.Map, 0, len(items))
	for _, it := range items {
		m, ok := it.(*sequence.Map)
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "map:merge requires a sequence of maps")
		}
		ms = append(ms, m)
	}
	switch policy {
	case "use-first":
		return wrapMap(sequence.Merge(reverseMaps(ms))), nil
	case "use-last", "use-any":
		return wrapMap(sequence.Merge(ms)), nil
	case "reject":
		seen := map[string]bool{}
		for _, m := range ms {
			for _, k := range m.Keys() {
				sv := atomic.NewMapKey(k, 0).String()
				if seen[sv] {
					return sequence.Empty, xerr.New(xerr.FOJS0003, nil, "map:merge: duplicate key with duplicates=\"reject\"")
				}
				seen[sv] = true
			}
		}
		return wrapMap(sequence.Merge(ms)), nil
	case "combine":
		out := sequence.NewEmptyMap(0)
		for _, m := range ms {
			for _, k := range m.Keys() {
				v, _ := m.Get(k)
				if existing, ok := out.Get(k); ok {
					out = out.Put(k, sequence.Concat(existing, v))
				} else {
					out = out.Put(k, v)
				}
			}
		}
		return wrapMap(out), nil
	}
	return sequence.Empty, xerr.New(xerr.FOJS0005, nil, "map:merge: unknown duplicates policy %q", policy)
}

func reverseMaps(ms []*sequence.Map) []*sequence.Map {
	out := make([]*sequence.Map, len(ms))
	for i, m := range ms {
		out[len(ms)-1-i] = m
	}
	return out
}

func wrapMap(m *sequence.Map) sequence.Sequence     { return sequence.NewOne(m) }
func wrapArray(a *sequence.Array) sequence.Sequence { return sequence.NewOne(a) }
