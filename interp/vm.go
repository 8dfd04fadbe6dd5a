// Package interp is the bytecode virtual machine that drives a
// compiler.Proto to a result (§4.G of the spec): a stack machine with
// one value stack per activation, dispatching every compiler.OpCode,
// backed by the builtins registry for named function calls and by
// interp/axis.go for path-step evaluation.
package interp

import (
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/compiler"
	"github.com/arborxml/xpath/ir"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/tree"
	"github.com/arborxml/xpath/xerr"
)

// Eval runs the already compiled proto's top-level chunk with the given
// initial context item, returning its result sequence. hasContext
// false means the expression runs with no context item (e.g. a
// top-level query over no input document).
func (it *Interpreter) Eval(proto *compiler.Proto, contextItem sequence.Item, hasContext bool) (sequence.Sequence, error) {
	fc := focus{}
	if hasContext {
		fc.item = contextItem
		fc.hasItem = true
		fc.pos = 1
		fc.last = 1
		fc.hasSize = true
	}
	f := newFrame(proto.NumLocals, nil, fc)
	return it.run(proto.Chunk, f)
}

// CallProto runs proto with args bound positionally to its Params, no
// context item and no captured closure values -- the entry point for
// invoking a compiler.CompileParams result from outside an active
// evaluation (e.g. package qt3 binding the QT3 assertion language's
// `$result` variable to a test's actual outcome sequence).
func (it *Interpreter) CallProto(proto *compiler.Proto, args []sequence.Sequence) (sequence.Sequence, error) {
	if len(args) != len(proto.Params) {
		return sequence.Sequence{}, xerr.New(xerr.XPTY0004, nil, "proto expects %d arguments, got %d", len(proto.Params), len(args))
	}
	f := newFrame(proto.NumLocals, nil, focus{})
	copy(f.locals, args)
	return it.run(proto.Chunk, f)
}

// CallProtoWithContext is CallProto plus an initial context item,
// for callers (package qt3's test runner) whose expression both binds
// external parameters and runs against a loaded source document's
// root node as "."
func (it *Interpreter) CallProtoWithContext(proto *compiler.Proto, contextItem sequence.Item, hasContext bool, args []sequence.Sequence) (sequence.Sequence, error) {
	if len(args) != len(proto.Params) {
		return sequence.Sequence{}, xerr.New(xerr.XPTY0004, nil, "proto expects %d arguments, got %d", len(proto.Params), len(args))
	}
	fc := focus{}
	if hasContext {
		fc.item = contextItem
		fc.hasItem = true
		fc.pos = 1
		fc.last = 1
		fc.hasSize = true
	}
	f := newFrame(proto.NumLocals, nil, fc)
	copy(f.locals, args)
	return it.run(proto.Chunk, f)
}

// EvalNode compiles n and evaluates it, the convenience entry point
// the public facade (xpath.go) wires the parser/compiler pipeline
// through.
func (it *Interpreter) EvalNode(n ir.Node, contextItem sequence.Item, hasContext bool) (sequence.Sequence, error) {
	proto, err := compiler.Compile(n)
	if err != nil {
		return sequence.Sequence{}, err
	}
	return it.Eval(proto, contextItem, hasContext)
}

// run executes one chunk's instruction stream against frame f,
// returning the single sequence left on the stack by OpReturn.
func (it *Interpreter) run(ch *compiler.Chunk, f *frame) (sequence.Sequence, error) {
	var stack []sequence.Sequence
	push := func(s sequence.Sequence) { stack = append(stack, s) }
	pop := func() sequence.Sequence {
		n := len(stack) - 1
		v := stack[n]
		stack = stack[:n]
		return v
	}

	code := ch.Code
	pc := 0
	readU8 := func() uint8 {
		v := code[pc]
		pc++
		return v
	}
	readU16 := func() uint16 {
		v := uint16(code[pc])<<8 | uint16(code[pc+1])
		pc += 2
		return v
	}
	readI16 := func() int {
		return int(int16(readU16()))
	}

	for pc < len(code) {
		op := compiler.OpCode(code[pc])
		pc++

		switch op {
		case compiler.OpConst:
			idx := readU16()
			push(sequence.NewOne(sequence.Wrap(ch.Constants[idx])))

		case compiler.OpLoadVar:
			idx := readU16()
			push(f.locals[idx])

		case compiler.OpStoreVar:
			idx := readU16()
			f.locals[idx] = pop()

		case compiler.OpLoadClosure:
			idx := readU16()
			push(f.closures[idx])

		case compiler.OpContextItem:
			if !f.focus.hasItem {
				return sequence.Sequence{}, xerr.New(xerr.XPDY0002, nil, "no context item is set")
			}
			push(sequence.NewOne(f.focus.item))

		case compiler.OpPosition:
			if !f.focus.hasSize {
				return sequence.Sequence{}, xerr.New(xerr.XPDY0002, nil, "fn:position() has no context to report")
			}
			push(integerSeq(f.focus.pos))

		case compiler.OpLast:
			if !f.focus.hasSize {
				return sequence.Sequence{}, xerr.New(xerr.XPDY0002, nil, "fn:last() has no context to report")
			}
			push(integerSeq(f.focus.last))

		case compiler.OpPop:
			pop()

		case compiler.OpDup:
			push(stack[len(stack)-1])

		case compiler.OpJump:
			off := readI16()
			pc += off

		case compiler.OpJumpIfTrue:
			off := readI16()
			b, err := pop().EffectiveBooleanValue()
			if err != nil {
				return sequence.Sequence{}, err
			}
			if b {
				pc += off
			}

		case compiler.OpJumpIfFalse:
			off := readI16()
			b, err := pop().EffectiveBooleanValue()
			if err != nil {
				return sequence.Sequence{}, err
			}
			if !b {
				pc += off
			}

		case compiler.OpAdd, compiler.OpSub, compiler.OpMul, compiler.OpDiv, compiler.OpIDiv, compiler.OpMod:
			b := pop()
			a := pop()
			result, err := it.binaryArith(op, a, b)
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpNeg, compiler.OpPos:
			v := pop()
			result, err := it.unaryArith(op, v)
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpConcat:
			b := pop()
			a := pop()
			result, err := concatOp(a, b)
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpRange:
			b := pop()
			a := pop()
			result, err := rangeOp(a, b)
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpCompare:
			cop := ir.CompareOp(readU8())
			b := pop()
			a := pop()
			result, err := it.compareValues(cop, a, b)
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpUnion, compiler.OpIntersect, compiler.OpExcept:
			b := pop()
			a := pop()
			result, err := setOp(op, a, b)
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpSeqConcat:
			b := pop()
			a := pop()
			push(sequence.Concat(a, b))

		case compiler.OpToBoolean:
			b, err := pop().EffectiveBooleanValue()
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(booleanSeq(b))

		case compiler.OpMakeClosure:
			idx := readU16()
			proto := ch.Protos[idx]
			captured := make([]sequence.Sequence, len(proto.ClosureNames))
			for i := len(captured) - 1; i >= 0; i-- {
				captured[i] = pop()
			}
			push(sequence.NewOne(&Closure{proto: proto, captured: captured, ambient: f.focus}))

		case compiler.OpCall:
			idx := readU16()
			argc := int(readU8())
			args := make([]sequence.Sequence, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = pop()
			}
			target := ch.Calls[idx]
			entry, ok := it.registry.Lookup(target.NamespaceURI, target.LocalName, target.Arity)
			if !ok {
				return sequence.Sequence{}, xerr.New(xerr.XPST0017, nil, "unknown function %s#%d", target.LocalName, target.Arity)
			}
			result, err := entry.Handler(&execContext{it: it, f: f}, args)
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpCallDynamic:
			argc := int(readU8())
			args := make([]sequence.Sequence, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = pop()
			}
			targetSeq := pop()
			fnItem, err := targetSeq.One()
			if err != nil {
				return sequence.Sequence{}, err
			}
			fn, ok := fnItem.(sequence.Function)
			if !ok {
				return sequence.Sequence{}, xerr.New(xerr.XPTY0004, nil, "dynamic call target is not a function item")
			}
			result, err := it.callFunction(fn, args, nil)
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpForEach:
			flag := readU8()
			source := pop()
			closureSeq := pop()
			fn, err := asFunction(closureSeq)
			if err != nil {
				return sequence.Sequence{}, err
			}
			items := source.Items()
			var out []sequence.Item
			for i, item := range items {
				args := []sequence.Sequence{sequence.NewOne(item)}
				if flag&1 != 0 {
					args = append(args, integerSeq(i+1))
				}
				res, err := it.callFunction(fn, args, nil)
				if err != nil {
					return sequence.Sequence{}, err
				}
				out = append(out, res.Items()...)
			}
			push(sequence.NewMany(out))

		case compiler.OpSimpleMap:
			source := pop()
			closureSeq := pop()
			fn, err := asFunction(closureSeq)
			if err != nil {
				return sequence.Sequence{}, err
			}
			items := source.Items()
			n := len(items)
			var out []sequence.Item
			for i, item := range items {
				ov := focus{item: item, hasItem: true, pos: i + 1, last: n, hasSize: true}
				res, err := it.callFunction(fn, nil, &ov)
				if err != nil {
					return sequence.Sequence{}, err
				}
				out = append(out, res.Items()...)
			}
			push(sequence.NewMany(out))

		case compiler.OpQuantified:
			every := readU8() != 0
			source := pop()
			closureSeq := pop()
			fn, err := asFunction(closureSeq)
			if err != nil {
				return sequence.Sequence{}, err
			}
			result := every
			for _, item := range source.Items() {
				args := []sequence.Sequence{sequence.NewOne(item)}
				res, err := it.callFunction(fn, args, nil)
				if err != nil {
					return sequence.Sequence{}, err
				}
				b, err := res.EffectiveBooleanValue()
				if err != nil {
					return sequence.Sequence{}, err
				}
				if every && !b {
					result = false
					break
				}
				if !every && b {
					result = true
					break
				}
			}
			push(booleanSeq(result))

		case compiler.OpFilter:
			predSeq := pop()
			source := pop()
			fn, err := asFunction(predSeq)
			if err != nil {
				return sequence.Sequence{}, err
			}
			items := source.Items()
			n := len(items)
			var kept []sequence.Item
			for i, item := range items {
				ov := focus{item: item, hasItem: true, pos: i + 1, last: n, hasSize: true}
				res, err := it.callFunction(fn, nil, &ov)
				if err != nil {
					return sequence.Sequence{}, err
				}
				keep, err := predicateTruth(res, i+1)
				if err != nil {
					return sequence.Sequence{}, err
				}
				if keep {
					kept = append(kept, item)
				}
			}
			push(sequence.NewMany(kept))

		case compiler.OpStep:
			idx := readU16()
			plan := ch.Steps[idx]
			source := pop()
			var raw []tree.Node
			for _, item := range source.Items() {
				ni, ok := item.(sequence.NodeItem)
				if !ok {
					return sequence.Sequence{}, xerr.New(xerr.XPTY0004, nil, "a path step's source is not a node")
				}
				for _, n := range axisNodes(plan.Axis, ni.Node) {
					if MatchTest(plan.Axis, n, plan.Test) {
						raw = append(raw, n)
					}
				}
			}
			sorted := sequence.SortNodesInDocumentOrder(raw)
			items := make([]sequence.Item, len(sorted))
			for i, n := range sorted {
				items[i] = sequence.WrapNode(n)
			}
			push(sequence.NewMany(items))

		case compiler.OpRoot:
			if !f.focus.hasItem {
				return sequence.Sequence{}, xerr.New(xerr.XPDY0002, nil, "no context item is set")
			}
			ni, ok := f.focus.item.(sequence.NodeItem)
			if !ok {
				return sequence.Sequence{}, xerr.New(xerr.XPTY0004, nil, "a rooted path's context item is not a node")
			}
			push(sequence.NewOne(sequence.WrapNode(documentRoot(ni.Node))))

		case compiler.OpMakeSeq:
			n := int(readU16())
			parts := make([]sequence.Sequence, n)
			for i := n - 1; i >= 0; i-- {
				parts[i] = pop()
			}
			out := sequence.Empty
			for _, p := range parts {
				out = sequence.Concat(out, p)
			}
			push(out)

		case compiler.OpMakeMap:
			n := int(readU16())
			vals := make([]sequence.Sequence, 2*n)
			for i := len(vals) - 1; i >= 0; i-- {
				vals[i] = pop()
			}
			m := sequence.NewEmptyMap(it.implicitTZMinutes)
			for i := 0; i < n; i++ {
				kv, err := atomizeSingle(vals[2*i])
				if err != nil {
					return sequence.Sequence{}, err
				}
				m = m.Put(kv, vals[2*i+1])
			}
			push(sequence.NewOne(m))

		case compiler.OpMakeArraySquare:
			n := int(readU16())
			members := make([]sequence.Sequence, n)
			for i := n - 1; i >= 0; i-- {
				members[i] = pop()
			}
			push(sequence.NewOne(sequence.NewArray(members)))

		case compiler.OpMakeArrayCurly:
			source := pop()
			items := source.Items()
			members := make([]sequence.Sequence, len(items))
			for i, item := range items {
				members[i] = sequence.NewOne(item)
			}
			push(sequence.NewOne(sequence.NewArray(members)))

		case compiler.OpLookupKey:
			keySeq := pop()
			source := pop()
			result, err := lookupKey(source, keySeq)
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpLookupWildcard:
			source := pop()
			result, err := lookupWildcard(source)
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpInstanceOf:
			idx := readU16()
			v := pop()
			ok, err := instanceOf(v, ch.SeqTypes[idx])
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(booleanSeq(ok))

		case compiler.OpTreatAs:
			idx := readU16()
			v := pop()
			result, err := treatAs(v, ch.SeqTypes[idx])
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpCastableAs:
			idx := readU16()
			optional := readU8() != 0
			v := pop()
			push(booleanSeq(castableAs(v, ch.SeqTypes[idx], optional)))

		case compiler.OpCastAs:
			idx := readU16()
			optional := readU8() != 0
			v := pop()
			result, err := castAs(v, ch.SeqTypes[idx], optional)
			if err != nil {
				return sequence.Sequence{}, err
			}
			push(result)

		case compiler.OpFuncRef:
			idx := readU16()
			push(sequence.NewOne(&funcRef{target: ch.Calls[idx]}))

		case compiler.OpReturn:
			return pop(), nil

		default:
			return sequence.Sequence{}, xerr.New(xerr.FOER0000, nil, "interp: unimplemented opcode %d", op)
		}
	}
	return sequence.Empty, nil
}

func asFunction(s sequence.Sequence) (sequence.Function, error) {
	item, err := s.One()
	if err != nil {
		return nil, err
	}
	fn, ok := item.(sequence.Function)
	if !ok {
		return nil, xerr.New(xerr.XPTY0004, nil, "expected a function item")
	}
	return fn, nil
}

func setOp(op compiler.OpCode, a, b sequence.Sequence) (sequence.Sequence, error) {
	switch op {
	case compiler.OpUnion:
		return sequence.Union(a, b)
	case compiler.OpIntersect:
		return sequence.Intersect(a, b)
	default:
		return sequence.Except(a, b)
	}
}

// predicateTruth applies the XPath predicate-truth rule (§4.D): a
// singleton numeric result is compared against the 1-based position;
// anything else is coerced via effective boolean value.
func predicateTruth(res sequence.Sequence, position int) (bool, error) {
	if res.Len() == 1 {
		if av, ok := res.Get(0).(sequence.AtomicItem); ok && av.Value.Type().BaseNumericType() != schema.NotNumeric {
			ord, err := atomic.Compare(av.Value, atomic.NewIntegerFromInt64(schema.Integer, int64(position)), nil, 0)
			if err != nil {
				return false, err
			}
			return ord == atomic.Equal, nil
		}
	}
	return res.EffectiveBooleanValue()
}

func lookupKey(source, keySeq sequence.Sequence) (sequence.Sequence, error) {
	var out []sequence.Item
	for _, item := range source.Items() {
		switch v := item.(type) {
		case *sequence.Map:
			kv, err := atomizeSingle(keySeq)
			if err != nil {
				return sequence.Sequence{}, err
			}
			if val, ok := v.Get(kv); ok {
				out = append(out, val.Items()...)
			}
		case *sequence.Array:
			idx, err := arrayIndex(keySeq)
			if err != nil {
				return sequence.Sequence{}, err
			}
			val, ok := v.Get(idx)
			if !ok {
				return sequence.Sequence{}, xerr.New(xerr.FOAY0001, nil, "array index %d out of bounds", idx)
			}
			out = append(out, val.Items()...)
		default:
			return sequence.Sequence{}, xerr.New(xerr.XPTY0004, nil, "lookup source is not a map or array")
		}
	}
	return sequence.NewMany(out), nil
}

func lookupWildcard(source sequence.Sequence) (sequence.Sequence, error) {
	var out []sequence.Item
	for _, item := range source.Items() {
		switch v := item.(type) {
		case *sequence.Map:
			err := v.ForEach(func(_ atomic.Value, val sequence.Sequence) error {
				out = append(out, val.Items()...)
				return nil
			})
			if err != nil {
				return sequence.Sequence{}, err
			}
		case *sequence.Array:
			for _, m := range v.Members() {
				out = append(out, m.Items()...)
			}
		default:
			return sequence.Sequence{}, xerr.New(xerr.XPTY0004, nil, "lookup source is not a map or array")
		}
	}
	return sequence.NewMany(out), nil
}

func arrayIndex(keySeq sequence.Sequence) (int, error) {
	kv, err := atomizeSingle(keySeq)
	if err != nil {
		return 0, err
	}
	iv, err := atomic.CastTo(kv, schema.Integer)
	if err != nil {
		return 0, err
	}
	return int(iv.(atomic.Integer).Val.Int64()), nil
}

// binaryArith dispatches the six arithmetic operators. idiv/mod are
// numeric-only per the spec (durations have no idiv/mod), so they call
// atomic.IntegerDivide/Mod directly rather than through the
// duration-aware add/subtract/multiply/divide helpers.
func (it *Interpreter) binaryArith(op compiler.OpCode, a, b sequence.Sequence) (sequence.Sequence, error) {
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
	var result atomic.Value
	switch op {
	case compiler.OpAdd:
		result, err = it.addValues(av, bv)
	case compiler.OpSub:
		result, err = it.subtractValues(av, bv)
	case compiler.OpMul:
		result, err = multiplyValues(av, bv)
	case compiler.OpDiv:
		result, err = divideValues(av, bv)
	case compiler.OpIDiv:
		result, err = atomic.IntegerDivide(av, bv)
	case compiler.OpMod:
		result, err = atomic.Mod(av, bv)
	}
	if err != nil {
		return sequence.Sequence{}, err
	}
	return sequence.NewOne(sequence.Wrap(result)), nil
}

func (it *Interpreter) unaryArith(op compiler.OpCode, s sequence.Sequence) (sequence.Sequence, error) {
	if s.IsEmpty() {
		return sequence.Empty, nil
	}
	v, err := atomizeSingle(s)
	if err != nil {
		return sequence.Sequence{}, err
	}
	result, err := unaryValue(op == compiler.OpNeg, v)
	if err != nil {
		return sequence.Sequence{}, err
	}
	return sequence.NewOne(sequence.Wrap(result)), nil
}

// callFunction dispatches a dynamic call across every kind of function
// item: a compiled Closure, a named funcRef resolved against the
// registry, or a Map/Array used as a one-argument function (§4.E
// "function items"). override, when non-nil, supplies the focus a
// simple-map/filter-predicate Closure runs with, overriding its
// captured ambient focus; every other call path leaves it nil.
func (it *Interpreter) callFunction(fn sequence.Function, args []sequence.Sequence, override *focus) (sequence.Sequence, error) {
	switch v := fn.(type) {
	case *Closure:
		return it.invokeClosure(v, args, override)
	case *funcRef:
		entry, ok := it.registry.Lookup(v.target.NamespaceURI, v.target.LocalName, v.target.Arity)
		if !ok {
			return sequence.Sequence{}, xerr.New(xerr.XPST0017, nil, "unknown function %s#%d", v.target.LocalName, v.target.Arity)
		}
		return entry.Handler(&execContext{it: it}, args)
	case *sequence.Map:
		if len(args) != 1 {
			return sequence.Sequence{}, xerr.New(xerr.XPTY0004, nil, "a map used as a function takes exactly one argument")
		}
		kv, err := atomizeSingle(args[0])
		if err != nil {
			return sequence.Sequence{}, err
		}
		val, ok := v.Get(kv)
		if !ok {
			return sequence.Empty, nil
		}
		return val, nil
	case *sequence.Array:
		if len(args) != 1 {
			return sequence.Sequence{}, xerr.New(xerr.XPTY0004, nil, "an array used as a function takes exactly one argument")
		}
		idx, err := arrayIndex(args[0])
		if err != nil {
			return sequence.Sequence{}, err
		}
		val, ok := v.Get(idx)
		if !ok {
			return sequence.Sequence{}, xerr.New(xerr.FOAY0001, nil, "array index %d out of bounds", idx)
		}
		return val, nil
	}
	return sequence.Sequence{}, xerr.New(xerr.XPTY0004, nil, "value is not callable")
}

// invokeClosure builds a fresh frame for c's prototype. A closure that
// binds its own context item (a path predicate or simple-map body)
// requires override to be supplied by the caller (OpFilter/OpSimpleMap);
// one that does not (for/quantified bodies, inline functions) inherits
// the ambient focus captured when the closure was built.
func (it *Interpreter) invokeClosure(c *Closure, args []sequence.Sequence, override *focus) (sequence.Sequence, error) {
	if len(args) != len(c.proto.Params) {
		return sequence.Sequence{}, xerr.New(xerr.XPTY0004, nil, "function expects %d arguments, got %d", len(c.proto.Params), len(args))
	}
	fc := c.ambient
	if c.proto.BindsContextItem {
		if override == nil {
			return sequence.Sequence{}, xerr.New(xerr.FOER0000, nil, "internal: closure requires a bound context item but none was supplied")
		}
		fc = *override
	}
	nf := newFrame(c.proto.NumLocals, c.captured, fc)
	copy(nf.locals, args)
	return it.run(c.proto.Chunk, nf)
}
