package compiler

import (
	"fmt"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/ir"
	"github.com/arborxml/xpath/xerr"
)

func boolConstValue(b bool) atomic.Value { return atomic.NewBoolean(b) }

// funcScope tracks the compile-time local/closure slot assignments for
// one Proto being emitted. Locals are never reused across sibling
// scopes (each let/for binding gets a fresh slot and the old mapping is
// restored on scope exit), trading a slightly larger frame for a
// compiler with no slot-lifetime bookkeeping to get wrong.
type funcScope struct {
	proto    *Proto
	locals   map[string]uint16
	closures map[string]uint16
	nextSlot uint16
}

func newFuncScope(proto *Proto) *funcScope {
	fs := &funcScope{proto: proto, locals: map[string]uint16{}, closures: map[string]uint16{}}
	for i, p := range proto.Params {
		fs.locals[p] = uint16(i)
	}
	fs.nextSlot = uint16(len(proto.Params))
	for i, name := range proto.ClosureNames {
		fs.closures[name] = uint16(i)
	}
	return fs
}

func (fs *funcScope) bindLocal(name string) (slot uint16, restore func()) {
	old, had := fs.locals[name]
	slot = fs.nextSlot
	fs.nextSlot++
	fs.locals[name] = slot
	return slot, func() {
		if had {
			fs.locals[name] = old
		} else {
			delete(fs.locals, name)
		}
	}
}

// Compile lowers a complete ir.Node into a top-level Proto: a zero-
// parameter, zero-closure prototype whose body evaluates n and returns
// its value.
func Compile(n ir.Node) (*Proto, error) {
	return CompileParams(n, nil)
}

// CompileParams compiles n into a Proto taking params as positional
// parameters bound as locals, for callers (e.g. package qt3, binding
// the QT3 assertion language's `$result` to the test's actual outcome)
// that need to evaluate an expression against externally supplied
// values rather than the dynamic context's variable bindings.
func CompileParams(n ir.Node, params []string) (*Proto, error) {
	proto := &Proto{Params: params, Chunk: &Chunk{}}
	fs := newFuncScope(proto)
	if err := compileNode(fs, proto.Chunk, n); err != nil {
		return nil, err
	}
	proto.Chunk.emitOp(OpReturn)
	proto.NumLocals = int(fs.nextSlot)
	return proto, nil
}

// emitVarLoad emits the load for name, resolved against fs as either a
// local or a captured closure variable.
func emitVarLoad(fs *funcScope, ch *Chunk, name string) error {
	if slot, ok := fs.locals[name]; ok {
		ch.emitOpU16(OpLoadVar, slot)
		return nil
	}
	if slot, ok := fs.closures[name]; ok {
		ch.emitOpU16(OpLoadClosure, slot)
		return nil
	}
	return xerr.New(xerr.XPST0008, nil, "compiler: unresolved variable $%s", name)
}

// emitMakeClosure compiles body into a fresh Proto (params bound as
// locals 0..len(params)-1, closureNames captured from the enclosing
// scope fs in order) and emits the code, in ch, that loads each
// captured value then constructs the closure.
func emitMakeClosure(fs *funcScope, ch *Chunk, params []string, closureNames []string, bindsContextItem bool, body ir.Node) error {
	for _, name := range closureNames {
		if err := emitVarLoad(fs, ch, name); err != nil {
			return err
		}
	}
	proto := &Proto{Params: params, ClosureNames: closureNames, BindsContextItem: bindsContextItem, Chunk: &Chunk{}}
	childFS := newFuncScope(proto)
	if err := compileNode(childFS, proto.Chunk, body); err != nil {
		return err
	}
	proto.Chunk.emitOp(OpReturn)
	proto.NumLocals = int(childFS.nextSlot)
	idx, err := ch.addProto(proto)
	if err != nil {
		return err
	}
	ch.emitOpU16(OpMakeClosure, idx)
	return nil
}

func boundSet(names ...string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		if n != "" {
			out[n] = true
		}
	}
	return out
}

// compileNode compiles n so that, at run time, exactly one Sequence is
// pushed onto the stack.
func compileNode(fs *funcScope, ch *Chunk, n ir.Node) error {
	switch node := n.(type) {
	case *ir.Const:
		idx, err := ch.addConst(node.Value)
		if err != nil {
			return err
		}
		ch.emitOpU16(OpConst, idx)
		return nil

	case *ir.VarRef:
		return emitVarLoad(fs, ch, node.Name)

	case *ir.ContextItem:
		ch.emitOp(OpContextItem)
		return nil

	case *ir.Let:
		if err := compileNode(fs, ch, node.Value); err != nil {
			return err
		}
		slot, restore := fs.bindLocal(node.Name)
		ch.emitOpU16(OpStoreVar, slot)
		err := compileNode(fs, ch, node.Body)
		restore()
		return err

	case *ir.For:
		return compileFor(fs, ch, node)

	case *ir.Quantified:
		return compileQuantified(fs, ch, node)

	case *ir.If:
		return compileIf(fs, ch, node)

	case *ir.Binary:
		return compileBinary(fs, ch, node)

	case *ir.Unary:
		return compileUnary(fs, ch, node)

	case *ir.Compare:
		if err := compileNode(fs, ch, node.Left); err != nil {
			return err
		}
		if err := compileNode(fs, ch, node.Right); err != nil {
			return err
		}
		ch.emitOp(OpCompare)
		ch.emitU8(uint8(node.Op))
		return nil

	case *ir.Bool:
		return compileBool(fs, ch, node)

	case *ir.Set:
		if err := compileNode(fs, ch, node.Left); err != nil {
			return err
		}
		if err := compileNode(fs, ch, node.Right); err != nil {
			return err
		}
		switch node.Op {
		case ir.SetUnion:
			ch.emitOp(OpUnion)
		case ir.SetIntersect:
			ch.emitOp(OpIntersect)
		case ir.SetExcept:
			ch.emitOp(OpExcept)
		}
		return nil

	case *ir.SimpleMap:
		return compileSimpleMap(fs, ch, node)

	case *ir.SeqLiteral:
		if len(node.Items) == 0 {
			ch.emitOpU16(OpMakeSeq, 0)
			return nil
		}
		for _, item := range node.Items {
			if err := compileNode(fs, ch, item); err != nil {
				return err
			}
		}
		ch.emitOpU16(OpMakeSeq, uint16(len(node.Items)))
		return nil

	case *ir.Step:
		return compileStepChain(fs, ch, node, false)

	case *ir.Path:
		return compileStepChain(fs, ch, node.Expr, node.Rooted)

	case *ir.Call:
		return compileCall(fs, ch, node)

	case *ir.DynamicCall:
		if err := compileNode(fs, ch, node.Target); err != nil {
			return err
		}
		for _, a := range node.Args {
			if a == nil {
				return xerr.New(xerr.XPST0003, nil, "compiler: argument placeholder is not supported on a dynamic call")
			}
			if err := compileNode(fs, ch, a); err != nil {
				return err
			}
		}
		ch.emitOp(OpCallDynamic)
		ch.emitU8(uint8(len(node.Args)))
		return nil

	case *ir.FuncRef:
		return compileFuncRef(ch, node)

	case *ir.InlineFunc:
		params := make([]string, len(node.Params))
		for i, p := range node.Params {
			params[i] = p.Name
		}
		return emitMakeClosure(fs, ch, params, node.ClosureNames, false, node.Body)

	case *ir.MapConstructor:
		for _, e := range node.Entries {
			if err := compileNode(fs, ch, e.Key); err != nil {
				return err
			}
			if err := compileNode(fs, ch, e.Value); err != nil {
				return err
			}
		}
		ch.emitOpU16(OpMakeMap, uint16(len(node.Entries)))
		return nil

	case *ir.ArrayConstructor:
		if node.Square {
			for _, item := range node.Items {
				if err := compileNode(fs, ch, item); err != nil {
					return err
				}
			}
			ch.emitOpU16(OpMakeArraySquare, uint16(len(node.Items)))
			return nil
		}
		if len(node.Items) != 1 {
			return xerr.New(xerr.XPST0003, nil, "compiler: curly array constructor must wrap exactly one expression")
		}
		if err := compileNode(fs, ch, node.Items[0]); err != nil {
			return err
		}
		ch.emitOp(OpMakeArrayCurly)
		return nil

	case *ir.Lookup:
		if err := compileNode(fs, ch, node.Source); err != nil {
			return err
		}
		if node.Key == nil {
			ch.emitOp(OpLookupWildcard)
			return nil
		}
		if err := compileNode(fs, ch, node.Key); err != nil {
			return err
		}
		ch.emitOp(OpLookupKey)
		return nil

	case *ir.InstanceOf:
		if err := compileNode(fs, ch, node.Operand); err != nil {
			return err
		}
		idx, err := addSeqTypeConst(ch, node.Type)
		if err != nil {
			return err
		}
		ch.emitOpU16(OpInstanceOf, idx)
		return nil

	case *ir.TreatAs:
		if err := compileNode(fs, ch, node.Operand); err != nil {
			return err
		}
		idx, err := addSeqTypeConst(ch, node.Type)
		if err != nil {
			return err
		}
		ch.emitOpU16(OpTreatAs, idx)
		return nil

	case *ir.CastableAs:
		if err := compileNode(fs, ch, node.Operand); err != nil {
			return err
		}
		idx, err := addSeqTypeConst(ch, node.Type)
		if err != nil {
			return err
		}
		ch.emitOpU16(OpCastableAs, idx)
		ch.emitU8(boolByte(node.Optional))
		return nil

	case *ir.CastAs:
		if err := compileNode(fs, ch, node.Operand); err != nil {
			return err
		}
		idx, err := addSeqTypeConst(ch, node.Type)
		if err != nil {
			return err
		}
		ch.emitOpU16(OpCastAs, idx)
		ch.emitU8(boolByte(node.Optional))
		return nil
	}
	return fmt.Errorf("compiler: unhandled ir node %T", n)
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func compileFor(fs *funcScope, ch *Chunk, node *ir.For) error {
	params := []string{node.Name}
	if node.PosName != "" {
		params = append(params, node.PosName)
	}
	closureNames := ir.FreeVars(node.Body, boundSet(node.Name, node.PosName))
	if err := emitMakeClosure(fs, ch, params, closureNames, false, node.Body); err != nil {
		return err
	}
	if err := compileNode(fs, ch, node.Source); err != nil {
		return err
	}
	flag := uint8(0)
	if node.PosName != "" {
		flag = 1
	}
	ch.emitOpU8(OpForEach, flag)
	return nil
}

func compileQuantified(fs *funcScope, ch *Chunk, node *ir.Quantified) error {
	if len(node.Bindings) == 0 {
		return xerr.New(xerr.XPST0003, nil, "compiler: quantified expression has no bindings")
	}
	binding := node.Bindings[0]
	var body ir.Node
	if len(node.Bindings) == 1 {
		body = node.Test
	} else {
		body = &ir.Quantified{Every: node.Every, Bindings: node.Bindings[1:], Test: node.Test}
	}
	closureNames := ir.FreeVars(body, boundSet(binding.Name))
	if err := emitMakeClosure(fs, ch, []string{binding.Name}, closureNames, false, body); err != nil {
		return err
	}
	if err := compileNode(fs, ch, binding.Source); err != nil {
		return err
	}
	flag := uint8(0)
	if node.Every {
		flag = 1
	}
	ch.emitOpU8(OpQuantified, flag)
	return nil
}

func compileIf(fs *funcScope, ch *Chunk, node *ir.If) error {
	if err := compileNode(fs, ch, node.Cond); err != nil {
		return err
	}
	elsePos := ch.emitJump(OpJumpIfFalse)
	if err := compileNode(fs, ch, node.Then); err != nil {
		return err
	}
	endPos := ch.emitJump(OpJump)
	if err := ch.patchJump(elsePos); err != nil {
		return err
	}
	if err := compileNode(fs, ch, node.Else); err != nil {
		return err
	}
	return ch.patchJump(endPos)
}

func compileBool(fs *funcScope, ch *Chunk, node *ir.Bool) error {
	if err := compileNode(fs, ch, node.Left); err != nil {
		return err
	}
	var shortCircuitPos int
	if node.Op == ir.LogicAnd {
		shortCircuitPos = ch.emitJump(OpJumpIfFalse)
	} else {
		shortCircuitPos = ch.emitJump(OpJumpIfTrue)
	}
	if err := compileNode(fs, ch, node.Right); err != nil {
		return err
	}
	ch.emitOp(OpToBoolean)
	endPos := ch.emitJump(OpJump)
	if err := ch.patchJump(shortCircuitPos); err != nil {
		return err
	}
	shortCircuitValue := node.Op == ir.LogicOr
	idx, err := ch.addConst(boolConstValue(shortCircuitValue))
	if err != nil {
		return err
	}
	ch.emitOpU16(OpConst, idx)
	return ch.patchJump(endPos)
}

func compileBinary(fs *funcScope, ch *Chunk, node *ir.Binary) error {
	if err := compileNode(fs, ch, node.Left); err != nil {
		return err
	}
	if err := compileNode(fs, ch, node.Right); err != nil {
		return err
	}
	switch node.Op {
	case ir.Add:
		ch.emitOp(OpAdd)
	case ir.Sub:
		ch.emitOp(OpSub)
	case ir.Mul:
		ch.emitOp(OpMul)
	case ir.Div:
		ch.emitOp(OpDiv)
	case ir.IDiv:
		ch.emitOp(OpIDiv)
	case ir.Mod:
		ch.emitOp(OpMod)
	case ir.Concat:
		ch.emitOp(OpConcat)
	case ir.RangeTo:
		ch.emitOp(OpRange)
	default:
		return fmt.Errorf("compiler: unhandled binary op %v", node.Op)
	}
	return nil
}

func compileUnary(fs *funcScope, ch *Chunk, node *ir.Unary) error {
	if err := compileNode(fs, ch, node.Operand); err != nil {
		return err
	}
	switch node.Op {
	case ir.Plus:
		ch.emitOp(OpPos)
	case ir.Minus:
		ch.emitOp(OpNeg)
	}
	return nil
}

func compileSimpleMap(fs *funcScope, ch *Chunk, node *ir.SimpleMap) error {
	closureNames := ir.FreeVars(node.Body, boundSet())
	if err := emitMakeClosure(fs, ch, nil, closureNames, true, node.Body); err != nil {
		return err
	}
	if err := compileNode(fs, ch, node.Source); err != nil {
		return err
	}
	ch.emitOp(OpSimpleMap)
	return nil
}

// compileStepChain walks a left-deep Step.Source chain (or a single
// non-Step expression acting as the whole path) and compiles it,
// resolving the innermost step's missing Source to either the dynamic
// context item or (for a rooted path) the document root.
func compileStepChain(fs *funcScope, ch *Chunk, n ir.Node, rooted bool) error {
	if n == nil {
		// The bare "/" path: rooted with no steps at all.
		ch.emitOp(OpRoot)
		return nil
	}
	step, ok := n.(*ir.Step)
	if !ok {
		return compileNode(fs, ch, n)
	}
	if step.Source == nil {
		if rooted {
			ch.emitOp(OpRoot)
		} else {
			ch.emitOp(OpContextItem)
		}
	} else if err := compileStepChain(fs, ch, step.Source, rooted); err != nil {
		return err
	}
	idx, err := ch.addStep(StepPlan{Axis: step.Axis, Test: step.Test})
	if err != nil {
		return err
	}
	ch.emitOpU16(OpStep, idx)
	for _, pred := range step.Predicates {
		closureNames := ir.FreeVars(pred, boundSet())
		if err := emitMakeClosure(fs, ch, nil, closureNames, true, pred); err != nil {
			return err
		}
		ch.emitOp(OpFilter)
	}
	return nil
}

func hasPlaceholder(args []ir.Node) bool {
	for _, a := range args {
		if a == nil {
			return true
		}
	}
	return false
}

func compileCall(fs *funcScope, ch *Chunk, node *ir.Call) error {
	if hasPlaceholder(node.Args) {
		return compilePartialCall(fs, ch, node)
	}
	for _, a := range node.Args {
		if err := compileNode(fs, ch, a); err != nil {
			return err
		}
	}
	idx, err := ch.addCall(CallTarget{NamespaceURI: node.NamespaceURI, LocalName: node.LocalName, Arity: len(node.Args)})
	if err != nil {
		return err
	}
	ch.emitOpU16(OpCall, idx)
	ch.emitU8(uint8(len(node.Args)))
	return nil
}

// compilePartialCall desugars `f(?, 2)` into a closure of one
// parameter per placeholder that calls f with the placeholders filled
// in positionally -- XPath 3.1's argument-placeholder partial
// application (§4.E), implemented at compile time rather than as its
// own runtime concept.
func compilePartialCall(fs *funcScope, ch *Chunk, node *ir.Call) error {
	var params []string
	bodyArgs := make([]ir.Node, len(node.Args))
	for i, a := range node.Args {
		if a == nil {
			name := fmt.Sprintf("%%%d", i)
			params = append(params, name)
			bodyArgs[i] = &ir.VarRef{Name: name}
		} else {
			bodyArgs[i] = a
		}
	}
	body := &ir.Call{NamespaceURI: node.NamespaceURI, LocalName: node.LocalName, Args: bodyArgs}
	bound := boundSet(params...)
	var freeInArgs []string
	for _, a := range node.Args {
		if a != nil {
			freeInArgs = append(freeInArgs, ir.FreeVars(a, bound)...)
		}
	}
	closureNames := dedupStrings(freeInArgs)
	return emitMakeClosure(fs, ch, params, closureNames, false, body)
}

func dedupStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func compileFuncRef(ch *Chunk, node *ir.FuncRef) error {
	idx, err := ch.addCall(CallTarget{NamespaceURI: node.NamespaceURI, LocalName: node.LocalName, Arity: node.Arity})
	if err != nil {
		return err
	}
	ch.emitOpU16(OpFuncRef, idx)
	return nil
}

func addSeqTypeConst(ch *Chunk, t ir.SeqType) (uint16, error) {
	return ch.addSeqType(t)
}
