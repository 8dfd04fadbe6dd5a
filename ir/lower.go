package ir

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/arborxml/xpath/ast"
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/xerr"
	"github.com/shopspring/decimal"
)

// Resolver expands a namespace prefix to a URI, consulting the static
// context's in-scope-namespaces table (§6 "Static context"). It
// returns ok=false for an unbound prefix other than the empty prefix,
// which callers resolve against DefaultElementNS/DefaultFunctionNS
// directly instead of going through Resolver.
type Resolver func(prefix string) (uri string, ok bool)

// Lowerer turns a parsed ast.Expression into an ir.Node, resolving
// every EQName's prefix to an expanded namespace URI along the way
// (§4.E: "the parser consults an immutable Namespaces table ... to
// expand every qualified name" -- done here rather than in the parser
// itself, since the parser has no static context threaded through it
// and expansion does not affect grammar shape, only name resolution).
type Lowerer struct {
	Namespaces          Resolver
	DefaultElementNS    string
	DefaultFunctionNS   string
}

// NewLowerer builds a Lowerer with the XPath-functions default function
// namespace (http://www.w3.org/2005/xpath-functions) and no default
// element namespace, matching the spec's default static context.
func NewLowerer(ns Resolver) *Lowerer {
	return &Lowerer{
		Namespaces:        ns,
		DefaultFunctionNS: "http://www.w3.org/2005/xpath-functions",
	}
}

// Lower converts expr to its IR form. It never folds constants; call
// Fold on the result separately (keeping lowering and folding as two
// passes mirrors the original's builder.rs / constant_fold.rs split).
func (lw *Lowerer) Lower(expr ast.Expression) (Node, error) {
	switch n := expr.(type) {
	case nil:
		return &SeqLiteral{}, nil
	case *ast.IntegerLiteral:
		return lw.lowerIntegerLiteral(n)
	case *ast.DecimalLiteral:
		return lw.lowerDecimalLiteral(n)
	case *ast.DoubleLiteral:
		return lw.lowerDoubleLiteral(n)
	case *ast.StringLiteral:
		return &Const{Value: atomic.NewString(schema.String, n.Value)}, nil
	case *ast.VarRef:
		return &VarRef{Name: n.Name}, nil
	case *ast.ContextItemExpr:
		return &ContextItem{}, nil
	case *ast.BinaryExpr:
		return lw.lowerBinaryExpr(n)
	case *ast.UnaryExpr:
		return lw.lowerUnaryExpr(n)
	case *ast.PathExpr:
		return lw.lowerPathExpr(n)
	case *ast.AxisStep:
		return lw.lowerAxisStep(n, nil)
	case *ast.PostfixExpr:
		return lw.lowerPostfixExpr(n)
	case *ast.ForExpr:
		return lw.lowerForExpr(n)
	case *ast.LetExpr:
		return lw.lowerLetExpr(n)
	case *ast.QuantifiedExpr:
		return lw.lowerQuantifiedExpr(n)
	case *ast.IfExpr:
		return lw.lowerIfExpr(n)
	case *ast.InstanceOfExpr:
		return lw.lowerInstanceOfExpr(n)
	case *ast.TreatAsExpr:
		return lw.lowerTreatAsExpr(n)
	case *ast.CastableAsExpr:
		return lw.lowerCastableAsExpr(n)
	case *ast.CastAsExpr:
		return lw.lowerCastAsExpr(n)
	case *ast.ArrowCall:
		return lw.lowerArrowCall(n)
	case *ast.FunctionCall:
		return lw.lowerFunctionCall(n)
	case *ast.NamedFunctionRef:
		uri := lw.resolveFunctionNS(n.Prefix)
		return &FuncRef{NamespaceURI: uri, LocalName: n.Local, Arity: n.Arity}, nil
	case *ast.InlineFunctionExpr:
		return lw.lowerInlineFunctionExpr(n)
	case *ast.MapConstructor:
		return lw.lowerMapConstructor(n)
	case *ast.SquareArrayConstructor:
		return lw.lowerSquareArrayConstructor(n)
	case *ast.CurlyArrayConstructor:
		body, err := lw.Lower(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ArrayConstructor{Square: false, Items: []Node{body}}, nil
	case *ast.UnaryLookup:
		return lw.lowerLookupOp(&ContextItem{}, n.Op)
	case *ast.SequenceExpr:
		items := make([]Node, len(n.Exprs))
		for i, e := range n.Exprs {
			lowered, err := lw.Lower(e)
			if err != nil {
				return nil, err
			}
			items[i] = lowered
		}
		return &SeqLiteral{Items: items}, nil
	case *ast.ParenExpr:
		if n.Inner == nil {
			return &SeqLiteral{}, nil
		}
		return lw.Lower(n.Inner)
	default:
		return nil, xerr.New(xerr.XPST0003, nil, "ir: no lowering rule for %T", expr)
	}
}

func (lw *Lowerer) lowerIntegerLiteral(n *ast.IntegerLiteral) (Node, error) {
	v, ok := new(big.Int).SetString(n.Value, 10)
	if !ok {
		return nil, xerr.New(xerr.XPST0003, nil, "malformed integer literal %q", n.Value)
	}
	return &Const{Value: atomic.NewInteger(schema.Integer, v)}, nil
}

func (lw *Lowerer) lowerDecimalLiteral(n *ast.DecimalLiteral) (Node, error) {
	v, err := decimal.NewFromString(n.Value)
	if err != nil {
		return nil, xerr.New(xerr.XPST0003, nil, "malformed decimal literal %q", n.Value)
	}
	return &Const{Value: atomic.NewDecimal(v)}, nil
}

func (lw *Lowerer) lowerDoubleLiteral(n *ast.DoubleLiteral) (Node, error) {
	v, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return nil, xerr.New(xerr.XPST0003, nil, "malformed double literal %q", n.Value)
	}
	return &Const{Value: atomic.NewDouble(v)}, nil
}

var binaryOps = map[string]BinaryOp{
	"+": Add, "-": Sub, "*": Mul, "div": Div, "idiv": IDiv, "mod": Mod,
	"||": Concat, "to": RangeTo,
}

var compareOps = map[string]CompareOp{
	"=": CmpGenEq, "!=": CmpGenNe, "<": CmpGenLt, "<=": CmpGenLe, ">": CmpGenGt, ">=": CmpGenGe,
	"eq": CmpEq, "ne": CmpNe, "lt": CmpLt, "le": CmpLe, "gt": CmpGt, "ge": CmpGe,
	"is": CmpIs, "<<": CmpNodeBefore, ">>": CmpNodeAfter,
}

var setOps = map[string]SetOp{
	"union": SetUnion, "|": SetUnion, "intersect": SetIntersect, "except": SetExcept,
}

func (lw *Lowerer) lowerBinaryExpr(n *ast.BinaryExpr) (Node, error) {
	left, err := lw.Lower(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := lw.Lower(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "and":
		return &Bool{Op: LogicAnd, Left: left, Right: right}, nil
	case "or":
		return &Bool{Op: LogicOr, Left: left, Right: right}, nil
	case "!":
		return &SimpleMap{Source: left, Body: right}, nil
	}
	if op, ok := setOps[n.Operator]; ok {
		return &Set{Op: op, Left: left, Right: right}, nil
	}
	if op, ok := compareOps[n.Operator]; ok {
		return &Compare{Op: op, Left: left, Right: right}, nil
	}
	if op, ok := binaryOps[n.Operator]; ok {
		return &Binary{Op: op, Left: left, Right: right}, nil
	}
	return nil, xerr.New(xerr.XPST0003, nil, "ir: unknown binary operator %q", n.Operator)
}

func (lw *Lowerer) lowerUnaryExpr(n *ast.UnaryExpr) (Node, error) {
	operand, err := lw.Lower(n.Operand)
	if err != nil {
		return nil, err
	}
	op := Plus
	if n.Operator == "-" {
		op = Minus
	}
	return &Unary{Op: op, Operand: operand}, nil
}

// descendantOrSelfStep builds the implicit descendant-or-self::node()
// step "//" abbreviates, chained onto source.
func descendantOrSelfStep(source Node) Node {
	return &Step{Axis: AxisDescendantOrSelf, Test: NodeTest{Kind: TestKind, KindName: "node"}, Source: source}
}

// lowerPathExpr flattens a PathExpr into a left-deep chain of Steps,
// each Step's Source pointing at the previous step (or nil for the
// first, meaning "the root document node" when Rooted, else "the
// dynamic context item"). A "//" separator (leading, via LeadingDS, or
// between two steps, via Separators) is not itself a step in n.Steps --
// it abbreviates an inserted descendant-or-self::node() step, which
// this lowering makes explicit in the IR so the compiler/interpreter
// never need to special-case the abbreviation.
func (lw *Lowerer) lowerPathExpr(n *ast.PathExpr) (Node, error) {
	var source Node
	if n.Rooted && n.LeadingDS {
		source = descendantOrSelfStep(nil)
	}
	for i, stepExpr := range n.Steps {
		if i > 0 && n.Separators[i-1] == "//" {
			source = descendantOrSelfStep(source)
		}
		var err error
		if axisStep, ok := stepExpr.(*ast.AxisStep); ok {
			source, err = lw.lowerAxisStep(axisStep, source)
		} else {
			// A non-AxisStep step (e.g. a parenthesised/function-call
			// PostfixExpr) supplies its own source sequence; chain it as
			// the next step's Source by evaluating it and ignoring any
			// implicit context it would otherwise pick up.
			source, err = lw.Lower(stepExpr)
		}
		if err != nil {
			return nil, err
		}
	}
	return &Path{Rooted: n.Rooted, Expr: source}, nil
}

var axisMap = map[ast.Axis]AxisKind{
	ast.AxisChild: AxisChild, ast.AxisDescendant: AxisDescendant, ast.AxisAttribute: AxisAttribute,
	ast.AxisSelf: AxisSelf, ast.AxisDescendantOrSelf: AxisDescendantOrSelf,
	ast.AxisFollowingSibling: AxisFollowingSibling, ast.AxisFollowing: AxisFollowing,
	ast.AxisNamespace: AxisNamespace, ast.AxisParent: AxisParent, ast.AxisAncestor: AxisAncestor,
	ast.AxisPrecedingSibling: AxisPrecedingSibling, ast.AxisPreceding: AxisPreceding,
	ast.AxisAncestorOrSelf: AxisAncestorOrSelf,
}

func (lw *Lowerer) lowerAxisStep(n *ast.AxisStep, source Node) (Node, error) {
	test, err := lw.lowerNodeTest(n.Test, n.Axis)
	if err != nil {
		return nil, err
	}
	preds := make([]Node, len(n.Predicates))
	for i, p := range n.Predicates {
		lowered, err := lw.Lower(p)
		if err != nil {
			return nil, err
		}
		preds[i] = lowered
	}
	return &Step{Axis: axisMap[n.Axis], Test: test, Source: source, Predicates: preds}, nil
}

func (lw *Lowerer) lowerNodeTest(nt ast.NodeTest, axis ast.Axis) (NodeTest, error) {
	switch nt.Kind {
	case ast.NameTestAny:
		return NodeTest{Kind: TestAny}, nil
	case ast.NameTestPrefixAny:
		uri, err := lw.resolveElementOrAttrNS(nt.Prefix, axis)
		if err != nil {
			return NodeTest{}, err
		}
		return NodeTest{Kind: TestPrefixAny, NamespaceURI: uri}, nil
	case ast.NameTestLocalAny:
		return NodeTest{Kind: TestLocalAny, LocalName: nt.Local}, nil
	case ast.NameTestQName:
		uri := ""
		if nt.Prefix != "" {
			var err error
			uri, err = lw.resolveElementOrAttrNS(nt.Prefix, axis)
			if err != nil {
				return NodeTest{}, err
			}
		} else if axis != ast.AxisAttribute {
			uri = lw.DefaultElementNS
		}
		return NodeTest{Kind: TestQName, NamespaceURI: uri, LocalName: nt.Local}, nil
	case ast.KindTest:
		return NodeTest{
			Kind:      TestKind,
			KindName:  nt.KindName,
			LocalName: nt.ElemOrAttr,
			TypeName:  nt.TypeName,
			Nillable:  nt.Nillable,
			PITarget:  nt.PITarget,
		}, nil
	}
	return NodeTest{}, xerr.New(xerr.XPST0003, nil, "ir: unknown node test kind %d", nt.Kind)
}

func (lw *Lowerer) resolveElementOrAttrNS(prefix string, axis ast.Axis) (string, error) {
	if lw.Namespaces == nil {
		return "", xerr.New(xerr.XPST0081, nil, "no namespace bindings available to resolve prefix %q", prefix)
	}
	uri, ok := lw.Namespaces(prefix)
	if !ok {
		return "", xerr.New(xerr.XPST0081, nil, "unresolvable namespace prefix %q", prefix)
	}
	return uri, nil
}

func (lw *Lowerer) resolveFunctionNS(prefix string) string {
	if prefix == "" {
		return lw.DefaultFunctionNS
	}
	if lw.Namespaces != nil {
		if uri, ok := lw.Namespaces(prefix); ok {
			return uri
		}
	}
	return prefix
}

// lowerPostfixExpr threads a primary expression through its suffix
// chain. A PredicateOp suffix on a non-step primary lowers to a Step
// over a synthetic "self::node()" test filtering the primary's own
// result sequence, since filtering-by-predicate is otherwise only
// defined on axis steps; this matches the grammar's own treatment of
// PostfixExpr predicates as "apply the same per-item positional
// filtering rule as an axis step's predicate list" (§4.D).
func (lw *Lowerer) lowerPostfixExpr(n *ast.PostfixExpr) (Node, error) {
	cur, err := lw.Lower(n.Primary)
	if err != nil {
		return nil, err
	}
	for _, op := range n.Ops {
		switch o := op.(type) {
		case *ast.PredicateOp:
			pred, err := lw.Lower(o.Expr)
			if err != nil {
				return nil, err
			}
			cur = &Step{Axis: AxisSelf, Test: NodeTest{Kind: TestKind, KindName: "node"}, Source: cur, Predicates: []Node{pred}}
		case *ast.ArgumentListOp:
			args, err := lw.lowerArgs(o.Args)
			if err != nil {
				return nil, err
			}
			cur = &DynamicCall{Target: cur, Args: args}
		case *ast.LookupOp:
			cur, err = lw.lowerLookupOp(cur, o)
			if err != nil {
				return nil, err
			}
		default:
			return nil, xerr.New(xerr.XPST0003, nil, "ir: unknown postfix op %T", op)
		}
	}
	return cur, nil
}

func (lw *Lowerer) lowerArgs(args []ast.Expression) ([]Node, error) {
	out := make([]Node, len(args))
	for i, a := range args {
		if a == nil {
			out[i] = nil
			continue
		}
		lowered, err := lw.Lower(a)
		if err != nil {
			return nil, err
		}
		out[i] = lowered
	}
	return out, nil
}

func (lw *Lowerer) lowerLookupOp(source Node, op *ast.LookupOp) (Node, error) {
	if op.Star {
		return &Lookup{Source: source, Key: nil}, nil
	}
	if op.KeyExpr != nil {
		key, err := lw.Lower(op.KeyExpr)
		if err != nil {
			return nil, err
		}
		return &Lookup{Source: source, Key: key}, nil
	}
	if op.Name != "" {
		return &Lookup{Source: source, Key: &Const{Value: atomic.NewString(schema.String, op.Name)}}, nil
	}
	idx, ok := new(big.Int).SetString(op.IntIndex, 10)
	if !ok {
		return nil, xerr.New(xerr.XPST0003, nil, "malformed lookup index %q", op.IntIndex)
	}
	return &Lookup{Source: source, Key: &Const{Value: atomic.NewInteger(schema.Integer, idx)}}, nil
}

func (lw *Lowerer) lowerForExpr(n *ast.ForExpr) (Node, error) {
	body, err := lw.Lower(n.Body)
	if err != nil {
		return nil, err
	}
	for i := len(n.Bindings) - 1; i >= 0; i-- {
		b := n.Bindings[i]
		src, err := lw.Lower(b.Source)
		if err != nil {
			return nil, err
		}
		body = &For{Name: b.VarName, PosName: b.PosVar, Source: src, Body: body}
	}
	return body, nil
}

func (lw *Lowerer) lowerLetExpr(n *ast.LetExpr) (Node, error) {
	body, err := lw.Lower(n.Body)
	if err != nil {
		return nil, err
	}
	for i := len(n.Bindings) - 1; i >= 0; i-- {
		b := n.Bindings[i]
		val, err := lw.Lower(b.Value)
		if err != nil {
			return nil, err
		}
		body = &Let{Name: b.VarName, Value: val, Body: body}
	}
	return body, nil
}

func (lw *Lowerer) lowerQuantifiedExpr(n *ast.QuantifiedExpr) (Node, error) {
	bindings := make([]ForBindingIR, len(n.Bindings))
	for i, b := range n.Bindings {
		src, err := lw.Lower(b.Source)
		if err != nil {
			return nil, err
		}
		bindings[i] = ForBindingIR{Name: b.VarName, Source: src}
	}
	cond, err := lw.Lower(n.Cond)
	if err != nil {
		return nil, err
	}
	return &Quantified{Every: n.Universal, Bindings: bindings, Test: cond}, nil
}

func (lw *Lowerer) lowerIfExpr(n *ast.IfExpr) (Node, error) {
	cond, err := lw.Lower(n.Cond)
	if err != nil {
		return nil, err
	}
	then, err := lw.Lower(n.Then)
	if err != nil {
		return nil, err
	}
	els, err := lw.Lower(n.Else)
	if err != nil {
		return nil, err
	}
	return &If{Cond: cond, Then: then, Else: els}, nil
}

func (lw *Lowerer) lowerSeqType(st *ast.SequenceType) SeqType {
	if st == nil || st.IsEmptySequence {
		return SeqType{Kind: SeqTypeEmptySequence}
	}
	occ := byte(0)
	if len(st.Occurrence) > 0 {
		occ = st.Occurrence[0]
	}
	it := st.ItemType
	if it == nil {
		return SeqType{Kind: SeqTypeItem, Occurrence: occ}
	}
	if it.TypeName != "" {
		return SeqType{Kind: SeqTypeAtomic, Occurrence: occ, TypeName: it.TypeName}
	}
	if it.Kind == "item" {
		return SeqType{Kind: SeqTypeItem, Occurrence: occ}
	}
	return SeqType{Kind: SeqTypeKindTest, Occurrence: occ, TypeName: it.Kind}
}

func (lw *Lowerer) lowerInstanceOfExpr(n *ast.InstanceOfExpr) (Node, error) {
	operand, err := lw.Lower(n.Expr)
	if err != nil {
		return nil, err
	}
	return &InstanceOf{Operand: operand, Type: lw.lowerSeqType(n.SeqType)}, nil
}

func (lw *Lowerer) lowerTreatAsExpr(n *ast.TreatAsExpr) (Node, error) {
	operand, err := lw.Lower(n.Expr)
	if err != nil {
		return nil, err
	}
	return &TreatAs{Operand: operand, Type: lw.lowerSeqType(n.SeqType)}, nil
}

func (lw *Lowerer) lowerCastableAsExpr(n *ast.CastableAsExpr) (Node, error) {
	operand, err := lw.Lower(n.Expr)
	if err != nil {
		return nil, err
	}
	return &CastableAs{Operand: operand, Type: SeqType{Kind: SeqTypeAtomic, TypeName: n.TypeName}, Optional: n.Optional}, nil
}

func (lw *Lowerer) lowerCastAsExpr(n *ast.CastAsExpr) (Node, error) {
	operand, err := lw.Lower(n.Expr)
	if err != nil {
		return nil, err
	}
	return &CastAs{Operand: operand, Type: SeqType{Kind: SeqTypeAtomic, TypeName: n.TypeName}, Optional: n.Optional}, nil
}

func (lw *Lowerer) lowerArrowCall(n *ast.ArrowCall) (Node, error) {
	lhs, err := lw.Lower(n.LHS)
	if err != nil {
		return nil, err
	}
	args, err := lw.lowerArgs(n.Args)
	if err != nil {
		return nil, err
	}
	allArgs := append([]Node{lhs}, args...)
	if n.TargetExpr != nil {
		target, err := lw.Lower(n.TargetExpr)
		if err != nil {
			return nil, err
		}
		return &DynamicCall{Target: target, Args: allArgs}, nil
	}
	uri := lw.resolveFunctionNS(n.Prefix)
	return &Call{NamespaceURI: uri, LocalName: n.Local, Args: allArgs}, nil
}

func (lw *Lowerer) lowerFunctionCall(n *ast.FunctionCall) (Node, error) {
	args, err := lw.lowerArgs(n.Args)
	if err != nil {
		return nil, err
	}
	uri := lw.resolveFunctionNS(n.Prefix)
	return &Call{NamespaceURI: uri, LocalName: n.Local, Args: args}, nil
}

func (lw *Lowerer) lowerInlineFunctionExpr(n *ast.InlineFunctionExpr) (Node, error) {
	body, err := lw.Lower(n.Body)
	if err != nil {
		return nil, err
	}
	params := make([]InlineParam, len(n.Params))
	bound := map[string]bool{}
	for i, p := range n.Params {
		params[i] = InlineParam{Name: p.Name}
		bound[p.Name] = true
	}
	return &InlineFunc{Params: params, Body: body, ClosureNames: freeVars(body, bound)}, nil
}

func (lw *Lowerer) lowerMapConstructor(n *ast.MapConstructor) (Node, error) {
	entries := make([]MapEntry, len(n.Entries))
	for i, e := range n.Entries {
		key, err := lw.Lower(e.Key)
		if err != nil {
			return nil, err
		}
		val, err := lw.Lower(e.Value)
		if err != nil {
			return nil, err
		}
		entries[i] = MapEntry{Key: key, Value: val}
	}
	return &MapConstructor{Entries: entries}, nil
}

func (lw *Lowerer) lowerSquareArrayConstructor(n *ast.SquareArrayConstructor) (Node, error) {
	items := make([]Node, len(n.Members))
	for i, m := range n.Members {
		lowered, err := lw.Lower(m)
		if err != nil {
			return nil, err
		}
		items[i] = lowered
	}
	return &ArrayConstructor{Square: true, Items: items}, nil
}

// freeVars walks an already-lowered body collecting VarRef names not in
// bound, used to compute an InlineFunc's closure-capture list (§4.F
// "closures"). It is a plain tree walk, not a general visitor, since IR
// nodes are few and fixed.
func freeVars(n Node, bound map[string]bool) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(Node, map[string]bool)
	walk = func(n Node, bound map[string]bool) {
		switch v := n.(type) {
		case nil:
		case *VarRef:
			if !bound[v.Name] && !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
		case *Const, *ContextItem, *FuncRef:
		case *Let:
			walk(v.Value, bound)
			inner := cloneSet(bound)
			inner[v.Name] = true
			walk(v.Body, inner)
		case *For:
			walk(v.Source, bound)
			inner := cloneSet(bound)
			inner[v.Name] = true
			if v.PosName != "" {
				inner[v.PosName] = true
			}
			walk(v.Body, inner)
		case *Quantified:
			inner := cloneSet(bound)
			for _, b := range v.Bindings {
				walk(b.Source, bound)
				inner[b.Name] = true
			}
			walk(v.Test, inner)
		case *If:
			walk(v.Cond, bound)
			walk(v.Then, bound)
			walk(v.Else, bound)
		case *Binary:
			walk(v.Left, bound)
			walk(v.Right, bound)
		case *Unary:
			walk(v.Operand, bound)
		case *Compare:
			walk(v.Left, bound)
			walk(v.Right, bound)
		case *Bool:
			walk(v.Left, bound)
			walk(v.Right, bound)
		case *Set:
			walk(v.Left, bound)
			walk(v.Right, bound)
		case *SimpleMap:
			walk(v.Source, bound)
			walk(v.Body, bound)
		case *SeqLiteral:
			for _, item := range v.Items {
				walk(item, bound)
			}
		case *Step:
			walk(v.Source, bound)
			for _, p := range v.Predicates {
				walk(p, bound)
			}
		case *Path:
			walk(v.Expr, bound)
		case *Call:
			for _, a := range v.Args {
				walk(a, bound)
			}
		case *DynamicCall:
			walk(v.Target, bound)
			for _, a := range v.Args {
				walk(a, bound)
			}
		case *InlineFunc:
			inner := cloneSet(bound)
			for _, p := range v.Params {
				inner[p.Name] = true
			}
			walk(v.Body, inner)
		case *MapConstructor:
			for _, e := range v.Entries {
				walk(e.Key, bound)
				walk(e.Value, bound)
			}
		case *ArrayConstructor:
			for _, item := range v.Items {
				walk(item, bound)
			}
		case *Lookup:
			walk(v.Source, bound)
			walk(v.Key, bound)
		case *InstanceOf:
			walk(v.Operand, bound)
		case *TreatAs:
			walk(v.Operand, bound)
		case *CastableAs:
			walk(v.Operand, bound)
		case *CastAs:
			walk(v.Operand, bound)
		default:
			panic(fmt.Sprintf("ir: freeVars: unhandled node %T", n))
		}
	}
	walk(n, bound)
	return out
}

func cloneSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
