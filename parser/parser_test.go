package parser

import (
	"testing"

	"github.com/arborxml/xpath/ast"
	"github.com/arborxml/xpath/lexer"
)

func parseOK(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input))
	prog := p.ParseProgram()
	checkParserErrors(t, p)
	return prog
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errs := p.Errors()
	if len(errs) == 0 {
		return
	}
	for _, e := range errs {
		t.Errorf("parser error: %s", e)
	}
	t.FailNow()
}

func TestIntegerLiteral(t *testing.T) {
	prog := parseOK(t, "42")
	lit, ok := prog.Expr.(*ast.IntegerLiteral)
	if !ok {
		t.Fatalf("expected *ast.IntegerLiteral, got %T", prog.Expr)
	}
	if lit.Value != "42" {
		t.Errorf("got %q, want 42", lit.Value)
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	prog := parseOK(t, "1 + 2 * 3")
	if got, want := prog.Expr.String(), "(1 + (2 * 3))"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestComparisonAndBooleanPrecedence(t *testing.T) {
	prog := parseOK(t, "$a = 1 and $b = 2 or $c = 3")
	want := "((($a = 1) and ($b = 2)) or ($c = 3))"
	if got := prog.Expr.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGeneralVsValueComparison(t *testing.T) {
	prog := parseOK(t, "$x eq $y")
	bin, ok := prog.Expr.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected *ast.BinaryExpr, got %T", prog.Expr)
	}
	if bin.Operator != "eq" {
		t.Errorf("got operator %q, want eq", bin.Operator)
	}
}

func TestRangeExpr(t *testing.T) {
	prog := parseOK(t, "1 to 10")
	if got, want := prog.Expr.String(), "(1 to 10)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStringConcat(t *testing.T) {
	prog := parseOK(t, `"a" || "b" || "c"`)
	if got, want := prog.Expr.String(), `(("a" || "b") || "c")`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSimpleChildPath(t *testing.T) {
	prog := parseOK(t, "a/b/c")
	path, ok := prog.Expr.(*ast.PathExpr)
	if !ok {
		t.Fatalf("expected *ast.PathExpr, got %T", prog.Expr)
	}
	if len(path.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(path.Steps))
	}
	if got, want := path.String(), "child::a/child::b/child::c"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRootedPath(t *testing.T) {
	prog := parseOK(t, "/a/b")
	path := prog.Expr.(*ast.PathExpr)
	if !path.Rooted || path.LeadingDS {
		t.Fatalf("expected rooted non-// path, got %+v", path)
	}
}

func TestLeadingDoubleSlash(t *testing.T) {
	prog := parseOK(t, "//a")
	path := prog.Expr.(*ast.PathExpr)
	if !path.Rooted || !path.LeadingDS {
		t.Fatalf("expected rooted // path, got %+v", path)
	}
	if len(path.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(path.Steps))
	}
}

func TestLoneSlashIsRootPath(t *testing.T) {
	prog := parseOK(t, "/")
	path, ok := prog.Expr.(*ast.PathExpr)
	if !ok {
		t.Fatalf("expected *ast.PathExpr, got %T", prog.Expr)
	}
	if !path.Rooted || len(path.Steps) != 0 {
		t.Fatalf("expected bare rooted path with no steps, got %+v", path)
	}
}

func TestAttributeAbbreviation(t *testing.T) {
	prog := parseOK(t, "@id")
	step, ok := prog.Expr.(*ast.AxisStep)
	if !ok {
		t.Fatalf("expected *ast.AxisStep, got %T", prog.Expr)
	}
	if step.Axis != ast.AxisAttribute {
		t.Errorf("got axis %s, want attribute", step.Axis)
	}
	if step.Test.Local != "id" {
		t.Errorf("got test local %q, want id", step.Test.Local)
	}
}

func TestExplicitAxis(t *testing.T) {
	prog := parseOK(t, "descendant::node()")
	step := prog.Expr.(*ast.AxisStep)
	if step.Axis != ast.AxisDescendant {
		t.Errorf("got axis %s, want descendant", step.Axis)
	}
	if step.Test.Kind != ast.KindTest || step.Test.KindName != "node" {
		t.Errorf("got test %+v, want node() kind test", step.Test)
	}
}

func TestParentAbbreviation(t *testing.T) {
	prog := parseOK(t, "..")
	step := prog.Expr.(*ast.AxisStep)
	if step.Axis != ast.AxisParent {
		t.Errorf("got axis %s, want parent", step.Axis)
	}
}

func TestWildcardNameTests(t *testing.T) {
	tests := []struct {
		input string
		kind  ast.NodeTestKind
	}{
		{"*", ast.NameTestAny},
		{"xhtml:*", ast.NameTestPrefixAny},
		{"*:title", ast.NameTestLocalAny},
	}
	for _, tt := range tests {
		prog := parseOK(t, tt.input)
		step := prog.Expr.(*ast.AxisStep)
		if step.Test.Kind != tt.kind {
			t.Errorf("%s: got kind %v, want %v", tt.input, step.Test.Kind, tt.kind)
		}
	}
}

func TestPredicateOnStep(t *testing.T) {
	prog := parseOK(t, "item[position() = 1]")
	step := prog.Expr.(*ast.AxisStep)
	if len(step.Predicates) != 1 {
		t.Fatalf("expected 1 predicate, got %d", len(step.Predicates))
	}
}

func TestKindTestElementWithType(t *testing.T) {
	prog := parseOK(t, "element(price, xs:decimal)")
	step := prog.Expr.(*ast.AxisStep)
	if step.Test.ElemOrAttr != "price" || step.Test.TypeName != "xs:decimal" {
		t.Errorf("got test %+v", step.Test)
	}
}

func TestFunctionCall(t *testing.T) {
	prog := parseOK(t, `concat("a", "b")`)
	call, ok := prog.Expr.(*ast.FunctionCall)
	if !ok {
		t.Fatalf("expected *ast.FunctionCall, got %T", prog.Expr)
	}
	if call.Local != "concat" || len(call.Args) != 2 {
		t.Errorf("got %+v", call)
	}
}

func TestNamedFunctionRef(t *testing.T) {
	prog := parseOK(t, "fn:abs#1")
	ref, ok := prog.Expr.(*ast.NamedFunctionRef)
	if !ok {
		t.Fatalf("expected *ast.NamedFunctionRef, got %T", prog.Expr)
	}
	if ref.Prefix != "fn" || ref.Local != "abs" || ref.Arity != 1 {
		t.Errorf("got %+v", ref)
	}
}

func TestPartialFunctionApplication(t *testing.T) {
	prog := parseOK(t, "substring(?, 1, 3)")
	call := prog.Expr.(*ast.FunctionCall)
	if len(call.Args) != 3 || call.Args[0] != nil {
		t.Errorf("got %+v, want first arg nil placeholder", call)
	}
}

func TestMapConstructor(t *testing.T) {
	prog := parseOK(t, `map{"a": 1, "b": 2}`)
	m, ok := prog.Expr.(*ast.MapConstructor)
	if !ok {
		t.Fatalf("expected *ast.MapConstructor, got %T", prog.Expr)
	}
	if len(m.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m.Entries))
	}
}

func TestSquareArrayConstructor(t *testing.T) {
	prog := parseOK(t, "[1, 2, 3]")
	arr, ok := prog.Expr.(*ast.SquareArrayConstructor)
	if !ok {
		t.Fatalf("expected *ast.SquareArrayConstructor, got %T", prog.Expr)
	}
	if len(arr.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(arr.Members))
	}
}

func TestCurlyArrayConstructor(t *testing.T) {
	prog := parseOK(t, "array{1 to 3}")
	arr, ok := prog.Expr.(*ast.CurlyArrayConstructor)
	if !ok {
		t.Fatalf("expected *ast.CurlyArrayConstructor, got %T", prog.Expr)
	}
	if arr.Expr == nil {
		t.Fatal("expected non-nil inner expr")
	}
}

func TestLookupOnVariable(t *testing.T) {
	prog := parseOK(t, "$m?key")
	post, ok := prog.Expr.(*ast.PostfixExpr)
	if !ok {
		t.Fatalf("expected *ast.PostfixExpr, got %T", prog.Expr)
	}
	if len(post.Ops) != 1 {
		t.Fatalf("expected 1 op, got %d", len(post.Ops))
	}
	lookup, ok := post.Ops[0].(*ast.LookupOp)
	if !ok || lookup.Name != "key" {
		t.Errorf("got %+v", post.Ops[0])
	}
}

func TestUnaryLookup(t *testing.T) {
	prog := parseOK(t, "?*")
	lookup, ok := prog.Expr.(*ast.UnaryLookup)
	if !ok || !lookup.Op.Star {
		t.Fatalf("expected unary *-lookup, got %T %+v", prog.Expr, prog.Expr)
	}
}

func TestInlineFunctionExpr(t *testing.T) {
	prog := parseOK(t, "function($x as xs:integer) as xs:integer { $x + 1 }")
	fn, ok := prog.Expr.(*ast.InlineFunctionExpr)
	if !ok {
		t.Fatalf("expected *ast.InlineFunctionExpr, got %T", prog.Expr)
	}
	if len(fn.Params) != 1 || fn.Params[0].Name != "x" {
		t.Errorf("got params %+v", fn.Params)
	}
	if fn.ReturnType == nil {
		t.Error("expected a return type")
	}
}

func TestArrowExpr(t *testing.T) {
	prog := parseOK(t, `$seq => reverse() => count()`)
	outer, ok := prog.Expr.(*ast.ArrowCall)
	if !ok {
		t.Fatalf("expected *ast.ArrowCall, got %T", prog.Expr)
	}
	if outer.Local != "count" {
		t.Errorf("got outer local %q, want count", outer.Local)
	}
	inner, ok := outer.LHS.(*ast.ArrowCall)
	if !ok || inner.Local != "reverse" {
		t.Fatalf("expected inner arrow call to reverse, got %+v", outer.LHS)
	}
}

func TestSimpleMapOperator(t *testing.T) {
	prog := parseOK(t, "(1, 2, 3) ! (. * 2)")
	bin, ok := prog.Expr.(*ast.BinaryExpr)
	if !ok || bin.Operator != "!" {
		t.Fatalf("expected '!' binary expr, got %T", prog.Expr)
	}
}

func TestForExpr(t *testing.T) {
	prog := parseOK(t, "for $x in (1, 2, 3) return $x * 2")
	fe, ok := prog.Expr.(*ast.ForExpr)
	if !ok {
		t.Fatalf("expected *ast.ForExpr, got %T", prog.Expr)
	}
	if len(fe.Bindings) != 1 || fe.Bindings[0].VarName != "x" {
		t.Errorf("got bindings %+v", fe.Bindings)
	}
}

func TestForExprWithPositionalVariable(t *testing.T) {
	prog := parseOK(t, "for $x at $i in (10, 20) return $i")
	fe := prog.Expr.(*ast.ForExpr)
	if fe.Bindings[0].PosVar != "i" {
		t.Errorf("got PosVar %q, want i", fe.Bindings[0].PosVar)
	}
}

func TestLetExpr(t *testing.T) {
	prog := parseOK(t, "let $x := 1, $y := 2 return $x + $y")
	le, ok := prog.Expr.(*ast.LetExpr)
	if !ok {
		t.Fatalf("expected *ast.LetExpr, got %T", prog.Expr)
	}
	if len(le.Bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(le.Bindings))
	}
}

func TestQuantifiedExprSome(t *testing.T) {
	prog := parseOK(t, "some $x in (1, 2, 3) satisfies $x > 2")
	qe, ok := prog.Expr.(*ast.QuantifiedExpr)
	if !ok {
		t.Fatalf("expected *ast.QuantifiedExpr, got %T", prog.Expr)
	}
	if qe.Universal {
		t.Error("expected Universal=false for 'some'")
	}
}

func TestQuantifiedExprEvery(t *testing.T) {
	prog := parseOK(t, "every $x in (1, 2) satisfies $x > 0")
	qe := prog.Expr.(*ast.QuantifiedExpr)
	if !qe.Universal {
		t.Error("expected Universal=true for 'every'")
	}
}

func TestIfExpr(t *testing.T) {
	prog := parseOK(t, "if ($x > 0) then 1 else -1")
	ie, ok := prog.Expr.(*ast.IfExpr)
	if !ok {
		t.Fatalf("expected *ast.IfExpr, got %T", prog.Expr)
	}
	if ie.Cond == nil || ie.Then == nil || ie.Else == nil {
		t.Errorf("incomplete if expr: %+v", ie)
	}
}

func TestInstanceOfExpr(t *testing.T) {
	prog := parseOK(t, "$x instance of xs:integer*")
	io, ok := prog.Expr.(*ast.InstanceOfExpr)
	if !ok {
		t.Fatalf("expected *ast.InstanceOfExpr, got %T", prog.Expr)
	}
	if io.SeqType.Occurrence != "*" {
		t.Errorf("got occurrence %q, want *", io.SeqType.Occurrence)
	}
}

func TestCastAsExpr(t *testing.T) {
	prog := parseOK(t, `"42" cast as xs:integer`)
	ca, ok := prog.Expr.(*ast.CastAsExpr)
	if !ok {
		t.Fatalf("expected *ast.CastAsExpr, got %T", prog.Expr)
	}
	if ca.TypeName != "xs:integer" {
		t.Errorf("got type name %q", ca.TypeName)
	}
}

func TestCastableAsExprOptional(t *testing.T) {
	prog := parseOK(t, `"x" castable as xs:integer?`)
	ca, ok := prog.Expr.(*ast.CastableAsExpr)
	if !ok {
		t.Fatalf("expected *ast.CastableAsExpr, got %T", prog.Expr)
	}
	if !ca.Optional {
		t.Error("expected Optional=true")
	}
}

func TestSequenceExpr(t *testing.T) {
	prog := parseOK(t, "1, 2, 3")
	seq, ok := prog.Expr.(*ast.SequenceExpr)
	if !ok {
		t.Fatalf("expected *ast.SequenceExpr, got %T", prog.Expr)
	}
	if len(seq.Exprs) != 3 {
		t.Fatalf("expected 3 exprs, got %d", len(seq.Exprs))
	}
}

func TestEmptyParens(t *testing.T) {
	prog := parseOK(t, "()")
	paren, ok := prog.Expr.(*ast.ParenExpr)
	if !ok || paren.Inner != nil {
		t.Fatalf("expected empty *ast.ParenExpr, got %+v", prog.Expr)
	}
}

func TestUnionAndIntersectOperators(t *testing.T) {
	prog := parseOK(t, "a union b intersect c except d")
	if got := prog.Expr.String(); got == "" {
		t.Fatal("expected non-empty string")
	}
}

func TestPathWithPredicateAndFunctionCallStep(t *testing.T) {
	prog := parseOK(t, "items/item[1]/name()")
	path, ok := prog.Expr.(*ast.PathExpr)
	if !ok {
		t.Fatalf("expected *ast.PathExpr, got %T", prog.Expr)
	}
	if len(path.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(path.Steps))
	}
	if _, ok := path.Steps[2].(*ast.FunctionCall); !ok {
		t.Errorf("expected last step to be a function call, got %T", path.Steps[2])
	}
}

func TestSyntaxErrorIsReported(t *testing.T) {
	p := New(lexer.New("1 +"))
	p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatal("expected at least one parser error for incomplete expression")
	}
}
