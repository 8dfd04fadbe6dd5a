package ir

import (
	"testing"

	"github.com/arborxml/xpath/ast"
	"github.com/arborxml/xpath/lexer"
	"github.com/arborxml/xpath/parser"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) ast.Expression {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "parse errors for %q", src)
	return prog.Expr
}

func TestLowerSimplePath(t *testing.T) {
	n := lowerExpr(t, "a/b")
	path, ok := n.(*Path)
	require.True(t, ok, "expected *Path, got %T", n)
	require.False(t, path.Rooted)
	outer, ok := path.Expr.(*Step)
	require.True(t, ok, "expected outer *Step, got %T", path.Expr)
	require.Equal(t, TestQName, outer.Test.Kind)
	require.Equal(t, "b", outer.Test.LocalName)
	inner, ok := outer.Source.(*Step)
	require.True(t, ok, "expected inner *Step, got %T", outer.Source)
	require.Equal(t, "a", inner.Test.LocalName)
	require.Nil(t, inner.Source)
}

func TestLowerRootedPath(t *testing.T) {
	n := lowerExpr(t, "/a")
	path, ok := n.(*Path)
	require.True(t, ok)
	require.True(t, path.Rooted)
}

func TestLowerPredicate(t *testing.T) {
	n := lowerExpr(t, "a[1]")
	step, ok := n.(*Step)
	require.True(t, ok, "expected *Step, got %T", n)
	require.Len(t, step.Predicates, 1)
	_, ok = step.Predicates[0].(*Const)
	require.True(t, ok)
}

func TestLowerLetExpr(t *testing.T) {
	n := lowerExpr(t, "let $x := 1 return $x")
	let, ok := n.(*Let)
	require.True(t, ok, "expected *Let, got %T", n)
	require.Equal(t, "x", let.Name)
	ref, ok := let.Body.(*VarRef)
	require.True(t, ok)
	require.Equal(t, "x", ref.Name)
}

func TestLowerForExpr(t *testing.T) {
	n := lowerExpr(t, "for $x in (1, 2) return $x")
	f, ok := n.(*For)
	require.True(t, ok, "expected *For, got %T", n)
	require.Equal(t, "x", f.Name)
	require.Empty(t, f.PosName)
}

func TestLowerIfExpr(t *testing.T) {
	n := lowerExpr(t, "if (1) then 2 else 3")
	ifNode, ok := n.(*If)
	require.True(t, ok, "expected *If, got %T", n)
	require.NotNil(t, ifNode.Cond)
	require.NotNil(t, ifNode.Then)
	require.NotNil(t, ifNode.Else)
}

func TestLowerFunctionCallDefaultsToFnNamespace(t *testing.T) {
	n := lowerExpr(t, "count(1, 2)")
	call, ok := n.(*Call)
	require.True(t, ok, "expected *Call, got %T", n)
	require.Equal(t, "http://www.w3.org/2005/xpath-functions", call.NamespaceURI)
	require.Equal(t, "count", call.LocalName)
	require.Len(t, call.Args, 2)
}

func TestLowerArrowCallPrependsLHS(t *testing.T) {
	n := lowerExpr(t, "'a' => upper-case()")
	call, ok := n.(*Call)
	require.True(t, ok, "expected *Call, got %T", n)
	require.Equal(t, "upper-case", call.LocalName)
	require.Len(t, call.Args, 1)
	_, ok = call.Args[0].(*Const)
	require.True(t, ok, "expected the arrow LHS to become the first argument")
}

func TestLowerInlineFunctionCapturesFreeVariable(t *testing.T) {
	n := lowerExpr(t, "let $n := 1 return function($x) { $x + $n }")
	let, ok := n.(*Let)
	require.True(t, ok)
	fn, ok := let.Body.(*InlineFunc)
	require.True(t, ok, "expected *InlineFunc, got %T", let.Body)
	require.Equal(t, []string{"n"}, fn.ClosureNames)
}

func TestLowerMapConstructor(t *testing.T) {
	n := lowerExpr(t, `map{"a": 1, "b": 2}`)
	m, ok := n.(*MapConstructor)
	require.True(t, ok, "expected *MapConstructor, got %T", n)
	require.Len(t, m.Entries, 2)
}

func TestLowerSquareArrayConstructor(t *testing.T) {
	n := lowerExpr(t, "[1, 2, 3]")
	arr, ok := n.(*ArrayConstructor)
	require.True(t, ok, "expected *ArrayConstructor, got %T", n)
	require.True(t, arr.Square)
	require.Len(t, arr.Items, 3)
}

func TestLowerSimpleMapOperator(t *testing.T) {
	n := lowerExpr(t, "(1, 2) ! (. + 1)")
	sm, ok := n.(*SimpleMap)
	require.True(t, ok, "expected *SimpleMap, got %T", n)
	require.NotNil(t, sm.Source)
	require.NotNil(t, sm.Body)
}

func TestLowerUnionOperator(t *testing.T) {
	n := lowerExpr(t, "a union b")
	set, ok := n.(*Set)
	require.True(t, ok, "expected *Set, got %T", n)
	require.Equal(t, SetUnion, set.Op)
}

func TestLowerValueVsGeneralComparison(t *testing.T) {
	valueCmp, ok := lowerExpr(t, "1 eq 2").(*Compare)
	require.True(t, ok)
	require.Equal(t, CmpEq, valueCmp.Op)

	generalCmp, ok := lowerExpr(t, "1 = 2").(*Compare)
	require.True(t, ok)
	require.Equal(t, CmpGenEq, generalCmp.Op)
}

func TestLowerUnresolvablePrefixFails(t *testing.T) {
	lw := NewLowerer(func(string) (string, bool) { return "", false })
	_, err := lw.Lower(mustParse(t, "foo:bar"))
	require.Error(t, err)
}
