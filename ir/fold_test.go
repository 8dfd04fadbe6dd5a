package ir

import (
	"testing"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/lexer"
	"github.com/arborxml/xpath/parser"
	"github.com/stretchr/testify/require"
)

func boolConst(b bool) atomic.Value { return atomic.NewBoolean(b) }

func lowerExpr(t *testing.T, src string) Node {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "parse errors for %q", src)
	lw := NewLowerer(nil)
	n, err := lw.Lower(prog.Expr)
	require.NoError(t, err)
	return n
}

func TestFoldIntegerArithmetic(t *testing.T) {
	n := Fold(lowerExpr(t, "2 + 3 * 4"))
	c, ok := n.(*Const)
	require.True(t, ok, "expected a folded Const, got %T", n)
	require.Equal(t, "14", c.Value.StringValue())
}

func TestFoldNeverFoldsDivision(t *testing.T) {
	n := Fold(lowerExpr(t, "4 div 2"))
	_, ok := n.(*Const)
	require.False(t, ok, "division must never be folded even when both operands are constants")
	bin, ok := n.(*Binary)
	require.True(t, ok, "expected an unfolded Binary, got %T", n)
	require.Equal(t, Div, bin.Op)
}

func TestFoldNeverFoldsIdivOrMod(t *testing.T) {
	for _, src := range []string{"7 idiv 2", "7 mod 2"} {
		n := Fold(lowerExpr(t, src))
		_, ok := n.(*Const)
		require.False(t, ok, "%q must not be folded", src)
	}
}

func TestFoldUnaryMinusOnConstant(t *testing.T) {
	n := Fold(lowerExpr(t, "-5"))
	c, ok := n.(*Const)
	require.True(t, ok, "expected a folded Const, got %T", n)
	require.Equal(t, "-5", c.Value.StringValue())
}

func TestFoldStringConcat(t *testing.T) {
	n := Fold(lowerExpr(t, `"a" || "b"`))
	c, ok := n.(*Const)
	require.True(t, ok, "expected a folded Const, got %T", n)
	require.Equal(t, "ab", c.Value.StringValue())
}

// constant folding never synthesises booleans from source text on its
// own (they only arise from fn:true()/fn:false(), which folding does
// not evaluate), so this exercises the If-folding rule directly against
// a hand-built IR tree rather than through the parser/lowerer.
func TestFoldIfWithConstantCondition(t *testing.T) {
	thenBranch := &Const{}
	elseBranch := &Const{}
	foldedTrue := Fold(&If{Cond: &Const{Value: boolConst(true)}, Then: thenBranch, Else: elseBranch})
	require.Same(t, thenBranch, foldedTrue)
	foldedFalse := Fold(&If{Cond: &Const{Value: boolConst(false)}, Then: thenBranch, Else: elseBranch})
	require.Same(t, elseBranch, foldedFalse)
}
