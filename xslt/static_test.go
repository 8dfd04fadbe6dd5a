package xslt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAVTLiteralAndEscapes(t *testing.T) {
	segs, err := ParseAVT("plain {{not an expr}} text")
	require.NoError(t, err)
	require.Len(t, segs, 1)
	require.Equal(t, "plain {not an expr} text", segs[0].Text)
}

func TestParseAVTEmbeddedExpression(t *testing.T) {
	segs, err := ParseAVT("prefix-{$x + 1}-suffix")
	require.NoError(t, err)
	require.Len(t, segs, 3)
	require.Equal(t, "prefix-", segs[0].Text)
	require.True(t, segs[1].IsExpr)
	require.Equal(t, "$x + 1", segs[1].Expr)
	require.Equal(t, "-suffix", segs[2].Text)
}

func TestParseAVTBraceInsideStringLiteral(t *testing.T) {
	segs, err := ParseAVT(`{concat("}", "x")}`)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	require.True(t, segs[0].IsExpr)
	require.Equal(t, `concat("}", "x")`, segs[0].Expr)
}

func TestParseAVTUnmatchedCloseBrace(t *testing.T) {
	_, err := ParseAVT("a } b")
	require.Error(t, err)
}

func TestStaticScopeShadowingAndAVT(t *testing.T) {
	scope := NewStaticScope()
	require.NoError(t, scope.Declare("base", "'/a'"))
	require.NoError(t, scope.Declare("path", "concat($base, '/b')"))
	// redeclare base, shadowing the earlier binding for any later lookup
	require.NoError(t, scope.Declare("base", "'/z'"))

	val, ok := scope.Lookup("path")
	require.True(t, ok)
	vals, err := val.Atomized()
	require.NoError(t, err)
	require.Len(t, vals, 1)
	require.Equal(t, "/a/b", vals[0].StringValue())

	segs, err := ParseAVT("href={$base}")
	require.NoError(t, err)
	out, err := scope.EvaluateAVT(segs)
	require.NoError(t, err)
	require.Equal(t, "href=/z", out)
}
