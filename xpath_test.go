package xpath

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/tree/memtree"
	"github.com/arborxml/xpath/xerr"
)

func TestEvalSimplePath(t *testing.T) {
	doc, err := memtree.Parse(strings.NewReader(`<a><b>1</b><b>2</b></a>`), "")
	require.NoError(t, err)

	result, err := Eval("a/b", doc)
	require.NoError(t, err)
	require.Equal(t, 2, result.Len())
}

func TestEvalArithmetic(t *testing.T) {
	result, err := Eval("1 + 2", nil)
	require.NoError(t, err)
	item, err := result.One()
	require.NoError(t, err)
	atomicItem, ok := item.(sequence.AtomicItem)
	require.True(t, ok, "expected an atomic item, got %T", item)
	require.Equal(t, "3", atomicItem.Value.StringValue())
}

func TestCompileAndRun(t *testing.T) {
	prog, err := Compile("2 * 3")
	require.NoError(t, err)

	it := NewInterpreter()
	result, err := Run(it, prog, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
}

func TestLongArithmeticOverflowRaisesFOAR0002(t *testing.T) {
	_, err := Eval(`(9223372036854775807 cast as xs:long) + (1 cast as xs:long)`, nil)
	require.Error(t, err)
	var xe *xerr.Error
	require.True(t, errors.As(err, &xe))
	require.Equal(t, xerr.FOAR0002, xe.Code)
}

func TestDatePlusYearMonthDurationClampsToMonthEnd(t *testing.T) {
	result, err := Eval(`("2024-01-31" cast as xs:date) + ("P1M" cast as xs:yearMonthDuration)`, nil)
	require.NoError(t, err)
	item, err := result.One()
	require.NoError(t, err)
	atomicItem, ok := item.(sequence.AtomicItem)
	require.True(t, ok, "expected an atomic item, got %T", item)
	require.Equal(t, "2024-02-29", atomicItem.Value.StringValue())
}

func TestTimePlusDayTimeDurationWraps(t *testing.T) {
	result, err := Eval(`("23:30:00" cast as xs:time) + ("PT1H" cast as xs:dayTimeDuration)`, nil)
	require.NoError(t, err)
	item, err := result.One()
	require.NoError(t, err)
	atomicItem, ok := item.(sequence.AtomicItem)
	require.True(t, ok, "expected an atomic item, got %T", item)
	require.Equal(t, "00:30:00", atomicItem.Value.StringValue())
}

func TestTokenize(t *testing.T) {
	toks := Tokenize("1 + 2")
	require.NotEmpty(t, toks)
}
