package lexer

import (
	"testing"

	"github.com/arborxml/xpath/token"
)

func collectTypes(t *testing.T, input string) []token.Type {
	t.Helper()
	l := New(input)
	var out []token.Type
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		if tok.Type == token.COMMENT {
			continue
		}
		out = append(out, tok.Type)
	}
	return out
}

func TestSimplePath(t *testing.T) {
	types := collectTypes(t, "/a/b/c")
	want := []token.Type{token.SLASH, token.IDENT, token.SLASH, token.IDENT, token.SLASH, token.IDENT}
	if len(types) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(types), len(want), types)
	}
	for i, w := range want {
		if types[i] != w {
			t.Errorf("token %d: got %s, want %s", i, types[i], w)
		}
	}
}

func TestDescendantAxis(t *testing.T) {
	l := New("descendant::node()")
	expect := []token.Type{token.IDENT, token.COLONCOLON, token.IDENT, token.LPAREN, token.RPAREN}
	for i, want := range expect {
		tok := l.NextToken()
		if tok.Type != want {
			t.Errorf("token %d: got %s, want %s (literal %q)", i, tok.Type, want, tok.Literal)
		}
	}
}

func TestDoubleSlashAndPredicate(t *testing.T) {
	l := New("//book[@id=1]")
	expect := []struct {
		typ token.Type
		lit string
	}{
		{token.SLASHSLASH, "//"},
		{token.IDENT, "book"},
		{token.LBRACKET, "["},
		{token.AT, "@"},
		{token.IDENT, "id"},
		{token.EQ, "="},
		{token.INT, "1"},
		{token.RBRACKET, "]"},
	}
	for i, want := range expect {
		tok := l.NextToken()
		if tok.Type != want.typ || tok.Literal != want.lit {
			t.Errorf("token %d: got (%s,%q), want (%s,%q)", i, tok.Type, tok.Literal, want.typ, want.lit)
		}
	}
}

func TestStringLiteralWithEscapedQuote(t *testing.T) {
	l := New(`'it''s'`)
	tok := l.NextToken()
	if tok.Type != token.STRING || tok.Literal != "it's" {
		t.Errorf("got (%s,%q), want (STRING, \"it's\")", tok.Type, tok.Literal)
	}
}

func TestNumberForms(t *testing.T) {
	cases := []struct {
		input string
		typ   token.Type
	}{
		{"42", token.INT},
		{"3.14", token.DECIMAL},
		{"1.5e10", token.DOUBLE_LIT},
		{"1e3", token.DOUBLE_LIT},
	}
	for _, c := range cases {
		l := New(c.input)
		tok := l.NextToken()
		if tok.Type != c.typ || tok.Literal != c.input {
			t.Errorf("input %q: got (%s,%q), want (%s,%q)", c.input, tok.Type, tok.Literal, c.typ, c.input)
		}
	}
}

func TestVariableReference(t *testing.T) {
	l := New("$foo:bar")
	tok := l.NextToken()
	if tok.Type != token.VARREF || tok.Literal != "foo:bar" {
		t.Errorf("got (%s,%q), want (VARREF, \"foo:bar\")", tok.Type, tok.Literal)
	}
}

func TestNestedComment(t *testing.T) {
	l := New("(: outer (: inner :) still outer :)1")
	tok := l.NextToken()
	if tok.Type != token.COMMENT {
		t.Fatalf("expected COMMENT, got %s", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != token.INT || tok.Literal != "1" {
		t.Errorf("expected trailing INT 1, got (%s,%q)", tok.Type, tok.Literal)
	}
}

func TestArrowAndSimpleMap(t *testing.T) {
	l := New("a=>b()!c")
	expect := []token.Type{token.IDENT, token.ARROW, token.IDENT, token.LPAREN, token.RPAREN, token.BANG, token.IDENT}
	for i, want := range expect {
		tok := l.NextToken()
		if tok.Type != want {
			t.Errorf("token %d: got %s, want %s", i, tok.Type, want)
		}
	}
}

func TestComparisonOperators(t *testing.T) {
	cases := []struct {
		input string
		typ   token.Type
	}{
		{"<", token.LT}, {"<=", token.LE}, {"<<", token.LTLT},
		{">", token.GT}, {">=", token.GE}, {">>", token.GTGT},
		{"!=", token.NE}, {"=", token.EQ},
	}
	for _, c := range cases {
		l := New(c.input)
		tok := l.NextToken()
		if tok.Type != c.typ {
			t.Errorf("input %q: got %s, want %s", c.input, tok.Type, c.typ)
		}
	}
}
