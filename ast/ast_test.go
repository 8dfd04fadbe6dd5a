package ast

import (
	"testing"

	"github.com/arborxml/xpath/token"
)

func TestBinaryExprString(t *testing.T) {
	expr := &BinaryExpr{
		Operator: "+",
		Left:     &IntegerLiteral{Value: "1"},
		Right:    &IntegerLiteral{Value: "2"},
	}
	if got, want := expr.String(), "(1 + 2)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPathExprString(t *testing.T) {
	p := &PathExpr{
		Rooted: true,
		Steps: []Expression{
			&AxisStep{Axis: AxisChild, Test: NodeTest{Kind: NameTestQName, Local: "a"}},
			&AxisStep{Axis: AxisChild, Test: NodeTest{Kind: NameTestQName, Local: "b"}},
		},
		Separators: []string{"/"},
	}
	if got, want := p.String(), "/child::a/child::b"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAxisStepWithPredicate(t *testing.T) {
	step := &AxisStep{
		Axis: AxisDescendant,
		Test: NodeTest{Kind: NameTestAny},
		Predicates: []Expression{
			&IntegerLiteral{Value: "1"},
		},
	}
	if got, want := step.String(), "descendant::*[1]"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestForExprString(t *testing.T) {
	f := &ForExpr{
		Bindings: []ForBinding{
			{VarName: "x", Source: &IntegerLiteral{Value: "1"}},
		},
		Body: &VarRef{Name: "x"},
	}
	if got, want := f.String(), "for $x in 1 return $x"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIfExprString(t *testing.T) {
	e := &IfExpr{
		Cond: &VarRef{Name: "c"},
		Then: &IntegerLiteral{Value: "1"},
		Else: &IntegerLiteral{Value: "2"},
	}
	if got, want := e.String(), "if ($c) then 1 else 2"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMapConstructorString(t *testing.T) {
	m := &MapConstructor{
		Entries: []MapConstructorEntry{
			{Key: &StringLiteral{Value: "a"}, Value: &IntegerLiteral{Value: "1"}},
		},
	}
	if got, want := m.String(), `map{"a": 1}`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInstanceOfString(t *testing.T) {
	e := &InstanceOfExpr{
		Expr:    &VarRef{Name: "x"},
		SeqType: &SequenceType{ItemType: &ItemTypeNode{TypeName: "xs:integer"}, Occurrence: "*"},
	}
	if got, want := e.String(), "($x instance of xs:integer*)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPostfixExprWithLookup(t *testing.T) {
	p := &PostfixExpr{
		Primary: &VarRef{Name: "m"},
		Ops:     []PostfixOp{&LookupOp{Name: "key"}},
	}
	if got, want := p.String(), "$m?key"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTokenLiteralPassthrough(t *testing.T) {
	lit := &IntegerLiteral{Token: token.Token{Literal: "7"}, Value: "7"}
	if lit.TokenLiteral() != "7" {
		t.Errorf("TokenLiteral() = %q, want 7", lit.TokenLiteral())
	}
}
