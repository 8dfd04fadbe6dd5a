// Package ast defines the Abstract Syntax Tree nodes produced by
// parsing an XPath 3.1 expression.
package ast

import (
	"fmt"
	"strings"

	"github.com/arborxml/xpath/token"
)

// Node is implemented by every AST node.
type Node interface {
	TokenLiteral() string
	String() string
}

// Expression is implemented by every node that denotes a value (XPath
// has no statements; the whole grammar is one expression).
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: a single top-level expression plus any
// prolog-style declarations accepted by the parser's XPath/XSLT
// pattern entry point.
type Program struct {
	Expr Expression
}

func (p *Program) TokenLiteral() string {
	if p.Expr != nil {
		return p.Expr.TokenLiteral()
	}
	return ""
}
func (p *Program) String() string {
	if p.Expr == nil {
		return ""
	}
	return p.Expr.String()
}

// -----------------------------------------------------------------------------
// Literals and references
// -----------------------------------------------------------------------------

// IntegerLiteral is an untyped xs:integer literal, e.g. 42.
type IntegerLiteral struct {
	Token token.Token
	Value string
}

func (n *IntegerLiteral) expressionNode()      {}
func (n *IntegerLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *IntegerLiteral) String() string       { return n.Value }

// DecimalLiteral is an untyped xs:decimal literal, e.g. 3.14.
type DecimalLiteral struct {
	Token token.Token
	Value string
}

func (n *DecimalLiteral) expressionNode()      {}
func (n *DecimalLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *DecimalLiteral) String() string       { return n.Value }

// DoubleLiteral is an untyped xs:double literal, e.g. 1.5e10.
type DoubleLiteral struct {
	Token token.Token
	Value string
}

func (n *DoubleLiteral) expressionNode()      {}
func (n *DoubleLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *DoubleLiteral) String() string       { return n.Value }

// StringLiteral is a quoted string literal with escapes already resolved.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (n *StringLiteral) expressionNode()      {}
func (n *StringLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *StringLiteral) String() string       { return fmt.Sprintf("%q", n.Value) }

// VarRef is a variable reference, $prefix:local.
type VarRef struct {
	Token token.Token
	Name  string // the raw lexical name, before prefix resolution
}

func (n *VarRef) expressionNode()      {}
func (n *VarRef) TokenLiteral() string { return n.Token.Literal }
func (n *VarRef) String() string       { return "$" + n.Name }

// ContextItemExpr is the lone `.`.
type ContextItemExpr struct{ Token token.Token }

func (n *ContextItemExpr) expressionNode()      {}
func (n *ContextItemExpr) TokenLiteral() string { return n.Token.Literal }
func (n *ContextItemExpr) String() string       { return "." }

// -----------------------------------------------------------------------------
// Operators
// -----------------------------------------------------------------------------

// BinaryExpr covers every infix operator: arithmetic, value/general
// comparison, node comparison (is/<</>>), and/or, to, union family,
// string concat (||), and simple map (!).
type BinaryExpr struct {
	Token    token.Token
	Operator string
	Left     Expression
	Right    Expression
}

func (n *BinaryExpr) expressionNode()      {}
func (n *BinaryExpr) TokenLiteral() string { return n.Token.Literal }
func (n *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left.String(), n.Operator, n.Right.String())
}

// UnaryExpr covers unary +/-.
type UnaryExpr struct {
	Token    token.Token
	Operator string
	Operand  Expression
}

func (n *UnaryExpr) expressionNode()      {}
func (n *UnaryExpr) TokenLiteral() string { return n.Token.Literal }
func (n *UnaryExpr) String() string       { return fmt.Sprintf("(%s%s)", n.Operator, n.Operand.String()) }

// -----------------------------------------------------------------------------
// Path expressions
// -----------------------------------------------------------------------------

// Axis identifies one of the thirteen node-selection axes.
type Axis int

const (
	AxisChild Axis = iota
	AxisDescendant
	AxisAttribute
	AxisSelf
	AxisDescendantOrSelf
	AxisFollowingSibling
	AxisFollowing
	AxisNamespace
	AxisParent
	AxisAncestor
	AxisPrecedingSibling
	AxisPreceding
	AxisAncestorOrSelf
)

func (a Axis) String() string {
	names := [...]string{
		"child", "descendant", "attribute", "self", "descendant-or-self",
		"following-sibling", "following", "namespace", "parent", "ancestor",
		"preceding-sibling", "preceding", "ancestor-or-self",
	}
	if int(a) < len(names) {
		return names[a]
	}
	return "unknown-axis"
}

// IsReverse reports whether the axis visits nodes in reverse document
// order (§4.D "reverse axis"), requiring a document-order re-sort.
func (a Axis) IsReverse() bool {
	switch a {
	case AxisParent, AxisAncestor, AxisPrecedingSibling, AxisPreceding, AxisAncestorOrSelf:
		return true
	}
	return false
}

// NodeTestKind distinguishes the shapes a node test can take.
type NodeTestKind int

const (
	NameTestAny       NodeTestKind = iota // *
	NameTestPrefixAny                     // prefix:*
	NameTestLocalAny                      // *:local
	NameTestQName                         // prefix:local or local
	KindTest                              // node(), element(...), etc.
)

// NodeTest is a step's node test.
type NodeTest struct {
	Kind   NodeTestKind
	Prefix string // for NameTestPrefixAny, NameTestQName
	Local  string // for NameTestLocalAny, NameTestQName

	// KindTest fields, used when Kind == KindTest.
	KindName   string // "element", "attribute", "document-node", "text", ...
	TypeName   string // optional schema type name for element(a, T) / attribute(a, T)
	ElemOrAttr string // optional name argument, e.g. element(foo)
	Nillable   bool   // element(foo, T?)
	PITarget   string // processing-instruction("target") or "" for any
}

func (nt NodeTest) String() string {
	switch nt.Kind {
	case NameTestAny:
		return "*"
	case NameTestPrefixAny:
		return nt.Prefix + ":*"
	case NameTestLocalAny:
		return "*:" + nt.Local
	case NameTestQName:
		if nt.Prefix != "" {
			return nt.Prefix + ":" + nt.Local
		}
		return nt.Local
	case KindTest:
		return nt.KindName + "(...)"
	}
	return "?"
}

// AxisStep is one `axis::nodeTest[predicates]` step of a path
// expression.
type AxisStep struct {
	Token      token.Token
	Axis       Axis
	Test       NodeTest
	Predicates []Expression
}

func (n *AxisStep) expressionNode()      {}
func (n *AxisStep) TokenLiteral() string { return n.Token.Literal }
func (n *AxisStep) String() string {
	var sb strings.Builder
	sb.WriteString(n.Axis.String())
	sb.WriteString("::")
	sb.WriteString(n.Test.String())
	for _, p := range n.Predicates {
		sb.WriteString("[")
		sb.WriteString(p.String())
		sb.WriteString("]")
	}
	return sb.String()
}

// PostfixExpr applies predicates, argument lists, or `?key`/`?*`
// lookups to a primary expression in left-to-right order (the unified
// PostfixExpr production of XPath 3.1).
type PostfixExpr struct {
	Token   token.Token
	Primary Expression
	Ops     []PostfixOp
}

func (n *PostfixExpr) expressionNode()      {}
func (n *PostfixExpr) TokenLiteral() string { return n.Token.Literal }
func (n *PostfixExpr) String() string {
	var sb strings.Builder
	sb.WriteString(n.Primary.String())
	for _, op := range n.Ops {
		sb.WriteString(op.String())
	}
	return sb.String()
}

// PostfixOp is one suffix attached by PostfixExpr: a predicate, an
// argument list (function call / partial function application), or a
// lookup.
type PostfixOp interface {
	Node
	postfixOpNode()
}

// PredicateOp is `[expr]`.
type PredicateOp struct {
	Token token.Token
	Expr  Expression
}

func (n *PredicateOp) postfixOpNode()       {}
func (n *PredicateOp) TokenLiteral() string { return n.Token.Literal }
func (n *PredicateOp) String() string       { return "[" + n.Expr.String() + "]" }

// ArgumentListOp is `(args)`, where a nil Arg denotes `?` (a
// placeholder for partial function application).
type ArgumentListOp struct {
	Token token.Token
	Args  []Expression // nil element == `?` placeholder
}

func (n *ArgumentListOp) postfixOpNode()       {}
func (n *ArgumentListOp) TokenLiteral() string { return n.Token.Literal }
func (n *ArgumentListOp) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		if a == nil {
			parts[i] = "?"
		} else {
			parts[i] = a.String()
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// LookupOp is `?key`, `?"str"`, `?1`, or `?*` (array/map unary lookup).
type LookupOp struct {
	Token     token.Token
	Star      bool
	KeyExpr   Expression // parenthesised key expression: ?(expr)
	Name      string     // NCName key
	IntIndex  string     // integer index key (kept lexical; resolved by compiler)
	IsLiteral bool        // true if Name/IntIndex came from a bare literal, not KeyExpr
}

func (n *LookupOp) postfixOpNode()       {}
func (n *LookupOp) TokenLiteral() string { return n.Token.Literal }
func (n *LookupOp) String() string {
	switch {
	case n.Star:
		return "?*"
	case n.KeyExpr != nil:
		return "?(" + n.KeyExpr.String() + ")"
	case n.Name != "":
		return "?" + n.Name
	default:
		return "?" + n.IntIndex
	}
}

// PathExpr is a full `/`, `//`, or relative path: Steps chained by
// Separators (each "/" or "//" preceding the next step), with Rooted
// distinguishing a leading "/" (document-root-relative) from a
// relative path.
type PathExpr struct {
	Token     token.Token
	Rooted    bool
	LeadingDS bool // true if the path starts with "//" directly from root
	Steps     []Expression
	// Separators[i] is "/" or "//" joining Steps[i] to Steps[i+1].
	Separators []string
}

func (n *PathExpr) expressionNode()      {}
func (n *PathExpr) TokenLiteral() string { return n.Token.Literal }
func (n *PathExpr) String() string {
	var sb strings.Builder
	if n.Rooted {
		if n.LeadingDS {
			sb.WriteString("//")
		} else {
			sb.WriteString("/")
		}
	}
	for i, s := range n.Steps {
		if i > 0 {
			sb.WriteString(n.Separators[i-1])
		}
		sb.WriteString(s.String())
	}
	return sb.String()
}

// -----------------------------------------------------------------------------
// FLWOR-lite / conditional / quantified expressions
// -----------------------------------------------------------------------------

// ForBinding is one `$var [as SeqType] in expr` clause of a `for`.
type ForBinding struct {
	VarName   string
	SeqType   *SequenceType
	PosVar    string // `at $p`, "" if absent
	Source    Expression
}

// ForExpr is `for $v in e1, $v2 in e2 return body`.
type ForExpr struct {
	Token    token.Token
	Bindings []ForBinding
	Body     Expression
}

func (n *ForExpr) expressionNode()      {}
func (n *ForExpr) TokenLiteral() string { return n.Token.Literal }
func (n *ForExpr) String() string {
	var parts []string
	for _, b := range n.Bindings {
		parts = append(parts, fmt.Sprintf("$%s in %s", b.VarName, b.Source.String()))
	}
	return fmt.Sprintf("for %s return %s", strings.Join(parts, ", "), n.Body.String())
}

// LetBinding is one `$var [as SeqType] := expr` clause of a `let`.
type LetBinding struct {
	VarName string
	SeqType *SequenceType
	Value   Expression
}

// LetExpr is `let $v := e1, $v2 := e2 return body`.
type LetExpr struct {
	Token    token.Token
	Bindings []LetBinding
	Body     Expression
}

func (n *LetExpr) expressionNode()      {}
func (n *LetExpr) TokenLiteral() string { return n.Token.Literal }
func (n *LetExpr) String() string {
	var parts []string
	for _, b := range n.Bindings {
		parts = append(parts, fmt.Sprintf("$%s := %s", b.VarName, b.Value.String()))
	}
	return fmt.Sprintf("let %s return %s", strings.Join(parts, ", "), n.Body.String())
}

// QuantifiedExpr is `some $v in e1 satisfies cond` or `every ...`.
type QuantifiedExpr struct {
	Token     token.Token
	Universal bool // true for `every`, false for `some`
	Bindings  []ForBinding
	Cond      Expression
}

func (n *QuantifiedExpr) expressionNode()      {}
func (n *QuantifiedExpr) TokenLiteral() string { return n.Token.Literal }
func (n *QuantifiedExpr) String() string {
	kw := "some"
	if n.Universal {
		kw = "every"
	}
	var parts []string
	for _, b := range n.Bindings {
		parts = append(parts, fmt.Sprintf("$%s in %s", b.VarName, b.Source.String()))
	}
	return fmt.Sprintf("%s %s satisfies %s", kw, strings.Join(parts, ", "), n.Cond.String())
}

// IfExpr is `if (cond) then t else e`.
type IfExpr struct {
	Token token.Token
	Cond  Expression
	Then  Expression
	Else  Expression
}

func (n *IfExpr) expressionNode()      {}
func (n *IfExpr) TokenLiteral() string { return n.Token.Literal }
func (n *IfExpr) String() string {
	return fmt.Sprintf("if (%s) then %s else %s", n.Cond.String(), n.Then.String(), n.Else.String())
}

// -----------------------------------------------------------------------------
// Type-related expressions
// -----------------------------------------------------------------------------

// SequenceType is a parsed SequenceType production: `empty-sequence()`,
// or ItemType with an occurrence indicator (?, *, +, or none).
type SequenceType struct {
	IsEmptySequence bool
	ItemType        *ItemTypeNode
	Occurrence      string // "", "?", "*", "+"
}

func (n *SequenceType) String() string {
	if n.IsEmptySequence {
		return "empty-sequence()"
	}
	return n.ItemType.String() + n.Occurrence
}

// ItemTypeNode is an ItemType: `item()`, a kind test, an atomic/union
// type name, or a function/map/array test. For this engine's purposes
// only AtomicOrUnionName and the bare kind-test names are resolved
// against the schema lattice; function/map/array item types are parsed
// but their component types are not statically enforced.
type ItemTypeNode struct {
	Kind     string // "item", "node", "element", "attribute", "text", ...
	TypeName string // for AtomicOrUnionType, the QName lexical form
	Generic  bool   // function(*), map(*), array(*)
}

func (n *ItemTypeNode) String() string {
	if n.TypeName != "" {
		return n.TypeName
	}
	if n.Generic {
		return n.Kind + "(*)"
	}
	return n.Kind + "()"
}

// InstanceOfExpr is `expr instance of SeqType`.
type InstanceOfExpr struct {
	Token    token.Token
	Expr     Expression
	SeqType  *SequenceType
}

func (n *InstanceOfExpr) expressionNode()      {}
func (n *InstanceOfExpr) TokenLiteral() string { return n.Token.Literal }
func (n *InstanceOfExpr) String() string {
	return fmt.Sprintf("(%s instance of %s)", n.Expr.String(), n.SeqType.String())
}

// TreatAsExpr is `expr treat as SeqType`.
type TreatAsExpr struct {
	Token   token.Token
	Expr    Expression
	SeqType *SequenceType
}

func (n *TreatAsExpr) expressionNode()      {}
func (n *TreatAsExpr) TokenLiteral() string { return n.Token.Literal }
func (n *TreatAsExpr) String() string {
	return fmt.Sprintf("(%s treat as %s)", n.Expr.String(), n.SeqType.String())
}

// CastableAsExpr is `expr castable as SingleType`.
type CastableAsExpr struct {
	Token      token.Token
	Expr       Expression
	TypeName   string
	Optional   bool
}

func (n *CastableAsExpr) expressionNode()      {}
func (n *CastableAsExpr) TokenLiteral() string { return n.Token.Literal }
func (n *CastableAsExpr) String() string {
	q := ""
	if n.Optional {
		q = "?"
	}
	return fmt.Sprintf("(%s castable as %s%s)", n.Expr.String(), n.TypeName, q)
}

// CastAsExpr is `expr cast as SingleType`.
type CastAsExpr struct {
	Token    token.Token
	Expr     Expression
	TypeName string
	Optional bool
}

func (n *CastAsExpr) expressionNode()      {}
func (n *CastAsExpr) TokenLiteral() string { return n.Token.Literal }
func (n *CastAsExpr) String() string {
	q := ""
	if n.Optional {
		q = "?"
	}
	return fmt.Sprintf("(%s cast as %s%s)", n.Expr.String(), n.TypeName, q)
}

// ArrowCall is `lhs => target(args)`, chainable. Target is either a
// static EQName (Prefix/Local set) resolved against the function
// library, or a dynamic TargetExpr (a $var or parenthesised expression
// evaluating to a function item).
type ArrowCall struct {
	Token      token.Token
	LHS        Expression
	Prefix     string
	Local      string
	TargetExpr Expression
	Args       []Expression
}

func (n *ArrowCall) expressionNode()      {}
func (n *ArrowCall) TokenLiteral() string { return n.Token.Literal }
func (n *ArrowCall) String() string {
	target := n.Local
	if n.Prefix != "" {
		target = n.Prefix + ":" + target
	}
	if n.TargetExpr != nil {
		target = n.TargetExpr.String()
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s => %s(%s)", n.LHS.String(), target, strings.Join(parts, ", "))
}

// -----------------------------------------------------------------------------
// Function calls, inline functions, maps, arrays
// -----------------------------------------------------------------------------

// FunctionCall is `prefix:local(args)`, resolved against the static
// function library or an in-scope inline function variable by the
// compiler, not the parser.
type FunctionCall struct {
	Token  token.Token
	Prefix string
	Local  string
	Args   []Expression
}

func (n *FunctionCall) expressionNode()      {}
func (n *FunctionCall) TokenLiteral() string { return n.Token.Literal }
func (n *FunctionCall) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	name := n.Local
	if n.Prefix != "" {
		name = n.Prefix + ":" + name
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

// NamedFunctionRef is `prefix:local#arity`.
type NamedFunctionRef struct {
	Token  token.Token
	Prefix string
	Local  string
	Arity  int
}

func (n *NamedFunctionRef) expressionNode()      {}
func (n *NamedFunctionRef) TokenLiteral() string { return n.Token.Literal }
func (n *NamedFunctionRef) String() string {
	name := n.Local
	if n.Prefix != "" {
		name = n.Prefix + ":" + name
	}
	return fmt.Sprintf("%s#%d", name, n.Arity)
}

// Param is one inline function parameter.
type Param struct {
	Name    string
	SeqType *SequenceType
}

// InlineFunctionExpr is `function(params) [as SeqType] { body }`.
type InlineFunctionExpr struct {
	Token      token.Token
	Params     []Param
	ReturnType *SequenceType
	Body       Expression
}

func (n *InlineFunctionExpr) expressionNode()      {}
func (n *InlineFunctionExpr) TokenLiteral() string { return n.Token.Literal }
func (n *InlineFunctionExpr) String() string {
	parts := make([]string, len(n.Params))
	for i, p := range n.Params {
		parts[i] = "$" + p.Name
	}
	return fmt.Sprintf("function(%s) { %s }", strings.Join(parts, ", "), n.Body.String())
}

// MapConstructorEntry is one `key : value` of a map constructor.
type MapConstructorEntry struct {
	Key   Expression
	Value Expression
}

// MapConstructor is `map { k1: v1, k2: v2 }`.
type MapConstructor struct {
	Token   token.Token
	Entries []MapConstructorEntry
}

func (n *MapConstructor) expressionNode()      {}
func (n *MapConstructor) TokenLiteral() string { return n.Token.Literal }
func (n *MapConstructor) String() string {
	parts := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		parts[i] = fmt.Sprintf("%s: %s", e.Key.String(), e.Value.String())
	}
	return "map{" + strings.Join(parts, ", ") + "}"
}

// SquareArrayConstructor is `[e1, e2, ...]`.
type SquareArrayConstructor struct {
	Token    token.Token
	Members  []Expression
}

func (n *SquareArrayConstructor) expressionNode()      {}
func (n *SquareArrayConstructor) TokenLiteral() string { return n.Token.Literal }
func (n *SquareArrayConstructor) String() string {
	parts := make([]string, len(n.Members))
	for i, m := range n.Members {
		parts[i] = m.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// CurlyArrayConstructor is `array { expr }` -- a single enclosed
// expression whose resulting sequence's items each become one member.
type CurlyArrayConstructor struct {
	Token token.Token
	Expr  Expression
}

func (n *CurlyArrayConstructor) expressionNode()      {}
func (n *CurlyArrayConstructor) TokenLiteral() string { return n.Token.Literal }
func (n *CurlyArrayConstructor) String() string       { return "array{" + n.Expr.String() + "}" }

// UnaryLookup is `?key` used as a primary expression (implicit context
// item lookup), distinct from LookupOp which is always a postfix
// suffix on some other primary.
type UnaryLookup struct {
	Token token.Token
	Op    *LookupOp
}

func (n *UnaryLookup) expressionNode()      {}
func (n *UnaryLookup) TokenLiteral() string { return n.Token.Literal }
func (n *UnaryLookup) String() string       { return n.Op.String() }

// SequenceExpr is `e1, e2, e3` -- the comma operator building a
// sequence from its comma-separated operands.
type SequenceExpr struct {
	Token token.Token
	Exprs []Expression
}

func (n *SequenceExpr) expressionNode()      {}
func (n *SequenceExpr) TokenLiteral() string { return n.Token.Literal }
func (n *SequenceExpr) String() string {
	parts := make([]string, len(n.Exprs))
	for i, e := range n.Exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// ParenExpr is a parenthesised expression, including `()` the empty
// sequence.
type ParenExpr struct {
	Token token.Token
	Inner Expression // nil for ()
}

func (n *ParenExpr) expressionNode()      {}
func (n *ParenExpr) TokenLiteral() string { return n.Token.Literal }
func (n *ParenExpr) String() string {
	if n.Inner == nil {
		return "()"
	}
	return "(" + n.Inner.String() + ")"
}
