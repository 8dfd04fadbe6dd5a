// Package ir defines the intermediate representation the compiler lowers
// the parse tree to before emitting bytecode (§4.F of the spec): a small
// expression tree, deliberately flatter than the AST, with path steps,
// FLWOR bindings and special forms already reduced to a handful of
// variants the compiler's emitter switches on directly.
package ir

import "github.com/arborxml/xpath/atomic"

// Node is any IR expression. Unlike the AST, a Node carries no source
// span, and the lowering pass (lower.go) does not record one: errors it
// raises carry a nil span.
type Node interface {
	irNode()
}

// Const is a literal atomic value lowered directly from an
// ast.IntegerLiteral/DecimalLiteral/DoubleLiteral/StringLiteral. Folding
// only ever looks inside Const nodes, never Atom.VarRef/ContextItem.
type Const struct {
	Value atomic.Value
}

func (*Const) irNode() {}

// VarRef reads a local or closure variable by its expanded name; the
// compiler resolves the name to a slot or closure index at emission
// time, not here.
type VarRef struct {
	Name string
}

func (*VarRef) irNode() {}

// ContextItem reads the dynamic context's current item ("." in XPath).
type ContextItem struct{}

func (*ContextItem) irNode() {}

// Let binds Name to Value for the evaluation of Body (a single XPath
// `let` clause; a `let $a := .., $b := ..` chain lowers to nested Lets).
type Let struct {
	Name  string
	Value Node
	Body  Node
}

func (*Let) irNode() {}

// For lowers a `for $Name [at $PosName] in Source return Body` binding;
// PosName is "" when no positional variable was declared.
type For struct {
	Name    string
	PosName string
	Source  Node
	Body    Node
}

func (*For) irNode() {}

// Quantified lowers `some`/`every ... satisfies`.
type Quantified struct {
	Every    bool
	Bindings []ForBindingIR
	Test     Node
}

// ForBindingIR is one `$name in source` clause inside a Quantified (kept
// as a slice on Quantified since `some`/`every` test a single Test
// against a cross product of bindings; a chained `for` instead lowers to
// nested For nodes, one per binding).
type ForBindingIR struct {
	Name   string
	Source Node
}

func (*Quantified) irNode() {}

// If is a conditional; fold.go replaces it with its winning branch when
// Cond is a constant boolean.
type If struct {
	Cond Node
	Then Node
	Else Node
}

func (*If) irNode() {}

// BinaryOp enumerates the arithmetic/range/concat operators that lower
// to a Binary node. Comparisons and set operations get their own node
// kinds below since they carry extra shape (operator family, general
// vs. value) the bytecode emitter needs to see directly.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	IDiv
	Mod
	Concat // ||
	RangeTo
)

// Binary is a two-operand arithmetic, range, or string-concat
// expression.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (*Binary) irNode() {}

// UnaryOp enumerates the unary arithmetic operators.
type UnaryOp int

const (
	Plus UnaryOp = iota
	Minus
)

// Unary is a unary arithmetic expression (`+x` / `-x`).
type Unary struct {
	Op      UnaryOp
	Operand Node
}

func (*Unary) irNode() {}

// CompareOp enumerates the fifteen comparison operators (six value, six
// general, three node); Node is still value-level at this point, so
// And/Or lower to a BoolOp rather than appearing here.
type CompareOp int

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
	CmpGenEq
	CmpGenNe
	CmpGenLt
	CmpGenLe
	CmpGenGt
	CmpGenGe
	CmpIs
	CmpNodeBefore
	CmpNodeAfter
)

// Compare is a value, general, or node comparison.
type Compare struct {
	Op    CompareOp
	Left  Node
	Right Node
}

func (*Compare) irNode() {}

// BoolOp enumerates the short-circuiting logical operators.
type BoolOp int

const (
	LogicAnd BoolOp = iota
	LogicOr
)

// Bool is a short-circuiting `and`/`or` expression.
type Bool struct {
	Op    BoolOp
	Left  Node
	Right Node
}

func (*Bool) irNode() {}

// SetOp enumerates the three node-set operators.
type SetOp int

const (
	SetUnion SetOp = iota
	SetIntersect
	SetExcept
)

// Set is a `union`/`|`, `intersect`, or `except` expression over two
// node sequences.
type Set struct {
	Op    SetOp
	Left  Node
	Right Node
}

func (*Set) irNode() {}

// SimpleMap lowers the `!` operator: evaluate Source, then evaluate
// Body once per item with that item as the context item, concatenating
// the results.
type SimpleMap struct {
	Source Node
	Body   Node
}

func (*SimpleMap) irNode() {}

// SeqLiteral is a `(e1, e2, ...)` sequence expression; an empty
// SeqLiteral (no Items) is the empty sequence `()`.
type SeqLiteral struct {
	Items []Node
}

func (*SeqLiteral) irNode() {}

// AxisKind mirrors ast.Axis without importing package ast, so package
// compiler (which pre-compiles a Step's matcher from AxisKind/NodeTest)
// does not need to see parse-tree types at all.
type AxisKind int

const (
	AxisChild AxisKind = iota
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

// NodeTestKind mirrors ast.NodeTestKind.
type NodeTestKind int

const (
	TestAny NodeTestKind = iota
	TestPrefixAny
	TestLocalAny
	TestQName
	TestKind
)

// NodeTest is the pre-resolved node test a Step matches against; the
// QName is already namespace-expanded by the lowering pass using the
// static context's namespace table (§4.E "namespace resolution ...
// expands every qualified name at parse time").
type NodeTest struct {
	Kind         NodeTestKind
	NamespaceURI string // resolved, "" for no/any namespace
	LocalName    string
	KindName     string // e.g. "element", "text", "node", set when Kind == TestKind
	TypeName     string // optional schema type annotation on an element()/attribute() kind test
	Nillable     bool   // element(a, T?)
	PITarget     string // processing-instruction("target"), "" for any
}

// Step is one axis step with its predicates, evaluated against the
// current sequence of context nodes (Source, nil for the first step of
// a path, meaning "the dynamic context item").
type Step struct {
	Axis       AxisKind
	Test       NodeTest
	Source     Node
	Predicates []Node
}

func (*Step) irNode() {}

// Path wraps a left-deep chain of Steps (each pointing at its
// predecessor via Step.Source) rooted at either the document root
// (Rooted) or the dynamic context item.
type Path struct {
	Rooted bool
	Expr   Node
}

func (*Path) irNode() {}

// Call is a static or user function invocation resolved to an expanded
// QName and argument list; a nil Args[i] marks a `?` argument slot for
// partial application.
type Call struct {
	NamespaceURI string
	LocalName    string
	Args         []Node // a nil entry marks a `?` placeholder
}

func (*Call) irNode() {}

// DynamicCall invokes a function item produced by Target (e.g. `$f(1,
// 2)` or the result of an arrow expression's parenthesised target).
type DynamicCall struct {
	Target Node
	Args   []Node
}

func (*DynamicCall) irNode() {}

// FuncRef is a named function reference `name#arity`.
type FuncRef struct {
	NamespaceURI string
	LocalName    string
	Arity        int
}

func (*FuncRef) irNode() {}

// InlineParam is one parameter of an InlineFunc.
type InlineParam struct {
	Name string
}

// InlineFunc is an inline function expression; ClosureNames lists the
// free variables captured from the enclosing scope, computed by the
// lowering pass so the compiler can emit a closure-construction
// instruction with exactly the right capture list (§4.F "closures").
type InlineFunc struct {
	Params       []InlineParam
	Body         Node
	ClosureNames []string
}

func (*InlineFunc) irNode() {}

// MapEntry is one `key: value` pair of a MapConstructor.
type MapEntry struct {
	Key   Node
	Value Node
}

// MapConstructor builds a map from its entries, evaluated left to
// right; a later duplicate key overwrites an earlier one (map
// construction, not map:merge, so there is no duplicate policy here).
type MapConstructor struct {
	Entries []MapEntry
}

func (*MapConstructor) irNode() {}

// ArrayConstructor builds an array. Square is true for `[e1, e2, ...]`
// (each Items[i] is one member); false for `array{expr}` (Items has
// exactly one element, whose evaluated sequence is flattened one member
// per item).
type ArrayConstructor struct {
	Square bool
	Items  []Node
}

func (*ArrayConstructor) irNode() {}

// Lookup is `expr?key`, `expr?*`, or `expr?(expr)` (Key nil for `?*`).
type Lookup struct {
	Source Node
	Key    Node // nil means "?*" (every member/value)
}

func (*Lookup) irNode() {}

// SeqTypeKind is the coarse classification the interpreter needs to
// check instance-of/treat-as/castable/cast against -- enough detail to
// drive §4.B's type-check rules without carrying the full parsed
// component-type tree the AST keeps for diagnostics.
type SeqTypeKind int

const (
	SeqTypeItem SeqTypeKind = iota
	SeqTypeEmptySequence
	SeqTypeAtomic
	SeqTypeKindTest
)

// SeqType is the narrowed sequence-type the lowering pass emits for
// instance-of/treat/castable/cast, carrying just the occurrence
// indicator and the atomic type name or kind-test name needed at
// runtime.
type SeqType struct {
	Kind       SeqTypeKind
	Occurrence byte // 0, '?', '*', or '+'
	TypeName   string
}

// InstanceOf tests Operand against Type.
type InstanceOf struct {
	Operand Node
	Type    SeqType
}

func (*InstanceOf) irNode() {}

// TreatAs asserts Operand's dynamic type matches Type, raising
// XPDY0050/XPTY0004 per §4 if not, and yields Operand unchanged.
type TreatAs struct {
	Operand Node
	Type    SeqType
}

func (*TreatAs) irNode() {}

// CastableAs tests whether Operand could be cast to Type without
// raising an error, yielding a boolean.
type CastableAs struct {
	Operand  Node
	Type     SeqType
	Optional bool
}

func (*CastableAs) irNode() {}

// CastAs casts Operand to Type, raising FORG0001/XPST0080 on failure.
type CastAs struct {
	Operand  Node
	Type     SeqType
	Optional bool
}

func (*CastAs) irNode() {}
