// Package parser implements a recursive-descent parser for XPath 3.1
// expressions, built over package lexer's token stream. The grammar's
// purely single-token binary operators (+, *, union, |, and, or, ...)
// are walked through a chain of precedence-level methods, one per
// grammar production (OrExpr, AndExpr, ComparisonExpr, ...), since
// several XPath "operators" are keyword phrases (`instance of`, `cast
// as`) rather than single tokens and don't fit a generic Pratt table;
// PrimaryExpr dispatch still follows the prefixParseFn idiom, keyed by
// the leading token, since that level genuinely is one-token lookahead
// per alternative.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arborxml/xpath/ast"
	"github.com/arborxml/xpath/lexer"
	"github.com/arborxml/xpath/token"
)

type prefixParseFn func() ast.Expression

// Parser turns a token stream into an AST, accumulating diagnostics in
// Errors rather than failing on the first mistake, so a caller can
// report every syntax error found in one pass.
type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	errors []string

	prefixParseFns map[token.Type]prefixParseFn
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.prefixParseFns = make(map[token.Type]prefixParseFn)

	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.DECIMAL, p.parseDecimalLiteral)
	p.registerPrefix(token.DOUBLE_LIT, p.parseDoubleLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.VARREF, p.parseVarRef)
	p.registerPrefix(token.LPAREN, p.parseParenOrSequence)
	p.registerPrefix(token.LBRACKET, p.parseSquareArray)
	p.registerPrefix(token.DOT, p.parseContextItemOrPath)
	p.registerPrefix(token.QUESTION, p.parseUnaryLookup)

	// Advance twice to prime curToken/peekToken.
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) {
	p.prefixParseFns[t] = fn
}

func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	for p.peekToken.Type == token.COMMENT {
		p.peekToken = p.l.NextToken()
	}
}

func (p *Parser) curIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.Type) {
	p.errors = append(p.errors, fmt.Sprintf("line %d: expected next token to be %s, got %s (%q) instead",
		p.peekToken.Line, t, p.peekToken.Type, p.peekToken.Literal))
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf("line %d: %s", p.curToken.Line, fmt.Sprintf(format, args...)))
}

// ParseProgram parses a complete XPath expression, including its
// top-level comma-separated sequence, and wraps it in a Program.
func (p *Parser) ParseProgram() *ast.Program {
	return &ast.Program{Expr: p.parseExpr()}
}

// parseExpr parses Expr ::= ExprSingle ("," ExprSingle)*.
func (p *Parser) parseExpr() ast.Expression {
	tok := p.curToken
	first := p.parseExprSingle()
	if !p.peekIs(token.COMMA) {
		return first
	}
	exprs := []ast.Expression{first}
	for p.peekIs(token.COMMA) {
		p.nextToken() // consume ","
		p.nextToken() // move to next ExprSingle's first token
		exprs = append(exprs, p.parseExprSingle())
	}
	return &ast.SequenceExpr{Token: tok, Exprs: exprs}
}

// parseExprSingle dispatches to the handful of ExprSingle alternatives
// that start with a reserved keyword, falling through to the OrExpr
// binary-operator chain otherwise.
func (p *Parser) parseExprSingle() ast.Expression {
	switch p.curToken.Type {
	case token.FOR:
		return p.parseForExpr()
	case token.LET_KW:
		return p.parseLetExpr()
	case token.SOME, token.EVERY:
		return p.parseQuantifiedExpr()
	case token.IF:
		return p.parseIfExpr()
	default:
		return p.parseOrExpr()
	}
}

// -----------------------------------------------------------------------------
// Binary operator precedence chain
// -----------------------------------------------------------------------------

func (p *Parser) parseOrExpr() ast.Expression {
	left := p.parseAndExpr()
	for p.peekIs(token.OR) {
		tok := p.peekToken
		p.nextToken()
		p.nextToken()
		right := p.parseAndExpr()
		left = &ast.BinaryExpr{Token: tok, Operator: "or", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAndExpr() ast.Expression {
	left := p.parseComparisonExpr()
	for p.peekIs(token.AND) {
		tok := p.peekToken
		p.nextToken()
		p.nextToken()
		right := p.parseComparisonExpr()
		left = &ast.BinaryExpr{Token: tok, Operator: "and", Left: left, Right: right}
	}
	return left
}

var comparisonOps = map[token.Type]string{
	token.EQ: "=", token.NE: "!=", token.LT: "<", token.GT: ">", token.LE: "<=", token.GE: ">=",
	token.EQ_KW: "eq", token.NE_KW: "ne", token.LT_KW: "lt", token.LE_KW: "le", token.GT_KW: "gt", token.GE_KW: "ge",
	token.IS: "is", token.LTLT: "<<", token.GTGT: ">>",
}

// parseComparisonExpr implements ComparisonExpr; XPath defines this as
// non-associative (at most one comparison per expression), which this
// parser does not statically enforce -- a chained "a = b = c" parses
// left-associatively instead of being rejected, a simplification noted
// alongside the other Open Question resolutions.
func (p *Parser) parseComparisonExpr() ast.Expression {
	left := p.parseStringConcatExpr()
	for op, ok := comparisonOps[p.peekToken.Type]; ok; op, ok = comparisonOps[p.peekToken.Type] {
		tok := p.peekToken
		p.nextToken()
		p.nextToken()
		right := p.parseStringConcatExpr()
		left = &ast.BinaryExpr{Token: tok, Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseStringConcatExpr() ast.Expression {
	left := p.parseRangeExpr()
	for p.peekIs(token.PIPEPIPE) {
		tok := p.peekToken
		p.nextToken()
		p.nextToken()
		right := p.parseRangeExpr()
		left = &ast.BinaryExpr{Token: tok, Operator: "||", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseRangeExpr() ast.Expression {
	left := p.parseAdditiveExpr()
	if p.peekIs(token.TO) {
		tok := p.peekToken
		p.nextToken()
		p.nextToken()
		right := p.parseAdditiveExpr()
		left = &ast.BinaryExpr{Token: tok, Operator: "to", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdditiveExpr() ast.Expression {
	left := p.parseMultiplicativeExpr()
	for p.peekIs(token.PLUS) || p.peekIs(token.MINUS) {
		tok := p.peekToken
		op := tok.Literal
		p.nextToken()
		p.nextToken()
		right := p.parseMultiplicativeExpr()
		left = &ast.BinaryExpr{Token: tok, Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicativeExpr() ast.Expression {
	left := p.parseUnionExpr()
	for p.peekIs(token.STAR) || p.peekIs(token.DIV) || p.peekIs(token.IDIV) || p.peekIs(token.MOD) {
		tok := p.peekToken
		op := tok.Literal
		if op == "" {
			op = map[token.Type]string{token.DIV: "div", token.IDIV: "idiv", token.MOD: "mod"}[tok.Type]
		}
		p.nextToken()
		p.nextToken()
		right := p.parseUnionExpr()
		left = &ast.BinaryExpr{Token: tok, Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnionExpr() ast.Expression {
	left := p.parseIntersectExceptExpr()
	for p.peekIs(token.UNION) || p.peekIs(token.PIPE) {
		tok := p.peekToken
		p.nextToken()
		p.nextToken()
		right := p.parseIntersectExceptExpr()
		left = &ast.BinaryExpr{Token: tok, Operator: "union", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseIntersectExceptExpr() ast.Expression {
	left := p.parseInstanceOfExpr()
	for p.peekIs(token.INTERSECT) || p.peekIs(token.EXCEPT) {
		tok := p.peekToken
		op := "intersect"
		if tok.Type == token.EXCEPT {
			op = "except"
		}
		p.nextToken()
		p.nextToken()
		right := p.parseInstanceOfExpr()
		left = &ast.BinaryExpr{Token: tok, Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseInstanceOfExpr() ast.Expression {
	left := p.parseTreatExpr()
	if p.peekIs(token.INSTANCE) {
		tok := p.peekToken
		p.nextToken()
		if !p.expectPeek(token.OF) {
			return left
		}
		p.nextToken()
		st := p.parseSequenceType()
		return &ast.InstanceOfExpr{Token: tok, Expr: left, SeqType: st}
	}
	return left
}

func (p *Parser) parseTreatExpr() ast.Expression {
	left := p.parseCastableExpr()
	if p.peekIs(token.TREAT) {
		tok := p.peekToken
		p.nextToken()
		if !p.expectPeek(token.AS) {
			return left
		}
		p.nextToken()
		st := p.parseSequenceType()
		return &ast.TreatAsExpr{Token: tok, Expr: left, SeqType: st}
	}
	return left
}

func (p *Parser) parseCastableExpr() ast.Expression {
	left := p.parseCastExpr()
	if p.peekIs(token.CASTABLE) {
		tok := p.peekToken
		p.nextToken()
		if !p.expectPeek(token.AS) {
			return left
		}
		p.nextToken()
		name, opt := p.parseSingleType()
		return &ast.CastableAsExpr{Token: tok, Expr: left, TypeName: name, Optional: opt}
	}
	return left
}

func (p *Parser) parseCastExpr() ast.Expression {
	left := p.parseArrowExpr()
	if p.peekIs(token.CAST) {
		tok := p.peekToken
		p.nextToken()
		if !p.expectPeek(token.AS) {
			return left
		}
		p.nextToken()
		name, opt := p.parseSingleType()
		return &ast.CastAsExpr{Token: tok, Expr: left, TypeName: name, Optional: opt}
	}
	return left
}

// parseArrowExpr implements ArrowExpr ::= UnaryExpr ("=>" ArrowFunctionSpecifier
// ArgumentList)* -- it sits here, between CastExpr and UnaryExpr, rather
// than as a PostfixExpr suffix, matching the real grammar's precedence.
func (p *Parser) parseArrowExpr() ast.Expression {
	left := p.parseUnaryExpr()
	for p.peekIs(token.ARROW) {
		p.nextToken() // "=>"
		p.nextToken() // move to the target's first token
		left = p.parseArrowTarget(left)
	}
	return left
}

// parseArrowTarget parses one ArrowFunctionSpecifier ArgumentList, with
// curToken already positioned on the specifier (an EQName, a $var, or a
// parenthesised expression evaluating to a function item).
func (p *Parser) parseArrowTarget(lhs ast.Expression) ast.Expression {
	tok := p.curToken
	call := &ast.ArrowCall{Token: tok, LHS: lhs}
	switch {
	case p.curIs(token.IDENT):
		call.Prefix, call.Local = splitQName(p.curToken.Literal)
	case p.curIs(token.VARREF):
		call.TargetExpr = &ast.VarRef{Token: tok, Name: tok.Literal}
	case p.curIs(token.LPAREN):
		call.TargetExpr = p.parseParenOrSequence()
	default:
		p.errorf("expected a function name, variable, or parenthesised expression after '=>', got %s (%q)",
			p.curToken.Type, p.curToken.Literal)
		return call
	}
	if !p.expectPeek(token.LPAREN) {
		return call
	}
	call.Args = p.parseArgumentList()
	return call
}

func (p *Parser) parseUnaryExpr() ast.Expression {
	if p.curIs(token.MINUS) || p.curIs(token.PLUS) {
		tok := p.curToken
		p.nextToken()
		operand := p.parseUnaryExpr()
		return &ast.UnaryExpr{Token: tok, Operator: tok.Literal, Operand: operand}
	}
	return p.parseSimpleMapExpr()
}

func (p *Parser) parseSimpleMapExpr() ast.Expression {
	left := p.parsePathExpr()
	for p.peekIs(token.BANG) {
		tok := p.peekToken
		p.nextToken()
		p.nextToken()
		right := p.parsePathExpr()
		left = &ast.BinaryExpr{Token: tok, Operator: "!", Left: left, Right: right}
	}
	return left
}

// parseSingleType parses `QName "?"?`, returning the lexical type name
// and whether the optional marker was present.
func (p *Parser) parseSingleType() (string, bool) {
	name := p.parseEQNameLiteral()
	if p.peekIs(token.QUESTION) {
		p.nextToken()
		return name, true
	}
	return name, false
}

// parseEQNameLiteral consumes the current IDENT token as a (possibly
// prefixed) EQName literal, without further advancing.
func (p *Parser) parseEQNameLiteral() string {
	name := p.curToken.Literal
	return name
}

func splitQName(lit string) (prefix, local string) {
	if idx := strings.IndexByte(lit, ':'); idx >= 0 {
		return lit[:idx], lit[idx+1:]
	}
	return "", lit
}

// -----------------------------------------------------------------------------
// Path expressions: PathExpr / RelativePathExpr / StepExpr / AxisStep
// -----------------------------------------------------------------------------

// pathTerminators are the tokens that can never start a new step, used
// to tell a lone "/" (the root path expression on its own) apart from
// "/" followed by a RelativePathExpr.
var pathTerminators = map[token.Type]bool{
	token.EOF: true, token.RPAREN: true, token.RBRACKET: true, token.RBRACE: true,
	token.COMMA: true, token.THEN: true, token.ELSE: true, token.RETURN: true,
	token.SATISFIES: true, token.IN: true,
	token.INSTANCE: true, token.TREAT: true, token.CASTABLE: true, token.CAST: true,
	token.AS: true, token.OF: true,
	token.UNION: true, token.INTERSECT: true, token.EXCEPT: true, token.TO: true,
	token.AND: true, token.OR: true,
	token.EQ: true, token.NE: true, token.LT: true, token.GT: true, token.LE: true, token.GE: true,
	token.EQ_KW: true, token.NE_KW: true, token.LT_KW: true, token.LE_KW: true, token.GT_KW: true, token.GE_KW: true,
	token.IS: true, token.LTLT: true, token.GTGT: true,
	token.PLUS: true, token.MINUS: true,
	token.PIPEPIPE: true, token.PIPE: true,
	token.DIV: true, token.IDIV: true, token.MOD: true,
	token.ARROW: true, token.BANG: true,
	token.COLON: true, token.QUESTION: true, token.ASSIGN: true,
}

func (p *Parser) isStepStart(tt token.Type) bool { return !pathTerminators[tt] }

// parsePathExpr implements PathExpr, the entry point for "/", "//", and
// plain relative paths.
func (p *Parser) parsePathExpr() ast.Expression {
	tok := p.curToken
	switch p.curToken.Type {
	case token.SLASHSLASH:
		p.nextToken()
		steps, seps := p.parseStepSequence()
		return &ast.PathExpr{Token: tok, Rooted: true, LeadingDS: true, Steps: steps, Separators: seps}
	case token.SLASH:
		if !p.isStepStart(p.peekToken.Type) {
			return &ast.PathExpr{Token: tok, Rooted: true}
		}
		p.nextToken()
		steps, seps := p.parseStepSequence()
		return &ast.PathExpr{Token: tok, Rooted: true, Steps: steps, Separators: seps}
	default:
		steps, seps := p.parseStepSequence()
		if len(steps) == 1 {
			return steps[0]
		}
		return &ast.PathExpr{Token: tok, Steps: steps, Separators: seps}
	}
}

// parseStepSequence implements RelativePathExpr ::= StepExpr (("/" | "//") StepExpr)*.
func (p *Parser) parseStepSequence() ([]ast.Expression, []string) {
	steps := []ast.Expression{p.parseStepExpr()}
	var seps []string
	for p.peekIs(token.SLASH) || p.peekIs(token.SLASHSLASH) {
		sep := "/"
		if p.peekIs(token.SLASHSLASH) {
			sep = "//"
		}
		p.nextToken() // consume separator
		p.nextToken() // move to next step's first token
		seps = append(seps, sep)
		steps = append(steps, p.parseStepExpr())
	}
	return steps, seps
}

// parseStepExpr implements StepExpr ::= PostfixExpr | AxisStep, deciding
// which alternative applies by checking whether curToken can start a
// genuine PrimaryExpr.
func (p *Parser) parseStepExpr() ast.Expression {
	if p.isPrimaryExprStart() {
		return p.parsePostfixExpr()
	}
	return p.parseAxisStep()
}

var axisTokenToAxis = map[token.Type]ast.Axis{
	token.AXIS_CHILD:               ast.AxisChild,
	token.AXIS_DESCENDANT:          ast.AxisDescendant,
	token.AXIS_ATTRIBUTE:           ast.AxisAttribute,
	token.AXIS_SELF:                ast.AxisSelf,
	token.AXIS_DESCENDANT_OR_SELF:  ast.AxisDescendantOrSelf,
	token.AXIS_FOLLOWING_SIBLING:   ast.AxisFollowingSibling,
	token.AXIS_FOLLOWING:           ast.AxisFollowing,
	token.AXIS_NAMESPACE:           ast.AxisNamespace,
	token.AXIS_PARENT:              ast.AxisParent,
	token.AXIS_ANCESTOR:            ast.AxisAncestor,
	token.AXIS_PRECEDING_SIBLING:   ast.AxisPrecedingSibling,
	token.AXIS_PRECEDING:           ast.AxisPreceding,
	token.AXIS_ANCESTOR_OR_SELF:    ast.AxisAncestorOrSelf,
}

// axisTypeFor reports the Axis a contextual word denotes, if it is an
// axis name at all (as opposed to a kind-test name).
func axisTypeFor(lit string) (ast.Axis, bool) {
	tt, ok := token.LookupContextual(lit)
	if !ok {
		return 0, false
	}
	axis, ok := axisTokenToAxis[tt]
	return axis, ok
}

// parseAxisStep implements AxisStep, covering the explicit "axis::test"
// form, the two abbreviations ("@test", "..") and the bare-NodeTest
// abbreviation of the child axis.
func (p *Parser) parseAxisStep() ast.Expression {
	tok := p.curToken
	switch {
	case p.curIs(token.AT):
		p.nextToken()
		test := p.parseNodeTest()
		step := &ast.AxisStep{Token: tok, Axis: ast.AxisAttribute, Test: test}
		p.parsePredicatesInto(step)
		return step
	case p.curIs(token.DOTDOT):
		step := &ast.AxisStep{Token: tok, Axis: ast.AxisParent, Test: ast.NodeTest{Kind: ast.KindTest, KindName: "node"}}
		p.parsePredicatesInto(step)
		return step
	case p.curIs(token.STAR):
		step := &ast.AxisStep{Token: tok, Axis: ast.AxisChild, Test: p.parseNodeTest()}
		p.parsePredicatesInto(step)
		return step
	case p.curIs(token.IDENT):
		axis := ast.AxisChild
		if axisType, ok := axisTypeFor(p.curToken.Literal); ok && p.peekIs(token.COLONCOLON) {
			axis = axisType
			p.nextToken() // consume axis name -> cur = "::"
			p.nextToken() // consume "::" -> cur = node test start
		}
		test := p.parseNodeTest()
		step := &ast.AxisStep{Token: tok, Axis: axis, Test: test}
		p.parsePredicatesInto(step)
		return step
	default:
		p.errorf("unexpected token %s (%q) at start of a step", p.curToken.Type, p.curToken.Literal)
		return nil
	}
}

// kindTestNames maps the literal spelling of a node-kind test to its
// canonical name, used both for an AxisStep's NodeTest and for an
// ItemType's kind test.
var kindTestNames = map[string]string{
	"document-node":          "document-node",
	"element":                "element",
	"attribute":               "attribute",
	"schema-element":         "schema-element",
	"schema-attribute":       "schema-attribute",
	"processing-instruction": "processing-instruction",
	"comment":                "comment",
	"text":                   "text",
	"namespace-node":         "namespace-node",
	"node":                   "node",
}

// parseNodeTest implements NodeTest, with curToken on the test's first token.
func (p *Parser) parseNodeTest() ast.NodeTest {
	switch p.curToken.Type {
	case token.STAR:
		if p.peekIs(token.COLON) {
			p.nextToken() // consume "*" -> cur = ":"
			if !p.expectPeek(token.IDENT) {
				return ast.NodeTest{Kind: ast.NameTestAny}
			}
			return ast.NodeTest{Kind: ast.NameTestLocalAny, Local: p.curToken.Literal}
		}
		return ast.NodeTest{Kind: ast.NameTestAny}
	case token.IDENT:
		lit := p.curToken.Literal
		if kn, ok := kindTestNames[lit]; ok && p.peekIs(token.LPAREN) {
			return p.parseKindTestBody(kn)
		}
		if p.peekIs(token.COLON) {
			prefix := lit
			p.nextToken() // consume IDENT -> cur = ":"
			if !p.expectPeek(token.STAR) {
				return ast.NodeTest{Kind: ast.NameTestQName, Local: lit}
			}
			return ast.NodeTest{Kind: ast.NameTestPrefixAny, Prefix: prefix}
		}
		prefix, local := splitQName(lit)
		return ast.NodeTest{Kind: ast.NameTestQName, Prefix: prefix, Local: local}
	default:
		p.errorf("expected a node test, got %s (%q)", p.curToken.Type, p.curToken.Literal)
		return ast.NodeTest{Kind: ast.NameTestAny}
	}
}

// parseKindTestBody parses the parenthesised argument list of a kind
// test, with curToken positioned on the kind name itself (e.g.
// "element", before its "("). Nested document-node(element(...)) detail
// is captured one level deep; anything deeper is skipped over.
func (p *Parser) parseKindTestBody(kindName string) ast.NodeTest {
	nt := ast.NodeTest{Kind: ast.KindTest, KindName: kindName}
	if !p.expectPeek(token.LPAREN) {
		return nt
	}
	if p.peekIs(token.RPAREN) {
		p.nextToken()
		return nt
	}
	p.nextToken()
	switch kindName {
	case "element", "attribute":
		if p.curIs(token.STAR) {
			nt.ElemOrAttr = "*"
		} else {
			nt.ElemOrAttr = p.curToken.Literal
		}
		if p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			nt.TypeName = p.curToken.Literal
			if p.peekIs(token.QUESTION) {
				p.nextToken()
				nt.Nillable = true
			}
		}
	case "schema-element", "schema-attribute":
		nt.ElemOrAttr = p.curToken.Literal
	case "processing-instruction":
		nt.PITarget = p.curToken.Literal
	case "document-node":
		if kn, ok := kindTestNames[p.curToken.Literal]; ok && (kn == "element" || kn == "schema-element") && p.peekIs(token.LPAREN) {
			inner := p.parseKindTestBody(kn)
			nt.ElemOrAttr, nt.TypeName, nt.Nillable = inner.ElemOrAttr, inner.TypeName, inner.Nillable
			nt.KindName = "document-node(" + kn + ")"
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return nt
	}
	return nt
}

// parsePredicatesInto implements PredicateList, appending each bracketed
// expression onto step.Predicates.
func (p *Parser) parsePredicatesInto(step *ast.AxisStep) {
	for p.peekIs(token.LBRACKET) {
		p.nextToken() // "["
		p.nextToken()
		expr := p.parseExpr()
		if !p.expectPeek(token.RBRACKET) {
			return
		}
		step.Predicates = append(step.Predicates, expr)
	}
}

// -----------------------------------------------------------------------------
// PostfixExpr: predicates, argument lists, and lookups applied to a primary
// -----------------------------------------------------------------------------

// isPrimaryExprStart reports whether curToken can begin a genuine
// PrimaryExpr, as opposed to an AxisStep (the two alternatives of
// StepExpr). IDENT is ambiguous on its own: most names are node tests,
// but a handful of special forms (map{}, array{}, function(), ordinary
// function calls, named function references) are primaries.
func (p *Parser) isPrimaryExprStart() bool {
	switch p.curToken.Type {
	case token.INT, token.DECIMAL, token.DOUBLE_LIT, token.STRING, token.VARREF,
		token.LPAREN, token.LBRACKET, token.QUESTION, token.DOT:
		return true
	case token.IDENT:
		return p.identStartsPrimary()
	}
	return false
}

// identStartsPrimary decides, for a bare IDENT, whether it begins a
// PrimaryExpr (map/array/function constructor, named function
// reference, function call) or is instead an AxisStep's bare NodeTest
// (an ordinary element name, a wildcard prefix, or an axis/kind-test
// word). A plain name with nothing consuming it -- no following "(" or
// "#" -- is always a NodeTest: XPath has no bare-identifier primary
// expression, every unparenthesized name denotes a step.
func (p *Parser) identStartsPrimary() bool {
	switch p.curToken.Literal {
	case "map", "array":
		return p.peekIs(token.LBRACE)
	case "function":
		return p.peekIs(token.LPAREN)
	}
	if _, ok := kindTestNames[p.curToken.Literal]; ok {
		return false
	}
	if _, ok := token.LookupContextual(p.curToken.Literal); ok {
		return false
	}
	return p.peekIs(token.HASH) || p.peekIs(token.LPAREN)
}

func (p *Parser) parsePostfixExpr() ast.Expression {
	tok := p.curToken
	primary := p.parsePrimaryExpr()
	var ops []ast.PostfixOp
	for {
		switch {
		case p.peekIs(token.LBRACKET):
			predTok := p.peekToken
			p.nextToken()
			p.nextToken()
			expr := p.parseExpr()
			if !p.expectPeek(token.RBRACKET) {
				return finishPostfix(tok, primary, ops)
			}
			ops = append(ops, &ast.PredicateOp{Token: predTok, Expr: expr})
		case p.peekIs(token.LPAREN):
			p.nextToken()
			argTok := p.curToken
			args := p.parseArgumentList()
			ops = append(ops, &ast.ArgumentListOp{Token: argTok, Args: args})
		case p.peekIs(token.QUESTION):
			p.nextToken()
			ops = append(ops, p.parseLookupOp())
		default:
			return finishPostfix(tok, primary, ops)
		}
	}
}

func finishPostfix(tok token.Token, primary ast.Expression, ops []ast.PostfixOp) ast.Expression {
	if len(ops) == 0 {
		return primary
	}
	return &ast.PostfixExpr{Token: tok, Primary: primary, Ops: ops}
}

// parseArgumentList implements ArgumentList, with curToken == "(" on entry.
func (p *Parser) parseArgumentList() []ast.Expression {
	var args []ast.Expression
	if p.peekIs(token.RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken()
	args = append(args, p.parseArgumentItem())
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		args = append(args, p.parseArgumentItem())
	}
	p.expectPeek(token.RPAREN)
	return args
}

// parseArgumentItem parses one Argument: either an ExprSingle or a bare
// "?" placeholder used for partial function application.
func (p *Parser) parseArgumentItem() ast.Expression {
	if p.curIs(token.QUESTION) && (p.peekIs(token.COMMA) || p.peekIs(token.RPAREN)) {
		return nil
	}
	return p.parseExprSingle()
}

// parseLookupOp implements Lookup, with curToken == "?" on entry. Used
// both as a PostfixExpr suffix and, via parseUnaryLookup, as a primary
// expression applying to the context item.
func (p *Parser) parseLookupOp() *ast.LookupOp {
	tok := p.curToken
	switch {
	case p.peekIs(token.STAR):
		p.nextToken()
		return &ast.LookupOp{Token: tok, Star: true}
	case p.peekIs(token.LPAREN):
		p.nextToken()
		p.nextToken()
		expr := p.parseExpr()
		p.expectPeek(token.RPAREN)
		return &ast.LookupOp{Token: tok, KeyExpr: expr}
	case p.peekIs(token.INT):
		p.nextToken()
		return &ast.LookupOp{Token: tok, IntIndex: p.curToken.Literal, IsLiteral: true}
	case p.peekIs(token.IDENT):
		p.nextToken()
		return &ast.LookupOp{Token: tok, Name: p.curToken.Literal, IsLiteral: true}
	default:
		p.errorf("expected a lookup key after '?', got %s (%q)", p.peekToken.Type, p.peekToken.Literal)
		return &ast.LookupOp{Token: tok}
	}
}

func (p *Parser) parseUnaryLookup() ast.Expression {
	tok := p.curToken
	return &ast.UnaryLookup{Token: tok, Op: p.parseLookupOp()}
}

// -----------------------------------------------------------------------------
// PrimaryExpr
// -----------------------------------------------------------------------------

func (p *Parser) parsePrimaryExpr() ast.Expression {
	if fn, ok := p.prefixParseFns[p.curToken.Type]; ok {
		return fn()
	}
	if p.curIs(token.IDENT) {
		return p.parseIdentPrimary()
	}
	p.errorf("unexpected token %s (%q) where an expression was expected", p.curToken.Type, p.curToken.Literal)
	return nil
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	return &ast.IntegerLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseDecimalLiteral() ast.Expression {
	return &ast.DecimalLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseDoubleLiteral() ast.Expression {
	return &ast.DoubleLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseVarRef() ast.Expression {
	return &ast.VarRef{Token: p.curToken, Name: p.curToken.Literal}
}

func (p *Parser) parseContextItemOrPath() ast.Expression {
	return &ast.ContextItemExpr{Token: p.curToken}
}

// parseParenOrSequence implements ParenthesizedExpr, with curToken == "(".
func (p *Parser) parseParenOrSequence() ast.Expression {
	tok := p.curToken
	if p.peekIs(token.RPAREN) {
		p.nextToken()
		return &ast.ParenExpr{Token: tok}
	}
	p.nextToken()
	inner := p.parseExpr()
	p.expectPeek(token.RPAREN)
	return &ast.ParenExpr{Token: tok, Inner: inner}
}

// parseSquareArray implements SquareArrayConstructor, with curToken == "[".
func (p *Parser) parseSquareArray() ast.Expression {
	tok := p.curToken
	arr := &ast.SquareArrayConstructor{Token: tok}
	if p.peekIs(token.RBRACKET) {
		p.nextToken()
		return arr
	}
	p.nextToken()
	arr.Members = append(arr.Members, p.parseExprSingle())
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		arr.Members = append(arr.Members, p.parseExprSingle())
	}
	p.expectPeek(token.RBRACKET)
	return arr
}

// parseIdentPrimary handles the primary forms that begin with an
// ordinary identifier: map/array/function constructors, named function
// references, and ordinary function calls.
func (p *Parser) parseIdentPrimary() ast.Expression {
	tok := p.curToken
	lit := p.curToken.Literal
	switch lit {
	case "map":
		if p.peekIs(token.LBRACE) {
			return p.parseMapConstructor()
		}
	case "array":
		if p.peekIs(token.LBRACE) {
			return p.parseCurlyArrayConstructor()
		}
	case "function":
		if p.peekIs(token.LPAREN) {
			return p.parseInlineFunctionExpr()
		}
	}
	prefix, local := splitQName(lit)
	if p.peekIs(token.HASH) {
		p.nextToken() // "#"
		if !p.expectPeek(token.INT) {
			return &ast.NamedFunctionRef{Token: tok, Prefix: prefix, Local: local}
		}
		arity, _ := strconv.Atoi(p.curToken.Literal)
		return &ast.NamedFunctionRef{Token: tok, Prefix: prefix, Local: local, Arity: arity}
	}
	if p.peekIs(token.LPAREN) {
		p.nextToken()
		args := p.parseArgumentList()
		return &ast.FunctionCall{Token: tok, Prefix: prefix, Local: local, Args: args}
	}
	p.errorf("unexpected identifier %q in expression position", lit)
	return &ast.FunctionCall{Token: tok, Prefix: prefix, Local: local}
}

// parseMapConstructor implements MapConstructor, with curToken on the
// literal "map" and peekToken == "{".
func (p *Parser) parseMapConstructor() ast.Expression {
	tok := p.curToken
	p.nextToken() // consume "map" -> cur = "{"
	m := &ast.MapConstructor{Token: tok}
	if p.peekIs(token.RBRACE) {
		p.nextToken()
		return m
	}
	p.nextToken()
	m.Entries = append(m.Entries, p.parseMapEntry())
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		m.Entries = append(m.Entries, p.parseMapEntry())
	}
	p.expectPeek(token.RBRACE)
	return m
}

func (p *Parser) parseMapEntry() ast.MapConstructorEntry {
	key := p.parseExprSingle()
	if !p.expectPeek(token.COLON) {
		return ast.MapConstructorEntry{Key: key}
	}
	p.nextToken()
	return ast.MapConstructorEntry{Key: key, Value: p.parseExprSingle()}
}

// parseCurlyArrayConstructor implements CurlyArrayConstructor, with
// curToken on the literal "array" and peekToken == "{".
func (p *Parser) parseCurlyArrayConstructor() ast.Expression {
	tok := p.curToken
	p.nextToken() // consume "array" -> cur = "{"
	if p.peekIs(token.RBRACE) {
		p.nextToken()
		return &ast.CurlyArrayConstructor{Token: tok}
	}
	p.nextToken()
	expr := p.parseExpr()
	p.expectPeek(token.RBRACE)
	return &ast.CurlyArrayConstructor{Token: tok, Expr: expr}
}

// parseInlineFunctionExpr implements InlineFunctionExpr, with curToken
// on the literal "function" and peekToken == "(".
func (p *Parser) parseInlineFunctionExpr() ast.Expression {
	tok := p.curToken
	p.nextToken() // consume "function" -> cur = "("
	fn := &ast.InlineFunctionExpr{Token: tok}
	if !p.peekIs(token.RPAREN) {
		p.nextToken()
		fn.Params = append(fn.Params, p.parseParam())
		for p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			fn.Params = append(fn.Params, p.parseParam())
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return fn
	}
	if p.peekIs(token.AS) {
		p.nextToken()
		p.nextToken()
		fn.ReturnType = p.parseSequenceType()
	}
	if !p.expectPeek(token.LBRACE) {
		return fn
	}
	if p.peekIs(token.RBRACE) {
		p.nextToken()
		return fn
	}
	p.nextToken()
	fn.Body = p.parseExpr()
	p.expectPeek(token.RBRACE)
	return fn
}

// parseParam parses one "$name (as SeqType)?", with curToken == VARREF.
func (p *Parser) parseParam() ast.Param {
	param := ast.Param{Name: p.curToken.Literal}
	if p.peekIs(token.AS) {
		p.nextToken()
		p.nextToken()
		param.SeqType = p.parseSequenceType()
	}
	return param
}

// -----------------------------------------------------------------------------
// SequenceType / ItemType
// -----------------------------------------------------------------------------

func (p *Parser) parseSequenceType() *ast.SequenceType {
	if p.curIs(token.IDENT) && p.curToken.Literal == "empty-sequence" && p.peekIs(token.LPAREN) {
		p.nextToken() // "("
		p.expectPeek(token.RPAREN)
		return &ast.SequenceType{IsEmptySequence: true}
	}
	item := p.parseItemType()
	st := &ast.SequenceType{ItemType: item}
	switch p.peekToken.Type {
	case token.QUESTION, token.STAR, token.PLUS:
		p.nextToken()
		st.Occurrence = p.curToken.Literal
	}
	return st
}

// parseItemType parses an ItemType: item(), a kind test, a generic
// function/map/array test, or an atomic/union type's EQName. Component
// types of function/map/array tests and kind-test name/type detail are
// not retained -- only enough is recorded (Kind, Generic, TypeName) to
// drive instance-of/treat/castable checks against the kind alone.
func (p *Parser) parseItemType() *ast.ItemTypeNode {
	if !p.curIs(token.IDENT) {
		p.errorf("expected a type name, got %s (%q)", p.curToken.Type, p.curToken.Literal)
		return &ast.ItemTypeNode{Kind: "item"}
	}
	lit := p.curToken.Literal
	if kn, ok := kindTestNames[lit]; ok && p.peekIs(token.LPAREN) {
		p.nextToken() // "("
		return &ast.ItemTypeNode{Kind: kn, Generic: p.skipGenericOrDetailedTypeArgs()}
	}
	if (lit == "item" || lit == "function" || lit == "map" || lit == "array") && p.peekIs(token.LPAREN) {
		p.nextToken() // "("
		return &ast.ItemTypeNode{Kind: lit, Generic: p.skipGenericOrDetailedTypeArgs()}
	}
	return &ast.ItemTypeNode{TypeName: lit}
}

// skipGenericOrDetailedTypeArgs consumes a kind/item test's parenthesised
// argument list, with curToken == "(" on entry, reporting whether it was
// the bare "(*)" generic form.
func (p *Parser) skipGenericOrDetailedTypeArgs() bool {
	if p.peekIs(token.STAR) {
		p.nextToken()
		p.expectPeek(token.RPAREN)
		return true
	}
	depth := 1
	for depth > 0 && !p.peekIs(token.EOF) {
		p.nextToken()
		switch p.curToken.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// FLWOR-lite / conditional / quantified expressions
// -----------------------------------------------------------------------------

// parseForExpr implements ForExpr, with curToken == "for".
func (p *Parser) parseForExpr() ast.Expression {
	tok := p.curToken
	fe := &ast.ForExpr{Token: tok}
	for {
		if !p.expectPeek(token.VARREF) {
			return fe
		}
		binding := ast.ForBinding{VarName: p.curToken.Literal}
		if p.peekIs(token.AS) {
			p.nextToken()
			p.nextToken()
			binding.SeqType = p.parseSequenceType()
		}
		if p.peekIs(token.AT_KW) {
			p.nextToken()
			if !p.expectPeek(token.VARREF) {
				return fe
			}
			binding.PosVar = p.curToken.Literal
		}
		if !p.expectPeek(token.IN) {
			return fe
		}
		p.nextToken()
		binding.Source = p.parseExprSingle()
		fe.Bindings = append(fe.Bindings, binding)
		if !p.peekIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RETURN) {
		return fe
	}
	p.nextToken()
	fe.Body = p.parseExprSingle()
	return fe
}

// parseLetExpr implements LetExpr, with curToken == "let".
func (p *Parser) parseLetExpr() ast.Expression {
	tok := p.curToken
	le := &ast.LetExpr{Token: tok}
	for {
		if !p.expectPeek(token.VARREF) {
			return le
		}
		binding := ast.LetBinding{VarName: p.curToken.Literal}
		if p.peekIs(token.AS) {
			p.nextToken()
			p.nextToken()
			binding.SeqType = p.parseSequenceType()
		}
		if !p.expectPeek(token.ASSIGN) {
			return le
		}
		p.nextToken()
		binding.Value = p.parseExprSingle()
		le.Bindings = append(le.Bindings, binding)
		if !p.peekIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RETURN) {
		return le
	}
	p.nextToken()
	le.Body = p.parseExprSingle()
	return le
}

// parseQuantifiedExpr implements QuantifiedExpr, with curToken == "some" or "every".
func (p *Parser) parseQuantifiedExpr() ast.Expression {
	tok := p.curToken
	qe := &ast.QuantifiedExpr{Token: tok, Universal: p.curIs(token.EVERY)}
	for {
		if !p.expectPeek(token.VARREF) {
			return qe
		}
		binding := ast.ForBinding{VarName: p.curToken.Literal}
		if p.peekIs(token.AS) {
			p.nextToken()
			p.nextToken()
			binding.SeqType = p.parseSequenceType()
		}
		if !p.expectPeek(token.IN) {
			return qe
		}
		p.nextToken()
		binding.Source = p.parseExprSingle()
		qe.Bindings = append(qe.Bindings, binding)
		if !p.peekIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.SATISFIES) {
		return qe
	}
	p.nextToken()
	qe.Cond = p.parseExprSingle()
	return qe
}

// parseIfExpr implements IfExpr, with curToken == "if".
func (p *Parser) parseIfExpr() ast.Expression {
	tok := p.curToken
	ie := &ast.IfExpr{Token: tok}
	if !p.expectPeek(token.LPAREN) {
		return ie
	}
	p.nextToken()
	ie.Cond = p.parseExpr()
	if !p.expectPeek(token.RPAREN) {
		return ie
	}
	if !p.expectPeek(token.THEN) {
		return ie
	}
	p.nextToken()
	ie.Then = p.parseExprSingle()
	if !p.expectPeek(token.ELSE) {
		return ie
	}
	p.nextToken()
	ie.Else = p.parseExprSingle()
	return ie
}
