// Package xpath is an XPath 3.1 query engine: a lexer, a recursive-
// descent parser, an IR lowering/constant-folding pass, a bytecode
// compiler and a stack-machine interpreter, plus a partial XSLT 3.0
// pattern matcher and an XPath-functions QT3 test runner (see
// subpackages xslt and qt3).
//
// Example usage:
//
//	prog, err := xpath.Compile("//book[price < 30]/title")
//	if err != nil {
//	    // handle a parse/compile error
//	}
//	interp := xpath.NewInterpreter(xpath.WithStore(store))
//	result, err := xpath.Run(interp, prog, xpath.RunOptions{ContextNode: doc, HasContext: true})
package xpath

import (
	"fmt"
	"strings"

	"github.com/arborxml/xpath/ast"
	"github.com/arborxml/xpath/compiler"
	"github.com/arborxml/xpath/interp"
	"github.com/arborxml/xpath/ir"
	"github.com/arborxml/xpath/lexer"
	"github.com/arborxml/xpath/parser"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/token"
	"github.com/arborxml/xpath/tree"
)

// Program is a parsed, lowered, folded and compiled XPath expression,
// ready to be run by an Interpreter. It is immutable and safe to run
// concurrently from multiple goroutines (each Run call gets its own
// activation frame).
type Program struct {
	Source string
	Proto  *compiler.Proto
}

// Namespace is a single static-context namespace binding, supplied to
// Compile to resolve prefixed names in the expression (e.g. `atom:id`).
type Namespace struct {
	Prefix string
	URI    string
}

// CompileOptions configures namespace resolution and the default
// element/function namespaces used while lowering a parsed expression
// to IR (§6 "static context").
type CompileOptions struct {
	Namespaces        []Namespace
	DefaultElementNS  string
	DefaultFunctionNS string
}

// Parse parses source as a standalone XPath expression and returns its
// AST, without lowering or compiling it. Exposed for callers (e.g. the
// xslt package) that need to inspect the parse tree directly.
func Parse(source string) (*ast.Program, error) {
	l := lexer.New(source)
	p := parser.New(l)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("xpath: parse error: %s", strings.Join(errs, "; "))
	}
	return prog, nil
}

// Tokenize returns every token the lexer produces for source, useful
// for diagnostics and the `xpq tokenize` CLI subcommand.
func Tokenize(source string) []token.Token {
	l := lexer.New(source)
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

// Compile parses, lowers, constant-folds and compiles source into a
// runnable Program.
func Compile(source string, opts ...CompileOptions) (*Program, error) {
	prog, err := Parse(source)
	if err != nil {
		return nil, err
	}
	var opt CompileOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	table := map[string]string{}
	for _, ns := range opt.Namespaces {
		table[ns.Prefix] = ns.URI
	}
	lw := ir.NewLowerer(func(prefix string) (string, bool) {
		uri, ok := table[prefix]
		return uri, ok
	})
	if opt.DefaultElementNS != "" {
		lw.DefaultElementNS = opt.DefaultElementNS
	}
	if opt.DefaultFunctionNS != "" {
		lw.DefaultFunctionNS = opt.DefaultFunctionNS
	}
	node, err := lw.Lower(prog.Expr)
	if err != nil {
		return nil, err
	}
	node = ir.Fold(node)
	proto, err := compiler.Compile(node)
	if err != nil {
		return nil, err
	}
	return &Program{Source: source, Proto: proto}, nil
}

// CompileWithParams parses, lowers, folds and compiles source into a
// Program that takes params as named positional parameters instead of
// running against the dynamic context's variable bindings -- used by
// package qt3 to bind the QT3 test/assertion language's external
// variables (environment `<param>` declarations, the assertion
// language's `$result`) without threading a full variable-binding
// dynamic context through the compiler.
func CompileWithParams(source string, params []string, opts ...CompileOptions) (*Program, error) {
	prog, err := Parse(source)
	if err != nil {
		return nil, err
	}
	var opt CompileOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	table := map[string]string{}
	for _, ns := range opt.Namespaces {
		table[ns.Prefix] = ns.URI
	}
	lw := ir.NewLowerer(func(prefix string) (string, bool) {
		uri, ok := table[prefix]
		return uri, ok
	})
	if opt.DefaultElementNS != "" {
		lw.DefaultElementNS = opt.DefaultElementNS
	}
	if opt.DefaultFunctionNS != "" {
		lw.DefaultFunctionNS = opt.DefaultFunctionNS
	}
	node, err := lw.Lower(prog.Expr)
	if err != nil {
		return nil, err
	}
	node = ir.Fold(node)
	proto, err := compiler.CompileParams(node, params)
	if err != nil {
		return nil, err
	}
	return &Program{Source: source, Proto: proto}, nil
}

// CallWithParams runs prog (built by CompileWithParams) against it,
// binding args positionally to prog's parameters.
func CallWithParams(it *Interpreter, prog *Program, args []sequence.Sequence) (sequence.Sequence, error) {
	return it.CallProto(prog.Proto, args)
}

// CallWithParamsAndContext is CallWithParams plus an initial context
// node, for a prog compiled by CompileWithParams whose expression also
// references "." -- used by package qt3 when a test-case's environment
// both loads a source document and declares external params.
func CallWithParamsAndContext(it *Interpreter, prog *Program, contextNode tree.Node, hasContext bool, args []sequence.Sequence) (sequence.Sequence, error) {
	var item sequence.Item
	if hasContext {
		item = sequence.WrapNode(contextNode)
	}
	return it.CallProtoWithContext(prog.Proto, item, hasContext, args)
}

// Interpreter re-exports interp.Interpreter under this package's public
// surface, so callers need only import "github.com/arborxml/xpath".
type Interpreter = interp.Interpreter

// Option re-exports interp.Option.
type Option = interp.Option

// NewInterpreter builds an Interpreter from the given options (store,
// implicit timezone, collations, clock).
func NewInterpreter(opts ...Option) *Interpreter {
	return interp.New(opts...)
}

// Re-export the interp functional options so callers never need to
// import package interp directly.
var (
	WithStore            = interp.WithStore
	WithStaticBaseURI    = interp.WithStaticBaseURI
	WithImplicitTimezone = interp.WithImplicitTimezone
	WithCollation        = interp.WithCollation
	WithDefaultCollation = interp.WithDefaultCollation
	WithClock            = interp.WithClock
)

// RunOptions supplies a Program's initial dynamic context item.
type RunOptions struct {
	ContextNode tree.Node
	HasContext  bool
}

// Run evaluates prog against it's configured dynamic context, starting
// from opts.ContextNode if HasContext is set.
func Run(it *Interpreter, prog *Program, opts RunOptions) (sequence.Sequence, error) {
	var item sequence.Item
	if opts.HasContext {
		item = sequence.WrapNode(opts.ContextNode)
	}
	return it.Eval(prog.Proto, item, opts.HasContext)
}

// Eval is a one-shot convenience wrapper combining Compile, a fresh
// default Interpreter and Run, for callers that need neither to reuse
// a compiled Program nor to configure the dynamic context.
func Eval(source string, contextNode tree.Node) (sequence.Sequence, error) {
	prog, err := Compile(source)
	if err != nil {
		return sequence.Sequence{}, err
	}
	it := NewInterpreter()
	return Run(it, prog, RunOptions{ContextNode: contextNode, HasContext: contextNode != nil})
}
