package interp

import (
	"github.com/arborxml/xpath/compiler"
	"github.com/arborxml/xpath/sequence"
)

// Closure is a compiled function value: a Proto plus the values it
// captured from its enclosing scope at OpMakeClosure time. It
// implements sequence.Function so it can sit in a Sequence (passed to
// fn:for-each, stored in a variable, returned as a result) without the
// sequence package needing to know about package interp.
//
// ambient is the focus active in the enclosing frame when the closure
// was built. A body that does not bind its own context item (a `for`
// loop body, an inline function body) sees this focus for "."; a body
// that does bind one (a path predicate, a simple-map body) has its
// ambient focus overridden per invocation instead -- see invokeClosure in vm.go.
type Closure struct {
	proto    *compiler.Proto
	captured []sequence.Sequence
	ambient  focus
}

func (*Closure) ItemKind() sequence.ItemKind { return sequence.KindFunction }
func (*Closure) FuncName() string            { return "" }
func (c *Closure) Arity() int                { return len(c.proto.Params) }

// funcRef is the function item OpFuncRef produces for a `name#arity`
// reference: a static call target resolved against the registry only
// when actually invoked, never eagerly.
type funcRef struct {
	target compiler.CallTarget
}

func (*funcRef) ItemKind() sequence.ItemKind { return sequence.KindFunction }
func (f *funcRef) FuncName() string          { return "{" + f.target.NamespaceURI + "}" + f.target.LocalName }
func (f *funcRef) Arity() int                { return f.target.Arity }
