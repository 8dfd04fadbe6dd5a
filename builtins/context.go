// Package builtins implements the static XPath/Functions-and-Operators
// function library (§4.H of the spec): a registry keyed by (expanded
// QName, arity), each entry carrying a Go handler. The package depends
// only on sequence/atomic/schema/tree/xerr, never on package interp, so
// that interp can depend on builtins without an import cycle -- a
// builtin that needs to invoke a function item (for-each, filter,
// sort, ...) does so through the Context interface the interpreter
// supplies at call time, not by importing the interpreter directly.
package builtins

import (
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/tree"
)

// Caller lets a builtin invoke an arbitrary function item (a user
// closure, a named function reference, a map or an array used as a
// function) without knowing its concrete representation.
type Caller interface {
	Call(fn sequence.Function, args []sequence.Sequence) (sequence.Sequence, error)
}

// Context is the dynamic evaluation context a builtin handler runs
// with: the current focus (context item/position/last), the static
// context values that affect string comparison and dates, and the
// document pool, plus the Caller for higher-order functions.
type Context interface {
	Caller
	ContextItem() (sequence.Item, bool)
	Position() (int, bool)
	Last() (int, bool)
	ImplicitTimezoneMinutes() int
	DefaultCollation() atomic.Collation
	Collation(uri string) (atomic.Collation, bool)
	Store() tree.Store
	StaticBaseURI() string
	CurrentDateTime() atomic.DateTime
}

// Handler is one builtin function's implementation. args has exactly
// Entry.Arity elements, in declaration order.
type Handler func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error)

// Entry is one registered (name, arity) overload.
type Entry struct {
	NamespaceURI string
	LocalName    string
	Arity        int
	Handler      Handler
}

// FuncName returns entry's expanded QName as "{uri}local", the form
// sequence.Function.FuncName() reports for a builtin wrapped as a
// first-class function value.
func (e Entry) FuncName() string {
	return "{" + e.NamespaceURI + "}" + e.LocalName
}

// FnNamespace is the fn: namespace URI every unprefixed function call
// resolves to by default (§4.E).
const FnNamespace = "http://www.w3.org/2005/xpath-functions"

// MapNamespace and ArrayNamespace are the map:/array: function
// namespaces.
const (
	MapNamespace   = "http://www.w3.org/2005/xpath-functions/map"
	ArrayNamespace = "http://www.w3.org/2005/xpath-functions/array"
	MathNamespace  = "http://www.w3.org/2005/xpath-functions/math"
)
