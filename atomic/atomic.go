// Package atomic implements the discriminated atomic value model (§4.B,
// §3 of the spec): every XML Schema atomic type the engine supports, with
// casts, effective-boolean-value, string-value, arithmetic, comparison
// and hashing. Every op here is pure and immutable; no op panics --
// failures always surface as an *xerr.Error (§4.B "Panics are
// forbidden").
package atomic

import (
	"github.com/arborxml/xpath/schema"
)

// Value is the tagged-union interface every atomic kind implements. It
// intentionally exposes only the handful of operations every kind can
// answer without failing; everything that can fail (casts, arithmetic,
// comparison) lives in free functions in this package so their error
// paths are visible at the call site rather than swallowed behind an
// interface method that "can't" return an error.
type Value interface {
	// Type returns the precise schema type this value was constructed
	// or cast as (e.g. xs:long, not just xs:integer, even though both
	// share the Integer Go representation).
	Type() *schema.Type
	// StringValue returns the canonical lexical representation (§4.B
	// "String-value").
	StringValue() string
	// isAtomic is unexported so Value cannot be implemented outside
	// this package -- the set of atomic kinds is closed.
	isAtomic()
}

// base is embedded by every concrete kind to carry its precise schema
// type and give it the unexported isAtomic marker for free.
type base struct {
	typ *schema.Type
}

func (base) isAtomic() {}

func (b base) Type() *schema.Type { return b.typ }

// Kind reports which Go representation underlies v, used by dispatch
// tables (arithmetic, comparison) that need to switch on representation
// rather than precise schema type.
func Kind(v Value) schema.Kind {
	return v.Type().Kind()
}
