// Package xerr defines the XPath/XQuery error taxonomy shared by every
// layer of the engine (§7 of the spec): every fallible operation returns a
// Go error that is, or wraps, an *Error carrying one of these codes.
package xerr

import "fmt"

// Code is one of the flat-namespace XPath/XQuery error codes (e.g.
// XPTY0004, FOAR0002). The core never invents new codes beyond those
// enumerated in spec.md §7.
type Code string

const (
	// Type errors.
	XPTY0004 Code = "XPTY0004" // operand type mismatch / not comparable
	XPDY0002 Code = "XPDY0002" // no context item where one is required
	XPDY0050 Code = "XPDY0050" // treat as: dynamic type does not match the sequence type

	// Function/operator errors (FO namespace).
	FORG0001 Code = "FORG0001" // invalid value for cast/constructor (lexical)
	FORG0005 Code = "FORG0005" // fn:zero-or-one called with seq of length > 1
	FORG0006 Code = "FORG0006" // invalid argument type (effective boolean value, etc.)
	FORG0008 Code = "FORG0008" // both arguments to date/time comparison must have same tz handling
	FORG0009 Code = "FORG0009" // error in resolving relative URI
	FOAR0001 Code = "FOAR0001" // division by zero
	FOAR0002 Code = "FOAR0002" // numeric operation overflow/underflow
	FOCA0002 Code = "FOCA0002" // invalid lexical value for cast to numeric
	FOCA0003 Code = "FOCA0003" // decimal/integer value too large (range)
	FOTY0012 Code = "FOTY0012" // argument does not have a typed value
	FOTY0013 Code = "FOTY0013" // argument is a function item, cannot atomize
	FOTY0014 Code = "FOTY0014" // argument to fn:data() is a function item
	FOTY0015 Code = "FOTY0015" // argument to fn:deep-equal is a function item (non map/array)
	FOJS0001 Code = "FOJS0001" // invalid JSON
	FOJS0003 Code = "FOJS0003" // duplicate key in map:merge with policy "reject"
	FOJS0005 Code = "FOJS0005" // invalid options map (e.g. unknown duplicates policy)
	FOCH0003 Code = "FOCH0003" // unsupported normalization form
	FORX0001 Code = "FORX0001" // invalid regular expression flags
	FORX0002 Code = "FORX0002" // invalid regular expression
	FOAY0001 Code = "FOAY0001" // array index out of bounds

	// Serialization (SE/SEPM namespace).
	SEPM0016 Code = "SEPM0016" // unknown serialization method

	// Static/dynamic parsing and misc.
	XPST0003 Code = "XPST0003" // static syntax error
	XPST0005 Code = "XPST0005" // axis step empty-sequence static type error
	XPST0008 Code = "XPST0008" // undeclared name
	XPST0017 Code = "XPST0017" // unknown function or wrong arity
	XPST0051 Code = "XPST0051" // unknown atomic type in cast
	XPST0080 Code = "XPST0080" // target type of cast may not be NOTATION/anyAtomicType
	XPST0081 Code = "XPST0081" // unresolvable QName prefix
	XQST0039 Code = "XQST0039" // duplicate function parameter name
	XQTY0024 Code = "XQTY0024" // attribute/namespace node after non-attribute child in constructor
	FOER0000 Code = "FOER0000" // unidentified error (fn:error with no code)
)

// Error is the concrete XPath error value: a code, an optional source
// span, and a human-readable message. It implements the error interface
// so every fallible core operation keeps the ordinary Go `(T, error)`
// shape while still letting callers recover the structured code via
// errors.As.
type Error struct {
	Code    Code
	Span    *Span
	Message string
}

// Span is a half-open byte range into the original XPath source text.
// An Error with a nil Span has no span known.
type Span struct {
	Start, End int
}

func (e *Error) Error() string {
	if e.Span != nil {
		return fmt.Sprintf("%s: %s (at %d:%d)", e.Code, e.Message, e.Span.Start, e.Span.End)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New constructs an *Error with a formatted message.
func New(code Code, span *Span, format string, args ...any) *Error {
	return &Error{Code: code, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Wrap produces a FOER0000 carrying an arbitrary Go error's text, used
// when a host callback (e.g. a tree-model lookup) fails with a plain
// error and the interpreter needs to abort the program with a code.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Code: FOER0000, Message: err.Error()}
}

// WithSpan returns a copy of e with Span set, for relocating an error's
// offset into an outer source (e.g. an XSLT attribute value template
// embedding an XPath expression). Nothing in this module calls it.
func (e *Error) WithSpan(span Span) *Error {
	cp := *e
	cp.Span = &span
	return &cp
}
