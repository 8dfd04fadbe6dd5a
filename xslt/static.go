package xslt

import (
	"fmt"
	"strings"

	"github.com/arborxml/xpath"
	"github.com/arborxml/xpath/sequence"
)

// AVTSegment is one piece of a parsed attribute value template: either
// literal text or an embedded XPath expression (XSLT 3.0 §5.6.2).
type AVTSegment struct {
	Text   string
	Expr   string
	IsExpr bool
}

// ParseAVT splits s into literal-text and embedded-expression segments:
// `{{` and `}}` are literal `{`/`}`, and `{expr}` embeds expr, with
// brace-depth tracked through the expression so a nested constructor or
// map/array literal's own braces don't end it early. A lone `}` outside
// an expression is a literal `}` only when doubled; singled, it is a
// static error per the grammar, grounded on xee-xslt-ast's
// attribute-value-template handling named in staticeval.rs's AVT
// evaluation path.
func ParseAVT(s string) ([]AVTSegment, error) {
	var segs []AVTSegment
	var text strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				text.WriteByte('{')
				i += 2
				continue
			}
			if text.Len() > 0 {
				segs = append(segs, AVTSegment{Text: text.String()})
				text.Reset()
			}
			expr, next, err := scanAVTExpr(s, i+1)
			if err != nil {
				return nil, err
			}
			segs = append(segs, AVTSegment{Expr: expr, IsExpr: true})
			i = next
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				text.WriteByte('}')
				i += 2
				continue
			}
			return nil, fmt.Errorf("xslt: unmatched %q in attribute value template %q", "}", s)
		default:
			text.WriteByte(c)
			i++
		}
	}
	if text.Len() > 0 {
		segs = append(segs, AVTSegment{Text: text.String()})
	}
	return segs, nil
}

// scanAVTExpr reads an embedded expression starting at s[start]
// (just past the opening `{`), tracking brace depth and skipping over
// quoted string literals so a `}` inside a string or a nested
// constructor doesn't end the expression early, and returns the
// expression text plus the index just past the closing `}`.
func scanAVTExpr(s string, start int) (string, int, error) {
	depth := 0
	i := start
	for i < len(s) {
		c := s[i]
		switch c {
		case '\'', '"':
			quote := c
			i++
			for i < len(s) && s[i] != quote {
				i++
			}
			i++
			continue
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return s[start:i], i + 1, nil
			}
			depth--
		}
		i++
	}
	return "", 0, fmt.Errorf("xslt: unterminated expression in attribute value template starting at %q", s[start:])
}

// StaticScope accumulates static `xsl:variable`/`xsl:param` bindings in
// declaration order (§ "static eval", SPEC_FULL.md supplement 6),
// evaluated eagerly so a later declaration's select expression -- and
// any attribute value template evaluated against the scope -- can
// reference an earlier one by name. A later declaration of the same
// name replaces the earlier one, matching the original's
// "static_global_variables.insert" shadowing (a static param shadows a
// same-named static variable declared before it).
type StaticScope struct {
	names  []string
	values map[string]sequence.Sequence
}

// NewStaticScope returns an empty scope.
func NewStaticScope() *StaticScope {
	return &StaticScope{values: map[string]sequence.Sequence{}}
}

// Declare evaluates select (an XPath expression with no context item,
// referencing only names already in scope) and binds its result to
// name, shadowing any earlier declaration of the same name.
func (s *StaticScope) Declare(name, selectExpr string) error {
	prog, err := xpath.CompileWithParams(selectExpr, s.names)
	if err != nil {
		return fmt.Errorf("xslt: static variable %q: %w", name, err)
	}
	args := make([]sequence.Sequence, len(s.names))
	for i, n := range s.names {
		args[i] = s.values[n]
	}
	it := xpath.NewInterpreter()
	val, err := xpath.CallWithParams(it, prog, args)
	if err != nil {
		return fmt.Errorf("xslt: static variable %q: %w", name, err)
	}
	if _, exists := s.values[name]; !exists {
		s.names = append(s.names, name)
	}
	s.values[name] = val
	return nil
}

// Lookup returns name's statically-evaluated value, if declared.
func (s *StaticScope) Lookup(name string) (sequence.Sequence, bool) {
	v, ok := s.values[name]
	return v, ok
}

// EvaluateAVT renders segs to its final string value: each expression
// segment is compiled and run with every name currently in scope bound
// positionally (the same mechanism `qt3` uses to bind `$result`),
// atomized and space-joined per XDM's string-value rule, then
// concatenated with the literal text segments in order.
func (s *StaticScope) EvaluateAVT(segs []AVTSegment) (string, error) {
	var out strings.Builder
	it := xpath.NewInterpreter()
	for _, seg := range segs {
		if !seg.IsExpr {
			out.WriteString(seg.Text)
			continue
		}
		prog, err := xpath.CompileWithParams(seg.Expr, s.names)
		if err != nil {
			return "", fmt.Errorf("xslt: attribute value template expression %q: %w", seg.Expr, err)
		}
		args := make([]sequence.Sequence, len(s.names))
		for i, n := range s.names {
			args[i] = s.values[n]
		}
		val, err := xpath.CallWithParams(it, prog, args)
		if err != nil {
			return "", fmt.Errorf("xslt: attribute value template expression %q: %w", seg.Expr, err)
		}
		vals, err := val.Atomized()
		if err != nil {
			return "", err
		}
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = v.StringValue()
		}
		out.WriteString(strings.Join(parts, " "))
	}
	return out.String(), nil
}
