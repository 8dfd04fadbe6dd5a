package qt3

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/arborxml/xpath/sequence"
)

// AssertionKind distinguishes the branches of the QT3 assertion tree
// (the <result> element's possible children), mirroring
// original_source/xee-qt/src/qt.rs's TestCaseResult enum one-for-one
// except for the three serialization-dependent kinds, which this
// engine reports as Unsupported (see Evaluate) since no XML serializer
// exists yet -- DESIGN.md records that gap.
type AssertionKind int

const (
	KindAssert AssertionKind = iota
	KindAssertEq
	KindAssertCount
	KindAssertDeepEq
	KindAssertPermutation
	KindAssertEmpty
	KindAssertTrue
	KindAssertFalse
	KindAssertStringValue
	KindAssertType
	KindError
	KindAllOf
	KindAnyOf
	KindNot
	KindUnsupported
)

// Assertion is one node of a <result> tree: a leaf check (assert,
// assert-eq, ...) or a boolean combinator (all-of/any-of/not) over
// nested Assertions.
type Assertion struct {
	Kind           AssertionKind
	Text           string
	NormalizeSpace bool
	Children       []*Assertion
}

type resultXML struct {
	Inner []byte `xml:",innerxml"`
}

// parseResult decodes a <result> element's single child into an
// Assertion tree, walking raw tokens (rather than struct-tag
// unmarshaling) because the child is one of many heterogeneous
// element kinds and nests arbitrarily under all-of/any-of/not -- the
// same token-stream idiom tree/memtree uses to build its element tree
// from a stdlib xml.Decoder, since no pack repo ships a polymorphic-XML
// unmarshaling library.
func parseResult(r resultXML) (*Assertion, error) {
	dec := xml.NewDecoder(strings.NewReader("<r>" + string(r.Inner) + "</r>"))
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("qt3: parse result: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "r" {
			continue
		}
		if start, ok := tok.(xml.StartElement); ok {
			return parseAssertionElement(dec, start)
		}
	}
}

func parseAssertionElement(dec *xml.Decoder, start xml.StartElement) (*Assertion, error) {
	a := &Assertion{Kind: kindOf(start.Name.Local)}
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "normalize-space":
			a.NormalizeSpace = attr.Value == "true" || attr.Value == "1"
		case "code":
			// <error code="..."/> carries its expected error code as an
			// attribute, not character content.
			a.Text = attr.Value
		}
	}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("qt3: parse %s: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseAssertionElement(dec, t)
			if err != nil {
				return nil, err
			}
			a.Children = append(a.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				if trimmed := strings.TrimSpace(text.String()); trimmed != "" {
					a.Text = trimmed
				}
				return a, nil
			}
		}
	}
}

func kindOf(local string) AssertionKind {
	switch local {
	case "assert":
		return KindAssert
	case "assert-eq":
		return KindAssertEq
	case "assert-count":
		return KindAssertCount
	case "assert-deep-eq":
		return KindAssertDeepEq
	case "assert-permutation":
		return KindAssertPermutation
	case "assert-empty":
		return KindAssertEmpty
	case "assert-true":
		return KindAssertTrue
	case "assert-false":
		return KindAssertFalse
	case "assert-string-value":
		return KindAssertStringValue
	case "assert-type":
		return KindAssertType
	case "error":
		return KindError
	case "all-of":
		return KindAllOf
	case "any-of":
		return KindAnyOf
	case "not":
		return KindNot
	default:
		// assert-xml, serialization-matches, assert-serialization-error,
		// and any future kind this runner doesn't know.
		return KindUnsupported
	}
}

// Evaluate checks actual (the test expression's real result sequence)
// against a, reporting whether it satisfies the assertion. eval runs a
// synthetic XPath expression with $result bound to actual -- the
// driver (runner.go) supplies eval once per test-case so every nested
// Assertion shares the same compiled-params machinery rather than each
// leaf re-deriving its own binding.
func (a *Assertion) Evaluate(actual sequence.Sequence, eval func(expr string) (sequence.Sequence, error)) (bool, string, error) {
	switch a.Kind {
	case KindAllOf:
		for _, c := range a.Children {
			ok, reason, err := c.Evaluate(actual, eval)
			if err != nil {
				return false, "", err
			}
			if !ok {
				return false, reason, nil
			}
		}
		return true, "", nil
	case KindAnyOf:
		var lastReason string
		for _, c := range a.Children {
			ok, reason, err := c.Evaluate(actual, eval)
			if err != nil {
				return false, "", err
			}
			if ok {
				return true, "", nil
			}
			lastReason = reason
		}
		return false, lastReason, nil
	case KindNot:
		if len(a.Children) != 1 {
			return false, "not() requires exactly one child", nil
		}
		ok, _, err := a.Children[0].Evaluate(actual, eval)
		if err != nil {
			return false, "", err
		}
		return !ok, "", nil
	case KindAssert:
		return evalPredicate(eval, a.Text)
	case KindAssertEq:
		return evalPredicate(eval, fmt.Sprintf("$result eq (%s)", a.Text))
	case KindAssertCount:
		return evalPredicate(eval, fmt.Sprintf("count($result) eq (%s)", a.Text))
	case KindAssertDeepEq:
		return evalPredicate(eval, fmt.Sprintf("deep-equal($result, (%s))", a.Text))
	case KindAssertPermutation:
		return evalPredicate(eval, fmt.Sprintf("count($result) eq count(%s) and every $x in $result satisfies some $y in (%s) satisfies deep-equal($x, $y)", a.Text, a.Text))
	case KindAssertEmpty:
		return evalPredicate(eval, "empty($result)")
	case KindAssertTrue:
		return evalPredicate(eval, "$result eq true()")
	case KindAssertFalse:
		return evalPredicate(eval, "$result eq false()")
	case KindAssertType:
		return evalPredicate(eval, fmt.Sprintf("$result instance of %s", a.Text))
	case KindAssertStringValue:
		got, err := stringValueOf(actual)
		if err != nil {
			return false, "", err
		}
		want := a.Text
		if a.NormalizeSpace {
			got = normalizeSpace(got)
			want = normalizeSpace(want)
		}
		if got != want {
			return false, fmt.Sprintf("string value %q, want %q", got, want), nil
		}
		return true, "", nil
	case KindError:
		// handled by the caller before Evaluate is reached (an
		// expected-error assertion is checked against the compile/run
		// error, not against a successful actual result); reaching
		// here means the test expression did not error.
		return false, fmt.Sprintf("expected error %q, expression succeeded", a.Text), nil
	case KindUnsupported:
		return false, "assertion kind requires XML serialization, not implemented", nil
	}
	return false, "unrecognized assertion kind", nil
}

// ExpectedErrorCode returns the error code a KindError leaf names, and
// whether a is (possibly through all-of/any-of wrapping a single
// leaf) exactly such a leaf -- used by the runner to special-case a
// test-case whose whole point is that evaluation fails.
func (a *Assertion) ExpectedErrorCode() (string, bool) {
	if a.Kind == KindError {
		code := strings.TrimSpace(a.Text)
		if code == "" {
			code = "*"
		}
		return code, true
	}
	if (a.Kind == KindAllOf || a.Kind == KindAnyOf) && len(a.Children) == 1 {
		return a.Children[0].ExpectedErrorCode()
	}
	return "", false
}

func evalPredicate(eval func(string) (sequence.Sequence, error), expr string) (bool, string, error) {
	result, err := eval(expr)
	if err != nil {
		return false, "", err
	}
	ok, err := result.EffectiveBooleanValue()
	if err != nil {
		return false, "", err
	}
	if !ok {
		return false, fmt.Sprintf("%s did not hold", expr), nil
	}
	return true, "", nil
}

func stringValueOf(s sequence.Sequence) (string, error) {
	vals, err := s.Atomized()
	if err != nil {
		return "", err
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.StringValue()
	}
	return strings.Join(parts, " "), nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
