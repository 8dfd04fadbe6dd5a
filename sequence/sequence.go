package sequence

import (
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/xerr"
)

type repr int

const (
	reprEmpty repr = iota
	reprOne
	reprMany
	reprRange
)

// maxRangeSize bounds `lo to hi` materialisation (§3 "Sequence": "a
// maximum size bound (≈ 2^25) to refuse unreasonable ranges").
const maxRangeSize = 1 << 25

// Sequence is an ordered, flat, finite, immutable collection of items
// (§3). The four internal representations exist purely for allocation
// economy (§4.C) and are never observable from outside this package.
type Sequence struct {
	r        repr
	one      Item
	many     []Item
	rangeLo  int64
	rangeHi  int64
}

// Empty is the empty sequence.
var Empty = Sequence{r: reprEmpty}

// NewOne builds a singleton sequence.
func NewOne(it Item) Sequence { return Sequence{r: reprOne, one: it} }

// NewMany builds a sequence from a materialised slice of items. The
// slice is not copied; callers must treat it as immutable afterward.
func NewMany(items []Item) Sequence {
	switch len(items) {
	case 0:
		return Empty
	case 1:
		return NewOne(items[0])
	default:
		return Sequence{r: reprMany, many: items}
	}
}

// NewRange builds the lazily-materialising `lo to hi` sequence of
// xs:integer. lo > hi yields Empty (XPath's `to` operator convention).
func NewRange(lo, hi int64) (Sequence, error) {
	if lo > hi {
		return Empty, nil
	}
	if hi-lo+1 > maxRangeSize {
		return Sequence{}, xerr.New(xerr.FOAR0002, nil, "range %d to %d exceeds the maximum sequence size", lo, hi)
	}
	return Sequence{r: reprRange, rangeLo: lo, rangeHi: hi}, nil
}

// Len returns the number of items in the sequence.
func (s Sequence) Len() int {
	switch s.r {
	case reprEmpty:
		return 0
	case reprOne:
		return 1
	case reprMany:
		return len(s.many)
	case reprRange:
		return int(s.rangeHi - s.rangeLo + 1)
	}
	return 0
}

// IsEmpty reports whether the sequence has no items.
func (s Sequence) IsEmpty() bool { return s.Len() == 0 }

// Get returns the i'th item (0-based). Panics on out-of-range index,
// matching Go slice semantics -- callers are expected to check Len first
// (no XPath operation indexes a sequence without first establishing its
// length via fn:count or a position variable).
func (s Sequence) Get(i int) Item {
	switch s.r {
	case reprOne:
		if i != 0 {
			panic("sequence: index out of range")
		}
		return s.one
	case reprMany:
		return s.many[i]
	case reprRange:
		if i < 0 || i >= s.Len() {
			panic("sequence: index out of range")
		}
		return AtomicItem{Value: atomic.NewIntegerFromInt64(schema.Integer, s.rangeLo+int64(i))}
	}
	panic("sequence: index out of range")
}

// Items materialises the sequence into a concrete slice. Many call sites
// need random access or repeated iteration; this is the single place
// that pays the Range-materialisation cost.
func (s Sequence) Items() []Item {
	switch s.r {
	case reprEmpty:
		return nil
	case reprOne:
		return []Item{s.one}
	case reprMany:
		return s.many
	case reprRange:
		out := make([]Item, s.Len())
		for i := range out {
			out[i] = AtomicItem{Value: atomic.NewIntegerFromInt64(schema.Integer, s.rangeLo+int64(i))}
		}
		return out
	}
	return nil
}

// One returns the sole item in a singleton sequence, or XPTY0004
// otherwise (§4.C).
func (s Sequence) One() (Item, error) {
	if s.Len() != 1 {
		return nil, xerr.New(xerr.XPTY0004, nil, "expected exactly one item, got %d", s.Len())
	}
	return s.Get(0), nil
}

// Option returns (item, true) for a singleton, (nil, false) for empty,
// and XPTY0004 for anything longer (§4.C).
func (s Sequence) Option() (Item, bool, error) {
	switch s.Len() {
	case 0:
		return nil, false, nil
	case 1:
		return s.Get(0), true, nil
	}
	return nil, false, xerr.New(xerr.XPTY0004, nil, "expected zero or one items, got %d", s.Len())
}

// Concat appends two sequences (the `,` / Comma operator, §4.F).
func Concat(a, b Sequence) Sequence {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	out := make([]Item, 0, a.Len()+b.Len())
	out = append(out, a.Items()...)
	out = append(out, b.Items()...)
	return NewMany(out)
}
