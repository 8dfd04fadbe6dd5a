package sequence

import (
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/xerr"
)

// Atomized implements atomization (§4.C, GLOSSARY): nodes yield their
// typed value(s), arrays recursively flatten then atomize each member,
// functions other than arrays yield FOTY0013.
func (s Sequence) Atomized() ([]atomic.Value, error) {
	items := s.Items()
	out := make([]atomic.Value, 0, len(items))
	for _, it := range items {
		vs, err := atomizeItem(it)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

func atomizeItem(it Item) ([]atomic.Value, error) {
	switch v := it.(type) {
	case AtomicItem:
		return []atomic.Value{v.Value}, nil
	case NodeItem:
		tvs, err := v.Node.TypedValue()
		if err != nil {
			return nil, xerr.Wrap(err)
		}
		out := make([]atomic.Value, 0, len(tvs))
		for _, tv := range tvs {
			val, err := typedAtomicToValue(tv)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case *Array:
		var out []atomic.Value
		for _, member := range v.items {
			vs, err := member.Atomized()
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	case Function:
		return nil, xerr.New(xerr.FOTY0013, nil, "%s is a function item and cannot be atomized", v.FuncName())
	}
	return nil, xerr.New(xerr.FOTY0013, nil, "item cannot be atomized")
}

// EffectiveBooleanValue implements the sequence-level EBV coercion
// (§4.C): empty -> false; singleton node -> true; singleton atomic ->
// atomic.EffectiveBoolean; anything else -> FORG0006.
func (s Sequence) EffectiveBooleanValue() (bool, error) {
	switch s.Len() {
	case 0:
		return false, nil
	case 1:
		switch it := s.Get(0).(type) {
		case NodeItem:
			return true, nil
		case AtomicItem:
			return atomic.EffectiveBoolean(it.Value)
		}
		return false, xerr.New(xerr.FORG0006, nil, "effective boolean value not defined for a function item")
	}
	return false, xerr.New(xerr.FORG0006, nil, "effective boolean value not defined for a sequence of length %d", s.Len())
}
