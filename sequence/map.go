package sequence

import (
	"github.com/arborxml/xpath/atomic"
)

// Map is the XPath map function item: an unordered collection of
// key/value entries keyed by atomic.MapKey (§3 "map: ... keyed by the
// MapKey canonicalisation"). Maps are immutable; every mutator returns
// a new *Map. Insertion order is preserved for map:for-each / the
// serializer, even though lookup and equality ignore it.
type Map struct {
	order             []atomic.MapKey
	keys              map[atomic.MapKey]atomic.Value
	vals              map[atomic.MapKey]Sequence
	implicitTZMinutes int
}

// NewEmptyMap returns the empty map. implicitTZMinutes is the dynamic
// context's implicit timezone in effect when the map is built, used to
// canonicalise naive date/time keys consistently for the map's
// lifetime (§3 "MapKey").
func NewEmptyMap(implicitTZMinutes int) *Map {
	return &Map{
		keys:              map[atomic.MapKey]atomic.Value{},
		vals:              map[atomic.MapKey]Sequence{},
		implicitTZMinutes: implicitTZMinutes,
	}
}

func (*Map) ItemKind() ItemKind { return KindFunction }
func (*Map) FuncName() string   { return "" }
func (*Map) Arity() int         { return 1 }

// Size returns the number of entries.
func (m *Map) Size() int { return len(m.order) }

// Get looks up a key's value.
func (m *Map) Get(key atomic.Value) (Sequence, bool) {
	k := atomic.NewMapKey(key, m.implicitTZMinutes)
	v, ok := m.vals[k]
	return v, ok
}

// Contains reports whether key has an entry.
func (m *Map) Contains(key atomic.Value) bool {
	_, ok := m.vals[atomic.NewMapKey(key, m.implicitTZMinutes)]
	return ok
}

// Put returns a new map with key bound to value, replacing any
// existing entry for an equal key in place (insertion order of a
// replaced key is preserved, matching map:put's documented behaviour).
func (m *Map) Put(key atomic.Value, value Sequence) *Map {
	k := atomic.NewMapKey(key, m.implicitTZMinutes)
	out := m.clone()
	if _, exists := out.vals[k]; !exists {
		out.order = append(out.order, k)
	}
	out.keys[k] = key
	out.vals[k] = value
	return out
}

// Remove returns a new map with key's entry removed, if present.
func (m *Map) Remove(key atomic.Value) *Map {
	k := atomic.NewMapKey(key, m.implicitTZMinutes)
	if _, ok := m.vals[k]; !ok {
		return m
	}
	out := NewEmptyMap(m.implicitTZMinutes)
	for _, ok2 := range m.order {
		if ok2 == k {
			continue
		}
		out.order = append(out.order, ok2)
		out.keys[ok2] = m.keys[ok2]
		out.vals[ok2] = m.vals[ok2]
	}
	return out
}

// Merge combines entries from maps in order; later maps' entries win
// on key collision (map:merge's default "use-first" duplicates option
// is applied by the caller before calling Merge, by reversing order).
func Merge(maps []*Map) *Map {
	tz := 0
	if len(maps) > 0 {
		tz = maps[0].implicitTZMinutes
	}
	out := NewEmptyMap(tz)
	for _, m := range maps {
		for _, k := range m.order {
			out = out.Put(m.keys[k], m.vals[k])
		}
	}
	return out
}

// Keys returns the bound atomic.Value keys in insertion order.
func (m *Map) Keys() []atomic.Value {
	out := make([]atomic.Value, len(m.order))
	for i, k := range m.order {
		out[i] = m.keys[k]
	}
	return out
}

// ForEach visits every entry in insertion order, stopping on the first
// error returned by fn.
func (m *Map) ForEach(fn func(key atomic.Value, value Sequence) error) error {
	for _, k := range m.order {
		if err := fn(m.keys[k], m.vals[k]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Map) clone() *Map {
	out := &Map{
		order:             append([]atomic.MapKey(nil), m.order...),
		keys:              make(map[atomic.MapKey]atomic.Value, len(m.keys)),
		vals:              make(map[atomic.MapKey]Sequence, len(m.vals)),
		implicitTZMinutes: m.implicitTZMinutes,
	}
	for k, v := range m.keys {
		out.keys[k] = v
	}
	for k, v := range m.vals {
		out.vals[k] = v
	}
	return out
}
