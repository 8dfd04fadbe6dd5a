package sequence

// Array is the XPath array function item: an ordered sequence of
// sequences (§3 "array: ordered sequence of sequences"). Arrays are
// immutable; every mutator returns a new *Array.
type Array struct {
	items []Sequence
}

func NewArray(items []Sequence) *Array {
	cp := make([]Sequence, len(items))
	copy(cp, items)
	return &Array{items: cp}
}

func (*Array) ItemKind() ItemKind { return KindFunction }
func (*Array) FuncName() string   { return "" }
func (*Array) Arity() int         { return 1 }

// Size returns the number of members.
func (a *Array) Size() int { return len(a.items) }

// Get returns the 1-based indexed member (array:get / array(n) calling
// convention). Callers translate from the 1-based XPath surface.
func (a *Array) Get(oneBasedIndex int) (Sequence, bool) {
	if oneBasedIndex < 1 || oneBasedIndex > len(a.items) {
		return Sequence{}, false
	}
	return a.items[oneBasedIndex-1], true
}

// Members exposes the underlying member slice (read-only use expected).
func (a *Array) Members() []Sequence { return a.items }

// Put returns a new array with the 1-based index replaced.
func (a *Array) Put(oneBasedIndex int, value Sequence) (*Array, bool) {
	if oneBasedIndex < 1 || oneBasedIndex > len(a.items) {
		return nil, false
	}
	cp := append([]Sequence(nil), a.items...)
	cp[oneBasedIndex-1] = value
	return &Array{items: cp}, true
}

// Append returns a new array with value appended as a new last member.
func (a *Array) Append(value Sequence) *Array {
	cp := append([]Sequence(nil), a.items...)
	cp = append(cp, value)
	return &Array{items: cp}
}

// Subarray returns the 1-based [start, start+length) slice as a new array.
func (a *Array) Subarray(start, length int) (*Array, bool) {
	if start < 1 || length < 0 || start-1+length > len(a.items) {
		return nil, false
	}
	cp := append([]Sequence(nil), a.items[start-1:start-1+length]...)
	return &Array{items: cp}, true
}

// Remove returns a new array with the 1-based index removed.
func (a *Array) Remove(oneBasedIndex int) (*Array, bool) {
	if oneBasedIndex < 1 || oneBasedIndex > len(a.items) {
		return nil, false
	}
	cp := make([]Sequence, 0, len(a.items)-1)
	cp = append(cp, a.items[:oneBasedIndex-1]...)
	cp = append(cp, a.items[oneBasedIndex:]...)
	return &Array{items: cp}, true
}

// Reverse returns a new array with members in reverse order.
func (a *Array) Reverse() *Array {
	cp := make([]Sequence, len(a.items))
	for i, v := range a.items {
		cp[len(a.items)-1-i] = v
	}
	return &Array{items: cp}
}

// Flatten recursively unwraps nested arrays into a single Sequence,
// non-array items passing through unchanged (§4.C "flatten").
func (a *Array) Flatten() Sequence {
	var out []Item
	for _, m := range a.items {
		out = append(out, flattenInto(m)...)
	}
	return NewMany(out)
}

func flattenInto(s Sequence) []Item {
	var out []Item
	for _, it := range s.Items() {
		if arr, ok := it.(*Array); ok {
			out = append(out, flattenInto(arr.Flatten())...)
		} else {
			out = append(out, it)
		}
	}
	return out
}
