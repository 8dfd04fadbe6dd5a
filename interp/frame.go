package interp

import "github.com/arborxml/xpath/sequence"

// focus is the dynamic context's current item/position/last triple
// (§6 "focus"), carried on every frame so "." and the predicate-truth
// rule are always available without a separate context-stack type.
type focus struct {
	item    sequence.Item
	hasItem bool
	pos     int
	last    int
	hasSize bool
}

// frame is one activation record: a Proto's local variable slots, its
// captured closure values, and the focus in effect for its body.
type frame struct {
	locals   []sequence.Sequence
	closures []sequence.Sequence
	focus    focus
}

func newFrame(numLocals int, closures []sequence.Sequence, fc focus) *frame {
	return &frame{
		locals:   make([]sequence.Sequence, numLocals),
		closures: closures,
		focus:    fc,
	}
}
