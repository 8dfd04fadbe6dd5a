package builtins

import "github.com/arborxml/xpath/sequence"

// registerBoolean wires fn:true/false/not/boolean (§4.H).
func registerBoolean(r *Registry) {
	r.Register(Entry{FnNamespace, "true", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return boolean(true), nil
	}})
	r.Register(Entry{FnNamespace, "false", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return boolean(false), nil
	}})
	r.Register(Entry{FnNamespace, "not", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		b, err := effectiveBooleanOf(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return boolean(!b), nil
	}})
	r.Register(Entry{FnNamespace, "boolean", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		b, err := effectiveBooleanOf(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return boolean(b), nil
	}})
}
