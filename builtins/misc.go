package builtins

import (
	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/xerr"
)

// registerMisc wires fn:error, the one function whose sole purpose is
// to abort the current evaluation with a caller-chosen code (§4.H,
// §6 "fn:error"). It never returns a value -- every arity raises an
// *xerr.Error built from its arguments.
func registerMisc(r *Registry) {
	r.Register(Entry{FnNamespace, "error", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return sequence.Empty, xerr.New(xerr.FOER0000, nil, "fn:error()")
	}})
	r.Register(Entry{FnNamespace, "error", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		code, err := errorCodeArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return sequence.Empty, xerr.New(code, nil, "fn:error(%s)", code)
	}})
	r.Register(Entry{FnNamespace, "error", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		code, err := errorCodeArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		msg, err := stringArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		return sequence.Empty, xerr.New(code, nil, "%s", msg)
	}})
	r.Register(Entry{FnNamespace, "error", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		code, err := errorCodeArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		msg, err := stringArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		return sequence.Empty, xerr.New(code, nil, "%s", msg)
	}})
}

// errorCodeArg resolves fn:error's first argument (an xs:QName, per the
// function signature) to an xerr.Code, keying only on the local name --
// the core's error taxonomy is a flat namespace (§7) so a user-supplied
// error namespace is accepted but not distinguished from the standard
// one, matching how the test runner's "Error" assertion already only
// ever compares local codes.
func errorCodeArg(s sequence.Sequence) (xerr.Code, error) {
	if s.IsEmpty() {
		return xerr.FOER0000, nil
	}
	v, err := atomizeOne(s)
	if err != nil {
		return "", err
	}
	if q, ok := v.(atomic.QName); ok {
		return xerr.Code(q.LocalName), nil
	}
	return xerr.Code(v.StringValue()), nil
}
