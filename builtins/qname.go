package builtins

import (
	"strings"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/xerr"
)

// registerQName wires fn:QName/local-name-from-QName/namespace-uri-from-QName/
// prefix-from-QName/resolve-QName/namespace-uri-for-prefix (§4.H).
func registerQName(r *Registry) {
	r.Register(Entry{FnNamespace, "QName", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		uri, err := optionalStringArg(args[0], "")
		if err != nil {
			return sequence.Empty, err
		}
		lexical, err := stringArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		prefix, local, found := strings.Cut(lexical, ":")
		if !found {
			prefix, local = "", lexical
		}
		return one(atomic.NewQName(uri, local, prefix)), nil
	}})

	r.Register(Entry{FnNamespace, "local-name-from-QName", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		q, ok, err := optionalQNameArg(args[0])
		if err != nil || !ok {
			return sequence.Empty, err
		}
		return str(q.LocalName), nil
	}})
	r.Register(Entry{FnNamespace, "namespace-uri-from-QName", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		q, ok, err := optionalQNameArg(args[0])
		if err != nil || !ok {
			return sequence.Empty, err
		}
		return str(q.NamespaceURI), nil
	}})
	r.Register(Entry{FnNamespace, "prefix-from-QName", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		q, ok, err := optionalQNameArg(args[0])
		if err != nil || !ok {
			return sequence.Empty, err
		}
		if q.Prefix == "" {
			return sequence.Empty, nil
		}
		return str(q.Prefix), nil
	}})

	r.Register(Entry{FnNamespace, "namespace-uri-for-prefix", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		prefix, err := optionalStringArg(args[0], "")
		if err != nil {
			return sequence.Empty, err
		}
		n, err := nodeArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		for _, ns := range n.Node.Namespaces() {
			name, ok := ns.Name()
			if !ok {
				continue
			}
			if name.Prefix == prefix {
				return str(ns.StringValue()), nil
			}
		}
		return sequence.Empty, nil
	}})

	r.Register(Entry{FnNamespace, "resolve-QName", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].IsEmpty() {
			return sequence.Empty, nil
		}
		lexical, err := stringArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		n, err := nodeArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		prefix, local, found := strings.Cut(lexical, ":")
		if !found {
			prefix, local = "", lexical
		}
		uri := ""
		for _, ns := range n.Node.Namespaces() {
			name, ok := ns.Name()
			if ok && name.Prefix == prefix {
				uri = ns.StringValue()
				break
			}
		}
		if prefix != "" && uri == "" {
			return sequence.Empty, xerr.New(xerr.XPST0081, nil, "unresolvable namespace prefix %q", prefix)
		}
		return one(atomic.NewQName(uri, local, prefix)), nil
	}})
}

func optionalQNameArg(s sequence.Sequence) (atomic.QName, bool, error) {
	v, ok, err := atomizeOptional(s)
	if err != nil || !ok {
		return atomic.QName{}, ok, err
	}
	q, ok := v.(atomic.QName)
	if !ok {
		return atomic.QName{}, false, xerr.New(xerr.XPTY0004, nil, "expected an xs:QName")
	}
	return q, true, nil
}
