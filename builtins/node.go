package builtins

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/tree"
	"github.com/arborxml/xpath/xerr"
)

// registerNode wires the node-accessor functions (name/local-name/
// node-name/root/...), fn:doc and fn:collection against the dynamic
// context's document pool, and fn:generate-id, which is backed by
// github.com/google/uuid to hand out a stable per-process synthetic
// identifier for nodes whose tree model has no string-friendly identity
// of its own.
func registerNode(r *Registry) {
	r.Register(Entry{FnNamespace, "name", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		n, err := contextNode(ctx)
		if err != nil {
			return sequence.Empty, err
		}
		return str(qnameStringOf(n)), nil
	}})
	r.Register(Entry{FnNamespace, "name", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].IsEmpty() {
			return str(""), nil
		}
		n, err := nodeArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return str(qnameStringOf(n)), nil
	}})

	r.Register(Entry{FnNamespace, "local-name", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		n, err := contextNode(ctx)
		if err != nil {
			return sequence.Empty, err
		}
		name, ok := n.Name()
		if !ok {
			return str(""), nil
		}
		return str(name.LocalName), nil
	}})
	r.Register(Entry{FnNamespace, "local-name", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].IsEmpty() {
			return str(""), nil
		}
		n, err := nodeArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		name, ok := n.Name()
		if !ok {
			return str(""), nil
		}
		return str(name.LocalName), nil
	}})

	r.Register(Entry{FnNamespace, "namespace-uri", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		n, err := contextNode(ctx)
		if err != nil {
			return sequence.Empty, err
		}
		return str(namespaceURIOf(n)), nil
	}})
	r.Register(Entry{FnNamespace, "namespace-uri", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].IsEmpty() {
			return str(""), nil
		}
		n, err := nodeArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return str(namespaceURIOf(n)), nil
	}})

	r.Register(Entry{FnNamespace, "root", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		n, err := contextNode(ctx)
		if err != nil {
			return sequence.Empty, err
		}
		return sequence.NewOne(sequence.WrapNode(walkToRoot(n.Node))), nil
	}})
	r.Register(Entry{FnNamespace, "root", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].IsEmpty() {
			return sequence.Empty, nil
		}
		n, err := nodeArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return sequence.NewOne(sequence.WrapNode(walkToRoot(n.Node))), nil
	}})

	r.Register(Entry{FnNamespace, "base-uri", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		n, err := contextNode(ctx)
		if err != nil {
			return sequence.Empty, err
		}
		return baseURIOf(n), nil
	}})
	r.Register(Entry{FnNamespace, "base-uri", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].IsEmpty() {
			return sequence.Empty, nil
		}
		n, err := nodeArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return baseURIOf(n), nil
	}})

	r.Register(Entry{FnNamespace, "generate-id", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		n, err := contextNode(ctx)
		if err != nil {
			return sequence.Empty, err
		}
		return str(generateID(n)), nil
	}})
	r.Register(Entry{FnNamespace, "generate-id", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].IsEmpty() {
			return str(""), nil
		}
		n, err := nodeArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return str(generateID(n)), nil
	}})

	r.Register(Entry{FnNamespace, "doc", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		uri, err := stringArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		n, err := ctx.Store().Doc(uri)
		if err != nil {
			return sequence.Empty, xerr.Wrap(err)
		}
		return sequence.NewOne(sequence.WrapNode(n)), nil
	}})
	r.Register(Entry{FnNamespace, "collection", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		uri, err := stringArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		nodes, err := ctx.Store().Collection(uri)
		if err != nil {
			return sequence.Empty, xerr.Wrap(err)
		}
		items := make([]sequence.Item, len(nodes))
		for i, n := range nodes {
			items[i] = sequence.WrapNode(n)
		}
		return sequence.NewMany(items), nil
	}})

	r.Register(Entry{FnNamespace, "data", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		vs, err := args[0].Atomized()
		if err != nil {
			return sequence.Empty, err
		}
		items := make([]sequence.Item, len(vs))
		for i, v := range vs {
			items[i] = sequence.Wrap(v)
		}
		return sequence.NewMany(items), nil
	}})

	r.Register(Entry{FnNamespace, "position", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		p, ok := ctx.Position()
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPDY0002, nil, "fn:position() outside a focus with a defined position")
		}
		return integer(int64(p)), nil
	}})
	r.Register(Entry{FnNamespace, "last", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		last, ok := ctx.Last()
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPDY0002, nil, "fn:last() outside a focus with a defined size")
		}
		return integer(int64(last)), nil
	}})
}

func contextNode(ctx Context) (sequence.NodeItem, error) {
	it, ok := ctx.ContextItem()
	if !ok {
		return sequence.NodeItem{}, xerr.New(xerr.XPDY0002, nil, "no context item")
	}
	n, ok := it.(sequence.NodeItem)
	if !ok {
		return sequence.NodeItem{}, xerr.New(xerr.XPTY0004, nil, "context item is not a node")
	}
	return n, nil
}

func nodeArg(s sequence.Sequence) (sequence.NodeItem, error) {
	it, err := s.One()
	if err != nil {
		return sequence.NodeItem{}, err
	}
	n, ok := it.(sequence.NodeItem)
	if !ok {
		return sequence.NodeItem{}, xerr.New(xerr.XPTY0004, nil, "expected a node")
	}
	return n, nil
}

func qnameStringOf(n sequence.NodeItem) string {
	name, ok := n.Node.Name()
	if !ok {
		return ""
	}
	if name.Prefix != "" {
		return name.Prefix + ":" + name.LocalName
	}
	return name.LocalName
}

func namespaceURIOf(n sequence.NodeItem) string {
	name, ok := n.Node.Name()
	if !ok {
		return ""
	}
	return name.NamespaceURI
}

func walkToRoot(n tree.Node) tree.Node {
	cur := n
	for {
		p, ok := cur.Parent()
		if !ok {
			return cur
		}
		cur = p
	}
}

func baseURIOf(n sequence.NodeItem) sequence.Sequence {
	uri, ok := n.Node.BaseURI()
	if !ok {
		return sequence.Empty
	}
	return str(uri)
}

// generateID derives the identifier from the node's DocumentOrderKey
// path: the dotted path is hashed with uuid.NewSHA1 (a deterministic
// v5-style derivation, not a random v4 uuid), so the same node yields
// the same id on every call.
func generateID(n sequence.NodeItem) string {
	key := n.Node.DocumentOrderKey()
	var b []byte
	for _, p := range key.Path {
		b = append(b, []byte(strconv.Itoa(p))...)
		b = append(b, '.')
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, b)
	return "id" + id.String()
}
