package sequence

import (
	"github.com/arborxml/xpath/tree"
	"github.com/arborxml/xpath/xerr"
)

// NormalizedItem is one unit of a sequence after normalization for
// serialization: either a node to serialize as-is, or literal text
// produced by atomizing and string-joining a run of atomic values.
type NormalizedItem struct {
	Node tree.Node
	Text string
	IsText bool
}

// Normalize implements the XDM sequence-normalization algorithm a
// serializer applies before writing a sequence (§6 "Serialization"):
// adjacent atomic values are atomized, cast to string and joined with
// a single space to form one text unit; nodes pass through unchanged;
// a top-level attribute or namespace node is rejected with SEPM0016,
// since it has no way to serialize outside of an owning element.
func Normalize(s Sequence) ([]NormalizedItem, error) {
	var out []NormalizedItem
	var pendingText []string

	flush := func() {
		if len(pendingText) == 0 {
			return
		}
		joined := pendingText[0]
		for _, t := range pendingText[1:] {
			joined += " " + t
		}
		out = append(out, NormalizedItem{Text: joined, IsText: true})
		pendingText = nil
	}

	for _, it := range s.Items() {
		switch v := it.(type) {
		case NodeItem:
			if v.Node.Kind() == tree.KindAttribute || v.Node.Kind() == tree.KindNamespace {
				return nil, xerr.New(xerr.SEPM0016, nil, "an attribute or namespace node cannot be serialized outside an element")
			}
			flush()
			out = append(out, NormalizedItem{Node: v.Node})
		case AtomicItem:
			pendingText = append(pendingText, v.Value.StringValue())
		case Function:
			return nil, xerr.New(xerr.SEPM0016, nil, "a function item cannot be serialized")
		}
	}
	flush()
	return out, nil
}
