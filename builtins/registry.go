package builtins

import "sync"

type key struct {
	ns    string
	local string
	arity int
}

// Registry is a static table of (name, arity) -> Entry, the shape
// spec.md §4.H calls for ("a static registry keyed by (QName,
// arity)"), mirroring the closed compile-time table idiom already used
// by package schema's type lattice.
type Registry struct {
	entries map[key]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[key]Entry{}}
}

// Register adds e, overwriting any existing entry with the same name
// and arity.
func (r *Registry) Register(e Entry) {
	r.entries[key{e.NamespaceURI, e.LocalName, e.Arity}] = e
}

// Lookup resolves a call site's (namespace, local name, arity).
func (r *Registry) Lookup(namespaceURI, localName string, arity int) (Entry, bool) {
	e, ok := r.entries[key{namespaceURI, localName, arity}]
	return e, ok
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the package-level registry populated with every
// built-in function this package implements, built once and shared.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		registerNumeric(defaultRegistry)
		registerBoolean(defaultRegistry)
		registerString(defaultRegistry)
		registerSequence(defaultRegistry)
		registerNode(defaultRegistry)
		registerQName(defaultRegistry)
		registerMapArray(defaultRegistry)
		registerDateTime(defaultRegistry)
		registerMisc(defaultRegistry)
	})
	return defaultRegistry
}
