package memtree

import (
	"fmt"
	"sync"

	"github.com/arborxml/xpath/tree"
)

// Store is a tree.Store backed by parsed files: fn:doc(uri) lazily
// parses and caches uri as a filesystem path the first time it is
// requested, and fn:collection() with no argument returns every
// document loaded so far.
type Store struct {
	mu   sync.Mutex
	docs map[string]tree.Node
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{docs: map[string]tree.Node{}}
}

// Preload parses path and registers its document under uri, so later
// fn:doc(uri) calls resolve without touching the filesystem again. Used
// by cmd/xpq to bind the CLI's context-node file under a stable URI.
func (s *Store) Preload(uri, path string) (tree.Node, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc, nil
}

func (s *Store) Doc(uri string) (tree.Node, error) {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	s.mu.Unlock()
	if ok {
		return doc, nil
	}
	doc, err := ParseFile(uri)
	if err != nil {
		return nil, fmt.Errorf("memtree: doc %q: %w", uri, err)
	}
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc, nil
}

func (s *Store) Collection(uri string) ([]tree.Node, error) {
	if uri != "" {
		doc, err := s.Doc(uri)
		if err != nil {
			return nil, err
		}
		return []tree.Node{doc}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tree.Node, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	return out, nil
}
