package qt3

import (
	"fmt"
	"path/filepath"

	"github.com/arborxml/xpath"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/tree"
	"github.com/arborxml/xpath/tree/memtree"
)

// Environment is a resolved <environment>: the source documents, the
// external variable bindings and the namespace bindings a test-case's
// expression runs under (GLOSSARY "Environment").
type Environment struct {
	Name       string
	Sources    []Source
	Params     []Param
	Namespaces []xpath.Namespace
}

// Source is one <source role="..." file="..."/> declaration: a
// document to load, bound as the context item when role is "." or
// empty. When role is "$name" the document is the context item for the
// select of the Param called name; it is not bound to a variable by
// itself.
type Source struct {
	Role string
	File string
	URI  string
}

// Param is one <param name="..." select="..."/> external-variable
// declaration: select is an XPath expression evaluated with no context
// item (unless a Source has role "$name"), its result bound to name for
// the test expression.
type Param struct {
	Name   string
	Select string
}

type environmentXML struct {
	Name       string         `xml:"name,attr"`
	Ref        string         `xml:"ref,attr"`
	Sources    []sourceXML    `xml:"source"`
	Params     []paramXML     `xml:"param"`
	Namespaces []namespaceXML `xml:"namespace"`
}

type sourceXML struct {
	Role string `xml:"role,attr"`
	File string `xml:"file,attr"`
	URI  string `xml:"uri,attr"`
}

type paramXML struct {
	Name   string `xml:"name,attr"`
	Select string `xml:"select,attr"`
}

type namespaceXML struct {
	Prefix string `xml:"prefix,attr"`
	URI    string `xml:"uri,attr"`
}

func toEnvironment(e environmentXML, dir string) (*Environment, error) {
	env := &Environment{Name: e.Name}
	for _, s := range e.Sources {
		env.Sources = append(env.Sources, Source{Role: s.Role, File: s.File, URI: s.URI})
	}
	for _, p := range e.Params {
		env.Params = append(env.Params, Param{Name: p.Name, Select: p.Select})
	}
	for _, ns := range e.Namespaces {
		env.Namespaces = append(env.Namespaces, xpath.Namespace{Prefix: ns.Prefix, URI: ns.URI})
	}
	_ = dir
	return env, nil
}

// Bound is an Environment resolved against a concrete filesystem
// directory and document store: a context node (if any), plus the
// external parameter names and values a test expression binds via
// xpath.CompileWithParams/CallWithParams alongside its own `$result`
// binding.
type Bound struct {
	ContextNode tree.Node
	HasContext  bool
	ParamNames  []string
	ParamValues []sequence.Sequence
	Namespaces  []xpath.Namespace
}

// Bind loads env's source documents into store and evaluates its
// parameter selects, resolving relative file paths against dir (the
// owning test-set's directory).
func (env *Environment) Bind(store *memtree.Store, dir string) (Bound, error) {
	var out Bound
	if env == nil {
		return out, nil
	}
	out.Namespaces = env.Namespaces
	named := map[string]tree.Node{}
	for _, src := range env.Sources {
		path := src.File
		if path != "" && !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		uri := src.URI
		if uri == "" {
			uri = path
		}
		doc, err := store.Preload(uri, path)
		if err != nil {
			return out, fmt.Errorf("qt3: source %q: %w", path, err)
		}
		switch {
		case src.Role == "." || src.Role == "":
			out.ContextNode = doc
			out.HasContext = true
		case len(src.Role) > 1 && src.Role[0] == '$':
			named[src.Role[1:]] = doc
		}
	}
	it := xpath.NewInterpreter(xpath.WithStore(store))
	for _, p := range env.Params {
		prog, err := xpath.Compile(p.Select, xpath.CompileOptions{Namespaces: env.Namespaces})
		if err != nil {
			return out, fmt.Errorf("qt3: param %q select: %w", p.Name, err)
		}
		var runOpts xpath.RunOptions
		if n, ok := named[p.Name]; ok {
			runOpts = xpath.RunOptions{ContextNode: n, HasContext: true}
		}
		val, err := xpath.Run(it, prog, runOpts)
		if err != nil {
			return out, fmt.Errorf("qt3: param %q select: %w", p.Name, err)
		}
		out.ParamNames = append(out.ParamNames, p.Name)
		out.ParamValues = append(out.ParamValues, val)
	}
	return out, nil
}
