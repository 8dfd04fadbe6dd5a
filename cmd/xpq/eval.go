package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arborxml/xpath"
	"github.com/arborxml/xpath/internal/xlog"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/tree/memtree"
)

type evalFlags struct {
	file          string
	namespaces    []string
	staticBaseURI string
}

func newEvalCmd(rf *rootFlags) *cobra.Command {
	ef := &evalFlags{}

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Compile and run an XPath expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, rf, ef, args[0])
		},
	}

	cmd.Flags().StringVarP(&ef.file, "file", "f", "",
		"XML document to use as the initial context node")
	cmd.Flags().StringArrayVar(&ef.namespaces, "ns", nil,
		"prefix=uri namespace binding, repeatable")
	cmd.Flags().StringVar(&ef.staticBaseURI, "base-uri", "",
		"static base URI recorded in the dynamic context")

	return cmd
}

func runEval(cmd *cobra.Command, rf *rootFlags, ef *evalFlags, expr string) error {
	handler, err := xlog.NewHandler(cmd.ErrOrStderr(), rf.logLevel, rf.logFormat)
	if err != nil {
		return err
	}
	logger := slog.New(handler)

	namespaces, err := parseNamespaceFlags(ef.namespaces)
	if err != nil {
		return err
	}

	prog, err := xpath.Compile(expr, xpath.CompileOptions{Namespaces: namespaces})
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	store := memtree.NewStore()
	opts := []xpath.Option{xpath.WithStore(store)}
	if ef.staticBaseURI != "" {
		opts = append(opts, xpath.WithStaticBaseURI(ef.staticBaseURI))
	}
	it := xpath.NewInterpreter(opts...)

	runOpts := xpath.RunOptions{}
	if ef.file != "" {
		doc, err := store.Preload(ef.file, ef.file)
		if err != nil {
			return fmt.Errorf("load %s: %w", ef.file, err)
		}
		logger.Debug("loaded context document", "path", ef.file)
		runOpts.ContextNode = doc
		runOpts.HasContext = true
	}

	result, err := xpath.Run(it, prog, runOpts)
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}

	printSequence(cmd.OutOrStdout(), result)
	return nil
}

func parseNamespaceFlags(flags []string) ([]xpath.Namespace, error) {
	out := make([]xpath.Namespace, 0, len(flags))
	for _, f := range flags {
		prefix, uri, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --ns binding %q, want prefix=uri", f)
		}
		out = append(out, xpath.Namespace{Prefix: prefix, URI: uri})
	}
	return out, nil
}

func printSequence(w io.Writer, s sequence.Sequence) {
	for _, item := range s.Items() {
		fmt.Fprintln(w, formatItem(item))
	}
}

func formatItem(item sequence.Item) string {
	switch it := item.(type) {
	case sequence.AtomicItem:
		return it.Value.StringValue()
	case sequence.NodeItem:
		return it.Node.StringValue()
	case sequence.Function:
		name := it.FuncName()
		if name == "" {
			name = "anonymous"
		}
		return fmt.Sprintf("function(%s#%d)", name, it.Arity())
	default:
		return fmt.Sprintf("%v", item)
	}
}
