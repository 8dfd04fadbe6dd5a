// Command xpq is a CLI front-end to the xpath package: compile and run
// an XPath expression against an optional XML context document, or
// inspect how an expression lexes. Structured the way
// MacroPower-x/cmd/magicschema lays out a cobra root command over a
// single focused subcommand tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborxml/xpath/internal/xlog"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xpq: %v\n", err)
		os.Exit(1)
	}
}

// rootFlags holds the persistent flags every subcommand inherits.
type rootFlags struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}

	root := &cobra.Command{
		Use:           "xpq",
		Short:         "Evaluate and inspect XPath 3.1 expressions",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&rf.logLevel, "log-level", "info",
		fmt.Sprintf("log level, one of: %v", xlog.AllLevels()))
	root.PersistentFlags().StringVar(&rf.logFormat, "log-format", "text",
		fmt.Sprintf("log format, one of: %v", xlog.AllFormats()))

	_ = root.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(xlog.AllLevels(), cobra.ShellCompDirectiveNoFileComp))
	_ = root.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(xlog.AllFormats(), cobra.ShellCompDirectiveNoFileComp))

	root.AddCommand(newEvalCmd(rf))
	root.AddCommand(newTokenizeCmd())
	root.AddCommand(newQT3Cmd(rf))

	return root
}
