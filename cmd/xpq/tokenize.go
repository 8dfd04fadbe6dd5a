package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arborxml/xpath"
	"github.com/arborxml/xpath/token"
)

func newTokenizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize <expression>",
		Short: "Print the token stream the lexer produces for an expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, tok := range xpath.Tokenize(args[0]) {
				if tok.Type == token.EOF {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %q\n", tok.Type, tok.Literal)
			}
			return nil
		},
	}
}
