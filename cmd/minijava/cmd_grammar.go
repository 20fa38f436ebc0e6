package main

import (
	"fmt"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/shahneil/mini-java-compiler/internal/grammar"
)

func newGrammarCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:           "grammar",
		Short:         "Print the miniJava grammar in EBNF",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !verify {
				fmt.Fprint(cmd.OutOrStdout(), grammar.Source())
				return nil
			}

			g, err := grammar.Verify()
			if err != nil {
				printErrors(cmd, err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "grammar ok: %d productions, %d terminals\n",
				len(grammar.Productions(g)), len(grammar.Terminals(g)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "parse and verify the grammar instead of printing it")

	return cmd
}

// printErrors prints each element of an error list on its own line.
func printErrors(cmd *cobra.Command, err error) {
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(cmd.ErrOrStderr(), v.Index(i).Interface())
		}
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), err)
}
