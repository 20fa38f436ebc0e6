package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shahneil/mini-java-compiler/internal/ast"
	"github.com/shahneil/mini-java-compiler/internal/compiler"
)

func newAstCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "ast <file.java>",
		Short:         "Analyze a source file and print its syntax tree",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := sourceArg(args)
			if err != nil {
				return err
			}
			src, err := os.ReadFile(input)
			if err != nil {
				return &exitError{code: exitNoSource, err: fmt.Errorf("cannot open %s: %w", input, err)}
			}

			s := compiler.NewSession(compiler.Options{Diagnostics: cmd.OutOrStdout()})
			res, err := s.Analyze(string(src))
			if err != nil {
				var cerr *compiler.Error
				if errors.As(err, &cerr) {
					return &exitError{code: exitCompileErr, err: err}
				}
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), ast.Dump(res.AST))
			return nil
		},
	}
}
