package main

import (
	"github.com/spf13/cobra"

	"github.com/shahneil/mini-java-compiler/internal/lsp"
)

func newLspCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "lsp",
		Short:         "Run a language server publishing diagnostics over stdio",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return lsp.NewServer(version).RunStdio()
		},
	}
}
