package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shahneil/mini-java-compiler/internal/ir"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "disasm <file.mJAM>",
		Short:         "Print the instructions of an mJAM object file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := ir.ReadProgramFromFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read object file: %w", err)
			}
			return ir.Disassemble(cmd.OutOrStdout(), prog)
		},
	}
}
