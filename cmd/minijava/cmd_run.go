package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shahneil/mini-java-compiler/internal/ir"
	"github.com/shahneil/mini-java-compiler/internal/runtime"
	"github.com/shahneil/mini-java-compiler/internal/vm"
)

func newRunCmd() *cobra.Command {
	var maxSteps int

	cmd := &cobra.Command{
		Use:           "run <file.java|file.mJAM>",
		Short:         "Compile and run a source file, or run an object file",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := sourceArg(args)
			if err != nil {
				return err
			}

			var prog *ir.Program
			if filepath.Ext(input) == ".mJAM" {
				prog, err = ir.ReadProgramFromFile(input)
				if err != nil {
					return fmt.Errorf("failed to read object file: %w", err)
				}
			} else {
				res, err := compileSource(cmd, input)
				if err != nil {
					return err
				}
				prog = res.Program
			}

			env := runtime.NewEnv(cmd.OutOrStdout())
			return vm.Run(prog, env, vm.Options{MaxSteps: maxSteps})
		},
	}

	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "stop after this many instructions (0: no limit)")

	return cmd
}
