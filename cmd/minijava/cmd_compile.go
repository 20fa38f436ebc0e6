package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shahneil/mini-java-compiler/internal/compiler"
	"github.com/shahneil/mini-java-compiler/internal/ir"
	"github.com/shahneil/mini-java-compiler/internal/runtime"
	"github.com/shahneil/mini-java-compiler/internal/vm"
)

func newCompileCmd() *cobra.Command {
	var (
		out      string
		asm      bool
		run      bool
		maxSteps int
	)

	cmd := &cobra.Command{
		Use:           "compile <file.java>",
		Short:         "Compile a miniJava source file to an mJAM object file",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := sourceArg(args)
			if err != nil {
				return err
			}
			res, err := compileSource(cmd, input)
			if err != nil {
				return err
			}

			if out == "" {
				out = replaceExt(input, ".mJAM")
			}
			if err := ir.WriteProgramToFile(out, res.Program); err != nil {
				return fmt.Errorf("failed to write object file: %w", err)
			}

			if asm {
				if err := writeListing(replaceExt(out, ".asm"), res.Program); err != nil {
					return fmt.Errorf("failed to write listing: %w", err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Compilation successful.")

			if run {
				env := runtime.NewEnv(cmd.OutOrStdout())
				return vm.Run(res.Program, env, vm.Options{MaxSteps: maxSteps})
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: <input>.mJAM)")
	cmd.Flags().BoolVar(&asm, "asm", false, "also write a disassembly listing next to the object file")
	cmd.Flags().BoolVar(&run, "run", false, "run the program after compiling it")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "stop the run after this many instructions (0: no limit)")

	return cmd
}

// sourceArg returns the single input file, or an exit code 3 error when
// none was given.
func sourceArg(args []string) (string, error) {
	if len(args) == 0 {
		return "", &exitError{code: exitNoSource, err: errors.New("no source file given")}
	}
	return args[0], nil
}

// compileSource compiles a source file, printing diagnostics as they are
// reported, and maps failures to exit codes.
func compileSource(cmd *cobra.Command, path string) (*compiler.Result, error) {
	res, err := compiler.CompileFile(path, compiler.Options{Diagnostics: cmd.OutOrStdout()})
	if err != nil {
		var cerr *compiler.Error
		if errors.As(err, &cerr) {
			return nil, &exitError{code: exitCompileErr, err: err}
		}
		return nil, &exitError{code: exitNoSource, err: fmt.Errorf("cannot open %s: %w", path, err)}
	}
	return res, nil
}

func writeListing(path string, p *ir.Program) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ir.Disassemble(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
