package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Main.java")
	be.Err(t, os.WriteFile(path, []byte(src), 0o644), nil)
	return path
}

const hello = `class Main {
    public static void main(String[] args) {
        System.out.println(42);
    }
}`

func TestCompileAndRun(t *testing.T) {
	path := writeSource(t, hello)

	out, err := execute(t, "compile", "--asm", "--run", path)
	be.Err(t, err, nil)
	be.Equal(t, out, "Compilation successful.\n42\n")

	obj := strings.TrimSuffix(path, ".java") + ".mJAM"
	_, err = os.Stat(obj)
	be.Err(t, err, nil)
	_, err = os.Stat(strings.TrimSuffix(path, ".java") + ".asm")
	be.Err(t, err, nil)

	out, err = execute(t, "run", obj)
	be.Err(t, err, nil)
	be.Equal(t, out, "42\n")

	out, err = execute(t, "disasm", obj)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(out, "putintnl"))
}

func TestExitCodes(t *testing.T) {
	_, err := execute(t, "compile")
	be.Equal(t, exitCode(err), exitNoSource)

	_, err = execute(t, "compile", filepath.Join(t.TempDir(), "missing.java"))
	be.Equal(t, exitCode(err), exitNoSource)

	bad := writeSource(t, `class Main { public static void main(String[] args) { x = 1; } }`)
	out, err := execute(t, "compile", bad)
	be.Equal(t, exitCode(err), exitCompileErr)
	be.Equal(t, out, "*** line 1: Cannot reference undeclared variable x\n")

	loop := writeSource(t, `class Main { public static void main(String[] args) { while (true) { } } }`)
	_, err = execute(t, "run", "--max-steps", "100", loop)
	be.Equal(t, exitCode(err), exitFailure)
}

func TestAstCommand(t *testing.T) {
	path := writeSource(t, hello)
	out, err := execute(t, "ast", path)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(out, "Main"))
}

func TestGrammarCommand(t *testing.T) {
	out, err := execute(t, "grammar", "--verify")
	be.Err(t, err, nil)
	be.True(t, strings.HasPrefix(out, "grammar ok:"))

	out, err = execute(t, "grammar")
	be.Err(t, err, nil)
	be.True(t, strings.HasPrefix(out, "Program"))
}
