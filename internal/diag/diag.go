// Package diag collects compiler diagnostics. Every error is printed as
// "*** line <L>: <message>" the moment it is reported; acceptance of a
// compilation depends only on whether any error was recorded.
package diag

import (
	"errors"
	"fmt"
	"io"

	"github.com/shahneil/mini-java-compiler/internal/token"
)

// Error is a diagnostic tagged with a source position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("*** line %d: %s", e.Pos.Line, e.Msg)
}

// Errorf builds a positioned diagnostic without reporting it.
func Errorf(pos token.Position, format string, args ...interface{}) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Reporter accumulates diagnostics for one compilation.
type Reporter struct {
	out    io.Writer
	errors []error
}

// NewReporter returns a reporter echoing each diagnostic to out.
// A nil out discards the echo; errors are still recorded.
func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = io.Discard
	}
	return &Reporter{out: out}
}

// Report records err and prints it.
func (r *Reporter) Report(err error) {
	if err == nil {
		return
	}
	r.errors = append(r.errors, err)
	var de *Error
	if errors.As(err, &de) {
		fmt.Fprintln(r.out, de.Error())
		return
	}
	fmt.Fprintf(r.out, "*** %v\n", err)
}

// Errorf reports a positioned diagnostic and returns it.
func (r *Reporter) Errorf(pos token.Position, format string, args ...interface{}) *Error {
	e := Errorf(pos, format, args...)
	r.Report(e)
	return e
}

func (r *Reporter) Errors() []error { return r.errors }

func (r *Reporter) Count() int { return len(r.errors) }

func (r *Reporter) HasErrors() bool { return len(r.errors) > 0 }
