package runtime

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// IO is the console the interpreter's output primitives write to.
type IO interface {
	Print(s string)
	Println(s string)
}

// Env aggregates host services used by the interpreter. Only console
// output is needed by mJAM programs.
type Env struct {
	ioService IO
}

// IO returns the IO service.
func (e *Env) IO() IO {
	return e.ioService
}

// Flush writes any buffered output.
func (e *Env) Flush() error {
	if f, ok := e.ioService.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// writerIO is the default IO implementation, buffered over a writer.
type writerIO struct {
	w *bufio.Writer
}

func newWriterIO(w io.Writer) *writerIO {
	return &writerIO{w: bufio.NewWriter(w)}
}

func (s *writerIO) Print(str string) {
	fmt.Fprint(s.w, str)
}

func (s *writerIO) Println(str string) {
	fmt.Fprintln(s.w, str)
}

func (s *writerIO) Flush() error {
	return s.w.Flush()
}

// DefaultEnv returns an Env printing to stdout.
func DefaultEnv() *Env {
	return NewEnv(os.Stdout)
}

// NewEnv creates an Env whose console writes to w. A nil w discards
// output.
func NewEnv(w io.Writer) *Env {
	if w == nil {
		w = io.Discard
	}
	return &Env{ioService: newWriterIO(w)}
}

// NewEnvWithIO creates an Env with the given IO service.
// This is useful for tests that need to observe each line as it is printed.
func NewEnvWithIO(io IO) *Env {
	return &Env{ioService: io}
}
