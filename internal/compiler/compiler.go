// Package compiler drives one compilation: parse, resolve, type check and
// generate mJAM. A stage only runs when every earlier stage succeeded.
package compiler

import (
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/shahneil/mini-java-compiler/internal/ast"
	"github.com/shahneil/mini-java-compiler/internal/codegen"
	"github.com/shahneil/mini-java-compiler/internal/diag"
	"github.com/shahneil/mini-java-compiler/internal/ir"
	"github.com/shahneil/mini-java-compiler/internal/lexer"
	"github.com/shahneil/mini-java-compiler/internal/parser"
	"github.com/shahneil/mini-java-compiler/internal/resolver"
	"github.com/shahneil/mini-java-compiler/internal/types"
)

var log = commonlog.GetLogger("minijava.compiler")

// Stage identifies a compilation phase.
type Stage int

const (
	StageSyntax Stage = iota
	StageNames
	StageTypes
	StageCodegen
)

func (s Stage) String() string {
	switch s {
	case StageSyntax:
		return "syntactic analysis"
	case StageNames:
		return "identification"
	case StageTypes:
		return "type checking"
	case StageCodegen:
		return "code generation"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Error reports that a stage rejected the program.
type Error struct {
	Stage  Stage
	Errors []error
}

func (e *Error) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Errors[0])
	}
	return fmt.Sprintf("%s failed with %d errors", e.Stage, len(e.Errors))
}

func (e *Error) Unwrap() []error { return e.Errors }

// Options configures a session.
type Options struct {
	// Diagnostics receives every "*** line" message as it is reported.
	// Nil discards them; they remain available on the returned error.
	Diagnostics io.Writer
}

// Result holds what the stages that ran produced.
type Result struct {
	AST     *ast.Program
	Info    *types.Info
	Program *ir.Program
}

// Session owns the diagnostics of one compilation. It must not be reused.
type Session struct {
	rep *diag.Reporter
}

func NewSession(opts Options) *Session {
	return &Session{rep: diag.NewReporter(opts.Diagnostics)}
}

// Reporter returns the session's diagnostics.
func (s *Session) Reporter() *diag.Reporter { return s.rep }

// Compile runs every stage over src.
func (s *Session) Compile(src string) (*Result, error) {
	res, err := s.Analyze(src)
	if err != nil {
		return res, err
	}

	log.Infof("code generation")
	code, err := codegen.Generate(res.AST, s.rep)
	if err != nil {
		return res, s.stageError(StageCodegen)
	}
	res.Program = code
	log.Infof("generated %d instructions, %d static words", len(code.Code), code.StaticSize)
	return res, nil
}

// Analyze parses, resolves and type checks src without generating code.
func (s *Session) Analyze(src string) (*Result, error) {
	res := &Result{}

	log.Infof("syntactic analysis")
	p := parser.New(lexer.New(src))
	res.AST = p.ParseProgram()
	for _, err := range p.Errors() {
		s.rep.Report(err)
	}
	if s.rep.HasErrors() {
		return res, s.stageError(StageSyntax)
	}

	log.Infof("contextual analysis")
	if err := resolver.Resolve(res.AST, s.rep); err != nil {
		return res, s.stageError(StageNames)
	}
	info, err := types.Check(res.AST, s.rep)
	res.Info = info
	if err != nil {
		return res, s.stageError(StageTypes)
	}
	return res, nil
}

func (s *Session) stageError(stage Stage) error {
	log.Infof("%s failed with %d errors", stage, s.rep.Count())
	return &Error{Stage: stage, Errors: s.rep.Errors()}
}

// Compile compiles src in a fresh session.
func Compile(src string, opts Options) (*Result, error) {
	return NewSession(opts).Compile(src)
}

// CompileFile reads and compiles a source file. A read failure is
// returned as is, not as an *Error.
func CompileFile(path string, opts Options) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	log.Debugf("compiling %s", path)
	return Compile(string(src), opts)
}
