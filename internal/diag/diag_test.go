package diag_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/shahneil/mini-java-compiler/internal/diag"
	"github.com/shahneil/mini-java-compiler/internal/token"
)

func TestReporterEchoesAsReported(t *testing.T) {
	var out bytes.Buffer
	rep := diag.NewReporter(&out)
	be.True(t, !rep.HasErrors())

	rep.Errorf(token.Position{Line: 3, Column: 5}, "Undeclared identifier %s", "x")
	be.Equal(t, out.String(), "*** line 3: Undeclared identifier x\n")

	rep.Report(errors.New("No main method found"))
	be.Equal(t, out.String(), "*** line 3: Undeclared identifier x\n*** No main method found\n")

	rep.Report(nil)
	be.Equal(t, rep.Count(), 2)
	be.True(t, rep.HasErrors())
}

func TestReporterNilSink(t *testing.T) {
	rep := diag.NewReporter(nil)
	e := rep.Errorf(token.Position{Line: 1}, "bad")
	be.Equal(t, e.Msg, "bad")
	be.Equal(t, len(rep.Errors()), 1)

	var de *diag.Error
	be.True(t, errors.As(rep.Errors()[0], &de))
	be.Equal(t, de.Pos.Line, 1)
}
