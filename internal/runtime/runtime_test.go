package runtime_test

import (
	"bytes"
	"testing"

	"github.com/nalgeon/be"

	"github.com/shahneil/mini-java-compiler/internal/ir"
	"github.com/shahneil/mini-java-compiler/internal/runtime"
)

type lines struct {
	printed []string
}

func (l *lines) Print(s string) { l.printed = append(l.printed, s) }
func (l *lines) Println(s string) { l.printed = append(l.printed, s+"\n") }

func TestCallPrimitive(t *testing.T) {
	var out bytes.Buffer
	env := runtime.NewEnv(&out)

	be.Err(t, runtime.CallPrimitive(env, ir.PrimPutint, []int{-7}), nil)
	be.Err(t, runtime.CallPrimitive(env, ir.PrimPut, []int{'!'}), nil)
	be.Err(t, runtime.CallPrimitive(env, ir.PrimPuteol, nil), nil)
	be.Err(t, runtime.CallPrimitive(env, ir.PrimPutintnl, []int{42}), nil)

	be.Equal(t, out.String(), "")
	be.Err(t, env.Flush(), nil)
	be.Equal(t, out.String(), "-7!\n42\n")
}

func TestCallPrimitiveCustomIO(t *testing.T) {
	l := &lines{}
	env := runtime.NewEnvWithIO(l)

	be.Err(t, runtime.CallPrimitive(env, ir.PrimPutintnl, []int{1}), nil)
	be.Err(t, runtime.CallPrimitive(env, ir.PrimPutintnl, []int{2}), nil)
	be.Err(t, env.Flush(), nil)
	be.Equal(t, l.printed, []string{"1\n", "2\n"})
}

func TestCallPrimitiveRejects(t *testing.T) {
	env := runtime.NewEnv(nil)

	be.True(t, !runtime.IsConsole(ir.PrimAdd))
	be.Err(t, runtime.CallPrimitive(env, ir.PrimAdd, []int{1, 2}), "not a console primitive")
	be.Err(t, runtime.CallPrimitive(env, ir.PrimPutintnl, nil), "expects 1 arguments, got 0")
	be.Err(t, runtime.CallPrimitive(runtime.NewEnvWithIO(nil), ir.PrimPuteol, nil), "IO is nil")
}
