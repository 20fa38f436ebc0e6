package runtime

import (
	"fmt"
	"strconv"

	"github.com/shahneil/mini-java-compiler/internal/ir"
)

// IsConsole reports whether p is a primitive served by the Env's console
// rather than by the machine itself.
func IsConsole(p ir.Prim) bool {
	switch p {
	case ir.PrimPut, ir.PrimPuteol, ir.PrimPutint, ir.PrimPutintnl:
		return true
	}
	return false
}

// CallPrimitive executes a console primitive with its arguments, in the
// order they were pushed.
func CallPrimitive(env *Env, p ir.Prim, args []int) error {
	if !IsConsole(p) {
		return fmt.Errorf("%s is not a console primitive", p)
	}
	if want, _ := p.Arity(); len(args) != want {
		return fmt.Errorf("%s expects %d arguments, got %d", p, want, len(args))
	}
	if env == nil || env.IO() == nil {
		return fmt.Errorf("runtime env IO is nil")
	}

	switch p {
	case ir.PrimPut:
		env.IO().Print(string(rune(args[0])))
	case ir.PrimPuteol:
		env.IO().Println("")
	case ir.PrimPutint:
		env.IO().Print(strconv.Itoa(args[0]))
	case ir.PrimPutintnl:
		env.IO().Println(strconv.Itoa(args[0]))
	}
	return nil
}
