package codegen

import (
	"fmt"

	"github.com/shahneil/mini-java-compiler/internal/ast"
	"github.com/shahneil/mini-java-compiler/internal/ir"
)

// patch is a call site whose target method had no code address yet when
// the call was emitted.
type patch struct {
	addr   int
	target *ast.MethodDecl
}

type patchList struct {
	entries []patch
}

func (l *patchList) add(addr int, target *ast.MethodDecl) {
	l.entries = append(l.entries, patch{addr: addr, target: target})
}

func (l *patchList) len() int { return len(l.entries) }

// apply rewrites every recorded call site to its target's code address and
// empties the list.
func (l *patchList) apply(prog *ir.Program) error {
	entries := l.entries
	l.entries = nil

	for _, e := range entries {
		if e.target.Entity == nil {
			return fmt.Errorf("call at %d: method %s has no code address", e.addr, e.target.Name)
		}
		prog.Patch(e.addr, e.target.Entity.Offset)
	}
	return nil
}
