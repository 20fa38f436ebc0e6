package codegen_test

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/shahneil/mini-java-compiler/internal/ast"
	"github.com/shahneil/mini-java-compiler/internal/codegen"
	"github.com/shahneil/mini-java-compiler/internal/diag"
	"github.com/shahneil/mini-java-compiler/internal/ir"
	"github.com/shahneil/mini-java-compiler/internal/lexer"
	"github.com/shahneil/mini-java-compiler/internal/parser"
	"github.com/shahneil/mini-java-compiler/internal/resolver"
	"github.com/shahneil/mini-java-compiler/internal/types"
)

func checked(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(input))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			t.Logf("parser error: %s", e)
		}
		t.Fatalf("expected no parser errors, got %d", len(errs))
	}
	rep := diag.NewReporter(nil)
	if err := resolver.Resolve(prog, rep); err != nil {
		t.Fatalf("unexpected resolution error: %v", err)
	}
	if _, err := types.Check(prog, rep); err != nil {
		t.Fatalf("unexpected type error: %v", err)
	}
	return prog
}

func generate(t *testing.T, input string) (*ast.Program, *ir.Program) {
	t.Helper()
	prog := checked(t, input)
	code, err := codegen.Generate(prog, diag.NewReporter(nil))
	if err != nil {
		t.Fatalf("unexpected codegen error: %v", err)
	}
	return prog, code
}

func method(t *testing.T, prog *ast.Program, class, name string) *ast.MethodDecl {
	t.Helper()
	for _, cd := range prog.Classes {
		if cd.Name != class {
			continue
		}
		for _, md := range cd.Methods {
			if md.Name == name {
				return md
			}
		}
	}
	t.Fatalf("method %s.%s not found", class, name)
	return nil
}

func countPrim(code *ir.Program, prim ir.Prim) int {
	n := 0
	for _, in := range code.Code {
		if in.Op == ir.OpCall && in.R == ir.RegPB && ir.Prim(in.D) == prim {
			n++
		}
	}
	return n
}

func TestGenerateFrameOffsets(t *testing.T) {
	input := `class Main {
    public static void main(String[] args) { }
    int f(int a, int b) {
        int x = a;
        {
            int y = b;
            x = y;
        }
        int z = 1;
        return x + z;
    }
}`
	prog, _ := generate(t, input)

	f := method(t, prog, "Main", "f")
	be.Equal(t, *f.Params[0].Entity, ast.Entity{Size: 1, Offset: -2, Base: ir.RegLB})
	be.Equal(t, *f.Params[1].Entity, ast.Entity{Size: 1, Offset: -1, Base: ir.RegLB})

	x := f.Body[0].(*ast.VarDeclStmt).Var
	y := f.Body[1].(*ast.BlockStmt).Stmts[0].(*ast.VarDeclStmt).Var
	z := f.Body[2].(*ast.VarDeclStmt).Var
	be.Equal(t, x.Entity.Offset, ir.FrameSize)
	be.Equal(t, y.Entity.Offset, ir.FrameSize+1)
	// y's slot is reused once its block closes.
	be.Equal(t, z.Entity.Offset, ir.FrameSize+1)
	be.Equal(t, z.Entity.Base, ir.RegLB)
}

func TestGenerateStaticAndFieldLayout(t *testing.T) {
	input := `class Main {
    static int a;
    int x;
    static boolean b;
    int y;
    public static void main(String[] args) { }
}
class Other {
    static int c;
    int z;
}`
	prog, code := generate(t, input)

	be.Equal(t, code.StaticSize, 3)
	for i := 0; i < 3; i++ {
		be.Equal(t, code.Code[i], ir.Instruction{Op: ir.OpPush, D: 1})
	}

	main, other := prog.Classes[0], prog.Classes[1]
	be.Equal(t, *main.Fields[0].Entity, ast.Entity{Size: 1, Offset: 0, Base: ir.RegSB})
	be.Equal(t, *main.Fields[2].Entity, ast.Entity{Size: 1, Offset: 1, Base: ir.RegSB})
	be.Equal(t, *other.Fields[0].Entity, ast.Entity{Size: 1, Offset: 2, Base: ir.RegSB})

	be.Equal(t, *main.Fields[1].Entity, ast.Entity{Size: 1, Offset: 0, Base: ir.RegOB})
	be.Equal(t, *main.Fields[3].Entity, ast.Entity{Size: 1, Offset: 1, Base: ir.RegOB})
	be.Equal(t, *other.Fields[1].Entity, ast.Entity{Size: 1, Offset: 0, Base: ir.RegOB})
}

func TestGenerateEntryPoint(t *testing.T) {
	input := `class Main {
    public static void main(String[] args) {
        System.out.println(1);
    }
}`
	prog, code := generate(t, input)
	main := method(t, prog, "Main", "main")

	be.Equal(t, code.Code[0], ir.Instruction{Op: ir.OpLoadL, D: ir.Null})
	be.Equal(t, code.Code[1], ir.Instruction{Op: ir.OpCall, R: ir.RegCB, D: main.Entity.Offset})
	be.Equal(t, code.Code[2].Op, ir.OpHalt)
	be.Equal(t, main.Entity.Offset, 3)

	last := code.Code[len(code.Code)-1]
	be.Equal(t, last, ir.Instruction{Op: ir.OpReturn, N: 0, D: 1})
}

func TestGeneratePatchesEveryCall(t *testing.T) {
	input := `class Main {
    public static void main(String[] args) {
        Main m = new Main();
        System.out.println(m.later(2) + helper());
        B.run();
    }
    int later(int n) { return twice(n); }
    int twice(int n) { return n * 2; }
    static int helper() { return 1; }
}
class B {
    static void run() {
        Main m = new Main();
        System.out.println(m.later(3));
    }
}`
	prog, code := generate(t, input)

	entries := make(map[int]string)
	for _, cd := range prog.Classes {
		for _, md := range cd.Methods {
			be.True(t, md.Entity != nil)
			entries[md.Entity.Offset] = cd.Name + "." + md.Name
		}
	}

	calls := 0
	for addr, in := range code.Code {
		if (in.Op != ir.OpCall && in.Op != ir.OpCallI) || in.R != ir.RegCB {
			continue
		}
		calls++
		if _, ok := entries[in.D]; !ok {
			t.Errorf("call at %d targets %d, which is not a method entry", addr, in.D)
		}
	}
	// entry, later, helper, run, twice, later
	be.Equal(t, calls, 6)

	twice := method(t, prog, "Main", "twice")
	later := method(t, prog, "Main", "later")
	found := false
	for _, in := range code.Code[later.Entity.Offset:twice.Entity.Offset] {
		if in.Op == ir.OpCallI && in.D == twice.Entity.Offset {
			found = true
		}
	}
	be.True(t, found)
}

func TestGenerateLocalAddPrint(t *testing.T) {
	input := `class Main {
    public static void main(String[] args) {
        int x = 1 + 2;
        System.out.println(x);
    }
}`
	_, code := generate(t, input)

	be.Equal(t, countPrim(code, ir.PrimPutintnl), 1)
	be.Equal(t, countPrim(code, ir.PrimAdd), 1)
}

func TestGenerateArrayIncrement(t *testing.T) {
	input := `class Main {
    public static void main(String[] args) {
        int[] a = new int[3];
        int i = 1;
        a[i] = a[i] + 1;
    }
}`
	_, code := generate(t, input)

	be.Equal(t, countPrim(code, ir.PrimArrayupd), 1)
	be.Equal(t, countPrim(code, ir.PrimArrayref), 1)

	// Both sides load a from its slot.
	loads := 0
	for _, in := range code.Code {
		if in.Op == ir.OpLoad && in.R == ir.RegLB && in.D == ir.FrameSize {
			loads++
		}
	}
	be.Equal(t, loads, 2)
}

func TestGenerateShortCircuit(t *testing.T) {
	input := `class Main {
    public static void main(String[] args) {
        boolean b = true || false;
    }
}`
	_, code := generate(t, input)
	m := code.Code[3:]

	be.Equal(t, m[0], ir.Instruction{Op: ir.OpLoadL, D: ir.True})
	be.Equal(t, m[1], ir.Instruction{Op: ir.OpJumpIf, N: ir.True, R: ir.RegCB, D: 3 + 4})
	be.Equal(t, m[2], ir.Instruction{Op: ir.OpLoadL, D: ir.False})
	be.Equal(t, m[3], ir.Instruction{Op: ir.OpJump, R: ir.RegCB, D: 3 + 5})
	be.Equal(t, m[4], ir.Instruction{Op: ir.OpLoadL, D: ir.True})
	be.Equal(t, countPrim(code, ir.PrimOr), 0)
}

func TestGenerateCallStatementDiscardsResult(t *testing.T) {
	input := `class Main {
    public static void main(String[] args) {
        f();
    }
    static int f() { return 1; }
}`
	prog, code := generate(t, input)
	main := method(t, prog, "Main", "main")

	body := code.Code[main.Entity.Offset:]
	be.Equal(t, body[0].Op, ir.OpCall)
	be.Equal(t, body[1], ir.Instruction{Op: ir.OpPop, N: 0, D: 1})
}

func TestGenerateMainErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		line  int
	}{
		{
			name:  "missing",
			input: `class Main { static void main(int[] args) { } }`,
			want:  "No main method found",
			line:  1,
		},
		{
			name: "missing in last class",
			input: `class A { }
class Main {
    static void start(String[] args) { }
}`,
			want: "No main method found",
			line: 4,
		},
		{
			name:  "private",
			input: `class Main { private static void main(String[] args) { } }`,
			want:  "No main method found",
		},
		{
			name: "duplicate",
			input: `class A { public static void main(String[] args) { } }
class B { public static void main(String[] args) { } }`,
			want: "Duplicate main method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := checked(t, tt.input)
			rep := diag.NewReporter(nil)
			code, err := codegen.Generate(prog, rep)
			be.Err(t, err, tt.want)
			be.True(t, code == nil)
			be.Equal(t, rep.Count(), 1)
			if tt.line > 0 {
				var de *diag.Error
				be.True(t, errors.As(rep.Errors()[0], &de))
				be.Equal(t, de.Pos.Line, tt.line)
			}
		})
	}
}
