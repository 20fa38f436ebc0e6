package vm_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/shahneil/mini-java-compiler/internal/codegen"
	"github.com/shahneil/mini-java-compiler/internal/diag"
	"github.com/shahneil/mini-java-compiler/internal/ir"
	"github.com/shahneil/mini-java-compiler/internal/lexer"
	"github.com/shahneil/mini-java-compiler/internal/parser"
	"github.com/shahneil/mini-java-compiler/internal/resolver"
	"github.com/shahneil/mini-java-compiler/internal/runtime"
	"github.com/shahneil/mini-java-compiler/internal/types"
	"github.com/shahneil/mini-java-compiler/internal/vm"
)

func compile(t *testing.T, input string) *ir.Program {
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
	code, err := codegen.Generate(prog, rep)
	if err != nil {
		t.Fatalf("unexpected codegen error: %v", err)
	}
	return code
}

func run(t *testing.T, input string, opts vm.Options) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := vm.Run(compile(t, input), runtime.NewEnv(&out), opts)
	return out.String(), err
}

// Simple test: 1 + 2 = 3 using hand-written code.
func TestVM_SimpleAdd(t *testing.T) {
	p := ir.NewProgram()
	p.Emit(ir.OpLoadL, 0, ir.RegZR, 1)
	p.Emit(ir.OpLoadL, 0, ir.RegZR, 2)
	p.EmitPrim(ir.PrimAdd)
	p.EmitPrim(ir.PrimPutintnl)
	p.Emit(ir.OpHalt, 0, ir.RegZR, 0)

	var out bytes.Buffer
	err := vm.Run(p, runtime.NewEnv(&out), vm.Options{})
	be.Err(t, err, nil)
	be.Equal(t, out.String(), "3\n")
}

func TestVM_Programs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "print sum",
			input: `class Main {
    public static void main(String[] args) {
        int x = 1 + 2;
        System.out.println(x);
    }
}`,
			want: "3\n",
		},
		{
			name: "recursion",
			input: `class Main {
    public static void main(String[] args) {
        System.out.println(fact(5));
    }
    static int fact(int n) {
        if (n <= 1) return 1;
        return n * fact(n - 1);
    }
}`,
			want: "120\n",
		},
		{
			name: "arrays",
			input: `class Main {
    public static void main(String[] args) {
        int[] a = new int[4];
        int i = 0;
        while (i < a.length) {
            a[i] = i * i;
            i = i + 1;
        }
        a[2] = a[2] + 1;
        for (int j = 0; j < a.length; j = j + 1)
            System.out.println(a[j]);
    }
}`,
			want: "0\n1\n5\n9\n",
		},
		{
			name: "objects and fields",
			input: `class Main {
    public static void main(String[] args) {
        Counter c = new Counter();
        c.step = 3;
        c.bump();
        c.bump();
        System.out.println(c.total);
        System.out.println(c.get());
    }
}
class Counter {
    int total;
    int step;
    void bump() { total = total + step; }
    int get() { return this.total * 10; }
}`,
			want: "6\n60\n",
		},
		{
			name: "static fields",
			input: `class Main {
    static int calls;
    public static void main(String[] args) {
        tick();
        tick();
        Other.n = calls + 40;
        System.out.println(Other.n);
    }
    static void tick() { calls = calls + 1; }
}
class Other {
    static int n;
}`,
			want: "42\n",
		},
		{
			name: "short circuit",
			input: `class Main {
    public static void main(String[] args) {
        Main m = null;
        if (m != null && m.bad()) System.out.println(1);
        else System.out.println(2);
        if (true || m.bad()) System.out.println(3);
    }
    boolean bad() { return true; }
}`,
			want: "2\n3\n",
		},
		{
			name: "nested blocks reuse slots",
			input: `class Main {
    public static void main(String[] args) {
        int a = 1;
        {
            int b = 2;
            a = a + b;
        }
        int c = 4;
        System.out.println(a + c);
    }
}`,
			want: "7\n",
		},
		{
			name: "object arrays and linked objects",
			input: `class Main {
    public static void main(String[] args) {
        Node[] nodes = new Node[3];
        int i = 0;
        while (i < 3) {
            Node n = new Node();
            n.value = i + 10;
            if (i > 0) n.next = nodes[i - 1];
            nodes[i] = n;
            i = i + 1;
        }
        Node last = nodes[2];
        System.out.println(last.sum());
    }
}
class Node {
    int value;
    Node next;
    int sum() {
        if (next == null) return value;
        return value + next.sum();
    }
}`,
			want: "33\n",
		},
		{
			name: "arithmetic",
			input: `class Main {
    public static void main(String[] args) {
        System.out.println(7 / 2);
        System.out.println(-7 / 2);
        System.out.println(2 - 3 * 4);
        boolean b = !(1 >= 2) && 3 != 4;
        if (b) System.out.println(1);
    }
}`,
			want: "3\n-3\n-10\n1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.input, vm.Options{})
			be.Err(t, err, nil)
			be.Equal(t, out, tt.want)
		})
	}
}

func TestVM_RuntimeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
		out   string
	}{
		{
			name: "null field",
			input: `class Main {
    int x;
    public static void main(String[] args) {
        System.out.println(1);
        Main m = null;
        System.out.println(m.x);
    }
}`,
			want: vm.ErrNullPointer,
			out:  "1\n",
		},
		{
			name: "null call",
			input: `class Main {
    public static void main(String[] args) {
        Main m = null;
        m.f();
    }
    void f() { }
}`,
			want: vm.ErrNullPointer,
		},
		{
			name: "index out of bounds",
			input: `class Main {
    public static void main(String[] args) {
        int[] a = new int[2];
        a[2] = 1;
    }
}`,
			want: vm.ErrIndexOutOfBounds,
		},
		{
			name: "negative size",
			input: `class Main {
    public static void main(String[] args) {
        int[] a = new int[0 - 1];
    }
}`,
			want: vm.ErrNegativeSize,
		},
		{
			name: "division by zero",
			input: `class Main {
    public static void main(String[] args) {
        int z = 0;
        System.out.println(1 / z);
    }
}`,
			want: vm.ErrDivideByZero,
		},
		{
			name: "null args length",
			input: `class Main {
    public static void main(String[] args) {
        System.out.println(args.length);
    }
}`,
			want: vm.ErrNullPointer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.input, vm.Options{})
			be.True(t, errors.Is(err, tt.want))
			be.Equal(t, out, tt.out)
		})
	}
}

func TestVM_RuntimeErrorsInCorruptCode(t *testing.T) {
	tests := []struct {
		name string
		code []ir.Instruction
		want error
	}{
		{
			name: "arrayref outside heap",
			code: []ir.Instruction{
				{Op: ir.OpLoadL, D: 999999},
				{Op: ir.OpLoadL, D: 0},
				{Op: ir.OpCall, R: ir.RegPB, D: int(ir.PrimArrayref)},
			},
			want: vm.ErrBadAddress,
		},
		{
			name: "arraylen on stack address",
			code: []ir.Instruction{
				{Op: ir.OpLoadL, D: 5},
				{Op: ir.OpCall, R: ir.RegPB, D: int(ir.PrimArraylen)},
			},
			want: vm.ErrBadAddress,
		},
		{
			name: "fieldupd outside heap",
			code: []ir.Instruction{
				{Op: ir.OpLoadL, D: -3},
				{Op: ir.OpLoadL, D: 0},
				{Op: ir.OpLoadL, D: 1},
				{Op: ir.OpCall, R: ir.RegPB, D: int(ir.PrimFieldupd)},
			},
			want: vm.ErrBadAddress,
		},
		{
			name: "newobj negative field count",
			code: []ir.Instruction{
				{Op: ir.OpLoadL, D: ir.NoClass},
				{Op: ir.OpLoadL, D: -4},
				{Op: ir.OpCall, R: ir.RegPB, D: int(ir.PrimNewobj)},
			},
			want: vm.ErrNegativeSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ir.NewProgram()
			p.Code = append(tt.code, ir.Instruction{Op: ir.OpHalt})
			err := vm.Run(p, runtime.NewEnv(nil), vm.Options{})
			be.Err(t, err, tt.want)
		})
	}
}

func TestVM_StepLimit(t *testing.T) {
	input := `class Main {
    public static void main(String[] args) {
        while (true) { }
    }
}`
	_, err := run(t, input, vm.Options{MaxSteps: 1000})
	be.True(t, errors.Is(err, vm.ErrStepLimit))
}

func TestVM_StackOverflow(t *testing.T) {
	input := `class Main {
    public static void main(String[] args) {
        System.out.println(down(1));
    }
    static int down(int n) { return down(n + 1); }
}`
	_, err := run(t, input, vm.Options{MemorySize: 1024})
	be.True(t, errors.Is(err, vm.ErrStackOverflow))
}

func TestVM_RunsDecodedProgram(t *testing.T) {
	input := `class Main {
    public static void main(String[] args) {
        System.out.println(6 * 7);
    }
}`
	var obj bytes.Buffer
	be.Err(t, ir.WriteProgram(&obj, compile(t, input)), nil)
	p, err := ir.ReadProgram(&obj)
	be.Err(t, err, nil)

	var out bytes.Buffer
	m := vm.NewVM(p, runtime.NewEnv(&out), vm.Options{})
	be.Err(t, m.Run(), nil)
	be.Equal(t, out.String(), "42\n")
	be.True(t, m.Steps() > 0)
}
