// Package vm interprets mJAM programs.
package vm

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/shahneil/mini-java-compiler/internal/ir"
	"github.com/shahneil/mini-java-compiler/internal/runtime"
)

var log = commonlog.GetLogger("minijava.vm")

const DefaultMemorySize = 1 << 16

var (
	ErrNullPointer      = errors.New("null pointer")
	ErrIndexOutOfBounds = errors.New("array index out of bounds")
	ErrNegativeSize     = errors.New("negative array size")
	ErrDivideByZero     = errors.New("division by zero")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrHeapOverflow     = errors.New("heap overflow")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrStepLimit        = errors.New("step limit exceeded")
	ErrBadAddress       = errors.New("bad heap address")
)

// Options bounds an interpreter run. Zero values mean the defaults:
// DefaultMemorySize words and no step limit.
type Options struct {
	MaxSteps   int
	MemorySize int
}

// VM is the mJAM machine. The stack grows up from address 0 (SB), the
// heap grows down from the end of memory (HB).
type VM struct {
	prog *ir.Program
	mem  []int

	st int // stack top: next free word
	hb int
	ht int // heap top: lowest allocated word
	lb int
	ob int
	cp int

	env   *runtime.Env
	opts  Options
	steps int
}

// NewVM creates a VM for the given program.
func NewVM(p *ir.Program, env *runtime.Env, opts Options) *VM {
	if env == nil {
		env = runtime.DefaultEnv()
	}
	if opts.MemorySize <= 0 {
		opts.MemorySize = DefaultMemorySize
	}
	return &VM{
		prog: p,
		mem:  make([]int, opts.MemorySize),
		hb:   opts.MemorySize,
		ht:   opts.MemorySize,
		env:  env,
		opts: opts,
	}
}

// Run executes the program from address 0 until HALT. Output is flushed
// even when execution fails.
func Run(p *ir.Program, env *runtime.Env, opts Options) error {
	return NewVM(p, env, opts).Run()
}

// Steps returns the number of instructions executed so far.
func (vm *VM) Steps() int { return vm.steps }

// Run executes from address 0 until HALT.
func (vm *VM) Run() (err error) {
	defer func() {
		if ferr := vm.env.Flush(); err == nil {
			err = ferr
		}
	}()

	for {
		if vm.opts.MaxSteps > 0 && vm.steps >= vm.opts.MaxSteps {
			return vm.fault(ErrStepLimit)
		}
		if vm.cp < 0 || vm.cp >= len(vm.prog.Code) {
			return fmt.Errorf("code pointer out of range: %d", vm.cp)
		}
		in := vm.prog.Code[vm.cp]
		vm.steps++

		if in.Op == ir.OpHalt {
			log.Debugf("halted after %d steps", vm.steps)
			return nil
		}
		if err := vm.step(in); err != nil {
			return vm.fault(err)
		}
	}
}

func (vm *VM) fault(err error) error {
	return fmt.Errorf("runtime error at %d: %w", vm.cp, err)
}

// push/pop

func (vm *VM) push(v int) error {
	if vm.st >= vm.ht {
		return ErrStackOverflow
	}
	vm.mem[vm.st] = v
	vm.st++
	return nil
}

func (vm *VM) pop() (int, error) {
	if vm.st == 0 {
		return 0, ErrStackUnderflow
	}
	vm.st--
	return vm.mem[vm.st], nil
}

// reg returns the current value of r.
func (vm *VM) reg(r ir.Reg) int {
	switch r {
	case ir.RegST:
		return vm.st
	case ir.RegHB:
		return vm.hb
	case ir.RegHT:
		return vm.ht
	case ir.RegLB:
		return vm.lb
	case ir.RegOB:
		return vm.ob
	case ir.RegCP:
		return vm.cp
	case ir.RegCT:
		return len(vm.prog.Code)
	}
	// ZR, CB, PB and SB are all zero.
	return 0
}

func (vm *VM) addr(a int) (int, error) {
	if a < 0 || a >= len(vm.mem) {
		return 0, fmt.Errorf("address %d out of range", a)
	}
	return a, nil
}

// step executes one instruction other than HALT and advances cp.
func (vm *VM) step(in ir.Instruction) error {
	next := vm.cp + 1

	switch in.Op {
	case ir.OpLoad:
		a, err := vm.addr(vm.reg(in.R) + in.D)
		if err != nil {
			return err
		}
		if err := vm.push(vm.mem[a]); err != nil {
			return err
		}

	case ir.OpLoadA:
		if err := vm.push(vm.reg(in.R) + in.D); err != nil {
			return err
		}

	case ir.OpLoadI:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.addr(v)
		if err != nil {
			return err
		}
		if err := vm.push(vm.mem[a]); err != nil {
			return err
		}

	case ir.OpLoadL:
		if err := vm.push(in.D); err != nil {
			return err
		}

	case ir.OpStore:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.addr(vm.reg(in.R) + in.D)
		if err != nil {
			return err
		}
		vm.mem[a] = v

	case ir.OpStoreI:
		target, err := vm.pop()
		if err != nil {
			return err
		}
		v, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.addr(target)
		if err != nil {
			return err
		}
		vm.mem[a] = v

	case ir.OpCall:
		if in.R == ir.RegPB {
			if err := vm.callPrim(ir.Prim(in.D)); err != nil {
				return err
			}
			break
		}
		if err := vm.enter(vm.ob, next); err != nil {
			return err
		}
		next = vm.reg(in.R) + in.D

	case ir.OpCallI:
		inst, err := vm.pop()
		if err != nil {
			return err
		}
		if inst == ir.Null {
			return ErrNullPointer
		}
		if err := vm.enter(inst, next); err != nil {
			return err
		}
		next = vm.reg(in.R) + in.D

	case ir.OpReturn:
		ret, err := vm.leave(in.N, in.D)
		if err != nil {
			return err
		}
		next = ret

	case ir.OpPush:
		for i := 0; i < in.D; i++ {
			if err := vm.push(0); err != nil {
				return err
			}
		}

	case ir.OpPop:
		if vm.st-in.N-in.D < 0 {
			return ErrStackUnderflow
		}
		base := vm.st - in.N - in.D
		copy(vm.mem[base:], vm.mem[vm.st-in.N:vm.st])
		vm.st = base + in.N

	case ir.OpJump:
		next = vm.reg(in.R) + in.D

	case ir.OpJumpI:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		next = v

	case ir.OpJumpIf:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		if v == in.N {
			next = vm.reg(in.R) + in.D
		}

	default:
		return fmt.Errorf("unknown opcode %s", in.Op)
	}

	vm.cp = next
	return nil
}

// enter pushes a frame: dynamic link, caller's OB, return address.
func (vm *VM) enter(ob, ret int) error {
	lb := vm.st
	if err := vm.push(vm.lb); err != nil {
		return err
	}
	if err := vm.push(vm.ob); err != nil {
		return err
	}
	if err := vm.push(ret); err != nil {
		return err
	}
	vm.lb = lb
	vm.ob = ob
	return nil
}

// leave pops the current frame and its args words of arguments, keeping
// the top results words, and returns the return address.
func (vm *VM) leave(results, args int) (int, error) {
	if vm.st-results < vm.lb+ir.FrameSize {
		return 0, ErrStackUnderflow
	}
	lb := vm.lb
	ret := vm.mem[lb+ir.FrameReturnAddr]
	ob := vm.mem[lb+ir.FrameSavedOB]
	dyn := vm.mem[lb+ir.FrameDynamicLink]

	base := lb - args
	if base < 0 {
		return 0, ErrStackUnderflow
	}
	copy(vm.mem[base:], vm.mem[vm.st-results:vm.st])
	vm.st = base + results
	vm.lb = dyn
	vm.ob = ob
	return ret, nil
}

// ---------- Primitives ----------

func (vm *VM) callPrim(p ir.Prim) error {
	if runtime.IsConsole(p) {
		n, _ := p.Arity()
		args := make([]int, n)
		for i := n - 1; i >= 0; i-- {
			v, err := vm.pop()
			if err != nil {
				return err
			}
			args[i] = v
		}
		return runtime.CallPrimitive(vm.env, p, args)
	}

	switch p {
	case ir.PrimID:
		return nil

	case ir.PrimNot:
		return vm.unaryIntOp(func(a int32) int32 { return boolWord(a == ir.False) })
	case ir.PrimNeg:
		return vm.unaryIntOp(func(a int32) int32 { return -a })
	case ir.PrimSucc:
		return vm.unaryIntOp(func(a int32) int32 { return a + 1 })
	case ir.PrimPred:
		return vm.unaryIntOp(func(a int32) int32 { return a - 1 })

	case ir.PrimAnd:
		return vm.binaryIntOp(func(a, b int32) int32 { return boolWord(a != ir.False && b != ir.False) })
	case ir.PrimOr:
		return vm.binaryIntOp(func(a, b int32) int32 { return boolWord(a != ir.False || b != ir.False) })
	case ir.PrimAdd:
		return vm.binaryIntOp(func(a, b int32) int32 { return a + b })
	case ir.PrimSub:
		return vm.binaryIntOp(func(a, b int32) int32 { return a - b })
	case ir.PrimMult:
		return vm.binaryIntOp(func(a, b int32) int32 { return a * b })
	case ir.PrimDiv, ir.PrimMod:
		b, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.pop()
		if err != nil {
			return err
		}
		if b == 0 {
			return ErrDivideByZero
		}
		if p == ir.PrimDiv {
			return vm.push(int(int32(a) / int32(b)))
		}
		return vm.push(int(int32(a) % int32(b)))

	case ir.PrimLt:
		return vm.binaryIntCmp(func(a, b int32) bool { return a < b })
	case ir.PrimLe:
		return vm.binaryIntCmp(func(a, b int32) bool { return a <= b })
	case ir.PrimGe:
		return vm.binaryIntCmp(func(a, b int32) bool { return a >= b })
	case ir.PrimGt:
		return vm.binaryIntCmp(func(a, b int32) bool { return a > b })
	case ir.PrimEq:
		return vm.binaryIntCmp(func(a, b int32) bool { return a == b })
	case ir.PrimNe:
		return vm.binaryIntCmp(func(a, b int32) bool { return a != b })

	case ir.PrimNewobj:
		n, err := vm.pop()
		if err != nil {
			return err
		}
		class, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.alloc(class, n)
		if err != nil {
			return err
		}
		return vm.push(a)

	case ir.PrimNewarr:
		n, err := vm.pop()
		if err != nil {
			return err
		}
		if n < 0 {
			return ErrNegativeSize
		}
		a, err := vm.alloc(ir.ArrayTag, n)
		if err != nil {
			return err
		}
		return vm.push(a)

	case ir.PrimArrayref:
		i, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.pop()
		if err != nil {
			return err
		}
		slot, err := vm.element(a, i)
		if err != nil {
			return err
		}
		return vm.push(vm.mem[slot])

	case ir.PrimArraylen:
		a, err := vm.pop()
		if err != nil {
			return err
		}
		n, err := vm.object(a)
		if err != nil {
			return err
		}
		return vm.push(n)

	case ir.PrimArrayupd:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		i, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.pop()
		if err != nil {
			return err
		}
		slot, err := vm.element(a, i)
		if err != nil {
			return err
		}
		vm.mem[slot] = v

	case ir.PrimFieldref:
		f, err := vm.pop()
		if err != nil {
			return err
		}
		o, err := vm.pop()
		if err != nil {
			return err
		}
		slot, err := vm.field(o, f)
		if err != nil {
			return err
		}
		return vm.push(vm.mem[slot])

	case ir.PrimFieldupd:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		f, err := vm.pop()
		if err != nil {
			return err
		}
		o, err := vm.pop()
		if err != nil {
			return err
		}
		slot, err := vm.field(o, f)
		if err != nil {
			return err
		}
		vm.mem[slot] = v

	default:
		return fmt.Errorf("unknown primitive %d", int(p))
	}
	return nil
}

// alloc reserves a zeroed heap block of n words below a two word header
// and returns its address.
func (vm *VM) alloc(tag, n int) (int, error) {
	if n < 0 {
		return 0, ErrNegativeSize
	}
	size := n + ir.HeaderSize
	if vm.ht-size < vm.st {
		return 0, ErrHeapOverflow
	}
	vm.ht -= size
	a := vm.ht + ir.HeaderSize
	vm.mem[a-2] = tag
	vm.mem[a-1] = n
	clear(vm.mem[a : a+n])
	return a, nil
}

// object checks that a is the address of an allocated heap block and
// returns the block's size.
func (vm *VM) object(a int) (int, error) {
	if a == ir.Null {
		return 0, ErrNullPointer
	}
	if a-ir.HeaderSize < vm.ht || a >= vm.hb {
		return 0, fmt.Errorf("%w: %d", ErrBadAddress, a)
	}
	n := vm.mem[a-1]
	if n < 0 || a+n > vm.hb {
		return 0, fmt.Errorf("%w: %d", ErrBadAddress, a)
	}
	return n, nil
}

func (vm *VM) element(a, i int) (int, error) {
	n, err := vm.object(a)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfBounds, i, n)
	}
	return a + i, nil
}

func (vm *VM) field(o, f int) (int, error) {
	n, err := vm.object(o)
	if err != nil {
		return 0, err
	}
	if f < 0 || f >= n {
		return 0, fmt.Errorf("field %d out of range", f)
	}
	return o + f, nil
}

func boolWord(b bool) int32 {
	if b {
		return ir.True
	}
	return ir.False
}

func (vm *VM) unaryIntOp(op func(a int32) int32) error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	return vm.push(int(op(int32(a))))
}

func (vm *VM) binaryIntOp(op func(a, b int32) int32) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	return vm.push(int(op(int32(a), int32(b))))
}

func (vm *VM) binaryIntCmp(op func(a, b int32) bool) error {
	return vm.binaryIntOp(func(a, b int32) int32 { return boolWord(op(a, b)) })
}
