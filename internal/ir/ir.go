// Package ir defines mJAM, the stack machine code emitted by the compiler.
//
// Memory is a single word-addressed store. The stack grows upward from SB,
// the heap grows downward from HB. Code is addressed from CB; primitive
// routines live in their own segment starting at PB and are invoked as
// CALL with register PB.
package ir

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Op is an mJAM opcode.
type Op byte

const (
	OpLoad   Op = iota // LOAD d[r]: push mem[r+d]
	OpLoadA            // LOADA d[r]: push address r+d
	OpLoadI            // LOADI: pop address, push mem[address]
	OpLoadL            // LOADL d: push literal d
	OpStore            // STORE d[r]: pop into mem[r+d]
	OpStoreI           // STOREI: pop address, pop value, store
	OpCall             // CALL d[r]: call code address r+d, or primitive d if r is PB
	OpCallI            // CALLI d[r]: pop instance address, call r+d with OB set to it
	OpReturn           // RETURN (n) d: return n result words, pop d argument words
	OpPush             // PUSH d: push d zero words
	OpPop              // POP (n) d: keep the top n words, discard the d words below
	OpJump             // JUMP d[r]: jump to r+d
	OpJumpI            // JUMPI: pop address, jump to it
	OpJumpIf           // JUMPIF (n) d[r]: pop value, jump to r+d if it equals n
	OpHalt             // HALT
)

var opNames = [...]string{
	OpLoad:   "LOAD",
	OpLoadA:  "LOADA",
	OpLoadI:  "LOADI",
	OpLoadL:  "LOADL",
	OpStore:  "STORE",
	OpStoreI: "STOREI",
	OpCall:   "CALL",
	OpCallI:  "CALLI",
	OpReturn: "RETURN",
	OpPush:   "PUSH",
	OpPop:    "POP",
	OpJump:   "JUMP",
	OpJumpI:  "JUMPI",
	OpJumpIf: "JUMPIF",
	OpHalt:   "HALT",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Reg is an mJAM register.
type Reg byte

const (
	RegZR Reg = iota // zero
	RegCB            // code base
	RegCT            // code top
	RegPB            // primitives base
	RegPT            // primitives top
	RegSB            // stack base
	RegST            // stack top
	RegHB            // heap base
	RegHT            // heap top
	RegLB            // local base (frame)
	RegOB            // object base (current instance)
	RegCP            // code pointer
)

var regNames = [...]string{"ZR", "CB", "CT", "PB", "PT", "SB", "ST", "HB", "HT", "LB", "OB", "CP"}

func (r Reg) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return fmt.Sprintf("R%d", int(r))
}

// Frame layout relative to LB. Parameters sit at negative offsets, the
// last one at -1.
const (
	FrameDynamicLink = 0 // caller's LB
	FrameSavedOB     = 1 // caller's OB
	FrameReturnAddr  = 2 // caller's CP
	FrameSize        = 3 // first local is at FrameSize
)

// Heap objects carry two header words below their address: the class
// descriptor (or ArrayTag) at -2 and the size at -1.
const (
	HeaderSize = 2
	ArrayTag   = -2
	NoClass    = -1
	Null       = 0
	True       = 1
	False      = 0
)

// Prim identifies a primitive routine, invoked as CALL d[PB].
type Prim int

const (
	PrimID       Prim = iota + 1 // x -> x
	PrimNot                      // b -> !b
	PrimAnd                      // a b -> a&&b
	PrimOr                       // a b -> a||b
	PrimSucc                     // x -> x+1
	PrimPred                     // x -> x-1
	PrimNeg                      // x -> -x
	PrimAdd                      // x y -> x+y
	PrimSub                      // x y -> x-y
	PrimMult                     // x y -> x*y
	PrimDiv                      // x y -> x/y
	PrimMod                      // x y -> x%y
	PrimLt                       // x y -> x<y
	PrimLe                       // x y -> x<=y
	PrimGe                       // x y -> x>=y
	PrimGt                       // x y -> x>y
	PrimEq                       // x y -> x==y
	PrimNe                       // x y -> x!=y
	PrimPut                      // c -> (writes a character)
	PrimPuteol                   // -> (writes a newline)
	PrimPutint                   // x -> (writes x)
	PrimPutintnl                 // x -> (writes x and a newline)
	PrimNewobj                   // class n -> address
	PrimNewarr                   // n -> address
	PrimArrayref                 // a i -> a[i]
	PrimArraylen                 // a -> length of a
	PrimArrayupd                 // a i v -> (a[i] = v)
	PrimFieldref                 // o f -> o.f
	PrimFieldupd                 // o f v -> (o.f = v)

	primEnd
)

type primInfo struct {
	name string
	args int
	res  int
}

var prims = [...]primInfo{
	PrimID:       {"id", 1, 1},
	PrimNot:      {"not", 1, 1},
	PrimAnd:      {"and", 2, 1},
	PrimOr:       {"or", 2, 1},
	PrimSucc:     {"succ", 1, 1},
	PrimPred:     {"pred", 1, 1},
	PrimNeg:      {"neg", 1, 1},
	PrimAdd:      {"add", 2, 1},
	PrimSub:      {"sub", 2, 1},
	PrimMult:     {"mult", 2, 1},
	PrimDiv:      {"div", 2, 1},
	PrimMod:      {"mod", 2, 1},
	PrimLt:       {"lt", 2, 1},
	PrimLe:       {"le", 2, 1},
	PrimGe:       {"ge", 2, 1},
	PrimGt:       {"gt", 2, 1},
	PrimEq:       {"eq", 2, 1},
	PrimNe:       {"ne", 2, 1},
	PrimPut:      {"put", 1, 0},
	PrimPuteol:   {"puteol", 0, 0},
	PrimPutint:   {"putint", 1, 0},
	PrimPutintnl: {"putintnl", 1, 0},
	PrimNewobj:   {"newobj", 2, 1},
	PrimNewarr:   {"newarr", 1, 1},
	PrimArrayref: {"arrayref", 2, 1},
	PrimArraylen: {"arraylen", 1, 1},
	PrimArrayupd: {"arrayupd", 3, 0},
	PrimFieldref: {"fieldref", 2, 1},
	PrimFieldupd: {"fieldupd", 3, 0},
}

// Valid reports whether p names a primitive routine.
func (p Prim) Valid() bool { return p > 0 && p < primEnd }

func (p Prim) String() string {
	if p.Valid() {
		return prims[p].name
	}
	return fmt.Sprintf("prim(%d)", int(p))
}

// Arity returns the number of words p pops and pushes.
func (p Prim) Arity() (args, results int) {
	if !p.Valid() {
		return 0, 0
	}
	return prims[p].args, prims[p].res
}

// Instruction is one mJAM instruction. N is the length operand used by
// RETURN, POP and JUMPIF; D is the displacement, literal or primitive.
type Instruction struct {
	Op Op
	R  Reg
	N  int
	D  int
}

func (in Instruction) String() string {
	switch in.Op {
	case OpLoad, OpLoadA, OpStore, OpJump, OpCallI:
		return fmt.Sprintf("%-7s %d[%s]", in.Op, in.D, in.R)
	case OpCall:
		if in.R == RegPB {
			return fmt.Sprintf("%-7s %s", in.Op, Prim(in.D))
		}
		return fmt.Sprintf("%-7s %d[%s]", in.Op, in.D, in.R)
	case OpLoadL, OpPush:
		return fmt.Sprintf("%-7s %d", in.Op, in.D)
	case OpReturn, OpPop:
		return fmt.Sprintf("%-7s (%d) %d", in.Op, in.N, in.D)
	case OpJumpIf:
		return fmt.Sprintf("%-7s (%d) %d[%s]", in.Op, in.N, in.D, in.R)
	}
	return in.Op.String()
}

// Program is a linked mJAM object: code plus the size of the static
// segment its prologue pushes.
type Program struct {
	BuildID    ulid.ULID
	StaticSize int
	Code       []Instruction
}

func NewProgram() *Program {
	return &Program{BuildID: ulid.Make()}
}

// NextAddr returns the address the next emitted instruction will get.
func (p *Program) NextAddr() int {
	return len(p.Code)
}

// Emit appends an instruction and returns its address.
func (p *Program) Emit(op Op, n int, r Reg, d int) int {
	p.Code = append(p.Code, Instruction{
		Op: op,
		R:  r,
		N:  n,
		D:  d,
	})
	return len(p.Code) - 1
}

// EmitPrim appends a call to a primitive routine.
func (p *Program) EmitPrim(prim Prim) int {
	return p.Emit(OpCall, 0, RegPB, int(prim))
}

// Patch sets the displacement of the instruction at addr.
func (p *Program) Patch(addr, d int) {
	p.Code[addr].D = d
}
