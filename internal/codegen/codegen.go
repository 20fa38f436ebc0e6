// Package codegen lays out storage for a checked program and emits mJAM.
package codegen

import (
	"github.com/tliron/commonlog"

	"github.com/shahneil/mini-java-compiler/internal/ast"
	"github.com/shahneil/mini-java-compiler/internal/diag"
	"github.com/shahneil/mini-java-compiler/internal/ir"
	"github.com/shahneil/mini-java-compiler/internal/token"
)

var log = commonlog.GetLogger("minijava.codegen")

// Generator holds the state of one code generation pass.
type Generator struct {
	rep  *diag.Reporter
	prog *ir.Program

	patches patchList

	entryCall int // address of the placeholder call to main
	main      *ast.MethodDecl

	method      *ast.MethodDecl
	frameOffset int // LB-relative offset of the next local
}

type bailout struct{ err error }

func NewGenerator(rep *diag.Reporter) *Generator {
	return &Generator{
		rep:  rep,
		prog: ir.NewProgram(),
	}
}

// Generate is shorthand for NewGenerator(rep).Generate(prog).
func Generate(prog *ast.Program, rep *diag.Reporter) (*ir.Program, error) {
	return NewGenerator(rep).Generate(prog)
}

// Generate emits code for a resolved and type checked program. A missing
// or duplicate main method is fatal and yields no program.
func (g *Generator) Generate(prog *ast.Program) (out *ir.Program, err error) {
	defer func() {
		if p := recover(); p != nil {
			b, ok := p.(bailout)
			if !ok {
				panic(p)
			}
			out, err = nil, b.err
		}
	}()

	g.layoutStatics(prog)

	// Entry: main(String[] args) is called with a null args array.
	g.prog.Emit(ir.OpLoadL, 0, ir.RegZR, ir.Null)
	g.entryCall = g.prog.Emit(ir.OpCall, 0, ir.RegCB, -1)
	g.prog.Emit(ir.OpHalt, 0, ir.RegZR, 0)

	for _, cd := range prog.Classes {
		g.layoutFields(cd)
	}
	for _, cd := range prog.Classes {
		for _, md := range cd.Methods {
			g.genMethod(md)
		}
	}

	if g.main == nil {
		g.fail(g.rep.Errorf(prog.End(), "No main method found"))
	}
	g.patches.add(g.entryCall, g.main)

	log.Debugf("patching %d call sites", g.patches.len())
	if err := g.patches.apply(g.prog); err != nil {
		g.rep.Report(err)
		g.fail(err)
	}

	return g.prog, nil
}

func (g *Generator) fail(err error) {
	panic(bailout{err: err})
}

// ---------- Layout ----------

// layoutStatics gives each static field a slot in the global segment and
// pushes its zero value.
func (g *Generator) layoutStatics(prog *ast.Program) {
	offset := 0
	for _, cd := range prog.Classes {
		for _, fd := range cd.Fields {
			if !fd.Static {
				continue
			}
			g.prog.Emit(ir.OpPush, 0, ir.RegZR, 1)
			fd.Entity = &ast.Entity{Size: 1, Offset: offset, Base: ir.RegSB}
			offset++
		}
	}
	g.prog.StaticSize = offset
}

// layoutFields numbers the instance fields of cd from zero.
func (g *Generator) layoutFields(cd *ast.ClassDecl) {
	for i, fd := range cd.InstanceFields() {
		fd.Entity = &ast.Entity{Size: 1, Offset: i, Base: ir.RegOB}
	}
}

// isEntryPoint reports whether md has the signature
// public static void main(String[] args).
func isEntryPoint(md *ast.MethodDecl) bool {
	if md.Name != "main" || !md.Static || md.Private || len(md.Params) != 1 {
		return false
	}
	if rt, ok := md.Result.(*ast.BaseType); !ok || rt.Kind != ast.Void {
		return false
	}
	at, ok := md.Params[0].Type.(*ast.ArrayType)
	if !ok {
		return false
	}
	ct, ok := at.Elem.(*ast.ClassType)
	return ok && ct.Class != nil && ct.Class.Builtin == ast.BuiltinString
}

// ---------- Methods ----------

func (g *Generator) genMethod(md *ast.MethodDecl) {
	addr := g.prog.NextAddr()
	md.Entity = &ast.Entity{Size: 1, Offset: addr, Base: ir.RegCB}
	log.Debugf("method %s.%s at %d", md.Class.Name, md.Name, addr)

	if isEntryPoint(md) {
		if g.main != nil {
			g.fail(g.rep.Errorf(md.Pos(), "Duplicate main method, first declared at %s", g.main.Pos()))
		}
		g.main = md
	}

	n := len(md.Params)
	for i, pd := range md.Params {
		pd.Entity = &ast.Entity{Size: 1, Offset: i - n, Base: ir.RegLB}
	}

	g.method = md
	g.frameOffset = ir.FrameSize
	for _, s := range md.Body {
		g.genStmt(s)
	}
	g.method = nil
}

// ---------- Statements ----------

func (g *Generator) genStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		locals := 0
		for _, inner := range s.Stmts {
			if _, ok := inner.(*ast.VarDeclStmt); ok {
				locals++
			}
			g.genStmt(inner)
		}
		g.popLocals(locals)

	case *ast.VarDeclStmt:
		s.Var.Entity = &ast.Entity{Size: 1, Offset: g.frameOffset, Base: ir.RegLB}
		g.genExpr(s.Init)
		g.frameOffset++

	case *ast.AssignStmt:
		g.genAssign(s)

	case *ast.CallStmt:
		if !g.genCall(s.Call) {
			g.prog.Emit(ir.OpPop, 0, ir.RegZR, 1)
		}

	case *ast.ReturnStmt:
		n := len(g.method.Params)
		if s.Result != nil {
			g.genExpr(s.Result)
			g.prog.Emit(ir.OpReturn, 1, ir.RegZR, n)
		} else {
			g.prog.Emit(ir.OpReturn, 0, ir.RegZR, n)
		}

	case *ast.IfStmt:
		g.genExpr(s.Cond)
		toElse := g.prog.Emit(ir.OpJumpIf, ir.False, ir.RegCB, -1)
		g.genStmt(s.Then)
		if s.Else == nil {
			g.prog.Patch(toElse, g.prog.NextAddr())
			return
		}
		toEnd := g.prog.Emit(ir.OpJump, 0, ir.RegCB, -1)
		g.prog.Patch(toElse, g.prog.NextAddr())
		g.genStmt(s.Else)
		g.prog.Patch(toEnd, g.prog.NextAddr())

	case *ast.WhileStmt:
		top := g.prog.NextAddr()
		g.genExpr(s.Cond)
		toEnd := g.prog.Emit(ir.OpJumpIf, ir.False, ir.RegCB, -1)
		g.genStmt(s.Body)
		g.prog.Emit(ir.OpJump, 0, ir.RegCB, top)
		g.prog.Patch(toEnd, g.prog.NextAddr())

	case *ast.ForStmt:
		locals := 0
		if s.Init != nil {
			if _, ok := s.Init.(*ast.VarDeclStmt); ok {
				locals++
			}
			g.genStmt(s.Init)
		}
		top := g.prog.NextAddr()
		toEnd := -1
		if s.Cond != nil {
			g.genExpr(s.Cond)
			toEnd = g.prog.Emit(ir.OpJumpIf, ir.False, ir.RegCB, -1)
		}
		g.genStmt(s.Body)
		if s.Update != nil {
			g.genStmt(s.Update)
		}
		g.prog.Emit(ir.OpJump, 0, ir.RegCB, top)
		if toEnd >= 0 {
			g.prog.Patch(toEnd, g.prog.NextAddr())
		}
		g.popLocals(locals)
	}
}

// popLocals discards the n innermost locals when their scope closes.
func (g *Generator) popLocals(n int) {
	if n == 0 {
		return
	}
	g.prog.Emit(ir.OpPop, 0, ir.RegZR, n)
	g.frameOffset -= n
}

func (g *Generator) genAssign(s *ast.AssignStmt) {
	switch target := s.Target.(type) {
	case *ast.IdRef:
		g.genExpr(s.Value)
		e := entityOf(target.Binding)
		g.prog.Emit(ir.OpStore, 0, e.Base, e.Offset)

	case *ast.QualRef:
		fd := target.Binding.(*ast.FieldDecl)
		if fd.Static {
			g.genExpr(s.Value)
			g.prog.Emit(ir.OpStore, 0, ir.RegSB, fd.Entity.Offset)
			return
		}
		g.genRef(target.Prefix)
		g.prog.Emit(ir.OpLoadL, 0, ir.RegZR, fd.Entity.Offset)
		g.genExpr(s.Value)
		g.prog.EmitPrim(ir.PrimFieldupd)

	case *ast.IxRef:
		g.genRef(target.Base)
		g.genExpr(target.Index)
		g.genExpr(s.Value)
		g.prog.EmitPrim(ir.PrimArrayupd)
	}
}

// entityOf returns the storage of a field, parameter or local.
func entityOf(d ast.Decl) *ast.Entity {
	switch d := d.(type) {
	case *ast.FieldDecl:
		return d.Entity
	case *ast.ParamDecl:
		return d.Entity
	case *ast.VarDecl:
		return d.Entity
	}
	return nil
}

// ---------- Expressions ----------

var binaryPrims = map[token.Kind]ir.Prim{
	token.Plus:  ir.PrimAdd,
	token.Minus: ir.PrimSub,
	token.Star:  ir.PrimMult,
	token.Slash: ir.PrimDiv,
	token.Lt:    ir.PrimLt,
	token.LtEq:  ir.PrimLe,
	token.Gt:    ir.PrimGt,
	token.GtEq:  ir.PrimGe,
	token.Eq:    ir.PrimEq,
	token.NotEq: ir.PrimNe,
}

func (g *Generator) genExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.IntLiteral:
		g.prog.Emit(ir.OpLoadL, 0, ir.RegZR, e.Value)

	case *ast.BoolLiteral:
		v := ir.False
		if e.Value {
			v = ir.True
		}
		g.prog.Emit(ir.OpLoadL, 0, ir.RegZR, v)

	case *ast.NullLiteral:
		g.prog.Emit(ir.OpLoadL, 0, ir.RegZR, ir.Null)

	case *ast.UnaryExpr:
		g.genExpr(e.X)
		if e.Op == token.Bang {
			g.prog.EmitPrim(ir.PrimNot)
		} else {
			g.prog.EmitPrim(ir.PrimNeg)
		}

	case *ast.BinaryExpr:
		if e.Op == token.AndAnd || e.Op == token.OrOr {
			g.genLogical(e)
			return
		}
		g.genExpr(e.Left)
		g.genExpr(e.Right)
		g.prog.EmitPrim(binaryPrims[e.Op])

	case *ast.RefExpr:
		g.genRef(e.Ref)

	case *ast.CallExpr:
		g.genCall(e)

	case *ast.NewObjectExpr:
		g.prog.Emit(ir.OpLoadL, 0, ir.RegZR, ir.NoClass)
		g.prog.Emit(ir.OpLoadL, 0, ir.RegZR, len(e.Class.Class.InstanceFields()))
		g.prog.EmitPrim(ir.PrimNewobj)

	case *ast.NewArrayExpr:
		g.genExpr(e.Size)
		g.prog.EmitPrim(ir.PrimNewarr)
	}
}

// genLogical evaluates the right operand only when the left one does not
// decide the result:
//
//	left
//	JUMPIF (short) Lshort
//	right
//	JUMP Lend
//	Lshort: LOADL short
//	Lend:
func (g *Generator) genLogical(e *ast.BinaryExpr) {
	short := ir.False
	if e.Op == token.OrOr {
		short = ir.True
	}

	g.genExpr(e.Left)
	toShort := g.prog.Emit(ir.OpJumpIf, short, ir.RegCB, -1)
	g.genExpr(e.Right)
	toEnd := g.prog.Emit(ir.OpJump, 0, ir.RegCB, -1)
	g.prog.Patch(toShort, g.prog.NextAddr())
	g.prog.Emit(ir.OpLoadL, 0, ir.RegZR, short)
	g.prog.Patch(toEnd, g.prog.NextAddr())
}

// genRef pushes the value a reference denotes.
func (g *Generator) genRef(ref ast.Ref) {
	switch ref := ref.(type) {
	case *ast.ThisRef:
		g.prog.Emit(ir.OpLoadA, 0, ir.RegOB, 0)

	case *ast.IdRef:
		e := entityOf(ref.Binding)
		g.prog.Emit(ir.OpLoad, 0, e.Base, e.Offset)

	case *ast.QualRef:
		fd := ref.Binding.(*ast.FieldDecl)
		switch {
		case fd.Builtin == ast.BuiltinLength:
			g.genRef(ref.Prefix)
			g.prog.EmitPrim(ir.PrimArraylen)
		case fd.Builtin == ast.BuiltinOut:
			// System.out has no storage; println ignores its receiver.
			g.prog.Emit(ir.OpLoadL, 0, ir.RegZR, ir.Null)
		case fd.Static:
			g.prog.Emit(ir.OpLoad, 0, ir.RegSB, fd.Entity.Offset)
		default:
			g.genRef(ref.Prefix)
			g.prog.Emit(ir.OpLoadL, 0, ir.RegZR, fd.Entity.Offset)
			g.prog.EmitPrim(ir.PrimFieldref)
		}

	case *ast.IxRef:
		g.genRef(ref.Base)
		g.genExpr(ref.Index)
		g.prog.EmitPrim(ir.PrimArrayref)
	}
}

// genCall pushes the arguments and calls the method. It reports whether
// the method is void, in which case nothing is left on the stack.
func (g *Generator) genCall(call *ast.CallExpr) (void bool) {
	md := call.Method.Decl().(*ast.MethodDecl)
	if rt, ok := md.Result.(*ast.BaseType); ok && rt.Kind == ast.Void {
		void = true
	}

	for _, arg := range call.Args {
		g.genExpr(arg)
	}

	if md.Builtin == ast.BuiltinPrintln {
		g.prog.EmitPrim(ir.PrimPutintnl)
		return void
	}

	if md.Static {
		g.emitCallTo(ir.OpCall, md)
		return void
	}

	switch ref := call.Method.(type) {
	case *ast.QualRef:
		g.genRef(ref.Prefix)
	default:
		g.prog.Emit(ir.OpLoadA, 0, ir.RegOB, 0)
	}
	g.emitCallTo(ir.OpCallI, md)
	return void
}

// emitCallTo emits a call to md, deferring the address through the patch
// list when md's code has not been emitted yet.
func (g *Generator) emitCallTo(op ir.Op, md *ast.MethodDecl) {
	if md.Entity != nil {
		g.prog.Emit(op, 0, ir.RegCB, md.Entity.Offset)
		return
	}
	addr := g.prog.Emit(op, 0, ir.RegCB, -1)
	g.patches.add(addr, md)
}
