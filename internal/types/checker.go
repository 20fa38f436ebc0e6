package types

import (
	"github.com/shahneil/mini-java-compiler/internal/ast"
	"github.com/shahneil/mini-java-compiler/internal/diag"
	"github.com/shahneil/mini-java-compiler/internal/token"
)

// Info records the type computed for every checked expression.
type Info struct {
	Types map[ast.Expr]Type
}

// TypeOf returns the recorded type of e, or nil.
func (i *Info) TypeOf(e ast.Expr) Type {
	return i.Types[e]
}

// Checker validates a resolved program. It keeps going after an error so
// that independent mistakes are all reported.
type Checker struct {
	rep    *diag.Reporter
	info   *Info
	errors []error

	method *ast.MethodDecl
	result Type
}

func NewChecker(rep *diag.Reporter) *Checker {
	return &Checker{
		rep:  rep,
		info: &Info{Types: make(map[ast.Expr]Type)},
	}
}

// Check type checks prog. Void methods without a trailing return get an
// implicit one appended. The returned error is the first diagnostic, if any.
func Check(prog *ast.Program, rep *diag.Reporter) (*Info, error) {
	c := NewChecker(rep)
	c.CheckProgram(prog)
	if len(c.errors) > 0 {
		return c.info, c.errors[0]
	}
	return c.info, nil
}

func (c *Checker) Errors() []error { return c.errors }

func (c *Checker) addError(pos token.Position, format string, args ...interface{}) {
	c.errors = append(c.errors, c.rep.Errorf(pos, format, args...))
}

func (c *Checker) CheckProgram(prog *ast.Program) {
	for _, cd := range prog.Classes {
		for _, fd := range cd.Fields {
			c.checkDeclType("Field", fd)
		}
		for _, md := range cd.Methods {
			c.checkMethod(md)
		}
	}
}

// checkDeclType rejects void and malformed array types on a variable-like
// declaration.
func (c *Checker) checkDeclType(what string, d ast.Decl) Type {
	t := FromNode(d.DeclType())
	if IsVoid(t) {
		c.addError(d.Pos(), "%s %s cannot have type void", what, d.DeclName())
		return ErrorType
	}
	c.checkElemType(d.DeclType())
	return t
}

// checkElemType enforces that arrays hold ints or objects.
func (c *Checker) checkElemType(n ast.TypeNode) {
	at, ok := n.(*ast.ArrayType)
	if !ok {
		return
	}
	switch elem := at.Elem.(type) {
	case *ast.ClassType:
	case *ast.BaseType:
		if elem.Kind != ast.Int {
			c.addError(elem.Pos(), "Invalid array element type %s", elem.Kind)
		}
	default:
		c.addError(at.Pos(), "Invalid array element type %s", ast.TypeString(elem))
	}
}

func (c *Checker) checkMethod(md *ast.MethodDecl) {
	c.method = md
	c.result = FromNode(md.Result)
	c.checkElemType(md.Result)

	for _, pd := range md.Params {
		c.checkDeclType("Parameter", pd)
	}

	for _, s := range md.Body {
		c.checkStmt(s)
	}

	// A bare "return;" in a non-void method was reported by checkReturn.
	var last ast.Stmt
	if n := len(md.Body); n > 0 {
		last = md.Body[n-1]
	}
	if _, endsInReturn := last.(*ast.ReturnStmt); !endsInReturn {
		if IsVoid(c.result) {
			md.Body = append(md.Body, &ast.ReturnStmt{ReturnPos: md.RBrace, Implicit: true})
		} else {
			c.addError(md.RBrace, "Missing return statement in method %s", md.Name)
		}
	}

	c.method = nil
	c.result = nil
}

// ---------- Statements ----------

func (c *Checker) checkStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		for _, inner := range s.Stmts {
			c.checkStmt(inner)
		}

	case *ast.VarDeclStmt:
		vt := c.checkDeclType("Variable", s.Var)
		it := c.checkExpr(s.Init)
		if !Assignable(vt, it) {
			c.addError(s.Init.Pos(), "Type mismatch: cannot assign %s to %s %s", it, vt, s.Var.Name)
		}

	case *ast.AssignStmt:
		c.checkAssign(s)

	case *ast.CallStmt:
		c.checkCall(s.Call)

	case *ast.ReturnStmt:
		c.checkReturn(s)

	case *ast.IfStmt:
		c.checkCond(s.Cond)
		c.checkBranch(s.Then)
		if s.Else != nil {
			c.checkBranch(s.Else)
		}

	case *ast.WhileStmt:
		c.checkCond(s.Cond)
		c.checkBranch(s.Body)

	case *ast.ForStmt:
		if s.Init != nil {
			c.checkStmt(s.Init)
		}
		if s.Cond != nil {
			c.checkCond(s.Cond)
		}
		if s.Update != nil {
			if _, ok := s.Update.(*ast.VarDeclStmt); ok {
				c.addError(s.Update.Pos(), "Variable declaration not allowed in for update")
			}
			c.checkStmt(s.Update)
		}
		c.checkBranch(s.Body)
	}
}

// checkBranch checks the body of a conditional or loop, which may not be a
// lone variable declaration.
func (c *Checker) checkBranch(s ast.Stmt) {
	if vd, ok := s.(*ast.VarDeclStmt); ok {
		c.addError(vd.Pos(), "Variable declaration %s cannot be the only statement in a branch", vd.Var.Name)
	}
	c.checkStmt(s)
}

func (c *Checker) checkCond(e ast.Expr) {
	if t := c.checkExpr(e); !Equal(t, Boolean) {
		c.addError(e.Pos(), "Condition must be boolean, found %s", t)
	}
}

func (c *Checker) checkAssign(s *ast.AssignStmt) {
	switch target := s.Target.(type) {
	case *ast.ThisRef:
		c.addError(target.Pos(), "Cannot assign to this")
		c.checkExpr(s.Value)
		return
	case *ast.QualRef:
		if fd, ok := target.Binding.(*ast.FieldDecl); ok && fd.Builtin == ast.BuiltinLength {
			c.addError(target.Pos(), "Cannot assign to array length")
			c.checkExpr(s.Value)
			return
		}
	}

	tt := c.refType(s.Target)
	vt := c.checkExpr(s.Value)
	if !Assignable(tt, vt) {
		c.addError(s.AssignPos, "Type mismatch: cannot assign %s to %s", vt, tt)
	}
}

func (c *Checker) checkReturn(s *ast.ReturnStmt) {
	if IsVoid(c.result) {
		if s.Result != nil {
			c.checkExpr(s.Result)
			c.addError(s.Pos(), "Cannot return a value from void method %s", c.method.Name)
		}
		return
	}

	if s.Result == nil {
		c.addError(s.Pos(), "Method %s must return a value of type %s", c.method.Name, c.result)
		return
	}
	if t := c.checkExpr(s.Result); !Assignable(c.result, t) {
		c.addError(s.Result.Pos(), "Type mismatch: method %s returns %s, found %s", c.method.Name, c.result, t)
	}
}

// ---------- Expressions ----------

func (c *Checker) checkExpr(e ast.Expr) Type {
	t := c.exprType(e)
	c.info.Types[e] = t
	return t
}

func (c *Checker) exprType(e ast.Expr) Type {
	switch e := e.(type) {
	case *ast.IntLiteral:
		return Int

	case *ast.BoolLiteral:
		return Boolean

	case *ast.NullLiteral:
		return Null

	case *ast.UnaryExpr:
		return c.checkUnary(e)

	case *ast.BinaryExpr:
		return c.checkBinary(e)

	case *ast.RefExpr:
		return c.refType(e.Ref)

	case *ast.CallExpr:
		t := c.checkCall(e)
		if IsVoid(t) {
			c.addError(e.Pos(), "Cannot use the result of void method %s", ast.RefString(e.Method))
			return ErrorType
		}
		return t

	case *ast.NewObjectExpr:
		t := FromNode(e.Class)
		if IsUnsupported(t) {
			c.addError(e.Pos(), "Cannot instantiate class %s", e.Class.Name)
		}
		return t

	case *ast.NewArrayExpr:
		if t := c.checkExpr(e.Size); !Equal(t, Int) {
			c.addError(e.Size.Pos(), "Array size must be int, found %s", t)
		}
		arr := &ast.ArrayType{Elem: e.Elem}
		c.checkElemType(arr)
		return FromNode(arr)
	}

	return ErrorType
}

func (c *Checker) checkUnary(e *ast.UnaryExpr) Type {
	xt := c.checkExpr(e.X)
	want := Int
	if e.Op == token.Bang {
		want = Boolean
	}
	if !Equal(xt, want) {
		c.addError(e.Pos(), "Operator %s requires %s operand, found %s", e.Op, want, xt)
		return ErrorType
	}
	return want
}

func (c *Checker) checkBinary(e *ast.BinaryExpr) Type {
	lt := c.checkExpr(e.Left)
	rt := c.checkExpr(e.Right)

	switch e.Op {
	case token.Eq, token.NotEq:
		if !Equal(lt, rt) && !IsNull(lt) && !IsNull(rt) {
			c.addError(e.Pos(), "Operator %s cannot compare %s with %s", e.Op, lt, rt)
			return ErrorType
		}
		return Boolean

	case token.AndAnd, token.OrOr:
		if !Equal(lt, Boolean) || !Equal(rt, Boolean) {
			c.addError(e.Pos(), "Operator %s requires boolean operands, found %s and %s", e.Op, lt, rt)
			return ErrorType
		}
		return Boolean

	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		if !Equal(lt, Int) || !Equal(rt, Int) {
			c.addError(e.Pos(), "Operator %s requires int operands, found %s and %s", e.Op, lt, rt)
			return ErrorType
		}
		return Boolean

	case token.Plus, token.Minus, token.Star, token.Slash:
		if !Equal(lt, Int) || !Equal(rt, Int) {
			c.addError(e.Pos(), "Operator %s requires int operands, found %s and %s", e.Op, lt, rt)
			return ErrorType
		}
		return Int
	}

	c.addError(e.Pos(), "Unknown operator %s", e.Op)
	return ErrorType
}

// refType returns the type of the value a resolved reference denotes.
func (c *Checker) refType(ref ast.Ref) Type {
	switch ref := ref.(type) {
	case *ast.ThisRef:
		return &Class{Decl: ref.Class}

	case *ast.IxRef:
		bt := c.refType(ref.Base)
		if it := c.checkExpr(ref.Index); !Equal(it, Int) {
			c.addError(ref.Index.Pos(), "Array index must be int, found %s", it)
		}
		switch bt := bt.(type) {
		case *Array:
			return bt.Elem
		default:
			if !IsError(bt) {
				c.addError(ref.Pos(), "Cannot index a value of type %s", bt)
			}
			return ErrorType
		}
	}

	switch d := ref.Decl().(type) {
	case *ast.FieldDecl, *ast.ParamDecl, *ast.VarDecl:
		return FromNode(d.DeclType())
	case *ast.MethodDecl:
		c.addError(ref.Pos(), "Invalid reference to method %s", d.Name)
	case *ast.ClassDecl:
		c.addError(ref.Pos(), "Invalid reference to class %s", d.Name)
	}
	return ErrorType
}

// checkCall checks arguments against the called method's parameters and
// returns the method's result type.
func (c *Checker) checkCall(call *ast.CallExpr) Type {
	argTypes := make([]Type, len(call.Args))
	for i, arg := range call.Args {
		argTypes[i] = c.checkExpr(arg)
	}

	md, ok := call.Method.Decl().(*ast.MethodDecl)
	if _, indexed := call.Method.(*ast.IxRef); !ok || indexed {
		c.addError(call.Pos(), "%s is not a method", ast.RefString(call.Method))
		return ErrorType
	}

	if len(call.Args) != len(md.Params) {
		c.addError(call.LParen, "Method %s expects %d arguments, found %d", md.Name, len(md.Params), len(call.Args))
		return FromNode(md.Result)
	}

	for i, pd := range md.Params {
		pt := FromNode(pd.Type)
		if !Assignable(pt, argTypes[i]) {
			c.addError(call.Args[i].Pos(), "Argument %d of %s: expected %s, found %s", i+1, md.Name, pt, argTypes[i])
		}
	}

	return FromNode(md.Result)
}
