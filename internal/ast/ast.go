package ast

import (
	"github.com/shahneil/mini-java-compiler/internal/ir"
	"github.com/shahneil/mini-java-compiler/internal/token"
)

// Basic interfaces

type Node interface {
	Pos() token.Position
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

type TypeNode interface {
	Node
	typeNode()
}

// Decl is a named entity introduced exactly once in source (or synthesized
// for the built-in environment).
type Decl interface {
	Node
	DeclName() string
	DeclType() TypeNode
	declNode()
}

// Member is a field or method declaration of a class.
type Member interface {
	Decl
	IsStatic() bool
	IsPrivate() bool
	Owner() *ClassDecl
}

// Ref is a (possibly qualified or indexed) name occurrence. The resolver
// binds it to the declaration it denotes.
type Ref interface {
	Node
	Decl() Decl
	refNode()
}

// Builtin tags the synthetic declarations of the built-in environment.
type Builtin int

const (
	NotBuiltin Builtin = iota
	BuiltinString
	BuiltinPrintStream
	BuiltinSystem
	BuiltinOut     // System.out
	BuiltinPrintln // _PrintStream.println
	BuiltinLength  // array length pseudo-field
)

// Entity is a declaration's runtime storage location. Code generation
// fills it in; earlier stages leave it nil.
type Entity struct {
	Size   int
	Offset int
	Base   ir.Reg
}

// ---------- Program ----------

type Program struct {
	Classes []*ClassDecl
}

func (p *Program) Pos() token.Position {
	if len(p.Classes) > 0 {
		return p.Classes[0].Pos()
	}
	return token.Position{}
}

// End returns the position of the last class's closing brace.
func (p *Program) End() token.Position {
	if len(p.Classes) > 0 {
		return p.Classes[len(p.Classes)-1].RBrace
	}
	return token.Position{}
}

// ---------- Declarations ----------

type ClassDecl struct {
	Name    string
	NamePos token.Position
	Fields  []*FieldDecl
	Methods []*MethodDecl
	Builtin Builtin
	// RBrace is the position of the closing brace.
	RBrace token.Position
}

func (c *ClassDecl) Pos() token.Position { return c.NamePos }
func (c *ClassDecl) DeclName() string    { return c.Name }
func (c *ClassDecl) DeclType() TypeNode {
	return &ClassType{Name: c.Name, NamePos: c.NamePos, Class: c}
}
func (c *ClassDecl) declNode() {}

// InstanceFields returns the non-static fields in declaration order.
func (c *ClassDecl) InstanceFields() []*FieldDecl {
	var out []*FieldDecl
	for _, f := range c.Fields {
		if !f.Static {
			out = append(out, f)
		}
	}
	return out
}

type FieldDecl struct {
	Name    string
	NamePos token.Position
	Type    TypeNode
	Private bool
	Static  bool
	Class   *ClassDecl
	Builtin Builtin
	Entity  *Entity
}

func (f *FieldDecl) Pos() token.Position { return f.NamePos }
func (f *FieldDecl) DeclName() string    { return f.Name }
func (f *FieldDecl) DeclType() TypeNode  { return f.Type }
func (f *FieldDecl) IsStatic() bool      { return f.Static }
func (f *FieldDecl) IsPrivate() bool     { return f.Private }
func (f *FieldDecl) Owner() *ClassDecl   { return f.Class }
func (f *FieldDecl) declNode()           {}

type MethodDecl struct {
	Name    string
	NamePos token.Position
	Result  TypeNode
	Private bool
	Static  bool
	Params  []*ParamDecl
	Body    []Stmt
	RBrace  token.Position
	Class   *ClassDecl
	Builtin Builtin
	Entity  *Entity
}

func (m *MethodDecl) Pos() token.Position { return m.NamePos }
func (m *MethodDecl) DeclName() string    { return m.Name }
func (m *MethodDecl) DeclType() TypeNode  { return m.Result }
func (m *MethodDecl) IsStatic() bool      { return m.Static }
func (m *MethodDecl) IsPrivate() bool     { return m.Private }
func (m *MethodDecl) Owner() *ClassDecl   { return m.Class }
func (m *MethodDecl) declNode()           {}

type ParamDecl struct {
	Name    string
	NamePos token.Position
	Type    TypeNode
	Entity  *Entity
}

func (p *ParamDecl) Pos() token.Position { return p.NamePos }
func (p *ParamDecl) DeclName() string    { return p.Name }
func (p *ParamDecl) DeclType() TypeNode  { return p.Type }
func (p *ParamDecl) declNode()           {}

// VarDecl is a local variable introduced by a declaration statement.
type VarDecl struct {
	Name    string
	NamePos token.Position
	Type    TypeNode
	Entity  *Entity
}

func (v *VarDecl) Pos() token.Position { return v.NamePos }
func (v *VarDecl) DeclName() string    { return v.Name }
func (v *VarDecl) DeclType() TypeNode  { return v.Type }
func (v *VarDecl) declNode()           {}

// ---------- Types ----------

type BaseKind int

const (
	Int BaseKind = iota
	Boolean
	Void
)

func (k BaseKind) String() string {
	switch k {
	case Int:
		return "int"
	case Boolean:
		return "boolean"
	case Void:
		return "void"
	}
	return "?"
}

type BaseType struct {
	Kind    BaseKind
	TypePos token.Position
}

func (t *BaseType) Pos() token.Position { return t.TypePos }
func (t *BaseType) typeNode()           {}

// ClassType names a class; Class is bound by the resolver.
type ClassType struct {
	Name    string
	NamePos token.Position
	Class   *ClassDecl
}

func (t *ClassType) Pos() token.Position { return t.NamePos }
func (t *ClassType) typeNode()           {}

type ArrayType struct {
	Elem TypeNode
}

func (t *ArrayType) Pos() token.Position { return t.Elem.Pos() }
func (t *ArrayType) typeNode()           {}

// ---------- Statements ----------

type BlockStmt struct {
	LBrace token.Position
	Stmts  []Stmt
	RBrace token.Position
}

func (s *BlockStmt) Pos() token.Position { return s.LBrace }
func (s *BlockStmt) stmtNode()           {}

type VarDeclStmt struct {
	Var  *VarDecl
	Init Expr
}

func (s *VarDeclStmt) Pos() token.Position { return s.Var.Pos() }
func (s *VarDeclStmt) stmtNode()           {}

type AssignStmt struct {
	Target    Ref
	AssignPos token.Position
	Value     Expr
}

func (s *AssignStmt) Pos() token.Position { return s.Target.Pos() }
func (s *AssignStmt) stmtNode()           {}

type CallStmt struct {
	Call *CallExpr
}

func (s *CallStmt) Pos() token.Position { return s.Call.Pos() }
func (s *CallStmt) stmtNode()           {}

// ReturnStmt with Implicit set was synthesized by the type checker at the
// end of a void method.
type ReturnStmt struct {
	ReturnPos token.Position
	Result    Expr // nil for "return;"
	Implicit  bool
}

func (s *ReturnStmt) Pos() token.Position { return s.ReturnPos }
func (s *ReturnStmt) stmtNode()           {}

type IfStmt struct {
	IfPos token.Position
	Cond  Expr
	Then  Stmt
	Else  Stmt // may be nil
}

func (s *IfStmt) Pos() token.Position { return s.IfPos }
func (s *IfStmt) stmtNode()           {}

type WhileStmt struct {
	WhilePos token.Position
	Cond     Expr
	Body     Stmt
}

func (s *WhileStmt) Pos() token.Position { return s.WhilePos }
func (s *WhileStmt) stmtNode()           {}

// ForStmt: for (Init; Cond; Update) Body. Every clause is optional.
type ForStmt struct {
	ForPos token.Position
	Init   Stmt
	Cond   Expr
	Update Stmt
	Body   Stmt
}

func (s *ForStmt) Pos() token.Position { return s.ForPos }
func (s *ForStmt) stmtNode()           {}

// ---------- Expressions ----------

type UnaryExpr struct {
	OpPos token.Position
	Op    token.Kind // Bang or Minus
	X     Expr
}

func (e *UnaryExpr) Pos() token.Position { return e.OpPos }
func (e *UnaryExpr) exprNode()           {}

type BinaryExpr struct {
	OpPos token.Position
	Op    token.Kind
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) Pos() token.Position { return e.OpPos }
func (e *BinaryExpr) exprNode()           {}

type RefExpr struct {
	Ref Ref
}

func (e *RefExpr) Pos() token.Position { return e.Ref.Pos() }
func (e *RefExpr) exprNode()           {}

type CallExpr struct {
	Method Ref
	LParen token.Position
	Args   []Expr
}

func (e *CallExpr) Pos() token.Position { return e.Method.Pos() }
func (e *CallExpr) exprNode()           {}

type IntLiteral struct {
	Value    int
	Raw      string
	ValuePos token.Position
}

func (e *IntLiteral) Pos() token.Position { return e.ValuePos }
func (e *IntLiteral) exprNode()           {}

type BoolLiteral struct {
	Value    bool
	ValuePos token.Position
}

func (e *BoolLiteral) Pos() token.Position { return e.ValuePos }
func (e *BoolLiteral) exprNode()           {}

type NullLiteral struct {
	NullPos token.Position
}

func (e *NullLiteral) Pos() token.Position { return e.NullPos }
func (e *NullLiteral) exprNode()           {}

type NewObjectExpr struct {
	NewPos token.Position
	Class  *ClassType
}

func (e *NewObjectExpr) Pos() token.Position { return e.NewPos }
func (e *NewObjectExpr) exprNode()           {}

type NewArrayExpr struct {
	NewPos token.Position
	Elem   TypeNode
	Size   Expr
}

func (e *NewArrayExpr) Pos() token.Position { return e.NewPos }
func (e *NewArrayExpr) exprNode()           {}

// ---------- References ----------

// ThisRef denotes the current instance; Class is bound by the resolver.
type ThisRef struct {
	ThisPos token.Position
	Class   *ClassDecl
}

func (r *ThisRef) Pos() token.Position { return r.ThisPos }
func (r *ThisRef) Decl() Decl {
	if r.Class == nil {
		return nil
	}
	return r.Class
}
func (r *ThisRef) refNode() {}

type IdRef struct {
	Name    string
	NamePos token.Position
	Binding Decl
}

func (r *IdRef) Pos() token.Position { return r.NamePos }
func (r *IdRef) Decl() Decl          { return r.Binding }
func (r *IdRef) refNode()            {}

// QualRef is Prefix.Name; Binding is looked up in the member table of the
// class denoted by Prefix.
type QualRef struct {
	Prefix  Ref
	Name    string
	NamePos token.Position
	Binding Decl
}

func (r *QualRef) Pos() token.Position { return r.NamePos }
func (r *QualRef) Decl() Decl          { return r.Binding }
func (r *QualRef) refNode()            {}

// IxRef is Base[Index]. It denotes an element of the array Base refers to.
type IxRef struct {
	Base     Ref
	LBracket token.Position
	Index    Expr
}

func (r *IxRef) Pos() token.Position { return r.Base.Pos() }
func (r *IxRef) Decl() Decl          { return r.Base.Decl() }
func (r *IxRef) refNode()            {}
