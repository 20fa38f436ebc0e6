// Package resolver binds every name occurrence of a program to the
// declaration it denotes. Resolution is fail-fast: the first naming error
// is reported and the walk stops.
package resolver

import (
	"github.com/shahneil/mini-java-compiler/internal/ast"
	"github.com/shahneil/mini-java-compiler/internal/diag"
	"github.com/shahneil/mini-java-compiler/internal/token"
)

// Resolver holds the state of one identification pass.
type Resolver struct {
	rep      *diag.Reporter
	table    *Table
	builtins *Builtins

	// members maps each class to its fields and methods by simple name.
	members map[*ast.ClassDecl]map[string]ast.Member

	class  *ast.ClassDecl
	method *ast.MethodDecl
	// initializing is the local whose initializer is being walked.
	initializing *ast.VarDecl
}

// bailout aborts the walk after an error has been reported.
type bailout struct{ err *diag.Error }

// NewResolver creates a resolver reporting to rep.
func NewResolver(rep *diag.Reporter) *Resolver {
	return &Resolver{
		rep:      rep,
		table:    NewTable(),
		builtins: NewBuiltins(),
		members:  make(map[*ast.ClassDecl]map[string]ast.Member),
	}
}

// Resolve is shorthand for NewResolver(rep).Resolve(prog).
func Resolve(prog *ast.Program, rep *diag.Reporter) error {
	return NewResolver(rep).Resolve(prog)
}

// Resolve walks prog and binds its references. It returns the first naming
// error, which has already been reported.
func (r *Resolver) Resolve(prog *ast.Program) (err error) {
	defer func() {
		if p := recover(); p != nil {
			b, ok := p.(bailout)
			if !ok {
				panic(p)
			}
			err = b.err
		}
	}()

	r.table.Open() // LevelBuiltin
	for _, cd := range r.builtins.Classes() {
		r.enter(cd)
		r.declareMembers(cd)
	}

	r.table.Open() // LevelClass
	for _, cd := range prog.Classes {
		r.enter(cd)
		r.declareMembers(cd)
	}

	// Member signatures first, so bodies may use any class's members.
	for _, cd := range prog.Classes {
		for _, fd := range cd.Fields {
			r.resolveType(fd.Type)
		}
		for _, md := range cd.Methods {
			r.resolveType(md.Result)
			for _, pd := range md.Params {
				r.resolveType(pd.Type)
			}
		}
	}

	for _, cd := range prog.Classes {
		r.resolveClass(cd)
	}

	r.table.Close()
	r.table.Close()
	return nil
}

func (r *Resolver) fail(pos token.Position, format string, args ...interface{}) {
	panic(bailout{err: r.rep.Errorf(pos, format, args...)})
}

func (r *Resolver) enter(d ast.Decl) {
	if prev, ok := r.table.Enter(d.DeclName(), d); !ok {
		r.fail(d.Pos(), "Identifier %s already declared at %s", d.DeclName(), prev.Pos())
	}
}

func (r *Resolver) declareMembers(cd *ast.ClassDecl) {
	table := make(map[string]ast.Member, len(cd.Fields)+len(cd.Methods))
	add := func(m ast.Member) {
		if prev, found := table[m.DeclName()]; found {
			r.fail(m.Pos(), "Identifier %s already declared at %s", m.DeclName(), prev.Pos())
		}
		table[m.DeclName()] = m
	}
	for _, fd := range cd.Fields {
		add(fd)
	}
	for _, md := range cd.Methods {
		add(md)
	}
	r.members[cd] = table
}

func (r *Resolver) resolveType(t ast.TypeNode) {
	switch t := t.(type) {
	case *ast.ClassType:
		cd := r.table.RetrieveClass(t.Name)
		if cd == nil {
			r.fail(t.Pos(), "Cannot reference undeclared class %s", t.Name)
		}
		t.Class = cd
	case *ast.ArrayType:
		r.resolveType(t.Elem)
	}
}

// ---------- Declarations ----------

func (r *Resolver) resolveClass(cd *ast.ClassDecl) {
	r.class = cd
	r.table.Open() // LevelMember

	for _, fd := range cd.Fields {
		r.enter(fd)
	}
	for _, md := range cd.Methods {
		r.enter(md)
	}
	for _, md := range cd.Methods {
		r.resolveMethod(md)
	}

	r.table.Close()
	r.class = nil
}

func (r *Resolver) resolveMethod(md *ast.MethodDecl) {
	r.method = md

	r.table.Open() // LevelParam
	for _, pd := range md.Params {
		r.enter(pd)
	}

	r.table.Open() // LevelLocal
	for _, s := range md.Body {
		r.resolveStmt(s)
	}
	r.table.Close()

	r.table.Close()
	r.method = nil
}

// ---------- Statements ----------

func (r *Resolver) resolveStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		r.table.Open()
		for _, inner := range s.Stmts {
			r.resolveStmt(inner)
		}
		r.table.Close()

	case *ast.VarDeclStmt:
		r.resolveType(s.Var.Type)
		r.enter(s.Var)
		r.initializing = s.Var
		r.resolveExpr(s.Init)
		r.initializing = nil

	case *ast.AssignStmt:
		r.resolveValueRef(s.Target)
		r.resolveExpr(s.Value)

	case *ast.CallStmt:
		r.resolveExpr(s.Call)

	case *ast.ReturnStmt:
		if s.Result != nil {
			r.resolveExpr(s.Result)
		}

	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}

	case *ast.WhileStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Body)

	case *ast.ForStmt:
		r.table.Open()
		if s.Init != nil {
			r.resolveStmt(s.Init)
		}
		if s.Cond != nil {
			r.resolveExpr(s.Cond)
		}
		if s.Update != nil {
			r.resolveStmt(s.Update)
		}
		r.resolveStmt(s.Body)
		r.table.Close()
	}
}

// ---------- Expressions ----------

func (r *Resolver) resolveExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.UnaryExpr:
		r.resolveExpr(e.X)

	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.RefExpr:
		r.resolveValueRef(e.Ref)

	case *ast.CallExpr:
		r.resolveRef(e.Method)
		for _, arg := range e.Args {
			r.resolveExpr(arg)
		}

	case *ast.NewObjectExpr:
		r.resolveType(e.Class)

	case *ast.NewArrayExpr:
		r.resolveType(e.Elem)
		r.resolveExpr(e.Size)

	case *ast.IntLiteral, *ast.BoolLiteral, *ast.NullLiteral:
	}
}

// resolveValueRef resolves a reference used where a value is expected:
// it may not denote a class or a method.
func (r *Resolver) resolveValueRef(ref ast.Ref) {
	r.resolveRef(ref)
	if _, ok := ref.(*ast.ThisRef); ok {
		return
	}
	switch d := ref.Decl().(type) {
	case *ast.ClassDecl:
		r.fail(ref.Pos(), "Invalid reference to class %s", d.Name)
	case *ast.MethodDecl:
		r.fail(ref.Pos(), "Invalid reference to method %s", d.Name)
	}
}

// ---------- References ----------

func (r *Resolver) resolveRef(ref ast.Ref) {
	switch ref := ref.(type) {
	case *ast.ThisRef:
		if r.method.Static {
			r.fail(ref.Pos(), "Cannot use 'this' in a static context")
		}
		ref.Class = r.class

	case *ast.IdRef:
		r.resolveIdRef(ref)

	case *ast.QualRef:
		r.resolveQualRef(ref)

	case *ast.IxRef:
		r.resolveRef(ref.Base)
		r.resolveExpr(ref.Index)
	}
}

func (r *Resolver) resolveIdRef(ref *ast.IdRef) {
	if r.initializing != nil && r.initializing.Name == ref.Name {
		r.fail(ref.Pos(), "Cannot reference variable %s in its declaration", ref.Name)
	}

	d := r.table.Retrieve(ref.Name)
	if d == nil {
		r.fail(ref.Pos(), "Cannot reference undeclared variable %s", ref.Name)
	}

	if m, ok := d.(ast.Member); ok && r.method.Static && !m.IsStatic() {
		r.fail(ref.Pos(), "Cannot access non-static member %s from a static context", ref.Name)
	}

	ref.Binding = d
}

// resolveQualRef looks the name up in the member table of the class the
// prefix denotes. A class-name prefix gives static access only.
func (r *Resolver) resolveQualRef(ref *ast.QualRef) {
	r.resolveRef(ref.Prefix)

	var (
		cd           *ast.ClassDecl
		staticAccess bool
	)

	switch d := ref.Prefix.Decl().(type) {
	case *ast.MethodDecl:
		r.fail(ref.Prefix.Pos(), "Invalid usage of method %s in qualified reference", d.Name)

	case *ast.ClassDecl:
		_, isThis := ref.Prefix.(*ast.ThisRef)
		cd, staticAccess = d, !isThis

	default:
		switch t := prefixType(ref.Prefix).(type) {
		case *ast.ClassType:
			cd = t.Class
		case *ast.ArrayType:
			if ref.Name != r.builtins.Length.Name {
				r.fail(ref.Pos(), "Arrays have no member %s", ref.Name)
			}
			ref.Binding = r.builtins.Length
			return
		default:
			r.fail(ref.Pos(), "Cannot access member %s of a value of type %s", ref.Name, ast.TypeString(t))
		}
	}

	m := r.members[cd][ref.Name]
	if m == nil {
		r.fail(ref.Pos(), "Class %s has no member %s", cd.Name, ref.Name)
	}
	if staticAccess && !m.IsStatic() {
		r.fail(ref.Pos(), "Cannot access non-static member %s from a static context", ref.Name)
	}
	if m.IsPrivate() && m.Owner() != r.class {
		r.fail(ref.Pos(), "Cannot access private member %s", ref.Name)
	}

	ref.Binding = m
}

// prefixType returns the declared type of the value a resolved prefix
// denotes, or nil.
func prefixType(ref ast.Ref) ast.TypeNode {
	if d := ref.Decl(); d != nil {
		return d.DeclType()
	}
	return nil
}
