package resolver

import "github.com/shahneil/mini-java-compiler/internal/ast"

// Builtins holds the synthetic declarations of the standard environment:
//
//	class String { }
//	class _PrintStream { public void println(int n) { } }
//	class System { public static _PrintStream out; }
//
// plus the read-only length pseudo-field of arrays.
type Builtins struct {
	String      *ast.ClassDecl
	PrintStream *ast.ClassDecl
	System      *ast.ClassDecl

	Out     *ast.FieldDecl
	Println *ast.MethodDecl
	Length  *ast.FieldDecl
}

func NewBuiltins() *Builtins {
	b := &Builtins{}

	b.String = &ast.ClassDecl{Name: "String", Builtin: ast.BuiltinString}

	b.PrintStream = &ast.ClassDecl{Name: "_PrintStream", Builtin: ast.BuiltinPrintStream}
	b.Println = &ast.MethodDecl{
		Name:   "println",
		Result: &ast.BaseType{Kind: ast.Void},
		Params: []*ast.ParamDecl{
			{Name: "n", Type: &ast.BaseType{Kind: ast.Int}},
		},
		Class:   b.PrintStream,
		Builtin: ast.BuiltinPrintln,
	}
	b.PrintStream.Methods = []*ast.MethodDecl{b.Println}

	b.System = &ast.ClassDecl{Name: "System", Builtin: ast.BuiltinSystem}
	b.Out = &ast.FieldDecl{
		Name:    "out",
		Type:    &ast.ClassType{Name: b.PrintStream.Name, Class: b.PrintStream},
		Static:  true,
		Class:   b.System,
		Builtin: ast.BuiltinOut,
	}
	b.System.Fields = []*ast.FieldDecl{b.Out}

	b.Length = &ast.FieldDecl{
		Name:    "length",
		Type:    &ast.BaseType{Kind: ast.Int},
		Builtin: ast.BuiltinLength,
	}

	return b
}

// Classes returns the built-in classes in the order they are declared.
func (b *Builtins) Classes() []*ast.ClassDecl {
	return []*ast.ClassDecl{b.String, b.PrintStream, b.System}
}
