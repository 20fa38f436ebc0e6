package resolver

import "github.com/shahneil/mini-java-compiler/internal/ast"

// Scope levels of the identification table.
const (
	LevelBuiltin = 0 // built-in environment
	LevelClass   = 1 // top-level classes
	LevelMember  = 2 // members of the class being walked
	LevelParam   = 3 // parameters of the method being walked
	LevelLocal   = 4 // method body and nested blocks
)

// Table is a stack of scopes mapping names to declarations.
type Table struct {
	scopes []map[string]ast.Decl
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Open() {
	t.scopes = append(t.scopes, make(map[string]ast.Decl))
}

func (t *Table) Close() {
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Level returns the number of the innermost open scope, or -1.
func (t *Table) Level() int {
	return len(t.scopes) - 1
}

// Enter binds name to d in the innermost scope. At local levels a name
// declared anywhere from the parameter level inwards is a duplicate. On
// failure the earlier declaration is returned with ok == false.
func (t *Table) Enter(name string, d ast.Decl) (prev ast.Decl, ok bool) {
	level := t.Level()
	if level >= LevelLocal {
		for i := LevelParam; i < level; i++ {
			if prev, found := t.scopes[i][name]; found {
				return prev, false
			}
		}
	}

	top := t.scopes[level]
	if prev, found := top[name]; found {
		return prev, false
	}
	top[name] = d
	return nil, true
}

// Retrieve returns the innermost declaration of name, or nil.
func (t *Table) Retrieve(name string) ast.Decl {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if d, ok := t.scopes[i][name]; ok {
			return d
		}
	}
	return nil
}

// RetrieveClass looks name up among the built-in and program classes only,
// so a local variable never hides a class used as a type.
func (t *Table) RetrieveClass(name string) *ast.ClassDecl {
	for i := min(LevelClass, t.Level()); i >= LevelBuiltin; i-- {
		if cd, ok := t.scopes[i][name].(*ast.ClassDecl); ok {
			return cd
		}
	}
	return nil
}
