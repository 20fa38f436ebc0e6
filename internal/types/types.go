package types

import (
	"github.com/shahneil/mini-java-compiler/internal/ast"
)

type Type interface {
	String() string
	equal(Type) bool
}

// Basic types

type BasicKind int

const (
	BasicInt BasicKind = iota
	BasicBoolean
	BasicVoid
	BasicNull
	BasicError
	BasicUnsupported
)

type Basic struct {
	Kind BasicKind
	Name string
}

func (b *Basic) String() string { return b.Name }

func (b *Basic) equal(other Type) bool {
	o, ok := other.(*Basic)
	if !ok {
		return false
	}
	return b.Kind == o.Kind
}

var (
	Int     = &Basic{Kind: BasicInt, Name: "int"}
	Boolean = &Basic{Kind: BasicBoolean, Name: "boolean"}
	Void    = &Basic{Kind: BasicVoid, Name: "void"}
	Null    = &Basic{Kind: BasicNull, Name: "null"}

	// ErrorType marks an expression that has already been diagnosed.
	ErrorType = &Basic{Kind: BasicError, Name: "error"}

	// Unsupported is the type of values the language cannot use, such as
	// String.
	Unsupported = &Basic{Kind: BasicUnsupported, Name: "unsupported"}
)

func isKind(t Type, kind BasicKind) bool {
	b, ok := t.(*Basic)
	return ok && b.Kind == kind
}

func IsError(t Type) bool       { return isKind(t, BasicError) }
func IsUnsupported(t Type) bool { return isKind(t, BasicUnsupported) }
func IsVoid(t Type) bool        { return isKind(t, BasicVoid) }
func IsNull(t Type) bool        { return isKind(t, BasicNull) }

// Class is the nominal type of a class declaration.
type Class struct {
	Decl *ast.ClassDecl
}

func (c *Class) String() string { return c.Decl.Name }

func (c *Class) equal(other Type) bool {
	o, ok := other.(*Class)
	if !ok {
		return false
	}
	return c.Decl == o.Decl
}

type Array struct {
	Elem Type
}

func (a *Array) String() string { return a.Elem.String() + "[]" }

func (a *Array) equal(other Type) bool {
	o, ok := other.(*Array)
	if !ok {
		return false
	}
	return Equal(a.Elem, o.Elem)
}

// Equal reports whether a and b denote the same type. Unsupported equals
// nothing, not even itself; otherwise the error type equals everything.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return false
	}
	if IsUnsupported(a) || IsUnsupported(b) {
		return false
	}
	if IsError(a) || IsError(b) {
		return true
	}
	return a.equal(b)
}

// Assignable reports whether a value of type src may be stored where dst
// is expected: the types are equal, or src is null and dst is a reference.
func Assignable(dst, src Type) bool {
	if Equal(dst, src) {
		return true
	}
	return IsNull(src) && IsReference(dst)
}

// IsReference reports whether t is a class or array type.
func IsReference(t Type) bool {
	switch t.(type) {
	case *Class, *Array:
		return true
	}
	return false
}

// FromNode converts a resolved type node to a Type.
func FromNode(n ast.TypeNode) Type {
	switch n := n.(type) {
	case *ast.BaseType:
		switch n.Kind {
		case ast.Int:
			return Int
		case ast.Boolean:
			return Boolean
		case ast.Void:
			return Void
		}
	case *ast.ClassType:
		if n.Class == nil {
			return ErrorType
		}
		if n.Class.Builtin == ast.BuiltinString {
			return Unsupported
		}
		return &Class{Decl: n.Class}
	case *ast.ArrayType:
		return &Array{Elem: FromNode(n.Elem)}
	}
	return ErrorType
}
