package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump returns a human-readable representation of the AST.
func Dump(node Node) string {
	var sb strings.Builder
	fprintNode(&sb, node, 0)
	return sb.String()
}

// TypeString renders a type node the way it is written in source.
func TypeString(t TypeNode) string {
	switch t := t.(type) {
	case *BaseType:
		return t.Kind.String()
	case *ClassType:
		return t.Name
	case *ArrayType:
		return TypeString(t.Elem) + "[]"
	case nil:
		return "<nil>"
	}
	return "?"
}

// RefString renders a reference the way it is written in source.
func RefString(r Ref) string {
	switch r := r.(type) {
	case *ThisRef:
		return "this"
	case *IdRef:
		return r.Name
	case *QualRef:
		return RefString(r.Prefix) + "." + r.Name
	case *IxRef:
		return RefString(r.Base) + "[...]"
	}
	return "?"
}

func fprintNode(w io.Writer, n Node, indent int) {
	if n == nil {
		return
	}

	ind := strings.Repeat("  ", indent)

	switch n := n.(type) {
	case *Program:
		fmt.Fprintf(w, "%sProgram\n", ind)
		for _, c := range n.Classes {
			fprintNode(w, c, indent+1)
		}

	case *ClassDecl:
		fmt.Fprintf(w, "%sClassDecl name=%s\n", ind, n.Name)
		for _, f := range n.Fields {
			fprintNode(w, f, indent+1)
		}
		for _, m := range n.Methods {
			fprintNode(w, m, indent+1)
		}

	case *FieldDecl:
		fmt.Fprintf(w, "%sFieldDecl%s name=%s type=%s\n", ind, modifiers(n.Private, n.Static), n.Name, TypeString(n.Type))

	case *MethodDecl:
		fmt.Fprintf(w, "%sMethodDecl%s name=%s result=%s\n", ind, modifiers(n.Private, n.Static), n.Name, TypeString(n.Result))
		for _, p := range n.Params {
			fprintNode(w, p, indent+1)
		}
		for _, s := range n.Body {
			fprintNode(w, s, indent+1)
		}

	case *ParamDecl:
		fmt.Fprintf(w, "%sParamDecl name=%s type=%s\n", ind, n.Name, TypeString(n.Type))

	case *VarDecl:
		fmt.Fprintf(w, "%sVarDecl name=%s type=%s\n", ind, n.Name, TypeString(n.Type))

	case *BlockStmt:
		fmt.Fprintf(w, "%sBlockStmt\n", ind)
		for _, s := range n.Stmts {
			fprintNode(w, s, indent+1)
		}

	case *VarDeclStmt:
		fmt.Fprintf(w, "%sVarDeclStmt\n", ind)
		fprintNode(w, n.Var, indent+1)
		fprintNode(w, n.Init, indent+1)

	case *AssignStmt:
		fmt.Fprintf(w, "%sAssignStmt target=%s\n", ind, RefString(n.Target))
		fprintNode(w, n.Value, indent+1)

	case *CallStmt:
		fmt.Fprintf(w, "%sCallStmt\n", ind)
		fprintNode(w, n.Call, indent+1)

	case *ReturnStmt:
		if n.Implicit {
			fmt.Fprintf(w, "%sReturnStmt (implicit)\n", ind)
		} else {
			fmt.Fprintf(w, "%sReturnStmt\n", ind)
		}
		if n.Result != nil {
			fprintNode(w, n.Result, indent+1)
		}

	case *IfStmt:
		fmt.Fprintf(w, "%sIfStmt\n", ind)
		fprintNode(w, n.Cond, indent+1)
		fprintNode(w, n.Then, indent+1)
		if n.Else != nil {
			fmt.Fprintf(w, "%s  Else:\n", ind)
			fprintNode(w, n.Else, indent+2)
		}

	case *WhileStmt:
		fmt.Fprintf(w, "%sWhileStmt\n", ind)
		fprintNode(w, n.Cond, indent+1)
		fprintNode(w, n.Body, indent+1)

	case *ForStmt:
		fmt.Fprintf(w, "%sForStmt\n", ind)
		if n.Init != nil {
			fmt.Fprintf(w, "%s  Init:\n", ind)
			fprintNode(w, n.Init, indent+2)
		}
		if n.Cond != nil {
			fmt.Fprintf(w, "%s  Cond:\n", ind)
			fprintNode(w, n.Cond, indent+2)
		}
		if n.Update != nil {
			fmt.Fprintf(w, "%s  Update:\n", ind)
			fprintNode(w, n.Update, indent+2)
		}
		fprintNode(w, n.Body, indent+1)

	case *UnaryExpr:
		fmt.Fprintf(w, "%sUnaryExpr op=%s\n", ind, n.Op)
		fprintNode(w, n.X, indent+1)

	case *BinaryExpr:
		fmt.Fprintf(w, "%sBinaryExpr op=%s\n", ind, n.Op)
		fprintNode(w, n.Left, indent+1)
		fprintNode(w, n.Right, indent+1)

	case *RefExpr:
		fmt.Fprintf(w, "%sRefExpr %s\n", ind, RefString(n.Ref))
		if ix, ok := n.Ref.(*IxRef); ok {
			fprintNode(w, ix.Index, indent+1)
		}

	case *CallExpr:
		fmt.Fprintf(w, "%sCallExpr %s\n", ind, RefString(n.Method))
		for _, a := range n.Args {
			fprintNode(w, a, indent+1)
		}

	case *IntLiteral:
		fmt.Fprintf(w, "%sIntLiteral %d\n", ind, n.Value)

	case *BoolLiteral:
		fmt.Fprintf(w, "%sBoolLiteral %t\n", ind, n.Value)

	case *NullLiteral:
		fmt.Fprintf(w, "%sNullLiteral\n", ind)

	case *NewObjectExpr:
		fmt.Fprintf(w, "%sNewObjectExpr %s\n", ind, n.Class.Name)

	case *NewArrayExpr:
		fmt.Fprintf(w, "%sNewArrayExpr %s\n", ind, TypeString(n.Elem))
		fprintNode(w, n.Size, indent+1)

	default:
		fmt.Fprintf(w, "%s<unknown node %T>\n", ind, n)
	}
}

func modifiers(private, static bool) string {
	var s string
	if private {
		s += " private"
	}
	if static {
		s += " static"
	}
	return s
}
