package cmd

import (
	"fmt"
	"io"

	"github.com/oops-lang/oopsc/internal/ast"
)

// dumpIdentifiers walks every ResolvableIdentifier reachable from prog and
// prints its name, resolved declaration, and source position, one per line.
// No walker utility exists elsewhere in the tree; this is the -i flag's
// sole consumer.
func dumpIdentifiers(w io.Writer, prog *ast.Program) {
	for _, c := range prog.Classes {
		dumpClass(w, c)
	}
}

func dumpClass(w io.Writer, c *ast.ClassDeclaration) {
	if c.BaseRef != nil {
		printIdent(w, c.BaseRef)
	}
	for _, a := range c.Attrs {
		dumpVar(w, a)
	}
	for _, m := range c.Methods {
		dumpMethod(w, m)
	}
}

func dumpVar(w io.Writer, v *ast.VarDeclaration) {
	if v.TypeRef != nil {
		printIdent(w, v.TypeRef)
	}
}

func dumpMethod(w io.Writer, m *ast.MethodDeclaration) {
	for _, p := range m.Params {
		dumpVar(w, p)
	}
	if m.ReturnRef != nil {
		printIdent(w, m.ReturnRef)
	}
	for _, l := range m.Locals {
		dumpVar(w, l)
	}
	for _, s := range m.Statements {
		dumpStmt(w, s)
	}
}

func dumpStmt(w io.Writer, s ast.Statement) {
	switch st := s.(type) {
	case *ast.AssignStmt:
		dumpExpr(w, st.Target)
		dumpExpr(w, st.Value)
	case *ast.CallStmt:
		dumpExpr(w, st.Call)
	case *ast.ReadStmt:
		dumpExpr(w, st.Target)
	case *ast.WriteStmt:
		dumpExpr(w, st.Value)
	case *ast.IfStmt:
		dumpExpr(w, st.Cond)
		for _, inner := range st.Then {
			dumpStmt(w, inner)
		}
		for _, inner := range st.Else {
			dumpStmt(w, inner)
		}
	case *ast.WhileStmt:
		dumpExpr(w, st.Cond)
		for _, inner := range st.Body {
			dumpStmt(w, inner)
		}
	case *ast.ReturnStmt:
		if st.Value != nil {
			dumpExpr(w, st.Value)
		}
	}
}

func dumpExpr(w io.Writer, e ast.Expression) {
	switch v := e.(type) {
	case *ast.VarOrCall:
		printIdent(w, v.Ident)
		for _, a := range v.Args {
			dumpExpr(w, a)
		}
	case *ast.AccessExpr:
		dumpExpr(w, v.Left)
		dumpExpr(w, v.Right)
	case *ast.NewExpr:
		printIdent(w, v.TypeRef)
	case *ast.UnaryExpr:
		dumpExpr(w, v.Operand)
	case *ast.BinaryExpr:
		dumpExpr(w, v.Left)
		dumpExpr(w, v.Right)
	case *ast.BoxExpr:
		dumpExpr(w, v.Operand)
	case *ast.UnboxExpr:
		dumpExpr(w, v.Operand)
	case *ast.DerefExpr:
		dumpExpr(w, v.Operand)
	}
}

func printIdent(w io.Writer, id *ast.ResolvableIdentifier) {
	pos := id.Pos()
	target := "unresolved"
	if id.Declaration != nil {
		target = fmt.Sprintf("%T %s", id.Declaration, id.Declaration.DeclName())
	}
	fmt.Fprintf(w, "%d:%d %s -> %s\n", pos.Line, pos.Column, id.Name, target)
}
