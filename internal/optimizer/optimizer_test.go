package optimizer

import (
	"testing"

	"github.com/oops-lang/oopsc/internal/ast"
	"github.com/oops-lang/oopsc/internal/decl"
)

var builtins = decl.NewBuiltins()

func intL(v int) *ast.IntegerLiteral {
	l := ast.NewIntegerLiteral(ast.Position{}, v)
	l.SetType(builtins.Int)
	return l
}

func boolL(v bool) *ast.BooleanLiteral {
	l := ast.NewBooleanLiteral(ast.Position{}, v)
	l.SetType(builtins.Bool)
	return l
}

func TestFoldsIntegerArithmetic(t *testing.T) {
	o := New(builtins)
	e := o.foldExpr(ast.NewBinaryExpr(ast.Position{}, ast.OpAdd, intL(1), intL(2)))
	lit, ok := e.(*ast.IntegerLiteral)
	if !ok || lit.Value != 3 {
		t.Fatalf("expected folded literal 3, got %#v", e)
	}
}

func TestDivisionByZeroLeftUnfolded(t *testing.T) {
	o := New(builtins)
	e := o.foldExpr(ast.NewBinaryExpr(ast.Position{}, ast.OpDiv, intL(1), intL(0)))
	if _, ok := e.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected division by zero to survive unfolded, got %#v", e)
	}
}

func TestAndThenShortCircuitsOnFalseLeftEvenWithUnfoldableRight(t *testing.T) {
	o := New(builtins)
	// FALSE AND THEN (1/0 = 0) must fold to FALSE without touching the
	// division, since the left operand alone determines the result.
	div := ast.NewBinaryExpr(ast.Position{}, ast.OpDiv, intL(1), intL(0))
	cmp := ast.NewBinaryExpr(ast.Position{}, ast.OpEq, div, intL(0))
	expr := ast.NewBinaryExpr(ast.Position{}, ast.OpAndThen, boolL(false), cmp)

	e := o.foldExpr(expr)
	lit, ok := e.(*ast.BooleanLiteral)
	if !ok || lit.Value != false {
		t.Fatalf("expected folded FALSE, got %#v", e)
	}
}

func TestOrElseShortCircuitsOnTrueLeft(t *testing.T) {
	o := New(builtins)
	expr := ast.NewBinaryExpr(ast.Position{}, ast.OpOrElse, boolL(true), boolL(false))
	e := o.foldExpr(expr)
	lit, ok := e.(*ast.BooleanLiteral)
	if !ok || lit.Value != true {
		t.Fatalf("expected folded TRUE, got %#v", e)
	}
}

func TestIfWithLiteralConditionCollapses(t *testing.T) {
	o := New(builtins)
	then := []ast.Statement{&ast.ReturnStmt{Value: intL(1)}}
	els := []ast.Statement{&ast.ReturnStmt{Value: intL(2)}}
	st := &ast.IfStmt{Cond: boolL(true), Then: then, Else: els}

	out := o.foldStmt(st)
	if len(out) != 1 || out[0] != then[0] {
		t.Fatalf("expected IF TRUE to collapse to its then-branch, got %#v", out)
	}
}

func TestWhileFalseIsRemoved(t *testing.T) {
	o := New(builtins)
	st := &ast.WhileStmt{Cond: boolL(false), Body: []ast.Statement{&ast.ReturnStmt{}}}
	out := o.foldStmt(st)
	if len(out) != 0 {
		t.Fatalf("expected WHILE FALSE to be removed, got %#v", out)
	}
}

func TestWhileTrueIsLeftAlone(t *testing.T) {
	o := New(builtins)
	st := &ast.WhileStmt{Cond: boolL(true), Body: nil}
	out := o.foldStmt(st)
	if len(out) != 1 || out[0] != st {
		t.Fatalf("expected WHILE TRUE to survive as a loop, got %#v", out)
	}
}
