package decl

import (
	"testing"

	"github.com/oops-lang/oopsc/internal/ast"
)

func TestResolveBuiltins(t *testing.T) {
	tbl := New(NewBuiltins())
	d, err := tbl.Resolve(ast.Identifier{Name: "Object"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.DeclName() != "Object" {
		t.Fatalf("got %q", d.DeclName())
	}
}

func TestUndeclaredIsError(t *testing.T) {
	tbl := New(NewBuiltins())
	if _, err := tbl.Resolve(ast.Identifier{Name: "Nope"}); err == nil {
		t.Fatal("expected undeclared error")
	}
}

func TestRedeclarationInSameScopeIsError(t *testing.T) {
	tbl := New(NewBuiltins())
	tbl.Enter()
	defer tbl.Leave()

	v1 := &ast.VarDeclaration{Name: ast.Identifier{Name: "x"}}
	v2 := &ast.VarDeclaration{Name: ast.Identifier{Name: "x"}}
	if err := tbl.Add(v1); err != nil {
		t.Fatalf("unexpected error adding v1: %v", err)
	}
	if err := tbl.Add(v2); err == nil {
		t.Fatal("expected redeclaration error")
	}
}

func TestOuterToInnerLookup(t *testing.T) {
	tbl := New(NewBuiltins())
	tbl.Enter()
	outer := &ast.VarDeclaration{Name: ast.Identifier{Name: "x"}, Offset: 1}
	_ = tbl.Add(outer)

	tbl.Enter()
	inner := &ast.VarDeclaration{Name: ast.Identifier{Name: "x"}, Offset: 2}
	_ = tbl.Add(inner)

	d, err := tbl.Resolve(ast.Identifier{Name: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.(*ast.VarDeclaration).Offset != 2 {
		t.Fatalf("expected innermost binding to win, got offset %d", d.(*ast.VarDeclaration).Offset)
	}
	tbl.Leave()

	d, err = tbl.Resolve(ast.Identifier{Name: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.(*ast.VarDeclaration).Offset != 1 {
		t.Fatalf("expected outer binding after leaving inner scope, got offset %d", d.(*ast.VarDeclaration).Offset)
	}
}

func TestIsARelation(t *testing.T) {
	b := NewBuiltins()
	tbl := New(b)

	if !tbl.IsA(b.Int, b.Integer) {
		t.Error("Int should be a subtype of Integer")
	}
	if tbl.IsA(b.Integer, b.Int) {
		t.Error("Integer should not be a subtype of Int (one direction only)")
	}
	if !tbl.IsA(b.Null, b.Object) {
		t.Error("NullType should be assignable to Object")
	}
	if tbl.IsA(b.Null, b.Int) {
		t.Error("NullType should not be assignable to Int")
	}

	sub := &ast.ClassDeclaration{Name: ast.Identifier{Name: "Sub"}, BaseRef: &ast.ResolvableIdentifier{Declaration: b.Object}}
	if !tbl.IsA(sub, b.Object) {
		t.Error("Sub should extend Object transitively")
	}
}
