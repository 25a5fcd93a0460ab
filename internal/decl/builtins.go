// Package decl implements the declaration table (a scope stack) and the
// name/type resolver used during semantic analysis, plus synthesis of the
// built-in classes the language requires before any user class is looked
// up.
package decl

import "github.com/oops-lang/oopsc/internal/ast"

// Built-in class names. The classes are synthesized once per compilation
// and seeded into the global scope when the declaration table is created
// (New), which the semantic analyzer does after parsing; the parser itself
// never looks names up.
const (
	ObjectClass  = "Object"
	IntegerClass = "Integer"
	BooleanClass = "Boolean"
	IntClass     = "Int"
	BoolClass    = "Bool"
	VoidClass    = "Void"
	NullClass    = "NullType"
)

// Builtins holds the synthesized built-in class declarations, reachable by
// name and by direct field for internal use (boxing lookups, type checks).
type Builtins struct {
	Object  *ast.ClassDeclaration
	Integer *ast.ClassDeclaration
	Boolean *ast.ClassDeclaration
	Int     *ast.ClassDeclaration
	Bool    *ast.ClassDeclaration
	Void    *ast.ClassDeclaration
	Null    *ast.ClassDeclaration
}

func synth(name string) *ast.ClassDeclaration {
	return &ast.ClassDeclaration{
		Name:     ast.Identifier{Name: name},
		Builtin:  true,
		Prepared: true,
	}
}

// NewBuiltins synthesizes the built-in classes. Object has no base;
// Integer and Boolean extend Object and each hold one attribute-like
// primitive payload word (handled specially by the emitter, not modeled as
// an ordinary VarDeclaration attribute). Int, Bool, Void, and NullType are
// pseudo-types used only in the type lattice, never instantiated.
func NewBuiltins() *Builtins {
	b := &Builtins{
		Object:  synth(ObjectClass),
		Integer: synth(IntegerClass),
		Boolean: synth(BooleanClass),
		Int:     synth(IntClass),
		Bool:    synth(BoolClass),
		Void:    synth(VoidClass),
		Null:    synth(NullClass),
	}
	b.Integer.Size = 1 // word 1: unboxed payload, in addition to the word-0 VMT pointer
	b.Boolean.Size = 1
	b.Integer.BaseRef = &ast.ResolvableIdentifier{Identifier: ast.Identifier{Name: ObjectClass}, Declaration: b.Object}
	b.Boolean.BaseRef = &ast.ResolvableIdentifier{Identifier: ast.Identifier{Name: ObjectClass}, Declaration: b.Object}
	return b
}

// UnboxedOf reports the unboxed primitive class for a boxed wrapper, or nil.
func (b *Builtins) UnboxedOf(boxed *ast.ClassDeclaration) *ast.ClassDeclaration {
	switch boxed {
	case b.Integer:
		return b.Int
	case b.Boolean:
		return b.Bool
	default:
		return nil
	}
}

// BoxOf reports the boxed wrapper class for an unboxed primitive, or nil.
func (b *Builtins) BoxOf(unboxed *ast.ClassDeclaration) *ast.ClassDeclaration {
	switch unboxed {
	case b.Int:
		return b.Integer
	case b.Bool:
		return b.Boolean
	default:
		return nil
	}
}

// IsUnboxedPrimitive reports whether c is Int or Bool.
func (b *Builtins) IsUnboxedPrimitive(c *ast.ClassDeclaration) bool {
	return c == b.Int || c == b.Bool
}

// All returns every built-in class declaration, in the order they should be
// seeded into the global scope.
func (b *Builtins) All() []*ast.ClassDeclaration {
	return []*ast.ClassDeclaration{b.Object, b.Integer, b.Boolean, b.Int, b.Bool, b.Void, b.Null}
}
