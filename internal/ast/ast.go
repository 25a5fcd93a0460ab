// Package ast defines the abstract syntax tree produced by the parser and
// mutated in place by semantic analysis: types, offsets, VMT indices, and
// inserted box/unbox/dereference nodes are all filled into the same nodes
// the parser created. No node is rebuilt once semantic analysis starts.
package ast

import (
	"fmt"

	"github.com/oops-lang/oopsc/internal/lexer"
)

// Position re-exports the lexer's source coordinate type so callers outside
// the lexer package don't need to import it directly for AST work.
type Position = lexer.Position

// AccessRight is one of PUBLIC, PROTECTED, PRIVATE, controlling visibility
// of a declaration across classes.
type AccessRight int

const (
	Public AccessRight = iota
	Protected
	Private
)

func (a AccessRight) String() string {
	switch a {
	case Public:
		return "PUBLIC"
	case Protected:
		return "PROTECTED"
	case Private:
		return "PRIVATE"
	default:
		return "?"
	}
}

// Node is implemented by every AST node.
type Node interface {
	Pos() Position
	String() string
}

// Expression is implemented by every expression variant. Type and IsLValue
// are unset until semantic analysis fills them in.
type Expression interface {
	Node
	expressionNode()
	Type() *ClassDeclaration
	SetType(*ClassDeclaration)
	IsLValue() bool
	SetLValue(bool)
}

// Statement is implemented by every statement variant.
type Statement interface {
	Node
	statementNode()
}

// Declaration is implemented by every named, access-controlled entity:
// classes, variables/attributes, and methods.
type Declaration interface {
	Node
	DeclName() string
	DeclAccess() AccessRight
}

// Identifier is a bare name plus a position.
type Identifier struct {
	Name     string
	Position Position
}

func (id Identifier) Pos() Position  { return id.Position }
func (id Identifier) String() string { return id.Name }

// ResolvableIdentifier is an identifier whose target Declaration is filled
// in during semantic analysis. It is the sole mechanism for forward and
// cross-class references: the parser creates it with Declaration nil, and
// the resolver fills the slot in place.
type ResolvableIdentifier struct {
	Identifier
	Declaration Declaration
}

// NewResolvableIdentifier wraps an identifier as an unresolved reference.
func NewResolvableIdentifier(id Identifier) *ResolvableIdentifier {
	return &ResolvableIdentifier{Identifier: id}
}

func (r *ResolvableIdentifier) String() string {
	if r.Declaration == nil {
		return fmt.Sprintf("%s(unresolved)", r.Name)
	}
	return r.Name
}

// baseExpr carries the fields common to every expression variant.
type baseExpr struct {
	Position Position
	typ      *ClassDeclaration
	lvalue   bool
}

func (b *baseExpr) Pos() Position               { return b.Position }
func (b *baseExpr) Type() *ClassDeclaration      { return b.typ }
func (b *baseExpr) SetType(c *ClassDeclaration)  { b.typ = c }
func (b *baseExpr) IsLValue() bool               { return b.lvalue }
func (b *baseExpr) SetLValue(v bool)             { b.lvalue = v }
func (b *baseExpr) expressionNode()              {}
