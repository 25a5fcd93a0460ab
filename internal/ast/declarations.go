package ast

import "strings"

// Program is the root node: an ordered list of class declarations.
type Program struct {
	Classes []*ClassDeclaration
}

func (p *Program) Pos() Position { return Position{Line: 1, Column: 1} }
func (p *Program) String() string {
	var sb strings.Builder
	for _, c := range p.Classes {
		sb.WriteString(c.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// ClassDeclaration is a class: an optional base class, an ordered attribute
// list, an ordered method list, and the layout/VMT computed during semantic
// analysis.
type ClassDeclaration struct {
	Name     Identifier
	Access   AccessRight
	BaseRef  *ResolvableIdentifier // nil until the resolver fills the implicit-Object default
	Attrs    []*VarDeclaration
	Methods  []*MethodDeclaration
	Size     int                 // object size in words, base size + own attribute count
	VMT      []*MethodDeclaration // ordered list of method references
	Prepared bool                 // true once class preparation (step 1 of semantic analysis) has run
	preparing bool                // true while preparation is in progress, for cycle detection
	Builtin  bool
}

func (c *ClassDeclaration) Pos() Position          { return c.Name.Position }
func (c *ClassDeclaration) DeclName() string       { return c.Name.Name }
func (c *ClassDeclaration) DeclAccess() AccessRight { return c.Access }

// Preparing reports whether class preparation is in progress for this class,
// used by the resolver to detect inheritance cycles.
func (c *ClassDeclaration) Preparing() bool   { return c.preparing }
func (c *ClassDeclaration) SetPreparing(v bool) { c.preparing = v }

func (c *ClassDeclaration) Base() *ClassDeclaration {
	if c.BaseRef == nil || c.BaseRef.Declaration == nil {
		return nil
	}
	cd, _ := c.BaseRef.Declaration.(*ClassDeclaration)
	return cd
}

func (c *ClassDeclaration) String() string {
	var sb strings.Builder
	sb.WriteString("CLASS ")
	sb.WriteString(c.Name.Name)
	if c.BaseRef != nil {
		sb.WriteString(" EXTENDS ")
		sb.WriteString(c.BaseRef.Name)
	}
	sb.WriteString(" IS\n")
	for _, a := range c.Attrs {
		sb.WriteString("  ")
		sb.WriteString(a.String())
		sb.WriteString("\n")
	}
	for _, m := range c.Methods {
		sb.WriteString(m.String())
	}
	sb.WriteString("END CLASS")
	return sb.String()
}

// VarDeclaration is a single variable: an attribute, local, or parameter,
// distinguished by which list of a ClassDeclaration/MethodDeclaration it
// lives in. Offset is filled during semantic analysis: attributes start at
// 1 (word 0 is the VMT pointer), parameters occupy negative offsets below
// the return address, locals occupy positive offsets above the frame
// pointer.
type VarDeclaration struct {
	Name        Identifier
	TypeRef     *ResolvableIdentifier
	IsAttribute bool
	Access      AccessRight
	Offset      int
	// Owner is the class that declared this attribute; nil for parameters
	// and locals, which are not access-controlled across classes.
	Owner *ClassDeclaration
}

func (v *VarDeclaration) Pos() Position          { return v.Name.Position }
func (v *VarDeclaration) DeclName() string       { return v.Name.Name }
func (v *VarDeclaration) DeclAccess() AccessRight { return v.Access }

func (v *VarDeclaration) Type() *ClassDeclaration {
	if v.TypeRef == nil || v.TypeRef.Declaration == nil {
		return nil
	}
	cd, _ := v.TypeRef.Declaration.(*ClassDeclaration)
	return cd
}

func (v *VarDeclaration) String() string {
	typeName := "?"
	if v.TypeRef != nil {
		typeName = v.TypeRef.Name
	}
	return v.Name.Name + ": " + typeName
}

// MethodDeclaration is a method: parameters, optional return type, locals,
// body, and the bookkeeping semantic analysis fills in (VMT index and the
// three synthetic locals _self/_base/_result).
type MethodDeclaration struct {
	Name       Identifier
	Access     AccessRight
	Params     []*VarDeclaration
	ReturnRef  *ResolvableIdentifier // nil => void method
	Locals     []*VarDeclaration
	Statements []Statement
	EndPosit   Position

	VMTIndex int
	Owner    *ClassDeclaration

	SelfVar   *VarDeclaration
	BaseVar   *VarDeclaration // present iff Owner has a base class
	ResultVar *VarDeclaration // typed Void when ReturnRef is nil
}

func (m *MethodDeclaration) Pos() Position          { return m.Name.Position }
func (m *MethodDeclaration) DeclName() string       { return m.Name.Name }
func (m *MethodDeclaration) DeclAccess() AccessRight { return m.Access }
func (m *MethodDeclaration) EndPos() Position        { return m.EndPosit }

func (m *MethodDeclaration) ReturnType() *ClassDeclaration {
	if m.ReturnRef == nil || m.ReturnRef.Declaration == nil {
		return nil
	}
	cd, _ := m.ReturnRef.Declaration.(*ClassDeclaration)
	return cd
}

// IsVoid reports whether the method has no declared return type.
func (m *MethodDeclaration) IsVoid() bool { return m.ReturnRef == nil }

func (m *MethodDeclaration) String() string {
	var sb strings.Builder
	sb.WriteString("  METHOD ")
	sb.WriteString(m.Name.Name)
	sb.WriteString("(")
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	if m.ReturnRef != nil {
		sb.WriteString(": ")
		sb.WriteString(m.ReturnRef.Name)
	}
	sb.WriteString(" IS ... END METHOD\n")
	return sb.String()
}

// Signature reports whether two methods have identical overriding
// signatures: same name, arity, parameter types in order, same return type.
func Signature(a, b *MethodDeclaration) bool {
	if a.Name.Name != b.Name.Name || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Type() != b.Params[i].Type() {
			return false
		}
	}
	return a.ReturnType() == b.ReturnType()
}
