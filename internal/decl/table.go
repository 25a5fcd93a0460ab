package decl

import (
	"github.com/oops-lang/oopsc/internal/ast"
	cerr "github.com/oops-lang/oopsc/internal/errors"
	"github.com/oops-lang/oopsc/internal/lexer"
)

// scope is a single level of the scope stack: a flat name-to-declaration
// map, case-significant per spec §4.1 (the name matching here is
// deliberately NOT lower-cased, unlike scope lookups in some scripting-
// language front ends).
type scope struct {
	names map[string]ast.Declaration
}

func newScope() *scope {
	return &scope{names: make(map[string]ast.Declaration)}
}

// Table is the declaration table: a stack of scopes with outer-to-inner
// lookup, plus the contextual current class/method used for SELF/BASE
// resolution and access checks.
type Table struct {
	scopes   []*scope
	builtins *Builtins

	currentClass  *ast.ClassDeclaration
	currentMethod *ast.MethodDeclaration
}

// New creates a Table with the global scope pre-seeded with the built-in
// classes.
func New(builtins *Builtins) *Table {
	t := &Table{builtins: builtins}
	t.Enter()
	for _, c := range builtins.All() {
		// Built-ins never collide with each other or with user classes at
		// this point; redeclaration against a user class is checked when
		// user classes are added.
		t.scopes[0].names[c.DeclName()] = c
	}
	return t
}

func (t *Table) Builtins() *Builtins { return t.builtins }

// Enter pushes a new scope.
func (t *Table) Enter() { t.scopes = append(t.scopes, newScope()) }

// Leave pops the innermost scope.
func (t *Table) Leave() {
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Add binds a name in the current (innermost) scope. It fails with a
// "redeclaration" context error if the name is already bound in that same
// scope.
func (t *Table) Add(d ast.Declaration) error {
	cur := t.scopes[len(t.scopes)-1]
	if existing, ok := cur.names[d.DeclName()]; ok {
		return cerr.New(cerr.Context, d.Pos(), "redeclaration of %q (previously declared at %s)", d.DeclName(), existing.Pos())
	}
	cur.names[d.DeclName()] = d
	return nil
}

// Resolve searches the scope stack innermost-first and returns the bound
// declaration, or an "undeclared" context error.
func (t *Table) Resolve(id ast.Identifier) (ast.Declaration, error) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if d, ok := t.scopes[i].names[id.Name]; ok {
			return d, nil
		}
	}
	return nil, cerr.New(cerr.Context, id.Position, "undeclared identifier %q", id.Name)
}

// ResolveInto resolves rident.Declaration in place, returning an error
// without mutating the identifier if resolution fails.
func (t *Table) ResolveInto(rident *ast.ResolvableIdentifier) error {
	d, err := t.Resolve(rident.Identifier)
	if err != nil {
		return err
	}
	rident.Declaration = d
	return nil
}

// ResolveType resolves rident to a class declaration; a non-class binding
// is a context error.
func (t *Table) ResolveType(rident *ast.ResolvableIdentifier) (*ast.ClassDeclaration, error) {
	if err := t.ResolveInto(rident); err != nil {
		return nil, err
	}
	cd, ok := rident.Declaration.(*ast.ClassDeclaration)
	if !ok {
		return nil, cerr.New(cerr.Context, rident.Position, "%q is not a type", rident.Name)
	}
	return cd, nil
}

// ResolveVarOrMethod resolves rident to a variable or method declaration,
// checking accessibility relative to the current class (PRIVATE only
// inside the defining class, PROTECTED also inside subclasses).
func (t *Table) ResolveVarOrMethod(rident *ast.ResolvableIdentifier) (ast.Declaration, error) {
	if err := t.ResolveInto(rident); err != nil {
		return nil, err
	}
	switch rident.Declaration.(type) {
	case *ast.VarDeclaration, *ast.MethodDeclaration:
	default:
		return nil, cerr.New(cerr.Context, rident.Position, "%q is not a variable or method", rident.Name)
	}
	if err := t.CheckAccess(rident.Declaration, t.currentClass, rident.Position); err != nil {
		return nil, err
	}
	return rident.Declaration, nil
}

// CheckAccess enforces the access-right rule: PRIVATE accessible only
// inside the class it was declared in, PROTECTED also inside subclasses,
// PUBLIC everywhere.
func (t *Table) CheckAccess(d ast.Declaration, from *ast.ClassDeclaration, pos lexer.Position) error {
	owner := ownerOf(d)
	if owner == nil || d.DeclAccess() == ast.Public {
		return nil
	}
	if from == owner {
		return nil
	}
	if d.DeclAccess() == ast.Protected && isSubclassOf(from, owner) {
		return nil
	}
	return cerr.New(cerr.Context, pos, "%q is not accessible here (%s)", d.DeclName(), d.DeclAccess())
}

func ownerOf(d ast.Declaration) *ast.ClassDeclaration {
	switch v := d.(type) {
	case *ast.MethodDeclaration:
		return v.Owner
	case *ast.VarDeclaration:
		return v.Owner
	default:
		return nil
	}
}

func isSubclassOf(c, base *ast.ClassDeclaration) bool {
	for cur := c; cur != nil; cur = cur.Base() {
		if cur == base {
			return true
		}
	}
	return false
}

// IsA implements the isA relation of spec §4.4 step 4: every type is a
// subtype of itself; every class extends Object transitively; NullType is
// assignable to any reference type; Int/Bool are subtypes of
// Integer/Boolean in one direction only (no reflexive reverse conversion —
// callers must insert an explicit box/unbox node, IsA alone never implies
// one is inserted).
func (t *Table) IsA(sub, super *ast.ClassDeclaration) bool {
	if sub == super {
		return true
	}
	if sub == t.builtins.Null {
		return super != t.builtins.Int && super != t.builtins.Bool && super != t.builtins.Void
	}
	if sub == t.builtins.Int && super == t.builtins.Integer {
		return true
	}
	if sub == t.builtins.Bool && super == t.builtins.Boolean {
		return true
	}
	for cur := sub; cur != nil; cur = cur.Base() {
		if cur == super {
			return true
		}
	}
	return false
}

// ResolveLocal searches only the scopes pushed since the global scope
// (i.e. everything but index 0) innermost-first: locals, then parameters.
func (t *Table) ResolveLocal(id ast.Identifier) (ast.Declaration, bool) {
	for i := len(t.scopes) - 1; i >= 1; i-- {
		if d, ok := t.scopes[i].names[id.Name]; ok {
			return d, true
		}
	}
	return nil, false
}

// ResolveGlobalOnly searches only the outermost (global) scope: built-in
// and user classes.
func (t *Table) ResolveGlobalOnly(id ast.Identifier) (ast.Declaration, bool) {
	d, ok := t.scopes[0].names[id.Name]
	return d, ok
}

// ResolveMember searches receiverType and its base chain for an attribute
// or method named id.Name, applying the same access-right rule as
// ResolveVarOrMethod relative to the current class. Used for explicit
// object access expressions (left.right), where the right-hand identifier
// is looked up as a member of left's static type rather than via the scope
// stack.
func (t *Table) ResolveMember(receiverType *ast.ClassDeclaration, id ast.Identifier) (ast.Declaration, error) {
	for cur := receiverType; cur != nil; cur = cur.Base() {
		for _, attr := range cur.Attrs {
			if attr.Name.Name == id.Name {
				if err := t.CheckAccess(attr, t.currentClass, id.Position); err != nil {
					return nil, err
				}
				return attr, nil
			}
		}
		for _, m := range cur.Methods {
			if m.Name.Name == id.Name {
				if err := t.CheckAccess(m, t.currentClass, id.Position); err != nil {
					return nil, err
				}
				return m, nil
			}
		}
	}
	return nil, cerr.New(cerr.Context, id.Position, "%q has no member %q", receiverType.DeclName(), id.Name)
}

// CurrentClass and CurrentMethod are the contextual class/method used for
// SELF/BASE resolution and access checks during method body analysis.
func (t *Table) CurrentClass() *ast.ClassDeclaration   { return t.currentClass }
func (t *Table) CurrentMethod() *ast.MethodDeclaration { return t.currentMethod }

func (t *Table) SetCurrentClass(c *ast.ClassDeclaration)   { t.currentClass = c }
func (t *Table) SetCurrentMethod(m *ast.MethodDeclaration) { t.currentMethod = m }
