package semantic

import (
	"github.com/oops-lang/oopsc/internal/ast"
	cerr "github.com/oops-lang/oopsc/internal/errors"
)

// analyzeMethodBody implements step 3 (method body resolution) and, at its
// end, step 8 (return coverage).
func (a *Analyzer) analyzeMethodBody(owner *ast.ClassDeclaration, m *ast.MethodDeclaration) error {
	a.table.SetCurrentClass(owner)
	a.table.SetCurrentMethod(m)
	defer func() {
		a.table.SetCurrentClass(nil)
		a.table.SetCurrentMethod(nil)
	}()

	a.table.Enter()
	defer a.table.Leave()

	n := len(m.Params)
	selfOffset := -(n + 2)

	m.SelfVar = &ast.VarDeclaration{Name: ast.Identifier{Name: "_self"}, Offset: selfOffset, Owner: owner}
	m.ResultVar = &ast.VarDeclaration{Name: ast.Identifier{Name: "_result"}, Offset: selfOffset}
	if owner.Base() != nil {
		m.BaseVar = &ast.VarDeclaration{Name: ast.Identifier{Name: "_base"}, Offset: selfOffset}
	}
	if m.IsVoid() {
		m.ResultVar.TypeRef = voidRef(a)
	} else {
		m.ResultVar.TypeRef = m.ReturnRef
	}

	for i, p := range m.Params {
		p.Offset = -(n + 1) + i
		if err := a.table.Add(p); err != nil {
			return err
		}
	}

	for i, l := range m.Locals {
		l.Offset = i + 1
		if _, err := a.table.ResolveType(l.TypeRef); err != nil {
			return err
		}
		if err := a.table.Add(l); err != nil {
			return err
		}
	}

	for _, stmt := range m.Statements {
		if err := a.analyzeStatement(stmt); err != nil {
			return err
		}
	}

	if !m.IsVoid() && !ast.Covers(m.Statements) {
		return cerr.New(cerr.Context, m.Pos(), "method %q does not return a value on every path", m.Name.Name)
	}

	return nil
}

func voidRef(a *Analyzer) *ast.ResolvableIdentifier {
	return &ast.ResolvableIdentifier{Declaration: a.builtins.Void}
}

func (a *Analyzer) analyzeStatement(s ast.Statement) error {
	switch st := s.(type) {
	case *ast.AssignStmt:
		return a.analyzeAssign(st)
	case *ast.CallStmt:
		e, err := a.analyzeExpr(st.Call)
		if err != nil {
			return err
		}
		st.Call = e
		return nil
	case *ast.ReadStmt:
		e, err := a.analyzeExpr(st.Target)
		if err != nil {
			return err
		}
		if !e.IsLValue() {
			return cerr.New(cerr.Context, st.Pos(), "READ target is not assignable")
		}
		if e.Type() != a.builtins.Int && e.Type() != a.builtins.Integer {
			return cerr.New(cerr.Context, st.Pos(), "READ target must be Int or Integer, got %s", typeName(e.Type()))
		}
		st.Target = e
		return nil
	case *ast.WriteStmt:
		e, err := a.analyzeExpr(st.Value)
		if err != nil {
			return err
		}
		e, err = a.coerceToUnboxedInt(e)
		if err != nil {
			return err
		}
		st.Value = e
		return nil
	case *ast.IfStmt:
		return a.analyzeIf(st)
	case *ast.WhileStmt:
		return a.analyzeWhile(st)
	case *ast.ReturnStmt:
		return a.analyzeReturn(st)
	default:
		return cerr.New(cerr.Internal, s.Pos(), "unhandled statement %T", s)
	}
}

func (a *Analyzer) analyzeAssign(st *ast.AssignStmt) error {
	target, err := a.analyzeExpr(st.Target)
	if err != nil {
		return err
	}
	if !target.IsLValue() {
		return cerr.New(cerr.Context, st.Pos(), "assignment target is not assignable")
	}
	value, err := a.analyzeExpr(st.Value)
	if err != nil {
		return err
	}
	value, err = a.coerceTo(value, target.Type())
	if err != nil {
		return err
	}
	st.Target = target
	st.Value = value
	return nil
}

func (a *Analyzer) analyzeIf(st *ast.IfStmt) error {
	cond, err := a.analyzeExpr(st.Cond)
	if err != nil {
		return err
	}
	cond, err = a.coerceToUnboxedBool(cond)
	if err != nil {
		return err
	}
	st.Cond = cond
	for i, s := range st.Then {
		if err := a.analyzeStatement(s); err != nil {
			return err
		}
		st.Then[i] = s
	}
	for i, s := range st.Else {
		if err := a.analyzeStatement(s); err != nil {
			return err
		}
		st.Else[i] = s
	}
	return nil
}

func (a *Analyzer) analyzeWhile(st *ast.WhileStmt) error {
	cond, err := a.analyzeExpr(st.Cond)
	if err != nil {
		return err
	}
	cond, err = a.coerceToUnboxedBool(cond)
	if err != nil {
		return err
	}
	st.Cond = cond
	for i, s := range st.Body {
		if err := a.analyzeStatement(s); err != nil {
			return err
		}
		st.Body[i] = s
	}
	return nil
}

func (a *Analyzer) analyzeReturn(st *ast.ReturnStmt) error {
	m := a.table.CurrentMethod()
	if m.IsVoid() {
		if st.Value != nil {
			return cerr.New(cerr.Context, st.Pos(), "void method %q cannot return a value", m.Name.Name)
		}
		return nil
	}
	if st.Value == nil {
		return cerr.New(cerr.Context, st.Pos(), "method %q must return a value of type %s", m.Name.Name, m.ReturnType().DeclName())
	}
	value, err := a.analyzeExpr(st.Value)
	if err != nil {
		return err
	}
	value, err = a.coerceTo(value, m.ReturnType())
	if err != nil {
		return err
	}
	st.Value = value
	return nil
}
