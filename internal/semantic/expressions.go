package semantic

import (
	"github.com/oops-lang/oopsc/internal/ast"
	cerr "github.com/oops-lang/oopsc/internal/errors"
)

// analyzeExpr implements step 4 (expression typing) together with the
// boxing/unboxing policy of step 5 and the access/virtual-dispatch checks
// of steps 6 and 7, dispatching by concrete expression type. It returns the
// (possibly reassigned) expression, since box/unbox/deref nodes are
// inserted by replacing a child with a wrapping node, not by mutating a
// node in place.
func (a *Analyzer) analyzeExpr(e ast.Expression) (ast.Expression, error) {
	switch v := e.(type) {
	case *ast.IntegerLiteral:
		v.SetType(a.builtins.Int)
		return v, nil
	case *ast.BooleanLiteral:
		v.SetType(a.builtins.Bool)
		return v, nil
	case *ast.NullLiteral:
		v.SetType(a.builtins.Null)
		return v, nil
	case *ast.SelfExpr:
		v.SetType(a.table.CurrentClass())
		v.SetLValue(true)
		return v, nil
	case *ast.BaseExpr:
		base := a.table.CurrentClass().Base()
		if base == nil {
			return nil, cerr.New(cerr.Context, v.Pos(), "BASE used in a class with no base class")
		}
		v.SetType(base)
		v.SetLValue(true)
		return v, nil
	case *ast.VarOrCall:
		if err := a.analyzeVarOrCall(v, nil); err != nil {
			return nil, err
		}
		return v, nil
	case *ast.AccessExpr:
		return a.analyzeAccessExpr(v)
	case *ast.NewExpr:
		return a.analyzeNewExpr(v)
	case *ast.UnaryExpr:
		return a.analyzeUnaryExpr(v)
	case *ast.BinaryExpr:
		return a.analyzeBinaryExpr(v)
	default:
		return nil, cerr.New(cerr.Internal, e.Pos(), "unhandled expression %T", e)
	}
}

// analyzeVarOrCall resolves v.Ident per the declaration-table priority
// (locals → parameters → inherited attributes/methods of the current class
// → global types/classes) when receiverType is nil, or as a member of
// receiverType when it is the right-hand side of an access expression. It
// mutates v in place (type, l-value flag, argument coercions) rather than
// returning a new node, since VarOrCall is never itself replaced by a
// wrapping node.
func (a *Analyzer) analyzeVarOrCall(v *ast.VarOrCall, receiverType *ast.ClassDeclaration) error {
	var resolved ast.Declaration

	if receiverType == nil {
		if d, ok := a.table.ResolveLocal(v.Ident.Identifier); ok {
			resolved = d
		} else if d, err := a.table.ResolveMember(a.table.CurrentClass(), v.Ident.Identifier); err == nil {
			resolved = d
		} else if d, ok := a.table.ResolveGlobalOnly(v.Ident.Identifier); ok {
			resolved = d
		} else {
			return cerr.New(cerr.Context, v.Pos(), "undeclared identifier %q", v.Ident.Name)
		}
	} else {
		d, err := a.table.ResolveMember(receiverType, v.Ident.Identifier)
		if err != nil {
			return err
		}
		resolved = d
	}
	v.Ident.Declaration = resolved

	switch d := resolved.(type) {
	case *ast.VarDeclaration:
		if v.HasCall {
			return cerr.New(cerr.Context, v.Pos(), "%q is a variable, not a method", d.Name.Name)
		}
		v.SetType(d.Type())
		v.SetLValue(true)
		return nil
	case *ast.MethodDeclaration:
		if !v.HasCall {
			return cerr.New(cerr.Context, v.Pos(), "method %q must be called with ()", d.Name.Name)
		}
		if len(v.Args) != len(d.Params) {
			return cerr.New(cerr.Context, v.Pos(), "%q expects %d argument(s), got %d", d.Name.Name, len(d.Params), len(v.Args))
		}
		for i, arg := range v.Args {
			ae, err := a.analyzeExpr(arg)
			if err != nil {
				return err
			}
			ae, err = a.coerceTo(ae, d.Params[i].Type())
			if err != nil {
				return err
			}
			v.Args[i] = ae
		}
		v.SetType(d.ReturnType())
		v.SetLValue(false)
		return nil
	default:
		return cerr.New(cerr.Context, v.Pos(), "%q is not a variable or method", v.Ident.Name)
	}
}

// analyzeAccessExpr handles the object access operator. The receiver is
// evaluated and dereferenced if it is an l-value (step 5's auto-dereference
// rule); accessing through a primitive Int/Bool receiver is rejected here
// since neither has members — only their boxed wrapper classes, reached by
// boxing the receiver first, would. Null-receiver access is never checked
// at compile time (see DESIGN.md's Open Question decision); a null
// receiver traps at VM runtime.
func (a *Analyzer) analyzeAccessExpr(v *ast.AccessExpr) (ast.Expression, error) {
	left, err := a.analyzeExpr(v.Left)
	if err != nil {
		return nil, err
	}
	if left.IsLValue() {
		left = ast.NewDerefExpr(left)
	}
	if a.builtins.IsUnboxedPrimitive(left.Type()) {
		return nil, cerr.New(cerr.Context, v.Pos(), "cannot access a member of an unboxed %s value", left.Type().DeclName())
	}

	if err := a.analyzeVarOrCall(v.Right, left.Type()); err != nil {
		return nil, err
	}

	// Step 7: virtual dispatch. SELF.m(...) and BASE.m(...) are always
	// direct (SELF keeps the statically-known implementation in scope,
	// BASE always means the base class's own implementation); any other
	// access-expression call whose method lives in the receiver's VMT
	// dispatches through the VMT slot.
	if v.Right.HasCall {
		_, isSelf := v.Left.(*ast.SelfExpr)
		_, isBase := v.Left.(*ast.BaseExpr)
		if !isSelf && !isBase {
			if m, ok := v.Right.Ident.Declaration.(*ast.MethodDeclaration); ok && inVMT(left.Type(), m) {
				v.Right.Dispatch = ast.VirtualCall
			}
		}
	}

	v.Left = left
	v.SetType(v.Right.Type())
	v.SetLValue(v.Right.IsLValue())
	return v, nil
}

func (a *Analyzer) analyzeNewExpr(v *ast.NewExpr) (ast.Expression, error) {
	cd, err := a.table.ResolveType(v.TypeRef)
	if err != nil {
		return nil, err
	}
	v.SetType(cd)
	v.SetLValue(false)
	return v, nil
}

func (a *Analyzer) analyzeUnaryExpr(v *ast.UnaryExpr) (ast.Expression, error) {
	operand, err := a.analyzeExpr(v.Operand)
	if err != nil {
		return nil, err
	}
	switch v.Op {
	case ast.OpNeg:
		operand, err = a.coerceToUnboxedInt(operand)
	case ast.OpNot:
		operand, err = a.coerceToUnboxedBool(operand)
	}
	if err != nil {
		return nil, err
	}
	v.Operand = operand
	if v.Op == ast.OpNeg {
		v.SetType(a.builtins.Int)
	} else {
		v.SetType(a.builtins.Bool)
	}
	v.SetLValue(false)
	return v, nil
}

func (a *Analyzer) analyzeBinaryExpr(v *ast.BinaryExpr) (ast.Expression, error) {
	left, err := a.analyzeExpr(v.Left)
	if err != nil {
		return nil, err
	}
	right, err := a.analyzeExpr(v.Right)
	if err != nil {
		return nil, err
	}

	switch v.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		if left, err = a.coerceToUnboxedInt(left); err != nil {
			return nil, err
		}
		if right, err = a.coerceToUnboxedInt(right); err != nil {
			return nil, err
		}
		v.SetType(a.builtins.Int)
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		if left, err = a.coerceToUnboxedInt(left); err != nil {
			return nil, err
		}
		if right, err = a.coerceToUnboxedInt(right); err != nil {
			return nil, err
		}
		v.SetType(a.builtins.Bool)
	case ast.OpAnd, ast.OpOr, ast.OpAndThen, ast.OpOrElse:
		if left, err = a.coerceToUnboxedBool(left); err != nil {
			return nil, err
		}
		if right, err = a.coerceToUnboxedBool(right); err != nil {
			return nil, err
		}
		v.SetType(a.builtins.Bool)
	}

	v.Left, v.Right = left, right
	v.SetLValue(false)
	return v, nil
}

// derefIfLValue reads through an l-value, inserting a DerefExpr.
func derefIfLValue(e ast.Expression) ast.Expression {
	if e.IsLValue() {
		return ast.NewDerefExpr(e)
	}
	return e
}

// coerceTo implements the boxing/unboxing policy of step 5 for a value
// being placed where targetType is expected (assignment, argument passing,
// return value): dereference an l-value source, then box an unboxed
// primitive into its wrapper, unbox a wrapper into its primitive, or accept
// the value unchanged when the isA relation already holds.
func (a *Analyzer) coerceTo(value ast.Expression, targetType *ast.ClassDeclaration) (ast.Expression, error) {
	v := derefIfLValue(value)

	if boxed := a.builtins.BoxOf(v.Type()); boxed != nil && v.Type() != targetType && a.table.IsA(boxed, targetType) {
		return ast.NewBoxExpr(v, boxed), nil
	}
	if a.table.IsA(v.Type(), targetType) {
		return v, nil
	}
	if unboxed := a.builtins.UnboxedOf(v.Type()); unboxed != nil && a.table.IsA(unboxed, targetType) {
		return ast.NewUnboxExpr(v, unboxed), nil
	}
	return nil, cerr.New(cerr.Context, v.Pos(), "cannot use a value of type %s where %s is expected", typeName(v.Type()), typeName(targetType))
}

func (a *Analyzer) coerceToUnboxedInt(value ast.Expression) (ast.Expression, error) {
	return a.unboxTo(value, a.builtins.Int, a.builtins.Integer)
}

func (a *Analyzer) coerceToUnboxedBool(value ast.Expression) (ast.Expression, error) {
	return a.unboxTo(value, a.builtins.Bool, a.builtins.Boolean)
}

// unboxTo implements the "arithmetic/comparison operators require unboxed
// operands" rule: an l-value is dereferenced first, a boxed wrapper is
// unboxed, and an already-unboxed value of the right primitive type passes
// through unchanged.
func (a *Analyzer) unboxTo(value ast.Expression, primitive, boxed *ast.ClassDeclaration) (ast.Expression, error) {
	v := derefIfLValue(value)
	switch v.Type() {
	case primitive:
		return v, nil
	case boxed:
		return ast.NewUnboxExpr(v, primitive), nil
	default:
		return nil, cerr.New(cerr.Context, v.Pos(), "expected a value of type %s, got %s", primitive.DeclName(), typeName(v.Type()))
	}
}

// inVMT reports whether m occupies a slot in receiverType's VMT (by VMT
// index, since an override replaces the slot with a different
// *MethodDeclaration than the one originally resolved against the static
// type, but both share the index).
func inVMT(receiverType *ast.ClassDeclaration, m *ast.MethodDeclaration) bool {
	if receiverType == nil || m.VMTIndex >= len(receiverType.VMT) {
		return false
	}
	return receiverType.VMT[m.VMTIndex].Name.Name == m.Name.Name
}

func typeName(c *ast.ClassDeclaration) string {
	if c == nil {
		return "?"
	}
	return c.DeclName()
}
