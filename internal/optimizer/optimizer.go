// Package optimizer implements the single optional constant-folding and
// dead-branch elimination pass that runs between semantic analysis and
// code emission. It is a single AST traversal, in the style of the
// teacher's own bytecode optimizer passes (fold-in-place, report whether
// anything changed), retargeted from post-compile bytecode rewriting to
// pre-emission AST rewriting since this pass runs on the typed tree, not
// on emitted instructions.
package optimizer

import (
	"github.com/oops-lang/oopsc/internal/ast"
	"github.com/oops-lang/oopsc/internal/decl"
)

// Optimizer folds literal subtrees and removes provably-dead branches. It
// never changes the type of a surviving expression and never folds across a
// READ, WRITE, NEW, or method call. Such an operation is dropped only when it
// sits in a branch or short-circuited right operand that can never run.
type Optimizer struct {
	builtins *decl.Builtins
}

func New(builtins *decl.Builtins) *Optimizer {
	return &Optimizer{builtins: builtins}
}

// Optimize rewrites every method body of prog in place.
func (o *Optimizer) Optimize(prog *ast.Program) {
	for _, c := range prog.Classes {
		for _, m := range c.Methods {
			m.Statements = o.foldStmts(m.Statements)
		}
	}
}

func (o *Optimizer) foldStmts(stmts []ast.Statement) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, o.foldStmt(s)...)
	}
	return out
}

// foldStmt returns the statements s should be replaced by: normally a
// single-element slice, zero elements for an eliminated `WHILE FALSE`, or
// the (recursively folded) contents of whichever branch a literal-
// condition `IF` collapses to.
func (o *Optimizer) foldStmt(s ast.Statement) []ast.Statement {
	switch st := s.(type) {
	case *ast.AssignStmt:
		st.Value = o.foldExpr(st.Value)
		return []ast.Statement{st}
	case *ast.CallStmt:
		st.Call = o.foldExpr(st.Call)
		return []ast.Statement{st}
	case *ast.ReadStmt:
		return []ast.Statement{st}
	case *ast.WriteStmt:
		st.Value = o.foldExpr(st.Value)
		return []ast.Statement{st}
	case *ast.ReturnStmt:
		if st.Value != nil {
			st.Value = o.foldExpr(st.Value)
		}
		return []ast.Statement{st}
	case *ast.WhileStmt:
		st.Cond = o.foldExpr(st.Cond)
		st.Body = o.foldStmts(st.Body)
		if b, ok := st.Cond.(*ast.BooleanLiteral); ok && !b.Value {
			return nil
		}
		return []ast.Statement{st}
	case *ast.IfStmt:
		st.Cond = o.foldExpr(st.Cond)
		st.Then = o.foldStmts(st.Then)
		st.Else = o.foldStmts(st.Else)
		if b, ok := st.Cond.(*ast.BooleanLiteral); ok {
			if b.Value {
				return st.Then
			}
			return st.Else
		}
		return []ast.Statement{st}
	default:
		return []ast.Statement{s}
	}
}

// foldExpr folds e's children first, then e itself when the result is a
// literal subtree the runtime semantics of §4.5 allow collapsing.
func (o *Optimizer) foldExpr(e ast.Expression) ast.Expression {
	switch v := e.(type) {
	case *ast.UnaryExpr:
		v.Operand = o.foldExpr(v.Operand)
		return o.foldUnary(v)
	case *ast.BinaryExpr:
		v.Left = o.foldExpr(v.Left)
		v.Right = o.foldExpr(v.Right)
		return o.foldBinary(v)
	case *ast.VarOrCall:
		for i, a := range v.Args {
			v.Args[i] = o.foldExpr(a)
		}
		return v
	case *ast.AccessExpr:
		v.Left = o.foldExpr(v.Left)
		return v
	case *ast.BoxExpr:
		v.Operand = o.foldExpr(v.Operand)
		return v
	case *ast.UnboxExpr:
		v.Operand = o.foldExpr(v.Operand)
		return v
	case *ast.DerefExpr:
		v.Operand = o.foldExpr(v.Operand)
		return v
	default:
		return e
	}
}

func (o *Optimizer) foldUnary(v *ast.UnaryExpr) ast.Expression {
	switch operand := v.Operand.(type) {
	case *ast.IntegerLiteral:
		if v.Op == ast.OpNeg {
			lit := ast.NewIntegerLiteral(v.Pos(), -operand.Value)
			lit.SetType(o.builtins.Int)
			return lit
		}
	case *ast.BooleanLiteral:
		if v.Op == ast.OpNot {
			lit := ast.NewBooleanLiteral(v.Pos(), !operand.Value)
			lit.SetType(o.builtins.Bool)
			return lit
		}
	}
	return v
}

func (o *Optimizer) foldBinary(v *ast.BinaryExpr) ast.Expression {
	// Short-circuit collapse: the left operand alone determines the
	// result for AND THEN/FALSE and OR ELSE/TRUE, regardless of whether
	// the right operand is itself foldable (or has side effects we must
	// not evaluate).
	if lb, ok := v.Left.(*ast.BooleanLiteral); ok {
		if v.Op == ast.OpAndThen && !lb.Value {
			return boolLit(o, v.Pos(), false)
		}
		if v.Op == ast.OpOrElse && lb.Value {
			return boolLit(o, v.Pos(), true)
		}
	}

	li, lIsInt := v.Left.(*ast.IntegerLiteral)
	ri, rIsInt := v.Right.(*ast.IntegerLiteral)
	if lIsInt && rIsInt {
		switch v.Op {
		case ast.OpAdd:
			return intLit(o, v.Pos(), li.Value+ri.Value)
		case ast.OpSub:
			return intLit(o, v.Pos(), li.Value-ri.Value)
		case ast.OpMul:
			return intLit(o, v.Pos(), li.Value*ri.Value)
		case ast.OpDiv:
			if ri.Value == 0 {
				return v
			}
			return intLit(o, v.Pos(), li.Value/ri.Value)
		case ast.OpMod:
			if ri.Value == 0 {
				return v
			}
			return intLit(o, v.Pos(), li.Value%ri.Value)
		case ast.OpEq:
			return boolLit(o, v.Pos(), li.Value == ri.Value)
		case ast.OpNeq:
			return boolLit(o, v.Pos(), li.Value != ri.Value)
		case ast.OpLt:
			return boolLit(o, v.Pos(), li.Value < ri.Value)
		case ast.OpGt:
			return boolLit(o, v.Pos(), li.Value > ri.Value)
		case ast.OpLe:
			return boolLit(o, v.Pos(), li.Value <= ri.Value)
		case ast.OpGe:
			return boolLit(o, v.Pos(), li.Value >= ri.Value)
		}
	}

	lb, lIsBool := v.Left.(*ast.BooleanLiteral)
	rb, rIsBool := v.Right.(*ast.BooleanLiteral)
	if lIsBool && rIsBool {
		switch v.Op {
		case ast.OpAnd, ast.OpAndThen:
			return boolLit(o, v.Pos(), lb.Value && rb.Value)
		case ast.OpOr, ast.OpOrElse:
			return boolLit(o, v.Pos(), lb.Value || rb.Value)
		}
	}

	return v
}

func intLit(o *Optimizer, pos ast.Position, value int) ast.Expression {
	lit := ast.NewIntegerLiteral(pos, value)
	lit.SetType(o.builtins.Int)
	return lit
}

func boolLit(o *Optimizer, pos ast.Position, value bool) ast.Expression {
	lit := ast.NewBooleanLiteral(pos, value)
	lit.SetType(o.builtins.Bool)
	return lit
}
