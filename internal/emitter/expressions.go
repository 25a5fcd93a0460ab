package emitter

import (
	"github.com/oops-lang/oopsc/internal/ast"
	cerr "github.com/oops-lang/oopsc/internal/errors"
)

// compileValue lowers e so that, once executed, its value is the new top of
// the runtime stack. Every case pushes exactly one word; callers compose
// expressions by chaining compileValue/compileAddress calls and popping
// whatever operands they need.
func (e *Emitter) compileValue(expr ast.Expression) error {
	switch v := expr.(type) {
	case *ast.IntegerLiteral:
		e.directive("MRI", rA, imm(v.Value))
		e.directive("PSH", rA)
		return nil

	case *ast.BooleanLiteral:
		e.directive("MRI", rA, imm(boolWord(v.Value)))
		e.directive("PSH", rA)
		return nil

	case *ast.NullLiteral:
		e.directive("MRI", rA, "_null")
		e.directive("PSH", rA)
		return nil

	case *ast.SelfExpr, *ast.BaseExpr:
		e.pushSelfValue()
		return nil

	case *ast.DerefExpr:
		if err := e.compileAddress(v.Operand); err != nil {
			return err
		}
		e.directive("POP", rA)
		e.directive("MRM", rA, off(0, rA))
		e.directive("PSH", rA)
		return nil

	case *ast.BoxExpr:
		return e.compileBox(v)

	case *ast.UnboxExpr:
		if err := e.compileValue(v.Operand); err != nil {
			return err
		}
		e.directive("POP", rA)
		e.directive("MRM", rA, off(1, rA))
		e.directive("PSH", rA)
		return nil

	case *ast.NewExpr:
		return e.compileNew(v)

	case *ast.UnaryExpr:
		return e.compileUnary(v)

	case *ast.BinaryExpr:
		return e.compileBinary(v)

	case *ast.VarOrCall:
		if v.HasCall {
			return e.compileDirectCall(v)
		}
		if err := e.compileAddress(v); err != nil {
			return err
		}
		e.directive("POP", rA)
		e.directive("MRM", rA, off(0, rA))
		e.directive("PSH", rA)
		return nil

	case *ast.AccessExpr:
		if v.Right.HasCall {
			return e.compileAccessCall(v)
		}
		if err := e.compileAddress(v); err != nil {
			return err
		}
		e.directive("POP", rA)
		e.directive("MRM", rA, off(0, rA))
		e.directive("PSH", rA)
		return nil

	default:
		return cerr.New(cerr.Internal, expr.Pos(), "unhandled expression %T", expr)
	}
}

// compileAddress lowers e so that, once executed, the address of its
// storage is the new top of the runtime stack. Only ever called on an
// l-value expression or the receiver/attribute half of an access chain.
func (e *Emitter) compileAddress(expr ast.Expression) error {
	switch v := expr.(type) {
	case *ast.SelfExpr, *ast.BaseExpr:
		e.directive("MRI", rB, imm(selfOffset(e.curMethod)))
		e.directive("ADD", rA, rFP, rB)
		e.directive("PSH", rA)
		return nil

	case *ast.VarOrCall:
		d, ok := v.Ident.Declaration.(*ast.VarDeclaration)
		if !ok {
			return cerr.New(cerr.Internal, v.Pos(), "%q is not addressable", v.Ident.Name)
		}
		return e.addressOfVar(d)

	case *ast.AccessExpr:
		d, ok := v.Right.Ident.Declaration.(*ast.VarDeclaration)
		if !ok {
			return cerr.New(cerr.Internal, v.Pos(), "%q is not addressable", v.Right.Ident.Name)
		}
		if err := e.compileValue(v.Left); err != nil {
			return err
		}
		e.directive("POP", rA)
		e.directive("MRI", rB, imm(d.Offset))
		e.directive("ADD", rA, rA, rB)
		e.directive("PSH", rA)
		return nil

	default:
		return cerr.New(cerr.Internal, expr.Pos(), "%T has no address", expr)
	}
}

// addressOfVar pushes the storage address of a local, parameter, or
// (implicit-SELF) attribute.
func (e *Emitter) addressOfVar(d *ast.VarDeclaration) error {
	if d.Owner == nil {
		e.directive("MRI", rB, imm(d.Offset))
		e.directive("ADD", rA, rFP, rB)
		e.directive("PSH", rA)
		return nil
	}
	e.directive("MRM", rA, off(selfOffset(e.curMethod), rFP))
	e.directive("MRI", rB, imm(d.Offset))
	e.directive("ADD", rA, rA, rB)
	e.directive("PSH", rA)
	return nil
}

// pushSelfValue pushes the receiver pointer currently bound to SELF/BASE.
func (e *Emitter) pushSelfValue() {
	e.directive("MRM", rA, off(selfOffset(e.curMethod), rFP))
	e.directive("PSH", rA)
}

func boolWord(b bool) int {
	if b {
		return 1
	}
	return 0
}

// compileDirectCall lowers a bare (implicitly SELF-qualified) method call.
// Bare calls always dispatch directly to whichever declaration the current
// class's member lookup resolved, matching SELF.m(...)'s own direct-call
// rule (component design, grounded on semantic/expressions.go's dispatch
// comment): the call site's static context already pins down the
// implementation, so no VMT indirection is needed.
func (e *Emitter) compileDirectCall(v *ast.VarOrCall) error {
	d, ok := v.Ident.Declaration.(*ast.MethodDeclaration)
	if !ok {
		return cerr.New(cerr.Internal, v.Pos(), "%q is not a method", v.Ident.Name)
	}
	e.pushSelfValue()
	for _, arg := range v.Args {
		if err := e.compileValue(arg); err != nil {
			return err
		}
	}
	e.directive("CAL", methodLabel(d.Owner, d))
	return nil
}

// compileAccessCall lowers receiver.method(args), direct or virtual
// depending on what semantic analysis decided (ast.VarOrCall.Dispatch).
func (e *Emitter) compileAccessCall(v *ast.AccessExpr) error {
	d, ok := v.Right.Ident.Declaration.(*ast.MethodDeclaration)
	if !ok {
		return cerr.New(cerr.Internal, v.Pos(), "%q is not a method", v.Right.Ident.Name)
	}
	if err := e.compileValue(v.Left); err != nil {
		return err
	}
	for _, arg := range v.Right.Args {
		if err := e.compileValue(arg); err != nil {
			return err
		}
	}
	if v.Right.Dispatch == ast.DirectCall {
		e.directive("CAL", methodLabel(d.Owner, d))
		return nil
	}

	// Virtual dispatch: the receiver sits numArgs+1 words below the
	// current stack top (self, then each pushed argument). Load it
	// without popping anything, then index its VMT.
	numArgs := len(v.Right.Args)
	e.comment("virtual dispatch: %s, VMT slot %d", d.Name.Name, d.VMTIndex)
	e.directive("MRI", rA, imm(-(numArgs + 1)))
	e.directive("ADD", rA, rSP, rA)
	e.directive("MRM", rA, off(0, rA))
	e.directive("MRM", rB, off(0, rA))
	e.directive("MRI", rC, imm(d.VMTIndex))
	e.directive("ADD", rB, rB, rC)
	e.directive("MRM", rB, off(0, rB))
	e.directive("CLR", rB)
	return nil
}

func (e *Emitter) compileBox(v *ast.BoxExpr) error {
	if err := e.compileValue(v.Operand); err != nil {
		return err
	}
	boxed := v.Type()
	e.directive("POP", rC)
	e.directive("MRR", rA, rHP)
	e.directive("MRI", rB, imm(boxed.Size+1))
	e.directive("ADD", rHP, rHP, rB)
	e.directive("MRI", rB, vmtLabel(boxed))
	e.directive("MMR", off(0, rA), rB)
	e.directive("MMR", off(1, rA), rC)
	e.directive("PSH", rA)
	return nil
}

func (e *Emitter) compileNew(v *ast.NewExpr) error {
	cd := v.Type()
	e.directive("MRR", rA, rHP)
	e.directive("MRI", rB, imm(cd.Size+1))
	e.directive("ADD", rHP, rHP, rB)
	e.directive("MRI", rB, vmtLabel(cd))
	e.directive("MMR", off(0, rA), rB)
	e.directive("PSH", rA)
	return nil
}

func (e *Emitter) compileUnary(v *ast.UnaryExpr) error {
	if err := e.compileValue(v.Operand); err != nil {
		return err
	}
	e.directive("POP", rA)
	switch v.Op {
	case ast.OpNeg:
		e.directive("NEG", rA)
	case ast.OpNot:
		e.directive("ISZ", rA)
	default:
		return cerr.New(cerr.Internal, v.Pos(), "unhandled unary operator %v", v.Op)
	}
	e.directive("PSH", rA)
	return nil
}

func (e *Emitter) compileBinary(v *ast.BinaryExpr) error {
	switch v.Op {
	case ast.OpAndThen:
		return e.compileAndThen(v)
	case ast.OpOrElse:
		return e.compileOrElse(v)
	}

	if err := e.compileValue(v.Left); err != nil {
		return err
	}
	if err := e.compileValue(v.Right); err != nil {
		return err
	}
	e.directive("POP", rC)
	e.directive("POP", rB)

	switch v.Op {
	case ast.OpAdd:
		e.directive("ADD", rA, rB, rC)
	case ast.OpSub:
		e.directive("SUB", rA, rB, rC)
	case ast.OpMul:
		e.directive("MUL", rA, rB, rC)
	case ast.OpDiv:
		e.directive("DIV", rA, rB, rC)
	case ast.OpMod:
		e.directive("MOD", rA, rB, rC)
	case ast.OpAnd:
		e.directive("MUL", rA, rB, rC)
	case ast.OpOr:
		e.directive("ADD", rA, rB, rC)
		e.directive("ISZ", rA)
		e.directive("ISZ", rA)
	case ast.OpEq:
		e.directive("SUB", rA, rB, rC)
		e.directive("ISZ", rA)
	case ast.OpNeq:
		e.directive("SUB", rA, rB, rC)
		e.directive("ISZ", rA)
		e.directive("ISZ", rA)
	case ast.OpLt:
		e.directive("SUB", rA, rB, rC)
		e.directive("ISN", rA)
	case ast.OpGt:
		e.directive("SUB", rA, rC, rB)
		e.directive("ISN", rA)
	case ast.OpLe:
		e.directive("SUB", rA, rC, rB)
		e.directive("ISN", rA)
		e.directive("ISZ", rA)
	case ast.OpGe:
		e.directive("SUB", rA, rB, rC)
		e.directive("ISN", rA)
		e.directive("ISZ", rA)
	default:
		return cerr.New(cerr.Internal, v.Pos(), "unhandled binary operator %v", v.Op)
	}
	e.directive("PSH", rA)
	return nil
}

// compileAndThen lowers AND THEN: the right operand is only evaluated when
// the left one is true (spec's short-circuit semantics; see the optimizer's
// matching fold rule).
func (e *Emitter) compileAndThen(v *ast.BinaryExpr) error {
	falseLabel := e.newLabel()
	endLabel := e.newLabel()

	if err := e.compileValue(v.Left); err != nil {
		return err
	}
	e.directive("POP", rA)
	e.directive("JPC", rA, falseLabel)
	if err := e.compileValue(v.Right); err != nil {
		return err
	}
	e.directive("JMP", endLabel)
	e.label(falseLabel)
	e.directive("MRI", rA, imm(0))
	e.directive("PSH", rA)
	e.label(endLabel)
	return nil
}

// compileOrElse lowers OR ELSE: the right operand is only evaluated when the
// left one is false.
func (e *Emitter) compileOrElse(v *ast.BinaryExpr) error {
	evalRight := e.newLabel()
	endLabel := e.newLabel()

	if err := e.compileValue(v.Left); err != nil {
		return err
	}
	e.directive("POP", rA)
	e.directive("JPC", rA, evalRight)
	e.directive("MRI", rA, imm(1))
	e.directive("PSH", rA)
	e.directive("JMP", endLabel)
	e.label(evalRight)
	if err := e.compileValue(v.Right); err != nil {
		return err
	}
	e.label(endLabel)
	return nil
}
