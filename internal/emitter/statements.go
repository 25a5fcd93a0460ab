package emitter

import (
	"github.com/oops-lang/oopsc/internal/ast"
	cerr "github.com/oops-lang/oopsc/internal/errors"
)

// emitStatement lowers one statement of a method body.
func (e *Emitter) emitStatement(s ast.Statement) error {
	e.sourceLine(s.Pos())
	switch st := s.(type) {
	case *ast.AssignStmt:
		return e.emitAssign(st)
	case *ast.CallStmt:
		if err := e.compileValue(st.Call); err != nil {
			return err
		}
		e.directive("POP", rA)
		return nil
	case *ast.ReadStmt:
		return e.emitRead(st)
	case *ast.WriteStmt:
		if err := e.compileValue(st.Value); err != nil {
			return err
		}
		e.directive("CAL", "_writeChar")
		return nil
	case *ast.IfStmt:
		return e.emitIf(st)
	case *ast.WhileStmt:
		return e.emitWhile(st)
	case *ast.ReturnStmt:
		return e.emitReturn(st)
	default:
		return cerr.New(cerr.Internal, s.Pos(), "unhandled statement %T", s)
	}
}

func (e *Emitter) emitAssign(st *ast.AssignStmt) error {
	if err := e.compileAddress(st.Target); err != nil {
		return err
	}
	if err := e.compileValue(st.Value); err != nil {
		return err
	}
	e.directive("POP", rC)
	e.directive("POP", rA)
	e.directive("MMR", off(0, rA), rC)
	return nil
}

func (e *Emitter) emitRead(st *ast.ReadStmt) error {
	if err := e.compileAddress(st.Target); err != nil {
		return err
	}
	e.directive("CAL", "_readChar")
	e.directive("POP", rC)
	e.directive("POP", rA)
	e.directive("MMR", off(0, rA), rC)
	return nil
}

func (e *Emitter) emitIf(st *ast.IfStmt) error {
	elseLabel := e.newLabel()
	endLabel := e.newLabel()

	if err := e.compileValue(st.Cond); err != nil {
		return err
	}
	e.directive("POP", rA)
	e.directive("JPC", rA, elseLabel)
	for _, s := range st.Then {
		if err := e.emitStatement(s); err != nil {
			return err
		}
	}
	e.directive("JMP", endLabel)
	e.label(elseLabel)
	for _, s := range st.Else {
		if err := e.emitStatement(s); err != nil {
			return err
		}
	}
	e.label(endLabel)
	return nil
}

func (e *Emitter) emitWhile(st *ast.WhileStmt) error {
	startLabel := e.newLabel()
	endLabel := e.newLabel()

	e.label(startLabel)
	if err := e.compileValue(st.Cond); err != nil {
		return err
	}
	e.directive("POP", rA)
	e.directive("JPC", rA, endLabel)
	for _, s := range st.Body {
		if err := e.emitStatement(s); err != nil {
			return err
		}
	}
	e.directive("JMP", startLabel)
	e.label(endLabel)
	return nil
}

// emitReturn stores the result (if any) in the synthetic slot SELF/_result
// share, then jumps to the method's shared epilogue.
func (e *Emitter) emitReturn(st *ast.ReturnStmt) error {
	if st.Value != nil {
		if err := e.compileValue(st.Value); err != nil {
			return err
		}
		e.directive("POP", rA)
		e.directive("MMR", off(selfOffset(e.curMethod), rFP), rA)
	}
	e.directive("JMP", endLabel(e.curOwner, e.curMethod))
	return nil
}
