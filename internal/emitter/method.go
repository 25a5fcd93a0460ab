package emitter

import "github.com/oops-lang/oopsc/internal/ast"

// emitMethod lowers one method: label, standard prologue (save old frame,
// set new frame, reserve locals), body, and the shared epilogue labeled
// end_<Class>_<method> (component design §4.6.3). The label counter used
// for internal if/while/short-circuit labels is reset here, scoped to this
// method (component design's per-method "namespace").
func (e *Emitter) emitMethod(owner *ast.ClassDeclaration, m *ast.MethodDeclaration) error {
	e.classLabel = owner.DeclName()
	e.methodLabel = m.Name.Name
	e.labelN = 0
	e.curMethod = m
	e.curOwner = owner

	n := len(m.Params)

	e.sourceLine(m.Pos())
	e.label(methodLabel(owner, m))
	e.comment("prologue: save old frame, establish new frame, reserve %d local(s)", len(m.Locals))
	e.directive("MMR", off(0, rSP), rFP)
	e.directive("MRR", rFP, rSP)
	e.directive("ADD", rSP, rSP, rOne)
	if len(m.Locals) > 0 {
		e.directive("MRI", rA, imm(len(m.Locals)))
		e.directive("ADD", rSP, rSP, rA)
	}

	for _, stmt := range m.Statements {
		if err := e.emitStatement(stmt); err != nil {
			return err
		}
	}

	e.label(endLabel(owner, m))
	e.comment("epilogue: tear down frame, leave the result in the slot self/args occupied")
	e.directive("MRI", rA, imm(-1))
	e.directive("ADD", rA, rFP, rA)
	e.directive("MRM", rA, off(0, rA))
	e.directive("MRM", rB, off(0, rFP))
	e.directive("MRI", rC, imm(-(n + 1)))
	e.directive("ADD", rC, rFP, rC)
	e.directive("MRR", rSP, rC)
	e.directive("MRR", rFP, rB)
	e.directive("JPR", rA)
	e.line("")

	e.curMethod = nil
	return nil
}

// selfOffset is the frame-relative offset shared by _self, _base, and
// _result, per the synthetic-local layout semantic analysis assigns.
func selfOffset(m *ast.MethodDeclaration) int {
	return -(len(m.Params) + 2)
}
