package emitter

import "github.com/oops-lang/oopsc/internal/ast"

// emitPrelude emits the register-setup prologue (component design §4.6.1):
// R1 fixed at 1, the heap pointer past the reserved null sentinel, the
// stack pointer at the bottom of the stack region growing upward, then an
// allocation of the Main instance and a call into Main_main. Data-space
// addresses for _heap/_stack are resolved by the assembler once the DATA
// section has been laid out; the prelude only needs their labels.
func (e *Emitter) emitPrelude(mainClass *ast.ClassDeclaration) {
	e.line(".CODE")
	e.label("_start")
	e.comment("R1 is the constant 1, used by every increment/decrement sequence")
	e.directive("MRI", rOne, imm(1))
	e.comment("heap pointer starts at the bottom of the heap region")
	e.directive("MRI", rHP, "_heap")
	e.comment("stack pointer starts at the bottom of the stack region and grows upward")
	e.directive("MRI", rSP, "_stack")
	e.directive("MRR", rFP, rSP)

	e.comment("allocate the Main instance and call Main.main on it")
	e.directive("MRR", rB, rHP)
	e.directive("MRI", rC, imm(mainClass.Size+1))
	e.directive("ADD", rHP, rHP, rC)
	e.directive("MRI", rC, vmtLabel(mainClass))
	e.directive("MMR", off(0, rB), rC)
	e.directive("PSH", rB)
	e.directive("CAL", methodLabel(mainClass, findMain(mainClass)))
	e.directive("HLT")
	e.line("")

	e.emitReadCharRoutine()
	e.emitWriteCharRoutine()
}

func findMain(c *ast.ClassDeclaration) *ast.MethodDeclaration {
	for _, m := range c.Methods {
		if m.Name.Name == "main" {
			return m
		}
	}
	return nil
}

// emitReadCharRoutine implements the runtime's _readChar, called by every
// READ statement (component design §4.6.4). Calling convention: the caller
// pushes the target address, then CAL _readChar; the routine leaves the
// character code it read on the stack in the value's place.
func (e *Emitter) emitReadCharRoutine() {
	e.label("_readChar")
	e.directive("POP", rA)
	e.directive("RDC", rC)
	e.directive("PSH", rC)
	e.directive("JPR", rA)
	e.line("")
}

// emitWriteCharRoutine implements the runtime's _writeChar, called by every
// WRITE statement. Calling convention: the caller pushes the value, then
// CAL _writeChar; the routine consumes it and writes nothing back.
func (e *Emitter) emitWriteCharRoutine() {
	e.label("_writeChar")
	e.directive("POP", rA)
	e.directive("POP", rC)
	e.directive("WRC", rC)
	e.directive("JPR", rA)
	e.line("")
}

// emitVMT emits one class's VMT data blob: a labeled block listing its
// method entry labels in VMT order (component design §4.6.2). A class that
// only inherits lists its base's entries again. A class with an empty VMT
// (no methods of its own and none inherited, e.g. a builtin) still gets a
// labeled but empty blob, since its objects still need a valid VMT pointer
// at offset 0.
func (e *Emitter) emitVMT(c *ast.ClassDeclaration) {
	e.label(vmtLabel(c))
	for _, m := range c.VMT {
		e.directive("DAT", methodLabel(m.Owner, m))
	}
}

// emitTrailer reserves the heap and stack word counts configured by -hs/-ss
// (default 100 each), labeled _heap and _stack (component design §4.6.5).
func (e *Emitter) emitTrailer() {
	e.label("_heap")
	e.directive("RES", imm(e.opts.HeapWords))
	e.label("_stack")
	e.directive("RES", imm(e.opts.StackWords))
}
