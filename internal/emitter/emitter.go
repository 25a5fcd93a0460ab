// Package emitter lowers a type-checked, (optionally optimized) Program into
// the textual stack-machine assembly described in the compiler's external
// interfaces: a runtime prelude, one VMT data blob per class, per-method
// code with a shared prologue/epilogue, and a heap/stack reservation
// trailer. The instruction set is this repository's own — the production VM
// is an external collaborator and the only contract with it is the emitted
// text — documented in full here since nothing else in the pack prescribes
// it.
//
// Registers: R0 is the program counter, R1 always holds the constant 1, R2
// is the stack pointer (grows by increasing address), R3 is the frame
// pointer, R4 is the heap pointer, R5-R7 are scratch. Two address spaces
// exist in the emitted text, each resolved independently by label: a CODE
// space (method entry points, the runtime prelude, jump/call targets) and a
// DATA space (VMT blobs, heap, stack). An MRI immediate operand that names a
// label resolves against the DATA space (loading a pointer value, e.g. a
// VMT address); a DAT directive's label operand resolves against the CODE
// space (storing a dispatchable method address). JMP/JPC/CAL/CLR targets are
// always CODE-space.
package emitter

import (
	"fmt"
	"strings"

	"github.com/oops-lang/oopsc/internal/ast"
	"github.com/oops-lang/oopsc/internal/decl"
	cerr "github.com/oops-lang/oopsc/internal/errors"
)

// Register names, by convention rather than enforcement (any of R0-R7 can be
// named as an emitter operand, but the emitter itself only ever writes R1-R7
// explicitly; R0 moves only via control-flow mnemonics).
const (
	rPC = "R0"
	rOne = "R1"
	rSP = "R2"
	rFP = "R3"
	rA  = "R5"
	rB  = "R6"
	rC  = "R7"
	rHP = "R4"
)

// Options configures the heap and stack word counts reserved by the
// trailer, per the CLI's -hs/-ss flags (component design §6).
type Options struct {
	HeapWords  int
	StackWords int
}

// DefaultOptions matches the CLI's documented defaults of 100 words each.
func DefaultOptions() Options {
	return Options{HeapWords: 100, StackWords: 100}
}

// Emitter accumulates emitted assembly text for one compilation. It is not
// reusable across programs.
type Emitter struct {
	builtins *decl.Builtins
	opts     Options
	out      strings.Builder

	// per-method state: the emitter's label counter is scoped to the method
	// currently being lowered (component design §4.6's "namespace").
	classLabel  string
	methodLabel string
	labelN      int
	curMethod   *ast.MethodDeclaration
	curOwner    *ast.ClassDeclaration
}

// New creates an Emitter for one compilation.
func New(builtins *decl.Builtins, opts Options) *Emitter {
	return &Emitter{builtins: builtins, opts: opts}
}

// Emit lowers prog to assembly text. prog must already have passed semantic
// analysis (every expression typed, every VarDeclaration offset assigned,
// every ClassDeclaration prepared with a computed VMT).
func (e *Emitter) Emit(prog *ast.Program) (string, error) {
	mainClass := findMainClass(prog)
	if mainClass == nil {
		return "", cerr.New(cerr.Internal, ast.Position{Line: 1, Column: 1}, "no Main class with a main method")
	}

	e.emitPrelude(mainClass)

	classes := append([]*ast.ClassDeclaration{e.builtins.Object, e.builtins.Integer, e.builtins.Boolean}, prog.Classes...)
	for _, c := range classes {
		for _, m := range c.Methods {
			if err := e.emitMethod(c, m); err != nil {
				return "", err
			}
		}
	}

	e.line(".DATA")
	e.label("_null")
	e.directive("DAT", "0")
	for _, c := range classes {
		e.emitVMT(c)
	}
	e.emitTrailer()

	return e.out.String(), nil
}

func findMainClass(prog *ast.Program) *ast.ClassDeclaration {
	for _, c := range prog.Classes {
		if c.Name.Name != "Main" {
			continue
		}
		for _, m := range c.Methods {
			if m.Name.Name == "main" {
				return c
			}
		}
	}
	return nil
}

// --- low-level emission helpers ---

func (e *Emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.out, format+"\n", args...)
}

func (e *Emitter) label(name string) { e.line("%s:", name) }

func (e *Emitter) comment(format string, args ...any) {
	e.line("; "+format, args...)
}

func (e *Emitter) sourceLine(pos ast.Position) {
	e.line("#%d", pos.Line)
}

func (e *Emitter) directive(mnemonic string, operands ...string) {
	e.line("%s %s", mnemonic, strings.Join(operands, ", "))
}

// off formats an offset(register) memory operand.
func off(offset int, reg string) string {
	return fmt.Sprintf("%d(%s)", offset, reg)
}

func imm(n int) string { return fmt.Sprintf("%d", n) }

// newLabel produces a unique label scoped to the method namespace the
// emitter currently has open.
func (e *Emitter) newLabel() string {
	e.labelN++
	return fmt.Sprintf("L%d_%s_%s", e.labelN, e.classLabel, e.methodLabel)
}

func methodLabel(owner *ast.ClassDeclaration, m *ast.MethodDeclaration) string {
	return fmt.Sprintf("%s_%s", owner.DeclName(), m.Name.Name)
}

func endLabel(owner *ast.ClassDeclaration, m *ast.MethodDeclaration) string {
	return fmt.Sprintf("end_%s_%s", owner.DeclName(), m.Name.Name)
}

func vmtLabel(c *ast.ClassDeclaration) string {
	return fmt.Sprintf("_%s_VMT", c.DeclName())
}
