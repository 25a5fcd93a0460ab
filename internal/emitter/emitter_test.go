package emitter_test

import (
	"strings"
	"testing"

	cerr "github.com/oops-lang/oopsc/internal/errors"
	"github.com/oops-lang/oopsc/internal/emitter"
	"github.com/oops-lang/oopsc/internal/lexer"
	"github.com/oops-lang/oopsc/internal/parser"
	"github.com/oops-lang/oopsc/internal/semantic"
	"github.com/oops-lang/oopsc/internal/vm"
)

// compileToAsm runs the front end (lex, parse, analyze) and the emitter,
// failing the test on any error, matching the pipeline cmd/oopsc drives.
func compileToAsm(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.ParseProgram(lexer.New(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	analyzer := semantic.NewAnalyzer()
	if err := analyzer.Analyze(prog); err != nil {
		t.Fatalf("analysis error: %v", err)
	}
	asm, err := emitter.New(analyzer.Table().Builtins(), emitter.DefaultOptions()).Emit(prog)
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	return asm
}

func runAsm(t *testing.T, asm string) string {
	t.Helper()
	out, err := vm.RunSource(asm, "")
	if err != nil {
		t.Fatalf("vm run error: %v\n%s", err, asm)
	}
	return out
}

func TestArithmeticWrite(t *testing.T) {
	asm := compileToAsm(t, `CLASS Main IS METHOD main IS BEGIN WRITE 1+2; END METHOD END CLASS`)
	out := runAsm(t, asm)
	if out != string(rune(3)) {
		t.Fatalf("expected char code 3, got %q", out)
	}
}

func TestIfThenElse(t *testing.T) {
	asm := compileToAsm(t, `CLASS Main IS METHOD main IS BEGIN IF 1<2 THEN WRITE 'Y'; ELSE WRITE 'N'; END IF; END METHOD END CLASS`)
	out := runAsm(t, asm)
	if out != "Y" {
		t.Fatalf("expected Y, got %q", out)
	}
}

func TestCounterMethodCallsAndAttribute(t *testing.T) {
	asm := compileToAsm(t, `
CLASS Counter IS
  PRIVATE n: Integer;
  PUBLIC METHOD inc IS
  BEGIN
    n := n + 1;
  END METHOD
  PUBLIC METHOD get: Integer IS
  BEGIN
    RETURN n;
  END METHOD
END CLASS
CLASS Main IS
  METHOD main IS
    c: Counter;
  BEGIN
    c := NEW Counter;
    c.inc();
    c.inc();
    c.inc();
    WRITE c.get();
  END METHOD
END CLASS
`)
	out := runAsm(t, asm)
	if out != string(rune(3)) {
		t.Fatalf("expected char code 3, got %q", out)
	}
}

func TestVirtualDispatchThroughBase(t *testing.T) {
	src := `
CLASS Animal IS
  PUBLIC METHOD speak IS
  BEGIN
  END METHOD
END CLASS
CLASS Dog EXTENDS Animal IS
  PUBLIC METHOD speak IS
  BEGIN
    WRITE 'D';
  END METHOD
END CLASS
CLASS Cat EXTENDS Animal IS
  PUBLIC METHOD speak IS
  BEGIN
    WRITE 'C';
  END METHOD
END CLASS
CLASS Main IS
  METHOD main IS
    a: Animal;
  BEGIN
    a := NEW Dog;
    a.speak();
    a := NEW Cat;
    a.speak();
  END METHOD
END CLASS
`
	asm := compileToAsm(t, src)
	if !strings.Contains(asm, "virtual dispatch: speak") {
		t.Fatalf("expected a virtual dispatch site for speak, got:\n%s", asm)
	}
	if !strings.Contains(asm, "0(R5)") {
		t.Fatalf("expected a VMT-pointer load through offset 0, got:\n%s", asm)
	}
	out := runAsm(t, asm)
	if out != "DC" {
		t.Fatalf("expected DC, got %q", out)
	}
}

func TestReturnCoverageFailure(t *testing.T) {
	prog, err := parser.ParseProgram(lexer.New(`
CLASS Main IS
  METHOD f(cond: Boolean): Integer IS
  BEGIN
    IF cond THEN
      RETURN 1;
    END IF;
  END METHOD
  METHOD main IS BEGIN END METHOD
END CLASS
`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	analyzer := semantic.NewAnalyzer()
	err = analyzer.Analyze(prog)
	if err == nil {
		t.Fatal("expected a return-coverage error")
	}
	ce, ok := err.(*cerr.CompilerError)
	if !ok {
		t.Fatalf("expected a *CompilerError, got %T", err)
	}
	if ce.Kind != cerr.Context {
		t.Fatalf("expected a context error, got %v", ce.Kind)
	}
}

func TestAndThenShortCircuitDoesNotTrap(t *testing.T) {
	asm := compileToAsm(t, `
CLASS Main IS
  METHOD main IS
  BEGIN
    IF FALSE AND THEN (1/0 = 0) THEN WRITE 'X'; END IF;
  END METHOD
END CLASS
`)
	out := runAsm(t, asm)
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}
}
