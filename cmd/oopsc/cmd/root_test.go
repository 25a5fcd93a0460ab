package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func resetFlags() {
	optHelp = false
	optDumpTyped = false
	optDumpParsed = false
	optDumpIdents = false
	optDumpTokens = false
	optOptimize = false
	optHeapWords = 100
	optStackWords = 100
}

func TestRunCompileProducesAssembly(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.oops")
	if err := os.WriteFile(src, []byte(`CLASS Main IS METHOD main IS BEGIN WRITE 1+2; END METHOD END CLASS`), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	var runErr error
	captureStdout(t, func() {
		runErr = runCompile(nil, []string{src})
	})
	if runErr != nil {
		t.Fatalf("unexpected error: %v", runErr)
	}

	asmPath := filepath.Join(dir, "hello.asm")
	asm, err := os.ReadFile(asmPath)
	if err != nil {
		t.Fatalf("expected output assembly file: %v", err)
	}
	if !strings.Contains(string(asm), ".CODE") {
		t.Fatalf("expected emitted assembly to contain .CODE, got:\n%s", asm)
	}
}

func TestRunCompileMissingSourceIsExitCodeTwo(t *testing.T) {
	resetFlags()
	var runErr error
	captureStdout(t, func() {
		runErr = runCompile(nil, []string{filepath.Join(t.TempDir(), "missing.oops")})
	})
	exitErr, ok := runErr.(*ExitError)
	if !ok {
		t.Fatalf("expected *ExitError, got %T (%v)", runErr, runErr)
	}
	if exitErr.Code != 2 {
		t.Fatalf("expected exit code 2, got %d", exitErr.Code)
	}
}

func TestRunCompileSyntaxErrorIsExitCodeOne(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.oops")
	if err := os.WriteFile(src, []byte(`CLASS Main IS METHOD main IS BEGIN END METHOD`), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	var runErr error
	out := captureStdout(t, func() {
		runErr = runCompile(nil, []string{src})
	})
	exitErr, ok := runErr.(*ExitError)
	if !ok {
		t.Fatalf("expected *ExitError, got %T (%v)", runErr, runErr)
	}
	if exitErr.Code != 1 {
		t.Fatalf("expected exit code 1, got %d", exitErr.Code)
	}
	if !strings.HasPrefix(out, "Error at line") {
		t.Fatalf("expected diagnostic line, got %q", out)
	}
}

func TestRunCompileHelpIsExitCodeTwo(t *testing.T) {
	resetFlags()
	optHelp = true
	defer resetFlags()

	var runErr error
	out := captureStdout(t, func() {
		runErr = runCompile(nil, []string{"ignored.oops"})
	})
	exitErr, ok := runErr.(*ExitError)
	if !ok {
		t.Fatalf("expected *ExitError, got %T (%v)", runErr, runErr)
	}
	if exitErr.Code != 2 {
		t.Fatalf("expected exit code 2, got %d", exitErr.Code)
	}
	if !strings.Contains(out, "usage:") {
		t.Fatalf("expected usage text, got %q", out)
	}
}

func TestOutputPathDefaultsToAsmExtension(t *testing.T) {
	if got := outputPath("foo.oops", []string{"foo.oops"}); got != "foo.asm" {
		t.Fatalf("expected foo.asm, got %s", got)
	}
	if got := outputPath("foo.oops", []string{"foo.oops", "custom.out"}); got != "custom.out" {
		t.Fatalf("expected custom.out, got %s", got)
	}
}
