package semantic

import (
	"strings"
	"testing"

	"github.com/oops-lang/oopsc/internal/ast"
	cerr "github.com/oops-lang/oopsc/internal/errors"
	"github.com/oops-lang/oopsc/internal/lexer"
	"github.com/oops-lang/oopsc/internal/parser"
)

func analyze(t *testing.T, src string) (*ast.Program, error) {
	t.Helper()
	prog, err := parser.ParseProgram(lexer.New(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return prog, NewAnalyzer().Analyze(prog)
}

func classByName(prog *ast.Program, name string) *ast.ClassDeclaration {
	for _, c := range prog.Classes {
		if c.Name.Name == name {
			return c
		}
	}
	return nil
}

// TestLayoutConsistency checks spec §8's layout-consistency property:
// size(class) == size(base) + attributes(class).length, and each class's own
// attributes occupy a contiguous, unique run of offsets starting right after
// the base class's words.
func TestLayoutConsistency(t *testing.T) {
	prog, err := analyze(t, `
CLASS Base IS
  PUBLIC x: Integer;
  METHOD main IS BEGIN END METHOD
END CLASS
CLASS Derived EXTENDS Base IS
  PUBLIC y, z: Integer;
END CLASS
CLASS Main IS
  METHOD main IS BEGIN END METHOD
END CLASS
`)
	if err != nil {
		t.Fatalf("unexpected analysis error: %v", err)
	}

	base := classByName(prog, "Base")
	derived := classByName(prog, "Derived")

	if base.Size != 1 {
		t.Fatalf("expected Base size 1, got %d", base.Size)
	}
	if derived.Size != base.Size+len(derived.Attrs) {
		t.Fatalf("expected Derived size %d, got %d", base.Size+len(derived.Attrs), derived.Size)
	}
	if base.Attrs[0].Offset != 1 {
		t.Fatalf("expected Base.x at offset 1, got %d", base.Attrs[0].Offset)
	}
	if derived.Attrs[0].Offset != base.Size+1 {
		t.Fatalf("expected Derived.y right after Base's words, got offset %d", derived.Attrs[0].Offset)
	}
	if derived.Attrs[1].Offset != derived.Attrs[0].Offset+1 {
		t.Fatalf("expected Derived.z to follow y contiguously, got offsets %d, %d",
			derived.Attrs[0].Offset, derived.Attrs[1].Offset)
	}
}

// TestVMTMonotonicity exercises spec §8's VMT-monotonicity property across a
// three-level hierarchy: vmt(C) must agree with vmt(B) in every slot except
// where C overrides, and vmt(B) must agree with vmt(A) the same way.
func TestVMTMonotonicity(t *testing.T) {
	prog, err := analyze(t, `
CLASS A IS
  PUBLIC METHOD foo IS BEGIN END METHOD
  PUBLIC METHOD bar IS BEGIN END METHOD
END CLASS
CLASS B EXTENDS A IS
  PUBLIC METHOD baz IS BEGIN END METHOD
END CLASS
CLASS C EXTENDS B IS
  PUBLIC METHOD foo IS BEGIN END METHOD
END CLASS
CLASS Main IS
  METHOD main IS BEGIN END METHOD
END CLASS
`)
	if err != nil {
		t.Fatalf("unexpected analysis error: %v", err)
	}

	a := classByName(prog, "A")
	b := classByName(prog, "B")
	c := classByName(prog, "C")

	if len(a.VMT) != 2 {
		t.Fatalf("expected A's VMT to hold foo, bar; got %d entries", len(a.VMT))
	}
	if len(b.VMT) != 3 {
		t.Fatalf("expected B's VMT to add baz, got %d entries", len(b.VMT))
	}
	for i := range a.VMT {
		if b.VMT[i] != a.VMT[i] {
			t.Fatalf("expected B.VMT[%d] to agree with A.VMT[%d] (no override in B)", i, i)
		}
	}
	if len(c.VMT) != len(b.VMT) {
		t.Fatalf("expected C's VMT to be the same length as B's (override only, no new method), got %d vs %d",
			len(c.VMT), len(b.VMT))
	}
	for i := range b.VMT {
		if i == 0 {
			if c.VMT[i].Owner != c {
				t.Fatalf("expected C.VMT[0] (foo) to be overridden by C, got owner %s", c.VMT[i].Owner.DeclName())
			}
			continue
		}
		if c.VMT[i] != b.VMT[i] {
			t.Fatalf("expected C.VMT[%d] to agree with B.VMT[%d] except at the overridden slot", i, i)
		}
	}
	if c.VMT[0].VMTIndex != 0 {
		t.Fatalf("expected the overriding foo to keep VMT index 0, got %d", c.VMT[0].VMTIndex)
	}
}

func TestAccessAndOverrideRejection(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantErr    bool
		errKind    cerr.Kind
		wantSubstr string
	}{
		{
			name: "private attribute inaccessible from another class",
			src: `
CLASS Holder IS
  PRIVATE secret: Integer;
END CLASS
CLASS Main IS
  METHOD main IS
    h: Holder;
  BEGIN
    h := NEW Holder;
    h.secret := 1;
  END METHOD
END CLASS
`,
			wantErr:    true,
			errKind:    cerr.Context,
			wantSubstr: "not accessible",
		},
		{
			name: "protected attribute accessible from a subclass",
			src: `
CLASS Base IS
  PROTECTED n: Integer;
END CLASS
CLASS Sub EXTENDS Base IS
  PUBLIC METHOD touch IS
  BEGIN
    n := 1;
  END METHOD
END CLASS
CLASS Main IS
  METHOD main IS BEGIN END METHOD
END CLASS
`,
			wantErr: false,
		},
		{
			name: "illegal overload rejected",
			src: `
CLASS Base IS
  PUBLIC METHOD f IS BEGIN END METHOD
END CLASS
CLASS Sub EXTENDS Base IS
  PUBLIC METHOD f(x: Integer) IS BEGIN END METHOD
END CLASS
CLASS Main IS
  METHOD main IS BEGIN END METHOD
END CLASS
`,
			wantErr:    true,
			errKind:    cerr.Context,
			wantSubstr: "illegal overload",
		},
		{
			name: "narrowing access on override rejected",
			src: `
CLASS Base IS
  PUBLIC METHOD f IS BEGIN END METHOD
END CLASS
CLASS Sub EXTENDS Base IS
  PRIVATE METHOD f IS BEGIN END METHOD
END CLASS
CLASS Main IS
  METHOD main IS BEGIN END METHOD
END CLASS
`,
			wantErr:    true,
			errKind:    cerr.Context,
			wantSubstr: "narrows access",
		},
		{
			name: "circular inheritance detected",
			src: `
CLASS A EXTENDS B IS
END CLASS
CLASS B EXTENDS A IS
END CLASS
CLASS Main IS
  METHOD main IS BEGIN END METHOD
END CLASS
`,
			wantErr:    true,
			errKind:    cerr.Context,
			wantSubstr: "circular inheritance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := parser.ParseProgram(lexer.New(tt.src))
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			err = NewAnalyzer().Analyze(prog)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an analysis error")
			}
			ce, ok := err.(*cerr.CompilerError)
			if !ok {
				t.Fatalf("expected *CompilerError, got %T", err)
			}
			if ce.Kind != tt.errKind {
				t.Fatalf("expected kind %v, got %v", tt.errKind, ce.Kind)
			}
			if !strings.Contains(ce.Message, tt.wantSubstr) {
				t.Fatalf("expected message to contain %q, got %q", tt.wantSubstr, ce.Message)
			}
		})
	}
}
