// Package semantic implements the multi-pass semantic analysis described in
// the compiler's component design: class preparation and VMT construction,
// method signature resolution, method body resolution (typing, boxing,
// access checks, virtual dispatch), and return-coverage checking.
package semantic

import (
	"github.com/oops-lang/oopsc/internal/ast"
	"github.com/oops-lang/oopsc/internal/decl"
	cerr "github.com/oops-lang/oopsc/internal/errors"
)

// AnalyzerOption configures optional Analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithSource attaches the original source text. The Analyzer stores it;
// no analysis step, diagnostic or dump reads it.
func WithSource(src string) AnalyzerOption {
	return func(a *Analyzer) { a.source = src }
}

// Analyzer runs the full semantic analysis pass over a parsed Program.
type Analyzer struct {
	table    *decl.Table
	builtins *decl.Builtins
	source   string
}

// NewAnalyzer creates an Analyzer with a fresh declaration table seeded
// with the built-in classes.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	builtins := decl.NewBuiltins()
	a := &Analyzer{table: decl.New(builtins), builtins: builtins}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Table exposes the declaration table built during analysis, used by the
// -i identifier-map dump.
func (a *Analyzer) Table() *decl.Table { return a.table }

// Analyze runs every step of semantic analysis over prog, in the order the
// component design specifies, with one necessary reordering: method signatures (step 2) are resolved for every class before
// any class's VMT is built (step 1's override/signature check needs
// parameter and return types already resolved), even though step 1 is
// numbered first. Class preparation (including the VMT build itself) still
// proceeds base-first and idempotently as step 1 describes.
func (a *Analyzer) Analyze(prog *ast.Program) error {
	for _, c := range prog.Classes {
		if err := a.table.Add(c); err != nil {
			return err
		}
	}

	for _, c := range prog.Classes {
		for _, m := range c.Methods {
			if err := a.resolveMethodSignature(m); err != nil {
				return err
			}
		}
	}

	for _, c := range prog.Classes {
		if err := a.prepareClass(c); err != nil {
			return err
		}
	}

	for _, c := range prog.Classes {
		for _, m := range c.Methods {
			if err := a.analyzeMethodBody(c, m); err != nil {
				return err
			}
		}
	}

	return nil
}

func (a *Analyzer) resolveMethodSignature(m *ast.MethodDeclaration) error {
	for _, p := range m.Params {
		if _, err := a.table.ResolveType(p.TypeRef); err != nil {
			return err
		}
	}
	if m.ReturnRef != nil {
		if _, err := a.table.ResolveType(m.ReturnRef); err != nil {
			return err
		}
	}
	return nil
}

// nonNarrowing reports whether an override's access right is at least as
// open as the access right of the method it overrides: PUBLIC cannot be
// overridden by PROTECTED/PRIVATE, PROTECTED cannot be overridden by
// PRIVATE.
func nonNarrowing(base, override ast.AccessRight) bool {
	return override <= base
}

// prepareClass implements step 1: idempotent, base-first resolution of the
// base class (with cycle detection via the "being prepared" marker),
// attribute-offset computation, and VMT construction (copy base VMT, then
// replace-or-append each own method).
func (a *Analyzer) prepareClass(c *ast.ClassDeclaration) error {
	if c.Prepared {
		return nil
	}
	if c.Preparing() {
		return cerr.New(cerr.Context, c.Pos(), "circular inheritance involving class %q", c.Name.Name)
	}
	c.SetPreparing(true)
	defer c.SetPreparing(false)

	if c.BaseRef == nil {
		c.BaseRef = ast.NewResolvableIdentifier(ast.Identifier{Name: decl.ObjectClass, Position: c.Pos()})
	}
	base, err := a.table.ResolveType(c.BaseRef)
	if err != nil {
		return err
	}
	if err := a.prepareClass(base); err != nil {
		return err
	}

	offset := base.Size + 1
	for _, attr := range c.Attrs {
		attr.Owner = c
		attr.Offset = offset
		if _, err := a.table.ResolveType(attr.TypeRef); err != nil {
			return err
		}
		offset++
	}
	c.Size = base.Size + len(c.Attrs)

	vmt := append([]*ast.MethodDeclaration{}, base.VMT...)
	for _, m := range c.Methods {
		m.Owner = c
		replaced := false
		for i, bm := range vmt {
			if bm.Name.Name != m.Name.Name {
				continue
			}
			if !ast.Signature(bm, m) {
				return cerr.New(cerr.Context, m.Pos(), "illegal overload of method %q", m.Name.Name)
			}
			if !nonNarrowing(bm.Access, m.Access) {
				return cerr.New(cerr.Context, m.Pos(), "method %q narrows access of overridden method", m.Name.Name)
			}
			vmt[i] = m
			m.VMTIndex = i
			replaced = true
			break
		}
		if !replaced {
			m.VMTIndex = len(vmt)
			vmt = append(vmt, m)
		}
	}
	c.VMT = vmt
	c.Prepared = true
	return nil
}
