// Package parser is a recursive-descent parser over the grammar in the
// language's component design: it builds a Program holding an ordered list
// of ClassDeclarations, wrapping every identifier reference as a
// ResolvableIdentifier for the resolver to fill in later.
package parser

import (
	"github.com/oops-lang/oopsc/internal/ast"
	cerr "github.com/oops-lang/oopsc/internal/errors"
	"github.com/oops-lang/oopsc/internal/lexer"
)

// Parser holds one token of lookahead beyond the current token (cur, peek),
// mirroring the lexer's own one-rune-lookahead discipline one level up.
type Parser struct {
	lex *lexer.Lexer

	cur  lexer.Token
	peek lexer.Token
}

// New creates a Parser and primes its two-token lookahead window.
func New(lex *lexer.Lexer) (*Parser, error) {
	p := &Parser{lex: lex}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// advance shifts peek into cur and scans a new peek token, surfacing lexer
// failures as lexical-kind compiler errors.
func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.lex.NextToken()
	if err != nil {
		if lerr, ok := err.(*lexer.LexerError); ok {
			return cerr.New(cerr.Lexical, lerr.Pos, "%s", lerr.Message)
		}
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) expect(tt lexer.TokenType) error {
	if p.cur.Type != tt {
		return cerr.New(cerr.Syntactic, p.cur.Pos, "expected %s, found %s %q", tt, p.cur.Type, p.cur.Literal)
	}
	return nil
}

func (p *Parser) expectAndAdvance(tt lexer.TokenType) error {
	if err := p.expect(tt); err != nil {
		return err
	}
	return p.advance()
}

func (p *Parser) ident() (ast.Identifier, error) {
	if err := p.expect(lexer.IDENT); err != nil {
		return ast.Identifier{}, err
	}
	id := ast.Identifier{Name: p.cur.Literal, Position: p.cur.Pos}
	return id, p.advance()
}

// ParseProgram parses a full source file: a sequence of class declarations.
// The first call primes the lookahead window (done in New); ParseProgram
// itself loops until EOF.
func ParseProgram(lex *lexer.Lexer) (*ast.Program, error) {
	p, err := New(lex)
	if err != nil {
		return nil, err
	}

	prog := &ast.Program{}
	for p.cur.Type != lexer.EOF {
		class, err := p.parseClassDecl()
		if err != nil {
			return nil, err
		}
		prog.Classes = append(prog.Classes, class)
	}
	return prog, nil
}

func (p *Parser) parseClassDecl() (*ast.ClassDeclaration, error) {
	if err := p.expectAndAdvance(lexer.CLASS); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}

	class := &ast.ClassDeclaration{Name: name, Access: ast.Public}

	if p.cur.Type == lexer.EXTENDS {
		if err := p.advance(); err != nil {
			return nil, err
		}
		baseName, err := p.ident()
		if err != nil {
			return nil, err
		}
		class.BaseRef = ast.NewResolvableIdentifier(baseName)
	}

	if err := p.expectAndAdvance(lexer.IS); err != nil {
		return nil, err
	}

	for p.cur.Type != lexer.END {
		if err := p.parseMemberDecl(class); err != nil {
			return nil, err
		}
	}

	if err := p.expectAndAdvance(lexer.END); err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(lexer.CLASS); err != nil {
		return nil, err
	}
	return class, nil
}

func (p *Parser) parseAccessRight() ast.AccessRight {
	switch p.cur.Type {
	case lexer.PRIVATE:
		return ast.Private
	case lexer.PROTECTED:
		return ast.Protected
	case lexer.PUBLIC:
		return ast.Public
	default:
		return ast.Public
	}
}

func (p *Parser) parseMemberDecl(class *ast.ClassDeclaration) error {
	access := ast.Public
	switch p.cur.Type {
	case lexer.PRIVATE, lexer.PROTECTED, lexer.PUBLIC:
		access = p.parseAccessRight()
		if err := p.advance(); err != nil {
			return err
		}
	}

	if p.cur.Type == lexer.METHOD {
		method, err := p.parseMethodDecl(access, class)
		if err != nil {
			return err
		}
		class.Methods = append(class.Methods, method)
		return nil
	}

	vars, err := p.parseVarDeclGroup(access, true)
	if err != nil {
		return err
	}
	if err := p.expectAndAdvance(lexer.SEMI); err != nil {
		return err
	}
	class.Attrs = append(class.Attrs, vars...)
	return nil
}

// parseVarDeclGroup parses `ident {',' ident} ':' ident`, producing one
// VarDeclaration per name sharing the trailing type reference.
func (p *Parser) parseVarDeclGroup(access ast.AccessRight, isAttribute bool) ([]*ast.VarDeclaration, error) {
	var names []ast.Identifier
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	names = append(names, name)

	for p.cur.Type == lexer.COMMA {
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	if err := p.expectAndAdvance(lexer.COLON); err != nil {
		return nil, err
	}
	typeName, err := p.ident()
	if err != nil {
		return nil, err
	}

	vars := make([]*ast.VarDeclaration, len(names))
	for i, n := range names {
		vars[i] = &ast.VarDeclaration{
			Name:        n,
			TypeRef:     ast.NewResolvableIdentifier(typeName),
			IsAttribute: isAttribute,
			Access:      access,
		}
	}
	return vars, nil
}

func (p *Parser) parseMethodDecl(access ast.AccessRight, owner *ast.ClassDeclaration) (*ast.MethodDeclaration, error) {
	if err := p.expectAndAdvance(lexer.METHOD); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}

	method := &ast.MethodDeclaration{Name: name, Access: access, Owner: owner}

	if p.cur.Type == lexer.LPAREN {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.cur.Type != lexer.RPAREN {
			vars, err := p.parseVarDeclGroup(ast.Public, false)
			if err != nil {
				return nil, err
			}
			method.Params = append(method.Params, vars...)
			if p.cur.Type == lexer.SEMI {
				if err := p.advance(); err != nil {
					return nil, err
				}
			} else {
				break
			}
		}
		if err := p.expectAndAdvance(lexer.RPAREN); err != nil {
			return nil, err
		}
	}

	if p.cur.Type == lexer.COLON {
		if err := p.advance(); err != nil {
			return nil, err
		}
		retName, err := p.ident()
		if err != nil {
			return nil, err
		}
		method.ReturnRef = ast.NewResolvableIdentifier(retName)
	}

	if err := p.expectAndAdvance(lexer.IS); err != nil {
		return nil, err
	}

	for p.cur.Type != lexer.BEGIN {
		vars, err := p.parseVarDeclGroup(ast.Public, false)
		if err != nil {
			return nil, err
		}
		if err := p.expectAndAdvance(lexer.SEMI); err != nil {
			return nil, err
		}
		method.Locals = append(method.Locals, vars...)
	}

	if err := p.expectAndAdvance(lexer.BEGIN); err != nil {
		return nil, err
	}

	stmts, err := p.parseStatements(lexer.END)
	if err != nil {
		return nil, err
	}
	method.Statements = stmts

	if err := p.expectAndAdvance(lexer.END); err != nil {
		return nil, err
	}
	method.EndPosit = p.cur.Pos
	if err := p.expectAndAdvance(lexer.METHOD); err != nil {
		return nil, err
	}

	return method, nil
}
