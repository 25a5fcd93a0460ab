package parser

import (
	"github.com/oops-lang/oopsc/internal/ast"
	"github.com/oops-lang/oopsc/internal/lexer"
)

// statementTerminators are the tokens that end a statement list without
// being consumed by parseStatements itself; the caller decides what to do
// with the terminator.
var statementTerminators = map[lexer.TokenType]bool{
	lexer.END:    true,
	lexer.ELSE:   true,
	lexer.ELSEIF: true,
	lexer.EOF:    true,
}

func (p *Parser) parseStatements(_ ...lexer.TokenType) ([]ast.Statement, error) {
	var stmts []ast.Statement
	for !statementTerminators[p.cur.Type] {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur.Type {
	case lexer.READ:
		return p.parseReadStatement()
	case lexer.WRITE:
		return p.parseWriteStatement()
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.WHILE:
		return p.parseWhileStatement()
	case lexer.RETURN:
		return p.parseReturnStatement()
	default:
		return p.parseAssignOrCallStatement()
	}
}

func (p *Parser) parseReadStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	target, err := p.parseMemberAccess()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.ReadStmt{Position: pos, Target: target}, nil
}

func (p *Parser) parseWriteStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.WriteStmt{Position: pos, Value: value}, nil
}

// parseIfStatement consumes the full `IF ... END IF`. Only this, the
// outermost call, consumes the terminal END IF; parseIfBody's recursive
// descent into a desugared ELSEIF chain never consumes its own END IF (see
// the open-question decision recorded in DESIGN.md).
func (p *Parser) parseIfStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	stmt, err := p.parseIfBody(pos)
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(lexer.END); err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(lexer.IF); err != nil {
		return nil, err
	}
	// A `;` directly after END IF is accepted and skipped.
	if p.cur.Type == lexer.SEMI {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseIfBody(pos lexer.Position) (*ast.IfStmt, error) {
	cond, err := p.parsePred()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(lexer.THEN); err != nil {
		return nil, err
	}
	thenStmts, err := p.parseStatements()
	if err != nil {
		return nil, err
	}

	var elseStmts []ast.Statement
	switch p.cur.Type {
	case lexer.ELSEIF:
		elsePos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		nested, err := p.parseIfBody(elsePos)
		if err != nil {
			return nil, err
		}
		elseStmts = []ast.Statement{nested}
	case lexer.ELSE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		elseStmts, err = p.parseStatements()
		if err != nil {
			return nil, err
		}
	}

	return &ast.IfStmt{Position: pos, Cond: cond, Then: thenStmts, Else: elseStmts}, nil
}

func (p *Parser) parseWhileStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parsePred()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(lexer.DO); err != nil {
		return nil, err
	}
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(lexer.END); err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(lexer.WHILE); err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Position: pos, Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturnStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	var value ast.Expression
	if p.cur.Type != lexer.SEMI {
		v, err := p.parsePred()
		if err != nil {
			return nil, err
		}
		value = v
	}
	if err := p.expectAndAdvance(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Position: pos, Value: value}, nil
}

func (p *Parser) parseAssignOrCallStatement() (ast.Statement, error) {
	pos := p.cur.Pos
	target, err := p.parseMemberAccess()
	if err != nil {
		return nil, err
	}
	if p.cur.Type == lexer.ASSIGN {
		if err := p.advance(); err != nil {
			return nil, err
		}
		value, err := p.parsePred()
		if err != nil {
			return nil, err
		}
		if err := p.expectAndAdvance(lexer.SEMI); err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Position: pos, Target: target, Value: value}, nil
	}
	if err := p.expectAndAdvance(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.CallStmt{Position: pos, Call: target}, nil
}
