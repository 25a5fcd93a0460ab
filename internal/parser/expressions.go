package parser

import (
	"github.com/oops-lang/oopsc/internal/ast"
	"github.com/oops-lang/oopsc/internal/lexer"
)

// parsePred is the entry point for any expression context that allows the
// full predicate grammar (conditions, RETURN values, call/index arguments).
func (p *Parser) parsePred() (ast.Expression, error) {
	left, err := p.parseConjSC()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.ORELSE {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseConjSC()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(pos, ast.OpOrElse, left, right)
	}
	return left, nil
}

func (p *Parser) parseConjSC() (ast.Expression, error) {
	left, err := p.parsePredBool()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.ANDTHEN {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePredBool()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(pos, ast.OpAndThen, left, right)
	}
	return left, nil
}

func (p *Parser) parsePredBool() (ast.Expression, error) {
	left, err := p.parseConj()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.OR {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseConj()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(pos, ast.OpOr, left, right)
	}
	return left, nil
}

func (p *Parser) parseConj() (ast.Expression, error) {
	left, err := p.parseRelation()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.AND {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseRelation()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(pos, ast.OpAnd, left, right)
	}
	return left, nil
}

var relOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.EQ:  ast.OpEq,
	lexer.NEQ: ast.OpNeq,
	lexer.LT:  ast.OpLt,
	lexer.GT:  ast.OpGt,
	lexer.LE:  ast.OpLe,
	lexer.GE:  ast.OpGe,
}

func (p *Parser) parseRelation() (ast.Expression, error) {
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if op, ok := relOps[p.cur.Type]; ok {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryExpr(pos, op, left, right), nil
	}
	return left, nil
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.PLUS || p.cur.Type == lexer.MINUS {
		op := ast.OpAdd
		if p.cur.Type == lexer.MINUS {
			op = ast.OpSub
		}
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(pos, op, left, right)
	}
	return left, nil
}

func (p *Parser) parseTerm() (ast.Expression, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.STAR || p.cur.Type == lexer.SLASH || p.cur.Type == lexer.MOD {
		var op ast.BinaryOp
		switch p.cur.Type {
		case lexer.STAR:
			op = ast.OpMul
		case lexer.SLASH:
			op = ast.OpDiv
		case lexer.MOD:
			op = ast.OpMod
		}
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(pos, op, left, right)
	}
	return left, nil
}

func (p *Parser) parseFactor() (ast.Expression, error) {
	switch p.cur.Type {
	case lexer.MINUS:
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpr(pos, ast.OpNeg, operand), nil
	case lexer.NOT:
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpr(pos, ast.OpNot, operand), nil
	default:
		return p.parseMemberAccess()
	}
}

func (p *Parser) parseMemberAccess() (ast.Expression, error) {
	left, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.DOT {
		pos := p.cur.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseVarOrCall()
		if err != nil {
			return nil, err
		}
		left = ast.NewAccessExpr(pos, left, right)
	}
	return left, nil
}

func (p *Parser) parseVarOrCall() (*ast.VarOrCall, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	voc := ast.NewVarOrCall(name.Position, ast.NewResolvableIdentifier(name))
	if p.cur.Type == lexer.LPAREN {
		voc.HasCall = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.cur.Type != lexer.RPAREN {
			arg, err := p.parsePred()
			if err != nil {
				return nil, err
			}
			voc.Args = append(voc.Args, arg)
			if p.cur.Type == lexer.COMMA {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
		if err := p.expectAndAdvance(lexer.RPAREN); err != nil {
			return nil, err
		}
	}
	return voc, nil
}

func (p *Parser) parseLiteral() (ast.Expression, error) {
	pos := p.cur.Pos
	switch p.cur.Type {
	case lexer.INT:
		v := p.cur.IntVal
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewIntegerLiteral(pos, v), nil
	case lexer.CHAR:
		v := p.cur.IntVal
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewIntegerLiteral(pos, v), nil
	case lexer.NULL:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewNullLiteral(pos), nil
	case lexer.SELF:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewSelfExpr(pos), nil
	case lexer.BASE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewBaseExpr(pos), nil
	case lexer.TRUE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewBooleanLiteral(pos, true), nil
	case lexer.FALSE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewBooleanLiteral(pos, false), nil
	case lexer.NEW:
		if err := p.advance(); err != nil {
			return nil, err
		}
		typeName, err := p.ident()
		if err != nil {
			return nil, err
		}
		return ast.NewNewExpr(pos, ast.NewResolvableIdentifier(typeName)), nil
	case lexer.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parsePred()
		if err != nil {
			return nil, err
		}
		if err := p.expectAndAdvance(lexer.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case lexer.IDENT:
		return p.parseVarOrCall()
	default:
		return nil, p.expect(lexer.IDENT)
	}
}
