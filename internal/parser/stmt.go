package parser

import (
	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/convert"
)

func (p *Parser) parseCompoundStatement() (*ast.Node, error) {
	open, err := p.expectPunct("{")
	if err != nil {
		return nil, err
	}
	var items []*ast.Node
	for !p.isPunct("}") {
		if p.cur().Kind == convert.TokEOF {
			return nil, p.fail("expected '}'")
		}
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return ast.New("compound_statement", "", open.Pos, items...), nil
}

func (p *Parser) parseBlockItem() (*ast.Node, error) {
	if p.isTypeStart() {
		return p.parseDeclarationStatement()
	}
	return p.parseStatement()
}

func (p *Parser) parseStatement() (*ast.Node, error) {
	t := p.cur()
	if t.Kind == convert.TokPunct && t.Text == "{" {
		return p.parseCompoundStatement()
	}
	if t.Kind == convert.TokIdent && p.at(1).Kind == convert.TokPunct && p.at(1).Text == ":" {
		name := p.advance()
		p.advance()
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return ast.New("label", name.Text, name.Pos, stmt), nil
	}
	if t.Kind == convert.TokKeyword {
		switch t.Text {
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "do":
			return p.parseDoWhile()
		case "for":
			return p.parseFor()
		case "switch":
			return p.parseSwitch()
		case "case":
			return p.parseCase()
		case "default":
			return p.parseDefault()
		case "return":
			return p.parseReturn()
		case "break":
			p.advance()
			if _, err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			return ast.New("break", "", t.Pos), nil
		case "continue":
			p.advance()
			if _, err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			return ast.New("continue", "", t.Pos), nil
		case "goto":
			p.advance()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			return ast.New("goto", name.Text, t.Pos), nil
		}
	}
	if t.Kind == convert.TokPunct && t.Text == ";" {
		p.advance()
		return ast.New("exp_statement", "", t.Pos), nil
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.New("exp_statement", "", expr.Pos, expr), nil
}

func (p *Parser) parseIf() (*ast.Node, error) {
	pos := p.advance().Pos
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("else") {
		p.advance()
		els, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return ast.New("if", "", pos, cond, then, els), nil
	}
	return ast.New("if", "", pos, cond, then), nil
}

func (p *Parser) parseWhile() (*ast.Node, error) {
	pos := p.advance().Pos
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.New("while", "", pos, cond, body), nil
}

func (p *Parser) parseDoWhile() (*ast.Node, error) {
	pos := p.advance().Pos
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("while"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.New("do_while", "", pos, body, cond), nil
}

func (p *Parser) parseFor() (*ast.Node, error) {
	pos := p.advance().Pos
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var init *ast.Node
	var err error
	if p.isPunct(";") {
		init = ast.New("empty", "", p.cur().Pos)
		p.advance()
	} else if p.isTypeStart() {
		init, err = p.parseDeclarationStatement()
		if err != nil {
			return nil, err
		}
	} else {
		init, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
	}
	var cond *ast.Node
	if p.isPunct(";") {
		cond = ast.New("empty", "", p.cur().Pos)
	} else {
		cond, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	var step *ast.Node
	if p.isPunct(")") {
		step = ast.New("empty", "", p.cur().Pos)
	} else {
		step, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.New("for", "", pos, init, cond, step, body), nil
}

func (p *Parser) parseSwitch() (*ast.Node, error) {
	pos := p.advance().Pos
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.New("switch", "", pos, expr, body), nil
}

func (p *Parser) parseCase() (*ast.Node, error) {
	pos := p.advance().Pos
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.New("case", "", pos, expr, stmt), nil
}

func (p *Parser) parseDefault() (*ast.Node, error) {
	pos := p.advance().Pos
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.New("default", "", pos, stmt), nil
}

func (p *Parser) parseReturn() (*ast.Node, error) {
	pos := p.advance().Pos
	if p.isPunct(";") {
		p.advance()
		return ast.New("return", "", pos), nil
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.New("return", "", pos, expr), nil
}
