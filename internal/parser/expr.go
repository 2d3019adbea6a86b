package parser

import (
	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/convert"
)

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
}

// parseExpression parses the comma operator, the widest expression form,
// used wherever a full expression (not just an assignment-expression) is
// syntactically valid.
func (p *Parser) parseExpression() (*ast.Node, error) {
	left, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	for p.isPunct(",") {
		op := p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		left = ast.New(",", "", op.Pos, left, right)
	}
	return left, nil
}

// parseAssignment parses a right-associative assignment-expression, falling
// back to the conditional-expression level when no assignment operator
// follows.
func (p *Parser) parseAssignment() (*ast.Node, error) {
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	t := p.cur()
	if t.Kind == convert.TokPunct && assignOps[t.Text] {
		p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return ast.New(t.Text, "", t.Pos, left, right), nil
	}
	return left, nil
}

func (p *Parser) parseConditional() (*ast.Node, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.isPunct("?") {
		pos := p.advance().Pos
		then, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		els, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		return ast.New("?:", "", pos, cond, then, els), nil
	}
	return cond, nil
}

func (p *Parser) binaryLevel(next func() (*ast.Node, error), ops ...string) func() (*ast.Node, error) {
	return func() (*ast.Node, error) {
		left, err := next()
		if err != nil {
			return nil, err
		}
		for {
			t := p.cur()
			matched := false
			if t.Kind == convert.TokPunct {
				for _, op := range ops {
					if t.Text == op {
						matched = true
						break
					}
				}
			}
			if !matched {
				return left, nil
			}
			p.advance()
			right, err := next()
			if err != nil {
				return nil, err
			}
			left = ast.New(t.Text, "", t.Pos, left, right)
		}
	}
}

func (p *Parser) parseLogicalOr() (*ast.Node, error) { return p.binaryLevel(p.parseLogicalAnd, "||")() }
func (p *Parser) parseLogicalAnd() (*ast.Node, error) { return p.binaryLevel(p.parseBitOr, "&&")() }
func (p *Parser) parseBitOr() (*ast.Node, error)      { return p.binaryLevel(p.parseBitXor, "|")() }
func (p *Parser) parseBitXor() (*ast.Node, error)     { return p.binaryLevel(p.parseBitAnd, "^")() }
func (p *Parser) parseBitAnd() (*ast.Node, error)     { return p.binaryLevel(p.parseEquality, "&")() }
func (p *Parser) parseEquality() (*ast.Node, error) {
	return p.binaryLevel(p.parseRelational, "==", "!=")()
}
func (p *Parser) parseRelational() (*ast.Node, error) {
	return p.binaryLevel(p.parseShift, "<", ">", "<=", ">=")()
}
func (p *Parser) parseShift() (*ast.Node, error) {
	return p.binaryLevel(p.parseAdditive, "<<", ">>")()
}
func (p *Parser) parseAdditive() (*ast.Node, error) {
	return p.binaryLevel(p.parseMultiplicative, "+", "-")()
}
func (p *Parser) parseMultiplicative() (*ast.Node, error) {
	return p.binaryLevel(p.parseCast, "*", "/", "%")()
}

// parseCast resolves the classic '(' ambiguity: a parenthesized type-name
// followed by a cast-expression, versus an ordinary parenthesized
// expression, by checking whether the token right after '(' can start a
// declaration specifier list.
func (p *Parser) parseCast() (*ast.Node, error) {
	if p.isPunct("(") {
		start := p.mark()
		p.advance()
		if p.isTypeStart() {
			tn, err := p.parseTypeName()
			if err == nil {
				if _, err := p.expectPunct(")"); err == nil {
					operand, err := p.parseCast()
					if err == nil {
						return ast.New("cast", "", tn.Pos, tn, operand), nil
					}
				}
			}
		}
		p.reset(start)
	}
	return p.parseUnary()
}

func (p *Parser) parseTypeName() (*ast.Node, error) {
	specs, err := p.parseSpecifiers()
	if err != nil {
		return nil, err
	}
	decl, err := p.parseDeclarator(true)
	if err != nil {
		return nil, err
	}
	return ast.New("type_name", "", specs.Pos, specs, decl), nil
}

var unaryOps = map[string]bool{
	"+": true, "-": true, "!": true, "~": true, "*": true, "&": true,
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	t := p.cur()
	if t.Kind == convert.TokPunct && (t.Text == "++" || t.Text == "--") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.New("pre"+t.Text, "", t.Pos, operand), nil
	}
	if t.Kind == convert.TokPunct && unaryOps[t.Text] {
		p.advance()
		operand, err := p.parseCast()
		if err != nil {
			return nil, err
		}
		return ast.New(t.Text, "unary", t.Pos, operand), nil
	}
	if t.Kind == convert.TokKeyword && t.Text == "sizeof" {
		p.advance()
		if p.isPunct("(") {
			start := p.mark()
			p.advance()
			if p.isTypeStart() {
				tn, err := p.parseTypeName()
				if err == nil {
					if _, err := p.expectPunct(")"); err == nil {
						return ast.New("sizeof_type", "", t.Pos, tn), nil
					}
				}
			}
			p.reset(start)
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.New("sizeof_expr", "", t.Pos, operand), nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (*ast.Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if t.Kind != convert.TokPunct {
			return node, nil
		}
		switch t.Text {
		case "[":
			p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			node = ast.New("index", "", t.Pos, node, idx)
		case "(":
			p.advance()
			var args []*ast.Node
			if !p.isPunct(")") {
				for {
					a, err := p.parseAssignment()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if p.isPunct(",") {
						p.advance()
						continue
					}
					break
				}
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			node = ast.New("call", "", t.Pos, append([]*ast.Node{node}, args...)...)
		case ".":
			p.advance()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			node = ast.New(".", name.Text, t.Pos, node)
		case "->":
			p.advance()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			node = ast.New("->", name.Text, t.Pos, node)
		case "++", "--":
			p.advance()
			node = ast.New("post"+t.Text, "", t.Pos, node)
		default:
			return node, nil
		}
	}
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	t := p.cur()
	switch t.Kind {
	case convert.TokIntConst:
		p.advance()
		n := ast.New("int_const", t.Text, t.Pos)
		n.IntValue = t.IntValue
		n.IsUnsigned = t.IsUnsigned
		n.IsLong = t.IsLong
		return n, nil
	case convert.TokFloatConst:
		p.advance()
		n := ast.New("float_const", t.Text, t.Pos)
		n.FloatValue = t.FloatValue
		return n, nil
	case convert.TokStringConst:
		p.advance()
		n := ast.New("string_const", t.Text, t.Pos)
		n.StrValue = t.StrValue
		return n, nil
	case convert.TokCharConst:
		p.advance()
		n := ast.New("char_const", t.Text, t.Pos)
		n.StrValue = t.StrValue
		if len(t.StrValue) > 0 {
			n.IntValue = uint64(t.StrValue[0])
		}
		return n, nil
	case convert.TokIdent:
		p.advance()
		return ast.New("ident", t.Text, t.Pos), nil
	case convert.TokPunct:
		if t.Text == "(" {
			p.advance()
			inner, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
	}
	return nil, p.fail("expected an expression")
}
