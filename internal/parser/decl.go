package parser

import (
	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/convert"
)

var typeKeywords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true, "_Bool": true,
}

var storageClassKeywords = map[string]bool{
	"typedef": true, "extern": true, "static": true, "auto": true, "register": true,
}

// isTypeStart reports whether the current token can begin a declaration's
// specifier list, which the parser needs both to decide statement-vs
// -declaration inside a compound statement and to stop a specifier list.
func (p *Parser) isTypeStart() bool {
	t := p.cur()
	if t.Kind == convert.TokKeyword {
		return typeKeywords[t.Text] || storageClassKeywords[t.Text] ||
			t.Text == "struct" || t.Text == "union" || t.Text == "enum" ||
			t.Text == "const" || t.Text == "volatile" || t.Text == "inline"
	}
	if t.Kind == convert.TokIdent {
		return p.typedefs[t.Text]
	}
	return false
}

// parseSpecifiers consumes a declaration specifier list: storage-class
// keywords, type-qualifiers (dropped per the stripped-early decision),
// basic type keywords, and struct/union/enum specifiers, returning a
// "specifiers" node whose children record each in source order.
func (p *Parser) parseSpecifiers() (*ast.Node, error) {
	pos := p.cur().Pos
	var kids []*ast.Node
	sawType := false
	for {
		t := p.cur()
		if t.Kind == convert.TokKeyword && (t.Text == "const" || t.Text == "volatile") {
			p.advance()
			continue
		}
		if t.Kind == convert.TokKeyword && storageClassKeywords[t.Text] {
			kids = append(kids, ast.New("storage_class", t.Text, t.Pos))
			p.advance()
			continue
		}
		if t.Kind == convert.TokKeyword && t.Text == "inline" {
			p.advance()
			continue
		}
		if t.Kind == convert.TokKeyword && typeKeywords[t.Text] {
			kids = append(kids, ast.New("type_keyword", t.Text, t.Pos))
			p.advance()
			sawType = true
			continue
		}
		if t.Kind == convert.TokKeyword && (t.Text == "struct" || t.Text == "union") {
			n, err := p.parseStructOrUnionSpecifier(t.Text)
			if err != nil {
				return nil, err
			}
			kids = append(kids, n)
			sawType = true
			continue
		}
		if t.Kind == convert.TokKeyword && t.Text == "enum" {
			n, err := p.parseEnumSpecifier()
			if err != nil {
				return nil, err
			}
			kids = append(kids, n)
			sawType = true
			continue
		}
		if !sawType && t.Kind == convert.TokIdent && p.typedefs[t.Text] {
			kids = append(kids, ast.New("typedef_name", t.Text, t.Pos))
			p.advance()
			sawType = true
			continue
		}
		break
	}
	if len(kids) == 0 {
		return nil, p.fail("expected a declaration specifier")
	}
	return ast.New("specifiers", "", pos, kids...), nil
}

func (p *Parser) parseStructOrUnionSpecifier(keyword string) (*ast.Node, error) {
	pos := p.advance().Pos // consume struct/union
	tag := ""
	if p.cur().Kind == convert.TokIdent {
		tag = p.advance().Text
	}
	if !p.isPunct("{") {
		if tag == "" {
			return nil, p.fail("expected a tag or '{' after " + keyword)
		}
		return ast.New(keyword, tag, pos), nil
	}
	p.advance() // '{'
	var fields []*ast.Node
	for !p.isPunct("}") {
		f, err := p.parseFieldDeclaration()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	n := ast.New(keyword, tag, pos, fields...)
	n.IntValue = 1 // marks "has a body" so sema knows to complete rather than merely reference
	return n, nil
}

func (p *Parser) parseFieldDeclaration() (*ast.Node, error) {
	specs, err := p.parseSpecifiers()
	if err != nil {
		return nil, err
	}
	var decls []*ast.Node
	for {
		d, err := p.parseDeclarator(false)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.New("field_decl", "", specs.Pos, append([]*ast.Node{specs}, decls...)...), nil
}

func (p *Parser) parseEnumSpecifier() (*ast.Node, error) {
	pos := p.advance().Pos // consume enum
	tag := ""
	if p.cur().Kind == convert.TokIdent {
		tag = p.advance().Text
	}
	if !p.isPunct("{") {
		if tag == "" {
			return nil, p.fail("expected a tag or '{' after enum")
		}
		return ast.New("enum", tag, pos), nil
	}
	p.advance()
	var enumerators []*ast.Node
	for !p.isPunct("}") {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		var value *ast.Node
		if p.isPunct("=") {
			p.advance()
			value, err = p.parseAssignment()
			if err != nil {
				return nil, err
			}
		}
		kids := []*ast.Node{}
		if value != nil {
			kids = append(kids, value)
		}
		enumerators = append(enumerators, ast.New("enumerator", name.Text, name.Pos, kids...))
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	n := ast.New("enum", tag, pos, enumerators...)
	n.IntValue = 1
	return n, nil
}

// parseDeclarator implements the pointer/direct-declarator/suffix grammar,
// deferring type construction to the semantic generator (see
// internal/sema's resolveDeclarator), which needs the placeholder-mutation
// technique to handle declarators grouped in parentheses (e.g. a pointer
// to a function). abstractOK allows an omitted identifier.
func (p *Parser) parseDeclarator(abstractOK bool) (*ast.Node, error) {
	pos := p.cur().Pos
	var ptrs []*ast.Node
	for p.isPunct("*") {
		p.advance()
		for p.isKeyword("const") || p.isKeyword("volatile") {
			p.advance()
		}
		ptrs = append(ptrs, ast.New("ptr", "", pos))
	}
	ptrList := ast.New("ptrs", "", pos, ptrs...)

	core, err := p.parseDirectDeclaratorCore(abstractOK)
	if err != nil {
		return nil, err
	}

	var suffixes []*ast.Node
	for {
		if p.isPunct("[") {
			p.advance()
			var size *ast.Node
			if !p.isPunct("]") {
				size, err = p.parseAssignment()
				if err != nil {
					return nil, err
				}
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			kids := []*ast.Node{}
			if size != nil {
				kids = append(kids, size)
			}
			suffixes = append(suffixes, ast.New("array", "", pos, kids...))
			continue
		}
		if p.isPunct("(") {
			p.advance()
			params, variadic, err := p.parseParamList()
			if err != nil {
				return nil, err
			}
			n := ast.New("func_params", "", pos, params...)
			if variadic {
				n.Text = "variadic"
			}
			suffixes = append(suffixes, n)
			continue
		}
		break
	}
	suffixList := ast.New("suffixes", "", pos, suffixes...)
	return ast.New("declarator", "", pos, ptrList, core, suffixList), nil
}

func (p *Parser) parseDirectDeclaratorCore(abstractOK bool) (*ast.Node, error) {
	if p.isPunct("(") {
		// Ambiguous with a parameter-list suffix only at the top of a
		// declarator; here we know we're parsing a *core*, so '(' begins a
		// grouped sub-declarator.
		p.advance()
		inner, err := p.parseDeclarator(abstractOK)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return ast.New("paren", "", inner.Pos, inner), nil
	}
	if p.cur().Kind == convert.TokIdent {
		id := p.advance()
		return ast.New("ident", id.Text, id.Pos), nil
	}
	if abstractOK {
		return ast.New("abstract", "", p.cur().Pos), nil
	}
	return nil, p.fail("expected a declarator")
}

// parseParamList parses a function declarator's parameter-type-list,
// already past the opening '('.
func (p *Parser) parseParamList() ([]*ast.Node, bool, error) {
	variadic := false
	var params []*ast.Node
	if p.isPunct(")") {
		p.advance()
		return nil, false, nil
	}
	if p.isKeyword("void") && p.at(1).Kind == convert.TokPunct && p.at(1).Text == ")" {
		p.advance()
		p.advance()
		return nil, false, nil
	}
	for {
		if p.isPunct("...") {
			p.advance()
			variadic = true
			break
		}
		specs, err := p.parseSpecifiers()
		if err != nil {
			return nil, false, err
		}
		decl, err := p.parseDeclarator(true)
		if err != nil {
			return nil, false, err
		}
		params = append(params, ast.New("param", "", specs.Pos, specs, decl))
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, false, err
	}
	return params, variadic, nil
}

// parseExternalDecl parses one top-level declaration or function
// definition, and registers typedef names so later declarator parsing can
// recognize them as type-starters.
func (p *Parser) parseExternalDecl() (*ast.Node, error) {
	specs, err := p.parseSpecifiers()
	if err != nil {
		return nil, err
	}
	if p.isPunct(";") {
		p.advance()
		return ast.New("declaration", "", specs.Pos, specs), nil
	}

	first, err := p.parseDeclarator(false)
	if err != nil {
		return nil, err
	}

	isTypedef := false
	for _, s := range specs.Children {
		if s.Kind == "storage_class" && s.Text == "typedef" {
			isTypedef = true
		}
	}
	if isTypedef {
		p.registerTypedefName(first)
	}

	if p.isPunct("{") {
		body, err := p.parseCompoundStatement()
		if err != nil {
			return nil, err
		}
		return ast.New("function_definition", "", specs.Pos, specs, first, body), nil
	}

	var initDecls []*ast.Node
	init, err := p.parseOptInitializer()
	if err != nil {
		return nil, err
	}
	initDecls = append(initDecls, p.wrapInitDeclarator(first, init))
	for p.isPunct(",") {
		p.advance()
		d, err := p.parseDeclarator(false)
		if err != nil {
			return nil, err
		}
		if isTypedef {
			p.registerTypedefName(d)
		}
		init, err := p.parseOptInitializer()
		if err != nil {
			return nil, err
		}
		initDecls = append(initDecls, p.wrapInitDeclarator(d, init))
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.New("declaration", "", specs.Pos, append([]*ast.Node{specs}, initDecls...)...), nil
}

func (p *Parser) registerTypedefName(decl *ast.Node) {
	core := decl.Child(1)
	for core != nil && core.Kind == "paren" {
		core = core.Child(0).Child(1)
	}
	if core != nil && core.Kind == "ident" {
		p.typedefs[core.Text] = true
	}
}

func (p *Parser) parseOptInitializer() (*ast.Node, error) {
	if !p.isPunct("=") {
		return nil, nil
	}
	p.advance()
	return p.parseInitializer()
}

func (p *Parser) parseInitializer() (*ast.Node, error) {
	if p.isPunct("{") {
		pos := p.advance().Pos
		var elems []*ast.Node
		for !p.isPunct("}") {
			e, err := p.parseInitializer()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		return ast.New("initializer_list", "", pos, elems...), nil
	}
	return p.parseAssignment()
}

func (p *Parser) wrapInitDeclarator(decl, init *ast.Node) *ast.Node {
	kids := []*ast.Node{decl}
	if init != nil {
		kids = append(kids, init)
	}
	return ast.New("init_declarator", "", decl.Pos, kids...)
}

// parseDeclarationStatement parses a declaration appearing inside a
// compound statement body (local variable/typedef declaration).
func (p *Parser) parseDeclarationStatement() (*ast.Node, error) {
	specs, err := p.parseSpecifiers()
	if err != nil {
		return nil, err
	}
	isTypedef := false
	for _, s := range specs.Children {
		if s.Kind == "storage_class" && s.Text == "typedef" {
			isTypedef = true
		}
	}
	var initDecls []*ast.Node
	if !p.isPunct(";") {
		for {
			d, err := p.parseDeclarator(false)
			if err != nil {
				return nil, err
			}
			if isTypedef {
				p.registerTypedefName(d)
			}
			init, err := p.parseOptInitializer()
			if err != nil {
				return nil, err
			}
			initDecls = append(initDecls, p.wrapInitDeclarator(d, init))
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return ast.New("declaration", "", specs.Pos, append([]*ast.Node{specs}, initDecls...)...), nil
}
