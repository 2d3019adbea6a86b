// Package parser implements a recursive-descent, backtracking parser that
// turns the converted language-token stream into a uniform ast.Node tree.
package parser

import (
	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/convert"
	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/source"
)

// Parser holds the token cursor, the file set (for error rendering), and
// the set of names currently known as typedefs, which the declarator
// grammar needs to disambiguate a type-starter from an ordinary
// identifier.
type Parser struct {
	toks     []convert.Token
	pos      int
	fs       *source.FileSet
	typedefs map[string]bool
	maxErr   *parseError
}

// parseError tracks a failed alternative; the alternator `or` keeps the one
// with the maximally advanced location across all attempts, per §4.4.
type parseError struct {
	pos source.Pos
	msg string
}

// New creates a Parser over a converted token stream.
func New(toks []convert.Token, fs *source.FileSet) *Parser {
	return &Parser{toks: toks, fs: fs, typedefs: map[string]bool{}}
}

func (p *Parser) cur() convert.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return convert.Token{Kind: convert.TokEOF}
}

func (p *Parser) at(i int) convert.Token {
	if p.pos+i < len(p.toks) {
		return p.toks[p.pos+i]
	}
	return convert.Token{Kind: convert.TokEOF}
}

func (p *Parser) advance() convert.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) mark() int { return p.pos }
func (p *Parser) reset(m int) { p.pos = m }

func (p *Parser) fail(msg string) error {
	pos := p.cur().Pos
	if p.maxErr == nil || p.maxErr.pos.Less(pos) {
		p.maxErr = &parseError{pos: pos, msg: msg}
	}
	return diag.New(diag.StageParse, diag.CodeExpected, p.span(pos), msg)
}

func (p *Parser) span(pos source.Pos) diag.Span {
	filename := ""
	if p.fs != nil {
		filename = p.fs.Path(pos.File)
	}
	return diag.Span{Filename: filename, Line: pos.Line, Column: pos.Column}
}

// finalError reports the parse error with the maximally advanced location
// seen across every backtracked alternative, as §4.4 requires.
func (p *Parser) finalError() error {
	if p.maxErr == nil {
		return p.fail("unexpected end of input")
	}
	return diag.New(diag.StageParse, diag.CodeExpected, p.span(p.maxErr.pos), p.maxErr.msg)
}

func (p *Parser) isKeyword(text string) bool {
	t := p.cur()
	return t.Kind == convert.TokKeyword && t.Text == text
}

func (p *Parser) isPunct(text string) bool {
	t := p.cur()
	return t.Kind == convert.TokPunct && t.Text == text
}

func (p *Parser) expectPunct(text string) (convert.Token, error) {
	if p.isPunct(text) {
		return p.advance(), nil
	}
	return convert.Token{}, p.fail("expected '" + text + "'")
}

func (p *Parser) expectKeyword(text string) (convert.Token, error) {
	if p.isKeyword(text) {
		return p.advance(), nil
	}
	return convert.Token{}, p.fail("expected '" + text + "'")
}

func (p *Parser) expectIdent() (convert.Token, error) {
	if p.cur().Kind == convert.TokIdent {
		return p.advance(), nil
	}
	return convert.Token{}, p.fail("expected an identifier")
}

// or tries each alternative in turn, restoring the cursor between
// attempts, and returns the first that succeeds. On total failure it
// returns the accumulated maximally-advanced error.
func or(p *Parser, alts ...func() (*ast.Node, error)) (*ast.Node, error) {
	start := p.mark()
	for _, alt := range alts {
		p.reset(start)
		n, err := alt()
		if err == nil {
			return n, nil
		}
	}
	p.reset(start)
	return nil, p.finalError()
}

// opt runs alt; on failure it restores the cursor and reports success with
// a childless placeholder node, matching the "empty-children placeholder"
// shape §4.4 specifies.
func opt(p *Parser, kind string, alt func() (*ast.Node, error)) *ast.Node {
	start := p.mark()
	n, err := alt()
	if err != nil {
		p.reset(start)
		return ast.New(kind, "", p.cur().Pos)
	}
	return n
}

// Parse parses the whole token stream as a translation unit: a sequence of
// top-level declarations and function definitions.
func (p *Parser) Parse() (*ast.Node, error) {
	pos := p.cur().Pos
	var decls []*ast.Node
	for p.cur().Kind != convert.TokEOF {
		d, err := p.parseExternalDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return ast.New("translation_unit", "", pos, decls...), nil
}
