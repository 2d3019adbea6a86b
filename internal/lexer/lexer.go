package lexer

import (
	"strings"

	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/source"
)

// punctuators is tried longest-match-first.
var punctuators = []string{
	"...", "<<=", ">>=",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=",
	"&&", "||", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "##",
	"(", ")", "{", "}", "[", "]", ",", ";", ":", "?",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "!", "<", ">", "=", ".", "#",
}

// Lexer tokenizes one file's bytes into a pp-token list.
type Lexer struct {
	fs     *source.FileSet
	file   source.Index
	src    []byte
	pos    int
	line   int
	column int
}

// New creates a Lexer over the bytes already loaded into fs at file.
func New(fs *source.FileSet, file source.Index) *Lexer {
	return &Lexer{fs: fs, file: file, src: fs.Bytes(file), line: 1, column: 1}
}

func (l *Lexer) here() source.Pos {
	return source.Pos{File: l.file, Line: l.line, Column: l.column}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

// Lex tokenizes the entire file and returns the resulting pp-token list,
// terminated by a single EOF token. Whitespace (but not newlines) collapses
// into single Whitespace tokens; both are retained because the preprocessor
// needs newlines to delimit logical lines and needs whitespace to decide
// whether `(` immediately follows a macro name.
func (l *Lexer) Lex() (*List, error) {
	out := NewList()
	for l.pos < len(l.src) {
		start := l.here()
		c := l.peek()

		switch {
		case c == '\n':
			l.advance()
			out.PushBack(Token{Kind: Newline, Text: "\n", Pos: start})

		case c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f':
			for {
				c = l.peek()
				if c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f' {
					l.advance()
					continue
				}
				break
			}
			out.PushBack(Token{Kind: Whitespace, Text: " ", Pos: start})

		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
			out.PushBack(Token{Kind: Whitespace, Text: " ", Pos: start})

		case c == '/' && l.peekAt(1) == '*':
			if err := l.skipBlockComment(); err != nil {
				return nil, err
			}
			out.PushBack(Token{Kind: Whitespace, Text: " ", Pos: start})

		case isIdentStart(c):
			text := l.lexIdent()
			out.PushBack(Token{Kind: Ident, Text: text, Pos: start})

		case isDigit(c) || (c == '.' && isDigit(l.peekAt(1))):
			text := l.lexPPNumber()
			out.PushBack(Token{Kind: PPNumber, Text: text, Pos: start})

		case c == '"':
			text, err := l.lexQuoted('"')
			if err != nil {
				return nil, err
			}
			out.PushBack(Token{Kind: StringLit, Text: text, Pos: start})

		case c == '\'':
			text, err := l.lexQuoted('\'')
			if err != nil {
				return nil, err
			}
			if len(text) <= 2 {
				return nil, l.err(diag.CodeEmptyCharConstant, start, "empty character constant")
			}
			out.PushBack(Token{Kind: CharConst, Text: text, Pos: start})

		default:
			if p, ok := l.matchPunct(); ok {
				out.PushBack(Token{Kind: Punct, Text: p, Pos: start})
			} else {
				l.advance()
				out.PushBack(Token{Kind: Single, Text: string(c), Pos: start})
			}
		}
	}
	out.PushBack(Token{Kind: EOF, Text: "", Pos: l.here()})
	return out, nil
}

func (l *Lexer) err(code diag.Code, pos source.Pos, msg string) error {
	return diag.New(diag.StageLex, code, diag.Span{
		Filename: l.fs.Path(pos.File),
		Line:     pos.Line,
		Column:   pos.Column,
	}, msg)
}

func (l *Lexer) skipBlockComment() error {
	start := l.here()
	l.advance() // /
	l.advance() // *
	for {
		if l.pos >= len(l.src) {
			return l.err(diag.CodeUnterminatedComment, start, "unterminated block comment")
		}
		if l.peek() == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *Lexer) lexIdent() string {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.advance()
	}
	return string(l.src[start:l.pos])
}

// lexPPNumber implements the standard pp-number grammar: a digit or
// '.digit', followed by any run of digits, identifier characters, '.', or
// an exponent sign immediately following e/E/p/P. The token converter later
// classifies the result as an integer or floating constant.
func (l *Lexer) lexPPNumber() string {
	start := l.pos
	l.advance()
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if (c == 'e' || c == 'E' || c == 'p' || c == 'P') &&
			(l.peekAt(1) == '+' || l.peekAt(1) == '-') {
			l.advance()
			l.advance()
			continue
		}
		if isIdentCont(c) || c == '.' {
			l.advance()
			continue
		}
		break
	}
	return string(l.src[start:l.pos])
}

func (l *Lexer) lexQuoted(q byte) (string, error) {
	start := l.here()
	var b strings.Builder
	b.WriteByte(q)
	l.advance()
	for {
		if l.pos >= len(l.src) {
			code := diag.CodeUnterminatedString
			if q == '\'' {
				code = diag.CodeUnterminatedChar
			}
			return "", l.err(code, start, "unterminated literal")
		}
		c := l.peek()
		if c == '\n' {
			code := diag.CodeUnterminatedString
			if q == '\'' {
				code = diag.CodeUnterminatedChar
			}
			return "", l.err(code, start, "unterminated literal")
		}
		if c == '\\' {
			b.WriteByte(l.advance())
			if l.pos < len(l.src) {
				b.WriteByte(l.advance())
			}
			continue
		}
		if c == q {
			b.WriteByte(l.advance())
			break
		}
		b.WriteByte(l.advance())
	}
	return b.String(), nil
}

func (l *Lexer) matchPunct() (string, bool) {
	rest := l.src[l.pos:]
	for _, p := range punctuators {
		if len(rest) >= len(p) && string(rest[:len(p)]) == p {
			for i := 0; i < len(p); i++ {
				l.advance()
			}
			return p, true
		}
	}
	return "", false
}
