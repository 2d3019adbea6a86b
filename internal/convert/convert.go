// Package convert turns the preprocessor's flat pp-token stream into the
// language-token stream the parser consumes: keywords are recognized,
// pp-numbers are classified as integer or floating constants, escape
// sequences in string/char literals are decoded, adjacent string literals
// are concatenated, and whitespace/newline/qualifier tokens are dropped.
package convert

import (
	"strconv"
	"strings"

	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/lexer"
	"github.com/student/nanocc/internal/source"
)

// TokenKind enumerates the language-token categories the parser switches
// on, distinct from lexer.Kind which only models pp-token shape.
type TokenKind int

const (
	TokKeyword TokenKind = iota
	TokIdent
	TokIntConst
	TokFloatConst
	TokStringConst
	TokCharConst
	TokPunct
	TokEOF
)

// keywords is the full reserved-word set the language surface recognizes;
// anything else lexed as an Ident stays an identifier.
var keywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "inline": true, "int": true, "long": true, "register": true,
	"restrict": true, "return": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "struct": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "while": true, "_Bool": true,
}

// Token is one language token, with its raw pp-lexeme retained for
// diagnostics and its decoded/classified value attached where relevant.
type Token struct {
	Kind TokenKind
	Text string
	Pos  source.Pos

	IsUnsigned bool
	IsLong     int // 0, 1 ("L"/"l"), or 2 ("LL"/"ll")
	IntValue   uint64
	FloatValue float64
	StrValue   string // decoded text for StringConst/CharConst
}

// Convert classifies pp the pp-token stream into a flat []Token, stripping
// whitespace and newlines and concatenating adjacent string literals.
func Convert(toks []lexer.Token, fs *source.FileSet) ([]Token, error) {
	var out []Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Kind {
		case lexer.Whitespace, lexer.Newline, lexer.Placemarker:
			continue
		case lexer.EOF:
			out = append(out, Token{Kind: TokEOF, Text: "", Pos: t.Pos})
		case lexer.Ident:
			if t.Text == "const" || t.Text == "volatile" {
				continue
			}
			if keywords[t.Text] {
				out = append(out, Token{Kind: TokKeyword, Text: t.Text, Pos: t.Pos})
			} else {
				out = append(out, Token{Kind: TokIdent, Text: t.Text, Pos: t.Pos})
			}
		case lexer.PPNumber:
			tok, err := classifyNumber(t, fs)
			if err != nil {
				return nil, err
			}
			out = append(out, tok)
		case lexer.StringLit:
			// Concatenate this literal with any immediately following
			// string literals (across whitespace), per §5.1.
			decoded, err := decodeString(t, fs)
			if err != nil {
				return nil, err
			}
			j := i + 1
			for {
				k := j
				for k < len(toks) && (toks[k].Kind == lexer.Whitespace || toks[k].Kind == lexer.Newline) {
					k++
				}
				if k >= len(toks) || toks[k].Kind != lexer.StringLit {
					break
				}
				more, err := decodeString(toks[k], fs)
				if err != nil {
					return nil, err
				}
				decoded += more
				j = k + 1
			}
			out = append(out, Token{Kind: TokStringConst, Text: t.Text, Pos: t.Pos, StrValue: decoded})
			i = j - 1
		case lexer.CharConst:
			decoded, err := decodeCharLiteral(t, fs)
			if err != nil {
				return nil, err
			}
			out = append(out, Token{Kind: TokCharConst, Text: t.Text, Pos: t.Pos, StrValue: decoded})
		case lexer.Punct:
			out = append(out, Token{Kind: TokPunct, Text: t.Text, Pos: t.Pos})
		case lexer.Single:
			return nil, errAt(fs, t.Pos, "stray character '"+t.Text+"' in program")
		}
	}
	return out, nil
}

func errAt(fs *source.FileSet, pos source.Pos, msg string) error {
	return diag.New(diag.StageLex, diag.CodeExpected, diag.Span{
		Filename: fs.Path(pos.File), Line: pos.Line, Column: pos.Column,
	}, msg)
}

// classifyNumber splits a pp-number into its digits and suffix, decides
// integer vs. floating per the presence of '.', 'e'/'E' (without a leading
// 0x), or 'p'/'P' (hex float), and parses accordingly.
func classifyNumber(t lexer.Token, fs *source.FileSet) (Token, error) {
	text := t.Text
	isHex := strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X")
	isFloat := false
	if strings.ContainsAny(text, ".") {
		isFloat = true
	}
	if isHex {
		if strings.ContainsAny(text, "pP") {
			isFloat = true
		}
	} else if strings.ContainsAny(text, "eE") {
		isFloat = true
	}

	if isFloat {
		end := len(text)
		for end > 0 && (text[end-1] == 'f' || text[end-1] == 'F' || text[end-1] == 'l' || text[end-1] == 'L') {
			end--
		}
		v, err := strconv.ParseFloat(text[:end], 64)
		if err != nil {
			return Token{}, errAt(fs, t.Pos, "malformed floating constant \""+text+"\"")
		}
		return Token{Kind: TokFloatConst, Text: text, Pos: t.Pos, FloatValue: v}, nil
	}

	end := len(text)
	unsigned := false
	long := 0
	for end > 0 {
		c := text[end-1]
		if c == 'u' || c == 'U' {
			unsigned = true
			end--
		} else if c == 'l' || c == 'L' {
			long++
			end--
		} else {
			break
		}
	}
	digits := text[:end]
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base = 16
		digits = digits[2:]
	} else if len(digits) > 1 && digits[0] == '0' {
		base = 8
		digits = digits[1:]
	}
	if digits == "" {
		digits = "0"
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return Token{}, errAt(fs, t.Pos, "malformed integer constant \""+text+"\"")
	}
	if long > 2 {
		long = 2
	}
	return Token{Kind: TokIntConst, Text: text, Pos: t.Pos, IsUnsigned: unsigned, IsLong: long, IntValue: v}, nil
}

func decodeString(t lexer.Token, fs *source.FileSet) (string, error) {
	inner := t.Text
	if len(inner) < 2 {
		return "", errAt(fs, t.Pos, "malformed string literal")
	}
	return decodeEscapes(inner[1:len(inner)-1], t, fs)
}

func decodeCharLiteral(t lexer.Token, fs *source.FileSet) (string, error) {
	inner := t.Text
	if len(inner) < 2 {
		return "", errAt(fs, t.Pos, "malformed character constant")
	}
	return decodeEscapes(inner[1:len(inner)-1], t, fs)
}

// decodeEscapes decodes the standard C backslash escapes; an unrecognized
// escape passes its character through unchanged rather than erroring, which
// matches a permissive single-translation-unit front end more than a strict
// conforming one.
func decodeEscapes(s string, t lexer.Token, fs *source.FileSet) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case 'a':
			b.WriteByte(7)
		case 'b':
			b.WriteByte(8)
		case 'f':
			b.WriteByte(12)
		case 'v':
			b.WriteByte(11)
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case '"':
			b.WriteByte('"')
		case 'x':
			j := i + 1
			for j < len(s) && isHexDigit(s[j]) {
				j++
			}
			if j == i+1 {
				return "", errAt(fs, t.Pos, "\\x used with no following hex digits")
			}
			v, _ := strconv.ParseUint(s[i+1:j], 16, 8)
			b.WriteByte(byte(v))
			i = j - 1
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
