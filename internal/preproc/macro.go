package preproc

import (
	"strings"

	"github.com/student/nanocc/internal/lexer"
)

// Macro records a #define'd name: whether it's function-like, its ordered
// parameter list, and its replacement-token sequence stored as-is
// (whitespace tokens are kept; substitution skips them when looking for
// `#`/`##` operands, and the redefinition check ignores them).
type Macro struct {
	Name         string
	FunctionLike bool
	Params       []string
	paramIndex   map[string]int
	Replacement  []lexer.Token
	// Builtin, when non-nil, computes the macro's single replacement token
	// at the point of use (used for __LINE__/__FILE__/__DATE__/__TIME__,
	// whose value depends on the expansion site, not the definition site).
	Builtin func(use lexer.Token) lexer.Token
}

func newMacro(name string, functionLike bool, params []string, replacement []lexer.Token) *Macro {
	idx := make(map[string]int, len(params))
	for i, p := range params {
		idx[p] = i
	}
	return &Macro{Name: name, FunctionLike: functionLike, Params: params, paramIndex: idx, Replacement: replacement}
}

func (m *Macro) isParam(name string) (int, bool) {
	i, ok := m.paramIndex[name]
	return i, ok
}

// sameDefinition reports whether two macro definitions are identical
// (benign redefinition), per the original compiler's redefinition check
// (see SPEC_FULL §10): same function-like-ness, same parameter names, and
// token-for-token identical replacement lists (ignoring position and
// hide-set, comparing only kind and text).
func (m *Macro) sameDefinition(o *Macro) bool {
	if m.FunctionLike != o.FunctionLike || len(m.Params) != len(o.Params) {
		return false
	}
	for i := range m.Params {
		if m.Params[i] != o.Params[i] {
			return false
		}
	}
	a := stripWhitespace(m.Replacement)
	b := stripWhitespace(o.Replacement)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Text != b[i].Text {
			return false
		}
	}
	return true
}

func stripWhitespace(toks []lexer.Token) []lexer.Token {
	out := make([]lexer.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind == lexer.Whitespace || t.Kind == lexer.Newline {
			continue
		}
		out = append(out, t)
	}
	return out
}

// stringize implements the `#` operator: concatenate the lexemes of an
// unexpanded actual argument, collapsing any run of whitespace between two
// kept tokens to a single space, and escaping backslash and double-quote
// inside character/string literal tokens, wrapped in quotes.
func stringize(args []lexer.Token) string {
	var b strings.Builder
	b.WriteByte('"')
	needSpace := false
	wroteAny := false
	for _, t := range args {
		if t.Kind == lexer.Whitespace || t.Kind == lexer.Newline {
			if wroteAny {
				needSpace = true
			}
			continue
		}
		if t.Kind == lexer.Placemarker {
			continue
		}
		if needSpace && wroteAny {
			b.WriteByte(' ')
		}
		needSpace = false
		if t.Kind == lexer.StringLit || t.Kind == lexer.CharConst {
			for i := 0; i < len(t.Text); i++ {
				c := t.Text[i]
				if c == '\\' || c == '"' {
					b.WriteByte('\\')
				}
				b.WriteByte(c)
			}
		} else {
			b.WriteString(t.Text)
		}
		wroteAny = true
	}
	b.WriteByte('"')
	return b.String()
}

// glue implements the `##` operator between two lexemes: concatenate their
// text and reclassify with the pp-token lexer. If the concatenation does not
// form a single valid pp-token, the two tokens are kept side by side (a
// permissive fallback; the standard leaves this case undefined).
func glue(a, b lexer.Token) []lexer.Token {
	if a.Kind == lexer.Placemarker {
		return []lexer.Token{b}
	}
	if b.Kind == lexer.Placemarker {
		return []lexer.Token{a}
	}
	combined := a.Text + b.Text
	if tok, ok := reLexOne(combined); ok {
		tok.Pos = a.Pos
		tok.Hide = a.Hide.Intersect(b.Hide)
		return []lexer.Token{tok}
	}
	return []lexer.Token{a, b}
}

// reLexOne lexes text in isolation and reports whether it forms exactly one
// pp-token (other than EOF), which is how glue() reclassifies a paste.
func reLexOne(text string) (lexer.Token, bool) {
	toks, err := lexBareString(text)
	if err != nil {
		return lexer.Token{}, false
	}
	toks = stripEOF(toks)
	if len(toks) != 1 {
		return lexer.Token{}, false
	}
	return toks[0], true
}
