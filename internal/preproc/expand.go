package preproc

import (
	"container/list"

	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/lexer"
	"github.com/student/nanocc/internal/source"
)

// expandAt attempts to expand the macro invocation starting at cursor. It
// returns the element to resume scanning from and whether an expansion
// actually happened (a function-like macro name not followed by '(' is left
// untouched, per the standard).
func (p *Preprocessor) expandAt(lst *lexer.List, cursor *list.Element, m *Macro) (*list.Element, bool, error) {
	tok := lexer.At(cursor)

	if m.Builtin != nil {
		repl := m.Builtin(tok)
		lexer.Set(cursor, repl)
		return cursor.Next(), true, nil
	}

	if !m.FunctionLike {
		hs := tok.Hide.With(m.Name)
		out := p.substitute(m.Replacement, m, nil, hs)
		after := cursor.Next()
		lst.Remove(cursor)
		first := insertSeq(lst, out, after)
		if first == nil {
			return after, true, nil
		}
		return first, true, nil
	}

	// Function-like: look ahead (skipping whitespace/newlines) for '('.
	p2 := cursor.Next()
	for p2 != nil && (lexer.At(p2).Kind == lexer.Whitespace || lexer.At(p2).Kind == lexer.Newline) {
		p2 = p2.Next()
	}
	if p2 == nil || !lexer.At(p2).IsPunct("(") {
		return cursor.Next(), false, nil
	}

	args, closeParen, err := collectArgs(p2)
	if err != nil {
		return nil, false, err
	}
	if len(m.Params) == 0 {
		if !(len(args) == 0 || (len(args) == 1 && len(stripWhitespace(args[0])) == 0)) {
			return nil, false, p.errAt(tok.Pos, diag.CodeMacroArgCount, "macro \""+m.Name+"\" passed arguments but takes none")
		}
		args = nil
	} else if len(args) != len(m.Params) {
		return nil, false, p.errAt(tok.Pos, diag.CodeMacroArgCount, "macro \""+m.Name+"\" expects "+itoa(len(m.Params))+" arguments")
	}

	endHide := lexer.At(closeParen).Hide
	hs := tok.Hide.Intersect(endHide).With(m.Name)
	out := p.substitute(m.Replacement, m, args, hs)
	after := closeParen.Next()
	lst.RemoveRange(cursor, closeParen)
	first := insertSeq(lst, out, after)
	if first == nil {
		return after, true, nil
	}
	return first, true, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}

// insertSeq inserts toks immediately before mark and returns the element of
// the first inserted token, or nil if toks was empty.
func insertSeq(lst *lexer.List, toks []lexer.Token, mark *list.Element) *list.Element {
	var first *list.Element
	for _, t := range toks {
		e := lst.InsertBefore(t, mark)
		if first == nil {
			first = e
		}
	}
	return first
}

// collectArgs splits the tokens between a matching '(' ... ')' pair (open
// points at the '(') into top-level comma-separated argument token
// sequences, respecting nested parens. It returns the element of the
// closing ')'.
func collectArgs(open *list.Element) ([][]lexer.Token, *list.Element, error) {
	var args [][]lexer.Token
	var cur []lexer.Token
	depth := 0
	e := open.Next()
	for e != nil {
		t := lexer.At(e)
		switch {
		case t.Kind == lexer.EOF:
			return nil, nil, diag.New(diag.StagePreproc, diag.CodeMacroArgCount, diag.Span{
				Filename: "", Line: t.Pos.Line, Column: t.Pos.Column,
			}, "unterminated macro invocation")
		case t.IsPunct("("):
			depth++
			cur = append(cur, t)
		case t.IsPunct(")"):
			if depth == 0 {
				args = append(args, cur)
				return args, e, nil
			}
			depth--
			cur = append(cur, t)
		case t.IsPunct(",") && depth == 0:
			args = append(args, cur)
			cur = nil
		default:
			cur = append(cur, t)
		}
		e = e.Next()
	}
	return nil, nil, diag.New(diag.StagePreproc, diag.CodeMacroArgCount, diag.Span{}, "unterminated macro invocation")
}

// substitute implements the replacement-list walk: stringize (#), paste
// (##), and parameter expansion, followed by unioning hs into every
// resulting token's hide-set.
func (p *Preprocessor) substitute(replacement []lexer.Token, m *Macro, args [][]lexer.Token, hs lexer.HideSet) []lexer.Token {
	var out []lexer.Token
	n := len(replacement)
	skipWS := func(i int) int {
		for i < n && (replacement[i].Kind == lexer.Whitespace) {
			i++
		}
		return i
	}

	i := 0
	for i < n {
		t := replacement[i]

		if t.IsPunct("#") && m.Params != nil {
			j := skipWS(i + 1)
			if j >= n || replacement[j].Kind != lexer.Ident {
				i++
				continue
			}
			if idx, ok := m.isParam(replacement[j].Text); ok {
				str := stringize(args[idx])
				out = append(out, lexer.Token{Kind: lexer.StringLit, Text: str, Pos: t.Pos})
				i = j + 1
				continue
			}
		}

		if t.IsPunct("##") {
			j := skipWS(i + 1)
			if j >= n {
				i++
				continue
			}
			next := replacement[j]
			var rhs []lexer.Token
			if m.Params != nil && next.Kind == lexer.Ident {
				if idx, ok := m.isParam(next.Text); ok {
					rhs = args[idx]
				}
			}
			if rhs == nil {
				rhs = []lexer.Token{next}
			}
			out = pasteInto(out, rhs)
			i = j + 1
			continue
		}

		if m.Params != nil && t.Kind == lexer.Ident {
			if idx, ok := m.isParam(t.Text); ok {
				j := skipWS(i + 1)
				followedByPaste := j < n && replacement[j].IsPunct("##")
				precededByPaste := len(out) > 0 && out[len(out)-1].IsPunct("##")
				if followedByPaste || precededByPaste {
					out = append(out, args[idx]...)
				} else {
					out = append(out, p.expandArgument(args[idx])...)
				}
				i++
				continue
			}
		}

		if t.Kind != lexer.Whitespace {
			out = append(out, t)
		}
		i++
	}

	for k := range out {
		out[k].Hide = out[k].Hide.Union(hs)
	}
	return out
}

func pasteInto(out []lexer.Token, rhs []lexer.Token) []lexer.Token {
	rhs = stripWhitespace(rhs)
	if len(out) == 0 {
		return append(out, rhs...)
	}
	if len(rhs) == 0 {
		return out
	}
	last := out[len(out)-1]
	glued := glue(last, rhs[0])
	out = append(out[:len(out)-1], glued...)
	out = append(out, rhs[1:]...)
	return out
}

// expandArgument fully macro-expands one actual argument's token sequence
// in isolation, as required before substituting it for a parameter that
// does not participate in # or ##.
func (p *Preprocessor) expandArgument(arg []lexer.Token) []lexer.Token {
	arg = stripWhitespace(arg)
	if len(arg) == 0 {
		return nil
	}
	lst := lexer.FromSlice(append(append([]lexer.Token{}, arg...), lexer.Token{Kind: lexer.EOF}))
	_ = p.includeNested(lst, nil, nil, source.Index(-1))
	out := lst.ToSlice()
	if len(out) > 0 && out[len(out)-1].Kind == lexer.EOF {
		out = out[:len(out)-1]
	}
	return out
}
