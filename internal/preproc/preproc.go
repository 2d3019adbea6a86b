// Package preproc rewrites a raw pp-token stream in place: it splices in
// #include'd files, expands object-like and function-like macros using the
// Prosser hide-set algorithm, and removes the branches of conditional
// groups the translation unit does not take. What remains is a flat
// pp-token stream ready for internal/convert.
package preproc

import (
	"container/list"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/lexer"
	"github.com/student/nanocc/internal/source"
)

// defaultIncludePaths mirrors a stock Linux toolchain's search order for
// `#include <...>`: the including file's own directory is
// tried first only for the `"..."` form, then these, in order.
var defaultIncludePaths = []string{
	"/usr/local/include",
	"include",
	"/usr/include/x86_64-linux-gnu",
	"/include",
	"/usr/include",
}

// condFrame tracks one level of a #if/#elif/#else/#endif chain.
type condFrame struct {
	parentActive bool
	matched      bool
	active       bool
	at           source.Pos
}

// Preprocessor holds the macro table and conditional-compilation state for
// one translation unit. A single Preprocessor must not be reused across
// unrelated translation units: macro definitions and hide-sets are specific
// to the run that produced them.
type Preprocessor struct {
	fs           *source.FileSet
	macros       map[string]*Macro
	includePaths []string
	stack        []condFrame
	virtualSeq   int
}

// New creates a Preprocessor backed by fs, seeded with the built-in macros
// every run provides regardless of command-line definitions.
func New(fs *source.FileSet) *Preprocessor {
	p := &Preprocessor{
		fs:           fs,
		macros:       make(map[string]*Macro),
		includePaths: defaultIncludePaths,
	}
	p.installBuiltins()
	return p
}

// Define installs a command-line `-D name[=value]` style definition.
func (p *Preprocessor) Define(name, value string) error {
	text := name
	if value != "" {
		text = name + " " + value
	} else {
		text = name + " 1"
	}
	toks, err := lexBareString(text)
	if err != nil {
		return err
	}
	repl := stripEOF(toks)
	p.macros[name] = newMacro(name, false, nil, repl)
	return nil
}

// Run preprocesses the file at path and returns the finished pp-token
// stream (with directives and dead branches removed, and all macros fully
// expanded).
func (p *Preprocessor) Run(path string) ([]lexer.Token, error) {
	idx, err := p.fs.Load(path)
	if err != nil {
		return nil, err
	}
	lx := lexer.New(p.fs, idx)
	lst, err := lx.Lex()
	if err != nil {
		return nil, err
	}
	if err := p.process(lst, idx); err != nil {
		return nil, err
	}
	return lst.ToSlice(), nil
}

func (p *Preprocessor) active() bool {
	if len(p.stack) == 0 {
		return true
	}
	return p.stack[len(p.stack)-1].active
}

// process runs the top-level group loop over lst, splicing includes and
// expanding macros in place, until the file's EOF token.
func (p *Preprocessor) process(lst *lexer.List, file source.Index) error {
	baseDepth := len(p.stack)
	atLineStart := true
	cursor := lst.Front()
	for cursor != nil {
		tok := lexer.At(cursor)
		switch tok.Kind {
		case lexer.Newline:
			cursor = cursor.Next()
			atLineStart = true
			continue
		case lexer.Whitespace:
			cursor = cursor.Next()
			continue
		case lexer.EOF:
			if cursor.Next() != nil {
				// EOF of an included file in the middle of the list: stop
				// this recursive call, let the caller continue past it.
				if len(p.stack) > baseDepth {
					return p.errAt(p.stack[len(p.stack)-1].at, diag.CodeUnterminatedIf, "unterminated conditional directive")
				}
				return nil
			}
			if len(p.stack) > baseDepth {
				return p.errAt(p.stack[len(p.stack)-1].at, diag.CodeUnterminatedIf, "unterminated conditional directive")
			}
			return nil
		}

		if atLineStart && tok.IsPunct("#") {
			next, err := p.handleDirective(lst, cursor, file)
			if err != nil {
				return err
			}
			cursor = next
			atLineStart = true
			continue
		}
		atLineStart = false

		if !p.active() {
			next := cursor.Next()
			lst.Remove(cursor)
			cursor = next
			continue
		}

		if tok.Kind == lexer.Ident {
			if m, ok := p.macros[tok.Text]; ok && !tok.Hide.Contains(tok.Text) {
				nc, did, err := p.expandAt(lst, cursor, m)
				if err != nil {
					return err
				}
				if did {
					cursor = nc
					continue
				}
			}
		}
		cursor = cursor.Next()
	}
	return nil
}

func (p *Preprocessor) errAt(pos source.Pos, code diag.Code, msg string) error {
	return diag.New(diag.StagePreproc, code, diag.Span{
		Filename: p.fs.Path(pos.File),
		Line:     pos.Line,
		Column:   pos.Column,
	}, msg)
}

// handleDirective consumes the logical line starting at the '#' element,
// dispatches it, and returns the element to resume scanning from.
func (p *Preprocessor) handleDirective(lst *lexer.List, hash *list.Element, file source.Index) (*list.Element, error) {
	hashTok := lexer.At(hash)
	var line []lexer.Token
	var elems []*list.Element
	e := hash
	var after *list.Element
	for e != nil {
		t := lexer.At(e)
		if t.Kind == lexer.Newline {
			after = e.Next()
			elems = append(elems, e)
			break
		}
		if t.Kind == lexer.EOF {
			after = e
			break
		}
		line = append(line, t)
		elems = append(elems, e)
		e = e.Next()
	}
	remove := func() {
		for _, el := range elems {
			lst.Remove(el)
		}
	}

	core := stripWhitespace(line)
	if len(core) <= 1 {
		// bare '#' with nothing else: the null directive.
		remove()
		return after, nil
	}
	name := core[1]
	if name.Kind != lexer.Ident {
		remove()
		if p.active() {
			return after, p.errAt(hashTok.Pos, diag.CodeMalformedInclude, "invalid preprocessing directive")
		}
		return after, nil
	}

	rest := core[2:]
	switch name.Text {
	case "ifdef", "ifndef", "if":
		cond := p.active()
		var taken bool
		var err error
		if !cond {
			taken = false
		} else {
			switch name.Text {
			case "ifdef":
				taken = len(rest) > 0 && rest[0].Kind == lexer.Ident && p.lookupDefined(rest[0].Text)
			case "ifndef":
				taken = !(len(rest) > 0 && rest[0].Kind == lexer.Ident && p.lookupDefined(rest[0].Text))
			case "if":
				taken, err = p.evalConstExpr(rest, hashTok.Pos)
			}
			if err != nil {
				remove()
				return after, err
			}
		}
		p.stack = append(p.stack, condFrame{parentActive: cond, matched: cond && taken, active: cond && taken, at: hashTok.Pos})
	case "elif":
		if len(p.stack) == 0 {
			remove()
			return after, p.errAt(hashTok.Pos, diag.CodeUnmatchedElif, "#elif without #if")
		}
		top := &p.stack[len(p.stack)-1]
		if top.parentActive && !top.matched {
			taken, err := p.evalConstExpr(rest, hashTok.Pos)
			if err != nil {
				remove()
				return after, err
			}
			top.active = taken
			top.matched = taken
		} else {
			top.active = false
		}
	case "else":
		if len(p.stack) == 0 {
			remove()
			return after, p.errAt(hashTok.Pos, diag.CodeUnmatchedElse, "#else without #if")
		}
		top := &p.stack[len(p.stack)-1]
		top.active = top.parentActive && !top.matched
		top.matched = true
	case "endif":
		if len(p.stack) == 0 {
			remove()
			return after, p.errAt(hashTok.Pos, diag.CodeUnmatchedEndif, "#endif without #if")
		}
		p.stack = p.stack[:len(p.stack)-1]
	default:
		if !p.active() {
			remove()
			return after, nil
		}
		switch name.Text {
		case "include":
			if err := p.doInclude(lst, after, rest, file, hashTok.Pos); err != nil {
				remove()
				return after, err
			}
		case "define":
			_, rawRest, _ := splitDirectiveRaw(line)
			if err := p.doDefine(rawRest, hashTok.Pos); err != nil {
				remove()
				return after, err
			}
		case "undef":
			if len(rest) == 0 || rest[0].Kind != lexer.Ident {
				remove()
				return after, p.errAt(hashTok.Pos, diag.CodeMalformedDefine, "#undef expects an identifier")
			}
			delete(p.macros, rest[0].Text)
		case "error":
			remove()
			return after, p.errAt(hashTok.Pos, diag.CodeErrorDirective, "#error"+renderTokens(rest))
		case "pragma":
			// accepted and ignored.
		default:
			remove()
			return after, p.errAt(hashTok.Pos, diag.CodeMalformedInclude, "unknown preprocessing directive #"+name.Text)
		}
	}
	remove()
	return after, nil
}

func (p *Preprocessor) lookupDefined(name string) bool {
	_, ok := p.macros[name]
	return ok
}

func renderTokens(toks []lexer.Token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteByte(' ')
		b.WriteString(t.Text)
	}
	return b.String()
}

// doInclude resolves and splices one #include directive's target file in
// place at position after, so the main loop continues directly into its
// first token.
func (p *Preprocessor) doInclude(lst *lexer.List, after *list.Element, rest []lexer.Token, file source.Index, at source.Pos) error {
	name, quoted, err := p.parseHeaderName(rest, at)
	if err != nil {
		return err
	}
	resolved, err := p.resolveInclude(name, quoted, file)
	if err != nil {
		return err
	}
	idx, err := p.fs.Load(resolved)
	if err != nil {
		return errors.Wrapf(err, "#include %q", name)
	}
	lx := lexer.New(p.fs, idx)
	sub, err := lx.Lex()
	if err != nil {
		return err
	}
	// Drop the sub-lexer's own EOF; the outer stream supplies its own.
	if back := sub.Back(); back != nil && lexer.At(back).Kind == lexer.EOF {
		sub.Remove(back)
	}
	if sub.Len() == 0 {
		return nil
	}
	var start *list.Element
	if after != nil {
		start = after.Prev()
	} else {
		start = lst.Back()
	}
	lst.SpliceBefore(sub, after)
	return p.includeNested(lst, start, after, idx)
}

// includeNested recursively drives the group loop over the spliced
// included content (from start through, but not including, stop), since its
// directives (further #include, #if, #define) must be processed before
// control returns to the including file.
func (p *Preprocessor) includeNested(lst *lexer.List, start, stop *list.Element, file source.Index) error {
	baseDepth := len(p.stack)
	atLineStart := true
	var cursor *list.Element
	if start == nil {
		cursor = lst.Front()
	} else {
		cursor = start.Next()
	}
	for cursor != nil && cursor != stop {
		tok := lexer.At(cursor)
		switch tok.Kind {
		case lexer.Newline:
			cursor = cursor.Next()
			atLineStart = true
			continue
		case lexer.Whitespace:
			cursor = cursor.Next()
			continue
		}
		if atLineStart && tok.IsPunct("#") {
			next, err := p.handleDirective(lst, cursor, file)
			if err != nil {
				return err
			}
			cursor = next
			atLineStart = true
			continue
		}
		atLineStart = false
		if !p.active() {
			next := cursor.Next()
			lst.Remove(cursor)
			cursor = next
			continue
		}
		if tok.Kind == lexer.Ident {
			if m, ok := p.macros[tok.Text]; ok && !tok.Hide.Contains(tok.Text) {
				nc, did, err := p.expandAt(lst, cursor, m)
				if err != nil {
					return err
				}
				if did {
					cursor = nc
					continue
				}
			}
		}
		cursor = cursor.Next()
	}
	if len(p.stack) != baseDepth {
		at := tokenPosOrZero(stop)
		if len(p.stack) > baseDepth {
			at = p.stack[len(p.stack)-1].at
		}
		return p.errAt(at, diag.CodeUnterminatedIf, "unterminated conditional directive at end of file")
	}
	return nil
}

func tokenPosOrZero(e *list.Element) source.Pos {
	if e == nil {
		return source.Pos{}
	}
	return lexer.At(e).Pos
}

func (p *Preprocessor) parseHeaderName(rest []lexer.Token, at source.Pos) (name string, quoted bool, err error) {
	if len(rest) == 0 {
		return "", false, p.errAt(at, diag.CodeMalformedInclude, "#include expects a header name")
	}
	first := rest[0]
	if first.Kind == lexer.StringLit && strings.HasPrefix(first.Text, "\"") {
		return strings.Trim(first.Text, "\""), true, nil
	}
	if first.IsPunct("<") {
		var b strings.Builder
		for _, t := range rest[1:] {
			if t.IsPunct(">") {
				if b.Len() == 0 {
					return "", false, p.errAt(at, diag.CodeEmptyHeaderName, "empty header name")
				}
				return b.String(), false, nil
			}
			b.WriteString(t.Text)
		}
		return "", false, p.errAt(at, diag.CodeMalformedInclude, "missing closing '>' in #include")
	}
	// Macro-expanded form: expand rest and retry.
	expanded := p.expandArgument(rest)
	if len(expanded) > 0 && !tokensEqual(expanded, rest) {
		return p.parseHeaderName(expanded, at)
	}
	return "", false, p.errAt(at, diag.CodeMalformedInclude, "malformed #include")
}

func tokensEqual(a, b []lexer.Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Text != b[i].Text {
			return false
		}
	}
	return true
}

func (p *Preprocessor) resolveInclude(name string, quoted bool, file source.Index) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	if quoted {
		candidate := filepath.Join(p.fs.Dir(file), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	for _, dir := range p.includePaths {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", diag.New(diag.StagePreproc, diag.CodeIncludeNotFound, diag.Span{Filename: p.fs.Path(file)}, "cannot find "+name)
}

// splitDirectiveRaw locates the directive-name identifier in a raw (not
// whitespace-stripped) logical line and returns it along with everything
// after it, whitespace intact. Whitespace adjacency matters exactly once
// in the whole grammar: whether `(` immediately follows a macro name
// decides object-like vs. function-like, so #define needs the raw form.
func splitDirectiveRaw(line []lexer.Token) (name lexer.Token, rest []lexer.Token, ok bool) {
	i := 0
	if i >= len(line) || !line[i].IsPunct("#") {
		return lexer.Token{}, nil, false
	}
	i++
	for i < len(line) && line[i].Kind == lexer.Whitespace {
		i++
	}
	if i >= len(line) || line[i].Kind != lexer.Ident {
		return lexer.Token{}, nil, false
	}
	name = line[i]
	return name, line[i+1:], true
}

func (p *Preprocessor) doDefine(rawRest []lexer.Token, at source.Pos) error {
	i := 0
	for i < len(rawRest) && rawRest[i].Kind == lexer.Whitespace {
		i++
	}
	if i >= len(rawRest) || rawRest[i].Kind != lexer.Ident {
		return p.errAt(at, diag.CodeMalformedDefine, "#define expects an identifier")
	}
	name := rawRest[i].Text
	if name == "defined" {
		return p.errAt(at, diag.CodeDefinedAsMacroName, "\"defined\" cannot be used as a macro name")
	}
	afterName := rawRest[i+1:]

	functionLike := len(afterName) > 0 && afterName[0].IsPunct("(")
	var params []string
	var body []lexer.Token
	if functionLike {
		depth := 0
		k := 0
		for k < len(afterName) {
			if afterName[k].IsPunct("(") {
				depth++
			} else if afterName[k].IsPunct(")") {
				depth--
				if depth == 0 {
					break
				}
			} else if afterName[k].Kind == lexer.Ident {
				params = append(params, afterName[k].Text)
			}
			k++
		}
		if k >= len(afterName) {
			return p.errAt(at, diag.CodeMalformedDefine, "unterminated macro parameter list")
		}
		body = stripLeadingWhitespace(afterName[k+1:])
	} else {
		body = stripLeadingWhitespace(afterName)
	}

	m := newMacro(name, functionLike, params, body)
	if old, exists := p.macros[name]; exists && !old.sameDefinition(m) {
		return p.errAt(at, diag.CodeMacroRedefinition, "redefinition of macro \""+name+"\" with a different body")
	}
	p.macros[name] = m
	return nil
}

func stripLeadingWhitespace(toks []lexer.Token) []lexer.Token {
	for len(toks) > 0 && (toks[0].Kind == lexer.Whitespace) {
		toks = toks[1:]
	}
	return toks
}

func stripEOF(toks []lexer.Token) []lexer.Token {
	out := toks[:0:0]
	for _, t := range toks {
		if t.Kind == lexer.EOF {
			continue
		}
		out = append(out, t)
	}
	return out
}
