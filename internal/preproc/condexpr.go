package preproc

import (
	"strconv"
	"strings"

	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/lexer"
	"github.com/student/nanocc/internal/source"
)

// evalConstExpr evaluates a #if/#elif controlling expression: replace
// `defined X` / `defined(X)` with 1/0, macro-expand what remains, then
// parse and fold as a constant integer expression. Only integer arithmetic
// is meaningful in a preprocessing directive, so this is a small dedicated
// evaluator rather than a reuse of the full expression parser/type system,
// which also has to model floats, pointers, and lvalues that never arise
// here.
func (p *Preprocessor) evalConstExpr(toks []lexer.Token, at source.Pos) (bool, error) {
	toks = stripWhitespace(toks)
	if len(toks) == 0 {
		return false, p.errAt(at, diag.CodeMalformedInclude, "#if with no expression")
	}
	resolved := p.resolveDefined(toks)
	expanded := p.expandArgument(resolved)
	ev := &exprEval{toks: expanded, pp: p, at: at}
	v, err := ev.parseExpr()
	if err != nil {
		return false, err
	}
	if ev.pos != len(ev.toks) {
		return false, p.errAt(at, diag.CodeMalformedInclude, "trailing tokens in #if expression")
	}
	return v != 0, nil
}

// resolveDefined handles `defined X` and `defined(X)` before macro
// expansion runs, since the operand must not itself be expanded.
func (p *Preprocessor) resolveDefined(toks []lexer.Token) []lexer.Token {
	var out []lexer.Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == lexer.Ident && t.Text == "defined" {
			i++
			var name string
			if i < len(toks) && toks[i].IsPunct("(") {
				i++
				if i < len(toks) && toks[i].Kind == lexer.Ident {
					name = toks[i].Text
					i++
				}
				// skip to matching ')'
				for i < len(toks) && !toks[i].IsPunct(")") {
					i++
				}
			} else if i < len(toks) && toks[i].Kind == lexer.Ident {
				name = toks[i].Text
			}
			val := "0"
			if p.lookupDefined(name) {
				val = "1"
			}
			out = append(out, lexer.Token{Kind: lexer.PPNumber, Text: val, Pos: t.Pos})
			continue
		}
		out = append(out, t)
	}
	return out
}

// exprEval is a small recursive-descent parser over the standard C
// precedence ladder restricted to the operators valid in a constant
// integer expression (no assignment, no comma).
type exprEval struct {
	toks []lexer.Token
	pos  int
	pp   *Preprocessor
	at   source.Pos
}

func (e *exprEval) cur() lexer.Token {
	if e.pos < len(e.toks) {
		return e.toks[e.pos]
	}
	return lexer.Token{Kind: lexer.EOF}
}

func (e *exprEval) advance() lexer.Token {
	t := e.cur()
	e.pos++
	return t
}

func (e *exprEval) errf(msg string) error {
	return e.pp.errAt(e.at, diag.CodeMalformedInclude, msg)
}

func (e *exprEval) parseExpr() (int64, error) { return e.parseTernary() }

func (e *exprEval) parseTernary() (int64, error) {
	cond, err := e.parseBinary(0)
	if err != nil {
		return 0, err
	}
	if e.cur().IsPunct("?") {
		e.advance()
		a, err := e.parseExpr()
		if err != nil {
			return 0, err
		}
		if !e.cur().IsPunct(":") {
			return 0, e.errf("expected ':' in conditional expression")
		}
		e.advance()
		b, err := e.parseTernary()
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return a, nil
		}
		return b, nil
	}
	return cond, nil
}

// precedence levels, lowest to highest, matching §4.3's arithmetic ladder.
var binOps = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!="},
	{"<", ">", "<=", ">="},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (e *exprEval) parseBinary(level int) (int64, error) {
	if level >= len(binOps) {
		return e.parseUnary()
	}
	lhs, err := e.parseBinary(level + 1)
	if err != nil {
		return 0, err
	}
	for {
		op, ok := e.matchAny(binOps[level])
		if !ok {
			return lhs, nil
		}
		e.advance()
		rhs, err := e.parseBinary(level + 1)
		if err != nil {
			return 0, err
		}
		lhs, err = applyBinOp(op, lhs, rhs)
		if err != nil {
			return 0, e.errf(err.Error())
		}
	}
}

func (e *exprEval) matchAny(ops []string) (string, bool) {
	t := e.cur()
	if t.Kind != lexer.Punct {
		return "", false
	}
	for _, op := range ops {
		if t.Text == op {
			return op, true
		}
	}
	return "", false
}

func applyBinOp(op string, a, b int64) (int64, error) {
	switch op {
	case "||":
		if a != 0 || b != 0 {
			return 1, nil
		}
		return 0, nil
	case "&&":
		if a != 0 && b != 0 {
			return 1, nil
		}
		return 0, nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return boolInt(a == b), nil
	case "!=":
		return boolInt(a != b), nil
	case "<":
		return boolInt(a < b), nil
	case ">":
		return boolInt(a > b), nil
	case "<=":
		return boolInt(a <= b), nil
	case ">=":
		return boolInt(a >= b), nil
	case "<<":
		return a << uint(b), nil
	case ">>":
		return a >> uint(b), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, errDivZero
		}
		return a / b, nil
	case "%":
		if b == 0 {
			return 0, errDivZero
		}
		return a % b, nil
	}
	return 0, errBadOp
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

var errDivZero = strErr("division by zero in #if expression")
var errBadOp = strErr("unsupported operator in #if expression")

type strErr string

func (s strErr) Error() string { return string(s) }

func (e *exprEval) parseUnary() (int64, error) {
	t := e.cur()
	if t.Kind == lexer.Punct {
		switch t.Text {
		case "!":
			e.advance()
			v, err := e.parseUnary()
			if err != nil {
				return 0, err
			}
			return boolInt(v == 0), nil
		case "~":
			e.advance()
			v, err := e.parseUnary()
			if err != nil {
				return 0, err
			}
			return ^v, nil
		case "-":
			e.advance()
			v, err := e.parseUnary()
			if err != nil {
				return 0, err
			}
			return -v, nil
		case "+":
			e.advance()
			return e.parseUnary()
		case "(":
			e.advance()
			v, err := e.parseExpr()
			if err != nil {
				return 0, err
			}
			if !e.cur().IsPunct(")") {
				return 0, e.errf("expected ')'")
			}
			e.advance()
			return v, nil
		}
	}
	return e.parsePrimary()
}

func (e *exprEval) parsePrimary() (int64, error) {
	t := e.advance()
	switch t.Kind {
	case lexer.PPNumber:
		return parsePPNumberAsInt(t.Text)
	case lexer.CharConst:
		return int64(decodeCharConst(t.Text)), nil
	case lexer.Ident:
		// Any remaining identifier (including "true"/"false" are not
		// keywords here) evaluates to 0, per the standard's treatment of
		// unexpanded identifiers in a controlling expression.
		return 0, nil
	}
	return 0, e.errf("unexpected token in #if expression")
}

// parsePPNumberAsInt strips any trailing integer-suffix letters (u/U/l/L)
// and parses the remaining digits, honoring 0x/0 prefixes.
func parsePPNumberAsInt(text string) (int64, error) {
	end := len(text)
	for end > 0 {
		c := text[end-1]
		if c == 'u' || c == 'U' || c == 'l' || c == 'L' {
			end--
			continue
		}
		break
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
		return 0, nil
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

func decodeCharConst(text string) byte {
	inner := strings.Trim(text, "'")
	if len(inner) == 0 {
		return 0
	}
	if inner[0] == '\\' && len(inner) > 1 {
		switch inner[1] {
		case 'n':
			return '\n'
		case 't':
			return '\t'
		case 'r':
			return '\r'
		case '0':
			return 0
		case '\\':
			return '\\'
		case '\'':
			return '\''
		default:
			return inner[1]
		}
	}
	return inner[0]
}
