package preproc

import (
	"time"

	"github.com/student/nanocc/internal/lexer"
)

// installBuiltins seeds the macro table with the predefined macros every
// translation unit gets regardless of command-line -D flags. __LINE__ and
// __FILE__ are computed at the point of use (see Macro.Builtin) so they
// rescan correctly inside nested macro expansions; __DATE__ and __TIME__
// are stamped once per Preprocessor so both macros agree within one run.
func (p *Preprocessor) installBuiltins() {
	now := time.Now()

	p.macros["__LINE__"] = &Macro{Name: "__LINE__", Builtin: func(use lexer.Token) lexer.Token {
		return lexer.Token{Kind: lexer.PPNumber, Text: itoa(use.Pos.Line), Pos: use.Pos}
	}}
	p.macros["__FILE__"] = &Macro{Name: "__FILE__", Builtin: func(use lexer.Token) lexer.Token {
		return lexer.Token{Kind: lexer.StringLit, Text: "\"" + p.fs.Path(use.Pos.File) + "\"", Pos: use.Pos}
	}}
	p.macros["__DATE__"] = &Macro{Name: "__DATE__", Builtin: func(use lexer.Token) lexer.Token {
		return lexer.Token{Kind: lexer.StringLit, Text: "\"" + now.Format("Jan 02 2006") + "\"", Pos: use.Pos}
	}}
	p.macros["__TIME__"] = &Macro{Name: "__TIME__", Builtin: func(use lexer.Token) lexer.Token {
		return lexer.Token{Kind: lexer.StringLit, Text: "\"" + now.Format("15:04:05") + "\"", Pos: use.Pos}
	}}
	p.macros["__STDC__"] = newMacro("__STDC__", false, nil, []lexer.Token{{Kind: lexer.PPNumber, Text: "1"}})
}
