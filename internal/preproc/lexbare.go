package preproc

import (
	"github.com/student/nanocc/internal/lexer"
	"github.com/student/nanocc/internal/source"
)

// bareFileSet backs lexBareString: a private FileSet used only to re-lex a
// synthetic buffer (a `##` paste result, or a `-D` command-line
// definition), never the translation unit's real FileSet so its virtual
// entries can't collide with real file indices or leak into diagnostics.
var bareFileSet = source.NewFileSet()

// lexBareString lexes text in isolation and returns its pp-tokens
// (including the trailing EOF).
func lexBareString(text string) ([]lexer.Token, error) {
	idx := bareFileSet.LoadVirtual("<paste>", []byte(text))
	lx := lexer.New(bareFileSet, idx)
	lst, err := lx.Lex()
	if err != nil {
		return nil, err
	}
	return lst.ToSlice(), nil
}
