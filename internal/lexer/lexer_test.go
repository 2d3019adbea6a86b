package lexer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/student/nanocc/internal/lexer"
	"github.com/student/nanocc/internal/source"
)

func lexString(t *testing.T, text string) []lexer.Token {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.c")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	idx, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	toks, err := lexer.New(fs, idx).Lex()
	if err != nil {
		t.Fatal(err)
	}
	return toks.ToSlice()
}

func kinds(toks []lexer.Token) []lexer.Kind {
	out := make([]lexer.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexIdentifiersAndNumbers(t *testing.T) {
	toks := lexString(t, "int x123 = 0x1Fu;")
	var idents, nums []string
	for _, tk := range toks {
		switch tk.Kind {
		case lexer.Ident:
			idents = append(idents, tk.Text)
		case lexer.PPNumber:
			nums = append(nums, tk.Text)
		}
	}
	if len(idents) != 2 || idents[0] != "int" || idents[1] != "x123" {
		t.Fatalf("unexpected identifiers: %v", idents)
	}
	if len(nums) != 1 || nums[0] != "0x1Fu" {
		t.Fatalf("unexpected pp-numbers: %v", nums)
	}
}

func TestLexPPNumberExponentSign(t *testing.T) {
	toks := lexString(t, "1.5e+10")
	if toks[0].Kind != lexer.PPNumber || toks[0].Text != "1.5e+10" {
		t.Fatalf("expected one pp-number %q, got %+v", "1.5e+10", toks[0])
	}
}

func TestLexStringAndCharLiterals(t *testing.T) {
	toks := lexString(t, `"hi\n" 'a'`)
	if toks[0].Kind != lexer.StringLit || toks[0].Text != `"hi\n"` {
		t.Fatalf("unexpected string token: %+v", toks[0])
	}
	// toks[1] is the collapsed whitespace token.
	var charTok lexer.Token
	for _, tk := range toks {
		if tk.Kind == lexer.CharConst {
			charTok = tk
		}
	}
	if charTok.Text != "'a'" {
		t.Fatalf("unexpected char token: %+v", charTok)
	}
}

func TestLexPunctuatorsLongestMatch(t *testing.T) {
	toks := lexString(t, "a<<=b a<<b a<b")
	var puncts []string
	for _, tk := range toks {
		if tk.Kind == lexer.Punct {
			puncts = append(puncts, tk.Text)
		}
	}
	want := []string{"<<=", "<<", "<"}
	if len(puncts) != len(want) {
		t.Fatalf("expected %v, got %v", want, puncts)
	}
	for i := range want {
		if puncts[i] != want[i] {
			t.Fatalf("at %d: expected %q, got %q", i, want[i], puncts[i])
		}
	}
}

func TestLexCommentsCollapseToWhitespace(t *testing.T) {
	toks := lexString(t, "a /* comment\nspanning lines */ b // trailing\nc")
	var idents []string
	for _, tk := range toks {
		if tk.Kind == lexer.Ident {
			idents = append(idents, tk.Text)
		}
	}
	if len(idents) != 3 || idents[0] != "a" || idents[1] != "b" || idents[2] != "c" {
		t.Fatalf("unexpected identifiers after comment stripping: %v", idents)
	}
}

func TestLexUnterminatedStringErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.c")
	if err := os.WriteFile(path, []byte(`"unterminated`), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	idx, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lexer.New(fs, idx).Lex(); err == nil {
		t.Fatal("expected an unterminated-string error")
	}
}

func TestLexEmptyCharConstantErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.c")
	if err := os.WriteFile(path, []byte(`''`), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	idx, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lexer.New(fs, idx).Lex(); err == nil {
		t.Fatal("expected an empty-char-constant error")
	}
}

func TestLexEndsWithEOF(t *testing.T) {
	toks := lexString(t, "x")
	if toks[len(toks)-1].Kind != lexer.EOF {
		t.Fatalf("expected trailing EOF token, got %v", kinds(toks))
	}
}
