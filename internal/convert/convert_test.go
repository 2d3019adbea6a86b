package convert_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/student/nanocc/internal/convert"
	"github.com/student/nanocc/internal/lexer"
	"github.com/student/nanocc/internal/source"
)

func lexAndConvert(t *testing.T, text string) []convert.Token {
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
	pp, err := lexer.New(fs, idx).Lex()
	if err != nil {
		t.Fatal(err)
	}
	toks, err := convert.Convert(pp.ToSlice(), fs)
	if err != nil {
		t.Fatal(err)
	}
	return toks
}

func TestKeywordVsIdentifier(t *testing.T) {
	toks := lexAndConvert(t, "int foo")
	if toks[0].Kind != convert.TokKeyword || toks[0].Text != "int" {
		t.Fatalf("expected keyword int, got %+v", toks[0])
	}
	if toks[1].Kind != convert.TokIdent || toks[1].Text != "foo" {
		t.Fatalf("expected identifier foo, got %+v", toks[1])
	}
}

func TestIntegerConstantClassification(t *testing.T) {
	toks := lexAndConvert(t, "0x2Au 010 99L")
	if toks[0].Kind != convert.TokIntConst || toks[0].IntValue != 42 || !toks[0].IsUnsigned {
		t.Fatalf("unexpected hex constant: %+v", toks[0])
	}
	if toks[1].IntValue != 8 {
		t.Fatalf("expected octal 010 == 8, got %+v", toks[1])
	}
	if toks[2].IntValue != 99 || toks[2].IsLong != 1 {
		t.Fatalf("unexpected long constant: %+v", toks[2])
	}
}

func TestFloatConstantClassification(t *testing.T) {
	toks := lexAndConvert(t, "3.5f")
	if toks[0].Kind != convert.TokFloatConst || toks[0].FloatValue != 3.5 {
		t.Fatalf("unexpected float constant: %+v", toks[0])
	}
}

func TestStringLiteralConcatenation(t *testing.T) {
	toks := lexAndConvert(t, `"hello, " "world\n"`)
	if len(toks) != 2 { // string + EOF
		t.Fatalf("expected concatenation to yield one token, got %+v", toks)
	}
	if toks[0].StrValue != "hello, world\n" {
		t.Fatalf("unexpected concatenated value: %q", toks[0].StrValue)
	}
}

func TestCharConstantEscape(t *testing.T) {
	toks := lexAndConvert(t, `'\n'`)
	if toks[0].StrValue != "\n" {
		t.Fatalf("expected decoded newline, got %q", toks[0].StrValue)
	}
}
