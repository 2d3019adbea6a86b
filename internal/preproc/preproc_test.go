package preproc_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/student/nanocc/internal/lexer"
	"github.com/student/nanocc/internal/preproc"
	"github.com/student/nanocc/internal/source"
)

func run(t *testing.T, files map[string]string, main string) []lexer.Token {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	fs := source.NewFileSet()
	pp := preproc.New(fs)
	toks, err := pp.Run(filepath.Join(dir, main))
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	return toks
}

// render joins the surviving significant tokens (skipping whitespace,
// newlines, and the trailing EOF) with single spaces, for easy assertion.
func render(toks []lexer.Token) string {
	var parts []string
	for _, t := range toks {
		switch t.Kind {
		case lexer.Whitespace, lexer.Newline, lexer.EOF:
			continue
		}
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}

func TestObjectLikeMacroExpansion(t *testing.T) {
	toks := run(t, map[string]string{"a.c": "#define N 42\nint x = N;\n"}, "a.c")
	if got := render(toks); got != "int x = 42 ;" {
		t.Fatalf("got %q", got)
	}
}

func TestFunctionLikeMacroExpansion(t *testing.T) {
	toks := run(t, map[string]string{"a.c": "#define ADD(a,b) ((a)+(b))\nint x = ADD(1,2);\n"}, "a.c")
	if got := render(toks); got != "int x = ( ( 1 ) + ( 2 ) ) ;" {
		t.Fatalf("got %q", got)
	}
}

func TestSelfReferentialMacroTerminates(t *testing.T) {
	toks := run(t, map[string]string{"a.c": "#define X X + 1\nX\n"}, "a.c")
	if got := render(toks); got != "X + 1" {
		t.Fatalf("got %q", got)
	}
}

func TestMutuallyRecursiveMacrosTerminate(t *testing.T) {
	toks := run(t, map[string]string{"a.c": "#define A B\n#define B A\nA\n"}, "a.c")
	got := render(toks)
	if got != "A" && got != "B" {
		t.Fatalf("expected expansion to stop at one of A/B, got %q", got)
	}
}

func TestStringizeOperator(t *testing.T) {
	toks := run(t, map[string]string{"a.c": "#define STR(x) #x\nSTR(hello world);\n"}, "a.c")
	if got := render(toks); got != `"hello world" ;` {
		t.Fatalf("got %q", got)
	}
}

func TestPasteOperator(t *testing.T) {
	toks := run(t, map[string]string{"a.c": "#define CAT(a,b) a##b\nCAT(foo,bar);\n"}, "a.c")
	if got := render(toks); got != "foobar ;" {
		t.Fatalf("got %q", got)
	}
}

func TestIncludeSplicesQuotedFile(t *testing.T) {
	toks := run(t, map[string]string{
		"a.c": "#include \"b.h\"\nint y = VAL;\n",
		"b.h": "#define VAL 7\n",
	}, "a.c")
	if got := render(toks); got != "int y = 7 ;" {
		t.Fatalf("got %q", got)
	}
}

func TestIfdefSkipsDeadBranch(t *testing.T) {
	toks := run(t, map[string]string{"a.c": "#ifdef FOO\nint dead;\n#else\nint alive;\n#endif\n"}, "a.c")
	if got := render(toks); got != "int alive ;" {
		t.Fatalf("got %q", got)
	}
}

func TestIfExpressionArithmetic(t *testing.T) {
	toks := run(t, map[string]string{"a.c": "#if 1 + 1 == 2\nint yes;\n#endif\n"}, "a.c")
	if got := render(toks); got != "int yes ;" {
		t.Fatalf("got %q", got)
	}
}

func TestDefinedOperator(t *testing.T) {
	toks := run(t, map[string]string{"a.c": "#define FOO\n#if defined(FOO) && !defined(BAR)\nint ok;\n#endif\n"}, "a.c")
	if got := render(toks); got != "int ok ;" {
		t.Fatalf("got %q", got)
	}
}

func TestUndefRemovesMacro(t *testing.T) {
	toks := run(t, map[string]string{"a.c": "#define N 1\n#undef N\n#ifdef N\nint dead;\n#endif\nint tail;\n"}, "a.c")
	if got := render(toks); got != "int tail ;" {
		t.Fatalf("got %q", got)
	}
}
