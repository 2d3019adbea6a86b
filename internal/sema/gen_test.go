package sema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/convert"
	"github.com/student/nanocc/internal/parser"
	"github.com/student/nanocc/internal/preproc"
	"github.com/student/nanocc/internal/sema"
	"github.com/student/nanocc/internal/source"
)

// parse runs the full preprocess/convert/parse pipeline over text, the same
// harness the parser package's own tests use, so the sema tests exercise the
// generator the way the driver actually feeds it: a tree straight out of the
// parser rather than one hand-built in the test.
func parse(t *testing.T, text string) (*ast.Node, *source.FileSet) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.c")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	fs := source.NewFileSet()
	toks, err := preproc.New(fs).Run(path)
	require.NoError(t, err)
	langToks, err := convert.Convert(toks, fs)
	require.NoError(t, err)
	tree, err := parser.New(langToks, fs).Parse()
	require.NoError(t, err)
	return tree, fs
}

func generate(t *testing.T, text string) (string, error) {
	t.Helper()
	tree, fs := parse(t, text)
	return sema.NewGenerator(fs).Generate(tree)
}

// requireSameIR fails with a unified diff when two IR renderings of
// supposedly-equivalent input disagree, instead of just dumping both strings
// — useful here for the determinism check below, where the interesting
// signal is exactly which lines moved.
func requireSameIR(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "first",
		ToFile:   "second",
		Context:  2,
	})
	require.NoError(t, err)
	t.Fatalf("IR renderings diverged:\n%s", diff)
}

func TestGenerateIsDeterministic(t *testing.T) {
	const src = `
int fib(int n) {
	if (n < 2) {
		return n;
	}
	return fib(n - 1) + fib(n - 2);
}
`
	first, err := generate(t, src)
	require.NoError(t, err)
	second, err := generate(t, src)
	require.NoError(t, err)
	requireSameIR(t, first, second)
}

func TestGenerateConstantFoldsGlobalInitializer(t *testing.T) {
	ir, err := generate(t, `int x = 1 + 2 * 3;`)
	require.NoError(t, err)
	require.Contains(t, ir, "@x = global i32 7")
}

func TestGenerateFunctionSignatureAndReturn(t *testing.T) {
	ir, err := generate(t, `int add(int a, int b) { return a + b; }`)
	require.NoError(t, err)
	require.Contains(t, ir, "define i32 @add(i32 %p0, i32 %p1)")
	require.Contains(t, ir, "ret i32")
}

func TestGenerateIfElseBranches(t *testing.T) {
	ir, err := generate(t, `
int sign(int n) {
	if (n < 0) {
		return -1;
	} else {
		return 1;
	}
}
`)
	require.NoError(t, err)
	require.Contains(t, ir, "br i1")
	require.Contains(t, ir, "icmp slt i32")
}

func TestGenerateWhileLoopHasBackEdge(t *testing.T) {
	ir, err := generate(t, `
int count(int n) {
	int i = 0;
	while (i < n) {
		i = i + 1;
	}
	return i;
}
`)
	require.NoError(t, err)
	require.Contains(t, ir, "br label")
}

func TestGenerateSwitchFallthrough(t *testing.T) {
	ir, err := generate(t, `
int classify(int n) {
	switch (n) {
	case 0:
	case 1:
		return 10;
	default:
		return -1;
	}
}
`)
	require.NoError(t, err)
	require.Contains(t, ir, "switch i32")
}

func TestGenerateDuplicateCaseIsRejected(t *testing.T) {
	_, err := generate(t, `
int f(int n) {
	switch (n) {
	case 1: return 1;
	case 1: return 2;
	}
	return 0;
}
`)
	require.Error(t, err)
}

func TestGenerateBreakOutsideLoopIsRejected(t *testing.T) {
	_, err := generate(t, `
void f(void) {
	break;
}
`)
	require.Error(t, err)
}

func TestGenerateUndefinedIdentIsRejected(t *testing.T) {
	_, err := generate(t, `
int f(void) {
	return undefined_name;
}
`)
	require.Error(t, err)
}

func TestGeneratePointerArithmetic(t *testing.T) {
	ir, err := generate(t, `
int first(int *a) {
	int *p = a;
	return *(p + 1);
}
`)
	require.NoError(t, err)
	require.Contains(t, ir, "getelementptr inbounds")
}

func TestGenerateStructFieldAccess(t *testing.T) {
	ir, err := generate(t, `
struct point { int x; int y; };
int getx(struct point *p) {
	return p->x;
}
`)
	require.NoError(t, err)
	require.Contains(t, ir, "%struct.point")
	require.Contains(t, ir, "getelementptr inbounds %struct.point")
}

func TestGenerateCallsKnownExternPrintf(t *testing.T) {
	ir, err := generate(t, `
int main(void) {
	printf("hi");
	return 0;
}
`)
	require.NoError(t, err)
	require.Contains(t, ir, "declare i32 @printf(i8*, ...)")
	require.Contains(t, ir, "call i32 @printf(i8*")
}

func TestGenerateTernaryConstantFold(t *testing.T) {
	ir, err := generate(t, `int x = 1 ? 5 : 9;`)
	require.NoError(t, err)
	require.Contains(t, ir, "@x = global i32 5")
}
