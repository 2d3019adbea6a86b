package parser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/convert"
	"github.com/student/nanocc/internal/parser"
	"github.com/student/nanocc/internal/preproc"
	"github.com/student/nanocc/internal/source"
)

func parseSource(t *testing.T, text string) *ast.Node {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.c")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	pp := preproc.New(fs)
	toks, err := pp.Run(path)
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	langToks, err := convert.Convert(toks, fs)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	tree, err := parser.New(langToks, fs).Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tree
}

func findKind(n *ast.Node, kind string) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind == kind {
		return n
	}
	for _, c := range n.Children {
		if found := findKind(c, kind); found != nil {
			return found
		}
	}
	return nil
}

func TestParseSimpleFunctionDefinition(t *testing.T) {
	tree := parseSource(t, "int main(void) { return 0; }")
	fn := findKind(tree, "function_definition")
	if fn == nil {
		t.Fatal("expected a function_definition node")
	}
	ret := findKind(fn, "return")
	if ret == nil || len(ret.Children) != 1 {
		t.Fatalf("expected return with an operand, got %+v", ret)
	}
	if ret.Children[0].Kind != "int_const" || ret.Children[0].IntValue != 0 {
		t.Fatalf("expected return of int_const 0, got %+v", ret.Children[0])
	}
}

func TestParseArithmeticPrecedence(t *testing.T) {
	tree := parseSource(t, "int f(void) { int x; x = 1 + 2 * 3; return x; }")
	assign := findKind(tree, "=")
	if assign == nil {
		t.Fatal("expected an assignment node")
	}
	rhs := assign.Children[1]
	if rhs.Kind != "+" {
		t.Fatalf("expected '+' at the top of the rhs, got %q", rhs.Kind)
	}
	if rhs.Children[1].Kind != "*" {
		t.Fatalf("expected '*' to bind tighter than '+', got %q", rhs.Children[1].Kind)
	}
}

func TestParsePointerDeclaratorAndDeref(t *testing.T) {
	tree := parseSource(t, "int f(void) { int x; int *p; p = &x; return *p; }")
	ret := findKind(tree, "return")
	if ret == nil || ret.Children[0].Kind != "*" {
		t.Fatalf("expected return of a dereference, got %+v", ret)
	}
}

func TestParseArrayDeclaratorAndSubscript(t *testing.T) {
	tree := parseSource(t, "int f(void) { int a[10]; a[0] = 1; return a[0]; }")
	idx := findKind(tree, "index")
	if idx == nil {
		t.Fatal("expected an index node")
	}
}

func TestParseIfElseAndWhile(t *testing.T) {
	tree := parseSource(t, `
int f(int n) {
	if (n > 0) {
		while (n > 0) {
			n = n - 1;
		}
	} else {
		return 1;
	}
	return 0;
}`)
	ifNode := findKind(tree, "if")
	if ifNode == nil || len(ifNode.Children) != 3 {
		t.Fatalf("expected an if/else with 3 children, got %+v", ifNode)
	}
	if findKind(tree, "while") == nil {
		t.Fatal("expected a while loop")
	}
}

func TestParseForLoopWithEmptyClauses(t *testing.T) {
	tree := parseSource(t, "int f(void) { int i; for (i = 0; i < 10; i = i + 1) { } for (;;) { break; } return 0; }")
	forNodes := collectKind(tree, "for")
	if len(forNodes) != 2 {
		t.Fatalf("expected two for loops, got %d", len(forNodes))
	}
	empty := forNodes[1]
	if empty.Children[0].Kind != "empty" || empty.Children[1].Kind != "empty" || empty.Children[2].Kind != "empty" {
		t.Fatalf("expected all-empty clauses in for(;;), got %+v", empty)
	}
}

func collectKind(n *ast.Node, kind string) []*ast.Node {
	var out []*ast.Node
	if n == nil {
		return out
	}
	if n.Kind == kind {
		out = append(out, n)
	}
	for _, c := range n.Children {
		out = append(out, collectKind(c, kind)...)
	}
	return out
}

func TestParseStructDeclarationAndMemberAccess(t *testing.T) {
	tree := parseSource(t, `
struct point { int x; int y; };
int f(void) {
	struct point p;
	p.x = 1;
	return p.x;
}`)
	member := findKind(tree, ".")
	if member == nil || member.Text != "x" {
		t.Fatalf("expected a '.' member access to x, got %+v", member)
	}
}

func TestParseTypedefNameUsedAsSpecifier(t *testing.T) {
	tree := parseSource(t, `
typedef int myint;
int f(void) {
	myint x;
	x = 5;
	return x;
}`)
	decl := findKind(tree, "declaration")
	if decl == nil {
		t.Fatal("expected at least one declaration node")
	}
}

func TestParseFunctionPointerDeclarator(t *testing.T) {
	tree := parseSource(t, "int (*fp)(int, int);")
	decl := findKind(tree, "declaration")
	if decl == nil {
		t.Fatal("expected a top-level declaration for the function pointer")
	}
}

func TestParseCastExpression(t *testing.T) {
	tree := parseSource(t, "int f(void) { double d; int x; x = (int)d; return x; }")
	cast := findKind(tree, "cast")
	if cast == nil {
		t.Fatal("expected a cast node")
	}
}

func TestParseSizeofTypeAndExpr(t *testing.T) {
	tree := parseSource(t, "int f(void) { int x; return sizeof(int) + sizeof x; }")
	if findKind(tree, "sizeof_type") == nil {
		t.Fatal("expected a sizeof_type node")
	}
	if findKind(tree, "sizeof_expr") == nil {
		t.Fatal("expected a sizeof_expr node")
	}
}

func TestParseTernaryRightAssociative(t *testing.T) {
	tree := parseSource(t, "int f(void) { int x; x = 1 ? 2 : 3 ? 4 : 5; return x; }")
	top := findKind(tree, "?:")
	if top == nil {
		t.Fatal("expected a conditional expression")
	}
	if top.Children[2].Kind != "?:" {
		t.Fatalf("expected the else-branch to hold the nested conditional, got %q", top.Children[2].Kind)
	}
}
