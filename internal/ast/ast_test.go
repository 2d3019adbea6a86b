package ast_test

import (
	"testing"

	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/source"
)

func TestEqualIgnoresLocation(t *testing.T) {
	p1 := source.Pos{Line: 1, Column: 1}
	p2 := source.Pos{Line: 2, Column: 5}
	a := ast.New("+", "", p1, ast.New("ident", "x", p1), ast.New("int_const", "1", p2))
	b := ast.New("+", "", p2, ast.New("ident", "x", p2), ast.New("int_const", "1", p1))
	if !ast.Equal(a, b) {
		t.Fatal("expected structural equality regardless of location")
	}
}

func TestEqualDetectsDifference(t *testing.T) {
	p := source.Pos{Line: 1, Column: 1}
	a := ast.New("+", "", p, ast.New("ident", "x", p))
	b := ast.New("-", "", p, ast.New("ident", "x", p))
	if ast.Equal(a, b) {
		t.Fatal("expected kind mismatch to break equality")
	}
}

func TestChildOutOfRange(t *testing.T) {
	n := ast.New("return", "", source.Pos{Line: 1, Column: 1})
	if n.Child(0) != nil {
		t.Fatal("expected nil for out-of-range child")
	}
}
