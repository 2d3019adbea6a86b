package lexer_test

import (
	"testing"

	"github.com/student/nanocc/internal/lexer"
)

func TestHideSetImmutableOps(t *testing.T) {
	a := lexer.EmptyHideSet.With("FOO")
	b := a.With("BAR")
	if a.Contains("BAR") {
		t.Fatal("With must not mutate the receiver")
	}
	if !b.Contains("FOO") || !b.Contains("BAR") {
		t.Fatal("expected b to contain both names")
	}

	u := a.Union(lexer.EmptyHideSet.With("BAZ"))
	if !u.Contains("FOO") || !u.Contains("BAZ") {
		t.Fatal("Union must contain members of both sets")
	}

	i := b.Intersect(lexer.EmptyHideSet.With("BAR"))
	if !i.Contains("BAR") || i.Contains("FOO") {
		t.Fatal("Intersect must keep only shared members")
	}
}

func TestListSpliceBefore(t *testing.T) {
	dst := lexer.NewList()
	e1 := dst.PushBack(lexer.Token{Kind: lexer.Ident, Text: "a"})
	mark := dst.PushBack(lexer.Token{Kind: lexer.Ident, Text: "z"})
	_ = e1

	src := lexer.NewList()
	src.PushBack(lexer.Token{Kind: lexer.Ident, Text: "b"})
	src.PushBack(lexer.Token{Kind: lexer.Ident, Text: "c"})

	dst.SpliceBefore(src, mark)
	if src.Len() != 0 {
		t.Fatal("expected src to be emptied by SpliceBefore")
	}
	got := dst.ToSlice()
	want := []string{"a", "b", "c", "z"}
	if len(got) != len(want) {
		t.Fatalf("expected %v tokens, got %v", want, got)
	}
	for i, w := range want {
		if got[i].Text != w {
			t.Fatalf("at %d: expected %q, got %q", i, w, got[i].Text)
		}
	}
}
