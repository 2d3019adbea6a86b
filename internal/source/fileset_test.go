package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/student/nanocc/internal/source"
)

func TestFileSetLoadIsStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.c")
	if err := os.WriteFile(path, []byte("int main(){return 0;}"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := source.NewFileSet()
	idx1, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	idx2, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if idx1 != idx2 {
		t.Fatalf("expected same index on repeated load, got %d and %d", idx1, idx2)
	}
	if string(fs.Bytes(idx1)) != "int main(){return 0;}" {
		t.Fatalf("unexpected bytes: %q", fs.Bytes(idx1))
	}
}

func TestPosLess(t *testing.T) {
	a := source.Pos{File: 0, Line: 1, Column: 1}
	b := source.Pos{File: 0, Line: 1, Column: 2}
	if !a.Less(b) {
		t.Fatal("expected a < b")
	}
	if b.Less(a) {
		t.Fatal("expected b not < a")
	}
}
