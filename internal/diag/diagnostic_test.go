package diag_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/student/nanocc/internal/diag"
)

func TestDiagnosticError(t *testing.T) {
	d := diag.New(diag.StageLex, diag.CodeUnterminatedString, diag.Span{
		Filename: "in.c",
		Line:     3,
		Column:   5,
	}, "unterminated string literal")

	if !strings.Contains(d.Error(), "in.c") {
		t.Fatalf("expected error text to mention filename, got %q", d.Error())
	}
	if d.Severity != diag.SeverityError {
		t.Fatalf("expected error severity, got %q", d.Severity)
	}
}

func TestFormatterCaret(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/in.c"
	if err := os.WriteFile(path, []byte("int x = 1 +;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	f := diag.NewFormatterTo(&buf)
	f.Format(diag.New(diag.StageParse, diag.CodeExpected, diag.Span{
		Filename: path,
		Line:     1,
		Column:   12,
	}, "expected expression"))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (header, source, caret), got %d: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "1:12") {
		t.Fatalf("expected header to carry line:col, got %q", lines[0])
	}
	caretCol := strings.Index(lines[2], "^")
	if caretCol != 11 {
		t.Fatalf("expected caret at column index 11, got %d in %q", caretCol, lines[2])
	}
}
