package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Formatter renders diagnostics as "file:line:column: message" followed by
// the offending source line and a caret under the column, per the CLI
// contract in the external-interfaces section of the specification. It
// caches source text by filename so repeated diagnostics against the same
// file (rare, since the compiler stops at the first error) don't re-read it.
type Formatter struct {
	out         io.Writer
	sourceCache map[string]string
}

// NewFormatter creates a Formatter that writes to stderr.
func NewFormatter() *Formatter {
	return &Formatter{out: os.Stderr, sourceCache: make(map[string]string)}
}

// NewFormatterTo creates a Formatter that writes to an arbitrary writer, for tests.
func NewFormatterTo(w io.Writer) *Formatter {
	return &Formatter{out: w, sourceCache: make(map[string]string)}
}

func (f *Formatter) loadSource(filename string) (string, error) {
	if filename == "" {
		return "", nil
	}
	if src, ok := f.sourceCache[filename]; ok {
		return src, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	src := string(data)
	f.sourceCache[filename] = src
	return src, nil
}

// Format prints a single diagnostic: a header line naming the file, line and
// column, followed by the offending source line and a caret underneath the
// reported column.
func (f *Formatter) Format(d *Diagnostic) {
	if d.Span.IsValid() {
		fmt.Fprintf(f.out, "%s:%d:%d: %s: %s\n", d.Span.Filename, d.Span.Line, d.Span.Column, d.Severity, d.Message)
	} else {
		fmt.Fprintf(f.out, "%s: %s\n", d.Severity, d.Message)
		return
	}

	src, err := f.loadSource(d.Span.Filename)
	if err != nil || src == "" {
		return
	}
	lines := strings.Split(src, "\n")
	if d.Span.Line < 1 || d.Span.Line > len(lines) {
		return
	}
	line := lines[d.Span.Line-1]
	fmt.Fprintf(f.out, "%s\n", line)

	col := d.Span.Column
	if col < 1 {
		col = 1
	}
	padding := caretPadding(line, col-1)
	fmt.Fprintf(f.out, "%s^\n", padding)
}

// caretPadding renders the whitespace that precedes a caret, preserving
// tabs from the source line so the caret lines up in a terminal.
func caretPadding(line string, width int) string {
	if width > len(line) {
		width = len(line)
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		if line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
