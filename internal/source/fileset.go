// Package source implements the file manager: indexed byte buffers keyed by
// absolute path, returning the stable file indices that source locations
// reference throughout the rest of the pipeline.
package source

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Index identifies a file within a FileSet. It is stable for the lifetime
// of a compilation and is embedded in every source Pos.
type Index int

// FileSet owns the byte content of every file read during a compilation,
// keyed by absolute path so the same file included twice resolves to the
// same Index instead of being read and stored twice.
type FileSet struct {
	byPath []string
	bytes  [][]byte
	index  map[string]Index
}

// NewFileSet creates an empty file set.
func NewFileSet() *FileSet {
	return &FileSet{index: make(map[string]Index)}
}

// Load reads path (normalized to an absolute path) and returns its stable
// Index. A second Load of the same path returns the cached Index and does
// not re-read the file, matching the "file bytes retained for the lifetime
// of the compilation" resource lifecycle.
func (fs *FileSet) Load(path string) (Index, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return -1, errors.Wrapf(err, "resolving path %q", path)
	}
	if idx, ok := fs.index[abs]; ok {
		return idx, nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return -1, errors.Wrapf(err, "reading %q", abs)
	}
	idx := Index(len(fs.byPath))
	fs.byPath = append(fs.byPath, abs)
	fs.bytes = append(fs.bytes, data)
	fs.index[abs] = idx
	return idx, nil
}

// LoadVirtual registers an in-memory buffer that did not come from disk
// (used by the preprocessor to re-lex a `##`-pasted lexeme) and returns its
// Index. name need not be a real path; it is never looked up again.
func (fs *FileSet) LoadVirtual(name string, data []byte) Index {
	idx := Index(len(fs.byPath))
	fs.byPath = append(fs.byPath, name)
	fs.bytes = append(fs.bytes, data)
	return idx
}

// Path returns the absolute path for a file index.
func (fs *FileSet) Path(idx Index) string {
	if idx < 0 || int(idx) >= len(fs.byPath) {
		return ""
	}
	return fs.byPath[idx]
}

// Bytes returns the content of a file index.
func (fs *FileSet) Bytes(idx Index) []byte {
	if idx < 0 || int(idx) >= len(fs.bytes) {
		return nil
	}
	return fs.bytes[idx]
}

// Dir returns the directory containing a file index's path, used to resolve
// `#include "..."` relative to the including file.
func (fs *FileSet) Dir(idx Index) string {
	return filepath.Dir(fs.Path(idx))
}

// Pos is a source location: a file index plus 1-based line and column.
// Less orders positions for error-max tracking during parse backtracking.
type Pos struct {
	File   Index
	Line   int
	Column int
}

// Less reports whether p precedes q, used by the parser's backtracking
// alternator to remember the most-advanced error location.
func (p Pos) Less(q Pos) bool {
	if p.File != q.File {
		return p.File < q.File
	}
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}
