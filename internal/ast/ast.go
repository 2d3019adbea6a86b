// Package ast defines the single uniform node shape the parser builds and
// the semantic generator walks: a kind tag, a text payload, ordered
// children, and a source location.
package ast

import "github.com/student/nanocc/internal/source"

// Node is the one AST shape used for every expression, statement,
// declaration, and type-expression form. Kind distinguishes the forms
// (e.g. "if", "+", "compound_statement", "ident"); Text carries the payload
// for leaves (identifier spelling, literal text, operator symbol).
type Node struct {
	Kind     string
	Text     string
	Children []*Node
	Pos      source.Pos

	// IntValue/FloatValue/StrValue carry a decoded constant payload for
	// literal leaves, set directly by the parser from convert.Token so the
	// semantic generator never has to re-parse literal text.
	IntValue   uint64
	IsUnsigned bool
	IsLong     int
	FloatValue float64
	StrValue   string
}

// New creates a leaf or interior node.
func New(kind, text string, pos source.Pos, children ...*Node) *Node {
	return &Node{Kind: kind, Text: text, Pos: pos, Children: children}
}

// Equal reports structural equality: same kind, text, and recursively
// equal children, ignoring source location. Used by tests that compare a
// parsed tree against an expected shape without hard-coding positions.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Text != b.Text || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Child returns the i'th child, or nil if out of range (used pervasively
// by the semantic generator's dispatch, where a node's shape is implied by
// its Kind rather than re-validated at every access).
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}
