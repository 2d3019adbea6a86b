package lexer

import "container/list"

// List is the doubly linked, splice-capable pp-token sequence the
// preprocessor rewrites in place. The design note on "linked-token
// preprocessing" calls for O(1) splice at arbitrary positions (an
// `#include` inserts an arbitrary number of tokens, and macro expansion
// replaces an arbitrary span); container/list gives us that without a
// hand-rolled intrusive list.
type List struct {
	l *list.List
}

// NewList creates an empty token list.
func NewList() *List {
	return &List{l: list.New()}
}

// PushBack appends a token and returns its element handle.
func (lst *List) PushBack(t Token) *list.Element {
	return lst.l.PushBack(t)
}

// InsertBefore inserts a token before mark and returns its element handle.
func (lst *List) InsertBefore(t Token, mark *list.Element) *list.Element {
	return lst.l.InsertBefore(t, mark)
}

// InsertAfter inserts a token after mark and returns its element handle.
func (lst *List) InsertAfter(t Token, mark *list.Element) *list.Element {
	return lst.l.InsertAfter(t, mark)
}

// Remove deletes e from the list.
func (lst *List) Remove(e *list.Element) {
	lst.l.Remove(e)
}

// Front returns the first element, or nil if the list is empty.
func (lst *List) Front() *list.Element { return lst.l.Front() }

// Back returns the last element, or nil if the list is empty.
func (lst *List) Back() *list.Element { return lst.l.Back() }

// Len returns the number of tokens currently in the list.
func (lst *List) Len() int { return lst.l.Len() }

// At returns the Token stored at e.
func At(e *list.Element) Token { return e.Value.(Token) }

// Set overwrites the Token stored at e (used when reclassifying a token
// produced by ## paste, without changing its list position).
func Set(e *list.Element, t Token) { e.Value = t }

// SpliceBefore moves every element of src to immediately before mark in
// lst, leaving src empty. Used by #include splicing and by macro expansion
// to insert a replacement sequence in place of the invocation span.
func (lst *List) SpliceBefore(src *List, mark *list.Element) {
	for e := src.l.Front(); e != nil; {
		next := e.Next()
		src.l.Remove(e)
		if mark != nil {
			lst.l.InsertBefore(e.Value, mark)
		} else {
			lst.l.PushBack(e.Value)
		}
		e = next
	}
}

// RemoveRange deletes every element from first through last (inclusive).
func (lst *List) RemoveRange(first, last *list.Element) {
	for e := first; e != nil; {
		next := e.Next()
		lst.l.Remove(e)
		if e == last {
			break
		}
		e = next
	}
}

// ToSlice materializes the list as a slice of tokens, used once
// preprocessing has finished and no further splicing is needed.
func (lst *List) ToSlice() []Token {
	out := make([]Token, 0, lst.l.Len())
	for e := lst.l.Front(); e != nil; e = e.Next() {
		out = append(out, At(e))
	}
	return out
}

// FromSlice builds a List from a slice of tokens, used to seed a fresh
// sub-sequence (e.g. a macro's stored replacement list or an argument).
func FromSlice(toks []Token) *List {
	lst := NewList()
	for _, t := range toks {
		lst.PushBack(t)
	}
	return lst
}
