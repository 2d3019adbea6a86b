package sema

import (
	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/types"
)

// Symbol is an entry in the identifier or tag namespace.
type Symbol struct {
	Name     string
	Type     *types.Type
	IRName   string // storage pointer (locals/globals) or callee name (functions)
	IsFunc   bool
	IsEnum   bool   // enumeration constant: IRName unused, EnumVal holds the value
	EnumVal  int64
}

// Namespace is the two-level {current, enclosing} map §3's "Symbol tables"
// data model describes: Def only ever checks/writes current, so the same
// name can be legally redeclared once a new scope has been entered; Get
// checks current then falls back to enclosing.
type Namespace struct {
	current   map[string]*Symbol
	enclosing map[string]*Symbol
}

// NewNamespace creates an empty namespace (used for the translation unit's
// file scope and the function-global label namespace).
func NewNamespace() Namespace {
	return Namespace{current: map[string]*Symbol{}, enclosing: map[string]*Symbol{}}
}

// Enter opens a nested scope: the current scope's bindings flatten into the
// new enclosing map (so outer names are still visible), and a fresh current
// map starts empty, ready to accept this block's own declarations.
func (n Namespace) Enter() Namespace {
	merged := make(map[string]*Symbol, len(n.current)+len(n.enclosing))
	for k, v := range n.enclosing {
		merged[k] = v
	}
	for k, v := range n.current {
		merged[k] = v
	}
	return Namespace{current: map[string]*Symbol{}, enclosing: merged}
}

// Def binds name in the current scope; it fails if name already exists
// there (redefinition in the same scope), matching def_* in §3.
func (n Namespace) Def(name string, sym *Symbol) bool {
	if _, exists := n.current[name]; exists {
		return false
	}
	n.current[name] = sym
	return true
}

// Get searches current then enclosing.
func (n Namespace) Get(name string) (*Symbol, bool) {
	if s, ok := n.current[name]; ok {
		return s, true
	}
	if s, ok := n.enclosing[name]; ok {
		return s, true
	}
	return nil, false
}

// SwitchState tracks the per-switch case table §3 describes, reset at each
// switch entry: which constant values have already been claimed by a case
// label, whether a default has been seen, and the IR label minted for each
// case/default node (keyed by node identity so nested switches, which get
// their own SwitchState, never collide with an enclosing one).
type SwitchState struct {
	Values       map[int64]bool
	HasDflt      bool
	Labels       map[*ast.Node]string
	Order        [][2]string // (case literal, label) pairs in source order, for the switch instruction's jump table
	DefaultLabel string
}

// Context threads everything a statement/expression lowering call needs
// besides the AST node itself: the identifier and tag namespaces, and the
// current loop/switch break and continue targets. It is deliberately a
// plain value copied at every loop/switch entry (§5 "context copy-on-enter"),
// so overriding break/continue for one nested construct never disturbs the
// enclosing one.
type Context struct {
	Idents        Namespace
	Tags          Namespace
	BreakLabel    string
	ContinueLabel string
	Switch        *SwitchState
}
