// Package irgen is the IR builder (§4.7): an append-only text emitter that
// materializes SSA-style instructions, labeled basic blocks, structure type
// definitions, global constant strings, and function bodies, with a
// "silence" mode for compile-time-only evaluation.
package irgen

import (
	"fmt"
	"strconv"
	"strings"
)

// Builder holds the four IR text buffers and the monotonically increasing
// name counters; concatenated once at the end in fixed order (types,
// globals, function bodies, external declarations), per §5/§9.
type Builder struct {
	types   strings.Builder
	globals strings.Builder
	funcs   strings.Builder
	externs strings.Builder

	tempCounter  int
	globalCount  int
	labelCount   int

	silence bool

	cur *functionState

	declaredStructs map[string]bool
	declaredExterns map[string]bool
	stringPool      map[string]string
}

// functionState accumulates one function's prologue (stack allocations)
// and body while it is being generated; FinishFunction splices the two and
// prepends the signature.
type functionState struct {
	name        string
	sig         string
	prologue    []string
	body        strings.Builder
	blockOpen   bool // a label has been emitted and awaits a terminator
	terminated  bool
	curLabel    string
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		declaredStructs: map[string]bool{},
		declaredExterns: map[string]bool{},
		stringPool:      map[string]string{},
	}
}

// SetSilence toggles silence mode: while set, every Emit* call is a no-op
// on the text buffers (name minting still happens so callers can build
// consistent Value descriptors), used to evaluate sizeof and other
// compile-time-only sub-expressions without polluting the output.
func (b *Builder) SetSilence(v bool) { b.silence = v }

// Silenced reports whether silence mode is active.
func (b *Builder) Silenced() bool { return b.silence }

// NewTemp mints a fresh SSA register name.
func (b *Builder) NewTemp() string {
	b.tempCounter++
	return "%_" + strconv.Itoa(b.tempCounter)
}

// NewGlobalName mints a fresh global name.
func (b *Builder) NewGlobalName() string {
	b.globalCount++
	return "@_" + strconv.Itoa(b.globalCount)
}

// NewLabel mints a fresh basic-block label (without the leading '%').
func (b *Builder) NewLabel() string {
	b.labelCount++
	return "l_" + strconv.Itoa(b.labelCount)
}

func (b *Builder) emit(line string) {
	if b.silence || b.cur == nil {
		return
	}
	b.cur.body.WriteString("  ")
	b.cur.body.WriteString(line)
	b.cur.body.WriteString("\n")
}

// StartFunction begins accumulating a new function body; sig is the full
// "define <ret> @name(<params>)" header line without the trailing brace.
func (b *Builder) StartFunction(name, sig string) {
	b.cur = &functionState{name: name, sig: sig}
}

// Alloca records a stack slot in the function's prologue and returns the
// pointer name bound to it.
func (b *Builder) Alloca(irType string) string {
	name := b.NewTemp()
	if !b.silence && b.cur != nil {
		b.cur.prologue = append(b.cur.prologue, fmt.Sprintf("  %s = alloca %s", name, irType))
	}
	return name
}

// EmitLabel closes the previous block (inserting a fall-through branch if
// it wasn't already terminated) and opens a new one under the given label.
func (b *Builder) EmitLabel(label string) {
	if b.silence || b.cur == nil {
		return
	}
	if b.cur.blockOpen && !b.cur.terminated {
		b.cur.body.WriteString("  br label %" + label + "\n")
	}
	b.cur.body.WriteString(label + ":\n")
	b.cur.blockOpen = true
	b.cur.terminated = false
	b.cur.curLabel = label
}

// CurrentLabel reports the label of the basic block currently being
// emitted into, used by ?: and && / || lowering to build correct phi
// predecessor lists when operand evaluation itself opens further blocks.
func (b *Builder) CurrentLabel() string {
	if b.cur == nil {
		return ""
	}
	return b.cur.curLabel
}

// Terminated reports whether the current block already ended in a
// terminator (a return/break/continue/goto inside an operand).
func (b *Builder) Terminated() bool {
	if b.cur == nil {
		return true
	}
	return b.cur.terminated
}

func (b *Builder) markTerminated() {
	if b.cur != nil {
		b.cur.terminated = true
	}
}

func (b *Builder) EmitBr(target string) {
	b.emit("br label %" + target)
	b.markTerminated()
}

func (b *Builder) EmitCondBr(cond, thenLabel, elseLabel string) {
	b.emit(fmt.Sprintf("br i1 %s, label %%%s, label %%%s", cond, thenLabel, elseLabel))
	b.markTerminated()
}

func (b *Builder) EmitRet(irType, val string) {
	b.emit("ret " + irType + " " + val)
	b.markTerminated()
}

func (b *Builder) EmitRetVoid() {
	b.emit("ret void")
	b.markTerminated()
}

// EmitBinOp appends a binary arithmetic/bitwise instruction and returns the
// result register.
func (b *Builder) EmitBinOp(op, irType, lhs, rhs string) string {
	dst := b.NewTemp()
	b.emit(fmt.Sprintf("%s = %s %s %s, %s", dst, op, irType, lhs, rhs))
	return dst
}

// EmitCmp appends an icmp/fcmp instruction (mnemonic already includes the
// "icmp"/"fcmp" mnemonic and predicate, e.g. "icmp slt").
func (b *Builder) EmitCmp(mnemonic, irType, lhs, rhs string) string {
	dst := b.NewTemp()
	b.emit(fmt.Sprintf("%s = %s %s %s, %s", dst, mnemonic, irType, lhs, rhs))
	return dst
}

func (b *Builder) EmitUnary(op, irType, operand string) string {
	dst := b.NewTemp()
	b.emit(fmt.Sprintf("%s = %s %s %s", dst, op, irType, operand))
	return dst
}

func (b *Builder) EmitLoad(irType, ptr string) string {
	dst := b.NewTemp()
	b.emit(fmt.Sprintf("%s = load %s, %s* %s", dst, irType, irType, ptr))
	return dst
}

func (b *Builder) EmitStore(irType, val, ptr string) {
	b.emit(fmt.Sprintf("store %s %s, %s* %s", irType, val, irType, ptr))
}

// EmitGEP emits a getelementptr-inbounds instruction addressing a field or
// array element and returns the resulting pointer register.
func (b *Builder) EmitGEP(irType, base string, indices []string) string {
	dst := b.NewTemp()
	b.emit(fmt.Sprintf("%s = getelementptr inbounds %s, %s* %s, %s", dst, irType, irType, base, strings.Join(indices, ", ")))
	return dst
}

func (b *Builder) EmitConv(op, fromType, val, toType string) string {
	dst := b.NewTemp()
	b.emit(fmt.Sprintf("%s = %s %s %s to %s", dst, op, fromType, val, toType))
	return dst
}

// EmitCall appends a value-returning call instruction.
func (b *Builder) EmitCall(retType, callee string, sigArgs []string, args []string) string {
	dst := b.NewTemp()
	b.emit(fmt.Sprintf("%s = call %s %s(%s)", dst, retType, callee, strings.Join(buildArgList(sigArgs, args), ", ")))
	return dst
}

// EmitCallVoid appends a void call instruction.
func (b *Builder) EmitCallVoid(callee string, sigArgs []string, args []string) {
	b.emit(fmt.Sprintf("call void %s(%s)", callee, strings.Join(buildArgList(sigArgs, args), ", ")))
}

func buildArgList(sigArgs, args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = sigArgs[i] + " " + a
	}
	return out
}

// EmitPhi appends a phi node merging values from multiple predecessor
// blocks.
func (b *Builder) EmitPhi(irType string, incoming [][2]string) string {
	dst := b.NewTemp()
	var parts []string
	for _, in := range incoming {
		parts = append(parts, fmt.Sprintf("[ %s, %%%s ]", in[0], in[1]))
	}
	b.emit(fmt.Sprintf("%s = phi %s %s", dst, irType, strings.Join(parts, ", ")))
	return dst
}

// EmitSwitch appends a switch instruction over an integer value.
func (b *Builder) EmitSwitch(irType, val, defaultLabel string, cases [][2]string) {
	var parts []string
	for _, c := range cases {
		parts = append(parts, fmt.Sprintf("%s %s, label %%%s", irType, c[0], c[1]))
	}
	b.emit(fmt.Sprintf("switch %s %s, label %%%s [ %s ]", irType, val, defaultLabel, strings.Join(parts, " ")))
	b.markTerminated()
}

// DefineStruct appends a named structure type definition once per name.
func (b *Builder) DefineStruct(name string, fieldIRTypes []string) {
	if b.declaredStructs[name] {
		return
	}
	b.declaredStructs[name] = true
	b.types.WriteString(fmt.Sprintf("%%struct.%s = type { %s }\n", name, strings.Join(fieldIRTypes, ", ")))
}

// DefineStringGlobal interns a string literal as a private unnamed global
// and returns its IR name, reusing the same global for identical text.
func (b *Builder) DefineStringGlobal(decoded string) (name string, length int) {
	if g, ok := b.stringPool[decoded]; ok {
		return g, len(decoded) + 1
	}
	g := b.NewGlobalName()
	b.stringPool[decoded] = g
	escaped := escapeIRString(decoded)
	b.globals.WriteString(fmt.Sprintf("%s = private unnamed_addr constant [%d x i8] c\"%s\\00\"\n", g, len(decoded)+1, escaped))
	return g, len(decoded) + 1
}

func escapeIRString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			b.WriteString(fmt.Sprintf("\\%02X", c))
			continue
		}
		if c < 0x20 || c >= 0x7f {
			b.WriteString(fmt.Sprintf("\\%02X", c))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// DefineGlobal appends a global variable definition with an explicit
// initializer literal (or "zeroinitializer"/"null" for an absent one).
func (b *Builder) DefineGlobal(name, irType, initLiteral string) {
	b.globals.WriteString(fmt.Sprintf("%s = global %s %s\n", name, irType, initLiteral))
}

// DeclareExtern appends an external function declaration once per
// signature text.
func (b *Builder) DeclareExtern(sig string) {
	if b.declaredExterns[sig] {
		return
	}
	b.declaredExterns[sig] = true
	b.externs.WriteString("declare " + sig + "\n")
}

// FinishFunction prepends the signature and prologue to the accumulated
// body, closes out any unterminated final block with an unreachable
// instruction (a function that falls off its end without a return is a
// generator bug, not a user error, caught here defensively), and appends
// the whole definition to the funcs buffer.
func (b *Builder) FinishFunction() {
	f := b.cur
	if f == nil {
		return
	}
	if f.blockOpen && !f.terminated {
		f.body.WriteString("  unreachable\n")
	}
	b.funcs.WriteString(f.sig + " {\n")
	for _, line := range f.prologue {
		b.funcs.WriteString(line + "\n")
	}
	b.funcs.WriteString(f.body.String())
	b.funcs.WriteString("}\n\n")
	b.cur = nil
}

// String concatenates the four buffers in the fixed order §5/§9 require:
// type definitions, globals, function bodies, external declarations.
func (b *Builder) String() string {
	var out strings.Builder
	out.WriteString(b.types.String())
	out.WriteString(b.globals.String())
	out.WriteString(b.funcs.String())
	out.WriteString(b.externs.String())
	return out.String()
}
