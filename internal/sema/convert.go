package sema

import (
	"strconv"

	"github.com/student/nanocc/internal/types"
	"github.com/student/nanocc/internal/value"
)

// irType renders a types.Type as the IR's textual type surface.
func (g *Generator) irType(t *types.Type) string {
	switch t.Kind {
	case types.Void:
		return "void"
	case types.Char, types.SChar, types.UChar:
		return "i8"
	case types.Short, types.UShort:
		return "i16"
	case types.Int, types.UInt, types.Enum:
		return "i32"
	case types.Long, types.ULong:
		return "i64"
	case types.Float:
		return "float"
	case types.Double, types.LongDouble:
		return "double"
	case types.Pointer:
		if t.Pointee.Kind == types.Void {
			return "i8*"
		}
		return g.irType(t.Pointee) + "*"
	case types.Array:
		return "[" + strconv.Itoa(t.Len) + " x " + g.irType(t.Elem) + "]"
	case types.Struct, types.Union:
		return "%struct." + g.structName(t)
	}
	return "i32"
}

// structName assigns and caches a stable IR name for an aggregate's shared
// FieldList, synthesizing one for anonymous aggregates.
func (g *Generator) structName(t *types.Type) string {
	if name, ok := g.structNames[t.Fields]; ok {
		return name
	}
	name := t.Tag
	if name == "" {
		g.anonCount++
		name = "anon." + strconv.Itoa(g.anonCount)
	}
	g.structNames[t.Fields] = name
	if types.IsComplete(t) {
		var fieldIR []string
		for _, ft := range t.Fields.Types {
			fieldIR = append(fieldIR, g.irType(ft))
		}
		g.b.DefineStruct(name, fieldIR)
	}
	return name
}

// emitConvert converts a runtime (non-constant) value to type to, choosing
// the IR conversion op per §4.6: bitcast for same representation,
// trunc/sext/zext between integers, fptrunc/fpext between floats,
// sitofp/uitofp/fptosi/fptoui across the int/float boundary, inttoptr/
// ptrtoint/bitcast for pointers.
func (g *Generator) emitConvert(v value.Value, to *types.Type) value.Value {
	from := v.Type
	if types.Compatible(from, to) || (from.Kind == to.Kind && sameWidth(from, to)) {
		return value.Value{Name: v.Name, Type: to}
	}
	if to.Kind == types.Void {
		return value.Value{Type: to}
	}
	fromIR, toIR := g.irType(from), g.irType(to)

	switch {
	case types.IsFloat(from) && types.IsFloat(to):
		op := "fpext"
		if types.Size(to) < types.Size(from) {
			op = "fptrunc"
		}
		return value.NewRValue(g.b.EmitConv(op, fromIR, v.Name, toIR), to)
	case types.IsFloat(from) && types.IsInteger(to):
		op := "fptosi"
		if types.IsUnsignedInt(to) {
			op = "fptoui"
		}
		return value.NewRValue(g.b.EmitConv(op, fromIR, v.Name, toIR), to)
	case types.IsInteger(from) && types.IsFloat(to):
		op := "sitofp"
		if types.IsUnsignedInt(from) {
			op = "uitofp"
		}
		return value.NewRValue(g.b.EmitConv(op, fromIR, v.Name, toIR), to)
	case from.Kind == types.Pointer && types.IsInteger(to):
		return value.NewRValue(g.b.EmitConv("ptrtoint", fromIR, v.Name, toIR), to)
	case types.IsInteger(from) && to.Kind == types.Pointer:
		return value.NewRValue(g.b.EmitConv("inttoptr", fromIR, v.Name, toIR), to)
	case from.Kind == types.Pointer && to.Kind == types.Pointer:
		return value.NewRValue(g.b.EmitConv("bitcast", fromIR, v.Name, toIR), to)
	case types.IsInteger(from) && types.IsInteger(to):
		fs, ts := types.Size(from), types.Size(to)
		if ts == fs {
			return value.Value{Name: v.Name, Type: to}
		}
		if ts < fs {
			return value.NewRValue(g.b.EmitConv("trunc", fromIR, v.Name, toIR), to)
		}
		op := "sext"
		if types.IsUnsignedInt(from) {
			op = "zext"
		}
		return value.NewRValue(g.b.EmitConv(op, fromIR, v.Name, toIR), to)
	}
	return value.NewRValue(g.b.EmitConv("bitcast", fromIR, v.Name, toIR), to)
}

func sameWidth(a, b *types.Type) bool { return types.Size(a) == types.Size(b) }

// convertValue converts v to type to, folding the conversion numerically
// when v is a compile-time constant (§4.6's "pure-constant conversions are
// computed numerically"), and otherwise emitting a runtime instruction.
func (g *Generator) convertValue(v value.Value, to *types.Type) value.Value {
	if v.IsConstant {
		return value.ConvertConstant(v, to)
	}
	return g.emitConvert(v, to)
}
