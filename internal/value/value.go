// Package value implements the value descriptor every expression node
// produces, and the constant-folding discipline §4.3 specifies for
// arithmetic on compile-time constants.
package value

import (
	"github.com/student/nanocc/internal/types"
)

// Value is what every expression lowers to: an IR operand name, its type,
// and flags for lvalue-ness and compile-time constancy. Constants carry
// their payload directly rather than an IR name, since they fold away.
type Value struct {
	Name       string // IR operand, e.g. "%_3" or "@_7"; empty for constants
	Type       *types.Type
	IsLValue   bool
	IsConstant bool

	IntPayload   uint64
	FloatPayload float64
	IsVoidNull   bool // null-pointer-constant marker (implicitly converts to any pointer type)
}

// NewRValue builds a non-constant runtime value bound to an IR name.
func NewRValue(name string, t *types.Type) Value { return Value{Name: name, Type: t} }

// NewLValue builds an lvalue (storage), whose Name refers to a pointer to
// storage of type t.
func NewLValue(name string, t *types.Type) Value { return Value{Name: name, Type: t, IsLValue: true} }

// NewIntConstant builds a constant integer value, truncating the payload
// to the type's bit width on write, per the "i_init" discipline in §4.3.
func NewIntConstant(t *types.Type, v uint64) Value {
	return Value{Type: t, IsConstant: true, IntPayload: truncate(t, v)}
}

// NewFloatConstant builds a constant floating-point value.
func NewFloatConstant(t *types.Type, v float64) Value {
	return Value{Type: t, IsConstant: true, FloatPayload: v}
}

// NewVoidNull builds the null-pointer-constant marker produced by a
// constant-zero expression of pointer-compatible type.
func NewVoidNull() Value {
	return Value{Type: types.TVoid, IsConstant: true, IsVoidNull: true}
}

// truncate writes v through the unsigned slot at the type's bit width,
// which is how unsigned truncation and (via reinterpretation) signed wrap
// are both modeled: both directions go through the same u64 slot.
func truncate(t *types.Type, v uint64) uint64 {
	switch types.Size(t) {
	case 1:
		return v & 0xff
	case 2:
		return v & 0xffff
	case 4:
		return v & 0xffffffff
	default:
		return v
	}
}

// AsSigned reinterprets the payload as a signed value of the type's width,
// sign-extended to int64, for signed arithmetic and comparisons.
func (v Value) AsSigned() int64 {
	switch types.Size(v.Type) {
	case 1:
		return int64(int8(v.IntPayload))
	case 2:
		return int64(int16(v.IntPayload))
	case 4:
		return int64(int32(v.IntPayload))
	default:
		return int64(v.IntPayload)
	}
}

// FoldBinary implements the constant-folding discipline of §4.3 for the
// binary operator op over two already-converted constant operands of
// result type t (the caller has already applied promotion / common-type
// conversion). Division and modulo by zero yield a typed zero rather than
// trapping, matching the reference discipline for constant contexts.
func FoldBinary(op string, a, b Value, t *types.Type) Value {
	if types.IsFloat(t) {
		x, y := a.asFloat(), b.asFloat()
		switch op {
		case "+":
			return NewFloatConstant(t, x+y)
		case "-":
			return NewFloatConstant(t, x-y)
		case "*":
			return NewFloatConstant(t, x*y)
		case "/":
			if y == 0 {
				return NewFloatConstant(t, 0)
			}
			return NewFloatConstant(t, x/y)
		case "==":
			return NewIntConstant(types.TInt, boolBit(x == y))
		case "!=":
			return NewIntConstant(types.TInt, boolBit(x != y))
		case "<":
			return NewIntConstant(types.TInt, boolBit(x < y))
		case ">":
			return NewIntConstant(types.TInt, boolBit(x > y))
		case "<=":
			return NewIntConstant(types.TInt, boolBit(x <= y))
		case ">=":
			return NewIntConstant(types.TInt, boolBit(x >= y))
		}
	}

	if types.IsUnsignedInt(t) {
		x, y := a.IntPayload, b.IntPayload
		switch op {
		case "+":
			return NewIntConstant(t, x+y)
		case "-":
			return NewIntConstant(t, x-y)
		case "*":
			return NewIntConstant(t, x*y)
		case "/":
			if y == 0 {
				return NewIntConstant(t, 0)
			}
			return NewIntConstant(t, x/y)
		case "%":
			if y == 0 {
				return NewIntConstant(t, 0)
			}
			return NewIntConstant(t, x%y)
		case "&":
			return NewIntConstant(t, x&y)
		case "|":
			return NewIntConstant(t, x|y)
		case "^":
			return NewIntConstant(t, x^y)
		case "<<":
			return NewIntConstant(t, x<<y)
		case ">>":
			return NewIntConstant(t, x>>y)
		case "==":
			return NewIntConstant(types.TInt, boolBit(x == y))
		case "!=":
			return NewIntConstant(types.TInt, boolBit(x != y))
		case "<":
			return NewIntConstant(types.TInt, boolBit(x < y))
		case ">":
			return NewIntConstant(types.TInt, boolBit(x > y))
		case "<=":
			return NewIntConstant(types.TInt, boolBit(x <= y))
		case ">=":
			return NewIntConstant(types.TInt, boolBit(x >= y))
		}
	}

	// Signed integer arithmetic: compute in signed 64-bit, write back
	// through the unsigned slot (truncation happens inside NewIntConstant).
	x, y := a.AsSigned(), b.AsSigned()
	switch op {
	case "+":
		return NewIntConstant(t, uint64(x+y))
	case "-":
		return NewIntConstant(t, uint64(x-y))
	case "*":
		return NewIntConstant(t, uint64(x*y))
	case "/":
		if y == 0 {
			return NewIntConstant(t, 0)
		}
		return NewIntConstant(t, uint64(x/y))
	case "%":
		if y == 0 {
			return NewIntConstant(t, 0)
		}
		return NewIntConstant(t, uint64(x%y))
	case "&":
		return NewIntConstant(t, uint64(x&y))
	case "|":
		return NewIntConstant(t, uint64(x|y))
	case "^":
		return NewIntConstant(t, uint64(x^y))
	case "<<":
		return NewIntConstant(t, uint64(x<<uint64(y)))
	case ">>":
		return NewIntConstant(t, uint64(x>>uint64(y)))
	case "==":
		return NewIntConstant(types.TInt, boolBit(x == y))
	case "!=":
		return NewIntConstant(types.TInt, boolBit(x != y))
	case "<":
		return NewIntConstant(types.TInt, boolBit(x < y))
	case ">":
		return NewIntConstant(types.TInt, boolBit(x > y))
	case "<=":
		return NewIntConstant(types.TInt, boolBit(x <= y))
	case ">=":
		return NewIntConstant(types.TInt, boolBit(x >= y))
	}
	return NewIntConstant(t, 0)
}

func (v Value) asFloat() float64 {
	if types.IsFloat(v.Type) {
		return v.FloatPayload
	}
	if types.IsUnsignedInt(v.Type) {
		return float64(v.IntPayload)
	}
	return float64(v.AsSigned())
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// FoldUnary implements constant folding for unary minus, bitwise not, and
// logical not.
func FoldUnary(op string, a Value, t *types.Type) Value {
	switch op {
	case "-":
		if types.IsFloat(t) {
			return NewFloatConstant(t, -a.asFloat())
		}
		return NewIntConstant(t, uint64(-a.AsSigned()))
	case "~":
		return NewIntConstant(t, uint64(^a.AsSigned()))
	case "!":
		var zero bool
		if types.IsFloat(a.Type) {
			zero = a.FloatPayload == 0
		} else {
			zero = a.IntPayload == 0
		}
		return NewIntConstant(types.TInt, boolBit(zero))
	}
	return a
}

// ConvertConstant numerically converts a constant value to type t, used
// for pure-constant conversions (no IR emitted), per §4.6.
func ConvertConstant(v Value, t *types.Type) Value {
	if v.IsVoidNull && t.Kind == types.Pointer {
		return Value{Type: t, IsConstant: true, IsVoidNull: true}
	}
	if types.IsFloat(t) {
		return NewFloatConstant(t, v.asFloat())
	}
	if types.IsFloat(v.Type) {
		if types.IsUnsignedInt(t) {
			return NewIntConstant(t, uint64(v.FloatPayload))
		}
		return NewIntConstant(t, uint64(int64(v.FloatPayload)))
	}
	return NewIntConstant(t, v.IntPayload)
}
