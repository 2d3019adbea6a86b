// Package types implements the type descriptors the semantic generator
// checks against: basic arithmetic types, pointers, arrays, tagged
// aggregates (struct/union/enum), and function types, each fully populated
// with size and alignment at construction.
package types

// Kind discriminates the type descriptor variants.
type Kind int

const (
	Void Kind = iota
	Char
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	Float
	Double
	LongDouble
	Pointer
	Array
	Struct
	Union
	Enum
	Function
)

// Type is an immutable type descriptor. Aggregate types carry a Tag used
// for tag-based compatibility and a pointer to a shared Fields record so a
// forward declaration and its later completion are the same identity.
type Type struct {
	Kind     Kind
	Pointee  *Type // Pointer
	Elem     *Type // Array
	Len      int   // Array; -1 if unknown (incomplete)
	Tag      string
	Fields   *FieldList // Struct/Union
	Return   *Type      // Function
	Params   []*Type    // Function
	Variadic bool       // Function

	Const    bool
	Volatile bool
}

// FieldList is the shared, mutable payload behind a struct/union tag: a
// forward declaration and its later completion are the same *FieldList, so
// every *Type built from the tag observes completion without rebuilding.
type FieldList struct {
	Names   []string
	Types   []*Type
	Offsets []int // valid for struct; unused for union
	Size    int
	Align   int
}

func (f *FieldList) complete() bool { return f != nil && len(f.Names) > 0 }

// basic constructs a primitive type value; basic types are interned so
// pointer/array construction can compare element kinds cheaply.
func basic(k Kind) *Type { return &Type{Kind: k} }

var (
	TVoid       = basic(Void)
	TChar       = basic(Char)
	TSChar      = basic(SChar)
	TUChar      = basic(UChar)
	TShort      = basic(Short)
	TUShort     = basic(UShort)
	TInt        = basic(Int)
	TUInt       = basic(UInt)
	TLong       = basic(Long)
	TULong      = basic(ULong)
	TFloat      = basic(Float)
	TDouble     = basic(Double)
	TLongDouble = basic(LongDouble)
)

// NewPointer builds a pointer-to-t type.
func NewPointer(t *Type) *Type { return &Type{Kind: Pointer, Pointee: t} }

// NewArray builds an array-of-t type; length -1 means unknown (incomplete).
func NewArray(t *Type, length int) *Type { return &Type{Kind: Array, Elem: t, Len: length} }

// NewFunction builds a function type.
func NewFunction(ret *Type, params []*Type, variadic bool) *Type {
	return &Type{Kind: Function, Return: ret, Params: params, Variadic: variadic}
}

// NewTaggedForward creates an incomplete struct/union/enum identified by
// tag, with a fresh empty FieldList that a later NewTaggedComplete call on
// the same tag will populate in place.
func NewTaggedForward(kind Kind, tag string) *Type {
	return &Type{Kind: kind, Tag: tag, Fields: &FieldList{}}
}

// CompleteStruct/CompleteUnion fill in an existing (possibly forward
// declared) FieldList with field layout, per §4.2's sequential-offset rule.
func CompleteStruct(fl *FieldList, names []string, fieldTypes []*Type) {
	offsets := make([]int, len(names))
	offset := 0
	maxAlign := 1
	for i, t := range fieldTypes {
		a := Align(t)
		if a > maxAlign {
			maxAlign = a
		}
		offset = alignUp(offset, a)
		offsets[i] = offset
		offset += Size(t)
	}
	size := alignUp(offset, maxAlign)
	fl.Names = names
	fl.Types = fieldTypes
	fl.Offsets = offsets
	fl.Size = size
	fl.Align = maxAlign
}

func CompleteUnion(fl *FieldList, names []string, fieldTypes []*Type) {
	maxSize, maxAlign := 0, 1
	for _, t := range fieldTypes {
		if s := Size(t); s > maxSize {
			maxSize = s
		}
		if a := Align(t); a > maxAlign {
			maxAlign = a
		}
	}
	fl.Names = names
	fl.Types = fieldTypes
	fl.Offsets = make([]int, len(names))
	fl.Size = maxSize
	fl.Align = maxAlign
}

func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	rem := offset % align
	if rem == 0 {
		return offset
	}
	return offset + (align - rem)
}

// Size returns a type's size in bytes; 0 for an incomplete type.
func Size(t *Type) int {
	switch t.Kind {
	case Void:
		return 0
	case Char, SChar, UChar:
		return 1
	case Short, UShort:
		return 2
	case Int, UInt, Float:
		return 4
	case Long, ULong, Double, LongDouble, Pointer:
		return 8
	case Enum:
		return 4
	case Array:
		if t.Len < 0 {
			return 0
		}
		return t.Len * Size(t.Elem)
	case Struct, Union:
		if t.Fields == nil {
			return 0
		}
		return t.Fields.Size
	case Function:
		return 0
	}
	return 0
}

// Align returns a type's alignment in bytes.
func Align(t *Type) int {
	switch t.Kind {
	case Struct, Union:
		if t.Fields == nil {
			return 1
		}
		return t.Fields.Align
	case Array:
		return Align(t.Elem)
	default:
		return Size(t)
	}
}

// IsComplete reports whether t has a known size (incomplete aggregates and
// unknown-length arrays are not).
func IsComplete(t *Type) bool {
	switch t.Kind {
	case Void, Function:
		return false
	case Array:
		return t.Len >= 0 && IsComplete(t.Elem)
	case Struct, Union:
		return t.Fields.complete()
	default:
		return true
	}
}

// IsArithmetic reports whether t participates in arithmetic conversion.
func IsArithmetic(t *Type) bool {
	switch t.Kind {
	case Char, SChar, UChar, Short, UShort, Int, UInt, Long, ULong, Float, Double, LongDouble, Enum:
		return true
	}
	return false
}

// IsInteger reports whether t is an integer (or enum) type.
func IsInteger(t *Type) bool {
	switch t.Kind {
	case Char, SChar, UChar, Short, UShort, Int, UInt, Long, ULong, Enum:
		return true
	}
	return false
}

func IsFloat(t *Type) bool {
	return t.Kind == Float || t.Kind == Double || t.Kind == LongDouble
}

func IsUnsignedInt(t *Type) bool {
	switch t.Kind {
	case UChar, UShort, UInt, ULong:
		return true
	}
	return false
}

func IsScalar(t *Type) bool {
	return IsArithmetic(t) || t.Kind == Pointer
}

func IsPointer(t *Type) bool { return t.Kind == Pointer }

// Promote implements integer promotion: char/short-family and enum widen
// to int; everything else is unchanged.
func Promote(t *Type) *Type {
	switch t.Kind {
	case Char, SChar, UChar, Short, UShort, Enum:
		return TInt
	}
	return t
}

// rank orders arithmetic kinds for CommonArithmetic's priority table.
var rank = map[Kind]int{
	LongDouble: 7, Double: 6, Float: 5,
	ULong: 4, Long: 3, UInt: 2, Int: 1,
}

// CommonArithmetic computes the common type of two arithmetic operands
// per §4.2's priority order, after integer promotion.
func CommonArithmetic(a, b *Type) *Type {
	a, b = Promote(a), Promote(b)
	ra, rb := rankOf(a), rankOf(b)
	if ra >= rb {
		return a
	}
	return b
}

func rankOf(t *Type) int {
	if r, ok := rank[t.Kind]; ok {
		return r
	}
	return 1 // promoted integer types not explicitly in the table rank as int
}

// Compatible implements §4.2's structural/tag compatibility rules.
func Compatible(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if (a.Kind == Enum && IsInteger(b)) || (b.Kind == Enum && IsInteger(a)) {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Pointer:
		return a.Const == b.Const && a.Volatile == b.Volatile && Compatible(a.Pointee, b.Pointee)
	case Array:
		if !Compatible(a.Elem, b.Elem) {
			return false
		}
		return a.Len < 0 || b.Len < 0 || a.Len == b.Len
	case Function:
		if !Compatible(a.Return, b.Return) || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Compatible(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case Struct, Union, Enum:
		return a.Tag == b.Tag
	default:
		return true
	}
}

// FieldIndex returns the index of name in an aggregate's field list, or -1.
func FieldIndex(t *Type, name string) int {
	if t.Fields == nil {
		return -1
	}
	for i, n := range t.Fields.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// String renders a type for diagnostics; IR type text is produced by the
// semantic generator separately.
func (t *Type) String() string {
	switch t.Kind {
	case Void:
		return "void"
	case Char:
		return "char"
	case SChar:
		return "signed char"
	case UChar:
		return "unsigned char"
	case Short:
		return "short"
	case UShort:
		return "unsigned short"
	case Int:
		return "int"
	case UInt:
		return "unsigned int"
	case Long:
		return "long"
	case ULong:
		return "unsigned long"
	case Float:
		return "float"
	case Double:
		return "double"
	case LongDouble:
		return "long double"
	case Pointer:
		return t.Pointee.String() + "*"
	case Array:
		return t.Elem.String() + "[]"
	case Struct:
		return "struct " + t.Tag
	case Union:
		return "union " + t.Tag
	case Enum:
		return "enum " + t.Tag
	case Function:
		return "function"
	}
	return "?"
}
