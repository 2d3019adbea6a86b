package value_test

import (
	"testing"

	"github.com/student/nanocc/internal/types"
	"github.com/student/nanocc/internal/value"
)

func TestUnsignedTruncation(t *testing.T) {
	v := value.NewIntConstant(types.TUChar, 257)
	if v.IntPayload != 1 {
		t.Fatalf("expected truncation to 1, got %d", v.IntPayload)
	}
}

func TestSignedWrapThroughUnsignedSlot(t *testing.T) {
	a := value.NewIntConstant(types.TInt, uint64(int64(2147483647)))
	b := value.NewIntConstant(types.TInt, 1)
	sum := value.FoldBinary("+", a, b, types.TInt)
	if int32(sum.IntPayload) != -2147483648 {
		t.Fatalf("expected signed overflow to wrap, got %d", int32(sum.IntPayload))
	}
}

func TestDivisionByZeroYieldsTypedZero(t *testing.T) {
	a := value.NewIntConstant(types.TInt, 10)
	b := value.NewIntConstant(types.TInt, 0)
	got := value.FoldBinary("/", a, b, types.TInt)
	if got.IntPayload != 0 {
		t.Fatalf("expected typed zero, got %d", got.IntPayload)
	}
}

func TestRelationalProducesIntConstant(t *testing.T) {
	a := value.NewIntConstant(types.TInt, 3)
	b := value.NewIntConstant(types.TInt, 5)
	got := value.FoldBinary("<", a, b, types.TInt)
	if got.Type != types.TInt || got.IntPayload != 1 {
		t.Fatalf("expected int-typed true, got %+v", got)
	}
}

func TestFloatArithmetic(t *testing.T) {
	a := value.NewFloatConstant(types.TDouble, 1.5)
	b := value.NewFloatConstant(types.TDouble, 2.5)
	got := value.FoldBinary("+", a, b, types.TDouble)
	if got.FloatPayload != 4.0 {
		t.Fatalf("expected 4.0, got %v", got.FloatPayload)
	}
}
