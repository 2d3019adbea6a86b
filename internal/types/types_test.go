package types_test

import "testing"

import "github.com/student/nanocc/internal/types"

func TestBasicSizes(t *testing.T) {
	cases := map[*types.Type]int{
		types.TChar:   1,
		types.TShort:  2,
		types.TInt:    4,
		types.TLong:   8,
		types.TFloat:  4,
		types.TDouble: 8,
	}
	for ty, want := range cases {
		if got := types.Size(ty); got != want {
			t.Errorf("Size(%v) = %d, want %d", ty, got, want)
		}
	}
	if types.Size(types.NewPointer(types.TChar)) != 8 {
		t.Fatal("expected all pointers to be 8 bytes")
	}
}

func TestStructLayoutWithPadding(t *testing.T) {
	fl := &types.FieldList{}
	st := &types.Type{Kind: types.Struct, Tag: "p", Fields: fl}
	types.CompleteStruct(fl, []string{"a", "b"}, []*types.Type{types.TChar, types.TInt})
	if types.Size(st) != 8 {
		t.Fatalf("expected padded size 8, got %d", types.Size(st))
	}
	if fl.Offsets[1] != 4 {
		t.Fatalf("expected field b at offset 4, got %d", fl.Offsets[1])
	}
}

func TestUnionSizeIsMax(t *testing.T) {
	fl := &types.FieldList{}
	un := &types.Type{Kind: types.Union, Tag: "u", Fields: fl}
	types.CompleteUnion(fl, []string{"a", "b"}, []*types.Type{types.TChar, types.TLong})
	if types.Size(un) != 8 {
		t.Fatalf("expected union size 8, got %d", types.Size(un))
	}
}

func TestForwardDeclarationCompletesInPlace(t *testing.T) {
	fwd := types.NewTaggedForward(types.Struct, "N")
	ptr := types.NewPointer(fwd)
	if types.IsComplete(fwd) {
		t.Fatal("expected forward declaration to be incomplete")
	}
	types.CompleteStruct(fwd.Fields, []string{"x"}, []*types.Type{types.TInt})
	if !types.IsComplete(ptr.Pointee) {
		t.Fatal("expected pointee to observe completion through the shared FieldList")
	}
}

func TestCommonArithmeticPriority(t *testing.T) {
	if got := types.CommonArithmetic(types.TInt, types.TDouble); got != types.TDouble {
		t.Fatalf("expected double to win, got %v", got)
	}
	if got := types.CommonArithmetic(types.TChar, types.TInt); got != types.TInt {
		t.Fatalf("expected promotion to int, got %v", got)
	}
}

func TestCompatibleTaggedByName(t *testing.T) {
	a := types.NewTaggedForward(types.Struct, "N")
	b := types.NewTaggedForward(types.Struct, "N")
	c := types.NewTaggedForward(types.Struct, "M")
	if !types.Compatible(a, b) {
		t.Fatal("expected same-tag structs to be compatible")
	}
	if types.Compatible(a, c) {
		t.Fatal("expected different-tag structs to be incompatible")
	}
}
