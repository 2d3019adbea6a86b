package irgen_test

import (
	"strings"
	"testing"

	"github.com/student/nanocc/internal/irgen"
)

func TestSilenceSuppressesEmission(t *testing.T) {
	b := irgen.NewBuilder()
	b.StartFunction("f", "define i32 @f()")
	b.SetSilence(true)
	b.EmitLabel("entry")
	b.EmitRet("i32", "0")
	b.SetSilence(false)
	b.FinishFunction()
	if strings.Contains(b.String(), "ret i32 0") {
		t.Fatal("expected silenced emission to produce no text")
	}
}

func TestFinishFunctionSplicesPrologueAndBody(t *testing.T) {
	b := irgen.NewBuilder()
	b.StartFunction("main", "define i32 @main()")
	slot := b.Alloca("i32")
	b.EmitLabel("entry")
	b.EmitStore("i32", "0", slot)
	b.EmitRet("i32", "0")
	b.FinishFunction()
	out := b.String()
	if !strings.Contains(out, "alloca i32") || !strings.Contains(out, "ret i32 0") {
		t.Fatalf("expected prologue and body in output, got:\n%s", out)
	}
}

func TestUnterminatedBlockGetsUnreachable(t *testing.T) {
	b := irgen.NewBuilder()
	b.StartFunction("f", "define void @f()")
	b.EmitLabel("entry")
	b.FinishFunction()
	if !strings.Contains(b.String(), "unreachable") {
		t.Fatal("expected a trailing unreachable instruction")
	}
}

func TestStringGlobalInterning(t *testing.T) {
	b := irgen.NewBuilder()
	g1, _ := b.DefineStringGlobal("hi\n")
	g2, _ := b.DefineStringGlobal("hi\n")
	if g1 != g2 {
		t.Fatalf("expected the same global for identical text, got %s and %s", g1, g2)
	}
}

func TestBufferOrderingIsFixed(t *testing.T) {
	b := irgen.NewBuilder()
	b.DefineStruct("point", []string{"i32", "i32"})
	b.DefineStringGlobal("x")
	b.StartFunction("f", "define void @f()")
	b.EmitLabel("entry")
	b.EmitRetVoid()
	b.FinishFunction()
	b.DeclareExtern("i32 @printf(i8*, ...)")
	out := b.String()
	typesIdx := strings.Index(out, "%struct.point")
	globalsIdx := strings.Index(out, "private unnamed_addr")
	funcsIdx := strings.Index(out, "define void @f")
	externsIdx := strings.Index(out, "declare i32 @printf")
	if !(typesIdx < globalsIdx && globalsIdx < funcsIdx && funcsIdx < externsIdx) {
		t.Fatalf("expected types < globals < funcs < externs, got %d %d %d %d", typesIdx, globalsIdx, funcsIdx, externsIdx)
	}
}
