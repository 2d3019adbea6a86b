package sema

import (
	"strconv"
	"strings"

	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/source"
	"github.com/student/nanocc/internal/types"
	"github.com/student/nanocc/internal/value"
)

// resultMode tells lowerExpr whether the caller wants the usual
// load-and-decay adjusted rvalue, or the raw, unconverted lvalue (storage
// address plus unconverted type) that assignment, &, ++/--, and sizeof's
// operand all need.
type resultMode int

const (
	wantValue resultMode = iota
	wantLValue
)

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
}

var relationalOps = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
}

var binaryOpSet = map[string]bool{
	"||": true, "&&": true, "|": true, "^": true, "&": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"<<": true, ">>": true, "+": true, "-": true, "*": true, "/": true, "%": true,
}

// lowerExpr lowers n under mode, applying array-to-pointer decay,
// function-to-pointer decay, and lvalue-to-rvalue load unless the caller
// asked for the raw, unconverted form.
func (g *Generator) lowerExpr(ctx Context, n *ast.Node, mode resultMode) (value.Value, error) {
	raw, err := g.lowerExprRaw(ctx, n, mode)
	if err != nil {
		return value.Value{}, err
	}
	if mode == wantLValue {
		return raw, nil
	}
	return g.adjust(raw), nil
}

// adjust implements §4.5's result adjustment: function designators decay to
// a pointer to the function, array lvalues decay to a pointer to their
// first element, and every other lvalue is loaded.
func (g *Generator) adjust(v value.Value) value.Value {
	t := v.Type
	if t.Kind == types.Function {
		return value.Value{Name: v.Name, Type: types.NewPointer(t)}
	}
	if t.Kind == types.Array {
		if !v.IsLValue {
			return v
		}
		addr := g.b.EmitGEP(g.irType(t), v.Name, []string{"i64 0", "i64 0"})
		return value.NewRValue(addr, types.NewPointer(t.Elem))
	}
	if v.IsLValue {
		loaded := g.b.EmitLoad(g.irType(t), v.Name)
		return value.NewRValue(loaded, t)
	}
	return v
}

func (g *Generator) lowerExprRaw(ctx Context, n *ast.Node, mode resultMode) (value.Value, error) {
	switch n.Kind {
	case "int_const":
		return g.lowerIntConst(n), nil
	case "float_const":
		ty := types.TDouble
		if strings.HasSuffix(n.Text, "f") || strings.HasSuffix(n.Text, "F") {
			ty = types.TFloat
		}
		return value.NewFloatConstant(ty, n.FloatValue), nil
	case "string_const":
		gname, length := g.b.DefineStringGlobal(n.StrValue)
		return value.NewLValue(gname, types.NewArray(types.TChar, length)), nil
	case "char_const":
		return value.NewIntConstant(types.TChar, n.IntValue), nil
	case "ident":
		return g.lowerIdent(ctx, n)
	case ",":
		if _, err := g.lowerExpr(ctx, n.Child(0), wantValue); err != nil {
			return value.Value{}, err
		}
		return g.lowerExpr(ctx, n.Child(1), wantValue)
	case "?:":
		return g.lowerConditional(ctx, n)
	case "sizeof_type":
		ty, err := g.resolveTypeName(ctx, n.Child(0))
		if err != nil {
			return value.Value{}, err
		}
		return value.NewIntConstant(types.TULong, uint64(types.Size(ty))), nil
	case "sizeof_expr":
		g.b.SetSilence(true)
		v, err := g.lowerExpr(ctx, n.Child(0), wantLValue)
		g.b.SetSilence(false)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewIntConstant(types.TULong, uint64(types.Size(v.Type))), nil
	case "cast":
		return g.lowerCast(ctx, n)
	case "call":
		return g.lowerCall(ctx, n)
	case "index":
		return g.lowerIndex(ctx, n)
	case ".":
		return g.lowerDot(ctx, n)
	case "->":
		return g.lowerArrow(ctx, n)
	}
	if assignOps[n.Kind] {
		return g.lowerAssignment(ctx, n)
	}
	switch n.Kind {
	case "pre++", "pre--", "post++", "post--":
		return g.lowerIncDec(ctx, n)
	}
	if n.Text == "unary" {
		return g.lowerUnary(ctx, n)
	}
	if binaryOpSet[n.Kind] {
		return g.lowerBinary(ctx, n)
	}
	return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "unsupported expression form '"+n.Kind+"'")
}

func (g *Generator) lowerIntConst(n *ast.Node) value.Value {
	t := types.TInt
	switch {
	case n.IsLong >= 1 && n.IsUnsigned:
		t = types.TULong
	case n.IsLong >= 1:
		t = types.TLong
	case n.IsUnsigned:
		t = types.TUInt
	case n.IntValue > 0x7fffffff:
		t = types.TLong
	}
	return value.NewIntConstant(t, n.IntValue)
}

// builtinSignature gives the handful of libc functions nanocc materializes
// on first reference: a
// freestanding single-TU compiler has no headers to declare printf/calloc,
// so an unresolved call to one of these names is treated as an implicit
// declaration instead of a hard NAME_UNDEFINED_IDENT error.
func builtinSignature(name string) (*types.Type, bool) {
	switch name {
	case "printf":
		return types.NewFunction(types.TInt, []*types.Type{types.NewPointer(types.TChar)}, true), true
	case "snprintf":
		return types.NewFunction(types.TInt, []*types.Type{types.NewPointer(types.TChar), types.TULong, types.NewPointer(types.TChar)}, true), true
	case "calloc":
		return types.NewFunction(types.NewPointer(types.TVoid), []*types.Type{types.TULong, types.TULong}, false), true
	case "malloc":
		return types.NewFunction(types.NewPointer(types.TVoid), []*types.Type{types.TULong}, false), true
	case "free":
		return types.NewFunction(types.TVoid, []*types.Type{types.NewPointer(types.TVoid)}, false), true
	}
	return nil, false
}

func (g *Generator) lowerIdent(ctx Context, n *ast.Node) (value.Value, error) {
	if sym, ok := ctx.Idents.Get(n.Text); ok {
		if sym.IsEnum {
			return value.NewIntConstant(types.TInt, uint64(sym.EnumVal)), nil
		}
		if sym.IsFunc {
			return value.Value{Name: sym.IRName, Type: sym.Type}, nil
		}
		return value.NewLValue(sym.IRName, sym.Type), nil
	}
	if fnType, ok := builtinSignature(n.Text); ok {
		if !g.externsUsed[n.Text] {
			g.externsUsed[n.Text] = true
			g.b.DeclareExtern(g.externSignature(n.Text, fnType))
		}
		return value.Value{Name: "@" + n.Text, Type: fnType}, nil
	}
	return value.Value{}, g.errAt(n.Pos, diag.CodeUndefinedIdent, "use of undeclared identifier '"+n.Text+"'")
}

func (g *Generator) externSignature(name string, fnType *types.Type) string {
	var params string
	for i, pt := range fnType.Params {
		if i > 0 {
			params += ", "
		}
		params += g.irType(pt)
	}
	if fnType.Variadic {
		if params != "" {
			params += ", "
		}
		params += "..."
	}
	return g.irType(fnType.Return) + " @" + name + "(" + params + ")"
}

func (g *Generator) lowerCast(ctx Context, n *ast.Node) (value.Value, error) {
	ty, err := g.resolveTypeName(ctx, n.Child(0))
	if err != nil {
		return value.Value{}, err
	}
	v, err := g.lowerExpr(ctx, n.Child(1), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	if ty.Kind == types.Void {
		return value.Value{Type: types.TVoid}, nil
	}
	if !types.IsScalar(v.Type) || !types.IsScalar(ty) {
		return value.Value{}, g.errAt(n.Pos, diag.CodeBadCast, "invalid cast to '"+ty.String()+"'")
	}
	return g.convertValue(v, ty), nil
}

func (g *Generator) lowerCall(ctx Context, n *ast.Node) (value.Value, error) {
	calleeVal, err := g.lowerExpr(ctx, n.Child(0), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	fnType := calleeVal.Type
	if fnType.Kind == types.Pointer {
		fnType = fnType.Pointee
	}
	if fnType.Kind != types.Function {
		return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "called object is not a function")
	}
	argNodes := n.Children[1:]
	if len(argNodes) < len(fnType.Params) || (!fnType.Variadic && len(argNodes) != len(fnType.Params)) {
		return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "wrong number of arguments in call")
	}
	var sigTypes, argOperands []string
	for i, argNode := range argNodes {
		av, err := g.lowerExpr(ctx, argNode, wantValue)
		if err != nil {
			return value.Value{}, err
		}
		var target *types.Type
		switch {
		case i < len(fnType.Params):
			target = fnType.Params[i]
		case types.IsFloat(av.Type):
			target = types.TDouble
		case types.IsInteger(av.Type):
			target = types.Promote(av.Type)
		default:
			target = av.Type
		}
		av = g.convertValue(av, target)
		sigTypes = append(sigTypes, g.irType(target))
		argOperands = append(argOperands, g.operand(av))
	}
	if fnType.Return.Kind == types.Void {
		g.b.EmitCallVoid(calleeVal.Name, sigTypes, argOperands)
		return value.Value{Type: types.TVoid}, nil
	}
	res := g.b.EmitCall(g.irType(fnType.Return), calleeVal.Name, sigTypes, argOperands)
	return value.NewRValue(res, fnType.Return), nil
}

func (g *Generator) lowerIndex(ctx Context, n *ast.Node) (value.Value, error) {
	base, err := g.lowerExpr(ctx, n.Child(0), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	idx, err := g.lowerExpr(ctx, n.Child(1), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	if base.Type.Kind != types.Pointer {
		return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "subscripted value is not an array or pointer")
	}
	addr, err := g.pointerOffset(base, idx, false)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewLValue(g.operand(addr), base.Type.Pointee), nil
}

func (g *Generator) lowerDot(ctx Context, n *ast.Node) (value.Value, error) {
	base, err := g.lowerExpr(ctx, n.Child(0), wantLValue)
	if err != nil {
		return value.Value{}, err
	}
	if base.Type.Kind != types.Struct && base.Type.Kind != types.Union {
		return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "request for member '"+n.Text+"' in non-aggregate")
	}
	idx := types.FieldIndex(base.Type, n.Text)
	if idx < 0 {
		return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "no member named '"+n.Text+"'")
	}
	fieldTy := base.Type.Fields.Types[idx]
	addr := g.b.EmitGEP(g.irType(base.Type), base.Name, []string{"i32 0", "i32 " + strconv.Itoa(idx)})
	return value.NewLValue(addr, fieldTy), nil
}

func (g *Generator) lowerArrow(ctx Context, n *ast.Node) (value.Value, error) {
	base, err := g.lowerExpr(ctx, n.Child(0), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	if base.Type.Kind != types.Pointer || (base.Type.Pointee.Kind != types.Struct && base.Type.Pointee.Kind != types.Union) {
		return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "member reference base type is not a pointer to struct/union")
	}
	st := base.Type.Pointee
	idx := types.FieldIndex(st, n.Text)
	if idx < 0 {
		return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "no member named '"+n.Text+"'")
	}
	fieldTy := st.Fields.Types[idx]
	addr := g.b.EmitGEP(g.irType(st), g.operand(base), []string{"i32 0", "i32 " + strconv.Itoa(idx)})
	return value.NewLValue(addr, fieldTy), nil
}

func (g *Generator) lowerUnary(ctx Context, n *ast.Node) (value.Value, error) {
	switch n.Kind {
	case "&":
		v, err := g.lowerExpr(ctx, n.Child(0), wantLValue)
		if err != nil {
			return value.Value{}, err
		}
		if !v.IsLValue && v.Type.Kind != types.Function {
			return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "operand of '&' must be an lvalue or function designator")
		}
		return value.NewRValue(v.Name, types.NewPointer(v.Type)), nil
	case "*":
		v, err := g.lowerExpr(ctx, n.Child(0), wantValue)
		if err != nil {
			return value.Value{}, err
		}
		if v.Type.Kind != types.Pointer {
			return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "operand of unary '*' must be a pointer")
		}
		if v.Type.Pointee.Kind != types.Function && !types.IsComplete(v.Type.Pointee) {
			return value.Value{}, g.errAt(n.Pos, diag.CodeIncompleteType, "indirection through pointer to incomplete type")
		}
		return value.NewLValue(g.operand(v), v.Type.Pointee), nil
	case "+":
		v, err := g.lowerExpr(ctx, n.Child(0), wantValue)
		if err != nil {
			return value.Value{}, err
		}
		if !types.IsArithmetic(v.Type) {
			return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "bad operand to unary '+'")
		}
		return g.convertValue(v, types.Promote(v.Type)), nil
	case "-", "~":
		v, err := g.lowerExpr(ctx, n.Child(0), wantValue)
		if err != nil {
			return value.Value{}, err
		}
		if !types.IsArithmetic(v.Type) {
			return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "bad operand to unary '"+n.Kind+"'")
		}
		pt := types.Promote(v.Type)
		v = g.convertValue(v, pt)
		if v.IsConstant {
			return value.FoldUnary(n.Kind, v, pt), nil
		}
		if types.IsFloat(pt) {
			res := g.b.EmitUnary("fneg", g.irType(pt), g.operand(v))
			return value.NewRValue(res, pt), nil
		}
		lit := "0"
		op := "sub"
		if n.Kind == "~" {
			lit, op = "-1", "xor"
		}
		res := g.b.EmitBinOp(op, g.irType(pt), lit, g.operand(v))
		return value.NewRValue(res, pt), nil
	case "!":
		v, err := g.lowerExpr(ctx, n.Child(0), wantValue)
		if err != nil {
			return value.Value{}, err
		}
		if !types.IsScalar(v.Type) {
			return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "bad operand to unary '!'")
		}
		if v.IsConstant {
			return value.FoldUnary("!", v, types.TInt), nil
		}
		cond := g.truthValue(v)
		notCond := g.b.EmitBinOp("xor", "i1", cond, "1")
		ext := g.b.EmitConv("zext", "i1", notCond, "i32")
		return value.NewRValue(ext, types.TInt), nil
	}
	return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "unsupported unary operator '"+n.Kind+"'")
}

func (g *Generator) lowerIncDec(ctx Context, n *ast.Node) (value.Value, error) {
	isPost := strings.HasPrefix(n.Kind, "post")
	isInc := strings.HasSuffix(n.Kind, "++")
	lv, err := g.lowerExpr(ctx, n.Child(0), wantLValue)
	if err != nil {
		return value.Value{}, err
	}
	if !lv.IsLValue {
		return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "operand of increment/decrement must be an lvalue")
	}
	old := g.adjust(lv)
	one := value.NewIntConstant(types.TInt, 1)
	op := "-"
	if isInc {
		op = "+"
	}
	updated, err := g.applyBinaryValues(n.Pos, op, old, one)
	if err != nil {
		return value.Value{}, err
	}
	updated = g.convertValue(updated, lv.Type)
	g.b.EmitStore(g.irType(lv.Type), g.operand(updated), lv.Name)
	if isPost {
		return old, nil
	}
	return updated, nil
}

func (g *Generator) lowerBinary(ctx Context, n *ast.Node) (value.Value, error) {
	if n.Kind == "&&" || n.Kind == "||" {
		return g.lowerLogical(ctx, n)
	}
	lhs, err := g.lowerExpr(ctx, n.Child(0), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	rhs, err := g.lowerExpr(ctx, n.Child(1), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	return g.applyBinaryValues(n.Pos, n.Kind, lhs, rhs)
}

func (g *Generator) applyBinaryValues(pos source.Pos, op string, lhs, rhs value.Value) (value.Value, error) {
	if lhs.Type.Kind == types.Pointer || rhs.Type.Kind == types.Pointer {
		return g.lowerPointerArith(pos, op, lhs, rhs)
	}
	if !types.IsArithmetic(lhs.Type) || !types.IsArithmetic(rhs.Type) {
		return value.Value{}, g.errAt(pos, diag.CodeBadOperands, "bad operands to binary '"+op+"'")
	}
	common := types.CommonArithmetic(lhs.Type, rhs.Type)
	lc := g.convertValue(lhs, common)
	rc := g.convertValue(rhs, common)
	if lc.IsConstant && rc.IsConstant {
		return value.FoldBinary(op, lc, rc, common), nil
	}
	if relationalOps[op] {
		res := g.b.EmitCmp(cmpMnemonic(op, common), g.irType(common), g.operand(lc), g.operand(rc))
		return value.NewRValue(res, types.TInt), nil
	}
	res := g.b.EmitBinOp(arithMnemonic(op, common), g.irType(common), g.operand(lc), g.operand(rc))
	return value.NewRValue(res, common), nil
}

func (g *Generator) lowerPointerArith(pos source.Pos, op string, lhs, rhs value.Value) (value.Value, error) {
	switch {
	case op == "+" && lhs.Type.Kind == types.Pointer && types.IsInteger(rhs.Type):
		return g.pointerOffset(lhs, rhs, false)
	case op == "+" && rhs.Type.Kind == types.Pointer && types.IsInteger(lhs.Type):
		return g.pointerOffset(rhs, lhs, false)
	case op == "-" && lhs.Type.Kind == types.Pointer && types.IsInteger(rhs.Type):
		return g.pointerOffset(lhs, rhs, true)
	case op == "-" && lhs.Type.Kind == types.Pointer && rhs.Type.Kind == types.Pointer:
		if !types.Compatible(lhs.Type.Pointee, rhs.Type.Pointee) {
			return value.Value{}, g.errAt(pos, diag.CodeBadOperands, "incompatible pointer operands to '-'")
		}
		elemSize := types.Size(lhs.Type.Pointee)
		if elemSize == 0 {
			elemSize = 1
		}
		l := g.b.EmitConv("ptrtoint", g.irType(lhs.Type), g.operand(lhs), "i64")
		r := g.b.EmitConv("ptrtoint", g.irType(rhs.Type), g.operand(rhs), "i64")
		diff := g.b.EmitBinOp("sub", "i64", l, r)
		quotient := g.b.EmitBinOp("sdiv", "i64", diff, strconv.Itoa(elemSize))
		return value.NewRValue(quotient, types.TLong), nil
	case relationalOps[op] && lhs.Type.Kind == types.Pointer && rhs.Type.Kind == types.Pointer:
		res := g.b.EmitCmp(cmpMnemonic(op, lhs.Type), g.irType(lhs.Type), g.operand(lhs), g.operand(rhs))
		return value.NewRValue(res, types.TInt), nil
	}
	return value.Value{}, g.errAt(pos, diag.CodeBadOperands, "bad operands to binary '"+op+"'")
}

func (g *Generator) pointerOffset(ptr, idx value.Value, negate bool) (value.Value, error) {
	elemIR := g.irType(ptr.Type.Pointee)
	widened := g.convertValue(idx, types.TLong)
	operand := g.operand(widened)
	if negate {
		if widened.IsConstant {
			widened = value.NewIntConstant(types.TLong, uint64(-widened.AsSigned()))
			operand = g.operand(widened)
		} else {
			operand = g.b.EmitBinOp("sub", "i64", "0", operand)
		}
	}
	res := g.b.EmitGEP(elemIR, g.operand(ptr), []string{"i64 " + operand})
	return value.NewRValue(res, ptr.Type), nil
}

func (g *Generator) lowerLogical(ctx Context, n *ast.Node) (value.Value, error) {
	lhs, err := g.lowerExpr(ctx, n.Child(0), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	if lhs.IsConstant {
		truthy := isTruthyConst(lhs)
		if n.Kind == "&&" && !truthy {
			return value.NewIntConstant(types.TInt, 0), nil
		}
		if n.Kind == "||" && truthy {
			return value.NewIntConstant(types.TInt, 1), nil
		}
		rhs, err := g.lowerExpr(ctx, n.Child(1), wantValue)
		if err != nil {
			return value.Value{}, err
		}
		if rhs.IsConstant {
			return value.NewIntConstant(types.TInt, boolBit(isTruthyConst(rhs))), nil
		}
		ext := g.b.EmitConv("zext", "i1", g.truthValue(rhs), "i32")
		return value.NewRValue(ext, types.TInt), nil
	}

	rhsLabel := g.b.NewLabel()
	endLabel := g.b.NewLabel()
	lhsCond := g.truthValue(lhs)
	lhsBlock := g.b.CurrentLabel()
	if n.Kind == "&&" {
		g.b.EmitCondBr(lhsCond, rhsLabel, endLabel)
	} else {
		g.b.EmitCondBr(lhsCond, endLabel, rhsLabel)
	}
	g.b.EmitLabel(rhsLabel)
	rhs, err := g.lowerExpr(ctx, n.Child(1), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	rhsCond := g.truthValue(rhs)
	rhsBlock := g.b.CurrentLabel()
	g.b.EmitBr(endLabel)
	g.b.EmitLabel(endLabel)
	shortValue := "0"
	if n.Kind == "||" {
		shortValue = "1"
	}
	res := g.b.EmitPhi("i1", [][2]string{{shortValue, lhsBlock}, {rhsCond, rhsBlock}})
	ext := g.b.EmitConv("zext", "i1", res, "i32")
	return value.NewRValue(ext, types.TInt), nil
}

func (g *Generator) lowerConditional(ctx Context, n *ast.Node) (value.Value, error) {
	cond, err := g.lowerExpr(ctx, n.Child(0), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	if !types.IsScalar(cond.Type) {
		return value.Value{}, g.errAt(n.Pos, diag.CodeIncompatibleCond, "conditional controlling expression must be scalar")
	}
	if cond.IsConstant {
		if isTruthyConst(cond) {
			return g.lowerExpr(ctx, n.Child(1), wantValue)
		}
		return g.lowerExpr(ctx, n.Child(2), wantValue)
	}

	thenLabel := g.b.NewLabel()
	elseLabel := g.b.NewLabel()
	endLabel := g.b.NewLabel()
	g.b.EmitCondBr(g.truthValue(cond), thenLabel, elseLabel)

	g.b.EmitLabel(thenLabel)
	thenVal, err := g.lowerExpr(ctx, n.Child(1), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	thenBlock := g.b.CurrentLabel()
	thenTerminated := g.b.Terminated()
	if !thenTerminated {
		g.b.EmitBr(endLabel)
	}

	g.b.EmitLabel(elseLabel)
	elseVal, err := g.lowerExpr(ctx, n.Child(2), wantValue)
	if err != nil {
		return value.Value{}, err
	}
	elseBlock := g.b.CurrentLabel()
	elseTerminated := g.b.Terminated()
	if !elseTerminated {
		g.b.EmitBr(endLabel)
	}

	g.b.EmitLabel(endLabel)

	resultType := thenVal.Type
	if types.IsArithmetic(thenVal.Type) && types.IsArithmetic(elseVal.Type) {
		resultType = types.CommonArithmetic(thenVal.Type, elseVal.Type)
		thenVal = g.convertValue(thenVal, resultType)
		elseVal = g.convertValue(elseVal, resultType)
	}
	var incoming [][2]string
	if !thenTerminated {
		incoming = append(incoming, [2]string{g.operand(thenVal), thenBlock})
	}
	if !elseTerminated {
		incoming = append(incoming, [2]string{g.operand(elseVal), elseBlock})
	}
	switch len(incoming) {
	case 0:
		return value.NewRValue("undef", resultType), nil
	case 1:
		return value.NewRValue(incoming[0][0], resultType), nil
	default:
		res := g.b.EmitPhi(g.irType(resultType), incoming)
		return value.NewRValue(res, resultType), nil
	}
}

func (g *Generator) lowerAssignment(ctx Context, n *ast.Node) (value.Value, error) {
	lhs, err := g.lowerExpr(ctx, n.Child(0), wantLValue)
	if err != nil {
		return value.Value{}, err
	}
	if !lhs.IsLValue {
		return value.Value{}, g.errAt(n.Pos, diag.CodeBadOperands, "assignment target is not an lvalue")
	}
	var rhsVal value.Value
	if n.Kind == "=" {
		rhsVal, err = g.lowerExpr(ctx, n.Child(1), wantValue)
		if err != nil {
			return value.Value{}, err
		}
	} else {
		cur := g.adjust(lhs)
		rhsRaw, err := g.lowerExpr(ctx, n.Child(1), wantValue)
		if err != nil {
			return value.Value{}, err
		}
		baseOp := strings.TrimSuffix(n.Kind, "=")
		rhsVal, err = g.applyBinaryValues(n.Pos, baseOp, cur, rhsRaw)
		if err != nil {
			return value.Value{}, err
		}
	}
	converted := g.convertValue(rhsVal, lhs.Type)
	g.b.EmitStore(g.irType(lhs.Type), g.operand(converted), lhs.Name)
	return value.NewRValue(g.operand(converted), lhs.Type), nil
}

// operand renders a Value as IR operand text: the register/global name for
// a runtime value, or a formatted literal for a compile-time constant
// (constants never acquire a Name since they fold away per §4.3).
func (g *Generator) operand(v value.Value) string {
	if !v.IsConstant {
		return v.Name
	}
	if v.IsVoidNull || v.Type.Kind == types.Pointer {
		return "null"
	}
	if types.IsFloat(v.Type) {
		return formatFloatLiteral(v.FloatPayload)
	}
	if types.IsUnsignedInt(v.Type) {
		return strconv.FormatUint(v.IntPayload, 10)
	}
	return strconv.FormatInt(v.AsSigned(), 10)
}

func formatFloatLiteral(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func isTruthyConst(v value.Value) bool {
	if v.IsVoidNull {
		return false
	}
	if types.IsFloat(v.Type) {
		return v.FloatPayload != 0
	}
	return v.IntPayload != 0
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// truthValue renders an i1 IR operand testing v for non-zero.
func (g *Generator) truthValue(v value.Value) string {
	if v.IsConstant {
		if isTruthyConst(v) {
			return "1"
		}
		return "0"
	}
	if types.IsFloat(v.Type) {
		return g.b.EmitCmp("fcmp one", g.irType(v.Type), g.operand(v), "0.0")
	}
	zero := "0"
	if v.Type.Kind == types.Pointer {
		zero = "null"
	}
	return g.b.EmitCmp("icmp ne", g.irType(v.Type), g.operand(v), zero)
}

func cmpMnemonic(op string, t *types.Type) string {
	if types.IsFloat(t) {
		switch op {
		case "==":
			return "fcmp oeq"
		case "!=":
			return "fcmp one"
		case "<":
			return "fcmp olt"
		case ">":
			return "fcmp ogt"
		case "<=":
			return "fcmp ole"
		case ">=":
			return "fcmp oge"
		}
	}
	unsigned := types.IsUnsignedInt(t) || t.Kind == types.Pointer
	switch op {
	case "==":
		return "icmp eq"
	case "!=":
		return "icmp ne"
	case "<":
		if unsigned {
			return "icmp ult"
		}
		return "icmp slt"
	case ">":
		if unsigned {
			return "icmp ugt"
		}
		return "icmp sgt"
	case "<=":
		if unsigned {
			return "icmp ule"
		}
		return "icmp sle"
	case ">=":
		if unsigned {
			return "icmp uge"
		}
		return "icmp sge"
	}
	return "icmp eq"
}

func arithMnemonic(op string, t *types.Type) string {
	if types.IsFloat(t) {
		switch op {
		case "+":
			return "fadd"
		case "-":
			return "fsub"
		case "*":
			return "fmul"
		case "/":
			return "fdiv"
		}
	}
	unsigned := types.IsUnsignedInt(t)
	switch op {
	case "+":
		return "add"
	case "-":
		return "sub"
	case "*":
		return "mul"
	case "/":
		if unsigned {
			return "udiv"
		}
		return "sdiv"
	case "%":
		if unsigned {
			return "urem"
		}
		return "srem"
	case "&":
		return "and"
	case "|":
		return "or"
	case "^":
		return "xor"
	case "<<":
		return "shl"
	case ">>":
		if unsigned {
			return "lshr"
		}
		return "ashr"
	}
	return "add"
}
