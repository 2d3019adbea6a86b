package sema

import (
	"strconv"

	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/types"
)

// genDeclaration lowers a "declaration" node: a bare specifier-only tag
// declaration, a typedef, or a list of init_declarators, at either file
// scope (globals, emitted via DefineGlobal) or block scope (allocas,
// emitted into the current function's prologue/body).
func (g *Generator) genDeclaration(ctx Context, n *ast.Node, fileScope bool) error {
	specs := n.Child(0)
	base, err := g.resolveSpecifiers(ctx, specs)
	if err != nil {
		return err
	}

	if isTypedef(specs) {
		for _, initDecl := range n.Children[1:] {
			ty, name, err := g.resolveDeclarator(ctx, base, initDecl.Child(0))
			if err != nil {
				return err
			}
			g.typedefs[name] = ty
		}
		return nil
	}

	// A bare "struct Foo;"-style declaration: resolveSpecifiers already
	// registered (or completed) the tag; there is nothing left to bind.
	if len(n.Children) == 1 {
		return nil
	}

	for _, initDecl := range n.Children[1:] {
		decl := initDecl.Child(0)
		ty, name, err := g.resolveDeclarator(ctx, base, decl)
		if err != nil {
			return err
		}
		var initExpr *ast.Node
		if len(initDecl.Children) > 1 {
			initExpr = initDecl.Child(1)
		}

		// §10 supplemented feature: an array with no declared length whose
		// declarator has a brace initializer takes its length from the
		// initializer's element count ("int a[] = {1,2,3};").
		if ty.Kind == types.Array && ty.Len < 0 && initExpr != nil {
			ty = types.NewArray(ty.Elem, initializerElementCount(initExpr))
		}

		if ty.Kind == types.Function {
			if !ctx.Idents.Def(name, &Symbol{Name: name, Type: ty, IRName: "@" + name, IsFunc: true}) {
				return g.errAt(decl.Pos, diag.CodeRedefinition, "redefinition of '"+name+"'")
			}
			continue
		}
		if !types.IsComplete(ty) {
			return g.errAt(decl.Pos, diag.CodeIncompleteFieldType, "'"+name+"' has incomplete type")
		}

		if fileScope {
			gname := "@" + name
			initLit := zeroValueLiteral(ty)
			if ty.Kind == types.Struct || ty.Kind == types.Union || ty.Kind == types.Array {
				initLit = "zeroinitializer"
			}
			if initExpr != nil {
				lit, err := g.constScalarLiteral(ctx, initExpr, ty)
				if err != nil {
					return err
				}
				initLit = lit
			}
			g.b.DefineGlobal(gname, g.irType(ty), initLit)
			if !ctx.Idents.Def(name, &Symbol{Name: name, Type: ty, IRName: gname}) {
				return g.errAt(decl.Pos, diag.CodeRedefinition, "redefinition of '"+name+"'")
			}
			continue
		}

		slot := g.b.Alloca(g.irType(ty))
		if !ctx.Idents.Def(name, &Symbol{Name: name, Type: ty, IRName: slot}) {
			return g.errAt(decl.Pos, diag.CodeRedefinition, "redefinition of '"+name+"'")
		}
		if initExpr != nil {
			if err := g.genInitializer(ctx, slot, ty, initExpr); err != nil {
				return err
			}
		}
	}
	return nil
}

func initializerElementCount(n *ast.Node) int {
	if n.Kind == "initializer_list" {
		return len(n.Children)
	}
	return 1
}

// constScalarLiteral evaluates a global variable's initializer as a
// compile-time constant and renders it as IR literal text; nanocc doesn't
// support runtime-computed global initializers (no dynamic init code runs
// before main in a single translation unit without a C runtime).
func (g *Generator) constScalarLiteral(ctx Context, expr *ast.Node, ty *types.Type) (string, error) {
	g.b.SetSilence(true)
	v, err := g.lowerExpr(ctx, expr, wantValue)
	g.b.SetSilence(false)
	if err != nil {
		return "", err
	}
	if !v.IsConstant {
		return "", g.errAt(expr.Pos, diag.CodeBadTypeSpecifier, "global initializer must be a compile-time constant")
	}
	v = g.convertValue(v, ty)
	return g.operand(v), nil
}

// genInitializer stores init into the storage at ptr (of type ty),
// recursing element-wise for aggregates and braced initializer lists.
func (g *Generator) genInitializer(ctx Context, ptr string, ty *types.Type, init *ast.Node) error {
	switch ty.Kind {
	case types.Struct:
		if init.Kind != "initializer_list" {
			v, err := g.lowerExpr(ctx, init, wantValue)
			if err != nil {
				return err
			}
			v = g.convertValue(v, ty)
			g.b.EmitStore(g.irType(ty), g.operand(v), ptr)
			return nil
		}
		for i, elem := range init.Children {
			if ty.Fields == nil || i >= len(ty.Fields.Types) {
				break
			}
			fty := ty.Fields.Types[i]
			fieldPtr := g.b.EmitGEP(g.irType(ty), ptr, []string{"i32 0", "i32 " + strconv.Itoa(i)})
			if err := g.genInitializer(ctx, fieldPtr, fty, elem); err != nil {
				return err
			}
		}
		return nil
	case types.Union:
		if init.Kind != "initializer_list" {
			v, err := g.lowerExpr(ctx, init, wantValue)
			if err != nil {
				return err
			}
			v = g.convertValue(v, ty)
			g.b.EmitStore(g.irType(ty), g.operand(v), ptr)
			return nil
		}
		if len(init.Children) > 0 && ty.Fields != nil && len(ty.Fields.Types) > 0 {
			fieldPtr := g.b.EmitGEP(g.irType(ty), ptr, []string{"i32 0", "i32 0"})
			return g.genInitializer(ctx, fieldPtr, ty.Fields.Types[0], init.Children[0])
		}
		return nil
	case types.Array:
		if init.Kind != "initializer_list" {
			return g.errAt(init.Pos, diag.CodeBadTypeSpecifier, "array initializer must be a brace list")
		}
		for i, elem := range init.Children {
			if i >= ty.Len {
				break
			}
			elemPtr := g.b.EmitGEP(g.irType(ty), ptr, []string{"i64 0", "i64 " + strconv.Itoa(i)})
			if err := g.genInitializer(ctx, elemPtr, ty.Elem, elem); err != nil {
				return err
			}
		}
		return nil
	default:
		v, err := g.lowerExpr(ctx, init, wantValue)
		if err != nil {
			return err
		}
		v = g.convertValue(v, ty)
		g.b.EmitStore(g.irType(ty), g.operand(v), ptr)
		return nil
	}
}
