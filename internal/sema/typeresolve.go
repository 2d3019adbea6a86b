package sema

import (
	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/types"
)

// resolveSpecifiers folds a "specifiers" node into a base type: a
// struct/union/enum specifier or a typedef name is resolved directly;
// otherwise the basic-type keywords are combined per the usual C rules.
func (g *Generator) resolveSpecifiers(ctx Context, specs *ast.Node) (*types.Type, error) {
	counts := map[string]int{}
	for _, s := range specs.Children {
		switch s.Kind {
		case "storage_class":
			continue
		case "struct":
			return g.resolveAggregate(ctx, types.Struct, s)
		case "union":
			return g.resolveAggregate(ctx, types.Union, s)
		case "enum":
			return g.resolveEnum(ctx, s)
		case "typedef_name":
			t, ok := g.typedefs[s.Text]
			if !ok {
				return nil, g.errAt(specs.Pos, diag.CodeBadTypeSpecifier, "unknown type name '"+s.Text+"'")
			}
			return t, nil
		case "type_keyword":
			counts[s.Text]++
		}
	}
	return basicTypeFromCounts(counts), nil
}

func basicTypeFromCounts(c map[string]int) *types.Type {
	unsigned := c["unsigned"] > 0
	switch {
	case c["void"] > 0:
		return types.TVoid
	case c["float"] > 0:
		return types.TFloat
	case c["double"] > 0:
		if c["long"] > 0 {
			return types.TLongDouble
		}
		return types.TDouble
	case c["_Bool"] > 0:
		return types.TUInt
	case c["char"] > 0:
		if unsigned {
			return types.TUChar
		}
		if c["signed"] > 0 {
			return types.TSChar
		}
		return types.TChar
	case c["short"] > 0:
		if unsigned {
			return types.TUShort
		}
		return types.TShort
	case c["long"] > 0:
		if unsigned {
			return types.TULong
		}
		return types.TLong
	default:
		if unsigned {
			return types.TUInt
		}
		return types.TInt
	}
}

// resolveAggregate resolves a struct/union specifier: a tagged reference
// reuses (and, if a body is present, completes in place) the shared
// FieldList so a forward declaration and its completion are one identity.
func (g *Generator) resolveAggregate(ctx Context, kind types.Kind, node *ast.Node) (*types.Type, error) {
	hasBody := node.IntValue == 1
	tag := node.Text
	var t *types.Type
	if tag == "" {
		t = &types.Type{Kind: kind, Fields: &types.FieldList{}}
	} else if sym, ok := ctx.Tags.Get(tag); ok && sym.Type.Kind == kind {
		t = sym.Type
	} else {
		t = types.NewTaggedForward(kind, tag)
		ctx.Tags.Def(tag, &Symbol{Name: tag, Type: t})
	}
	if hasBody {
		names, fieldTypes, err := g.resolveFields(ctx, node.Children)
		if err != nil {
			return nil, err
		}
		if kind == types.Struct {
			types.CompleteStruct(t.Fields, names, fieldTypes)
		} else {
			types.CompleteUnion(t.Fields, names, fieldTypes)
		}
	}
	return t, nil
}

func (g *Generator) resolveFields(ctx Context, fieldDecls []*ast.Node) ([]string, []*types.Type, error) {
	var names []string
	var fieldTypes []*types.Type
	for _, fd := range fieldDecls {
		base, err := g.resolveSpecifiers(ctx, fd.Child(0))
		if err != nil {
			return nil, nil, err
		}
		for _, d := range fd.Children[1:] {
			ty, name, err := g.resolveDeclarator(ctx, base, d)
			if err != nil {
				return nil, nil, err
			}
			if !types.IsComplete(ty) {
				return nil, nil, g.errAt(d.Pos, diag.CodeIncompleteFieldType, "field '"+name+"' has incomplete type")
			}
			names = append(names, name)
			fieldTypes = append(fieldTypes, ty)
		}
	}
	return names, fieldTypes, nil
}

func (g *Generator) resolveEnum(ctx Context, node *ast.Node) (*types.Type, error) {
	hasBody := node.IntValue == 1
	tag := node.Text
	var t *types.Type
	if tag == "" {
		t = &types.Type{Kind: types.Enum, Fields: &types.FieldList{Size: 4, Align: 4, Names: []string{"_"}}}
	} else if sym, ok := ctx.Tags.Get(tag); ok && sym.Type.Kind == types.Enum {
		t = sym.Type
	} else {
		t = types.NewTaggedForward(types.Enum, tag)
		t.Fields.Size, t.Fields.Align = 4, 4
		ctx.Tags.Def(tag, &Symbol{Name: tag, Type: t})
	}
	if hasBody {
		next := int64(0)
		for _, e := range node.Children {
			v := next
			if len(e.Children) > 0 {
				cv, err := g.evalConstIntExpr(ctx, e.Children[0])
				if err != nil {
					return nil, err
				}
				v = cv
			}
			if !ctx.Idents.Def(e.Text, &Symbol{Name: e.Text, Type: types.TInt, IsEnum: true, EnumVal: v}) {
				return nil, g.errAt(e.Pos, diag.CodeRedefinition, "redefinition of '"+e.Text+"'")
			}
			next = v + 1
		}
		t.Fields.Names = []string{"_"} // marks the enum as "seen a body" without tracking a real layout
	}
	return t, nil
}

// resolveDeclarator implements the placeholder-mutation technique for
// parenthesized (grouped) declarators: the inner declarator is resolved
// against a mutable placeholder type, which is retroactively overwritten
// once the outer suffixes/pointers (which apply *outside* the group) are
// known. Every *Type reference already built against the placeholder
// pointer observes the overwrite, since Go struct assignment through a
// pointer mutates the shared value in place.
func (g *Generator) resolveDeclarator(ctx Context, base *types.Type, decl *ast.Node) (*types.Type, string, error) {
	ty := base
	for range decl.Child(0).Children {
		ty = types.NewPointer(ty)
	}
	core := decl.Child(1)
	suffixes := decl.Child(2).Children
	if core.Kind == "paren" {
		placeholder := &types.Type{}
		innerTy, name, err := g.resolveDeclarator(ctx, placeholder, core.Child(0))
		if err != nil {
			return nil, "", err
		}
		resolvedOuter, err := g.applySuffixes(ctx, suffixes, 0, ty)
		if err != nil {
			return nil, "", err
		}
		*placeholder = *resolvedOuter
		return innerTy, name, nil
	}
	name := ""
	if core.Kind == "ident" {
		name = core.Text
	}
	result, err := g.applySuffixes(ctx, suffixes, 0, ty)
	if err != nil {
		return nil, "", err
	}
	return result, name, nil
}

func (g *Generator) applySuffixes(ctx Context, suffixes []*ast.Node, i int, base *types.Type) (*types.Type, error) {
	if i >= len(suffixes) {
		return base, nil
	}
	s := suffixes[i]
	rest, err := g.applySuffixes(ctx, suffixes, i+1, base)
	if err != nil {
		return nil, err
	}
	switch s.Kind {
	case "array":
		length := -1
		if len(s.Children) > 0 {
			v, err := g.evalConstIntExpr(ctx, s.Children[0])
			if err != nil {
				return nil, err
			}
			if v <= 0 {
				return nil, g.errAt(s.Pos, diag.CodeBadArraySize, "array size must be a positive integer constant")
			}
			length = int(v)
		}
		return types.NewArray(rest, length), nil
	case "func_params":
		var params []*types.Type
		for _, p := range s.Children {
			pbase, err := g.resolveSpecifiers(ctx, p.Child(0))
			if err != nil {
				return nil, err
			}
			pty, _, err := g.resolveDeclarator(ctx, pbase, p.Child(1))
			if err != nil {
				return nil, err
			}
			params = append(params, pty)
		}
		return types.NewFunction(rest, params, s.Text == "variadic"), nil
	}
	return rest, nil
}

// resolveTypeName resolves a "type_name" node (specifiers + abstract
// declarator), used by casts and sizeof(T).
func (g *Generator) resolveTypeName(ctx Context, node *ast.Node) (*types.Type, error) {
	base, err := g.resolveSpecifiers(ctx, node.Child(0))
	if err != nil {
		return nil, err
	}
	ty, _, err := g.resolveDeclarator(ctx, base, node.Child(1))
	return ty, err
}

// evalConstIntExpr evaluates an expression under silence for a compile-time
// integer constant (array sizes, enumerator values, case labels).
func (g *Generator) evalConstIntExpr(ctx Context, expr *ast.Node) (int64, error) {
	g.b.SetSilence(true)
	v, err := g.lowerExpr(ctx, expr, wantValue)
	g.b.SetSilence(false)
	if err != nil {
		return 0, err
	}
	if !v.IsConstant || !types.IsInteger(v.Type) {
		return 0, g.errAt(expr.Pos, diag.CodeBadArraySize, "expected an integer constant expression")
	}
	return v.AsSigned(), nil
}
