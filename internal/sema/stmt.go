package sema

import (
	"strconv"

	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/types"
)

func (g *Generator) genCompoundStatement(ctx Context, n *ast.Node) error {
	inner := ctx
	inner.Idents = ctx.Idents.Enter()
	inner.Tags = ctx.Tags.Enter()
	for _, item := range n.Children {
		if err := g.genBlockItem(inner, item); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) genBlockItem(ctx Context, n *ast.Node) error {
	if n.Kind == "declaration" {
		return g.genDeclaration(ctx, n, false)
	}
	return g.genStatement(ctx, n)
}

func (g *Generator) genStatement(ctx Context, n *ast.Node) error {
	switch n.Kind {
	case "compound_statement":
		return g.genCompoundStatement(ctx, n)
	case "exp_statement":
		if len(n.Children) == 0 {
			return nil
		}
		_, err := g.lowerExpr(ctx, n.Child(0), wantValue)
		return err
	case "if":
		return g.genIf(ctx, n)
	case "while":
		return g.genWhile(ctx, n)
	case "do_while":
		return g.genDoWhile(ctx, n)
	case "for":
		return g.genFor(ctx, n)
	case "switch":
		return g.genSwitch(ctx, n)
	case "case":
		return g.genCase(ctx, n)
	case "default":
		return g.genDefault(ctx, n)
	case "return":
		return g.genReturn(ctx, n)
	case "break":
		if ctx.BreakLabel == "" {
			return g.errAt(n.Pos, diag.CodeBreakOutsideLoop, "'break' outside loop or switch")
		}
		g.b.EmitBr(ctx.BreakLabel)
		return nil
	case "continue":
		if ctx.ContinueLabel == "" {
			return g.errAt(n.Pos, diag.CodeContinueOutsideLoop, "'continue' outside loop")
		}
		g.b.EmitBr(ctx.ContinueLabel)
		return nil
	case "goto":
		lbl, ok := g.curFunc.labels.Get(n.Text)
		if !ok {
			return g.errAt(n.Pos, diag.CodeUndefinedLabel, "undefined label '"+n.Text+"'")
		}
		g.curFunc.usedLabels[n.Text] = true
		g.b.EmitBr(lbl.IRName)
		return nil
	case "label":
		lbl, _ := g.curFunc.labels.Get(n.Text)
		g.curFunc.defdLabels[n.Text] = true
		g.b.EmitLabel(lbl.IRName)
		return g.genStatement(ctx, n.Child(0))
	case "empty":
		return nil
	}
	return g.errAt(n.Pos, diag.CodeBadTypeSpecifier, "unsupported statement form '"+n.Kind+"'")
}

func (g *Generator) genIf(ctx Context, n *ast.Node) error {
	cond, err := g.lowerExpr(ctx, n.Child(0), wantValue)
	if err != nil {
		return err
	}
	hasElse := len(n.Children) > 2
	if cond.IsConstant {
		if isTruthyConst(cond) {
			return g.genStatement(ctx, n.Child(1))
		}
		if hasElse {
			return g.genStatement(ctx, n.Child(2))
		}
		return nil
	}

	thenLabel := g.b.NewLabel()
	endLabel := g.b.NewLabel()
	elseLabel := endLabel
	if hasElse {
		elseLabel = g.b.NewLabel()
	}
	g.b.EmitCondBr(g.truthValue(cond), thenLabel, elseLabel)

	g.b.EmitLabel(thenLabel)
	if err := g.genStatement(ctx, n.Child(1)); err != nil {
		return err
	}
	if !g.b.Terminated() {
		g.b.EmitBr(endLabel)
	}

	if hasElse {
		g.b.EmitLabel(elseLabel)
		if err := g.genStatement(ctx, n.Child(2)); err != nil {
			return err
		}
		if !g.b.Terminated() {
			g.b.EmitBr(endLabel)
		}
	}

	g.b.EmitLabel(endLabel)
	return nil
}

func (g *Generator) genWhile(ctx Context, n *ast.Node) error {
	condLabel := g.b.NewLabel()
	bodyLabel := g.b.NewLabel()
	endLabel := g.b.NewLabel()

	g.b.EmitBr(condLabel)
	g.b.EmitLabel(condLabel)
	cond, err := g.lowerExpr(ctx, n.Child(0), wantValue)
	if err != nil {
		return err
	}
	g.b.EmitCondBr(g.truthValue(cond), bodyLabel, endLabel)

	g.b.EmitLabel(bodyLabel)
	inner := ctx
	inner.BreakLabel = endLabel
	inner.ContinueLabel = condLabel
	if err := g.genStatement(inner, n.Child(1)); err != nil {
		return err
	}
	if !g.b.Terminated() {
		g.b.EmitBr(condLabel)
	}
	g.b.EmitLabel(endLabel)
	return nil
}

func (g *Generator) genDoWhile(ctx Context, n *ast.Node) error {
	bodyLabel := g.b.NewLabel()
	condLabel := g.b.NewLabel()
	endLabel := g.b.NewLabel()

	g.b.EmitBr(bodyLabel)
	g.b.EmitLabel(bodyLabel)
	inner := ctx
	inner.BreakLabel = endLabel
	inner.ContinueLabel = condLabel
	if err := g.genStatement(inner, n.Child(0)); err != nil {
		return err
	}
	if !g.b.Terminated() {
		g.b.EmitBr(condLabel)
	}

	g.b.EmitLabel(condLabel)
	cond, err := g.lowerExpr(ctx, n.Child(1), wantValue)
	if err != nil {
		return err
	}
	g.b.EmitCondBr(g.truthValue(cond), bodyLabel, endLabel)
	g.b.EmitLabel(endLabel)
	return nil
}

func (g *Generator) genFor(ctx Context, n *ast.Node) error {
	inner := ctx
	inner.Idents = ctx.Idents.Enter()

	init, cond, step, body := n.Child(0), n.Child(1), n.Child(2), n.Child(3)
	if init.Kind == "declaration" {
		if err := g.genDeclaration(inner, init, false); err != nil {
			return err
		}
	} else if init.Kind != "empty" {
		if _, err := g.lowerExpr(inner, init, wantValue); err != nil {
			return err
		}
	}

	condLabel := g.b.NewLabel()
	bodyLabel := g.b.NewLabel()
	stepLabel := g.b.NewLabel()
	endLabel := g.b.NewLabel()

	g.b.EmitBr(condLabel)
	g.b.EmitLabel(condLabel)
	if cond.Kind != "empty" {
		cv, err := g.lowerExpr(inner, cond, wantValue)
		if err != nil {
			return err
		}
		g.b.EmitCondBr(g.truthValue(cv), bodyLabel, endLabel)
	} else {
		g.b.EmitBr(bodyLabel)
	}

	g.b.EmitLabel(bodyLabel)
	loopCtx := inner
	loopCtx.BreakLabel = endLabel
	loopCtx.ContinueLabel = stepLabel
	if err := g.genStatement(loopCtx, body); err != nil {
		return err
	}
	if !g.b.Terminated() {
		g.b.EmitBr(stepLabel)
	}

	g.b.EmitLabel(stepLabel)
	if step.Kind != "empty" {
		if _, err := g.lowerExpr(inner, step, wantValue); err != nil {
			return err
		}
	}
	g.b.EmitBr(condLabel)
	g.b.EmitLabel(endLabel)
	return nil
}

func (g *Generator) genReturn(ctx Context, n *ast.Node) error {
	if len(n.Children) == 0 {
		if g.curFunc.retType.Kind != types.Void {
			return g.errAt(n.Pos, diag.CodeBadReturnExpr, "non-void function must return a value")
		}
		g.b.EmitRetVoid()
		return nil
	}
	if g.curFunc.retType.Kind == types.Void {
		return g.errAt(n.Pos, diag.CodeBadReturnExpr, "void function must not return a value")
	}
	v, err := g.lowerExpr(ctx, n.Child(0), wantValue)
	if err != nil {
		return err
	}
	v = g.convertValue(v, g.curFunc.retType)
	g.b.EmitRet(g.irType(g.curFunc.retType), g.operand(v))
	return nil
}

// genSwitch evaluates the controlling expression, pre-walks the body to
// assign every case/default an IR label and check for duplicates, emits the
// switch instruction up front, then walks the body as an ordinary statement
// sequence: fallthrough between cases falls out for free, since each
// case/default statement just opens its pre-assigned label without an
// intervening branch, exactly like a plain `label:` target.
func (g *Generator) genSwitch(ctx Context, n *ast.Node) error {
	expr, body := n.Child(0), n.Child(1)
	val, err := g.lowerExpr(ctx, expr, wantValue)
	if err != nil {
		return err
	}
	if !types.IsInteger(val.Type) {
		return g.errAt(n.Pos, diag.CodeBadOperands, "switch expression must have integer type")
	}
	promoted := types.Promote(val.Type)
	val = g.convertValue(val, promoted)

	sw := &SwitchState{Values: map[int64]bool{}, Labels: map[*ast.Node]string{}}
	if err := g.collectSwitchLabels(ctx, body, sw); err != nil {
		return err
	}

	endLabel := g.b.NewLabel()
	dflt := endLabel
	if sw.HasDflt {
		dflt = sw.DefaultLabel
	}
	g.b.EmitSwitch(g.irType(promoted), g.operand(val), dflt, sw.Order)

	inner := ctx
	inner.BreakLabel = endLabel
	inner.Switch = sw
	if err := g.genStatement(inner, body); err != nil {
		return err
	}
	if !g.b.Terminated() {
		g.b.EmitBr(endLabel)
	}
	g.b.EmitLabel(endLabel)
	return nil
}

func (g *Generator) collectSwitchLabels(ctx Context, n *ast.Node, sw *SwitchState) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case "switch":
		return nil // a nested switch owns its own case/default namespace
	case "case":
		v, err := g.evalConstIntExpr(ctx, n.Child(0))
		if err != nil {
			return err
		}
		if sw.Values[v] {
			return g.errAt(n.Pos, diag.CodeDuplicateCase, "duplicate case value")
		}
		sw.Values[v] = true
		lbl := g.b.NewLabel()
		sw.Labels[n] = lbl
		sw.Order = append(sw.Order, [2]string{strconv.FormatInt(v, 10), lbl})
		return g.collectSwitchLabels(ctx, n.Child(1), sw)
	case "default":
		if sw.HasDflt {
			return g.errAt(n.Pos, diag.CodeDuplicateDefault, "duplicate 'default' label")
		}
		sw.HasDflt = true
		lbl := g.b.NewLabel()
		sw.Labels[n] = lbl
		sw.DefaultLabel = lbl
		return g.collectSwitchLabels(ctx, n.Child(0), sw)
	case "compound_statement":
		for _, c := range n.Children {
			if err := g.collectSwitchLabels(ctx, c, sw); err != nil {
				return err
			}
		}
		return nil
	case "if":
		for _, c := range n.Children[1:] {
			if err := g.collectSwitchLabels(ctx, c, sw); err != nil {
				return err
			}
		}
		return nil
	case "while":
		return g.collectSwitchLabels(ctx, n.Child(1), sw)
	case "do_while":
		return g.collectSwitchLabels(ctx, n.Child(0), sw)
	case "for":
		return g.collectSwitchLabels(ctx, n.Child(3), sw)
	case "label":
		return g.collectSwitchLabels(ctx, n.Child(0), sw)
	}
	return nil
}

func (g *Generator) genCase(ctx Context, n *ast.Node) error {
	if ctx.Switch == nil {
		return g.errAt(n.Pos, diag.CodeBadOperands, "'case' label not within a switch statement")
	}
	lbl, ok := ctx.Switch.Labels[n]
	if !ok {
		return g.errAt(n.Pos, diag.CodeBadOperands, "'case' label not within a switch statement")
	}
	g.b.EmitLabel(lbl)
	return g.genStatement(ctx, n.Child(1))
}

func (g *Generator) genDefault(ctx Context, n *ast.Node) error {
	if ctx.Switch == nil {
		return g.errAt(n.Pos, diag.CodeBadOperands, "'default' label not within a switch statement")
	}
	lbl, ok := ctx.Switch.Labels[n]
	if !ok {
		return g.errAt(n.Pos, diag.CodeBadOperands, "'default' label not within a switch statement")
	}
	g.b.EmitLabel(lbl)
	return g.genStatement(ctx, n.Child(0))
}
