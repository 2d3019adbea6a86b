// Package sema implements the semantic generator: it walks the parsed AST,
// resolves names through scoped symbol tables, computes and checks types,
// and emits SSA-style IR through internal/irgen, per §4.5 and §4.6.
package sema

import (
	"github.com/student/nanocc/internal/ast"
	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/irgen"
	"github.com/student/nanocc/internal/source"
	"github.com/student/nanocc/internal/types"
)

// Generator owns the IR builder and the whole-translation-unit state: the
// typedef table, the struct/union IR-naming assignment, and which built-in
// externals have already been declared.
type Generator struct {
	b        *irgen.Builder
	fs       *source.FileSet
	typedefs map[string]*types.Type

	structNames map[*types.FieldList]string
	anonCount   int

	externsUsed map[string]bool

	curFunc *funcInfo
}

type funcInfo struct {
	name       string
	retType    *types.Type
	labels     Namespace
	usedLabels map[string]bool
	defdLabels map[string]bool
}

// NewGenerator creates a Generator over a fresh IR builder.
func NewGenerator(fs *source.FileSet) *Generator {
	return &Generator{
		b:           irgen.NewBuilder(),
		fs:          fs,
		typedefs:    map[string]*types.Type{},
		structNames: map[*types.FieldList]string{},
		externsUsed: map[string]bool{},
	}
}

func (g *Generator) errAt(pos source.Pos, code diag.Code, msg string) error {
	return diag.New(stageForCode(code), code, diag.Span{
		Filename: g.fs.Path(pos.File), Line: pos.Line, Column: pos.Column,
	}, msg)
}

func stageForCode(code diag.Code) diag.Stage {
	switch code {
	case diag.CodeUndefinedIdent, diag.CodeUndefinedTag, diag.CodeRedefinition,
		diag.CodeDuplicateCase, diag.CodeDuplicateDefault, diag.CodeLabelRedefined, diag.CodeUndefinedLabel:
		return diag.StageName
	case diag.CodeBreakOutsideLoop, diag.CodeContinueOutsideLoop:
		return diag.StageFlow
	default:
		return diag.StageType
	}
}

// Generate lowers a whole translation_unit node and returns the rendered IR
// text.
func (g *Generator) Generate(tree *ast.Node) (string, error) {
	ctx := Context{Idents: NewNamespace(), Tags: NewNamespace()}
	for _, decl := range tree.Children {
		if err := g.genExternalDecl(ctx, decl); err != nil {
			return "", err
		}
	}
	return g.b.String(), nil
}

func (g *Generator) genExternalDecl(ctx Context, n *ast.Node) error {
	switch n.Kind {
	case "function_definition":
		return g.genFunctionDefinition(ctx, n)
	case "declaration":
		return g.genDeclaration(ctx, n, true)
	}
	return g.errAt(n.Pos, diag.CodeBadTypeSpecifier, "unsupported top-level construct")
}

// isTypedef reports whether a specifiers node carries the typedef storage
// class.
func isTypedef(specs *ast.Node) bool {
	for _, s := range specs.Children {
		if s.Kind == "storage_class" && s.Text == "typedef" {
			return true
		}
	}
	return false
}

func declaratorName(d *ast.Node) string {
	core := d.Child(1)
	for core != nil && core.Kind == "paren" {
		core = core.Child(0).Child(1)
	}
	if core != nil {
		return core.Text
	}
	return ""
}

func (g *Generator) genFunctionDefinition(ctx Context, n *ast.Node) error {
	specs, declNode, body := n.Child(0), n.Child(1), n.Child(2)
	base, err := g.resolveSpecifiers(ctx, specs)
	if err != nil {
		return err
	}
	fnType, name, err := g.resolveDeclarator(ctx, base, declNode)
	if err != nil {
		return err
	}
	if fnType.Kind != types.Function {
		return g.errAt(n.Pos, diag.CodeBadTypeSpecifier, "function definition does not have function type")
	}
	paramNames := functionParamNames(declNode)

	ctx.Idents.Def(name, &Symbol{Name: name, Type: fnType, IRName: "@" + name, IsFunc: true})

	bodyCtx := ctx
	bodyCtx.Idents = ctx.Idents.Enter()

	sig := g.functionSignature(name, fnType, paramNames)
	g.b.StartFunction(name, sig)

	g.curFunc = &funcInfo{name: name, retType: fnType.Return, labels: NewNamespace(), usedLabels: map[string]bool{}, defdLabels: map[string]bool{}}
	g.predeclareLabels(body)

	g.b.EmitLabel("entry")
	for i, pname := range paramNames {
		pty := fnType.Params[i]
		slot := g.b.Alloca(g.irType(pty))
		g.b.EmitStore(g.irType(pty), paramReg(i), slot)
		bodyCtx.Idents.Def(pname, &Symbol{Name: pname, Type: pty, IRName: slot})
	}

	if err := g.genCompoundStatement(bodyCtx, body); err != nil {
		return err
	}
	if !g.b.Terminated() {
		if fnType.Return.Kind == types.Void {
			g.b.EmitRetVoid()
		} else {
			g.b.EmitRet(g.irType(fnType.Return), zeroValueLiteral(fnType.Return))
		}
	}

	for label := range g.curFunc.usedLabels {
		if !g.curFunc.defdLabels[label] {
			return g.errAt(n.Pos, diag.CodeUndefinedLabel, "undefined label '"+label+"'")
		}
	}
	g.b.FinishFunction()
	g.curFunc = nil
	return nil
}

func paramReg(i int) string {
	return "%p" + itoaSmall(i)
}

func itoaSmall(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func functionParamNames(declNode *ast.Node) []string {
	suffixes := declNode.Child(2).Children
	if len(suffixes) == 0 {
		return nil
	}
	last := suffixes[len(suffixes)-1]
	if last.Kind != "func_params" {
		return nil
	}
	var names []string
	for _, p := range last.Children {
		names = append(names, declaratorName(p.Child(1)))
	}
	return names
}

func (g *Generator) functionSignature(name string, fnType *types.Type, paramNames []string) string {
	var params string
	for i, pt := range fnType.Params {
		if i > 0 {
			params += ", "
		}
		params += g.irType(pt) + " " + paramReg(i)
	}
	if fnType.Variadic {
		if params != "" {
			params += ", "
		}
		params += "..."
	}
	return "define " + g.irType(fnType.Return) + " @" + name + "(" + params + ")"
}

// predeclareLabels walks a function body once, before emission, binding an
// IR label to every `label:` statement so every `goto` target is known up
// front. Switch `case`/`default` labels are not bound here; they are
// assigned per switch.
func (g *Generator) predeclareLabels(body *ast.Node) {
	var walk func(n *ast.Node)
	walk = func(n *ast.Node) {
		if n == nil {
			return
		}
		if n.Kind == "label" {
			lbl := g.b.NewLabel()
			g.curFunc.labels.Def(n.Text, &Symbol{Name: n.Text, IRName: lbl})
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(body)
}

func zeroValueLiteral(t *types.Type) string {
	if types.IsFloat(t) {
		return "0.0"
	}
	if t.Kind == types.Pointer {
		return "null"
	}
	return "0"
}
