// Command nanocc is the driver for the compiler: it wires the file
// manager, preprocessor, token converter, parser, and semantic generator
// together behind the CLI contract in SPEC_FULL.md §2.1/§6.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/logutils"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/student/nanocc/internal/convert"
	"github.com/student/nanocc/internal/diag"
	"github.com/student/nanocc/internal/lexer"
	"github.com/student/nanocc/internal/parser"
	"github.com/student/nanocc/internal/preproc"
	"github.com/student/nanocc/internal/sema"
	"github.com/student/nanocc/internal/source"
)

var (
	flagOutput string
	flagLex    bool
	flagPP     bool
	flagPreAST bool
	flagAST    bool
	flagDebug  bool
	formatter  = diag.NewFormatter()
)

func main() {
	root := &cobra.Command{
		Use:           "nanocc [flags] <input>",
		Short:         "nanocc compiles a single translation unit to SSA-style IR",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bad flags/arg count still print cobra's usage text (the
			// spec's "anything else" row); once we're actually compiling,
			// a failure is a diagnostic, not a usage problem.
			cmd.SilenceUsage = true
			return run(args[0])
		},
	}

	flags := root.Flags()
	flags.StringVarP(&flagOutput, "output", "o", "", "output file for the emitted IR (default: input with its extension replaced by .ll)")
	flags.BoolVar(&flagLex, "lex", false, "print pp-tokens before preprocessing and exit")
	flags.BoolVar(&flagPP, "pp", false, "print tokens after preprocessing and exit")
	flags.BoolVar(&flagPreAST, "pre-ast", false, "print language tokens after conversion and exit")
	flags.BoolVar(&flagAST, "ast", false, "print the parsed AST and exit")
	flags.BoolVarP(&flagDebug, "debug", "d", false, "raise log verbosity to DEBUG")

	if err := root.Execute(); err != nil {
		reportFailure(err)
		os.Exit(1)
	}
}

// setupLogging gates log output through a logutils.LevelFilter the same
// way qjcg-driving's main.go does: DEBUG traces only surface with --debug,
// INFO/WARN always do.
func setupLogging() {
	minLevel := logutils.LogLevel("INFO")
	if flagDebug {
		minLevel = logutils.LogLevel("DEBUG")
	}
	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN"},
		MinLevel: minLevel,
		Writer:   os.Stderr,
	}
	log.SetOutput(filter)
	log.SetFlags(0)
}

func run(inputPath string) error {
	setupLogging()

	fs := source.NewFileSet()
	idx, err := fs.Load(inputPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "reading %s", inputPath)
	}

	if flagLex {
		lx := lexer.New(fs, idx)
		toks, err := lx.Lex()
		if err != nil {
			return err
		}
		log.Printf("[DEBUG] raw lex of %s produced %d tokens", inputPath, toks.Len())
		printPPTokens(fs, toks.ToSlice())
		return nil
	}

	pp := preproc.New(fs)
	ppToks, err := pp.Run(inputPath)
	if err != nil {
		return err
	}
	log.Printf("[DEBUG] preprocessing produced %d tokens", len(ppToks))

	if flagPP {
		printPPTokens(fs, ppToks)
		return nil
	}

	langToks, err := convert.Convert(ppToks, fs)
	if err != nil {
		return err
	}

	if flagPreAST {
		printLangTokens(langToks)
		return nil
	}

	prs := parser.New(langToks, fs)
	tree, err := prs.Parse()
	if err != nil {
		return err
	}

	if flagAST {
		// spew.Sdump gives a stable, deeply-recursive dump of the AST for
		// inspection, replacing a hand-rolled %#v-style printer.
		fmt.Println(spew.Sdump(tree))
		return nil
	}

	gen := sema.NewGenerator(fs)
	ir, err := gen.Generate(tree)
	if err != nil {
		return err
	}

	outPath := flagOutput
	if outPath == "" {
		outPath = replaceExt(inputPath, ".ll")
	}
	if err := os.WriteFile(outPath, []byte(ir), 0o644); err != nil {
		return pkgerrors.Wrapf(err, "writing %s", outPath)
	}
	log.Printf("[INFO] wrote %s", outPath)
	return nil
}

func replaceExt(path, newExt string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + newExt
}

func printPPTokens(fs *source.FileSet, toks []lexer.Token) {
	for _, t := range toks {
		if t.Kind == lexer.Whitespace || t.Kind == lexer.Newline {
			continue
		}
		filename, line, col := t.Span(fs)
		fmt.Printf("%s:%d:%d\t%s\t%q\n", filepath.Base(filename), line, col, t.Kind, t.Text)
	}
}

func printLangTokens(toks []convert.Token) {
	for _, t := range toks {
		fmt.Printf("%d:%d\t%s\t%q\n", t.Pos.Line, t.Pos.Column, tokenKindName(t.Kind), t.Text)
	}
}

func tokenKindName(k convert.TokenKind) string {
	switch k {
	case convert.TokKeyword:
		return "keyword"
	case convert.TokIdent:
		return "ident"
	case convert.TokIntConst:
		return "int-const"
	case convert.TokFloatConst:
		return "float-const"
	case convert.TokStringConst:
		return "string-const"
	case convert.TokCharConst:
		return "char-const"
	case convert.TokPunct:
		return "punct"
	case convert.TokEOF:
		return "eof"
	default:
		return "tok(" + strconv.Itoa(int(k)) + ")"
	}
}

// reportFailure prints a *diag.Diagnostic with the caret-formatted renderer
// required by §6/§7, or any other error (I/O, internal) as a plain message.
func reportFailure(err error) {
	var d *diag.Diagnostic
	if errors.As(err, &d) {
		formatter.Format(d)
		return
	}
	fmt.Fprintf(os.Stderr, "nanocc: error: %v\n", err)
}
