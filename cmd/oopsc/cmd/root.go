// Package cmd implements the oopsc command line: a single invocation shape,
// `oopsc <flags> <source> [<out.asm>]`, following the teacher's root-command
// pattern (cmd/dwscript/cmd/root.go) but folding the equivalent of its
// compile.go subcommand into the root RunE, since this compiler has only
// one operation.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cerr "github.com/oops-lang/oopsc/internal/errors"
	"github.com/oops-lang/oopsc/internal/emitter"
	"github.com/oops-lang/oopsc/internal/lexer"
	"github.com/oops-lang/oopsc/internal/optimizer"
	"github.com/oops-lang/oopsc/internal/parser"
	"github.com/oops-lang/oopsc/internal/semantic"
)

// ExitError carries the process exit code a failed run should produce,
// distinguishing a compile error (1) from invalid usage or unreadable/
// unwritable files (2).
type ExitError struct{ Code int }

func (e *ExitError) Error() string { return fmt.Sprintf("exit %d", e.Code) }

var (
	optHelp       bool
	optDumpTyped  bool
	optDumpParsed bool
	optDumpIdents bool
	optDumpTokens bool
	optOptimize   bool
	optHeapWords  int
	optStackWords int
)

var rootCmd = &cobra.Command{
	Use:           "oopsc <source> [<out.asm>]",
	Short:         "Compile an oops source file to stack-machine assembly",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.RangeArgs(1, 2),
	RunE:          runCompile,
}

// Execute runs the root command. The single-dash flags -hs and -ss are
// rewritten to --hs and --ss first, since the flag parser would otherwise
// read them as the shorthand pair -h -s. A set -h flag is answered by cobra
// itself, before RunE, through the help function, which prints the usage
// line; Execute then returns exit code 2.
func Execute() error {
	args := append([]string{}, os.Args[1:]...)
	for i, arg := range args {
		if arg == "-hs" || arg == "-ss" {
			args[i] = "-" + arg
		}
	}
	rootCmd.SetArgs(args)
	rootCmd.SetHelpFunc(func(*cobra.Command, []string) { fmt.Fprint(os.Stdout, usage) })
	if err := rootCmd.Execute(); err != nil || !optHelp {
		return err
	}
	return &ExitError{Code: 2}
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&optHelp, "help", "h", false, "print help and exit")
	flags.BoolVarP(&optDumpTyped, "dump-typed", "c", false, "dump the typed AST after semantic analysis")
	flags.BoolVarP(&optDumpParsed, "dump-parsed", "s", false, "dump the AST after parsing")
	flags.BoolVarP(&optDumpIdents, "dump-idents", "i", false, "dump the identifier-resolution map")
	flags.BoolVarP(&optDumpTokens, "dump-tokens", "l", false, "print each token as scanned")
	flags.BoolVarP(&optOptimize, "optimize", "o", false, "run the optimizer before code generation")
	flags.IntVar(&optHeapWords, "hs", 100, "reserve N words of heap")
	flags.IntVar(&optStackWords, "ss", 100, "reserve N words of stack")
}

const usage = "usage: oopsc [-c] [-h] [-hs N] [-i] [-l] [-o] [-s] [-ss N] <source> [<out.asm>]\n"

func runCompile(_ *cobra.Command, args []string) error {
	if optHelp {
		fmt.Fprint(os.Stdout, usage)
		return &ExitError{Code: 2}
	}

	sourcePath := args[0]
	content, err := os.ReadFile(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stdout, "%s cannot be found or created\n", sourcePath)
		return &ExitError{Code: 2}
	}
	src := string(content)

	outPath := outputPath(sourcePath, args)

	asm, compileErr := compile(src)
	if compileErr != nil {
		if ce, ok := compileErr.(*cerr.CompilerError); ok {
			fmt.Fprintln(os.Stdout, ce.Error())
			return &ExitError{Code: 1}
		}
		fmt.Fprintln(os.Stdout, compileErr.Error())
		return &ExitError{Code: 1}
	}

	if err := os.WriteFile(outPath, []byte(asm), 0o644); err != nil {
		fmt.Fprintf(os.Stdout, "%s cannot be found or created\n", outPath)
		return &ExitError{Code: 2}
	}
	return nil
}

func outputPath(sourcePath string, args []string) string {
	if len(args) == 2 {
		return args[1]
	}
	ext := filepath.Ext(sourcePath)
	if ext == "" {
		return sourcePath + ".asm"
	}
	return strings.TrimSuffix(sourcePath, ext) + ".asm"
}

// compile runs the full pipeline (lex, parse, analyze, optionally optimize,
// emit), honoring the -l/-s/-i/-c dump flags along the way, and returns the
// assembly text on success.
func compile(src string) (string, error) {
	var lexOpts []lexer.LexerOption
	if optDumpTokens {
		lexOpts = append(lexOpts, lexer.WithTracing())
	}
	lex := lexer.New(src, lexOpts...)

	prog, err := parser.ParseProgram(lex)
	if optDumpTokens {
		for _, tok := range lex.Trace {
			fmt.Fprintln(os.Stdout, tok.String())
		}
	}
	if err != nil {
		return "", err
	}

	if optDumpParsed {
		fmt.Fprintln(os.Stdout, prog.String())
	}

	analyzer := semantic.NewAnalyzer(semantic.WithSource(src))
	if err := analyzer.Analyze(prog); err != nil {
		return "", err
	}
	builtins := analyzer.Table().Builtins()

	if optDumpIdents {
		dumpIdentifiers(os.Stdout, prog)
	}

	if optOptimize {
		optimizer.New(builtins).Optimize(prog)
	}

	if optDumpTyped {
		fmt.Fprintln(os.Stdout, prog.String())
	}

	em := emitter.New(builtins, emitter.Options{HeapWords: optHeapWords, StackWords: optStackWords})
	return em.Emit(prog)
}
