// Command xorlang is the CLI entry point for the xorlang toolchain.
//
// Usage:
//
//	xorlang tokens <file>            Print tokens
//	xorlang tokens <file> --json     Print tokens as JSON
//	xorlang parse  <file>            Print AST as JSON
//	xorlang parse  <file> --dump     Pretty-dump the AST
//	xorlang run    <file>            Run a source file
//	xorlang repl                     Start interactive REPL
package main

import (
	"fmt"
	"os"
	"regexp"

	"github.com/Mr-Ali-Jafari/xorlang/internal/ast"
	"github.com/Mr-Ali-Jafari/xorlang/internal/config"
	"github.com/Mr-Ali-Jafari/xorlang/internal/lexer"
	"github.com/Mr-Ali-Jafari/xorlang/internal/parser"
	"github.com/Mr-Ali-Jafari/xorlang/internal/runtime"
	"github.com/sanity-io/litter"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	command := os.Args[1]

	switch command {
	case "tokens":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "error: missing file argument")
			os.Exit(1)
		}
		source := readFile(os.Args[2])
		cmdTokens(source, os.Args[2], cfg, hasFlag("--json"))
	case "parse":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "error: missing file argument")
			os.Exit(1)
		}
		source := readFile(os.Args[2])
		cmdParse(source, os.Args[2], cfg, hasFlag("--dump"))
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "error: missing file argument")
			os.Exit(1)
		}
		source := readFile(os.Args[2])
		cmdRun(source, os.Args[2], cfg)
	case "repl":
		cmdRepl(cfg)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command '%s'\n", command)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  xorlang tokens <file> [--json]       Tokenize and print tokens")
	fmt.Fprintln(os.Stderr, "  xorlang parse  <file> [--dump]       Parse and print AST")
	fmt.Fprintln(os.Stderr, "  xorlang run    <file>                Run a source file")
	fmt.Fprintln(os.Stderr, "  xorlang repl                         Start interactive REPL")
}

func loadConfig() *config.Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func readFile(filename string) string {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return string(source)
}

func hasFlag(flag string) bool {
	for _, arg := range os.Args[3:] {
		if arg == flag {
			return true
		}
	}
	return false
}

// ---- tokens command ----

func cmdTokens(source, filename string, cfg *config.Config, jsonMode bool) {
	l := lexer.New(source, filename)
	l.SetStdlibDir(cfg.StdlibPath)
	tokens, err := l.Tokenize()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonMode {
		printTokensJSON(tokens)
	} else {
		printTokensTable(tokens)
	}
}

// ---- parse command ----

func cmdParse(source, filename string, cfg *config.Config, dumpMode bool) {
	l := lexer.New(source, filename)
	l.SetStdlibDir(cfg.StdlibPath)
	tokens, err := l.Tokenize()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	p := parser.New(tokens, filename, source)
	block, parseErr := p.Parse()
	if parseErr != nil {
		printError(parseErr)
		os.Exit(1)
	}

	if dumpMode {
		// Positions carry the whole source text for error rendering;
		// repeating it on every node would drown the dump.
		dumper := litter.Options{
			HidePrivateFields: true,
			FieldExclusions:   regexp.MustCompile(`^(File|Source)$`),
		}
		dumper.Dump(block)
		return
	}
	printJSON(map[string]interface{}{"ast": ast.NodeToMap(block)})
}

// ---- run command ----

func cmdRun(source, filename string, cfg *config.Config) {
	interp := runtime.NewInterpreter(os.Stdout)
	interp.SetStdlibDir(cfg.StdlibPath)
	registerHostNatives(interp)

	if _, err := interp.RunProgram(filename, source); err != nil {
		printError(err)
		os.Exit(1)
	}
}
