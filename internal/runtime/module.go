package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Mr-Ali-Jafari/xorlang/internal/ast"
	"github.com/Mr-Ali-Jafari/xorlang/internal/diag"
	"github.com/Mr-Ali-Jafari/xorlang/internal/lexer"
	"github.com/Mr-Ali-Jafari/xorlang/internal/parser"
	"github.com/Mr-Ali-Jafari/xorlang/internal/span"
)

// stdlibFiles is the fixed preload order. Missing files are skipped.
var stdlibFiles = []string{
	"prelude.xor",
	"core.xor",
	"string.xor",
	"lists.xor",
	"gui.xor",
}

// The parse cache is process-wide and keyed by filename, so constructing
// many interpreters does not re-read or re-parse the stdlib.
var (
	parseCacheMu sync.Mutex
	parseCache   = make(map[string]*parsedFile)
)

type parsedFile struct {
	source string
	block  *ast.BlockStmt
}

// parseFileCached reads and parses a file, consulting the cache first.
func parseFileCached(path, stdlibDir string) (*parsedFile, *diag.Error) {
	parseCacheMu.Lock()
	pf, ok := parseCache[path]
	parseCacheMu.Unlock()
	if ok {
		return pf, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.New(diag.ImportError, path, "", span.Span{}, "File '%s' not found", path)
	}
	source := string(data)

	l := lexer.New(source, path)
	l.SetStdlibDir(stdlibDir)
	tokens, lexErr := l.Tokenize()
	if lexErr != nil {
		return nil, lexErr
	}

	p := parser.New(tokens, path, source)
	block, parseErr := p.Parse()
	if parseErr != nil {
		return nil, parseErr
	}

	pf = &parsedFile{source: source, block: block}
	parseCacheMu.Lock()
	parseCache[path] = pf
	parseCacheMu.Unlock()
	return pf, nil
}

// ============================================================
// Module loading (import <name>)
// ============================================================

// loadModule resolves and executes a module, returning its environment as
// a namespace value. Results are cached by resolved path, so a module's
// side effects run once per interpreter.
func (i *Interpreter) loadModule(name string, s span.Span) (Value, error) {
	if strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return nil, runtimeErr(s, "Import error: Invalid module path")
	}

	rel := strings.TrimPrefix(name, "stdlib/")
	if filepath.Ext(rel) != ".xor" {
		rel += ".xor"
	}
	path := filepath.Join(i.stdlibDir, rel)

	if mod, ok := i.modules[path]; ok {
		return mod, nil
	}

	pf, diagErr := parseFileCached(path, i.stdlibDir)
	if diagErr != nil {
		switch diagErr.Kind {
		case diag.ImportError:
			return nil, runtimeErr(s, "Import error: Module '%s' not found", name)
		case diag.SyntaxError:
			return nil, runtimeErr(s, "Parse error in module '%s': %s", name, diagErr.Message)
		default:
			return nil, runtimeErr(s, "Lex error in module '%s': %s", name, diagErr.Message)
		}
	}

	// Modules execute in a fresh environment chained to the globals:
	// natives and the preloaded stdlib are visible, module-local names
	// stay isolated.
	moduleEnv := NewEnvironment(i.global)
	if err := i.execInEnv(pf.block, moduleEnv); err != nil {
		if re, ok := err.(*RuntimeError); ok {
			return nil, runtimeErr(s, "Runtime error in module '%s': %s", name, re.Message)
		}
		return nil, err
	}

	mod := &ModuleVal{Name: name, Env: moduleEnv}
	i.modules[path] = mod
	return mod, nil
}

// execInEnv runs a block's statements directly in env (definitions land in
// env itself). Error positions identify their own file, so no per-file
// state is tracked here.
func (i *Interpreter) execInEnv(block *ast.BlockStmt, env *Environment) error {
	prevEnv := i.env
	i.env = env
	defer func() { i.env = prevEnv }()

	for _, node := range block.Stmts {
		result, err := i.execNode(node)
		if err != nil {
			return err
		}
		if result.Signal == SigReturn {
			return runtimeErr(node.GetSpan(), "'return' used outside of a function.")
		}
		if result.Signal != SigNone {
			return runtimeErr(node.GetSpan(), "'%s' used outside of a loop.", signalWord(result.Signal))
		}
	}
	return nil
}

// ============================================================
// Stdlib preloading
// ============================================================

// LoadStdlib loads the standard library files into the global environment
// in their fixed order. A missing stdlib root or missing individual file
// is silently skipped. Loading happens once per interpreter; later calls
// are no-ops so the REPL can reuse the entry point per input line.
func (i *Interpreter) LoadStdlib() *diag.Error {
	if i.stdlibLoaded || i.stdlibDir == "" {
		return nil
	}
	i.stdlibLoaded = true
	if info, err := os.Stat(i.stdlibDir); err != nil || !info.IsDir() {
		return nil
	}

	for _, file := range stdlibFiles {
		path := filepath.Join(i.stdlibDir, file)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		pf, diagErr := parseFileCached(path, i.stdlibDir)
		if diagErr != nil {
			return diagErr
		}
		if err := i.execInEnv(pf.block, i.global); err != nil {
			if re, ok := err.(*RuntimeError); ok {
				return diag.New(diag.RuntimeError, path, pf.source, re.Span, "%s", re.Message)
			}
			return diag.New(diag.RuntimeError, path, pf.source, span.Span{}, "%s", err)
		}
	}
	return nil
}

// ============================================================
// Program entry point
// ============================================================

// RunProgram drives the whole pipeline for one source unit: stdlib
// preload, lex, parse, and evaluation. Exactly one of the results is
// meaningful: the program value on success, the rendered error otherwise.
func (i *Interpreter) RunProgram(filename, source string) (Value, *diag.Error) {
	if err := i.LoadStdlib(); err != nil {
		return nil, err
	}

	l := lexer.New(source, filename)
	l.SetStdlibDir(i.stdlibDir)
	tokens, lexErr := l.Tokenize()
	if lexErr != nil {
		return nil, lexErr
	}

	p := parser.New(tokens, filename, source)
	block, parseErr := p.Parse()
	if parseErr != nil {
		return nil, parseErr
	}

	result, err := i.Run(block)
	if err != nil {
		if re, ok := err.(*RuntimeError); ok {
			return nil, diag.New(diag.RuntimeError, filename, source, re.Span, "%s", re.Message)
		}
		return nil, diag.New(diag.RuntimeError, filename, source, span.Span{}, "%s", err)
	}
	return result, nil
}
