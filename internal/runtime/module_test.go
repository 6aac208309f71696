package runtime

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mr-Ali-Jafari/xorlang/internal/diag"
	"github.com/Mr-Ali-Jafari/xorlang/internal/span"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStdlib writes files into a fresh stdlib root and returns its path.
func writeStdlib(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestImportModule(t *testing.T) {
	stdlib := writeStdlib(t, map[string]string{
		"mymod.xor": `var value = 41; func get() { return value + 1; };`,
	})

	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(stdlib)

	_, err := interp.RunProgram("test.xor", `var m = import mymod; print(m.get());`)
	require.Nil(t, err)
	assert.Equal(t, "42\n", buf.String())
}

func TestImportInExpressionPosition(t *testing.T) {
	stdlib := writeStdlib(t, map[string]string{
		"util.xor": `var answer = 42;`,
	})

	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(stdlib)

	_, err := interp.RunProgram("test.xor", `print((import util).answer);`)
	require.Nil(t, err)
	assert.Equal(t, "42\n", buf.String())
}

func TestRuntimeErrorInSplicedImportNamesImportedFile(t *testing.T) {
	// A runtime error raised by code spliced in from a quoted import must
	// render against the imported file's name and source text.
	dir := t.TempDir()
	subPath := filepath.Join(dir, "sub.xor")
	require.NoError(t, os.WriteFile(subPath, []byte("var boom = 1 / 0;"), 0o644))

	interp := NewInterpreter(&bytes.Buffer{})
	_, err := interp.RunProgram(filepath.Join(dir, "main.xor"), `import "sub";`)
	require.NotNil(t, err)
	assert.Equal(t, diag.RuntimeError, err.Kind)
	assert.Equal(t, "Division by zero", err.Message)
	assert.Equal(t, subPath, err.File)
	assert.Contains(t, err.Render(), "var boom = 1 / 0;")
}

func TestLoadModuleAcceptsStdlibPrefix(t *testing.T) {
	stdlib := writeStdlib(t, map[string]string{
		"util.xor": `var answer = 42;`,
	})

	interp := NewInterpreter(&bytes.Buffer{})
	interp.SetStdlibDir(stdlib)

	mod, err := interp.loadModule("stdlib/util", span.Span{})
	require.NoError(t, err)
	env := mod.(*ModuleVal).Env
	v, ok := env.GetOwn("answer")
	require.True(t, ok)
	assert.Equal(t, IntVal(42), v)
}

func TestImportSideEffectsRunOnce(t *testing.T) {
	stdlib := writeStdlib(t, map[string]string{
		"noisy.xor": `print("loaded"); var x = 1;`,
	})

	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(stdlib)

	_, err := interp.RunProgram("test.xor", `
var a = import noisy;
var b = import noisy;
print(a.x + b.x);
`)
	require.Nil(t, err)
	assert.Equal(t, "loaded\n2\n", buf.String())
}

func TestImportMissingModule(t *testing.T) {
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(t.TempDir())

	_, err := interp.RunProgram("test.xor", `var m = import nothere;`)
	require.NotNil(t, err)
	assert.Equal(t, "Import error: Module 'nothere' not found", err.Message)
}

func TestImportTraversalGuard(t *testing.T) {
	interp := NewInterpreter(&bytes.Buffer{})
	interp.SetStdlibDir(t.TempDir())

	_, err := interp.loadModule("../escape", span.Span{})
	require.Error(t, err)
	assert.Equal(t, "Import error: Invalid module path", err.(*RuntimeError).Message)

	_, err = interp.loadModule("/etc/passwd", span.Span{})
	require.Error(t, err)
	assert.Equal(t, "Import error: Invalid module path", err.(*RuntimeError).Message)
}

func TestImportSyntaxErrorReported(t *testing.T) {
	stdlib := writeStdlib(t, map[string]string{
		"broken.xor": `var x = ;`,
	})

	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(stdlib)

	_, err := interp.RunProgram("test.xor", `var m = import broken;`)
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "Parse error in module 'broken'")
}

func TestModuleLocalsStayIsolated(t *testing.T) {
	stdlib := writeStdlib(t, map[string]string{
		"mod.xor": `var secret = 7;`,
	})

	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(stdlib)

	_, err := interp.RunProgram("test.xor", `var m = import mod; print(secret);`)
	require.NotNil(t, err)
	assert.Equal(t, "Undefined variable 'secret'", err.Message)
}

func TestModuleMissingMember(t *testing.T) {
	stdlib := writeStdlib(t, map[string]string{
		"mod.xor": `var a = 1;`,
	})

	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(stdlib)

	_, err := interp.RunProgram("test.xor", `var m = import mod; print(m.b);`)
	require.NotNil(t, err)
	assert.Equal(t, "Module 'mod' has no member 'b'", err.Message)
}

func TestModuleSeesGlobals(t *testing.T) {
	stdlib := writeStdlib(t, map[string]string{
		"mod.xor": `func shout(s) { return s + "!"; };`,
	})

	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(stdlib)

	// Natives registered on the global environment are visible to modules.
	_, err := interp.RunProgram("test.xor", `var m = import mod; print(m.shout(toString(1)));`)
	require.Nil(t, err)
	assert.Equal(t, "1!\n", buf.String())
}

func TestStdlibPreload(t *testing.T) {
	stdlib := writeStdlib(t, map[string]string{
		"prelude.xor": `var PI = 3.14;`,
		"core.xor":    `func twice(x) { return x * 2; };`,
	})

	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(stdlib)

	_, err := interp.RunProgram("test.xor", `print(PI); print(twice(21));`)
	require.Nil(t, err)
	assert.Equal(t, "3.14\n42\n", buf.String())
}

func TestStdlibPreloadOrder(t *testing.T) {
	// core.xor may use names the prelude defined.
	stdlib := writeStdlib(t, map[string]string{
		"prelude.xor": `var base = 40;`,
		"core.xor":    `var derived = base + 2;`,
	})

	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(stdlib)

	_, err := interp.RunProgram("test.xor", `print(derived);`)
	require.Nil(t, err)
	assert.Equal(t, "42\n", buf.String())
}

func TestStdlibMissingFilesSkipped(t *testing.T) {
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(t.TempDir())

	_, err := interp.RunProgram("test.xor", `print("ok");`)
	require.Nil(t, err)
	assert.Equal(t, "ok\n", buf.String())
}

func TestStdlibMissingRootSkipped(t *testing.T) {
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(filepath.Join(t.TempDir(), "does", "not", "exist"))

	_, err := interp.RunProgram("test.xor", `print("ok");`)
	require.Nil(t, err)
}

func TestStdlibLoadsOncePerInterpreter(t *testing.T) {
	stdlib := writeStdlib(t, map[string]string{
		"prelude.xor": `print("prelude ran");`,
	})

	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	interp.SetStdlibDir(stdlib)

	_, err := interp.RunProgram("<repl>", `var a = 1;`)
	require.Nil(t, err)
	_, err = interp.RunProgram("<repl>", `var b = 2;`)
	require.Nil(t, err)

	assert.Equal(t, "prelude ran\n", buf.String())
}

func TestParseCacheReturnsSameEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cached.xor")
	require.NoError(t, os.WriteFile(path, []byte(`var x = 1;`), 0o644))

	first, err := parseFileCached(path, "")
	require.Nil(t, err)
	second, err := parseFileCached(path, "")
	require.Nil(t, err)

	assert.Same(t, first, second)
}
