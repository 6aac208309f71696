package diag

import (
	"testing"

	"github.com/Mr-Ali-Jafari/xorlang/internal/span"
)

func TestErrorOneLineForm(t *testing.T) {
	e := New(SyntaxError, "test.xor", "var x = ;", span.Span{
		Start: span.Position{Offset: 8, Line: 1, Column: 9},
	}, "Unexpected token '%s'", ";")

	if e.Error() != "SyntaxError: Unexpected token ';'" {
		t.Errorf("unexpected one-line form: %q", e.Error())
	}
}

func TestRenderWithCaret(t *testing.T) {
	source := "var a = 1;\nvar x = @;\n"
	e := New(IllegalCharacter, "test.xor", source, span.Span{
		Start: span.Position{Offset: 19, Line: 2, Column: 9},
	}, "Illegal character: '@'")

	expected := "IllegalCharacter: Illegal character: '@'\n" +
		"File test.xor, line 2\n" +
		"var x = @;\n" +
		"        ^"
	if got := e.Render(); got != expected {
		t.Errorf("render mismatch:\nexpected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestRenderCaretAtColumnOne(t *testing.T) {
	e := New(SyntaxError, "test.xor", "bad", span.Span{
		Start: span.Position{Offset: 0, Line: 1, Column: 1},
	}, "oops")

	expected := "SyntaxError: oops\n" +
		"File test.xor, line 1\n" +
		"bad\n" +
		"^"
	if got := e.Render(); got != expected {
		t.Errorf("render mismatch:\nexpected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestRenderWithoutSourceLine(t *testing.T) {
	// Errors with no source context (or a line past the end) omit the
	// source line and caret rather than rendering garbage.
	e := New(RuntimeError, "test.xor", "", span.Span{
		Start: span.Position{Line: 5, Column: 3},
	}, "Division by zero")

	expected := "RuntimeError: Division by zero\n" +
		"File test.xor, line 5"
	if got := e.Render(); got != expected {
		t.Errorf("render mismatch:\nexpected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestPositionOwnFileWins(t *testing.T) {
	// A position that names its own file renders against that file and its
	// source, not the file/source passed to New. This is what keeps errors
	// in spliced token streams pointing at the right file.
	e := New(SyntaxError, "main.xor", `import "sub";`, span.Span{
		Start: span.Position{
			Line: 1, Column: 14,
			File: "sub.xor", Source: "var broken = ;",
		},
	}, "Unexpected token ';'")

	if e.File != "sub.xor" {
		t.Errorf("expected file sub.xor, got %q", e.File)
	}
	expected := "SyntaxError: Unexpected token ';'\n" +
		"File sub.xor, line 1\n" +
		"var broken = ;\n" +
		"             ^"
	if got := e.Render(); got != expected {
		t.Errorf("render mismatch:\nexpected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestRenderStripsCarriageReturn(t *testing.T) {
	e := New(SyntaxError, "test.xor", "var x = 1;\r\n", span.Span{
		Start: span.Position{Line: 1, Column: 5},
	}, "oops")

	expected := "SyntaxError: oops\n" +
		"File test.xor, line 1\n" +
		"var x = 1;\n" +
		"    ^"
	if got := e.Render(); got != expected {
		t.Errorf("render mismatch:\nexpected:\n%s\ngot:\n%s", expected, got)
	}
}
