// Package diag provides the error types shared by every phase and the
// stable rendering format shown to users.
package diag

import (
	"fmt"
	"strings"

	"github.com/Mr-Ali-Jafari/xorlang/internal/span"
)

// Kind names an error family. The name is the first word of the rendered
// output, so it is part of the stable format.
type Kind string

const (
	IllegalCharacter   Kind = "IllegalCharacter"
	UnterminatedString Kind = "UnterminatedString"
	ExpectedCharacter  Kind = "ExpectedCharacter"
	ImportError        Kind = "ImportError"
	SyntaxError        Kind = "SyntaxError"
	RuntimeError       Kind = "RuntimeError"
)

// Error is a positioned error from any phase. It carries enough context
// (file name and source text) to render the offending line with a caret.
type Error struct {
	Kind    Kind
	Message string
	File    string
	Source  string
	Pos     span.Position
}

// New creates an Error anchored at the start of the given span. When the
// position names its own file, that file and its source win over the
// file/source arguments: a position inside a spliced import must render
// against the imported file, not the importing one.
func New(kind Kind, file, source string, s span.Span, format string, args ...interface{}) *Error {
	if s.Start.File != "" {
		file = s.Start.File
		source = s.Start.Source
	}
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		File:    file,
		Source:  source,
		Pos:     s.Start,
	}
}

// Error implements the error interface with the one-line form.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Render returns the full user-facing form:
//
//	<Kind>: <message>
//	File <name>, line <n>
//	<source line>
//	     ^
//
// Line and column are 1-based; the caret sits under the start column.
func (e *Error) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", e.Kind, e.Message)
	fmt.Fprintf(&b, "File %s, line %d", e.File, e.Pos.Line)
	line := sourceLine(e.Source, e.Pos.Line)
	if line != "" {
		b.WriteString("\n")
		b.WriteString(line)
		b.WriteString("\n")
		col := e.Pos.Column
		if col < 1 {
			col = 1
		}
		b.WriteString(strings.Repeat(" ", col-1))
		b.WriteString("^")
	}
	return b.String()
}

// sourceLine extracts the 1-based line n from source, without its newline.
func sourceLine(source string, n int) string {
	if n < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if n > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[n-1], "\r")
}
