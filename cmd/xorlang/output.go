package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Mr-Ali-Jafari/xorlang/internal/diag"
	"github.com/Mr-Ali-Jafari/xorlang/internal/token"
	"github.com/jedib0t/go-pretty/v6/table"
)

// ---- output helpers ----

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: JSON encoding failed: %v\n", err)
		os.Exit(1)
	}
}

func printError(e *diag.Error) {
	fmt.Fprintln(os.Stderr, e.Render())
}

// ---- token output helpers ----

func printTokensTable(tokens []token.Token) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"KIND", "LEXEME", "LINE", "COL"})
	for _, tok := range tokens {
		t.AppendRow(table.Row{
			tok.Kind.String(),
			tok.Lexeme,
			tok.Span.Start.Line,
			tok.Span.Start.Column,
		})
	}
	t.Render()
}

func printTokensJSON(tokens []token.Token) {
	type tokenJSON struct {
		Kind   string `json:"kind"`
		Lexeme string `json:"lexeme"`
		Line   int    `json:"line"`
		Column int    `json:"column"`
		Offset int    `json:"offset"`
	}

	var toks []tokenJSON
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:   tok.Kind.String(),
			Lexeme: tok.Lexeme,
			Line:   tok.Span.Start.Line,
			Column: tok.Span.Start.Column,
			Offset: tok.Span.Start.Offset,
		})
	}

	printJSON(map[string]interface{}{"tokens": toks})
}
