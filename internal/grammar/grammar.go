// Package grammar holds the miniJava grammar in EBNF form. The parser is
// hand-written; this grammar documents what it accepts and is verified
// for consistency in tests and by "minijava grammar --verify".
package grammar

import (
	_ "embed"
	"sort"
	"strings"

	"golang.org/x/exp/ebnf"
)

//go:embed minijava.ebnf
var source string

// Start is the production every program derives from.
const Start = "Program"

const filename = "minijava.ebnf"

// Source returns the grammar text.
func Source() string { return source }

// Parse parses the embedded grammar.
func Parse() (ebnf.Grammar, error) {
	return ebnf.Parse(filename, strings.NewReader(source))
}

// Verify parses the grammar and checks that every production is defined,
// reachable from Start and that lexical productions only use lexical
// productions.
func Verify() (ebnf.Grammar, error) {
	g, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := ebnf.Verify(g, Start); err != nil {
		return nil, err
	}
	return g, nil
}

// Productions returns the production names of g in sorted order.
func Productions(g ebnf.Grammar) []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Terminals returns every quoted token used in g, sorted and without
// duplicates. Range bounds are not included.
func Terminals(g ebnf.Grammar) []string {
	seen := make(map[string]bool)
	for _, prod := range g {
		collect(prod.Expr, seen)
	}
	out := make([]string, 0, len(seen))
	for tok := range seen {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

func collect(expr ebnf.Expression, seen map[string]bool) {
	switch x := expr.(type) {
	case ebnf.Alternative:
		for _, e := range x {
			collect(e, seen)
		}
	case ebnf.Sequence:
		for _, e := range x {
			collect(e, seen)
		}
	case *ebnf.Group:
		collect(x.Body, seen)
	case *ebnf.Option:
		collect(x.Body, seen)
	case *ebnf.Repetition:
		collect(x.Body, seen)
	case *ebnf.Token:
		seen[x.String] = true
	}
}
