package grammar

import (
	"strings"
	"testing"
	"unicode"

	"github.com/nalgeon/be"

	"github.com/shahneil/mini-java-compiler/internal/lexer"
	"github.com/shahneil/mini-java-compiler/internal/token"
)

func TestVerify(t *testing.T) {
	g, err := Verify()
	be.Err(t, err, nil)

	names := Productions(g)
	be.True(t, len(names) > 20)
	be.Equal(t, g[Start].Name.String, Start)
}

// Every word in the grammar must be a keyword of the scanner, and every
// symbol must scan as a single token.
func TestTerminalsMatchScanner(t *testing.T) {
	g, err := Verify()
	be.Err(t, err, nil)

	for _, term := range Terminals(g) {
		if term == "_" {
			continue
		}
		if unicode.IsLetter(rune(term[0])) {
			if token.LookupIdent(term) == token.Ident {
				t.Errorf("grammar word %q is not a keyword", term)
			}
			continue
		}
		l := lexer.New(term)
		tok := l.NextToken()
		if tok.Lexeme != term || l.NextToken().Kind != token.EOF {
			t.Errorf("grammar symbol %q does not scan as one token", term)
		}
	}
}

func TestSourceIsEmbedded(t *testing.T) {
	be.True(t, strings.HasPrefix(Source(), "Program"))
}
