package lexer_test

import (
	"testing"

	"github.com/shahneil/mini-java-compiler/internal/lexer"
	"github.com/shahneil/mini-java-compiler/internal/token"
)

func TestNextToken_BasicProgram(t *testing.T) {
	input := `class A {
    public static void main(String[] args) {
        int x = 1 + 2;
        System.out.println(x);
    }
}
`

	tests := []struct {
		kind token.Kind
		lit  string
	}{
		{token.Class, "class"},
		{token.Ident, "A"},
		{token.LBrace, "{"},

		{token.Public, "public"},
		{token.Static, "static"},
		{token.Void, "void"},
		{token.Ident, "main"},
		{token.LParen, "("},
		{token.Ident, "String"},
		{token.LBracket, "["},
		{token.RBracket, "]"},
		{token.Ident, "args"},
		{token.RParen, ")"},
		{token.LBrace, "{"},

		{token.IntType, "int"},
		{token.Ident, "x"},
		{token.Assign, "="},
		{token.Num, "1"},
		{token.Plus, "+"},
		{token.Num, "2"},
		{token.Semicolon, ";"},

		{token.Ident, "System"},
		{token.Dot, "."},
		{token.Ident, "out"},
		{token.Dot, "."},
		{token.Ident, "println"},
		{token.LParen, "("},
		{token.Ident, "x"},
		{token.RParen, ")"},
		{token.Semicolon, ";"},

		{token.RBrace, "}"},
		{token.RBrace, "}"},
		{token.EOF, ""},
	}

	l := lexer.New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.kind {
			t.Fatalf("tests[%d] - kind wrong. expected=%s, got=%s (%q)", i, tt.kind, tok.Kind, tok.Lexeme)
		}
		if tok.Lexeme != tt.lit {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.lit, tok.Lexeme)
		}
	}
	if errs := l.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected lexer errors: %v", errs)
	}
}

func TestNextToken_Operators(t *testing.T) {
	input := `= == != ! && || < <= > >= + - * /`
	expected := []token.Kind{
		token.Assign, token.Eq, token.NotEq, token.Bang, token.AndAnd, token.OrOr,
		token.Lt, token.LtEq, token.Gt, token.GtEq,
		token.Plus, token.Minus, token.Star, token.Slash,
		token.EOF,
	}

	l := lexer.New(input)
	for i, kind := range expected {
		tok := l.NextToken()
		if tok.Kind != kind {
			t.Fatalf("token %d: expected %s, got %s", i, kind, tok.Kind)
		}
	}
}

func TestNextToken_CommentsAndPositions(t *testing.T) {
	input := `// line comment
/* block
   comment */ this.count_2 /* trailing */
null`

	l := lexer.New(input)

	tok := l.NextToken()
	if tok.Kind != token.This {
		t.Fatalf("expected this, got %s", tok.Kind)
	}
	if tok.Pos.Line != 3 || tok.Pos.Column != 15 {
		t.Errorf("expected position 3:15, got %s", tok.Pos)
	}

	l.NextToken() // .
	tok = l.NextToken()
	if tok.Kind != token.Ident || tok.Lexeme != "count_2" {
		t.Fatalf("expected identifier count_2, got %s %q", tok.Kind, tok.Lexeme)
	}

	tok = l.NextToken()
	if tok.Kind != token.Null || tok.Pos.Line != 4 {
		t.Fatalf("expected null on line 4, got %s at %s", tok.Kind, tok.Pos)
	}
	if tok := l.NextToken(); tok.Kind != token.EOF {
		t.Fatalf("expected EOF, got %s", tok.Kind)
	}
}

func TestNextToken_IllegalCharacters(t *testing.T) {
	l := lexer.New("a & b # c")
	var kinds []token.Kind
	for {
		tok := l.NextToken()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}

	if len(l.Errors()) != 2 {
		t.Fatalf("expected 2 lexer errors, got %d: %v", len(l.Errors()), l.Errors())
	}
	if kinds[1] != token.Illegal || kinds[3] != token.Illegal {
		t.Errorf("expected illegal tokens at 1 and 3, got %v", kinds)
	}
}

func TestNextToken_UnterminatedComment(t *testing.T) {
	l := lexer.New("int /* never closed")
	l.NextToken()
	if tok := l.NextToken(); tok.Kind != token.EOF {
		t.Fatalf("expected EOF, got %s", tok.Kind)
	}
	if len(l.Errors()) != 1 {
		t.Fatalf("expected unterminated comment error, got %v", l.Errors())
	}
}
