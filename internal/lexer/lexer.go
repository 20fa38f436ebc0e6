package lexer

import (
	"unicode"

	"github.com/shahneil/mini-java-compiler/internal/diag"
	"github.com/shahneil/mini-java-compiler/internal/token"
)

type Lexer struct {
	input []rune

	pos int

	ch   rune
	line int
	col  int

	errors []error
}

func New(input string) *Lexer {
	l := &Lexer{
		input: []rune(input),
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// Errors returns lexical errors (unterminated comments, stray characters).
func (l *Lexer) Errors() []error {
	return l.errors
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := token.Position{
		Line:   l.line,
		Column: l.col,
	}

	ch := l.ch

	if ch == 0 {
		return token.Token{
			Kind:   token.EOF,
			Lexeme: "",
			Pos:    pos,
		}
	}

	if isDigit(ch) {
		return token.Token{
			Kind:   token.Num,
			Lexeme: l.readNumber(),
			Pos:    pos,
		}
	}

	// Identifiers / keywords
	if isLetter(ch) {
		lit := l.readIdentifier()
		return token.Token{
			Kind:   token.LookupIdent(lit),
			Lexeme: lit,
			Pos:    pos,
		}
	}

	var kind token.Kind
	var lexeme string

	switch ch {
	case ';':
		kind, lexeme = token.Semicolon, ";"
	case ',':
		kind, lexeme = token.Comma, ","
	case '.':
		kind, lexeme = token.Dot, "."
	case '(':
		kind, lexeme = token.LParen, "("
	case ')':
		kind, lexeme = token.RParen, ")"
	case '{':
		kind, lexeme = token.LBrace, "{"
	case '}':
		kind, lexeme = token.RBrace, "}"
	case '[':
		kind, lexeme = token.LBracket, "["
	case ']':
		kind, lexeme = token.RBracket, "]"
	case '+':
		kind, lexeme = token.Plus, "+"
	case '-':
		kind, lexeme = token.Minus, "-"
	case '*':
		kind, lexeme = token.Star, "*"
	case '/':
		kind, lexeme = token.Slash, "/"
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			kind, lexeme = token.NotEq, "!="
		} else {
			kind, lexeme = token.Bang, "!"
		}
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			kind, lexeme = token.AndAnd, "&&"
		} else {
			kind, lexeme = token.Illegal, "&"
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			kind, lexeme = token.OrOr, "||"
		} else {
			kind, lexeme = token.Illegal, "|"
		}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			kind, lexeme = token.Eq, "=="
		} else {
			kind, lexeme = token.Assign, "="
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			kind, lexeme = token.LtEq, "<="
		} else {
			kind, lexeme = token.Lt, "<"
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			kind, lexeme = token.GtEq, ">="
		} else {
			kind, lexeme = token.Gt, ">"
		}
	default:
		kind, lexeme = token.Illegal, string(ch)
	}

	if kind == token.Illegal {
		l.errorf(pos, "unexpected character %q", lexeme)
	}

	l.readChar()

	return token.Token{
		Kind:   kind,
		Lexeme: lexeme,
		Pos:    pos,
	}
}

// Helpers

func (l *Lexer) errorf(pos token.Position, format string, args ...interface{}) {
	l.errors = append(l.errors, diag.Errorf(pos, format, args...))
}

func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		l.ch = 0
		return
	}

	l.ch = l.input[l.pos]
	l.pos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) peekChar() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}

		if l.ch == '/' {
			switch l.peekChar() {
			case '/':
				l.readChar() // '/'
				l.readChar() // second '/'
				for l.ch != '\n' && l.ch != 0 {
					l.readChar()
				}
				continue
			case '*':
				start := token.Position{Line: l.line, Column: l.col}
				l.readChar() // '/'
				l.readChar() // '*'
				for {
					if l.ch == 0 {
						l.errorf(start, "unterminated comment")
						return
					}
					if l.ch == '*' && l.peekChar() == '/' {
						l.readChar() // '*'
						l.readChar() // '/'
						break
					}
					l.readChar()
				}
				continue
			}
		}

		break
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos - 1 // current rune is already in l.ch
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.segment(start)
}

func (l *Lexer) readNumber() string {
	start := l.pos - 1
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.segment(start)
}

// segment returns the runes from start up to (not including) the current char.
func (l *Lexer) segment(start int) string {
	end := l.pos - 1
	if l.ch == 0 {
		end = len(l.input)
	}
	return string(l.input[start:end])
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
