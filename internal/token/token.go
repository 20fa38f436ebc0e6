package token

import "fmt"

type Kind int

const (
	Illegal Kind = iota
	EOF

	Ident // Identifier
	Num   // Integer literal

	// Keywords
	Class
	Public
	Private
	Static
	Void
	IntType     // int
	BooleanType // boolean
	This
	Return
	If
	Else
	While
	For
	True
	False
	Null
	New

	// Operators
	Assign // =

	Plus  // +
	Minus // -
	Star  // *
	Slash // /

	Bang   // !
	AndAnd // &&
	OrOr   // ||

	Eq    // ==
	NotEq // !=
	Lt    // <
	LtEq  // <=
	Gt    // >
	GtEq  // >=

	// Symbols
	Comma     // ,
	Semicolon // ;
	Dot       // .

	LParen   // (
	RParen   // )
	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
)

type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Position
}

var names = [...]string{
	Illegal:     "Illegal",
	EOF:         "EOF",
	Ident:       "Ident",
	Num:         "Num",
	Class:       "class",
	Public:      "public",
	Private:     "private",
	Static:      "static",
	Void:        "void",
	IntType:     "int",
	BooleanType: "boolean",
	This:        "this",
	Return:      "return",
	If:          "if",
	Else:        "else",
	While:       "while",
	For:         "for",
	True:        "true",
	False:       "false",
	Null:        "null",
	New:         "new",
	Assign:      "=",
	Plus:        "+",
	Minus:       "-",
	Star:        "*",
	Slash:       "/",
	Bang:        "!",
	AndAnd:      "&&",
	OrOr:        "||",
	Eq:          "==",
	NotEq:       "!=",
	Lt:          "<",
	LtEq:        "<=",
	Gt:          ">",
	GtEq:        ">=",
	Comma:       ",",
	Semicolon:   ";",
	Dot:         ".",
	LParen:      "(",
	RParen:      ")",
	LBrace:      "{",
	RBrace:      "}",
	LBracket:    "[",
	RBracket:    "]",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(names) && names[k] != "" {
		return names[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"class":   Class,
	"public":  Public,
	"private": Private,
	"static":  Static,
	"void":    Void,
	"int":     IntType,
	"boolean": BooleanType,
	"this":    This,
	"return":  Return,
	"if":      If,
	"else":    Else,
	"while":   While,
	"for":     For,
	"true":    True,
	"false":   False,
	"null":    Null,
	"new":     New,
}

func LookupIdent(lit string) Kind {
	if kind, ok := keywords[lit]; ok {
		return kind
	}
	return Ident
}
