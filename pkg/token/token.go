package token

type Type int

const (
	EOF Type = iota
	Ident
	Number

	// Keywords
	Int
	Void
	Return
	If
	Else
	While

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	Semi
	Comma

	// Operators
	Eq
	Plus
	Minus
	Star
	Slash
	Rem
	And
	Not
	Complement
	EqEq
	Neq
	Lt
	Gt
	Lte
	Gte
	AndAnd
	OrOr
)

var KeywordMap = map[string]Type{
	"int":    Int,
	"void":   Void,
	"return": Return,
	"if":     If,
	"else":   Else,
	"while":  While,
}

// Reverse mapping from Type to the keyword string
var TypeStrings = make(map[Type]string)

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
}

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}
