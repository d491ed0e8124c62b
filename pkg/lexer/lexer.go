package lexer

import (
	"strconv"
	"unicode"

	"github.com/xplshn/gmc/pkg/diag"
	"github.com/xplshn/gmc/pkg/token"
)

type Lexer struct {
	source    []rune
	fileIndex int
	pos       int
	line      int
	column    int
	bag       *diag.Bag
}

func NewLexer(source []rune, fileIndex int, bag *diag.Bag) *Lexer {
	return &Lexer{
		source: source, fileIndex: fileIndex, line: 1, column: 1, bag: bag,
	}
}

// Tokenize scans the whole input, including the trailing EOF token.
func (l *Lexer) Tokenize() []token.Token {
	var tokens []token.Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) Next() token.Token {
	for {
		l.skipWhitespaceAndComments()
		startPos, startCol, startLine := l.pos, l.column, l.line

		if l.isAtEnd() {
			return l.makeToken(token.EOF, "", startPos, startCol, startLine)
		}

		ch := l.peek()
		if unicode.IsLetter(ch) || ch == '_' {
			l.advance()
			return l.identifierOrKeyword(startPos, startCol, startLine)
		}
		if unicode.IsDigit(ch) {
			return l.numberLiteral(startPos, startCol, startLine)
		}

		l.advance()
		switch ch {
		case '(':
			return l.makeToken(token.LParen, "", startPos, startCol, startLine)
		case ')':
			return l.makeToken(token.RParen, "", startPos, startCol, startLine)
		case '{':
			return l.makeToken(token.LBrace, "", startPos, startCol, startLine)
		case '}':
			return l.makeToken(token.RBrace, "", startPos, startCol, startLine)
		case ';':
			return l.makeToken(token.Semi, "", startPos, startCol, startLine)
		case ',':
			return l.makeToken(token.Comma, "", startPos, startCol, startLine)
		case '~':
			return l.makeToken(token.Complement, "", startPos, startCol, startLine)
		case '+':
			return l.makeToken(token.Plus, "", startPos, startCol, startLine)
		case '-':
			return l.makeToken(token.Minus, "", startPos, startCol, startLine)
		case '*':
			return l.makeToken(token.Star, "", startPos, startCol, startLine)
		case '/':
			return l.makeToken(token.Slash, "", startPos, startCol, startLine)
		case '%':
			return l.makeToken(token.Rem, "", startPos, startCol, startLine)
		case '!':
			return l.matchThen('=', token.Neq, token.Not, startPos, startCol, startLine)
		case '=':
			return l.matchThen('=', token.EqEq, token.Eq, startPos, startCol, startLine)
		case '<':
			return l.matchThen('=', token.Lte, token.Lt, startPos, startCol, startLine)
		case '>':
			return l.matchThen('=', token.Gte, token.Gt, startPos, startCol, startLine)
		case '&':
			return l.matchThen('&', token.AndAnd, token.And, startPos, startCol, startLine)
		case '|':
			if l.match('|') {
				return l.makeToken(token.OrOr, "", startPos, startCol, startLine)
			}
		}

		tok := l.makeToken(token.EOF, "", startPos, startCol, startLine)
		l.bag.Errorf(diag.SyntaxError, tok, "unexpected character: '%c'", ch)
		// Keep scanning; a stray character should not hide later diagnostics.
	}
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: value, FileIndex: l.fileIndex,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.peek() {
		case ' ', '\t', '\n', '\r':
			l.advance()
		case '/':
			if l.peekNext() == '*' {
				l.blockComment()
			} else if l.peekNext() == '/' {
				l.lineComment()
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) blockComment() {
	startTok := l.makeToken(token.EOF, "", l.pos, l.column, l.line)
	l.advance()
	l.advance()
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
	l.bag.Errorf(diag.SyntaxError, startTok, "unterminated block comment")
}

func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) identifierOrKeyword(startPos, startCol, startLine int) token.Token {
	for unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	value := string(l.source[startPos:l.pos])
	tok := l.makeToken(token.Ident, value, startPos, startCol, startLine)

	if tokType, isKeyword := token.KeywordMap[value]; isKeyword {
		tok.Type = tokType
		tok.Value = ""
	}
	return tok
}

func (l *Lexer) numberLiteral(startPos, startCol, startLine int) token.Token {
	if l.peek() == '0' && (l.peekNext() == 'x' || l.peekNext() == 'X') {
		l.advance()
		l.advance()
		for unicode.IsDigit(l.peek()) || (l.peek() >= 'a' && l.peek() <= 'f') || (l.peek() >= 'A' && l.peek() <= 'F') {
			l.advance()
		}
	} else {
		for unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}

	valueStr := string(l.source[startPos:l.pos])
	tok := l.makeToken(token.Number, "", startPos, startCol, startLine)
	val, err := strconv.ParseInt(valueStr, 0, 64)
	if err != nil {
		l.bag.Errorf(diag.SyntaxError, tok, "invalid number literal: %s", valueStr)
		tok.Value = "0"
		return tok
	}
	tok.Value = strconv.FormatInt(val, 10)
	return tok
}

func (l *Lexer) matchThen(expected rune, thenType, elseType token.Type, sPos, sCol, sLine int) token.Token {
	if l.match(expected) {
		return l.makeToken(thenType, "", sPos, sCol, sLine)
	}
	return l.makeToken(elseType, "", sPos, sCol, sLine)
}
