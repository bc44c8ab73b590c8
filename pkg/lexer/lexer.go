// Package lexer turns Rift source text into a token stream.
package lexer

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/jmahotiedu/rift/pkg/token"
)

// Error is a scan-time diagnostic with a 1-based source position.
type Error struct {
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[line %d, col %d] Scan error: %s", e.Line, e.Column, e.Msg)
}

// Lexer scans a source string into tokens, collecting errors instead of
// stopping at the first invalid character.
type Lexer struct {
	source  []rune
	tokens  []token.Token
	errors  []*Error
	start   int
	current int
	line    int
	column  int
}

func New(source string) *Lexer {
	return &Lexer{
		source: []rune(source),
		line:   1,
		column: 1,
	}
}

// ScanTokens scans the whole source and returns the token stream terminated
// by an EOF token. Errors are available via Errors.
func (l *Lexer) ScanTokens() []token.Token {
	for !l.isAtEnd() {
		l.start = l.current
		l.scanToken()
	}
	l.tokens = append(l.tokens, token.Token{
		Type:   token.EOF,
		Line:   l.line,
		Column: l.column,
	})
	return l.tokens
}

// Errors returns the scan errors in source order.
func (l *Lexer) Errors() []*Error {
	return l.errors
}

func (l *Lexer) scanToken() {
	c := l.advance()
	switch c {
	case '(':
		l.addToken(token.LeftParen, nil)
	case ')':
		l.addToken(token.RightParen, nil)
	case '{':
		l.addToken(token.LeftBrace, nil)
	case '}':
		l.addToken(token.RightBrace, nil)
	case ',':
		l.addToken(token.Comma, nil)
	case '.':
		l.addToken(token.Dot, nil)
	case '-':
		l.addToken(token.Minus, nil)
	case '+':
		l.addToken(token.Plus, nil)
	case ';':
		l.addToken(token.Semicolon, nil)
	case '*':
		l.addToken(token.Star, nil)
	case '%':
		l.addToken(token.Percent, nil)
	case '!':
		if l.match('=') {
			l.addToken(token.BangEqual, nil)
		} else {
			l.addToken(token.Bang, nil)
		}
	case '=':
		if l.match('=') {
			l.addToken(token.EqualEqual, nil)
		} else {
			l.addToken(token.Equal, nil)
		}
	case '<':
		if l.match('=') {
			l.addToken(token.LessEqual, nil)
		} else {
			l.addToken(token.Less, nil)
		}
	case '>':
		if l.match('=') {
			l.addToken(token.GreaterEqual, nil)
		} else {
			l.addToken(token.Greater, nil)
		}
	case '/':
		if l.match('/') {
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		} else {
			l.addToken(token.Slash, nil)
		}
	case ' ', '\r', '\t':
		// insignificant whitespace
	case '\n':
		l.line++
		l.column = 1
	case '"':
		l.scanString()
	default:
		switch {
		case isDigit(c):
			l.scanNumber()
		case isAlpha(c):
			l.scanIdentifier()
		default:
			l.errors = append(l.errors, &Error{
				Line:   l.line,
				Column: l.column - 1,
				Msg:    fmt.Sprintf("unexpected character %q", c),
			})
		}
	}
}

func (l *Lexer) scanString() {
	startLine := l.line
	startCol := l.column - 1
	var value []rune

	for !l.isAtEnd() && l.peek() != '"' {
		ch := l.peek()
		if ch == '\n' {
			l.line++
			l.column = 0
		}
		if ch == '\\' {
			l.advance()
			if l.isAtEnd() {
				break
			}
			esc := l.advance()
			switch esc {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case '\\':
				value = append(value, '\\')
			case '"':
				value = append(value, '"')
			default:
				value = append(value, '\\', esc)
			}
			continue
		}
		value = append(value, l.advance())
	}

	if l.isAtEnd() {
		l.errors = append(l.errors, &Error{Line: startLine, Column: startCol, Msg: "unterminated string"})
		return
	}

	l.advance() // closing quote
	l.addToken(token.String, string(value))
}

func (l *Lexer) scanNumber() {
	for !l.isAtEnd() && isDigit(l.peek()) {
		l.advance()
	}
	if !l.isAtEnd() && l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for !l.isAtEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}
	text := string(l.source[l.start:l.current])
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		l.errors = append(l.errors, &Error{Line: l.line, Column: l.column - len(text), Msg: fmt.Sprintf("invalid number literal %q", text)})
		return
	}
	l.addToken(token.Number, num)
}

func (l *Lexer) scanIdentifier() {
	for !l.isAtEnd() && (isAlphaNumeric(l.peek()) || l.peek() == '_') {
		l.advance()
	}
	text := string(l.source[l.start:l.current])
	if kw, ok := token.Keywords[text]; ok {
		l.addToken(kw, nil)
		return
	}
	l.addToken(token.Identifier, nil)
}

func (l *Lexer) advance() rune {
	c := l.source[l.current]
	l.current++
	l.column++
	return c
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.current++
	l.column++
	return true
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() rune {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) addToken(t token.Type, literal any) {
	text := string(l.source[l.start:l.current])
	l.tokens = append(l.tokens, token.Token{
		Type:    t,
		Lexeme:  text,
		Literal: literal,
		Line:    l.line,
		Column:  l.column - len(text),
	})
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isAlpha(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isAlphaNumeric(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c)
}
