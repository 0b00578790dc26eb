// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// lexer turns a lambda expression into a sequence of tokens.
type lexer struct {
	input string
	pos   int
	// nextPos is start of the next char.
	nextPos int
	// char is the rune starting at pos. char is set to 0 when pos reaches the
	// end of input.
	char   rune
	tokens []Token
}

// Tokenize converts the input into tokens. The returned slice always ends with
// an EOF token.
func Tokenize(input string) ([]Token, error) {
	l := &lexer{input: input}
	l.advanceChar()
	for {
		l.skipBlanks()
		if l.pos >= len(l.input) {
			l.tokens = append(l.tokens, Token{kind: tokEOF, pos: len(l.input)})
			return l.tokens, nil
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
	}
}

// advanceChar moves the lexer to the next character in the input.
func (l *lexer) advanceChar() bool {
	if l.nextPos >= len(l.input) {
		l.char = 0
		l.pos = l.nextPos
		return false
	}
	var size int
	l.char, size = utf8.DecodeRuneInString(l.input[l.nextPos:])
	l.pos = l.nextPos
	l.nextPos += size
	return true
}

// peekChar returns the rune after the current one, or 0 at the end of input.
func (l *lexer) peekChar() rune {
	if l.nextPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.nextPos:])
	return r
}

// skipChar jumps over the current char if it matches c.
func (l *lexer) skipChar(c rune) bool {
	if l.pos < len(l.input) && l.char == c {
		l.advanceChar()
		return true
	}
	return false
}

// skipBlanks advances the lexer past whitespace.
func (l *lexer) skipBlanks() {
	for l.pos < len(l.input) && unicode.IsSpace(l.char) {
		l.advanceChar()
	}
}

func (l *lexer) errorf(pos int, format string, args ...any) error {
	end := l.pos
	if end <= pos {
		end = pos + 1
	}
	if end > len(l.input) {
		end = len(l.input)
	}
	return errorAt(KindLex, l.input, pos, l.input[pos:end], format, args...)
}

func (l *lexer) next() (Token, error) {
	start := l.pos
	c := l.char
	switch {
	case c == '"':
		return l.lexString(start)
	case c == '\'':
		return l.lexChar(start)
	case c == '@' && l.peekChar() == '"':
		l.advanceChar()
		return l.lexVerbatimString(start)
	case c == '@' && isInitialNameChar(l.peekChar()):
		l.advanceChar()
		tok := l.lexIdentifier(l.pos)
		tok.pos = start
		tok.escaped = true
		return tok, nil
	case c == '$' && (l.peekChar() == '"' || l.peekChar() == '@'):
		return Token{}, errorAt(KindUnsupported, l.input, start, "$", "string interpolation is not supported")
	case isDigit(c) || (c == '.' && isDigit(l.peekChar())):
		return l.lexNumber(start)
	case isInitialNameChar(c):
		return l.lexIdentifier(start), nil
	}

	rest := l.input[start:]
	for _, op := range operators {
		if !strings.HasPrefix(rest, op) {
			continue
		}
		// "a ? .5 : 1" is a conditional, not a null-conditional access.
		if op == "?." && len(rest) > 2 && isDigit(rune(rest[2])) {
			continue
		}
		for range op {
			l.advanceChar()
		}
		return Token{kind: tokOp, text: op, pos: start}, nil
	}
	l.advanceChar()
	return Token{}, l.errorf(start, "unexpected character %q", c)
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

// isNameChar returns true if the given char can be part of a name.
func isNameChar(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

// isInitialNameChar returns true if the given char can appear at the start of
// a name.
func isInitialNameChar(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func (l *lexer) lexIdentifier(start int) Token {
	for l.pos < len(l.input) && isNameChar(l.char) {
		l.advanceChar()
	}
	text := l.input[start:l.pos]
	switch text {
	case "true":
		return Token{kind: tokLiteral, text: text, pos: start, value: true}
	case "false":
		return Token{kind: tokLiteral, text: text, pos: start, value: false}
	case "null":
		return Token{kind: tokLiteral, text: text, pos: start, value: nil}
	}
	return Token{kind: tokIdent, text: text, pos: start}
}

// lexNumber lexes integer and real literals, including their type suffix.
func (l *lexer) lexNumber(start int) (Token, error) {
	base := 10
	if l.char == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		base = 16
	} else if l.char == '0' && (l.peekChar() == 'b' || l.peekChar() == 'B') {
		base = 2
	}
	if base != 10 {
		l.advanceChar()
		l.advanceChar()
		digitsStart := l.pos
		for l.pos < len(l.input) && (isBaseDigit(l.char, base) || l.char == '_') {
			l.advanceChar()
		}
		digits := strings.ReplaceAll(l.input[digitsStart:l.pos], "_", "")
		if digits == "" {
			return Token{}, l.errorf(start, "invalid numeric literal")
		}
		suffix := l.lexSuffix()
		return l.integerToken(start, digits, base, suffix)
	}

	real := false
	l.skipDigits()
	if l.char == '.' && isDigit(l.peekChar()) {
		real = true
		l.advanceChar()
		l.skipDigits()
	}
	if l.char == 'e' || l.char == 'E' {
		real = true
		l.advanceChar()
		if l.char == '+' || l.char == '-' {
			l.advanceChar()
		}
		if !isDigit(l.char) {
			return Token{}, l.errorf(start, "invalid numeric literal: missing exponent digits")
		}
		l.skipDigits()
	}
	body := l.input[start:l.pos]
	if strings.HasSuffix(body, "_") || strings.Contains(body, "_.") || strings.Contains(body, "._") {
		return Token{}, l.errorf(start, "invalid numeric literal")
	}
	digits := strings.ReplaceAll(body, "_", "")
	suffix := l.lexSuffix()
	// Literals such as 1.2.3 are malformed rather than a member access.
	if real && l.char == '.' && isDigit(l.peekChar()) {
		return Token{}, l.errorf(start, "invalid numeric literal")
	}

	switch suffix {
	case "f", "d", "m":
		return l.realToken(start, digits, suffix)
	case "":
		if real {
			return l.realToken(start, digits, suffix)
		}
	default:
		if real {
			return Token{}, l.errorf(start, "invalid suffix %q on real literal", suffix)
		}
	}
	return l.integerToken(start, digits, 10, suffix)
}

func (l *lexer) skipDigits() {
	for l.pos < len(l.input) && (isDigit(l.char) || l.char == '_') {
		l.advanceChar()
	}
}

func isBaseDigit(c rune, base int) bool {
	switch base {
	case 2:
		return c == '0' || c == '1'
	case 16:
		return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	}
	return isDigit(c)
}

// lexSuffix consumes a numeric type suffix and returns it in lower case. A
// literal directly followed by any other name char is malformed, this is
// detected by the caller through the remaining char.
func (l *lexer) lexSuffix() string {
	start := l.pos
	for l.pos < len(l.input) && isNameChar(l.char) {
		l.advanceChar()
	}
	return strings.ToLower(l.input[start:l.pos])
}

func (l *lexer) integerToken(start int, digits string, base int, suffix string) (Token, error) {
	text := l.input[start:l.pos]
	n, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return Token{}, l.errorf(start, "integral constant is too large")
		}
		return Token{}, l.errorf(start, "invalid numeric literal")
	}
	tok := Token{kind: tokLiteral, text: text, pos: start}
	switch suffix {
	case "":
		if n <= math.MaxInt64 {
			tok.value = int(n)
		} else {
			tok.value = n
		}
	case "u":
		if n <= math.MaxUint32 {
			tok.value = uint32(n)
		} else {
			tok.value = n
		}
	case "l":
		if n <= math.MaxInt64 {
			tok.value = int64(n)
		} else {
			tok.value = n
		}
	case "ul", "lu":
		tok.value = n
	case "f", "d", "m":
		if base != 10 {
			return Token{}, l.errorf(start, "invalid suffix %q on hexadecimal or binary literal", suffix)
		}
		return l.realToken(start, digits, suffix)
	default:
		return Token{}, l.errorf(start, "invalid numeric literal suffix %q", suffix)
	}
	return tok, nil
}

func (l *lexer) realToken(start int, digits string, suffix string) (Token, error) {
	tok := Token{kind: tokLiteral, text: l.input[start:l.pos], pos: start}
	switch suffix {
	case "m":
		d, err := decimal.NewFromString(digits)
		if err != nil {
			return Token{}, l.errorf(start, "invalid decimal literal")
		}
		tok.value = d
	case "f":
		f, err := strconv.ParseFloat(digits, 32)
		if err != nil {
			return Token{}, l.errorf(start, "floating-point constant is outside the range of type float")
		}
		tok.value = float32(f)
	default:
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return Token{}, l.errorf(start, "floating-point constant is outside the range of type double")
		}
		tok.value = f
	}
	return tok, nil
}

// lexString lexes a regular string literal with backslash escapes.
func (l *lexer) lexString(start int) (Token, error) {
	l.advanceChar()
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) || l.char == '\n' {
			return Token{}, l.errorf(start, "unterminated string literal")
		}
		if l.skipChar('"') {
			break
		}
		if l.char == '\\' {
			r, err := l.lexEscape()
			if err != nil {
				return Token{}, err
			}
			sb.WriteRune(r)
			continue
		}
		sb.WriteRune(l.char)
		l.advanceChar()
	}
	return Token{kind: tokLiteral, text: l.input[start:l.pos], pos: start, value: sb.String()}, nil
}

// lexVerbatimString lexes @"..." where a doubled quote is an escaped quote.
func (l *lexer) lexVerbatimString(start int) (Token, error) {
	l.advanceChar()
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return Token{}, l.errorf(start, "unterminated verbatim string literal")
		}
		if l.skipChar('"') {
			if !l.skipChar('"') {
				break
			}
			sb.WriteRune('"')
			continue
		}
		sb.WriteRune(l.char)
		l.advanceChar()
	}
	return Token{kind: tokLiteral, text: l.input[start:l.pos], pos: start, value: sb.String()}, nil
}

// lexChar lexes a character literal.
func (l *lexer) lexChar(start int) (Token, error) {
	l.advanceChar()
	var r rune
	switch {
	case l.pos >= len(l.input) || l.char == '\n':
		return Token{}, l.errorf(start, "unterminated character literal")
	case l.char == '\'':
		l.advanceChar()
		return Token{}, l.errorf(start, "empty character literal")
	case l.char == '\\':
		var err error
		if r, err = l.lexEscape(); err != nil {
			return Token{}, err
		}
	default:
		r = l.char
		l.advanceChar()
	}
	if !l.skipChar('\'') {
		if l.pos >= len(l.input) || l.char == '\n' {
			return Token{}, l.errorf(start, "unterminated character literal")
		}
		return Token{}, l.errorf(start, "too many characters in character literal")
	}
	return Token{kind: tokLiteral, text: l.input[start:l.pos], pos: start, value: r}, nil
}

// lexEscape decodes the escape sequence starting at the current backslash.
func (l *lexer) lexEscape() (rune, error) {
	start := l.pos
	l.advanceChar()
	c := l.char
	if l.pos >= len(l.input) {
		return 0, l.errorf(start, "unterminated escape sequence")
	}
	l.advanceChar()
	switch c {
	case '\'', '"', '\\':
		return c, nil
	case '0':
		return 0, nil
	case 'a':
		return '\a', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'v':
		return '\v', nil
	case 'u':
		return l.lexHexEscape(start, 4, 4)
	case 'x':
		return l.lexHexEscape(start, 1, 4)
	}
	return 0, l.errorf(start, "unrecognized escape sequence")
}

func (l *lexer) lexHexEscape(start int, min, max int) (rune, error) {
	digitsStart := l.pos
	for l.pos-digitsStart < max && l.pos < len(l.input) && isBaseDigit(l.char, 16) {
		l.advanceChar()
	}
	digits := l.input[digitsStart:l.pos]
	if len(digits) < min {
		return 0, l.errorf(start, "unrecognized escape sequence")
	}
	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, l.errorf(start, "unrecognized escape sequence")
	}
	return rune(n), nil
}
