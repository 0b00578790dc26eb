// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"fmt"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLiteral
	tokOp
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokLiteral:
		return "literal"
	case tokOp:
		return "operator"
	}
	return fmt.Sprintf("tokenKind(%d)", int(k))
}

// Token is a single lexical token of a lambda expression.
type Token struct {
	kind tokenKind
	// text is the raw source text of the token. For escaped identifiers such
	// as @int the leading '@' is dropped.
	text string
	// pos is the byte offset of the token in the input.
	pos int
	// value holds the Go value of literal tokens: bool, int, int64, uint32,
	// uint64, float32, float64, decimal.Decimal, string, rune, or nil for the
	// null literal.
	value any
	// escaped is set for identifiers written with a leading '@'. Escaped
	// identifiers are never treated as keywords.
	escaped bool
}

func (t Token) String() string {
	switch t.kind {
	case tokEOF:
		return "EOF"
	case tokLiteral:
		return fmt.Sprintf("Literal[%s]", t.text)
	case tokIdent:
		return fmt.Sprintf("Ident[%s]", t.text)
	}
	return fmt.Sprintf("Op[%s]", t.text)
}

// is reports whether t is the operator or punctuation op.
func (t Token) is(op string) bool {
	return t.kind == tokOp && t.text == op
}

// isKeyword reports whether t is the unescaped identifier kw.
func (t Token) isKeyword(kw string) bool {
	return t.kind == tokIdent && !t.escaped && t.text == kw
}

// operators lists every operator and punctuation sequence the lexer knows,
// longest first so that the first match is the longest.
var operators = []string{
	"??=", "<<=", ">>=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "?[", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>", "->", "::",
	"+", "-", "*", "/", "%", "<", ">", "=", "!", "~", "&", "|", "^", "?", ":",
	".", ",", "(", ")", "[", "]", "{", "}", ";",
}

// reservedWords are C# keywords that cannot be used as bare identifiers.
// Keywords that introduce constructs outside the supported grammar are
// reported as unsupported by the parser.
var reservedWords = map[string]bool{
	"as": true, "is": true, "new": true, "typeof": true, "default": true,
	"sizeof": true, "nameof": true, "checked": true, "unchecked": true,
	"switch": true, "with": true, "this": true, "base": true, "await": true,
	"delegate": true, "stackalloc": true, "ref": true, "out": true, "in": true,
	"throw": true, "return": true, "if": true, "else": true, "for": true,
	"foreach": true, "while": true, "do": true,
}
