// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// KindLex is a malformed token.
	KindLex Kind = iota + 1
	// KindParse is a grammar violation.
	KindParse
	// KindUnboundIdentifier is a reference to an undeclared parameter.
	KindUnboundIdentifier
	// KindUnknownMember is a member that the target type does not have.
	KindUnknownMember
	// KindTypeMismatch is an operand or conversion that cannot be typed.
	KindTypeMismatch
	// KindUnsupported is valid C#-like syntax that is not implemented.
	KindUnsupported
	// KindRuntime is a failure while invoking a compiled expression.
	KindRuntime
)

func (k Kind) String() string {
	switch k {
	case KindLex:
		return "lex error"
	case KindParse:
		return "parse error"
	case KindUnboundIdentifier:
		return "unbound identifier"
	case KindUnknownMember:
		return "unknown member"
	case KindTypeMismatch:
		return "type mismatch"
	case KindUnsupported:
		return "unsupported construct"
	case KindRuntime:
		return "runtime error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsBind reports whether the kind belongs to the binding tier.
func (k Kind) IsBind() bool {
	return k == KindUnboundIdentifier || k == KindUnknownMember || k == KindTypeMismatch
}

// Error is the error type returned by every stage of the compiler and by
// compiled expressions.
type Error struct {
	Kind Kind
	// Pos is the byte offset of the offending token in the query, or -1.
	Pos int
	// Column is the 1 based column of Pos.
	Column int
	// Token is the offending source text, if known.
	Token string
	Msg   string
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Column > 0 {
		s += fmt.Sprintf(" at column %d", e.Column)
	}
	s += ": " + e.Msg
	if e.Token != "" {
		s += fmt.Sprintf(" (near %q)", e.Token)
	}
	return s
}

// Is lets errors.Is match an Error against the package sentinels.
func (e *Error) Is(target error) bool {
	s, ok := target.(*sentinel)
	if !ok {
		return false
	}
	if s.bind {
		return e.Kind.IsBind()
	}
	return e.Kind == s.kind
}

type sentinel struct {
	kind Kind
	bind bool
	name string
}

func (s *sentinel) Error() string {
	return s.name
}

// Sentinels for use with errors.Is. ErrBind matches all three binding kinds.
var (
	ErrLex               error = &sentinel{kind: KindLex, name: "lex error"}
	ErrParse             error = &sentinel{kind: KindParse, name: "parse error"}
	ErrBind              error = &sentinel{bind: true, name: "bind error"}
	ErrUnboundIdentifier error = &sentinel{kind: KindUnboundIdentifier, name: "unbound identifier"}
	ErrUnknownMember     error = &sentinel{kind: KindUnknownMember, name: "unknown member"}
	ErrTypeMismatch      error = &sentinel{kind: KindTypeMismatch, name: "type mismatch"}
	ErrUnsupported       error = &sentinel{kind: KindUnsupported, name: "unsupported construct"}
	ErrRuntime           error = &sentinel{kind: KindRuntime, name: "runtime error"}
)

// errorAt builds an Error located at pos in the input.
func errorAt(kind Kind, input string, pos int, token string, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		Pos:    pos,
		Column: columnOf(input, pos),
		Token:  token,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// runtimeError builds an Error of kind KindRuntime.
func runtimeError(format string, args ...any) *Error {
	return &Error{Kind: KindRuntime, Pos: -1, Msg: fmt.Sprintf(format, args...)}
}

// columnOf returns the 1 based column of the byte offset pos, counting from
// the last line break.
func columnOf(input string, pos int) int {
	if pos < 0 || pos > len(input) {
		return 0
	}
	col := 1
	for i := pos - 1; i >= 0 && input[i] != '\n'; i-- {
		// Count runes, not continuation bytes.
		if input[i]&0xC0 != 0x80 {
			col++
		}
	}
	return col
}
