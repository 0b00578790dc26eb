// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import "reflect"

// TokenText returns the source text of a token.
func TokenText(t Token) string {
	return t.text
}

// TokenValue returns the Go value of a literal token.
func TokenValue(t Token) any {
	return t.value
}

// ResolveTypeName exposes the type alias table.
func ResolveTypeName(name string) (reflect.Type, bool) {
	return resolveTypeName(name)
}

// PromoteNumeric exposes the numeric promotion rules.
func PromoteNumeric(a, b reflect.Type) (reflect.Type, bool) {
	return promoteNumeric(a, b)
}

// ImplicitConvertible exposes the implicit conversion rules.
func ImplicitConvertible(from, to reflect.Type) bool {
	return implicitConvertible(from, to)
}

// Mutates reports whether the bound expression assigns to anything.
func Mutates(te *TypedExpr) bool {
	return te.mutates
}
