// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"math"
	"reflect"

	"github.com/shopspring/decimal"
)

// nullValue is the placeholder type of the null literal until it is unified
// with the type of its context.
type nullValue struct{}

var (
	boolType    = reflect.TypeOf(false)
	intType     = reflect.TypeOf(int(0))
	int64Type   = reflect.TypeOf(int64(0))
	uint32Type  = reflect.TypeOf(uint32(0))
	uint64Type  = reflect.TypeOf(uint64(0))
	float32Type = reflect.TypeOf(float32(0))
	float64Type = reflect.TypeOf(float64(0))
	stringType  = reflect.TypeOf("")
	decimalType = reflect.TypeOf(decimal.Decimal{})
	anyType     = reflect.TypeOf((*any)(nil)).Elem()
	nullType    = reflect.TypeOf(nullValue{})
)

// aliasTypes maps the C# keyword spelling of the primitive types to Go types.
// The nullable spelling "T?" of a value type resolves to *T, see
// resolveTypeName.
var aliasTypes = map[string]reflect.Type{
	"bool":    boolType,
	"byte":    reflect.TypeOf(uint8(0)),
	"sbyte":   reflect.TypeOf(int8(0)),
	"short":   reflect.TypeOf(int16(0)),
	"ushort":  reflect.TypeOf(uint16(0)),
	"int":     intType,
	"uint":    uint32Type,
	"long":    int64Type,
	"ulong":   uint64Type,
	"char":    reflect.TypeOf(rune(0)),
	"float":   float32Type,
	"double":  float64Type,
	"decimal": decimalType,
	"string":  stringType,
	"object":  anyType,
}

// resolveTypeName resolves a cast type such as "int" or "double?".
func resolveTypeName(name string) (reflect.Type, bool) {
	nullable := len(name) > 1 && name[len(name)-1] == '?'
	if nullable {
		name = name[:len(name)-1]
	}
	t, ok := aliasTypes[name]
	if !ok {
		return nil, false
	}
	if nullable {
		return nullableOf(t), true
	}
	return t, true
}

// typeName returns the C# spelling of t where there is one, for use in error
// messages.
func typeName(t reflect.Type) string {
	if t == nullType {
		return "null"
	}
	if t == anyType {
		return "object"
	}
	for name, at := range aliasTypes {
		if at == t {
			return name
		}
	}
	if t.Kind() == reflect.Pointer && isPrimitive(t.Elem()) {
		return typeName(t.Elem()) + "?"
	}
	return t.String()
}

// isNilable reports whether values of t can be nil.
func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	}
	return t == nullType
}

// isNullableValue reports whether t is the nullable counterpart *T of a value
// type T.
func isNullableValue(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && !isNilable(t.Elem())
}

// isNullablePrimitive reports whether t is *T for a primitive T. Operators are
// lifted over these types. Pointers to structs keep reference semantics.
func isNullablePrimitive(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && isPrimitive(t.Elem())
}

// nullableOf returns the nullable counterpart of t, or t if it is nilable.
func nullableOf(t reflect.Type) reflect.Type {
	if isNilable(t) {
		return t
	}
	return reflect.PointerTo(t)
}

// underlying strips the nullable wrapper from a nullable primitive.
func underlying(t reflect.Type) reflect.Type {
	if isNullablePrimitive(t) {
		return t.Elem()
	}
	return t
}

func isPrimitive(t reflect.Type) bool {
	return t.Kind() == reflect.Bool || t.Kind() == reflect.String || isNumeric(t)
}

func isNumeric(t reflect.Type) bool {
	return isIntegral(t) || isFloat(t) || t == decimalType
}

func isIntegral(t reflect.Type) bool {
	return isSigned(t) || isUnsigned(t)
}

func isSigned(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(t reflect.Type) bool {
	return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
}

// isULong reports whether t is one of the 64 bit unsigned kinds.
func isULong(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

// canonical returns the predeclared type with the same kind as the numeric,
// bool or string type t.
func canonical(t reflect.Type) reflect.Type {
	if t == decimalType {
		return t
	}
	switch t.Kind() {
	case reflect.Bool:
		return boolType
	case reflect.String:
		return stringType
	case reflect.Int:
		return intType
	case reflect.Int64:
		return int64Type
	case reflect.Uint32:
		return uint32Type
	case reflect.Uint64:
		return uint64Type
	case reflect.Uint, reflect.Uintptr:
		return reflect.TypeOf(uint(0))
	case reflect.Float32:
		return float32Type
	case reflect.Float64:
		return float64Type
	}
	return t
}

// unaryPromote applies the numeric promotion of unary operands: integral
// types narrower than int become int.
func unaryPromote(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return intType
	}
	return canonical(t)
}

// promoteNumeric returns the type both operands of a binary numeric operator
// are converted to.
func promoteNumeric(a, b reflect.Type) (reflect.Type, bool) {
	if !isNumeric(a) || !isNumeric(b) {
		return nil, false
	}
	// Signedness is taken from the operands as written: byte and ushort
	// mix with uint and ulong without widening.
	signed := isSigned(a) || isSigned(b)
	a, b = unaryPromote(a), unaryPromote(b)
	switch {
	case a == decimalType || b == decimalType:
		if isFloat(a) || isFloat(b) {
			return nil, false
		}
		return decimalType, true
	case a == float64Type || b == float64Type:
		return float64Type, true
	case a == float32Type || b == float32Type:
		return float32Type, true
	case isULong(a) || isULong(b):
		if signed {
			return nil, false
		}
		if a == b {
			return a, true
		}
		return uint64Type, true
	case a == int64Type || b == int64Type:
		return int64Type, true
	case a == uint32Type || b == uint32Type:
		if signed {
			return int64Type, true
		}
		return uint32Type, true
	}
	return intType, true
}

// implicitNumeric lists the implicit numeric conversions by source kind.
// Every integral kind also converts implicitly to decimal.
var implicitNumeric = map[reflect.Kind][]reflect.Kind{
	reflect.Int8:    {reflect.Int16, reflect.Int, reflect.Int64, reflect.Float32, reflect.Float64},
	reflect.Uint8:   {reflect.Int16, reflect.Uint16, reflect.Int, reflect.Uint32, reflect.Int64, reflect.Uint64, reflect.Uint, reflect.Float32, reflect.Float64},
	reflect.Int16:   {reflect.Int, reflect.Int64, reflect.Float32, reflect.Float64},
	reflect.Uint16:  {reflect.Int, reflect.Uint32, reflect.Int64, reflect.Uint64, reflect.Uint, reflect.Float32, reflect.Float64},
	reflect.Int32:   {reflect.Uint16, reflect.Int, reflect.Uint32, reflect.Int64, reflect.Uint64, reflect.Uint, reflect.Float32, reflect.Float64},
	reflect.Int:     {reflect.Int64, reflect.Float32, reflect.Float64},
	reflect.Uint32:  {reflect.Int64, reflect.Uint64, reflect.Uint, reflect.Float32, reflect.Float64},
	reflect.Int64:   {reflect.Float32, reflect.Float64},
	reflect.Uint64:  {reflect.Uint, reflect.Float32, reflect.Float64},
	reflect.Uint:    {reflect.Uint64, reflect.Float32, reflect.Float64},
	reflect.Float32: {reflect.Float64},
}

// implicitConvertible reports whether a value of type from converts to type
// to without a cast.
func implicitConvertible(from, to reflect.Type) bool {
	switch {
	case from == to:
		return true
	case from == nullType:
		return isNilable(to)
	case to.Kind() == reflect.Interface:
		return from.Implements(to)
	case isNullableValue(to):
		// T -> U? and T? -> U? when T -> U.
		return implicitConvertible(underlyingValue(from), to.Elem())
	case isNumeric(from) && isNumeric(to):
		return implicitNumericConvertible(from, to)
	case from.Kind() == to.Kind() && (from.Kind() == reflect.Bool || from.Kind() == reflect.String):
		// Named and predeclared bool and string types mix freely.
		return true
	}
	return false
}

func implicitNumericConvertible(from, to reflect.Type) bool {
	if from == decimalType {
		return to == decimalType
	}
	if to == decimalType {
		return isIntegral(from)
	}
	if from.Kind() == to.Kind() {
		return true
	}
	for _, k := range implicitNumeric[from.Kind()] {
		if k == to.Kind() {
			return true
		}
	}
	return false
}

// underlyingValue strips the pointer from any nullable value type.
func underlyingValue(t reflect.Type) reflect.Type {
	if isNullableValue(t) {
		return t.Elem()
	}
	return t
}

// explicitConvertible reports whether a cast from type from to type to is
// allowed.
func explicitConvertible(from, to reflect.Type) bool {
	if implicitConvertible(from, to) {
		return true
	}
	if from.Kind() == reflect.Interface {
		// Unboxing is checked when the expression runs.
		return true
	}
	f, t := underlyingValue(from), underlyingValue(to)
	switch {
	case f == t:
		// T? -> T.
		return true
	case isNumeric(f) && isNumeric(t):
		return true
	case f.Kind() == t.Kind() && (f.Kind() == reflect.Bool || f.Kind() == reflect.String):
		return true
	}
	return false
}

// constFits reports whether the integral constant v can be represented by the
// integral type t. It allows literals such as 3 to convert implicitly to
// byte and other narrow types.
func constFits(v reflect.Value, t reflect.Type) bool {
	if !isIntegral(v.Type()) || !isIntegral(t) {
		return false
	}
	var neg bool
	var mag uint64
	if isSigned(v.Type()) {
		n := v.Int()
		neg = n < 0
		if neg {
			mag = uint64(-(n + 1)) + 1
		} else {
			mag = uint64(n)
		}
	} else {
		mag = v.Uint()
	}
	bits := t.Bits()
	if isUnsigned(t) {
		return !neg && (bits == 64 || mag <= uint64(1)<<bits-1)
	}
	if neg {
		return mag <= uint64(1)<<(bits-1)
	}
	return mag <= uint64(math.MaxInt64)>>(64-bits)
}
