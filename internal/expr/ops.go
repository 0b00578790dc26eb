// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"math"
	"math/big"
	"reflect"

	"github.com/shopspring/decimal"
)

// convertValue converts v to type to. The binder only asks for conversions
// the language allows, so the errors returned here are runtime failures such
// as unwrapping a null or unboxing a value of the wrong type.
func convertValue(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	from := v.Type()
	switch {
	case from == to:
		return v, nil
	case from == nullType:
		return reflect.Zero(to), nil
	case to.Kind() == reflect.Interface:
		out := reflect.New(to).Elem()
		if !isNilable(from) || !v.IsNil() {
			out.Set(v)
		}
		return out, nil
	case from.Kind() == reflect.Interface:
		return unbox(v, to)
	case isNullableValue(to):
		// T -> U? and T? -> U?.
		if from.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Zero(to), nil
			}
			v = v.Elem()
		}
		inner, err := convertValue(v, to.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		return pointerTo(inner), nil
	case isNullableValue(from):
		if v.IsNil() {
			return reflect.Value{}, runtimeError("cannot convert null %s to %s", typeName(from), typeName(to))
		}
		return convertValue(v.Elem(), to)
	}
	return convertPrimitive(v, to)
}

// unbox extracts the dynamic value of the interface v as type to.
func unbox(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	if v.IsNil() {
		if isNilable(to) {
			return reflect.Zero(to), nil
		}
		return reflect.Value{}, runtimeError("cannot convert null object to %s", typeName(to))
	}
	e := v.Elem()
	if e.Type() == to || e.Type() == underlyingValue(to) || e.Type().AssignableTo(to) {
		return convertValue(e, to)
	}
	return reflect.Value{}, runtimeError("invalid cast from object holding %s to %s", typeName(e.Type()), typeName(to))
}

// convertPrimitive converts between numeric types, including decimal, and
// between named and predeclared bool and string types.
func convertPrimitive(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	from := v.Type()
	out := reflect.New(to).Elem()
	switch {
	case from == decimalType:
		d := v.Interface().(decimal.Decimal)
		switch {
		case isSigned(to):
			out.SetInt(d.IntPart())
		case isUnsigned(to):
			out.SetUint(d.Truncate(0).BigInt().Uint64())
		case isFloat(to):
			f, _ := d.Float64()
			out.SetFloat(f)
		default:
			return reflect.Value{}, runtimeError("cannot convert decimal to %s", typeName(to))
		}
		return out, nil
	case to == decimalType:
		var d decimal.Decimal
		switch {
		case isSigned(from):
			d = decimal.NewFromInt(v.Int())
		case isUnsigned(from):
			d = decimal.NewFromBigInt(new(big.Int).SetUint64(v.Uint()), 0)
		case isFloat(from):
			f := v.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return reflect.Value{}, runtimeError("value %v is too large or too small for a decimal", f)
			}
			d = decimal.NewFromFloat(f)
		default:
			return reflect.Value{}, runtimeError("cannot convert %s to decimal", typeName(from))
		}
		out.Set(reflect.ValueOf(d))
		return out, nil
	case from.ConvertibleTo(to):
		return v.Convert(to), nil
	}
	return reflect.Value{}, runtimeError("cannot convert %s to %s", typeName(from), typeName(to))
}

func pointerTo(v reflect.Value) reflect.Value {
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}

// copyValue returns an unaddressable copy of v, detached from the variable v
// may refer to.
func copyValue(v reflect.Value) reflect.Value {
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

func isNil(v reflect.Value) bool {
	return isNilable(v.Type()) && (v.Type() == nullType || v.IsNil())
}

func divideByZero() error {
	return runtimeError("attempted to divide by zero")
}

// binaryValue applies an arithmetic, bitwise or concatenation operator to two
// non-null values of the same type.
func binaryValue(op string, a, b reflect.Value) (reflect.Value, error) {
	t := a.Type()
	out := reflect.New(t).Elem()
	switch {
	case t == decimalType:
		x, y := a.Interface().(decimal.Decimal), b.Interface().(decimal.Decimal)
		var r decimal.Decimal
		switch op {
		case "+":
			r = x.Add(y)
		case "-":
			r = x.Sub(y)
		case "*":
			r = x.Mul(y)
		case "/":
			if y.IsZero() {
				return reflect.Value{}, divideByZero()
			}
			r = x.Div(y)
		case "%":
			if y.IsZero() {
				return reflect.Value{}, divideByZero()
			}
			r = x.Mod(y)
		default:
			return reflect.Value{}, badOperator(op, t)
		}
		out.Set(reflect.ValueOf(r))
	case t.Kind() == reflect.String:
		if op != "+" {
			return reflect.Value{}, badOperator(op, t)
		}
		out.SetString(a.String() + b.String())
	case t.Kind() == reflect.Bool:
		x, y := a.Bool(), b.Bool()
		switch op {
		case "&":
			out.SetBool(x && y)
		case "|":
			out.SetBool(x || y)
		case "^":
			out.SetBool(x != y)
		default:
			return reflect.Value{}, badOperator(op, t)
		}
	case isSigned(t):
		x, y := a.Int(), b.Int()
		var r int64
		switch op {
		case "+":
			r = x + y
		case "-":
			r = x - y
		case "*":
			r = x * y
		case "/", "%":
			if y == 0 {
				return reflect.Value{}, divideByZero()
			}
			if op == "/" {
				r = x / y
			} else {
				r = x % y
			}
		case "&":
			r = x & y
		case "|":
			r = x | y
		case "^":
			r = x ^ y
		default:
			return reflect.Value{}, badOperator(op, t)
		}
		out.SetInt(r)
	case isUnsigned(t):
		x, y := a.Uint(), b.Uint()
		var r uint64
		switch op {
		case "+":
			r = x + y
		case "-":
			r = x - y
		case "*":
			r = x * y
		case "/", "%":
			if y == 0 {
				return reflect.Value{}, divideByZero()
			}
			if op == "/" {
				r = x / y
			} else {
				r = x % y
			}
		case "&":
			r = x & y
		case "|":
			r = x | y
		case "^":
			r = x ^ y
		default:
			return reflect.Value{}, badOperator(op, t)
		}
		out.SetUint(r)
	case isFloat(t):
		x, y := a.Float(), b.Float()
		var r float64
		switch op {
		case "+":
			r = x + y
		case "-":
			r = x - y
		case "*":
			r = x * y
		case "/":
			r = x / y
		case "%":
			r = math.Mod(x, y)
		default:
			return reflect.Value{}, badOperator(op, t)
		}
		out.SetFloat(r)
	default:
		return reflect.Value{}, badOperator(op, t)
	}
	return out, nil
}

func badOperator(op string, t reflect.Type) error {
	return runtimeError("internal error: operator %s applied to %s", op, typeName(t))
}

// unaryValue applies !, - or + to a non-null value.
func unaryValue(op string, v reflect.Value) (reflect.Value, error) {
	t := v.Type()
	out := reflect.New(t).Elem()
	switch {
	case op == "+":
		return v, nil
	case op == "!" && t.Kind() == reflect.Bool:
		out.SetBool(!v.Bool())
	case op == "-" && t == decimalType:
		out.Set(reflect.ValueOf(v.Interface().(decimal.Decimal).Neg()))
	case op == "-" && isSigned(t):
		out.SetInt(-v.Int())
	case op == "-" && isFloat(t):
		out.SetFloat(-v.Float())
	default:
		return reflect.Value{}, badOperator(op, t)
	}
	return out, nil
}

// compareValues compares two non-null values of the same primitive type.
func compareValues(op string, a, b reflect.Value) bool {
	t := a.Type()
	if isFloat(t) {
		x, y := a.Float(), b.Float()
		switch op {
		case "==":
			return x == y
		case "!=":
			return x != y
		case "<":
			return x < y
		case "<=":
			return x <= y
		case ">":
			return x > y
		}
		return x >= y
	}
	var c int
	switch {
	case t == decimalType:
		c = a.Interface().(decimal.Decimal).Cmp(b.Interface().(decimal.Decimal))
	case isSigned(t):
		c = cmp(a.Int(), b.Int())
	case isUnsigned(t):
		c = cmp(a.Uint(), b.Uint())
	case t.Kind() == reflect.String:
		c = cmp(a.String(), b.String())
	case t.Kind() == reflect.Bool:
		if a.Bool() != b.Bool() {
			c = 1
		}
	}
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	}
	return c >= 0
}

func cmp[T int64 | uint64 | string](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// equalValues compares values that are not lifted. References compare by
// identity.
func equalValues(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return a.IsNil() == b.IsNil() && a.Pointer() == b.Pointer()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		ae, be := a.Elem(), b.Elem()
		if ae.Type() != be.Type() {
			return false
		}
		if isPrimitive(ae.Type()) {
			return compareValues("==", ae, be)
		}
		if !isNilable(ae.Type()) && !ae.Type().Comparable() {
			return false
		}
		return equalValues(ae, be)
	}
	return a.Equal(b)
}
