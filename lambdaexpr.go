// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package lambdaexpr

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/canonical/lambdaexpr/internal/expr"
)

// Error is the error returned for every failure to compile or run an
// expression. Use errors.As to inspect its Kind and position.
type Error = expr.Error

// Kind classifies an Error.
type Kind = expr.Kind

const (
	KindLex               = expr.KindLex
	KindParse             = expr.KindParse
	KindUnboundIdentifier = expr.KindUnboundIdentifier
	KindUnknownMember     = expr.KindUnknownMember
	KindTypeMismatch      = expr.KindTypeMismatch
	KindUnsupported       = expr.KindUnsupported
	KindRuntime           = expr.KindRuntime
)

// Sentinel errors for use with errors.Is. ErrBind matches any of
// ErrUnboundIdentifier, ErrUnknownMember and ErrTypeMismatch.
var (
	ErrLex               = expr.ErrLex
	ErrParse             = expr.ErrParse
	ErrBind              = expr.ErrBind
	ErrUnboundIdentifier = expr.ErrUnboundIdentifier
	ErrUnknownMember     = expr.ErrUnknownMember
	ErrTypeMismatch      = expr.ErrTypeMismatch
	ErrUnsupported       = expr.ErrUnsupported
	ErrRuntime           = expr.ErrRuntime
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Expression is a compiled lambda expression with the function type F, for
// example func(*Student) bool. An Expression is immutable and safe for
// concurrent use, as long as concurrent calls do not assign to shared
// values.
type Expression[F any] struct {
	query string
	prog  *expr.Program
	// returnsErr is set when the last result of F is an error.
	returnsErr bool
	fn         F
}

// Compile compiles the lambda expression in query for the function type F.
//
// F must be a non-variadic function type. It may return nothing, a single
// value, or a value followed by an error. Runtime failures are returned
// through the error result if there is one and cause a panic otherwise.
func Compile[F any](query string) (e *Expression[F], err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "cannot compile expression")
		}
	}()

	ft := typeOf[F]()
	sig, returnsErr, err := signatureOf(ft)
	if err != nil {
		return nil, err
	}
	prog, err := expr.Compile(query, sig)
	if err != nil {
		return nil, err
	}

	e = &Expression[F]{query: query, prog: prog, returnsErr: returnsErr}
	e.fn = reflect.MakeFunc(ft, e.invoke).Interface().(F)
	return e, nil
}

// MustCompile is the same as [Compile] except that it panics on error.
func MustCompile[F any](query string) *Expression[F] {
	e, err := Compile[F](query)
	if err != nil {
		panic(err)
	}
	return e
}

// signatureOf checks the function type ft and converts it to the signature
// the expression is bound against.
func signatureOf(ft reflect.Type) (sig expr.Signature, returnsErr bool, err error) {
	if ft.Kind() != reflect.Func {
		return expr.Signature{}, false, errors.Errorf("need function type, got %s", ft)
	}
	if ft.IsVariadic() {
		return expr.Signature{}, false, errors.Errorf("variadic function type %s is not supported", ft)
	}
	for i := 0; i < ft.NumIn(); i++ {
		sig.Params = append(sig.Params, ft.In(i))
	}
	switch n := ft.NumOut(); {
	case n == 0:
	case n == 1 && ft.Out(0) == errorType:
		returnsErr = true
	case n == 1:
		sig.Result = ft.Out(0)
	case n == 2 && ft.Out(1) == errorType:
		sig.Result = ft.Out(0)
		returnsErr = true
	default:
		return expr.Signature{}, false, errors.Errorf("function type %s must return at most one value and an optional error", ft)
	}
	return sig, returnsErr, nil
}

// Query returns the text the expression was compiled from.
func (e *Expression[F]) Query() string {
	return e.query
}

// Params returns the parameter names of the lambda.
func (e *Expression[F]) Params() []string {
	return e.prog.Params()
}

// Call invokes the expression. A nil argument stands for the zero value of
// its parameter type. The result is nil if F has no value result.
func (e *Expression[F]) Call(args ...any) (any, error) {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg != nil {
			in[i] = reflect.ValueOf(arg)
		}
	}
	res, err := e.prog.Run(in)
	if err != nil {
		return nil, err
	}
	if !res.IsValid() {
		return nil, nil
	}
	return res.Interface(), nil
}

// Func returns the expression as a Go function of type F, for use with
// filtering, mapping and sorting code.
func (e *Expression[F]) Func() F {
	return e.fn
}

// invoke implements the function returned by Func.
func (e *Expression[F]) invoke(in []reflect.Value) []reflect.Value {
	res, err := e.prog.Run(in)
	if err != nil && !e.returnsErr {
		panic(err)
	}

	var out []reflect.Value
	if result := e.prog.Signature().Result; result != nil {
		if err != nil {
			res = reflect.Zero(result)
		}
		out = append(out, res)
	}
	if e.returnsErr {
		ev := reflect.New(errorType).Elem()
		if err != nil {
			ev.Set(reflect.ValueOf(err))
		}
		out = append(out, ev)
	}
	return out
}
