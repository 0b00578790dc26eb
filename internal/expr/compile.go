// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// frame holds the arguments of one invocation. Every slot is addressable so
// that assignments to parameters work.
type frame struct {
	args []reflect.Value
}

type evalFunc func(f *frame) (reflect.Value, error)

// chainFunc evaluates a link of a member chain. reached is false when a
// null-conditional link found a nil target and the rest of the chain was
// skipped.
type chainFunc func(f *frame) (v reflect.Value, reached bool, err error)

// Program is a compiled lambda. It is immutable and safe for concurrent use.
type Program struct {
	params []string
	sig    Signature
	body   evalFunc
}

// Compile runs every stage of the compiler on query for the signature sig.
func Compile(query string, sig Signature) (*Program, error) {
	lambda, err := NewParser().Parse(query, len(sig.Params))
	if err != nil {
		return nil, err
	}
	te, err := BindTypes(query, lambda, sig)
	if err != nil {
		return nil, err
	}
	return te.Compile(), nil
}

// Compile lowers the typed expression into a program.
func (te *TypedExpr) Compile() *Program {
	c := &compiler{copyReads: te.mutates}
	return &Program{
		params: te.params,
		sig:    te.sig,
		body:   c.compile(te.body),
	}
}

// Params returns the parameter names of the lambda.
func (p *Program) Params() []string {
	return p.params
}

// Signature returns the signature the program was bound against.
func (p *Program) Signature() Signature {
	return p.sig
}

// Run evaluates the program with one argument per parameter. An invalid
// reflect.Value stands for the zero value of the parameter type. The result
// is invalid when the signature has no result.
func (p *Program) Run(args []reflect.Value) (result reflect.Value, err error) {
	if len(args) != len(p.sig.Params) {
		return reflect.Value{}, errors.Errorf("expected %d arguments, got %d", len(p.sig.Params), len(args))
	}
	f := &frame{args: make([]reflect.Value, len(args))}
	for i, arg := range args {
		t := p.sig.Params[i]
		slot := reflect.New(t).Elem()
		if arg.IsValid() {
			if !arg.Type().AssignableTo(t) {
				return reflect.Value{}, errors.Errorf("argument %d: cannot use %s as %s", i+1, arg.Type(), t)
			}
			slot.Set(arg)
		}
		f.args[i] = slot
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = reflect.Value{}, runtimeError("%v", r)
		}
	}()
	v, err := p.body(f)
	if err != nil {
		return reflect.Value{}, err
	}
	if p.sig.Result == nil {
		return reflect.Value{}, nil
	}
	return v, nil
}

// compiler lowers typed nodes to closures.
type compiler struct {
	// copyReads detaches the values read from variables from the variables
	// themselves, so that a later assignment in the same expression cannot
	// change an operand that was already evaluated.
	copyReads bool
}

func (c *compiler) read(ev evalFunc) evalFunc {
	if !c.copyReads {
		return ev
	}
	return func(f *frame) (reflect.Value, error) {
		v, err := ev(f)
		if err != nil {
			return reflect.Value{}, err
		}
		return copyValue(v), nil
	}
}

func (c *compiler) compile(n typedNode) evalFunc {
	switch n := n.(type) {
	case *constNode:
		v := n.val
		return func(*frame) (reflect.Value, error) {
			return v, nil
		}
	case *paramNode:
		i := n.index
		return c.read(func(f *frame) (reflect.Value, error) {
			return f.args[i], nil
		})
	case *memberNode, *lengthNode, *elementNode:
		ch := c.chain(n)
		return c.read(func(f *frame) (reflect.Value, error) {
			v, _, err := ch(f)
			return v, err
		})
	case *chainNode:
		return c.compileChain(n)
	case *convertNode:
		operand, typ := c.compile(n.operand), n.typ
		return func(f *frame) (reflect.Value, error) {
			v, err := operand(f)
			if err != nil {
				return reflect.Value{}, err
			}
			return convertValue(v, typ)
		}
	case *unaryNode:
		return c.compileUnary(n)
	case *binaryNode:
		return c.compileBinary(n)
	case *compareNode:
		return c.compileCompare(n)
	case *equalNode:
		left, right, negate := c.compile(n.left), c.compile(n.right), n.negate
		return func(f *frame) (reflect.Value, error) {
			a, err := left(f)
			if err != nil {
				return reflect.Value{}, err
			}
			b, err := right(f)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(equalValues(a, b) != negate), nil
		}
	case *nullTestNode:
		operand, negate := c.compile(n.operand), n.negate
		return func(f *frame) (reflect.Value, error) {
			v, err := operand(f)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(isNil(v) != negate), nil
		}
	case *logicalNode:
		return c.compileLogical(n)
	case *coalesceNode:
		return c.compileCoalesce(n)
	case *conditionalNode:
		return c.compileConditional(n)
	case *assignNode:
		return c.compileAssign(n)
	case *incDecNode:
		return c.compileIncDec(n)
	}
	panic(fmt.Sprintf("internal error: cannot compile %T", n))
}

// chain lowers a member chain link by link.
func (c *compiler) chain(n typedNode) chainFunc {
	switch n := n.(type) {
	case *memberNode:
		target, field, conditional := c.chain(n.target), n.field, n.conditional
		return func(f *frame) (reflect.Value, bool, error) {
			v, ok, err := target(f)
			if err != nil || !ok {
				return reflect.Value{}, ok, err
			}
			if conditional && isNil(v) {
				return reflect.Value{}, false, nil
			}
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}, false, runtimeError("null reference: cannot read %s of nil %s", field.Name, v.Type())
				}
				v = v.Elem()
			}
			fv, err := v.FieldByIndexErr(field.Index)
			if err != nil {
				return reflect.Value{}, false, runtimeError("null reference: cannot read %s: %s", field.Name, err)
			}
			return fv, true, nil
		}
	case *lengthNode:
		target, conditional := c.chain(n.target), n.conditional
		return func(f *frame) (reflect.Value, bool, error) {
			v, ok, err := target(f)
			if err != nil || !ok {
				return reflect.Value{}, ok, err
			}
			if conditional && isNil(v) {
				return reflect.Value{}, false, nil
			}
			return reflect.ValueOf(v.Len()), true, nil
		}
	case *elementNode:
		target, index, conditional := c.chain(n.target), c.compile(n.index), n.conditional
		return func(f *frame) (reflect.Value, bool, error) {
			v, ok, err := target(f)
			if err != nil || !ok {
				return reflect.Value{}, ok, err
			}
			if conditional && isNil(v) {
				return reflect.Value{}, false, nil
			}
			iv, err := index(f)
			if err != nil {
				return reflect.Value{}, false, err
			}
			e, err := element(v, iv)
			return e, err == nil, err
		}
	}
	ev := c.compile(n)
	return func(f *frame) (reflect.Value, bool, error) {
		v, err := ev(f)
		return v, err == nil, err
	}
}

// element returns v[i] with bounds checking.
func element(v, iv reflect.Value) (reflect.Value, error) {
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.Value{}, runtimeError("null reference: cannot index nil %s", v.Type())
	}
	n := v.Len()
	var i int
	if isSigned(iv.Type()) {
		x := iv.Int()
		if x < 0 || x >= int64(n) {
			return reflect.Value{}, runtimeError("index out of range: %d with length %d", x, n)
		}
		i = int(x)
	} else {
		x := iv.Uint()
		if x >= uint64(n) {
			return reflect.Value{}, runtimeError("index out of range: %d with length %d", x, n)
		}
		i = int(x)
	}
	return v.Index(i), nil
}

func (c *compiler) compileChain(n *chainNode) evalFunc {
	inner, typ := c.chain(n.inner), n.typ
	return c.read(func(f *frame) (reflect.Value, error) {
		v, ok, err := inner(f)
		if err != nil {
			return reflect.Value{}, err
		}
		if !ok {
			return reflect.Zero(typ), nil
		}
		return convertValue(v, typ)
	})
}

// addr lowers an assignable node to a closure returning the settable
// variable it denotes.
func (c *compiler) addr(n typedNode) evalFunc {
	switch n := n.(type) {
	case *paramNode:
		i := n.index
		return func(f *frame) (reflect.Value, error) {
			return f.args[i], nil
		}
	case *memberNode:
		var target evalFunc
		if n.target.Type().Kind() == reflect.Pointer {
			target = c.compile(n.target)
		} else {
			target = c.addr(n.target)
		}
		field := n.field
		return func(f *frame) (reflect.Value, error) {
			v, err := target(f)
			if err != nil {
				return reflect.Value{}, err
			}
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}, runtimeError("null reference: cannot assign %s of nil %s", field.Name, v.Type())
				}
				v = v.Elem()
			}
			fv, err := v.FieldByIndexErr(field.Index)
			if err != nil {
				return reflect.Value{}, runtimeError("null reference: cannot assign %s: %s", field.Name, err)
			}
			return fv, nil
		}
	case *elementNode:
		var target evalFunc
		if n.target.Type().Kind() == reflect.Slice {
			target = c.compile(n.target)
		} else {
			target = c.addr(n.target)
		}
		index := c.compile(n.index)
		return func(f *frame) (reflect.Value, error) {
			v, err := target(f)
			if err != nil {
				return reflect.Value{}, err
			}
			iv, err := index(f)
			if err != nil {
				return reflect.Value{}, err
			}
			return element(v, iv)
		}
	}
	panic(fmt.Sprintf("internal error: %T is not assignable", n))
}

func (c *compiler) compileUnary(n *unaryNode) evalFunc {
	operand, op := c.compile(n.operand), n.op
	if !isNullableValue(n.Type()) {
		return func(f *frame) (reflect.Value, error) {
			v, err := operand(f)
			if err != nil {
				return reflect.Value{}, err
			}
			return unaryValue(op, v)
		}
	}
	return func(f *frame) (reflect.Value, error) {
		v, err := operand(f)
		if err != nil || v.IsNil() {
			return v, err
		}
		r, err := unaryValue(op, v.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		return pointerTo(r), nil
	}
}

// liftedBinary applies op to nullable operands. The bool & and | operators
// use three-valued logic, every other operator yields null for a null
// operand.
func liftedBinary(op string, a, b reflect.Value) (reflect.Value, error) {
	t := a.Type()
	if t.Elem().Kind() == reflect.Bool && (op == "&" || op == "|") {
		return threeValued(op, a, b, t), nil
	}
	if a.IsNil() || b.IsNil() {
		return reflect.Zero(t), nil
	}
	r, err := binaryValue(op, a.Elem(), b.Elem())
	if err != nil {
		return reflect.Value{}, err
	}
	return pointerTo(r), nil
}

// threeValued evaluates & or | over bool? operands: false & null is false
// and true | null is true.
func threeValued(op string, a, b reflect.Value, t reflect.Type) reflect.Value {
	dominant := op == "|"
	for _, v := range []reflect.Value{a, b} {
		if !v.IsNil() && v.Elem().Bool() == dominant {
			return boolPointer(dominant, t)
		}
	}
	if a.IsNil() || b.IsNil() {
		return reflect.Zero(t)
	}
	return boolPointer(!dominant, t)
}

func boolPointer(b bool, t reflect.Type) reflect.Value {
	p := reflect.New(t.Elem())
	p.Elem().SetBool(b)
	return p
}

func (c *compiler) compileBinary(n *binaryNode) evalFunc {
	left, right, op := c.compile(n.left), c.compile(n.right), n.op
	lifted := isNullableValue(n.Type())
	return func(f *frame) (reflect.Value, error) {
		a, err := left(f)
		if err != nil {
			return reflect.Value{}, err
		}
		b, err := right(f)
		if err != nil {
			return reflect.Value{}, err
		}
		if lifted {
			return liftedBinary(op, a, b)
		}
		return binaryValue(op, a, b)
	}
}

func (c *compiler) compileCompare(n *compareNode) evalFunc {
	left, right, op, typ := c.compile(n.left), c.compile(n.right), n.op, n.typ
	lifted := isNullableValue(typ)
	return func(f *frame) (reflect.Value, error) {
		a, err := left(f)
		if err != nil {
			return reflect.Value{}, err
		}
		b, err := right(f)
		if err != nil {
			return reflect.Value{}, err
		}
		if !lifted {
			return reflect.ValueOf(compareValues(op, a, b)), nil
		}
		if a.IsNil() || b.IsNil() {
			return reflect.Zero(typ), nil
		}
		return boolPointer(compareValues(op, a.Elem(), b.Elem()), typ), nil
	}
}

// compileLogical lowers && and ||. The right operand is not evaluated when
// the left one decides the result.
func (c *compiler) compileLogical(n *logicalNode) evalFunc {
	left, right := c.compile(n.left), c.compile(n.right)
	typ := n.Type()
	dominant, lifted := n.op == "||", "&"
	if dominant {
		lifted = "|"
	}
	if !isNullableValue(typ) {
		return func(f *frame) (reflect.Value, error) {
			a, err := left(f)
			if err != nil {
				return reflect.Value{}, err
			}
			if a.Bool() == dominant {
				return reflect.ValueOf(dominant), nil
			}
			b, err := right(f)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(b.Bool()), nil
		}
	}
	return func(f *frame) (reflect.Value, error) {
		a, err := left(f)
		if err != nil {
			return reflect.Value{}, err
		}
		if !a.IsNil() && a.Elem().Bool() == dominant {
			return boolPointer(dominant, typ), nil
		}
		b, err := right(f)
		if err != nil {
			return reflect.Value{}, err
		}
		return threeValued(lifted, a, b, typ), nil
	}
}

func (c *compiler) compileCoalesce(n *coalesceNode) evalFunc {
	left, right, typ := c.compile(n.left), c.compile(n.right), n.typ
	return func(f *frame) (reflect.Value, error) {
		v, err := left(f)
		if err != nil {
			return reflect.Value{}, err
		}
		if !isNil(v) {
			return convertValue(v, typ)
		}
		v, err = right(f)
		if err != nil {
			return reflect.Value{}, err
		}
		return convertValue(v, typ)
	}
}

func (c *compiler) compileConditional(n *conditionalNode) evalFunc {
	cond, whenTrue, whenFalse := c.compile(n.cond), c.compile(n.whenTrue), c.compile(n.whenFalse)
	return func(f *frame) (reflect.Value, error) {
		v, err := cond(f)
		if err != nil {
			return reflect.Value{}, err
		}
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, runtimeError("condition of conditional expression is null")
			}
			v = v.Elem()
		}
		if v.Bool() {
			return whenTrue(f)
		}
		return whenFalse(f)
	}
}

func (c *compiler) compileAssign(n *assignNode) evalFunc {
	target, value := c.addr(n.target), c.compile(n.value)
	op, operand, typ := n.op, n.operand, n.Type()
	return func(f *frame) (reflect.Value, error) {
		dst, err := target(f)
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := value(f)
		if err != nil {
			return reflect.Value{}, err
		}
		if op != "=" {
			cur, err := convertValue(dst, operand)
			if err != nil {
				return reflect.Value{}, err
			}
			var r reflect.Value
			if isNullableValue(operand) {
				r, err = liftedBinary(op, cur, v)
			} else {
				r, err = binaryValue(op, cur, v)
			}
			if err != nil {
				return reflect.Value{}, err
			}
			if v, err = convertValue(r, typ); err != nil {
				return reflect.Value{}, err
			}
		}
		dst.Set(v)
		return copyValue(v), nil
	}
}

func (c *compiler) compileIncDec(n *incDecNode) evalFunc {
	target, op, typ := c.addr(n.target), n.op[:1], n.Type()
	return func(f *frame) (reflect.Value, error) {
		dst, err := target(f)
		if err != nil {
			return reflect.Value{}, err
		}
		old := copyValue(dst)
		cur := dst
		if isNullableValue(typ) {
			if dst.IsNil() {
				return old, nil
			}
			cur = dst.Elem()
		}
		r, err := binaryValue(op, cur, one(cur.Type()))
		if err != nil {
			return reflect.Value{}, err
		}
		if isNullableValue(typ) {
			r = pointerTo(r)
		}
		dst.Set(r)
		return old, nil
	}
}

// one returns 1 as a value of the numeric type t.
func one(t reflect.Type) reflect.Value {
	if t == decimalType {
		return reflect.ValueOf(decimal.NewFromInt(1))
	}
	return reflect.ValueOf(1).Convert(t)
}
