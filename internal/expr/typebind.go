// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"math"
	"reflect"
	"strings"

	"github.com/canonical/lambdaexpr/internal/typeinfo"
)

// Signature is the function type an expression is bound against.
type Signature struct {
	Params []reflect.Type
	// Result is nil when the function returns nothing.
	Result reflect.Type
}

// TypedExpr is a lambda bound to concrete Go types. It is immutable and can
// be compiled any number of times.
type TypedExpr struct {
	input  string
	params []string
	sig    Signature
	body   typedNode
	// mutates is set when the body assigns to a variable or member.
	mutates bool
}

// Type returns the type of the body after conversion to the result type, or
// the type of the discarded value if the signature has no result.
func (te *TypedExpr) Type() reflect.Type {
	return te.body.Type()
}

// binder holds the state of a single binding pass.
type binder struct {
	input   string
	params  map[string]int
	sig     Signature
	mutates bool
}

// BindTypes binds the lambda parsed from input to the parameter and result
// types of sig.
func BindTypes(input string, lambda *LambdaNode, sig Signature) (*TypedExpr, error) {
	if len(lambda.Params) != len(sig.Params) {
		return nil, errorAt(KindParse, input, lambda.pos, "",
			"parameter count mismatch: lambda has %d, signature has %d", len(lambda.Params), len(sig.Params))
	}
	b := &binder{
		input:  input,
		params: make(map[string]int, len(lambda.Params)),
		sig:    sig,
	}
	for i, name := range lambda.Params {
		b.params[name] = i
	}

	body, err := b.bind(lambda.Body)
	if err != nil {
		return nil, err
	}
	body, err = b.bindResult(body, lambda.Body)
	if err != nil {
		return nil, err
	}
	return &TypedExpr{
		input:   input,
		params:  lambda.Params,
		sig:     sig,
		body:    body,
		mutates: b.mutates,
	}, nil
}

func (b *binder) errorf(kind Kind, pos int, token string, format string, args ...any) error {
	return errorAt(kind, b.input, pos, token, format, args...)
}

func (b *binder) mismatch(pos int, token string, format string, args ...any) error {
	return b.errorf(KindTypeMismatch, pos, token, format, args...)
}

// bind binds one node of the syntax tree.
func (b *binder) bind(n Node) (typedNode, error) {
	switch n := n.(type) {
	case *LiteralNode:
		if n.Value == nil {
			return &constNode{pos: n.pos, val: reflect.ValueOf(nullValue{})}, nil
		}
		return &constNode{pos: n.pos, val: reflect.ValueOf(n.Value)}, nil
	case *IdentifierNode:
		i, ok := b.params[n.Name]
		if !ok {
			return nil, b.errorf(KindUnboundIdentifier, n.pos, n.Name, "the name %q does not exist in the current context", n.Name)
		}
		return &paramNode{pos: n.pos, index: i, name: n.Name, typ: b.sig.Params[i]}, nil
	case *MemberAccessNode, *IndexNode, *NullConditionalMemberNode, *NullConditionalIndexNode:
		inner, conditional, err := b.bindChain(n)
		if err != nil {
			return nil, err
		}
		if !conditional {
			return inner, nil
		}
		return &chainNode{pos: n.Pos(), inner: inner, typ: nullableOf(inner.Type())}, nil
	case *ParenthesizedNode:
		return b.bind(n.Inner)
	case *UnaryNode:
		return b.bindUnary(n)
	case *PostfixIncDecNode:
		return b.bindIncDec(n)
	case *BinaryNode:
		return b.bindBinary(n)
	case *AssignmentNode:
		return b.bindAssignment(n)
	case *ConditionalNode:
		return b.bindConditional(n)
	case *CoalesceNode:
		return b.bindCoalesce(n)
	case *CastNode:
		return b.bindCast(n)
	case *LambdaNode:
		return nil, b.errorf(KindUnsupported, n.pos, "", "nested lambdas are not supported")
	}
	return nil, b.errorf(KindUnsupported, n.Pos(), "", "unsupported expression %s", n)
}

// bindChain binds a chain of member and index accesses. It reports whether
// the chain contains a null-conditional link. Parenthesized expressions and
// other nodes end the chain.
func (b *binder) bindChain(n Node) (typedNode, bool, error) {
	switch n := n.(type) {
	case *MemberAccessNode:
		target, conditional, err := b.bindChain(n.Target)
		if err != nil {
			return nil, false, err
		}
		m, err := b.bindMember(target, n.Name, n.pos, false)
		return m, conditional, err
	case *NullConditionalMemberNode:
		target, _, err := b.bindChain(n.Target)
		if err != nil {
			return nil, false, err
		}
		if err := b.checkNilable(target, "?.", n.pos); err != nil {
			return nil, false, err
		}
		m, err := b.bindMember(target, n.Name, n.pos, true)
		return m, true, err
	case *IndexNode:
		target, conditional, err := b.bindChain(n.Target)
		if err != nil {
			return nil, false, err
		}
		e, err := b.bindElement(target, n.Index, n.pos, false)
		return e, conditional, err
	case *NullConditionalIndexNode:
		target, _, err := b.bindChain(n.Target)
		if err != nil {
			return nil, false, err
		}
		if err := b.checkNilable(target, "?[", n.pos); err != nil {
			return nil, false, err
		}
		e, err := b.bindElement(target, n.Index, n.pos, true)
		return e, true, err
	}
	t, err := b.bind(n)
	return t, false, err
}

func (b *binder) checkNilable(target typedNode, op string, pos int) error {
	if t := target.Type(); !isNilable(t) || t == nullType {
		return b.mismatch(pos, op, "operator %s cannot be applied to operand of type %s", op, typeName(t))
	}
	return nil
}

// bindMember resolves name on the type of target. Pointers to structs are
// dereferenced when the expression runs.
func (b *binder) bindMember(target typedNode, name string, pos int, conditional bool) (typedNode, error) {
	t := target.Type()
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct && st != decimalType {
		if field, ok := typeinfo.LookupMember(st, name); ok {
			return &memberNode{pos: pos, target: target, field: field, conditional: conditional}, nil
		}
	}
	if name == "Length" {
		switch t.Kind() {
		case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
			return &lengthNode{pos: pos, target: target, conditional: conditional}, nil
		}
	}
	return nil, b.errorf(KindUnknownMember, pos, name, "%s does not contain a definition for %q", typeName(t), name)
}

// bindElement binds target[index].
func (b *binder) bindElement(target typedNode, index Node, pos int, conditional bool) (typedNode, error) {
	t := target.Type()
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return nil, b.mismatch(pos, "[", "cannot apply indexing to an expression of type %s", typeName(t))
	}
	i, err := b.bind(index)
	if err != nil {
		return nil, err
	}
	if !isIntegral(i.Type()) {
		return nil, b.mismatch(index.Pos(), "", "index must be of an integral type, got %s", typeName(i.Type()))
	}
	return &elementNode{pos: pos, target: target, index: i, conditional: conditional}, nil
}

// convert returns n converted to t. Constants are folded unless the result
// would be a pointer shared between invocations.
func (b *binder) convert(n typedNode, t reflect.Type) typedNode {
	if n.Type() == t {
		return n
	}
	if c, ok := n.(*constNode); ok {
		if v, err := convertValue(c.val, t); err == nil && (t.Kind() != reflect.Pointer || v.IsNil()) {
			return &constNode{pos: c.pos, val: v}
		}
	}
	return &convertNode{pos: n.Pos(), operand: n, typ: t}
}

// implicit converts n to t if the language allows it without a cast. Integral
// constants convert to any integral type that can represent them.
func (b *binder) implicit(n typedNode, t reflect.Type) (typedNode, bool) {
	if implicitConvertible(n.Type(), t) {
		return b.convert(n, t), true
	}
	if c, ok := n.(*constNode); ok && constFits(c.val, underlyingValue(t)) {
		return b.convert(n, t), true
	}
	return nil, false
}

// unsignedConst gives an integral constant operand the unsigned type of the
// other operand when the value fits, so that uint and ulong operands mix with
// literals such as 7.
func (b *binder) unsignedConst(left, right typedNode) (typedNode, typedNode) {
	fit := func(n, other typedNode) typedNode {
		c, ok := n.(*constNode)
		if !ok || !isSigned(c.val.Type()) {
			return n
		}
		t := underlying(other.Type())
		if !isIntegral(t) || !constFits(c.val, t) {
			return n
		}
		if p := unaryPromote(t); p.Kind() != reflect.Uint32 && !isULong(p) {
			return n
		}
		return b.convert(n, t)
	}
	return fit(left, right), fit(right, left)
}

// nullAs gives the null literal n the nullable type of other, so that it can
// take part in lifted operators.
func (b *binder) nullAs(n, other typedNode) typedNode {
	if !isNullConst(n) || isNullConst(other) {
		return n
	}
	return &constNode{pos: n.Pos(), val: reflect.Zero(nullableOf(other.Type()))}
}

func (b *binder) bindUnary(n *UnaryNode) (typedNode, error) {
	operand, err := b.bind(n.Operand)
	if err != nil {
		return nil, err
	}
	t := operand.Type()
	u := underlying(t)
	lifted := u != t

	var rt reflect.Type
	switch n.Op {
	case "!":
		if u.Kind() != reflect.Bool {
			return nil, b.mismatch(n.pos, n.Op, "operator ! cannot be applied to operand of type %s", typeName(t))
		}
		rt = boolType
	case "-", "+":
		if !isNumeric(u) {
			return nil, b.mismatch(n.pos, n.Op, "operator %s cannot be applied to operand of type %s", n.Op, typeName(t))
		}
		// The literal 9223372036854775808 is only valid when negated.
		if c, ok := operand.(*constNode); ok && n.Op == "-" && c.val.Kind() == reflect.Uint64 && c.val.Uint() == 1<<63 {
			return &constNode{pos: n.pos, val: reflect.ValueOf(int(math.MinInt64))}, nil
		}
		rt = unaryPromote(u)
		if n.Op == "-" {
			if rt == uint32Type {
				rt = int64Type
			}
			if isULong(rt) {
				return nil, b.mismatch(n.pos, n.Op, "operator - cannot be applied to operand of type %s", typeName(t))
			}
		}
	}
	if lifted {
		rt = reflect.PointerTo(rt)
	}
	operand = b.convert(operand, rt)
	if c, ok := operand.(*constNode); ok && !lifted {
		if v, err := unaryValue(n.Op, c.val); err == nil {
			return &constNode{pos: n.pos, val: v}, nil
		}
	}
	return &unaryNode{pos: n.pos, op: n.Op, operand: operand}, nil
}

func (b *binder) bindBinary(n *BinaryNode) (typedNode, error) {
	left, err := b.bind(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.bind(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "&&", "||":
		return b.bindLogical(n.pos, n.Op, left, right)
	case "==", "!=":
		return b.bindEquality(n.pos, n.Op, left, right)
	case "<", "<=", ">", ">=":
		return b.bindRelational(n.pos, n.Op, left, right)
	}
	return b.bindArithmetic(n.pos, n.Op, left, right)
}

// operandType returns the type both operands of the arithmetic, bitwise or
// concatenation operator op are converted to. It is nullable when the
// operator is lifted.
func (b *binder) operandType(pos int, op string, left, right typedNode) (reflect.Type, error) {
	left, right = b.nullAs(left, right), b.nullAs(right, left)
	left, right = b.unsignedConst(left, right)
	lt, rt := left.Type(), right.Type()
	lu, ru := underlying(lt), underlying(rt)

	var t reflect.Type
	switch {
	case op == "+" && lu.Kind() == reflect.String && ru.Kind() == reflect.String:
		t = stringType
	case (op == "&" || op == "|" || op == "^") && lu.Kind() == reflect.Bool && ru.Kind() == reflect.Bool:
		t = boolType
	case isNumeric(lu) && isNumeric(ru):
		p, ok := promoteNumeric(lu, ru)
		if ok && (op == "&" || op == "|" || op == "^") && !isIntegral(p) {
			ok = false
		}
		if ok {
			t = p
		}
	}
	if t == nil {
		return nil, b.mismatch(pos, op, "operator %s cannot be applied to operands of type %s and %s", op, typeName(lt), typeName(rt))
	}
	if lu != lt || ru != rt {
		t = reflect.PointerTo(t)
	}
	return t, nil
}

func (b *binder) bindArithmetic(pos int, op string, left, right typedNode) (typedNode, error) {
	t, err := b.operandType(pos, op, left, right)
	if err != nil {
		return nil, err
	}
	left, right = b.convert(left, t), b.convert(right, t)
	lc, lok := left.(*constNode)
	rc, rok := right.(*constNode)
	if lok && rok && t.Kind() != reflect.Pointer {
		// Division by a zero constant is left to fail when the expression
		// runs.
		if v, err := binaryValue(op, lc.val, rc.val); err == nil {
			return &constNode{pos: pos, val: v}, nil
		}
	}
	return &binaryNode{pos: pos, op: op, left: left, right: right}, nil
}

func (b *binder) bindLogical(pos int, op string, left, right typedNode) (typedNode, error) {
	left, right = b.nullAs(left, right), b.nullAs(right, left)
	lt, rt := left.Type(), right.Type()
	lu, ru := underlying(lt), underlying(rt)
	if lu.Kind() != reflect.Bool || ru.Kind() != reflect.Bool {
		return nil, b.mismatch(pos, op, "operator %s cannot be applied to operands of type %s and %s", op, typeName(lt), typeName(rt))
	}
	t := boolType
	if lu != lt || ru != rt {
		t = reflect.PointerTo(boolType)
	}
	return &logicalNode{pos: pos, op: op, left: b.convert(left, t), right: b.convert(right, t)}, nil
}

// primitiveOperands returns the common type of two operands of a comparison,
// or nil if they are not both numeric, both bool or both string.
func primitiveOperands(lu, ru reflect.Type) reflect.Type {
	switch {
	case isNumeric(lu) && isNumeric(ru):
		if t, ok := promoteNumeric(lu, ru); ok {
			return t
		}
	case lu.Kind() == reflect.Bool && ru.Kind() == reflect.Bool:
		return boolType
	case lu.Kind() == reflect.String && ru.Kind() == reflect.String:
		return stringType
	}
	return nil
}

func (b *binder) bindEquality(pos int, op string, left, right typedNode) (typedNode, error) {
	negate := op == "!="
	switch {
	case isNullConst(left) && isNullConst(right):
		return &constNode{pos: pos, val: reflect.ValueOf(!negate)}, nil
	case isNullConst(right):
		return &nullTestNode{pos: pos, negate: negate, operand: left}, nil
	case isNullConst(left):
		return &nullTestNode{pos: pos, negate: negate, operand: right}, nil
	}

	left, right = b.unsignedConst(left, right)
	lt, rt := left.Type(), right.Type()
	lu, ru := underlying(lt), underlying(rt)
	if t := primitiveOperands(lu, ru); t != nil {
		return b.compare(pos, op, left, right, t), nil
	}

	switch {
	case lt == rt:
	case lt.Kind() == reflect.Interface && rt.Implements(lt):
		right = b.convert(right, lt)
	case rt.Kind() == reflect.Interface && lt.Implements(rt):
		left = b.convert(left, rt)
	default:
		return nil, b.mismatch(pos, op, "operator %s cannot be applied to operands of type %s and %s", op, typeName(lt), typeName(rt))
	}
	if t := left.Type(); !isNilable(t) && !t.Comparable() {
		return nil, b.mismatch(pos, op, "operator %s cannot be applied to operands of type %s", op, typeName(t))
	}
	return &equalNode{pos: pos, negate: negate, left: left, right: right}, nil
}

func (b *binder) bindRelational(pos int, op string, left, right typedNode) (typedNode, error) {
	left, right = b.nullAs(left, right), b.nullAs(right, left)
	left, right = b.unsignedConst(left, right)
	lt, rt := left.Type(), right.Type()
	lu, ru := underlying(lt), underlying(rt)
	if isNumeric(lu) && isNumeric(ru) {
		if t, ok := promoteNumeric(lu, ru); ok {
			return b.compare(pos, op, left, right, t), nil
		}
	}
	return nil, b.mismatch(pos, op, "operator %s cannot be applied to operands of type %s and %s", op, typeName(lt), typeName(rt))
}

// compare builds a comparison at operand type t. The comparison is lifted
// when either operand is nullable.
func (b *binder) compare(pos int, op string, left, right typedNode, t reflect.Type) typedNode {
	result := boolType
	if isNullablePrimitive(left.Type()) || isNullablePrimitive(right.Type()) {
		t = reflect.PointerTo(t)
		result = reflect.PointerTo(boolType)
	}
	return &compareNode{pos: pos, op: op, left: b.convert(left, t), right: b.convert(right, t), typ: result}
}

func (b *binder) bindCoalesce(n *CoalesceNode) (typedNode, error) {
	left, err := b.bind(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.bind(n.Right)
	if err != nil {
		return nil, err
	}
	if isNullConst(left) {
		return right, nil
	}

	// A value type on the left is promoted to its nullable counterpart.
	lt := left.Type()
	if !isNilable(lt) {
		lt = reflect.PointerTo(lt)
		left = b.convert(left, lt)
	}
	under := underlyingValue(lt)
	rt := right.Type()

	coalesce := func(left, right typedNode, t reflect.Type) typedNode {
		// The left operand keeps a nullable type so that it can be tested
		// for null before the conversion to t.
		return &coalesceNode{pos: n.pos, left: b.convert(left, nullableOf(t)), right: b.convert(right, t), typ: t}
	}
	switch {
	case rt == lt || isNullConst(right):
		return coalesce(left, right, lt), nil
	case rt == under:
		return coalesce(left, right, under), nil
	}
	if r, ok := b.implicit(right, under); ok {
		return coalesce(left, r, under), nil
	}
	if r, ok := b.implicit(right, lt); ok {
		return coalesce(left, r, lt), nil
	}
	// Widen the left operand to the type of the right one, as in
	// "x.Age ?? 2.5".
	if isNilable(rt) && !isNullableValue(rt) {
		if implicitConvertible(lt, rt) {
			return coalesce(left, right, rt), nil
		}
	} else if ru := underlyingValue(rt); implicitConvertible(under, ru) {
		return coalesce(b.convert(left, reflect.PointerTo(ru)), right, rt), nil
	}
	return nil, b.mismatch(n.pos, "??", "operator ?? cannot be applied to operands of type %s and %s", typeName(lt), typeName(rt))
}

func (b *binder) bindConditional(n *ConditionalNode) (typedNode, error) {
	cond, err := b.bind(n.Cond)
	if err != nil {
		return nil, err
	}
	// A bool? condition is checked for null when the expression runs.
	if ct := cond.Type(); underlying(ct).Kind() != reflect.Bool {
		return nil, b.mismatch(n.Cond.Pos(), "", "cannot implicitly convert type %s to bool", typeName(ct))
	} else if isNullablePrimitive(ct) {
		cond = b.convert(cond, reflect.PointerTo(boolType))
	} else {
		cond = b.convert(cond, boolType)
	}

	whenTrue, err := b.bind(n.WhenTrue)
	if err != nil {
		return nil, err
	}
	whenFalse, err := b.bind(n.WhenFalse)
	if err != nil {
		return nil, err
	}
	whenTrue, whenFalse, err = b.unify(n.pos, whenTrue, whenFalse)
	if err != nil {
		return nil, err
	}
	return &conditionalNode{pos: n.pos, cond: cond, whenTrue: whenTrue, whenFalse: whenFalse}, nil
}

// unify converts the branches of a conditional expression to a common type.
// The narrower or non-nullable branch is promoted to match the other one.
func (b *binder) unify(pos int, t, f typedNode) (typedNode, typedNode, error) {
	tt, ft := t.Type(), f.Type()
	switch {
	case tt == ft:
		return t, f, nil
	case isNullConst(t):
		nt := nullableOf(ft)
		return b.convert(t, nt), b.convert(f, nt), nil
	case isNullConst(f):
		nt := nullableOf(tt)
		return b.convert(t, nt), b.convert(f, nt), nil
	}

	tToF, fToT := implicitConvertible(tt, ft), implicitConvertible(ft, tt)
	switch {
	case tToF && !fToT:
		return b.convert(t, ft), f, nil
	case fToT && !tToF:
		return t, b.convert(f, tt), nil
	}

	// Mixed nullable numeric branches such as int? and double meet at
	// double?.
	tu, fu := underlyingValue(tt), underlyingValue(ft)
	if isNumeric(tu) && isNumeric(fu) {
		if p, ok := promoteNumeric(tu, fu); ok {
			if isNullableValue(tt) || isNullableValue(ft) {
				p = reflect.PointerTo(p)
			}
			return b.convert(t, p), b.convert(f, p), nil
		}
	}
	if c, ok := b.implicit(t, ft); ok {
		return c, f, nil
	}
	if c, ok := b.implicit(f, tt); ok {
		return t, c, nil
	}
	return nil, nil, b.mismatch(pos, "?", "type of conditional expression cannot be determined because there is no implicit conversion between %s and %s", typeName(tt), typeName(ft))
}

func (b *binder) bindCast(n *CastNode) (typedNode, error) {
	t, ok := resolveTypeName(n.TypeName)
	if !ok {
		return nil, b.errorf(KindUnsupported, n.pos, n.TypeName, "cast to type %q is not supported", n.TypeName)
	}
	operand, err := b.bind(n.Operand)
	if err != nil {
		return nil, err
	}
	ot := operand.Type()
	if ot == nullType && !isNilable(t) {
		return nil, b.mismatch(n.pos, n.TypeName, "cannot convert null to %s because it is a non-nullable value type", typeName(t))
	}
	if !explicitConvertible(ot, t) {
		return nil, b.mismatch(n.pos, n.TypeName, "cannot convert type %s to %s", typeName(ot), typeName(t))
	}
	return b.convert(operand, t), nil
}

// checkAssignable reports whether n denotes a variable: a parameter, a member
// reached through a pointer or a variable, or an element of a slice or of an
// array variable.
func (b *binder) checkAssignable(n typedNode, pos int) error {
	switch n := n.(type) {
	case *paramNode:
		return nil
	case *memberNode:
		if n.target.Type().Kind() == reflect.Pointer {
			return nil
		}
		return b.checkAssignable(n.target, pos)
	case *elementNode:
		if n.target.Type().Kind() == reflect.Slice {
			return nil
		}
		return b.checkAssignable(n.target, pos)
	case *chainNode:
		return b.mismatch(pos, "", "cannot assign through a null-conditional access")
	}
	return b.mismatch(pos, "", "the left-hand side of an assignment must be a variable or member")
}

func (b *binder) bindAssignment(n *AssignmentNode) (typedNode, error) {
	target, err := b.bind(n.Target)
	if err != nil {
		return nil, err
	}
	if err := b.checkAssignable(target, n.Target.Pos()); err != nil {
		return nil, err
	}
	value, err := b.bind(n.Value)
	if err != nil {
		return nil, err
	}
	b.mutates = true

	tt := target.Type()
	converted, ok := b.implicit(value, tt)
	if n.Op == "=" {
		if !ok {
			return nil, b.mismatch(n.Value.Pos(), "", "cannot implicitly convert type %s to %s", typeName(value.Type()), typeName(tt))
		}
		return &assignNode{pos: n.pos, op: n.Op, target: target, value: converted}, nil
	}

	// x op= y is x = (T)(x op y), valid when y converts implicitly to T.
	op := strings.TrimSuffix(n.Op, "=")
	operand, err := b.operandType(n.pos, op, target, value)
	if err != nil {
		return nil, err
	}
	if !ok || !explicitConvertible(operand, tt) {
		return nil, b.mismatch(n.pos, n.Op, "operator %s cannot be applied to operands of type %s and %s", n.Op, typeName(tt), typeName(value.Type()))
	}
	return &assignNode{pos: n.pos, op: op, target: target, value: b.convert(value, operand), operand: operand}, nil
}

func (b *binder) bindIncDec(n *PostfixIncDecNode) (typedNode, error) {
	target, err := b.bind(n.Operand)
	if err != nil {
		return nil, err
	}
	if err := b.checkAssignable(target, n.Operand.Pos()); err != nil {
		return nil, err
	}
	if t := target.Type(); !isNumeric(underlying(t)) {
		return nil, b.mismatch(n.pos, n.Op, "operator %s cannot be applied to operand of type %s", n.Op, typeName(t))
	}
	b.mutates = true
	return &incDecNode{pos: n.pos, op: n.Op, target: target}, nil
}

// bindResult adapts the body to the result type of the signature.
func (b *binder) bindResult(body typedNode, n Node) (typedNode, error) {
	result := b.sig.Result
	if result == nil {
		return body, nil
	}
	if converted, ok := b.implicit(body, result); ok {
		return converted, nil
	}
	// T? -> T fails when the expression yields null.
	if bt := body.Type(); isNullableValue(bt) && implicitConvertible(bt.Elem(), result) {
		return b.convert(body, result), nil
	}
	return nil, b.mismatch(n.Pos(), "", "cannot convert lambda body of type %s to result type %s", typeName(body.Type()), typeName(result))
}
