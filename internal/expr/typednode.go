// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"reflect"

	"github.com/canonical/lambdaexpr/internal/typeinfo"
)

// typedNode is a node of the typed tree built by the binder. Every node has a
// resolved Go type. Nullable value types are represented by pointer types.
type typedNode interface {
	Type() reflect.Type
	Pos() int
}

// constNode is a literal, or a constant folded by the binder. The null
// literal has type nullType.
type constNode struct {
	pos int
	val reflect.Value
}

// paramNode reads the lambda parameter at index.
type paramNode struct {
	pos   int
	index int
	name  string
	typ   reflect.Type
}

// memberNode reads a struct field. A conditional member is the link after a
// "?.", it ends the chain early when its target is nil.
type memberNode struct {
	pos         int
	target      typedNode
	field       typeinfo.Field
	conditional bool
}

// lengthNode is the Length member of strings, slices, arrays and maps.
type lengthNode struct {
	pos         int
	target      typedNode
	conditional bool
}

// elementNode reads an element of a slice or array.
type elementNode struct {
	pos         int
	target      typedNode
	index       typedNode
	conditional bool
}

// chainNode is the boundary of a member chain containing "?." or "?[". It
// yields null when a conditional link was not reached and otherwise wraps the
// value of inner in its nullable type.
type chainNode struct {
	pos   int
	inner typedNode
	typ   reflect.Type
}

// convertNode converts operand to typ. Conversions that may fail at runtime,
// such as T? to T, are only ever created where the language allows them.
type convertNode struct {
	pos     int
	operand typedNode
	typ     reflect.Type
}

// unaryNode is !, - or + applied to an operand of the result type, or of its
// nullable counterpart when lifted.
type unaryNode struct {
	pos     int
	op      string
	operand typedNode
}

// binaryNode applies an arithmetic, bitwise, concatenation or non
// short-circuiting logical operator. Both operands have the same type, which
// is also the result type. A nullable operand type means the operator is
// lifted.
type binaryNode struct {
	pos         int
	op          string
	left, right typedNode
}

// compareNode applies a comparison to operands of the same type. The result
// is bool, or bool? when the operands are nullable.
type compareNode struct {
	pos         int
	op          string
	left, right typedNode
	typ         reflect.Type
}

// equalNode compares two values that are not lifted: references by identity
// and other comparable values by value.
type equalNode struct {
	pos         int
	negate      bool
	left, right typedNode
}

// nullTestNode compares operand with the null literal.
type nullTestNode struct {
	pos     int
	negate  bool
	operand typedNode
}

// logicalNode is a short-circuiting && or ||. Operands are both bool or both
// bool?.
type logicalNode struct {
	pos         int
	op          string
	left, right typedNode
}

// coalesceNode is left ?? right. The left operand is nilable.
type coalesceNode struct {
	pos         int
	left, right typedNode
	typ         reflect.Type
}

// conditionalNode is cond ? whenTrue : whenFalse. Both branches have the
// result type.
type conditionalNode struct {
	pos                 int
	cond                typedNode
	whenTrue, whenFalse typedNode
}

// assignNode writes to target. For compound assignments the current value of
// target and value are combined with op at type operand, and the result is
// converted back to the type of target.
type assignNode struct {
	pos     int
	op      string
	target  typedNode
	value   typedNode
	operand reflect.Type
}

// incDecNode is a postfix ++ or --. It yields the value before the update.
type incDecNode struct {
	pos    int
	op     string
	target typedNode
}

func (n *constNode) Type() reflect.Type       { return n.val.Type() }
func (n *paramNode) Type() reflect.Type       { return n.typ }
func (n *memberNode) Type() reflect.Type      { return n.field.Type }
func (n *lengthNode) Type() reflect.Type      { return intType }
func (n *elementNode) Type() reflect.Type     { return n.target.Type().Elem() }
func (n *chainNode) Type() reflect.Type       { return n.typ }
func (n *convertNode) Type() reflect.Type     { return n.typ }
func (n *unaryNode) Type() reflect.Type       { return n.operand.Type() }
func (n *binaryNode) Type() reflect.Type      { return n.left.Type() }
func (n *compareNode) Type() reflect.Type     { return n.typ }
func (n *equalNode) Type() reflect.Type       { return boolType }
func (n *nullTestNode) Type() reflect.Type    { return boolType }
func (n *logicalNode) Type() reflect.Type     { return n.left.Type() }
func (n *coalesceNode) Type() reflect.Type    { return n.typ }
func (n *conditionalNode) Type() reflect.Type { return n.whenTrue.Type() }
func (n *assignNode) Type() reflect.Type      { return n.target.Type() }
func (n *incDecNode) Type() reflect.Type      { return n.target.Type() }

func (n *constNode) Pos() int       { return n.pos }
func (n *paramNode) Pos() int       { return n.pos }
func (n *memberNode) Pos() int      { return n.pos }
func (n *lengthNode) Pos() int      { return n.pos }
func (n *elementNode) Pos() int     { return n.pos }
func (n *chainNode) Pos() int       { return n.pos }
func (n *convertNode) Pos() int     { return n.pos }
func (n *unaryNode) Pos() int       { return n.pos }
func (n *binaryNode) Pos() int      { return n.pos }
func (n *compareNode) Pos() int     { return n.pos }
func (n *equalNode) Pos() int       { return n.pos }
func (n *nullTestNode) Pos() int    { return n.pos }
func (n *logicalNode) Pos() int     { return n.pos }
func (n *coalesceNode) Pos() int    { return n.pos }
func (n *conditionalNode) Pos() int { return n.pos }
func (n *assignNode) Pos() int      { return n.pos }
func (n *incDecNode) Pos() int      { return n.pos }

// isNullConst reports whether n is the null literal.
func isNullConst(n typedNode) bool {
	c, ok := n.(*constNode)
	return ok && c.val.Type() == nullType
}
