// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

import (
	"fmt"
	"strings"
)

// Node is a node of the untyped syntax tree. The set of implementations is
// closed: the binder switches over every one of them.
type Node interface {
	// Pos returns the byte offset of the node in the query.
	Pos() int
	String() string
	node()
}

// LiteralNode is a boolean, numeric, string, char or null constant.
type LiteralNode struct {
	pos   int
	Raw   string
	Value any
}

// IdentifierNode refers to a lambda parameter.
type IdentifierNode struct {
	pos  int
	Name string
}

// MemberAccessNode is target.Name.
type MemberAccessNode struct {
	pos    int
	Target Node
	Name   string
}

// IndexNode is target[Index].
type IndexNode struct {
	pos    int
	Target Node
	Index  Node
}

// NullConditionalMemberNode is target?.Name.
type NullConditionalMemberNode struct {
	pos    int
	Target Node
	Name   string
}

// NullConditionalIndexNode is target?[Index].
type NullConditionalIndexNode struct {
	pos    int
	Target Node
	Index  Node
}

// UnaryNode is a prefix !, - or + applied to Operand.
type UnaryNode struct {
	pos     int
	Op      string
	Operand Node
}

// PostfixIncDecNode is Operand++ or Operand--.
type PostfixIncDecNode struct {
	pos     int
	Op      string
	Operand Node
}

// BinaryNode is any binary operator except ?? and the assignments.
type BinaryNode struct {
	pos         int
	Op          string
	Left, Right Node
}

// AssignmentNode is Target Op Value where Op is = or a compound assignment.
type AssignmentNode struct {
	pos    int
	Op     string
	Target Node
	Value  Node
}

// ConditionalNode is Cond ? WhenTrue : WhenFalse.
type ConditionalNode struct {
	pos                       int
	Cond, WhenTrue, WhenFalse Node
}

// CoalesceNode is Left ?? Right.
type CoalesceNode struct {
	pos         int
	Left, Right Node
}

// CastNode is (TypeName)Operand.
type CastNode struct {
	pos      int
	TypeName string
	Operand  Node
}

// ParenthesizedNode is (Inner). It ends any null-conditional chain inside it.
type ParenthesizedNode struct {
	pos   int
	Inner Node
}

// LambdaNode is the root of every parse: (Params) => Body.
type LambdaNode struct {
	pos    int
	Params []string
	Body   Node
}

func (n *LiteralNode) Pos() int               { return n.pos }
func (n *IdentifierNode) Pos() int            { return n.pos }
func (n *MemberAccessNode) Pos() int          { return n.pos }
func (n *IndexNode) Pos() int                 { return n.pos }
func (n *NullConditionalMemberNode) Pos() int { return n.pos }
func (n *NullConditionalIndexNode) Pos() int  { return n.pos }
func (n *UnaryNode) Pos() int                 { return n.pos }
func (n *PostfixIncDecNode) Pos() int         { return n.pos }
func (n *BinaryNode) Pos() int                { return n.pos }
func (n *AssignmentNode) Pos() int            { return n.pos }
func (n *ConditionalNode) Pos() int           { return n.pos }
func (n *CoalesceNode) Pos() int              { return n.pos }
func (n *CastNode) Pos() int                  { return n.pos }
func (n *ParenthesizedNode) Pos() int         { return n.pos }
func (n *LambdaNode) Pos() int                { return n.pos }

func (*LiteralNode) node()               {}
func (*IdentifierNode) node()            {}
func (*MemberAccessNode) node()          {}
func (*IndexNode) node()                 {}
func (*NullConditionalMemberNode) node() {}
func (*NullConditionalIndexNode) node()  {}
func (*UnaryNode) node()                 {}
func (*PostfixIncDecNode) node()         {}
func (*BinaryNode) node()                {}
func (*AssignmentNode) node()            {}
func (*ConditionalNode) node()           {}
func (*CoalesceNode) node()              {}
func (*CastNode) node()                  {}
func (*ParenthesizedNode) node()         {}
func (*LambdaNode) node()                {}

func (n *LiteralNode) String() string {
	return "Literal[" + n.Raw + "]"
}

func (n *IdentifierNode) String() string {
	return "Ident[" + n.Name + "]"
}

func (n *MemberAccessNode) String() string {
	return fmt.Sprintf("Member[%s %s]", n.Target, n.Name)
}

func (n *IndexNode) String() string {
	return fmt.Sprintf("Index[%s %s]", n.Target, n.Index)
}

func (n *NullConditionalMemberNode) String() string {
	return fmt.Sprintf("CondMember[%s %s]", n.Target, n.Name)
}

func (n *NullConditionalIndexNode) String() string {
	return fmt.Sprintf("CondIndex[%s %s]", n.Target, n.Index)
}

func (n *UnaryNode) String() string {
	return fmt.Sprintf("Unary[%s %s]", n.Op, n.Operand)
}

func (n *PostfixIncDecNode) String() string {
	return fmt.Sprintf("Postfix[%s %s]", n.Operand, n.Op)
}

func (n *BinaryNode) String() string {
	return fmt.Sprintf("Binary[%s %s %s]", n.Left, n.Op, n.Right)
}

func (n *AssignmentNode) String() string {
	return fmt.Sprintf("Assign[%s %s %s]", n.Target, n.Op, n.Value)
}

func (n *ConditionalNode) String() string {
	return fmt.Sprintf("Cond[%s ? %s : %s]", n.Cond, n.WhenTrue, n.WhenFalse)
}

func (n *CoalesceNode) String() string {
	return fmt.Sprintf("Coalesce[%s %s]", n.Left, n.Right)
}

func (n *CastNode) String() string {
	return fmt.Sprintf("Cast[%s %s]", n.TypeName, n.Operand)
}

func (n *ParenthesizedNode) String() string {
	return fmt.Sprintf("Paren[%s]", n.Inner)
}

func (n *LambdaNode) String() string {
	return fmt.Sprintf("Lambda[(%s) %s]", strings.Join(n.Params, ", "), n.Body)
}
