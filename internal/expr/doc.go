// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package expr compiles C#-like lambda expressions, such as

	x => x.Teacher?.Age ?? 0 > 35 ? "Senior" : "Junior"

into programs that run against Go values. It covers the whole compiler, the
public API and the caching of compiled expressions live in the root package.

The expr package is split up into four stages: the Lex stage, the Parse
stage, the Type Binding stage and the Compile stage.

# Lex stage

The lex stage turns the query string into tokens: identifiers, literals,
operators and punctuation. Numeric literals get their Go type here, from
their suffix and shape.

# Parse stage

The parse stage takes the tokens and parses them into a syntax tree rooted at
a LambdaNode. The parser only processes information already encoded in the
syntax of the expression. Constructs outside the supported grammar, such as
method invocation, are reported as unsupported rather than malformed.

# Type Binding stage

The Type Binding stage binds the parameters of the lambda to the Go types of
a Signature and resolves the type of every node. This is where members are
looked up, numeric operands are promoted, operators are lifted over nullable
operands and the branches of conditional expressions are reconciled. A
nullable value type T? is represented by the pointer type *T.

The output of this stage retains the shape of the syntax tree, with explicit
conversion nodes added wherever a value changes type.

# Compile stage

The compile stage lowers the typed tree into a composition of closures over a
frame of arguments. Each run of a Program gets its own frame, so programs are
safe for concurrent use. Failures while running, such as dereferencing a nil
pointer outside a null-conditional chain, are returned as errors of kind
KindRuntime.
*/
package expr
