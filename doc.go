/*
Package lambdaexpr compiles lambda expressions written as text into Go functions.

The expression language is a small subset of C# lambdas. An expression such as

	x => x.Teacher?.Age ?? 0

is parsed, bound against the parameter and result types of a Go function type
and turned into a closure that can be called any number of times.

# Basics

The function type is given as a type parameter to Compile:

	type Student struct {
		FirstName string
		Age       *int
		Teacher   *Teacher
	}

	adult := lambdaexpr.MustCompile[func(*Student) bool](`s => (s.Age ?? 0) >= 18`)
	ok := adult.Func()(student)

Parameters are named in the lambda head, either as a single identifier or as a
parenthesised list. Their number must match the parameters of the function
type. Members are the exported fields of structs and pointers to structs.

# Types

Go pointers to value types play the part of C# nullable types: *int is int?,
*bool is bool? and so on. The literal null converts to any pointer, slice, map
or interface type. Arithmetic and comparison operators lift over nullable
operands and yield null if either operand is null. The operators & and | and
the short-circuiting && and || follow three-valued logic over bool?.

Integer literals are int, uint, long or ulong by value and suffix. Real
literals are double, or float with the suffix f. The suffix m gives a decimal
literal, represented by github.com/shopspring/decimal.

Casts use the C# keywords, for example (long)x.Age or (int?)x.Count.

# Null-conditional chains

A member or index access written with ?. or ?[ short-circuits to null when the
value to its left is null. The rest of the chain, up to the next closing
parenthesis or operator, is then not evaluated:

	s => s.Teacher?.Students[0].FirstName

# Assignment

Assignments and the increment and decrement operators write through to the
arguments. A field of a struct passed by value can only be assigned on the
invocation's own copy.

	inc := lambdaexpr.MustCompile[func(*Student)](`s => s.Age += 1`)

# Errors

Compile returns an error wrapping an *Error whose Kind tells lexical, syntax,
binding and unsupported construct failures apart. Failures during a call, such
as dereferencing null or dividing an integer by zero, have KindRuntime. They
are returned through the last result of the function type if it is an error
and otherwise cause the function to panic.

# Caching and queries

CompileCached keeps compiled expressions in a Cache keyed by the query text
and function type. The functions Where, Select, OrderBy and First apply an
expression to every element of a slice through the default cache:

	older, err := lambdaexpr.Where(students, `s => s.Age > 20`)
*/
package lambdaexpr
