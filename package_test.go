// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package lambdaexpr_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	. "gopkg.in/check.v1"

	"github.com/canonical/lambdaexpr"
)

// Hook up gocheck into the "go test" runner.
func TestPackage(t *testing.T) { TestingT(t) }

type PackageSuite struct{}

var _ = Suite(&PackageSuite{})

type Teacher struct {
	FirstName   string
	LastName    string
	Age         *int
	WorkHours   int
	Salary      *float64
	IsPrinciple *bool
	Students    []*Student
}

type Student struct {
	FirstName string
	LastName  string
	Age       *int
	Teacher   *Teacher
}

func intp(i int) *int { return &i }

func boolp(b bool) *bool { return &b }

func newStudents() []*Student {
	alice := &Teacher{FirstName: "Alice", LastName: "Smith", Age: intp(40), WorkHours: 38}
	carol := &Teacher{FirstName: "Carol", LastName: "Jones", WorkHours: 12}
	students := []*Student{
		{FirstName: "Bob", LastName: "Brown", Age: intp(17), Teacher: alice},
		{FirstName: "Eve", LastName: "Evans", Age: intp(21), Teacher: carol},
		{FirstName: "Dan", LastName: "Doe"},
		{FirstName: "Fay", LastName: "Fox", Age: intp(18), Teacher: alice},
	}
	alice.Students = []*Student{students[0], students[3]}
	carol.Students = []*Student{students[1]}
	return students
}

func (s *PackageSuite) TestCoalesceIsRightAssociative(c *C) {
	e, err := lambdaexpr.Compile[func(*Teacher) int](`x => x.Age ?? x.WorkHours ?? 0`)
	c.Assert(err, IsNil)
	f := e.Func()
	c.Check(f(&Teacher{Age: intp(35), WorkHours: 10}), Equals, 35)
	c.Check(f(&Teacher{WorkHours: 10}), Equals, 10)
	c.Check(f(&Teacher{}), Equals, 0)
}

func (s *PackageSuite) TestNullConditionalMember(c *C) {
	e, err := lambdaexpr.Compile[func(*Student) *int](`x => x.Teacher?.Age`)
	c.Assert(err, IsNil)
	f := e.Func()
	c.Check(f(&Student{}), IsNil)
	age := f(&Student{Teacher: &Teacher{Age: intp(52)}})
	c.Assert(age, NotNil)
	c.Check(*age, Equals, 52)

	// The rest of the chain is skipped when Teacher is null.
	e2, err := lambdaexpr.Compile[func(*Student) *int](`x => x.Teacher?.Students[0].Age`)
	c.Assert(err, IsNil)
	c.Check(e2.Func()(&Student{}), IsNil)
}

func (s *PackageSuite) TestConditionalOnNullableComparison(c *C) {
	e, err := lambdaexpr.Compile[func(*Student) string](`x => x.Age >= 18 ? "Adult" : "Minor"`)
	c.Assert(err, IsNil)
	f := e.Func()
	c.Check(f(&Student{Age: intp(17)}), Equals, "Minor")
	c.Check(f(&Student{Age: intp(18)}), Equals, "Adult")
}

func (s *PackageSuite) TestCoalesceInComparison(c *C) {
	e, err := lambdaexpr.Compile[func(*Teacher) bool](`x => (x.Age ?? 0) > 35`)
	c.Assert(err, IsNil)
	f := e.Func()
	c.Check(f(&Teacher{}), Equals, false)
	c.Check(f(&Teacher{Age: intp(36)}), Equals, true)
	c.Check(f(&Teacher{Age: intp(35)}), Equals, false)
}

func (s *PackageSuite) TestAssignmentWritesThrough(c *C) {
	e, err := lambdaexpr.Compile[func(*Student)](`x => x.Age += 5`)
	c.Assert(err, IsNil)
	st := &Student{Age: intp(20)}
	e.Func()(st)
	c.Check(*st.Age, Equals, 25)

	inc, err := lambdaexpr.Compile[func(*Student) *int](`x => x.Age++`)
	c.Assert(err, IsNil)
	old := inc.Func()(st)
	c.Assert(old, NotNil)
	c.Check(*old, Equals, 25)
	c.Check(*st.Age, Equals, 26)

	rename, err := lambdaexpr.Compile[func(*Student, string) string](`(x, name) => x.FirstName = name`)
	c.Assert(err, IsNil)
	c.Check(rename.Func()(st, "Zed"), Equals, "Zed")
	c.Check(st.FirstName, Equals, "Zed")
}

func (s *PackageSuite) TestNoParameters(c *C) {
	e, err := lambdaexpr.Compile[func() int](`() => 42`)
	c.Assert(err, IsNil)
	c.Check(e.Func()(), Equals, 42)
	c.Check(e.Params(), HasLen, 0)
	c.Check(e.Query(), Equals, `() => 42`)
}

func (s *PackageSuite) TestDecimalResult(c *C) {
	e, err := lambdaexpr.Compile[func(int) decimal.Decimal](`x => x * 1.5m`)
	c.Assert(err, IsNil)
	c.Check(e.Func()(3).String(), Equals, "4.5")
}

func (s *PackageSuite) TestCall(c *C) {
	e, err := lambdaexpr.Compile[func(*Student, int) bool](`(s, min) => (s.Age ?? 0) >= min`)
	c.Assert(err, IsNil)
	c.Check(e.Params(), DeepEquals, []string{"s", "min"})

	res, err := e.Call(&Student{Age: intp(30)}, 18)
	c.Assert(err, IsNil)
	c.Check(res, Equals, true)

	// A nil argument stands for the zero value.
	res, err = e.Call(nil, 0)
	c.Assert(err, ErrorMatches, `runtime error: null reference: .*`)
	c.Check(res, IsNil)

	_, err = e.Call(&Student{})
	c.Check(err, ErrorMatches, "expected 2 arguments, got 1")

	_, err = e.Call(&Student{}, "18")
	c.Check(err, ErrorMatches, `argument 2: cannot use string as int`)

	action := lambdaexpr.MustCompile[func(*Student)](`s => s.Age = null`)
	res, err = action.Call(&Student{Age: intp(3)})
	c.Assert(err, IsNil)
	c.Check(res, IsNil)
}

func (s *PackageSuite) TestRuntimeErrorResult(c *C) {
	e, err := lambdaexpr.Compile[func(*Student) (*int, error)](`x => x.Teacher.Age`)
	c.Assert(err, IsNil)
	age, err := e.Func()(&Student{})
	c.Check(age, IsNil)
	c.Check(errors.Is(err, lambdaexpr.ErrRuntime), Equals, true)
	var exprErr *lambdaexpr.Error
	c.Assert(errors.As(err, &exprErr), Equals, true)
	c.Check(exprErr.Kind, Equals, lambdaexpr.KindRuntime)

	age, err = e.Func()(&Student{Teacher: &Teacher{Age: intp(44)}})
	c.Assert(err, IsNil)
	c.Check(*age, Equals, 44)

	div, err := lambdaexpr.Compile[func(int, int) error](`(a, b) => a / b`)
	c.Assert(err, IsNil)
	c.Check(div.Func()(1, 0), ErrorMatches, "runtime error: .*")
	c.Check(div.Func()(1, 1), IsNil)
}

func (s *PackageSuite) TestRuntimeErrorPanics(c *C) {
	e, err := lambdaexpr.Compile[func(*Student) *int](`x => x.Teacher.Age`)
	c.Assert(err, IsNil)
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		e.Func()(&Student{})
	}()
	err, ok := recovered.(error)
	c.Assert(ok, Equals, true)
	c.Check(errors.Is(err, lambdaexpr.ErrRuntime), Equals, true)

	cond := lambdaexpr.MustCompile[func(*bool) int](`b => b ? 1 : 0`)
	c.Check(func() { cond.Func()(nil) }, PanicMatches, `runtime error: condition of conditional expression is null`)
}

var compileErrorTests = []struct {
	summary string
	query   string
	kind    lambdaexpr.Kind
	is      error
	err     string
}{{
	summary: "lexical error",
	query:   `x => x.FirstName == "Bob`,
	kind:    lambdaexpr.KindLex,
	is:      lambdaexpr.ErrLex,
	err:     `cannot compile expression: lex error at column 21: .*`,
}, {
	summary: "syntax error",
	query:   `x => (x.Age > 3`,
	kind:    lambdaexpr.KindParse,
	is:      lambdaexpr.ErrParse,
	err:     `cannot compile expression: parse error .*`,
}, {
	summary: "parameter count mismatch",
	query:   `(x, y) => x.Age > 3`,
	kind:    lambdaexpr.KindParse,
	is:      lambdaexpr.ErrParse,
	err:     `cannot compile expression: parse error.*parameter count mismatch.*`,
}, {
	summary: "reserved word as a parameter name",
	query:   `base => base.Age > 3`,
	kind:    lambdaexpr.KindParse,
	is:      lambdaexpr.ErrParse,
	err:     `cannot compile expression: parse error at column 1: keyword "base" cannot be a parameter name.*`,
}, {
	summary: "unbound identifier",
	query:   `x => y.Age > 3`,
	kind:    lambdaexpr.KindUnboundIdentifier,
	is:      lambdaexpr.ErrBind,
	err:     `cannot compile expression: unbound identifier at column 6: the name "y" does not exist in the current context \(near "y"\)`,
}, {
	summary: "unknown member",
	query:   `x => x.Height > 3`,
	kind:    lambdaexpr.KindUnknownMember,
	is:      lambdaexpr.ErrUnknownMember,
	err:     `cannot compile expression: unknown member at column 8: .*"Height".*`,
}, {
	summary: "type mismatch",
	query:   `x => x.FirstName > 3`,
	kind:    lambdaexpr.KindTypeMismatch,
	is:      lambdaexpr.ErrTypeMismatch,
	err:     `cannot compile expression: type mismatch .*`,
}, {
	summary: "method invocation",
	query:   `x => x.FirstName.StartsWith("B")`,
	kind:    lambdaexpr.KindUnsupported,
	is:      lambdaexpr.ErrUnsupported,
	err:     `cannot compile expression: unsupported construct .*method invocation is not supported.*`,
}}

func (s *PackageSuite) TestCompileErrors(c *C) {
	for i, test := range compileErrorTests {
		_, err := lambdaexpr.Compile[func(*Student) bool](test.query)
		if err == nil {
			c.Errorf("test %d failed (%s):\nexpected error, got nil", i, test.summary)
			continue
		}
		c.Check(err, ErrorMatches, test.err, Commentf("test %d (%s)", i, test.summary))
		c.Check(errors.Is(err, test.is), Equals, true, Commentf("test %d (%s)", i, test.summary))
		var exprErr *lambdaexpr.Error
		if c.Check(errors.As(err, &exprErr), Equals, true, Commentf("test %d (%s)", i, test.summary)) {
			c.Check(exprErr.Kind, Equals, test.kind, Commentf("test %d (%s)", i, test.summary))
		}
	}
}

func (s *PackageSuite) TestFunctionTypeErrors(c *C) {
	_, err := lambdaexpr.Compile[int](`x => x`)
	c.Check(err, ErrorMatches, "cannot compile expression: need function type, got int")

	_, err = lambdaexpr.Compile[func(...int) int](`x => 1`)
	c.Check(err, ErrorMatches, `cannot compile expression: variadic function type func\(...int\) int is not supported`)

	_, err = lambdaexpr.Compile[func() (int, int)](`() => 1`)
	c.Check(err, ErrorMatches, `cannot compile expression: function type func\(\) \(int, int\) must return at most one value and an optional error`)

	_, err = lambdaexpr.Compile[func() (int, error, error)](`() => 1`)
	c.Check(err, ErrorMatches, `cannot compile expression: function type .* must return at most one value and an optional error`)

	c.Check(func() { lambdaexpr.MustCompile[string](`x => x`) }, PanicMatches, "cannot compile expression: need function type, got string")
}

func (s *PackageSuite) TestNullPredicateFromBoolResult(c *C) {
	e, err := lambdaexpr.Compile[func(*Student) (bool, error)](`x => x.Age > 17`)
	c.Assert(err, IsNil)
	ok, err := e.Func()(&Student{Age: intp(18)})
	c.Assert(err, IsNil)
	c.Check(ok, Equals, true)

	// bool? cannot be null at a bool result.
	_, err = e.Func()(&Student{})
	c.Check(errors.Is(err, lambdaexpr.ErrRuntime), Equals, true)

	n, err := lambdaexpr.Compile[func(*Student) *bool](`x => x.Age > 17`)
	c.Assert(err, IsNil)
	c.Check(n.Func()(&Student{}), IsNil)
	c.Check(n.Func()(&Student{Age: intp(10)}), DeepEquals, boolp(false))
}
