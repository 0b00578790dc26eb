// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package lambdaexpr_test

import (
	"errors"

	. "gopkg.in/check.v1"

	"github.com/canonical/lambdaexpr"
)

type QuerySuite struct{}

var _ = Suite(&QuerySuite{})

func firstNames(students []*Student) []string {
	var names []string
	for _, s := range students {
		names = append(names, s.FirstName)
	}
	return names
}

func (s *QuerySuite) TestWhere(c *C) {
	students := newStudents()

	adults, err := lambdaexpr.Where(students, `s => s.Age >= 18`)
	c.Assert(err, IsNil)
	// Dan has no age, so the comparison is null and he is left out.
	c.Check(firstNames(adults), DeepEquals, []string{"Eve", "Fay"})

	taught, err := lambdaexpr.Where(students, `s => s.Teacher?.FirstName == "Alice"`)
	c.Assert(err, IsNil)
	c.Check(firstNames(taught), DeepEquals, []string{"Bob", "Fay"})

	none, err := lambdaexpr.Where(students, `s => false`)
	c.Assert(err, IsNil)
	c.Check(none, HasLen, 0)
}

func (s *QuerySuite) TestWhereErrors(c *C) {
	students := newStudents()

	_, err := lambdaexpr.Where(students, `s => s.Age`)
	c.Check(err, ErrorMatches, `cannot compile expression: type mismatch .*`)

	// Dan has no teacher.
	_, err = lambdaexpr.Where(students, `s => s.Teacher.WorkHours > 10`)
	c.Check(err, ErrorMatches, `cannot evaluate item 2: runtime error: null reference: .*`)
	c.Check(errors.Is(err, lambdaexpr.ErrRuntime), Equals, true)
}

func (s *QuerySuite) TestSelect(c *C) {
	students := newStudents()

	names, err := lambdaexpr.Select[*Student, string](students, `s => s.LastName`)
	c.Assert(err, IsNil)
	c.Check(names, DeepEquals, []string{"Brown", "Evans", "Doe", "Fox"})

	hours, err := lambdaexpr.Select[*Student, int](students, `s => s.Teacher?.WorkHours ?? -1`)
	c.Assert(err, IsNil)
	c.Check(hours, DeepEquals, []int{38, 12, -1, 38})

	labels, err := lambdaexpr.Select[*Student, string](students, `s => s.Age == null ? "?" : s.Age >= 18 ? "Adult" : "Minor"`)
	c.Assert(err, IsNil)
	c.Check(labels, DeepEquals, []string{"Minor", "Adult", "?", "Adult"})
}

func (s *QuerySuite) TestOrderBy(c *C) {
	students := newStudents()

	byAge, err := lambdaexpr.OrderBy[*Student, int](students, `s => s.Age ?? 0`)
	c.Assert(err, IsNil)
	c.Check(firstNames(byAge), DeepEquals, []string{"Dan", "Bob", "Fay", "Eve"})
	// The input is left untouched.
	c.Check(firstNames(students), DeepEquals, []string{"Bob", "Eve", "Dan", "Fay"})

	// Equal keys keep their order.
	byTeacher, err := lambdaexpr.OrderBy[*Student, string](students, `s => s.Teacher?.FirstName ?? ""`)
	c.Assert(err, IsNil)
	c.Check(firstNames(byTeacher), DeepEquals, []string{"Dan", "Bob", "Fay", "Eve"})

	desc, err := lambdaexpr.OrderByDescending[*Student, string](students, `s => s.Teacher?.FirstName ?? ""`)
	c.Assert(err, IsNil)
	c.Check(firstNames(desc), DeepEquals, []string{"Eve", "Bob", "Fay", "Dan"})
}

func (s *QuerySuite) TestFirst(c *C) {
	students := newStudents()

	st, ok, err := lambdaexpr.First(students, `s => s.Age > 17`)
	c.Assert(err, IsNil)
	c.Assert(ok, Equals, true)
	c.Check(st.FirstName, Equals, "Eve")

	st, ok, err = lambdaexpr.First(students, `s => s.Age > 99`)
	c.Assert(err, IsNil)
	c.Check(ok, Equals, false)
	c.Check(st, IsNil)
}

func (s *QuerySuite) TestHelpersUseDefaultCache(c *C) {
	const query = `s => s.LastName == "Fox"`
	students := newStudents()
	_, err := lambdaexpr.Where(students, query)
	c.Assert(err, IsNil)
	before := lambdaexpr.DefaultCache().Stats()
	_, _, err = lambdaexpr.First(students, query)
	c.Assert(err, IsNil)
	after := lambdaexpr.DefaultCache().Stats()
	c.Check(after.Hits-before.Hits >= 1, Equals, true)
}
