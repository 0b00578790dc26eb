// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package lambdaexpr_test

import (
	"fmt"

	"github.com/canonical/lambdaexpr"
)

type Employee struct {
	Name    string
	Team    string
	Manager *Employee
	Bonus   *float64
}

func Example() {
	ada := &Employee{Name: "Ada", Team: "core"}
	bonus := 250.0
	staff := []*Employee{
		ada,
		{Name: "Grace", Team: "core", Manager: ada, Bonus: &bonus},
		{Name: "Linus", Team: "kernel"},
	}

	managed, err := lambdaexpr.Where(staff, `e => e.Manager?.Name == "Ada"`)
	if err != nil {
		panic(err)
	}
	for _, e := range managed {
		fmt.Println(e.Name, "is managed by Ada")
	}

	earnings := lambdaexpr.MustCompile[func(*Employee, float64) float64](`(e, pay) => pay + (e.Bonus ?? 0)`)
	for _, e := range staff {
		fmt.Printf("%s earns %.1f\n", e.Name, earnings.Func()(e, 1000))
	}

	// Output:
	// Grace is managed by Ada
	// Ada earns 1000.0
	// Grace earns 1250.0
	// Linus earns 1000.0
}

func ExampleCompile_errors() {
	_, err := lambdaexpr.Compile[func(*Employee) bool](`e => e.Salary > 10`)
	fmt.Println(err)

	_, err = lambdaexpr.Compile[func(*Employee) bool](`e => e.Name.Contains("a")`)
	fmt.Println(err)

	// Output:
	// cannot compile expression: unknown member at column 8: *lambdaexpr_test.Employee does not contain a definition for "Salary" (near "Salary")
	// cannot compile expression: unsupported construct at column 21: method invocation is not supported (near "(")
}

func ExampleExpression_Func() {
	raise := lambdaexpr.MustCompile[func(*Employee)](`e => e.Bonus += 100`)
	bonus := 50.0
	e := &Employee{Name: "Grace", Bonus: &bonus}
	raise.Func()(e)
	fmt.Println(*e.Bonus)

	// Output:
	// 150
}
