// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"

	"github.com/canonical/lambdaexpr"
	"github.com/canonical/lambdaexpr/rows"
)

type Person struct {
	Name     string `db:"name"`
	Height   *int   `db:"height_cm"`
	HomeTown string `db:"home_town"`
	Home     *Place
}

type Place struct {
	Name       string `db:"town_name"`
	Population int    `db:"population"`
}

func example(ctx context.Context) error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `
		CREATE TABLE people (
			name text,
			height_cm integer,
			home_town text
		);
		CREATE TABLE location (
			town_name text,
			population integer
		);
		INSERT INTO people VALUES
			('Jim', 150, 'Kabul'),
			('Saba', 162, 'Berlin'),
			('Dave', 169, 'Brasília'),
			('Sophie', 174, 'Berlin'),
			('Kiri', NULL, 'Cape Town');
		INSERT INTO location VALUES
			('Kabul', 13000000),
			('Berlin', 3677472),
			('Brasília', 3039444),
			('Cape Town', 4710000);`,
	)
	if err != nil {
		return err
	}

	people, err := rows.Query[*Person](ctx, db, `SELECT * FROM people`)
	if err != nil {
		return err
	}
	places, err := rows.Query[*Place](ctx, db, `SELECT * FROM location`)
	if err != nil {
		return err
	}
	for _, p := range people {
		for _, place := range places {
			if place.Name == p.HomeTown {
				p.Home = place
			}
		}
	}

	// Find people taller than Jim.
	jim := people[0]
	taller := lambdaexpr.MustCompile[func(*Person, *Person) bool](`(p, other) => (p.Height ?? 0) > other.Height`)
	for _, p := range people {
		if taller.Func()(p, jim) {
			fmt.Printf("%s is taller than %s.\n", p.Name, jim.Name)
		}
	}

	// Find the people from big cities, tallest first.
	bigCity, err := lambdaexpr.Where(people, `p => p.Home?.Population > 4000000`)
	if err != nil {
		return err
	}
	bigCity, err = lambdaexpr.OrderByDescending[*Person, int](bigCity, `p => p.Height ?? 0`)
	if err != nil {
		return err
	}
	names, err := lambdaexpr.Select[*Person, string](bigCity, `p => p.Name + " from " + p.HomeTown`)
	if err != nil {
		return err
	}
	fmt.Printf("People from cities of more than four million: %v\n", names)

	// Heights are unknown for some people.
	heights, err := lambdaexpr.Select[*Person, string](people, `p => p.Height == null ? p.Name + ": unknown" : p.Name + ": measured"`)
	if err != nil {
		return err
	}
	fmt.Printf("Heights: %v\n", heights)

	stats := lambdaexpr.DefaultCache().Stats()
	log.Printf("expression cache: %d entries, %d hits, %d misses", stats.Entries, stats.Hits, stats.Misses)
	return nil
}

func main() {
	if err := example(context.Background()); err != nil {
		log.Fatal(err)
	}
}
