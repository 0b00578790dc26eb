// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package rows loads the results of database/sql queries into tagged Go
// structs, so that they can be filtered and mapped with compiled expressions.
//
// Columns are matched to struct fields by the "db" tag:
//
//	type Student struct {
//		FirstName string `db:"first_name"`
//		Age       *int   `db:"age"`
//	}
//
// Columns without a matching tag are discarded. A NULL column sets a pointer
// field to nil and zeroes any other field.
package rows

import (
	"context"
	"database/sql"
	"reflect"

	"github.com/pkg/errors"

	"github.com/canonical/lambdaexpr/internal/typeinfo"
)

// ErrNoRows is returned by QueryOne when the query returns no rows.
var ErrNoRows = sql.ErrNoRows

// Querier is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// rowType returns the struct type that a row is scanned into for T, and
// whether T is a pointer to it.
func rowType[T any]() (reflect.Type, bool, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	ptr := t.Kind() == reflect.Pointer
	if ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, false, errors.Errorf("need struct or pointer to struct, got %s", reflect.TypeOf((*T)(nil)).Elem())
	}
	return t, ptr, nil
}

// ScanAll reads the remaining rows of rs into values of type T, which must be
// a struct or a pointer to a struct. It does not close rs.
func ScanAll[T any](rs *sql.Rows) (results []T, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "cannot scan rows")
		}
	}()

	t, ptr, err := rowType[T]()
	if err != nil {
		return nil, err
	}
	info, err := typeinfo.GetTypeInfo(t)
	if err != nil {
		return nil, err
	}
	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}

	for rs.Next() {
		v := reflect.New(t)
		targets, proxies, err := info.ScanTargets(v.Elem(), cols)
		if err != nil {
			return nil, err
		}
		if err := rs.Scan(targets...); err != nil {
			return nil, err
		}
		for _, proxy := range proxies {
			proxy.OnSuccess()
		}
		if ptr {
			results = append(results, v.Interface().(T))
		} else {
			results = append(results, v.Elem().Interface().(T))
		}
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Query runs query on q and returns every row as a T.
func Query[T any](ctx context.Context, q Querier, query string, args ...any) ([]T, error) {
	rs, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "cannot run query")
	}
	defer rs.Close()
	return ScanAll[T](rs)
}

// QueryOne runs query on q and returns the first row as a T. It returns
// ErrNoRows if there are no rows.
func QueryOne[T any](ctx context.Context, q Querier, query string, args ...any) (T, error) {
	var zero T
	results, err := Query[T](ctx, q, query, args...)
	if err != nil {
		return zero, err
	}
	if len(results) == 0 {
		return zero, ErrNoRows
	}
	return results[0], nil
}
