// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package lambdaexpr

import (
	"cmp"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// The query helpers compile their query text through the default cache, so
// repeated calls with the same text and types compile it once.

// predicate is the function type of Where and First. A null result of a
// bool? body counts as false.
type predicate[T any] func(T) (*bool, error)

// Where returns the items for which the predicate in query is true, in their
// original order. The query must be a lambda with one parameter of type T
// and a bool or bool? body.
func Where[T any](items []T, query string) ([]T, error) {
	e, err := CompileCached[predicate[T]](defaultCache, query)
	if err != nil {
		return nil, err
	}
	pred := e.Func()
	var out []T
	for i, item := range items {
		ok, err := pred(item)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot evaluate item %d", i)
		}
		if ok != nil && *ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// Select maps every item through the lambda in query.
func Select[T, R any](items []T, query string) ([]R, error) {
	e, err := CompileCached[func(T) (R, error)](defaultCache, query)
	if err != nil {
		return nil, err
	}
	project := e.Func()
	out := make([]R, 0, len(items))
	for i, item := range items {
		r, err := project(item)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot evaluate item %d", i)
		}
		out = append(out, r)
	}
	return out, nil
}

// OrderBy returns a copy of items sorted by the key the lambda in query
// computes. The sort is stable.
func OrderBy[T any, K constraints.Ordered](items []T, query string) ([]T, error) {
	return orderBy[T, K](items, query, false)
}

// OrderByDescending is the same as [OrderBy] with the order reversed. Items
// with equal keys keep their original order.
func OrderByDescending[T any, K constraints.Ordered](items []T, query string) ([]T, error) {
	return orderBy[T, K](items, query, true)
}

type keyedItem[T any, K constraints.Ordered] struct {
	item T
	key  K
}

func orderBy[T any, K constraints.Ordered](items []T, query string, desc bool) ([]T, error) {
	e, err := CompileCached[func(T) (K, error)](defaultCache, query)
	if err != nil {
		return nil, err
	}
	keyOf := e.Func()
	keyed := make([]keyedItem[T, K], len(items))
	for i, item := range items {
		k, err := keyOf(item)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot evaluate item %d", i)
		}
		keyed[i] = keyedItem[T, K]{item: item, key: k}
	}
	slices.SortStableFunc(keyed, func(a, b keyedItem[T, K]) int {
		if desc {
			return cmp.Compare(b.key, a.key)
		}
		return cmp.Compare(a.key, b.key)
	})
	out := make([]T, len(keyed))
	for i, ki := range keyed {
		out[i] = ki.item
	}
	return out, nil
}

// First returns the first item for which the predicate in query is true.
// The boolean result is false if there is no such item.
func First[T any](items []T, query string) (T, bool, error) {
	var zero T
	e, err := CompileCached[predicate[T]](defaultCache, query)
	if err != nil {
		return zero, false, err
	}
	pred := e.Func()
	for i, item := range items {
		ok, err := pred(item)
		if err != nil {
			return zero, false, errors.Wrapf(err, "cannot evaluate item %d", i)
		}
		if ok != nil && *ok {
			return item, true, nil
		}
	}
	return zero, false, nil
}
