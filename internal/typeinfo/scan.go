// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"database/sql"
	"fmt"
	"reflect"
)

var scannerInterface = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// ScanProxy is a shim for scanning query results
// into types for which we have information.
type ScanProxy struct {
	original reflect.Value
	scan     reflect.Value
}

// OnSuccess copies the scanned value into the struct field. A NULL column
// zeroes the field.
func (sp ScanProxy) OnSuccess() {
	var val reflect.Value
	if !sp.scan.IsNil() {
		val = sp.scan.Elem()
	} else {
		val = reflect.Zero(sp.original.Type())
	}
	sp.original.Set(val)
}

// ScanTargets returns the pointers to pass to rows.Scan for the given columns
// of the struct s, which must be addressable. Columns without a matching "db"
// tag are scanned into a discarded value.
//
// rows.Scan will return an error if it tries to scan NULL into a type that
// cannot be set to nil, so for types that are not a pointer and do not
// implement sql.Scanner, a pointer to them is generated and passed to
// Rows.Scan. ScanProxy.OnSuccess then writes the field.
func (info *Info) ScanTargets(s reflect.Value, columns []string) ([]any, []ScanProxy, error) {
	if info.TagErr != nil {
		return nil, nil, info.TagErr
	}
	if s.Type() != info.Type || !s.CanAddr() {
		return nil, nil, fmt.Errorf("internal error: need addressable %s, got %s", info.Type, s.Type())
	}
	targets := make([]any, 0, len(columns))
	var proxies []ScanProxy
	for _, col := range columns {
		field, ok := info.TagToField[col]
		if !ok {
			targets = append(targets, new(any))
			continue
		}
		val, err := s.FieldByIndexErr(field.Index)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot reach field %s of struct %s: %s", field.Name, info.Type.Name(), err)
		}
		if !val.CanSet() {
			return nil, nil, fmt.Errorf("internal error: cannot set field %s of struct %s", field.Name, info.Type.Name())
		}
		pt := reflect.PointerTo(val.Type())
		if val.Kind() != reflect.Pointer && !pt.Implements(scannerInterface) {
			scanVal := reflect.New(pt).Elem()
			targets = append(targets, scanVal.Addr().Interface())
			proxies = append(proxies, ScanProxy{original: val, scan: scanVal})
			continue
		}
		targets = append(targets, val.Addr().Interface())
	}
	return targets, proxies, nil
}
