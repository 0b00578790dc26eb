// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
)

// Field represents a single field from a struct type, possibly promoted from
// an embedded struct.
type Field struct {
	Type reflect.Type

	// Name is the name of the struct field.
	Name string

	// Index is the index sequence for reflect.Value.FieldByIndex.
	Index []int

	// Tag is the name from the "db" tag, if any.
	Tag string
}

// Info represents reflected information about a struct type.
type Info struct {
	Type reflect.Type

	// Relate member names to fields.
	Members map[string]Field

	// Relate tag names to fields.
	TagToField map[string]Field

	// TagErr is set when a "db" tag is malformed or duplicated.
	TagErr error
}

// Member returns the exported field called name. Promoted fields of embedded
// structs are included.
func (info *Info) Member(name string) (Field, bool) {
	f, ok := info.Members[name]
	return f, ok
}
