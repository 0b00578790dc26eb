// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
)

var cacheMutex sync.RWMutex
var cache = make(map[reflect.Type]*Info)

// GetTypeInfo returns the Info of the struct type t, or of the struct t points
// to, generating and caching as required.
func GetTypeInfo(t reflect.Type) (*Info, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot reflect nil type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	cacheMutex.RLock()
	info, found := cache[t]
	cacheMutex.RUnlock()
	if found {
		return info, nil
	}

	info, err := generate(t)
	if err != nil {
		return nil, err
	}

	cacheMutex.Lock()
	cache[t] = info
	cacheMutex.Unlock()

	return info, nil
}

// LookupMember finds the exported field called name on the struct type t or
// on the struct t points to.
func LookupMember(t reflect.Type, name string) (Field, bool) {
	info, err := GetTypeInfo(t)
	if err != nil {
		return Field{}, false
	}
	return info.Member(name)
}

// generate produces and returns reflection information for the input struct
// type.
func generate(typ reflect.Type) (*Info, error) {
	// Reflection information is only generated for structs.
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("can only reflect struct type, got %s", typ.Kind())
	}

	info := Info{
		Type:       typ,
		Members:    make(map[string]Field),
		TagToField: make(map[string]Field),
	}

	for _, field := range reflect.VisibleFields(typ) {
		if !field.IsExported() {
			continue
		}
		// VisibleFields also returns fields hidden by a shallower field of
		// the same name and fields that are ambiguous at the same depth.
		if sf, ok := typ.FieldByName(field.Name); !ok || !sameIndex(sf.Index, field.Index) {
			continue
		}
		f := Field{
			Type:  field.Type,
			Name:  field.Name,
			Index: field.Index,
		}
		if tag := field.Tag.Get("db"); tag != "" {
			// A bad tag does not hide the field from member lookup.
			name, err := parseTag(tag)
			switch {
			case err != nil:
				info.TagErr = fmt.Errorf("field %s of struct %s: %s", field.Name, typ.Name(), err)
			case info.TagToField[name].Name != "":
				info.TagErr = fmt.Errorf("tag %q appears more than once in struct %s", name, typ.Name())
			default:
				f.Tag = name
				info.TagToField[name] = f
			}
		}
		info.Members[field.Name] = f
	}

	return &info, nil
}

func sameIndex(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// This expression should be aligned with the characters the lexer accepts in
// identifiers.
var validColNameRx = regexp.MustCompile(`^([a-zA-Z_])+([a-zA-Z_0-9])*$`)

// parseTag parses the input tag string and returns its column name. The
// "omitempty" option is accepted so that structs can be shared with code that
// writes rows, but it has no effect on reading them.
func parseTag(tag string) (string, error) {
	options := strings.Split(tag, ",")

	// Refuse to parse if there are more than 2 items.
	if len(options) > 2 {
		return "", fmt.Errorf("too many options in 'db' tag")
	}
	if len(options) == 2 && strings.ToLower(options[1]) != "omitempty" {
		return "", fmt.Errorf("unexpected tag value %q", options[1])
	}

	name := options[0]
	if len(name) == 0 {
		return "", fmt.Errorf("empty db tag")
	}

	if !validColNameRx.MatchString(name) {
		return "", fmt.Errorf("invalid column name in 'db' tag")
	}

	return name, nil
}
