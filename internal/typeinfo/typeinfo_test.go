// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReflectSimpleConcurrent(t *testing.T) {
	type mystruct struct{}
	typ := reflect.TypeOf(mystruct{})
	wg := sync.WaitGroup{}

	// Set up some concurrent access.
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			_, _ = GetTypeInfo(typ)
			wg.Done()
		}()
	}

	info, err := GetTypeInfo(typ)
	assert.Nil(t, err)

	assert.Equal(t, reflect.Struct, info.Type.Kind())
	assert.Equal(t, "mystruct", info.Type.Name())

	wg.Wait()
}

func TestReflectStruct(t *testing.T) {
	type something struct {
		ID      int64  `db:"id"`
		Name    string `db:"name,omitempty"`
		NotInDB string
		hidden  int
	}

	info, err := GetTypeInfo(reflect.TypeOf(something{}))
	assert.Nil(t, err)

	assert.Equal(t, reflect.Struct, info.Type.Kind())
	assert.Equal(t, "something", info.Type.Name())

	assert.Len(t, info.TagToField, 2)

	id, ok := info.TagToField["id"]
	assert.True(t, ok)
	assert.Equal(t, "ID", id.Name)
	assert.Equal(t, []int{0}, id.Index)
	assert.Equal(t, "id", id.Tag)

	name, ok := info.TagToField["name"]
	assert.True(t, ok)
	assert.Equal(t, "Name", name.Name)
	// The omitempty option does not change the column name.
	assert.Equal(t, "name", name.Tag)

	assert.Len(t, info.Members, 3)
	notInDB, ok := info.Member("NotInDB")
	assert.True(t, ok)
	assert.Equal(t, reflect.TypeOf(""), notInDB.Type)
	assert.Equal(t, "", notInDB.Tag)

	_, ok = info.Member("hidden")
	assert.False(t, ok)
}

func TestReflectPointerType(t *testing.T) {
	type something struct {
		ID int64
	}

	info, err := GetTypeInfo(reflect.TypeOf(&something{}))
	assert.Nil(t, err)
	assert.Equal(t, reflect.TypeOf(something{}), info.Type)
}

func TestReflectEmbeddedMembers(t *testing.T) {
	type Person struct {
		Name string
		Age  int
	}
	type Named struct {
		Name string
	}
	type Student struct {
		Person
		*Named
		Grade int
		Age   int
	}

	info, err := GetTypeInfo(reflect.TypeOf(Student{}))
	assert.Nil(t, err)

	// The shallower Age hides Person.Age.
	age, ok := info.Member("Age")
	assert.True(t, ok)
	assert.Equal(t, []int{3}, age.Index)

	// Person.Name and Named.Name are ambiguous at the same depth.
	_, ok = info.Member("Name")
	assert.False(t, ok)

	person, ok := info.Member("Person")
	assert.True(t, ok)
	assert.Equal(t, reflect.TypeOf(Person{}), person.Type)

	grade, ok := LookupMember(reflect.TypeOf(&Student{}), "Grade")
	assert.True(t, ok)
	assert.Equal(t, []int{2}, grade.Index)
}

func TestReflectNonStructType(t *testing.T) {
	type M map[string]any
	for _, typ := range []reflect.Type{
		reflect.TypeOf(0),
		reflect.TypeOf(""),
		reflect.TypeOf(map[string]string{}),
		reflect.TypeOf(M{}),
	} {
		info, err := GetTypeInfo(typ)
		assert.ErrorContains(t, err, "can only reflect struct type")
		assert.Nil(t, info)
	}

	_, err := GetTypeInfo(nil)
	assert.EqualError(t, err, "cannot reflect nil type")

	_, ok := LookupMember(reflect.TypeOf(0), "Foo")
	assert.False(t, ok)
}

func TestReflectBadTagError(t *testing.T) {
	tests := []struct {
		tag string
		err string
	}{
		{tag: "id,bad-juju", err: `unexpected tag value "bad-juju"`},
		{tag: ",", err: `unexpected tag value ""`},
		{tag: ",omitempty", err: `empty db tag`},
		{tag: "id,omitempty,ddd", err: `too many options in 'db' tag`},
		{tag: "5id", err: `invalid column name in 'db' tag`},
		{tag: "+id", err: `invalid column name in 'db' tag`},
		{tag: "-id", err: `invalid column name in 'db' tag`},
		{tag: "id/col", err: `invalid column name in 'db' tag`},
		{tag: "id$$", err: `invalid column name in 'db' tag`},
		{tag: "id|2005", err: `invalid column name in 'db' tag`},
	}
	for _, test := range tests {
		// Create one-field structs with invalid tags.
		typ := reflect.StructOf([]reflect.StructField{{
			Name: "Field",
			Type: reflect.TypeOf(0),
			Tag:  reflect.StructTag(`db:"` + test.tag + `"`),
		}})
		info, err := GetTypeInfo(typ)
		assert.Nil(t, err)
		assert.ErrorContains(t, info.TagErr, test.err, "tag %q", test.tag)

		// The field stays visible to expressions.
		_, ok := info.Member("Field")
		assert.True(t, ok)

		_, _, err = info.ScanTargets(reflect.New(typ).Elem(), []string{"id"})
		assert.ErrorContains(t, err, test.err)
	}

	for _, tag := range []string{"id_", "id5", "_i_d_55", "id_2002", "IdENT99"} {
		typ := reflect.StructOf([]reflect.StructField{{
			Name: "Field",
			Type: reflect.TypeOf(0),
			Tag:  reflect.StructTag(`db:"` + tag + `"`),
		}})
		info, err := GetTypeInfo(typ)
		assert.Nil(t, err)
		assert.Nil(t, info.TagErr)
		f, ok := info.TagToField[tag]
		assert.True(t, ok)
		assert.Equal(t, "Field", f.Name)
	}
}

func TestReflectDuplicateTag(t *testing.T) {
	type dupe struct {
		A int `db:"id"`
		B int `db:"id"`
	}
	info, err := GetTypeInfo(reflect.TypeOf(dupe{}))
	assert.Nil(t, err)
	assert.EqualError(t, info.TagErr, `tag "id" appears more than once in struct dupe`)
}

func TestScanTargets(t *testing.T) {
	type row struct {
		ID    int     `db:"id"`
		Name  *string `db:"name"`
		Score float64 `db:"score"`
	}
	info, err := GetTypeInfo(reflect.TypeOf(row{}))
	assert.Nil(t, err)

	var r row
	v := reflect.ValueOf(&r).Elem()
	targets, proxies, err := info.ScanTargets(v, []string{"id", "name", "other", "score"})
	assert.Nil(t, err)
	assert.Len(t, targets, 4)
	// Pointer fields are scanned into directly, the others through a proxy.
	assert.Len(t, proxies, 2)
	assert.Equal(t, &r.Name, targets[1])

	// Simulate rows.Scan.
	id := 7
	*targets[0].(**int) = &id
	name := "Ashley"
	*targets[1].(**string) = &name
	*targets[3].(**float64) = nil
	r.Score = 3.5
	for _, p := range proxies {
		p.OnSuccess()
	}
	assert.Equal(t, 7, r.ID)
	assert.Equal(t, "Ashley", *r.Name)
	assert.Equal(t, 0.0, r.Score)

	_, _, err = info.ScanTargets(reflect.ValueOf(r), []string{"id"})
	assert.ErrorContains(t, err, "need addressable")
}
