// Package reflectx supplies the reflection-driven field enumeration that the
// original library generated at compile time through macros/templates. Since
// Go has no preprocessor, the declaration styles collapse to one mechanism:
// a `neko:"..."` struct tag, read through reflect.Type and cached per type so
// repeated encode/decode calls pay the reflection cost once per type, not
// once per value.
package reflectx

import (
	"reflect"
	"sync"
)

// Field describes one struct field participating in (de)serialization: its
// wire-facing Tag plus the information needed to reach the field's
// reflect.Value on a given struct instance.
type Field struct {
	Tag   Tag
	Index []int // reflect.Value.FieldByIndex path; >1 element for embedded fields
	Type  reflect.Type
}

// Get returns the field's value on the given struct value (addressable or
// not; use Addr variants for mutation).
func (f Field) Get(structVal reflect.Value) reflect.Value {
	return structVal.FieldByIndex(f.Index)
}

// Description is the cached, ordered field list for one struct type: the Go
// analogue of spec.md's Reflect<T> descriptor.
type Description struct {
	Type   reflect.Type
	Fields []Field
	// NoName is true when every field is tagged noname, meaning the type
	// serializes as an array rather than an object.
	NoName bool
}

var cache sync.Map // reflect.Type -> *Description

// Describe returns the cached field Description for T, building it on first
// use. T must be a struct type (or a pointer to one); panics otherwise, as
// this is a programming error, not a runtime condition callers should
// recover from.
func Describe[T any]() *Description {
	var zero T
	t := reflect.TypeOf(zero)
	return DescribeType(t)
}

// DescribeType is the non-generic form, usable when the concrete type is
// only known as a reflect.Type (e.g. while decoding into a registry-created
// interface value).
func DescribeType(t reflect.Type) *Description {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic("reflectx: Describe requires a struct type, got " + t.Kind().String())
	}
	if v, ok := cache.Load(t); ok {
		return v.(*Description)
	}
	d := buildDescription(t)
	actual, _ := cache.LoadOrStore(t, d)
	return actual.(*Description)
}

func buildDescription(t reflect.Type) *Description {
	d := &Description{Type: t}
	fields := collectFields(t, nil)
	allNoName := len(fields) > 0
	for _, f := range fields {
		if !f.Tag.NoName {
			allNoName = false
		}
	}
	d.Fields = fields
	d.NoName = allNoName
	return d
}

// collectFields walks t's fields in declaration order, recursing into
// anonymous (embedded) fields tagged flatten so their members appear inline
// at the parent's level, matching spec.md's "flatten" tag semantics.
func collectFields(t reflect.Type, prefix []int) []Field {
	var out []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue // unexported, non-embeddable
		}
		idx := append(append([]int{}, prefix...), i)
		tag := ParseTag(sf.Tag.Get("neko"), sf.Name)
		if tag.Skip {
			continue
		}
		ft := sf.Type
		if sf.Anonymous && tag.Flatten {
			et := ft
			for et.Kind() == reflect.Ptr {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				out = append(out, collectFields(et, idx)...)
				continue
			}
		}
		out = append(out, Field{Tag: tag, Index: idx, Type: ft})
	}
	return out
}
