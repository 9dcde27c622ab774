// Package reflectenc implements the in-memory reflection backend of
// spec.md §4.7: instead of serializing to bytes, a traversal populates a
// name -> (reflect.Type, reflect.Value) table that callers can query or
// mutate directly, and into which loosely-typed data (e.g. decoded RPC
// params) can be bound via mitchellh/mapstructure.
package reflectenc

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/nekoproto/nekogo/internal/reflectx"
	"github.com/nekoproto/nekogo/internal/rpcerr"
)

// Table is the traversal result: every field of a reflected record, keyed
// by its wire name, addressable for direct get/set.
type Table struct {
	entries map[string]entry
	order   []string
}

type entry struct {
	typ reflect.Type
	val reflect.Value
}

// Build traverses v (a pointer to a struct) and returns a Table over its
// top-level fields. Nested records are not flattened automatically; callers
// needing deeper access call Build again on a nested field's value.
func Build(v interface{}) (*Table, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
			"reflectenc.Build requires a non-nil pointer to a struct", nil)
	}
	elem := rv.Elem()
	desc := reflectx.DescribeType(elem.Type())
	t := &Table{entries: make(map[string]entry, len(desc.Fields))}
	for _, f := range desc.Fields {
		fv := elem.FieldByIndex(f.Index)
		t.entries[f.Tag.Name] = entry{typ: fv.Type(), val: fv}
		t.order = append(t.order, f.Tag.Name)
	}
	return t, nil
}

// Names returns field names in declaration order.
func (t *Table) Names() []string { return append([]string(nil), t.order...) }

// GetField reads the named field's value into a T, returning an error if
// the field is missing or its runtime type isn't assignable to T.
func GetField[T any](t *Table, name string) (T, error) {
	var zero T
	e, ok := t.entries[name]
	if !ok {
		return zero, rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
			fmt.Sprintf("reflectenc: no field %q in table", name), nil)
	}
	want := reflect.TypeOf(zero)
	if want != nil && !e.typ.AssignableTo(want) {
		return zero, rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
			fmt.Sprintf("reflectenc: field %q is %s, not assignable to %s", name, e.typ, want), nil)
	}
	out, _ := e.val.Interface().(T)
	return out, nil
}

// SetField writes value into the named field, converting when the types
// are convertible but not identical (e.g. int32 into an int64 field).
func SetField[T any](t *Table, name string, value T) error {
	e, ok := t.entries[name]
	if !ok {
		return rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
			fmt.Sprintf("reflectenc: no field %q in table", name), nil)
	}
	if !e.val.CanSet() {
		return rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
			fmt.Sprintf("reflectenc: field %q is not addressable", name), nil)
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(e.typ) {
		e.val.Set(rv)
		return nil
	}
	if rv.Type().ConvertibleTo(e.typ) {
		e.val.Set(rv.Convert(e.typ))
		return nil
	}
	return rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
		fmt.Sprintf("reflectenc: cannot assign %s to field %q of type %s", rv.Type(), name, e.typ), nil)
}

// BindField binds a loosely-typed source (typically map[string]interface{})
// onto the named field via mitchellh/mapstructure, for cases like decoding
// an object-shaped RPC parameter into a single struct-valued field.
func BindField(t *Table, name string, src interface{}) error {
	e, ok := t.entries[name]
	if !ok {
		return rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
			fmt.Sprintf("reflectenc: no field %q in table", name), nil)
	}
	if !e.val.CanAddr() {
		return rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
			fmt.Sprintf("reflectenc: field %q is not addressable", name), nil)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           e.val.Addr().Interface(),
		WeaklyTypedInput: true,
		TagName:          "neko",
	})
	if err != nil {
		return err
	}
	return dec.Decode(src)
}
