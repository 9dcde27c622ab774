package reflectx

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Bind decodes a loosely-typed value (typically map[string]interface{}
// produced by a JSON backend's object decode, or RPC params) onto target,
// which must be a non-nil pointer. Field matching follows each field's Tag
// name rather than the mapstructure default of the raw Go field name, so the
// same `neko` tags govern both wire layout and this loose-binding path.
func Bind(src interface{}, target interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "neko",
		ZeroFields:       false,
	})
	if err != nil {
		return err
	}
	return dec.Decode(src)
}

// Set assigns value into the field at f on structVal, which must be
// addressable (i.e. obtained via reflect.ValueOf(ptr).Elem()).
func Set(f Field, structVal reflect.Value, value reflect.Value) {
	fv := structVal.FieldByIndex(f.Index)
	if value.Type().AssignableTo(fv.Type()) {
		fv.Set(value)
		return
	}
	if value.Type().ConvertibleTo(fv.Type()) {
		fv.Set(value.Convert(fv.Type()))
	}
}
