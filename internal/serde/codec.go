package serde

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/nekoproto/nekogo/internal/reflectx"
	"github.com/nekoproto/nekogo/internal/rpcerr"
)

var variantType = reflect.TypeOf(Variant{})

func encodeValue(cc *Context, enc Encoder, rv reflect.Value) error {
	if err := cc.enter(); err != nil {
		return err
	}
	defer cc.leave()

	if !rv.IsValid() {
		return enc.Null()
	}

	switch {
	case rv.Kind() == reflect.Ptr:
		if rv.IsNil() {
			return enc.Null()
		}
		return encodeValue(cc, enc, rv.Elem())

	case rv.Type() == variantType:
		return encodeVariant(cc, enc, rv.Interface().(Variant))

	case isOptionalType(rv.Type()):
		return encodeOptional(cc, enc, rv)

	case isEnumKind(rv):
		return encodeEnum(enc, rv)
	}

	switch rv.Kind() {
	case reflect.Bool:
		return enc.Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return enc.Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return enc.Uint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return enc.Float(rv.Float())
	case reflect.String:
		return enc.String(rv.String())

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return enc.Bytes(rv.Bytes())
		}
		return encodeSequence(cc, enc, rv)
	case reflect.Array:
		return encodeFixedArray(cc, enc, rv)
	case reflect.Map:
		return encodeMap(cc, enc, rv)
	case reflect.Struct:
		return encodeStruct(cc, enc, rv)
	case reflect.Interface:
		if rv.IsNil() {
			return enc.Null()
		}
		return encodeValue(cc, enc, rv.Elem())
	default:
		return enc.Null()
	}
}

// isPositional reports whether v (an Encoder or Decoder) has no native
// key/value association, per PositionalCodec.
func isPositional(v interface{}) bool {
	p, ok := v.(PositionalCodec)
	return ok && p.Positional()
}

// encodeFieldValue encodes one struct field's value, honoring its `fixed`
// tag against a FixedWidthEncoder backend before falling back to the
// ordinary type-codec dispatch.
func encodeFieldValue(cc *Context, enc Encoder, f reflectx.Field, fv reflect.Value) error {
	if f.Tag.FixedLength {
		if fw, ok := enc.(FixedWidthEncoder); ok {
			switch fv.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				return fw.FixedInt(fv.Int(), fv.Type().Bits())
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				return fw.FixedUint(fv.Uint(), fv.Type().Bits())
			case reflect.Float32, reflect.Float64:
				return fw.FixedFloat(fv.Float(), fv.Type().Bits())
			}
		}
	}
	return encodeValue(cc, enc, fv)
}

// decodeFieldValue mirrors encodeFieldValue for the read side.
func decodeFieldValue(cc *Context, dec Decoder, f reflectx.Field, fv reflect.Value) error {
	if f.Tag.FixedLength {
		if fw, ok := dec.(FixedWidthDecoder); ok {
			switch fv.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				v, err := fw.FixedInt(fv.Type().Bits())
				if err != nil {
					return err
				}
				fv.SetInt(v)
				return nil
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				v, err := fw.FixedUint(fv.Type().Bits())
				if err != nil {
					return err
				}
				fv.SetUint(v)
				return nil
			case reflect.Float32, reflect.Float64:
				v, err := fw.FixedFloat(fv.Type().Bits())
				if err != nil {
					return err
				}
				fv.SetFloat(v)
				return nil
			}
		}
	}
	return decodeValue(cc, dec, fv.Addr())
}

func encodeSequence(cc *Context, enc Encoder, rv reflect.Value) error {
	n := rv.Len()
	if err := enc.StartArray(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := encodeValue(cc, enc, rv.Index(i)); err != nil {
			return err
		}
	}
	return enc.EndArray()
}

func encodeFixedArray(cc *Context, enc Encoder, rv reflect.Value) error {
	return encodeSequence(cc, enc, rv)
}

// isStringKeyedMap reports whether t's key type is Go's string kind
// (including named string types), the only case spec.md's type table
// encodes as a keyed object; every other key kind uses the {key,value}
// pair-array form (encodeMapPairs/decodeMapPairs).
func isStringKeyedMap(t reflect.Type) bool {
	return t.Key().Kind() == reflect.String
}

func encodeMap(cc *Context, enc Encoder, rv reflect.Value) error {
	if isStringKeyedMap(rv.Type()) {
		return encodeMapStringKeyed(cc, enc, rv)
	}
	return encodeMapPairs(cc, enc, rv)
}

func encodeMapStringKeyed(cc *Context, enc Encoder, rv reflect.Value) error {
	keys := rv.MapKeys()
	if err := enc.StartObject(len(keys)); err != nil {
		return err
	}
	for _, k := range keys {
		if err := enc.Key(k.String()); err != nil {
			return err
		}
		if err := encodeValue(cc, enc, rv.MapIndex(k)); err != nil {
			return err
		}
	}
	return enc.EndObject()
}

// encodeMapPairs encodes a non-string-keyed map as an array of {key, value}
// objects, per spec.md §4.3's "associative with non-string key" row. On a
// PositionalCodec backend (binenc) the pair object's fields are written in
// declaration order with no Key call, matching how struct fields are
// handled there.
func encodeMapPairs(cc *Context, enc Encoder, rv reflect.Value) error {
	keys := rv.MapKeys()
	if err := enc.StartArray(len(keys)); err != nil {
		return err
	}
	positional := isPositional(enc)
	for _, k := range keys {
		if err := enc.StartObject(2); err != nil {
			return err
		}
		if !positional {
			if err := enc.Key("key"); err != nil {
				return err
			}
		}
		if err := encodeValue(cc, enc, k); err != nil {
			return err
		}
		if !positional {
			if err := enc.Key("value"); err != nil {
				return err
			}
		}
		if err := encodeValue(cc, enc, rv.MapIndex(k)); err != nil {
			return err
		}
		if err := enc.EndObject(); err != nil {
			return err
		}
	}
	return enc.EndArray()
}

func encodeStruct(cc *Context, enc Encoder, rv reflect.Value) error {
	desc := reflectx.DescribeType(rv.Type())
	if desc.NoName {
		return encodeArrayShaped(cc, enc, desc, rv)
	}
	if isPositional(enc) {
		return encodeStructPositional(cc, enc, desc, rv)
	}
	if err := enc.StartObject(len(desc.Fields)); err != nil {
		return err
	}
	for _, f := range desc.Fields {
		fv := f.Get(rv)
		if f.Tag.RawString {
			if raw, ok := fv.Interface().([]byte); ok {
				if err := enc.Key(f.Tag.Name); err != nil {
					return err
				}
				if err := enc.Raw(raw); err != nil {
					return err
				}
				continue
			}
		}
		if err := enc.Key(f.Tag.Name); err != nil {
			return err
		}
		if err := encodeFieldValue(cc, enc, f, fv); err != nil {
			return err
		}
	}
	return enc.EndObject()
}

// encodeStructPositional is encodeStruct's counterpart for backends with no
// key channel: fields are written in desc.Fields' declaration order and
// read back the same way, which is how binenc achieves spec.md §4.5's
// "no self-description" framing for records.
func encodeStructPositional(cc *Context, enc Encoder, desc *reflectx.Description, rv reflect.Value) error {
	if err := enc.StartObject(len(desc.Fields)); err != nil {
		return err
	}
	for _, f := range desc.Fields {
		if err := encodeFieldValue(cc, enc, f, f.Get(rv)); err != nil {
			return err
		}
	}
	return enc.EndObject()
}

func encodeArrayShaped(cc *Context, enc Encoder, desc *reflectx.Description, rv reflect.Value) error {
	if err := enc.StartArray(len(desc.Fields)); err != nil {
		return err
	}
	for _, f := range desc.Fields {
		if err := encodeFieldValue(cc, enc, f, f.Get(rv)); err != nil {
			return err
		}
	}
	return enc.EndArray()
}

func encodeOptional(cc *Context, enc Encoder, rv reflect.Value) error {
	valid := rv.FieldByName("Valid").Bool()
	if !valid {
		return enc.Null()
	}
	return encodeValue(cc, enc, rv.FieldByName("Value"))
}

func encodeVariant(cc *Context, enc Encoder, v Variant) error {
	if v.Value == nil {
		return enc.Null()
	}
	t := reflect.TypeOf(v.Value)
	for _, alt := range v.Alternatives {
		if alt == t {
			return encodeValue(cc, enc, reflect.ValueOf(v.Value))
		}
	}
	return ErrUnknownVariant
}

func isOptionalType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.PkgPath() == variantType.PkgPath() &&
		strings.HasPrefix(t.Name(), "Optional[")
}

// --- decode ---

func decodeValue(cc *Context, dec Decoder, rv reflect.Value) error {
	if err := cc.enter(); err != nil {
		return err
	}
	defer cc.leave()

	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ErrDecodeTargetNotPointer
	}
	elem := rv.Elem()

	switch {
	case elem.Type() == variantType:
		return decodeVariant(cc, dec, elem)
	case isOptionalType(elem.Type()):
		return decodeOptional(cc, dec, elem)
	case isEnumKind(elem):
		return decodeEnum(dec, elem)
	}

	switch elem.Kind() {
	case reflect.Ptr:
		isNull, err := dec.IsNull()
		if err != nil {
			return err
		}
		if isNull {
			elem.Set(reflect.Zero(elem.Type()))
			return nil
		}
		if elem.IsNil() {
			elem.Set(reflect.New(elem.Type().Elem()))
		}
		return decodeValue(cc, dec, elem)

	case reflect.Bool:
		v, err := dec.Bool()
		if err != nil {
			return err
		}
		elem.SetBool(v)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := dec.Int()
		if err != nil {
			return err
		}
		elem.SetInt(v)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := dec.Uint()
		if err != nil {
			return err
		}
		elem.SetUint(v)
		return nil

	case reflect.Float32, reflect.Float64:
		v, err := dec.Float()
		if err != nil {
			return err
		}
		elem.SetFloat(v)
		return nil

	case reflect.String:
		v, err := dec.String()
		if err != nil {
			return err
		}
		elem.SetString(v)
		return nil

	case reflect.Slice:
		if elem.Type().Elem().Kind() == reflect.Uint8 {
			v, err := dec.Bytes()
			if err != nil {
				return err
			}
			elem.SetBytes(v)
			return nil
		}
		return decodeSlice(cc, dec, elem)

	case reflect.Array:
		return decodeFixedArray(cc, dec, elem)

	case reflect.Map:
		return decodeMap(cc, dec, elem)

	case reflect.Struct:
		return decodeStruct(cc, dec, elem)

	default:
		return dec.Skip()
	}
}

func decodeSlice(cc *Context, dec Decoder, elem reflect.Value) error {
	n, err := dec.StartArray()
	if err != nil {
		return err
	}
	if n < 0 {
		return ErrUnknownArrayLength
	}
	out := reflect.MakeSlice(elem.Type(), n, n)
	for i := 0; i < n; i++ {
		if err := decodeValue(cc, dec, out.Index(i).Addr()); err != nil {
			return err
		}
	}
	elem.Set(out)
	return dec.EndArray()
}

func decodeFixedArray(cc *Context, dec Decoder, elem reflect.Value) error {
	n, err := dec.StartArray()
	if err != nil {
		return err
	}
	if n >= 0 && n != elem.Len() {
		return ErrSizeMismatch
	}
	for i := 0; i < elem.Len(); i++ {
		if err := decodeValue(cc, dec, elem.Index(i).Addr()); err != nil {
			return err
		}
	}
	return dec.EndArray()
}

func decodeMap(cc *Context, dec Decoder, elem reflect.Value) error {
	if elem.IsNil() {
		elem.Set(reflect.MakeMap(elem.Type()))
	}
	if isStringKeyedMap(elem.Type()) {
		return decodeMapStringKeyed(cc, dec, elem)
	}
	return decodeMapPairs(cc, dec, elem)
}

func decodeMapStringKeyed(cc *Context, dec Decoder, elem reflect.Value) error {
	if _, err := dec.StartObject(); err != nil {
		return err
	}
	keyType := elem.Type().Key()
	valType := elem.Type().Elem()
	for {
		name, ok, err := dec.NextKey()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		val := reflect.New(valType)
		if err := decodeValue(cc, dec, val); err != nil {
			return err
		}
		elem.SetMapIndex(reflect.ValueOf(name).Convert(keyType), val.Elem())
	}
	return dec.EndObject()
}

// decodeMapPairs reads an array of {key, value} objects back into elem, the
// reciprocal of encodeMapPairs. Each pair is decoded straight into the
// map's declared key/value types via decodeValue, so there is no
// string-to-arbitrary-type conversion involved (unlike a key-name lookup,
// which only makes sense for string keys).
func decodeMapPairs(cc *Context, dec Decoder, elem reflect.Value) error {
	n, err := dec.StartArray()
	if err != nil {
		return err
	}
	if n < 0 {
		return ErrUnknownArrayLength
	}
	keyType := elem.Type().Key()
	valType := elem.Type().Elem()
	positional := isPositional(dec)
	for i := 0; i < n; i++ {
		if _, err := dec.StartObject(); err != nil {
			return err
		}
		keyVal := reflect.New(keyType)
		val := reflect.New(valType)
		if positional {
			if err := decodeValue(cc, dec, keyVal); err != nil {
				return err
			}
			if err := decodeValue(cc, dec, val); err != nil {
				return err
			}
		} else {
			for {
				name, ok, err := dec.NextKey()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				switch name {
				case "key":
					if err := decodeValue(cc, dec, keyVal); err != nil {
						return err
					}
				case "value":
					if err := decodeValue(cc, dec, val); err != nil {
						return err
					}
				default:
					if err := dec.Skip(); err != nil {
						return err
					}
				}
			}
		}
		if err := dec.EndObject(); err != nil {
			return err
		}
		elem.SetMapIndex(keyVal.Elem(), val.Elem())
	}
	return dec.EndArray()
}

func decodeStruct(cc *Context, dec Decoder, elem reflect.Value) error {
	desc := reflectx.DescribeType(elem.Type())
	if desc.NoName {
		return decodeArrayShaped(cc, dec, desc, elem)
	}
	if isPositional(dec) {
		return decodeStructPositional(cc, dec, desc, elem)
	}
	if _, err := dec.StartObject(); err != nil {
		return err
	}
	byName := make(map[string]reflectx.Field, len(desc.Fields))
	for _, f := range desc.Fields {
		byName[f.Tag.Name] = f
	}
	seen := make(map[string]bool, len(desc.Fields))
	for {
		name, ok, err := dec.NextKey()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		f, known := byName[name]
		if !known {
			if err := dec.Skip(); err != nil {
				return err
			}
			continue
		}
		seen[name] = true
		fv := elem.FieldByIndex(f.Index)
		if err := decodeFieldValue(cc, dec, f, fv); err != nil {
			if f.Tag.Skippable {
				continue
			}
			return err
		}
	}
	for _, f := range desc.Fields {
		if !seen[f.Tag.Name] && !f.Tag.Skippable {
			return rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
				fmt.Sprintf("serde: missing required field %q", f.Tag.Name), nil)
		}
	}
	return dec.EndObject()
}

// decodeStructPositional is decodeStruct's counterpart for backends with no
// key channel (binenc): fields are read back in the same declaration order
// encodeStructPositional wrote them in, per spec.md §4.5.
func decodeStructPositional(cc *Context, dec Decoder, desc *reflectx.Description, elem reflect.Value) error {
	if _, err := dec.StartObject(); err != nil {
		return err
	}
	for _, f := range desc.Fields {
		fv := elem.FieldByIndex(f.Index)
		if err := decodeFieldValue(cc, dec, f, fv); err != nil {
			if f.Tag.Skippable {
				continue
			}
			return err
		}
	}
	return dec.EndObject()
}

func decodeArrayShaped(cc *Context, dec Decoder, desc *reflectx.Description, elem reflect.Value) error {
	n, err := dec.StartArray()
	if err != nil {
		return err
	}
	if n >= 0 && n != len(desc.Fields) {
		return ErrSizeMismatch
	}
	for _, f := range desc.Fields {
		if f.Tag.Skippable {
			return ErrArrayShapeNoOptional
		}
		fv := elem.FieldByIndex(f.Index)
		if err := decodeFieldValue(cc, dec, f, fv); err != nil {
			return err
		}
	}
	return dec.EndArray()
}

func decodeVariant(cc *Context, dec Decoder, elem reflect.Value) error {
	cp, ok := dec.(Checkpointer)
	if !ok {
		return ErrVariantRequiresCheckpoint
	}
	alts, _ := elem.FieldByName("Alternatives").Interface().([]reflect.Type)
	for _, alt := range alts {
		mark, err := cp.Mark()
		if err != nil {
			return err
		}
		candidate := reflect.New(alt)
		if err := decodeValue(cc, dec, candidate); err == nil {
			elem.FieldByName("Value").Set(reflect.ValueOf(candidate.Elem().Interface()))
			return nil
		}
		if err := cp.Reset(mark); err != nil {
			return err
		}
	}
	return ErrUnknownVariant
}

func decodeOptional(cc *Context, dec Decoder, elem reflect.Value) error {
	isNull, err := dec.IsNull()
	if err != nil {
		return err
	}
	if isNull {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}
	valField := elem.FieldByName("Value")
	if err := decodeValue(cc, dec, valField.Addr()); err != nil {
		return err
	}
	elem.FieldByName("Valid").SetBool(true)
	return nil
}
