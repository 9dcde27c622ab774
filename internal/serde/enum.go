package serde

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/nekoproto/nekogo/internal/rpcerr"
)

// stringer is satisfied by named integer types that implement
// fmt.Stringer, the idiomatic Go "enum" — generated by `go:generate
// stringer` in the style of the teacher's codebase conventions.
type stringer interface {
	String() string
}

// isEnumKind reports whether rv's type should use mnemonic-with-integer-
// fallback encoding: an integer-kind value whose type implements String().
// No struct tag selects this encoding.
func isEnumKind(rv reflect.Value) bool {
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return false
	}
	_, ok := rv.Interface().(stringer)
	return ok
}

func encodeEnum(enc Encoder, rv reflect.Value) error {
	if s, ok := rv.Interface().(stringer); ok {
		return enc.String(s.String())
	}
	return enc.Int(rv.Int())
}

// enumRegistry holds, per enum type, the String() mnemonic -> integer value
// table built by RegisterEnum.
var (
	enumRegistryMu sync.RWMutex
	enumRegistry   = map[reflect.Type]map[string]int64{}
)

// RegisterEnum records every declared value's String() mnemonic for T,
// letting decodeEnum resolve that enum's wire mnemonics back to their
// integer value. Bare reflection cannot invert a String() method on its
// own — there is no way to enumerate a named int type's declared constants
// at runtime — so any enum type that needs to round-trip through its
// mnemonic form (rather than always falling back to an integer) must
// register its values once, typically from an init() beside the type's
// `go:generate stringer` output.
func RegisterEnum[T stringer](values ...T) {
	byName := make(map[string]int64, len(values))
	for _, v := range values {
		byName[v.String()] = enumOrdinal(reflect.ValueOf(v))
	}
	var zero T
	enumRegistryMu.Lock()
	enumRegistry[reflect.TypeOf(zero)] = byName
	enumRegistryMu.Unlock()
}

func enumOrdinal(rv reflect.Value) int64 {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	default:
		return rv.Int()
	}
}

func lookupEnumMnemonic(t reflect.Type, name string) (int64, bool) {
	enumRegistryMu.RLock()
	defer enumRegistryMu.RUnlock()
	byName, ok := enumRegistry[t]
	if !ok {
		return 0, false
	}
	n, ok := byName[name]
	return n, ok
}

func setEnumOrdinal(rv reflect.Value, n int64) {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		rv.SetUint(uint64(n))
	default:
		rv.SetInt(n)
	}
}

// decodeEnum reads either a mnemonic string or a raw integer into rv. A
// string token is tried first: a base-10 integer string decodes straight
// through, otherwise it's looked up against rv's RegisterEnum table. An
// unregistered mnemonic is an error rather than a silent zero — a decoded
// enum that silently became its zero value would violate
// decode(encode(v)) == v for every enum whose String() isn't a number.
func decodeEnum(dec Decoder, rv reflect.Value) error {
	isNull, err := dec.IsNull()
	if err != nil {
		return err
	}
	if isNull {
		return nil
	}
	// Peek by attempting string first; backend Decoders report a decode
	// error if the underlying token isn't a string, so fall through to
	// integer decode on failure. Since Decoder has no peek primitive,
	// codecs relying on this must be used against backends (jsonenc) that
	// tolerate a failed String() call without advancing state.
	s, strErr := dec.String()
	if strErr == nil {
		if n, convErr := strconv.ParseInt(s, 10, 64); convErr == nil {
			setEnumOrdinal(rv, n)
			return nil
		}
		n, ok := lookupEnumMnemonic(rv.Type(), s)
		if !ok {
			return rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
				fmt.Sprintf("serde: %q is not a registered mnemonic of %s; call serde.RegisterEnum for this type", s, rv.Type()), nil)
		}
		setEnumOrdinal(rv, n)
		return nil
	}
	n, err := dec.Int()
	if err != nil {
		return err
	}
	setEnumOrdinal(rv, n)
	return nil
}
