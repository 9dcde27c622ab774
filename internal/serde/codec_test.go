package serde

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekoproto/nekogo/internal/serde/binenc"
	"github.com/nekoproto/nekogo/internal/serde/jsonenc"
)

type point struct {
	X int32 `neko:"x"`
	Y int32 `neko:"y"`
}

func jsonRoundTrip(t *testing.T, v interface{}, out interface{}) {
	t.Helper()
	w := jsonenc.NewWriter(jsonenc.Options{})
	require.NoError(t, Encode(context.Background(), w, v))
	raw, err := w.Bytes()
	require.NoError(t, err)

	r, err := jsonenc.NewDOMReader(raw, jsonenc.ReaderOptions{})
	require.NoError(t, err)
	require.NoError(t, Decode(context.Background(), r, out))
}

func TestStructRoundTripJSON(t *testing.T) {
	in := point{X: 1, Y: -2}
	var out point
	jsonRoundTrip(t, in, &out)
	assert.Equal(t, in, out)
}

// TestStructRoundTripBinary covers review comment #1: decodeStruct must
// have a positional branch, since binenc.Reader.NextKey always errors.
func TestStructRoundTripBinary(t *testing.T) {
	in := point{X: 7, Y: 99}
	w := binenc.NewWriter()
	require.NoError(t, Encode(context.Background(), w, in))

	var out point
	r := binenc.NewReader(w.Result())
	require.NoError(t, Decode(context.Background(), r, &out))
	assert.Equal(t, in, out)
}

type fixedRecord struct {
	A int32 `neko:"a,fixed"`
}

// TestFixedLengthWritesDeclaredWidth covers review comment #2: a `fixed`
// tagged int32 field must serialize at 4 bytes on the binary backend, not
// the canonical 8-byte int64 width.
func TestFixedLengthWritesDeclaredWidth(t *testing.T) {
	w := binenc.NewWriter()
	require.NoError(t, Encode(context.Background(), w, fixedRecord{A: 1}))

	raw := w.Result()
	// 4 bytes: StartObject's uint32 field count.
	require.Len(t, raw, 4+4)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x01}, raw[4:8])
}

func TestFixedLengthRoundTripsThroughBinary(t *testing.T) {
	in := fixedRecord{A: -5}
	w := binenc.NewWriter()
	require.NoError(t, Encode(context.Background(), w, in))

	var out fixedRecord
	r := binenc.NewReader(w.Result())
	require.NoError(t, Decode(context.Background(), r, &out))
	assert.Equal(t, in, out)
}

type weekday uint8

const (
	weekdayMon weekday = iota
	weekdayTue
)

func (d weekday) String() string {
	switch d {
	case weekdayMon:
		return "monday"
	case weekdayTue:
		return "tuesday"
	default:
		return "unknown"
	}
}

type shift struct {
	Day weekday `neko:"day"`
}

// TestEnumMnemonicRoundTrip covers review comment #3: a registered enum's
// mnemonic must decode back to the same ordinal, not silently zero out.
func TestEnumMnemonicRoundTrip(t *testing.T) {
	RegisterEnum(weekdayMon, weekdayTue)

	in := shift{Day: weekdayTue}
	var out shift
	jsonRoundTrip(t, in, &out)
	assert.Equal(t, in, out)
}

type unregisteredEnum uint8

const unregisteredValue unregisteredEnum = 1

func (unregisteredEnum) String() string { return "only-member" }

// TestEnumMnemonicUnregisteredErrors covers the other half of review
// comment #3: an unrecognized mnemonic must be a real decode error, never
// a silently zeroed value.
func TestEnumMnemonicUnregisteredErrors(t *testing.T) {
	type wrapper struct {
		V unregisteredEnum `neko:"v"`
	}
	in := wrapper{V: unregisteredValue}
	var out wrapper
	w := jsonenc.NewWriter(jsonenc.Options{})
	require.NoError(t, Encode(context.Background(), w, in))
	raw, err := w.Bytes()
	require.NoError(t, err)

	r, err := jsonenc.NewDOMReader(raw, jsonenc.ReaderOptions{})
	require.NoError(t, err)
	err = Decode(context.Background(), r, &out)
	assert.Error(t, err)
	assert.Equal(t, unregisteredEnum(0), out.V)
}

// TestStringKeyedMapRoundTrip covers the already-working half of review
// comment #4.
func TestStringKeyedMapRoundTrip(t *testing.T) {
	in := map[string]int{"a": 1, "b": 2}
	var out map[string]int
	jsonRoundTrip(t, in, &out)
	assert.Equal(t, in, out)
}

// TestNonStringKeyedMapRoundTripJSON covers review comment #4: a map keyed
// by a non-string type must round-trip as an array of {key, value} pairs
// instead of colliding every entry into one key or panicking on decode.
func TestNonStringKeyedMapRoundTripJSON(t *testing.T) {
	in := map[int]string{1: "one", 2: "two", 3: "three"}
	var out map[int]string
	jsonRoundTrip(t, in, &out)
	assert.Equal(t, in, out)
}

func TestNonStringKeyedMapRoundTripBinary(t *testing.T) {
	in := map[int32]int32{1: 10, 2: 20}
	w := binenc.NewWriter()
	require.NoError(t, Encode(context.Background(), w, in))

	var out map[int32]int32
	r := binenc.NewReader(w.Result())
	require.NoError(t, Decode(context.Background(), r, &out))
	assert.Equal(t, in, out)
}

func TestSliceAndOptionalRoundTrip(t *testing.T) {
	in := []Optional[int]{Some(1), None[int]()}
	var out []Optional[int]
	jsonRoundTrip(t, in, &out)
	assert.Equal(t, in, out)
}
