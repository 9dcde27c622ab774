// Package serde implements the serializer protocol and generic type codec
// dispatch: the reflective encode/decode engine that walks a value's fields
// (as described by internal/reflectx) against an Encoder or Decoder backend.
package serde

import "context"

// Encoder is the write-side serializer protocol: composite framing, scalar
// writes, and name-value-pair association. A non-nil error means "wrote
// nothing of the failed datum" — callers must not assume partial writes are
// recoverable.
type Encoder interface {
	StartObject(size int) error
	EndObject() error
	StartArray(size int) error
	EndArray() error

	// Key writes a field name inside an open object, preceding the value
	// write for that field. Backends with no native key/value pairing
	// (e.g. binenc) still write the name, so the codec skips Key on a
	// PositionalCodec backend.
	Key(name string) error

	Int(v int64) error
	Uint(v uint64) error
	Float(v float64) error
	Bool(v bool) error
	String(v string) error
	Bytes(v []byte) error
	Null() error

	// Raw copies pre-formatted backend-native data through verbatim,
	// supporting the `raw` tag. Backends that cannot support this return
	// ErrRawUnsupported.
	Raw(data []byte) error
}

// Decoder is the read-side serializer protocol, mirroring Encoder. A non-nil
// error leaves the cursor at the offending element; callers must not resume
// decoding past a reported failure.
type Decoder interface {
	StartObject() (size int, err error)
	EndObject() error
	StartArray() (size int, err error)
	EndArray() error

	// NextKey returns the next object key and advances the cursor onto
	// its value, or ok=false at the object's end.
	NextKey() (name string, ok bool, err error)

	Int() (int64, error)
	Uint() (uint64, error)
	Float() (float64, error)
	Bool() (bool, error)
	String() (string, error)
	Bytes() ([]byte, error)
	IsNull() (bool, error)

	// Skip discards the current value without decoding it, used for
	// unknown object keys.
	Skip() error
}

// PositionalCodec is implemented by backends whose composite framing
// carries no key information at all (binenc: "no self-description" per
// spec.md §4.5). The codec layer detects this via a type assertion and
// walks a record's fields in declaration order instead of by name, skipping
// Key/NextKey entirely — calling either on such a backend would either
// waste space (Writer.Key still happily encodes a string) or fail outright
// (Reader.NextKey always errors), so the codec must never rely on them once
// Positional reports true.
type PositionalCodec interface {
	Positional() bool
}

// FixedWidthEncoder is implemented by backends that can honor a field's
// `fixed` tag (reflectx.Tag.FixedLength): emit a numeric scalar at its
// declared Go width instead of the backend's default canonical width.
// Backends without it (JSON, Print, Reflection) ignore the tag and fall
// back to Int/Uint/Float's ordinary encoding — there is no narrower-width
// concept for a text or in-memory representation.
type FixedWidthEncoder interface {
	FixedInt(v int64, bits int) error
	FixedUint(v uint64, bits int) error
	FixedFloat(v float64, bits int) error
}

// FixedWidthDecoder mirrors FixedWidthEncoder for the read side. bits must
// match what the paired FixedWidthEncoder was given for the same field,
// since a `fixed`-tagged binary scalar carries no self-describing width.
type FixedWidthDecoder interface {
	FixedInt(bits int) (int64, error)
	FixedUint(bits int) (uint64, error)
	FixedFloat(bits int) (float64, error)
}

// NodeReader is satisfied by random-access Decoders (jsonenc.DOMReader) that
// can descend into and back out of a named child without consuming the
// parent cursor linearly. StartNode/FinishNode calls must balance one to
// one; jsonenc.DOMReader pushes a frame per StartNode and pops one per
// FinishNode, and does not detect unbalanced calls.
type NodeReader interface {
	StartNode(name string) error
	FinishNode() error
}

// Checkpointer is satisfied by Decoders that can snapshot and rewind their
// read cursor, required to implement Variant's try-each-alternative decode.
// jsonenc.DOMReader implements this trivially since its cursor is just a
// position in an immutable gjson.Result tree; jsonenc.StreamReader does not,
// and decoding a Variant field through it returns ErrVariantRequiresCheckpoint.
type Checkpointer interface {
	Mark() (interface{}, error)
	Reset(mark interface{}) error
}

// Context carries the ambient options (the depth limit, MaxDepth) a codec
// needs but that don't belong on every Encoder/Decoder method
// signature. It is not a context.Context; ctx below is the caller's
// cancellation/deadline context, threaded through for parity with the rest
// of the module's blocking operations, even though codec operations
// themselves never block.
type Context struct {
	MaxDepth int
	depth    int
}

// DefaultMaxDepth bounds recursive codec descent; spec.md's cyclic-graph
// note is resolved by this depth limit rather than cycle detection, since
// the data model is assumed tree-shaped.
const DefaultMaxDepth = 64

func newCodecContext() *Context {
	return &Context{MaxDepth: DefaultMaxDepth}
}

func (c *Context) enter() error {
	c.depth++
	if c.depth > c.MaxDepth {
		return ErrMaxDepthExceeded
	}
	return nil
}

func (c *Context) leave() {
	c.depth--
}

// Encode walks v (a struct, pointer, slice, map, or primitive per the type
// codec table) and writes it to enc.
func Encode(ctx context.Context, enc Encoder, v interface{}) error {
	_ = ctx
	return encodeValue(newCodecContext(), enc, reflectValueOf(v))
}

// Decode reads a value from dec into target, which must be a non-nil
// pointer.
func Decode(ctx context.Context, dec Decoder, target interface{}) error {
	_ = ctx
	return decodeValue(newCodecContext(), dec, reflectValueOf(target))
}
