// Package binenc implements the compact binary backend: encoding/binary
// BigEndian framing with 32-bit element-count prefixes per composite,
// matching spec.md §4.5.
package binenc

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"io"

	"github.com/nekoproto/nekogo/internal/rpcerr"
	"github.com/nekoproto/nekogo/internal/serde"
)

// Writer implements serde.Encoder by appending BigEndian-framed bytes to an
// internal buffer.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Result returns the bytes written so far.
func (w *Writer) Result() []byte { return w.buf.Bytes() }

func (w *Writer) StartObject(size int) error { return binary.Write(&w.buf, binary.BigEndian, uint32(size)) }
func (w *Writer) EndObject() error           { return nil }
func (w *Writer) StartArray(size int) error  { return binary.Write(&w.buf, binary.BigEndian, uint32(size)) }
func (w *Writer) EndArray() error            { return nil }

// Key writes the field name as a length-prefixed UTF-8 string, since the
// binary backend has no separate key/value channel the way JSON does.
func (w *Writer) Key(name string) error { return w.String(name) }

func (w *Writer) Int(v int64) error   { return binary.Write(&w.buf, binary.BigEndian, v) }
func (w *Writer) Uint(v uint64) error { return binary.Write(&w.buf, binary.BigEndian, v) }
func (w *Writer) Float(v float64) error {
	return binary.Write(&w.buf, binary.BigEndian, v)
}

// Positional reports that binenc carries no key information in its
// composite framing: struct and map-pair fields are written and read back
// in a fixed declaration order instead.
func (w *Writer) Positional() bool { return true }

// FixedInt writes v at its declared Go width (8/16/32/64 bits) instead of
// the canonical 64-bit width Int always uses, per the `fixed` tag's
// "host-width primitive" rule (spec.md §4.5).
func (w *Writer) FixedInt(v int64, bits int) error {
	switch bits {
	case 8:
		return binary.Write(&w.buf, binary.BigEndian, int8(v))
	case 16:
		return binary.Write(&w.buf, binary.BigEndian, int16(v))
	case 32:
		return binary.Write(&w.buf, binary.BigEndian, int32(v))
	default:
		return binary.Write(&w.buf, binary.BigEndian, v)
	}
}

// FixedUint mirrors FixedInt for unsigned fields.
func (w *Writer) FixedUint(v uint64, bits int) error {
	switch bits {
	case 8:
		return binary.Write(&w.buf, binary.BigEndian, uint8(v))
	case 16:
		return binary.Write(&w.buf, binary.BigEndian, uint16(v))
	case 32:
		return binary.Write(&w.buf, binary.BigEndian, uint32(v))
	default:
		return binary.Write(&w.buf, binary.BigEndian, v)
	}
}

// FixedFloat mirrors FixedInt for float32-width fields; any other width
// falls back to the canonical float64 encoding.
func (w *Writer) FixedFloat(v float64, bits int) error {
	if bits == 32 {
		return binary.Write(&w.buf, binary.BigEndian, float32(v))
	}
	return binary.Write(&w.buf, binary.BigEndian, v)
}
func (w *Writer) Bool(v bool) error {
	var b byte
	if v {
		b = 1
	}
	return w.buf.WriteByte(b)
}

func (w *Writer) String(v string) error {
	if err := binary.Write(&w.buf, binary.BigEndian, uint32(len(v))); err != nil {
		return err
	}
	_, err := w.buf.WriteString(v)
	return err
}

// Bytes writes a length-prefixed raw byte run, the wire form
// EncodeBytes/DecodeBytes base64-wrap for embedding inside text backends.
func (w *Writer) Bytes(v []byte) error {
	if err := binary.Write(&w.buf, binary.BigEndian, uint32(len(v))); err != nil {
		return err
	}
	_, err := w.buf.Write(v)
	return err
}

func (w *Writer) Null() error { return w.buf.WriteByte(0) }

func (w *Writer) Raw(_ []byte) error { return serde.ErrRawUnsupported }

var (
	_ serde.Encoder           = (*Writer)(nil)
	_ serde.FixedWidthEncoder = (*Writer)(nil)
	_ serde.PositionalCodec   = (*Writer)(nil)
)

// EncodeBytes base64-encodes a raw byte run for embedding inside the JSON
// or Print backends, per spec.md §4.5.
func EncodeBytes(v []byte) string { return base64.StdEncoding.EncodeToString(v) }

// DecodeBytes reverses EncodeBytes.
func DecodeBytes(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

// Reader implements serde.Decoder over a fixed byte slice.
type Reader struct {
	r *bytes.Reader
}

// NewReader wraps data for sequential binary decode.
func NewReader(data []byte) *Reader { return &Reader{r: bytes.NewReader(data)} }

func (r *Reader) readU32() (uint32, error) {
	var v uint32
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

func (r *Reader) StartObject() (int, error) {
	n, err := r.readU32()
	return int(n), wrapEOF(err)
}
func (r *Reader) EndObject() error { return nil }

func (r *Reader) StartArray() (int, error) {
	n, err := r.readU32()
	return int(n), wrapEOF(err)
}
func (r *Reader) EndArray() error { return nil }

// NextKey is unsupported: binenc has no self-describing object shape.
// Positional() reports true, so the codec layer never calls this for
// structs or map pairs against a binenc.Reader; it exists only to satisfy
// serde.Decoder.
func (r *Reader) NextKey() (string, bool, error) {
	return "", false, rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
		"binenc.Reader does not support keyed object decode; use positional struct decode", nil)
}

// Positional reports that binenc carries no key information; see
// Writer.Positional.
func (r *Reader) Positional() bool { return true }

// FixedInt reads a value written by Writer.FixedInt at the same bits width.
func (r *Reader) FixedInt(bits int) (int64, error) {
	switch bits {
	case 8:
		var v int8
		err := binary.Read(r.r, binary.BigEndian, &v)
		return int64(v), wrapEOF(err)
	case 16:
		var v int16
		err := binary.Read(r.r, binary.BigEndian, &v)
		return int64(v), wrapEOF(err)
	case 32:
		var v int32
		err := binary.Read(r.r, binary.BigEndian, &v)
		return int64(v), wrapEOF(err)
	default:
		var v int64
		err := binary.Read(r.r, binary.BigEndian, &v)
		return v, wrapEOF(err)
	}
}

// FixedUint mirrors FixedInt for unsigned fields.
func (r *Reader) FixedUint(bits int) (uint64, error) {
	switch bits {
	case 8:
		var v uint8
		err := binary.Read(r.r, binary.BigEndian, &v)
		return uint64(v), wrapEOF(err)
	case 16:
		var v uint16
		err := binary.Read(r.r, binary.BigEndian, &v)
		return uint64(v), wrapEOF(err)
	case 32:
		var v uint32
		err := binary.Read(r.r, binary.BigEndian, &v)
		return uint64(v), wrapEOF(err)
	default:
		var v uint64
		err := binary.Read(r.r, binary.BigEndian, &v)
		return v, wrapEOF(err)
	}
}

// FixedFloat mirrors FixedInt for float32-width fields.
func (r *Reader) FixedFloat(bits int) (float64, error) {
	if bits == 32 {
		var v float32
		err := binary.Read(r.r, binary.BigEndian, &v)
		return float64(v), wrapEOF(err)
	}
	var v float64
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, wrapEOF(err)
}

func (r *Reader) Int() (int64, error) {
	var v int64
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, wrapEOF(err)
}

func (r *Reader) Uint() (uint64, error) {
	var v uint64
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, wrapEOF(err)
}

func (r *Reader) Float() (float64, error) {
	var v float64
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, wrapEOF(err)
}

func (r *Reader) Bool() (bool, error) {
	b, err := r.r.ReadByte()
	return b != 0, wrapEOF(err)
}

func (r *Reader) String() (string, error) {
	n, err := r.readU32()
	if err != nil {
		return "", wrapEOF(err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return "", wrapEOF(err)
	}
	return string(buf), nil
}

func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.readU32()
	if err != nil {
		return nil, wrapEOF(err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, wrapEOF(err)
	}
	return buf, nil
}

func (r *Reader) IsNull() (bool, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return false, wrapEOF(err)
	}
	if b == 0 {
		return true, nil
	}
	return false, r.r.UnreadByte()
}

func (r *Reader) Skip() error {
	return rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError,
		"binenc.Reader cannot skip a value without knowing its declared type", nil)
}

var (
	_ serde.Decoder           = (*Reader)(nil)
	_ serde.FixedWidthDecoder = (*Reader)(nil)
	_ serde.PositionalCodec   = (*Reader)(nil)
)

func wrapEOF(err error) error {
	if err == nil {
		return nil
	}
	return rpcerr.New(err, rpcerr.CategorySerde, rpcerr.CodeParseError, "binenc: unexpected end of buffer", nil)
}
