package jsonenc

import (
	"encoding/base64"

	"github.com/buger/jsonparser"

	"github.com/nekoproto/nekogo/internal/rpcerr"
	"github.com/nekoproto/nekogo/internal/serde"
)

// StreamReader is a serde.Decoder built on buger/jsonparser's token-cursor
// API: it never materializes a parsed tree, at the cost of re-scanning the
// enclosing object/array on every StartObject/StartArray call (jsonparser
// has no persistent cursor of its own). It is the module's "large or
// one-pass payload" counterpart to DOMReader, and does not implement
// serde.NodeReader or serde.Checkpointer: a Variant field requires
// DOMReader.
type StreamReader struct {
	opts  ReaderOptions
	stack []*streamFrame
	root  []byte
}

type streamFrame struct {
	data    []byte
	isArray bool
	keys    []string
	vals    [][]byte
	types   []jsonparser.ValueType
	pos     int // array: index of the next unread element. object: index of the next key NextKey will hand out.
	curKey  int // object: index into vals/types the cursor is presently sitting on, set by NextKey.
}

// NewStreamReader wraps data for streaming decode.
func NewStreamReader(data []byte, opts ReaderOptions) *StreamReader {
	return &StreamReader{opts: opts, root: data}
}

// currentBytes resolves the value the cursor is presently sitting on: the
// root before any composite is opened, the element at an array frame's pos,
// or the value bound to an object frame's most recently returned NextKey.
func (r *StreamReader) currentBytes() ([]byte, jsonparser.ValueType) {
	if len(r.stack) == 0 {
		v, t, _, _ := jsonparser.Get(r.root)
		return v, t
	}
	f := r.stack[len(r.stack)-1]
	if f.isArray {
		return f.vals[f.pos], f.types[f.pos]
	}
	return f.vals[f.curKey], f.types[f.curKey]
}

// consume advances the cursor past whatever currentBytes just returned.
// Object frames are already advanced by NextKey itself; only array frames
// need an explicit step here, mirroring DOMReader's consume.
func (r *StreamReader) consume() {
	if len(r.stack) == 0 {
		return
	}
	if f := r.stack[len(r.stack)-1]; f.isArray {
		f.pos++
	}
}

func (r *StreamReader) StartObject() (int, error) {
	data := r.objectTarget()
	frame := &streamFrame{data: data}
	err := jsonparser.ObjectEach(data, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		frame.keys = append(frame.keys, string(key))
		frame.vals = append(frame.vals, value)
		frame.types = append(frame.types, typ)
		return nil
	})
	if err != nil {
		return 0, rpcerr.New(err, rpcerr.CategorySerde, rpcerr.CodeParseError, "jsonenc.StreamReader: invalid object", nil)
	}
	r.stack = append(r.stack, frame)
	return len(frame.keys), nil
}

func (r *StreamReader) EndObject() error {
	r.stack = r.stack[:len(r.stack)-1]
	r.consume()
	return nil
}

func (r *StreamReader) StartArray() (int, error) {
	data := r.objectTarget()
	frame := &streamFrame{isArray: true, data: data}
	idx := 0
	_, err := jsonparser.ArrayEach(data, func(value []byte, typ jsonparser.ValueType, _ int, _ error) {
		frame.vals = append(frame.vals, value)
		frame.types = append(frame.types, typ)
		idx++
	})
	if err != nil {
		return 0, rpcerr.New(err, rpcerr.CategorySerde, rpcerr.CodeParseError, "jsonenc.StreamReader: invalid array", nil)
	}
	r.stack = append(r.stack, frame)
	return len(frame.vals), nil
}

func (r *StreamReader) EndArray() error {
	r.stack = r.stack[:len(r.stack)-1]
	r.consume()
	return nil
}

// objectTarget returns the raw bytes of the container about to be opened:
// the value at the current cursor position (or root, if nothing is open
// yet).
func (r *StreamReader) objectTarget() []byte {
	if len(r.stack) == 0 {
		return r.root
	}
	v, _ := r.currentBytes()
	return v
}

func (r *StreamReader) NextKey() (string, bool, error) {
	f := r.stack[len(r.stack)-1]
	if f.pos >= len(f.keys) {
		return "", false, nil
	}
	f.curKey = f.pos
	name := f.keys[f.pos]
	f.pos++
	return name, true, nil
}

func (r *StreamReader) Int() (int64, error) {
	v, _ := r.currentBytes()
	defer r.consume()
	return jsonparser.ParseInt(v)
}

func (r *StreamReader) Uint() (uint64, error) {
	defer r.consume()
	n, err := jsonparser.ParseInt(r.mustBytes())
	return uint64(n), err
}

func (r *StreamReader) Float() (float64, error) {
	v, _ := r.currentBytes()
	defer r.consume()
	return jsonparser.ParseFloat(v)
}

func (r *StreamReader) Bool() (bool, error) {
	v, _ := r.currentBytes()
	defer r.consume()
	return jsonparser.ParseBoolean(v)
}

func (r *StreamReader) String() (string, error) {
	v, _ := r.currentBytes()
	defer r.consume()
	s, err := jsonparser.ParseString(v)
	if err != nil {
		return "", err
	}
	if r.opts.NoneToNull && s == "None" {
		return "", nil
	}
	return s, nil
}

func (r *StreamReader) Bytes() ([]byte, error) {
	s, err := r.String()
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(s)
}

func (r *StreamReader) IsNull() (bool, error) {
	_, typ := r.currentBytes()
	if typ == jsonparser.Null {
		r.consume()
		return true, nil
	}
	if r.opts.NoneToNull {
		s, err := jsonparser.ParseString(r.mustBytes())
		if err == nil && s == "None" {
			r.consume()
			return true, nil
		}
	}
	return false, nil
}

// Skip discards the current slot. Object keys are already advanced by
// NextKey; only array elements need the explicit step.
func (r *StreamReader) Skip() error {
	r.consume()
	return nil
}

func (r *StreamReader) mustBytes() []byte {
	v, _ := r.currentBytes()
	return v
}

var _ serde.Decoder = (*StreamReader)(nil)
