// Package jsonenc implements the JSON backend: two reader implementations
// (gjson-backed DOM, jsonparser-backed streaming) and one sjson-backed
// writer, satisfying the spec's requirement of at least two independent
// JSON implementations behind the same serde.Decoder interface.
package jsonenc

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/nekoproto/nekogo/internal/serde"
)

// Options configures Writer's output formatting.
type Options struct {
	Indent         string // e.g. "  "; empty means compact output
	SingleLineArray bool // not consulted by Writer: Bytes indents arrays like objects
	NoneToNull     bool // unused on the write side, kept for symmetry with Reader options
}

// Writer implements serde.Encoder on top of tidwall/sjson's path-addressed
// SetBytes/SetRawBytes. sjson has no streaming "open object, write keys,
// close" API of its own, so Writer tracks the path to the currently open
// container and rewrites the growing buffer at that path on each call —
// acceptable since JSON-RPC payloads are small, bounded messages, not
// multi-gigabyte documents.
type Writer struct {
	buf  []byte
	path []string
	kind []byte // 'o' or 'a' per open frame, parallel to path's prefix lengths
	idx  []int
	opts Options
}

// NewWriter returns a Writer with default (compact) formatting.
func NewWriter(opts Options) *Writer {
	return &Writer{opts: opts}
}

// Bytes returns the serialized document built so far, pretty-printed per
// Options if requested. sjson itself only produces compact JSON, so the
// indent pass falls back to encoding/json.Indent, as spec.md's formatting
// knobs are a presentation concern layered on top of the wire bytes.
func (w *Writer) Bytes() ([]byte, error) {
	if w.opts.Indent == "" {
		return w.buf, nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, w.buf, "", w.opts.Indent); err != nil {
		return w.buf, nil //nolint:nilerr // best-effort pretty-print; raw bytes remain valid JSON
	}
	return out.Bytes(), nil
}

// currentSlotPath returns the dotted sjson path of the value about to be
// written, tracked by pushing a path component on StartArray (the element
// index) and Key (the field name) and popping it once the corresponding
// value is written.
func (w *Writer) currentSlotPath() string {
	return strings.Join(w.path, ".")
}

func (w *Writer) setRaw(raw []byte) error {
	path := w.currentSlotPath()
	var err error
	if path == "" {
		w.buf = append([]byte(nil), raw...)
	} else {
		w.buf, err = sjson.SetRawBytes(w.buf, path, raw)
	}
	if err != nil {
		return err
	}
	w.advanceParent()
	return nil
}

// advanceParent increments the innermost open array's element counter and
// pops the path component that was just filled in (object key or array
// index), once its value has been written.
func (w *Writer) advanceParent() {
	if len(w.path) == 0 {
		return
	}
	w.path = w.path[:len(w.path)-1]
	if len(w.kind) > 0 && w.kind[len(w.kind)-1] == 'a' {
		w.idx[len(w.idx)-1]++
		w.path = append(w.path, strconv.Itoa(w.idx[len(w.idx)-1]))
	}
}

func (w *Writer) openComposite(empty string) error {
	path := w.currentSlotPath()
	if path == "" {
		w.buf = []byte(empty)
		return nil
	}
	var err error
	w.buf, err = sjson.SetRawBytes(w.buf, path, []byte(empty))
	return err
}

func (w *Writer) StartObject(_ int) error {
	if err := w.openComposite("{}"); err != nil {
		return err
	}
	w.kind = append(w.kind, 'o')
	w.idx = append(w.idx, 0)
	return nil
}

func (w *Writer) EndObject() error {
	return w.closeComposite()
}

func (w *Writer) StartArray(_ int) error {
	if err := w.openComposite("[]"); err != nil {
		return err
	}
	w.kind = append(w.kind, 'a')
	w.idx = append(w.idx, 0)
	w.path = append(w.path, "0")
	return nil
}

func (w *Writer) EndArray() error {
	if len(w.path) > 0 && w.kind[len(w.kind)-1] == 'a' {
		w.path = w.path[:len(w.path)-1]
	}
	return w.closeComposite()
}

func (w *Writer) closeComposite() error {
	w.kind = w.kind[:len(w.kind)-1]
	w.idx = w.idx[:len(w.idx)-1]
	w.advanceParent()
	return nil
}

func (w *Writer) Key(name string) error {
	w.path = append(w.path, name)
	return nil
}

func (w *Writer) Int(v int64) error   { return w.setRaw([]byte(strconv.FormatInt(v, 10))) }
func (w *Writer) Uint(v uint64) error { return w.setRaw([]byte(strconv.FormatUint(v, 10))) }
func (w *Writer) Float(v float64) error {
	return w.setRaw([]byte(strconv.FormatFloat(v, 'g', -1, 64)))
}
func (w *Writer) Bool(v bool) error { return w.setRaw([]byte(strconv.FormatBool(v))) }
func (w *Writer) String(v string) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.setRaw(raw)
}
func (w *Writer) Bytes(v []byte) error {
	raw, err := json.Marshal(v) // base64-encodes via encoding/json's []byte handling
	if err != nil {
		return err
	}
	return w.setRaw(raw)
}
func (w *Writer) Null() error          { return w.setRaw([]byte("null")) }
func (w *Writer) Raw(data []byte) error { return w.setRaw(data) }

var _ serde.Encoder = (*Writer)(nil)
