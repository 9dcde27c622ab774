// Package printenc implements the output-only, human-readable print
// backend of spec.md §4.6: one line per record, `{ name1 = value1, ... }`,
// recursing into nested records. Round-trip is explicitly unsupported —
// printenc has no Reader.
package printenc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nekoproto/nekogo/internal/serde"
)

// Writer implements serde.Encoder, building one flat line of text.
type Writer struct {
	b      strings.Builder
	frames []frame
}

type frame struct {
	isArray bool
	written int
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// String returns the formatted line built so far.
func (w *Writer) String() string { return w.b.String() }

// beforeArrayElement writes a separating comma if the currently open frame
// is an array and this isn't its first element. Object members get their
// separator from Key instead, since Key always precedes their value.
func (w *Writer) beforeArrayElement() {
	if len(w.frames) == 0 {
		return
	}
	f := &w.frames[len(w.frames)-1]
	if !f.isArray {
		return
	}
	if f.written > 0 {
		w.b.WriteString(", ")
	}
	f.written++
}

func (w *Writer) StartObject(_ int) error {
	w.beforeArrayElement()
	w.b.WriteString("{ ")
	w.frames = append(w.frames, frame{})
	return nil
}

func (w *Writer) EndObject() error {
	w.b.WriteString(" }")
	w.frames = w.frames[:len(w.frames)-1]
	return nil
}

func (w *Writer) StartArray(_ int) error {
	w.beforeArrayElement()
	w.b.WriteString("[ ")
	w.frames = append(w.frames, frame{isArray: true})
	return nil
}

func (w *Writer) EndArray() error {
	w.b.WriteString(" ]")
	w.frames = w.frames[:len(w.frames)-1]
	return nil
}

func (w *Writer) Key(name string) error {
	if len(w.frames) > 0 {
		f := &w.frames[len(w.frames)-1]
		if f.written > 0 {
			w.b.WriteString(", ")
		}
		f.written++
	}
	w.b.WriteString(name)
	w.b.WriteString(" = ")
	return nil
}

func (w *Writer) Int(v int64) error     { return w.scalar(strconv.FormatInt(v, 10)) }
func (w *Writer) Uint(v uint64) error   { return w.scalar(strconv.FormatUint(v, 10)) }
func (w *Writer) Float(v float64) error { return w.scalar(strconv.FormatFloat(v, 'g', -1, 64)) }
func (w *Writer) Bool(v bool) error     { return w.scalar(strconv.FormatBool(v)) }
func (w *Writer) String(v string) error { return w.scalar(strconv.Quote(v)) }
func (w *Writer) Bytes(v []byte) error  { return w.scalar(fmt.Sprintf("<%d bytes>", len(v))) }
func (w *Writer) Null() error           { return w.scalar("null") }
func (w *Writer) Raw(data []byte) error { return w.scalar(string(data)) }

func (w *Writer) scalar(s string) error {
	w.beforeArrayElement()
	w.b.WriteString(s)
	return nil
}

var _ serde.Encoder = (*Writer)(nil)
