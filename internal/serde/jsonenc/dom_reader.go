package jsonenc

import (
	"encoding/base64"

	"github.com/tidwall/gjson"

	"github.com/nekoproto/nekogo/internal/rpcerr"
	"github.com/nekoproto/nekogo/internal/serde"
)

// ReaderOptions configures both DOMReader and StreamReader.
type ReaderOptions struct {
	// NoneToNull treats the literal string "None" as JSON null on read,
	// the uniform legacy-compatibility behavior spec.md mandates (no
	// dual-backend toggle).
	NoneToNull bool
}

// DOMReader is a serde.Decoder over an in-memory gjson.Result tree, giving
// random-access navigation (serde.NodeReader, serde.Checkpointer) at the
// cost of materializing the whole document up front.
type DOMReader struct {
	opts ReaderOptions

	// stack holds the navigation path: each frame is either an object
	// (keys consumed in order) or an array (elements consumed by index).
	stack []*domFrame
	root  gjson.Result
}

type domFrame struct {
	value   gjson.Result
	isArray bool
	keys    []string // object: key order
	items   []gjson.Result
	pos     int // array: index of the next unread element. object: index of the next key NextKey will hand out.
	curKey  int // object: index into keys of the value current() should resolve to (set by NextKey).
}

// NewDOMReader parses data and returns a DOMReader positioned at its root.
func NewDOMReader(data []byte, opts ReaderOptions) (*DOMReader, error) {
	if !gjson.ValidBytes(data) {
		return nil, rpcerr.WithDetails(rpcerr.ErrInvalidParams, rpcerr.CategorySerde, rpcerr.CodeParseError, nil)
	}
	root := gjson.ParseBytes(data)
	return &DOMReader{opts: opts, root: root}, nil
}

// current resolves the value the cursor is presently sitting on: the root
// before any composite is opened, the element at an array frame's pos, or
// the value bound to an object frame's most recently returned NextKey.
func (r *DOMReader) current() gjson.Result {
	if len(r.stack) == 0 {
		return r.root
	}
	f := r.stack[len(r.stack)-1]
	if f.isArray {
		return f.items[f.pos]
	}
	return f.value.Get(f.keys[f.curKey])
}

// consume advances the cursor past whatever current() just returned.
// Object frames are advanced by NextKey itself (each key is handed out
// once); only array frames need an explicit step here since nothing else
// tracks "this element has been read" for them.
func (r *DOMReader) consume() {
	if len(r.stack) == 0 {
		return
	}
	if f := r.stack[len(r.stack)-1]; f.isArray {
		f.pos++
	}
}

func (r *DOMReader) StartObject() (int, error) {
	v := r.current()
	keys := make([]string, 0)
	v.ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	r.stack = append(r.stack, &domFrame{value: v, keys: keys})
	return len(keys), nil
}

func (r *DOMReader) EndObject() error {
	r.stack = r.stack[:len(r.stack)-1]
	r.consume()
	return nil
}

func (r *DOMReader) StartArray() (int, error) {
	v := r.current()
	items := v.Array()
	r.stack = append(r.stack, &domFrame{value: v, isArray: true, items: items})
	return len(items), nil
}

func (r *DOMReader) EndArray() error {
	r.stack = r.stack[:len(r.stack)-1]
	r.consume()
	return nil
}

func (r *DOMReader) NextKey() (string, bool, error) {
	if len(r.stack) == 0 {
		return "", false, rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError, "jsonenc.DOMReader.NextKey called outside an object", nil)
	}
	f := r.stack[len(r.stack)-1]
	if f.pos >= len(f.keys) {
		return "", false, nil
	}
	f.curKey = f.pos
	name := f.keys[f.pos]
	f.pos++
	return name, true, nil
}

func (r *DOMReader) Int() (int64, error) {
	v := r.current().Int()
	r.consume()
	return v, nil
}

func (r *DOMReader) Uint() (uint64, error) {
	v := r.current().Uint()
	r.consume()
	return v, nil
}

func (r *DOMReader) Float() (float64, error) {
	v := r.current().Float()
	r.consume()
	return v, nil
}

func (r *DOMReader) Bool() (bool, error) {
	v := r.current().Bool()
	r.consume()
	return v, nil
}

func (r *DOMReader) String() (string, error) {
	v := r.current()
	r.consume()
	if r.opts.NoneToNull && v.String() == "None" {
		return "", nil
	}
	return v.String(), nil
}

func (r *DOMReader) Bytes() ([]byte, error) {
	v := r.current().String()
	r.consume()
	return base64.StdEncoding.DecodeString(v)
}

// IsNull peeks the current value's type without advancing when it reports
// false, so the caller's subsequent real read is what consumes the slot;
// when it reports true the null itself is the whole value, so it consumes.
func (r *DOMReader) IsNull() (bool, error) {
	v := r.current()
	isNull := v.Type == gjson.Null || (r.opts.NoneToNull && v.String() == "None")
	if isNull {
		r.consume()
	}
	return isNull, nil
}

// Skip discards the current slot. Object keys are already advanced by
// NextKey; only array elements need the explicit step.
func (r *DOMReader) Skip() error {
	r.consume()
	return nil
}

// StartNode / FinishNode implement serde.NodeReader by reusing the
// object-frame machinery with a single synthetic key: the pushed frame holds
// the parent value, and current() on it always resolves to keys[0] (the
// named child) since isArray is false and curKey defaults to its zero
// value; that frame's keys/pos are never touched since NextKey is never
// called on it.
func (r *DOMReader) StartNode(name string) error {
	r.stack = append(r.stack, &domFrame{value: r.current(), keys: []string{name}})
	return nil
}

func (r *DOMReader) FinishNode() error {
	r.stack = r.stack[:len(r.stack)-1]
	r.consume()
	return nil
}

// domMark snapshots the stack depth and each frame's cursor position so
// Reset can rewind exactly, satisfying serde.Checkpointer.
type domMark struct {
	depth  int
	pos    []int
	curKey []int
}

func (r *DOMReader) Mark() (interface{}, error) {
	pos := make([]int, len(r.stack))
	curKey := make([]int, len(r.stack))
	for i, f := range r.stack {
		pos[i] = f.pos
		curKey[i] = f.curKey
	}
	return domMark{depth: len(r.stack), pos: pos, curKey: curKey}, nil
}

func (r *DOMReader) Reset(mark interface{}) error {
	m, ok := mark.(domMark)
	if !ok {
		return rpcerr.New(nil, rpcerr.CategorySerde, rpcerr.CodeInternalError, "jsonenc.DOMReader.Reset given a foreign mark", nil)
	}
	r.stack = r.stack[:m.depth]
	for i, f := range r.stack {
		f.pos = m.pos[i]
		f.curKey = m.curKey[i]
	}
	return nil
}

var _ serde.Decoder = (*DOMReader)(nil)
var _ serde.NodeReader = (*DOMReader)(nil)
var _ serde.Checkpointer = (*DOMReader)(nil)
