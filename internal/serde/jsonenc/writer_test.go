package jsonenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterScalarObject(t *testing.T) {
	w := NewWriter(Options{})
	require.NoError(t, w.StartObject(2))
	require.NoError(t, w.Key("a"))
	require.NoError(t, w.Int(1))
	require.NoError(t, w.Key("b"))
	require.NoError(t, w.String("x"))
	require.NoError(t, w.EndObject())

	raw, err := w.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":"x"}`, string(raw))
}

func TestWriterArray(t *testing.T) {
	w := NewWriter(Options{})
	require.NoError(t, w.StartArray(3))
	require.NoError(t, w.Int(1))
	require.NoError(t, w.Int(2))
	require.NoError(t, w.Int(3))
	require.NoError(t, w.EndArray())

	raw, err := w.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3]`, string(raw))
}

func TestWriterNestedObjectInArray(t *testing.T) {
	w := NewWriter(Options{})
	require.NoError(t, w.StartArray(2))
	require.NoError(t, w.StartObject(1))
	require.NoError(t, w.Key("n"))
	require.NoError(t, w.Int(1))
	require.NoError(t, w.EndObject())
	require.NoError(t, w.StartObject(1))
	require.NoError(t, w.Key("n"))
	require.NoError(t, w.Int(2))
	require.NoError(t, w.EndObject())
	require.NoError(t, w.EndArray())

	raw, err := w.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"n":1},{"n":2}]`, string(raw))
}

func TestWriterNull(t *testing.T) {
	w := NewWriter(Options{})
	require.NoError(t, w.Null())
	raw, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestWriterIndent(t *testing.T) {
	w := NewWriter(Options{Indent: "  "})
	require.NoError(t, w.StartObject(1))
	require.NoError(t, w.Key("a"))
	require.NoError(t, w.Int(1))
	require.NoError(t, w.EndObject())

	raw, err := w.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n")
}

func TestWriterRaw(t *testing.T) {
	w := NewWriter(Options{})
	require.NoError(t, w.StartObject(1))
	require.NoError(t, w.Key("a"))
	require.NoError(t, w.Raw([]byte(`{"nested":true}`)))
	require.NoError(t, w.EndObject())

	raw, err := w.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"nested":true}}`, string(raw))
}
