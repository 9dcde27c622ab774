package printenc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekoproto/nekogo/internal/serde"
)

func TestScalarFormatting(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.Int(-3))
	assert.Equal(t, "-3", w.String())
}

func TestStringIsQuoted(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.String("hi"))
	assert.Equal(t, `"hi"`, w.String())
}

func TestObjectFormatting(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.StartObject(2))
	require.NoError(t, w.Key("a"))
	require.NoError(t, w.Int(1))
	require.NoError(t, w.Key("b"))
	require.NoError(t, w.Int(2))
	require.NoError(t, w.EndObject())
	assert.Equal(t, "{ a = 1, b = 2 }", w.String())
}

func TestArrayFormatting(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.StartArray(3))
	require.NoError(t, w.Int(1))
	require.NoError(t, w.Int(2))
	require.NoError(t, w.Int(3))
	require.NoError(t, w.EndArray())
	assert.Equal(t, "[ 1, 2, 3 ]", w.String())
}

type record struct {
	Name string `neko:"name"`
	N    int    `neko:"n"`
}

func TestStructFormattingThroughCodec(t *testing.T) {
	w := NewWriter()
	require.NoError(t, serde.Encode(context.Background(), w, record{Name: "x", N: 4}))
	assert.Equal(t, `{ name = "x", n = 4 }`, w.String())
}

func TestBytesFormatting(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.Bytes([]byte{1, 2, 3}))
	assert.Equal(t, "<3 bytes>", w.String())
}
