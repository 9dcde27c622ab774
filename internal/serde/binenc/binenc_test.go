package binenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekoproto/nekogo/internal/serde"
)

func TestScalarRoundTrip(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.Int(-7))
	require.NoError(t, w.Uint(9))
	require.NoError(t, w.Float(3.5))
	require.NoError(t, w.Bool(true))
	require.NoError(t, w.String("hi"))
	require.NoError(t, w.Bytes([]byte{1, 2, 3}))
	require.NoError(t, w.Null())

	r := NewReader(w.Result())
	i, err := r.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(-7), i)

	u, err := r.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(9), u)

	f, err := r.Float()
	require.NoError(t, err)
	assert.Equal(t, 3.5, f)

	b, err := r.Bool()
	require.NoError(t, err)
	assert.True(t, b)

	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	bs, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, bs)

	isNull, err := r.IsNull()
	require.NoError(t, err)
	assert.True(t, isNull)
}

func TestFixedWidthRoundTrip(t *testing.T) {
	for _, bits := range []int{8, 16, 32, 64} {
		w := NewWriter()
		require.NoError(t, w.FixedInt(-1, bits))
		r := NewReader(w.Result())
		v, err := r.FixedInt(bits)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), v, "bits=%d", bits)
	}
}

func TestFixedWidthTruncatesToDeclaredWidth(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.FixedUint(256, 8)) // overflows a byte, truncates like uint8(256)
	r := NewReader(w.Result())
	v, err := r.FixedUint(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestFixedFloat32Width(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.FixedFloat(1.5, 32))
	assert.Len(t, w.Result(), 4)

	r := NewReader(w.Result())
	v, err := r.FixedFloat(32)
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)
}

func TestObjectAndArrayFraming(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.StartObject(3))
	require.NoError(t, w.EndObject())
	require.NoError(t, w.StartArray(5))
	require.NoError(t, w.EndArray())

	r := NewReader(w.Result())
	n, err := r.StartObject()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, r.EndObject())

	n, err = r.StartArray()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, r.EndArray())
}

func TestNextKeyUnsupported(t *testing.T) {
	r := NewReader(nil)
	_, _, err := r.NextKey()
	assert.Error(t, err)
}

func TestSkipUnsupported(t *testing.T) {
	r := NewReader(nil)
	assert.Error(t, r.Skip())
}

func TestPositionalReportsTrue(t *testing.T) {
	assert.True(t, NewWriter().Positional())
	assert.True(t, NewReader(nil).Positional())
}

func TestRawUnsupported(t *testing.T) {
	assert.ErrorIs(t, NewWriter().Raw([]byte("x")), serde.ErrRawUnsupported)
}

func TestEncodeDecodeBytes(t *testing.T) {
	s := EncodeBytes([]byte("hello"))
	out, err := DecodeBytes(s)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), out)
}
