package jsonenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamReaderObjectByKey(t *testing.T) {
	r := NewStreamReader([]byte(`{"a":1,"b":"x"}`), ReaderOptions{})

	n, err := r.StartObject()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	name, ok, err := r.NextKey()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", name)
	v, err := r.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	name, ok, err = r.NextKey()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", name)
	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	_, ok, err = r.NextKey()
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, r.EndObject())
}

// TestStreamReaderArrayAdvancesPastFirstElement guards against a cursor bug
// where every array element read the same (first) slot: each Int() call
// must consume its own element, not re-read index 0.
func TestStreamReaderArrayAdvancesPastFirstElement(t *testing.T) {
	r := NewStreamReader([]byte(`[1,2,3]`), ReaderOptions{})

	n, err := r.StartArray()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var got []int64
	for i := 0; i < n; i++ {
		v, err := r.Int()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int64{1, 2, 3}, got)
	require.NoError(t, r.EndArray())
}

// TestStreamReaderArrayOfObjects guards against EndObject failing to
// advance the enclosing array's cursor.
func TestStreamReaderArrayOfObjects(t *testing.T) {
	r := NewStreamReader([]byte(`[{"n":1},{"n":2}]`), ReaderOptions{})

	n, err := r.StartArray()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, want := range []int64{1, 2} {
		_, err := r.StartObject()
		require.NoError(t, err)
		_, ok, err := r.NextKey()
		require.NoError(t, err)
		require.True(t, ok)
		v, err := r.Int()
		require.NoError(t, err)
		assert.Equal(t, want, v)
		require.NoError(t, r.EndObject())
	}
	require.NoError(t, r.EndArray())
}

func TestStreamReaderSkipUnknownKey(t *testing.T) {
	r := NewStreamReader([]byte(`{"a":1,"b":2}`), ReaderOptions{})
	_, err := r.StartObject()
	require.NoError(t, err)

	name, ok, err := r.NextKey()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", name)
	require.NoError(t, r.Skip())

	name, ok, err = r.NextKey()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", name)
	v, err := r.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestStreamReaderIsNull(t *testing.T) {
	r := NewStreamReader([]byte(`null`), ReaderOptions{})
	isNull, err := r.IsNull()
	require.NoError(t, err)
	assert.True(t, isNull)
}

func TestStreamReaderBytesBase64(t *testing.T) {
	r := NewStreamReader([]byte(`"aGVsbG8="`), ReaderOptions{})
	b, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)
}
