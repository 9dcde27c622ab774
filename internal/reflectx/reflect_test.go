package reflectx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	Host string `neko:"host"`
	Port int    `neko:"port"`
}

type sample struct {
	inner  `neko:",flatten"`
	Name   string `neko:"name"`
	Secret string `neko:"-"`
	hidden string //nolint:unused
	Age    int
}

func TestDescribeFieldOrderAndNames(t *testing.T) {
	d := Describe[sample]()
	require.Len(t, d.Fields, 4)

	names := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		names = append(names, f.Tag.Name)
	}
	assert.Equal(t, []string{"host", "port", "name", "Age"}, names)
}

func TestDescribeSkipsDashTag(t *testing.T) {
	d := Describe[sample]()
	for _, f := range d.Fields {
		assert.NotEqual(t, "Secret", f.Tag.Name)
	}
}

func TestDescribeIsCached(t *testing.T) {
	d1 := Describe[sample]()
	d2 := Describe[sample]()
	assert.Same(t, d1, d2)
}

func TestParseTagGrammar(t *testing.T) {
	tag := ParseTag("id,fixed,raw", "Field")
	assert.Equal(t, "id", tag.Name)
	assert.True(t, tag.FixedLength)
	assert.True(t, tag.RawString)
	assert.False(t, tag.Flatten)
}

func TestParseTagDash(t *testing.T) {
	tag := ParseTag("-", "Field")
	assert.True(t, tag.Skip)
}

func TestParseTagEmptyUsesFieldName(t *testing.T) {
	tag := ParseTag("", "Field")
	assert.Equal(t, "Field", tag.Name)
}
