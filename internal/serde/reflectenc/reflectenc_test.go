package reflectenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `neko:"name"`
	Count int32  `neko:"count"`
}

func TestBuildRequiresPointerToStruct(t *testing.T) {
	_, err := Build(record{})
	assert.Error(t, err)

	_, err = Build(nil)
	assert.Error(t, err)
}

func TestNamesInDeclarationOrder(t *testing.T) {
	tbl, err := Build(&record{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "count"}, tbl.Names())
}

func TestGetFieldAndSetField(t *testing.T) {
	r := &record{Name: "a", Count: 1}
	tbl, err := Build(r)
	require.NoError(t, err)

	name, err := GetField[string](tbl, "name")
	require.NoError(t, err)
	assert.Equal(t, "a", name)

	require.NoError(t, SetField(tbl, "name", "b"))
	assert.Equal(t, "b", r.Name)
}

func TestSetFieldConverts(t *testing.T) {
	r := &record{}
	tbl, err := Build(r)
	require.NoError(t, err)

	// int (not int32) is convertible to the field's declared type.
	require.NoError(t, SetField[int](tbl, "count", 7))
	assert.Equal(t, int32(7), r.Count)
}

func TestSetFieldRejectsIncompatibleType(t *testing.T) {
	r := &record{}
	tbl, err := Build(r)
	require.NoError(t, err)

	// record{} has no conversion to string (not numeric, not a byte/rune
	// slice, not the same underlying type), unlike e.g. int->string.
	err = SetField(tbl, "name", record{})
	assert.Error(t, err)
}

func TestGetFieldUnknownName(t *testing.T) {
	tbl, err := Build(&record{})
	require.NoError(t, err)

	_, err = GetField[string](tbl, "missing")
	assert.Error(t, err)
}

func TestBindFieldFromGenericMap(t *testing.T) {
	type wrapper struct {
		Inner record `neko:"inner"`
	}
	w := &wrapper{}
	tbl, err := Build(w)
	require.NoError(t, err)

	src := map[string]interface{}{"name": "bound", "count": 9}
	require.NoError(t, BindField(tbl, "inner", src))
	assert.Equal(t, "bound", w.Inner.Name)
	assert.Equal(t, int32(9), w.Inner.Count)
}

func TestBindFieldUnknownName(t *testing.T) {
	tbl, err := Build(&record{})
	require.NoError(t, err)
	assert.Error(t, BindField(tbl, "missing", map[string]interface{}{}))
}
