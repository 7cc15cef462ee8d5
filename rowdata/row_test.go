package rowdata

import (
	"testing"

	"github.com/badgerrow/rowindex/rowstate"
	"github.com/badgerrow/rowindex/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personInfo(t *testing.T) *schema.RowInfo {
	t.Helper()
	info, err := schema.Find(schema.RowTypeSpec{
		Name: "Person",
		Columns: []schema.ColumnSpec{
			{Name: "id", Kind: schema.KindInt, BitSize: 64},
			{Name: "name", Kind: schema.KindString},
			{Name: "age", Kind: schema.KindInt, BitSize: 32, Nullable: true, Boxed: true},
			{Name: "city", Kind: schema.KindString},
		},
		PrimaryKey: []schema.IndexColumnSpec{{Name: "id"}},
	})
	require.NoError(t, err)
	return info
}

func TestRowSetMarksDirty(t *testing.T) {
	r := New(personInfo(t))
	r.Set("id", int64(7))
	assert.Equal(t, rowstate.Dirty, r.StateOf("id"))
	assert.Equal(t, int64(7), r.Get("id"))
}

func TestRowRequireAllSet(t *testing.T) {
	r := New(personInfo(t))
	err := r.RequireAllSet([]string{"id", "name", "city"})
	require.Error(t, err)
	r.Set("id", int64(1))
	r.Set("name", "Ada")
	r.Set("city", "London")
	require.NoError(t, r.RequireAllSet([]string{"id", "name", "city"}))
}

func TestRowMarkAllCleanAndValuesUnset(t *testing.T) {
	r := New(personInfo(t))
	r.Set("id", int64(1))
	r.Set("name", "Ada")
	r.MarkAllClean()
	for _, n := range []string{"id", "name", "age", "city"} {
		assert.Equal(t, rowstate.Clean, r.StateOf(n))
	}
	r.MarkValuesUnset()
	assert.Equal(t, rowstate.Clean, r.StateOf("id"))
	assert.Equal(t, rowstate.Unset, r.StateOf("name"))
	assert.Equal(t, rowstate.Unset, r.StateOf("age"))
	assert.Equal(t, rowstate.Unset, r.StateOf("city"))
}

func TestRowCloneAndRestoreFrom(t *testing.T) {
	r := New(personInfo(t))
	r.Set("id", int64(1))
	r.Set("name", "Ada")
	snap := r.Clone()

	r.Set("name", "Grace")
	assert.Equal(t, "Grace", r.Get("name"))

	r.RestoreFrom(snap)
	assert.Equal(t, "Ada", r.Get("name"))
}

func TestRowReset(t *testing.T) {
	r := New(personInfo(t))
	r.Set("id", int64(1))
	r.Reset()
	assert.Nil(t, r.Get("id"))
	assert.Equal(t, rowstate.Unset, r.StateOf("id"))
}
