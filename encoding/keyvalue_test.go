package encoding

import (
	"testing"

	"github.com/badgerrow/rowindex/rowdata"
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

func populatedRow(t *testing.T, info *schema.RowInfo) *rowdata.Row {
	t.Helper()
	r := rowdata.New(info)
	r.Set("id", int64(7))
	r.Set("name", "Ada")
	r.Set("age", int64(36))
	r.Set("city", "London")
	return r
}

func TestEncodeDecodePrimaryKeyRoundTrip(t *testing.T) {
	info := personInfo(t)
	row := populatedRow(t, info)
	key, err := EncodePrimaryKey(info, row)
	require.NoError(t, err)

	out := rowdata.New(info)
	require.NoError(t, DecodePrimaryKey(info, info, out, key))
	assert.Equal(t, int64(7), out.Get("id"))
}

func TestEncodeDecodeValueRoundTrip(t *testing.T) {
	info := personInfo(t)
	row := populatedRow(t, info)
	reg := NewMemoryRegistry()
	version, err := reg.VersionFor("Person", info)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), version)

	val, err := EncodeValue(info, version, row)
	require.NoError(t, err)

	out := rowdata.New(info)
	require.NoError(t, DecodeValue(reg, "Person", info, out, val))
	assert.Equal(t, "Ada", out.Get("name"))
	assert.Equal(t, int64(36), out.Get("age"))
	assert.Equal(t, "London", out.Get("city"))
}

func TestDecodeValueEmptyBytesIsVersionZero(t *testing.T) {
	info := personInfo(t)
	out := rowdata.New(info)
	reg := NewMemoryRegistry()
	require.NoError(t, DecodeValue(reg, "Person", info, out, nil))
	assert.Nil(t, out.Get("age"), "nullable column defaults to nil")
	assert.Equal(t, "", out.Get("name"))
}

func TestDecodeValueUnknownVersionIsConcurrentSchemaChange(t *testing.T) {
	info := personInfo(t)
	reg := NewMemoryRegistry()
	out := rowdata.New(info)
	buf := []byte{5} // version 5, never registered
	err := DecodeValue(reg, "Person", info, out, buf)
	require.Error(t, err)
}

func TestDecodeValueSchemaEvolutionAddsNullableColumn(t *testing.T) {
	info := personInfo(t)
	row := populatedRow(t, info)
	reg := NewMemoryRegistry()
	v1, err := reg.VersionFor("Person", info)
	require.NoError(t, err)
	val, err := EncodeValue(info, v1, row)
	require.NoError(t, err)

	evolved, err := schema.Find(schema.RowTypeSpec{
		Name: "Person",
		Columns: []schema.ColumnSpec{
			{Name: "id", Kind: schema.KindInt, BitSize: 64},
			{Name: "name", Kind: schema.KindString},
			{Name: "age", Kind: schema.KindInt, BitSize: 32, Nullable: true, Boxed: true},
			{Name: "city", Kind: schema.KindString},
			{Name: "country", Kind: schema.KindString, Nullable: true, Boxed: true},
		},
		PrimaryKey: []schema.IndexColumnSpec{{Name: "id"}},
	})
	require.NoError(t, err)

	out := rowdata.New(evolved)
	require.NoError(t, DecodeValue(reg, "Person", evolved, out, val))
	assert.Equal(t, "Ada", out.Get("name"))
	assert.Equal(t, int64(36), out.Get("age"))
	assert.Equal(t, "London", out.Get("city"))
	assert.Nil(t, out.Get("country"))
}

func TestUpdatePrimaryKeyAllDirtyReencodes(t *testing.T) {
	info := personInfo(t)
	row := populatedRow(t, info)
	original, err := EncodePrimaryKey(info, row)
	require.NoError(t, err)

	row2 := populatedRow(t, info)
	row2.Set("id", int64(8))
	key, err := UpdatePrimaryKey(info, row2, original)
	require.NoError(t, err)

	out := rowdata.New(info)
	require.NoError(t, DecodePrimaryKey(info, info, out, key))
	assert.Equal(t, int64(8), out.Get("id"))
}

func TestVersionPrefixBoundary(t *testing.T) {
	buf := make([]byte, 4)
	n := putVersionPrefix(buf, 0, 127)
	assert.Equal(t, 1, n)
	v, off, err := getVersionPrefix(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(127), v)
	assert.Equal(t, 1, off)

	n = putVersionPrefix(buf, 0, 128)
	assert.Equal(t, 4, n)
	v, off, err = getVersionPrefix(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(128), v)
	assert.Equal(t, 4, off)
}
