package schema

import (
	"testing"

	"github.com/badgerrow/rowindex/rowerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personSpec() RowTypeSpec {
	return RowTypeSpec{
		Name: "Person",
		Columns: []ColumnSpec{
			{Name: "id", Kind: KindInt, BitSize: 64},
			{Name: "name", Kind: KindString},
			{Name: "age", Kind: KindInt, BitSize: 32, Nullable: true, Boxed: true},
			{Name: "city", Kind: KindString},
		},
		PrimaryKey: []IndexColumnSpec{{Name: "id"}},
		SecondaryIndexes: [][]IndexColumnSpec{
			{{Name: "city", Dir: Descending}, {Name: "name", Dir: Ascending}},
		},
	}
}

func TestFindBuildsRowInfo(t *testing.T) {
	info, err := Find(personSpec())
	require.NoError(t, err)
	assert.Equal(t, "Person", info.Name)
	assert.Equal(t, []IndexColumn{{Name: "id"}}, info.KeyColumns)
	assert.Equal(t, []string{"age", "city", "name"}, info.ValueColumns, "value columns sorted by name")
	require.Len(t, info.SecondaryIndexes, 1)
}

func TestFindAbsorbsPrimaryKeyIntoSecondaryKey(t *testing.T) {
	info, err := Find(personSpec())
	require.NoError(t, err)
	idx := info.SecondaryIndexes[0]
	names := idx.keyNames()
	assert.Equal(t, []string{"city", "name", "id"}, names, "missing PK column appended to the secondary key")
	assert.Empty(t, idx.ValueColumns, "plain secondary carries nothing in its value")
}

func TestFindAlternateKeyRecoversPKThroughValue(t *testing.T) {
	spec := personSpec()
	spec.AlternateKeys = [][]IndexColumnSpec{
		{{Name: "city"}, {Name: "name"}},
	}
	info, err := Find(spec)
	require.NoError(t, err)
	require.Len(t, info.AlternateKeys, 1)
	ak := info.AlternateKeys[0]
	assert.Equal(t, []string{"city", "name"}, ak.keyNames())
	assert.Equal(t, []string{"id"}, ak.ValueColumns)
}

func TestFindRejectsDuplicateColumn(t *testing.T) {
	spec := personSpec()
	spec.Columns = append(spec.Columns, ColumnSpec{Name: "id", Kind: KindInt, BitSize: 64})
	_, err := Find(spec)
	require.Error(t, err)
	var mrt *rowerrors.MalformedRowType
	require.ErrorAs(t, err, &mrt)
	assert.Contains(t, mrt.Defects[0], "duplicate column")
}

func TestFindRejectsUnknownPrimaryKeyColumn(t *testing.T) {
	spec := personSpec()
	spec.PrimaryKey = []IndexColumnSpec{{Name: "nope"}}
	_, err := Find(spec)
	require.Error(t, err)
	var mrt *rowerrors.MalformedRowType
	require.ErrorAs(t, err, &mrt)
	assert.Contains(t, mrt.Defects[0], "unknown column")
}

func TestFindRejectsAlternateKeyContainingFullPrimaryKey(t *testing.T) {
	spec := personSpec()
	spec.AlternateKeys = [][]IndexColumnSpec{{{Name: "id"}, {Name: "name"}}}
	_, err := Find(spec)
	require.Error(t, err)
	var mrt *rowerrors.MalformedRowType
	require.ErrorAs(t, err, &mrt)
	assert.Contains(t, mrt.Defects[0], "every primary-key column")
}

func TestFindRejectsNullablePrimitive(t *testing.T) {
	spec := RowTypeSpec{
		Name: "Bad",
		Columns: []ColumnSpec{
			{Name: "id", Kind: KindInt, BitSize: 64},
			{Name: "flag", Kind: KindBool, Nullable: true}, // not Boxed
		},
		PrimaryKey: []IndexColumnSpec{{Name: "id"}},
	}
	_, err := Find(spec)
	require.Error(t, err)
	var mrt *rowerrors.MalformedRowType
	require.ErrorAs(t, err, &mrt)
	assert.Contains(t, mrt.Defects[0], "nullable and a primitive value type")
}

func TestFindAllowsNullableBoxedPrimitive(t *testing.T) {
	spec := RowTypeSpec{
		Name: "OK",
		Columns: []ColumnSpec{
			{Name: "id", Kind: KindInt, BitSize: 64},
			{Name: "flag", Kind: KindBool, Nullable: true, Boxed: true},
		},
		PrimaryKey: []IndexColumnSpec{{Name: "id"}},
	}
	_, err := Find(spec)
	require.NoError(t, err)
}

func TestFindRejectsMultipleAutomaticColumns(t *testing.T) {
	spec := RowTypeSpec{
		Name: "Event",
		Columns: []ColumnSpec{
			{Name: "id", Kind: KindInt, BitSize: 64, Automatic: true, AutoMin: 1, AutoMax: 1000},
			{Name: "id2", Kind: KindInt, BitSize: 64, Automatic: true, AutoMin: 1, AutoMax: 1000},
			{Name: "what", Kind: KindString},
		},
		PrimaryKey: []IndexColumnSpec{{Name: "id"}, {Name: "id2"}},
	}
	_, err := Find(spec)
	require.Error(t, err)
	var mrt *rowerrors.MalformedRowType
	require.ErrorAs(t, err, &mrt)
	assert.Contains(t, mrt.Defects[0], "more than one automatic column")
}

func TestFindRejectsEmptyAutomaticRange(t *testing.T) {
	spec := RowTypeSpec{
		Name: "Event",
		Columns: []ColumnSpec{
			{Name: "id", Kind: KindInt, BitSize: 64, Automatic: true, AutoMin: 5, AutoMax: 5},
			{Name: "what", Kind: KindString},
		},
		PrimaryKey: []IndexColumnSpec{{Name: "id"}},
	}
	_, err := Find(spec)
	require.Error(t, err)
}

func TestFindRejectsAutomaticNotLastPrimaryKeyColumn(t *testing.T) {
	spec := RowTypeSpec{
		Name: "Event",
		Columns: []ColumnSpec{
			{Name: "id", Kind: KindInt, BitSize: 64, Automatic: true, AutoMin: 1, AutoMax: 1000},
			{Name: "seq", Kind: KindInt, BitSize: 64},
			{Name: "what", Kind: KindString},
		},
		PrimaryKey: []IndexColumnSpec{{Name: "id"}, {Name: "seq"}},
	}
	_, err := Find(spec)
	require.Error(t, err)
	var mrt *rowerrors.MalformedRowType
	require.ErrorAs(t, err, &mrt)
	assert.Contains(t, mrt.Defects[0], "last primary-key column")
}

func TestFindRemovesPrimaryKeyFromSecondarySet(t *testing.T) {
	spec := personSpec()
	spec.SecondaryIndexes = append(spec.SecondaryIndexes, []IndexColumnSpec{{Name: "id"}})
	info, err := Find(spec)
	require.NoError(t, err)
	for _, si := range info.SecondaryIndexes {
		assert.NotEqual(t, []string{"id"}, si.keyNames(), "a secondary index identical to the primary key is dropped")
	}
}

func TestFindDedupesEquivalentSecondaryIndexesPreferringMoreSpecific(t *testing.T) {
	spec := personSpec()
	// A second declaration of the same columns, fully unspecified direction.
	spec.SecondaryIndexes = append(spec.SecondaryIndexes, []IndexColumnSpec{
		{Name: "city", Unspecified: true}, {Name: "name", Unspecified: true},
	})
	info, err := Find(spec)
	require.NoError(t, err)
	require.Len(t, info.SecondaryIndexes, 1, "equal-up-to-direction candidates are deduplicated")
	kept := info.SecondaryIndexes[0]
	assert.Equal(t, Descending, kept.KeyColumns[0].Dir)
	assert.False(t, kept.KeyColumns[0].Unspecified, "the more-specified candidate is the one kept")
}
