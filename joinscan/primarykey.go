package joinscan

import (
	"github.com/badgerrow/rowindex/codec"
	"github.com/badgerrow/rowindex/encoding"
	"github.com/badgerrow/rowindex/schema"
)

// decodeColumnSetKey decodes a secondary/alternate entry's key half
// against the declared key columns of its reduced ColumnSet, returning
// each column's decoded Go value by name — the first half of
// toPrimaryKey (spec.md §4.8 step 1).
func decodeColumnSetKey(info *schema.RowInfo, keyColumns []schema.IndexColumn, src []byte) (map[string]any, error) {
	vals := make(map[string]any, len(keyColumns))
	offset := 0
	for _, ic := range keyColumns {
		col := info.AllColumns[ic.Name]
		c := encoding.ColumnKeyCodec(col, ic)
		v, newOffset, err := c.Decode(src, offset)
		if err != nil {
			return nil, err
		}
		offset = newOffset
		vals[ic.Name] = v
	}
	return vals, nil
}

// decodeColumnSetValue decodes an alternate key's value half: the
// primary-key columns reduceIndexColumns could not absorb into the
// key, in sorted-by-declaration order.
func decodeColumnSetValue(info *schema.RowInfo, valueColumns []string, src []byte) (map[string]any, error) {
	vals := make(map[string]any, len(valueColumns))
	var codecs []codec.Codec
	for i, name := range valueColumns {
		col := info.AllColumns[name]
		codecs = append(codecs, encoding.ColumnValueCodec(col, i == len(valueColumns)-1))
	}
	offset := 0
	for i, name := range valueColumns {
		v, newOffset, err := codecs[i].Decode(src, offset)
		if err != nil {
			return nil, err
		}
		offset = newOffset
		vals[name] = v
	}
	return vals, nil
}

// buildPrimaryKey assembles and encodes the primary key from the
// values recovered out of a secondary/alternate entry: a plain
// secondary's keyVals alone cover every primary-key column (absorbed
// there by reduceIndexColumns); an alternate key's valVals supply
// whichever primary-key columns its key did not already carry.
func buildPrimaryKey(info *schema.RowInfo, keyVals, valVals map[string]any) ([]byte, error) {
	codecs := encoding.KeyCodecs(info)
	values := make([]any, len(info.KeyColumns))
	for i, kc := range info.KeyColumns {
		if v, ok := keyVals[kc.Name]; ok {
			values[i] = v
			continue
		}
		values[i] = valVals[kc.Name]
	}
	size := 0
	for i, c := range codecs {
		size = c.EncodeSize(values[i], size)
	}
	dst := make([]byte, size)
	offset := 0
	for i, c := range codecs {
		var err error
		offset, err = c.Encode(values[i], dst, offset)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}
