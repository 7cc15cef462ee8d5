package encoding

import (
	"math/big"

	"github.com/badgerrow/rowindex/rowdata"
	"github.com/badgerrow/rowindex/rowerrors"
	"github.com/badgerrow/rowindex/schema"
)

// EncodePrimaryKey concatenates row's key columns through ri's key
// codecs, in declaration order. The caller must already have checked
// row.CheckSet(row.KeyColumnNames()).
func EncodePrimaryKey(ri *schema.RowInfo, row *rowdata.Row) ([]byte, error) {
	codecs := KeyCodecs(ri)
	size := 0
	for i, c := range codecs {
		size = c.EncodeSize(row.Get(ri.KeyColumns[i].Name), size)
	}
	buf := make([]byte, size)
	offset := 0
	for i, c := range codecs {
		var err error
		offset, err = c.Encode(row.Get(ri.KeyColumns[i].Name), buf, offset)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// DecodePrimaryKey runs sourceRI's key codecs against src in order,
// skipping (via DecodeSkip) any column sourceRI has that destRI does
// not; this is how a secondary's toPrimaryKey can decode bytes written
// under a different (but key-schema-compatible) RowInfo.
func DecodePrimaryKey(sourceRI, destRI *schema.RowInfo, row *rowdata.Row, src []byte) error {
	codecs := KeyCodecs(sourceRI)
	offset := 0
	for i, kc := range sourceRI.KeyColumns {
		c := codecs[i]
		if _, ok := destRI.AllColumns[kc.Name]; !ok {
			var err error
			offset, err = c.DecodeSkip(src, offset)
			if err != nil {
				return err
			}
			continue
		}
		v, newOffset, err := c.Decode(src, offset)
		if err != nil {
			return err
		}
		offset = newOffset
		row.SetClean(kc.Name, v)
	}
	return nil
}

// EncodeValue emits the schema-version prefix for version, followed by
// ri's value columns in order. version is obtained from the schema
// registry by the caller (registering ri on first use); calling this
// with version 0 would violate the "v>0 has a prefix" invariant and is
// never done by the write path.
func EncodeValue(ri *schema.RowInfo, version uint32, row *rowdata.Row) ([]byte, error) {
	codecs := ValueCodecs(ri)
	size := sizeVersionPrefix(version)
	for i, c := range codecs {
		size = c.EncodeSize(row.Get(ri.ValueColumns[i]), size)
	}
	buf := make([]byte, size)
	offset := putVersionPrefix(buf, 0, version)
	for i, c := range codecs {
		var err error
		offset, err = c.Encode(row.Get(ri.ValueColumns[i]), buf, offset)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// DecodeValue implements the schema-evolution read path (spec §4.9):
// an empty entry means version 0 (every destination value column gets
// its type default); otherwise the version prefix selects a source
// RowInfo from reg, whose columns are matched to destRI's by name,
// with columns on only one side defaulted (dest-only) or skipped
// (source-only). Every touched destination column, including
// defaulted ones, ends up CLEAN.
func DecodeValue(reg SchemaRegistry, rowTypeName string, destRI *schema.RowInfo, row *rowdata.Row, src []byte) error {
	if len(src) == 0 {
		for _, name := range destRI.ValueColumns {
			row.SetClean(name, typeDefault(destRI.AllColumns[name]))
		}
		return nil
	}

	version, offset, err := getVersionPrefix(src, 0)
	if err != nil {
		return err
	}
	sourceRI, ok := reg.Lookup(rowTypeName, version)
	if !ok {
		return rowerrors.NewConcurrentSchemaChange(rowTypeName, version)
	}

	sourceCodecs := ValueCodecs(sourceRI)
	seen := make(map[string]bool, len(sourceRI.ValueColumns))
	for i, name := range sourceRI.ValueColumns {
		c := sourceCodecs[i]
		destCol, inDest := destRI.AllColumns[name]
		if !inDest {
			offset, err = c.DecodeSkip(src, offset)
			if err != nil {
				return err
			}
			continue
		}
		_ = destCol
		var v any
		v, offset, err = c.Decode(src, offset)
		if err != nil {
			return err
		}
		row.SetClean(name, v)
		seen[name] = true
	}
	for _, name := range destRI.ValueColumns {
		if !seen[name] {
			row.SetClean(name, typeDefault(destRI.AllColumns[name]))
		}
	}
	return nil
}

func typeDefault(col *schema.Column) any {
	if col.Nullable {
		return nil
	}
	switch col.Kind {
	case schema.KindInt:
		return int64(0)
	case schema.KindFloat:
		return float64(0)
	case schema.KindBool:
		return false
	case schema.KindString:
		return ""
	case schema.KindBigInt:
		return big.NewInt(0)
	case schema.KindArray:
		return []any{}
	default:
		return nil
	}
}

// UpdatePrimaryKey implements update_primary_key (§4.4): if every key
// column is DIRTY the key is simply re-encoded; otherwise the dirty
// key columns are overlaid onto the original key bytes, copying spans
// of untouched columns verbatim, the same span-copy discipline the
// transform package uses for values.
func UpdatePrimaryKey(ri *schema.RowInfo, row *rowdata.Row, original []byte) ([]byte, error) {
	if row.CheckAllDirty(row.KeyColumnNames()) {
		return EncodePrimaryKey(ri, row)
	}

	codecs := KeyCodecs(ri)
	spanStarts := make([]int, len(codecs))
	origOffset := 0
	for i, c := range codecs {
		spanStarts[i] = origOffset
		var err error
		origOffset, err = c.DecodeSkip(original, origOffset)
		if err != nil {
			return nil, err
		}
	}
	origTotal := origOffset

	size := 0
	for i, c := range codecs {
		name := ri.KeyColumns[i].Name
		if row.CheckAllDirty([]string{name}) {
			size = c.EncodeSize(row.Get(name), size)
		} else {
			end := origTotal
			if i+1 < len(spanStarts) {
				end = spanStarts[i+1]
			}
			size += end - spanStarts[i]
		}
	}

	dst := make([]byte, size)
	offset := 0
	spanStart := -1
	flush := func(origEnd int) {
		if spanStart < 0 {
			return
		}
		offset += copy(dst[offset:], original[spanStart:origEnd])
		spanStart = -1
	}
	for i, c := range codecs {
		name := ri.KeyColumns[i].Name
		if row.CheckAllDirty([]string{name}) {
			flush(spanStarts[i])
			var err error
			offset, err = c.Encode(row.Get(name), dst, offset)
			if err != nil {
				return nil, err
			}
		} else if spanStart < 0 {
			spanStart = spanStarts[i]
		}
	}
	flush(origTotal)
	return dst, nil
}
