// Package encoding implements the composite primary-key and value
// encode/decode pipeline (spec's component C4): schema-version-prefixed
// values, per-RowInfo codec lists built from the schema package's
// column descriptions, and the registry that maps a row type's
// versions back to the RowInfo that wrote them.
package encoding

import (
	"github.com/badgerrow/rowindex/codec"
	"github.com/badgerrow/rowindex/schema"
)

// keyCodec builds the order-preserving codec for a primary-key or
// index-key column occurrence (direction/null-ordering come from the
// IndexColumn, not the base Column).
func keyCodec(col *schema.Column, ic schema.IndexColumn) codec.Codec {
	f := codec.Field{Nullable: col.Nullable, Descending: ic.Dir == schema.Descending, NullLow: ic.NullLow, Unsigned: col.Unsigned}
	return columnCodec(col, true, f)
}

// valueCodec builds the compact codec for a value column. isLast marks
// the final value column in the destination RowInfo's valueColumns
// order, which matters only for a nullable string tail column (the
// string codec then omits the length prefix; other codecs ignore it).
func valueCodec(col *schema.Column, isLast bool) codec.Codec {
	f := codec.Field{Nullable: col.Nullable, Unsigned: col.Unsigned, IsLast: isLast}
	return columnCodec(col, false, f)
}

func columnCodec(col *schema.Column, forKey bool, f codec.Field) codec.Codec {
	switch col.Kind {
	case schema.KindInt:
		width := intWidth(col.BitSize)
		if forKey {
			return codec.NewKeyIntCodec(width, col.Unsigned, f)
		}
		return codec.NewValueIntCodec(width, col.Unsigned, f)
	case schema.KindFloat:
		width := codec.FloatWidth32
		if col.BitSize == 64 {
			width = codec.FloatWidth64
		}
		if forKey {
			return codec.NewKeyFloatCodec(width, f)
		}
		return codec.NewValueFloatCodec(width, f)
	case schema.KindBool:
		if forKey {
			return codec.NewKeyBoolCodec(f)
		}
		return codec.NewValueBoolCodec(f)
	case schema.KindString:
		if forKey {
			return codec.NewKeyStringCodec(f)
		}
		return codec.NewValueStringCodec(f)
	case schema.KindBigInt:
		if forKey {
			return codec.NewKeyBigIntCodec(f)
		}
		return codec.NewValueBigIntCodec(f)
	case schema.KindArray:
		elem := columnCodec(col.Elem, forKey, codec.Field{Nullable: col.Elem.Nullable, Unsigned: col.Elem.Unsigned})
		return codec.NewArrayCodec(elem, f)
	case schema.KindNull:
		return codec.NewNullCodec(nil)
	default:
		panic("encoding: unknown column kind")
	}
}

func intWidth(bitSize int) codec.IntWidth {
	switch bitSize {
	case 8:
		return codec.Width1
	case 16:
		return codec.Width2
	case 32:
		return codec.Width4
	default:
		return codec.Width8
	}
}

// ColumnKeyCodec exposes keyCodec to other packages (the transform
// package builds secondary/alternate-key codecs column-by-column from a
// schema.ColumnSet rather than a whole RowInfo).
func ColumnKeyCodec(col *schema.Column, ic schema.IndexColumn) codec.Codec {
	return keyCodec(col, ic)
}

// ColumnValueCodec exposes valueCodec to other packages, same rationale
// as ColumnKeyCodec.
func ColumnValueCodec(col *schema.Column, isLast bool) codec.Codec {
	return valueCodec(col, isLast)
}

// KeyCodecs returns the ordered codecs for ri's primary-key columns.
func KeyCodecs(ri *schema.RowInfo) []codec.Codec {
	codecs := make([]codec.Codec, len(ri.KeyColumns))
	for i, kc := range ri.KeyColumns {
		codecs[i] = keyCodec(ri.AllColumns[kc.Name], kc)
	}
	return codecs
}

// ValueCodecs returns the ordered codecs for ri's value columns
// (already sorted by name on RowInfo).
func ValueCodecs(ri *schema.RowInfo) []codec.Codec {
	codecs := make([]codec.Codec, len(ri.ValueColumns))
	for i, name := range ri.ValueColumns {
		isLast := i == len(ri.ValueColumns)-1
		codecs[i] = valueCodec(ri.AllColumns[name], isLast)
	}
	return codecs
}
