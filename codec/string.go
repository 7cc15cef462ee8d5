package codec

import (
	"unicode/utf8"

	"github.com/badgerrow/rowindex/rowerrors"
	"golang.org/x/text/unicode/norm"
)

// StringCodec encodes UTF-8 strings.
//
// Key form: an optional null-header byte, then an order-preserving
// "modified UTF-8": raw UTF-8 bytes with embedded 0x00 escaped as
// {0x00, 0xFF} and the whole string terminated by {0x00, 0x00}, so
// a shorter string always collates before a longer string that extends
// it. DESCENDING complements every byte (including the terminator) so
// the encoded order reverses.
//
// Value form: a non-nullable or not-last column gets a varint length
// prefix before the raw bytes; the last nullable column in an entry
// omits both the null-header's accompanying length and any prefix,
// relying on the entry boundary to terminate it (spec's null-header
// rule for the last nullable value column).
type StringCodec struct {
	forKey     bool
	nullable   bool
	descending bool
	nullLow    bool
	isLast     bool
}

func NewKeyStringCodec(f Field) *StringCodec {
	return &StringCodec{forKey: true, nullable: f.Nullable, descending: f.Descending, nullLow: f.NullLow}
}

func NewValueStringCodec(f Field) *StringCodec {
	return &StringCodec{forKey: false, nullable: f.Nullable, isLast: f.IsLast}
}

func (c *StringCodec) Nullable() bool { return c.nullable }

func (c *StringCodec) MinSize() int {
	if c.nullable {
		return 1
	}
	if !c.forKey {
		return 1 // minimum one-byte varint length for an empty string
	}
	return 2 // terminator
}

func normalize(s string) string {
	return norm.NFC.String(s)
}

func (c *StringCodec) EncodeSize(src any, accum int) int {
	if src == nil {
		if c.nullable {
			return accum + 1
		}
		return accum
	}
	s := normalize(src.(string))
	raw := []byte(s)
	if c.forKey {
		n := 0
		if c.nullable {
			n++
		}
		for _, b := range raw {
			if b == 0 {
				n += 2
			} else {
				n++
			}
		}
		n += 2 // terminator
		return accum + n
	}
	n := 0
	if c.nullable {
		n++
	}
	if !(c.nullable && c.isLast) {
		n += uvarintSize(uint64(len(raw)))
	}
	n += len(raw)
	return accum + n
}

func (c *StringCodec) Encode(src any, dst []byte, offset int) (int, error) {
	if src == nil {
		if !c.nullable {
			return offset, rowerrors.NewRequiredColumnUnset("", nil)
		}
		if c.forKey {
			fieldStart := offset
			dst[offset] = orderedNullHeader(true, c.nullLow)
			offset++
			if c.descending {
				complementRange(dst, fieldStart, offset)
			}
			return offset, nil
		}
		dst[offset] = 0
		return offset + 1, nil
	}

	s := normalize(src.(string))
	raw := []byte(s)

	if c.forKey {
		fieldStart := offset
		if c.nullable {
			dst[offset] = orderedNullHeader(false, c.nullLow)
			offset++
		}
		for _, b := range raw {
			if b == 0 {
				dst[offset] = 0x00
				dst[offset+1] = 0xFF
				offset += 2
			} else {
				dst[offset] = b
				offset++
			}
		}
		dst[offset] = 0x00
		dst[offset+1] = 0x00
		offset += 2
		if c.descending {
			complementRange(dst, fieldStart, offset)
		}
		return offset, nil
	}

	if c.nullable {
		dst[offset] = 1
		offset++
	}
	if !(c.nullable && c.isLast) {
		offset = putUvarint(dst, offset, uint64(len(raw)))
	}
	copy(dst[offset:], raw)
	return offset + len(raw), nil
}

func (c *StringCodec) Decode(src []byte, offset int) (any, int, error) {
	if c.nullable {
		if err := requireLen(src, offset, 1); err != nil {
			return nil, offset, err
		}
		header := src[offset]
		var isNull bool
		if c.forKey {
			if c.descending {
				header = ^header
			}
			isNull = header == orderedNullHeader(true, c.nullLow)
		} else {
			isNull = header == 0
		}
		if isNull {
			return nil, offset + 1, nil
		}
		offset++
	}

	if c.forKey {
		var buf []byte
		for {
			if err := requireLen(src, offset, 2); err != nil {
				return nil, offset, err
			}
			b0, b1 := src[offset], src[offset+1]
			if c.descending {
				b0, b1 = ^b0, ^b1
			}
			if b0 == 0x00 && b1 == 0x00 {
				offset += 2
				break
			}
			if b0 == 0x00 && b1 == 0xFF {
				buf = append(buf, 0x00)
				offset += 2
				continue
			}
			buf = append(buf, b0)
			offset++
		}
		if !utf8.Valid(buf) {
			return nil, offset, rowerrors.NewCorruptEncoding("invalid UTF-8 in key string")
		}
		return string(buf), offset, nil
	}

	var n int
	if c.nullable && c.isLast {
		n = len(src) - offset
		if n < 0 {
			return nil, offset, rowerrors.NewCorruptEncoding("truncated trailing string")
		}
	} else {
		v, newOff, err := getUvarint(src, offset)
		if err != nil {
			return nil, offset, err
		}
		offset = newOff
		n = int(v)
	}
	if err := requireLen(src, offset, n); err != nil {
		return nil, offset, err
	}
	raw := src[offset : offset+n]
	if !utf8.Valid(raw) {
		return nil, offset, rowerrors.NewCorruptEncoding("invalid UTF-8 in value string")
	}
	return string(raw), offset + n, nil
}

func (c *StringCodec) DecodeSkip(src []byte, offset int) (int, error) {
	_, newOffset, err := c.Decode(src, offset)
	return newOffset, err
}

func (c *StringCodec) Compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	as, bs := a.(string), b.(string)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

// orderedNullHeader returns the key-form header byte for nullability
// such that, compared byte-for-byte against the header of a non-null
// entry, null sorts first iff nullLow is set.
func orderedNullHeader(isNull, nullLow bool) byte {
	if nullLow {
		if isNull {
			return 0
		}
		return 1
	}
	if isNull {
		return 1
	}
	return 0
}
