package codec

import (
	"math/big"

	"github.com/badgerrow/rowindex/rowerrors"
)

// BigIntCodec encodes arbitrary-precision integers (math/big.Int).
//
// Key form: a sign/null header byte, then a length-prefixed big-endian
// magnitude. The header encodes null/negative/positive so that, byte for
// byte, negatives sort before positives and longer magnitudes of the same
// sign sort correctly relative to shorter ones of the same sign (negative
// magnitudes are length-complemented so a longer negative number, being
// more negative only when magnitude also grows, still sorts lower).
// DESCENDING complements the whole field, same as the other key codecs.
//
// Value form: a null-header byte (if nullable), then one sign byte, a
// varint magnitude length, and the big-endian magnitude bytes of the
// absolute value.
type BigIntCodec struct {
	forKey     bool
	nullable   bool
	descending bool
	nullLow    bool
}

func NewKeyBigIntCodec(f Field) *BigIntCodec {
	return &BigIntCodec{forKey: true, nullable: f.Nullable, descending: f.Descending, nullLow: f.NullLow}
}

func NewValueBigIntCodec(f Field) *BigIntCodec {
	return &BigIntCodec{forKey: false, nullable: f.Nullable}
}

func (c *BigIntCodec) Nullable() bool { return c.nullable }

func (c *BigIntCodec) MinSize() int {
	if c.forKey {
		return 1 // header byte; magnitude length varies
	}
	n := 1 // varint length, minimum one byte
	if c.nullable {
		n++
	}
	return n
}

func (c *BigIntCodec) EncodeSize(src any, accum int) int {
	if src == nil {
		if c.nullable {
			if c.forKey {
				return accum + 2 // header + zero length byte
			}
			return accum + 1
		}
		return accum
	}
	v := src.(*big.Int)
	mag := v.Bytes()
	if c.forKey {
		return accum + 1 + len(mag) + 1 // header + length byte + magnitude
	}
	n := 1 // sign byte
	if c.nullable {
		n++
	}
	n += uvarintSize(uint64(len(mag)))
	n += len(mag)
	return accum + n
}

// bigIntHeader values, before any NULL_LOW/DESCENDING adjustment:
// 0 = null, 1 = negative, 2 = positive (includes zero).
const (
	bigIntHeaderNull = 0
	bigIntHeaderNeg  = 1
	bigIntHeaderPos  = 2
)

func (c *BigIntCodec) Encode(src any, dst []byte, offset int) (int, error) {
	if src == nil {
		if !c.nullable {
			return offset, rowerrors.NewRequiredColumnUnset("", nil)
		}
		if c.forKey {
			fieldStart := offset
			h := byte(bigIntHeaderNull)
			if !c.nullLow {
				h = 3
			}
			dst[offset] = h
			offset++
			dst[offset] = 0 // zero-length magnitude
			offset++
			if c.descending {
				complementRange(dst, fieldStart, offset)
			}
			return offset, nil
		}
		dst[offset] = 0
		return offset + 1, nil
	}

	v := src.(*big.Int)
	mag := v.Bytes()
	neg := v.Sign() < 0

	if c.forKey {
		fieldStart := offset
		h := byte(bigIntHeaderPos)
		if neg {
			h = bigIntHeaderNeg
		}
		dst[offset] = h
		offset++
		// Length byte: for negative numbers, complement the length so
		// that among same-sign values, a longer magnitude (more negative)
		// sorts before a shorter one.
		length := byte(len(mag))
		if neg {
			dst[offset] = ^length
		} else {
			dst[offset] = length
		}
		offset++
		if neg {
			for _, b := range mag {
				dst[offset] = ^b
				offset++
			}
		} else {
			copy(dst[offset:], mag)
			offset += len(mag)
		}
		if c.descending {
			complementRange(dst, fieldStart, offset)
		}
		return offset, nil
	}

	if c.nullable {
		dst[offset] = 1
		offset++
	}
	sign := byte(0)
	if neg {
		sign = 1
	}
	dst[offset] = sign
	offset++
	offset = putUvarint(dst, offset, uint64(len(mag)))
	copy(dst[offset:], mag)
	return offset + len(mag), nil
}

func (c *BigIntCodec) Decode(src []byte, offset int) (any, int, error) {
	if c.forKey {
		if err := requireLen(src, offset, 2); err != nil {
			return nil, offset, err
		}
		h := src[offset]
		lengthByte := src[offset+1]
		if c.descending {
			h = ^h
			lengthByte = ^lengthByte
		}
		if !c.nullLow && h == 3 {
			h = bigIntHeaderNull
		}
		if h == bigIntHeaderNull {
			return nil, offset + 2, nil
		}
		neg := h == bigIntHeaderNeg
		length := int(lengthByte)
		if neg {
			length = int(^lengthByte)
		}
		offset += 2
		if err := requireLen(src, offset, length); err != nil {
			return nil, offset, err
		}
		mag := make([]byte, length)
		copy(mag, src[offset:offset+length])
		if c.descending {
			for i := range mag {
				mag[i] = ^mag[i]
			}
		}
		if neg {
			for i := range mag {
				mag[i] = ^mag[i]
			}
		}
		offset += length
		v := new(big.Int).SetBytes(mag)
		if neg {
			v.Neg(v)
		}
		return v, offset, nil
	}

	isNull := false
	if c.nullable {
		if err := requireLen(src, offset, 1); err != nil {
			return nil, offset, err
		}
		isNull = src[offset] == 0
		offset++
		if isNull {
			return nil, offset, nil
		}
	}
	if err := requireLen(src, offset, 1); err != nil {
		return nil, offset, err
	}
	neg := src[offset] == 1
	offset++
	length, newOff, err := getUvarint(src, offset)
	if err != nil {
		return nil, offset, err
	}
	offset = newOff
	if err := requireLen(src, offset, int(length)); err != nil {
		return nil, offset, err
	}
	v := new(big.Int).SetBytes(src[offset : offset+int(length)])
	if neg {
		v.Neg(v)
	}
	return v, offset + int(length), nil
}

func (c *BigIntCodec) DecodeSkip(src []byte, offset int) (int, error) {
	_, newOffset, err := c.Decode(src, offset)
	return newOffset, err
}

func (c *BigIntCodec) Compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	return a.(*big.Int).Cmp(b.(*big.Int))
}
