package codec

import (
	"encoding/binary"
	"math"

	"github.com/badgerrow/rowindex/rowerrors"
)

// FloatWidth selects 32- or 64-bit IEEE 754 storage.
type FloatWidth int

const (
	FloatWidth32 FloatWidth = 4
	FloatWidth64 FloatWidth = 8
)

// FloatCodec encodes IEEE 754 floating point values, stored as float64.
//
// Key form applies the order-preserving transform: if the sign bit is
// set, flip all bits; otherwise flip just the sign bit. DESCENDING
// additionally flips all bits afterward. Value form stores raw bits,
// little-endian, with an optional null-header byte.
type FloatCodec struct {
	width      FloatWidth
	forKey     bool
	nullable   bool
	descending bool
	nullLow    bool
}

func NewKeyFloatCodec(width FloatWidth, f Field) *FloatCodec {
	return &FloatCodec{width: width, forKey: true, nullable: f.Nullable, descending: f.Descending, nullLow: f.NullLow}
}

func NewValueFloatCodec(width FloatWidth, f Field) *FloatCodec {
	return &FloatCodec{width: width, forKey: false, nullable: f.Nullable}
}

func (c *FloatCodec) Nullable() bool { return c.nullable }

func (c *FloatCodec) MinSize() int {
	n := int(c.width)
	if c.nullable {
		n++
	}
	return n
}

func (c *FloatCodec) EncodeSize(src any, accum int) int { return accum + c.MinSize() }

func bitsOf(v float64, width FloatWidth) uint64 {
	if width == FloatWidth32 {
		return uint64(math.Float32bits(float32(v)))
	}
	return math.Float64bits(v)
}

func valueOf(bits uint64, width FloatWidth) float64 {
	if width == FloatWidth32 {
		return float64(math.Float32frombits(uint32(bits)))
	}
	return math.Float64frombits(bits)
}

// orderTransform applies only the sign-bit reordering; DESCENDING is
// handled uniformly afterward by complementing the whole encoded field
// (header byte included), the same way the other key codecs do it.
func (c *FloatCodec) orderTransform(bits uint64) uint64 {
	signBit := uint64(1) << (uint(c.width)*8 - 1)
	if bits&signBit != 0 {
		bits = ^bits
	} else {
		bits ^= signBit
	}
	return bits
}

func (c *FloatCodec) Encode(src any, dst []byte, offset int) (int, error) {
	fieldStart := offset
	if src == nil {
		if !c.nullable {
			return offset, rowerrors.NewRequiredColumnUnset("", nil)
		}
		if c.forKey {
			dst[offset] = orderedNullHeader(true, c.nullLow)
			offset++
			for i := 0; i < int(c.width); i++ {
				dst[offset+i] = 0
			}
			offset += int(c.width)
			if c.descending {
				complementRange(dst, fieldStart, offset)
			}
			return offset, nil
		}
		dst[offset] = nullHeaderByte(true)
		offset++
		for i := 0; i < int(c.width); i++ {
			dst[offset+i] = 0
		}
		return offset + int(c.width), nil
	}
	v := toFloat64(src)
	if c.nullable {
		if c.forKey {
			dst[offset] = orderedNullHeader(false, c.nullLow)
		} else {
			dst[offset] = nullHeaderByte(false)
		}
		offset++
	}
	bits := bitsOf(v, c.width)
	if c.forKey {
		bits = c.orderTransform(bits)
		if c.width == FloatWidth32 {
			binary.BigEndian.PutUint32(dst[offset:], uint32(bits))
		} else {
			binary.BigEndian.PutUint64(dst[offset:], bits)
		}
		offset += int(c.width)
		if c.descending {
			complementRange(dst, fieldStart, offset)
		}
		return offset, nil
	}
	if c.width == FloatWidth32 {
		binary.LittleEndian.PutUint32(dst[offset:], uint32(bits))
	} else {
		binary.LittleEndian.PutUint64(dst[offset:], bits)
	}
	return offset + int(c.width), nil
}

func (c *FloatCodec) Decode(src []byte, offset int) (any, int, error) {
	isNull := false
	if c.nullable {
		if err := requireLen(src, offset, 1); err != nil {
			return nil, offset, err
		}
		h := src[offset]
		if c.forKey {
			if c.descending {
				h = ^h
			}
			isNull = h == orderedNullHeader(true, c.nullLow)
		} else {
			isNull = h == 0
		}
		offset++
	}
	if err := requireLen(src, offset, int(c.width)); err != nil {
		return nil, offset, err
	}
	if isNull {
		return nil, offset + int(c.width), nil
	}
	var bits uint64
	if c.forKey {
		if c.width == FloatWidth32 {
			bits = uint64(binary.BigEndian.Uint32(src[offset:]))
		} else {
			bits = binary.BigEndian.Uint64(src[offset:])
		}
		if c.descending {
			bits = ^bits
		}
		signBit := uint64(1) << (uint(c.width)*8 - 1)
		if bits&signBit != 0 {
			bits ^= signBit
		} else {
			bits = ^bits
		}
	} else {
		if c.width == FloatWidth32 {
			bits = uint64(binary.LittleEndian.Uint32(src[offset:]))
		} else {
			bits = binary.LittleEndian.Uint64(src[offset:])
		}
	}
	return valueOf(bits, c.width), offset + int(c.width), nil
}

func (c *FloatCodec) DecodeSkip(src []byte, offset int) (int, error) {
	n := int(c.width)
	if c.nullable {
		n++
	}
	if err := requireLen(src, offset, n); err != nil {
		return offset, err
	}
	return offset + n, nil
}

func (c *FloatCodec) Compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	av, bv := toFloat64(a), toFloat64(b)
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

func toFloat64(src any) float64 {
	switch v := src.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	default:
		panic("codec: value is not a float type")
	}
}
