package codec

import (
	"encoding/binary"

	"github.com/badgerrow/rowindex/rowerrors"
)

// IntWidth is the fixed byte width of an integer codec.
type IntWidth int

const (
	Width1 IntWidth = 1
	Width2 IntWidth = 2
	Width4 IntWidth = 4
	Width8 IntWidth = 8
)

// IntCodec encodes fixed-width signed or unsigned integers, stored as
// int64 (the caller is responsible for range-checking against the
// declared width elsewhere, e.g. schema.find for automatic columns).
//
// Key form: big-endian; signed values XOR the sign bit so natural byte
// order matches numeric order; DESCENDING XORs all bits afterward.
// Value form: little-endian, sign preserved as-is, with an optional
// leading null-header byte.
type IntCodec struct {
	width      IntWidth
	unsigned   bool
	forKey     bool
	nullable   bool
	descending bool
	nullLow    bool
}

// NewKeyIntCodec builds an order-preserving key codec for a fixed-width integer.
func NewKeyIntCodec(width IntWidth, unsigned bool, f Field) *IntCodec {
	return &IntCodec{width: width, unsigned: unsigned, forKey: true, nullable: f.Nullable, descending: f.Descending, nullLow: f.NullLow}
}

// NewValueIntCodec builds a compact value codec for a fixed-width integer.
func NewValueIntCodec(width IntWidth, unsigned bool, f Field) *IntCodec {
	return &IntCodec{width: width, unsigned: unsigned, forKey: false, nullable: f.Nullable}
}

func (c *IntCodec) Nullable() bool { return c.nullable }

func (c *IntCodec) MinSize() int {
	n := int(c.width)
	if c.nullable {
		n++
	}
	return n
}

func (c *IntCodec) EncodeSize(src any, accum int) int {
	return accum + c.MinSize()
}

func (c *IntCodec) Encode(src any, dst []byte, offset int) (int, error) {
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
	v := toInt64(src)
	if c.nullable {
		if c.forKey {
			dst[offset] = orderedNullHeader(false, c.nullLow)
		} else {
			dst[offset] = nullHeaderByte(false)
		}
		offset++
	}
	if c.forKey {
		c.encodeKeyBits(uint64(v), dst, offset)
		offset += int(c.width)
		if c.descending {
			complementRange(dst, fieldStart, offset)
		}
		return offset, nil
	}
	c.encodeValueBits(uint64(v), dst, offset)
	return offset + int(c.width), nil
}

func (c *IntCodec) encodeKeyBits(bits uint64, dst []byte, offset int) {
	if !c.unsigned {
		// flip sign bit so two's-complement order becomes unsigned numeric order
		signBit := uint64(1) << (uint(c.width)*8 - 1)
		bits ^= signBit
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, bits)
	copy(dst[offset:], buf[8-int(c.width):])
}

func (c *IntCodec) encodeValueBits(bits uint64, dst []byte, offset int) {
	switch c.width {
	case Width1:
		dst[offset] = byte(bits)
	case Width2:
		binary.LittleEndian.PutUint16(dst[offset:], uint16(bits))
	case Width4:
		binary.LittleEndian.PutUint32(dst[offset:], uint32(bits))
	case Width8:
		binary.LittleEndian.PutUint64(dst[offset:], bits)
	}
}

func (c *IntCodec) Decode(src []byte, offset int) (any, int, error) {
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
	raw := make([]byte, int(c.width))
	copy(raw, src[offset:offset+int(c.width)])
	var bits uint64
	if c.forKey {
		if c.descending {
			for i, b := range raw {
				raw[i] = ^b
			}
		}
		buf := make([]byte, 8)
		copy(buf[8-int(c.width):], raw)
		bits = binary.BigEndian.Uint64(buf)
		if !c.unsigned {
			signBit := uint64(1) << (uint(c.width)*8 - 1)
			bits ^= signBit
		}
	} else {
		switch c.width {
		case Width1:
			bits = uint64(raw[0])
		case Width2:
			bits = uint64(binary.LittleEndian.Uint16(raw))
		case Width4:
			bits = uint64(binary.LittleEndian.Uint32(raw))
		case Width8:
			bits = binary.LittleEndian.Uint64(raw)
		}
	}
	v := signExtend(bits, c.width, c.unsigned)
	return v, offset + int(c.width), nil
}

func (c *IntCodec) DecodeSkip(src []byte, offset int) (int, error) {
	n := int(c.width)
	if c.nullable {
		n++
	}
	if err := requireLen(src, offset, n); err != nil {
		return offset, err
	}
	return offset + n, nil
}

func (c *IntCodec) Compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	av, bv := toInt64(a), toInt64(b)
	if c.unsigned {
		auv, buv := uint64(av), uint64(bv)
		switch {
		case auv < buv:
			return -1
		case auv > buv:
			return 1
		default:
			return 0
		}
	}
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

func toInt64(src any) int64 {
	switch v := src.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int8:
		return int64(v)
	case uint64:
		return int64(v)
	case uint32:
		return int64(v)
	case uint16:
		return int64(v)
	case uint8:
		return int64(v)
	case uint:
		return int64(v)
	default:
		panic("codec: value is not an integer type")
	}
}

func signExtend(bits uint64, width IntWidth, unsigned bool) int64 {
	if unsigned || width == Width8 {
		return int64(bits)
	}
	signBit := uint64(1) << (uint(width)*8 - 1)
	if bits&signBit != 0 {
		mask := ^uint64(0) << (uint(width) * 8)
		bits |= mask
	}
	return int64(bits)
}
