package codec

import "github.com/badgerrow/rowindex/rowerrors"

// ArrayCodec encodes a fixed-element-type array as a length prefix
// followed by each element encoded with elem. Used identically for key
// and value forms: the element codec alone decides ordering behavior
// for key columns, and ArrayCodec just sequences them.
type ArrayCodec struct {
	elem     Codec
	nullable bool
}

func NewArrayCodec(elem Codec, f Field) *ArrayCodec {
	return &ArrayCodec{elem: elem, nullable: f.Nullable}
}

func (c *ArrayCodec) Nullable() bool { return c.nullable }

func (c *ArrayCodec) MinSize() int {
	n := 1 // varint length, minimum one byte
	if c.nullable {
		n++
	}
	return n
}

func (c *ArrayCodec) EncodeSize(src any, accum int) int {
	if src == nil {
		if c.nullable {
			return accum + 1
		}
		return accum
	}
	elems := src.([]any)
	n := 0
	if c.nullable {
		n++
	}
	n += uvarintSize(uint64(len(elems)))
	for _, e := range elems {
		n = c.elem.EncodeSize(e, n)
	}
	return accum + n
}

func (c *ArrayCodec) Encode(src any, dst []byte, offset int) (int, error) {
	if src == nil {
		if !c.nullable {
			return offset, rowerrors.NewRequiredColumnUnset("", nil)
		}
		dst[offset] = nullHeaderByte(true)
		return offset + 1, nil
	}
	if c.nullable {
		dst[offset] = nullHeaderByte(false)
		offset++
	}
	elems := src.([]any)
	offset = putUvarint(dst, offset, uint64(len(elems)))
	var err error
	for _, e := range elems {
		offset, err = c.elem.Encode(e, dst, offset)
		if err != nil {
			return offset, err
		}
	}
	return offset, nil
}

func (c *ArrayCodec) Decode(src []byte, offset int) (any, int, error) {
	if c.nullable {
		if err := requireLen(src, offset, 1); err != nil {
			return nil, offset, err
		}
		if src[offset] == 0 {
			return nil, offset + 1, nil
		}
		offset++
	}
	n, newOff, err := getUvarint(src, offset)
	if err != nil {
		return nil, offset, err
	}
	offset = newOff
	elems := make([]any, n)
	for i := range elems {
		var v any
		v, offset, err = c.elem.Decode(src, offset)
		if err != nil {
			return nil, offset, err
		}
		elems[i] = v
	}
	return elems, offset, nil
}

func (c *ArrayCodec) DecodeSkip(src []byte, offset int) (int, error) {
	if c.nullable {
		if err := requireLen(src, offset, 1); err != nil {
			return offset, err
		}
		if src[offset] == 0 {
			return offset + 1, nil
		}
		offset++
	}
	n, newOff, err := getUvarint(src, offset)
	if err != nil {
		return offset, err
	}
	offset = newOff
	for i := uint64(0); i < n; i++ {
		offset, err = c.elem.DecodeSkip(src, offset)
		if err != nil {
			return offset, err
		}
	}
	return offset, nil
}

func (c *ArrayCodec) Compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	as, bs := a.([]any), b.([]any)
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	for i := range as {
		if cmp := c.elem.Compare(as[i], bs[i]); cmp != 0 {
			return cmp
		}
	}
	return 0
}
