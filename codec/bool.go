package codec

import "github.com/badgerrow/rowindex/rowerrors"

// BoolCodec packs nullability and the boolean value into a single
// header byte in both key and value form: 0=null, 1=false, 2=true.
// DESCENDING on a key codec reverses the ordering of false/true only:
// null sorts before both when NULL_LOW is set and after both otherwise,
// in either direction.
type BoolCodec struct {
	nullable   bool
	descending bool
	nullLow    bool
	forKey     bool
}

func NewKeyBoolCodec(f Field) *BoolCodec {
	return &BoolCodec{nullable: f.Nullable, descending: f.Descending, nullLow: f.NullLow, forKey: true}
}

func NewValueBoolCodec(f Field) *BoolCodec {
	return &BoolCodec{nullable: f.Nullable, forKey: false}
}

func (c *BoolCodec) Nullable() bool  { return c.nullable }
func (c *BoolCodec) MinSize() int    { return 1 }
func (c *BoolCodec) EncodeSize(src any, accum int) int { return accum + 1 }

func (c *BoolCodec) header(src any) (byte, error) {
	if src == nil {
		if !c.nullable {
			return 0, rowerrors.NewRequiredColumnUnset("", nil)
		}
		return 0, nil
	}
	v := src.(bool)
	if v {
		return 2, nil
	}
	return 1, nil
}

func (c *BoolCodec) Encode(src any, dst []byte, offset int) (int, error) {
	h, err := c.header(src)
	if err != nil {
		return offset, err
	}
	if c.forKey && h != 0 {
		// reorder so that, ascending, false(1) < true(2) always holds;
		// descending flips that relative order.
		if c.descending {
			h = 3 - h // 1<->2
		}
	}
	if c.forKey && c.nullLow {
		// null sorts first: leave header as-is (0 < 1 < 2 already null-low)
	} else if c.forKey && h == 0 {
		// null sorts last: push header above both values
		h = 3
	}
	dst[offset] = h
	return offset + 1, nil
}

func (c *BoolCodec) Decode(src []byte, offset int) (any, int, error) {
	if err := requireLen(src, offset, 1); err != nil {
		return nil, offset, err
	}
	h := src[offset]
	if c.forKey && !c.nullLow && h == 3 {
		h = 0
	}
	if h == 0 {
		return nil, offset + 1, nil
	}
	if c.forKey && c.descending {
		h = 3 - h
	}
	return h == 2, offset + 1, nil
}

func (c *BoolCodec) DecodeSkip(src []byte, offset int) (int, error) {
	if err := requireLen(src, offset, 1); err != nil {
		return offset, err
	}
	return offset + 1, nil
}

func (c *BoolCodec) Compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	av, bv := a.(bool), b.(bool)
	if av == bv {
		return 0
	}
	if !av && bv {
		return -1
	}
	return 1
}
