package codec

// NullCodec represents a column whose type has been fully erased by
// schema evolution (the original type is no longer known, or the
// column was dropped but a placeholder slot is kept for positional
// compatibility). It never reads or writes any bytes: Decode always
// produces the given zero value, Encode is a no-op, and EncodeSize
// never grows the running total.
type NullCodec struct {
	zero any
}

func NewNullCodec(zero any) *NullCodec {
	return &NullCodec{zero: zero}
}

func (c *NullCodec) Nullable() bool { return true }

func (c *NullCodec) MinSize() int { return 0 }

func (c *NullCodec) EncodeSize(src any, accum int) int { return accum }

func (c *NullCodec) Encode(src any, dst []byte, offset int) (int, error) {
	return offset, nil
}

func (c *NullCodec) Decode(src []byte, offset int) (any, int, error) {
	return c.zero, offset, nil
}

func (c *NullCodec) DecodeSkip(src []byte, offset int) (int, error) {
	return offset, nil
}

func (c *NullCodec) Compare(a, b any) int {
	return 0
}
