// Package codec implements the self-describing binary layouts used to
// encode row columns for keys (order-preserving) and values (compact,
// versioned). Each codec exposes MinSize/EncodeSize/Encode/Decode/
// DecodeSkip, phrased as contracts on a byte buffer with a running
// offset, per spec.md §4.1.
package codec

import (
	"encoding/binary"

	"github.com/badgerrow/rowindex/rowerrors"
)

// Codec is the contract every column encoding satisfies. src/dst values
// are passed as `any`; concrete codecs document the Go type they expect
// (int64, uint64, float64, string, []byte, *big.Int, ...) and panic on
// a caller bug (wrong Go type), but return a *rowerrors.CorruptEncoding
// or *rowerrors.RequiredColumnUnset for data-dependent failures.
type Codec interface {
	// MinSize is the constant lower bound of the encoded length.
	MinSize() int

	// EncodeSize adds this column's dynamic contribution (including any
	// length prefix) to a running size total and returns the new total.
	EncodeSize(src any, accum int) int

	// Encode writes src starting at offset in dst and returns the
	// offset just past the written bytes.
	Encode(src any, dst []byte, offset int) (int, error)

	// Decode reads a value starting at offset in src and returns the
	// decoded value, the offset just past it, and an error if src is
	// truncated or otherwise corrupt.
	Decode(src []byte, offset int) (any, int, error)

	// DecodeSkip advances past an encoded value without producing it.
	DecodeSkip(src []byte, offset int) (int, error)

	// Compare orders two decoded Go values the way this codec's
	// declared column direction does. Used by the secondary-vs-primary
	// consistency check (spec.md §4.8), whose comparison semantics may
	// be asymmetric with respect to the codec's own key byte order
	// (e.g. a DESCENDING column still compares its Go values ascending
	// here; only the encoded bytes are reversed).
	Compare(a, b any) int

	// Nullable reports whether this codec accepts a nil src.
	Nullable() bool
}

// Field describes how a column's codec should be parameterized; it is
// the bridge between schema.Column and a concrete Codec instance.
type Field struct {
	Nullable   bool
	Descending bool // key codecs only
	NullLow    bool // key codecs only; nulls sort before non-nulls
	Unsigned   bool
	IsLast     bool // value codecs only: last value column in the entry
}

func nullHeaderByte(isNull bool) byte {
	if isNull {
		return 0
	}
	return 1
}

// putUvarint appends a standard Go varint-encoded uint64 to dst at offset.
func putUvarint(dst []byte, offset int, v uint64) int {
	n := binary.PutUvarint(dst[offset:], v)
	return offset + n
}

func uvarintSize(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

func getUvarint(src []byte, offset int) (uint64, int, error) {
	v, n := binary.Uvarint(src[offset:])
	if n <= 0 {
		return 0, offset, rowerrors.NewCorruptEncoding("truncated varint")
	}
	return v, offset + n, nil
}

// complementRange flips every bit in dst[from:to], used to reverse the
// collation order of an already-written ascending key field.
func complementRange(dst []byte, from, to int) {
	for i := from; i < to; i++ {
		dst[i] = ^dst[i]
	}
}

func requireLen(src []byte, offset, n int) error {
	if offset+n > len(src) {
		return rowerrors.NewCorruptEncoding("truncated entry")
	}
	return nil
}
