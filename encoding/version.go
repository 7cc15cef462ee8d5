package encoding

import (
	"encoding/binary"

	"github.com/badgerrow/rowindex/rowerrors"
)

// sizeVersionPrefix is the wire-format width of a schema-version
// prefix: 1 byte for v in [0,128), 4 bytes for v in [128, 2^31).
func sizeVersionPrefix(v uint32) int {
	if v < 128 {
		return 1
	}
	return 4
}

func putVersionPrefix(dst []byte, offset int, v uint32) int {
	if v < 128 {
		dst[offset] = byte(v)
		return offset + 1
	}
	binary.BigEndian.PutUint32(dst[offset:], v|0x80000000)
	return offset + 4
}

// VersionPrefixSize exposes sizeVersionPrefix for packages that need to
// size a version-prefixed buffer without duplicating the width rule.
func VersionPrefixSize(v uint32) int {
	return sizeVersionPrefix(v)
}

// PutVersionPrefix exposes putVersionPrefix to callers outside this
// package (the transform package re-stamps the version prefix when it
// rewrites a value entry).
func PutVersionPrefix(dst []byte, offset int, v uint32) int {
	return putVersionPrefix(dst, offset, v)
}

// DecodeVersionPrefix exposes getVersionPrefix to callers outside this
// package.
func DecodeVersionPrefix(src []byte, offset int) (uint32, int, error) {
	return getVersionPrefix(src, offset)
}

func getVersionPrefix(src []byte, offset int) (uint32, int, error) {
	if offset >= len(src) {
		return 0, offset, rowerrors.NewCorruptEncoding("truncated schema version prefix")
	}
	if src[offset]&0x80 == 0 {
		return uint32(src[offset]), offset + 1, nil
	}
	if offset+4 > len(src) {
		return 0, offset, rowerrors.NewCorruptEncoding("truncated schema version prefix")
	}
	word := binary.BigEndian.Uint32(src[offset:])
	return word &^ 0x80000000, offset + 4, nil
}
