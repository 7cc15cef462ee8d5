// Package transform implements the partial-update pipeline (spec's
// component C5): overlaying only DIRTY value columns onto an existing
// encoded entry, reusing spans of untouched bytes verbatim rather than
// re-encoding the whole row. The teacher always re-serializes a row's
// full JSON body on update; this package follows the "assemble a new
// byte buffer, copy spans" idiom the teacher otherwise uses for its
// batch codec helpers, generalized to a single column-at-a-time span
// copy driven by the row's dirty-state bitmap.
package transform

import (
	"github.com/badgerrow/rowindex/encoding"
	"github.com/badgerrow/rowindex/rowdata"
	"github.com/badgerrow/rowindex/schema"
)

// UpdateValue overlays row's DIRTY value columns onto original, an
// entry previously produced by encoding.EncodeValue for some version of
// rowTypeName. If original was written under an older schema version
// than ri's current one, it is first decoded into a scratch row and
// re-encoded at the current version (step 1 of the spec's algorithm),
// so the span-copy pass below always runs against a current-version
// byte layout.
func UpdateValue(reg encoding.SchemaRegistry, rowTypeName string, ri *schema.RowInfo, row *rowdata.Row, original []byte) ([]byte, error) {
	version, err := reg.VersionFor(rowTypeName, ri)
	if err != nil {
		return nil, err
	}

	original, valueOffset, err := normalizeVersion(reg, rowTypeName, ri, version, original)
	if err != nil {
		return nil, err
	}

	if row.CheckAllDirty(row.ValueColumnNames()) {
		return encoding.EncodeValue(ri, version, row)
	}

	codecs := encoding.ValueCodecs(ri)

	// Pass 1: record each column's start offset in the original entry
	// and compute the new total size.
	spanStarts := make([]int, len(codecs))
	offset := valueOffset
	for i, c := range codecs {
		spanStarts[i] = offset
		var err error
		offset, err = c.DecodeSkip(original, offset)
		if err != nil {
			return nil, err
		}
	}
	origTotal := offset

	size := encoding.VersionPrefixSize(version)
	for i, c := range codecs {
		name := ri.ValueColumns[i]
		if row.CheckAllDirty([]string{name}) {
			size = c.EncodeSize(row.Get(name), size)
		} else {
			end := origTotal
			if i+1 < len(spanStarts) {
				end = spanStarts[i+1]
			}
			size += end - spanStarts[i]
		}
	}

	// Pass 2: allocate, stamp the version prefix, then walk the columns
	// again, flushing spans of untouched bytes and re-encoding the
	// dirty ones in place.
	dst := make([]byte, size)
	dstOffset := encoding.PutVersionPrefix(dst, 0, version)
	spanStart := -1
	flush := func(origEnd int) {
		if spanStart < 0 {
			return
		}
		dstOffset += copy(dst[dstOffset:], original[spanStart:origEnd])
		spanStart = -1
	}
	for i, c := range codecs {
		name := ri.ValueColumns[i]
		if row.CheckAllDirty([]string{name}) {
			flush(spanStarts[i])
			var err error
			dstOffset, err = c.Encode(row.Get(name), dst, dstOffset)
			if err != nil {
				return nil, err
			}
		} else if spanStart < 0 {
			spanStart = spanStarts[i]
		}
	}
	flush(origTotal)
	return dst, nil
}

// normalizeVersion returns original re-encoded at currentVersion (along
// with the offset of its first value column) if its own version prefix
// does not already match; otherwise it returns original unchanged.
func normalizeVersion(reg encoding.SchemaRegistry, rowTypeName string, ri *schema.RowInfo, currentVersion uint32, original []byte) ([]byte, int, error) {
	var origVersion uint32
	var offset int
	if len(original) == 0 {
		origVersion, offset = 0, 0
	} else {
		var err error
		origVersion, offset, err = encoding.DecodeVersionPrefix(original, 0)
		if err != nil {
			return nil, 0, err
		}
	}
	if origVersion == currentVersion {
		return original, offset, nil
	}

	scratch := rowdata.New(ri)
	if err := encoding.DecodeValue(reg, rowTypeName, ri, scratch, original); err != nil {
		return nil, 0, err
	}
	reencoded, err := encoding.EncodeValue(ri, currentVersion, scratch)
	if err != nil {
		return nil, 0, err
	}
	return reencoded, encoding.VersionPrefixSize(currentVersion), nil
}
