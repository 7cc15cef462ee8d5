package transform

import (
	"fmt"

	"github.com/badgerrow/rowindex/codec"
	"github.com/badgerrow/rowindex/encoding"
	"github.com/badgerrow/rowindex/rowdata"
	"github.com/badgerrow/rowindex/rowstate"
	"github.com/badgerrow/rowindex/schema"
)

// Target describes one secondary/alternate-key encoding a Maker can
// produce from its shared source row: Columns is the reduced
// ColumnSet (spec.md §3.1) for one index, IsKey selects which half of
// it to encode, and Eager is a flag carried with the target. Maker does
// not read Eager: it encodes a target only when Build is called for it.
type Target struct {
	Name    string
	Columns schema.ColumnSet
	IsKey   bool
	Eager   bool
}

// Maker builds secondary/alternate-index key and value encodings from
// one source row, reusing work across targets per spec.md §4.5: a
// source column already materialized in the row (DIRTY or CLEAN) is
// used directly; an UNSET one is decoded lazily, once, from whichever
// original entry (key or value) holds it; and a column encoded
// identically for two different targets is encoded once and
// block-copied into the second.
type Maker struct {
	sourceRI    *schema.RowInfo
	row         *rowdata.Row
	reg         encoding.SchemaRegistry
	rowTypeName string
	keyEntry    []byte
	valueEntry  []byte

	decodedKey   bool
	decodedValue bool

	stash map[string][]byte
}

// NewMaker builds a Maker over row, whose UNSET columns (if any) can be
// recovered from keyEntry/valueEntry, the row's original encoded
// primary key and value (either may be nil, e.g. on insert, when there
// is no original entry to fall back on).
func NewMaker(reg encoding.SchemaRegistry, rowTypeName string, sourceRI *schema.RowInfo, row *rowdata.Row, keyEntry, valueEntry []byte) *Maker {
	return &Maker{
		sourceRI:    sourceRI,
		row:         row,
		reg:         reg,
		rowTypeName: rowTypeName,
		keyEntry:    keyEntry,
		valueEntry:  valueEntry,
		stash:       make(map[string][]byte),
	}
}

// Build produces target's encoded bytes from the shared source row.
func (m *Maker) Build(target Target) ([]byte, error) {
	if target.IsKey {
		return m.buildKey(target.Columns.KeyColumns)
	}
	return m.buildValue(target.Columns.ValueColumns)
}

func (m *Maker) buildKey(keyColumns []schema.IndexColumn) ([]byte, error) {
	codecs := make([]codec.Codec, len(keyColumns))
	values := make([]any, len(keyColumns))
	for i, ic := range keyColumns {
		col := m.sourceRI.AllColumns[ic.Name]
		codecs[i] = encoding.ColumnKeyCodec(col, ic)
		v, err := m.valueFor(ic.Name)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	size := 0
	for i, c := range codecs {
		size = c.EncodeSize(values[i], size)
	}
	dst := make([]byte, size)
	offset := 0
	for i, c := range codecs {
		var err error
		offset, err = m.encodeStashed(stashKeyFor(keyColumns[i]), c, values[i], dst, offset)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// buildValue encodes valueColumns with no schema-version prefix: a
// secondary/alternate entry's value half is a fixed small set of
// absorbed or recovered primary-key columns (spec.md §3.1's
// ColumnSet), not an independently versioned row body.
func (m *Maker) buildValue(valueColumns []string) ([]byte, error) {
	codecs := make([]codec.Codec, len(valueColumns))
	values := make([]any, len(valueColumns))
	for i, name := range valueColumns {
		col := m.sourceRI.AllColumns[name]
		codecs[i] = encoding.ColumnValueCodec(col, i == len(valueColumns)-1)
		v, err := m.valueFor(name)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	size := 0
	for i, c := range codecs {
		size = c.EncodeSize(values[i], size)
	}
	dst := make([]byte, size)
	offset := 0
	for i, c := range codecs {
		var err error
		offset, err = m.encodeStashed(fmt.Sprintf("value|%s|%v", valueColumns[i], i == len(valueColumns)-1), c, values[i], dst, offset)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// encodeStashed writes value's encoding of c at dst[offset:], reusing a
// previously stashed encoding under key when one exists (the
// byte-copy shortcut and stashing rules of spec.md §4.5: two targets
// that encode the same source column the same way never pay for the
// encode twice).
func (m *Maker) encodeStashed(key string, c codec.Codec, value any, dst []byte, offset int) (int, error) {
	if cached, ok := m.stash[key]; ok {
		return offset + copy(dst[offset:], cached), nil
	}
	size := c.EncodeSize(value, 0)
	buf := make([]byte, size)
	if _, err := c.Encode(value, buf, 0); err != nil {
		return offset, err
	}
	m.stash[key] = buf
	return offset + copy(dst[offset:], buf), nil
}

func stashKeyFor(ic schema.IndexColumn) string {
	return fmt.Sprintf("key|%s|%v|%v", ic.Name, ic.Dir, ic.NullLow)
}

// valueFor resolves name's availability against the row's state
// bitmap: DIRTY/CLEAN columns are read straight from the row; an
// UNSET one falls back to a one-time lazy decode of whichever original
// entry holds that column (the CONDITIONAL case of spec.md §4.5).
func (m *Maker) valueFor(name string) (any, error) {
	switch m.row.StateOf(name) {
	case rowstate.Dirty, rowstate.Clean:
		return m.row.Get(name), nil
	default:
		if err := m.ensureDecoded(name); err != nil {
			return nil, err
		}
		return m.row.Get(name), nil
	}
}

func (m *Maker) ensureDecoded(name string) error {
	for _, kc := range m.sourceRI.KeyColumns {
		if kc.Name == name {
			return m.ensureKeyDecoded()
		}
	}
	return m.ensureValueDecoded()
}

func (m *Maker) ensureKeyDecoded() error {
	if m.decodedKey {
		return nil
	}
	m.decodedKey = true
	if m.keyEntry == nil {
		return nil
	}
	scratch := rowdata.New(m.sourceRI)
	if err := encoding.DecodePrimaryKey(m.sourceRI, m.sourceRI, scratch, m.keyEntry); err != nil {
		return err
	}
	for _, name := range scratch.KeyColumnNames() {
		if m.row.StateOf(name) == rowstate.Unset {
			m.row.SetClean(name, scratch.Get(name))
		}
	}
	return nil
}

func (m *Maker) ensureValueDecoded() error {
	if m.decodedValue {
		return nil
	}
	m.decodedValue = true
	if m.valueEntry == nil {
		return nil
	}
	scratch := rowdata.New(m.sourceRI)
	if err := encoding.DecodeValue(m.reg, m.rowTypeName, m.sourceRI, scratch, m.valueEntry); err != nil {
		return err
	}
	for _, name := range scratch.ValueColumnNames() {
		if m.row.StateOf(name) == rowstate.Unset {
			m.row.SetClean(name, scratch.Get(name))
		}
	}
	return nil
}
