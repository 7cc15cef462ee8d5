package table

import (
	"github.com/badgerrow/rowindex/encoding"
	"github.com/badgerrow/rowindex/kv"
	"github.com/badgerrow/rowindex/rowdata"
	"github.com/badgerrow/rowindex/schema"
	"github.com/badgerrow/rowindex/transform"
	"github.com/badgerrow/rowindex/trigger"
)

// SecondaryBinding pairs one declared alternate key or secondary index
// (spec.md §3.1's ColumnSet) with the kv.Index it is stored under.
// Unique marks an alternate key, whose reduced value columns recover
// the primary key (schema.Find's reduceIndexColumns); a plain
// secondary index instead absorbs the primary key into its key and
// carries no value half.
type SecondaryBinding struct {
	Name    string
	Columns schema.ColumnSet
	Index   *kv.Index
	Unique  bool
}

// NewSecondaryPropagator builds the trigger.Hooks that keep every
// binding in sync with a Table's primary writes, one Maker per write so
// identical column encodings are shared across bindings (spec.md
// §4.5). Grounded on the teacher's BadgerDataSource.updateIndexes
// (pkg/resource/badger/datasource.go: remove-then-add per indexed
// column), generalized from one add/remove-by-string-value pair per
// unique/primary column to a full key+value rebuild per declared
// ColumnSet.
func NewSecondaryPropagator(t *Table, bindings []SecondaryBinding) trigger.Hooks {
	return &secondaryPropagator{table: t, bindings: bindings}
}

type secondaryPropagator struct {
	table    *Table
	bindings []SecondaryBinding
}

func (p *secondaryPropagator) Insert(txn any, row *rowdata.Row) error {
	tx := txn.(*kv.Transaction)
	maker := transform.NewMaker(p.table.registry, p.table.RowTypeName, p.table.info, row, nil, nil)
	for _, b := range p.bindings {
		if err := p.put(tx, maker, b); err != nil {
			return err
		}
	}
	return nil
}

func (p *secondaryPropagator) Store(txn any, oldRow, newRow *rowdata.Row) error {
	tx := txn.(*kv.Transaction)
	if oldRow != nil {
		oldMaker := transform.NewMaker(p.table.registry, p.table.RowTypeName, p.table.info, oldRow, nil, nil)
		for _, b := range p.bindings {
			if err := p.remove(tx, oldMaker, b); err != nil {
				return err
			}
		}
	}
	newMaker := transform.NewMaker(p.table.registry, p.table.RowTypeName, p.table.info, newRow, nil, nil)
	for _, b := range p.bindings {
		if err := p.put(tx, newMaker, b); err != nil {
			return err
		}
	}
	return nil
}

func (p *secondaryPropagator) Update(txn any, row *rowdata.Row, key, oldValue, newValue []byte) error {
	tx := txn.(*kv.Transaction)

	// A plain Maker over row would resolve a DIRTY column (one the
	// caller just changed) to its new value even when building the
	// "old" encoding — row carries only one value per column, not a
	// before/after pair. Decode a fully CLEAN snapshot from oldValue so
	// the old maker sees every column, touched or not, as it stood
	// before this update.
	oldRow := rowdata.New(p.table.info)
	if err := encoding.DecodePrimaryKey(p.table.info, p.table.info, oldRow, key); err != nil {
		return err
	}
	if err := encoding.DecodeValue(p.table.registry, p.table.RowTypeName, p.table.info, oldRow, oldValue); err != nil {
		return err
	}
	oldMaker := transform.NewMaker(p.table.registry, p.table.RowTypeName, p.table.info, oldRow, key, oldValue)
	for _, b := range p.bindings {
		if err := p.remove(tx, oldMaker, b); err != nil {
			return err
		}
	}

	// The Maker fills UNSET columns in from newValue as it goes; give it
	// a copy so the caller's row keeps its UNSET columns UNSET.
	newMaker := transform.NewMaker(p.table.registry, p.table.RowTypeName, p.table.info, row.Clone(), key, newValue)
	for _, b := range p.bindings {
		if err := p.put(tx, newMaker, b); err != nil {
			return err
		}
	}
	return nil
}

func (p *secondaryPropagator) Delete(txn any, row *rowdata.Row, key, oldValue []byte) error {
	tx := txn.(*kv.Transaction)
	maker := transform.NewMaker(p.table.registry, p.table.RowTypeName, p.table.info, row, key, oldValue)
	for _, b := range p.bindings {
		if err := p.remove(tx, maker, b); err != nil {
			return err
		}
	}
	return nil
}

func (p *secondaryPropagator) put(tx *kv.Transaction, maker *transform.Maker, b SecondaryBinding) error {
	key, value, err := p.build(maker, b)
	if err != nil {
		return err
	}
	return b.Index.Store(tx, key, value)
}

func (p *secondaryPropagator) remove(tx *kv.Transaction, maker *transform.Maker, b SecondaryBinding) error {
	key, _, err := p.build(maker, b)
	if err != nil {
		return err
	}
	return b.Index.Delete(tx, key)
}

func (p *secondaryPropagator) build(maker *transform.Maker, b SecondaryBinding) (key, value []byte, err error) {
	key, err = maker.Build(transform.Target{Name: b.Name, Columns: b.Columns, IsKey: true})
	if err != nil {
		return nil, nil, err
	}
	if b.Unique {
		value, err = maker.Build(transform.Target{Name: b.Name, Columns: b.Columns, IsKey: false})
		if err != nil {
			return nil, nil, err
		}
	}
	return key, value, nil
}
