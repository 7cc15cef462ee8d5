package table

import (
	"github.com/badgerrow/rowindex/encoding"
	"github.com/badgerrow/rowindex/kv"
	"github.com/badgerrow/rowindex/rowdata"
	"github.com/badgerrow/rowindex/rowerrors"
	"github.com/badgerrow/rowindex/rowstate"
	"github.com/badgerrow/rowindex/transform"
	"github.com/badgerrow/rowindex/trigger"
)

// Update implements spec.md §4.7's `update`: CLEAN columns are left
// unchanged, DIRTY columns transition to CLEAN, and UNSET columns stay
// UNSET (row.MarkAllUndirty).
func (t *Table) Update(txn *kv.Transaction, row *rowdata.Row) error {
	return t.withTxn(txn, false, func(tx *kv.Transaction) error {
		return t.doUpdate(tx, row, false)
	})
}

// Merge implements spec.md §4.7's `merge`: the stored value's
// untouched columns are decoded back into the row so every column ends
// up CLEAN and populated, as if the row had just been loaded.
func (t *Table) Merge(txn *kv.Transaction, row *rowdata.Row) error {
	return t.withTxn(txn, false, func(tx *kv.Transaction) error {
		return t.doUpdate(tx, row, true)
	})
}

func (t *Table) doUpdate(tx *kv.Transaction, row *rowdata.Row, merge bool) error {
	if err := t.requireKeySet(row); err != nil {
		return err
	}
	key, err := encoding.EncodePrimaryKey(t.info, row)
	if err != nil {
		return err
	}

	oldValue, existed, err := t.primary.Load(tx, key)
	if err != nil {
		return err
	}
	if !existed {
		return rowerrors.NewNoSuchRow(t.RowTypeName, string(key))
	}

	if row.CheckAllDirty(row.ValueColumnNames()) {
		version, err := t.registry.VersionFor(t.RowTypeName, t.info)
		if err != nil {
			return err
		}
		newValue, err := encoding.EncodeValue(t.info, version, row)
		if err != nil {
			return err
		}
		if err := t.primary.Store(tx, key, newValue); err != nil {
			return err
		}
		if err := t.runHooks(tx, func(h trigger.Hooks) error { return h.Update(tx, row, key, oldValue, newValue) }); err != nil {
			return err
		}
		row.MarkAllClean()
		return nil
	}

	newValue, err := transform.UpdateValue(t.registry, t.RowTypeName, t.info, row, oldValue)
	if err != nil {
		return err
	}
	if err := t.primary.Store(tx, key, newValue); err != nil {
		return err
	}
	if err := t.runHooks(tx, func(h trigger.Hooks) error { return h.Update(tx, row, key, oldValue, newValue) }); err != nil {
		return err
	}

	if merge {
		scratch := rowdata.New(t.info)
		if err := encoding.DecodeValue(t.registry, t.RowTypeName, t.info, scratch, oldValue); err != nil {
			return err
		}
		for _, name := range row.ValueColumnNames() {
			if row.StateOf(name) != rowstate.Dirty {
				row.SetClean(name, scratch.Get(name))
			}
		}
		row.MarkAllClean()
		return nil
	}

	row.MarkAllUndirty()
	return nil
}
