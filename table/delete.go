package table

import (
	"github.com/badgerrow/rowindex/encoding"
	"github.com/badgerrow/rowindex/kv"
	"github.com/badgerrow/rowindex/rowdata"
	"github.com/badgerrow/rowindex/trigger"
)

// Delete implements spec.md §4.7's `delete`. When no trigger is
// installed at all, the KV delete is issued directly with no read;
// otherwise the old value is read first so an installed (non-SKIP)
// trigger's delete hook can propagate the removal to secondaries.
func (t *Table) Delete(txn *kv.Transaction, row *rowdata.Row) error {
	return t.withTxn(txn, false, func(tx *kv.Transaction) error {
		if err := t.requireKeySet(row); err != nil {
			return err
		}
		key, err := encoding.EncodePrimaryKey(t.info, row)
		if err != nil {
			return err
		}

		if t.triggers.Current() == nil {
			return t.primary.Delete(tx, key)
		}

		oldValue, existed, err := t.primary.Load(tx, key)
		if err != nil {
			return err
		}
		if existed {
			if err := t.runHooks(tx, func(h trigger.Hooks) error {
				return h.Delete(tx, row, key, oldValue)
			}); err != nil {
				return err
			}
		}
		return t.primary.Delete(tx, key)
	})
}
