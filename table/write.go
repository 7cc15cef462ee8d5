package table

import (
	"github.com/badgerrow/rowindex/encoding"
	"github.com/badgerrow/rowindex/kv"
	"github.com/badgerrow/rowindex/rowdata"
	"github.com/badgerrow/rowindex/rowerrors"
	"github.com/badgerrow/rowindex/rowstate"
	"github.com/badgerrow/rowindex/schema"
	"github.com/badgerrow/rowindex/trigger"
)

// autoColumnMaxAttempts bounds the automatic-column generate/exists-check
// retry loop of §4.7.1; exhausting it means the generator's range is
// saturated with collisions, a UniquenessViolation either way.
const autoColumnMaxAttempts = 8

type writeVariant int

const (
	variantInsert writeVariant = iota
	variantReplace
	variantStore
	variantExchange
)

// Insert implements spec.md §4.7's `insert`: fails atomically (no write
// occurs) if the key already exists.
func (t *Table) Insert(txn *kv.Transaction, row *rowdata.Row) (bool, error) {
	var ok bool
	err := t.withTxn(txn, false, func(tx *kv.Transaction) error {
		if err := t.ensureAllSet(tx, row, variantInsert); err != nil {
			return err
		}
		key, value, err := t.encodeRow(row)
		if err != nil {
			return err
		}
		release := t.locks.OpenAcquire(t.RowTypeName, key, key, true, true)
		defer release()

		stored, err := t.primary.Insert(tx, key, value)
		if err != nil {
			return err
		}
		if !stored {
			ok = false
			return nil
		}
		if err := t.runHooks(tx, func(h trigger.Hooks) error { return h.Insert(tx, row) }); err != nil {
			return err
		}
		row.MarkAllClean()
		ok = true
		return nil
	})
	return ok, err
}

// Replace implements spec.md §4.7's `replace`: fails (no write occurs)
// if the key does not already exist.
func (t *Table) Replace(txn *kv.Transaction, row *rowdata.Row) (bool, error) {
	var ok bool
	err := t.withTxn(txn, false, func(tx *kv.Transaction) error {
		if err := t.ensureAllSet(tx, row, variantReplace); err != nil {
			return err
		}
		key, value, err := t.encodeRow(row)
		if err != nil {
			return err
		}
		prior, existed, err := t.primary.Load(tx, key)
		if err != nil {
			return err
		}
		if !existed {
			ok = false
			return nil
		}
		if err := t.primary.Store(tx, key, value); err != nil {
			return err
		}
		oldRow, err := t.decodeEntry(key, prior)
		if err != nil {
			return err
		}
		if err := t.runHooks(tx, func(h trigger.Hooks) error { return h.Store(tx, oldRow, row) }); err != nil {
			return err
		}
		row.MarkAllClean()
		ok = true
		return nil
	})
	return ok, err
}

// Store implements spec.md §4.7's `store`: an unconditional put. The
// hook fired is `insert` when the key was previously absent, or
// `store(old,new)` otherwise.
func (t *Table) Store(txn *kv.Transaction, row *rowdata.Row) error {
	_, err := t.exchange(txn, row, variantStore)
	return err
}

// Exchange implements spec.md §4.7's `exchange`: like `store`, but
// returns a freshly allocated copy of the row representing the prior
// value, or nil if there was none.
func (t *Table) Exchange(txn *kv.Transaction, row *rowdata.Row) (*rowdata.Row, error) {
	return t.exchange(txn, row, variantExchange)
}

func (t *Table) exchange(txn *kv.Transaction, row *rowdata.Row, variant writeVariant) (*rowdata.Row, error) {
	var prior *rowdata.Row
	err := t.withTxn(txn, false, func(tx *kv.Transaction) error {
		if err := t.ensureAllSet(tx, row, variant); err != nil {
			return err
		}
		key, value, err := t.encodeRow(row)
		if err != nil {
			return err
		}

		var release func()
		priorBytes, existed, err := t.primary.Load(tx, key)
		if err != nil {
			return err
		}
		if !existed {
			release = t.locks.OpenAcquire(t.RowTypeName, key, key, true, true)
		}
		if err := t.primary.Store(tx, key, value); err != nil {
			if release != nil {
				release()
			}
			return err
		}
		if release != nil {
			release()
		}

		if !existed {
			if err := t.runHooks(tx, func(h trigger.Hooks) error { return h.Insert(tx, row) }); err != nil {
				return err
			}
		} else {
			oldRow, err := t.decodeEntry(key, priorBytes)
			if err != nil {
				return err
			}
			if err := t.runHooks(tx, func(h trigger.Hooks) error { return h.Store(tx, oldRow, row) }); err != nil {
				return err
			}
			prior = oldRow
		}
		row.MarkAllClean()
		return nil
	})
	return prior, err
}

func (t *Table) runHooks(tx *kv.Transaction, withHooks func(trigger.Hooks) error) error {
	return trigger.Run(t.triggers, withHooks, func() error { return nil })
}

func (t *Table) encodeRow(row *rowdata.Row) (key, value []byte, err error) {
	key, err = encoding.EncodePrimaryKey(t.info, row)
	if err != nil {
		return nil, nil, err
	}
	version, err := t.registry.VersionFor(t.RowTypeName, t.info)
	if err != nil {
		return nil, nil, err
	}
	value, err = encoding.EncodeValue(t.info, version, row)
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

// decodeEntry decodes a raw primary key/value pair into a standalone
// Row, used to hand a trigger hook the prior row's materialized state.
func (t *Table) decodeEntry(key, value []byte) (*rowdata.Row, error) {
	row := rowdata.New(t.info)
	if err := encoding.DecodePrimaryKey(t.info, t.info, row, key); err != nil {
		return nil, err
	}
	if err := encoding.DecodeValue(t.registry, t.RowTypeName, t.info, row, value); err != nil {
		return nil, err
	}
	row.MarkAllClean()
	return row, nil
}

// ensureAllSet implements the "require_all_set, or generate-and-retry
// the sole automatic column" rule shared by store/insert/replace/
// exchange (§4.7, §4.7.1). variantReplace never generates: a replace
// without an explicit key would replace an unrelated row.
func (t *Table) ensureAllSet(tx *kv.Transaction, row *rowdata.Row, variant writeVariant) error {
	names := allColumnNames(t.info)
	if row.CheckSet(names) {
		return nil
	}
	auto := t.info.AutomaticColumn()
	if auto == nil || variant == variantReplace || !onlyColumnUnset(row, names, auto.Name) {
		return row.RequireAllSet(names)
	}
	for attempt := 0; attempt < autoColumnMaxAttempts; attempt++ {
		if err := t.generateAutomaticColumn(row, auto); err != nil {
			return err
		}
		key, err := encoding.EncodePrimaryKey(t.info, row)
		if err != nil {
			return err
		}
		exists, err := t.primary.Exists(tx, key)
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}
	}
	return rowerrors.NewUniquenessViolation(t.RowTypeName, auto.Name)
}

func onlyColumnUnset(row *rowdata.Row, names []string, except string) bool {
	if row.StateOf(except) != rowstate.Unset {
		return false
	}
	for _, n := range names {
		if n == except {
			continue
		}
		if row.StateOf(n) == rowstate.Unset {
			return false
		}
	}
	return true
}

// generateAutomaticColumn draws the next value from col's dedicated
// sequence (the key generator owning range [AutoMin, AutoMax), §4.7.1)
// and sets it DIRTY on row.
func (t *Table) generateAutomaticColumn(row *rowdata.Row, col *schema.Column) error {
	seq, err := t.store.Sequence(t.RowTypeName+"."+col.Name, 50)
	if err != nil {
		return err
	}
	n, err := seq.Next()
	if err != nil {
		return err
	}
	row.Set(col.Name, clampToAutomaticRange(int64(n), col))
	return nil
}

// clampToAutomaticRange folds a monotonically increasing sequence value
// into col's declared [AutoMin, AutoMax) range.
func clampToAutomaticRange(v int64, col *schema.Column) int64 {
	span := col.AutoMax - col.AutoMin
	if span <= 0 {
		return col.AutoMin
	}
	return col.AutoMin + v%span
}
