// Package table implements the primary table operations (spec's
// component C7): load/exists/store/insert/replace/exchange/update/
// merge/delete/reset, wired to the kv Badger adapter, the copy-on-write
// trigger protocol, and the transform pipeline's partial-update and
// secondary-propagation helpers. Grounded on the teacher's
// BadgerDataSource.Insert/Update/Delete
// (pkg/resource/badger/datasource.go), generalized from one
// JSON-blob-per-row table to the codec-driven, versioned row model of
// this subsystem.
package table

import (
	"go.uber.org/zap"

	"github.com/badgerrow/rowindex/encoding"
	"github.com/badgerrow/rowindex/kv"
	"github.com/badgerrow/rowindex/rowdata"
	"github.com/badgerrow/rowindex/schema"
	"github.com/badgerrow/rowindex/trigger"
)

// Table owns one row type's primary storage: its KV index, the shared
// schema registry used to version encoded values, and the copy-on-write
// trigger that propagates writes to secondaries.
type Table struct {
	RowTypeName string

	info     *schema.RowInfo
	store    *kv.Store
	primary  *kv.Index
	registry encoding.SchemaRegistry
	triggers *trigger.Holder
	locks    *kv.PredicateLock
	logger   *zap.Logger
}

// New builds a Table over store's "row:<rowTypeName>:" index. triggers
// may be nil, meaning no trigger is installed yet (every write runs
// with no hooks, same as trigger.Run's holder.Current()==nil case).
func New(store *kv.Store, registry encoding.SchemaRegistry, info *schema.RowInfo, rowTypeName string, triggers *trigger.Holder, locks *kv.PredicateLock, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	if triggers == nil {
		triggers = trigger.NewHolder(nil)
	}
	if locks == nil {
		locks = kv.NewPredicateLock()
	}
	return &Table{
		RowTypeName: rowTypeName,
		info:        info,
		store:       store,
		primary:     store.Index(rowTypeName),
		registry:    registry,
		triggers:    triggers,
		locks:       locks,
		logger:      logger,
	}
}

func (t *Table) Info() *schema.RowInfo     { return t.info }
func (t *Table) Triggers() *trigger.Holder { return t.triggers }
func (t *Table) Locks() *kv.PredicateLock  { return t.locks }
func (t *Table) Primary() *kv.Index        { return t.primary }
func (t *Table) Registry() encoding.SchemaRegistry { return t.registry }
func (t *Table) KVStore() *kv.Store        { return t.store }

// withTxn runs fn against txn, or against a freshly begun transaction
// (committed on success, discarded on error) when txn is nil — the
// "may be null meaning auto-commit" clause of the primary table
// operations.
func (t *Table) withTxn(txn *kv.Transaction, readOnly bool, fn func(*kv.Transaction) error) error {
	if txn != nil {
		return fn(txn)
	}
	own := t.store.Begin(readOnly, kv.RepeatableRead)
	if err := fn(own); err != nil {
		own.Discard()
		return err
	}
	if readOnly {
		own.Discard()
		return nil
	}
	return own.Commit()
}

func (t *Table) requireKeySet(row *rowdata.Row) error {
	return row.RequireAllSet(row.KeyColumnNames())
}

func allColumnNames(info *schema.RowInfo) []string {
	names := make([]string, 0, info.NumColumns())
	for _, kc := range info.KeyColumns {
		names = append(names, kc.Name)
	}
	names = append(names, info.ValueColumns...)
	return names
}

// Load implements spec.md §4.7's `load`: on a miss every value column
// is cleared to UNSET; on a hit the value is decoded and every column
// (key included) ends up CLEAN.
func (t *Table) Load(txn *kv.Transaction, row *rowdata.Row) (bool, error) {
	if err := t.requireKeySet(row); err != nil {
		return false, err
	}
	key, err := encoding.EncodePrimaryKey(t.info, row)
	if err != nil {
		return false, err
	}

	var found bool
	err = t.withTxn(txn, true, func(tx *kv.Transaction) error {
		value, ok, err := t.primary.Load(tx, key)
		if err != nil {
			return err
		}
		if !ok {
			row.MarkValuesUnset()
			return nil
		}
		if err := encoding.DecodeValue(t.registry, t.RowTypeName, t.info, row, value); err != nil {
			return err
		}
		row.MarkAllClean()
		found = true
		return nil
	})
	return found, err
}

// Exists implements spec.md §4.7's `exists`.
func (t *Table) Exists(txn *kv.Transaction, row *rowdata.Row) (bool, error) {
	if err := t.requireKeySet(row); err != nil {
		return false, err
	}
	key, err := encoding.EncodePrimaryKey(t.info, row)
	if err != nil {
		return false, err
	}
	var exists bool
	err = t.withTxn(txn, true, func(tx *kv.Transaction) error {
		var err error
		exists, err = t.primary.Exists(tx, key)
		return err
	})
	return exists, err
}

// Reset implements spec.md §4.7's `reset`: every column reference and
// every state word is cleared.
func (t *Table) Reset(row *rowdata.Row) { row.Reset() }
