package kv

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// Index is one ordered key sub-range inside a Store: a primary index or
// a single secondary/alternate index, each given its own key prefix so
// they coexist inside one Badger database without colliding, the same
// scheme as the teacher's PrefixRow/PrefixIndex constants
// (pkg/resource/badger/types.go), generalized from two fixed prefixes
// to one per declared index.
type Index struct {
	store  *Store
	name   string
	prefix []byte
}

func (ix *Index) fullKey(key []byte) []byte {
	buf := make([]byte, len(ix.prefix)+len(key))
	n := copy(buf, ix.prefix)
	copy(buf[n:], key)
	return buf
}

// Exists reports whether key is present.
func (ix *Index) Exists(t *Transaction, key []byte) (bool, error) {
	_, err := t.txn.Get(ix.fullKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Load returns key's value, or ok=false on a miss.
func (ix *Index) Load(t *Transaction, key []byte) (value []byte, ok bool, err error) {
	item, err := t.txn.Get(ix.fullKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value, err = item.ValueCopy(nil)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Insert writes key/value only if key is not already present.
func (ix *Index) Insert(t *Transaction, key, value []byte) (bool, error) {
	exists, err := ix.Exists(t, key)
	if err != nil || exists {
		return false, err
	}
	if err := t.txn.Set(ix.fullKey(key), value); err != nil {
		return false, err
	}
	return true, nil
}

// Replace overwrites key's value only if key is already present.
func (ix *Index) Replace(t *Transaction, key, value []byte) (bool, error) {
	exists, err := ix.Exists(t, key)
	if err != nil || !exists {
		return false, err
	}
	if err := t.txn.Set(ix.fullKey(key), value); err != nil {
		return false, err
	}
	return true, nil
}

// Store writes key/value unconditionally.
func (ix *Index) Store(t *Transaction, key, value []byte) error {
	return t.txn.Set(ix.fullKey(key), value)
}

// Exchange writes key/value unconditionally and returns the prior
// value, or ok=false if there was none.
func (ix *Index) Exchange(t *Transaction, key, value []byte) (prior []byte, ok bool, err error) {
	prior, ok, err = ix.Load(t, key)
	if err != nil {
		return nil, false, err
	}
	if err := t.txn.Set(ix.fullKey(key), value); err != nil {
		return nil, false, err
	}
	return prior, ok, nil
}

// Delete removes key, if present.
func (ix *Index) Delete(t *Transaction, key []byte) error {
	return t.txn.Delete(ix.fullKey(key))
}

// Cursor opens an iterator over this index's key range, in forward or
// reverse order.
func (ix *Index) Cursor(t *Transaction, reverse bool) *Cursor {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = reverse
	opts.Prefix = ix.prefix
	return &Cursor{index: ix, txn: t, it: t.txn.NewIterator(opts), reverse: reverse}
}
