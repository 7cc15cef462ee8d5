package kv

import "github.com/dgraph-io/badger/v4"

// Cursor implements the cursor vocabulary of spec.md §6.1
// (new_cursor/find/value/store/delete/reset/first/next) over a
// badger.Iterator scoped to one Index's key prefix.
type Cursor struct {
	index   *Index
	txn     *Transaction
	it      *badger.Iterator
	reverse bool
}

// First positions the cursor at the first key in iteration order
// (lowest for forward, highest for reverse) within the index's range.
func (c *Cursor) First() {
	if !c.reverse {
		c.it.Seek(c.index.prefix)
		return
	}
	if end := prefixUpperBound(c.index.prefix); end != nil {
		c.it.Seek(end)
	} else {
		c.it.Seek(append(append([]byte{}, c.index.prefix...), maxKeySuffix...))
	}
}

// Find positions the cursor at key, or the nearest key past it in
// iteration order if key itself is absent.
func (c *Cursor) Find(key []byte) {
	c.it.Seek(c.index.fullKey(key))
}

// Next advances the cursor one position.
func (c *Cursor) Next() { c.it.Next() }

// Valid reports whether the cursor is positioned on a key still inside
// its index's range.
func (c *Cursor) Valid() bool { return c.it.ValidForPrefix(c.index.prefix) }

// Key returns the current entry's key with the index's prefix
// stripped — the bytes a codec pipeline actually decodes.
func (c *Cursor) Key() []byte {
	full := c.it.Item().KeyCopy(nil)
	return full[len(c.index.prefix):]
}

// Value returns the current entry's value.
func (c *Cursor) Value() ([]byte, error) {
	return c.it.Item().ValueCopy(nil)
}

// Store overwrites the current entry's value in place.
func (c *Cursor) Store(value []byte) error {
	return c.txn.txn.Set(c.it.Item().KeyCopy(nil), value)
}

// Delete removes the current entry.
func (c *Cursor) Delete() error {
	return c.txn.txn.Delete(c.it.Item().KeyCopy(nil))
}

// Reset releases the cursor's iterator. A Cursor is single-use after
// Reset; callers open a new one via Index.Cursor.
func (c *Cursor) Reset() { c.it.Close() }

// maxKeySuffix bounds a reverse scan's starting point when prefix is
// already all 0xFF bytes (prefixUpperBound has no successor to seek
// to); 8 bytes of 0xFF sorts after any realistic encoded key body.
var maxKeySuffix = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// prefixUpperBound returns the lexicographically smallest byte string
// that is strictly greater than every string starting with prefix, or
// nil if prefix is all 0xFF (no finite successor).
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
