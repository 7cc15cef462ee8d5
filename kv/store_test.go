package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	opts := DefaultOptions("")
	opts.InMemory = true
	store, err := Open(opts, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIndexInsertLoadExists(t *testing.T) {
	store := openTestStore(t)
	idx := store.Index("person")

	txn := store.Begin(false, RepeatableRead)
	defer txn.Discard()

	ok, err := idx.Insert(txn, []byte("k1"), []byte("v1"))
	require.NoError(t, err)
	assert.True(t, ok)

	exists, err := idx.Exists(txn, []byte("k1"))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = idx.Exists(txn, []byte("k2"))
	require.NoError(t, err)
	assert.False(t, exists)

	value, found, err := idx.Load(txn, []byte("k1"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v1"), value)

	require.NoError(t, txn.Commit())
}

func TestIndexInsertFailsWhenKeyExists(t *testing.T) {
	store := openTestStore(t)
	idx := store.Index("person")

	txn := store.Begin(false, RepeatableRead)
	ok, err := idx.Insert(txn, []byte("k1"), []byte("v1"))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, txn.Commit())

	txn2 := store.Begin(false, RepeatableRead)
	defer txn2.Discard()
	ok, err = idx.Insert(txn2, []byte("k1"), []byte("v2"))
	require.NoError(t, err)
	assert.False(t, ok, "insert must fail when the key already exists")
}

func TestIndexReplaceFailsWhenKeyAbsent(t *testing.T) {
	store := openTestStore(t)
	idx := store.Index("person")

	txn := store.Begin(false, RepeatableRead)
	defer txn.Discard()
	ok, err := idx.Replace(txn, []byte("missing"), []byte("v"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIndexExchangeReturnsPriorValue(t *testing.T) {
	store := openTestStore(t)
	idx := store.Index("person")

	txn := store.Begin(false, RepeatableRead)
	_, err := idx.Insert(txn, []byte("k1"), []byte("old"))
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	txn2 := store.Begin(false, RepeatableRead)
	defer txn2.Discard()
	prior, ok, err := idx.Exchange(txn2, []byte("k1"), []byte("new"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("old"), prior)

	value, _, err := idx.Load(txn2, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), value)
}

func TestCursorForwardAndReverseIteration(t *testing.T) {
	store := openTestStore(t)
	idx := store.Index("byCity")

	txn := store.Begin(false, RepeatableRead)
	for _, k := range []string{"a", "b", "c"} {
		_, err := idx.Insert(txn, []byte(k), []byte("v-"+k))
		require.NoError(t, err)
	}
	require.NoError(t, txn.Commit())

	txn2 := store.Begin(true, RepeatableRead)
	defer txn2.Discard()

	cur := idx.Cursor(txn2, false)
	defer cur.Reset()
	var forward []string
	for cur.First(); cur.Valid(); cur.Next() {
		forward = append(forward, string(cur.Key()))
	}
	assert.Equal(t, []string{"a", "b", "c"}, forward)

	rcur := idx.Cursor(txn2, true)
	defer rcur.Reset()
	var reverse []string
	for rcur.First(); rcur.Valid(); rcur.Next() {
		reverse = append(reverse, string(rcur.Key()))
	}
	assert.Equal(t, []string{"c", "b", "a"}, reverse)
}

func TestCursorStoreAndDelete(t *testing.T) {
	store := openTestStore(t)
	idx := store.Index("byCity")

	txn := store.Begin(false, RepeatableRead)
	_, err := idx.Insert(txn, []byte("a"), []byte("v1"))
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	txn2 := store.Begin(false, RepeatableRead)
	cur := idx.Cursor(txn2, false)
	cur.Find([]byte("a"))
	require.True(t, cur.Valid())
	require.NoError(t, cur.Store([]byte("v2")))
	cur.Reset()
	require.NoError(t, txn2.Commit())

	txn3 := store.Begin(true, RepeatableRead)
	defer txn3.Discard()
	value, _, err := idx.Load(txn3, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)
}

func TestSequenceMonotonic(t *testing.T) {
	store := openTestStore(t)
	seq, err := store.Sequence("Event.id", 10)
	require.NoError(t, err)

	n1, err := seq.Next()
	require.NoError(t, err)
	n2, err := seq.Next()
	require.NoError(t, err)
	assert.Greater(t, n2, n1)
}

func TestPredicateLockGuardsOpenRange(t *testing.T) {
	lock := NewPredicateLock()
	release := lock.OpenAcquire("byCity", []byte("London"), []byte("Paris"), true, true)

	assert.True(t, lock.AddGuard("byCity", []byte("Madrid")))
	assert.False(t, lock.AddGuard("byCity", []byte("Amsterdam")))
	assert.False(t, lock.AddGuard("otherIndex", []byte("Madrid")))

	release()
	assert.False(t, lock.AddGuard("byCity", []byte("Madrid")), "range no longer guarded after release")
}

func TestTransactionUnlockCombineOnlyReleasesOwnLock(t *testing.T) {
	store := openTestStore(t)
	txn := store.Begin(true, ReadCommitted)
	defer txn.Discard()

	released := false
	txn.RecordLock("byCity", []byte("k1"), true)
	txn.UnlockCombine(func() { released = true })
	assert.True(t, released, "a lock acquired in this call is released")

	released = false
	txn.RecordLock("byCity", []byte("k1"), false)
	txn.UnlockCombine(func() { released = true })
	assert.False(t, released, "a caller-owned lock from an outer transaction is never released early")
}

func TestTransactionExitRunsClosersOnlyAtDepthZero(t *testing.T) {
	store := openTestStore(t)
	txn := store.Begin(true, RepeatableRead)
	defer txn.Discard()

	var ran []int
	txn.AddCloser(func() error { ran = append(ran, 1); return nil })
	txn.Enter()
	txn.AddCloser(func() error { ran = append(ran, 2); return nil })

	require.NoError(t, txn.Exit())
	assert.Empty(t, ran, "nested scope exit must not run closers yet")

	require.NoError(t, txn.Exit())
	assert.Equal(t, []int{2, 1}, ran, "outermost exit runs closers in reverse registration order")
}
