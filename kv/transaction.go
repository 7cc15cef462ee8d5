package kv

import "github.com/dgraph-io/badger/v4"

// IsolationLevel is the read-consistency level a Transaction observes,
// matching the two levels spec.md's scan/join machinery distinguishes
// (§4.8's READ_COMMITTED re-validation branch vs. repeatable-read
// predicate locking).
type IsolationLevel int

const (
	RepeatableRead IsolationLevel = iota
	ReadCommitted
)

// Transaction implements the `Transaction` contract of spec.md §6.2
// (enter/exit/commit, lock_mode, last_locked_key/index, unlock_combine)
// over a single *badger.Txn. "enter"/"exit" model the nested scope a
// trigger hook opens inside an outer write (badger itself has no
// native nested-transaction primitive, so nesting here is a depth
// counter plus a stack of scoped closers run once the outermost scope
// exits) — grounded on the teacher's TransactionManager
// (pkg/resource/badger/transaction.go), generalized from an
// externally-keyed map of transactions to one value a caller owns
// directly.
type Transaction struct {
	txn       *badger.Txn
	isolation IsolationLevel

	depth   int
	closers []func() error

	lastLockedIndex string
	lastLockedKey   []byte
	lockJustAcquired bool
}

// Badger exposes the underlying *badger.Txn for Index/Cursor methods in
// this package; callers outside kv should not need it.
func (t *Transaction) Badger() *badger.Txn { return t.txn }

// Enter opens a nested scope (e.g. a trigger hook's secondary writes
// running inside the primary write's transaction).
func (t *Transaction) Enter() { t.depth++ }

// Exit closes one nested scope; once the outermost scope exits, every
// closer registered via AddCloser runs, in reverse registration order
// (cursors, predicate-lock guards), matching the "every acquired
// resource is released on every exit path" rule of spec.md §4's
// resource model.
func (t *Transaction) Exit() error {
	t.depth--
	if t.depth > 0 {
		return nil
	}
	var first error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	t.closers = nil
	return first
}

// AddCloser registers fn to run when the outermost scope exits.
func (t *Transaction) AddCloser(fn func() error) {
	t.closers = append(t.closers, fn)
}

// Commit commits the underlying Badger transaction.
func (t *Transaction) Commit() error { return t.txn.Commit() }

// Discard abandons the underlying Badger transaction without
// committing, releasing its resources.
func (t *Transaction) Discard() { t.txn.Discard() }

// LockMode reports this transaction's isolation level.
func (t *Transaction) LockMode() IsolationLevel { return t.isolation }

// LastLockedKey and LastLockedIndex report the most recent row lock
// this transaction recorded via RecordLock, for UnlockCombine.
func (t *Transaction) LastLockedKey() []byte    { return t.lastLockedKey }
func (t *Transaction) LastLockedIndex() string  { return t.lastLockedIndex }

// RecordLock is called by joinscan right after it acquires a row lock,
// so a later UnlockCombine knows whether that lock was acquired inside
// this same call (and therefore safe to release early) or was already
// held by an outer caller.
func (t *Transaction) RecordLock(indexName string, key []byte, justAcquired bool) {
	t.lastLockedIndex = indexName
	t.lastLockedKey = key
	t.lockJustAcquired = justAcquired
}

// UnlockCombine runs release only if the most recently recorded lock
// was acquired in this same call (spec.md §9's open question 2: never
// release a caller-owned lock from an outer transaction).
func (t *Transaction) UnlockCombine(release func()) {
	if t.lockJustAcquired && release != nil {
		release()
	}
	t.lockJustAcquired = false
}
