// Package trigger implements the copy-on-write trigger protocol (spec's
// component C6): a small read-shared, copy-on-write object that a
// primary table consults on every write to decide whether, and how, to
// propagate the write to its secondaries. Styled after the teacher's
// IndexManager (pkg/resource/badger/index.go), a small RWMutex-guarded
// manager, generalized here to guard a single swappable value instead
// of a map.
package trigger

import (
	"sync"

	"github.com/badgerrow/rowindex/rowdata"
)

// Mode is a trigger's current propagation mode.
type Mode int

const (
	// Active means before-commit hooks must run inside the write's
	// transaction.
	Active Mode = iota
	// Skip means no hooks run, but the shared lock is still held for
	// the duration of the operation so a concurrent swap is observed
	// atomically.
	Skip
	// Disabled means this trigger instance has been superseded; a
	// caller observing it must release and re-read the table's current
	// trigger.
	Disabled
)

// Hooks are the before-commit callbacks an ACTIVE trigger invokes for
// each primary write operation, propagating it to every secondary
// inside the same transaction. txn is passed through untouched — this
// package has no opinion on its shape.
type Hooks interface {
	Insert(txn any, row *rowdata.Row) error
	Store(txn any, oldRow, newRow *rowdata.Row) error
	Update(txn any, row *rowdata.Row, key, oldValue, newValue []byte) error
	Delete(txn any, row *rowdata.Row, key, oldValue []byte) error
}

// Trigger is a copy-on-write value: once built it is never mutated
// except by disable, which a replacing Holder calls to mark it
// superseded and drain any reader that had already acquired its shared
// lock before the swap. Readers never see a Trigger transition from
// ACTIVE/SKIP back to either — only forward, to DISABLED.
type Trigger struct {
	mu    sync.RWMutex
	mode  Mode
	hooks Hooks
}

// New builds an ACTIVE or SKIP trigger (a DISABLED one is only ever
// produced internally by disable, never constructed directly). hooks is
// ignored for SKIP.
func New(mode Mode, hooks Hooks) *Trigger {
	return &Trigger{mode: mode, hooks: hooks}
}

// disable marks t superseded, blocking until every reader that already
// holds t's shared lock has released it — the drain barrier a Holder
// relies on before publishing a replacement.
func (t *Trigger) disable() {
	t.mu.Lock()
	t.mode = Disabled
	t.mu.Unlock()
}

// LockShared acquires t's shared lock for the duration of one
// operation and reports the mode observed at acquisition time. The
// caller must call Unlock exactly once, regardless of mode.
func (t *Trigger) LockShared() Mode {
	t.mu.RLock()
	return t.mode
}

// Unlock releases the shared lock acquired by LockShared.
func (t *Trigger) Unlock() {
	t.mu.RUnlock()
}

// HooksFor returns t's hooks; only meaningful when LockShared reported
// Active.
func (t *Trigger) HooksFor() Hooks {
	return t.hooks
}
