// Package rowdata implements the row instance: a tagged record of
// per-column values plus the row-state bitmap, exactly as described by
// spec's row-instance storage design note — one slot per column, a
// small inline array of 32-bit state words, single-threaded with
// respect to its owning caller.
package rowdata

import (
	"github.com/badgerrow/rowindex/rowerrors"
	"github.com/badgerrow/rowindex/rowstate"
	"github.com/badgerrow/rowindex/schema"
)

// Row is the mutable, caller-owned instance of a declared row type.
// It carries no internal synchronization; callers are responsible for
// not sharing one across goroutines without their own locking.
type Row struct {
	Info    *schema.RowInfo
	values  map[string]any
	state   *rowstate.Bitmap
	colNums map[string]int

	keyNames   []string
	valueNames []string
}

func New(info *schema.RowInfo) *Row {
	keyNames := make([]string, len(info.KeyColumns))
	for i, kc := range info.KeyColumns {
		keyNames[i] = kc.Name
	}
	return &Row{
		Info:       info,
		values:     make(map[string]any, info.NumColumns()),
		state:      rowstate.NewBitmap(info.NumColumns()),
		colNums:    info.ColumnNumbers(),
		keyNames:   keyNames,
		valueNames: info.ValueColumns,
	}
}

func (r *Row) Get(name string) any { return r.values[name] }

// Set assigns a value and marks the column DIRTY.
func (r *Row) Set(name string, v any) {
	r.values[name] = v
	r.state.Set(r.colNums[name], rowstate.Dirty)
}

// SetClean assigns a value and marks the column CLEAN (used by decode
// paths, where the value just came from storage rather than a caller
// mutation).
func (r *Row) SetClean(name string, v any) {
	r.values[name] = v
	r.state.Set(r.colNums[name], rowstate.Clean)
}

func (r *Row) StateOf(name string) rowstate.State {
	return r.state.Get(r.colNums[name])
}

func (r *Row) columnNumbers(names []string) []int {
	nums := make([]int, len(names))
	for i, n := range names {
		nums[i] = r.colNums[n]
	}
	return nums
}

func (r *Row) KeyColumnNames() []string   { return r.keyNames }
func (r *Row) ValueColumnNames() []string { return r.valueNames }

func (r *Row) CheckSet(names []string) bool      { return r.state.CheckSet(r.columnNumbers(names)) }
func (r *Row) CheckAllDirty(names []string) bool { return r.state.CheckAllDirty(r.columnNumbers(names)) }
func (r *Row) CheckAnyDirty(names []string) bool { return r.state.CheckAnyDirty(r.columnNumbers(names)) }

// RequireAllSet checks every column in names; if any is UNSET it
// returns a *rowerrors.RequiredColumnUnset naming every missing one.
func (r *Row) RequireAllSet(names []string) error {
	var missing []string
	for _, n := range names {
		if r.state.Get(r.colNums[n]) == rowstate.Unset {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return rowerrors.NewRequiredColumnUnset(r.Info.Name, missing)
	}
	return nil
}

func (r *Row) MarkAllClean()   { r.state.MarkAllClean(r.Info.NumColumns()) }
func (r *Row) MarkAllUndirty() { r.state.MarkAllUndirty(r.Info.NumColumns()) }

func (r *Row) MarkValuesUnset() {
	r.state.MarkValuesUnset(r.columnNumbers(r.valueNames))
}

func (r *Row) MarkClean(subset []string) {
	r.state.MarkClean(r.Info.NumColumns(), r.columnNumbers(subset))
}

// Reset clears every column reference and every state bit, per the
// table `reset` operation.
func (r *Row) Reset() {
	r.values = make(map[string]any, r.Info.NumColumns())
	r.state.Reset()
}

// Clone returns a row with an independent value map and state bitmap,
// used for exchange's "freshly allocated copy" and for snapshotting
// before a consistency check that might need to roll back.
func (r *Row) Clone() *Row {
	values := make(map[string]any, len(r.values))
	for k, v := range r.values {
		values[k] = v
	}
	return &Row{
		Info:       r.Info,
		values:     values,
		state:      r.state.Clone(),
		colNums:    r.colNums,
		keyNames:   r.keyNames,
		valueNames: r.valueNames,
	}
}

// RestoreFrom copies another row's values and state into r in place,
// used to roll back a snapshot when a load/consistency-check fails.
func (r *Row) RestoreFrom(snap *Row) {
	r.values = make(map[string]any, len(snap.values))
	for k, v := range snap.values {
		r.values[k] = v
	}
	r.state.Restore(snap.state)
}
