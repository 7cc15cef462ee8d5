// Package joinscan implements the secondary/joined scan and its
// join-update routing (spec's component C8): walking a secondary or
// alternate index's cursor range, recovering each entry's primary key,
// materializing the full primary row, and re-validating it against the
// secondary entry before handing it to the caller. Grounded on the
// teacher's LookupIndex (pkg/resource/badger/index.go), generalized
// from a single hash-index point lookup to a bounded, ordered cursor
// join with isolation-aware re-validation.
package joinscan

import (
	"bytes"

	"github.com/badgerrow/rowindex/encoding"
	"github.com/badgerrow/rowindex/kv"
	"github.com/badgerrow/rowindex/rowdata"
	"github.com/badgerrow/rowindex/rowerrors"
	"github.com/badgerrow/rowindex/schema"
	"github.com/badgerrow/rowindex/table"
)

// Binding names one secondary/alternate index a Scan can walk: the
// reduced ColumnSet schema.Find produced for it, the kv.Index it is
// stored under, and whether it is unique (an alternate key, whose
// value half recovers the primary-key columns its key does not
// already carry).
type Binding struct {
	Name    string
	Columns schema.ColumnSet
	Index   *kv.Index
	Unique  bool
}

// Filter is applied after a row has been loaded and consistency
// checked; it never sees a row whose secondary entry already failed
// validation.
type Filter func(*rowdata.Row) bool

// Range is the secondary cursor's scan bounds, spec.md §4.8's
// (lowBound, lowInclusive, highBound, highInclusive, reverse) tuple. A
// nil Low/High means unbounded on that side.
type Range struct {
	Low, High                   []byte
	LowInclusive, HighInclusive bool
	Reverse                     bool
}

type state int

const (
	statePositioned state = iota
	stateNeedJoin
	stateEmitted
	stateDone
)

// Scan walks binding's cursor range inside txn, joining each entry to
// its fully materialized, consistency-checked primary row.
type Scan struct {
	tbl     *table.Table
	binding Binding
	txn     *kv.Transaction
	rng     Range
	filter  Filter

	cur        *kv.Cursor
	closeGuard func()
	state      state
}

// Open begins a scan. txn must be non-nil: the predicate-lock guard
// and any row locks the join acquires are scoped to the caller's
// transaction, per spec.md §4.8's "a predicate lock is added so that
// new rows inserted into the range during a repeatable-read
// transaction are blocked." A scan directly over a secondary always
// registers an exclusive-style guard (OpenAcquire has no weaker mode)
// since secondary entries move freely on every write that touches
// their indexed columns, unlike the primary's own key space.
func Open(tbl *table.Table, binding Binding, txn *kv.Transaction, rng Range, filter Filter) *Scan {
	closeGuard := tbl.Locks().OpenAcquire(binding.Name, rng.Low, rng.High, rng.LowInclusive, rng.HighInclusive)
	cur := binding.Index.Cursor(txn, rng.Reverse)
	seekStart(cur, rng)
	return &Scan{
		tbl:        tbl,
		binding:    binding,
		txn:        txn,
		rng:        rng,
		filter:     filter,
		cur:        cur,
		closeGuard: closeGuard,
		state:      statePositioned,
	}
}

// Close releases the cursor and the range's predicate-lock guard. Safe
// to call once a scan has reached Done; callers should still call it
// explicitly on every exit path (early break, error, panic recovery)
// since Scan itself does not know when the caller is finished.
func (s *Scan) Close() {
	s.cur.Reset()
	if s.closeGuard != nil {
		s.closeGuard()
		s.closeGuard = nil
	}
}

// Next advances to the next secondary entry whose join succeeds,
// skipping any that fail the absence check, the READ_COMMITTED
// re-validation, or the secondary-vs-primary consistency check. It
// returns ok=false with a nil row and error once the range is
// exhausted.
func (s *Scan) Next() (*rowdata.Row, bool, error) {
	if s.state == stateDone {
		return nil, false, nil
	}
	for s.cur.Valid() && !beyondRange(s.cur.Key(), s.rng) {
		s.state = stateNeedJoin
		secKey := append([]byte(nil), s.cur.Key()...)
		var secValue []byte
		if s.binding.Unique {
			v, err := s.cur.Value()
			if err != nil {
				return nil, false, err
			}
			secValue = v
		}

		row, ok, err := s.join(secKey, secValue)
		s.cur.Next()
		if err != nil {
			return nil, false, err
		}
		if ok {
			s.state = stateEmitted
			return row, true, nil
		}
	}
	s.state = stateDone
	return nil, false, nil
}

// join implements spec.md §4.8's per-entry steps 1-4.
func (s *Scan) join(secKey, secValue []byte) (*rowdata.Row, bool, error) {
	info := s.tbl.Info()

	keyVals, err := decodeColumnSetKey(info, s.binding.Columns.KeyColumns, secKey)
	if err != nil {
		return nil, false, err
	}
	var valVals map[string]any
	if s.binding.Unique {
		valVals, err = decodeColumnSetValue(info, s.binding.Columns.ValueColumns, secValue)
		if err != nil {
			return nil, false, err
		}
	}
	pkKey, err := buildPrimaryKey(info, keyVals, valVals)
	if err != nil {
		return nil, false, err
	}

	row := rowdata.New(info)
	if err := encoding.DecodePrimaryKey(info, info, row, pkKey); err != nil {
		return nil, false, err
	}

	secRelease := s.tbl.Locks().OpenAcquire(s.binding.Name, secKey, secKey, true, true)
	s.txn.RecordLock(s.binding.Name, secKey, true)
	secJustAcquired := true

	primaryRelease := s.tbl.Locks().OpenAcquire(s.tbl.RowTypeName, pkKey, pkKey, true, true)
	s.txn.RecordLock(s.tbl.RowTypeName, pkKey, true)
	primaryJustAcquired := true

	release := func() {
		primaryRelease()
		secRelease()
	}

	emit, err := s.joinLocked(row, info, keyVals, pkKey, secKey, secJustAcquired, primaryJustAcquired)
	if emit {
		release()
	} else {
		s.txn.UnlockCombine(release)
	}
	if err != nil {
		return nil, false, err
	}
	if !emit {
		return nil, false, nil
	}
	return row, true, nil
}

func (s *Scan) joinLocked(row *rowdata.Row, info *schema.RowInfo, keyVals map[string]any, pkKey, secKey []byte, secJustAcquired, primaryJustAcquired bool) (bool, error) {
	value, found, err := s.tbl.Primary().Load(s.txn, pkKey)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil // step 3: primary row absent, skip
	}

	if s.txn.LockMode() == kv.ReadCommitted {
		stillExists, err := s.binding.Index.Exists(s.txn, secKey)
		if err != nil {
			return false, err
		}
		if !stillExists {
			return false, nil // concurrently deleted between acquire and load
		}
	}

	snapshot := row.Clone()
	if err := encoding.DecodeValue(s.tbl.Registry(), s.tbl.RowTypeName, info, row, value); err != nil {
		return false, err
	}

	if s.needsConsistencyCheck(secJustAcquired, primaryJustAcquired) {
		ok, err := checkConsistency(info, s.binding.Columns.KeyColumns, keyVals, row)
		if err != nil {
			return false, err
		}
		if !ok {
			row.RestoreFrom(snapshot)
			return false, nil
		}
	}

	row.MarkAllClean()
	if s.filter != nil && !s.filter(row) {
		return false, nil
	}
	return true, nil
}

// needsConsistencyCheck implements spec.md §4.8 step 4's condition:
// under non-repeatable isolation the snapshot could be stale the
// instant it is read, so the check always runs; under repeatable read
// it is only needed when this join did not hold both row locks fresh
// (an outer caller's pre-existing lock already guarantees the row
// can't have drifted out from under it).
func (s *Scan) needsConsistencyCheck(secJustAcquired, primaryJustAcquired bool) bool {
	if s.txn.LockMode() != kv.RepeatableRead {
		return true
	}
	return !secJustAcquired || !primaryJustAcquired
}

// checkConsistency compares each declared secondary/alternate-key
// column — excluding any that belong to the primary key, whether
// directly declared or absorbed by reduceIndexColumns — against the
// value just decoded into row, using the column's own comparison
// semantics (codec.Codec.Compare), which may be asymmetric with
// respect to the encoded key's byte order.
func checkConsistency(info *schema.RowInfo, keyColumns []schema.IndexColumn, keyVals map[string]any, row *rowdata.Row) (bool, error) {
	pkNames := make(map[string]bool, len(info.KeyColumns))
	for _, kc := range info.KeyColumns {
		pkNames[kc.Name] = true
	}
	for _, ic := range keyColumns {
		if pkNames[ic.Name] {
			continue
		}
		col := info.AllColumns[ic.Name]
		c := encoding.ColumnKeyCodec(col, ic)
		if c.Compare(keyVals[ic.Name], row.Get(ic.Name)) != 0 {
			return false, nil
		}
	}
	return true, nil
}

// RejectDirectWrite reports the error a caller gets for trying to
// write through binding directly instead of routing through the
// primary table's write path (spec.md §4.8's join-update rule).
func RejectDirectWrite(binding Binding, operation string) error {
	return rowerrors.NewUnmodifiableView(binding.Name, operation)
}

// Update, Merge, and Delete route a pending edit on row through the
// primary table rather than writing to the secondary being scanned, so
// the primary's trigger fires and every secondary (including this one)
// stays in sync.
func (s *Scan) Update(row *rowdata.Row) error { return s.tbl.Update(s.txn, row) }
func (s *Scan) Merge(row *rowdata.Row) error  { return s.tbl.Merge(s.txn, row) }
func (s *Scan) Delete(row *rowdata.Row) error { return s.tbl.Delete(s.txn, row) }

func seekStart(cur *kv.Cursor, rng Range) {
	if !rng.Reverse {
		if rng.Low == nil {
			cur.First()
			return
		}
		cur.Find(rng.Low)
		if !rng.LowInclusive && cur.Valid() && bytes.Equal(cur.Key(), rng.Low) {
			cur.Next()
		}
		return
	}
	if rng.High == nil {
		cur.First()
		return
	}
	cur.Find(rng.High)
	if !rng.HighInclusive && cur.Valid() && bytes.Equal(cur.Key(), rng.High) {
		cur.Next()
	}
}

func beyondRange(key []byte, rng Range) bool {
	if !rng.Reverse {
		if rng.High == nil {
			return false
		}
		cmp := bytes.Compare(key, rng.High)
		return cmp > 0 || (cmp == 0 && !rng.HighInclusive)
	}
	if rng.Low == nil {
		return false
	}
	cmp := bytes.Compare(key, rng.Low)
	return cmp < 0 || (cmp == 0 && !rng.LowInclusive)
}
