package schema

// ColumnSet is the reduced representation of an alternate key or a
// secondary index: an ordered key (with per-column direction) plus the
// value columns needed to recover the primary key (empty for a plain,
// non-unique secondary, which relies entirely on its absorbed key).
type ColumnSet struct {
	KeyColumns   []IndexColumn
	ValueColumns []string
}

func (cs ColumnSet) keyNames() []string {
	names := make([]string, len(cs.KeyColumns))
	for i, kc := range cs.KeyColumns {
		names[i] = kc.Name
	}
	return names
}

// RowInfo is the canonical, immutable description of a row type:
// its columns, primary key, alternate keys, and secondary indexes.
// Construct with Find; never build one by hand.
type RowInfo struct {
	Name string

	// AllColumns is keyed by name; iteration order is not meaningful,
	// use KeyColumns/ValueColumns for positional order.
	AllColumns map[string]*Column

	KeyColumns   []IndexColumn // primary key, declaration order
	ValueColumns []string      // non-key columns, sorted by name

	AlternateKeys    []ColumnSet
	SecondaryIndexes []ColumnSet
}

// ColumnNumbers returns the contiguous column numbering used by
// rowstate.Bitmap: primary-key columns first (declaration order), then
// value columns (sorted order).
func (ri *RowInfo) ColumnNumbers() map[string]int {
	nums := make(map[string]int, len(ri.KeyColumns)+len(ri.ValueColumns))
	n := 0
	for _, kc := range ri.KeyColumns {
		nums[kc.Name] = n
		n++
	}
	for _, name := range ri.ValueColumns {
		nums[name] = n
		n++
	}
	return nums
}

func (ri *RowInfo) NumColumns() int {
	return len(ri.KeyColumns) + len(ri.ValueColumns)
}

// AutomaticColumn returns the single automatic primary-key column, if
// any (invariant: it is always the last primary-key column).
func (ri *RowInfo) AutomaticColumn() *Column {
	if len(ri.KeyColumns) == 0 {
		return nil
	}
	last := ri.AllColumns[ri.KeyColumns[len(ri.KeyColumns)-1].Name]
	if last != nil && last.Automatic {
		return last
	}
	return nil
}
