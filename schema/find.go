package schema

import (
	"fmt"
	"sort"

	"github.com/badgerrow/rowindex/rowerrors"
)

// ColumnSpec is a single column as declared by the caller of Find,
// before any validation or reduction.
type ColumnSpec struct {
	Name      string
	Kind      Kind
	BitSize   int
	Unsigned  bool
	Nullable  bool
	Boxed     bool
	Hidden    bool
	Automatic bool
	AutoMin   int64
	AutoMax   int64
	Elem      *ColumnSpec
}

// IndexColumnSpec references a declared column with the direction and
// null-ordering a particular key wants for it. Dir/NullLow are ignored
// (and Unspecified is implied) when the column is only present because
// it was absorbed from the primary key.
type IndexColumnSpec struct {
	Name        string
	Dir         Direction
	NullLow     bool
	Unspecified bool
}

// RowTypeSpec is the raw input to Find: a row type's declared columns
// and index column lists, exactly as the caller's accessor/mutator
// introspection would produce them.
type RowTypeSpec struct {
	Name             string
	Columns          []ColumnSpec
	PrimaryKey       []IndexColumnSpec
	AlternateKeys    [][]IndexColumnSpec
	SecondaryIndexes [][]IndexColumnSpec
}

// Find parses spec into a RowInfo, collecting every defect it finds
// rather than stopping at the first one. A non-empty defect list is
// returned as a single *rowerrors.MalformedRowType.
func Find(spec RowTypeSpec) (*RowInfo, error) {
	var defects []string

	allColumns := make(map[string]*Column, len(spec.Columns))
	for _, cs := range spec.Columns {
		if cs.Name == "" {
			defects = append(defects, "column with empty name")
			continue
		}
		if _, dup := allColumns[cs.Name]; dup {
			defects = append(defects, fmt.Sprintf("duplicate column %q", cs.Name))
			continue
		}
		col := &Column{
			Name:      cs.Name,
			Kind:      cs.Kind,
			BitSize:   cs.BitSize,
			Unsigned:  cs.Unsigned,
			Nullable:  cs.Nullable,
			Boxed:     cs.Boxed,
			Hidden:    cs.Hidden,
			Automatic: cs.Automatic,
			AutoMin:   cs.AutoMin,
			AutoMax:   cs.AutoMax,
		}
		if cs.Elem != nil {
			col.Elem = &Column{Name: cs.Elem.Name, Kind: cs.Elem.Kind, BitSize: cs.Elem.BitSize, Unsigned: cs.Elem.Unsigned, Nullable: cs.Elem.Nullable, Boxed: cs.Elem.Boxed}
		}
		if col.Nullable && col.isPrimitiveValueKind() && !col.Boxed {
			defects = append(defects, fmt.Sprintf("column %q is both nullable and a primitive value type", cs.Name))
		}
		allColumns[cs.Name] = col
	}

	var autoCols []string
	for _, col := range allColumns {
		if !col.Automatic {
			continue
		}
		autoCols = append(autoCols, col.Name)
		if col.Kind != KindInt {
			defects = append(defects, fmt.Sprintf("automatic column %q is not an integer type", col.Name))
		}
		if col.AutoMin >= col.AutoMax {
			defects = append(defects, fmt.Sprintf("automatic column %q has an empty range [%d, %d)", col.Name, col.AutoMin, col.AutoMax))
		}
	}
	if len(autoCols) > 1 {
		sort.Strings(autoCols)
		defects = append(defects, fmt.Sprintf("more than one automatic column: %v", autoCols))
	}

	pkNames, pkCols, pkDefects := resolveColumnRefs(allColumns, spec.PrimaryKey, "primary key")
	defects = append(defects, pkDefects...)
	if len(autoCols) == 1 && len(pkCols) > 0 && pkCols[len(pkCols)-1].Name != autoCols[0] {
		defects = append(defects, fmt.Sprintf("automatic column %q must be the last primary-key column", autoCols[0]))
	}

	pkNameSet := make(map[string]bool, len(pkNames))
	for _, n := range pkNames {
		pkNameSet[n] = true
	}

	var altKeys []ColumnSet
	for i, ik := range spec.AlternateKeys {
		names, cols, altDefects := resolveColumnRefs(allColumns, ik, fmt.Sprintf("alternate key #%d", i+1))
		defects = append(defects, altDefects...)
		if len(altDefects) > 0 {
			continue
		}
		if containsAll(names, pkNames) {
			defects = append(defects, fmt.Sprintf("alternate key #%d contains every primary-key column", i+1))
			continue
		}
		altKeys = append(altKeys, reduceIndexColumns(pkCols, cols, true))
	}

	var secIdx []ColumnSet
	for i, ik := range spec.SecondaryIndexes {
		_, cols, secDefects := resolveColumnRefs(allColumns, ik, fmt.Sprintf("secondary index #%d", i+1))
		defects = append(defects, secDefects...)
		if len(secDefects) > 0 {
			continue
		}
		secIdx = append(secIdx, reduceIndexColumns(pkCols, cols, false))
	}

	altKeys = dedupeColumnSets(altKeys)
	secIdx = dedupeColumnSets(secIdx)
	secIdx = removePrimaryKeyIndex(secIdx, pkNames)

	if len(defects) > 0 {
		return nil, rowerrors.NewMalformedRowType(spec.Name, defects)
	}

	valueColumns := make([]string, 0, len(allColumns)-len(pkNames))
	for name := range allColumns {
		if !pkNameSet[name] {
			valueColumns = append(valueColumns, name)
		}
	}
	sort.Strings(valueColumns)

	return &RowInfo{
		Name:             spec.Name,
		AllColumns:       allColumns,
		KeyColumns:       pkCols,
		ValueColumns:     valueColumns,
		AlternateKeys:    altKeys,
		SecondaryIndexes: secIdx,
	}, nil
}

// resolveColumnRefs validates a declared column-reference list (no
// unknown columns, no repeats, not empty) and returns both the bare
// names (declaration order) and the IndexColumn forms.
func resolveColumnRefs(all map[string]*Column, refs []IndexColumnSpec, what string) ([]string, []IndexColumn, []string) {
	var defects []string
	if len(refs) == 0 {
		return nil, nil, []string{fmt.Sprintf("%s is empty", what)}
	}
	seen := make(map[string]bool, len(refs))
	names := make([]string, 0, len(refs))
	cols := make([]IndexColumn, 0, len(refs))
	for _, r := range refs {
		if _, ok := all[r.Name]; !ok {
			defects = append(defects, fmt.Sprintf("%s references unknown column %q", what, r.Name))
			continue
		}
		if seen[r.Name] {
			defects = append(defects, fmt.Sprintf("%s repeats column %q", what, r.Name))
			continue
		}
		seen[r.Name] = true
		names = append(names, r.Name)
		cols = append(cols, IndexColumn{Name: r.Name, Dir: r.Dir, NullLow: r.NullLow, Unspecified: r.Unspecified})
	}
	return names, cols, defects
}

func containsAll(set []string, want []string) bool {
	present := make(map[string]bool, len(set))
	for _, s := range set {
		present[s] = true
	}
	for _, w := range want {
		if !present[w] {
			return false
		}
	}
	return true
}

// reduceIndexColumns absorbs any primary-key column missing from an
// index's declared key. Alternate keys (already unique by declaration)
// recover the gap through the value columns; plain secondary indexes
// (not inherently unique) append the gap to the key itself so that
// cursor iteration order deterministically identifies one row.
func reduceIndexColumns(pk []IndexColumn, declared []IndexColumn, unique bool) ColumnSet {
	present := make(map[string]bool, len(declared))
	for _, c := range declared {
		present[c.Name] = true
	}
	var missing []string
	for _, p := range pk {
		if !present[p.Name] {
			missing = append(missing, p.Name)
		}
	}
	keyCols := append([]IndexColumn(nil), declared...)
	var valueCols []string
	if unique {
		valueCols = missing
	} else {
		for _, m := range missing {
			keyCols = append(keyCols, IndexColumn{Name: m, Unspecified: true})
		}
	}
	return ColumnSet{KeyColumns: keyCols, ValueColumns: valueCols}
}

// dedupeColumnSets orders candidates so the one with more
// fully-specified directions sorts first, then drops later duplicates
// whose key names match (ignoring direction) an earlier, kept entry.
func dedupeColumnSets(sets []ColumnSet) []ColumnSet {
	sort.SliceStable(sets, func(i, j int) bool {
		return specificity(sets[i]) > specificity(sets[j])
	})
	var out []ColumnSet
	seen := make(map[string]bool)
	for _, cs := range sets {
		key := fmt.Sprint(cs.keyNames())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, cs)
	}
	return out
}

func specificity(cs ColumnSet) int {
	n := 0
	for _, kc := range cs.KeyColumns {
		if !kc.Unspecified {
			n++
		}
	}
	return n
}

// removePrimaryKeyIndex drops any secondary index whose key is exactly
// the primary key: a row type is never its own secondary index.
func removePrimaryKeyIndex(sets []ColumnSet, pkNames []string) []ColumnSet {
	var out []ColumnSet
	for _, cs := range sets {
		if sameNames(cs.keyNames(), pkNames) {
			continue
		}
		out = append(out, cs)
	}
	return out
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
