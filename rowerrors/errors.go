// Package rowerrors defines the typed error kinds raised across the
// row/index subsystem: schema construction, encoding, the primary write
// path, and the secondary join scan.
package rowerrors

import (
	"fmt"
	"strings"
)

// MalformedRowType is raised only by schema.Find; it carries every
// defect found while parsing a row type, not just the first.
type MalformedRowType struct {
	RowTypeName string
	Defects     []string
}

func (e *MalformedRowType) Error() string {
	return fmt.Sprintf("malformed row type %s: %s", e.RowTypeName, strings.Join(e.Defects, "; "))
}

// NewMalformedRowType builds a MalformedRowType from a collected defect list.
func NewMalformedRowType(rowTypeName string, defects []string) *MalformedRowType {
	return &MalformedRowType{RowTypeName: rowTypeName, Defects: defects}
}

// RequiredColumnUnset is raised when an operation requires a set of
// columns and at least one of them is UNSET.
type RequiredColumnUnset struct {
	RowTypeName string
	Columns     []string
}

func (e *RequiredColumnUnset) Error() string {
	return fmt.Sprintf("required column(s) unset on %s: %s", e.RowTypeName, strings.Join(e.Columns, ", "))
}

// NewRequiredColumnUnset creates a RequiredColumnUnset naming the missing columns.
func NewRequiredColumnUnset(rowTypeName string, columns []string) *RequiredColumnUnset {
	return &RequiredColumnUnset{RowTypeName: rowTypeName, Columns: columns}
}

// UniquenessViolation is raised on a unique-constraint violation during
// insert or automatic-column key generation.
type UniquenessViolation struct {
	IndexName string
	Key       string
}

func (e *UniquenessViolation) Error() string {
	return fmt.Sprintf("uniqueness violation on index %s for key %s", e.IndexName, e.Key)
}

// NewUniquenessViolation creates a UniquenessViolation.
func NewUniquenessViolation(indexName, key string) *UniquenessViolation {
	return &UniquenessViolation{IndexName: indexName, Key: key}
}

// UnmodifiableView is raised when a write is attempted through a
// secondary view that does not own the primary.
type UnmodifiableView struct {
	IndexName string
	Operation string
}

func (e *UnmodifiableView) Error() string {
	return fmt.Sprintf("index %s is an unmodifiable view: cannot %s", e.IndexName, e.Operation)
}

// NewUnmodifiableView creates an UnmodifiableView error.
func NewUnmodifiableView(indexName, operation string) *UnmodifiableView {
	return &UnmodifiableView{IndexName: indexName, Operation: operation}
}

// ConcurrentSchemaChange is raised when a value is decoded against a
// schema version the registry does not (yet) know about.
type ConcurrentSchemaChange struct {
	RowTypeName string
	Version     uint32
}

func (e *ConcurrentSchemaChange) Error() string {
	return fmt.Sprintf("concurrent schema change on %s: unknown schema version %d", e.RowTypeName, e.Version)
}

// NewConcurrentSchemaChange creates a ConcurrentSchemaChange error.
func NewConcurrentSchemaChange(rowTypeName string, version uint32) *ConcurrentSchemaChange {
	return &ConcurrentSchemaChange{RowTypeName: rowTypeName, Version: version}
}

// CorruptEncoding is raised when bytes are inconsistent with the codec
// that is decoding them: truncated entries, invalid UTF-8, or an
// ambiguous toPrimaryKey form.
type CorruptEncoding struct {
	Reason string
}

func (e *CorruptEncoding) Error() string {
	return fmt.Sprintf("corrupt encoding: %s", e.Reason)
}

// NewCorruptEncoding creates a CorruptEncoding error with a reason.
func NewCorruptEncoding(reason string) *CorruptEncoding {
	return &CorruptEncoding{Reason: reason}
}

// DatabaseClosed is raised when the schema registry (or underlying
// store) is gone and an in-flight operation cannot complete.
type DatabaseClosed struct{}

func (e *DatabaseClosed) Error() string { return "database closed" }

// NewDatabaseClosed creates a DatabaseClosed error.
func NewDatabaseClosed() *DatabaseClosed { return &DatabaseClosed{} }

// LockTimeout is surfaced untouched from the lock manager and wrapped
// here only so callers can type-switch on it alongside the other kinds.
type LockTimeout struct {
	Key string
}

func (e *LockTimeout) Error() string {
	return fmt.Sprintf("lock timeout acquiring %s", e.Key)
}

// NewLockTimeout creates a LockTimeout error.
func NewLockTimeout(key string) *LockTimeout {
	return &LockTimeout{Key: key}
}

// NoSuchRow reports that no row exists under a key. Load reports a miss
// as a bool rather than with this error; Update and Merge return it
// when the row to update is absent.
type NoSuchRow struct {
	RowTypeName string
	Key         string
}

func (e *NoSuchRow) Error() string {
	return fmt.Sprintf("no such row in %s for key %s", e.RowTypeName, e.Key)
}

// NewNoSuchRow creates a NoSuchRow error.
func NewNoSuchRow(rowTypeName, key string) *NoSuchRow {
	return &NoSuchRow{RowTypeName: rowTypeName, Key: key}
}
