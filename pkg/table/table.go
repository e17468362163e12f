// Package table provides MIMDB's in-memory columnar table model: a closed,
// two-variant column type system (Int64, Varchar) and the Table that
// holds named columns of either kind under a single shared row count.
package table

import (
	"github.com/QuerthDP/mimdb/pkg/mimdberrors"
)

// ColumnType is the closed set of column variants MIMDB supports.
type ColumnType uint8

const (
	// Int64 columns hold signed 64-bit integers.
	Int64 ColumnType = iota
	// Varchar columns hold arbitrary byte strings — not validated UTF-8.
	Varchar
)

// String returns the lowercase wire name of the column type.
func (t ColumnType) String() string {
	switch t {
	case Int64:
		return "int64"
	case Varchar:
		return "varchar"
	default:
		return "unknown"
	}
}

// Column is a single named column: exactly one of Int64Values or
// VarcharValues is populated, selected by Type.
type Column struct {
	Name          string
	Type          ColumnType
	Int64Values   []int64
	VarcharValues [][]byte
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch c.Type {
	case Int64:
		return len(c.Int64Values)
	case Varchar:
		return len(c.VarcharValues)
	default:
		return 0
	}
}

// Table is an ordered collection of columns sharing a single row count.
// Column order is insertion order and is preserved through a
// write/read round trip.
type Table struct {
	columns  []*Column
	byName   map[string]*Column
	rowCount int
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		byName: make(map[string]*Column),
	}
}

// AddColumn appends a new Int64 column to the table.
func (t *Table) AddColumn(name string, data []int64) error {
	col := &Column{Name: name, Type: Int64, Int64Values: data}
	return t.addColumn(col)
}

// AddVarcharColumn appends a new Varchar column to the table. Values are
// arbitrary bytes — embedded zero bytes and invalid UTF-8 are preserved
// unchanged.
func (t *Table) AddVarcharColumn(name string, data [][]byte) error {
	col := &Column{Name: name, Type: Varchar, VarcharValues: data}
	return t.addColumn(col)
}

func (t *Table) addColumn(col *Column) error {
	if col.Name == "" {
		return mimdberrors.New(mimdberrors.EmptyColumnName, "column name must not be empty")
	}
	if _, exists := t.byName[col.Name]; exists {
		return mimdberrors.New(mimdberrors.DuplicateColumn, "column already exists").
			WithDetail("name", col.Name)
	}

	n := col.Len()
	if len(t.columns) == 0 {
		t.rowCount = n
	} else if n != t.rowCount {
		return mimdberrors.New(mimdberrors.ColumnLengthMismatch, "column length disagrees with table row count").
			WithDetail("name", col.Name).
			WithDetail("column_rows", n).
			WithDetail("table_rows", t.rowCount)
	}

	t.columns = append(t.columns, col)
	t.byName[col.Name] = col
	return nil
}

// Column returns the named column and whether it exists.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// Columns returns the table's columns in insertion order. The returned
// slice must not be mutated.
func (t *Table) Columns() []*Column {
	return t.columns
}

// RowCount returns the table's shared row count.
func (t *Table) RowCount() int {
	return t.rowCount
}

// ColumnCount returns the number of columns in the table.
func (t *Table) ColumnCount() int {
	return len(t.columns)
}
