package table_test

import (
	"testing"

	"github.com/QuerthDP/mimdb/pkg/mimdberrors"
	"github.com/QuerthDP/mimdb/pkg/table"
)

func TestAddColumnFixesRowCount(t *testing.T) {
	tbl := table.New()

	if err := tbl.AddColumn("id", []int64{1, 2, 3}); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if tbl.RowCount() != 3 {
		t.Fatalf("RowCount() = %d, want 3", tbl.RowCount())
	}

	if err := tbl.AddVarcharColumn("name", [][]byte{[]byte("a"), []byte("b"), []byte("c")}); err != nil {
		t.Fatalf("AddVarcharColumn: %v", err)
	}
	if tbl.ColumnCount() != 2 {
		t.Fatalf("ColumnCount() = %d, want 2", tbl.ColumnCount())
	}
}

func TestAddColumnLengthMismatch(t *testing.T) {
	tbl := table.New()
	if err := tbl.AddColumn("id", []int64{1, 2, 3}); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}

	err := tbl.AddColumn("other", []int64{1, 2})
	if !mimdberrors.Is(err, mimdberrors.ColumnLengthMismatch) {
		t.Fatalf("expected ColumnLengthMismatch, got %v", err)
	}
}

func TestAddColumnDuplicateName(t *testing.T) {
	tbl := table.New()
	if err := tbl.AddColumn("id", []int64{1}); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}

	err := tbl.AddColumn("id", []int64{2})
	if !mimdberrors.Is(err, mimdberrors.DuplicateColumn) {
		t.Fatalf("expected DuplicateColumn, got %v", err)
	}
}

func TestAddColumnEmptyName(t *testing.T) {
	tbl := table.New()
	err := tbl.AddColumn("", []int64{1})
	if !mimdberrors.Is(err, mimdberrors.EmptyColumnName) {
		t.Fatalf("expected EmptyColumnName, got %v", err)
	}
}

func TestEmptyTable(t *testing.T) {
	tbl := table.New()
	if tbl.RowCount() != 0 || tbl.ColumnCount() != 0 {
		t.Fatalf("new table should be empty")
	}

	// The first column added to an otherwise-empty table may itself be
	// empty; row count then stays 0 rather than erroring.
	if err := tbl.AddColumn("id", nil); err != nil {
		t.Fatalf("AddColumn(empty): %v", err)
	}
	if tbl.RowCount() != 0 {
		t.Fatalf("RowCount() = %d, want 0", tbl.RowCount())
	}
}

func TestVarcharPreservesArbitraryBytes(t *testing.T) {
	tbl := table.New()
	raw := []byte{0x00, 0xff, 0x41, 0x00}
	if err := tbl.AddVarcharColumn("blob", [][]byte{raw}); err != nil {
		t.Fatalf("AddVarcharColumn: %v", err)
	}

	col, ok := tbl.Column("blob")
	if !ok {
		t.Fatal("column not found")
	}
	if string(col.VarcharValues[0]) != string(raw) {
		t.Fatalf("bytes not preserved: got %v want %v", col.VarcharValues[0], raw)
	}
}

func TestColumnOrderIsInsertionOrder(t *testing.T) {
	tbl := table.New()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		if err := tbl.AddColumn(n, []int64{1}); err != nil {
			t.Fatalf("AddColumn(%q): %v", n, err)
		}
	}

	for i, col := range tbl.Columns() {
		if col.Name != names[i] {
			t.Fatalf("Columns()[%d].Name = %q, want %q", i, col.Name, names[i])
		}
	}
}
