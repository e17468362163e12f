package format

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/QuerthDP/mimdb/pkg/mimdberrors"
	"github.com/QuerthDP/mimdb/pkg/table"
)

func buildSampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New()
	if err := tbl.AddColumn("id", []int64{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if err := tbl.AddVarcharColumn("name", [][]byte{
		[]byte("alice"), []byte("bob"), []byte("carol"), []byte("dave"), []byte("eve"),
	}); err != nil {
		t.Fatalf("AddVarcharColumn: %v", err)
	}
	return tbl
}

func TestRoundTripAcrossBatchSizes(t *testing.T) {
	for _, rowsPerBatch := range []int{1, 2, 3, 5, 6, 100000} {
		tbl := buildSampleTable(t)

		var buf bytes.Buffer
		if err := Write(&buf, tbl, rowsPerBatch, 3); err != nil {
			t.Fatalf("rowsPerBatch=%d Write: %v", rowsPerBatch, err)
		}

		got, err := Read(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("rowsPerBatch=%d Read: %v", rowsPerBatch, err)
		}

		if got.RowCount() != tbl.RowCount() || got.ColumnCount() != tbl.ColumnCount() {
			t.Fatalf("rowsPerBatch=%d: shape mismatch", rowsPerBatch)
		}
		idCol, ok := got.Column("id")
		if !ok {
			t.Fatalf("rowsPerBatch=%d: missing id column", rowsPerBatch)
		}
		if !equalInt64(idCol.Int64Values, []int64{1, 2, 3, 4, 5}) {
			t.Fatalf("rowsPerBatch=%d: id mismatch: %v", rowsPerBatch, idCol.Int64Values)
		}
		nameCol, ok := got.Column("name")
		if !ok {
			t.Fatalf("rowsPerBatch=%d: missing name column", rowsPerBatch)
		}
		want := []string{"alice", "bob", "carol", "dave", "eve"}
		for i, w := range want {
			if string(nameCol.VarcharValues[i]) != w {
				t.Fatalf("rowsPerBatch=%d: name[%d] = %q, want %q", rowsPerBatch, i, nameCol.VarcharValues[i], w)
			}
		}
	}
}

func TestRoundTripEmptyTable(t *testing.T) {
	tbl := table.New()
	var buf bytes.Buffer
	if err := Write(&buf, tbl, 100, 3); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.ColumnCount() != 0 || got.RowCount() != 0 {
		t.Fatalf("expected empty table, got %d columns / %d rows", got.ColumnCount(), got.RowCount())
	}
}

func TestRoundTripBoundaryInt64Values(t *testing.T) {
	tbl := table.New()
	values := []int64{math.MinInt64, -1, 0, 1, math.MaxInt64}
	if err := tbl.AddColumn("v", values); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, tbl, 2, 3); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	col, _ := got.Column("v")
	if !equalInt64(col.Int64Values, values) {
		t.Fatalf("got %v, want %v", col.Int64Values, values)
	}
}

func TestRoundTripZeroBatchClampsToOne(t *testing.T) {
	tbl := buildSampleTable(t)
	var buf bytes.Buffer
	if err := Write(&buf, tbl, 0, 3); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.RowCount() != tbl.RowCount() {
		t.Fatalf("rows_per_batch=0 should clamp to 1, not change content")
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	tbl := buildSampleTable(t)
	var buf bytes.Buffer
	if err := Write(&buf, tbl, 2, 3); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data := buf.Bytes()
	data[0] = 'X'

	_, err := Read(bytes.NewReader(data))
	if !mimdberrors.Is(err, mimdberrors.InvalidMagic) {
		t.Fatalf("expected InvalidMagic, got %v", err)
	}
}

func TestReadRejectsUnsupportedVersion(t *testing.T) {
	tbl := buildSampleTable(t)
	var buf bytes.Buffer
	if err := Write(&buf, tbl, 2, 3); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data := buf.Bytes()
	data[4] = 99

	_, err := Read(bytes.NewReader(data))
	if !mimdberrors.Is(err, mimdberrors.UnsupportedVersion) {
		t.Fatalf("expected UnsupportedVersion, got %v", err)
	}
}

func TestReadRejectsTrailingBytes(t *testing.T) {
	tbl := buildSampleTable(t)
	var buf bytes.Buffer
	if err := Write(&buf, tbl, 2, 3); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data := append(buf.Bytes(), 0xAB)

	_, err := Read(bytes.NewReader(data))
	if !mimdberrors.Is(err, mimdberrors.SizeMismatch) {
		t.Fatalf("expected SizeMismatch for trailing bytes, got %v", err)
	}
}

func TestReadRejectsCorruptedColumnCompressedSize(t *testing.T) {
	tbl := buildSampleTable(t)
	var buf bytes.Buffer
	if err := Write(&buf, tbl, 2, 3); err != nil {
		t.Fatalf("Write: %v", err)
	}

	metaLen := metaLenFromHeader(buf.Bytes())
	fm, err := decodeMeta(buf.Bytes()[headerFixedLen : headerFixedLen+metaLen])
	if err != nil {
		t.Fatalf("decodeMeta: %v", err)
	}
	fm.Columns[0].CompressedSize++
	corruptMeta := encodeMeta(fm)

	var rebuilt bytes.Buffer
	rebuilt.Write(buf.Bytes()[:headerFixedLen])
	rebuilt.Write(corruptMeta)
	rebuilt.Write(buf.Bytes()[headerFixedLen+metaLen:])

	_, err = Read(bytes.NewReader(rebuilt.Bytes()))
	if !mimdberrors.Is(err, mimdberrors.SizeMismatch) {
		t.Fatalf("expected SizeMismatch for a compressed_size disagreeing with its batches, got %v", err)
	}
}

func TestLargeColumnRoundTripRespectsSizeRatio(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large-column round trip in short mode")
	}

	const rowCount = 10_000_000
	const rowsPerBatch = 100_000

	values := make([]int64, rowCount)
	for i := range values {
		values[i] = int64(i)
	}
	tbl := table.New()
	if err := tbl.AddColumn("id", values); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, tbl, rowsPerBatch, 3); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rawSize := rowCount * 8
	if buf.Len() >= rawSize/4 {
		t.Fatalf("sequential int64 column compressed to %d bytes, want well under 1/4 of raw %d bytes", buf.Len(), rawSize)
	}

	got, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.RowCount() != rowCount {
		t.Fatalf("got %d rows, want %d", got.RowCount(), rowCount)
	}
	idCol, _ := got.Column("id")
	if idCol.Int64Values[0] != 0 || idCol.Int64Values[rowCount-1] != int64(rowCount-1) {
		t.Fatalf("boundary values mismatch: first=%d last=%d", idCol.Int64Values[0], idCol.Int64Values[rowCount-1])
	}
}

func metaLenFromHeader(data []byte) int {
	return int(binary.LittleEndian.Uint32(data[6:10]))
}

func TestReadRejectsTruncatedFileWithoutPanicking(t *testing.T) {
	tbl := buildSampleTable(t)
	var buf bytes.Buffer
	if err := Write(&buf, tbl, 2, 3); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data := buf.Bytes()

	for _, cut := range []int{0, 1, 5, 9, len(data) / 2, len(data) - 1} {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Read panicked on truncated input (cut=%d): %v", cut, r)
				}
			}()
			_, _ = Read(bytes.NewReader(data[:cut]))
		}()
	}
}

func equalInt64(a, b []int64) bool {
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
