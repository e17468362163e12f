// Package format implements MIMDB's on-disk file layout: a fixed header,
// a length-prefixed metadata block describing every column's batches, and
// a payload region holding each batch's codec output back to back.
package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/QuerthDP/mimdb/pkg/codec"
	"github.com/QuerthDP/mimdb/pkg/mimdberrors"
	"github.com/QuerthDP/mimdb/pkg/table"
)

// columnPayload holds one column's batch metadata alongside the
// concatenated compressed bytes of every batch, in batch order.
type columnPayload struct {
	meta    columnMeta
	payload []byte
}

// Write serializes tbl to w using the given batch size and ZSTD level.
// rowsPerBatch below 1 is clamped to 1; there is no maximum.
func Write(w io.Writer, tbl *table.Table, rowsPerBatch, zstdLevel int) error {
	if rowsPerBatch < 1 {
		rowsPerBatch = 1
	}

	columns := tbl.Columns()
	fm := fileMeta{ColumnCount: uint32(len(columns)), RowCount: uint64(tbl.RowCount())}
	payloads := make([][]byte, len(columns))

	for i, col := range columns {
		cp, err := buildColumnPayload(col, rowsPerBatch, zstdLevel)
		if err != nil {
			return err
		}
		fm.Columns = append(fm.Columns, cp.meta)
		payloads[i] = cp.payload
	}

	metaBytes := encodeMeta(&fm)

	var header [headerFixedLen]byte
	copy(header[0:4], magic)
	binary.LittleEndian.PutUint16(header[4:6], currentVersion)
	binary.LittleEndian.PutUint32(header[6:10], uint32(len(metaBytes)))

	if _, err := w.Write(header[:]); err != nil {
		return mimdberrors.Wrap(err, mimdberrors.IoFailure, "writing header")
	}
	if _, err := w.Write(metaBytes); err != nil {
		return mimdberrors.Wrap(err, mimdberrors.IoFailure, "writing metadata block")
	}
	for i, p := range payloads {
		if len(p) == 0 {
			continue
		}
		if _, err := w.Write(p); err != nil {
			return mimdberrors.Wrap(err, mimdberrors.IoFailure, "writing column payload").
				WithDetail("column", columns[i].Name)
		}
	}
	return nil
}

func buildColumnPayload(col *table.Column, rowsPerBatch, zstdLevel int) (*columnPayload, error) {
	n := col.Len()
	cm := columnMeta{Name: col.Name, Type: col.Type, RowCount: uint64(n)}

	var payload bytes.Buffer
	for start := 0; start < n; start += rowsPerBatch {
		end := start + rowsPerBatch
		if end > n {
			end = n
		}

		var compressed []byte
		var uncompressedSize int
		var err error
		switch col.Type {
		case table.Int64:
			compressed, uncompressedSize, err = codec.EncodeInt64Batch(col.Int64Values[start:end], zstdLevel)
		case table.Varchar:
			compressed, uncompressedSize, err = codec.EncodeVarcharBatch(col.VarcharValues[start:end])
		default:
			return nil, mimdberrors.New(mimdberrors.MalformedMetadata, "unknown column type").
				WithDetail("column", col.Name)
		}
		if err != nil {
			return nil, err
		}

		cm.Batches = append(cm.Batches, batchMeta{
			UncompressedSize: uint64(uncompressedSize),
			CompressedSize:   uint64(len(compressed)),
			Rows:             uint64(end - start),
		})
		cm.UncompressedSize += uint64(uncompressedSize)
		cm.CompressedSize += uint64(len(compressed))
		payload.Write(compressed)
	}

	return &columnPayload{meta: cm, payload: payload.Bytes()}, nil
}

// Read deserializes a Table from r, validating the header and metadata
// block before decoding any batch payload.
func Read(r io.Reader) (*table.Table, error) {
	var header [headerFixedLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, mimdberrors.Wrap(err, mimdberrors.IoFailure, "reading header")
	}
	if string(header[0:4]) != magic {
		return nil, mimdberrors.New(mimdberrors.InvalidMagic, "bad magic bytes").
			WithDetail("got", fmt.Sprintf("%x", header[0:4]))
	}
	version := binary.LittleEndian.Uint16(header[4:6])
	if version != currentVersion {
		return nil, mimdberrors.New(mimdberrors.UnsupportedVersion, "unsupported file version").
			WithDetail("version", version).
			WithDetail("supported", currentVersion)
	}
	metaLen := binary.LittleEndian.Uint32(header[6:10])

	metaBytes := make([]byte, metaLen)
	if _, err := io.ReadFull(r, metaBytes); err != nil {
		return nil, mimdberrors.Wrap(err, mimdberrors.IoFailure, "reading metadata block")
	}
	fm, err := decodeMeta(metaBytes)
	if err != nil {
		return nil, err
	}
	if fm.ColumnCount != uint32(len(fm.Columns)) {
		return nil, mimdberrors.New(mimdberrors.MalformedMetadata, "column_count disagrees with columns decoded").
			WithDetail("declared", fm.ColumnCount).
			WithDetail("decoded", len(fm.Columns))
	}

	tbl := table.New()
	for _, cm := range fm.Columns {
		if cm.RowCount != fm.RowCount {
			return nil, mimdberrors.New(mimdberrors.SizeMismatch, "column row_count disagrees with file row_count").
				WithDetail("column", cm.Name).
				WithDetail("declared", cm.RowCount).
				WithDetail("file_row_count", fm.RowCount)
		}
		if err := readColumnInto(tbl, r, cm); err != nil {
			return nil, err
		}
	}

	if fm.RowCount != uint64(tbl.RowCount()) {
		return nil, mimdberrors.New(mimdberrors.SizeMismatch, "file row_count disagrees with decoded table").
			WithDetail("declared", fm.RowCount).
			WithDetail("decoded", tbl.RowCount())
	}

	var probe [1]byte
	n, err := io.ReadFull(r, probe[:])
	if err == nil && n == 1 {
		return nil, mimdberrors.New(mimdberrors.SizeMismatch, "trailing bytes after declared payload region")
	}
	if err != nil && err != io.EOF {
		return nil, mimdberrors.Wrap(err, mimdberrors.IoFailure, "checking for trailing bytes")
	}

	return tbl, nil
}

func readColumnInto(tbl *table.Table, r io.Reader, cm columnMeta) error {
	var batchRowTotal, batchCompressedTotal uint64
	for _, bm := range cm.Batches {
		batchRowTotal += bm.Rows
		batchCompressedTotal += bm.CompressedSize
	}
	if batchRowTotal != cm.RowCount {
		return mimdberrors.New(mimdberrors.SizeMismatch, "column row_count disagrees with its batches").
			WithDetail("column", cm.Name).
			WithDetail("declared", cm.RowCount).
			WithDetail("batch_total", batchRowTotal)
	}
	if batchCompressedTotal != cm.CompressedSize {
		return mimdberrors.New(mimdberrors.SizeMismatch, "column compressed_size disagrees with its batches").
			WithDetail("column", cm.Name).
			WithDetail("declared", cm.CompressedSize).
			WithDetail("batch_total", batchCompressedTotal)
	}

	switch cm.Type {
	case table.Int64:
		values := make([]int64, 0, cm.RowCount)
		for _, bm := range cm.Batches {
			buf := make([]byte, bm.CompressedSize)
			if _, err := io.ReadFull(r, buf); err != nil {
				return mimdberrors.Wrap(err, mimdberrors.IoFailure, "reading batch payload").
					WithDetail("column", cm.Name)
			}
			decoded, err := codec.DecodeInt64Batch(buf, int(bm.Rows), int(bm.UncompressedSize))
			if err != nil {
				return err
			}
			values = append(values, decoded...)
		}
		return tbl.AddColumn(cm.Name, values)

	case table.Varchar:
		values := make([][]byte, 0, cm.RowCount)
		for _, bm := range cm.Batches {
			buf := make([]byte, bm.CompressedSize)
			if _, err := io.ReadFull(r, buf); err != nil {
				return mimdberrors.Wrap(err, mimdberrors.IoFailure, "reading batch payload").
					WithDetail("column", cm.Name)
			}
			decoded, err := codec.DecodeVarcharBatch(buf, int(bm.Rows), int(bm.UncompressedSize))
			if err != nil {
				return err
			}
			values = append(values, decoded...)
		}
		return tbl.AddVarcharColumn(cm.Name, values)

	default:
		return mimdberrors.New(mimdberrors.MalformedMetadata, "unknown column_type").
			WithDetail("column", cm.Name).
			WithDetail("type", cm.Type)
	}
}
