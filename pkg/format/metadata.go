package format

import (
	"encoding/binary"
	"io"

	"github.com/QuerthDP/mimdb/pkg/mimdberrors"
	"github.com/QuerthDP/mimdb/pkg/table"
)

const (
	magic          = "MIMD"
	currentVersion = uint16(1)
	headerFixedLen = 4 + 2 + 4 // magic + version + metadata_length
)

type batchMeta struct {
	UncompressedSize uint64
	CompressedSize   uint64
	Rows             uint64
}

type columnMeta struct {
	Name             string
	Type             table.ColumnType
	UncompressedSize uint64
	CompressedSize   uint64
	RowCount         uint64
	Batches          []batchMeta
}

type fileMeta struct {
	ColumnCount uint32
	RowCount    uint64
	Columns     []columnMeta
}

func encodeMeta(m *fileMeta) []byte {
	var buf []byte
	buf = appendU32(buf, m.ColumnCount)
	buf = appendU64(buf, m.RowCount)
	for _, cm := range m.Columns {
		buf = appendU32(buf, uint32(len(cm.Name)))
		buf = append(buf, cm.Name...)
		buf = append(buf, byte(cm.Type))
		buf = appendU64(buf, cm.UncompressedSize)
		buf = appendU64(buf, cm.CompressedSize)
		buf = appendU64(buf, cm.RowCount)
		buf = appendU32(buf, uint32(len(cm.Batches)))
		for _, bm := range cm.Batches {
			buf = appendU64(buf, bm.UncompressedSize)
			buf = appendU64(buf, bm.CompressedSize)
			buf = appendU64(buf, bm.Rows)
		}
	}
	return buf
}

func decodeMeta(raw []byte) (*fileMeta, error) {
	c := &cursor{buf: raw}

	columnCount, err := c.readU32()
	if err != nil {
		return nil, malformed("column_count", err)
	}
	rowCount, err := c.readU64()
	if err != nil {
		return nil, malformed("row_count", err)
	}

	m := &fileMeta{ColumnCount: columnCount, RowCount: rowCount}
	for i := uint32(0); i < columnCount; i++ {
		nameLen, err := c.readU32()
		if err != nil {
			return nil, malformed("name_length", err)
		}
		name, err := c.readString(int(nameLen))
		if err != nil {
			return nil, malformed("name", err)
		}
		colType, err := c.readU8()
		if err != nil {
			return nil, malformed("column_type", err)
		}
		uncompressedSize, err := c.readU64()
		if err != nil {
			return nil, malformed("uncompressed_size", err)
		}
		compressedSize, err := c.readU64()
		if err != nil {
			return nil, malformed("compressed_size", err)
		}
		colRowCount, err := c.readU64()
		if err != nil {
			return nil, malformed("column row_count", err)
		}
		batchCount, err := c.readU32()
		if err != nil {
			return nil, malformed("batch_count", err)
		}

		cm := columnMeta{
			Name:             name,
			Type:             table.ColumnType(colType),
			UncompressedSize: uncompressedSize,
			CompressedSize:   compressedSize,
			RowCount:         colRowCount,
		}
		for j := uint32(0); j < batchCount; j++ {
			bUncompressed, err := c.readU64()
			if err != nil {
				return nil, malformed("batch uncompressed_size", err)
			}
			bCompressed, err := c.readU64()
			if err != nil {
				return nil, malformed("batch compressed_size", err)
			}
			bRows, err := c.readU64()
			if err != nil {
				return nil, malformed("batch rows", err)
			}
			cm.Batches = append(cm.Batches, batchMeta{
				UncompressedSize: bUncompressed,
				CompressedSize:   bCompressed,
				Rows:             bRows,
			})
		}
		m.Columns = append(m.Columns, cm)
	}
	return m, nil
}

func malformed(field string, cause error) error {
	return mimdberrors.Wrap(cause, mimdberrors.MalformedMetadata, "decoding metadata field").
		WithDetail("field", field)
}

func appendU32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendU64(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// cursor is a bounds-checked reader over an in-memory metadata block.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) readU8() (byte, error) {
	b, err := c.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readU64() (uint64, error) {
	b, err := c.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) readString(n int) (string, error) {
	b, err := c.readBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
