package codec

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"

	"github.com/QuerthDP/mimdb/pkg/mimdberrors"
)

// EncodeVarcharBatch frames each string as a 4-byte little-endian length
// followed by its raw bytes, concatenates the batch, and compresses the
// result with a raw LZ4 block — no LZ4 frame header, frame descriptor, or
// end mark. The codec adds no outer framing of its own: the returned byte
// slice is the exact bytes that belong on disk, and its length is the
// batch's compressed_size.
// The returned uncompressedSize is the length of the length-prefix-framed
// byte stream before LZ4 compression, as recorded in a batch's metadata
// entry; decoding needs it back, since a raw LZ4 block carries no size of
// its own.
//
// When the framed data does not compress (lz4.Compressor.CompressBlock
// returns 0, or would not shrink the input), the framed bytes are stored
// unchanged instead. The read path tells the two cases apart without an
// extra flag byte: a stored batch's compressed_size always equals its
// uncompressed_size.
func EncodeVarcharBatch(values [][]byte) (compressed []byte, uncompressedSize int, err error) {
	if len(values) == 0 {
		return nil, 0, nil
	}

	framed := frameVarchars(values)

	dst := make([]byte, lz4.CompressBlockBound(len(framed)))
	var c lz4.Compressor
	n, cErr := c.CompressBlock(framed, dst)
	if cErr != nil {
		return nil, 0, mimdberrors.Wrap(cErr, mimdberrors.CodecFailure, "lz4 block compression failed")
	}
	if n == 0 || n >= len(framed) {
		return framed, len(framed), nil
	}
	return dst[:n], len(framed), nil
}

// DecodeVarcharBatch reverses EncodeVarcharBatch, decoding exactly
// rowCount byte strings. uncompressedSize is the batch's declared
// length-prefix-framed byte length, from the batch's metadata entry: the
// LZ4 block must decompress to exactly that many bytes.
func DecodeVarcharBatch(compressed []byte, rowCount int, uncompressedSize int) ([][]byte, error) {
	if rowCount == 0 {
		return nil, nil
	}
	if len(compressed) == 0 {
		return nil, mimdberrors.New(mimdberrors.SizeMismatch, "empty batch payload for non-zero row count").
			WithDetail("row_count", rowCount)
	}

	var framed []byte
	if len(compressed) == uncompressedSize {
		framed = compressed
	} else {
		framed = make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(compressed, framed)
		if err != nil {
			return nil, mimdberrors.Wrap(err, mimdberrors.CodecFailure, "lz4 block decompression failed")
		}
		if n != uncompressedSize {
			return nil, mimdberrors.New(mimdberrors.SizeMismatch, "decompressed size disagrees with declared uncompressed_size").
				WithDetail("declared", uncompressedSize).
				WithDetail("actual", n)
		}
	}

	return unframeVarchars(framed, rowCount)
}

func frameVarchars(values [][]byte) []byte {
	size := 0
	for _, v := range values {
		size += 4 + len(v)
	}
	out := make([]byte, size)
	pos := 0
	for _, v := range values {
		binary.LittleEndian.PutUint32(out[pos:], uint32(len(v)))
		pos += 4
		copy(out[pos:], v)
		pos += len(v)
	}
	return out
}

func unframeVarchars(framed []byte, rowCount int) ([][]byte, error) {
	values := make([][]byte, 0, rowCount)
	pos := 0
	for len(values) < rowCount {
		if pos+4 > len(framed) {
			return nil, mimdberrors.New(mimdberrors.SizeMismatch, "truncated varchar length prefix").
				WithDetail("decoded", len(values)).
				WithDetail("expected", rowCount)
		}
		n := int(binary.LittleEndian.Uint32(framed[pos:]))
		pos += 4
		if pos+n > len(framed) {
			return nil, mimdberrors.New(mimdberrors.SizeMismatch, "truncated varchar payload").
				WithDetail("decoded", len(values)).
				WithDetail("expected", rowCount)
		}
		// Copy so the returned values don't alias the decompression buffer.
		s := make([]byte, n)
		copy(s, framed[pos:pos+n])
		values = append(values, s)
		pos += n
	}
	if pos != len(framed) {
		return nil, mimdberrors.New(mimdberrors.SizeMismatch, "trailing bytes after declared row count").
			WithDetail("consumed", pos).
			WithDetail("total", len(framed))
	}
	return values, nil
}
