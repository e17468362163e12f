// Package codec implements MIMDB's per-batch compression pipelines: delta
// + zigzag + variable-length-encoding + ZSTD for Int64 columns, and
// length-prefix framing + raw LZ4 block compression for Varchar columns.
package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/QuerthDP/mimdb/pkg/mimdberrors"
)

var (
	zstdEncoders sync.Map // level int -> *zstd.Encoder
	zstdDecoder  *zstd.Decoder
	zstdDecOnce  sync.Once
)

func zstdEncoderForLevel(level int) (*zstd.Encoder, error) {
	if v, ok := zstdEncoders.Load(level); ok {
		return v.(*zstd.Encoder), nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, err
	}
	actual, _ := zstdEncoders.LoadOrStore(level, enc)
	return actual.(*zstd.Encoder), nil
}

func sharedZstdDecoder() (*zstd.Decoder, error) {
	var err error
	zstdDecOnce.Do(func() {
		zstdDecoder, err = zstd.NewReader(nil)
	})
	return zstdDecoder, err
}

// EncodeInt64Batch runs the full Int64 compression pipeline over one
// batch of values: delta encoding (wrapping subtraction), zigzag mapping,
// variable-length byte encoding, then ZSTD compression at the given
// level. An empty batch compresses to zero bytes.
// The returned uncompressedSize is the length of the VLE byte stream
// before ZSTD compression, as recorded in a batch's metadata entry.
func EncodeInt64Batch(values []int64, zstdLevel int) (compressed []byte, uncompressedSize int, err error) {
	if len(values) == 0 {
		return nil, 0, nil
	}

	vle := make([]byte, 0, len(values)*2)
	vle = appendZigzagVarint(vle, values[0])
	prev := values[0]
	for _, v := range values[1:] {
		delta := v - prev // wrapping subtraction: Go's signed overflow wraps
		vle = appendZigzagVarint(vle, delta)
		prev = v
	}

	enc, encErr := zstdEncoderForLevel(zstdLevel)
	if encErr != nil {
		return nil, 0, mimdberrors.Wrap(encErr, mimdberrors.CodecFailure, "creating zstd encoder")
	}
	return enc.EncodeAll(vle, make([]byte, 0, len(vle))), len(vle), nil
}

// DecodeInt64Batch reverses EncodeInt64Batch, decoding exactly rowCount
// values. uncompressedSize is the batch's declared pre-ZSTD VLE byte
// length, from the batch's metadata entry: the ZSTD output must
// decompress to exactly that many bytes, and every one of those bytes
// must be consumed by exactly rowCount VLE integers, or the batch is
// rejected as malformed.
func DecodeInt64Batch(compressed []byte, rowCount int, uncompressedSize int) ([]int64, error) {
	if rowCount == 0 {
		return nil, nil
	}
	if len(compressed) == 0 {
		return nil, mimdberrors.New(mimdberrors.SizeMismatch, "empty batch payload for non-zero row count").
			WithDetail("row_count", rowCount)
	}

	dec, err := sharedZstdDecoder()
	if err != nil {
		return nil, mimdberrors.Wrap(err, mimdberrors.CodecFailure, "creating zstd decoder")
	}
	vle, err := dec.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, mimdberrors.Wrap(err, mimdberrors.CodecFailure, "zstd decompression failed")
	}
	if len(vle) != uncompressedSize {
		return nil, mimdberrors.New(mimdberrors.SizeMismatch, "decompressed size disagrees with declared uncompressed_size").
			WithDetail("declared", uncompressedSize).
			WithDetail("actual", len(vle))
	}

	deltas := make([]int64, 0, rowCount)
	pos := 0
	for len(deltas) < rowCount {
		if pos >= len(vle) {
			return nil, mimdberrors.New(mimdberrors.SizeMismatch, "fewer VLE values than declared row count").
				WithDetail("decoded", len(deltas)).
				WithDetail("expected", rowCount)
		}
		delta, n, err := decodeZigzagVarint(vle[pos:])
		if err != nil {
			return nil, mimdberrors.Wrap(err, mimdberrors.CodecFailure, "decoding VLE integer")
		}
		deltas = append(deltas, delta)
		pos += n
	}
	if pos != len(vle) {
		return nil, mimdberrors.New(mimdberrors.SizeMismatch, "trailing bytes after declared row count").
			WithDetail("consumed", pos).
			WithDetail("total", len(vle))
	}

	values := make([]int64, rowCount)
	values[0] = deltas[0]
	for i := 1; i < rowCount; i++ {
		values[i] = values[i-1] + deltas[i]
	}
	return values, nil
}

// appendZigzagVarint zigzag-maps a signed delta to unsigned, then encodes
// it as a 7-bit-group variable-length integer with an MSB continuation
// flag, appending the result to dst.
func appendZigzagVarint(dst []byte, v int64) []byte {
	uv := (uint64(v) << 1) ^ uint64(v>>63)
	for uv >= 0x80 {
		dst = append(dst, byte(uv)|0x80)
		uv >>= 7
	}
	return append(dst, byte(uv))
}

// decodeZigzagVarint reads one VLE-encoded, zigzag-mapped signed integer
// from src, returning the decoded value and the number of bytes consumed.
func decodeZigzagVarint(src []byte) (int64, int, error) {
	var result uint64
	var shift uint
	for i, b := range src {
		if shift >= 64 {
			return 0, 0, mimdberrors.New(mimdberrors.CodecFailure, "VLE integer too large")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			signed := int64(result>>1) ^ -(int64(result & 1))
			return signed, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, mimdberrors.New(mimdberrors.CodecFailure, "truncated VLE integer")
}
