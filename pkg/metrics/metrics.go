// Package metrics computes pure, in-memory statistics over a loaded
// Table. Nothing here touches a file or a network socket.
package metrics

import (
	"math/big"

	"github.com/QuerthDP/mimdb/pkg/table"
)

// bigFloatPrec is the working precision for the final sum/count division.
// 128 bits comfortably covers the ~95 bits needed to hold an exact sum of
// up to billions of int64 values without losing bits the float64 result
// would otherwise need.
const bigFloatPrec = 128

// IntAverage returns the arithmetic mean of an Int64 column's values.
// The sum is accumulated exactly in a math/big.Int — never in a float64
// or a wrapping int64 — so arbitrarily many values of arbitrary
// magnitude (including a mix of math.MinInt64 and math.MaxInt64) never
// lose precision or overflow before the single final division. The
// second return value is false when the column does not exist, is not
// an Int64 column, or has zero rows — an average is not defined in any
// of those cases, distinct from 0.0.
func IntAverage(tbl *table.Table, column string) (float64, bool) {
	col, ok := tbl.Column(column)
	if !ok || col.Type != table.Int64 || len(col.Int64Values) == 0 {
		return 0, false
	}

	sum := new(big.Int)
	for _, v := range col.Int64Values {
		sum.Add(sum, big.NewInt(v))
	}

	mean := new(big.Float).SetPrec(bigFloatPrec).SetInt(sum)
	count := new(big.Float).SetPrec(bigFloatPrec).SetInt64(int64(len(col.Int64Values)))
	mean.Quo(mean, count)

	result, _ := mean.Float64()
	return result, true
}

// AsciiByteCount returns the number of bytes whose value falls in
// [0, 127] across every value of a Varchar column — counted at the byte
// level, not the rune level, so a multi-byte UTF-8 rune contributes
// nothing: every byte of it is 0x80 or above.
func AsciiByteCount(tbl *table.Table, column string) int {
	col, ok := tbl.Column(column)
	if !ok || col.Type != table.Varchar {
		return 0
	}

	count := 0
	for _, v := range col.VarcharValues {
		for _, b := range v {
			if b <= 127 {
				count++
			}
		}
	}
	return count
}
