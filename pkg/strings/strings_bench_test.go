package strings

import (
	"fmt"
	"testing"
)

func BenchmarkSprintfComparison(b *testing.B) {
	values := []interface{}{"test", 42, true, 3.14}
	format := "string: %s, int: %d, bool: %t, float: %.2f"

	b.Run("StandardSprintf", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			result := fmt.Sprintf(format, values...)
			_ = result
		}
	})

	b.Run("PooledSprintf", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			result := Sprintf(format, values...)
			_ = result
		}
	})
}
