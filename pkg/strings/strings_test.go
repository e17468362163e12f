package strings

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestBytesToString(t *testing.T) {
	b := []byte("hello world")
	s := BytesToString(b)

	if s != "hello world" {
		t.Errorf("expected 'hello world', got '%s'", s)
	}

	empty := BytesToString([]byte{})
	if empty != "" {
		t.Errorf("expected empty string, got '%s'", empty)
	}
}

func TestStringToBytes(t *testing.T) {
	s := "hello world"
	b := StringToBytes(s)

	if string(b) != "hello world" {
		t.Errorf("expected 'hello world', got '%s'", string(b))
	}

	empty := StringToBytes("")
	if empty != nil {
		t.Errorf("expected nil slice, got %v", empty)
	}
}

func TestBuilderWrite(t *testing.T) {
	builder := NewBuilder(4)

	n, err := builder.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 bytes written, got %d", n)
	}
	if builder.String() != "hello" {
		t.Errorf("expected 'hello', got '%s'", builder.String())
	}
}

func TestBuilderReset(t *testing.T) {
	builder := NewBuilder(16)
	builder.Write([]byte("hello"))
	builder.Reset()

	if builder.String() != "" {
		t.Errorf("expected empty string after Reset, got '%s'", builder.String())
	}
}

func TestClone(t *testing.T) {
	original := "hello world"
	cloned := Clone(original)

	if cloned != original {
		t.Errorf("expected '%s', got '%s'", original, cloned)
	}

	if Clone("") != "" {
		t.Error("expected empty string for empty input")
	}
}

func TestGetPutBuilder(t *testing.T) {
	for _, size := range []BuilderSize{Small, Medium, Large} {
		b := GetBuilder(size)
		if b.String() != "" {
			t.Errorf("size %v: expected a freshly-reset builder, got %q", size, b.String())
		}
		b.Write([]byte("leftover"))
		PutBuilder(b, size)

		reused := GetBuilder(size)
		if reused.String() != "" {
			t.Errorf("size %v: builder was not reset before reuse, got %q", size, reused.String())
		}
		PutBuilder(reused, size)
	}
}

func TestPutBuilderNil(t *testing.T) {
	// Must not panic.
	PutBuilder(nil, Small)
}

func TestSprintfNoArgs(t *testing.T) {
	if got := Sprintf("plain message"); got != "plain message" {
		t.Errorf("expected 'plain message', got '%s'", got)
	}
}

func TestSprintfMatchesFmtSprintf(t *testing.T) {
	cases := []struct {
		format string
		args   []interface{}
	}{
		{"%s: %s", []interface{}{"io_failure", "reading header"}},
		{"%s: %s: %v", []interface{}{"codec_failure", "zstd decompression failed", errBoom}},
		{"%d items", []interface{}{42}},
	}

	for _, c := range cases {
		got := Sprintf(c.format, c.args...)
		want := fmt.Sprintf(c.format, c.args...)
		if got != want {
			t.Errorf("Sprintf(%q, %v) = %q, want %q", c.format, c.args, got, want)
		}
	}
}

func TestSprintfLargeArgumentRoundTrips(t *testing.T) {
	big := strings.Repeat("x", 20*1024)
	got := Sprintf("%s", big)
	if got != big {
		t.Error("large formatted output did not round trip")
	}
}

var errBoom = errors.New("boom")
