package bits_test

import (
	"testing"

	"github.com/mewkiz/bgen/internal/bits"
)

func TestUnpackByteAligned(t *testing.T) {
	golden := []struct {
		width int
		raw   []byte
		want  []uint64
	}{
		{width: 8, raw: []byte{0x00, 0x7F, 0xFF}, want: []uint64{0, 127, 255}},
		{width: 16, raw: []byte{0x00, 0x80, 0xFF, 0xFF}, want: []uint64{0x8000, 0xFFFF}},
		{width: 32, raw: []byte{0x01, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}, want: []uint64{1, 0xFFFFFFFF}},
	}
	for _, g := range golden {
		got, err := bits.Unpack(g.raw, g.width, len(g.want))
		if err != nil {
			t.Fatalf("width %d: unexpected error: %v", g.width, err)
		}
		if !equal(got, g.want) {
			t.Fatalf("width %d: got %v, want %v", g.width, got, g.want)
		}
	}
}

// TestUnpackGeneric covers non-byte-aligned widths, including the spec's
// b=1, b=3, b=9, b=24 boundary cases.
func TestUnpackGeneric(t *testing.T) {
	golden := []struct {
		width int
		raw   []byte
		want  []uint64
	}{
		// 1-bit: byte 0 = 0b00000101 => values 1,0,1,0,0,0,0,0 LSB-first.
		{width: 1, raw: []byte{0x05}, want: []uint64{1, 0, 1, 0, 0, 0, 0, 0}},
		// 3-bit: two values packed into the low 6 bits of one byte.
		// value0=5 (0b101), value1=3 (0b011) => byte = 0b011101 = 0x1D.
		{width: 3, raw: []byte{0x1D}, want: []uint64{5, 3}},
		// 9-bit: straddles a byte boundary.
		{width: 9, raw: []byte{0xFF, 0x01}, want: []uint64{0x1FF}},
		// 24-bit.
		{width: 24, raw: []byte{0x01, 0x02, 0x03}, want: []uint64{0x030201}},
	}
	for _, g := range golden {
		got, err := bits.Unpack(g.raw, g.width, len(g.want))
		if err != nil {
			t.Fatalf("width %d: unexpected error: %v", g.width, err)
		}
		if !equal(got, g.want) {
			t.Fatalf("width %d: got %v, want %v", g.width, got, g.want)
		}
	}
}

func TestUnpackRejectsBadWidth(t *testing.T) {
	for _, width := range []int{0, 33, -1} {
		if _, err := bits.Unpack([]byte{0x00}, width, 1); err == nil {
			t.Fatalf("width %d: expected error, got nil", width)
		}
	}
}

func TestUnpackRejectsShortBuffer(t *testing.T) {
	if _, err := bits.Unpack([]byte{0x00}, 32, 2); err == nil {
		t.Fatal("expected error for truncated buffer, got nil")
	}
}

func equal(a, b []uint64) bool {
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
