// Package bits decodes arrays of arbitrary-bit-width unsigned integers from
// a little-endian-bitwise packed byte stream, the representation BGEN uses
// for both layout 1 genotype probabilities (implicitly, via fixed 16-bit
// words) and layout 2's variable-width probability arrays.
//
// Byte 0's least significant bit is the first bit of value 0; values are
// allowed to straddle byte boundaries. github.com/icza/bitio, the bit
// reader the teacher links in for its own (MSB-first) FLAC bitstream, packs
// the opposite way round: its WriteUnary encodes the high bit of a field
// first, the convention FLAC itself mandates. That makes it the wrong tool
// for BGEN's LSB-first fields, so the non-byte-aligned path below is a
// direct shift-and-mask reader instead of a shim over bitio.
package bits

import (
	"encoding/binary"

	"github.com/mewkiz/pkg/errutil"
)

// MaxWidth is the largest supported bit width for a packed value.
const MaxWidth = 32

// Unpack decodes n unsigned integers of the given bit width from raw,
// returning them in the order they were packed. width must be in [1, 32].
func Unpack(raw []byte, width, n int) ([]uint64, error) {
	switch {
	case width < 1 || width > MaxWidth:
		return nil, errutil.Newf("bits.Unpack: unsupported bit width %d", width)
	case n < 0:
		return nil, errutil.Newf("bits.Unpack: negative element count %d", n)
	}

	switch width {
	case 8:
		return unpack8(raw, n)
	case 16:
		return unpack16(raw, n)
	case 32:
		return unpack32(raw, n)
	}
	return unpackGeneric(raw, width, n)
}

// unpackGeneric is the portable path: a rolling LSB-first bit reader over
// the packed stream, used for widths that don't land on a byte boundary
// (e.g. 1, 3, 9, 24). bitPos counts bits from the start of raw; bit bitPos
// lives in raw[bitPos/8], at position bitPos%8 from that byte's LSB.
func unpackGeneric(raw []byte, width, n int) ([]uint64, error) {
	needBits := uint64(width) * uint64(n)
	if haveBits := uint64(len(raw)) * 8; needBits > haveBits {
		return nil, errutil.Newf("bits.Unpack: need %d bits, have %d", needBits, haveBits)
	}

	out := make([]uint64, n)
	bitPos := 0
	for i := range out {
		var v uint64
		for b := 0; b < width; b++ {
			byteIdx := bitPos / 8
			bitIdx := uint(bitPos % 8)
			if raw[byteIdx]&(1<<bitIdx) != 0 {
				v |= 1 << uint(b)
			}
			bitPos++
		}
		out[i] = v
	}
	return out, nil
}

func unpack8(raw []byte, n int) ([]uint64, error) {
	if len(raw) < n {
		return nil, errutil.Newf("bits.Unpack: need %d bytes, have %d", n, len(raw))
	}
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = uint64(raw[i])
	}
	return out, nil
}

func unpack16(raw []byte, n int) ([]uint64, error) {
	if need := n * 2; len(raw) < need {
		return nil, errutil.Newf("bits.Unpack: need %d bytes, have %d", need, len(raw))
	}
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = uint64(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return out, nil
}

func unpack32(raw []byte, n int) ([]uint64, error) {
	if need := n * 4; len(raw) < need {
		return nil, errutil.Newf("bits.Unpack: need %d bytes, have %d", need, len(raw))
	}
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = uint64(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}
