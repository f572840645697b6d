// Package compress implements the Decompressor Dispatch: one decoder chosen
// once per file from the header's compression flags, exposing a single
// decode(bytes, expectedLen) -> bytes contract regardless of which codec is
// behind it.
package compress

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/mewkiz/pkg/errutil"
)

// Kind identifies a variant block payload codec.
type Kind uint8

// Compression kinds, taken from the low two bits of the BGEN header flags
// word.
const (
	None Kind = iota
	Zlib
	Zstd
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Zlib:
		return "zlib"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// KindFromFlags extracts the compression kind from bits [0..1] of the
// header flags word.
func KindFromFlags(flags uint32) (Kind, error) {
	switch k := Kind(flags & 0x3); k {
	case None, Zlib, Zstd:
		return k, nil
	default:
		return 0, errutil.Newf("compress: reserved compression kind %d", k)
	}
}

// Decompressor decodes one file's worth of variant block payloads. It is
// selected once per open file and reused across every variant block.
type Decompressor interface {
	// Decode returns the decompressed payload. expectedLen, if non-negative,
	// is checked against the actual decompressed length.
	Decode(raw []byte, expectedLen int) ([]byte, error)
}

// New builds the Decompressor for the given kind. Zstd requires the
// klauspost/compress/zstd backend; if that package cannot be linked in a
// given build, callers should treat any error from New(Zstd, ...) as
// UnsupportedCompression at open time.
func New(kind Kind) (Decompressor, error) {
	switch kind {
	case None:
		return identityDecompressor{}, nil
	case Zlib:
		return zlibDecompressor{}, nil
	case Zstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errutil.Err(err)
		}
		return &zstdDecompressor{dec: dec}, nil
	default:
		return nil, errutil.Newf("compress: unknown compression kind %d", kind)
	}
}

func checkLen(expectedLen, got int) error {
	if expectedLen >= 0 && got != expectedLen {
		return errutil.Newf("compress: decompressed length mismatch; expected %d, got %d", expectedLen, got)
	}
	return nil
}

type identityDecompressor struct{}

func (identityDecompressor) Decode(raw []byte, expectedLen int) ([]byte, error) {
	if err := checkLen(expectedLen, len(raw)); err != nil {
		return nil, err
	}
	return raw, nil
}

type zlibDecompressor struct{}

func (zlibDecompressor) Decode(raw []byte, expectedLen int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errutil.Err(err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errutil.Err(err)
	}
	if err := checkLen(expectedLen, len(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// zstdDecompressor wraps a single reusable *zstd.Decoder; klauspost's
// decoder is safe to reuse across DecodeAll calls and doing so avoids
// re-allocating its internal tables for every variant block.
type zstdDecompressor struct {
	dec *zstd.Decoder
}

func (z *zstdDecompressor) Decode(raw []byte, expectedLen int) ([]byte, error) {
	capHint := expectedLen
	if capHint < 0 {
		capHint = 0
	}
	out, err := z.dec.DecodeAll(raw, make([]byte, 0, capHint))
	if err != nil {
		return nil, errutil.Err(err)
	}
	if err := checkLen(expectedLen, len(out)); err != nil {
		return nil, err
	}
	return out, nil
}
