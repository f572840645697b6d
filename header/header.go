// Package header implements the BGEN Header Parser: the fixed file
// prologue that resolves layout, compression, sample count, variant count,
// the optional embedded sample identifier list, and the offset of the
// first variant block. It mirrors the shape of the teacher's meta.NewBlock
// dispatch (fixed header, then a flags word that selects behavior) even
// though BGEN has only a single header block rather than a chain of typed
// metadata blocks.
package header

import (
	"github.com/mewkiz/bgen/internal/breader"
	"github.com/mewkiz/bgen/internal/compress"
	"github.com/mewkiz/pkg/errutil"
)

// Layout identifies which of BGEN's two wire encodings a file uses.
type Layout uint8

// Layout values, taken from bits [2..5] of the header flags word.
const (
	LayoutV11 Layout = 1
	LayoutV12 Layout = 2
)

func (l Layout) String() string {
	switch l {
	case LayoutV11:
		return "v1.1"
	case LayoutV12:
		return "v1.2+"
	default:
		return "unknown"
	}
}

// Magic bytes accepted at offset 16..19 of the header.
var (
	magicBgen = [4]byte{'b', 'g', 'e', 'n'}
	magicZero = [4]byte{0, 0, 0, 0}
)

// Header is the parsed BGEN file prologue.
type Header struct {
	// NbVariants is the number of variants, from the header's nb_variants
	// field.
	NbVariants uint32
	// NbSamples is the number of samples, from the header's nb_samples
	// field.
	NbSamples uint32
	// Layout is the wire encoding used for variant blocks.
	Layout Layout
	// Compression is the codec used for variant block payloads.
	Compression compress.Kind
	// HasSampleIdentifiers reports whether a sample identifier block
	// follows the header.
	HasSampleIdentifiers bool
	// SampleIDs holds the embedded sample identifiers, if present, in
	// order. Nil if HasSampleIdentifiers is false.
	SampleIDs []string
	// FirstVariantOffset is the absolute file offset of the first variant
	// block (the prologue's offset field, plus 4).
	FirstVariantOffset int64
}

// Parse reads the header (and, if present, the sample identifier block)
// starting at the current position of br, which must be the beginning of
// the file.
func Parse(br *breader.Reader) (*Header, error) {
	offset, err := br.ReadU32()
	if err != nil {
		return nil, errutil.Err(err)
	}
	headerSize, err := br.ReadU32()
	if err != nil {
		return nil, errutil.Err(err)
	}
	if headerSize < 20 {
		return nil, errutil.Newf("header: header_size must be >= 20, got %d", headerSize)
	}
	nbVariants, err := br.ReadU32()
	if err != nil {
		return nil, errutil.Err(err)
	}
	nbSamples, err := br.ReadU32()
	if err != nil {
		return nil, errutil.Err(err)
	}
	magic, err := br.ReadExact(4)
	if err != nil {
		return nil, errutil.Err(err)
	}
	var m [4]byte
	copy(m[:], magic)
	if m != magicBgen && m != magicZero {
		return nil, errutil.Newf("header: invalid magic %q", magic)
	}

	// Free area: header_size counts the header_size, nb_variants,
	// nb_samples and magic fields read above (16 bytes) plus the flags word
	// that follows (4 bytes); the remaining header_size-20 bytes lie between.
	if err := br.Discard(int64(headerSize) - 20); err != nil {
		return nil, errutil.Err(err)
	}

	flags, err := br.ReadU32()
	if err != nil {
		return nil, errutil.Err(err)
	}

	kind, err := compress.KindFromFlags(flags)
	if err != nil {
		return nil, errutil.Err(err)
	}

	layout := Layout((flags >> 2) & 0xF)
	switch layout {
	case LayoutV11, LayoutV12:
	default:
		return nil, errutil.Newf("header: invalid layout %d", layout)
	}

	h := &Header{
		NbVariants:           nbVariants,
		NbSamples:            nbSamples,
		Layout:               layout,
		Compression:          kind,
		HasSampleIdentifiers: flags&(1<<31) != 0,
		FirstVariantOffset:   int64(offset) + 4,
	}

	if h.HasSampleIdentifiers {
		ids, err := parseSampleBlock(br, offset, headerSize, nbSamples)
		if err != nil {
			return nil, err
		}
		h.SampleIDs = ids
	}

	return h, nil
}

// parseSampleBlock reads the optional sample identifier block, which
// immediately follows the header when bit 31 of the flags word is set.
func parseSampleBlock(br *breader.Reader, offset, headerSize, nbSamples uint32) ([]string, error) {
	blockSize, err := br.ReadU32()
	if err != nil {
		return nil, errutil.Err(err)
	}
	if uint64(blockSize)+uint64(headerSize) > uint64(offset) {
		return nil, errutil.Newf("header: sample block size %d overruns first variant offset", blockSize)
	}

	n, err := br.ReadU32()
	if err != nil {
		return nil, errutil.Err(err)
	}
	if n != nbSamples {
		return nil, errutil.Newf("header: sample block sample count %d != header nb_samples %d", n, nbSamples)
	}

	ids := make([]string, n)
	for i := range ids {
		s, err := br.ReadLengthPrefixedString(2)
		if err != nil {
			return nil, errutil.Err(err)
		}
		ids[i] = s
	}
	return ids, nil
}
