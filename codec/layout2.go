package codec

import (
	"math"

	"github.com/mewkiz/bgen/internal/bits"
	"github.com/mewkiz/bgen/internal/breader"
	"github.com/mewkiz/bgen/internal/compress"
	"github.com/mewkiz/pkg/errutil"
)

const missingFlagMask = 0x80

// decodeLayout2 reads a layout 2 (v1.2+) probability payload: a length
// prefix, optional decompression, then within the decompressed buffer a
// per-sample ploidy/missingness byte array and a packed bitstream of
// arbitrary bit-width (P_homref, P_het) pairs.
func decodeLayout2(br *breader.Reader, opts Options) ([]float64, error) {
	c, err := br.ReadU32()
	if err != nil {
		return nil, err
	}

	var decompressed []byte
	if opts.Kind == compress.None {
		b, err := br.ReadExact(int(c))
		if err != nil {
			return nil, err
		}
		decompressed = append([]byte(nil), b...)
	} else {
		d, err := br.ReadU32()
		if err != nil {
			return nil, err
		}
		payload, err := br.ReadExact(int(c) - 4)
		if err != nil {
			return nil, err
		}
		decompressed, err = opts.Decomp.Decode(append([]byte(nil), payload...), int(d))
		if err != nil {
			return nil, err
		}
	}

	return decodeLayout2Body(decompressed, opts)
}

func decodeLayout2Body(body []byte, opts Options) ([]float64, error) {
	off := 0
	readU32 := func() (uint32, error) {
		if off+4 > len(body) {
			return 0, errutil.Newf("codec: layout 2 body truncated reading u32 at %d", off)
		}
		v := uint32(body[off]) | uint32(body[off+1])<<8 | uint32(body[off+2])<<16 | uint32(body[off+3])<<24
		off += 4
		return v, nil
	}
	readU8 := func() (uint8, error) {
		if off+1 > len(body) {
			return 0, errutil.Newf("codec: layout 2 body truncated reading u8 at %d", off)
		}
		v := body[off]
		off++
		return v, nil
	}

	n, err := readU32()
	if err != nil {
		return nil, err
	}
	if int(n) != opts.NbSamples {
		return nil, errutil.Newf("codec: layout 2 sample count %d != file sample count %d", n, opts.NbSamples)
	}

	nbAllelesLo, err := readU8()
	if err != nil {
		return nil, err
	}
	nbAllelesHi, err := readU8()
	if err != nil {
		return nil, err
	}
	nbAlleles := uint16(nbAllelesLo) | uint16(nbAllelesHi)<<8
	if nbAlleles != 2 {
		return nil, errutil.Newf("codec: unsupported nb_alleles %d", nbAlleles)
	}

	minPloidy, err := readU8()
	if err != nil {
		return nil, err
	}
	maxPloidy, err := readU8()
	if err != nil {
		return nil, err
	}
	// Stricter reading of the ambiguous "min != 2 AND max != 2" condition
	// from the original source: both must equal 2, not merely one of them.
	if minPloidy != 2 || maxPloidy != 2 {
		return nil, errutil.Newf("codec: unsupported ploidy min=%d max=%d", minPloidy, maxPloidy)
	}

	if off+int(n) > len(body) {
		return nil, errutil.Newf("codec: layout 2 body truncated reading ploidy/missingness array")
	}
	missing := make([]bool, n)
	for i := uint32(0); i < n; i++ {
		b := body[off]
		off++
		missing[i] = b&missingFlagMask != 0
	}

	phased, err := readU8()
	if err != nil {
		return nil, err
	}
	if phased != 0 {
		return nil, errutil.Newf("codec: phased data is not supported")
	}

	width, err := readU8()
	if err != nil {
		return nil, err
	}
	if width < 1 || width > bits.MaxWidth {
		return nil, errutil.Newf("codec: invalid bit width %d", width)
	}

	packed := body[off:]
	raw, err := bits.Unpack(packed, int(width), 2*int(n))
	if err != nil {
		return nil, err
	}

	denom := float64((uint64(1) << width) - 1)
	probs := make([]float64, 3*n)
	for i := uint32(0); i < n; i++ {
		if missing[i] {
			probs[3*i] = math.NaN()
			probs[3*i+1] = math.NaN()
			probs[3*i+2] = math.NaN()
			continue
		}
		homref := float64(raw[2*i]) / denom
		het := float64(raw[2*i+1]) / denom
		homalt := 1 - homref - het
		probs[3*i] = homref
		probs[3*i+1] = het
		probs[3*i+2] = homalt
	}
	return probs, nil
}
