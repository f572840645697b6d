package codec

import (
	"encoding/binary"

	"github.com/mewkiz/bgen/internal/breader"
	"github.com/mewkiz/bgen/internal/compress"
	"github.com/mewkiz/pkg/errutil"
)

// layout1Scale converts a raw 16-bit layout 1 probability numerator to a
// float in [0, 1].
const layout1Scale = 32768.0

// decodeLayout1 reads a layout 1 (v1.1) probability payload: fixed u16
// triples per sample, in order (P(homref), P(het), P(homalt)), optionally
// wrapped in the file's compression codec.
func decodeLayout1(br *breader.Reader, opts Options) ([]float64, error) {
	n := opts.NbSamples
	wantLen := 6 * n // 3 uint16 per sample

	var raw []byte
	if opts.Kind == compress.None {
		b, err := br.ReadExact(wantLen)
		if err != nil {
			return nil, err
		}
		raw = append([]byte(nil), b...)
	} else {
		c, err := br.ReadU32()
		if err != nil {
			return nil, err
		}
		cbytes, err := br.ReadExact(int(c))
		if err != nil {
			return nil, err
		}
		raw, err = opts.Decomp.Decode(append([]byte(nil), cbytes...), wantLen)
		if err != nil {
			return nil, err
		}
	}

	if len(raw) != wantLen {
		return nil, errutil.Newf("codec: layout 1 payload length mismatch; expected %d, got %d", wantLen, len(raw))
	}

	probs := make([]float64, 3*n)
	for i := 0; i < 3*n; i++ {
		u := binary.LittleEndian.Uint16(raw[2*i:])
		probs[i] = float64(u) / layout1Scale
	}
	return probs, nil
}
