// Package codec implements the Variant Block Codec: given a file offset, it
// reads a variant's identity (id, rsid, chromosome, position, alleles) and
// decodes its probability payload per the file's layout, returning either
// probabilities or a dosage vector. This is the core of the reader, the
// Go-side analog of the teacher's frame package (frame header + subframe
// decode dispatch), generalized from audio samples to genotype
// probabilities.
package codec

import (
	"math"

	"github.com/mewkiz/bgen/header"
	"github.com/mewkiz/bgen/internal/breader"
	"github.com/mewkiz/bgen/internal/compress"
	"github.com/mewkiz/bgen/variant"
	"github.com/mewkiz/pkg/errutil"
)

// ReturnMode selects what Decode produces for a variant's payload.
type ReturnMode uint8

const (
	// ReturnDosages yields a DosageVector.
	ReturnDosages ReturnMode = iota
	// ReturnProbabilities yields a ProbabilityMatrix.
	ReturnProbabilities
)

// Options configures a single Decode call.
type Options struct {
	Layout     header.Layout
	Kind       compress.Kind
	Decomp     compress.Decompressor
	NbSamples  int
	Threshold  float64
	ReturnMode ReturnMode
}

// Result is the outcome of decoding one variant block.
type Result struct {
	Variant variant.Variant
	Probs   *variant.ProbabilityMatrix // non-nil iff ReturnProbabilities
	Dosages *variant.DosageVector      // non-nil iff ReturnDosages
	// NextOffset is the absolute offset of the byte immediately following
	// this variant block, i.e. where the next variant block begins.
	NextOffset int64
}

// Decode reads one variant block at br's current position and returns its
// identity and decoded payload.
func Decode(br *breader.Reader, opts Options) (*Result, error) {
	v, err := decodeIdentity(br, opts.Layout, opts.NbSamples)
	if err != nil {
		return nil, err
	}

	var probs []float64 // row-major (N,3)
	switch opts.Layout {
	case header.LayoutV11:
		probs, err = decodeLayout1(br, opts)
	case header.LayoutV12:
		probs, err = decodeLayout2(br, opts)
	default:
		return nil, errutil.Newf("codec: unsupported layout %v", opts.Layout)
	}
	if err != nil {
		return nil, err
	}

	next, err := br.Tell()
	if err != nil {
		return nil, err
	}

	res := &Result{Variant: v, NextOffset: next}
	switch opts.ReturnMode {
	case ReturnProbabilities:
		res.Probs = &variant.ProbabilityMatrix{NbSamples: opts.NbSamples, Data: probs}
	case ReturnDosages:
		res.Dosages = &variant.DosageVector{Data: dosagesFromProbs(probs, opts.NbSamples, opts.Threshold)}
	default:
		return nil, errutil.Newf("codec: unknown return mode %v", opts.ReturnMode)
	}
	return res, nil
}

// decodeIdentity reads the variant id, rsid, chromosome, position, and
// alleles, honoring the per-layout differences in §4.6.
func decodeIdentity(br *breader.Reader, layout header.Layout, nbSamples int) (variant.Variant, error) {
	if layout == header.LayoutV11 {
		n, err := br.ReadU32()
		if err != nil {
			return variant.Variant{}, err
		}
		if int(n) != nbSamples {
			return variant.Variant{}, errutil.Newf("codec: layout 1 variant sample count %d != file sample count %d", n, nbSamples)
		}
	}

	// Variant id: read and discard; BGEN stores it but the public identity
	// (per spec) is (name=rsid, chromosome, position, alleles).
	if _, err := br.ReadLengthPrefixedString(2); err != nil {
		return variant.Variant{}, err
	}
	rsid, err := br.ReadLengthPrefixedString(2)
	if err != nil {
		return variant.Variant{}, err
	}
	chrom, err := br.ReadLengthPrefixedString(2)
	if err != nil {
		return variant.Variant{}, err
	}
	pos, err := br.ReadU32()
	if err != nil {
		return variant.Variant{}, err
	}

	nbAlleles := 2
	if layout == header.LayoutV12 {
		n, err := br.ReadU16()
		if err != nil {
			return variant.Variant{}, err
		}
		if n != 2 {
			return variant.Variant{}, errutil.Newf("codec: unsupported allele count %d", n)
		}
		nbAlleles = int(n)
	}

	alleles := make([]string, nbAlleles)
	for i := range alleles {
		a, err := br.ReadLengthPrefixedString(4)
		if err != nil {
			return variant.Variant{}, err
		}
		alleles[i] = a
	}

	return variant.Variant{
		Name:       rsid,
		Chromosome: chrom,
		Position:   pos,
		Allele1:    alleles[0],
		Allele2:    alleles[1],
	}, nil
}

// dosagesFromProbs derives a dosage vector from an (N,3) row-major
// probability array, applying the probability-confidence threshold. probs
// rows that are all NaN (missing samples) stay NaN regardless of threshold.
func dosagesFromProbs(probs []float64, n int, threshold float64) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		homref, het, homalt := probs[3*i], probs[3*i+1], probs[3*i+2]
		if math.IsNaN(homref) {
			out[i] = math.NaN()
			continue
		}
		dosage := 2*homalt + het
		if threshold > 0 {
			best := math.Max(homref, math.Max(het, homalt))
			if best < threshold {
				out[i] = math.NaN()
				continue
			}
		}
		out[i] = dosage
	}
	return out
}
