// Package variant holds the BGEN data model: a variant's identity and the
// two shapes its decoded genotype data can take.
package variant

// Variant is a genetic variant's identity: its rsid, chromosome, 1-based
// genomic position, and its two alleles. Immutable once constructed.
type Variant struct {
	// Name is the variant's rsid.
	Name string
	// Chromosome is the chromosome string, e.g. "01".
	Chromosome string
	// Position is the 1-based genomic coordinate.
	Position uint32
	// Allele1 and Allele2 are the variant's two alleles.
	Allele1 string
	Allele2 string
}

// ProbabilityMatrix holds, for one variant, an (N, 3) array of genotype
// probabilities: for sample i, (P(homref), P(het), P(homalt)). A missing
// sample's row is all NaN.
type ProbabilityMatrix struct {
	// NbSamples is N, the number of samples (rows).
	NbSamples int
	// Data is row-major: Data[3*i:3*i+3] is sample i's (homref, het, homalt)
	// triple.
	Data []float64
}

// Row returns sample i's (P(homref), P(het), P(homalt)) triple.
func (m *ProbabilityMatrix) Row(i int) (homref, het, homalt float64) {
	off := 3 * i
	return m.Data[off], m.Data[off+1], m.Data[off+2]
}

// DosageVector holds, for one variant, the expected alternate allele count
// per sample: 2*P(homalt) + P(het), or NaN if missing or below the
// configured probability threshold.
type DosageVector struct {
	Data []float64
}

// Data is the per-variant payload a Reader yields: either a
// ProbabilityMatrix or a DosageVector, depending on the reader's configured
// return mode. Exactly one of Probabilities or Dosages is non-nil.
type Data struct {
	Probabilities *ProbabilityMatrix
	Dosages       *DosageVector
}

// Record pairs a variant's identity with its decoded data.
type Record struct {
	Variant Variant
	Data    Data
}

// Info is identity-only metadata, as returned by index-driven operations
// that never touch the data stream.
type Info struct {
	Chromosome string
	Position   uint32
	Name       string
	Allele1    string
	Allele2    string
}
