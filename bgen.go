// Package bgen implements a reader for the BGEN genotype file format, a
// binary container for per-sample genotype probabilities keyed by variant.
// It supports both wire layouts (v1.1 and v1.2+), all three compression
// kinds a file may declare (none, zlib, zstd), and random access to named
// variants or genomic regions via a sidecar ".bgi" index. Writing BGEN
// files is out of scope.
package bgen

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/mewkiz/bgen/codec"
	"github.com/mewkiz/bgen/header"
	"github.com/mewkiz/bgen/index"
	"github.com/mewkiz/bgen/internal/breader"
	"github.com/mewkiz/bgen/internal/compress"
	"github.com/mewkiz/bgen/variant"
)

// Re-exported data model types, so callers need only import this package.
type (
	Variant           = variant.Variant
	ProbabilityMatrix = variant.ProbabilityMatrix
	DosageVector      = variant.DosageVector
	Data              = variant.Data
	Record            = variant.Record
	VariantInfo       = variant.Info
)

// Reader is an open handle onto a BGEN file and, when available, its
// sidecar index. The zero value is not usable; construct one with Open.
type Reader struct {
	f   *os.File
	br  *breader.Reader
	hdr *header.Header
	idx *index.Index // nil if the sidecar index could not be opened

	decomp compress.Decompressor
	cfg    openConfig

	cursor int64  // absolute offset of the next variant block
	seen   uint32 // number of variants yielded by Next so far
	closed bool
}

// Open opens the BGEN file at path, parses its header, and attempts to
// open its sidecar index (path + ".bgi"). A missing or unreadable sidecar
// is not an error at Open time: index-driven operations (GetVariant,
// IterVariantsInRegion, IterVariantInfo) fail with MissingIndex lazily,
// while sequential iteration via Next works regardless.
func Open(path string, opts ...OpenOption) (*Reader, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.mode {
	case "r":
	case "w":
		return nil, wrapErr(KindNotImplemented, ErrNotImplemented, "mode w is not implemented")
	default:
		return nil, wrapErr(KindUnsupportedMode, ErrUnsupportedMode, "mode "+cfg.mode+" is not supported")
	}
	if cfg.threshold < 0 {
		return nil, newErrf(KindInvalidHeader, "negative probability threshold %v", cfg.threshold)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(KindInvalidHeader, err, "open "+path)
	}

	br := breader.New(f)
	hdr, err := header.Parse(br)
	if err != nil {
		f.Close()
		return nil, wrapErr(KindInvalidHeader, err, "parse header of "+path)
	}

	decomp, err := compress.New(hdr.Compression)
	if err != nil {
		f.Close()
		return nil, wrapErr(KindUnsupportedCompression, err, "build decompressor")
	}

	r := &Reader{
		f:      f,
		br:     br,
		hdr:    hdr,
		decomp: decomp,
		cfg:    cfg,
		cursor: hdr.FirstVariantOffset,
	}

	if !cfg.skipIndex {
		idx, err := index.Open(path)
		if err == nil {
			r.idx = idx
		}
		// A missing sidecar is not fatal here; callers that need it get
		// MissingIndex from the operation that actually needs it.
	}

	return r, nil
}

// OpenOffsets opens path for index-skipping access to exactly the given
// offsets, in order, with no sidecar lookup. This is the constructor the
// parallel package's worker tasks use: each worker owns an independent
// file handle over its own stripe of pre-resolved offsets.
func OpenOffsets(path string, offsets []int64, threshold float64, returnProbabilities bool) (*Reader, error) {
	opts := []OpenOption{withSkipIndex(), withOffsets(offsets), WithThreshold(threshold)}
	if returnProbabilities {
		opts = append(opts, WithProbabilitiesOnly())
	}
	r, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	if len(offsets) > 0 {
		r.cursor = offsets[0]
	}
	return r, nil
}

// Close releases the file handle and, if open, the sidecar index. Safe to
// call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var ferr, ierr error
	if r.idx != nil {
		ierr = r.idx.Close()
	}
	ferr = r.f.Close()
	if ferr != nil {
		return wrapErr(KindInvalidHeader, ferr, "close file")
	}
	if ierr != nil {
		return wrapErr(KindMissingIndex, ierr, "close index")
	}
	return nil
}

// NbVariants returns the file's declared variant count.
func (r *Reader) NbVariants() uint32 { return r.hdr.NbVariants }

// NbSamples returns the file's declared sample count.
func (r *Reader) NbSamples() uint32 { return r.hdr.NbSamples }

// Samples returns the embedded sample identifiers, or nil if the file has
// none (HasSampleIdentifiers false).
func (r *Reader) Samples() []string { return r.hdr.SampleIDs }

func (r *Reader) decodeOpts() codec.Options {
	mode := codec.ReturnDosages
	if r.cfg.probsOnly {
		mode = codec.ReturnProbabilities
	}
	return codec.Options{
		Layout:     r.hdr.Layout,
		Kind:       r.hdr.Compression,
		Decomp:     r.decomp,
		NbSamples:  int(r.hdr.NbSamples),
		Threshold:  r.cfg.threshold,
		ReturnMode: mode,
	}
}

func toRecord(res *codec.Result) *variant.Record {
	return &variant.Record{
		Variant: res.Variant,
		Data: variant.Data{
			Probabilities: res.Probs,
			Dosages:       res.Dosages,
		},
	}
}

// Next decodes and returns the variant at the reader's current cursor,
// then advances the cursor to the following variant block. It returns
// io.EOF once nb_variants records have been decoded, the same termination
// signal the header's own variant count gives a sequential pass over the
// file regardless of whether a sidecar index is open. A Reader built with
// OpenOffsets instead terminates when its stripe's offset list is empty.
func (r *Reader) Next() (*variant.Record, error) {
	if r.cfg.offsets != nil {
		return r.nextFromOffsets()
	}

	if r.seen >= r.hdr.NbVariants {
		return nil, io.EOF
	}

	if err := r.br.Seek(r.cursor); err != nil {
		return nil, wrapErr(KindTruncatedFile, err, "seek to variant")
	}
	res, err := codec.Decode(r.br, r.decodeOpts())
	if err != nil {
		return nil, classifyCodecErr(err)
	}
	r.cursor = res.NextOffset
	r.seen++
	return toRecord(res), nil
}

func (r *Reader) nextFromOffsets() (*variant.Record, error) {
	if len(r.cfg.offsets) == 0 {
		return nil, io.EOF
	}
	off := r.cfg.offsets[0]
	r.cfg.offsets = r.cfg.offsets[1:]
	if err := r.br.Seek(off); err != nil {
		return nil, wrapErr(KindTruncatedFile, err, "seek to variant")
	}
	res, err := codec.Decode(r.br, r.decodeOpts())
	if err != nil {
		return nil, classifyCodecErr(err)
	}
	return toRecord(res), nil
}

// Rewind resets sequential iteration to the first variant block, so a
// fresh pass with Next can begin after a prior one ran to completion.
func (r *Reader) Rewind() error {
	r.cursor = r.hdr.FirstVariantOffset
	r.seen = 0
	return nil
}

// decodeAt decodes exactly one variant block at the given absolute offset,
// without disturbing the sequential cursor used by Next.
func (r *Reader) decodeAt(offset int64) (*variant.Record, error) {
	if err := r.br.Seek(offset); err != nil {
		return nil, wrapErr(KindTruncatedFile, err, "seek to variant")
	}
	res, err := codec.Decode(r.br, r.decodeOpts())
	if err != nil {
		return nil, classifyCodecErr(err)
	}
	return toRecord(res), nil
}

// GetVariant returns every record whose rsid matches name, decoded from
// the offsets the sidecar index reports for it. Returns UnknownVariant if
// no such rsid exists.
func (r *Reader) GetVariant(name string) ([]*variant.Record, error) {
	if r.idx == nil {
		return nil, newErr(KindMissingIndex, "no sidecar index open")
	}
	offsets, err := r.idx.OffsetsByRsids(context.Background(), []string{name})
	if err != nil {
		return nil, wrapErr(KindMissingIndex, err, "lookup rsid "+name)
	}
	if len(offsets) == 0 {
		return nil, wrapErr(KindUnknownVariant, ErrUnknownVariant, "rsid "+name)
	}
	return r.decodeOffsets(offsets)
}

// IterVariantsByNames returns the records of every variant whose rsid is in
// names, grouped in the order of names. A name shared by several variants
// yields one record per variant, in the order the index reports them; a
// name with no match yields no record and no error.
func (r *Reader) IterVariantsByNames(names ...string) ([]*variant.Record, error) {
	if r.idx == nil {
		return nil, newErr(KindMissingIndex, "no sidecar index open")
	}
	offsets, err := r.idx.OffsetsByRsids(context.Background(), names)
	if err != nil {
		return nil, wrapErr(KindMissingIndex, err, "lookup rsids")
	}
	return r.decodeOffsets(offsets)
}

// IterVariantsInRegion returns every record on chrom with position in
// [start, end], inclusive, ordered by file offset.
func (r *Reader) IterVariantsInRegion(chrom string, start, end uint32) ([]*variant.Record, error) {
	if r.idx == nil {
		return nil, newErr(KindMissingIndex, "no sidecar index open")
	}
	offsets, err := r.idx.OffsetsByRegion(context.Background(), chrom, start, end)
	if err != nil {
		return nil, wrapErr(KindMissingIndex, err, "query region")
	}
	return r.decodeOffsets(offsets)
}

// IterVariantInfo calls fn with successive batches of identity-only
// variant metadata, batchSize at a time, reading only the sidecar index
// and never touching the data stream.
func (r *Reader) IterVariantInfo(batchSize int, fn func([]variant.Info) error) error {
	if r.idx == nil {
		return newErr(KindMissingIndex, "no sidecar index open")
	}
	if err := r.idx.IterVariantInfo(context.Background(), batchSize, fn); err != nil {
		return wrapErr(KindMissingIndex, err, "iterate variant info")
	}
	return nil
}

func (r *Reader) decodeOffsets(offsets []int64) ([]*variant.Record, error) {
	out := make([]*variant.Record, 0, len(offsets))
	for _, off := range offsets {
		rec, err := r.decodeAt(off)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// classifyCodecErr maps an error surfaced by the internal layers (which
// carry their own errutil-wrapped messages) onto this package's Kind
// taxonomy, preferring whatever Kind the error's message shape implies.
func classifyCodecErr(err error) error {
	if err == nil {
		return nil
	}
	if err == io.EOF {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "truncated file"):
		return wrapErr(KindTruncatedFile, err, "decode variant block")
	case strings.Contains(msg, "unsupported allele count"),
		strings.Contains(msg, "unsupported nb_alleles"),
		strings.Contains(msg, "unsupported ploidy"),
		strings.Contains(msg, "phased data is not supported"):
		return wrapErr(KindUnsupportedVariant, err, "decode variant block")
	}
	return wrapErr(KindInvalidBlock, err, "decode variant block")
}
