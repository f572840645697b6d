// Command bgen-dump sequentially dumps the variants of a BGEN file to
// stdout: one line per variant, identity followed by either its dosage
// vector or its full probability matrix.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/pkg/errors"

	"github.com/mewkiz/bgen"
)

func main() {
	var (
		threshold float64
		probsOnly bool
		region    string
		name      string
	)
	flag.Float64Var(&threshold, "t", 0.9, "probability-confidence threshold")
	flag.BoolVar(&probsOnly, "probs", false, "dump probability matrices instead of dosages")
	flag.StringVar(&region, "region", "", "dump only variants in chrom:start-end")
	flag.StringVar(&name, "rsid", "", "dump only the variant with this rsid")
	flag.Parse()

	for _, path := range flag.Args() {
		if err := dump(path, threshold, probsOnly, region, name); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

func dump(path string, threshold float64, probsOnly bool, region, name string) error {
	opts := []bgen.OpenOption{bgen.WithThreshold(threshold)}
	if probsOnly {
		opts = append(opts, bgen.WithProbabilitiesOnly())
	}
	r, err := bgen.Open(path, opts...)
	if err != nil {
		return errors.Wrapf(err, "open %q", path)
	}
	defer r.Close()

	fmt.Printf("# %s: %d variants, %d samples\n", path, r.NbVariants(), r.NbSamples())

	switch {
	case name != "":
		recs, err := r.GetVariant(name)
		if err != nil {
			return errors.Wrapf(err, "get variant %q", name)
		}
		for _, rec := range recs {
			printRecord(rec)
		}
		return nil
	case region != "":
		chrom, start, end, err := parseRegion(region)
		if err != nil {
			return err
		}
		recs, err := r.IterVariantsInRegion(chrom, start, end)
		if err != nil {
			return errors.Wrapf(err, "region %q", region)
		}
		for _, rec := range recs {
			printRecord(rec)
		}
		return nil
	default:
		for {
			rec, err := r.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return errors.Wrap(err, "decode next variant")
			}
			printRecord(rec)
		}
	}
}

func printRecord(rec *bgen.Record) {
	v := rec.Variant
	fmt.Printf("%s\t%s\t%d\t%s\t%s", v.Name, v.Chromosome, v.Position, v.Allele1, v.Allele2)
	switch {
	case rec.Data.Dosages != nil:
		for _, d := range rec.Data.Dosages.Data {
			fmt.Printf("\t%.4f", d)
		}
	case rec.Data.Probabilities != nil:
		m := rec.Data.Probabilities
		for i := 0; i < m.NbSamples; i++ {
			homref, het, homalt := m.Row(i)
			fmt.Printf("\t%.4f,%.4f,%.4f", homref, het, homalt)
		}
	}
	fmt.Println()
}

func parseRegion(s string) (chrom string, start, end uint32, err error) {
	chromPart, rangePart, ok := strings.Cut(s, ":")
	if !ok {
		return "", 0, 0, errors.Errorf("invalid region %q, want chrom:start-end", s)
	}
	startPart, endPart, ok := strings.Cut(rangePart, "-")
	if !ok {
		return "", 0, 0, errors.Errorf("invalid region %q, want chrom:start-end", s)
	}
	var startN, endN int
	if _, err := fmt.Sscanf(startPart, "%d", &startN); err != nil {
		return "", 0, 0, errors.Wrapf(err, "invalid start in region %q", s)
	}
	if _, err := fmt.Sscanf(endPart, "%d", &endN); err != nil {
		return "", 0, 0, errors.Wrapf(err, "invalid end in region %q", s)
	}
	return chromPart, uint32(startN), uint32(endN), nil
}
