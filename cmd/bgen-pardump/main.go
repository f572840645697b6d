// Command bgen-pardump dumps a BGEN file's variants using the parallel
// fan-out, exercising the worker-pool path instead of bgen-dump's
// sequential one.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/pkg/errors"

	"github.com/mewkiz/bgen/parallel"
)

func main() {
	var (
		threshold float64
		workers   int
		probsOnly bool
		maxQueue  int
	)
	flag.Float64Var(&threshold, "t", 0.9, "probability-confidence threshold")
	flag.IntVar(&workers, "cpus", 2, "number of worker goroutines")
	flag.BoolVar(&probsOnly, "probs", false, "dump probability matrices instead of dosages")
	flag.IntVar(&maxQueue, "max-variants", 1000, "bounded queue capacity")
	flag.Parse()

	for _, path := range flag.Args() {
		if err := pardump(path, threshold, workers, probsOnly, maxQueue); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

func pardump(path string, threshold float64, workers int, probsOnly bool, maxQueue int) error {
	opts := parallel.Options{
		Workers:             workers,
		Threshold:           threshold,
		ReturnProbabilities: probsOnly,
		MaxVariants:         maxQueue,
	}
	out, cancel, err := parallel.All(path, opts)
	if err != nil {
		return errors.Wrapf(err, "fan out over %q", path)
	}
	defer cancel()

	var n int
	for rec := range out {
		if rec.Err != nil {
			return errors.Wrap(rec.Err, "worker failed")
		}
		n++
		v := rec.Record.Variant
		fmt.Printf("%s\t%s\t%d\n", v.Name, v.Chromosome, v.Position)
	}
	fmt.Printf("# dumped %d variants from %q using %d workers\n", n, path, workers)
	return nil
}
