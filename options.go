package bgen

// OpenOption configures an Open call. The shape follows the teacher's
// flag-based CLI configuration generalized to the functional-options
// pattern idiomatic for library constructors.
type OpenOption func(*openConfig)

type openConfig struct {
	mode       string
	threshold  float64
	probsOnly  bool
	skipIndex  bool
	offsets    []int64
}

func defaultConfig() openConfig {
	return openConfig{
		mode:      "r",
		threshold: 0.9,
	}
}

// WithMode sets the open mode. Only "r" is supported; "w" fails with
// NotImplemented, since writing BGEN files is out of scope, and any other
// value fails with UnsupportedMode.
func WithMode(mode string) OpenOption {
	return func(c *openConfig) { c.mode = mode }
}

// WithThreshold sets the probability-confidence threshold applied to
// dosage output. Zero disables filtering. Negative values are rejected at
// Open time.
func WithThreshold(t float64) OpenOption {
	return func(c *openConfig) { c.threshold = t }
}

// WithProbabilitiesOnly switches the reader's return mode from dosages to
// full (N,3) probability matrices.
func WithProbabilitiesOnly() OpenOption {
	return func(c *openConfig) { c.probsOnly = true }
}

// withSkipIndex and withOffsets are unexported: they back OpenOffsets, the
// constructor used by the parallel package to build index-skipping worker
// readers over a pre-resolved stripe of offsets. They are not part of the
// public OpenOption surface because skipping the index is only safe when
// the caller already has valid offsets in hand.
func withSkipIndex() OpenOption {
	return func(c *openConfig) { c.skipIndex = true }
}

func withOffsets(offsets []int64) OpenOption {
	return func(c *openConfig) { c.offsets = offsets }
}
