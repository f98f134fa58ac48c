package bbduk

import "gopkg.in/yaml.v3"

// KmerMode selects the mutually exclusive trim/mask/split behavior of the
// k-mer phase (spec.md §4.5). ModeFilter is the default: no trim/mask/split
// is requested, and filter-by-count / filter-by-coverage / find-best-match
// apply instead.
type KmerMode int

const (
	ModeFilter KmerMode = iota
	ModeKTrimLeft
	ModeKTrimRight
	ModeKTrimBoth
	ModeKTrimN
	ModeKSplit
)

// PolymerBase selects which homopolymer run the secondary-trim polymer
// phase looks for (spec.md §4.6 step 5).
type PolymerBase int

const (
	PolymerNone PolymerBase = iota
	PolymerA
	PolymerGLeft
	PolymerGRight
	PolymerCLeft
	PolymerCRight
)

// Config is the flat, defaulted options struct for the read pipeline,
// following the shape of fusion.Opts/fusion.DefaultOpts: one field per
// recognized option in spec.md §6.3, grouped by pipeline phase.
type Config struct {
	// QHDist and QHDist2 are the query-time Hamming distances for
	// full-length and short k-mer probes respectively.
	QHDist  int `yaml:"qhdist"`
	QHDist2 int `yaml:"qhdist2"`

	// --- k-mer phase (§4.5) ---
	Mode           KmerMode `yaml:"mode"`
	KTrimExclusive bool     `yaml:"ktrim_exclusive"`
	TrimPad        int      `yaml:"trim_pad"`
	RestrictLeft   int      `yaml:"restrict_left"`
	RestrictRight  int      `yaml:"restrict_right"`

	MinKmerFraction    float64 `yaml:"min_kmer_fraction"`
	MaxBadKmers        int     `yaml:"max_bad_kmers"`
	MinCoveredFraction float64 `yaml:"min_covered_fraction"`

	FindBestMatch bool `yaml:"find_best_match"`
	RenameID      bool `yaml:"rename_id"`

	MaskSymbol       byte `yaml:"mask_symbol"`
	MaskLowercase    bool `yaml:"mask_lowercase"`
	MaskFullyCovered bool `yaml:"mask_fully_covered"`
	MinReadLength    int  `yaml:"min_read_length"`

	// --- force-trim (§4.6 step 1) ---
	ForceTrimLeft   int `yaml:"force_trim_left"`
	ForceTrimRight  int `yaml:"force_trim_right"`
	ForceTrimRight2 int `yaml:"force_trim_right2"`
	ForceTrimModulo int `yaml:"force_trim_modulo"`

	// --- initial filters (§4.6 step 2) ---
	RequireChastity    bool     `yaml:"require_chastity"`
	FlowcellXMin       int      `yaml:"flowcell_x_min"`
	FlowcellXMax       int      `yaml:"flowcell_x_max"`
	FlowcellYMin       int      `yaml:"flowcell_y_min"`
	FlowcellYMax       int      `yaml:"flowcell_y_max"`
	FlowcellFilter     bool     `yaml:"flowcell_filter"`
	BarcodeWhitelist   []string `yaml:"barcode_whitelist"`
	BarcodeMaxEditDist int      `yaml:"barcode_max_edit_dist"`
	MinGC              float64  `yaml:"min_gc"`
	MaxGC              float64  `yaml:"max_gc"`
	GCPerPair          bool     `yaml:"gc_per_pair"`

	// --- pair policy (§4.6 steps 3/output) ---
	RemovePairsIfEitherBad bool `yaml:"remove_pairs_if_either_bad"`
	TrimFailuresTo1bp      bool `yaml:"trim_failures_to_1bp"`
	PairedToSingle         bool `yaml:"paired_to_single"`

	// --- secondary trimming (§4.6 step 5) ---
	SwiftTrim         bool          `yaml:"swift_trim"`
	Polymers          []PolymerBase `yaml:"polymers"`
	PolymerMinRun     int           `yaml:"polymer_min_run"`
	PolymerMaxNonPoly int           `yaml:"polymer_max_non_poly"`

	EntropyWindow   int     `yaml:"entropy_window"`
	EntropyCutoff   float64 `yaml:"entropy_cutoff"`
	EntropyMask     bool    `yaml:"entropy_mask"`
	EntropyTrim     bool    `yaml:"entropy_trim"`
	EntropyMarkOnly bool    `yaml:"entropy_mark_only"`

	QualityTrimLeft  bool    `yaml:"quality_trim_left"`
	QualityTrimRight bool    `yaml:"quality_trim_right"`
	TrimQuality      float64 `yaml:"trim_quality"`
	QualityOffset    int     `yaml:"quality_offset"`

	// --- final filters (§4.6 step 6) ---
	MinLength      int     `yaml:"min_length"`
	MaxLength      int     `yaml:"max_length"`
	MinAvgQuality  float64 `yaml:"min_avg_quality"`
	MinBaseQuality float64 `yaml:"min_base_quality"`
	// MaxNCount < 0 disables the filter (DefaultConfig uses -1).
	MaxNCount         int     `yaml:"max_n_count"`
	MinConsecutiveRun int     `yaml:"min_consecutive_run"`
	MinBaseFrequency  float64 `yaml:"min_base_frequency"`
	StandaloneEntropy float64 `yaml:"standalone_entropy"`
	QuantizeQuality   bool    `yaml:"quantize_quality"`

	// SampleRate subsamples input reads (§6.2), via the highwayhash gate in
	// sampler.go.
	SampleRate float64 `yaml:"sample_rate"`
	SampleSeed uint64  `yaml:"sample_seed"`
}

// DefaultConfig matches spec.md §6.3's documented defaults for the
// pipeline-level options not already owned by kindex.Config.
var DefaultConfig = Config{
	QHDist:             0,
	QHDist2:            0,
	Mode:               ModeFilter,
	KTrimExclusive:     false,
	TrimPad:            0,
	MinKmerFraction:    0,
	MaxBadKmers:        0,
	MinCoveredFraction: 0,
	MaskSymbol:         'N',
	MinReadLength:      1,
	MaxNCount:          -1,
	ForceTrimModulo:    0,
	BarcodeMaxEditDist: 1,
	MinGC:              0,
	MaxGC:              1,
	PolymerMinRun:      5,
	PolymerMaxNonPoly:  0,
	EntropyWindow:      50,
	EntropyCutoff:      0,
	TrimQuality:        6,
	QualityOffset:      33,
	MinLength:          1,
	MaxLength:          0, // 0 == unbounded
	MinBaseFrequency:   0,
	SampleRate:         1,
}

// LoadConfig unmarshals a YAML options document on top of DefaultConfig,
// so an options file only needs to mention the fields it overrides. This
// is cmd/bbduk's "-config path.yaml" flag, for the option surface spec.md
// §6.3 documents that is too large to bind comfortably field-by-field
// with flag.*.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
