// Package config resolves the CLI surface of §6.3: pflag-defined flags
// with an optional YAML file providing defaults, the way
// operator-lifecycle-manager's config.LoadConfig layers a YAML file
// under explicit flags.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

// Algorithm selects the core-guided search algorithm (§6.3).
type Algorithm string

const (
	AlgWBO    Algorithm = "wbo"
	AlgMSU3   Algorithm = "msu3"
	AlgOLL    Algorithm = "oll"
	AlgLinear Algorithm = "linear"
)

// MergeHeuristic selects the partition controller's phase-2 strategy
// (§4.4), mirroring partition.Heuristic without importing it (config
// must stay leaf-level so every other package can depend on it without
// a cycle; cmd/pmaxsat translates the string at wiring time).
type MergeHeuristic string

const (
	MergeBySize         MergeHeuristic = "size"
	MergeByCores        MergeHeuristic = "cores"
	MergeSaturationOnly MergeHeuristic = "saturation_only"
)

// InputFormat selects which of the three §6.2 grammars to parse stdin
// or --input as.
type InputFormat string

const (
	FormatWCNF  InputFormat = "wcnf"
	FormatOPB   InputFormat = "opb"
	FormatPWCNF InputFormat = "pwcnf"
)

// Options is the fully-resolved configuration a run is driven by: every
// field here has a value regardless of whether it came from a flag, a
// YAML file, or a built-in default (§6.3).
type Options struct {
	Input       string      `yaml:"input"`
	InputFormat InputFormat `yaml:"input_format"`

	Algorithm Algorithm `yaml:"algorithm"`

	BMO         bool `yaml:"bmo"`
	Partition   bool `yaml:"partition"`
	AllOptSols  bool `yaml:"all_opt_sols"`

	MergeHeuristic   MergeHeuristic `yaml:"merge_heuristic"`
	ConflictBudget   int            `yaml:"conflict_budget"`
	CPULimitSeconds  int            `yaml:"cpu_limit_seconds"`
	MemLimitMB       int            `yaml:"mem_limit_mb"`
	Verbosity        int            `yaml:"verbosity"`

	PWCNFOut    string `yaml:"pwcnf_out"`
	JSONStats   string `yaml:"json_stats"`
	MetricsAddr string `yaml:"metrics_addr"`

	// ConfigFile is the --config path itself, not part of the YAML
	// document it names.
	ConfigFile string `yaml:"-"`

	// verbosityCounter backs the repeatable -v flag; Verbosity is the
	// field everything else reads.
	verbosityCounter int
}

// File is the top-level YAML document shape, matching the
// ALMOperatorConfig-style "named section" wrapper the pack's own
// config loader uses, so a YAML file can carry other top-level keys
// untouched by this tool.
type File struct {
	PMaxSAT Options `yaml:"pmaxsat"`
}

// Defaults returns the built-in defaults, applied before any YAML file
// or flag override.
func Defaults() Options {
	return Options{
		InputFormat:     FormatWCNF,
		Algorithm:       AlgOLL,
		BMO:             true,
		Partition:       false,
		MergeHeuristic:  MergeBySize,
		ConflictBudget:  0,
		CPULimitSeconds: 0,
		MemLimitMB:      0,
		Verbosity:       0,
	}
}

// RegisterFlags binds fs's flags to opts, which must already hold the
// defaults to fall back on (Defaults(), optionally overridden by a
// YAML file loaded first — flags always win, matching operator-cli's
// "layer then override" ordering).
func RegisterFlags(fs *pflag.FlagSet, opts *Options) {
	fs.StringVar(&opts.Input, "input", opts.Input, "path to the problem file, or \"-\" for stdin")
	fs.StringVar((*string)(&opts.InputFormat), "input-format", string(opts.InputFormat), "input format: wcnf|opb|pwcnf")
	fs.StringVar((*string)(&opts.Algorithm), "algorithm", string(opts.Algorithm), "core-guided algorithm: wbo|msu3|oll|linear")
	fs.BoolVar(&opts.BMO, "bmo", opts.BMO, "enable BMO lexicographic search when the weight condition holds")
	fs.BoolVar(&opts.Partition, "partition", opts.Partition, "enable the partition controller")
	fs.BoolVar(&opts.AllOptSols, "all-opt-sols", opts.AllOptSols, "enumerate all optimal solutions once one is found")
	fs.StringVar((*string)(&opts.MergeHeuristic), "merge-heuristic", string(opts.MergeHeuristic), "partition merge heuristic: size|cores|saturation_only")
	fs.IntVar(&opts.ConflictBudget, "conflict-budget", opts.ConflictBudget, "per-partition conflict budget in phase 1, 0 for unbounded")
	fs.IntVar(&opts.CPULimitSeconds, "cpu-limit-seconds", opts.CPULimitSeconds, "CPU time limit, 0 for unbounded")
	fs.IntVar(&opts.MemLimitMB, "mem-limit-mb", opts.MemLimitMB, "address-space (virtual memory) limit in MB, 0 for unbounded")
	fs.CountVarP(&opts.verbosityCounter, "verbose", "v", "increase log verbosity, repeatable")
	fs.StringVar(&opts.PWCNFOut, "pwcnf-out", opts.PWCNFOut, "write the parsed formula back out in PWCNF, for the partition-preprocessor branch")
	fs.StringVar(&opts.JSONStats, "json-stats", opts.JSONStats, "write a JSON statistics snapshot to this path")
	fs.StringVar(&opts.MetricsAddr, "metrics-addr", opts.MetricsAddr, "serve Prometheus metrics on this address, empty to disable")
	fs.StringVar(&opts.ConfigFile, "config", opts.ConfigFile, "optional YAML file providing defaults below flag overrides")
}

// Load resolves Options the way §6.3 expects: built-in defaults, then a
// YAML file if --config names one, then flags on top (flags always
// win, since RegisterFlags seeds each flag's default from the
// already-loaded opts).
func Load(args []string) (*Options, error) {
	opts := Defaults()

	// A first, silent pass over args just to find --config, since its
	// value changes what RegisterFlags should use as defaults.
	pre := pflag.NewFlagSet("pmaxsat-preflag", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.StringVar(&opts.ConfigFile, "config", "", "")
	_ = pre.Parse(args)

	if opts.ConfigFile != "" {
		if err := loadYAML(opts.ConfigFile, &opts); err != nil {
			return nil, err
		}
	}

	fs := pflag.NewFlagSet("pmaxsat", pflag.ContinueOnError)
	RegisterFlags(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.Verbosity += opts.verbosityCounter

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

func loadYAML(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "config: reading %s", path)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return errors.Wrapf(err, "config: parsing %s", path)
	}
	merge(opts, f.PMaxSAT)
	return nil
}

// merge overlays every non-zero-value field of override onto base,
// mirroring how operator-lifecycle-manager's LoadConfig patches a
// parsed struct's zero fields rather than replacing it wholesale.
func merge(base *Options, override Options) {
	if override.Input != "" {
		base.Input = override.Input
	}
	if override.InputFormat != "" {
		base.InputFormat = override.InputFormat
	}
	if override.Algorithm != "" {
		base.Algorithm = override.Algorithm
	}
	base.BMO = base.BMO || override.BMO
	base.Partition = base.Partition || override.Partition
	base.AllOptSols = base.AllOptSols || override.AllOptSols
	if override.MergeHeuristic != "" {
		base.MergeHeuristic = override.MergeHeuristic
	}
	if override.ConflictBudget != 0 {
		base.ConflictBudget = override.ConflictBudget
	}
	if override.CPULimitSeconds != 0 {
		base.CPULimitSeconds = override.CPULimitSeconds
	}
	if override.MemLimitMB != 0 {
		base.MemLimitMB = override.MemLimitMB
	}
	if override.Verbosity != 0 {
		base.Verbosity = override.Verbosity
	}
	if override.PWCNFOut != "" {
		base.PWCNFOut = override.PWCNFOut
	}
	if override.JSONStats != "" {
		base.JSONStats = override.JSONStats
	}
	if override.MetricsAddr != "" {
		base.MetricsAddr = override.MetricsAddr
	}
}

// Validate rejects combinations §7 calls "algorithm misconfiguration":
// unknown enum values caught before the engine ever starts.
func (o *Options) Validate() error {
	switch o.InputFormat {
	case FormatWCNF, FormatOPB, FormatPWCNF:
	default:
		return errors.Errorf("config: unknown --input-format %q", o.InputFormat)
	}
	switch o.Algorithm {
	case AlgWBO, AlgMSU3, AlgOLL, AlgLinear:
	default:
		return errors.Errorf("config: unknown --algorithm %q", o.Algorithm)
	}
	switch o.MergeHeuristic {
	case MergeBySize, MergeByCores, MergeSaturationOnly:
	default:
		return errors.Errorf("config: unknown --merge-heuristic %q", o.MergeHeuristic)
	}
	if o.ConflictBudget < 0 {
		return errors.New("config: --conflict-budget must be >= 0")
	}
	return nil
}

// CPULimit returns the CPU limit as a time.Duration, 0 for unbounded,
// for callers installing an OS resource limit (§5).
func (o *Options) CPULimit() time.Duration {
	return time.Duration(o.CPULimitSeconds) * time.Second
}
