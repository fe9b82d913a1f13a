package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"
)

// Verbosity is a UVM report verbosity, ordered from quietest to loudest
type Verbosity string

const (
	VerbosityNone   Verbosity = "UVM_NONE"
	VerbosityLow    Verbosity = "UVM_LOW"
	VerbosityMedium Verbosity = "UVM_MEDIUM"
	VerbosityHigh   Verbosity = "UVM_HIGH"
	VerbosityFull   Verbosity = "UVM_FULL"
	VerbosityDebug  Verbosity = "UVM_DEBUG"
)

// Verbosities lists all levels in increasing order
var Verbosities = []Verbosity{
	VerbosityNone, VerbosityLow, VerbosityMedium, VerbosityHigh, VerbosityFull, VerbosityDebug,
}

// ParseVerbosity accepts "UVM_HIGH" as well as "high", in any case
func ParseVerbosity(s string) (Verbosity, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(name, "UVM_") {
		name = "UVM_" + name
	}
	for _, v := range Verbosities {
		if string(v) == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid verbosity '%s'", s)
}

// Seed is either a fixed value or a request for the simulator to pick one
type Seed struct {
	Value  int64 `json:"value"`
	Random bool  `json:"random"`
}

func (s Seed) String() string {
	if s.Random {
		return "random"
	}
	return fmt.Sprintf("%d", s.Value)
}

// Backpressure controls random stalls the testbench applies to the design
type Backpressure struct {
	Enabled bool `json:"enabled"`
	Percent int  `json:"percent"` // only meaningful when Enabled
}

const (
	DefaultTimeoutSeconds = 300
	DefaultBackpressure   = 30
)

var testNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// RunConfig is the validated configuration of one run. It is not modified
// after Resolve returns it.
type RunConfig struct {
	Test           string        `json:"test"`
	Seed           Seed          `json:"seed"`
	Verbosity      Verbosity     `json:"verbosity"`
	Coverage       bool          `json:"coverage"`
	CoverageReport bool          `json:"coverage_report"`
	GUI            bool          `json:"gui"`
	CompileOnly    bool          `json:"compile_only"`
	SkipCompile    bool          `json:"skip_compile"`
	Clean          bool          `json:"clean"`
	CleanOnly      bool          `json:"clean_only"`
	Timeout        time.Duration `json:"timeout"` // zero means unbounded
	Backpressure   Backpressure  `json:"backpressure"`
	Simulator      SimulatorKind `json:"simulator"`
	Layout         Layout        `json:"layout"`
	Manifest       *Manifest     `json:"-"`
	Dependency     Dependency    `json:"dependency"`
	History        bool          `json:"history"`
}

// relPath returns path relative to the project root when it lies inside it
func (c RunConfig) relPath(path string) string {
	rel, err := filepath.Rel(c.Layout.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// RawArgs holds command line input before validation. The *Set fields
// record whether the flag was given at all.
type RawArgs struct {
	Test           string
	TestSet        bool
	Seed           int64
	SeedSet        bool
	Verbosity      string
	Coverage       bool
	CoverageReport bool
	GUI            bool
	CompileOnly    bool
	NoCompile      bool
	Clean          bool
	TimeoutSeconds int
	Backpressure   int
	NoBackpressure bool
	Simulator      string
	Root           string
	NoHistory      bool
}

// DefaultRawArgs returns the flag defaults
func DefaultRawArgs() RawArgs {
	return RawArgs{
		Verbosity:      string(VerbosityMedium),
		TimeoutSeconds: DefaultTimeoutSeconds,
		Backpressure:   DefaultBackpressure,
		Simulator:      string(SimulatorQuesta),
		Root:           ".",
	}
}

// ConfigError reports invalid run parameters
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func configErrorf(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Resolver turns raw arguments into a RunConfig. Environment and filesystem
// access go through its fields so tests can replace them.
type Resolver struct {
	LookupEnv func(string) (string, bool)
	Exists    func(string) bool
	GOOS      string
	Manifest  *Manifest
}

// NewResolver returns a resolver backed by the process environment
func NewResolver(manifest *Manifest) Resolver {
	return Resolver{
		LookupEnv: os.LookupEnv,
		Exists:    DirExists,
		GOOS:      runtime.GOOS,
		Manifest:  manifest,
	}
}

// Resolve validates raw and fills in defaults
func (r Resolver) Resolve(raw RawArgs) (RunConfig, error) {
	manifest := r.Manifest
	if manifest == nil {
		manifest = DefaultManifest()
	}

	sim, err := ParseSimulator(raw.Simulator)
	if err != nil {
		return RunConfig{}, configErrorf("simulator", "'%s' (expected one of %v)", raw.Simulator, Simulators)
	}
	caps := CapabilitiesOf(sim)

	verbosity, err := ParseVerbosity(raw.Verbosity)
	if err != nil {
		return RunConfig{}, configErrorf("verbosity", "'%s' (expected one of %v)", raw.Verbosity, Verbosities)
	}

	test := manifest.DefaultTest
	if raw.TestSet {
		test = strings.TrimSpace(raw.Test)
		if test == "" {
			return RunConfig{}, configErrorf("test", "name must not be empty")
		}
	}
	// The name becomes a file name and a plusarg value
	if !testNamePattern.MatchString(test) || test == "." || test == ".." {
		return RunConfig{}, configErrorf("test", "'%s' is not a valid test name (letters, digits, '_', '.', '-')", test)
	}

	if raw.CompileOnly && raw.NoCompile {
		return RunConfig{}, configErrorf("flags", "--compile-only and --no-compile cannot be combined")
	}
	if raw.GUI && !caps.GUI {
		return RunConfig{}, configErrorf("flags", "--gui is not supported by %s", sim)
	}
	coverage := raw.Coverage || raw.CoverageReport
	if coverage && !caps.Coverage {
		return RunConfig{}, configErrorf("flags", "coverage is not supported by %s", sim)
	}

	if raw.TimeoutSeconds < 0 {
		return RunConfig{}, configErrorf("timeout", "%d must not be negative", raw.TimeoutSeconds)
	}
	timeout := time.Duration(raw.TimeoutSeconds) * time.Second
	if raw.GUI {
		timeout = 0
	}

	bp := Backpressure{Enabled: !raw.NoBackpressure}
	if bp.Enabled {
		if raw.Backpressure < 0 || raw.Backpressure > 100 {
			return RunConfig{}, configErrorf("backpressure", "%d is outside 0-100", raw.Backpressure)
		}
		bp.Percent = raw.Backpressure
	}

	seed := Seed{Random: true}
	if raw.SeedSet {
		if raw.Seed < 0 && sim == SimulatorVerilator {
			return RunConfig{}, configErrorf("seed", "%d must not be negative for %s", raw.Seed, sim)
		}
		seed = Seed{Value: raw.Seed}
	}

	rootArg := raw.Root
	if rootArg == "" {
		rootArg = "."
	}
	root, err := filepath.Abs(rootArg)
	if err != nil {
		return RunConfig{}, configErrorf("root", "%v", err)
	}

	cfg := RunConfig{
		Test:           test,
		Seed:           seed,
		Verbosity:      verbosity,
		Coverage:       coverage,
		CoverageReport: raw.CoverageReport,
		GUI:            raw.GUI,
		CompileOnly:    raw.CompileOnly,
		SkipCompile:    raw.NoCompile,
		Clean:          raw.Clean,
		CleanOnly:      raw.Clean && !raw.TestSet && !raw.CompileOnly,
		Timeout:        timeout,
		Backpressure:   bp,
		Simulator:      sim,
		Layout:         NewLayout(root),
		Manifest:       manifest,
		History:        !raw.NoHistory,
	}

	if caps.ExternalMethodology {
		exists := r.Exists
		if exists == nil {
			exists = DirExists
		}
		cfg.Dependency = Discover(UVMCandidates(r.LookupEnv, root, r.GOOS), exists)
	}

	return cfg, nil
}
