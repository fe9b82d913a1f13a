package runner

import (
	"errors"
	"fmt"
	"strings"
)

// SimulatorKind names a supported simulator toolchain
type SimulatorKind string

const (
	SimulatorQuesta    SimulatorKind = "questa"
	SimulatorVerilator SimulatorKind = "verilator"
)

// Simulators lists the supported toolchains, default first
var Simulators = []SimulatorKind{SimulatorQuesta, SimulatorVerilator}

// ParseSimulator maps a flag value to a simulator kind
func ParseSimulator(s string) (SimulatorKind, error) {
	for _, k := range Simulators {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown simulator '%s'", s)
}

// Capabilities describes what a backend can do
type Capabilities struct {
	Coverage            bool `json:"coverage"`
	GUI                 bool `json:"gui"`
	ExternalMethodology bool `json:"external_methodology"` // needs a separately installed UVM
}

var capabilities = map[SimulatorKind]Capabilities{
	SimulatorQuesta:    {Coverage: true, GUI: true},
	SimulatorVerilator: {ExternalMethodology: true},
}

// CapabilitiesOf returns the capabilities of a simulator kind
func CapabilitiesOf(kind SimulatorKind) Capabilities {
	return capabilities[kind]
}

var (
	// ErrUnsupported is returned when a backend lacks the capability for an operation
	ErrUnsupported = errors.New("not supported by backend")
	// ErrCoverageDisabled is returned when a coverage report is requested for a run
	// that does not collect coverage
	ErrCoverageDisabled = errors.New("coverage collection is not enabled")
)

// Backend translates a run configuration into simulator commands
type Backend interface {
	Name() SimulatorKind
	Capabilities() Capabilities
	// CompileStages returns the compile stages in execution order
	CompileStages(cfg RunConfig) []Stage
	// ElaborateStage returns nil when the backend has no separate elaboration
	ElaborateStage(cfg RunConfig) *Stage
	SimulateStage(cfg RunConfig, artifacts ArtifactSet) Stage
	CoverageReportStages(cfg RunConfig, artifacts ArtifactSet) ([]Stage, error)
}

// NewBackend returns the backend selected by the configuration
func NewBackend(cfg RunConfig) (Backend, error) {
	switch cfg.Simulator {
	case SimulatorQuesta:
		return &Questa{}, nil
	case SimulatorVerilator:
		return &Verilator{UVMHome: cfg.Dependency.Path}, nil
	default:
		return nil, fmt.Errorf("unknown simulator '%s'", cfg.Simulator)
	}
}

// Shared plusargs understood by the testbench

func testPlusargs(cfg RunConfig) []string {
	return []string{
		"+UVM_TESTNAME=" + cfg.Test,
		"+UVM_VERBOSITY=" + string(cfg.Verbosity),
	}
}

func backpressurePlusargs(bp Backpressure) []string {
	enable := 0
	if bp.Enabled {
		enable = 1
	}
	return []string{
		fmt.Sprintf("+BACKPRESSURE_EN=%d", enable),
		fmt.Sprintf("+BACKPRESSURE_PCT=%d", bp.Percent),
	}
}

// incDirArgs builds +incdir+ arguments, skipping duplicates
func incDirArgs(dirs ...[]string) []string {
	var args []string
	seen := make(map[string]struct{})
	for _, group := range dirs {
		for _, dir := range group {
			if _, ok := seen[dir]; ok {
				continue
			}
			seen[dir] = struct{}{}
			args = append(args, "+incdir+"+dir)
		}
	}
	return args
}
