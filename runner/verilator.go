package runner

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// Verilator drives Verilator in --binary mode. Compilation produces a
// directly runnable model, so there is no elaboration stage.
type Verilator struct {
	UVMHome string // empty when the UVM package was not found
}

func (v *Verilator) Name() SimulatorKind { return SimulatorVerilator }

func (v *Verilator) Capabilities() Capabilities { return CapabilitiesOf(SimulatorVerilator) }

func verilatorObjDir(cfg RunConfig) string {
	return cfg.relPath(filepath.Join(cfg.Layout.SimDir, "obj_dir"))
}

// CompileStages compiles the UVM package, interface, design and testbench in
// one invocation.
func (v *Verilator) CompileStages(cfg RunConfig) []Stage {
	top := cfg.Manifest.Top
	args := []string{
		"--binary", "--timing", "-j", "0", "-Wno-fatal", "--trace",
		"--top-module", top,
		"-Mdir", verilatorObjDir(cfg),
		"-o", top,
	}

	var incs [][]string
	var files []string
	if v.UVMHome != "" {
		src := filepath.Join(v.UVMHome, "src")
		args = append(args, "+define+UVM_NO_DPI")
		incs = append(incs, []string{src})
		files = append(files, filepath.Join(src, "uvm_pkg.sv"))
	}
	for _, unit := range cfg.Manifest.Units {
		incs = append(incs, unit.IncludeDirs)
		files = append(files, unit.Files...)
	}
	args = append(args, incDirArgs(incs...)...)
	args = append(args, files...)

	stage := newStage("Compile Design and Testbench", PhaseCompile, cfg.Layout.Root, NewCommand("verilator", args...))
	stage.Artifacts = []string{filepath.Join(cfg.Layout.SimDir, "obj_dir", top)}
	return []Stage{stage}
}

func (v *Verilator) ElaborateStage(cfg RunConfig) *Stage { return nil }

// SimulateStage runs the compiled model. The model exits on $finish, so batch
// mode needs no extra exit command.
func (v *Verilator) SimulateStage(cfg RunConfig, artifacts ArtifactSet) Stage {
	args := []string{"+verilator+seed+" + verilatorSeed(cfg.Seed)}
	args = append(args, testPlusargs(cfg)...)
	args = append(args, backpressurePlusargs(cfg.Backpressure)...)
	args = append(args, "+WAVEFORM="+artifacts.Waveform)

	program := filepath.Join(cfg.Layout.SimDir, "obj_dir", cfg.Manifest.Top)
	stage := newStage("Simulate "+cfg.Test, PhaseSimulate, cfg.Layout.Root, NewCommand(program, args...))
	stage.Timeout = cfg.Timeout
	stage.LogFile = artifacts.Log
	stage.Artifacts = artifacts.Paths()
	return stage
}

func (v *Verilator) CoverageReportStages(cfg RunConfig, artifacts ArtifactSet) ([]Stage, error) {
	return nil, fmt.Errorf("%s coverage report: %w", v.Name(), ErrUnsupported)
}

// verilatorSeed maps a random seed to 0, which makes the model pick its own
func verilatorSeed(seed Seed) string {
	if seed.Random {
		return "0"
	}
	return strconv.FormatInt(seed.Value, 10)
}
