package runner

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// questaCoverFlag selects branch, condition, expression, statement, fsm and toggle coverage
const questaCoverFlag = "+cover=bcesft"

// Questa drives the Questa/ModelSim toolchain (vlib, vmap, vlog, vopt, vsim, vcover)
type Questa struct{}

func (q *Questa) Name() SimulatorKind { return SimulatorQuesta }

func (q *Questa) Capabilities() Capabilities { return CapabilitiesOf(SimulatorQuesta) }

// CompileStages creates and maps the work library, then compiles each unit
// separately so a failure points at the unit that broke.
func (q *Questa) CompileStages(cfg RunConfig) []Stage {
	dir := cfg.Layout.Root
	lib := cfg.relPath(filepath.Join(cfg.Layout.SimDir, "work"))

	stages := []Stage{
		newStage("Create Work Library", PhaseCompile, dir, NewCommand("vlib", lib)),
		newStage("Map Work Library", PhaseCompile, dir, NewCommand("vmap", "work", lib)),
	}

	for _, unit := range cfg.Manifest.Units {
		args := []string{"-sv", "-work", "work"}
		if cfg.Coverage && unit.Coverage {
			args = append(args, questaCoverFlag)
		}
		args = append(args, incDirArgs(unit.IncludeDirs)...)
		args = append(args, unit.Files...)
		stages = append(stages, newStage("Compile "+unit.Name, PhaseCompile, dir, NewCommand("vlog", args...)))
	}

	return stages
}

// ElaborateStage optimizes the top unit into <top>_opt
func (q *Questa) ElaborateStage(cfg RunConfig) *Stage {
	args := []string{"+acc=npr"}
	if cfg.Coverage {
		args = append(args, questaCoverFlag)
	}
	args = append(args, "-o", questaOptName(cfg), "work."+cfg.Manifest.Top)

	stage := newStage("Elaborate Design", PhaseElaborate, cfg.Layout.Root, NewCommand("vopt", args...))
	return &stage
}

func (q *Questa) SimulateStage(cfg RunConfig, artifacts ArtifactSet) Stage {
	mode := "-c"
	if cfg.GUI {
		mode = "-gui"
	}

	args := []string{mode}
	if cfg.Coverage {
		args = append(args, "-coverage", "-coverstore", cfg.Layout.CoverageDir)
	}
	args = append(args, "-sv_seed", questaSeed(cfg.Seed))
	args = append(args, testPlusargs(cfg)...)
	args = append(args, backpressurePlusargs(cfg.Backpressure)...)
	args = append(args, "-wlf", artifacts.Waveform, "-l", artifacts.Log)

	// Batch mode must quit on its own
	if !cfg.GUI {
		do := "run -all; quit -f"
		if cfg.Coverage {
			do = fmt.Sprintf("coverage save -onexit %s; %s", tclWord(artifacts.CoverageDB), do)
		}
		args = append(args, "-do", do)
	}
	args = append(args, questaOptName(cfg))

	stage := newStage("Simulate "+cfg.Test, PhaseSimulate, cfg.Layout.Root, NewCommand("vsim", args...))
	if !cfg.GUI {
		stage.Timeout = cfg.Timeout
	}
	stage.Artifacts = []string{artifacts.Log, artifacts.Waveform}
	if cfg.Coverage {
		stage.Artifacts = append(stage.Artifacts, artifacts.CoverageDB)
	}
	return stage
}

// CoverageReportStages writes a detailed text report and an HTML report from
// the coverage database of the simulate stage.
func (q *Questa) CoverageReportStages(cfg RunConfig, artifacts ArtifactSet) ([]Stage, error) {
	if !cfg.Coverage || artifacts.CoverageDB == "" {
		return nil, fmt.Errorf("%s coverage report: %w", q.Name(), ErrCoverageDisabled)
	}
	if artifacts.CoverageReport == "" || artifacts.CoverageHTML == "" {
		return nil, fmt.Errorf("%s coverage report: no report paths planned", q.Name())
	}

	dir := cfg.Layout.Root
	text := newStage("Generate Text Report", PhaseReport, dir,
		NewCommand("vcover", "report", "-details", "-output", artifacts.CoverageReport, artifacts.CoverageDB))
	text.Artifacts = []string{artifacts.CoverageReport}

	html := newStage("Generate HTML Report", PhaseReport, dir,
		NewCommand("vcover", "report", "-html", "-htmldir", artifacts.CoverageHTML, artifacts.CoverageDB))
	html.Artifacts = []string{artifacts.CoverageHTML}

	return []Stage{text, html}, nil
}

func questaOptName(cfg RunConfig) string {
	return cfg.Manifest.Top + "_opt"
}

// tclWord quotes s as a single word of a -do script. Braces suppress all
// substitution; strings that contain braces or backslashes are escaped instead.
func tclWord(s string) string {
	if !strings.ContainsAny(s, "{}\\") {
		return "{" + s + "}"
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(" \t\n;$[]{}\"\\", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func questaSeed(seed Seed) string {
	if seed.Random {
		return "random"
	}
	return strconv.FormatInt(seed.Value, 10)
}
