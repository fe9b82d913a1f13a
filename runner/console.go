package runner

import (
	"fmt"
	"io"
	"strings"
	"time"

	"uvmrun/events"
)

var phaseTitles = map[Phase]string{
	PhaseCompile:   "COMPILATION PHASE",
	PhaseElaborate: "ELABORATION PHASE",
	PhaseSimulate:  "SIMULATION PHASE",
	PhaseReport:    "COVERAGE REPORT",
}

type markers struct {
	start, ok, fail, timeout, cancel, warn, stats string
}

var (
	emojiMarkers = markers{"→", "✅", "❌", "⏱️ ", "🛑", "⚠️ ", "📊"}
	plainMarkers = markers{"->", "[OK]", "[ERROR]", "[TIMEOUT]", "[INTERRUPTED]", "[WARN]", "[SUMMARY]"}
)

// Console prints run progress for a human. Plain mode avoids emoji so the
// output stays readable in CI logs.
type Console struct {
	out io.Writer
	m   markers
}

// NewConsole returns a console reporter writing to out
func NewConsole(out io.Writer, plain bool) *Console {
	m := emojiMarkers
	if plain {
		m = plainMarkers
	}
	return &Console{out: out, m: m}
}

// Handle is an events.Handler
func (c *Console) Handle(eventType string, data interface{}) {
	switch ev := data.(type) {
	case RunStartedEvent:
		c.runStarted(ev)
	case PhaseEvent:
		c.phase(ev)
	case StageEvent:
		fmt.Fprintf(c.out, "\n%s %s\n", c.m.start, ev.Stage.Label)
		fmt.Fprintf(c.out, "   Command: %s\n", ev.Stage.Command)
		if ev.Stage.Timeout > 0 {
			fmt.Fprintf(c.out, "   Timeout: %s\n", ev.Stage.Timeout)
		}
	case StageResultEvent:
		c.stageFinished(ev.Result)
	case WarningEvent:
		fmt.Fprintf(c.out, "\n%s Warning: %s\n", c.m.warn, ev.Message)
	case *RunSummary:
		if eventType == events.RunFinished {
			c.summary(ev)
		}
	}
}

func (c *Console) banner(char, title string) {
	line := strings.Repeat(char, 60)
	fmt.Fprintf(c.out, "\n%s\n  %s\n%s\n", line, title, line)
}

func (c *Console) runStarted(ev RunStartedEvent) {
	cfg := ev.Config
	c.banner("#", fmt.Sprintf("UVM Verification Runner (%s)", cfg.Simulator))
	fmt.Fprintf(c.out, "Project Root: %s\n", cfg.Layout.Root)
	if cfg.CleanOnly {
		return
	}
	fmt.Fprintf(c.out, "Test: %s\n", cfg.Test)
	if cfg.Manifest != nil {
		if tc, err := cfg.Manifest.Lookup(cfg.Test); err == nil && tc.Description != "" {
			fmt.Fprintf(c.out, "  %s\n", tc.Description)
		} else if err != nil {
			fmt.Fprintf(c.out, "  (not in the test list, passed to the simulator as is)\n")
		}
	}
	fmt.Fprintf(c.out, "Verbosity: %s\n", cfg.Verbosity)
	fmt.Fprintf(c.out, "Seed: %s\n", cfg.Seed)
	if cfg.Backpressure.Enabled {
		fmt.Fprintf(c.out, "Backpressure: %d%%\n", cfg.Backpressure.Percent)
	} else {
		fmt.Fprintln(c.out, "Backpressure: OFF")
	}
	if cfg.Dependency.Found() {
		fmt.Fprintf(c.out, "UVM: %s (%s)\n", cfg.Dependency.Path, cfg.Dependency.Source)
	}
}

func (c *Console) phase(ev PhaseEvent) {
	if ev.Phase == PhaseClean {
		fmt.Fprintln(c.out, "\n[CLEAN] Removing work library and logs...")
		for _, dir := range ev.Removed {
			fmt.Fprintf(c.out, "  Removed: %s\n", dir)
		}
		fmt.Fprintln(c.out, "[CLEAN] Done.")
		return
	}
	title, ok := phaseTitles[ev.Phase]
	if !ok {
		title = strings.ToUpper(string(ev.Phase))
	}
	c.banner("=", title)
}

func (c *Console) stageFinished(r StageResult) {
	elapsed := r.Duration.Round(10 * time.Millisecond)
	switch r.Status {
	case StageSuccess:
		fmt.Fprintf(c.out, "%s Done: %s (%s)\n", c.m.ok, r.Stage.Label, elapsed)
	case StageTimeout:
		fmt.Fprintf(c.out, "%s Step '%s' exceeded %s timeout\n", c.m.timeout, r.Stage.Label, r.Stage.Timeout)
	case StageCancelled:
		fmt.Fprintf(c.out, "%s Step '%s' was cancelled\n", c.m.cancel, r.Stage.Label)
	default:
		fmt.Fprintf(c.out, "%s Step '%s' failed! (RC=%d, %s)\n", c.m.fail, r.Stage.Label, r.ExitCode, elapsed)
		if r.ExitCode < 0 && r.Error != nil {
			fmt.Fprintf(c.out, "   %v\n", r.Error)
		}
	}
}

func (c *Console) summary(s *RunSummary) {
	last, ran := s.LastResult()
	if s.Status == RunSuccess && (!ran || last.Stage.Phase == PhaseCompile) {
		if ran {
			c.banner("#", "COMPILATION COMPLETE")
		} else {
			c.banner("#", "CLEAN COMPLETE")
		}
		fmt.Fprintf(c.out, "\n%s Run ID: %s | Status: %s | Duration: %s\n",
			c.m.stats, s.RunID, s.Status, s.Duration.Round(10*time.Millisecond))
		return
	}

	switch s.Status {
	case RunSuccess:
		c.banner("#", "SIMULATION COMPLETE")
	case RunCancelled:
		c.banner("#", "RUN INTERRUPTED")
	default:
		c.banner("#", "RUN FAILED")
	}

	if s.FailedStage != "" {
		fmt.Fprintf(c.out, "Failed Stage: %s\n", s.FailedStage)
		if s.Error != nil {
			fmt.Fprintf(c.out, "Error: %v\n", s.Error)
		}
	}
	fmt.Fprintf(c.out, "Test: %s\n", s.Test)
	fmt.Fprintf(c.out, "Log: %s\n", s.Artifacts.Log)
	fmt.Fprintf(c.out, "Waveform: %s\n", s.Artifacts.Waveform)
	if s.Artifacts.CoverageDB != "" {
		fmt.Fprintf(c.out, "Coverage: %s\n", s.Artifacts.CoverageDB)
	}
	if s.Artifacts.CoverageReport != "" {
		fmt.Fprintf(c.out, "Coverage Reports:\n  Text: %s\n  HTML: %s/index.html\n",
			s.Artifacts.CoverageReport, s.Artifacts.CoverageHTML)
	}
	fmt.Fprintf(c.out, "\n%s Run ID: %s | Status: %s | Duration: %s\n",
		c.m.stats, s.RunID, s.Status, s.Duration.Round(10*time.Millisecond))
}
