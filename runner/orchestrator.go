package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"uvmrun/events"
)

// PhaseClean is reported when prior outputs are removed
const PhaseClean Phase = "clean"

// RunStartedEvent is published once before anything runs
type RunStartedEvent struct {
	RunID     string
	Config    RunConfig
	Artifacts ArtifactSet
}

// WarningEvent carries a non-fatal problem
type WarningEvent struct {
	RunID   string
	Message string
}

// PhaseEvent marks the start of a group of stages
type PhaseEvent struct {
	RunID   string
	Phase   Phase
	Removed []string // directories removed, PhaseClean only
}

// StageEvent is published before a stage runs
type StageEvent struct {
	RunID string
	Index int
	Stage Stage
}

// StageResultEvent is published after a stage finishes
type StageResultEvent struct {
	RunID  string
	Index  int
	Result StageResult
}

// Orchestrator runs the stages of one verification run in order and stops
// at the first stage that does not succeed.
type Orchestrator struct {
	Config   RunConfig
	Backend  Backend
	Executor StageExecutor
	Events   *events.Broker
	NewRunID func() string
	Now      func() time.Time
}

// NewOrchestrator wires the backend selected by cfg to a process executor
func NewOrchestrator(cfg RunConfig, broker *events.Broker) (*Orchestrator, error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		Config:   cfg,
		Backend:  backend,
		Executor: NewExecutor(),
		Events:   broker,
		NewRunID: uuid.NewString,
		Now:      time.Now,
	}, nil
}

// Run executes the pipeline:
// [clean] -> directories -> [compile] -> [elaborate] -> simulate -> [coverage report].
// Artifacts of failed or cancelled runs are left in place.
func (o *Orchestrator) Run(ctx context.Context) *RunSummary {
	now := o.Now
	if now == nil {
		now = time.Now
	}
	newRunID := o.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	start := now()
	cfg := o.Config
	artifacts := PlanArtifacts(cfg.Layout, cfg.Test, cfg.Simulator, cfg.Coverage, cfg.CoverageReport)

	summary := &RunSummary{
		RunID:     newRunID(),
		Test:      cfg.Test,
		Simulator: cfg.Simulator,
		Status:    RunRunning,
		Stages:    make([]StageResult, 0),
		Artifacts: artifacts,
	}
	finish := func() *RunSummary {
		summary.Duration = now().Sub(start)
		o.Events.Broadcast(events.RunFinished, summary)
		return summary
	}

	o.Events.Broadcast(events.RunStarted, RunStartedEvent{RunID: summary.RunID, Config: cfg, Artifacts: artifacts})

	if cfg.Clean {
		removed, err := cleanOutputs(cfg.Layout)
		o.Events.Broadcast(events.PhaseStarted, PhaseEvent{RunID: summary.RunID, Phase: PhaseClean, Removed: removed})
		if err != nil {
			o.abort(summary, "Clean", err)
			return finish()
		}
		if cfg.CleanOnly {
			summary.Status = RunSuccess
			return finish()
		}
	}

	if err := ensureDirectories(cfg); err != nil {
		o.abort(summary, "Create Directories", err)
		return finish()
	}

	if !cfg.SkipCompile {
		if o.Backend.Capabilities().ExternalMethodology && !cfg.Dependency.Found() {
			o.Events.Broadcast(events.Warning, WarningEvent{
				RunID:   summary.RunID,
				Message: missingDependencyMessage(cfg.Dependency),
			})
		}
		if !o.runPhase(ctx, summary, PhaseCompile, o.Backend.CompileStages(cfg)) {
			return finish()
		}
		if cfg.CompileOnly {
			summary.Status = RunSuccess
			return finish()
		}
	}

	if stage := o.Backend.ElaborateStage(cfg); stage != nil {
		if !o.runPhase(ctx, summary, PhaseElaborate, []Stage{*stage}) {
			return finish()
		}
	}

	if !o.runPhase(ctx, summary, PhaseSimulate, []Stage{o.Backend.SimulateStage(cfg, artifacts)}) {
		return finish()
	}

	if cfg.CoverageReport {
		stages, err := o.Backend.CoverageReportStages(cfg, artifacts)
		if err != nil {
			o.abort(summary, "Coverage Report", err)
			return finish()
		}
		if !o.runPhase(ctx, summary, PhaseReport, stages) {
			return finish()
		}
	}

	summary.Status = RunSuccess
	return finish()
}

// runPhase executes stages in order and reports whether the pipeline may continue
func (o *Orchestrator) runPhase(ctx context.Context, summary *RunSummary, phase Phase, stages []Stage) bool {
	o.Events.Broadcast(events.PhaseStarted, PhaseEvent{RunID: summary.RunID, Phase: phase})

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			summary.Status = RunCancelled
			summary.FailedStage = stage.Label
			summary.Error = fmt.Errorf("run interrupted before '%s': %w", stage.Label, err)
			return false
		}

		index := len(summary.Stages)
		o.Events.Broadcast(events.StageStarted, StageEvent{RunID: summary.RunID, Index: index, Stage: stage})

		result := o.Executor.Execute(ctx, stage)
		summary.Stages = append(summary.Stages, result)

		o.Events.Broadcast(events.StageFinished, StageResultEvent{RunID: summary.RunID, Index: index, Result: result})

		if result.Status == StageSuccess {
			continue
		}
		if result.Status == StageCancelled {
			summary.Status = RunCancelled
			summary.FailedStage = stage.Label
			summary.Error = result.Error
			return false
		}
		if stage.AbortOnFailure {
			summary.Status = RunFailed
			summary.FailedStage = stage.Label
			summary.Error = result.Error
			return false
		}
	}

	return true
}

func (o *Orchestrator) abort(summary *RunSummary, label string, err error) {
	summary.Status = RunFailed
	summary.FailedStage = label
	summary.Error = err
}

// cleanOutputs removes the output directories. Missing directories are skipped.
func cleanOutputs(layout Layout) ([]string, error) {
	var removed []string
	for _, dir := range layout.OutputDirs() {
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", dir, err)
		}
		removed = append(removed, dir)
	}
	return removed, nil
}

func ensureDirectories(cfg RunConfig) error {
	dirs := []string{cfg.Layout.SimDir, cfg.Layout.LogsDir}
	if cfg.Coverage {
		dirs = append(dirs, cfg.Layout.CoverageDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func missingDependencyMessage(dep Dependency) string {
	msg := "UVM package not found; compilation will likely fail. Searched:"
	for _, c := range dep.Tried {
		msg += fmt.Sprintf("\n    %s: %s", c.Source, c.Path)
	}
	return msg + fmt.Sprintf("\n  Set %s or fetch the package into %s.", UVMHomeEnv, LocalUVMDir)
}
