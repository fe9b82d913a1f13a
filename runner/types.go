package runner

import (
	"time"
)

// StageStatus is the outcome of one stage
type StageStatus string

const (
	StageSuccess   StageStatus = "success"
	StageFailed    StageStatus = "failed"
	StageTimeout   StageStatus = "timeout"
	StageCancelled StageStatus = "cancelled"
)

// RunStatus is the outcome of a whole run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSuccess   RunStatus = "success"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Process exit codes
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// StageResult represents the result of executing a single stage
type StageResult struct {
	Stage     Stage         `json:"stage"`
	Status    StageStatus   `json:"status"`
	ExitCode  int           `json:"exit_code"`
	Duration  time.Duration `json:"duration"`
	Artifacts []string      `json:"artifacts,omitempty"`
	Error     error         `json:"-"`
}

// RunSummary represents the result of running the pipeline
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Test        string        `json:"test"`
	Simulator   SimulatorKind `json:"simulator"`
	Status      RunStatus     `json:"status"`
	Stages      []StageResult `json:"stages"`
	Artifacts   ArtifactSet   `json:"artifacts"`
	Duration    time.Duration `json:"duration"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Error       error         `json:"-"`
}

// ExitCode maps the run status to the process exit code
func (s *RunSummary) ExitCode() int {
	switch s.Status {
	case RunSuccess:
		return ExitOK
	case RunCancelled:
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

// LastResult returns the most recent stage result, if any
func (s *RunSummary) LastResult() (StageResult, bool) {
	if len(s.Stages) == 0 {
		return StageResult{}, false
	}
	return s.Stages[len(s.Stages)-1], true
}
