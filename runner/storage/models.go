package storage

import "time"

// Run represents one verification run
type Run struct {
	ID          int        `json:"id"`
	RunUID      string     `json:"run_uid"`
	Test        string     `json:"test"`
	Simulator   string     `json:"simulator"`
	Status      string     `json:"status"` // "running", "success", "failed", "cancelled"
	ProjectRoot string     `json:"project_root"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Duration    *string    `json:"duration,omitempty"`
	FailedStage string     `json:"failed_stage,omitempty"`
}

// StageExecution represents execution of a single stage
type StageExecution struct {
	ID         int        `json:"id"`
	RunID      int        `json:"run_id"`
	Label      string     `json:"label"`
	Phase      string     `json:"phase"`
	Status     string     `json:"status"` // "running", "success", "failed", "timeout", "cancelled"
	Command    string     `json:"command"`
	ExitCode   int        `json:"exit_code"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Duration   *string    `json:"duration,omitempty"`
}
