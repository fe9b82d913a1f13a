package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateStageExecution creates a new stage execution record
func (s *Storage) CreateStageExecution(runID int, label, phase, command string) (*StageExecution, error) {
	now := time.Now()
	result, err := s.db.Exec(
		"INSERT INTO stage_executions (run_id, label, phase, status, command, started_at) VALUES (?, ?, ?, ?, ?, ?)",
		runID, label, phase, "running", command, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage execution: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get stage execution ID: %w", err)
	}

	return &StageExecution{
		ID:        int(id),
		RunID:     runID,
		Label:     label,
		Phase:     phase,
		Status:    "running",
		Command:   command,
		StartedAt: now,
	}, nil
}

// FinishStageExecution records status, exit code and duration of a stage
func (s *Storage) FinishStageExecution(stageID int, status string, exitCode int, duration time.Duration) error {
	now := time.Now()
	_, err := s.db.Exec(
		"UPDATE stage_executions SET status = ?, exit_code = ?, finished_at = ?, duration = ? WHERE id = ?",
		status, exitCode, now, duration.String(), stageID,
	)
	if err != nil {
		return fmt.Errorf("failed to update stage execution: %w", err)
	}
	return nil
}

// GetStageExecutions retrieves all stage executions for a run in execution order
func (s *Storage) GetStageExecutions(runID int) ([]*StageExecution, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, label, phase, status, command, exit_code, started_at, finished_at, duration
		FROM stage_executions WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage executions: %w", err)
	}
	defer rows.Close()

	stages := make([]*StageExecution, 0)
	for rows.Next() {
		var st StageExecution
		var finishedAt sql.NullTime
		var duration sql.NullString

		err := rows.Scan(&st.ID, &st.RunID, &st.Label, &st.Phase, &st.Status, &st.Command, &st.ExitCode,
			&st.StartedAt, &finishedAt, &duration)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage execution: %w", err)
		}

		if finishedAt.Valid {
			st.FinishedAt = &finishedAt.Time
		}
		if duration.Valid {
			durationStr := duration.String
			st.Duration = &durationStr
		}

		stages = append(stages, &st)
	}

	return stages, rows.Err()
}
