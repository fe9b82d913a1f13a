package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const runColumns = "id, run_uid, test, simulator, status, project_root, started_at, finished_at, duration, failed_stage"

// CreateRun creates a new run record
func (s *Storage) CreateRun(runUID, test, simulator, projectRoot string) (*Run, error) {
	now := time.Now()
	result, err := s.db.Exec(
		"INSERT INTO runs (run_uid, test, simulator, status, project_root, started_at) VALUES (?, ?, ?, ?, ?, ?)",
		runUID, test, simulator, "running", projectRoot, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get run ID: %w", err)
	}

	return &Run{
		ID:          int(id),
		RunUID:      runUID,
		Test:        test,
		Simulator:   simulator,
		Status:      "running",
		ProjectRoot: projectRoot,
		StartedAt:   now,
	}, nil
}

// FinishRun records the final status of a run
func (s *Storage) FinishRun(runID int, status, failedStage string, duration time.Duration) error {
	now := time.Now()
	_, err := s.db.Exec(
		"UPDATE runs SET status = ?, failed_stage = ?, finished_at = ?, duration = ? WHERE id = ?",
		status, failedStage, now, duration.String(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	return nil
}

// GetRuns retrieves runs, most recent first
func (s *Storage) GetRuns(limit int) ([]*Run, error) {
	rows, err := s.db.Query("SELECT "+runColumns+" FROM runs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetRun retrieves a single run by ID
func (s *Storage) GetRun(runID int) (*Run, error) {
	row := s.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", runID)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var finishedAt sql.NullTime
	var duration sql.NullString

	err := row.Scan(&r.ID, &r.RunUID, &r.Test, &r.Simulator, &r.Status, &r.ProjectRoot,
		&r.StartedAt, &finishedAt, &duration, &r.FailedStage)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	if duration.Valid {
		durationStr := duration.String
		r.Duration = &durationStr
	}

	return &r, nil
}
