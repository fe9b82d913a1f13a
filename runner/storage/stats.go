package storage

import (
	"database/sql"
	"fmt"
)

// TestRunStats summarizes a recent run of a test
type TestRunStats struct {
	Test       string  `json:"test"`
	Simulator  string  `json:"simulator"`
	RunID      int     `json:"run_id"`
	Status     string  `json:"status"`
	Duration   *string `json:"duration,omitempty"`
	StartedAt  string  `json:"started_at"`
	StageCount int     `json:"stage_count"`
}

// GetLatestRunsByTest returns up to limit recent runs for every test
func (s *Storage) GetLatestRunsByTest(limit int) ([]TestRunStats, error) {
	query := `
		SELECT
			r.test,
			r.simulator,
			r.id,
			r.status,
			r.duration,
			r.started_at,
			COUNT(se.id) as stage_count
		FROM runs r
		LEFT JOIN stage_executions se ON r.id = se.run_id
		GROUP BY r.id, r.test, r.simulator, r.status, r.duration, r.started_at
		ORDER BY r.test, r.started_at DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest runs: %w", err)
	}
	defer rows.Close()

	// Limit per test
	testCounts := make(map[string]int)
	stats := make([]TestRunStats, 0)

	for rows.Next() {
		var stat TestRunStats
		var duration sql.NullString

		err := rows.Scan(
			&stat.Test,
			&stat.Simulator,
			&stat.RunID,
			&stat.Status,
			&duration,
			&stat.StartedAt,
			&stat.StageCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run stats: %w", err)
		}

		if testCounts[stat.Test] >= limit {
			continue
		}
		testCounts[stat.Test]++

		if duration.Valid {
			durationStr := duration.String
			stat.Duration = &durationStr
		}

		stats = append(stats, stat)
	}

	return stats, rows.Err()
}
