package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"uvmrun/runner"
	"uvmrun/runner/storage"
)

// GetRuns returns the most recent runs
func GetRuns(store *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		runs, err := store.GetRuns(limit)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get runs: %v", err), http.StatusInternalServerError)
			return
		}

		writeJSON(w, runs)
	}
}

// GetRun returns a single run with its stages
func GetRun(store *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Parse run ID from URL: /api/runs/:id
		pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(pathParts) < 3 {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}

		runID, err := strconv.Atoi(pathParts[2])
		if err != nil {
			http.Error(w, "Invalid run ID", http.StatusBadRequest)
			return
		}

		run, err := store.GetRun(runID)
		if err != nil {
			http.Error(w, fmt.Sprintf("Run not found: %v", err), http.StatusNotFound)
			return
		}

		stages, err := store.GetStageExecutions(runID)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get stages: %v", err), http.StatusInternalServerError)
			return
		}

		type RunResponse struct {
			Run    *storage.Run              `json:"run"`
			Stages []*storage.StageExecution `json:"stages"`
		}

		writeJSON(w, RunResponse{Run: run, Stages: stages})
	}
}

// GetTests returns the test catalogue with the latest runs of each test
func GetTests(manifest *runner.Manifest, store *storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		stats, err := store.GetLatestRunsByTest(5)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get test stats: %v", err), http.StatusInternalServerError)
			return
		}

		byTest := make(map[string][]storage.TestRunStats)
		for _, s := range stats {
			byTest[s.Test] = append(byTest[s.Test], s)
		}

		type TestResponse struct {
			runner.TestCase
			Default    bool                   `json:"default"`
			LatestRuns []storage.TestRunStats `json:"latest_runs"`
		}

		tests := make([]TestResponse, 0, len(manifest.Tests))
		for _, tc := range manifest.Tests {
			latest := byTest[tc.Name]
			if latest == nil {
				latest = []storage.TestRunStats{}
			}
			tests = append(tests, TestResponse{
				TestCase:   tc,
				Default:    tc.Name == manifest.DefaultTest,
				LatestRuns: latest,
			})
		}

		writeJSON(w, tests)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
