package runner

import (
	"log"

	"uvmrun/events"
	"uvmrun/runner/storage"
)

// History records runs and their stages in the history database. Database
// errors are logged and never affect the run itself.
type History struct {
	store  *storage.Storage
	runID  int
	stages map[int]int // stage index -> stage execution ID
}

// NewHistory returns a recorder backed by store
func NewHistory(store *storage.Storage) *History {
	return &History{store: store, stages: make(map[int]int)}
}

// Handle is an events.Handler
func (h *History) Handle(eventType string, data interface{}) {
	if h == nil || h.store == nil {
		return
	}

	switch ev := data.(type) {
	case RunStartedEvent:
		run, err := h.store.CreateRun(ev.RunID, ev.Config.Test, string(ev.Config.Simulator), ev.Config.Layout.Root)
		if err != nil {
			log.Printf("⚠️  History disabled for this run: %v", err)
			h.store = nil
			return
		}
		h.runID = run.ID
	case StageEvent:
		exec, err := h.store.CreateStageExecution(h.runID, ev.Stage.Label, string(ev.Stage.Phase), ev.Stage.Command.String())
		if err != nil {
			log.Printf("⚠️  Failed to record stage '%s': %v", ev.Stage.Label, err)
			return
		}
		h.stages[ev.Index] = exec.ID
	case StageResultEvent:
		id, ok := h.stages[ev.Index]
		if !ok {
			return
		}
		r := ev.Result
		if err := h.store.FinishStageExecution(id, string(r.Status), r.ExitCode, r.Duration); err != nil {
			log.Printf("⚠️  Failed to record result of '%s': %v", r.Stage.Label, err)
		}
	case *RunSummary:
		if eventType != events.RunFinished || h.runID == 0 {
			return
		}
		if err := h.store.FinishRun(h.runID, string(ev.Status), ev.FailedStage, ev.Duration); err != nil {
			log.Printf("⚠️  Failed to record run status: %v", err)
		}
	}
}
