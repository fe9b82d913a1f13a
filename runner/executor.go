package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// StageExecutor runs a single stage to completion
type StageExecutor interface {
	Execute(ctx context.Context, stage Stage) StageResult
}

// Executor runs stages as child processes attached to the console
type Executor struct {
	Stdout    io.Writer
	Stderr    io.Writer
	WaitDelay time.Duration // how long to wait for output pipes after the process is killed

	// CombinedOutput is set when Stdout and Stderr are the same writer, so a
	// tee to the log file writes through a single stream.
	CombinedOutput bool
}

// NewExecutor returns an executor writing to the process stdout and stderr
func NewExecutor() *Executor {
	return &Executor{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		WaitDelay: 3 * time.Second,
	}
}

// Execute runs the stage command. Cancelling ctx or exceeding the stage
// timeout kills the whole process group. A non-zero exit is reported in the
// result, not as a Go error.
func (e *Executor) Execute(ctx context.Context, stage Stage) StageResult {
	start := time.Now()
	result := StageResult{
		Stage:     stage,
		Artifacts: stage.Artifacts,
	}

	runCtx := ctx
	cancel := func() {}
	if stage.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, stage.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, stage.Command.Program, stage.Command.Args...)
	cmd.Dir = stage.Dir
	configureCommandProcess(cmd)
	cmd.Cancel = func() error {
		terminateCommandProcess(cmd)
		return nil
	}
	cmd.WaitDelay = e.WaitDelay

	stdout, stderr := e.Stdout, e.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	// Copy console output into the log file for tools that cannot write one
	if stage.LogFile != "" {
		logFile, err := os.Create(stage.LogFile)
		if err != nil {
			result.Status = StageFailed
			result.ExitCode = -1
			result.Duration = time.Since(start)
			result.Error = fmt.Errorf("failed to create log file: %w", err)
			return result
		}
		defer logFile.Close()
		stdout = io.MultiWriter(stdout, logFile)
		if e.CombinedOutput {
			// exec serializes writes only when both streams are the same writer
			stderr = stdout
		} else {
			stderr = io.MultiWriter(stderr, logFile)
		}
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	result.Duration = time.Since(start)

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		result.Status = StageCancelled
		result.ExitCode = -1
		result.Error = fmt.Errorf("stage '%s' interrupted: %w", stage.Label, ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.Status = StageTimeout
		result.ExitCode = -1
		result.Error = fmt.Errorf("stage '%s' exceeded %s timeout", stage.Label, stage.Timeout)
	case err == nil:
		result.Status = StageSuccess
	case errors.As(err, &exitErr):
		result.Status = StageFailed
		result.ExitCode = exitErr.ExitCode()
		result.Error = fmt.Errorf("stage '%s' failed: %w", stage.Label, err)
	default:
		result.Status = StageFailed
		result.ExitCode = -1
		result.Error = fmt.Errorf("stage '%s' could not run: %w", stage.Label, err)
	}

	return result
}
