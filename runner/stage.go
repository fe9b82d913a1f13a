package runner

import (
	"strings"
	"time"
)

// Phase groups stages for reporting
type Phase string

const (
	PhaseCompile   Phase = "compile"
	PhaseElaborate Phase = "elaborate"
	PhaseSimulate  Phase = "simulate"
	PhaseReport    Phase = "report"
)

// Command is a program with its ordered argument list. Arguments are passed
// to the process as-is, no shell is involved.
type Command struct {
	Program string   `json:"program"`
	Args    []string `json:"args"`
}

// NewCommand builds a command, dropping empty arguments
func NewCommand(program string, args ...string) Command {
	cmd := Command{Program: program, Args: make([]string, 0, len(args))}
	for _, arg := range args {
		if arg != "" {
			cmd.Args = append(cmd.Args, arg)
		}
	}
	return cmd
}

// String renders the command for display, quoting arguments with spaces
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Program)
	for _, arg := range c.Args {
		if strings.ContainsAny(arg, " \t;\"") {
			arg = `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Stage is one externally executed step of a run
type Stage struct {
	Label          string        `json:"label"`
	Phase          Phase         `json:"phase"`
	Command        Command       `json:"command"`
	Dir            string        `json:"dir,omitempty"`
	Timeout        time.Duration `json:"timeout,omitempty"` // zero means unbounded
	LogFile        string        `json:"log_file,omitempty"` // console output is also copied here
	Artifacts      []string      `json:"artifacts,omitempty"`
	AbortOnFailure bool          `json:"abort_on_failure"`
}

func newStage(label string, phase Phase, dir string, cmd Command) Stage {
	return Stage{
		Label:          label,
		Phase:          phase,
		Command:        cmd,
		Dir:            dir,
		AbortOnFailure: true,
	}
}
