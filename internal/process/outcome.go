package process

import (
	"fmt"
	"strings"
	"time"

	"tonearm/internal/services"
)

// Outcome classifies how a tool run ended.
type Outcome int

const (
	Success Outcome = iota
	Timeout
	Aborted
	NonZeroExit
	EmptyOutput
	LaunchFailure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case Aborted:
		return "aborted"
	case NonZeroExit:
		return "non_zero_exit"
	case EmptyOutput:
		return "empty_output"
	case LaunchFailure:
		return "launch_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// State is the supervision state of a run.
type State int

const (
	NotStarted State = iota
	Running
	AbortedState
	TimedOut
	Exited
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case AbortedState:
		return "aborted"
	case TimedOut:
		return "timed_out"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result describes a finished run.
type Result struct {
	Outcome  Outcome
	State    State
	ExitCode int
	Tool     string
	Args     []string
	Elapsed  time.Duration
	// LaunchErr is set when the tool could not be started.
	LaunchErr error
}

// Success reports whether the run produced a usable result.
func (r Result) Success() bool {
	return r.Outcome == Success
}

// ExitLine renders the exit code line forwarded to sinks.
func (r Result) ExitLine() string {
	return FormatExitCode(r.ExitCode)
}

// FormatExitCode renders code as an unsigned 32-bit hex value, so processes
// killed by a signal (exit code -1) report 0xFFFFFFFF.
func FormatExitCode(code int) string {
	return fmt.Sprintf("Exited with code: 0x%04X", uint32(code))
}

// CommandLine returns the tool and its arguments joined for display.
func (r Result) CommandLine() string {
	parts := append([]string{r.Tool}, r.Args...)
	return strings.Join(parts, " ")
}

// Err maps a non-successful outcome to a wrapped services sentinel.
func (r Result) Err() error {
	const component = "process"
	switch r.Outcome {
	case Success:
		return nil
	case Timeout:
		return services.Wrap(services.ErrTimeout, component, "run", fmt.Sprintf("%s stopped producing output", r.Tool), nil)
	case Aborted:
		return services.Wrap(services.ErrAborted, component, "run", r.Tool, nil)
	case NonZeroExit:
		return services.Wrap(services.ErrExternalTool, component, "run", fmt.Sprintf("%s exited with code %d", r.Tool, r.ExitCode), nil)
	case EmptyOutput:
		return services.Wrap(services.ErrEmptyOutput, component, "run", fmt.Sprintf("%s produced no output file", r.Tool), nil)
	case LaunchFailure:
		return services.Wrap(services.ErrLaunch, component, "run", fmt.Sprintf("start %s", r.Tool), r.LaunchErr)
	default:
		return services.Wrap(services.ErrExternalTool, component, "run", r.Outcome.String(), nil)
	}
}
