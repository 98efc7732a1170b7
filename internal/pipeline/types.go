package pipeline

import (
	"fmt"
	"time"

	"tonearm/internal/codec"
	"tonearm/internal/process"
)

// State is the final state of a conversion job.
type State int

const (
	Done State = iota
	Failed
	Aborted
	Skipped
	Unsupported
)

func (s State) String() string {
	switch s {
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	case Skipped:
		return "skipped"
	case Unsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Step is the phase a job was in when it finished.
type Step int

const (
	StepPrepare Step = iota
	StepDecode
	StepEncode
	StepFinish
)

func (s Step) String() string {
	switch s {
	case StepPrepare:
		return "prepare"
	case StepDecode:
		return "decode"
	case StepEncode:
		return "encode"
	case StepFinish:
		return "finish"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Overwrite modes accepted in [output] overwrite_mode.
const (
	OverwriteKeepBoth     = "keep_both"
	OverwriteSkipExisting = "skip_existing"
	OverwriteReplace      = "overwrite"
)

// Request describes one file to convert.
type Request struct {
	Source string
	// Format describes the source. Callers fill it from their own probing
	// or from codec.FormatForExtension.
	Format codec.FormatInfo
	Meta   codec.MetaInfo
	// OutputDir overrides [paths] output_dir. When both are empty the output
	// is written next to the source.
	OutputDir string
}

// Report is the outcome of Run.
type Report struct {
	JobID  string
	Source string
	Output string
	State  State
	Step   Step
	// Result is the last tool run, zero when no tool ran.
	Result     process.Result
	Messages   []string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// StepSink is implemented by sinks that want to know when a job moves
// between the decode and encode steps.
type StepSink interface {
	process.Sink
	StepStarted(step Step)
}
