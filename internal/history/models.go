package history

import "time"

// Job is one finished conversion.
type Job struct {
	ID          string
	Source      string
	Output      string
	Codec       string
	Step        string
	State       string
	Outcome     string
	ExitCode    int
	OutputBytes int64
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration returns how long the job ran.
func (j Job) Duration() time.Duration {
	if j.FinishedAt.Before(j.StartedAt) {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
