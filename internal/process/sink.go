package process

import (
	"context"
	"log/slog"
	"sync"

	"tonearm/internal/logging"
	"tonearm/internal/services"
)

// Sink receives events from a running tool, in emission order, on the
// goroutine that called Run.
type Sink interface {
	StatusUpdated(percent int)
	MessageLogged(line string)
}

// SinkFuncs adapts plain functions to Sink. Nil fields are ignored.
type SinkFuncs struct {
	Status  func(percent int)
	Message func(line string)
}

func (s SinkFuncs) StatusUpdated(percent int) {
	if s.Status != nil {
		s.Status(percent)
	}
}

func (s SinkFuncs) MessageLogged(line string) {
	if s.Message != nil {
		s.Message(line)
	}
}

// MultiSink fans events out to several sinks.
type MultiSink []Sink

func (m MultiSink) StatusUpdated(percent int) {
	for _, s := range m {
		if s != nil {
			s.StatusUpdated(percent)
		}
	}
}

func (m MultiSink) MessageLogged(line string) {
	for _, s := range m {
		if s != nil {
			s.MessageLogged(line)
		}
	}
}

type nopSink struct{}

func (nopSink) StatusUpdated(int)    {}
func (nopSink) MessageLogged(string) {}

// LogSink forwards tool output to slog: every line at debug level and
// sampled progress at info level.
type LogSink struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	stage   string
}

// NewLogSink builds a LogSink whose records carry the job fields found in ctx.
func NewLogSink(ctx context.Context, logger *slog.Logger) *LogSink {
	stage, _ := services.StageFromContext(ctx)
	return &LogSink{
		logger:  logging.NewComponentLogger(logging.WithContext(ctx, logger), "tool"),
		sampler: logging.NewProgressSampler(25),
		stage:   stage,
	}
}

func (s *LogSink) StatusUpdated(percent int) {
	if s.sampler.ShouldLog(percent, s.stage) {
		s.logger.Info("tool progress", logging.Int("percent", percent))
	}
}

func (s *LogSink) MessageLogged(line string) {
	s.logger.Debug(line)
}

// EventKind distinguishes recorded sink events.
type EventKind int

const (
	StatusEvent EventKind = iota
	MessageEvent
)

// Event is one recorded sink callback.
type Event struct {
	Kind    EventKind
	Percent int
	Message string
}

// RecorderSink stores every event it receives. Safe for concurrent use.
type RecorderSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *RecorderSink) StatusUpdated(percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: StatusEvent, Percent: percent})
}

func (r *RecorderSink) MessageLogged(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: MessageEvent, Message: line})
}

// Events returns a copy of every recorded event.
func (r *RecorderSink) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Progress returns the recorded percentages in order.
func (r *RecorderSink) Progress() []int {
	var out []int
	for _, e := range r.Events() {
		if e.Kind == StatusEvent {
			out = append(out, e.Percent)
		}
	}
	return out
}

// Messages returns the recorded log lines in order.
func (r *RecorderSink) Messages() []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == MessageEvent {
			out = append(out, e.Message)
		}
	}
	return out
}
