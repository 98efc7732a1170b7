package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"tonearm/internal/pipeline"
)

// consoleSink renders tool progress for one job. On a terminal it drives a
// progress bar; otherwise it prints a line every plainStep percent.
type consoleSink struct {
	mu       sync.Mutex
	out      io.Writer
	label    string
	step     string
	verbose  bool
	bar      *progressbar.ProgressBar
	lastLine int
}

const plainStep = 25

func newConsoleSink(out io.Writer, label string, verbose bool) *consoleSink {
	s := &consoleSink{out: out, label: label, verbose: verbose, lastLine: -1}
	if isTerminal(out) {
		s.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(label),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	return s
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (s *consoleSink) StepStarted(step pipeline.Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step.String()
	s.lastLine = -1
	if s.bar != nil {
		s.bar.Reset()
		s.bar.Describe(fmt.Sprintf("%s (%s)", s.label, s.step))
	}
}

func (s *consoleSink) StatusUpdated(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		_ = s.bar.Set(percent)
		return
	}
	if percent < 100 && percent < s.lastLine+plainStep {
		return
	}
	if percent == s.lastLine {
		return
	}
	s.lastLine = percent
	if s.step != "" {
		fmt.Fprintf(s.out, "%s [%s] %d%%\n", s.label, s.step, percent)
		return
	}
	fmt.Fprintf(s.out, "%s %d%%\n", s.label, percent)
}

func (s *consoleSink) MessageLogged(line string) {
	if !s.verbose {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		_ = s.bar.Clear()
	}
	fmt.Fprintf(s.out, "  %s\n", line)
}

// finish removes the bar so the summary line starts on a clean row.
func (s *consoleSink) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		_ = s.bar.Finish()
	}
}
