package process

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"tonearm/internal/config"
	"tonearm/internal/logging"
)

const (
	// AbortedMessage is forwarded when a job stops on user request.
	AbortedMessage = "ABORTED BY USER !!!"
	// TimeoutMessage is forwarded when a tool stops producing output.
	TimeoutMessage = "PROCESS TIMEOUT !!!"

	defaultTimeout      = 60 * time.Second
	defaultPollInterval = 250 * time.Millisecond
	defaultDrainGrace   = 2 * time.Second
	readBufferSize      = 32 * 1024
)

// Validator reports whether a tool run left a usable output behind.
type Validator func(outputPath string) bool

// NonEmptyFile accepts outputs that exist and hold at least one byte.
func NonEmptyFile(outputPath string) bool {
	info, err := os.Stat(outputPath)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Invocation is the codec-specific part of a run.
type Invocation struct {
	Tool     string
	Args     []string
	Progress ProgressPattern
	// Validate, when set, is applied to Job.Output after a clean exit.
	Validate Validator
}

// Job carries the per-run parameters.
type Job struct {
	Source string
	Output string
	// WorkDir defaults to the directory of Output.
	WorkDir string
	// Env defaults to the parent environment. PATH is always augmented.
	Env   []string
	Abort *AbortFlag
}

// Runner supervises tool processes. A Runner holds no per-run state and may
// be shared across goroutines.
type Runner struct {
	Timeout      time.Duration
	PollInterval time.Duration
	DrainGrace   time.Duration
	// SearchPath is prepended to PATH for every launch.
	SearchPath []string
	Logger     *slog.Logger
}

// NewRunner builds a Runner from configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	r := &Runner{Logger: logger}
	if cfg != nil {
		r.Timeout = cfg.ProcessTimeout()
		r.PollInterval = cfg.PollInterval()
		r.DrainGrace = cfg.DrainGrace()
		r.SearchPath = cfg.SearchPath()
	}
	return r
}

// Run launches inv for job and blocks until the tool has exited. Every
// expected failure is reported through Result.Outcome; sink receives all
// events on the calling goroutine and always ends with a progress of 100.
func (r *Runner) Run(ctx context.Context, inv Invocation, job Job, sink Sink) Result {
	if sink == nil {
		sink = nopSink{}
	}
	logger := logging.NewComponentLogger(logging.WithContext(ctx, r.Logger), "runner")
	started := time.Now()
	result := Result{
		Outcome:  LaunchFailure,
		State:    NotStarted,
		ExitCode: -1,
		Tool:     inv.Tool,
		Args:     append([]string(nil), inv.Args...),
	}

	cmd := exec.Command(inv.Tool, inv.Args...)
	cmd.Dir = job.WorkDir
	if cmd.Dir == "" && job.Output != "" {
		if abs, err := filepath.Abs(job.Output); err == nil {
			cmd.Dir = filepath.Dir(abs)
		}
	}
	baseEnv := job.Env
	if baseEnv == nil {
		baseEnv = ParentEnv()
	}
	cmd.Env = BuildEnv(baseEnv, r.SearchPath)
	prepareCommand(cmd)

	reader, writer, err := os.Pipe()
	if err == nil {
		cmd.Stdout = writer
		cmd.Stderr = writer
		err = cmd.Start()
		_ = writer.Close()
	}
	if err != nil {
		if reader != nil {
			_ = reader.Close()
		}
		result.LaunchErr = err
		result.Elapsed = time.Since(started)
		logger.Error("tool launch failed",
			logging.String("tool", inv.Tool),
			logging.Error(err),
			logging.String(logging.FieldEventType, "tool_launch_failed"),
		)
		sink.MessageLogged(fmt.Sprintf("Failed to launch %s: %v", inv.Tool, err))
		sink.StatusUpdated(100)
		return result
	}

	result.State = Running
	logger.Debug("tool started", logging.String("command", result.CommandLine()), logging.Int("pid", cmd.Process.Pid))

	s := &supervision{
		runner: r,
		ctx:    ctx,
		cmd:    cmd,
		job:    job,
		inv:    inv,
		sink:   sink,
		gate:   newProgressGate(),
		chunks: make(chan []byte, 16),
		stop:   make(chan struct{}),
		exited: make(chan error, 1),
	}
	go s.read(reader)
	go func() { s.exited <- cmd.Wait() }()

	result.State = s.supervise()

	close(s.stop)
	_ = reader.Close()
	for range s.chunks {
	}

	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	result.Elapsed = time.Since(started)

	sink.StatusUpdated(100)
	sink.MessageLogged(result.ExitLine())

	switch {
	case result.State == AbortedState:
		result.Outcome = Aborted
	case result.State == TimedOut:
		result.Outcome = Timeout
	case result.ExitCode != 0:
		result.Outcome = NonZeroExit
	case inv.Validate != nil && !inv.Validate(job.Output):
		result.Outcome = EmptyOutput
	default:
		result.Outcome = Success
	}

	logger.Info("tool finished",
		logging.String("tool", filepath.Base(inv.Tool)),
		logging.String("outcome", result.Outcome.String()),
		logging.Int("exit_code", result.ExitCode),
		logging.Duration("elapsed", result.Elapsed.Round(time.Millisecond)),
	)
	return result
}

type supervision struct {
	runner *Runner
	ctx    context.Context
	cmd    *exec.Cmd
	job    Job
	inv    Invocation
	sink   Sink
	gate   *progressGate
	lines  lineSplitter
	chunks chan []byte
	stop   chan struct{}
	exited chan error
}

func (s *supervision) read(reader *os.File) {
	defer close(s.chunks)
	buf := make([]byte, readBufferSize)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.chunks <- chunk:
			case <-s.stop:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// supervise runs the loop until the tool exits, is aborted, or times out, and
// returns the terminal state. The process has been reaped on return.
func (s *supervision) supervise() State {
	timeout := positiveOr(s.runner.Timeout, defaultTimeout)
	ticker := time.NewTicker(positiveOr(s.runner.PollInterval, defaultPollInterval))
	defer ticker.Stop()

	lastOutput := time.Now()
	chunks := s.chunks
	for {
		if s.job.Abort.IsSet() || s.ctx.Err() != nil {
			s.kill(AbortedMessage)
			return AbortedState
		}
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			lastOutput = time.Now()
			s.lines.feed(chunk, s.handleLine)
		case <-s.exited:
			s.drain(chunks)
			return Exited
		case <-s.ctx.Done():
		case <-ticker.C:
			if time.Since(lastOutput) >= timeout {
				logging.WarnWithContext(
					logging.NewComponentLogger(logging.WithContext(s.ctx, s.runner.Logger), "runner"),
					"tool produced no output within timeout; killing",
					"tool_timeout",
					logging.String("tool", filepath.Base(s.inv.Tool)),
					logging.Duration("timeout", timeout),
					logging.String(logging.FieldImpact, "job fails with a timeout"),
				)
				s.kill(TimeoutMessage)
				return TimedOut
			}
		}
	}
}

func (s *supervision) kill(message string) {
	killProcess(s.cmd)
	s.sink.MessageLogged(message)
	<-s.exited
}

// drain forwards output still buffered in the pipe after the tool exited.
// Helpers that inherited the pipe can keep it open, so reading stops after
// DrainGrace.
func (s *supervision) drain(chunks <-chan []byte) {
	grace := time.NewTimer(positiveOr(s.runner.DrainGrace, defaultDrainGrace))
	defer grace.Stop()
	for chunks != nil {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			s.lines.feed(chunk, s.handleLine)
		case <-grace.C:
			chunks = nil
		}
	}
	s.lines.flush(s.handleLine)
}

func (s *supervision) handleLine(line string) {
	percent, matched, ok := s.inv.Progress.Match(line)
	if matched {
		if !ok {
			return
		}
		if p, emit := s.gate.admit(percent); emit {
			s.sink.StatusUpdated(p)
		}
		return
	}
	if line != "" {
		s.sink.MessageLogged(line)
	}
}

func positiveOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
