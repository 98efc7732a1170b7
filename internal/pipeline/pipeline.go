package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"tonearm/internal/codec"
	"tonearm/internal/config"
	"tonearm/internal/fileutil"
	"tonearm/internal/history"
	"tonearm/internal/logging"
	"tonearm/internal/process"
	"tonearm/internal/services"
)

const (
	// placeholderLimit is the size below which a failed output is treated as
	// a leftover placeholder and removed.
	placeholderLimit = 512
	// largeWaveLimit triggers a warning: many tools cannot read Wave files
	// beyond the 32-bit RIFF size limit.
	largeWaveLimit = 4 << 30

	separator = "-------------------------------"
)

// Pipeline converts single files with one encoder.
type Pipeline struct {
	cfg      *config.Config
	encoder  codec.Encoder
	decoders []codec.Decoder
	history  *history.Store
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithHistory records every finished job in store.
func WithHistory(store *history.Store) Option {
	return func(p *Pipeline) { p.history = store }
}

// WithLogger sets the logger used for job lifecycle records.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the time source used for job timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New builds a pipeline for encoder. decoders are consulted, in order, when
// the encoder cannot read a source directly.
func New(cfg *config.Config, encoder codec.Encoder, decoders []codec.Decoder, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		encoder:  encoder,
		decoders: decoders,
		logger:   logging.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// job is the per-run state of Run.
type job struct {
	p         *Pipeline
	ctx       context.Context
	logger    *slog.Logger
	abort     *process.AbortFlag
	sink      process.Sink
	recorder  *process.RecorderSink
	report    Report
	tempFiles []string
}

// Run converts req. It never returns early on tool failures: the report
// carries the final state, the last tool result, and the job transcript.
// abort may be nil; cancelling ctx has the same effect as setting it.
func (p *Pipeline) Run(ctx context.Context, req Request, abort *process.AbortFlag, sink process.Sink) Report {
	id := p.newID()
	ctx = services.WithJobID(ctx, id)
	if p.encoder != nil {
		ctx = services.WithCodec(ctx, p.encoder.Name())
	}
	if abort == nil {
		abort = &process.AbortFlag{}
	}

	j := &job{
		p:        p,
		ctx:      ctx,
		logger:   logging.NewComponentLogger(logging.WithContext(ctx, p.logger), "pipeline"),
		abort:    abort,
		recorder: &process.RecorderSink{},
		report:   Report{JobID: id, Source: req.Source, StartedAt: p.now()},
	}
	sinks := process.MultiSink{j.recorder}
	if sink != nil {
		sinks = append(sinks, sink)
	}
	j.sink = sinks
	stepSink, _ := sink.(StepSink)

	defer j.removeTempFiles()

	j.logger.Info("conversion started", logging.String("source", req.Source))
	j.execute(req, stepSink)

	j.report.FinishedAt = p.now()
	j.report.Messages = j.recorder.Messages()
	j.record()
	j.logFinished()
	return j.report
}

func (j *job) execute(req Request, stepSink StepSink) {
	p := j.p
	if p.cfg == nil || p.encoder == nil {
		j.fail(services.Wrap(services.ErrConfiguration, "pipeline", "run", "pipeline has no configuration or encoder", nil))
		return
	}

	outputDir := req.OutputDir
	if strings.TrimSpace(outputDir) == "" {
		outputDir = p.cfg.Paths.OutputDir
	}
	named, err := prepareOutput(req, p.cfg.Output, outputDir, p.encoder.Info().Extension, j.sink.MessageLogged)
	j.report.Output = named.output
	if err != nil {
		j.fail(err)
		return
	}
	if named.skipped {
		j.report.State = Skipped
		j.report.Step = StepFinish
		return
	}

	source := req.Source
	format := req.Format
	if !p.encoder.IsFormatSupported(format) {
		j.report.Step = StepDecode
		decoder, ok := codec.FindDecoder(p.decoders, format)
		if !ok {
			fileutil.RemoveIfSmaller(j.report.Output, placeholderLimit)
			j.sink.MessageLogged(fmt.Sprintf("The format of this file is NOT supported:\n%s\n\nContainer Format:\t%s\nAudio Format:\t%s",
				req.Source, orDefault(format.ContainerType, "Unknown"), orDefault(format.FormatType, "Unknown")))
			j.report.State = Unsupported
			j.report.Err = services.Wrap(services.ErrValidation, "pipeline", "decode", "unsupported input format", nil)
			return
		}
		if stepSink != nil {
			stepSink.StepStarted(StepDecode)
		}
		temp, err := j.tempWave()
		if err != nil {
			j.cleanupOutput()
			j.fail(err)
			return
		}
		ctx := services.WithStage(services.WithCodec(j.ctx, decoder.Name()), StepDecode.String())
		result, err := decoder.Decode(ctx, codec.DecodeJob{
			Source: source,
			Output: temp,
			Abort:  j.abort,
			Sink:   j.stepSinks(ctx),
		})
		j.report.Result = result
		if err != nil || !result.Success() {
			j.cleanupOutput()
			j.finishTool(result, err)
			return
		}
		source = temp
		format = codec.WaveFormat
		if fileutil.Size(temp) >= largeWaveLimit {
			j.sink.MessageLogged("WARNING: Decoded file size exceeds 4 GB, problems might occur!")
			logging.WarnWithContext(j.logger, "decoded file exceeds 4 GiB", "large_intermediate",
				logging.Int64("size_bytes", fileutil.Size(temp)),
				logging.String(logging.FieldImpact, "some encoders cannot read Wave files beyond 4 GiB"),
			)
		}
		j.sink.MessageLogged(separator)
	}

	if j.aborted() {
		j.cleanupOutput()
		j.report.State = Aborted
		j.report.Err = services.Wrap(services.ErrAborted, "pipeline", "encode", "aborted before encoding", nil)
		return
	}

	j.report.Step = StepEncode
	if stepSink != nil {
		stepSink.StepStarted(StepEncode)
	}
	ctx := services.WithStage(j.ctx, StepEncode.String())
	result, err := p.encoder.Encode(ctx, codec.EncodeJob{
		Source: source,
		Output: j.report.Output,
		Meta:   req.Meta.Sanitized(),
		Abort:  j.abort,
		Sink:   j.stepSinks(ctx),
	})
	j.report.Result = result
	if err != nil || !result.Success() {
		j.cleanupOutput()
		j.finishTool(result, err)
		return
	}

	j.report.Step = StepFinish
	if fileutil.Size(j.report.Output) <= 0 {
		j.report.State = Failed
		j.report.Err = services.Wrap(services.ErrEmptyOutput, "pipeline", "finish", "output file is missing or empty", nil)
		return
	}
	j.report.State = Done
}

// stepSinks adds a log sink carrying the step's context fields.
func (j *job) stepSinks(ctx context.Context) process.Sink {
	return process.MultiSink{j.sink, process.NewLogSink(ctx, j.p.logger)}
}

func (j *job) aborted() bool {
	return j.abort.IsSet() || j.ctx.Err() != nil
}

func (j *job) fail(err error) {
	j.report.State = Failed
	j.report.Err = err
}

// finishTool maps a tool result onto the job state.
func (j *job) finishTool(result process.Result, err error) {
	switch {
	case err != nil:
		j.fail(err)
	case result.Outcome == process.Aborted || j.aborted():
		j.report.State = Aborted
		j.report.Err = result.Err()
		if j.report.Err == nil {
			j.report.Err = services.Wrap(services.ErrAborted, "pipeline", j.report.Step.String(), "aborted", nil)
		}
	default:
		j.fail(result.Err())
	}
}

func (j *job) cleanupOutput() {
	if j.report.Output != "" {
		fileutil.RemoveIfSmaller(j.report.Output, placeholderLimit)
	}
}

func (j *job) tempWave() (string, error) {
	dir := j.p.cfg.Paths.TempDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrValidation, "pipeline", "decode", "create temp directory", err)
	}
	f, err := os.CreateTemp(dir, "tonearm-*.wav")
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "pipeline", "decode", "create temp file", err)
	}
	name := f.Name()
	_ = f.Close()
	j.tempFiles = append(j.tempFiles, name)
	return name, nil
}

func (j *job) removeTempFiles() {
	for _, name := range j.tempFiles {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			j.logger.Warn("temp file removal failed",
				logging.String("path", name),
				logging.Error(err),
				logging.String(logging.FieldEventType, "temp_cleanup_failed"),
			)
		}
	}
	j.tempFiles = nil
}

func (j *job) record() {
	store := j.p.history
	if store == nil {
		return
	}
	r := j.report
	codecName, _ := services.CodecFromContext(j.ctx)
	entry := history.Job{
		ID:          r.JobID,
		Source:      r.Source,
		Output:      r.Output,
		Codec:       codecName,
		Step:        r.Step.String(),
		State:       r.State.String(),
		Outcome:     r.Result.Outcome.String(),
		ExitCode:    r.Result.ExitCode,
		OutputBytes: max(fileutil.Size(r.Output), 0),
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
	if r.Err != nil {
		entry.Error = r.Err.Error()
	}
	// A job that did not reach a tool has no meaningful outcome.
	if r.Result.Tool == "" {
		entry.Outcome = ""
		entry.ExitCode = 0
	}
	// History is best effort.
	if err := store.Record(context.WithoutCancel(j.ctx), entry, r.Messages); err != nil {
		j.logger.Warn("history record failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "history_record_failed"),
			logging.String(logging.FieldImpact, "job will not appear in tonearm history"),
		)
	}
}

func (j *job) logFinished() {
	r := j.report
	attrs := []logging.Attr{
		logging.String("state", r.State.String()),
		logging.String("step", r.Step.String()),
		logging.String("output", r.Output),
		logging.Duration("elapsed", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)),
	}
	if size := fileutil.Size(r.Output); size >= 0 {
		attrs = append(attrs, logging.Int64("output_bytes", size))
	}
	switch r.State {
	case Done, Skipped:
		j.logger.Info("conversion finished", logging.Args(attrs...)...)
	case Aborted:
		logging.WarnWithContext(j.logger, "conversion aborted", "conversion_aborted", attrs...)
	default:
		attrs = append(attrs, logging.Error(r.Err))
		logging.ErrorWithContext(j.logger, "conversion failed", "conversion_failed", attrs...)
	}
}
