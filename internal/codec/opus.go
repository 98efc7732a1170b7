package codec

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"tonearm/internal/config"
	"tonearm/internal/process"
	"tonearm/internal/services"
	"tonearm/internal/textutil"
	"tonearm/internal/tools"
)

// OptimizeFor biases opusenc's signal analysis.
type OptimizeFor int

const (
	OptimizeAuto OptimizeFor = iota
	OptimizeMusic
	OptimizeSpeech
)

// ParseOptimizeFor accepts auto, music, or speech.
func ParseOptimizeFor(value string) (OptimizeFor, error) {
	switch value {
	case "", "auto":
		return OptimizeAuto, nil
	case "music":
		return OptimizeMusic, nil
	case "speech":
		return OptimizeSpeech, nil
	default:
		return OptimizeAuto, fmt.Errorf("unknown optimize_for value %q", value)
	}
}

// opusFrameSizes are the --framesize values selected by index.
var opusFrameSizes = []string{"2.5", "5", "10", "20", "40", "60"}

var opusTable = valueTable{count: 32, kind: Bitrate, at: OpusBitrate}

var opusInfo = EncoderInfo{
	Description:     "opusenc (libopus encoder)",
	Extension:       "opus",
	NeedsTimingInfo: true,
	tables:          map[RCMode]valueTable{VBR: opusTable, ABR: opusTable, CBR: opusTable},
}

var opusTags = tagFlags{
	title:        "--title",
	artist:       "--artist",
	album:        "--album",
	genre:        "--genre",
	comment:      "--comment",
	year:         "--date",
	position:     "--tracknumber",
	commentValue: func(v string) string { return "comment=" + v },
}

// opusenc reports elapsed encoded time, e.g. "[|] 00:01:23.45 31.4x realtime".
var opusProgress = regexp.MustCompile(`(\d+):(\d{2}):(\d{2})\.(\d{2})\s+[\d.]+x\s+realtime`)

// OpusEncoder drives opusenc.
type OpusEncoder struct {
	binary       string
	runner       *process.Runner
	rcMode       RCMode
	bitrate      int
	complexity   int
	frameSize    int
	optimizeFor  OptimizeFor
	customParams string
}

// NewOpusEncoder resolves opusenc and returns an encoder with VBR defaults.
func NewOpusEncoder(resolver tools.Resolver, runner *process.Runner) (*OpusEncoder, error) {
	binary, err := resolveTool(resolver, "opus", tools.OpusEnc)
	if err != nil {
		return nil, err
	}
	return &OpusEncoder{
		binary:     binary,
		runner:     runnerOrDefault(runner),
		rcMode:     VBR,
		complexity: 10,
		frameSize:  3,
	}, nil
}

// ApplyConfig copies the [opus] settings onto the encoder.
func (e *OpusEncoder) ApplyConfig(cfg config.Opus) error {
	mode, err := ParseRCMode(cfg.RCMode)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "opus", "configure", "opus.rc_mode", err)
	}
	optimize, err := ParseOptimizeFor(cfg.OptimizeFor)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "opus", "configure", "opus.optimize_for", err)
	}
	if err := e.SetComplexity(cfg.Complexity); err != nil {
		return err
	}
	if err := e.SetFrameSize(cfg.FrameSize); err != nil {
		return err
	}
	e.SetRCMode(mode)
	e.SetBitrate(cfg.BitrateIndex)
	e.SetOptimizeFor(optimize)
	e.SetCustomParams(cfg.CustomParams)
	return nil
}

func (e *OpusEncoder) Name() string { return "opus" }

func (e *OpusEncoder) Info() EncoderInfo { return opusInfo }

func (e *OpusEncoder) IsFormatSupported(info FormatInfo) bool {
	return anyMatch(pcmWave, info)
}

func (e *OpusEncoder) SetRCMode(mode RCMode) { e.rcMode = mode }

func (e *OpusEncoder) SetBitrate(index int) { e.bitrate = index }

func (e *OpusEncoder) SetCustomParams(params string) { e.customParams = params }

func (e *OpusEncoder) SetOptimizeFor(value OptimizeFor) { e.optimizeFor = value }

// SetComplexity sets the encoder complexity, 0 (fastest) to 10.
func (e *OpusEncoder) SetComplexity(value int) error {
	if value < 0 || value > 10 {
		return services.Wrap(services.ErrConfiguration, "opus", "configure", fmt.Sprintf("complexity %d out of range", value), nil)
	}
	e.complexity = value
	return nil
}

// SetFrameSize selects a frame duration by index into 2.5, 5, 10, 20, 40, 60 ms.
func (e *OpusEncoder) SetFrameSize(index int) error {
	if index < 0 || index >= len(opusFrameSizes) {
		return services.Wrap(services.ErrConfiguration, "opus", "configure", fmt.Sprintf("frame size index %d out of range", index), nil)
	}
	e.frameSize = index
	return nil
}

// Args builds the opusenc command line for job.
func (e *OpusEncoder) Args(job EncodeJob) ([]string, error) {
	var args []string
	switch e.rcMode {
	case VBR:
		args = append(args, "--vbr")
	case ABR:
		args = append(args, "--cvbr")
	case CBR:
		args = append(args, "--hard-cbr")
	default:
		return nil, services.Wrap(services.ErrConfiguration, "opus", "build args", fmt.Sprintf("rate-control mode %s is not supported", e.rcMode), nil)
	}
	args = append(args, "--bitrate", strconv.Itoa(OpusBitrate(e.bitrate)))
	args = append(args, "--comp", strconv.Itoa(e.complexity))
	args = append(args, "--framesize", opusFrameSizes[e.frameSize])
	switch e.optimizeFor {
	case OptimizeMusic:
		args = append(args, "--music")
	case OptimizeSpeech:
		args = append(args, "--speech")
	}
	args = append(args, textutil.SplitParams(e.customParams)...)
	args = append(args, opusTags.args(job.Meta)...)
	args = append(args, process.NativePath(job.Source), process.NativePath(job.Output))
	return args, nil
}

// Encode runs opusenc. Progress is derived from the elapsed time the tool
// reports and is only available when job.Meta.Duration is set.
func (e *OpusEncoder) Encode(ctx context.Context, job EncodeJob) (process.Result, error) {
	var err error
	if job.Source, job.Output, err = absolutePaths("opus", job.Source, job.Output); err != nil {
		return process.Result{}, err
	}
	args, err := e.Args(job)
	if err != nil {
		return process.Result{}, err
	}
	ctx = services.WithCodec(ctx, e.Name())
	inv := process.Invocation{
		Tool:     e.binary,
		Args:     args,
		Progress: opusElapsedPattern(job.Meta.Duration),
	}
	return e.runner.Run(ctx, inv, process.Job{Source: job.Source, Output: job.Output, Abort: job.Abort}, job.Sink), nil
}

func opusElapsedPattern(total time.Duration) process.ProgressPattern {
	return process.CustomPercent(opusProgress, func(groups []string) (int, bool) {
		if total <= 0 || len(groups) < 5 {
			return 0, false
		}
		var parts [4]int
		for i := range parts {
			v, err := strconv.Atoi(groups[i+1])
			if err != nil {
				return 0, false
			}
			parts[i] = v
		}
		elapsed := time.Duration(parts[0])*time.Hour +
			time.Duration(parts[1])*time.Minute +
			time.Duration(parts[2])*time.Second +
			time.Duration(parts[3])*10*time.Millisecond
		return int(elapsed * 100 / total), true
	})
}
