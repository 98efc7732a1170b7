package codec

import (
	"context"
	"fmt"
	"strconv"

	"tonearm/internal/config"
	"tonearm/internal/process"
	"tonearm/internal/services"
	"tonearm/internal/textutil"
	"tonearm/internal/tools"
)

var fdkInfo = EncoderInfo{
	Description: "fdkaac (libfdk-aac encoder)",
	Extension:   "mp4",
	tables: map[RCMode]valueTable{
		VBR: {count: 5, kind: QualityLevel, at: FDKQuality},
		CBR: {count: 52, kind: Bitrate, at: FDKBitrate},
	},
}

// fdkProfiles maps the profile setting to fdkaac -p values
// (1 = LC, 2 = HE, 3 = HEv2). 0 leaves the tool default.
var fdkProfiles = map[int]string{1: "2", 2: "5", 3: "29"}

var fdkTags = tagFlags{
	title:    "--title",
	artist:   "--artist",
	album:    "--album",
	genre:    "--genre",
	comment:  "--comment",
	year:     "--date",
	position: "--track",
}

// FDKAACEncoder drives fdkaac.
type FDKAACEncoder struct {
	binary       string
	runner       *process.Runner
	profile      int
	rcMode       RCMode
	bitrate      int
	customParams string
}

// NewFDKAACEncoder resolves fdkaac and returns an encoder with VBR defaults.
func NewFDKAACEncoder(resolver tools.Resolver, runner *process.Runner) (*FDKAACEncoder, error) {
	binary, err := resolveTool(resolver, "fdkaac", tools.FDKAAC)
	if err != nil {
		return nil, err
	}
	return &FDKAACEncoder{binary: binary, runner: runnerOrDefault(runner), rcMode: VBR}, nil
}

// ApplyConfig copies the [aac] settings onto the encoder.
func (e *FDKAACEncoder) ApplyConfig(cfg config.AAC) error {
	mode, err := ParseRCMode(cfg.RCMode)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "fdkaac", "configure", "aac.rc_mode", err)
	}
	if err := e.SetProfile(cfg.Profile); err != nil {
		return err
	}
	e.SetRCMode(mode)
	e.SetBitrate(cfg.BitrateIndex)
	e.SetCustomParams(cfg.CustomParams)
	return nil
}

func (e *FDKAACEncoder) Name() string { return "fdkaac" }

func (e *FDKAACEncoder) Info() EncoderInfo { return fdkInfo }

func (e *FDKAACEncoder) IsFormatSupported(info FormatInfo) bool {
	return anyMatch(pcmWave, info)
}

// SetProfile selects 0 (tool default), 1 (LC), 2 (HE) or 3 (HEv2).
func (e *FDKAACEncoder) SetProfile(profile int) error {
	if profile < 0 || profile > 3 {
		return services.Wrap(services.ErrConfiguration, "fdkaac", "configure", fmt.Sprintf("profile %d out of range", profile), nil)
	}
	e.profile = profile
	return nil
}

func (e *FDKAACEncoder) SetRCMode(mode RCMode) { e.rcMode = mode }

// SetBitrate stores the rate-control index; it is mapped when arguments are built.
func (e *FDKAACEncoder) SetBitrate(index int) { e.bitrate = index }

func (e *FDKAACEncoder) SetCustomParams(params string) { e.customParams = params }

// Args builds the fdkaac command line for job.
func (e *FDKAACEncoder) Args(job EncodeJob) ([]string, error) {
	var args []string
	if p, ok := fdkProfiles[e.profile]; ok {
		args = append(args, "-p", p)
	}
	switch e.rcMode {
	case CBR:
		args = append(args, "-b", strconv.Itoa(FDKBitrate(e.bitrate)))
	case VBR:
		args = append(args, "-m", strconv.Itoa(FDKQuality(e.bitrate)))
	default:
		return nil, services.Wrap(services.ErrConfiguration, "fdkaac", "build args", fmt.Sprintf("rate-control mode %s is not supported", e.rcMode), nil)
	}
	args = append(args, textutil.SplitParams(e.customParams)...)
	args = append(args, fdkTags.args(job.Meta)...)
	args = append(args, "-o", process.NativePath(job.Output), process.NativePath(job.Source))
	return args, nil
}

// Encode runs fdkaac. The error is reserved for invalid configuration or
// requests; tool failures are reported through the result outcome.
func (e *FDKAACEncoder) Encode(ctx context.Context, job EncodeJob) (process.Result, error) {
	var err error
	if job.Source, job.Output, err = absolutePaths("fdkaac", job.Source, job.Output); err != nil {
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
		Progress: process.IntegerPercent(`\[(\d+)%\]\s+(\d+):(\d+)`, 1),
	}
	return e.runner.Run(ctx, inv, process.Job{Source: job.Source, Output: job.Output, Abort: job.Abort}, job.Sink), nil
}
