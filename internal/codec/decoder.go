package codec

import (
	"context"

	"tonearm/internal/process"
	"tonearm/internal/services"
	"tonearm/internal/tools"
)

// ToolDecoder runs a command-line decoder. Decoders differ only in the
// fields set by their constructors.
type ToolDecoder struct {
	name     string
	binary   string
	caps     []capability
	types    []SupportedType
	args     func(source, output string) []string
	progress process.ProgressPattern
	runner   *process.Runner
}

// NewALACDecoder builds the Apple Lossless decoder backed by refalac.
func NewALACDecoder(resolver tools.Resolver, runner *process.Runner) (*ToolDecoder, error) {
	binary, err := resolveTool(resolver, "alac", tools.RefALAC)
	if err != nil {
		return nil, err
	}
	return &ToolDecoder{
		name:   "alac",
		binary: binary,
		caps:   []capability{{container: "MPEG-4", format: "ALAC"}},
		types:  []SupportedType{{Name: "Apple Lossless", Extensions: []string{"mp4", "m4a"}}},
		args: func(source, output string) []string {
			return []string{"--decode", "-o", process.NativePath(output), process.NativePath(source)}
		},
		progress: process.TenthsPercent(`\[(\d+)\.(\d)%\]`, 1, 2),
		runner:   runnerOrDefault(runner),
	}, nil
}

// NewWavPackDecoder builds the WavPack decoder backed by wvunpack.
func NewWavPackDecoder(resolver tools.Resolver, runner *process.Runner) (*ToolDecoder, error) {
	binary, err := resolveTool(resolver, "wavpack", tools.WVUnpack)
	if err != nil {
		return nil, err
	}
	return &ToolDecoder{
		name:   "wavpack",
		binary: binary,
		caps:   []capability{{container: "WavPack", format: "WavPack"}},
		types:  []SupportedType{{Name: "WavPack Hybrid Lossless Audio", Extensions: []string{"wv"}}},
		args: func(source, output string) []string {
			return []string{"-y", "-w", process.NativePath(source), process.NativePath(output)}
		},
		progress: process.IntegerPercent(`(\s|\b)(\d+)%\s+done`, 2),
		runner:   runnerOrDefault(runner),
	}, nil
}

func (d *ToolDecoder) Name() string { return d.name }

// Binary returns the resolved tool path.
func (d *ToolDecoder) Binary() string { return d.binary }

func (d *ToolDecoder) IsFormatSupported(info FormatInfo) bool {
	return anyMatch(d.caps, info)
}

func (d *ToolDecoder) SupportedTypes() []SupportedType {
	out := make([]SupportedType, len(d.types))
	for i, t := range d.types {
		out[i] = SupportedType{Name: t.Name, Extensions: append([]string(nil), t.Extensions...)}
	}
	return out
}

// Args returns the command-line arguments for decoding source into output.
func (d *ToolDecoder) Args(source, output string) []string {
	return d.args(source, output)
}

// Decode runs the tool. Tool failures are reported through the result
// outcome; the error is reserved for invalid requests.
func (d *ToolDecoder) Decode(ctx context.Context, job DecodeJob) (process.Result, error) {
	var err error
	if job.Source, job.Output, err = absolutePaths(d.name, job.Source, job.Output); err != nil {
		return process.Result{}, err
	}
	ctx = services.WithCodec(ctx, d.name)
	inv := process.Invocation{
		Tool:     d.binary,
		Args:     d.args(job.Source, job.Output),
		Progress: d.progress,
		Validate: process.NonEmptyFile,
	}
	return d.runner.Run(ctx, inv, process.Job{Source: job.Source, Output: job.Output, Abort: job.Abort}, job.Sink), nil
}
