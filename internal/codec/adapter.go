package codec

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"tonearm/internal/process"
	"tonearm/internal/services"
	"tonearm/internal/tools"
)

// DecodeJob is one decode request.
type DecodeJob struct {
	Source string
	Output string
	Abort  *process.AbortFlag
	Sink   process.Sink
}

// EncodeJob is one encode request.
type EncodeJob struct {
	Source string
	Output string
	Meta   MetaInfo
	Abort  *process.AbortFlag
	Sink   process.Sink
}

// Decoder turns a compressed file into PCM Wave.
type Decoder interface {
	Name() string
	IsFormatSupported(info FormatInfo) bool
	SupportedTypes() []SupportedType
	Decode(ctx context.Context, job DecodeJob) (process.Result, error)
}

// Encoder turns PCM Wave into a compressed file.
type Encoder interface {
	Name() string
	Info() EncoderInfo
	IsFormatSupported(info FormatInfo) bool
	Encode(ctx context.Context, job EncodeJob) (process.Result, error)
}

// resolveTool binds a tool name to an absolute path at construction time.
func resolveTool(resolver tools.Resolver, component, name string) (string, error) {
	if resolver == nil {
		return "", services.Wrap(services.ErrConfiguration, component, "init", "no tool resolver configured", nil)
	}
	path, ok := resolver.Lookup(name)
	if !ok || strings.TrimSpace(path) == "" {
		return "", services.Wrap(services.ErrConfiguration, component, "init", fmt.Sprintf("tool %q is not registered", name), nil)
	}
	return path, nil
}

// absolutePaths rejects empty paths and makes both absolute. Tools run with
// the output directory as their working directory.
func absolutePaths(component, source, output string) (string, string, error) {
	if strings.TrimSpace(source) == "" {
		return "", "", services.Wrap(services.ErrValidation, component, "run", "source path is empty", nil)
	}
	if strings.TrimSpace(output) == "" {
		return "", "", services.Wrap(services.ErrValidation, component, "run", "output path is empty", nil)
	}
	src, err := filepath.Abs(source)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, component, "run", "resolve source path", err)
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, component, "run", "resolve output path", err)
	}
	return src, out, nil
}

func runnerOrDefault(r *process.Runner) *process.Runner {
	if r == nil {
		return &process.Runner{}
	}
	return r
}
