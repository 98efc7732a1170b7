package codec

import (
	"context"
	"errors"
	"time"

	"tonearm/internal/fileutil"
	"tonearm/internal/process"
	"tonearm/internal/services"
)

var waveInfo = EncoderInfo{
	Description: "Wave Audio (PCM)",
	Extension:   "wav",
}

// WaveEncoder writes PCM Wave output by copying the (already decoded) source.
// It needs no external tool.
type WaveEncoder struct{}

// NewWaveEncoder returns the copy-only Wave encoder.
func NewWaveEncoder() *WaveEncoder { return &WaveEncoder{} }

func (e *WaveEncoder) Name() string { return "wave" }

func (e *WaveEncoder) Info() EncoderInfo { return waveInfo }

func (e *WaveEncoder) IsFormatSupported(info FormatInfo) bool {
	return anyMatch(pcmWave, info)
}

// Encode copies job.Source to job.Output with integrity verification.
// Progress is reported in whole percents of bytes copied.
func (e *WaveEncoder) Encode(ctx context.Context, job EncodeJob) (process.Result, error) {
	var err error
	if job.Source, job.Output, err = absolutePaths("wave", job.Source, job.Output); err != nil {
		return process.Result{}, err
	}
	sink := job.Sink
	if sink == nil {
		sink = process.SinkFuncs{}
	}

	copyCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if job.Abort.IsSet() {
		cancel()
	}

	start := time.Now()
	last := -1
	progress := func(written, total int64) {
		if job.Abort.IsSet() {
			cancel()
			return
		}
		if total <= 0 {
			return
		}
		if pct := int(written * 100 / total); pct > last && pct < 100 {
			last = pct
			sink.StatusUpdated(pct)
		}
	}

	result := process.Result{Tool: "copy", Args: []string{job.Source, job.Output}, State: process.Exited}
	err = fileutil.CopyFileVerified(copyCtx, job.Source, job.Output, progress)
	result.Elapsed = time.Since(start)
	switch {
	case err == nil && fileutil.Size(job.Output) > 0:
		result.Outcome = process.Success
	case err == nil:
		result.Outcome = process.EmptyOutput
	case errors.Is(err, context.Canceled) && (job.Abort.IsSet() || ctx.Err() != nil):
		result.Outcome = process.Aborted
		result.State = process.AbortedState
		result.ExitCode = -1
		sink.MessageLogged(process.AbortedMessage)
	default:
		result.Outcome = process.NonZeroExit
		result.ExitCode = 1
		sink.MessageLogged(services.Wrap(services.ErrExternalTool, "wave", "copy", "copy failed", err).Error())
	}
	sink.StatusUpdated(100)
	sink.MessageLogged(result.ExitLine())
	return result, nil
}
