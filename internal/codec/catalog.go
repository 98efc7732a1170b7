package codec

import (
	"fmt"
	"strings"

	"tonearm/internal/config"
	"tonearm/internal/process"
	"tonearm/internal/services"
	"tonearm/internal/tools"
)

// EncoderNames lists the encoder names accepted by NewEncoder.
var EncoderNames = []string{"aac", "opus", "wav"}

// NewDecoders constructs every decoder whose tool resolves. Decoders that
// cannot be constructed are reported in the error slice and skipped.
func NewDecoders(resolver tools.Resolver, runner *process.Runner) ([]Decoder, []error) {
	var (
		out  []Decoder
		errs []error
	)
	if d, err := NewALACDecoder(resolver, runner); err == nil {
		out = append(out, d)
	} else {
		errs = append(errs, err)
	}
	if d, err := NewWavPackDecoder(resolver, runner); err == nil {
		out = append(out, d)
	} else {
		errs = append(errs, err)
	}
	return out, errs
}

// NewEncoder constructs the named encoder configured from cfg.
func NewEncoder(name string, cfg *config.Config, resolver tools.Resolver, runner *process.Runner) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "aac", "fdkaac":
		enc, err := NewFDKAACEncoder(resolver, runner)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			if err := enc.ApplyConfig(cfg.AAC); err != nil {
				return nil, err
			}
		}
		return enc, nil
	case "opus", "opusenc":
		enc, err := NewOpusEncoder(resolver, runner)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			if err := enc.ApplyConfig(cfg.Opus); err != nil {
				return nil, err
			}
		}
		return enc, nil
	case "wav", "wave":
		return NewWaveEncoder(), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "codec", "new encoder", fmt.Sprintf("unknown encoder %q (expected %s)", name, strings.Join(EncoderNames, ", ")), nil)
	}
}

// FindDecoder returns the first decoder that accepts info.
func FindDecoder(decoders []Decoder, info FormatInfo) (Decoder, bool) {
	for _, d := range decoders {
		if d != nil && d.IsFormatSupported(info) {
			return d, true
		}
	}
	return nil, false
}

// FormatForExtension guesses a FormatInfo from a file extension using the
// decoders' supported types. Wave files map to WaveFormat.
func FormatForExtension(decoders []Decoder, ext string) (FormatInfo, bool) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "wav" || ext == "wave" {
		return WaveFormat, true
	}
	for _, d := range decoders {
		td, ok := d.(*ToolDecoder)
		if !ok {
			continue
		}
		for _, t := range td.types {
			for _, candidate := range t.Extensions {
				if candidate == ext && len(td.caps) > 0 {
					return FormatInfo{ContainerType: td.caps[0].container, FormatType: td.caps[0].format}, true
				}
			}
		}
	}
	return FormatInfo{}, false
}
