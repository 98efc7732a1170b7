package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tonearm/internal/codec"
	"tonearm/internal/config"
	"tonearm/internal/fileutil"
	"tonearm/internal/history"
	"tonearm/internal/pipeline"
	"tonearm/internal/preflight"
	"tonearm/internal/process"
	"tonearm/internal/services"
)

// formatFlags lets the caller describe the source when the extension is not
// enough.
type formatFlags struct {
	container string
	format    string
}

func (f *formatFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.container, "container", "", "Source container type (e.g. MPEG-4, WavPack, Wave)")
	cmd.Flags().StringVar(&f.format, "format", "", "Source audio format (e.g. ALAC, WavPack, PCM)")
}

// resolve returns the explicit format when given, otherwise a guess from the
// file extension. ok is false when neither yields a format.
func (f *formatFlags) resolve(decoders []codec.Decoder, path string) (codec.FormatInfo, bool) {
	if strings.TrimSpace(f.container) != "" || strings.TrimSpace(f.format) != "" {
		return codec.FormatInfo{ContainerType: strings.TrimSpace(f.container), FormatType: strings.TrimSpace(f.format)}, true
	}
	return codec.FormatForExtension(decoders, filepath.Ext(path))
}

type metaFlags struct {
	title    string
	artist   string
	album    string
	genre    string
	comment  string
	year     int
	track    int
	duration time.Duration
}

func (m *metaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.title, "title", "", "Title tag")
	cmd.Flags().StringVar(&m.artist, "artist", "", "Artist tag")
	cmd.Flags().StringVar(&m.album, "album", "", "Album tag")
	cmd.Flags().StringVar(&m.genre, "genre", "", "Genre tag")
	cmd.Flags().StringVar(&m.comment, "comment", "", "Comment tag")
	cmd.Flags().IntVar(&m.year, "year", 0, "Release year tag")
	cmd.Flags().IntVar(&m.track, "track", 0, "Track number tag")
	cmd.Flags().DurationVar(&m.duration, "duration", 0, "Source duration, used for progress by encoders that report elapsed time")
}

func (m *metaFlags) meta() codec.MetaInfo {
	return codec.MetaInfo{
		Title:    m.title,
		Artist:   m.artist,
		Album:    m.album,
		Genre:    m.genre,
		Comment:  m.comment,
		Year:     m.year,
		Position: m.track,
		Duration: m.duration,
	}
}

func sourcePath(arg string) (string, error) {
	path, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return "", fmt.Errorf("resolve source path: %w", err)
	}
	if fileutil.Size(path) < 0 {
		return "", fmt.Errorf("source %q is not a readable file", path)
	}
	return path, nil
}

// outputPath expands an explicit destination, or derives one next to source
// with the given extension.
func outputPath(flag, source, ext string) (string, error) {
	if flag = strings.TrimSpace(flag); flag == "" {
		return strings.TrimSuffix(source, filepath.Ext(source)) + "." + ext, nil
	}
	target, err := config.ExpandPath(flag)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	return target, nil
}

func newDecodeCommand(ctx *commandContext) *cobra.Command {
	var output string
	var formats formatFlags

	cmd := &cobra.Command{
		Use:   "decode <source>",
		Short: "Decode a compressed file to PCM Wave",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := sourcePath(args[0])
			if err != nil {
				return err
			}
			target, err := outputPath(output, source, "wav")
			if err != nil {
				return err
			}
			if filepath.Clean(target) == filepath.Clean(source) {
				return fmt.Errorf("output %q would overwrite the source", target)
			}
			return ctx.withTools(func(ts *toolset) error {
				decoders := ts.decoders()
				info, ok := formats.resolve(decoders, source)
				if !ok {
					return fmt.Errorf("cannot tell the format of %q; pass --container and --format", source)
				}
				decoder, ok := codec.FindDecoder(decoders, info)
				if !ok {
					return fmt.Errorf("no decoder available for %s/%s (see `tonearm tools`)", info.ContainerType, info.FormatType)
				}

				out := cmd.OutOrStdout()
				sink := newConsoleSink(out, filepath.Base(source), ctx.verbose())
				result, err := decoder.Decode(cmd.Context(), codec.DecodeJob{Source: source, Output: target, Sink: sink})
				sink.finish()
				if err != nil {
					return err
				}
				printToolResult(out, filepath.Base(source), target, result)
				return result.Err()
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination Wave file (default: next to the source)")
	formats.register(cmd)
	return cmd
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var output string
	var codecName string
	var tags metaFlags

	cmd := &cobra.Command{
		Use:   "encode <source.wav>",
		Short: "Encode a PCM Wave file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := sourcePath(args[0])
			if err != nil {
				return err
			}
			return ctx.withTools(func(ts *toolset) error {
				encoder, err := ts.encoder(codecName)
				if err != nil {
					return err
				}
				if info, ok := codec.FormatForExtension(nil, filepath.Ext(source)); !ok || !encoder.IsFormatSupported(info) {
					return fmt.Errorf("%s only reads PCM Wave input; use `tonearm convert` for %q", encoder.Name(), filepath.Base(source))
				}
				target, err := outputPath(output, source, encoder.Info().Extension)
				if err != nil {
					return err
				}
				if filepath.Clean(target) == filepath.Clean(source) {
					return fmt.Errorf("output %q would overwrite the source", target)
				}

				out := cmd.OutOrStdout()
				sink := newConsoleSink(out, filepath.Base(source), ctx.verbose())
				result, err := encoder.Encode(cmd.Context(), codec.EncodeJob{
					Source: source,
					Output: target,
					Meta:   tags.meta().Sanitized(),
					Sink:   sink,
				})
				sink.finish()
				if err != nil {
					return err
				}
				printToolResult(out, filepath.Base(source), target, result)
				return result.Err()
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default: next to the source)")
	cmd.Flags().StringVar(&codecName, "codec", "aac", fmt.Sprintf("Encoder (%s)", strings.Join(codec.EncoderNames, ", ")))
	tags.register(cmd)
	return cmd
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var codecName string
	var outputDir string
	var overwriteMode string
	var formats formatFlags
	var tags metaFlags

	cmd := &cobra.Command{
		Use:   "convert <source>...",
		Short: "Convert files, decoding first when the encoder cannot read them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if mode := strings.TrimSpace(overwriteMode); mode != "" {
				cfg.Output.OverwriteMode = mode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if dir := strings.TrimSpace(outputDir); dir != "" {
				expanded, err := config.ExpandPath(dir)
				if err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
				cfg.Paths.OutputDir = expanded
				if err := cfg.EnsureDirectories(); err != nil {
					return err
				}
			}
			if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
				out := cmd.ErrOrStderr()
				for _, r := range failed {
					fmt.Fprintln(out, renderStatusLine(r.Name, statusError, r.Detail, shouldColorize(out)))
				}
				return errors.New("preflight checks failed")
			}

			return ctx.withTools(func(ts *toolset) error {
				encoder, err := ts.encoder(codecName)
				if err != nil {
					return err
				}
				decoders := ts.decoders()
				opts := []pipeline.Option{pipeline.WithLogger(ts.logger)}
				if cfg.History.Enabled {
					store, err := history.Open(cfg.History.Path)
					if err != nil {
						return fmt.Errorf("open history: %w", err)
					}
					defer store.Close()
					opts = append(opts, pipeline.WithHistory(store))
				}
				p := pipeline.New(cfg, encoder, decoders, opts...)

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				counts := map[pipeline.State]int{}
				for _, arg := range args {
					if err := cmd.Context().Err(); err != nil {
						return err
					}
					source, err := config.ExpandPath(strings.TrimSpace(arg))
					if err != nil {
						return fmt.Errorf("resolve source path: %w", err)
					}
					info, _ := formats.resolve(decoders, source)

					label := filepath.Base(source)
					sink := newConsoleSink(out, label, ctx.verbose())
					report := p.Run(cmd.Context(), pipeline.Request{Source: source, Format: info, Meta: tags.meta()}, nil, sink)
					sink.finish()

					counts[report.State]++
					fmt.Fprintln(out, renderStatusLine(label, jobStatusKind(report.State), reportSummary(report), colorize))
					if services.IsFatal(report.Err) {
						return report.Err
					}
				}

				fmt.Fprintf(out, "%d done, %d skipped, %d failed, %d unsupported, %d aborted\n",
					counts[pipeline.Done], counts[pipeline.Skipped], counts[pipeline.Failed], counts[pipeline.Unsupported], counts[pipeline.Aborted])
				if bad := counts[pipeline.Failed] + counts[pipeline.Unsupported] + counts[pipeline.Aborted]; bad > 0 {
					return fmt.Errorf("%d of %d conversions did not complete", bad, len(args))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&codecName, "codec", "aac", fmt.Sprintf("Encoder (%s)", strings.Join(codec.EncoderNames, ", ")))
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory (default: [paths] output_dir, or next to each source)")
	cmd.Flags().StringVar(&overwriteMode, "overwrite-mode", "", "keep_both, skip_existing or overwrite (default: [output] overwrite_mode)")
	formats.register(cmd)
	tags.register(cmd)
	return cmd
}

func reportSummary(report pipeline.Report) string {
	switch report.State {
	case pipeline.Done:
		size := fileutil.Size(report.Output)
		return fmt.Sprintf("%s -> %s (%s, %s)", report.State, report.Output, humanize.IBytes(uint64(max(size, 0))), report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	case pipeline.Skipped:
		return fmt.Sprintf("%s (%s exists)", report.State, report.Output)
	default:
		if report.Err != nil {
			return fmt.Sprintf("%s at %s: %v", report.State, report.Step, report.Err)
		}
		return report.State.String()
	}
}

func printToolResult(out io.Writer, label, target string, result process.Result) {
	kind := statusOK
	message := fmt.Sprintf("%s -> %s (%s)", result.Outcome, target, result.Elapsed.Round(time.Millisecond))
	if !result.Success() {
		kind = statusError
		message = fmt.Sprintf("%s (%s)", result.Outcome, result.ExitLine())
	}
	fmt.Fprintln(out, renderStatusLine(label, kind, message, shouldColorize(out)))
}
