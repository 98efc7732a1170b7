package codec_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonearm/internal/codec"
	"tonearm/internal/config"
	"tonearm/internal/process"
	"tonearm/internal/services"
	"tonearm/internal/testsupport"
	"tonearm/internal/tools"
)

func fakeResolver(names ...string) tools.Resolver {
	paths := tools.Overrides{}
	for _, name := range names {
		paths[name] = "/opt/tools/" + name
	}
	return paths
}

func TestConstructorsRequireRegisteredTools(t *testing.T) {
	empty := tools.Overrides{}

	_, err := codec.NewALACDecoder(empty, nil)
	assert.True(t, errors.Is(err, services.ErrConfiguration), "got %v", err)
	_, err = codec.NewWavPackDecoder(empty, nil)
	assert.True(t, errors.Is(err, services.ErrConfiguration), "got %v", err)
	_, err = codec.NewFDKAACEncoder(empty, nil)
	assert.True(t, errors.Is(err, services.ErrConfiguration), "got %v", err)
	_, err = codec.NewOpusEncoder(nil, nil)
	assert.True(t, errors.Is(err, services.ErrConfiguration), "got %v", err)
}

func TestCapabilityMatrix(t *testing.T) {
	resolver := fakeResolver(tools.RefALAC, tools.WVUnpack, tools.FDKAAC, tools.OpusEnc)
	alac, err := codec.NewALACDecoder(resolver, nil)
	require.NoError(t, err)
	wv, err := codec.NewWavPackDecoder(resolver, nil)
	require.NoError(t, err)
	fdk, err := codec.NewFDKAACEncoder(resolver, nil)
	require.NoError(t, err)
	opus, err := codec.NewOpusEncoder(resolver, nil)
	require.NoError(t, err)

	formats := map[string]codec.FormatInfo{
		"alac":      {ContainerType: "MPEG-4", FormatType: "ALAC"},
		"alac-case": {ContainerType: "mpeg-4", FormatType: "alac"},
		"aac":       {ContainerType: "MPEG-4", FormatType: "AAC"},
		"wavpack":   {ContainerType: "WavPack", FormatType: "WavPack"},
		"pcm":       {ContainerType: "Wave", FormatType: "PCM"},
		"pcm-case":  {ContainerType: "WAVE", FormatType: "pcm", FormatProfile: "Little"},
		"empty":     {},
	}
	want := map[string]map[string]bool{
		"alac":    {"alac": true, "alac-case": true},
		"wavpack": {"wavpack": true},
		"fdkaac":  {"pcm": true, "pcm-case": true},
		"opus":    {"pcm": true, "pcm-case": true},
	}
	check := func(name string, supported func(codec.FormatInfo) bool) {
		for key, info := range formats {
			assert.Equal(t, want[name][key], supported(info), "%s accepts %s", name, key)
		}
	}
	check("alac", alac.IsFormatSupported)
	check("wavpack", wv.IsFormatSupported)
	check("fdkaac", fdk.IsFormatSupported)
	check("opus", opus.IsFormatSupported)

	assert.Equal(t, []codec.SupportedType{{Name: "Apple Lossless", Extensions: []string{"mp4", "m4a"}}}, alac.SupportedTypes())
	assert.Equal(t, []codec.SupportedType{{Name: "WavPack Hybrid Lossless Audio", Extensions: []string{"wv"}}}, wv.SupportedTypes())
}

func TestDecoderArgs(t *testing.T) {
	resolver := fakeResolver(tools.RefALAC, tools.WVUnpack)
	alac, err := codec.NewALACDecoder(resolver, nil)
	require.NoError(t, err)
	wv, err := codec.NewWavPackDecoder(resolver, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"--decode", "-o", "/tmp/out.wav", "/music/in.m4a"}, alac.Args("/music/in.m4a", "/tmp/out.wav"))
	assert.Equal(t, []string{"-y", "-w", "/music/in.wv", "/tmp/out.wav"}, wv.Args("/music/in.wv", "/tmp/out.wav"))
	assert.Equal(t, "/opt/tools/refalac", alac.Binary())
}

func TestFDKAACArgs(t *testing.T) {
	enc, err := codec.NewFDKAACEncoder(fakeResolver(tools.FDKAAC), nil)
	require.NoError(t, err)

	require.NoError(t, enc.SetProfile(2))
	enc.SetRCMode(codec.CBR)
	enc.SetBitrate(33)
	enc.SetCustomParams("  --afterburner 1   -G 2 ")

	args, err := enc.Args(codec.EncodeJob{
		Source: "/tmp/in.wav",
		Output: "/out/song.mp4",
		Meta: codec.MetaInfo{
			Title:    `Say "Hi"`,
			Artist:   "AC\\DC",
			Album:    "",
			Comment:  "line one\nline two",
			Year:     1999,
			Position: 0,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"-p", "5",
		"-b", "288",
		"--afterburner", "1", "-G", "2",
		"--title", "Say 'Hi'",
		"--artist", "AC/DC",
		"--comment", "line one line two",
		"--date", "1999",
		"-o", "/out/song.mp4",
		"/tmp/in.wav",
	}, args)
}

func TestFDKAACVBRAndDefaultProfile(t *testing.T) {
	enc, err := codec.NewFDKAACEncoder(fakeResolver(tools.FDKAAC), nil)
	require.NoError(t, err)
	enc.SetBitrate(9)

	args, err := enc.Args(codec.EncodeJob{Source: "in.wav", Output: "out.mp4", Meta: codec.MetaInfo{Position: 4, Genre: "Jazz"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"-m", "5", "--genre", "Jazz", "--track", "4", "-o", "out.mp4", "in.wav"}, args)
}

func TestFDKAACRejectsABR(t *testing.T) {
	enc, err := codec.NewFDKAACEncoder(fakeResolver(tools.FDKAAC), nil)
	require.NoError(t, err)
	enc.SetRCMode(codec.ABR)

	_, err = enc.Encode(context.Background(), codec.EncodeJob{Source: "in.wav", Output: "out.mp4"})
	assert.True(t, errors.Is(err, services.ErrConfiguration), "got %v", err)

	assert.Error(t, enc.SetProfile(4))
}

func TestOpusArgs(t *testing.T) {
	enc, err := codec.NewOpusEncoder(fakeResolver(tools.OpusEnc), nil)
	require.NoError(t, err)
	require.NoError(t, enc.ApplyConfig(config.Opus{
		RCMode:       "abr",
		BitrateIndex: 15,
		Complexity:   8,
		FrameSize:    5,
		OptimizeFor:  "music",
		CustomParams: "--downmix-stereo",
	}))

	args, err := enc.Args(codec.EncodeJob{
		Source: "in.wav",
		Output: "out.opus",
		Meta:   codec.MetaInfo{Title: "Song", Comment: "live", Year: 2001, Position: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--cvbr", "--bitrate", "128",
		"--comp", "8",
		"--framesize", "60",
		"--music",
		"--downmix-stereo",
		"--title", "Song",
		"--comment", "comment=live",
		"--date", "2001",
		"--tracknumber", "7",
		"in.wav", "out.opus",
	}, args)

	assert.Error(t, enc.SetComplexity(11))
	assert.Error(t, enc.SetFrameSize(6))
	assert.True(t, enc.Info().NeedsTimingInfo)
}

func TestNewEncoderByName(t *testing.T) {
	cfg := config.Default()
	resolver := fakeResolver(tools.FDKAAC, tools.OpusEnc)

	enc, err := codec.NewEncoder("AAC", &cfg, resolver, nil)
	require.NoError(t, err)
	assert.Equal(t, "fdkaac", enc.Name())
	assert.Equal(t, "mp4", enc.Info().Extension)

	enc, err = codec.NewEncoder("opus", &cfg, resolver, nil)
	require.NoError(t, err)
	assert.Equal(t, "opus", enc.Name())

	_, err = codec.NewEncoder("mp3", &cfg, resolver, nil)
	assert.True(t, errors.Is(err, services.ErrConfiguration))
}

func TestFormatForExtension(t *testing.T) {
	decoders, errs := codec.NewDecoders(fakeResolver(tools.RefALAC, tools.WVUnpack), nil)
	require.Empty(t, errs)
	require.Len(t, decoders, 2)

	info, ok := codec.FormatForExtension(decoders, ".M4A")
	require.True(t, ok)
	assert.Equal(t, "ALAC", info.FormatType)

	d, ok := codec.FindDecoder(decoders, info)
	require.True(t, ok)
	assert.Equal(t, "alac", d.Name())

	info, ok = codec.FormatForExtension(decoders, "wav")
	require.True(t, ok)
	assert.Equal(t, codec.WaveFormat, info)

	_, ok = codec.FormatForExtension(decoders, "flac")
	assert.False(t, ok)
}

func newRunner() *process.Runner {
	return &process.Runner{Timeout: 5 * time.Second, PollInterval: 20 * time.Millisecond, DrainGrace: 500 * time.Millisecond}
}

func TestALACDecodeEndToEnd(t *testing.T) {
	testsupport.RequirePOSIXShell(t)
	dir := t.TempDir()
	// Mimics refalac: progress on stderr with carriage returns, then writes -o.
	script := `out="$3"
printf '[0.4%%]\r[12.5%%]\r[50.0%%]\r[99.9%%]\r' >&2
printf 'RIFFdata' > "$out"
echo "done"`
	tool := testsupport.WriteTool(t, dir, "refalac", script)

	dec, err := codec.NewALACDecoder(tools.Overrides{"refalac": tool}, newRunner())
	require.NoError(t, err)

	var sink process.RecorderSink
	output := filepath.Join(dir, "out.wav")
	res, err := dec.Decode(context.Background(), codec.DecodeJob{Source: filepath.Join(dir, "in.m4a"), Output: output, Sink: &sink})
	require.NoError(t, err)

	assert.Equal(t, process.Success, res.Outcome)
	assert.Equal(t, []int{0, 13, 50, 100, 100}, sink.Progress())
	assert.Equal(t, []string{"done", "Exited with code: 0x0000"}, sink.Messages())
}

func TestDecodeResolvesRelativePaths(t *testing.T) {
	testsupport.RequirePOSIXShell(t)
	work := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(work, "sub"), 0o755))
	testsupport.WriteFile(t, filepath.Join(work, "in.m4a"), 64)
	// Fails unless both paths are usable from the tool's working directory.
	script := `[ -f "$4" ] || { echo "missing source $4"; exit 2; }
printf 'RIFFdata' > "$3" || exit 3
echo "wrote $3"`
	tool := testsupport.WriteTool(t, filepath.Join(work, "bin"), "refalac", script)
	t.Chdir(work)

	dec, err := codec.NewALACDecoder(tools.Overrides{"refalac": tool}, newRunner())
	require.NoError(t, err)

	var sink process.RecorderSink
	res, err := dec.Decode(context.Background(), codec.DecodeJob{Source: "in.m4a", Output: filepath.Join("sub", "out.wav"), Sink: &sink})
	require.NoError(t, err)

	assert.Equal(t, process.Success, res.Outcome, "messages: %v", sink.Messages())
	assert.FileExists(t, filepath.Join(work, "sub", "out.wav"))
	assert.NoFileExists(t, filepath.Join(work, "sub", "sub", "out.wav"))
	require.Len(t, res.Args, 4)
	assert.True(t, filepath.IsAbs(res.Args[2]), "output arg %q", res.Args[2])
	assert.True(t, filepath.IsAbs(res.Args[3]), "source arg %q", res.Args[3])
}

func TestWavPackDecodeEmptyOutput(t *testing.T) {
	testsupport.RequirePOSIXShell(t)
	dir := t.TempDir()
	script := `echo " 25% done..."
echo "100% done"
: > "$4"`
	tool := testsupport.WriteTool(t, dir, "wvunpack", script)

	dec, err := codec.NewWavPackDecoder(tools.Overrides{"wvunpack": tool}, newRunner())
	require.NoError(t, err)

	var sink process.RecorderSink
	res, err := dec.Decode(context.Background(), codec.DecodeJob{Source: "in.wv", Output: filepath.Join(dir, "out.wav"), Sink: &sink})
	require.NoError(t, err)

	assert.Equal(t, process.EmptyOutput, res.Outcome)
	assert.Equal(t, []int{25, 100, 100}, sink.Progress())
	_, statErr := os.Stat(filepath.Join(dir, "out.wav"))
	assert.NoError(t, statErr)
}

func TestDecodeRejectsEmptyPaths(t *testing.T) {
	dec, err := codec.NewALACDecoder(fakeResolver(tools.RefALAC), nil)
	require.NoError(t, err)
	_, err = dec.Decode(context.Background(), codec.DecodeJob{Source: "in.m4a"})
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestOpusEncodeReportsElapsedProgress(t *testing.T) {
	testsupport.RequirePOSIXShell(t)
	dir := t.TempDir()
	script := `echo "Encoding using libopus"
printf '[|] 00:00:10.00 20.0x realtime, 128kbit/s\r' >&2
printf '[/] 00:00:30.00 20.0x realtime, 128kbit/s\r' >&2
echo "Encoding complete"`
	tool := testsupport.WriteTool(t, dir, "opusenc", script)

	enc, err := codec.NewOpusEncoder(tools.Overrides{"opusenc": tool}, newRunner())
	require.NoError(t, err)

	var sink process.RecorderSink
	res, err := enc.Encode(context.Background(), codec.EncodeJob{
		Source: "in.wav",
		Output: filepath.Join(dir, "out.opus"),
		Meta:   codec.MetaInfo{Duration: 40 * time.Second},
		Sink:   &sink,
	})
	require.NoError(t, err)
	assert.Equal(t, process.Success, res.Outcome)
	assert.Equal(t, []int{25, 75, 100}, sink.Progress())
	assert.Equal(t, []string{"Encoding using libopus", "Encoding complete", "Exited with code: 0x0000"}, sink.Messages())
}

func TestWaveEncoderCopiesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.wav")
	testsupport.WriteFile(t, src, 1024)
	out := filepath.Join(dir, "out.wav")

	enc, err := codec.NewEncoder("wav", nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, enc.IsFormatSupported(codec.WaveFormat))
	assert.False(t, enc.IsFormatSupported(codec.FormatInfo{ContainerType: "MPEG-4", FormatType: "ALAC"}))
	assert.Equal(t, "wav", enc.Info().Extension)
	assert.Empty(t, enc.Info().Modes())

	var sink process.RecorderSink
	res, err := enc.Encode(context.Background(), codec.EncodeJob{Source: src, Output: out, Sink: &sink})
	require.NoError(t, err)
	assert.Equal(t, process.Success, res.Outcome)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, data, 1024)
	progress := sink.Progress()
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
	assert.Equal(t, []string{"Exited with code: 0x0000"}, sink.Messages())
}

func TestWaveEncoderHonorsAbort(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.wav")
	testsupport.WriteFile(t, src, 1024)
	out := filepath.Join(dir, "out.wav")

	var abort process.AbortFlag
	abort.Set()
	var sink process.RecorderSink
	res, err := codec.NewWaveEncoder().Encode(context.Background(), codec.EncodeJob{Source: src, Output: out, Abort: &abort, Sink: &sink})
	require.NoError(t, err)
	assert.Equal(t, process.Aborted, res.Outcome)
	assert.Equal(t, []string{process.AbortedMessage, "Exited with code: 0xFFFFFFFF"}, sink.Messages())
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
