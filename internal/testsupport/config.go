package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"tonearm/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It shortens runner timings so supervision tests finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.AppDir = filepath.Join(base, "app")
	cfgVal.Paths.TempDir = filepath.Join(base, "tmp")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	cfgVal.Runner.PollIntervalMS = 20
	cfgVal.Runner.DrainGraceMS = 500

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{cfgVal.Paths.AppDir, cfgVal.Paths.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return builder.cfg
}

// WithTimeoutSeconds overrides the runner read timeout.
func WithTimeoutSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Runner.TimeoutSeconds = seconds
	}
}

// WithOutputDir sends converted files to a directory under the test root.
func WithOutputDir(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.OutputDir = filepath.Join(b.baseDir, name)
	}
}

// WithFakeTool writes a shell script named name into the test tools
// directory and registers it in Tools.Binaries.
func WithFakeTool(name, body string) ConfigOption {
	return func(b *configBuilder) {
		path := WriteTool(b.t, filepath.Join(b.baseDir, "bin"), name, body)
		if b.cfg.Tools.Binaries == nil {
			b.cfg.Tools.Binaries = map[string]string{}
		}
		b.cfg.Tools.Binaries[name] = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.TempDir)
}
