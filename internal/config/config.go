package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// AppDir is prepended to the tool search path; support files that ship
	// next to the codec tools live here.
	AppDir        string `toml:"app_dir"`
	SupportSubdir string `toml:"support_subdir"`
	TempDir       string `toml:"temp_dir"`
	LogDir        string `toml:"log_dir"`
	OutputDir     string `toml:"output_dir"`
}

// Tools contains codec tool resolution settings.
type Tools struct {
	SearchDirs []string          `toml:"search_dirs"`
	Binaries   map[string]string `toml:"binaries"`
}

// Runner contains process supervision tuning.
type Runner struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	PollIntervalMS int `toml:"poll_interval_ms"`
	DrainGraceMS   int `toml:"drain_grace_ms"`
}

// AAC contains fdkaac encoder settings.
type AAC struct {
	Profile      int    `toml:"profile"`
	RCMode       string `toml:"rc_mode"`
	BitrateIndex int    `toml:"bitrate_index"`
	CustomParams string `toml:"custom_params"`
}

// Opus contains opusenc encoder settings.
type Opus struct {
	RCMode       string `toml:"rc_mode"`
	BitrateIndex int    `toml:"bitrate_index"`
	Complexity   int    `toml:"complexity"`
	FrameSize    int    `toml:"frame_size"`
	OptimizeFor  string `toml:"optimize_for"`
	CustomParams string `toml:"custom_params"`
}

// Output contains output file naming rules.
type Output struct {
	RenamePattern string `toml:"rename_pattern"`
	RenameSearch  string `toml:"rename_search"`
	RenameReplace string `toml:"rename_replace"`
	FileExtension string `toml:"file_extension"`
	OverwriteMode string `toml:"overwrite_mode"`
}

// History contains job history persistence settings.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tonearm.
//
// Configuration sections by subsystem:
//   - Paths: application, support, temp, log and output directories
//   - Tools: codec binary overrides and search directories
//   - Runner: subprocess read timeout and polling cadence
//   - AAC / Opus: encoder defaults
//   - Output: rename pattern and overwrite policy
//   - History: sqlite job history
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Tools   Tools   `toml:"tools"`
	Runner  Runner  `toml:"runner"`
	AAC     AAC     `toml:"aac"`
	Opus    Opus    `toml:"opus"`
	Output  Output  `toml:"output"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tonearm/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tonearm.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories tonearm writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.TempDir, c.Paths.LogDir, c.Paths.OutputDir}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SupportDir returns the directory holding files that codec tools load at runtime.
func (c *Config) SupportDir() string {
	if c.Paths.SupportSubdir == "" {
		return c.Paths.AppDir
	}
	return filepath.Join(c.Paths.AppDir, c.Paths.SupportSubdir)
}

// SearchPath returns the directories prepended to PATH for every tool launch.
func (c *Config) SearchPath() []string {
	return []string{c.Paths.AppDir, c.SupportDir(), c.Paths.TempDir}
}

// ProcessTimeout returns the read timeout applied to tool output.
func (c *Config) ProcessTimeout() time.Duration {
	return time.Duration(c.Runner.TimeoutSeconds) * time.Second
}

// PollInterval returns how often the runner checks the abort flag.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Runner.PollIntervalMS) * time.Millisecond
}

// DrainGrace returns how long the runner keeps reading after the tool exited.
func (c *Config) DrainGrace() time.Duration {
	return time.Duration(c.Runner.DrainGraceMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultAppDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func defaultTempDir() string {
	return filepath.Join(os.TempDir(), "tonearm")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
