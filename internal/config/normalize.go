package config

import (
	"fmt"
	"os"
	"strings"

	"tonearm/internal/textutil"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeRunner()
	c.normalizeEncoders()
	c.normalizeOutput()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.AppDir) == "" {
		c.Paths.AppDir = defaultAppDir()
	}
	if c.Paths.AppDir, err = expandPath(c.Paths.AppDir); err != nil {
		return fmt.Errorf("paths.app_dir: %w", err)
	}
	c.Paths.SupportSubdir = strings.TrimSpace(c.Paths.SupportSubdir)
	if value, ok := os.LookupEnv("TONEARM_TEMP_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.TempDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir()
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() error {
	dirs := make([]string, 0, len(c.Tools.SearchDirs)+1)
	if value, ok := os.LookupEnv("TONEARM_TOOLS_DIR"); ok && strings.TrimSpace(value) != "" {
		dirs = append(dirs, strings.TrimSpace(value))
	}
	dirs = append(dirs, c.Tools.SearchDirs...)

	seen := make(map[string]struct{}, len(dirs))
	expanded := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		abs, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("tools.search_dirs: %w", err)
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		expanded = append(expanded, abs)
	}
	c.Tools.SearchDirs = expanded

	binaries := make(map[string]string, len(c.Tools.Binaries))
	for name, path := range c.Tools.Binaries {
		key := strings.ToLower(textutil.Simplify(name))
		path = strings.TrimSpace(path)
		if key == "" || path == "" {
			continue
		}
		abs, err := expandPath(path)
		if err != nil {
			return fmt.Errorf("tools.binaries.%s: %w", name, err)
		}
		binaries[key] = abs
	}
	c.Tools.Binaries = binaries
	return nil
}

func (c *Config) normalizeRunner() {
	if c.Runner.TimeoutSeconds <= 0 {
		c.Runner.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Runner.PollIntervalMS <= 0 {
		c.Runner.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Runner.DrainGraceMS < 0 {
		c.Runner.DrainGraceMS = defaultDrainGraceMS
	}
}

func (c *Config) normalizeEncoders() {
	c.AAC.RCMode = strings.ToLower(strings.TrimSpace(c.AAC.RCMode))
	if c.AAC.RCMode == "" {
		c.AAC.RCMode = defaultAACRCMode
	}
	c.AAC.CustomParams = strings.TrimSpace(c.AAC.CustomParams)

	c.Opus.RCMode = strings.ToLower(strings.TrimSpace(c.Opus.RCMode))
	if c.Opus.RCMode == "" {
		c.Opus.RCMode = defaultOpusRCMode
	}
	c.Opus.OptimizeFor = strings.ToLower(strings.TrimSpace(c.Opus.OptimizeFor))
	if c.Opus.OptimizeFor == "" {
		c.Opus.OptimizeFor = defaultOpusOptimizeFor
	}
	c.Opus.CustomParams = strings.TrimSpace(c.Opus.CustomParams)
}

func (c *Config) normalizeOutput() {
	c.Output.RenamePattern = textutil.Simplify(c.Output.RenamePattern)
	if c.Output.RenamePattern == "" {
		c.Output.RenamePattern = defaultRenamePattern
	}
	c.Output.RenameSearch = strings.TrimSpace(c.Output.RenameSearch)
	c.Output.RenameReplace = textutil.Simplify(c.Output.RenameReplace)
	ext := textutil.SanitizeFileName(c.Output.FileExtension)
	c.Output.FileExtension = strings.TrimSpace(strings.TrimLeft(ext, ". "))
	c.Output.OverwriteMode = strings.ToLower(strings.TrimSpace(c.Output.OverwriteMode))
	if c.Output.OverwriteMode == "" {
		c.Output.OverwriteMode = defaultOverwriteMode
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
