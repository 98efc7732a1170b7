package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRunner(); err != nil {
		return err
	}
	if err := c.validateAAC(); err != nil {
		return err
	}
	if err := c.validateOpus(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRunner() error {
	if c.Runner.TimeoutSeconds <= 0 {
		return errors.New("runner.timeout_seconds must be positive")
	}
	if c.Runner.PollIntervalMS <= 0 {
		return errors.New("runner.poll_interval_ms must be positive")
	}
	if c.Runner.PollIntervalMS >= c.Runner.TimeoutSeconds*1000 {
		return errors.New("runner.poll_interval_ms must be shorter than runner.timeout_seconds")
	}
	return nil
}

func (c *Config) validateAAC() error {
	if c.AAC.Profile < 0 || c.AAC.Profile > 3 {
		return errors.New("aac.profile must be between 0 and 3")
	}
	switch c.AAC.RCMode {
	case "vbr", "cbr":
	default:
		return fmt.Errorf("aac.rc_mode: unsupported value %q (expected vbr or cbr)", c.AAC.RCMode)
	}
	if c.AAC.BitrateIndex < 0 {
		return errors.New("aac.bitrate_index must be >= 0")
	}
	return nil
}

func (c *Config) validateOpus() error {
	switch c.Opus.RCMode {
	case "vbr", "abr", "cbr":
	default:
		return fmt.Errorf("opus.rc_mode: unsupported value %q (expected vbr, abr or cbr)", c.Opus.RCMode)
	}
	if c.Opus.BitrateIndex < 0 {
		return errors.New("opus.bitrate_index must be >= 0")
	}
	if c.Opus.Complexity < 0 || c.Opus.Complexity > 10 {
		return errors.New("opus.complexity must be between 0 and 10")
	}
	if c.Opus.FrameSize < 0 || c.Opus.FrameSize > 5 {
		return errors.New("opus.frame_size must be between 0 and 5")
	}
	switch c.Opus.OptimizeFor {
	case "auto", "music", "speech":
	default:
		return fmt.Errorf("opus.optimize_for: unsupported value %q", c.Opus.OptimizeFor)
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.OverwriteMode {
	case "keep_both", "skip_existing", "overwrite":
	default:
		return fmt.Errorf("output.overwrite_mode: unsupported value %q", c.Output.OverwriteMode)
	}
	if c.Output.RenameSearch != "" {
		if _, err := regexp.Compile(c.Output.RenameSearch); err != nil {
			return fmt.Errorf("output.rename_search: %w", err)
		}
	}
	return nil
}
