package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tonearm/internal/codec"
	"tonearm/internal/config"
	"tonearm/internal/history"
	"tonearm/internal/logging"
	"tonearm/internal/process"
	"tonearm/internal/tools"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

// ensureLogger writes to the log directory, and to stderr only in verbose
// mode so log records do not tear the progress display.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		if c.verbose() {
			c.logger, c.loggerErr = logging.NewFromConfig(cfg)
			return
		}
		if cfg.Paths.LogDir == "" {
			c.logger = logging.NewNop()
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
		})
	})
	return c.logger, c.loggerErr
}

// toolset is the per-command view of the registered codec tools.
type toolset struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *tools.Registry
	resolver tools.Resolver
	runner   *process.Runner
	missing  []string
}

// withTools registers every known codec tool for the duration of fn and
// releases the registry afterwards.
func (c *commandContext) withTools(fn func(*toolset) error) error {
	return c.loadTools(context.Background(), nil, fn)
}

// withVersionedTools is withTools with each tool's version queried first.
func (c *commandContext) withVersionedTools(ctx context.Context, fn func(*toolset) error) error {
	return c.loadTools(ctx, tools.QueryVersion, fn)
}

func (c *commandContext) loadTools(ctx context.Context, query tools.VersionQuery, fn func(*toolset) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	registry := tools.NewRegistry()
	defer registry.Close()

	missing, err := tools.RegisterKnown(ctx, registry, tools.NewResolver(cfg, nil), query)
	if err != nil {
		return fmt.Errorf("register codec tools: %w", err)
	}
	if len(missing) > 0 {
		logger.Debug("codec tools not found",
			logging.String("missing", strings.Join(missing, ", ")),
			logging.String(logging.FieldEventType, "tools_missing"),
		)
	}

	return fn(&toolset{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		resolver: tools.NewResolver(cfg, registry),
		runner:   process.NewRunner(cfg, logger),
		missing:  missing,
	})
}

func (t *toolset) decoders() []codec.Decoder {
	decoders, _ := codec.NewDecoders(t.resolver, t.runner)
	return decoders
}

func (t *toolset) encoder(name string) (codec.Encoder, error) {
	return codec.NewEncoder(name, t.cfg, t.resolver, t.runner)
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
