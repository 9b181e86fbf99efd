package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/app"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/config"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/logging"
)

// cli holds the state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string
	preset     string

	cfg      config.Config
	logger   *slog.Logger
	app      *app.Application
	closeLog func() error
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "observator",
		Short:         "Electoral ad transparency monitor",
		Long:          `Scrapes political ads from the Meta Ad Library, classifies them and drafts complaints and reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Path to YAML config (default $OBSERVATOR_CONFIG)")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&c.preset, "preset", "", "Election preset: parliamentary or presidential")

	root.AddCommand(
		scrapeCommand(c),
		mergeCSVCommand(c),
		classifyCommand(c),
		complaintCommand(c),
		reportCommand(c),
		gradeCommand(c),
		runCommand(c),
		watchCommand(c),
	)

	return root
}

func (c *cli) setup() error {
	cfg := config.Load(c.configPath)
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	cfg.UsePreset(c.preset)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, closeLog, err := logging.Open(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.closeLog = closeLog
	c.logger = logger.With("run_id", uuid.New().String()[:8])
	c.app = app.New(cfg, c.logger)
	return nil
}

// execute runs the command line and always releases the store and the log
// file, including when the command failed.
func execute(ctx context.Context, c *cli, args []string) error {
	root := newRootCommand(c)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if terr := c.teardown(); err == nil {
		err = terr
	}
	return err
}

func (c *cli) teardown() error {
	var err error
	if c.app != nil {
		err = c.app.Close()
		c.app = nil
	}
	if c.closeLog != nil {
		if cerr := c.closeLog(); err == nil {
			err = cerr
		}
		c.closeLog = nil
	}
	return err
}
