package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/draftrank/internal/config"
	"github.com/okian/draftrank/pkg/logger"
)

type rootOptions struct {
	configPath  string
	datasetPath string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "draftrank",
		Short:        "Comparative team ranking engine",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (overrides "+config.EnvConfigFile+")")
	root.PersistentFlags().StringVar(&opts.datasetPath, "dataset", "", "team dataset JSON file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(serveCmd(opts))
	root.AddCommand(compareCmd(opts))
	root.AddCommand(planCmd(opts))
	return root
}

// setup loads configuration, applies flag overrides and initialises logging.
func setup(ctx context.Context, opts *rootOptions) (*config.Config, error) {
	if opts.configPath != "" {
		if err := os.Setenv(config.EnvConfigFile, opts.configPath); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if opts.datasetPath != "" {
		cfg.DatasetPath = opts.datasetPath
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	// Logs go to stderr so command output on stdout stays machine readable.
	if err := logger.InitWithWriter(os.Stderr, cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}
