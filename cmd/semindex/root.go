package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/config"
	logpkg "github.com/kailas-cloud/semindex/internal/logger"
)

const rootLongDesc string = `semindex embeds documents and serves semantic search over them.

Commands:
  semindex serve                  Run the HTTP API
  semindex reindex <collection>   Embed documents that have no vector yet
  semindex version                Print build information`

const rootShortDesc string = "Semantic embedding and retrieval service"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	env        string
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "semindex",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVarP(&flags.env, "env", "e", config.GetEnv(), "Environment: local, dev, docker, prod")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (default: config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override logging.level")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newReindexCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// load reads the configuration and builds the logger.
func (f *globalFlags) load() (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.Load(f.env)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if f.logLevel != "" {
		level = f.logLevel
	}
	logger, err := logpkg.New(f.env, level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
