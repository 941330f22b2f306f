// Package cmd holds the dharmaverse command line.
package cmd

import (
	"fmt"
	"os"

	"dharmaverse/config"
	"dharmaverse/handlers"
	"dharmaverse/logger"
	"dharmaverse/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type rootOptions struct {
	configPath string
}

// initLogging is replaced in tests.
var initLogging = func(cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	return logger.Initialize(logger.Config{
		Level:      level,
		LogDir:     cfg.Log.Dir,
		MaxSize:    cfg.Log.MaxSize,
		MaxAge:     cfg.Log.MaxAge,
		UseColor:   cfg.Log.Color,
		ShowCaller: cfg.Log.ShowCaller,
	})
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "dharmaverse",
		Short:         "DharmaVerse spiritual media platform backend",
		Version:       handlers.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addConfigFlag(cmd.PersistentFlags(), opts)

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	return cmd
}

func addConfigFlag(fs *pflag.FlagSet, opts *rootOptions) {
	fs.StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the YAML config file (optional)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// load reads configuration and applies the process-wide settings derived from it.
func (o *rootOptions) load(withLogging bool) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	if withLogging {
		if err := initLogging(cfg); err != nil {
			return nil, fmt.Errorf("initialize logger: %w", err)
		}
	}

	if err := utils.SetLocation(cfg.Server.Timezone); err != nil {
		return nil, err
	}
	return cfg, nil
}
