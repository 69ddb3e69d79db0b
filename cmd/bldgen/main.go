// bldgen generates building models for map tiles from footprint data.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/buildings/internal/config"
	"github.com/Faultbox/buildings/internal/logger"
)

func main() {
	os.Exit(execute(newRootCmd(), os.Stderr))
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "bldgen",
		Short:         "Procedural building generator for tiled maps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(flags)
		if err != nil {
			return err
		}
		if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
			return err
		}
		logger.Sugar.Debugf("Config: %+v", cfg)
		return nil
	}

	current := func() *config.Config { return cfg }
	rootCmd.AddCommand(tileCmd(current))
	rootCmd.AddCommand(lodsCmd(current))
	rootCmd.AddCommand(coverCmd(current))
	rootCmd.AddCommand(configCmd(current))
	return rootCmd
}

// execute runs the command and returns the process exit code. The failure
// is logged before the final flush.
func execute(rootCmd *cobra.Command, stderr io.Writer) int {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		logger.Sync()
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger.Sync()
	return 0
}
