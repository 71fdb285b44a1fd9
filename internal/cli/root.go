// Package cli implements the attention-guard command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-attention/internal/config"
	"github.com/teslashibe/go-attention/internal/log"
)

var (
	// cfgFile is the --config path; empty searches config.DefaultFiles
	cfgFile  string
	logLevel string

	// cfg is loaded once before any subcommand runs
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "attention-guard",
		Short: "Real-time drowsiness and distraction monitor",
		Long: `Classifies attention (attentive, distracted, drowsy) from face mesh
landmarks, raises a drowsiness alarm and writes a per-session time report.

Landmarks come from an external detector over /ws/detector ('serve') or
from a recorded JSONL file ('replay').`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./attention.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	log.Init(c.LogLevel)
	if c.Source != "" {
		log.Debug("config loaded", "file", c.Source)
	}
	cfg = c
	return nil
}
