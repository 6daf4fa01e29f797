package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"dialer-insights-go/internal/config"
	"dialer-insights-go/internal/logger"
)

var version = "dev"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "dialer-insights",
	Short:   "Per-ANI outcome analysis of dialer exports",
	Long:    "Reads dialer exports (CSV, TXT, XLSX), classifies every dialed number and reports outcome distributions, retry curves and cleanup actions.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c
		logger.Configure(cfg.LoggerOptions())
		return nil
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
