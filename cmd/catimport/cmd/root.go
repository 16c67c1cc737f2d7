package cmd

import (
	"fmt"

	"github.com/badno/catimport/internal/config"
	"github.com/badno/catimport/internal/logging"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string

	// appConfig is loaded once before any subcommand runs
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "catimport",
	Short: "Catalog import terminal",
	Long: color.New(color.FgCyan, color.Bold).Sprint(`
            _   _                            _
   ___ __ _| |_(_)_ __ ___  _ __   ___  _ __| |_
  / __/ _' | __| | '_ ' _ \| '_ \ / _ \| '__| __|
 | (_| (_| | |_| | | | | | | |_) | (_) | |  | |_
  \___\__,_|\__|_|_| |_| |_| .__/ \___/|_|   \__|
                           |_|
`) + `
Catalog import terminal - move a store catalog into the catalog API

Reads Shopify, WooCommerce or generic CSV exports, normalizes products,
variants and categories, and creates them through the catalog API.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.catimport/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(analyticsCmd)
}

// setup loads .env, the configuration and the logger
func setup(cmd *cobra.Command, args []string) error {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	var err error
	if configFile != "" {
		appConfig, err = config.LoadFrom(configFile)
	} else {
		appConfig, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := appConfig.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.Setup(level, appConfig.Logging.Format)
}
