package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperengineering/receptradar"
	"github.com/hyperengineering/receptradar/internal/provider/azure"
)

var (
	cfgDBPath  string
	cfgDataDir string
	cfgDebug   bool
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "receptradar",
	Short: "Receptradar - pantry and recipe CLI",
	Long: `Receptradar keeps track of what is in your pantry and finds recipes for it.

Recipes come from an AI provider (Azure OpenAI) or from web pages you have
saved. Suggestions are ranked by how many of their ingredients you already
have.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if isTTY() {
			fmt.Fprintln(cmd.OutOrStdout(), renderBannerWithTagline())
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDBPath, "db", "", "Path to the SQLite database (default: <data-dir>/receptradar.db)")
	rootCmd.PersistentFlags().StringVar(&cfgDataDir, "data-dir", "", "Data directory for database, backups and images (default: ~/.receptradar)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&cfgDebug, "debug", false, "Log debug output to stderr")
}

// loadConfig builds the configuration: .env file, then environment, then flags.
func loadConfig() (receptradar.Config, error) {
	if err := receptradar.LoadDotEnv(); err != nil {
		return receptradar.Config{}, err
	}
	cfg, err := receptradar.ConfigFromEnv()
	if err != nil {
		return receptradar.Config{}, err
	}

	if cfgDataDir != "" {
		cfg.DataDir = cfgDataDir
		if cfgDBPath == "" {
			cfg.DBPath = ""
		}
	}
	if cfgDBPath != "" {
		cfg.DBPath = cfgDBPath
	}
	if cfgDebug {
		cfg.Debug = true
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return receptradar.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger for cfg.
func newLogger(cfg receptradar.Config) (*zap.Logger, func() error, error) {
	return receptradar.NewLogger(receptradar.LogOptions{Debug: cfg.Debug, Path: cfg.LogPath})
}

// openClient loads the configuration and opens a client with the Azure
// generator attached. The returned cleanup closes the client and the log.
func openClient() (*receptradar.Client, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	client, err := receptradar.New(cfg,
		receptradar.WithGenerator(azure.FromConfig(cfg, logger)),
		receptradar.WithClientLogger(logger),
	)
	if err != nil {
		_ = closeLog()
		return nil, nil, withResetHint(err)
	}

	cleanup := func() {
		_ = client.Close()
		_ = closeLog()
	}
	return client, cleanup, nil
}
