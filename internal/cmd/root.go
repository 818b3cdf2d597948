// Package cmd wires the appforge CLI.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/appforge/internal/config"
	"github.com/felixgeelhaar/appforge/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "appforge",
	Short: "AI-assisted React application generator",
	Long: `appforge turns a structured build request into generated React and
TypeScript source files: state stores, data-fetching hooks, middleware,
routing, and the root component, produced through an AI text-generation
backend with streamed progress.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	logLevel   string
	logFormat  string
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command under a signal-aware context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFilename, "Path to the project file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (json, text)")
}

// setupLogging configures the default logger from flags, falling back to
// the project file's log section.
func setupLogging(settings config.LogSettings) {
	level := logLevel
	if level == "" {
		level = settings.Level
	}
	format := logFormat
	if format == "" {
		format = settings.Format
	}

	log.SetDefaultLogger(log.New(log.Config{
		Level:  log.ParseLevel(level),
		Format: log.ParseFormat(format),
		Output: os.Stderr,
	}))
}

// loadConfig reads the project file named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)
	return cfg, nil
}
