// Package cli defines the command-line interface for previewctl.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/qiskit/previewctl/internal/logging"
)

const (
	// defaultConfigPath is the repository-relative tutorial manifest.
	defaultConfigPath = "tutorials/learning-api.conf.yaml"
	// defaultAccessibleInstance is the instance allowed to view previews.
	defaultAccessibleInstance = "client-enablement/documentation/qiskit-documenta"
	// defaultMessagePath is where the PR comment body is written.
	defaultMessagePath = "pr_message.md"
)

// Options stores global CLI options shared between commands.
type Options struct {
	EnvFiles []string
	DryRun   bool
	LogLevel logging.Level
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	rootOpts := &Options{LogLevel: logging.LevelInfo}

	rootCmd := newRootCommand(rootOpts, logger)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "previewctl",
		Short: "previewctl publishes PR previews of tutorials to the learning platform",
		Long: "previewctl reads the tutorial manifest, publishes preview records of the tutorials a pull request " +
			"touches to the learning API, and removes them again once the pull request is closed.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			base := baseEnv{}
			if err := parseEnv(&base); err != nil {
				return err
			}
			levelValue := cmd.Flag("log-level").Value.String()
			if !cmd.Flags().Changed("log-level") && envPresent("PREVIEWCTL_LOG_LEVEL") {
				levelValue = base.LogLevel
			}
			if !cmd.Flags().Changed("env-file") && len(base.EnvFiles) > 0 {
				opts.EnvFiles = base.EnvFiles
			}

			level := logging.ParseLevel(levelValue)
			opts.LogLevel = level
			logger = logging.NewLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringArrayVar(&opts.EnvFiles, "env-file", nil, "Load learning API settings from a .env file (repeatable)")
	cmd.PersistentFlags().BoolVar(&opts.DryRun, "dry-run", false, "Use an in-memory catalog instead of the learning API")

	cmd.AddCommand(
		newSetupCommand(opts),
		newTeardownCommand(opts),
	)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
