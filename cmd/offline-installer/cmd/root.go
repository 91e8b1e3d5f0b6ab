package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccdc-opensource/conda-offline-installer/internal/logger"
	"github.com/ccdc-opensource/conda-offline-installer/internal/service/bundler"
	"github.com/ccdc-opensource/conda-offline-installer/internal/version"
)

var (
	// configPath to the bundle spec YAML file. Empty builds the standard bundle.
	configPath string

	// logLevel controls console log verbosity.
	logLevel string

	// rootCmd represents the base command for building the offline installer bundle.
	rootCmd = &cobra.Command{
		Use:   "offline-installer",
		Short: "Build a self-contained offline conda installer bundle",
		Long: "Download a conda distribution installer, fetch the configured package set " +
			"and its dependency closure, and assemble an offline channel with an install " +
			"script that reproduces the environment without network access.",
		Args: cobra.NoArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &bundler.Options{
				ConfigPath: configPath,
			}

			return bundler.Run(ctx, options)
		},
	}
)

// Execute runs the offline-installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to bundle spec file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
}
