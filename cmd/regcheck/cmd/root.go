package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"regcheck/internal/app"
	"regcheck/internal/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "regcheck",
	Short:         "regcheck — regulatory record resolution for company names",
	Long:          "Resolves free-text company names against SEIA and SNIFA, scores and ingests the candidates, and maps terms to normative categories.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(normsCmd)
}

// newApp builds the wired application from the configured flags.
func newApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := zap.NewNop()
	if verbose {
		if log, err = zap.NewDevelopment(); err != nil {
			return nil, err
		}
	}

	return app.New(ctx, cfg, log)
}
