// Package cli provides the helpdesk command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	verbose   bool
	configDir string
	envFile   string
)

var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "IT helpdesk assistant over your knowledge base",
	Long: `helpdesk answers IT support questions from an ingested knowledge base.

It classifies each question, answers generic IT questions directly, grounds
knowledge-base questions in retrieved documentation, and escalates to a human
when confidence is low.

Configuration lives in ~/.helpdesk/config.toml and may be overridden with
HELPDESK_* environment variables or a .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return loadServices(cmd) },
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.helpdesk)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env when present)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and releases every backend it opened.
func Execute(ctx context.Context) error {
	defer shutdown()
	return rootCmd.ExecuteContext(ctx)
}
