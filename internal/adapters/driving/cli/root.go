// Package cli implements the quarry command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services holds the wired application services the commands call into.
type Services struct {
	Ingestion driving.IngestionService
	Retrieval driving.RetrievalService
	Diff      driving.DiffService
	Worker    driving.Worker
	Store     driven.Stores
	TenantID  string
}

// services holds the current wiring. Set before Execute.
var services *Services

// SetServices wires the commands to the application services.
func SetServices(s *Services) {
	services = s
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Document ingestion, sensitivity analysis and policy-governed retrieval",
	Long: `Quarry indexes documents from registered shares, classifies them,
detects sensitive content, scores exposure, and serves chunks to agents
under per-agent visibility and redaction policies.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
