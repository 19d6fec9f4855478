// Package commands defines all Cobra CLI commands for the newsbrief binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/brieflet/newsbrief-go/internal/audit"
	"github.com/brieflet/newsbrief-go/internal/config"
	"github.com/brieflet/newsbrief-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "newsbrief",
		Short: "Newsbrief — an AI-curated news digest delivered by email",
		Long: `Newsbrief fetches fresh news articles for a topic, embeds them into a
Qdrant vector index, and generates grounded HTML newsletters with an LLM.

Three independent pipelines make up the system:

  ingest   fetch articles and stage a deduplicated batch
  index    embed a staged batch and upsert it into the vector index
  send     search the index, generate a newsletter, and email it

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.newsbrief/config.yaml).
See 'newsbrief --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.newsbrief/config.yaml)")

	root.AddCommand(
		NewIngestCmd(),
		NewIndexCmd(),
		NewSendCmd(),
		NewServeCmd(),
		NewDiagnoseCmd(),
		NewVersionCmd(),
	)

	return root
}
