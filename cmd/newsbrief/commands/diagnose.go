package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/brieflet/newsbrief-go/internal/embedder"
	"github.com/brieflet/newsbrief-go/internal/logging"
	"github.com/brieflet/newsbrief-go/internal/provider"
)

// diagnoseTimeout bounds each connectivity probe so a hung backend does not
// stall the whole report.
const diagnoseTimeout = 10 * time.Second

// NewDiagnoseCmd constructs the `newsbrief diagnose` command, which checks
// the environment and backend connectivity and prints a preflight report.
func NewDiagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Check configuration and backend connectivity",
		Long: `Check that the environment is configured and that the configured backends
are reachable: the embedding provider, the chat model provider, the Qdrant
vector store, and the news and email API credentials.

Each check prints ok or FAIL with a reason; the command exits non-zero if
any check failed.

Examples:
  newsbrief diagnose
  MODEL_PROVIDER=openai newsbrief diagnose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			failed := 0
			report := func(name string, err error) {
				if err != nil {
					failed++
					fmt.Printf("FAIL  %-14s %v\n", name, err)
					return
				}
				fmt.Printf("ok    %s\n", name)
			}

			report("embedder", embedder.Validate(log))

			providerCfg := provider.ConfigFromEnv()
			report("model config", providerCfg.Validate())

			// Connectivity probes only make sense when the config itself is sound.
			if providerCfg.Validate() == nil {
				probeCtx, cancel := context.WithTimeout(ctx, diagnoseTimeout)
				report("model backend", provider.NewHealthCheck(providerCfg).HealthCheck(probeCtx))
				cancel()
			}

			report("qdrant", probeQdrant(ctx, log))
			report("news api", requireEnv("NEWS_API_KEY"))
			report("email api", requireEnv("RESEND_API_KEY", "EMAIL_FROM"))
			report("blob store", probeBlobStore(log))

			if failed > 0 {
				return fmt.Errorf("diagnose: %d check(s) failed", failed)
			}
			fmt.Println("all checks passed")
			return nil
		},
	}

	return cmd
}

// requireEnv reports an error naming the first unset variable of the list.
// Values are never printed.
func requireEnv(keys ...string) error {
	for _, key := range keys {
		if os.Getenv(key) == "" {
			return fmt.Errorf("%s is not set", key)
		}
	}
	return nil
}
