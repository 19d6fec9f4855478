package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/brieflet/newsbrief-go/internal/embedder"
	"github.com/brieflet/newsbrief-go/internal/logging"
	"github.com/brieflet/newsbrief-go/internal/newsletter"
	"github.com/brieflet/newsbrief-go/internal/provider"
	"github.com/brieflet/newsbrief-go/internal/rag"
	"github.com/brieflet/newsbrief-go/internal/tracing"
)

// NewSendCmd constructs the `newsbrief send` command, which searches the
// vector index for a topic, generates a newsletter with the LLM, and emails
// it to the recipients.
func NewSendCmd() *cobra.Command {
	var topic string
	var recipients []string
	var maxArticles int

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Generate and email a newsletter for a topic",
		Long: `Search the vector index for articles relevant to a topic, generate a
grounded HTML newsletter with the configured LLM, and deliver it by email.

The run reports a structured outcome: when the index has no relevant
articles the command exits cleanly without calling the LLM, and generation
or delivery failures are reported with a cause.

Required environment variables:
  RESEND_API_KEY       Email delivery API key
  EMAIL_FROM           Sender address
  MODEL_PROVIDER       Chat backend: ollama, openai, azure, gemini (default: ollama)
  QDRANT_*             Vector store connection

Examples:
  newsbrief send --to a@example.com
  newsbrief send --topic "Quantum Computing" --to a@example.com --to b@example.com
  EMAIL_RECIPIENTS=a@example.com newsbrief send`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Langfuse tracing is opt-in and a no-op when keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			}

			if len(recipients) == 0 {
				if env := os.Getenv("EMAIL_RECIPIENTS"); env != "" {
					recipients = strings.Split(env, ",")
				}
			}
			if topic == "" {
				topic = getEnvOrDefault("NEWS_TOPIC", "Artificial Intelligence")
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("send: failed to initialise embedder: %w", err)
			}

			index, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}
			defer func() { _ = index.Close() }()

			retriever, err := rag.NewRetriever(emb, index, maxArticles)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}

			providerCfg := provider.ConfigFromEnv()
			chatModel, err := provider.New(ctx, providerCfg)
			if err != nil {
				return fmt.Errorf("send: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", string(providerCfg.Backend)))

			generator, err := newsletter.NewModelGenerator(chatModel)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}

			deliverer, err := buildMailer()
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}

			orch, err := newsletter.New(retriever, generator, deliverer, log)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}

			res := orch.Run(ctx, newsletter.Request{
				Topic:       topic,
				Recipients:  recipients,
				MaxArticles: maxArticles,
			})

			fmt.Println(res.Message)
			if res.Success {
				fmt.Printf("articles: %d, message id: %s\n", res.ArticlesFound, res.MessageID)
				return nil
			}
			return fmt.Errorf("send: newsletter was not delivered")
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to write about (default: Artificial Intelligence)")
	cmd.Flags().StringArrayVar(&recipients, "to", nil, "Recipient email address (repeatable; default: EMAIL_RECIPIENTS)")
	cmd.Flags().IntVarP(&maxArticles, "max-articles", "n", 0, "Maximum number of articles to ground the newsletter on")

	return cmd
}
