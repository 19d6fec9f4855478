// Package newsletter implements the on-demand retrieval-generation workflow:
// embed the requested topic, search the vector index, ground a single
// generation call on the top results, parse the structured output, and
// deliver it by email. The workflow is a linear state machine
// (search -> generate -> deliver) with an absorbing error state; it always
// returns a structured Result to its caller and never propagates an error,
// because the caller expects a synchronous response contract rather than
// retry-by-redelivery.
package newsletter

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/brieflet/newsbrief-go/internal/logging"
	"github.com/brieflet/newsbrief-go/internal/mailer"
	"github.com/brieflet/newsbrief-go/internal/rag"
)

const (
	// DefaultMaxArticles is the topK used when the request leaves MaxArticles
	// unset.
	DefaultMaxArticles = 10

	// maxArticlesCeiling bounds caller-supplied MaxArticles so a single
	// request cannot blow the prompt budget.
	maxArticlesCeiling = 100
)

// Request describes one newsletter run.
type Request struct {
	// Topic is the subject to search the index for and write about.
	Topic string `json:"topic"`

	// Recipients are the destination email addresses. Must be non-empty and
	// each must parse as a valid address.
	Recipients []string `json:"recipients"`

	// MaxArticles is the number of search results to ground the newsletter
	// on. Zero means DefaultMaxArticles; values above the ceiling are
	// clamped.
	MaxArticles int `json:"maxArticles,omitempty"`
}

// Result is the structured outcome of a run. Business-level failures are
// reported through Success=false and a human-readable Message; raw
// diagnostic detail goes to the logs, never into the Message.
type Result struct {
	// Success reports whether the newsletter was generated and delivered.
	Success bool `json:"success"`

	// Message is a human-readable summary of the outcome or failure cause.
	Message string `json:"message"`

	// ArticlesFound is the number of search results retrieved for the topic.
	ArticlesFound int `json:"articlesFound,omitempty"`

	// EmailSent reports whether the delivery call succeeded.
	EmailSent bool `json:"emailSent,omitempty"`

	// MessageID is the delivery provider's identifier for the sent email.
	MessageID string `json:"messageId,omitempty"`

	// Empty marks the non-error "no articles found" terminal state so
	// callers can tell it apart from a failure. Not part of the response
	// body.
	Empty bool `json:"-"`
}

// Orchestrator wires the retrieval, generation, and delivery collaborators
// into the newsletter workflow. All collaborators are injected so tests can
// substitute fakes.
type Orchestrator struct {
	retriever rag.Retriever
	generator Generator
	deliverer mailer.Deliverer
	log       *slog.Logger
}

// New constructs an Orchestrator. All three collaborators are required.
func New(retriever rag.Retriever, generator Generator, deliverer mailer.Deliverer, log *slog.Logger) (*Orchestrator, error) {
	if retriever == nil {
		return nil, fmt.Errorf("newsletter: retriever must not be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("newsletter: generator must not be nil")
	}
	if deliverer == nil {
		return nil, fmt.Errorf("newsletter: deliverer must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		retriever: retriever,
		generator: generator,
		deliverer: deliverer,
		log:       log,
	}, nil
}

// Run executes one newsletter workflow. It never returns an error: every
// failure mode is folded into the Result so the caller always gets a
// well-formed response.
func (o *Orchestrator) Run(ctx context.Context, req Request) Result {
	log := logging.FromContext(ctx)

	if err := validateRequest(req); err != nil {
		log.Warn("newsletter: invalid request", slog.Any("error", err))
		return Result{Message: err.Error()}
	}

	topK := req.MaxArticles
	if topK <= 0 {
		topK = DefaultMaxArticles
	}
	if topK > maxArticlesCeiling {
		topK = maxArticlesCeiling
	}

	// SEARCHING: the query embedding comes from the same model as document
	// embeddings (via the retriever), otherwise similarity is meaningless.
	hits, err := o.retriever.Retrieve(ctx, req.Topic, topK)
	if err != nil {
		log.Error("newsletter: search failed",
			slog.String("topic", req.Topic),
			slog.Any("error", err),
		)
		return Result{Message: "searching the article index failed"}
	}
	if len(hits) == 0 {
		// An empty index result is a non-error terminal state: do not call
		// the generation model with no grounding.
		log.Info("newsletter: no articles found", slog.String("topic", req.Topic))
		return Result{
			Message:       fmt.Sprintf("no articles found for topic %q", req.Topic),
			ArticlesFound: 0,
			Empty:         true,
		}
	}
	log.Info("newsletter: retrieved articles",
		slog.String("topic", req.Topic),
		slog.Int("count", len(hits)),
	)

	// GENERATING: one single-turn call grounded on the rendered results.
	prompt := buildPrompt(req.Topic, hits)
	raw, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		log.Error("newsletter: generation failed",
			slog.String("topic", req.Topic),
			slog.Any("error", err),
		)
		return Result{
			Message:       "generating the newsletter failed",
			ArticlesFound: len(hits),
		}
	}

	subject, body, err := ParseOutput(raw)
	if err != nil {
		// Raw output goes to the log for diagnosis, never to the caller.
		log.Error("newsletter: output parse failed",
			slog.String("topic", req.Topic),
			slog.String("raw_output", raw),
			slog.Any("error", err),
		)
		return Result{
			Message:       "parsing the generated newsletter failed: " + err.Error(),
			ArticlesFound: len(hits),
		}
	}

	// DELIVERING: one call with all recipients. Delivery failure is fatal.
	messageID, err := o.deliverer.Send(ctx, req.Recipients, subject, body)
	if err != nil {
		log.Error("newsletter: delivery failed",
			slog.String("subject", subject),
			slog.Int("recipients", len(req.Recipients)),
			slog.Any("error", err),
		)
		return Result{
			Message:       "sending the newsletter email failed",
			ArticlesFound: len(hits),
		}
	}

	log.Info("newsletter: delivered",
		slog.String("subject", subject),
		slog.Int("recipients", len(req.Recipients)),
		slog.Int("articles", len(hits)),
		slog.String("message_id", messageID),
	)
	return Result{
		Success:       true,
		Message:       fmt.Sprintf("newsletter sent to %d recipient(s)", len(req.Recipients)),
		ArticlesFound: len(hits),
		EmailSent:     true,
		MessageID:     messageID,
	}
}

func validateRequest(req Request) error {
	if req.Topic == "" {
		return fmt.Errorf("newsletter: topic must not be empty")
	}
	if len(req.Recipients) == 0 {
		return fmt.Errorf("newsletter: at least one recipient is required")
	}
	for _, r := range req.Recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			return fmt.Errorf("newsletter: invalid recipient address %q", r)
		}
	}
	if req.MaxArticles < 0 {
		return fmt.Errorf("newsletter: maxArticles must not be negative")
	}
	return nil
}
