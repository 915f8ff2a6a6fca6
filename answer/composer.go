package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docsift/docsift/ai"
	"github.com/docsift/docsift/core"
	"github.com/docsift/docsift/retrieval"
)

// DefaultTopK is the number of passages given to the generator as context.
const DefaultTopK = 4

// InsufficientInfoMessage is returned when retrieval produces no evidence.
const InsufficientInfoMessage = "I don't have enough information on this topic."

const systemInstructions = "You are a helpful assistant. Answer using only the " +
	"provided context. If the context is insufficient, say: " +
	"\"" + InsufficientInfoMessage + "\" " +
	"At the end of your answer, cite the source numbers you used in square brackets."

// Answer is a generated response with the passages that grounded it.
type Answer struct {
	Text    string
	Sources []*core.RetrievalResult
}

// Composer turns a question into a context-grounded answer: it retrieves
// relevant passages, formats them into a numbered context block, and asks
// the generator to answer from that context alone.
type Composer struct {
	retriever *retrieval.Retriever
	generator ai.Generator
	topK      int
	logger    *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer) error

// WithTopK sets how many passages are retrieved as context.
// Default is DefaultTopK.
func WithTopK(topK int) Option {
	return func(c *Composer) error {
		if topK < 1 {
			return fmt.Errorf("topK must be >= 1, got %d", topK)
		}
		c.topK = topK
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewComposer creates a new answer composer.
func NewComposer(retriever *retrieval.Retriever, generator ai.Generator, opts ...Option) (*Composer, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	c := &Composer{
		retriever: retriever,
		generator: generator,
		topK:      DefaultTopK,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Ask retrieves context for the question and generates a grounded answer.
func (c *Composer) Ask(ctx context.Context, question string) (*Answer, error) {
	return c.AskWithRetrievalQuery(ctx, question, "")
}

// AskWithRetrievalQuery is like Ask but retrieves with a separate query
// string, for callers that rewrite or expand the retrieval query while
// keeping the original question in the prompt.
func (c *Composer) AskWithRetrievalQuery(ctx context.Context, question, retrievalQuery string) (*Answer, error) {
	if retrievalQuery == "" {
		retrievalQuery = question
	}

	sources, err := c.retriever.Retrieve(ctx, retrievalQuery, c.topK)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		c.logger.Info("no retrieval evidence for question", "question", question)
		return &Answer{Text: InsufficientInfoMessage}, nil
	}

	prompt := buildPrompt(question, sources)
	text, err := c.generator.Generate(ctx, systemInstructions, prompt)
	if err != nil {
		c.logger.Error("answer generation failed", "question", question, "err", err)
		return nil, err
	}

	return &Answer{Text: text, Sources: sources}, nil
}

// buildPrompt formats the retrieved passages into numbered context blocks
// the instructions can cite by number.
func buildPrompt(question string, sources []*core.RetrievalResult) string {
	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nContext:\n")
	for i, source := range sources {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[Source %d] %s (chunk %s)\n%s",
			i+1,
			source.Chunk.Metadata[core.MetaSource],
			source.Chunk.Metadata[core.MetaPageHint],
			source.Chunk.Text)
	}
	return sb.String()
}
