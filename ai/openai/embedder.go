package openai

import (
	"context"
	"log/slog"
	"math"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/docsift/docsift/ai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
// Vectors are normalized to unit length before they are returned, so inner
// product approximates cosine similarity downstream.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedQuery generates a unit-normalized embedding for a retrieval query.
// The query prefix is prepended before the text is embedded.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating query embedding", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{ai.QueryPrefix + text})
	if err != nil {
		e.logger.Error("failed to generate query embedding", "err", err)
		return nil, err
	}
	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}

	return normalize(vectors[0]), nil
}

// EmbedPassages generates unit-normalized embeddings for passages in a
// single batch. The passage prefix is prepended to each text.
func (e *Embedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating passage embeddings", "count", len(texts))

	prefixed := make([]string, len(texts))
	for i, text := range texts {
		prefixed[i] = ai.PassagePrefix + text
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, prefixed)
	if err != nil {
		e.logger.Error("failed to generate passage embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	for i := range vectors {
		vectors[i] = normalize(vectors[i])
	}
	return vectors, nil
}

// normalize scales a vector to unit length. Zero vectors are returned as-is.
func normalize(vector []float32) []float32 {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return vector
	}
	norm := float32(1.0 / math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] *= norm
	}
	return vector
}
