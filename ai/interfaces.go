package ai

import "context"

// Embedding prefix convention. The embedding model distinguishes stored
// passages from queries; the literal prefix strings, including the trailing
// space, must be preserved exactly.
const (
	PassagePrefix = "passage: "
	QueryPrefix   = "query: "
)

// Embedder generates unit-normalized vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedQuery generates an embedding for a retrieval query.
	// The query prefix is applied by the implementation.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedPassages generates embeddings for passages to be indexed, in a
	// single batch. The passage prefix is applied by the implementation.
	// The returned slice matches the order of the input texts.
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a prose answer from system instructions and a user
// prompt. Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns free text for the given instruction and prompt.
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// Generator instances, ensuring they share configuration appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the answer generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
