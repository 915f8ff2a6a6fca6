package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedQueryFunc is called by EmbedQuery if set.
	// If nil, uses default deterministic behavior.
	EmbedQueryFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedPassagesFunc is called by EmbedPassages if set.
	// If nil, uses default deterministic behavior.
	EmbedPassagesFunc func(ctx context.Context, texts []string) ([][]float32, error)

	queryCalls   int
	passageCalls int
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedQuery generates a deterministic unit vector based on the text hash.
func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.queryCalls++

	if m.EmbedQueryFunc != nil {
		return m.EmbedQueryFunc(ctx, text)
	}
	return DeterministicVector(text, 384), nil
}

// EmbedPassages generates deterministic unit vectors for multiple texts.
func (m *MockEmbedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	m.passageCalls++

	if m.EmbedPassagesFunc != nil {
		return m.EmbedPassagesFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = DeterministicVector(text, 384)
	}
	return vectors, nil
}

// QueryCalls returns the number of EmbedQuery invocations.
func (m *MockEmbedder) QueryCalls() int {
	return m.queryCalls
}

// PassageCalls returns the number of EmbedPassages invocations.
func (m *MockEmbedder) PassageCalls() int {
	return m.passageCalls
}

// Reset clears call counts and injected behavior.
func (m *MockEmbedder) Reset() {
	m.queryCalls = 0
	m.passageCalls = 0
	m.EmbedQueryFunc = nil
	m.EmbedPassagesFunc = nil
}

// DeterministicVector creates a deterministic unit-length embedding from
// text. It uses an FNV hash so the same text always produces the same
// vector; identical texts therefore have cosine similarity 1.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%2000)/1000.0 - 1.0
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}
