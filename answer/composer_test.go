package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/ai/mock"
	"github.com/docsift/docsift/core"
	"github.com/docsift/docsift/index"
	badgerindex "github.com/docsift/docsift/index/badger"
	"github.com/docsift/docsift/retrieval"
)

func newTestComposer(t *testing.T, opts ...Option) (*Composer, index.Index, *mock.MockGenerator) {
	t.Helper()
	idx, err := badgerindex.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	retriever, err := retrieval.NewRetriever(idx, mock.NewMockEmbedder())
	require.NoError(t, err)

	generator := mock.NewMockGenerator()
	composer, err := NewComposer(retriever, generator, opts...)
	require.NoError(t, err)
	return composer, idx, generator
}

func indexText(t *testing.T, idx index.Index, source string, position int, text string) {
	t.Helper()
	chunk := core.NewChunk(source, position, text)
	chunk.Vector = mock.DeterministicVector(text, 384)
	require.NoError(t, idx.Add(context.Background(), chunk))
}

func TestNewComposerValidation(t *testing.T) {
	idx, err := badgerindex.NewMemoryIndex()
	require.NoError(t, err)
	defer idx.Close()
	retriever, err := retrieval.NewRetriever(idx, mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = NewComposer(nil, mock.NewMockGenerator())
	assert.ErrorIs(t, err, ErrRetrieverRequired)

	_, err = NewComposer(retriever, nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)

	_, err = NewComposer(retriever, mock.NewMockGenerator(), WithTopK(0))
	assert.Error(t, err)
}

func TestAskGroundsPromptInRetrievedContext(t *testing.T) {
	composer, idx, generator := newTestComposer(t)
	indexText(t, idx, "guide.pdf", 3, "Kali Linux is a penetration testing distribution.")

	var capturedSystem, capturedPrompt string
	generator.GenerateFunc = func(_ context.Context, system, prompt string) (string, error) {
		capturedSystem = system
		capturedPrompt = prompt
		return "Kali Linux is for penetration testing. [1]", nil
	}

	result, err := composer.Ask(context.Background(), "What is Kali Linux?")
	require.NoError(t, err)
	assert.Equal(t, "Kali Linux is for penetration testing. [1]", result.Text)
	require.Len(t, result.Sources, 1)

	assert.Contains(t, capturedSystem, "only the provided context")
	assert.Contains(t, capturedPrompt, "Question: What is Kali Linux?")
	assert.Contains(t, capturedPrompt, "[Source 1] guide.pdf (chunk 3)")
	assert.Contains(t, capturedPrompt, "Kali Linux is a penetration testing distribution.")
}

func TestAskNumbersMultipleSources(t *testing.T) {
	composer, idx, generator := newTestComposer(t)
	indexText(t, idx, "a.pdf", 1, "First passage about melons.")
	indexText(t, idx, "b.pdf", 7, "Second passage about melons.")

	var capturedPrompt string
	generator.GenerateFunc = func(_ context.Context, _, prompt string) (string, error) {
		capturedPrompt = prompt
		return "ok", nil
	}

	_, err := composer.Ask(context.Background(), "melons")
	require.NoError(t, err)
	assert.Contains(t, capturedPrompt, "[Source 1]")
	assert.Contains(t, capturedPrompt, "[Source 2]")
	assert.Equal(t, 2, strings.Count(capturedPrompt, "[Source "))
}

func TestAskWithoutEvidenceSkipsGenerator(t *testing.T) {
	composer, _, generator := newTestComposer(t)

	result, err := composer.Ask(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, InsufficientInfoMessage, result.Text)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, generator.CallCount())
}

func TestAskWithRetrievalQuery(t *testing.T) {
	composer, idx, generator := newTestComposer(t)
	indexText(t, idx, "codes.txt", 1, "Record 171146 belongs to the archive.")

	var capturedPrompt string
	generator.GenerateFunc = func(_ context.Context, _, prompt string) (string, error) {
		capturedPrompt = prompt
		return "ok", nil
	}

	// The numeric retrieval query finds the record; the prompt keeps the
	// original question.
	result, err := composer.AskWithRetrievalQuery(context.Background(), "Which archive holds my record?", "171146")
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)
	assert.Contains(t, capturedPrompt, "Question: Which archive holds my record?")
	assert.Contains(t, capturedPrompt, "Record 171146")
}

func TestAskPropagatesGeneratorError(t *testing.T) {
	composer, idx, generator := newTestComposer(t)
	indexText(t, idx, "a.txt", 1, "Some melon content.")

	generator.GenerateFunc = func(_ context.Context, _, _ string) (string, error) {
		return "", errors.New("model unavailable")
	}

	_, err := composer.Ask(context.Background(), "melon")
	assert.Error(t, err)
}

func TestAskCancelledContext(t *testing.T) {
	composer, idx, generator := newTestComposer(t)
	indexText(t, idx, "a.txt", 1, "Some melon content.")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := composer.Ask(ctx, "melon")
	assert.Error(t, err)
	assert.Equal(t, 0, generator.CallCount())
}
