package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/ai/mock"
	"github.com/docsift/docsift/core"
	"github.com/docsift/docsift/index"
	badgerindex "github.com/docsift/docsift/index/badger"
)

func newPopulatedIndex(t *testing.T, texts map[string][]string) index.Index {
	t.Helper()
	idx, err := badgerindex.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	for source, items := range texts {
		for i, text := range items {
			chunk := core.NewChunk(source, i+1, text)
			chunk.Vector = []float32{1, 0} // stale model output
			require.NoError(t, idx.Add(context.Background(), chunk))
		}
	}
	return idx
}

func fastConfig() *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func TestNewReembedderValidation(t *testing.T) {
	idx := newPopulatedIndex(t, nil)

	_, err := NewReembedder(nil, mock.NewMockEmbedder(), nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewReembedder(idx, nil, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestRunReplacesVectors(t *testing.T) {
	idx := newPopulatedIndex(t, map[string][]string{
		"a.txt": {"first chunk", "second chunk", "third chunk"},
		"b.txt": {"other document"},
	})

	var buf bytes.Buffer
	reembedder, err := NewReembedder(idx, mock.NewMockEmbedder(), fastConfig(), &buf)
	require.NoError(t, err)

	require.NoError(t, reembedder.Run(context.Background()))

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	// Identifiers survive; vectors now come from the new model.
	id := core.IDFromChunk("a.txt", 1, "first chunk")
	chunks, err := idx.Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, mock.DeterministicVector("first chunk", 384), chunks[0].Vector)

	assert.Contains(t, buf.String(), "Reembedding complete")
}

func TestRunEmptyIndex(t *testing.T) {
	idx := newPopulatedIndex(t, nil)

	var buf bytes.Buffer
	reembedder, err := NewReembedder(idx, mock.NewMockEmbedder(), fastConfig(), &buf)
	require.NoError(t, err)

	require.NoError(t, reembedder.Run(context.Background()))
	assert.Contains(t, buf.String(), "No chunks found")
}

func TestRunRetriesTransientFailures(t *testing.T) {
	idx := newPopulatedIndex(t, map[string][]string{"a.txt": {"only chunk"}})

	embedder := mock.NewMockEmbedder()
	failures := 1
	embedder.EmbedPassagesFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		if failures > 0 {
			failures--
			return nil, errors.New("transient")
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, 384)
		}
		return vectors, nil
	}

	var buf bytes.Buffer
	reembedder, err := NewReembedder(idx, embedder, fastConfig(), &buf)
	require.NoError(t, err)

	require.NoError(t, reembedder.Run(context.Background()))
	assert.Equal(t, 2, embedder.PassageCalls())
}

// addRefusingIndex fails every standalone Add. The reembed swap must go
// through ReplaceSource, never through a delete followed by a separate
// Add that could strand a half-deleted source.
type addRefusingIndex struct {
	index.Index
}

func (f *addRefusingIndex) Add(ctx context.Context, chunks ...*core.Chunk) error {
	return errors.New("write refused")
}

func TestRunSwapIsAtomic(t *testing.T) {
	idx := newPopulatedIndex(t, map[string][]string{"a.txt": {"only chunk"}})

	var buf bytes.Buffer
	reembedder, err := NewReembedder(&addRefusingIndex{Index: idx}, mock.NewMockEmbedder(), fastConfig(), &buf)
	require.NoError(t, err)

	require.NoError(t, reembedder.Run(context.Background()))

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	id := core.IDFromChunk("a.txt", 1, "only chunk")
	chunks, err := idx.Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, mock.DeterministicVector("only chunk", 384), chunks[0].Vector)
}

func TestRunSurfacesPersistentFailure(t *testing.T) {
	idx := newPopulatedIndex(t, map[string][]string{"a.txt": {"only chunk"}})

	embedder := mock.NewMockEmbedder()
	embedder.EmbedPassagesFunc = func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, errors.New("model gone")
	}

	var buf bytes.Buffer
	reembedder, err := NewReembedder(idx, embedder, fastConfig(), &buf)
	require.NoError(t, err)

	err = reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.txt")

	// The failed source keeps its old vectors.
	id := core.IDFromChunk("a.txt", 1, "only chunk")
	chunks, getErr := idx.Get(context.Background(), id)
	require.NoError(t, getErr)
	require.Len(t, chunks, 1)
	assert.Equal(t, []float32{1, 0}, chunks[0].Vector)
}
