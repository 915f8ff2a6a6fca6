package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/core"
	"github.com/docsift/docsift/index"
)

func newTestIndex(t *testing.T) index.Index {
	t.Helper()
	idx, err := NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func testChunk(source string, position int, text string, vector []float32) *core.Chunk {
	chunk := core.NewChunk(source, position, text)
	chunk.Vector = vector
	return chunk
}

func TestOpen_FileSystem(t *testing.T) {
	idx, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, idx)
	require.NoError(t, idx.Close())
}

func TestAddAndGet(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	a := testChunk("manual.pdf", 1, "first chunk", []float32{1, 0, 0})
	b := testChunk("manual.pdf", 2, "second chunk", []float32{0, 1, 0})
	require.NoError(t, idx.Add(ctx, a, b))

	got, err := idx.Get(ctx, a.Id, b.Id)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[core.ID]*core.Chunk{got[0].Id: got[0], got[1].Id: got[1]}
	require.Contains(t, byID, a.Id)
	assert.Equal(t, "first chunk", byID[a.Id].Text)
	assert.Equal(t, "manual.pdf", byID[a.Id].Source)
	assert.Equal(t, 1, byID[a.Id].Position)
	assert.Equal(t, []float32{1, 0, 0}, byID[a.Id].Vector)
	assert.Equal(t, "manual.pdf", byID[a.Id].Metadata[core.MetaSource])
}

func TestGet_PresentSubset(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	a := testChunk("manual.pdf", 1, "indexed", []float32{1, 0})
	require.NoError(t, idx.Add(ctx, a))

	missing := core.IDFromContent("never indexed")
	got, err := idx.Get(ctx, a.Id, missing)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.Id, got[0].Id)
}

func TestAdd_DuplicateIDRejected(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	a := testChunk("manual.pdf", 1, "same content", []float32{1, 0})
	require.NoError(t, idx.Add(ctx, a))

	dup := testChunk("manual.pdf", 1, "same content", []float32{1, 0})
	err := idx.Add(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, index.ErrDuplicateID)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAdd_DuplicateRollsBackBatch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	a := testChunk("manual.pdf", 1, "existing", []float32{1, 0})
	require.NoError(t, idx.Add(ctx, a))

	fresh := testChunk("manual.pdf", 2, "fresh", []float32{0, 1})
	dup := testChunk("manual.pdf", 1, "existing", []float32{1, 0})
	err := idx.Add(ctx, fresh, dup)
	require.Error(t, err)

	// The fresh chunk from the failed batch must not be visible.
	got, err := idx.Get(ctx, fresh.Id)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAdd_InvalidChunk(t *testing.T) {
	idx := newTestIndex(t)
	err := idx.Add(context.Background(), &core.Chunk{Source: "x.pdf", Position: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidChunk)
}

func TestDeleteBySource(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx,
		testChunk("old.pdf", 1, "old one", []float32{1, 0}),
		testChunk("old.pdf", 2, "old two", []float32{0, 1}),
		testChunk("keep.pdf", 1, "kept", []float32{1, 1}),
	))

	removed, err := idx.DeleteBySource(ctx, "old.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	all, err := idx.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "keep.pdf", all[0].Source)
}

func TestDeleteBySource_Unknown(t *testing.T) {
	idx := newTestIndex(t)
	removed, err := idx.DeleteBySource(context.Background(), "absent.pdf")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestDeleteBySource_NoPrefixBleed(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx,
		testChunk("doc.pdf", 1, "short name", []float32{1, 0}),
		testChunk("doc.pdf.bak", 1, "longer name", []float32{0, 1}),
	))

	removed, err := idx.DeleteBySource(ctx, "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReplaceSource(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	old := testChunk("doc.pdf", 1, "old body", []float32{1, 0})
	kept := testChunk("other.pdf", 1, "untouched", []float32{0, 1})
	require.NoError(t, idx.Add(ctx, old, kept))
	gen := idx.Generation()

	fresh := testChunk("doc.pdf", 1, "new body", []float32{0, 1})
	require.NoError(t, idx.ReplaceSource(ctx, "doc.pdf", fresh))

	got, err := idx.Get(ctx, old.Id, fresh.Id, kept.Id)
	require.NoError(t, err)
	require.Len(t, got, 2)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Greater(t, idx.Generation(), gen)
}

func TestReplaceSource_SameIDs(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	chunk := testChunk("doc.pdf", 1, "stable body", []float32{1, 0})
	require.NoError(t, idx.Add(ctx, chunk))

	// Re-adding the same ID is legal inside a replace: the delete earlier
	// in the transaction frees it.
	rewritten := testChunk("doc.pdf", 1, "stable body", []float32{0, 1})
	require.NoError(t, idx.ReplaceSource(ctx, "doc.pdf", rewritten))

	got, err := idx.Get(ctx, chunk.Id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []float32{0, 1}, got[0].Vector)
}

func TestReplaceSource_FailureKeepsOldEntries(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	old := testChunk("doc.pdf", 1, "old body", []float32{1, 0})
	foreign := testChunk("other.pdf", 1, "claimed id", []float32{0, 1})
	require.NoError(t, idx.Add(ctx, old, foreign))

	// One replacement chunk collides with another source's ID, so the
	// whole replace must roll back and the old entries must survive.
	fresh := testChunk("doc.pdf", 1, "new body", []float32{1, 1})
	conflict := testChunk("other.pdf", 1, "claimed id", []float32{0, 1})
	err := idx.ReplaceSource(ctx, "doc.pdf", fresh, conflict)
	require.Error(t, err)
	assert.ErrorIs(t, err, index.ErrDuplicateID)

	got, err := idx.Get(ctx, old.Id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "old body", got[0].Text)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestClosedIndex(t *testing.T) {
	idx, err := NewMemoryIndex()
	require.NoError(t, err)
	require.NoError(t, idx.Close())
	ctx := context.Background()

	err = idx.Add(ctx, testChunk("a.txt", 1, "body", []float32{1}))
	assert.ErrorIs(t, err, index.ErrStorageClosed)

	_, err = idx.Get(ctx, core.IDFromContent("body"))
	assert.ErrorIs(t, err, index.ErrStorageClosed)

	_, err = idx.Count(ctx)
	assert.ErrorIs(t, err, index.ErrStorageClosed)

	assert.ErrorIs(t, idx.Drop(ctx), index.ErrStorageClosed)
}

func TestQuery_Ordering(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx,
		testChunk("a.txt", 1, "exact", []float32{1, 0, 0}),
		testChunk("a.txt", 2, "orthogonal", []float32{0, 1, 0}),
		testChunk("a.txt", 3, "opposite", []float32{-1, 0, 0}),
	))

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "exact", matches[0].Chunk.Text)
	assert.InDelta(t, 0.0, matches[0].Distance, 1e-6)
	assert.Equal(t, "orthogonal", matches[1].Chunk.Text)
	assert.InDelta(t, 1.0, matches[1].Distance, 1e-6)
	assert.Equal(t, "opposite", matches[2].Chunk.Text)
	assert.InDelta(t, 2.0, matches[2].Distance, 1e-6)
}

func TestQuery_LimitAndValidation(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx,
		testChunk("a.txt", 1, "one", []float32{1, 0}),
		testChunk("a.txt", 2, "two", []float32{0, 1}),
	))

	matches, err := idx.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	_, err = idx.Query(ctx, []float32{1, 0}, 0)
	assert.ErrorIs(t, err, index.ErrInvalidQuery)

	_, err = idx.Query(ctx, nil, 3)
	assert.ErrorIs(t, err, index.ErrInvalidQuery)
}

func TestQuery_EmptyIndex(t *testing.T) {
	idx := newTestIndex(t)
	matches, err := idx.Query(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestList_Paging(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	chunks := make([]*core.Chunk, 7)
	for i := range chunks {
		chunks[i] = testChunk("long.pdf", i+1, "chunk body", []float32{float32(i), 1})
	}
	require.NoError(t, idx.Add(ctx, chunks...))

	var paged []*core.Chunk
	for offset := 0; ; offset += 3 {
		page, err := idx.List(ctx, offset, 3)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		paged = append(paged, page...)
	}
	assert.Len(t, paged, 7)

	seen := map[core.ID]bool{}
	for _, chunk := range paged {
		assert.False(t, seen[chunk.Id], "chunk returned twice while paging")
		seen[chunk.Id] = true
	}
}

func TestGeneration(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	assert.Zero(t, idx.Generation())

	require.NoError(t, idx.Add(ctx, testChunk("g.txt", 1, "body", []float32{1})))
	gen := idx.Generation()
	assert.Equal(t, uint64(1), gen)

	// Deleting nothing must not bump the generation.
	_, err := idx.DeleteBySource(ctx, "absent.pdf")
	require.NoError(t, err)
	assert.Equal(t, gen, idx.Generation())

	_, err = idx.DeleteBySource(ctx, "g.txt")
	require.NoError(t, err)
	assert.Greater(t, idx.Generation(), gen)
}

func TestDrop(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx,
		testChunk("a.pdf", 1, "one", []float32{1, 0}),
		testChunk("b.pdf", 1, "two", []float32{0, 1}),
	))
	require.NoError(t, idx.Drop(ctx))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Adding the same content again succeeds after a drop.
	require.NoError(t, idx.Add(ctx, testChunk("a.pdf", 1, "one", []float32{1, 0})))
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Open(dir)
	require.NoError(t, err)
	chunk := testChunk("durable.pdf", 1, "survives restarts", []float32{0.6, 0.8})
	require.NoError(t, idx.Add(ctx, chunk))
	require.NoError(t, idx.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, chunk.Id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "survives restarts", got[0].Text)
	assert.Equal(t, []float32{0.6, 0.8}, got[0].Vector)
}
