package index

import (
	"context"

	"github.com/docsift/docsift/core"
)

// Match is a single similarity query result. Distance is cosine distance;
// since stored vectors are unit-normalized this is one minus inner product.
type Match struct {
	Chunk    *core.Chunk
	Distance float64
}

// Index is the persistent chunk index: the durable source of truth mapping
// content identifiers to chunk text, metadata, and embeddings.
// Implementations must be thread-safe and survive process restarts (an
// in-memory mode may be offered for tests).
type Index interface {
	// Add persists chunks keyed by their content identifiers.
	// Adding an ID that already exists fails with ErrDuplicateID and the
	// whole call is rolled back; callers must filter beforehand, this is
	// not an upsert.
	Add(ctx context.Context, chunks ...*core.Chunk) error

	// Get retrieves the chunks for the given IDs.
	// Returns only the chunks that exist (no error for missing IDs).
	Get(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// DeleteBySource removes every chunk whose source matches.
	// Returns the number of chunks removed; removing from an unknown
	// source removes zero and is not an error.
	DeleteBySource(ctx context.Context, source string) (int, error)

	// ReplaceSource swaps every chunk of a source for the given chunks
	// in a single transaction. A failed replace leaves the source's
	// existing entries untouched.
	ReplaceSource(ctx context.Context, source string, chunks ...*core.Chunk) error

	// Query returns the k entries nearest to the given unit-normalized
	// vector, ordered by ascending cosine distance.
	Query(ctx context.Context, vector []float32, k int) ([]*Match, error)

	// List returns up to limit chunks starting at offset, in a stable
	// order. Used to project the corpus into memory page by page.
	List(ctx context.Context, offset, limit int) ([]*core.Chunk, error)

	// Count returns the total number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// Generation returns a counter bumped on every content change
	// (Add, DeleteBySource, ReplaceSource, Drop). Snapshot caches
	// compare generations to detect staleness.
	Generation() uint64

	// Drop removes all indexed content. Used for start-clean ingestion.
	Drop(ctx context.Context) error

	// Close closes the index and releases resources.
	Close() error
}
