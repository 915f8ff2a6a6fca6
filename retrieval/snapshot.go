package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/docsift/docsift/core"
	"github.com/docsift/docsift/index"
)

// DefaultPageSize is the page size used when loading a corpus snapshot.
const DefaultPageSize = 500

// Snapshot is an immutable in-memory projection of the indexed corpus,
// stamped with the index generation it was loaded at. It exists only to
// serve keyword scans; vector queries always go to the index directly.
type Snapshot struct {
	generation uint64
	chunks     []*core.Chunk
}

// Generation returns the index generation this snapshot was loaded at.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// Chunks returns the snapshot contents. Callers must not mutate the
// returned slice or the chunks it points to.
func (s *Snapshot) Chunks() []*core.Chunk {
	return s.chunks
}

// Len returns the number of chunks in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.chunks)
}

// SnapshotCache lazily materializes the corpus into memory and reloads it
// whenever the index generation has moved past the cached snapshot. This
// makes staleness an explicit, observable contract: a snapshot is valid
// exactly as long as its generation matches the index's.
type SnapshotCache struct {
	idx      index.Index
	pageSize int
	logger   *slog.Logger

	mu      sync.Mutex
	current *Snapshot
}

// CacheOption configures a SnapshotCache.
type CacheOption func(*SnapshotCache) error

// WithPageSize sets the page size for snapshot loads.
// Default is DefaultPageSize.
func WithPageSize(size int) CacheOption {
	return func(c *SnapshotCache) error {
		if size < 1 {
			return fmt.Errorf("page size must be >= 1, got %d", size)
		}
		c.pageSize = size
		return nil
	}
}

// WithCacheLogger sets a custom logger.
// Default is slog.Default().
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *SnapshotCache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewSnapshotCache creates a snapshot cache over idx.
func NewSnapshotCache(idx index.Index, opts ...CacheOption) (*SnapshotCache, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	c := &SnapshotCache{
		idx:      idx,
		pageSize: DefaultPageSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Current returns a snapshot that matches the index's current generation,
// loading or reloading the corpus when the cached one is missing or stale.
func (c *SnapshotCache) Current(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	generation := c.idx.Generation()
	if c.current != nil && c.current.generation == generation {
		return c.current, nil
	}

	snapshot, err := c.load(ctx, generation)
	if err != nil {
		return nil, err
	}
	c.current = snapshot
	return snapshot, nil
}

// Invalidate discards the cached snapshot so the next Current reloads.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// load pages the whole corpus out of the index. The generation is read
// before listing starts, so a write that lands mid-load leaves the cached
// snapshot stamped with the older generation and the next Current reloads.
func (c *SnapshotCache) load(ctx context.Context, generation uint64) (*Snapshot, error) {
	var chunks []*core.Chunk
	for offset := 0; ; offset += c.pageSize {
		page, err := c.idx.List(ctx, offset, c.pageSize)
		if err != nil {
			return nil, fmt.Errorf("loading corpus snapshot: %w", err)
		}
		chunks = append(chunks, page...)
		if len(page) < c.pageSize {
			break
		}
	}
	c.logger.Debug("corpus snapshot loaded", "chunks", len(chunks), "generation", generation)
	return &Snapshot{generation: generation, chunks: chunks}, nil
}
