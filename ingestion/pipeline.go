package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/docsift/docsift/ai"
	"github.com/docsift/docsift/core"
	"github.com/docsift/docsift/document"
	"github.com/docsift/docsift/index"
)

// Default batch parameters.
const (
	DefaultLookupBatchSize = 1000
	DefaultAddBatchSize    = 512
)

// Pipeline orchestrates document ingestion: parallel extraction across
// source documents, content-identifier deduplication against the persistent
// index, batched embedding, and batched persistence.
type Pipeline struct {
	idx         index.Index
	embedder    ai.Embedder
	extractPool *ants.Pool
	chunkSize   int
	overlap     int
	lookupBatch int
	addBatch    int
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for parallel document extraction.
// Default is min(6, runtime.NumCPU()).
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.extractPool != nil {
			p.extractPool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.extractPool = pool
		return nil
	}
}

// WithChunking sets the chunk size and overlap, in characters.
// Defaults are document.DefaultChunkSize and document.DefaultOverlap.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		if size < 1 || overlap < 0 || overlap >= size {
			return fmt.Errorf("invalid chunking parameters: size %d, overlap %d", size, overlap)
		}
		p.chunkSize = size
		p.overlap = overlap
		return nil
	}
}

// WithLookupBatchSize sets how many IDs are checked for existence per index
// call. Default is DefaultLookupBatchSize.
func WithLookupBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("lookup batch size must be >= 1, got %d", size)
		}
		p.lookupBatch = size
		return nil
	}
}

// WithAddBatchSize sets how many chunks are embedded and persisted per
// batch. Default is DefaultAddBatchSize.
func WithAddBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("add batch size must be >= 1, got %d", size)
		}
		p.addBatch = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(idx index.Index, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := min(6, runtime.NumCPU())
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		idx:         idx,
		embedder:    embedder,
		extractPool: pool,
		chunkSize:   document.DefaultChunkSize,
		overlap:     document.DefaultOverlap,
		lookupBatch: DefaultLookupBatchSize,
		addBatch:    DefaultAddBatchSize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Report summarizes one ingestion run.
type Report struct {
	Documents int      // documents successfully extracted
	Failed    []string // documents skipped because extraction failed
	Chunks    int      // distinct chunks produced by extraction
	Existing  int      // chunks already indexed and skipped
	Added     int      // chunks embedded and persisted by this run
}

// IngestDir ingests every supported document under dir (recursively).
//
// Extraction runs in parallel across documents; a document that cannot be
// read is skipped with a warning and recorded in the report. The existing-id
// lookup, embedding, and index writes run sequentially per batch. Re-running
// over an unchanged corpus adds zero new entries; an empty corpus is a
// no-op report, not an error.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (*Report, error) {
	paths, err := p.collectSources(dir)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	if len(paths) == 0 {
		p.logger.Warn("no supported documents found", "dir", dir)
		return report, nil
	}
	p.logger.Info("extracting documents", "count", len(paths), "workers", p.extractPool.Cap())

	chunks := p.extractAll(paths, report)
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		p.logger.Warn("no chunks produced", "dir", dir)
		return report, nil
	}

	newChunks, err := p.filterExisting(ctx, chunks)
	if err != nil {
		return nil, err
	}
	report.Existing = len(chunks) - len(newChunks)
	if len(newChunks) == 0 {
		p.logger.Info("no new chunks, index unchanged", "chunks", len(chunks))
		return report, nil
	}
	p.logger.Info("adding new chunks", "new", len(newChunks), "existing", report.Existing)

	added, err := p.embedAndAdd(ctx, newChunks)
	report.Added = added
	if err != nil {
		return report, err
	}

	p.logger.Info("ingestion complete", "added", report.Added,
		"documents", report.Documents, "failedDocuments", len(report.Failed))
	return report, nil
}

// Reset drops the entire index so a subsequent IngestDir rebuilds it from
// scratch, bypassing the skip-existing optimization.
func (p *Pipeline) Reset(ctx context.Context) error {
	p.logger.Info("resetting index")
	return p.idx.Drop(ctx)
}

// Release releases the extraction worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.extractPool != nil {
		p.extractPool.Release()
	}
}

// collectSources walks dir recursively and returns the sorted list of
// supported document paths.
func (p *Pipeline) collectSources(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && document.IsSupported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// extractAll extracts and chunks all documents on the worker pool, one task
// per document. Tasks share no mutable state; each returns its own chunk
// list. Failed documents are recorded and skipped. Chunks are deduplicated
// by content ID within the run so the add path never sees an internal
// duplicate (two identically named files yield identical IDs).
func (p *Pipeline) extractAll(paths []string, report *Report) []*core.Chunk {
	perDoc := make([][]*core.Chunk, len(paths))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)

	for i, path := range paths {
		wg.Add(1)
		err := p.extractPool.Submit(func() {
			defer wg.Done()
			docChunks, err := document.Load(path, p.chunkSize, p.overlap)
			if err != nil {
				p.logger.Warn("skipping unreadable document", "path", path, "err", err)
				mu.Lock()
				failed = append(failed, path)
				mu.Unlock()
				return
			}
			perDoc[i] = docChunks
		})
		if err != nil {
			// Pool unavailable: run the remaining work inline.
			wg.Done()
			docChunks, loadErr := document.Load(path, p.chunkSize, p.overlap)
			if loadErr != nil {
				p.logger.Warn("skipping unreadable document", "path", path, "err", loadErr)
				mu.Lock()
				failed = append(failed, path)
				mu.Unlock()
				continue
			}
			perDoc[i] = docChunks
		}
	}
	wg.Wait()

	report.Failed = failed
	seen := make(map[core.ID]struct{})
	var all []*core.Chunk
	for i, docChunks := range perDoc {
		if docChunks == nil {
			continue
		}
		report.Documents++
		for _, chunk := range docChunks {
			if _, dup := seen[chunk.Id]; dup {
				p.logger.Warn("duplicate chunk id within run", "id", chunk.Id, "path", paths[i])
				continue
			}
			seen[chunk.Id] = struct{}{}
			all = append(all, chunk)
		}
	}
	return all
}

// filterExisting returns the chunks whose IDs are not yet indexed, using
// bounded membership checks so large corpora stay efficient.
func (p *Pipeline) filterExisting(ctx context.Context, chunks []*core.Chunk) ([]*core.Chunk, error) {
	existing := make(map[core.ID]struct{})
	for start := 0; start < len(chunks); start += p.lookupBatch {
		end := min(start+p.lookupBatch, len(chunks))
		ids := make([]core.ID, 0, end-start)
		for _, chunk := range chunks[start:end] {
			ids = append(ids, chunk.Id)
		}

		found, err := p.idx.Get(ctx, ids...)
		if err != nil {
			return nil, fmt.Errorf("existing-id lookup: %w", err)
		}
		for _, chunk := range found {
			existing[chunk.Id] = struct{}{}
		}
	}

	fresh := make([]*core.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if _, ok := existing[chunk.Id]; !ok {
			fresh = append(fresh, chunk)
		}
	}
	return fresh, nil
}

// embedAndAdd embeds and persists chunks in fixed-size batches. Each batch
// is one embedding call and one atomic index add; a failure surfaces after
// the count of chunks already persisted.
func (p *Pipeline) embedAndAdd(ctx context.Context, chunks []*core.Chunk) (int, error) {
	added := 0
	for start := 0; start < len(chunks); start += p.addBatch {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		end := min(start+p.addBatch, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := p.embedder.EmbedPassages(ctx, texts)
		if err != nil {
			return added, fmt.Errorf("embedding batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return added, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(vectors))
		}
		for i, chunk := range batch {
			chunk.Vector = vectors[i]
		}

		if err := p.idx.Add(ctx, batch...); err != nil {
			return added, fmt.Errorf("adding batch to index: %w", err)
		}
		added += len(batch)
		p.logger.Debug("batch added", "added", added, "total", len(chunks))
	}
	return added, nil
}
