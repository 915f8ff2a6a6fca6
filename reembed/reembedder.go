// Copyright 2025 Docsift Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/docsift/docsift/ai"
	"github.com/docsift/docsift/core"
	"github.com/docsift/docsift/index"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks sent to the embedder per call
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder recomputes every stored embedding, for use after switching
// embedding models. Chunks are rewritten one source document at a time:
// all of a source's chunks are re-embedded first, then its entries are
// swapped in one index transaction, so a failure mid-run leaves every
// source either fully old or fully new.
type Reembedder struct {
	idx      index.Index
	embedder ai.Embedder
	config   *Config
	progress io.Writer
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(idx index.Index, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	return &Reembedder{
		idx:      idx,
		embedder: embedder,
		config:   config,
		progress: progress,
	}, nil
}

// Run re-embeds every chunk in the index with the configured embedder.
func (r *Reembedder) Run(ctx context.Context) error {
	bySource, total, err := r.loadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in index (0 chunks)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks across %d sources (batch size: %d)\n",
		total, len(bySource), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	sources := make([]string, 0, len(bySource))
	for source := range bySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	processed := 0
	for _, source := range sources {
		chunks := bySource[source]
		if err := r.reembedSource(ctx, source, chunks); err != nil {
			return fmt.Errorf("failed to reembed source %s: %w", source, err)
		}
		processed += len(chunks)
		tracker.Update(processed)
	}

	tracker.Finish()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())
	return nil
}

// loadAll pages the whole index into memory, grouped by source.
func (r *Reembedder) loadAll(ctx context.Context) (map[string][]*core.Chunk, int, error) {
	bySource := make(map[string][]*core.Chunk)
	total := 0
	for offset := 0; ; offset += r.config.BatchSize {
		page, err := r.idx.List(ctx, offset, r.config.BatchSize)
		if err != nil {
			return nil, 0, err
		}
		for _, chunk := range page {
			bySource[chunk.Source] = append(bySource[chunk.Source], chunk)
			total++
		}
		if len(page) < r.config.BatchSize {
			break
		}
	}
	for _, chunks := range bySource {
		sort.Slice(chunks, func(i, j int) bool { return chunks[i].Position < chunks[j].Position })
	}
	return bySource, total, nil
}

// reembedSource recomputes vectors for one source's chunks, then swaps the
// source's entries in the index.
func (r *Reembedder) reembedSource(ctx context.Context, source string, chunks []*core.Chunk) error {
	for start := 0; start < len(chunks); start += r.config.BatchSize {
		end := min(start+r.config.BatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		var vectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vectors, embedErr = r.embedder.EmbedPassages(ctx, texts)
			return embedErr
		}, r.config.MaxRetries, r.config.RetryDelay)
		if err != nil {
			return err
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(vectors))
		}
		for i, chunk := range batch {
			chunk.Vector = vectors[i]
		}
	}

	// Swap only after every vector for this source is computed. The swap
	// is a single index transaction, so a failure here cannot strand the
	// source half-deleted.
	return r.idx.ReplaceSource(ctx, source, chunks...)
}
