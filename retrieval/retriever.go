package retrieval

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/docsift/docsift/ai"
	"github.com/docsift/docsift/core"
	"github.com/docsift/docsift/index"
)

// Fusion parameters. Vector similarity lives in [0,1]; raw keyword scores
// are rescaled by keywordNorm into a comparable range before weighting.
const (
	vectorWeight  = 0.6
	keywordWeight = 0.4
	keywordNorm   = 10.0

	// minKeywordResults is the floor on result-set size for the
	// keyword-only branch.
	minKeywordResults = 6
	// minVectorCandidates is the floor on candidate-set size for the
	// vector query in the fused branch.
	minVectorCandidates = 12
)

// numericQueryRE matches queries that are essentially one long number:
// a single run of at least three digits with only non-digit characters
// around it.
var numericQueryRE = regexp.MustCompile(`^\D*\d{3,}\D*$`)

// Retriever fuses dense vector similarity and exact keyword evidence into
// one ranked result set.
type Retriever struct {
	idx      index.Index
	embedder ai.Embedder
	scanner  *KeywordScanner
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithScanner sets a custom keyword scanner. By default the retriever
// builds one over a fresh snapshot cache of the index.
func WithScanner(scanner *KeywordScanner) Option {
	return func(r *Retriever) error {
		if scanner == nil {
			return ErrSnapshotCacheRequired
		}
		r.scanner = scanner
		return nil
	}
}

// NewRetriever creates a new hybrid retriever.
func NewRetriever(idx index.Index, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		idx:      idx,
		embedder: embedder,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.scanner == nil {
		cache, err := NewSnapshotCache(idx, WithCacheLogger(r.logger))
		if err != nil {
			return nil, err
		}
		scanner, err := NewKeywordScanner(cache, WithScannerLogger(r.logger))
		if err != nil {
			return nil, err
		}
		r.scanner = scanner
	}
	return r, nil
}

// Retrieve returns up to topK passages relevant to the query, ranked by
// fused score.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]*core.RetrievalResult, error) {
	return r.RetrieveWithMonitor(ctx, query, topK, nil)
}

// RetrieveWithMonitor retrieves with monitoring. The monitor receives
// callbacks at each stage of the retrieval process.
//
// Queries that are essentially one long number are answered from keyword
// evidence alone when any keyword hit exists; the vector query is skipped
// entirely because exact numeric lookups are a poor fit for dense
// embeddings. All other queries fuse vector similarity and keyword scores.
// An empty result set means no evidence was found; it is not an error.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, topK int, monitor RetrievalMonitor) ([]*core.RetrievalResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if topK < 1 {
		return nil, ErrInvalidTopK
	}

	monitor.Start(query, topK)

	hits, err := r.scanner.Scan(ctx, query)
	if err != nil {
		r.logger.Error("keyword scan failed", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterKeywordScan(hits)

	if numericQueryRE.MatchString(query) && len(hits) > 0 {
		results := r.keywordOnly(hits, topK)
		monitor.NumericShortCircuit(hits)
		monitor.Finish(results)
		return results, nil
	}

	results, err := r.fused(ctx, query, hits, topK, monitor)
	if err != nil {
		return nil, err
	}
	monitor.Finish(results)
	return results, nil
}

// keywordOnly ranks keyword hits on their own, normalized against the best
// hit in the set and scaled below a confident vector match.
func (r *Retriever) keywordOnly(hits []*KeywordHit, topK int) []*core.RetrievalResult {
	limit := min(max(topK, minKeywordResults), len(hits))
	maxScore := hits[0].Score

	results := make([]*core.RetrievalResult, 0, limit)
	for _, hit := range hits[:limit] {
		results = append(results, &core.RetrievalResult{
			Chunk:        hit.Chunk,
			KeywordScore: hit.Score,
			Score:        keywordWeight * (hit.Score / maxScore),
		})
	}
	return results
}

// fused embeds the query, gathers vector candidates, and merges them with
// the keyword hits by content identity. A chunk present in only one signal
// scores zero for the other.
func (r *Retriever) fused(ctx context.Context, query string, hits []*KeywordHit, topK int, monitor RetrievalMonitor) ([]*core.RetrievalResult, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	matches, err := r.idx.Query(ctx, vector, max(topK, minVectorCandidates))
	if err != nil {
		r.logger.Error("error querying index for similar chunks", "err", err)
		return nil, err
	}
	monitor.AfterVectorSearch(matches)

	merged := make(map[core.ID]*core.RetrievalResult)
	for _, match := range matches {
		key := core.IDFromContent(match.Chunk.Text)
		merged[key] = &core.RetrievalResult{
			Chunk:       match.Chunk,
			VectorScore: 1.0 / (1.0 + match.Distance),
		}
	}
	for _, hit := range hits {
		key := core.IDFromContent(hit.Chunk.Text)
		if result, ok := merged[key]; ok {
			result.KeywordScore = hit.Score
			continue
		}
		merged[key] = &core.RetrievalResult{
			Chunk:        hit.Chunk,
			KeywordScore: hit.Score,
		}
	}

	results := make([]*core.RetrievalResult, 0, len(merged))
	for _, result := range merged {
		result.Score = vectorWeight*result.VectorScore + keywordWeight*(result.KeywordScore/keywordNorm)
		results = append(results, result)
	}

	// Map iteration is unordered; the text tie-break keeps rankings
	// deterministic for identical inputs.
	slices.SortStableFunc(results, func(a, b *core.RetrievalResult) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Chunk.Text, b.Chunk.Text)
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
