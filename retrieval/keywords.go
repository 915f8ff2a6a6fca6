package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/docsift/docsift/core"
)

// DefaultHitCap bounds how many keyword hits a single scan collects.
const DefaultHitCap = 200

var (
	numberTokenRE = regexp.MustCompile(`[0-9]{3,}`)
	wordTokenRE   = regexp.MustCompile(`\p{L}+`)
)

// queryTokens holds the literal tokens extracted from a query. Numbers are
// digit runs of length >= 3; words are case-folded letter runs, with
// duplicates removed.
type queryTokens struct {
	numbers []string
	words   []string
}

func tokenize(query string) queryTokens {
	tokens := queryTokens{
		numbers: numberTokenRE.FindAllString(query, -1),
	}
	seen := make(map[string]struct{})
	for _, word := range wordTokenRE.FindAllString(strings.ToLower(query), -1) {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		tokens.words = append(tokens.words, word)
	}
	return tokens
}

func (t queryTokens) empty() bool {
	return len(t.numbers) == 0 && len(t.words) == 0
}

// KeywordHit is one chunk matched by a keyword scan with its raw score.
type KeywordHit struct {
	Chunk *core.Chunk
	Score float64
}

// hitKey deduplicates scan hits. Two chunks from differently named sources
// or positions stay distinct even when their text is identical.
type hitKey struct {
	source   string
	position int
	content  core.ID
}

// KeywordScanner finds chunks containing exact number and word matches for
// a query. It is a bounded, best-effort pass over the corpus snapshot, not
// an exhaustive ranked scan.
type KeywordScanner struct {
	cache  *SnapshotCache
	hitCap int
	logger *slog.Logger
}

// ScannerOption configures a KeywordScanner.
type ScannerOption func(*KeywordScanner) error

// WithHitCap sets the maximum number of hits collected per scan.
// Default is DefaultHitCap.
func WithHitCap(limit int) ScannerOption {
	return func(s *KeywordScanner) error {
		if limit < 1 {
			return fmt.Errorf("hit cap must be >= 1, got %d", limit)
		}
		s.hitCap = limit
		return nil
	}
}

// WithScannerLogger sets a custom logger.
// Default is slog.Default().
func WithScannerLogger(logger *slog.Logger) ScannerOption {
	return func(s *KeywordScanner) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewKeywordScanner creates a scanner reading from cache.
func NewKeywordScanner(cache *SnapshotCache, opts ...ScannerOption) (*KeywordScanner, error) {
	if cache == nil {
		return nil, ErrSnapshotCacheRequired
	}
	s := &KeywordScanner{
		cache:  cache,
		hitCap: DefaultHitCap,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Scan returns chunks matching the query's literal tokens, sorted by score
// descending. A hit requires every numeric token to appear as a substring
// AND, when word tokens exist, at least one word to appear
// case-insensitively. Scanning stops once the hit cap is reached.
//
// Score per hit: 2 per numeric-token occurrence plus 1 per occurrence of
// each distinct word token.
func (s *KeywordScanner) Scan(ctx context.Context, query string) ([]*KeywordHit, error) {
	tokens := tokenize(query)
	if tokens.empty() {
		return nil, nil
	}

	snapshot, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[hitKey]struct{})
	var hits []*KeywordHit
	for _, chunk := range snapshot.Chunks() {
		score, ok := scoreChunk(chunk.Text, tokens)
		if !ok {
			continue
		}
		key := hitKey{
			source:   chunk.Source,
			position: chunk.Position,
			content:  core.IDFromContent(chunk.Text),
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		hits = append(hits, &KeywordHit{Chunk: chunk, Score: score})
		if len(hits) >= s.hitCap {
			s.logger.Debug("keyword scan hit cap reached", "cap", s.hitCap)
			break
		}
	}

	slices.SortStableFunc(hits, func(a, b *KeywordHit) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Chunk.Text, b.Chunk.Text)
	})
	return hits, nil
}

// scoreChunk checks one chunk against the query tokens. All numeric
// tokens must match; words match as OR when any exist. Either token class
// alone can carry a hit.
func scoreChunk(text string, tokens queryTokens) (float64, bool) {
	score := 0.0
	for _, number := range tokens.numbers {
		occurrences := strings.Count(text, number)
		if occurrences == 0 {
			return 0, false
		}
		score += 2 * float64(occurrences)
	}

	if len(tokens.words) > 0 {
		lower := strings.ToLower(text)
		wordScore := 0.0
		for _, word := range tokens.words {
			wordScore += float64(strings.Count(lower, word))
		}
		if wordScore == 0 {
			return 0, false
		}
		score += wordScore
	}
	return score, true
}
