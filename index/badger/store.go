package badger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/docsift/docsift/core"
	"github.com/docsift/docsift/index"
)

// Store implements index.Index on top of BadgerDB.
//
// Each chunk is stored under its content-identifier key together with a
// secondary index entry keyed by source name, so delete-by-source does not
// require a full scan. Similarity queries are a brute-force pass over all
// entries; with unit-normalized vectors the cosine distance is one minus
// the dot product.
type Store struct {
	backend    *backend
	generation atomic.Uint64
	logger     *slog.Logger
}

var _ index.Index = (*Store)(nil)

// Open opens a durable index at the given directory, creating it if needed.
//
// Returns index.Index interface to enforce abstraction.
func Open(filePath string) (index.Index, error) {
	return open(filePath, false)
}

func open(filePath string, inMemory bool) (*Store, error) {
	backend, err := openBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}
	return &Store{
		backend: backend,
		logger:  slog.Default().With("component", "badger-index"),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.backend.close()
}

// Generation returns the current content generation. The counter starts at
// zero on open and is bumped on every successful Add, DeleteBySource,
// ReplaceSource, and Drop, so it tracks changes within one process
// lifetime only.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// Add persists chunks keyed by their content identifiers.
// Fails with ErrDuplicateID if any chunk's ID is already indexed; the whole
// batch is rolled back in that case.
func (s *Store) Add(ctx context.Context, chunks ...*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	err := s.backend.withTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if err := putChunk(tx, chunk); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	s.generation.Add(1)
	return nil
}

// Get retrieves the chunks for the given IDs.
// Returns only the chunks that exist (no error for missing IDs).
func (s *Store) Get(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	var result []*core.Chunk
	err := s.backend.withTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)
	return result, err
}

// DeleteBySource removes every chunk whose source matches.
// Returns the number of chunks removed.
func (s *Store) DeleteBySource(ctx context.Context, source string) (int, error) {
	var removed int
	err := s.backend.withTx(func(tx *badger.Txn) error {
		var err error
		removed, err = deleteSource(tx, source)
		if err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.generation.Add(1)
	}
	return removed, nil
}

// ReplaceSource swaps every chunk of a source for the given chunks. The
// delete and the re-add share one transaction, so a failed replace (bad
// chunk, conflicting ID) leaves the source's old entries in place.
func (s *Store) ReplaceSource(ctx context.Context, source string, chunks ...*core.Chunk) error {
	err := s.backend.withTx(func(tx *badger.Txn) error {
		if _, err := deleteSource(tx, source); err != nil {
			return err
		}
		for _, chunk := range chunks {
			if err := putChunk(tx, chunk); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	s.generation.Add(1)
	return nil
}

// Query returns the k entries nearest to the given vector, ordered by
// ascending cosine distance.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]*index.Match, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", index.ErrInvalidQuery, k)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", index.ErrInvalidQuery)
	}

	var matches []*index.Match
	err := s.backend.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = index.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Vector) == 0 {
				continue
			}

			matches = append(matches, &index.Match{
				Chunk:    chunk,
				Distance: 1 - dotProduct(vector, chunk.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(matches, func(a, b *index.Match) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// List returns up to limit chunks starting at offset, in content-ID key
// order. The order is arbitrary but stable for unchanged content.
func (s *Store) List(ctx context.Context, offset, limit int) ([]*core.Chunk, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: negative offset or limit", index.ErrInvalidQuery)
	}

	var result []*core.Chunk
	err := s.backend.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		skipped := 0
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if limit > 0 && len(result) >= limit {
				break
			}

			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = index.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)
	return result, err
}

// Count returns the total number of indexed chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.backend.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Drop removes all indexed content.
func (s *Store) Drop(ctx context.Context) error {
	if s.backend.isClosed() {
		return index.ErrStorageClosed
	}
	if err := s.backend.db.DropPrefix([]byte(chunkPrefix), []byte(sourcePrefix)); err != nil {
		return err
	}
	s.generation.Add(1)
	s.logger.Info("index dropped")
	return nil
}

// putChunk writes one chunk and its source index entry into tx.
// Rejects IDs already visible to the transaction; a delete earlier in the
// same transaction frees the ID for re-adding.
func putChunk(tx *badger.Txn, chunk *core.Chunk) error {
	if err := core.ValidateChunk(chunk); err != nil {
		return err
	}

	key := makeChunkKey(chunk.Id)
	if _, err := tx.Get(key); err == nil {
		return fmt.Errorf("%w: %s", index.ErrDuplicateID, chunk.Id)
	} else if err != badger.ErrKeyNotFound {
		return err
	}

	if err := tx.Set(key, index.MarshalChunk(chunk)); err != nil {
		return err
	}
	return tx.Set(makeSourceKey(chunk.Source, chunk.Id), index.MarshalID(chunk.Id))
}

// deleteSource removes every entry of a source within tx and returns the
// number of chunks removed.
func deleteSource(tx *badger.Txn, source string) (int, error) {
	prefix := makeSourceScanPrefix(source)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	var victims []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		id, err := index.UnmarshalID(key[len(prefix):])
		if err != nil {
			iter.Close()
			return 0, err
		}
		victims = append(victims, id)
	}
	iter.Close()

	for _, id := range victims {
		if err := tx.Delete(makeChunkKey(id)); err != nil {
			return 0, err
		}
		if err := tx.Delete(makeSourceKey(source, id)); err != nil {
			return 0, err
		}
	}
	return len(victims), nil
}

func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = index.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float64 {
	var sum float64
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
