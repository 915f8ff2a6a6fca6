package core

import (
	"encoding/hex"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

// Metadata keys attached to every chunk.
const (
	MetaSource   = "source"
	MetaPageHint = "page_hint"
)

// ID is a deterministic content identifier for a chunk.
// It is derived from the chunk's source, position, and text, so identical
// content at the same place always collides to the same ID. This is the sole
// deduplication mechanism for the index.
type ID [16]byte

// String returns the hexadecimal form of the ID.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the ID is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// idSep separates the hashed fields. Source names and positions cannot
// contain a NUL byte and chunk text is normalized before hashing, so the
// separator cannot be forged by field contents.
var idSep = []byte{0}

// IDFromChunk generates a deterministic ID from a chunk's identity triple
// using BLAKE2b hashing. Identical inputs always produce identical IDs;
// changing any field changes the ID with overwhelming probability.
func IDFromChunk(source string, position int, text string) ID {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(source))
	h.Write(idSep)
	h.Write([]byte(strconv.Itoa(position)))
	h.Write(idSep)
	h.Write([]byte(text))

	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// IDFromContent generates a deterministic ID from text alone.
// Used to merge retrieval evidence for chunks with identical text.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(text))

	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// Chunk is a bounded-length slice of normalized document text, the atomic
// unit of indexing and retrieval. Chunks are immutable once created; the
// Vector field is populated by the ingestion pipeline before persistence.
type Chunk struct {
	Id       ID
	Source   string
	Position int // 1-based ordinal within the source, a human-facing locator
	Text     string
	Metadata map[string]string
	Vector   []float32 // unit-normalized embedding
}

// NewChunk creates a chunk with its content ID and minimal metadata populated.
func NewChunk(source string, position int, text string) *Chunk {
	return &Chunk{
		Id:       IDFromChunk(source, position, text),
		Source:   source,
		Position: position,
		Text:     text,
		Metadata: map[string]string{
			MetaSource:   source,
			MetaPageHint: strconv.Itoa(position),
		},
	}
}

// RetrievalResult is an ephemeral per-query result. It carries both ranking
// signals alongside the fused score and is never persisted.
type RetrievalResult struct {
	Chunk        *Chunk
	VectorScore  float64 // dense similarity in [0,1], 0 when absent
	KeywordScore float64 // raw keyword hit score, 0 when absent
	Score        float64 // fused final score
}
