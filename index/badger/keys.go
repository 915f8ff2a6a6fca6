package badger

import (
	"github.com/docsift/docsift/core"
	"github.com/docsift/docsift/index"
)

// Key prefixes for different data types
const (
	chunkPrefix  = "chunk:"
	sourcePrefix = "chunksrc:"
)

// sourceSep terminates the source name inside a source index key so that
// one source name can never be a key-prefix of another.
const sourceSep = byte(0)

// makeChunkKey generates the primary key for a chunk by content ID.
func makeChunkKey(id core.ID) []byte {
	key := make([]byte, 0, len(chunkPrefix)+len(id))
	key = append(key, chunkPrefix...)
	key = append(key, index.MarshalID(id)...)
	return key
}

// makeSourceKey generates a composite key for the source index.
// Format: prefix + source + NUL + id
func makeSourceKey(source string, id core.ID) []byte {
	key := make([]byte, 0, len(sourcePrefix)+len(source)+1+len(id))
	key = append(key, sourcePrefix...)
	key = append(key, source...)
	key = append(key, sourceSep)
	key = append(key, index.MarshalID(id)...)
	return key
}

// makeSourceScanPrefix generates the iteration prefix covering every source
// index key for one source.
func makeSourceScanPrefix(source string) []byte {
	key := make([]byte, 0, len(sourcePrefix)+len(source)+1)
	key = append(key, sourcePrefix...)
	key = append(key, source...)
	key = append(key, sourceSep)
	return key
}
