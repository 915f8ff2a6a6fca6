package core

import (
	"errors"

	mus "github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrTruncatedData indicates that data was truncated during decoding.
var ErrTruncatedData = errors.New("truncated data")

// MUS serializers for persisted domain types. The index layer uses these to
// encode entries for storage.
var (
	IDMUS    = idMUS{}
	ChunkMUS = chunkMUS{}

	vectorMUS   = ord.NewSliceSer[float32](raw.Float32)
	metadataMUS = ord.NewMapSer[string, string](ord.String, ord.String)
)

var (
	_ mus.Serializer[ID]    = IDMUS
	_ mus.Serializer[Chunk] = ChunkMUS
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) (n int) {
	return copy(bs, id[:])
}

func (idMUS) Unmarshal(bs []byte) (id ID, n int, err error) {
	if len(bs) < len(id) {
		return id, 0, ErrTruncatedData
	}
	n = copy(id[:], bs[:len(id)])
	return id, n, nil
}

func (idMUS) Size(id ID) (size int) {
	return len(id)
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.Source, bs[n:])
	n += varint.Int.Marshal(c.Position, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += metadataMUS.Marshal(c.Metadata, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	c.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return c, n, err
	}
	c.Source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return c, n, err
	}
	c.Position, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return c, n, err
	}
	c.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return c, n, err
	}
	c.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return c, n, err
	}
	c.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	return c, n, err
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.Id)
	size += ord.String.Size(c.Source)
	size += varint.Int.Size(c.Position)
	size += ord.String.Size(c.Text)
	size += metadataMUS.Size(c.Metadata)
	size += vectorMUS.Size(c.Vector)
	return size
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}
