package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/core"
)

func TestMarshalUnmarshalID(t *testing.T) {
	id := core.IDFromChunk("manual.pdf", 4, "chunk text")

	data := MarshalID(id)
	require.Len(t, data, 16)

	decoded, err := UnmarshalID(data)
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
}

func TestUnmarshalID_Truncated(t *testing.T) {
	_, err := UnmarshalID([]byte{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	chunk := core.NewChunk("kılavuz.pdf", 7, "ağ arayüzleri listelenir")
	chunk.Vector = []float32{0.25, -0.5, 0.75}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)

	assert.Equal(t, chunk.Id, decoded.Id)
	assert.Equal(t, chunk.Source, decoded.Source)
	assert.Equal(t, chunk.Position, decoded.Position)
	assert.Equal(t, chunk.Text, decoded.Text)
	assert.Equal(t, chunk.Metadata, decoded.Metadata)
	assert.Equal(t, chunk.Vector, decoded.Vector)
}

func TestUnmarshalChunk_Garbage(t *testing.T) {
	_, err := UnmarshalChunk([]byte{0xff})
	assert.Error(t, err)
}
