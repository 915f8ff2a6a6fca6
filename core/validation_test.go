package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:  "valid chunk",
			chunk: NewChunk("manual.pdf", 1, "some text"),
		},
		{
			name:  "valid chunk without id",
			chunk: &Chunk{Source: "manual.pdf", Position: 1, Text: "some text"},
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty text",
			chunk:   &Chunk{Source: "manual.pdf", Position: 1},
			wantErr: ErrEmptyText,
		},
		{
			name:    "empty source",
			chunk:   &Chunk{Position: 1, Text: "some text"},
			wantErr: ErrEmptySource,
		},
		{
			name:    "zero position",
			chunk:   &Chunk{Source: "manual.pdf", Text: "some text"},
			wantErr: ErrInvalidPosition,
		},
		{
			name: "id not matching content",
			chunk: &Chunk{
				Id:       IDFromContent("something else"),
				Source:   "manual.pdf",
				Position: 1,
				Text:     "some text",
			},
			wantErr: ErrInvalidID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidChunk)
		})
	}
}
