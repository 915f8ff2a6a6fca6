package docsift

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/ai"
	"github.com/docsift/docsift/reembed"
)

func TestOpenLibrary(t *testing.T) {
	t.Run("create new library", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_index")
		library, err := OpenLibrary(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, library)
		defer library.Close()

		// Verify components are initialized
		assert.NotNil(t, library.Index())
		assert.NotNil(t, library.Provider())
		assert.NotNil(t, library.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to open an index at a file path instead of a directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		library, err := OpenLibrary(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, library)
	})

	t.Run("rejects invalid ai config", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_index")
		library, err := OpenLibrary(tmpDir, WithAIConfig(&ai.Config{}))
		assert.Error(t, err)
		assert.Nil(t, library)
	})
}

func TestLibrary_Close(t *testing.T) {
	tmpDir := t.TempDir()
	library, err := OpenLibrary(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, library)

	err = library.Close()
	assert.NoError(t, err)
}

func TestLibrary_FactoryMethods(t *testing.T) {
	tmpDir := t.TempDir()
	library, err := OpenLibrary(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, library)
	defer library.Close()

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := library.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create retriever", func(t *testing.T) {
		retriever, err := library.NewRetriever()
		require.NoError(t, err)
		require.NotNil(t, retriever)
	})

	t.Run("can create composer", func(t *testing.T) {
		composer, err := library.NewComposer()
		require.NoError(t, err)
		require.NotNil(t, composer)
	})

	t.Run("can create reembedder", func(t *testing.T) {
		reembedder, err := library.NewReembedder(reembed.DefaultConfig(), os.Stderr)
		require.NoError(t, err)
		require.NotNil(t, reembedder)
	})
}
