package indexer

import (
	"errors"
	"testing"

	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMetadata(t *testing.T) {
	chunk := &model.Chunk{Title: "T", Content: "0123456789", ChunkStart: 10, Language: "fr"}

	t.Run("Keeps links strictly inside the chunk", func(t *testing.T) {
		links := []model.Link{
			{Path: "/before", Start: 5},
			{Path: "/at-start", Start: 10},
			{Path: "/inside", Start: 11},
			{Path: "/last", Start: 19},
			{Path: "/at-end", Start: 20},
			{Path: "/after", Start: 25},
		}

		meta, err := BuildMetadata(chunk, links, testRegistry(), pipeline.EmbeddingModeAll)

		require.NoError(t, err)
		assert.Equal(t, []model.Link{{Path: "/inside", Start: 11}, {Path: "/last", Start: 19}}, meta.Links)
		for _, l := range meta.Links {
			assert.True(t, chunk.ChunkStart < l.Start && l.Start < chunk.End())
		}
	})

	t.Run("Embeds content and title", func(t *testing.T) {
		meta, err := BuildMetadata(chunk, nil, testRegistry(), pipeline.EmbeddingModeAll)

		require.NoError(t, err)
		assert.Equal(t, testEmbedding("0123456789"), meta.ContentEmbedding)
		assert.Equal(t, testEmbedding("T"), meta.TitleEmbedding)
		assert.NotNil(t, meta.Links)
		assert.Empty(t, meta.Links)
	})

	t.Run("Does not modify the chunk", func(t *testing.T) {
		c := &model.Chunk{Title: "T", Content: "abc", Language: "fr"}

		_, err := BuildMetadata(c, []model.Link{{Start: 1}}, testRegistry(), pipeline.EmbeddingModeAll)

		require.NoError(t, err)
		assert.Nil(t, c.ContentEmbedding)
		assert.Nil(t, c.TitleEmbedding)
		assert.Nil(t, c.Links)
	})

	t.Run("Falls back to the default language embedder", func(t *testing.T) {
		c := &model.Chunk{Title: "T", Content: "AA", Language: "de"}

		meta, err := BuildMetadata(c, nil, testRegistry(), pipeline.EmbeddingModeAll)

		require.NoError(t, err)
		assert.Equal(t, testEmbedding("AA"), meta.ContentEmbedding)
	})

	t.Run("Missing embedder is a configuration error", func(t *testing.T) {
		registry := pipeline.NewRegistry("fr", testDim)

		_, err := BuildMetadata(chunk, nil, registry, pipeline.EmbeddingModeAll)

		assert.ErrorIs(t, err, model.ErrMissingLanguageModel)
	})

	t.Run("Embedder failure is an embedding error", func(t *testing.T) {
		c := &model.Chunk{Title: "T", Content: "FAIL here", Language: "fr"}

		_, err := BuildMetadata(c, nil, testRegistry(), pipeline.EmbeddingModeAll)

		assert.ErrorIs(t, err, model.ErrEmbeddingFailed)
		assert.False(t, errors.Is(err, model.ErrMissingLanguageModel))
	})

	t.Run("Wrong dimension is an embedding error", func(t *testing.T) {
		registry := pipeline.NewRegistry("fr", 5, pipeline.WithEmbedder("fr", pipeline.EmbedFunc(testEmbedder)))

		_, err := BuildMetadata(chunk, nil, registry, pipeline.EmbeddingModeAll)

		assert.ErrorIs(t, err, model.ErrEmbeddingFailed)
	})
}
