package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDim is the dimension of the chunks table shared by the tests of the package
const testDim = 3

func newTestChunk(hash string, originalHash string, start int, content string) *model.Chunk {
	return &model.Chunk{
		Type:                   model.EntryTypePage,
		Path:                   "/docs/" + originalHash,
		Title:                  "Titre",
		Content:                content,
		Language:               "fr",
		ChunkHash:              hash,
		OriginalHash:           originalHash,
		ChunkStart:             start,
		PageContent:            content,
		LemmaContent:           content,
		LemmaPageContent:       content,
		Keywords:               []string{"Paris"},
		Links:                  model.Links{{Path: "https://example.com", Start: 0, Name: "example"}},
		TitleEmbedding:         []float32{1, 0, 0},
		ContentEmbedding:       []float32{0, 1, 0},
		ParentTitleEmbedding:   model.EpsilonVector(testDim),
		ParentContentEmbedding: model.EpsilonVector(testDim),
		FirstSeenDate:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func truncateChunks(t *testing.T, database *helper.Database) {
	_, err := database.Instance.Exec(`TRUNCATE chunks;`)
	require.NoError(t, err, "Expected truncate of chunks to not return an error")
}

func TestChunksNewChunksDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewChunksDBHandler", func(t *testing.T) {
		chunksDbHandler, err := NewChunksDBHandler(database, testDim, true)
		assert.NoError(t, err, "Expected NewChunksDBHandler to not return an error")
		require.NotNil(t, chunksDbHandler, "Expected NewChunksDBHandler to return a non-nil instance")
		require.NotNil(t, chunksDbHandler.db, "Expected NewChunksDBHandler to have a non-nil database instance")
		require.NotNil(t, chunksDbHandler.db.Instance, "Expected NewChunksDBHandler to have a non-nil database connection instance")
		assert.Equal(t, testDim, chunksDbHandler.Dimension())
	})

	t.Run("Invalid call NewChunksDBHandler with nil database", func(t *testing.T) {
		_, err := NewChunksDBHandler(nil, testDim, false)
		assert.Error(t, err, "Expected error when creating ChunksDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})

	t.Run("Invalid call NewChunksDBHandler with zero dimension", func(t *testing.T) {
		_, err := NewChunksDBHandler(database, 0, false)
		assert.Error(t, err, "Expected error when creating ChunksDBHandler without dimension")
		assert.Contains(t, err.Error(), "embedding dimension must be positive")
	})
}

func TestChunksUpsert(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	chunksDbHandler, err := NewChunksDBHandler(database, testDim, true)
	require.NoError(t, err, "Expected NewChunksDBHandler to not return an error")

	t.Run("Upsert and select chunk", func(t *testing.T) {
		chunk := newTestChunk("upsert-1", "entry-upsert", 0, "Le conseil municipal se réunit lundi.")

		err := chunksDbHandler.UpsertChunk(ctx, chunk)
		require.NoError(t, err, "Expected UpsertChunk to not return an error")
		assert.WithinDuration(t, time.Now(), chunk.IndexedAt, 5*time.Second, "Expected IndexedAt to be set")

		selected, err := chunksDbHandler.SelectChunk(ctx, "upsert-1")
		require.NoError(t, err, "Expected SelectChunk to not return an error")
		assert.Equal(t, chunk.Content, selected.Content)
		assert.Equal(t, chunk.Title, selected.Title)
		assert.Equal(t, model.EntryTypePage, selected.Type)
		assert.Equal(t, "entry-upsert", selected.OriginalHash)
		assert.Equal(t, []string{"Paris"}, selected.Keywords)
		assert.Equal(t, chunk.Links, selected.Links)
		assert.Equal(t, chunk.TitleEmbedding, selected.TitleEmbedding)
		assert.Equal(t, chunk.ContentEmbedding, selected.ContentEmbedding)
		assert.Len(t, selected.ParentContentEmbedding, testDim)
		assert.True(t, chunk.FirstSeenDate.Equal(selected.FirstSeenDate), "Expected first seen date to round trip")
	})

	t.Run("Upsert same chunk hash replaces the chunk", func(t *testing.T) {
		count, err := chunksDbHandler.CountChunks(ctx)
		require.NoError(t, err)

		chunk := newTestChunk("upsert-1", "entry-upsert", 0, "Le conseil municipal se réunit mardi.")
		err = chunksDbHandler.UpsertChunk(ctx, chunk)
		require.NoError(t, err)

		after, err := chunksDbHandler.CountChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, count, after, "Expected no new row for an existing chunk hash")

		selected, err := chunksDbHandler.SelectChunk(ctx, "upsert-1")
		require.NoError(t, err)
		assert.Equal(t, "Le conseil municipal se réunit mardi.", selected.Content)
	})

	t.Run("Upsert chunk without embeddings and date", func(t *testing.T) {
		chunk := newTestChunk("upsert-bare", "entry-bare", 0, "Contenu sans vecteur")
		chunk.TitleEmbedding = nil
		chunk.ContentEmbedding = nil
		chunk.ParentTitleEmbedding = nil
		chunk.ParentContentEmbedding = nil
		chunk.FirstSeenDate = time.Time{}
		chunk.Keywords = nil
		chunk.Links = nil

		err := chunksDbHandler.UpsertChunk(ctx, chunk)
		require.NoError(t, err)

		selected, err := chunksDbHandler.SelectChunk(ctx, "upsert-bare")
		require.NoError(t, err)
		assert.Nil(t, selected.ContentEmbedding)
		assert.Nil(t, selected.TitleEmbedding)
		assert.True(t, selected.FirstSeenDate.IsZero())
		assert.Empty(t, selected.Links)
		assert.Empty(t, selected.Keywords)
	})

	t.Run("Upsert chunk without hash fails", func(t *testing.T) {
		chunk := newTestChunk("", "entry-upsert", 0, "Sans identité")
		err := chunksDbHandler.UpsertChunk(ctx, chunk)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "chunk hash is empty")
	})

	t.Run("Upsert chunk with wrong dimension fails", func(t *testing.T) {
		chunk := newTestChunk("upsert-dim", "entry-upsert", 0, "Mauvaise dimension")
		chunk.ContentEmbedding = []float32{1, 2}
		err := chunksDbHandler.UpsertChunk(ctx, chunk)
		assert.Error(t, err, "Expected the store to reject a vector of the wrong dimension")
	})
}

func TestChunksSelectAndDelete(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	chunksDbHandler, err := NewChunksDBHandler(database, testDim, true)
	require.NoError(t, err)

	for i, content := range []string{"Premier paragraphe.", "Deuxième paragraphe.", "Troisième paragraphe."} {
		hash := "select-" + string(rune('a'+i))
		// Inserted in reverse order to check the ordering by chunk start
		err := chunksDbHandler.UpsertChunk(ctx, newTestChunk(hash, "entry-select", 100*(2-i), content))
		require.NoError(t, err)
	}

	t.Run("Select chunks by original hash ordered by start", func(t *testing.T) {
		chunks, err := chunksDbHandler.SelectChunksByOriginalHash(ctx, "entry-select")
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, 0, chunks[0].ChunkStart)
		assert.Equal(t, 100, chunks[1].ChunkStart)
		assert.Equal(t, 200, chunks[2].ChunkStart)
		assert.Equal(t, "Troisième paragraphe.", chunks[0].Content)
	})

	t.Run("Select chunks of an unknown entry", func(t *testing.T) {
		chunks, err := chunksDbHandler.SelectChunksByOriginalHash(ctx, "entry-unknown")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("Delete chunk", func(t *testing.T) {
		err := chunksDbHandler.DeleteChunk(ctx, "select-a")
		require.NoError(t, err)

		_, err = chunksDbHandler.SelectChunk(ctx, "select-a")
		assert.ErrorIs(t, err, sql.ErrNoRows, "Expected a deleted chunk to not be found")
	})

	t.Run("Delete chunks by original hash", func(t *testing.T) {
		deleted, err := chunksDbHandler.DeleteChunksByOriginalHash(ctx, "entry-select")
		require.NoError(t, err)
		assert.Equal(t, 2, deleted)

		chunks, err := chunksDbHandler.SelectChunksByOriginalHash(ctx, "entry-select")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})
}
