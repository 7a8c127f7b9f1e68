package retrieval

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/siherrmann/hiersearch/core/indexer"
	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// topicEmbedding maps texts about notice periods and gardens on orthogonal axes
func topicEmbedding(text string) ([]float32, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "préavis"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(lower, "jardin"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func TestRetrieveFromStore(t *testing.T) {
	store := initHandlers(t, 3)
	ctx := context.Background()

	registry := pipeline.NewRegistry("fr", 3,
		pipeline.WithEmbedder("fr", pipeline.EmbedFunc(topicEmbedding)),
		pipeline.WithProcessor("fr", pipeline.NewRuleProcessor("fr")),
	)

	root := model.RawEntry{
		Type:          model.EntryTypePage,
		Path:          "/logement",
		Title:         "Logement",
		Content:       "Guide du locataire.",
		Language:      "fr",
		FirstSeenDate: "01/15/2024",
		Children: []model.RawEntry{
			{
				Type:          model.EntryTypeSection,
				Path:          "/logement/preavis",
				Title:         "Préavis",
				Content:       "Le préavis de départ dure un mois en zone tendue.",
				Language:      "fr",
				FirstSeenDate: "01/15/2024",
			},
			{
				Type:          model.EntryTypeSection,
				Path:          "/logement/jardin",
				Title:         "Jardin",
				Content:       "Le locataire entretient le jardin et taille les haies.",
				Language:      "fr",
				FirstSeenDate: "01/15/2024",
			},
		},
	}

	stats, err := indexer.NewIndexer(store, registry).Index(ctx, &root)
	require.NoError(t, err, "Expected the tree to be indexed")
	assert.Equal(t, 3, stats.ChunksWritten)

	engine := NewEngine(store, registry, nil)
	engine.now = func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) }

	t.Run("Dense retrieval ranks the chunk with the identical embedding first", func(t *testing.T) {
		options := model.DefaultRetrieveOptions()
		options.Mode = "dense"

		retrieval, err := engine.Retrieve(ctx, "Combien de temps dure le préavis ?", options)
		require.NoError(t, err)
		require.NotEmpty(t, retrieval.Supports)
		assert.Equal(t, "Préavis", retrieval.Supports[0].Title)
		assert.Equal(t, []float32{1, 0, 0}, retrieval.QuestionEmbedding)
		assert.Equal(t, 3, retrieval.TotalHits)
		assert.Equal(t, retrieval.Supports[0].Score, retrieval.MaxScore)
		assert.Equal(t, "Logement", retrieval.Supports[0].Chunk.ParentTitle)
	})

	t.Run("Sparse retrieval only returns lexical matches", func(t *testing.T) {
		options := model.DefaultRetrieveOptions()
		options.Mode = "sparse"

		retrieval, err := engine.Retrieve(ctx, "haies du jardin", options)
		require.NoError(t, err)
		require.NotEmpty(t, retrieval.Supports)
		assert.Equal(t, "Jardin", retrieval.Supports[0].Title)
		for _, support := range retrieval.Supports {
			assert.NotEqual(t, "Préavis", support.Title, "Expected the notice section to not match")
		}
	})

	t.Run("Hybrid retrieval adds both scores", func(t *testing.T) {
		options := model.DefaultRetrieveOptions()
		options.Mode = "hybrid"

		hybrid, err := engine.Retrieve(ctx, "préavis", options)
		require.NoError(t, err)
		require.NotEmpty(t, hybrid.Supports)
		assert.Equal(t, "Préavis", hybrid.Supports[0].Title)

		options.Mode = "dense"
		dense, err := engine.Retrieve(ctx, "préavis", options)
		require.NoError(t, err)
		assert.Greater(t, hybrid.MaxScore, dense.MaxScore)
	})
}
