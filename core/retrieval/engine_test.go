package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	calls   int
	queries []*model.SearchQuery
	result  *model.SearchResult
	err     error
}

func (f *fakeSearcher) SearchChunks(_ context.Context, query *model.SearchQuery) (*model.SearchResult, error) {
	f.calls++
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(text string, _ pipeline.EmbeddingMode) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{1, 0, 0}, nil
}

func newTestEngine(searcher Searcher, embedder pipeline.Embedder) *Engine {
	registry := pipeline.NewRegistry("fr", 3,
		pipeline.WithEmbedder("fr", embedder),
		pipeline.WithProcessor("fr", pipeline.NewRuleProcessor("fr")),
	)
	engine := NewEngine(searcher, registry, nil)
	engine.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return engine
}

func TestRetrieve(t *testing.T) {
	chunk := &model.Chunk{
		Title:         "Préavis",
		Content:       "Le préavis dure un mois.",
		Links:         model.Links{{Path: "/preavis", Start: 3}},
		FirstSeenDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("Unknown mode fails before any model or store call", func(t *testing.T) {
		searcher := &fakeSearcher{}
		embedder := &countingEmbedder{}
		options := model.DefaultRetrieveOptions()
		options.Mode = "fuzzy"

		retrieval, err := newTestEngine(searcher, embedder).Retrieve(context.Background(), "question", options)

		assert.ErrorIs(t, err, model.ErrUnknownRetrieveMode)
		assert.Nil(t, retrieval)
		assert.Equal(t, 0, searcher.calls)
		assert.Equal(t, 0, embedder.calls)
	})

	t.Run("Flattens hits into supports", func(t *testing.T) {
		searcher := &fakeSearcher{result: &model.SearchResult{
			Hits:      []*model.Hit{{Score: 4.5, Chunk: chunk}},
			MaxScore:  4.5,
			TotalHits: 12,
		}}

		retrieval, err := newTestEngine(searcher, &countingEmbedder{}).Retrieve(context.Background(), "Quelle est la durée du préavis ?", model.DefaultRetrieveOptions())

		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0, 0}, retrieval.QuestionEmbedding)
		assert.Equal(t, 4.5, retrieval.MaxScore)
		assert.Equal(t, 12, retrieval.TotalHits)
		require.Len(t, retrieval.Supports, 1)
		support := retrieval.Supports[0]
		assert.Equal(t, 4.5, support.Score)
		assert.Equal(t, chunk.Content, support.Content)
		assert.Equal(t, chunk.Title, support.Title)
		assert.Equal(t, chunk.FirstSeenDate, support.Date)
		assert.Equal(t, []string{"/preavis"}, support.Link)
		assert.Equal(t, model.ElectedNone, support.Elected)
		assert.Same(t, chunk, support.Chunk)
	})

	t.Run("Builds the query of the mode with the question lemmas", func(t *testing.T) {
		searcher := &fakeSearcher{result: &model.SearchResult{}}
		options := model.DefaultRetrieveOptions()
		options.Mode = "hybrid"
		options.RetrieveNb = 3

		_, err := newTestEngine(searcher, &countingEmbedder{}).Retrieve(context.Background(), "Quelle est la durée du préavis ?", options)

		require.NoError(t, err)
		require.Len(t, searcher.queries, 1)
		query := searcher.queries[0]
		assert.Equal(t, 3, query.Size)
		assert.Equal(t, 1.0, query.MinScore)
		assert.Equal(t, "fr", query.Language)
		require.NotNil(t, query.Lexical)
		assert.Equal(t, "quelle duree preavi", query.Lexical.Text)
		require.NotNil(t, query.Dense)
		assert.Equal(t, []float32{1, 0, 0}, query.Dense.Vector)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), query.Dense.Decay.Origin)
	})

	t.Run("Stopword only questions are matched as is", func(t *testing.T) {
		searcher := &fakeSearcher{result: &model.SearchResult{}}
		options := model.DefaultRetrieveOptions()
		options.Mode = "sparse"

		_, err := newTestEngine(searcher, &countingEmbedder{}).Retrieve(context.Background(), "et le la", options)

		require.NoError(t, err)
		assert.Equal(t, "et le la", searcher.queries[0].Lexical.Text)
	})

	t.Run("Empty language uses the default language", func(t *testing.T) {
		searcher := &fakeSearcher{result: &model.SearchResult{}}
		options := model.DefaultRetrieveOptions()
		options.Language = ""

		_, err := newTestEngine(searcher, &countingEmbedder{}).Retrieve(context.Background(), "question", options)

		require.NoError(t, err)
		assert.Equal(t, "fr", searcher.queries[0].Language)
	})

	t.Run("Embedding failure is reported", func(t *testing.T) {
		searcher := &fakeSearcher{}

		_, err := newTestEngine(searcher, &countingEmbedder{err: errors.New("model down")}).Retrieve(context.Background(), "question", model.DefaultRetrieveOptions())

		assert.ErrorIs(t, err, model.ErrEmbeddingFailed)
		assert.Equal(t, 0, searcher.calls)
	})

	t.Run("Missing models are a configuration error", func(t *testing.T) {
		engine := NewEngine(&fakeSearcher{}, pipeline.NewRegistry("fr", 3), nil)

		_, err := engine.Retrieve(context.Background(), "question", model.DefaultRetrieveOptions())

		assert.ErrorIs(t, err, model.ErrMissingLanguageModel)
	})

	t.Run("Store errors are propagated", func(t *testing.T) {
		searcher := &fakeSearcher{err: errors.New("store unavailable")}

		_, err := newTestEngine(searcher, &countingEmbedder{}).Retrieve(context.Background(), "question", model.DefaultRetrieveOptions())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "store unavailable")
	})
}
