package retrieval

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
)

// Searcher executes search queries against the chunk store
type Searcher interface {
	SearchChunks(ctx context.Context, query *model.SearchQuery) (*model.SearchResult, error)
}

// Engine answers questions with ranked supports from the chunk store
type Engine struct {
	store    Searcher
	registry *pipeline.Registry
	log      *slog.Logger
	now      func() time.Time
}

// NewEngine creates a new retrieval engine
func NewEngine(store Searcher, registry *pipeline.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:    store,
		registry: registry,
		log:      logger,
		now:      time.Now,
	}
}

// Retrieve ranks the stored chunks against the question.
// The mode is checked before any model or store call, an unknown mode is a model.ErrUnknownRetrieveMode.
// The question is embedded and lemmatized with the models of options.Language.
func (e *Engine) Retrieve(ctx context.Context, question string, options model.RetrieveOptions) (*model.Retrieval, error) {
	mode, err := ParseRetrieveMode(options.Mode)
	if err != nil {
		return nil, helper.NewError("retrieve", err)
	}
	if options.Language == "" {
		options.Language = e.registry.DefaultLanguage()
	}

	embedder, err := e.registry.Embedder(options.Language)
	if err != nil {
		return nil, helper.NewError("select embedder", err)
	}
	processor, err := e.registry.Processor(options.Language)
	if err != nil {
		return nil, helper.NewError("select processor", err)
	}

	embedding, err := embedder.Embed(question, pipeline.EmbeddingModeAll)
	if err != nil {
		return nil, helper.NewError("embed question", fmt.Errorf("%w: %v", model.ErrEmbeddingFailed, err))
	}

	// A question made of stopwords only is matched as is
	lemmas := strings.Join(processor.Lemmas(question), " ")
	if lemmas == "" {
		lemmas = question
	}

	query := BuildQuery(mode, Question{
		Text:      question,
		Lemmas:    lemmas,
		Embedding: embedding,
		Now:       e.now(),
	}, options)

	result, err := e.store.SearchChunks(ctx, &query)
	if err != nil {
		return nil, helper.NewError("search chunks", err)
	}

	supports := make([]*model.Answer, len(result.Hits))
	for i, hit := range result.Hits {
		supports[i] = model.NewSupport(hit.Score, hit.Chunk)
	}

	e.log.Debug("Retrieved supports",
		slog.String("mode", mode.String()),
		slog.String("lemmas", lemmas),
		slog.Int("supports", len(supports)),
		slog.Int("total_hits", result.TotalHits),
		slog.Float64("max_score", result.MaxScore),
	)

	return &model.Retrieval{
		QuestionEmbedding: embedding,
		Supports:          supports,
		MaxScore:          result.MaxScore,
		TotalHits:         result.TotalHits,
	}, nil
}
