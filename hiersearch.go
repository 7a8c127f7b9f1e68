package hiersearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/hiersearch/core/indexer"
	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/core/retrieval"
	"github.com/siherrmann/hiersearch/database"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
	loadSql "github.com/siherrmann/hiersearch/sql"
)

// Hiersearch provides a unified interface to indexing, retrieval and the database handlers
type Hiersearch struct {
	DB       *helper.Database
	Chunks   *database.ChunksDBHandler
	Entries  *database.EntriesDBHandler
	Registry *pipeline.Registry // Models per language, set with SetRegistry or UseDefaultRegistry
	Indexer  *indexer.Indexer
	Engine   *retrieval.Engine
	// Indexing
	chunker *pipeline.Chunker
	mode    pipeline.EmbeddingMode
	// Logging
	log *slog.Logger
}

// Option configures a Hiersearch instance
type Option func(*Hiersearch)

// WithLogger replaces the default pretty logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hiersearch) { h.log = logger }
}

// WithChunker sets the chunker used when indexing
func WithChunker(chunker *pipeline.Chunker) Option {
	return func(h *Hiersearch) { h.chunker = chunker }
}

// WithEmbeddingMode sets how chunk contents and titles are embedded when indexing
func WithEmbeddingMode(mode pipeline.EmbeddingMode) Option {
	return func(h *Hiersearch) { h.mode = mode }
}

// NewHiersearch connects to the database and creates the chunks and entries tables.
// The embedding columns have embeddingDim dimensions.
// A registry has to be set before indexing or retrieving.
func NewHiersearch(config *helper.DatabaseConfiguration, embeddingDim int, opts ...Option) (*Hiersearch, error) {
	h := &Hiersearch{
		chunker: pipeline.NewChunker(),
		mode:    pipeline.EmbeddingModeAll,
		log:     helper.NewLogger(os.Stdout, slog.LevelInfo),
	}
	for _, opt := range opts {
		opt(h)
	}

	// Initialize database
	db := helper.NewDatabase("hiersearch", config, h.log)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	entries, err := database.NewEntriesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entries handler", err)
	}

	h.DB = db
	h.Chunks = chunks
	h.Entries = entries

	return h, nil
}

// Close releases the models of the registry and closes the database connection
func (h *Hiersearch) Close() error {
	var errs []error
	if h.Registry != nil {
		errs = append(errs, h.Registry.Close())
	}
	if h.DB != nil && h.DB.Instance != nil {
		errs = append(errs, h.DB.Instance.Close())
	}
	return errors.Join(errs...)
}

// SetRegistry sets the models used for indexing and retrieval.
// The registry dimension has to match the dimension of the embedding columns.
func (h *Hiersearch) SetRegistry(registry *pipeline.Registry) error {
	if registry == nil {
		return helper.NewError("set registry", fmt.Errorf("registry is nil"))
	}
	if h.Chunks != nil && registry.Dimension() != h.Chunks.Dimension() {
		return helper.NewError("set registry", fmt.Errorf("registry dimension %d does not match the store dimension %d", registry.Dimension(), h.Chunks.Dimension()))
	}

	h.Registry = registry
	h.Indexer = indexer.NewIndexer(
		h,
		registry,
		indexer.WithChunker(h.chunker),
		indexer.WithEmbeddingMode(h.mode),
		indexer.WithLogger(h.log),
	)
	h.Engine = retrieval.NewEngine(h, registry, h.log)

	h.log.Info("Set model registry",
		slog.String("default_language", registry.DefaultLanguage()),
		slog.Int("dimension", registry.Dimension()),
	)
	return nil
}

// UseDefaultRegistry loads the hugot models of config and sets them as registry
func (h *Hiersearch) UseDefaultRegistry(config pipeline.ModelConfig) error {
	registry, err := pipeline.DefaultRegistry(config)
	if err != nil {
		return helper.NewError("create default registry", err)
	}

	err = h.SetRegistry(registry)
	if err != nil {
		return errors.Join(err, registry.Close())
	}
	return nil
}

// Index indexes a document tree, see indexer.Indexer.Index
func (h *Hiersearch) Index(ctx context.Context, root *model.RawEntry) (*model.IndexStats, error) {
	if h.Indexer == nil {
		return nil, helper.NewError("index", fmt.Errorf("registry not set, use SetRegistry() first"))
	}
	return h.Indexer.Index(ctx, root)
}

// Retrieve ranks the stored chunks against a question, see retrieval.Engine.Retrieve
func (h *Hiersearch) Retrieve(ctx context.Context, question string, options model.RetrieveOptions) (*model.Retrieval, error) {
	if h.Engine == nil {
		return nil, helper.NewError("retrieve", fmt.Errorf("registry not set, use SetRegistry() first"))
	}
	return h.Engine.Retrieve(ctx, question, options)
}

// UpsertChunk stores a chunk
func (h *Hiersearch) UpsertChunk(ctx context.Context, chunk *model.Chunk) error {
	return h.Chunks.UpsertChunk(ctx, chunk)
}

// UpsertEntry stores an entry
func (h *Hiersearch) UpsertEntry(ctx context.Context, entry *model.Entry) error {
	return h.Entries.UpsertEntry(ctx, entry)
}

// SearchChunks runs a search query against the chunks
func (h *Hiersearch) SearchChunks(ctx context.Context, query *model.SearchQuery) (*model.SearchResult, error) {
	return h.Chunks.SearchChunks(ctx, query)
}

// ChangeIndexType replaces the vector index of an embedding field
func (h *Hiersearch) ChangeIndexType(ctx context.Context, field string, indexType string, params map[string]int) error {
	return h.Chunks.ChangeIndexType(ctx, field, indexType, params)
}
