package indexer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/core/text"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
)

// Store persists indexed chunks and entries.
// Both writes are upserts, chunks being keyed by chunk hash and entries by original hash.
type Store interface {
	UpsertChunk(ctx context.Context, chunk *model.Chunk) error
	UpsertEntry(ctx context.Context, entry *model.Entry) error
}

// Indexer walks document trees and writes their chunks to a store
type Indexer struct {
	store    Store
	registry *pipeline.Registry
	chunker  *pipeline.Chunker
	mode     pipeline.EmbeddingMode
	log      *slog.Logger
	now      func() time.Time
}

// Option configures an Indexer
type Option func(*Indexer)

// WithChunker sets the chunker, the default chunker uses pipeline.DefaultChunkerConfig
func WithChunker(chunker *pipeline.Chunker) Option {
	return func(ix *Indexer) { ix.chunker = chunker }
}

// WithEmbeddingMode sets the embedding mode of chunk contents and titles
func WithEmbeddingMode(mode pipeline.EmbeddingMode) Option {
	return func(ix *Indexer) { ix.mode = mode }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) { ix.log = logger }
}

// NewIndexer creates an indexer writing to store with the models of registry
func NewIndexer(store Store, registry *pipeline.Registry, opts ...Option) *Indexer {
	ix := &Indexer{
		store:    store,
		registry: registry,
		chunker:  pipeline.NewChunker(),
		mode:     pipeline.EmbeddingModeAll,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index walks the tree depth first and persists every chunk whose content differs from its title.
// The chunks of a node are the parents of the chunks of its children.
// Content and title of the visited entries are replaced by their cleaned version.
//
// A malformed entry skips its subtree, its error is joined to the returned error
// and the walk continues with its siblings. A chunk failing to embed is skipped.
// Store and configuration errors abort the walk.
func (ix *Indexer) Index(ctx context.Context, root *model.RawEntry) (*model.IndexStats, error) {
	start := time.Now()
	stats := &model.IndexStats{}
	var malformed []error

	err := ix.walk(ctx, root, nil, stats, &malformed)
	stats.Elapsed = time.Since(start)
	if err != nil {
		return stats, helper.NewError("index", err)
	}

	ix.log.Info("Indexed document tree",
		slog.String("path", root.Path),
		slog.Int("nodes", stats.Nodes),
		slog.Int("chunks_created", stats.ChunksCreated),
		slog.Int("chunks_written", stats.ChunksWritten),
		slog.Int("chunks_skipped", stats.ChunksSkipped),
		slog.Int("malformed", len(malformed)),
		slog.String("elapsed", stats.Elapsed.String()),
	)
	return stats, errors.Join(malformed...)
}

// walk indexes one entry with the chunks of the level above and recurses into its children.
// parents is never modified, every child receives its own copy of the chunks of this level.
func (ix *Indexer) walk(ctx context.Context, entry *model.RawEntry, parents []*model.Chunk, stats *model.IndexStats, malformed *[]error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := entry.Validate(); err != nil {
		ix.skipSubtree(entry, err, malformed)
		return nil
	}
	firstSeenDate, err := entry.ParseFirstSeenDate()
	if err != nil {
		ix.skipSubtree(entry, err, malformed)
		return nil
	}
	stats.Nodes++

	content, links := text.Clean(entry.Content)
	entry.Content = content
	entry.Title = text.Sanitize(entry.Title)

	processor, _ := ix.registry.Processor(entry.Language)
	extractor, _ := ix.registry.KeywordExtractor(entry.Language)
	originalHash := OriginalHash(entry.Path, entry.Content)
	pageLemmas := lemmas(processor, entry.Content)

	current := make([]*model.Chunk, 0)
	written := 0
	for chunk := range ix.chunker.Chunks(entry, ix.registry) {
		stats.ChunksCreated++
		chunk.OriginalHash = originalHash
		chunk.ChunkHash = ChunkHash(originalHash, chunk.ChunkStart, chunk.Content)
		chunk.FirstSeenDate = firstSeenDate
		chunk.LemmaContent = lemmas(processor, chunk.Content)
		chunk.LemmaPageContent = pageLemmas
		chunk.Keywords = ix.keywords(extractor, chunk)

		meta, err := BuildMetadata(chunk, links, ix.registry, ix.mode)
		if errors.Is(err, model.ErrMissingLanguageModel) {
			return err
		} else if err != nil {
			ix.skipChunk(chunk, err, stats)
			continue
		}
		meta.Apply(chunk)

		if err := Propagate(chunk, parents, ix.dimension(chunk)); err != nil {
			ix.skipChunk(chunk, err, stats)
			continue
		}
		current = append(current, chunk)

		if !chunk.Persistable() {
			continue
		}
		chunk.IndexedAt = ix.now()
		if err := ix.store.UpsertChunk(ctx, chunk); err != nil {
			return helper.NewError("upsert chunk", err)
		}
		stats.ChunksWritten++
		written++
	}

	if written > 0 {
		err := ix.store.UpsertEntry(ctx, &model.Entry{
			OriginalHash:  originalHash,
			Path:          entry.Path,
			Title:         entry.Title,
			Type:          entry.Type,
			Language:      entry.Language,
			FirstSeenDate: firstSeenDate,
			ChunkCount:    written,
		})
		if err != nil {
			return helper.NewError("upsert entry", err)
		}
	}

	ix.log.Debug("Indexed entry",
		slog.String("path", entry.Path),
		slog.Int("chunks", len(current)),
		slog.Int("written", written),
		slog.Int("children", len(entry.Children)),
	)

	for i := range entry.Children {
		if err := ix.walk(ctx, &entry.Children[i], slices.Clone(current), stats, malformed); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Indexer) skipSubtree(entry *model.RawEntry, err error, malformed *[]error) {
	ix.log.Warn("Skipping malformed entry", slog.String("path", entry.Path), slog.Any("error", err))
	*malformed = append(*malformed, err)
}

func (ix *Indexer) skipChunk(chunk *model.Chunk, err error, stats *model.IndexStats) {
	stats.ChunksSkipped++
	ix.log.Warn("Skipping chunk",
		slog.String("path", chunk.Path),
		slog.Int("chunk_start", chunk.ChunkStart),
		slog.Any("error", err),
	)
}

// keywords are optional, extraction failures leave them empty
func (ix *Indexer) keywords(extractor pipeline.KeywordExtractor, chunk *model.Chunk) []string {
	if extractor == nil {
		return nil
	}
	words, err := extractor.Keywords(chunk.Content)
	if err != nil {
		ix.log.Warn("Keyword extraction failed", slog.String("path", chunk.Path), slog.Any("error", err))
		return nil
	}
	return words
}

func (ix *Indexer) dimension(chunk *model.Chunk) int {
	if dim := ix.registry.Dimension(); dim > 0 {
		return dim
	}
	return len(chunk.ContentEmbedding)
}

func lemmas(processor pipeline.Processor, s string) string {
	if processor == nil {
		return ""
	}
	return strings.Join(processor.Lemmas(s), " ")
}
