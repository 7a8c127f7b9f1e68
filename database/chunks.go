package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
	loadSql "github.com/siherrmann/hiersearch/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	UpsertChunk(ctx context.Context, chunk *model.Chunk) error
	SelectChunk(ctx context.Context, chunkHash string) (*model.Chunk, error)
	SelectChunksByOriginalHash(ctx context.Context, originalHash string) ([]*model.Chunk, error)
	DeleteChunk(ctx context.Context, chunkHash string) error
	DeleteChunksByOriginalHash(ctx context.Context, originalHash string) (int, error)
	CountChunks(ctx context.Context) (int64, error)
	SearchChunks(ctx context.Context, query *model.SearchQuery) (*model.SearchResult, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db        *helper.Database
	dimension int
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	chunksDbHandler := &ChunksDBHandler{
		db:        db,
		dimension: embeddingDim,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler", slog.Int("dimension", embeddingDim))

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates the trigram and vector indexes.
func (h *ChunksDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, h.dimension)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// Dimension returns the size of the embedding columns
func (h *ChunksDBHandler) Dimension() int {
	return h.dimension
}

// UpsertChunk inserts a chunk or replaces the chunk with the same chunk hash.
// IndexedAt is set from the stored row.
func (h *ChunksDBHandler) UpsertChunk(ctx context.Context, chunk *model.Chunk) error {
	if chunk.ChunkHash == "" {
		return helper.NewError("chunk validation", fmt.Errorf("chunk hash is empty"))
	}

	var indexedAt any
	if !chunk.IndexedAt.IsZero() {
		indexedAt = chunk.IndexedAt
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT upsert_chunk($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		chunk.ChunkHash,
		chunk.OriginalHash,
		string(chunk.Type),
		chunk.Path,
		chunk.Title,
		chunk.Content,
		chunk.Language,
		chunk.ChunkStart,
		chunk.PageContent,
		chunk.LemmaContent,
		chunk.LemmaPageContent,
		pq.Array(chunk.Keywords),
		chunk.Links,
		vectorOrNil(chunk.TitleEmbedding),
		vectorOrNil(chunk.ContentEmbedding),
		vectorOrNil(chunk.ParentTitleEmbedding),
		vectorOrNil(chunk.ParentContentEmbedding),
		chunk.ParentContent,
		chunk.ParentTitle,
		timeOrNil(chunk.FirstSeenDate),
		indexedAt,
	)

	err := row.Scan(&chunk.IndexedAt)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectChunk retrieves a chunk by chunk hash
func (h *ChunksDBHandler) SelectChunk(ctx context.Context, chunkHash string) (*model.Chunk, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_chunk($1)`,
		chunkHash,
	)

	chunk, err := scanChunk(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return chunk, nil
}

// SelectChunksByOriginalHash retrieves the chunks of an entry ordered by chunk start
func (h *ChunksDBHandler) SelectChunksByOriginalHash(ctx context.Context, originalHash string) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_chunks_by_original_hash($1)`,
		originalHash,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// DeleteChunk deletes a chunk by chunk hash
func (h *ChunksDBHandler) DeleteChunk(ctx context.Context, chunkHash string) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_chunk($1)`,
		chunkHash,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteChunksByOriginalHash deletes the chunks of an entry and returns how many were deleted
func (h *ChunksDBHandler) DeleteChunksByOriginalHash(ctx context.Context, originalHash string) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT delete_chunks_by_original_hash($1)`,
		originalHash,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return deleted, nil
}

// CountChunks returns the number of stored chunks
func (h *ChunksDBHandler) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_chunks()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// scanChunk scans the chunk columns in table order, followed by extra destinations
func scanChunk(row rowScanner, extra ...any) (*model.Chunk, error) {
	chunk := &model.Chunk{}

	var chunkType string
	var titleEmbedding, contentEmbedding, parentTitleEmbedding, parentContentEmbedding *pgvector.Vector
	var firstSeenDate sql.NullTime

	dest := []any{
		&chunk.ChunkHash,
		&chunk.OriginalHash,
		&chunkType,
		&chunk.Path,
		&chunk.Title,
		&chunk.Content,
		&chunk.Language,
		&chunk.ChunkStart,
		&chunk.PageContent,
		&chunk.LemmaContent,
		&chunk.LemmaPageContent,
		pq.Array(&chunk.Keywords),
		&chunk.Links,
		&titleEmbedding,
		&contentEmbedding,
		&parentTitleEmbedding,
		&parentContentEmbedding,
		&chunk.ParentContent,
		&chunk.ParentTitle,
		&firstSeenDate,
		&chunk.IndexedAt,
	}

	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}

	chunk.Type = model.EntryType(chunkType)
	chunk.TitleEmbedding = vectorSlice(titleEmbedding)
	chunk.ContentEmbedding = vectorSlice(contentEmbedding)
	chunk.ParentTitleEmbedding = vectorSlice(parentTitleEmbedding)
	chunk.ParentContentEmbedding = vectorSlice(parentContentEmbedding)
	if firstSeenDate.Valid {
		chunk.FirstSeenDate = firstSeenDate.Time
	}

	return chunk, nil
}

// vectorOrNil stores empty embeddings as NULL
func vectorOrNil(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return pgvector.NewVector(v)
}

func vectorSlice(v *pgvector.Vector) []float32 {
	if v == nil {
		return nil
	}
	return v.Slice()
}

// timeOrNil stores zero times as NULL
func timeOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
