package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/hiersearch/helper"
)

// Vector index types
const (
	IndexTypeHNSW    = "hnsw"
	IndexTypeIVFFlat = "ivfflat"
)

// ChangeIndexType replaces the cosine index of an embedding field.
// field is one of the model embedding fields, e.g. model.FieldContentEmbedding.
// params are optional parameters for index creation:
//   - For HNSW: "m" (default 16), "ef_construction" (default 64)
//   - For IVFFlat: "lists" (default 100)
func (h *ChunksDBHandler) ChangeIndexType(ctx context.Context, field string, indexType string, params map[string]int) error {
	column, ok := vectorColumns[field]
	if !ok {
		return helper.NewError("change index type", fmt.Errorf("unknown vector field %q", field))
	}

	var with string
	switch indexType {
	case IndexTypeHNSW:
		m := paramOrDefault(params, "m", 16)
		efConstruction := paramOrDefault(params, "ef_construction", 64)
		with = fmt.Sprintf("m = %d, ef_construction = %d", m, efConstruction)
	case IndexTypeIVFFlat:
		lists := paramOrDefault(params, "lists", 100)
		with = fmt.Sprintf("lists = %d", lists)
	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	indexName := "idx_chunks_" + column

	_, err := h.db.Instance.ExecContext(ctx, fmt.Sprintf(`DROP INDEX IF EXISTS %s;`, indexName))
	if err != nil {
		return helper.NewError("drop index", err)
	}

	_, err = h.db.Instance.ExecContext(ctx, fmt.Sprintf(
		`CREATE INDEX %s ON chunks USING %s (%s vector_cosine_ops) WITH (%s);`,
		indexName, indexType, column, with,
	))
	if err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info(
		"Changed vector index",
		slog.String("index", indexName),
		slog.String("type", indexType),
		slog.String("with", with),
	)

	return nil
}

func paramOrDefault(params map[string]int, key string, def int) int {
	if v, ok := params[key]; ok && v > 0 {
		return v
	}
	return def
}
