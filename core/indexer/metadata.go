package indexer

import (
	"fmt"

	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
)

// BuildMetadata computes the links and embeddings of a chunk, the chunk is not modified.
// Links are kept when chunk_start < link.start < chunk_start+len(content).
// The embedder is the one of the chunk language, or of the default language.
// Embedder failures are reported as model.ErrEmbeddingFailed.
func BuildMetadata(chunk *model.Chunk, links []model.Link, registry *pipeline.Registry, mode pipeline.EmbeddingMode) (model.MetaData, error) {
	end := chunk.End()
	inside := make([]model.Link, 0)
	for _, l := range links {
		if chunk.ChunkStart < l.Start && l.Start < end {
			inside = append(inside, l)
		}
	}

	embedder, err := registry.Embedder(chunk.Language)
	if err != nil {
		return model.MetaData{}, helper.NewError("select embedder", err)
	}

	contentEmbedding, err := embed(embedder, chunk.Content, mode, registry.Dimension())
	if err != nil {
		return model.MetaData{}, helper.NewError("embed content", err)
	}
	titleEmbedding, err := embed(embedder, chunk.Title, mode, registry.Dimension())
	if err != nil {
		return model.MetaData{}, helper.NewError("embed title", err)
	}

	return model.MetaData{
		Links:            inside,
		TitleEmbedding:   titleEmbedding,
		ContentEmbedding: contentEmbedding,
	}, nil
}

func embed(embedder pipeline.Embedder, text string, mode pipeline.EmbeddingMode, dim int) ([]float32, error) {
	vector, err := embedder.Embed(text, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrEmbeddingFailed, err)
	}
	if dim > 0 && len(vector) != dim {
		return nil, fmt.Errorf("%w: got %d dimensions, expected %d", model.ErrEmbeddingFailed, len(vector), dim)
	}
	return vector, nil
}
