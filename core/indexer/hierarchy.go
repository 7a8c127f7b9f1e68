package indexer

import (
	"fmt"
	"strings"

	"github.com/siherrmann/hiersearch/model"
)

// Propagate sets the ancestor context of a chunk from the chunks of the level above.
// Parent embeddings are the element-wise sum of the parents' embeddings, the sum grows
// with the number of parents. Without parents they are filled with model.ParentEmbeddingEpsilon.
func Propagate(chunk *model.Chunk, parents []*model.Chunk, dim int) error {
	if len(parents) == 0 {
		chunk.ParentContentEmbedding = model.EpsilonVector(dim)
		chunk.ParentTitleEmbedding = model.EpsilonVector(dim)
		chunk.ParentContent = ""
		chunk.ParentTitle = ""
		return nil
	}

	contentSum := make([]float32, dim)
	titleSum := make([]float32, dim)
	contents := make([]string, len(parents))
	for i, parent := range parents {
		if len(parent.ContentEmbedding) != dim || len(parent.TitleEmbedding) != dim {
			return fmt.Errorf("parent %s at %d has embeddings of dimension %d/%d, expected %d",
				parent.Path, parent.ChunkStart, len(parent.ContentEmbedding), len(parent.TitleEmbedding), dim)
		}
		for j := 0; j < dim; j++ {
			contentSum[j] += parent.ContentEmbedding[j]
			titleSum[j] += parent.TitleEmbedding[j]
		}
		contents[i] = parent.Content
	}

	chunk.ParentContentEmbedding = contentSum
	chunk.ParentTitleEmbedding = titleSum
	chunk.ParentContent = strings.Join(contents, " ")
	chunk.ParentTitle = parents[0].Title
	return nil
}
