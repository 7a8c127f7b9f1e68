package model

import "time"

// ParentEmbeddingEpsilon fills the parent embeddings of chunks without ancestors.
// It is the float64 machine epsilon, never zero.
const ParentEmbeddingEpsilon = 0x1p-52

// Link is a hyperlink extracted from a content, Start being its offset in the cleaned content
type Link struct {
	Path  string `json:"path"`
	Start int    `json:"start"`
	Name  string `json:"name"`
}

// MetaData is computed per chunk by the metadata builder and merged by the caller
type MetaData struct {
	Links            []Link    `json:"links"`
	TitleEmbedding   []float32 `json:"title_embedding"`
	ContentEmbedding []float32 `json:"content_embedding"`
}

// Apply merges the metadata into the chunk
func (m MetaData) Apply(chunk *Chunk) {
	chunk.Links = m.Links
	chunk.TitleEmbedding = m.TitleEmbedding
	chunk.ContentEmbedding = m.ContentEmbedding
}

// Chunk is an indexable fragment of an entry enriched with embeddings and ancestor context
type Chunk struct {
	// Entry fields
	Type     EntryType `json:"type"`
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Language string    `json:"language"`
	// Identity
	ChunkHash    string `json:"chunk_hash"`
	OriginalHash string `json:"original_hash"`
	ChunkStart   int    `json:"chunk_start"`
	// Page context
	PageContent      string   `json:"page_content"`
	LemmaContent     string   `json:"lemma_content"`
	LemmaPageContent string   `json:"lemma_page_content"`
	Keywords         []string `json:"keywords,omitempty"`
	Links            Links    `json:"links"`
	// Embeddings
	TitleEmbedding         []float32 `json:"title_embedding,omitempty"`
	ContentEmbedding       []float32 `json:"content_embedding,omitempty"`
	ParentContentEmbedding []float32 `json:"parent_content_embedding,omitempty"`
	ParentTitleEmbedding   []float32 `json:"parent_title_embedding,omitempty"`
	// Ancestor context
	ParentContent string    `json:"parent_content"`
	ParentTitle   string    `json:"parent_title"`
	FirstSeenDate time.Time `json:"first_seen_date"`
	IndexedAt     time.Time `json:"indexed_at"`
}

// Persistable reports whether the chunk carries information beyond its title
func (c *Chunk) Persistable() bool {
	return c.Content != c.Title
}

// End returns the offset right after the chunk in the page content
func (c *Chunk) End() int {
	return c.ChunkStart + len(c.Content)
}

// EpsilonVector returns a vector of dim ParentEmbeddingEpsilon values
func EpsilonVector(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = ParentEmbeddingEpsilon
	}
	return v
}
