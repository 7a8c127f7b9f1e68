package model

import "time"

// Chunk fields addressable by a query
const (
	FieldTitle                  = "title"
	FieldContent                = "content"
	FieldPageContent            = "page_content"
	FieldLemmaContent           = "lemma_content"
	FieldLemmaPageContent       = "lemma_page_content"
	FieldParentTitle            = "parent_title"
	FieldParentContent          = "parent_content"
	FieldTitleEmbedding         = "title_embedding"
	FieldContentEmbedding       = "content_embedding"
	FieldParentTitleEmbedding   = "parent_title_embedding"
	FieldParentContentEmbedding = "parent_content_embedding"
	FieldFirstSeenDate          = "first_seen_date"
)

// SearchQuery is a store agnostic description of a scored query.
// The score of a hit is the lexical score (if any) plus the dense score (if any).
// When Lexical is set only the chunks it matches are candidates.
type SearchQuery struct {
	Size     int           `json:"size"`
	MinScore float64       `json:"min_score"`
	Language string        `json:"language"`
	Lexical  *LexicalQuery `json:"lexical,omitempty"`
	Dense    *DenseScore   `json:"dense,omitempty"`
}

// LexicalQuery matches Text against the best of the boosted fields
type LexicalQuery struct {
	Text   string       `json:"text"`
	Fields []FieldBoost `json:"fields"`
	Fuzzy  bool         `json:"fuzzy"`
}

// FieldBoost is a field with its weight
type FieldBoost struct {
	Field string  `json:"field"`
	Boost float64 `json:"boost"`
}

// DenseScore is the sum of boosted cosine similarities, a constant offset and a date decay
type DenseScore struct {
	Vector       []float32    `json:"vector"`
	Similarities []FieldBoost `json:"similarities"`
	Offset       float64      `json:"offset"`
	Decay        *GaussDecay  `json:"decay,omitempty"`
}

// GaussDecay scores a date field with a gaussian of the distance to Origin
type GaussDecay struct {
	Field  string        `json:"field"`
	Origin time.Time     `json:"origin"`
	Scale  time.Duration `json:"scale"`
	Offset time.Duration `json:"offset"`
	Decay  float64       `json:"decay"`
	Boost  float64       `json:"boost"`
}

// Hit is a scored chunk returned by the store
type Hit struct {
	Score float64 `json:"score"`
	Chunk *Chunk  `json:"chunk"`
}

// SearchResult is the ranked hits of a query
type SearchResult struct {
	Hits      []*Hit  `json:"hits"`
	MaxScore  float64 `json:"max_score"`
	TotalHits int     `json:"total_hits"`
}
