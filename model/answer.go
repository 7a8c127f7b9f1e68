package model

import "time"

// Elected tells which signal produced an answer
type Elected string

const (
	ElectedQA      Elected = "qa"
	ElectedKeyword Elected = "kw"
	ElectedNone    Elected = "n/a"
)

// Answer is a ranked support for a question.
// Retrieval fills Score and the chunk fields; the QA layer fills Answer, Start and End.
type Answer struct {
	Score   float64   `json:"score"`
	Content string    `json:"content"`
	Answer  string    `json:"answer"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Start   int       `json:"start"`
	End     int       `json:"end"`
	Elected Elected   `json:"elected"`
	Link    []string  `json:"link"`
	Chunk   *Chunk    `json:"chunk,omitempty"`
}

// NewSupport creates an Answer for a retrieved chunk
func NewSupport(score float64, chunk *Chunk) *Answer {
	return &Answer{
		Score:   score,
		Content: chunk.Content,
		Title:   chunk.Title,
		Date:    chunk.FirstSeenDate,
		Elected: ElectedNone,
		Link:    chunk.Links.Paths(),
		Chunk:   chunk,
	}
}

// Retrieval is the result of a question against the store
type Retrieval struct {
	QuestionEmbedding []float32 `json:"question_embedding"`
	Supports          []*Answer `json:"supports"`
	MaxScore          float64   `json:"max_score"`
	TotalHits         int       `json:"total_hits"`
}
