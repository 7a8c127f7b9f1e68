package pipeline

import "github.com/siherrmann/hiersearch/model"

// EmbeddingMode selects how a text is turned into a single vector
type EmbeddingMode string

const (
	// EmbeddingModeAll embeds the text in one pass
	EmbeddingModeAll EmbeddingMode = "all"
	// EmbeddingModeSentences embeds every sentence and averages the vectors
	EmbeddingModeSentences EmbeddingMode = "sentences"
)

// Span is the byte range [Start, End) of a text
type Span struct {
	Start int
	End   int
}

// Embedder generates a fixed dimension embedding for a text.
// It must be deterministic for a given model and mode.
type Embedder interface {
	Embed(text string, mode EmbeddingMode) ([]float32, error)
}

// Processor is the NLP collaborator used for lexical matching and sentence boundaries
type Processor interface {
	Lemmas(text string) []string
	Sentences(text string) []Span
}

// Answerer extracts an answer for a question from a retrieved chunk
type Answerer interface {
	Answer(question string, chunk *model.Chunk) (*model.Answer, error)
}

// KeywordExtractor extracts the keywords of a text
type KeywordExtractor interface {
	Keywords(text string) ([]string, error)
}

// EmbedFunc is a function that generates embeddings for text, the mode is ignored
type EmbedFunc func(text string) ([]float32, error)

// Embed implements Embedder
func (f EmbedFunc) Embed(text string, _ EmbeddingMode) ([]float32, error) {
	return f(text)
}

// AnswerFunc adapts a function to Answerer
type AnswerFunc func(question string, chunk *model.Chunk) (*model.Answer, error)

// Answer implements Answerer
func (f AnswerFunc) Answer(question string, chunk *model.Chunk) (*model.Answer, error) {
	return f(question, chunk)
}

// KeywordFunc adapts a function to KeywordExtractor
type KeywordFunc func(text string) ([]string, error)

// Keywords implements KeywordExtractor
func (f KeywordFunc) Keywords(text string) ([]string, error) {
	return f(text)
}
