package pipeline

import (
	"iter"
	"unicode"
	"unicode/utf8"

	"github.com/siherrmann/hiersearch/model"
)

const (
	// DefaultMaxChunkSize is the default maximum number of bytes per chunk
	DefaultMaxChunkSize = 1000
	// DefaultOverlap is the default number of bytes shared by consecutive chunks
	DefaultOverlap = 200
	// DefaultMinChunkSize is the default size below which a content is never split
	DefaultMinChunkSize = 100
)

// ChunkerConfig configures the chunk boundaries
type ChunkerConfig struct {
	MaxChunkSize int `json:"max_chunk_size" toml:"max_chunk_size"`
	Overlap      int `json:"overlap" toml:"overlap"`
	MinChunkSize int `json:"min_chunk_size" toml:"min_chunk_size"`
}

// DefaultChunkerConfig returns the chunker defaults
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxChunkSize: DefaultMaxChunkSize,
		Overlap:      DefaultOverlap,
		MinChunkSize: DefaultMinChunkSize,
	}
}

// ChunkerOption configures a Chunker
type ChunkerOption func(*ChunkerConfig)

// WithMaxChunkSize sets the maximum chunk size in bytes
func WithMaxChunkSize(size int) ChunkerOption {
	return func(c *ChunkerConfig) {
		if size > 0 {
			c.MaxChunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in bytes
func WithOverlap(overlap int) ChunkerOption {
	return func(c *ChunkerConfig) {
		if overlap >= 0 {
			c.Overlap = overlap
		}
	}
}

// WithMinChunkSize sets the size below which a content yields a single chunk
func WithMinChunkSize(size int) ChunkerOption {
	return func(c *ChunkerConfig) {
		if size >= 0 {
			c.MinChunkSize = size
		}
	}
}

// Chunker splits entry contents into possibly overlapping chunks.
// Boundaries follow the sentences of the entry language processor,
// falling back to word aligned windows when no processor is registered.
type Chunker struct {
	config ChunkerConfig
}

// NewChunker creates a chunker with the default configuration and the given options
func NewChunker(opts ...ChunkerOption) *Chunker {
	config := DefaultChunkerConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return NewChunkerWithConfig(config)
}

// NewChunkerWithConfig creates a chunker from a configuration, invalid values are replaced by defaults
func NewChunkerWithConfig(config ChunkerConfig) *Chunker {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultMaxChunkSize
	}
	if config.Overlap < 0 {
		config.Overlap = 0
	}
	if config.MinChunkSize < 0 {
		config.MinChunkSize = 0
	}
	// Ensure overlap doesn't exceed chunk size
	if config.Overlap >= config.MaxChunkSize {
		config.Overlap = config.MaxChunkSize / 4
	}
	return &Chunker{config: config}
}

// Config returns the effective configuration
func (c *Chunker) Config() ChunkerConfig {
	return c.config
}

// Chunks lazily yields the chunks of the entry content in document order.
// Every chunk content is the substring of entry.Content starting at its ChunkStart.
// Empty content yields nothing, content not longer than MaxChunkSize
// or shorter than MinChunkSize yields exactly one chunk at offset 0.
func (c *Chunker) Chunks(entry *model.RawEntry, registry *Registry) iter.Seq[*model.Chunk] {
	return func(yield func(*model.Chunk) bool) {
		content := entry.Content
		if content == "" {
			return
		}
		if len(content) <= c.config.MaxChunkSize || len(content) < c.config.MinChunkSize {
			yield(newChunk(entry, 0, content))
			return
		}

		var processor Processor
		if registry != nil {
			processor, _ = registry.Processor(entry.Language)
		}

		for span := range c.spans(content, processor) {
			if !yield(newChunk(entry, span.Start, content[span.Start:span.End])) {
				return
			}
		}
	}
}

// spans groups consecutive units into chunk spans of at most MaxChunkSize bytes.
// The next chunk restarts at the earliest units of the previous chunk
// that fit in Overlap bytes, always moving forward.
func (c *Chunker) spans(content string, processor Processor) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		units := c.units(content, processor)

		for i := 0; i < len(units); {
			start := units[i].Start
			j := i
			for j+1 < len(units) && units[j+1].End-start <= c.config.MaxChunkSize {
				j++
			}
			if !yield(Span{Start: start, End: units[j].End}) {
				return
			}
			if j == len(units)-1 {
				return
			}

			next := j + 1
			for k := j; k > i && units[j].End-units[k].Start <= c.config.Overlap; k-- {
				next = k
			}
			i = next
		}
	}
}

// units returns the sentence spans of the content, sentences longer than
// MaxChunkSize being split into words. Without sentences the units are words.
func (c *Chunker) units(content string, processor Processor) []Span {
	var sentences []Span
	if processor != nil {
		sentences = processor.Sentences(content)
	}

	var units []Span
	last := 0
	for _, s := range sentences {
		// Ignore spans out of order or out of bounds
		if s.Start < last || s.End > len(content) || s.Start >= s.End {
			continue
		}
		if s.End-s.Start > c.config.MaxChunkSize {
			units = append(units, wordSpans(content, s.Start, s.End, c.config.MaxChunkSize)...)
		} else {
			units = append(units, s)
		}
		last = s.End
	}
	if len(units) == 0 {
		return wordSpans(content, 0, len(content), c.config.MaxChunkSize)
	}
	return units
}

// wordSpans returns the whitespace separated words of content[from:to],
// words longer than limit being cut at rune boundaries
func wordSpans(content string, from, to, limit int) []Span {
	var spans []Span
	for i := from; i < to; {
		r, size := utf8.DecodeRuneInString(content[i:to])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		start := i
		for i < to {
			r, size = utf8.DecodeRuneInString(content[i:to])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}

		for start < i {
			end := i
			if end-start > limit {
				end = start + limit
				for end > start && !utf8.RuneStart(content[end]) {
					end--
				}
				if end == start {
					_, size := utf8.DecodeRuneInString(content[start:i])
					end = start + size
				}
			}
			spans = append(spans, Span{Start: start, End: end})
			start = end
		}
	}
	return spans
}

func newChunk(entry *model.RawEntry, start int, content string) *model.Chunk {
	return &model.Chunk{
		Type:        entry.Type,
		Path:        entry.Path,
		Title:       entry.Title,
		Content:     content,
		Language:    entry.Language,
		ChunkStart:  start,
		PageContent: entry.Content,
	}
}
