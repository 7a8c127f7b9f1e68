package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
)

// ModelConfig configures the models of the default registry
type ModelConfig struct {
	DefaultLanguage   string        `json:"default_language" toml:"default_language"`
	Languages         []string      `json:"languages" toml:"languages"`
	EmbeddingModel    string        `json:"embedding_model" toml:"embedding_model"`
	EmbeddingOnnxFile string        `json:"embedding_onnx_file" toml:"embedding_onnx_file"`
	Dimension         int           `json:"dimension" toml:"dimension"`
	EmbeddingMode     EmbeddingMode `json:"embedding_mode" toml:"embedding_mode"`
	// KeywordModel enables keyword extraction when set
	KeywordModel    string `json:"keyword_model" toml:"keyword_model"`
	KeywordOnnxFile string `json:"keyword_onnx_file" toml:"keyword_onnx_file"`
}

// DefaultModelConfig returns the default model configuration
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		DefaultLanguage:   "fr",
		Languages:         []string{"fr", "en"},
		EmbeddingModel:    DefaultEmbeddingModel,
		EmbeddingOnnxFile: DefaultEmbeddingOnnxFile,
		Dimension:         DefaultEmbeddingDimension,
		EmbeddingMode:     EmbeddingModeAll,
	}
}

// Registry holds the per language models of a run.
// It is read-only after construction and safe to share.
type Registry struct {
	defaultLanguage string
	dimension       int
	embedders       map[string]Embedder
	processors      map[string]Processor
	answerers       map[string]Answerer
	keywords        map[string]KeywordExtractor
	closers         []func() error
}

// RegistryOption configures a Registry at construction
type RegistryOption func(*Registry)

// WithEmbedder registers the embedder of a language
func WithEmbedder(language string, embedder Embedder) RegistryOption {
	return func(r *Registry) { r.embedders[language] = embedder }
}

// WithProcessor registers the NLP processor of a language
func WithProcessor(language string, processor Processor) RegistryOption {
	return func(r *Registry) { r.processors[language] = processor }
}

// WithAnswerer registers the QA model of a language
func WithAnswerer(language string, answerer Answerer) RegistryOption {
	return func(r *Registry) { r.answerers[language] = answerer }
}

// WithKeywordExtractor registers the keyword extractor of a language
func WithKeywordExtractor(language string, extractor KeywordExtractor) RegistryOption {
	return func(r *Registry) { r.keywords[language] = extractor }
}

// WithCloser registers a function run by Close
func WithCloser(closer func() error) RegistryOption {
	return func(r *Registry) { r.closers = append(r.closers, closer) }
}

// NewRegistry creates a registry whose lookups fall back to defaultLanguage
func NewRegistry(defaultLanguage string, dimension int, opts ...RegistryOption) *Registry {
	r := &Registry{
		defaultLanguage: defaultLanguage,
		dimension:       dimension,
		embedders:       map[string]Embedder{},
		processors:      map[string]Processor{},
		answerers:       map[string]Answerer{},
		keywords:        map[string]KeywordExtractor{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultLanguage returns the fallback language
func (r *Registry) DefaultLanguage() string {
	return r.defaultLanguage
}

// Dimension returns the embedding dimension
func (r *Registry) Dimension() int {
	return r.dimension
}

// Embedder returns the embedder of the language or of the default language
func (r *Registry) Embedder(language string) (Embedder, error) {
	return lookup(r, r.embedders, language, "embedder")
}

// Processor returns the NLP processor of the language or of the default language
func (r *Registry) Processor(language string) (Processor, error) {
	return lookup(r, r.processors, language, "processor")
}

// Answerer returns the QA model of the language or of the default language
func (r *Registry) Answerer(language string) (Answerer, error) {
	return lookup(r, r.answerers, language, "answerer")
}

// KeywordExtractor returns the keyword extractor of the language or of the default language
func (r *Registry) KeywordExtractor(language string) (KeywordExtractor, error) {
	return lookup(r, r.keywords, language, "keyword extractor")
}

// Close releases the resources of the models
func (r *Registry) Close() error {
	var errs []error
	for _, closer := range r.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func lookup[T any](r *Registry, models map[string]T, language string, kind string) (T, error) {
	if m, ok := models[language]; ok {
		return m, nil
	}
	if m, ok := models[r.defaultLanguage]; ok {
		return m, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %s for %q (default %q)", model.ErrMissingLanguageModel, kind, language, r.defaultLanguage)
}

// DefaultRegistry creates a registry with a rule based processor per language and
// one hugot embedder shared by all languages. All pipelines live in one hugot session
// destroyed by Close.
func DefaultRegistry(config ModelConfig) (*Registry, error) {
	if config.DefaultLanguage == "" {
		return nil, helper.NewError("default registry", errors.New("default language is required"))
	}
	languages := config.Languages
	if !slices.Contains(languages, config.DefaultLanguage) {
		languages = append([]string{config.DefaultLanguage}, languages...)
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	opts := []RegistryOption{WithCloser(session.Destroy)}
	processors := map[string]*RuleProcessor{}
	for _, language := range languages {
		processors[language] = NewRuleProcessor(language)
		opts = append(opts, WithProcessor(language, processors[language]))
	}

	embedder, err := NewHugotEmbedder(session, config.EmbeddingModel, config.EmbeddingOnnxFile, "embedder-pipeline", processors[config.DefaultLanguage])
	if err != nil {
		return nil, destroyOnError(session, err)
	}
	for _, language := range languages {
		opts = append(opts, WithEmbedder(language, embedder))
	}

	if config.KeywordModel != "" {
		extractor, err := NewHugotKeywordExtractor(session, config.KeywordModel, config.KeywordOnnxFile)
		if err != nil {
			return nil, destroyOnError(session, err)
		}
		opts = append(opts, WithKeywordExtractor(config.DefaultLanguage, extractor))
	}

	return NewRegistry(config.DefaultLanguage, config.Dimension, opts...), nil
}

func destroyOnError(session *hugot.Session, err error) error {
	if destroyErr := session.Destroy(); destroyErr != nil {
		return fmt.Errorf("%w (cleanup error: %v)", err, destroyErr)
	}
	return err
}
