package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/hiersearch/helper"
)

const (
	// DefaultEmbeddingModel is the sentence transformer used by the default registry
	DefaultEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"
	// DefaultEmbeddingOnnxFile selects the onnx file of DefaultEmbeddingModel
	DefaultEmbeddingOnnxFile = "onnx/model.onnx"
	// DefaultEmbeddingDimension is the dimension of DefaultEmbeddingModel embeddings
	DefaultEmbeddingDimension = 384
)

// HugotEmbedder embeds texts with a hugot feature extraction pipeline
type HugotEmbedder struct {
	pipeline *pipelines.FeatureExtractionPipeline
	splitter Processor
}

// NewHugotEmbedder creates an embedder pipeline named name in the session.
// The splitter provides the sentences of EmbeddingModeSentences, it may be nil.
func NewHugotEmbedder(session *hugot.Session, modelName string, onnxFile string, name string, splitter Processor) (*HugotEmbedder, error) {
	// Prepare model (download if needed)
	modelPath, err := helper.PrepareModel(modelName, onnxFile)
	if err != nil {
		return nil, err
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      name,
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return &HugotEmbedder{
		pipeline: sentencePipeline,
		splitter: splitter,
	}, nil
}

// Embed generates the embedding of the text
func (e *HugotEmbedder) Embed(text string, mode EmbeddingMode) ([]float32, error) {
	inputs := []string{text}
	switch mode {
	case EmbeddingModeAll:
	case EmbeddingModeSentences:
		if e.splitter != nil {
			if sentences := spanTexts(text, e.splitter.Sentences(text)); len(sentences) > 0 {
				inputs = sentences
			}
		}
	default:
		return nil, fmt.Errorf("unknown embedding mode %q", mode)
	}

	result, err := e.pipeline.RunPipeline(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	return meanVector(result.Embeddings)
}

func spanTexts(text string, spans []Span) []string {
	texts := make([]string, 0, len(spans))
	for _, s := range spans {
		if s.Start >= 0 && s.Start < s.End && s.End <= len(text) {
			texts = append(texts, text[s.Start:s.End])
		}
	}
	return texts
}

// meanVector averages the vectors element-wise
func meanVector(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding generated")
	}
	if len(vectors) == 1 {
		return vectors[0], nil
	}

	mean := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		if len(v) != len(mean) {
			return nil, fmt.Errorf("embedding dimension mismatch: %d != %d", len(v), len(mean))
		}
		for i := range v {
			mean[i] += v[i]
		}
	}
	for i := range mean {
		mean[i] /= float32(len(vectors))
	}
	return mean, nil
}
