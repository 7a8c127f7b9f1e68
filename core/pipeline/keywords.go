package pipeline

import (
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/hiersearch/helper"
)

// DefaultKeywordModel is a NER model detecting persons, organizations, locations and misc entities
const DefaultKeywordModel = "KnightsAnalytics/distilbert-NER"

// HugotKeywordExtractor uses the named entities of a token classification model as keywords
type HugotKeywordExtractor struct {
	pipeline *pipelines.TokenClassificationPipeline
}

// NewHugotKeywordExtractor creates a NER pipeline in the session
func NewHugotKeywordExtractor(session *hugot.Session, modelName string, onnxFile string) (*HugotKeywordExtractor, error) {
	modelPath, err := helper.PrepareModel(modelName, onnxFile)
	if err != nil {
		return nil, err
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "keyword-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}), // Ignore non-entity tokens
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return &HugotKeywordExtractor{pipeline: nerPipeline}, nil
}

// Keywords returns the distinct entity words of the text in order of appearance
func (k *HugotKeywordExtractor) Keywords(text string) ([]string, error) {
	result, err := k.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to run NER: %w", err)
	}
	if len(result.Entities) == 0 {
		return nil, nil
	}

	words := make([]string, 0, len(result.Entities[0]))
	for _, entity := range result.Entities[0] {
		words = append(words, entity.Word)
	}
	return uniqueKeywords(words), nil
}

// uniqueKeywords trims the words and drops empty and repeated ones
func uniqueKeywords(words []string) []string {
	seen := map[string]bool{}
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}
