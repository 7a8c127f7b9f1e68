package retrieval

import (
	"fmt"
	"time"

	"github.com/siherrmann/hiersearch/model"
)

// Question is a question prepared for query building
type Question struct {
	Text      string
	Lemmas    string
	Embedding []float32
	Now       time.Time
}

// RetrieveMode selects how chunks are scored against a question.
// Sparse, Dense and Hybrid are its only implementations.
type RetrieveMode interface {
	fmt.Stringer
	query(question Question, options model.RetrieveOptions) model.SearchQuery
}

// Sparse scores chunks by fuzzy lexical relevance over boosted text fields
type Sparse struct{}

// Dense scores every chunk by boosted cosine similarities and date decay
type Dense struct{}

// Hybrid scores lexical matches by their lexical score plus the dense score
type Hybrid struct{}

func (Sparse) String() string { return "sparse" }
func (Dense) String() string  { return "dense" }
func (Hybrid) String() string { return "hybrid" }

func (Sparse) query(q Question, o model.RetrieveOptions) model.SearchQuery {
	query := baseQuery(o)
	query.Lexical = lexicalQuery(q, o)
	return query
}

func (Dense) query(q Question, o model.RetrieveOptions) model.SearchQuery {
	query := baseQuery(o)
	query.Dense = denseScore(q, o)
	return query
}

func (Hybrid) query(q Question, o model.RetrieveOptions) model.SearchQuery {
	query := baseQuery(o)
	query.Lexical = lexicalQuery(q, o)
	query.Dense = denseScore(q, o)
	return query
}

// ParseRetrieveMode returns the mode named s, anything but sparse, dense
// or hybrid is a model.ErrUnknownRetrieveMode
func ParseRetrieveMode(s string) (RetrieveMode, error) {
	switch s {
	case "sparse":
		return Sparse{}, nil
	case "dense":
		return Dense{}, nil
	case "hybrid":
		return Hybrid{}, nil
	}
	return nil, fmt.Errorf("%w, got %q", model.ErrUnknownRetrieveMode, s)
}

// BuildQuery builds the search query of the question for the mode
func BuildQuery(mode RetrieveMode, q Question, options model.RetrieveOptions) model.SearchQuery {
	return mode.query(q, options)
}

func baseQuery(o model.RetrieveOptions) model.SearchQuery {
	size := o.RetrieveNb
	if size <= 0 {
		size = model.DefaultRetrieveOptions().RetrieveNb
	}
	return model.SearchQuery{
		Size:     size,
		MinScore: model.MinScore,
		Language: o.Language,
	}
}

func lexicalQuery(q Question, o model.RetrieveOptions) *model.LexicalQuery {
	return &model.LexicalQuery{
		Text:  q.Lemmas,
		Fuzzy: true,
		Fields: []model.FieldBoost{
			{Field: model.FieldTitle, Boost: o.BoostTitle},
			{Field: model.FieldContent, Boost: o.BoostContent},
			{Field: model.FieldPageContent, Boost: o.BoostPage},
			{Field: model.FieldLemmaContent, Boost: o.BoostLem},
			{Field: model.FieldLemmaPageContent, Boost: o.BoostPageLem},
			{Field: model.FieldParentTitle, Boost: o.BoostParentTitle},
			{Field: model.FieldParentContent, Boost: o.BoostParentContent},
		},
	}
}

// denseScore keeps scores positive with an offset equal to the sum of the similarity boosts
func denseScore(q Question, o model.RetrieveOptions) *model.DenseScore {
	return &model.DenseScore{
		Vector: q.Embedding,
		Similarities: []model.FieldBoost{
			{Field: model.FieldContentEmbedding, Boost: o.BoostContentEmbedding},
			{Field: model.FieldTitleEmbedding, Boost: o.BoostTitleEmbedding},
			{Field: model.FieldParentTitleEmbedding, Boost: o.BoostParentEmbedding},
		},
		Offset: o.BoostContentEmbedding + o.BoostTitleEmbedding + o.BoostParentEmbedding,
		Decay: &model.GaussDecay{
			Field:  model.FieldFirstSeenDate,
			Origin: q.Now,
			Scale:  time.Duration(o.DecayScale),
			Offset: time.Duration(o.DecayOffset),
			Decay:  o.DecayRate,
			Boost:  o.BoostDate,
		},
	}
}
