package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
)

// FuzzyThreshold is the word similarity above which a fuzzy lexical query matches a field
const FuzzyThreshold = 0.3

// chunkColumns lists the chunk columns in table order, as read by scanChunk
const chunkColumns = `chunk_hash, original_hash, type, path, title, content, language, chunk_start,
	page_content, lemma_content, lemma_page_content, keywords, links,
	title_embedding, content_embedding, parent_title_embedding, parent_content_embedding,
	parent_content, parent_title, first_seen_date, indexed_at`

// Columns addressable by each part of a search query
var (
	textColumns = map[string]string{
		model.FieldTitle:            "title",
		model.FieldContent:          "content",
		model.FieldPageContent:      "page_content",
		model.FieldLemmaContent:     "lemma_content",
		model.FieldLemmaPageContent: "lemma_page_content",
		model.FieldParentTitle:      "parent_title",
		model.FieldParentContent:    "parent_content",
	}
	vectorColumns = map[string]string{
		model.FieldTitleEmbedding:         "title_embedding",
		model.FieldContentEmbedding:       "content_embedding",
		model.FieldParentTitleEmbedding:   "parent_title_embedding",
		model.FieldParentContentEmbedding: "parent_content_embedding",
	}
	dateColumns = map[string]string{
		model.FieldFirstSeenDate: "first_seen_date",
	}
)

// Text search configurations by language, others use 'simple'
var textSearchConfigs = map[string]string{
	"fr": "french",
	"en": "english",
	"de": "german",
	"es": "spanish",
	"it": "italian",
	"nl": "dutch",
	"pt": "portuguese",
}

// TextSearchConfig returns the postgres text search configuration of a language
func TextSearchConfig(language string) string {
	if config, ok := textSearchConfigs[strings.ToLower(language)]; ok {
		return config
	}
	return "simple"
}

// SearchChunks scores the chunks against the query and returns the best ones.
// The lexical score is the best boosted text rank over the fields, the dense score is the sum
// of the boosted cosine similarities, the offset and the date decay.
// Hits below query.MinScore are dropped.
func (h *ChunksDBHandler) SearchChunks(ctx context.Context, query *model.SearchQuery) (*model.SearchResult, error) {
	statement, args, err := renderSearch(query)
	if err != nil {
		return nil, helper.NewError("render search", err)
	}

	if query.Dense != nil && len(query.Dense.Vector) != h.dimension {
		return nil, helper.NewError("search validation", fmt.Errorf("query vector has dimension %d, expected %d", len(query.Dense.Vector), h.dimension))
	}

	rows, err := h.db.Instance.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	result := &model.SearchResult{Hits: []*model.Hit{}}
	for rows.Next() {
		var score float64
		var total int
		chunk, err := scanChunk(rows, &score, &total)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		if len(result.Hits) == 0 {
			result.MaxScore = score
			result.TotalHits = total
		}
		result.Hits = append(result.Hits, &model.Hit{Score: score, Chunk: chunk})
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	h.db.Logger.Debug(
		"Searched chunks",
		slog.Int("hits", len(result.Hits)),
		slog.Int("total_hits", result.TotalHits),
		slog.Float64("max_score", result.MaxScore),
	)

	return result, nil
}

// searchArgs collects positional parameters
type searchArgs []any

func (a *searchArgs) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

// renderSearch renders the query into a statement selecting the chunk columns, the score and
// the total number of hits above the minimum score.
func renderSearch(query *model.SearchQuery) (string, searchArgs, error) {
	if query == nil || (query.Lexical == nil && query.Dense == nil) {
		return "", nil, errors.New("query has neither a lexical nor a dense part")
	}

	var args searchArgs
	var terms []string
	where := ""

	if query.Lexical != nil {
		score, match, err := renderLexical(query.Lexical, TextSearchConfig(query.Language), &args)
		if err != nil {
			return "", nil, err
		}
		terms = append(terms, score)
		where = "WHERE " + match
	}

	if query.Dense != nil {
		score, err := renderDense(query.Dense, &args)
		if err != nil {
			return "", nil, err
		}
		terms = append(terms, score)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s, score, COUNT(*) OVER() AS total_hits FROM (\n", chunkColumns)
	fmt.Fprintf(&b, "\tSELECT c.*, (%s) AS score FROM chunks c %s\n", strings.Join(terms, " + "), where)
	fmt.Fprintf(&b, ") scored WHERE score >= %s\n", args.add(query.MinScore))
	b.WriteString("ORDER BY score DESC, chunk_hash ASC")
	if query.Size > 0 {
		fmt.Fprintf(&b, "\nLIMIT %s", args.add(query.Size))
	}

	return b.String(), args, nil
}

// renderLexical returns the lexical score expression and the match condition
func renderLexical(lexical *model.LexicalQuery, config string, args *searchArgs) (string, string, error) {
	if len(lexical.Fields) == 0 {
		return "", "", errors.New("lexical query has no field")
	}

	text := args.add(lexical.Text)
	cfg := args.add(config)
	// Any term of the text matches, as in a multi field match query
	tsquery := fmt.Sprintf("replace(plainto_tsquery(%s::regconfig, %s::text)::text, ' & ', ' | ')::tsquery", cfg, text)

	var scores, matches []string
	for _, field := range lexical.Fields {
		column, ok := textColumns[field.Field]
		if !ok {
			return "", "", fmt.Errorf("unknown text field %q", field.Field)
		}

		tsvector := fmt.Sprintf("to_tsvector(%s::regconfig, c.%s)", cfg, column)
		rank := fmt.Sprintf("ts_rank(%s, %s)", tsvector, tsquery)
		match := fmt.Sprintf("%s @@ %s", tsvector, tsquery)
		if lexical.Fuzzy {
			similarity := fmt.Sprintf("word_similarity(%s::text, c.%s)", text, column)
			rank = fmt.Sprintf("%s + %s", rank, similarity)
			match = fmt.Sprintf("%s OR %s > %g", match, similarity, FuzzyThreshold)
		}

		scores = append(scores, fmt.Sprintf("%s::float8 * (%s)", args.add(field.Boost), rank))
		matches = append(matches, "("+match+")")
	}

	return fmt.Sprintf("GREATEST(%s)", strings.Join(scores, ", ")), "(" + strings.Join(matches, " OR ") + ")", nil
}

// renderDense returns the dense score expression, a missing embedding adds nothing
func renderDense(dense *model.DenseScore, args *searchArgs) (string, error) {
	if len(dense.Vector) == 0 {
		return "", errors.New("dense score has no vector")
	}

	vector := args.add(pgvector.NewVector(dense.Vector))
	terms := []string{args.add(dense.Offset) + "::float8"}

	for _, similarity := range dense.Similarities {
		column, ok := vectorColumns[similarity.Field]
		if !ok {
			return "", fmt.Errorf("unknown vector field %q", similarity.Field)
		}
		terms = append(terms, fmt.Sprintf(
			"COALESCE(%s::float8 * (1 - (c.%s <=> %s::vector)), 0)",
			args.add(similarity.Boost), column, vector,
		))
	}

	if decay := dense.Decay; decay != nil {
		column, ok := dateColumns[decay.Field]
		if !ok {
			return "", fmt.Errorf("unknown date field %q", decay.Field)
		}
		terms = append(terms, fmt.Sprintf(
			"%s::float8 * gauss_decay(c.%s, %s::timestamptz, %s::float8, %s::float8, %s::float8)",
			args.add(decay.Boost),
			column,
			args.add(decay.Origin),
			args.add(decay.Scale.Seconds()),
			args.add(decay.Offset.Seconds()),
			args.add(decay.Decay),
		))
	}

	return strings.Join(terms, " + "), nil
}
