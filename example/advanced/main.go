package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/siherrmann/hiersearch"
	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/database"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
)

var trees = []model.RawEntry{
	{
		Type:          model.EntryTypePage,
		Path:          "/handbook/databases",
		Title:         "Graph databases",
		Content:       "Graph databases store data with complex relationships as nodes and edges.",
		Language:      "en",
		FirstSeenDate: "01/10/2023",
		Children: []model.RawEntry{{
			Type:          model.EntryTypeSection,
			Path:          "/handbook/databases#postgres",
			Title:         "PostgreSQL extensions",
			Content:       "The ltree extension provides hierarchical tree structures, while pgvector enables vector similarity search.",
			Language:      "en",
			FirstSeenDate: "01/10/2023",
		}},
	},
	{
		Type:          model.EntryTypePage,
		Path:          "/handbook/retrieval",
		Title:         "Machine learning for retrieval",
		Content:       "Vector embeddings capture the semantic meaning of text and enable similarity based search.",
		Language:      "en",
		FirstSeenDate: "06/20/2024",
		Children: []model.RawEntry{{
			Type:          model.EntryTypeFile,
			Path:          "/handbook/retrieval/hybrid.pdf",
			Title:         "Hybrid retrieval",
			Content:       "Modern retrieval systems combine lexical indexing with embedding models to rank passages.",
			Language:      "en",
			FirstSeenDate: "06/20/2024",
		}},
	},
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// Smaller chunks and sentence averaged embeddings
	h, err := hiersearch.NewHiersearch(
		dbConfig,
		pipeline.DefaultEmbeddingDimension,
		hiersearch.WithChunker(pipeline.NewChunker(pipeline.WithMaxChunkSize(300), pipeline.WithOverlap(50))),
		hiersearch.WithEmbeddingMode(pipeline.EmbeddingModeSentences),
	)
	if err != nil {
		log.Fatalf("Failed to create hiersearch: %v", err)
	}
	defer h.Close()

	models := pipeline.DefaultModelConfig()
	models.DefaultLanguage = "en"
	models.Languages = []string{"en"}
	models.KeywordModel = pipeline.DefaultKeywordModel
	if err := h.UseDefaultRegistry(models); err != nil {
		log.Fatalf("Failed to load models: %v", err)
	}

	ctx := context.Background()

	fmt.Println("=== Indexing Trees ===")
	for i := range trees {
		stats, err := h.Index(ctx, &trees[i])
		if err != nil {
			log.Fatalf("Failed to index %s: %v", trees[i].Path, err)
		}
		fmt.Printf("%s: %d nodes, %d chunks in %s\n", trees[i].Path, stats.Nodes, stats.ChunksWritten, stats.Elapsed)
	}

	entries, err := h.Entries.SelectAllEntries(ctx, nil, 100)
	if err != nil {
		log.Fatalf("Failed to list entries: %v", err)
	}
	fmt.Printf("\n=== %d Entries ===\n", len(entries))
	for _, entry := range entries {
		fmt.Printf("%-40s %-8s %d chunk(s)\n", entry.Path, entry.Type, entry.ChunkCount)
	}

	// IVFFlat trades recall for build time on large tables
	err = h.ChangeIndexType(ctx, model.FieldContentEmbedding, database.IndexTypeIVFFlat, map[string]int{"lists": 10})
	if err != nil {
		log.Fatalf("Failed to change index type: %v", err)
	}

	question := "How do retrieval systems use embeddings?"

	for _, mode := range []string{"sparse", "dense", "hybrid"} {
		options := model.DefaultRetrieveOptions()
		options.Mode = mode
		options.Language = "en"
		options.RetrieveNb = 3
		// Favour the section titles and recent entries
		options.BoostTitle = 5
		options.BoostDate = 2

		retrieval, err := h.Retrieve(ctx, question, options)
		if err != nil {
			log.Fatalf("%s retrieval failed: %v", mode, err)
		}
		printSupports(strings.ToUpper(mode), retrieval)
	}
}

func printSupports(title string, retrieval *model.Retrieval) {
	fmt.Printf("\n=== %s (%d hits) ===\n", title, retrieval.TotalHits)
	for i, support := range retrieval.Supports {
		fmt.Printf("%d. [%.4f] %s > %s\n", i+1, support.Score, support.Chunk.ParentTitle, support.Title)
		fmt.Printf("   %s\n", support.Content)
		if len(support.Chunk.Keywords) > 0 {
			fmt.Printf("   keywords: %s\n", strings.Join(support.Chunk.Keywords, ", "))
		}
	}
}
