package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/hiersearch"
	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
)

// sampleTree is a page with two sections, the sections inherit the page context
var sampleTree = model.RawEntry{
	Type:          model.EntryTypePage,
	Path:          "/guides/vector-search",
	Title:         "Vector search with PostgreSQL",
	Content:       "This guide explains how [pgvector](https://github.com/pgvector/pgvector) adds vector similarity search to PostgreSQL.",
	Language:      "en",
	FirstSeenDate: "03/01/2024",
	Children: []model.RawEntry{
		{
			Type:          model.EntryTypeSection,
			Path:          "/guides/vector-search#indexes",
			Title:         "Indexes",
			Content:       "HNSW indexes give better recall than IVFFlat indexes but take longer to build and use more memory.",
			Language:      "en",
			FirstSeenDate: "03/01/2024",
		},
		{
			Type:          model.EntryTypeSection,
			Path:          "/guides/vector-search#distances",
			Title:         "Distances",
			Content:       "The cosine distance operator compares the direction of two embeddings regardless of their length.",
			Language:      "en",
			FirstSeenDate: "03/01/2024",
		},
	},
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	h, err := hiersearch.NewHiersearch(dbConfig, pipeline.DefaultEmbeddingDimension)
	if err != nil {
		log.Fatalf("Failed to create hiersearch: %v", err)
	}
	defer h.Close()

	// Load the default models with english as default language
	models := pipeline.DefaultModelConfig()
	models.DefaultLanguage = "en"
	models.Languages = []string{"en"}
	if err := h.UseDefaultRegistry(models); err != nil {
		log.Fatalf("Failed to load models: %v", err)
	}

	ctx := context.Background()

	fmt.Println("Indexing document tree...")
	stats, err := h.Index(ctx, &sampleTree)
	if err != nil {
		log.Fatalf("Failed to index: %v", err)
	}
	fmt.Printf("Indexed %d nodes into %d chunks\n", stats.Nodes, stats.ChunksWritten)

	question := "Which index has the better recall?"
	fmt.Printf("\nQuerying: %s\n", question)

	options := model.DefaultRetrieveOptions()
	options.Language = "en"
	retrieval, err := h.Retrieve(ctx, question, options)
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}

	fmt.Printf("\nFound %d supports (max score %.4f):\n", len(retrieval.Supports), retrieval.MaxScore)
	for i, support := range retrieval.Supports {
		fmt.Printf("\n--- Support %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", support.Score)
		fmt.Printf("Title: %s (in %s)\n", support.Title, support.Chunk.ParentTitle)
		fmt.Printf("Content: %s\n", support.Content)
		fmt.Printf("Links: %v\n", support.Link)
	}

	fmt.Println("\nBasic example completed successfully!")
}
