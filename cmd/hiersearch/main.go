package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/siherrmann/hiersearch"
	"github.com/siherrmann/hiersearch/config"
	"github.com/siherrmann/hiersearch/core/pipeline"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "hiersearch",
		Usage: "Index hierarchical documents and retrieve supports for questions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Index a JSON document tree",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to a JSON file holding one entry tree or an array of trees",
						Required: true,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Retrieve the supports of a question",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Retrieval mode (sparse, dense, hybrid), defaults to the configured mode",
					},
					&cli.IntFlag{
						Name:  "nb",
						Usage: "Number of supports to return, defaults to the configured number",
					},
					&cli.StringFlag{
						Name:  "language",
						Usage: "Language of the question, defaults to the configured language",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the retrieval as JSON",
					},
				},
			},
		},
	}
}

func indexCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	trees, err := readTrees(c.String("file"))
	if err != nil {
		return err
	}

	h, _, err := open(c)
	if err != nil {
		return err
	}
	defer h.Close()

	for _, tree := range trees {
		stats, err := h.Index(ctx, tree)
		if stats != nil {
			fmt.Fprintf(c.App.Writer, "%s: %d nodes, %d chunks written, %d skipped in %s\n",
				tree.Path, stats.Nodes, stats.ChunksWritten, stats.ChunksSkipped, stats.Elapsed)
		}
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", tree.Path, err)
		}
	}

	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	h, cfg, err := open(c)
	if err != nil {
		return err
	}
	defer h.Close()

	options := cfg.Retrieve
	if c.IsSet("mode") {
		options.Mode = c.String("mode")
	}
	if c.IsSet("nb") {
		options.RetrieveNb = c.Int("nb")
	}
	if c.IsSet("language") {
		options.Language = c.String("language")
	}

	retrieval, err := h.Retrieve(c.Context, question, options)
	if err != nil {
		return fmt.Errorf("failed to retrieve: %w", err)
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, retrieval)
	}
	printSupports(c.App.Writer, retrieval)
	return nil
}

// open loads the configuration, connects to the store and loads the models
func open(c *cli.Context) (*hiersearch.Hiersearch, config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, cfg, err
	}

	h, err := hiersearch.NewHiersearch(
		&cfg.Database,
		cfg.Models.Dimension,
		hiersearch.WithLogger(slog.Default()),
		hiersearch.WithChunker(pipeline.NewChunkerWithConfig(cfg.Chunker)),
		hiersearch.WithEmbeddingMode(cfg.Models.EmbeddingMode),
	)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open store: %w", err)
	}

	if err := h.UseDefaultRegistry(cfg.Models); err != nil {
		h.Close()
		return nil, cfg, fmt.Errorf("failed to load models: %w", err)
	}

	return h, cfg, nil
}

// readTrees reads one entry tree or an array of entry trees
func readTrees(path string) ([]*model.RawEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var trees []*model.RawEntry
		if err := json.Unmarshal(data, &trees); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return trees, nil
	}

	tree := &model.RawEntry{}
	if err := json.Unmarshal(data, tree); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return []*model.RawEntry{tree}, nil
}

func printSupports(w io.Writer, retrieval *model.Retrieval) {
	fmt.Fprintf(w, "%d hits, max score %.3f\n", retrieval.TotalHits, retrieval.MaxScore)
	for i, support := range retrieval.Supports {
		fmt.Fprintf(w, "\n%d. [%.3f] %s (%s)\n", i+1, support.Score, support.Title, support.Date.Format("2006-01-02"))
		fmt.Fprintln(w, support.Content)
		for _, link := range support.Link {
			fmt.Fprintf(w, "   -> %s\n", link)
		}
	}
}

func printJSON(w io.Writer, retrieval *model.Retrieval) error {
	// Embeddings are left out of the output
	for _, support := range retrieval.Supports {
		support.Chunk = nil
	}
	retrieval.QuestionEmbedding = nil

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(retrieval)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	slog.SetDefault(helper.NewLogger(os.Stderr, level))
	return nil
}
