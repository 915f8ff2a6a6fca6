// Copyright 2025 Docsift Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/docsift/docsift"
	"github.com/docsift/docsift/ai"
	"github.com/docsift/docsift/answer"
	"github.com/docsift/docsift/document"
	"github.com/docsift/docsift/ingestion"
	"github.com/docsift/docsift/reembed"
)

func main() {
	app := &cli.App{
		Name:  "docsift",
		Usage: "Hybrid document retrieval over a local index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Index all supported documents under a directory",
				Action: ingestCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Directory containing source documents",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Drop the index and rebuild it from scratch",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Maximum chunk length in characters",
						Value: document.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Overlap between consecutive chunks in characters",
						Value: document.DefaultOverlap,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of parallel extraction workers (0 = auto)",
					},
					&cli.IntFlag{
						Name:  "add-batch",
						Usage: "Number of chunks embedded and written per batch",
						Value: ingestion.DefaultAddBatchSize,
					},
					&cli.IntFlag{
						Name:  "lookup-batch",
						Usage: "Number of chunk ids checked against the index per batch",
						Value: ingestion.DefaultLookupBatchSize,
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Retrieve ranked passages for a query",
				ArgsUsage: "<query>",
				Action:    queryCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   4,
					},
					&cli.BoolFlag{
						Name:  "scores",
						Usage: "Show per-signal score breakdown",
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Generate a context-grounded answer for a question",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of passages used as context",
						Value:   4,
					},
				),
			},
			{
				Name:   "status",
				Usage:  "Show index statistics",
				Action: statusCommand,
				Flags:  commonFlags(),
			},
			{
				Name:   "reembed",
				Usage:  "Recompute all stored embeddings with the configured model",
				Action: reembedCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// commonFlags returns the flags shared by every command: index location and
// AI service endpoints.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the index directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "multilingual-e5-small",
		},
		&cli.StringFlag{
			Name:  "generator-model",
			Usage: "Answer generation model name",
			Value: "qwen2.5:3b",
		},
	}
}

func openLibrary(c *cli.Context) (*docsift.Library, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGeneratorModel(c.String("generator-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	library, err := docsift.OpenLibrary(c.String("db"), docsift.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return library, nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	library, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer library.Close()

	opts := []ingestion.Option{
		ingestion.WithChunking(c.Int("chunk-size"), c.Int("overlap")),
		ingestion.WithAddBatchSize(c.Int("add-batch")),
		ingestion.WithLookupBatchSize(c.Int("lookup-batch")),
	}
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, ingestion.WithPoolSize(workers))
	}

	pipeline, err := library.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	if c.Bool("reset") {
		if err := pipeline.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset index: %w", err)
		}
	}

	report, err := pipeline.IngestDir(ctx, c.String("input"))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Documents processed: %d\n", report.Documents)
	if len(report.Failed) > 0 {
		fmt.Printf("Documents skipped:   %d\n", len(report.Failed))
		for _, path := range report.Failed {
			fmt.Printf("  %s\n", path)
		}
	}
	fmt.Printf("Chunks produced:     %d\n", report.Chunks)
	fmt.Printf("Already indexed:     %d\n", report.Existing)
	fmt.Printf("Newly added:         %d\n", report.Added)
	return nil
}

func queryCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query text is required")
	}

	library, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer library.Close()

	if err := requireIndexedChunks(library); err != nil {
		return err
	}

	retriever, err := library.NewRetriever()
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}

	results, err := retriever.Retrieve(context.Background(), query, c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. [%.4f] %s (chunk %d)\n",
			i+1, result.Score, result.Chunk.Source, result.Chunk.Position)
		if c.Bool("scores") {
			fmt.Printf("   vector=%.4f keyword=%.1f\n", result.VectorScore, result.KeywordScore)
		}
		fmt.Printf("   %s\n", snippet(result.Chunk.Text, 160))
	}
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("question text is required")
	}

	library, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer library.Close()

	if err := requireIndexedChunks(library); err != nil {
		return err
	}

	composer, err := library.NewComposer(answerOptions(c)...)
	if err != nil {
		return fmt.Errorf("failed to create composer: %w", err)
	}

	result, err := composer.Ask(context.Background(), question)
	if err != nil {
		return fmt.Errorf("answer generation failed: %w", err)
	}

	fmt.Println(result.Text)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, source := range result.Sources {
			fmt.Printf("  [%d] %s (chunk %d)\n", i+1, source.Chunk.Source, source.Chunk.Position)
		}
	}
	return nil
}

// requireIndexedChunks rejects read commands against an empty index with a
// hint at the remediation instead of returning an empty result.
func requireIndexedChunks(library *docsift.Library) error {
	count, err := library.Index().Count(context.Background())
	if err != nil {
		return fmt.Errorf("failed to count index entries: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("index is empty: run 'docsift ingest' first")
	}
	return nil
}

func answerOptions(c *cli.Context) []answer.Option {
	var opts []answer.Option
	if topK := c.Int("top-k"); topK > 0 {
		opts = append(opts, answer.WithTopK(topK))
	}
	return opts
}

func statusCommand(c *cli.Context) error {
	library, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer library.Close()

	count, err := library.Index().Count(context.Background())
	if err != nil {
		return fmt.Errorf("failed to count index entries: %w", err)
	}

	fmt.Printf("Index:      %s\n", c.String("db"))
	fmt.Printf("Chunks:     %d\n", count)
	fmt.Printf("Generation: %d\n", library.Index().Generation())
	return nil
}

func reembedCommand(c *cli.Context) error {
	library, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer library.Close()

	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder, err := library.NewReembedder(config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Index: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
