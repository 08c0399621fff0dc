// Copyright 2026 Docmesh Authors
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
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docmesh/docmesh"
	"github.com/docmesh/docmesh/ai"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/reindex"
	neo4jstore "github.com/docmesh/docmesh/storage/neo4j"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "docmesh",
		Usage: "Dual-store document ingestion and retrieval",
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
				Name:      "ingest",
				Usage:     "Ingest a document file into both stores",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: append(systemFlags(),
					&cli.StringFlag{
						Name:  "name",
						Usage: "Document name (defaults to the file's base name)",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag to attach to the document (repeatable)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Document description",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Semantic similarity search over a user's documents",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(systemFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of results",
						Value: 5,
					},
				),
			},
			{
				Name:      "graph",
				Usage:     "Substring search over a user's document graph",
				ArgsUsage: "<query>",
				Action:    graphCommand,
				Flags:     systemFlags(),
			},
			{
				Name:   "list",
				Usage:  "List a user's documents in both stores",
				Action: listCommand,
				Flags:  systemFlags(),
			},
			{
				Name:   "seed",
				Usage:  "Ingest the bundled sample corpus",
				Action: seedCommand,
				Flags:  systemFlags(),
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every stored chunk with the configured embedding model",
				Action: reindexCommand,
				Flags: append(systemFlags(),
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

// systemFlags are the flags shared by every command that opens a system.
func systemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "user",
			Usage: "User ID owning the documents",
			Value: "default",
		},
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL for embeddings and recognition",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "recognizer-model",
			Usage: "Entity recognition model name",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:  "neo4j-uri",
			Usage: "Neo4j bolt URI for the graph store (default: local BadgerDB)",
		},
		&cli.StringFlag{
			Name:  "neo4j-user",
			Usage: "Neo4j username",
		},
		&cli.StringFlag{
			Name:  "neo4j-password",
			Usage: "Neo4j password",
		},
	}
}

// openSystem builds a system from the shared flags.
func openSystem(c *cli.Context) (*docmesh.System, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithRecognizerModel(c.String("recognizer-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []docmesh.SystemOption{docmesh.WithAIConfig(aiConfig)}
	if uri := c.String("neo4j-uri"); uri != "" {
		var storeOpts []neo4jstore.Option
		if user := c.String("neo4j-user"); user != "" {
			storeOpts = append(storeOpts, neo4jstore.WithBasicAuth(user, c.String("neo4j-password")))
		}
		graphStore, err := neo4jstore.NewGraphStore(context.Background(), uri, storeOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", uri, err)
		}
		opts = append(opts, docmesh.WithGraphStore(graphStore))
	}

	system, err := docmesh.Open(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return system, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := c.String("name")
	if name == "" {
		name = filepath.Base(path)
	}

	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	report := system.Ingest(context.Background(), c.String("user"), name, string(content), core.DocumentMeta{
		Tags:             c.StringSlice("tag"),
		Description:      c.String("description"),
		OriginalFilename: filepath.Base(path),
	})
	printReport(os.Stdout, name, report)

	if report.Vector.Status == core.StatusError || report.Graph.Status == core.StatusError {
		return fmt.Errorf("ingestion finished with errors")
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}

	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	results, err := system.QueryVector(context.Background(), c.String("user"), c.Args().First(), c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, result := range results {
		fmt.Printf("%d. %s (chunk %d, distance %.4f)\n",
			i+1, result.Meta.DocumentName, result.Meta.ChunkIndex, result.Distance)
		fmt.Printf("   %s\n", core.Truncate(result.Content, 200))
	}
	return nil
}

func graphCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}

	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	results, err := system.QueryGraph(context.Background(), c.String("user"), c.Args().First())
	if err != nil {
		return fmt.Errorf("graph search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, result := range results {
		fmt.Printf("%d. %s (uploaded %s)\n",
			i+1, result.Document.Name, result.Document.UploadTime.Format(time.RFC3339))
		if len(result.Entities) > 0 {
			fmt.Printf("   entities: %s\n", formatEntities(result.Entities))
		}
		fmt.Printf("   %s\n", result.Document.ContentPreview)
	}
	return nil
}

func listCommand(c *cli.Context) error {
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	inventory, err := system.ListDocuments(context.Background(), c.String("user"))
	if err != nil {
		return fmt.Errorf("listing failed: %w", err)
	}

	fmt.Printf("Vector store: %d documents\n", len(inventory.VectorDocuments))
	for _, meta := range inventory.VectorDocuments {
		fmt.Printf("  %s (%s)\n", meta.DocumentName, meta.DocumentID)
	}
	fmt.Printf("Graph store: %d documents\n", len(inventory.GraphDocuments))
	for _, result := range inventory.GraphDocuments {
		fmt.Printf("  %s (%s, uploaded %s)\n",
			result.Document.Name, result.Document.ID,
			result.Document.UploadTime.Format(time.RFC3339))
	}
	return nil
}

// sampleDocuments is the bundled seed corpus: small documents with
// enough named entities and shared vocabulary to make both stores'
// queries return something interesting.
var sampleDocuments = []struct {
	name    string
	tags    []string
	content string
}{
	{
		name: "market-notes.txt",
		tags: []string{"groceries"},
		content: "Sara bought tomatoes and peppers at the farmers market in Lyon. " +
			"The market opens every Saturday morning near the old cathedral. " +
			"Fresh produce prices have stayed stable through the spring season.",
	},
	{
		name: "trip-report.txt",
		tags: []string{"travel"},
		content: "Miguel took the night train from Lyon to Barcelona in April. " +
			"The journey crossed the Pyrenees and arrived just after sunrise. " +
			"He recommended the window seats on the eastern side for the views.",
	},
	{
		name: "project-log.txt",
		tags: []string{"work"},
		content: "The indexing service deployed by Acme Systems processed two million " +
			"documents during the first week. Latency stayed under budget except " +
			"during the Tuesday backfill, which Sara traced to a misconfigured cache.",
	},
	{
		name: "recipe.txt",
		tags: []string{"cooking"},
		content: "Roast the tomatoes with garlic and olive oil until they collapse. " +
			"Blend with basil and a splash of vinegar for a quick market sauce. " +
			"Serve over pasta or spread on grilled bread.",
	},
	{
		name: "reading-list.txt",
		tags: []string{"books"},
		content: "Finished the biography of Marie Curie and started a history of the " +
			"Barcelona exposition. Both came recommended by the library in Lyon.",
	},
}

func seedCommand(c *cli.Context) error {
	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	ctx := context.Background()
	userID := c.String("user")
	for _, doc := range sampleDocuments {
		report := system.Ingest(ctx, userID, doc.name, doc.content, core.DocumentMeta{
			Tags:        doc.tags,
			Description: "seed document",
		})
		printReport(os.Stdout, doc.name, report)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	config := &reindex.Config{
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

	system, err := openSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	reindexer, err := system.NewReindexer(config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reindexer: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("ai-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reindexer.Run(context.Background()); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

// printReport writes a per-store ingestion summary.
func printReport(w io.Writer, name string, report core.IngestReport) {
	fmt.Fprintf(w, "Document: %s\n", name)
	fmt.Fprintf(w, "  vector: %s", report.Vector.Status)
	if report.Vector.Status == core.StatusSuccess {
		fmt.Fprintf(w, " (%d chunks)", report.Vector.ChunksProcessed)
	}
	if report.Vector.Message != "" && report.Vector.Status == core.StatusError {
		fmt.Fprintf(w, ": %s", report.Vector.Message)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  graph:  %s", report.Graph.Status)
	if report.Graph.Status == core.StatusSuccess {
		fmt.Fprintf(w, " (%d entities)", report.Graph.EntitiesExtracted)
		if len(report.Graph.Entities) > 0 {
			fmt.Fprintf(w, ": %s", formatEntities(report.Graph.Entities))
		}
	}
	if report.Graph.Message != "" && report.Graph.Status == core.StatusError {
		fmt.Fprintf(w, ": %s", report.Graph.Message)
	}
	fmt.Fprintln(w)
}

// formatEntities renders entities as "Name (type)" joined with commas.
func formatEntities(entities []core.Entity) string {
	parts := make([]string, len(entities))
	for i, entity := range entities {
		parts[i] = fmt.Sprintf("%s (%s)", entity.Name, entity.Type)
	}
	return strings.Join(parts, ", ")
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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
