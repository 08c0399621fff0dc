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


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docmesh/docmesh/ai"
	"github.com/docmesh/docmesh/storage"
)

// Config holds configuration for the reindexing operation.
type Config struct {
	// BatchSize is the number of chunks to embed in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer orchestrates re-embedding of every chunk in a repository.
type Reindexer struct {
	repo      storage.ChunkRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
}

// NewReindexer creates a reindexer over the given chunk repository.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reindexer, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Reindexer{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
	}, nil
}

// Run re-embeds every chunk in every collection of the repository.
// Progress is reported to the configured writer. Collections are
// processed one at a time; context cancellation is checked between
// batches.
func (r *Reindexer) Run(ctx context.Context) error {
	collections, err := r.repo.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	byCollection := make(map[string][]*storage.IndexedChunk, len(collections))
	total := 0
	for _, collection := range collections {
		chunks, err := r.repo.GetChunks(ctx, collection)
		if err != nil {
			return fmt.Errorf("failed to load collection %s: %w", collection, err)
		}
		byCollection[collection] = chunks
		total += len(chunks)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in repository (0 chunks)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d chunks across %d collections (batch size: %d)\n",
		total, len(collections), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	for _, collection := range collections {
		chunks := byCollection[collection]
		for start := 0; start < len(chunks); start += r.config.BatchSize {
			end := start + r.config.BatchSize
			if end > len(chunks) {
				end = len(chunks)
			}

			if err := r.processor.Process(ctx, collection, chunks[start:end]); err != nil {
				return fmt.Errorf("failed to process batch in %s: %w", collection, err)
			}

			processed += end - start
			tracker.Update(processed)

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())
	return nil
}
