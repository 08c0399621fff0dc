package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/docmesh/docmesh/ai"
	"github.com/docmesh/docmesh/storage"
)

// BatchProcessor re-embeds batches of chunks and rewrites their vectors.
type BatchProcessor struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a batch processor. Embedding calls are
// retried up to maxRetries times with exponential backoff starting at
// retryBaseDelay.
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds one batch of chunks and updates them in the
// repository. Vectors are normalized before the write.
func (bp *BatchProcessor) Process(ctx context.Context, collection string, chunks []*storage.IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	for i := range chunks {
		chunks[i].Vector = NormalizeVector(embeddings[i])
	}

	if _, err := bp.repo.UpdateChunks(ctx, collection, chunks...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}
	return nil
}
