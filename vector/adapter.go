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


// Package vector is the semantic store adapter: it chunks documents
// into a per-user embedding collection and answers queries by
// expanding them into multiple terms, fanning out one index search per
// term, and merging the results by minimum distance.
package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/docmesh/docmesh/chunker"
	"github.com/docmesh/docmesh/core"
	"github.com/docmesh/docmesh/storage"
)

// DefaultTopK is the result count used when the caller passes none.
const DefaultTopK = 5

// Adapter owns the semantic side of ingestion and retrieval.
type Adapter struct {
	index    storage.EmbeddingIndex
	splitter *chunker.Splitter
	logger   *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithSplitter overrides the default chunk splitter.
func WithSplitter(splitter *chunker.Splitter) Option {
	return func(a *Adapter) error {
		a.splitter = splitter
		return nil
	}
}

// NewAdapter creates a semantic store adapter over the given index.
func NewAdapter(index storage.EmbeddingIndex, opts ...Option) (*Adapter, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}

	a := &Adapter{
		index:    index,
		splitter: chunker.NewSplitter(chunker.DefaultChunkSize, chunker.DefaultOverlap),
		logger:   slog.Default().With("component", "vector-adapter"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// CollectionFor maps a user to their embedding collection keyspace.
func CollectionFor(userID string) string {
	return fmt.Sprintf("user_%s_docs", userID)
}

// Ingest chunks the content and writes it to the user's collection.
// Duplicate content (by fingerprint) short-circuits to a skipped
// outcome; it is not an error. Backend failures are returned to the
// caller, which captures them as error outcomes.
func (a *Adapter) Ingest(ctx context.Context, userID, documentName, content string, meta core.DocumentMeta) (core.StoreOutcome, error) {
	if err := core.ValidateUpload(userID, documentName); err != nil {
		return core.StoreOutcome{}, err
	}

	collection := CollectionFor(userID)
	fp := core.FingerprintOf(content)

	existing, err := a.index.Get(ctx, collection, storage.MetaFilter{Fingerprint: fp})
	if err != nil {
		return core.StoreOutcome{}, err
	}
	if len(existing) > 0 {
		a.logger.Warn("duplicate detected in vector store, skipping",
			"document", documentName,
			"fingerprint", fp.Short(),
			"existing_document", existing[0].DocumentName)
		return skippedOutcome(), nil
	}

	documentID := uuid.New().String()
	chunks := a.splitter.Split(content)

	entries := make([]storage.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = storage.IndexEntry{
			ID:      fmt.Sprintf("%s_%d", documentID, i),
			Content: chunk,
			Meta: core.ChunkMeta{
				DocumentID:       documentID,
				DocumentName:     documentName,
				UserID:           userID,
				ChunkIndex:       i,
				Fingerprint:      fp,
				Tags:             meta.Tags,
				Description:      meta.Description,
				OriginalFilename: meta.OriginalFilename,
				ContentType:      meta.ContentType,
			},
		}
	}

	err = a.index.Upsert(ctx, collection, entries...)
	if errors.Is(err, storage.ErrDuplicateKey) {
		// Lost a race against a concurrent identical upload. Same
		// outcome as the existence check above.
		a.logger.Warn("concurrent duplicate upload detected in vector store",
			"document", documentName, "fingerprint", fp.Short())
		return skippedOutcome(), nil
	}
	if err != nil {
		return core.StoreOutcome{}, err
	}

	a.logger.Info("document added to vector store",
		"document", documentName,
		"document_id", documentID,
		"chunks", len(chunks))
	return core.StoreOutcome{
		Status:          core.StatusSuccess,
		DocumentID:      documentID,
		ChunksProcessed: len(chunks),
		Message:         "document added to vector database",
	}, nil
}

// Query runs the multi-term retrieval described on ExpandTerms: one
// index search per term, min-distance merge keyed by (document, chunk),
// final ascending sort truncated to topK.
func (a *Adapter) Query(ctx context.Context, userID, query string, topK int) ([]core.VectorResult, error) {
	return a.QueryWithMonitor(ctx, userID, query, topK, nil)
}

// QueryWithMonitor is Query with observation hooks for each stage.
func (a *Adapter) QueryWithMonitor(ctx context.Context, userID, query string, topK int, monitor QueryMonitor) ([]core.VectorResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	monitor.Start(query)

	terms := ExpandTerms(query)
	if len(terms) == 0 {
		// Nothing survived expansion (all stop words or too short).
		// Search the raw query once rather than returning nothing.
		terms = []string{query}
	}
	monitor.AfterTermExpansion(terms)

	collection := CollectionFor(userID)

	type chunkKey struct {
		documentID string
		chunkIndex int
	}
	best := make(map[chunkKey]storage.VectorHit)
	var order []chunkKey

	for _, term := range terms {
		hits, err := a.index.Query(ctx, collection, term, topK)
		if err != nil {
			// One failing term never aborts the others.
			a.logger.Warn("term query failed, skipping", "term", term, "err", err)
			monitor.TermFailed(term, err)
			continue
		}
		monitor.TermSearched(term, len(hits))

		for _, hit := range hits {
			key := chunkKey{hit.Meta.DocumentID, hit.Meta.ChunkIndex}
			current, ok := best[key]
			if !ok {
				best[key] = hit
				order = append(order, key)
				continue
			}
			// Closest match wins; ties keep the first-seen occurrence.
			if hit.Distance < current.Distance {
				best[key] = hit
			}
		}
	}
	monitor.AfterMerge(len(best))

	results := make([]core.VectorResult, 0, len(best))
	for _, key := range order {
		hit := best[key]
		results = append(results, core.VectorResult{
			Content:  hit.Content,
			Meta:     hit.Meta,
			Distance: hit.Distance,
		})
	}

	// Stable sort preserves first-seen order among equal distances.
	slices.SortStableFunc(results, func(x, y core.VectorResult) int {
		if x.Distance < y.Distance {
			return -1
		}
		if x.Distance > y.Distance {
			return 1
		}
		return 0
	})
	if len(results) > topK {
		results = results[:topK]
	}

	monitor.Finish(results)
	return results, nil
}

// ListDocuments returns the chunk metadata of every document in the
// user's collection, one entry per document (the chunk-0 record).
func (a *Adapter) ListDocuments(ctx context.Context, userID string) ([]core.ChunkMeta, error) {
	metas, err := a.index.Get(ctx, CollectionFor(userID), storage.MetaFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	var documents []core.ChunkMeta
	for _, meta := range metas {
		if meta.ChunkIndex == 0 {
			documents = append(documents, meta)
		}
	}
	return documents, nil
}

func skippedOutcome() core.StoreOutcome {
	return core.StoreOutcome{
		Status: core.StatusSkipped,
		Reason: core.ReasonDuplicate,
	}
}
